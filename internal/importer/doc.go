// Package importer turns raw meetup.com events into an ordered list of meetups.
//
// The Pipeline fetches events for a list of group IDs in batches of at most
// MaxGroupsPerRequest, builds each event's time span, drops events that are not
// public, not upcoming, beyond the forecast horizon, without a venue, or from a group
// that already contributed a meetup in the same run, normalizes the rest and sorts
// them by start time.
//
// The pipeline does not log, cache, retry or persist anything. Failures from the
// event source abort the run with an *ImportError; records missing required fields
// produce a *MalformedRecordError, handled according to the configured MalformedPolicy.
package importer
