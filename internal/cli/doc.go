// Package cli implements the command-line interface for meetup-events.
//
// The cli package provides the Cobra-based CLI with commands to import upcoming
// meetups of the configured groups, list and filter the saved import, export it
// as an iCalendar feed and run imports on a schedule. It coordinates the group,
// meetupcom, importer, storage and metrics packages.
package cli
