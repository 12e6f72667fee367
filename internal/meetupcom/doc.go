// Package meetupcom provides the HTTP client for the meetup.com events API.
//
// The client fetches raw upcoming events for a batch of group IDs. Raw events are
// decoded into loosely-typed records whose optional fields are pointers, so callers
// can tell an absent field from a zero value. No caching or retrying is done here.
package meetupcom
