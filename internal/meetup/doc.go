// Package meetup provides the normalized meetup types produced by an import run.
//
// A Meetup is the filtered, normalized form of one upcoming group event. Each meetup
// is assigned a deterministic SHA1-based ID generated from its event URL, enabling
// reliable comparison between the current import and the previously saved one.
package meetup
