// Package config loads meetup-events settings from environment variables.
//
// Every setting has a default, so an empty environment is valid except for
// MEETUP_API_KEY, which the import commands require. Command-line flags
// override the values read here.
package config
