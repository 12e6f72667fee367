// Package country resolves the country of a meetup venue.
//
// Resolution never fails: it prefers the localized country name supplied by the API,
// falls back to the English name of the venue's ISO country code, then to a static
// table of known cities, and finally returns Unknown.
package country
