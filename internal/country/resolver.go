package country

import (
	"strings"

	"github.com/pfrederiksen/meetup-events/internal/meetupcom"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Unknown is returned when no country can be determined
const Unknown = "unknown"

// Resolver maps venue data to a country name
type Resolver struct {
	namer display.Namer
}

// NewResolver creates a Resolver rendering country names in English
func NewResolver() *Resolver {
	return &Resolver{namer: display.English.Regions()}
}

// ResolveByVenue returns the country name of a venue, or Unknown
func (r *Resolver) ResolveByVenue(venue meetupcom.Venue) string {
	if name := strings.TrimSpace(venue.LocalizedCountryName); name != "" {
		return name
	}

	if name := r.NameByCode(venue.Country); name != "" {
		return name
	}

	if code, ok := cityCountries[strings.TrimSpace(venue.City)]; ok {
		if name := r.NameByCode(code); name != "" {
			return name
		}
	}

	return Unknown
}

// NameByCode returns the English name of an ISO 3166 alpha-2 code, or "" if it is not one
func (r *Resolver) NameByCode(code string) string {
	code = strings.TrimSpace(code)
	if len(code) != 2 {
		return ""
	}

	region, err := language.ParseRegion(strings.ToUpper(code))
	if err != nil || !region.IsCountry() {
		return ""
	}

	return r.namer.Name(region)
}
