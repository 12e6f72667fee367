package country

// cityCountries maps canonical city names to ISO 3166 alpha-2 codes.
// Used when the API omits the country of a venue.
var cityCountries = map[string]string{
	// Central Europe
	"Prague":     "CZ",
	"Brno":       "CZ",
	"Vienna":     "AT",
	"Budapest":   "HU",
	"Warsaw":     "PL",
	"Krakow":     "PL",
	"Bratislava": "SK",

	// Germany
	"Berlin":    "DE",
	"Hamburg":   "DE",
	"Munich":    "DE",
	"Cologne":   "DE",
	"Frankfurt": "DE",

	// UK
	"London":     "GB",
	"Oxford":     "GB",
	"Manchester": "GB",
	"Poole":      "GB",
	"Leicester":  "GB",

	// Elsewhere
	"Istanbul":  "TR",
	"Amsterdam": "NL",
	"Paris":     "FR",
	"Madrid":    "ES",
	"Barcelona": "ES",
	"Zurich":    "CH",
}
