package importer

// cityNormalization maps messy venue city strings from the API to canonical short
// city names. Cities not listed are kept as they are.
var cityNormalization = map[string]string{
	// administrative and local names
	"Hlavní město Praha": "Prague",
	"Praha":              "Prague",
	"Wien":               "Vienna",
	"Warszawa":           "Warsaw",
	"München":            "Munich",
	"Köln":               "Cologne",

	// postal codes and addresses
	"1065 Budapest":  "Budapest",
	"10997 Berlin":   "Berlin",
	"22765 Hamburg":  "Hamburg",
	"EC2A 2BA":       "London",
	"Oxford OX1 3BY": "Oxford",
	"M4 2AH":         "Manchester",
	"BH12 1AZ":       "Poole",
	"LE2 7DR":        "Leicester",

	// casing
	"ISTANBUL": "Istanbul",
	"BERLIN":   "Berlin",
}

// NormalizeCity returns the canonical name of a venue city
func NormalizeCity(city string) string {
	if canonical, ok := cityNormalization[city]; ok {
		return canonical
	}
	return city
}
