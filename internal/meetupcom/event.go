package meetupcom

// Event is one raw event record as returned by the events API.
// Time, UTCOffset and Duration are milliseconds.
type Event struct {
	ID          string  `json:"id"`
	Name        *string `json:"name"`
	Time        *int64  `json:"time"`
	UTCOffset   *int64  `json:"utc_offset"`
	Duration    *int64  `json:"duration"`
	Status      string  `json:"status"`
	Announced   *bool   `json:"announced"`
	Venue       *Venue  `json:"venue"`
	Group       *Group  `json:"group"`
	EventURL    *string `json:"event_url"`
	Description string  `json:"description"`
}

// Venue is the physical location attached to an event
type Venue struct {
	Name                 string  `json:"name"`
	City                 string  `json:"city"`
	Country              string  `json:"country"` // ISO 3166 alpha-2, lower case
	LocalizedCountryName string  `json:"localized_country_name"`
	Lon                  float64 `json:"lon"`
	Lat                  float64 `json:"lat"`
}

// Group is the owning group of an event
type Group struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	URLName  string  `json:"urlname"`
	GroupLon float64 `json:"group_lon"`
	GroupLat float64 `json:"group_lat"`
}

// EventsResponse is the envelope of the v2 events endpoint
type EventsResponse struct {
	Results []Event `json:"results"`
}
