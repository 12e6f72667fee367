package meetup

import (
	"sort"
)

// DiffResult contains the meetups that were not part of the previous import
type DiffResult struct {
	NewMeetups []Meetup
	Countries  map[string][]Meetup // new meetups grouped by country
}

// Diff compares the current import against the previous one and returns new meetups.
// New meetups keep the order they have in current.
func Diff(previous, current []Meetup) *DiffResult {
	result := &DiffResult{
		NewMeetups: make([]Meetup, 0),
		Countries:  make(map[string][]Meetup),
	}

	seen := make(map[string]struct{}, len(previous))
	for _, m := range previous {
		seen[m.ID] = struct{}{}
	}

	for _, m := range current {
		if _, exists := seen[m.ID]; exists {
			continue
		}
		result.NewMeetups = append(result.NewMeetups, m)
		result.Countries[m.Location.Country] = append(result.Countries[m.Location.Country], m)
	}

	return result
}

// Countries returns the sorted country names of a grouping
func Countries(byCountry map[string][]Meetup) []string {
	countries := make([]string, 0, len(byCountry))
	for c := range byCountry {
		countries = append(countries, c)
	}
	sort.Strings(countries)
	return countries
}

// Change describes a field that differs between two imports of the same meetup
type Change struct {
	MeetupID   string `json:"meetup_id"`
	ChangeType string `json:"change_type"` // "start", "title", "city"
	OldValue   string `json:"old_value"`
	NewValue   string `json:"new_value"`
}

// DetectChanges compares two imports of the same meetup
func DetectChanges(previous, current Meetup) []Change {
	var changes []Change

	if !previous.TimeSpan.Start.Equal(current.TimeSpan.Start) {
		changes = append(changes, Change{
			MeetupID:   current.ID,
			ChangeType: "start",
			OldValue:   previous.TimeSpan.Start.Format("2006-01-02 15:04"),
			NewValue:   current.TimeSpan.Start.Format("2006-01-02 15:04"),
		})
	}

	if previous.Title != current.Title {
		changes = append(changes, Change{
			MeetupID:   current.ID,
			ChangeType: "title",
			OldValue:   previous.Title,
			NewValue:   current.Title,
		})
	}

	if previous.Location.City != current.Location.City {
		changes = append(changes, Change{
			MeetupID:   current.ID,
			ChangeType: "city",
			OldValue:   previous.Location.City,
			NewValue:   current.Location.City,
		})
	}

	return changes
}

// CompareImports returns the changes of every meetup present in both imports
func CompareImports(previous, current []Meetup) []Change {
	byID := make(map[string]Meetup, len(previous))
	for _, m := range previous {
		byID[m.ID] = m
	}

	var all []Change
	for _, m := range current {
		if prev, ok := byID[m.ID]; ok {
			all = append(all, DetectChanges(prev, m)...)
		}
	}
	return all
}
