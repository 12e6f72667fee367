package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pfrederiksen/meetup-events/internal/meetup"
)

// SortOrder represents the available sorting options
type SortOrder string

const (
	SortByDate    SortOrder = "date"
	SortByCountry SortOrder = "country"
	SortByTitle   SortOrder = "title"
)

// ParseSortOrder validates a --sort value
func ParseSortOrder(s string) (SortOrder, error) {
	switch order := SortOrder(strings.ToLower(strings.TrimSpace(s))); order {
	case SortByDate, SortByCountry, SortByTitle:
		return order, nil
	default:
		return "", fmt.Errorf("invalid sort order: %s (must be 'date', 'country' or 'title')", s)
	}
}

// sortMeetups sorts meetups in place. Ties fall back to the start time and
// then keep their saved order.
func sortMeetups(meetups []meetup.Meetup, sortOrder SortOrder) {
	switch sortOrder {
	case SortByDate:
		sort.SliceStable(meetups, func(i, j int) bool {
			return compareByDate(meetups[i], meetups[j])
		})
	case SortByCountry:
		sort.SliceStable(meetups, func(i, j int) bool {
			if meetups[i].Location.Country != meetups[j].Location.Country {
				return meetups[i].Location.Country < meetups[j].Location.Country
			}
			// If countries are equal, sort by date
			return compareByDate(meetups[i], meetups[j])
		})
	case SortByTitle:
		sort.SliceStable(meetups, func(i, j int) bool {
			ti, tj := strings.ToLower(meetups[i].Title), strings.ToLower(meetups[j].Title)
			if ti != tj {
				return ti < tj
			}
			// If titles are equal, sort by date
			return compareByDate(meetups[i], meetups[j])
		})
	}
}

// compareByDate returns true if meetup i starts before meetup j
func compareByDate(i, j meetup.Meetup) bool {
	return i.TimeSpan.Start.Before(j.TimeSpan.Start)
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
