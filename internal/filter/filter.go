// Package filter narrows saved meetups down for the list and calendar commands.
//
// Criteria:
//   - Date ranges (from/to dates, inclusive)
//   - Countries (exact, case-insensitive)
//   - Cities (substring matching, case-insensitive)
//   - Groups (substring matching on the group name, case-insensitive)
//   - Weekends only (Saturday/Sunday)
//
// Example usage:
//
//	// Weekend meetups in Austria during March
//	from, to, _ := filter.ParseDateRange("March", time.Now())
//	f := filter.NewFilter()
//	f.DateFrom, f.DateTo = from, to
//	f.Countries = []string{"Austria"}
//	f.WeekendsOnly = true
//
//	filtered := f.Apply(meetups)
package filter

import (
	"fmt"
	"strings"
	"time"

	"github.com/pfrederiksen/meetup-events/internal/meetup"
)

// Filter represents meetup filtering criteria
type Filter struct {
	// Date range filtering
	DateFrom *time.Time `json:"date_from,omitempty"`
	DateTo   *time.Time `json:"date_to,omitempty"`

	// Country filtering (case-insensitive exact match)
	Countries []string `json:"countries,omitempty"`

	// City filtering (case-insensitive substring match)
	Cities []string `json:"cities,omitempty"`

	// Group name filtering (case-insensitive substring match)
	Groups []string `json:"groups,omitempty"`

	// Weekend-only filtering (Saturday/Sunday)
	WeekendsOnly bool `json:"weekends_only,omitempty"`
}

// NewFilter creates a new empty filter with no active criteria.
// The filter will match all meetups until criteria are added.
func NewFilter() *Filter {
	return &Filter{
		Countries: []string{},
		Cities:    []string{},
		Groups:    []string{},
	}
}

// IsEmpty checks if the filter has any active criteria.
// Returns true if the filter would match all meetups.
func (f *Filter) IsEmpty() bool {
	return f.DateFrom == nil &&
		f.DateTo == nil &&
		len(f.Countries) == 0 &&
		len(f.Cities) == 0 &&
		len(f.Groups) == 0 &&
		!f.WeekendsOnly
}

// Matches checks if a meetup matches all active filter criteria.
// An empty filter matches all meetups.
//
// Start times carry the venue's wall clock, so the date and weekday checks use
// the local day of the meetup.
func (f *Filter) Matches(m meetup.Meetup) bool {
	// Empty filter matches all meetups
	if f.IsEmpty() {
		return true
	}

	start := m.StartDateTime()

	// Check date range
	if f.DateFrom != nil && start.Before(*f.DateFrom) {
		return false
	}

	if f.DateTo != nil && start.After(*f.DateTo) {
		return false
	}

	// Check weekends only
	if f.WeekendsOnly {
		weekday := start.Weekday()
		if weekday != time.Saturday && weekday != time.Sunday {
			return false
		}
	}

	if len(f.Countries) > 0 && !equalsAny(m.Location.Country, f.Countries) {
		return false
	}

	if len(f.Cities) > 0 && !containsAny(m.Location.City, f.Cities) {
		return false
	}

	if len(f.Groups) > 0 && !containsAny(m.GroupName, f.Groups) {
		return false
	}

	return true
}

// Apply applies the filter to a list of meetups and returns only matching meetups.
// If the filter is empty, returns the original list unchanged.
// Otherwise, returns a new slice preserving the input order.
func (f *Filter) Apply(meetups []meetup.Meetup) []meetup.Meetup {
	if f.IsEmpty() {
		return meetups
	}

	filtered := make([]meetup.Meetup, 0, len(meetups))
	for _, m := range meetups {
		if f.Matches(m) {
			filtered = append(filtered, m)
		}
	}

	return filtered
}

// String returns a human-readable description of the active filter criteria.
// Returns "No active filters" if the filter is empty.
// Format: "From: Mar 1, 2026 | To: Mar 15, 2026 | Countries: Austria | Weekends only"
func (f *Filter) String() string {
	if f.IsEmpty() {
		return "No active filters"
	}

	var parts []string

	if f.DateFrom != nil {
		parts = append(parts, fmt.Sprintf("From: %s", f.DateFrom.Format("Jan 2, 2006")))
	}

	if f.DateTo != nil {
		parts = append(parts, fmt.Sprintf("To: %s", f.DateTo.Format("Jan 2, 2006")))
	}

	if len(f.Countries) > 0 {
		parts = append(parts, fmt.Sprintf("Countries: %s", strings.Join(f.Countries, ", ")))
	}

	if len(f.Cities) > 0 {
		parts = append(parts, fmt.Sprintf("Cities: %s", strings.Join(f.Cities, ", ")))
	}

	if len(f.Groups) > 0 {
		parts = append(parts, fmt.Sprintf("Groups: %s", strings.Join(f.Groups, ", ")))
	}

	if f.WeekendsOnly {
		parts = append(parts, "Weekends only")
	}

	return strings.Join(parts, " | ")
}

// Clone creates a deep copy of the filter.
func (f *Filter) Clone() *Filter {
	clone := &Filter{
		WeekendsOnly: f.WeekendsOnly,
		Countries:    cloneStrings(f.Countries),
		Cities:       cloneStrings(f.Cities),
		Groups:       cloneStrings(f.Groups),
	}

	if f.DateFrom != nil {
		df := *f.DateFrom
		clone.DateFrom = &df
	}

	if f.DateTo != nil {
		dt := *f.DateTo
		clone.DateTo = &dt
	}

	return clone
}

func equalsAny(value string, candidates []string) bool {
	for _, c := range candidates {
		if strings.EqualFold(value, c) {
			return true
		}
	}
	return false
}

func containsAny(value string, candidates []string) bool {
	valueLower := strings.ToLower(value)
	for _, c := range candidates {
		if strings.Contains(valueLower, strings.ToLower(c)) {
			return true
		}
	}
	return false
}

func cloneStrings(s []string) []string {
	out := make([]string, len(s))
	copy(out, s)
	return out
}
