package meetup

import (
	"testing"
	"time"
)

func testMeetup(url, title, city, country string, start time.Time) Meetup {
	return New(title, "Group "+title, TimeSpan{Start: start}, Location{City: city, Country: country}, url, "")
}

func TestDiff(t *testing.T) {
	start := time.Date(2026, 11, 3, 18, 0, 0, 0, time.UTC)
	m1 := testMeetup("https://example.com/1", "Event 1", "Berlin", "Germany", start)
	m2 := testMeetup("https://example.com/2", "Event 2", "Vienna", "Austria", start.Add(time.Hour))
	m3 := testMeetup("https://example.com/3", "Event 3", "Hamburg", "Germany", start.Add(2*time.Hour))

	t.Run("finds new meetups", func(t *testing.T) {
		result := Diff([]Meetup{m1}, []Meetup{m1, m2, m3})

		if len(result.NewMeetups) != 2 {
			t.Fatalf("expected 2 new meetups, got %d", len(result.NewMeetups))
		}
		if result.NewMeetups[0].ID != m2.ID || result.NewMeetups[1].ID != m3.ID {
			t.Error("expected new meetups to keep current order")
		}
	})

	t.Run("groups by country", func(t *testing.T) {
		result := Diff(nil, []Meetup{m1, m2, m3})

		if len(result.Countries["Germany"]) != 2 {
			t.Errorf("expected 2 new meetups in Germany, got %d", len(result.Countries["Germany"]))
		}
		if got := Countries(result.Countries); len(got) != 2 || got[0] != "Austria" {
			t.Errorf("Countries() = %v, want [Austria Germany]", got)
		}
	})

	t.Run("nothing new", func(t *testing.T) {
		result := Diff([]Meetup{m1, m2}, []Meetup{m2, m1})
		if len(result.NewMeetups) != 0 {
			t.Errorf("expected no new meetups, got %d", len(result.NewMeetups))
		}
	})
}

func TestDetectChanges(t *testing.T) {
	start := time.Date(2026, 11, 3, 18, 0, 0, 0, time.UTC)
	prev := testMeetup("https://example.com/1", "Event 1", "Berlin", "Germany", start)

	t.Run("no changes", func(t *testing.T) {
		if changes := DetectChanges(prev, prev); len(changes) != 0 {
			t.Errorf("expected no changes, got %d", len(changes))
		}
	})

	t.Run("start and title changed", func(t *testing.T) {
		cur := testMeetup("https://example.com/1", "Event 1 (moved)", "Berlin", "Germany", start.Add(24*time.Hour))
		changes := DetectChanges(prev, cur)

		if len(changes) != 2 {
			t.Fatalf("expected 2 changes, got %d", len(changes))
		}
		if changes[0].ChangeType != "start" || changes[0].NewValue != "2026-11-04 18:00" {
			t.Errorf("unexpected start change: %+v", changes[0])
		}
		if changes[1].ChangeType != "title" {
			t.Errorf("expected title change, got %s", changes[1].ChangeType)
		}
	})
}

func TestCompareImports(t *testing.T) {
	start := time.Date(2026, 11, 3, 18, 0, 0, 0, time.UTC)
	prev := testMeetup("https://example.com/1", "Event 1", "Berlin", "Germany", start)
	cur := testMeetup("https://example.com/1", "Event 1", "Potsdam", "Germany", start)
	other := testMeetup("https://example.com/2", "Event 2", "Vienna", "Austria", start)

	changes := CompareImports([]Meetup{prev}, []Meetup{cur, other})
	if len(changes) != 1 || changes[0].ChangeType != "city" {
		t.Errorf("CompareImports() = %+v, want one city change", changes)
	}
}
