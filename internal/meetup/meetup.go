package meetup

import (
	"crypto/sha1"
	"fmt"
	"time"
)

// TimeSpan is the start and optional end of a meetup, always in UTC.
type TimeSpan struct {
	Start time.Time  `json:"start" yaml:"start"`
	End   *time.Time `json:"end,omitempty" yaml:"end,omitempty"`
}

// NewTimeSpan creates a TimeSpan in UTC. end may be nil when the source has no duration.
func NewTimeSpan(start time.Time, end *time.Time) (TimeSpan, error) {
	span := TimeSpan{Start: start.UTC()}
	if end == nil {
		return span, nil
	}

	utcEnd := end.UTC()
	if utcEnd.Before(span.Start) {
		return TimeSpan{}, fmt.Errorf("end %s is before start %s", utcEnd.Format(time.RFC3339), span.Start.Format(time.RFC3339))
	}
	span.End = &utcEnd

	return span, nil
}

// HasEnd reports whether the span carries an end instant
func (ts TimeSpan) HasEnd() bool {
	return ts.End != nil
}

// Duration returns the length of the span, or zero when it has no end
func (ts TimeSpan) Duration() time.Duration {
	if ts.End == nil {
		return 0
	}
	return ts.End.Sub(ts.Start)
}

// Location is where a meetup takes place
type Location struct {
	City      string  `json:"city" yaml:"city"`
	Country   string  `json:"country" yaml:"country"`
	Longitude float64 `json:"longitude" yaml:"longitude"`
	Latitude  float64 `json:"latitude" yaml:"latitude"`
}

// Meetup represents one normalized upcoming group event.
// Meetups are handled as values; nothing in this module mutates one after New.
type Meetup struct {
	ID          string   `json:"id" yaml:"id"`
	Title       string   `json:"title" yaml:"title"`
	GroupName   string   `json:"group_name" yaml:"group_name"`
	TimeSpan    TimeSpan `json:"time_span" yaml:"time_span"`
	Location    Location `json:"location" yaml:"location"`
	URL         string   `json:"url" yaml:"url"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
}

// GenerateID creates a deterministic ID for a meetup based on its event URL
func GenerateID(url string) string {
	h := sha1.New()
	h.Write([]byte(url))
	return fmt.Sprintf("%x", h.Sum(nil))
}

// New creates a Meetup with its ID populated
func New(title, groupName string, timeSpan TimeSpan, location Location, url, description string) Meetup {
	return Meetup{
		ID:          GenerateID(url),
		Title:       title,
		GroupName:   groupName,
		TimeSpan:    timeSpan,
		Location:    location,
		URL:         url,
		Description: description,
	}
}

// StartDateTime returns the UTC start instant
func (m Meetup) StartDateTime() time.Time {
	return m.TimeSpan.Start
}

// IsWithinDays checks if the meetup starts between now and now+days.
// Returns true if days <= 0 (feature disabled).
func (m Meetup) IsWithinDays(now time.Time, days int) bool {
	if days <= 0 {
		return true
	}
	cutoff := now.AddDate(0, 0, days)
	return !m.TimeSpan.Start.Before(now) && !m.TimeSpan.Start.After(cutoff)
}

// Group is an organizing entity on meetup.com
type Group struct {
	Name     string `json:"name" yaml:"name"`
	MeetupID int64  `json:"meetup_com_id" yaml:"meetup_com_id"`
	URL      string `json:"meetup_com_url,omitempty" yaml:"meetup_com_url,omitempty"`
	Country  string `json:"country,omitempty" yaml:"country,omitempty"`
}
