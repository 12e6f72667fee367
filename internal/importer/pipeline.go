package importer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/pfrederiksen/meetup-events/internal/meetup"
	"github.com/pfrederiksen/meetup-events/internal/meetupcom"
)

const (
	// MaxGroupsPerRequest is the number of group IDs sent to the event source per call
	MaxGroupsPerRequest = meetupcom.MaxGroupIDs

	// DescriptionLength is the maximum length of a meetup description excerpt
	DescriptionLength = 280

	// maxDurationSeconds is the longest duration a time.Duration can hold
	maxDurationSeconds = int64(math.MaxInt64 / int64(time.Second))
)

// EventSource provides raw events for a batch of group IDs
type EventSource interface {
	FetchByGroupIDs(ctx context.Context, groupIDs []int64) ([]meetupcom.Event, error)
}

// CountryResolver maps venue data to a country name. It must always return a value.
type CountryResolver interface {
	ResolveByVenue(venue meetupcom.Venue) string
}

// MalformedPolicy decides what happens to records missing required fields
type MalformedPolicy string

const (
	MalformedAbort MalformedPolicy = "abort" // return the error, ending the run
	MalformedSkip  MalformedPolicy = "skip"  // drop the record and continue
)

// ParseMalformedPolicy parses "abort" or "skip"; the empty string means abort
func ParseMalformedPolicy(s string) (MalformedPolicy, error) {
	switch MalformedPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", MalformedAbort:
		return MalformedAbort, nil
	case MalformedSkip:
		return MalformedSkip, nil
	default:
		return "", fmt.Errorf("invalid malformed record policy: %s (must be 'abort' or 'skip')", s)
	}
}

// Config holds the pipeline settings fixed at construction
type Config struct {
	MaxForecastDays  int
	OnMalformed      MalformedPolicy
	StrictTimestamps bool             // irregular sub-second digits are malformed
	Now              func() time.Time // defaults to time.Now
}

// Pipeline imports upcoming meetups for a list of groups
type Pipeline struct {
	source              EventSource
	resolver            CountryResolver
	maxForecastDays     int
	maxForecastDateTime time.Time
	onMalformed         MalformedPolicy
	strictTimestamps    bool
}

// Result is the outcome of one import run
type Result struct {
	Meetups             []meetup.Meetup
	Batches             int
	Fetched             int
	Skipped             map[SkipReason]int
	Malformed           []*MalformedRecordError // only filled with MalformedSkip
	IrregularTimestamps int
}

// SkippedTotal returns the number of events left out by the skip rules
func (r *Result) SkippedTotal() int {
	total := 0
	for _, n := range r.Skipped {
		total += n
	}
	return total
}

// New creates a Pipeline. The forecast cutoff is fixed here, MaxForecastDays from now.
func New(cfg Config, source EventSource, resolver CountryResolver) (*Pipeline, error) {
	if cfg.MaxForecastDays <= 0 {
		return nil, fmt.Errorf("max forecast days must be positive, got %d", cfg.MaxForecastDays)
	}
	if source == nil {
		return nil, errors.New("event source is required")
	}
	if resolver == nil {
		return nil, errors.New("country resolver is required")
	}

	policy, err := ParseMalformedPolicy(string(cfg.OnMalformed))
	if err != nil {
		return nil, err
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Pipeline{
		source:              source,
		resolver:            resolver,
		maxForecastDays:     cfg.MaxForecastDays,
		maxForecastDateTime: now().AddDate(0, 0, cfg.MaxForecastDays),
		onMalformed:         policy,
		strictTimestamps:    cfg.StrictTimestamps,
	}, nil
}

// MaxForecastDays returns the configured horizon in days
func (p *Pipeline) MaxForecastDays() int {
	return p.maxForecastDays
}

// MaxForecastDateTime returns the cutoff instant; later meetups are skipped
func (p *Pipeline) MaxForecastDateTime() time.Time {
	return p.maxForecastDateTime
}

// ImportForGroupIDs returns the upcoming meetups of the given groups sorted by start time
func (p *Pipeline) ImportForGroupIDs(ctx context.Context, groupIDs []int64) ([]meetup.Meetup, error) {
	result, err := p.Import(ctx, groupIDs)
	if err != nil {
		return nil, err
	}
	return result.Meetups, nil
}

// Import runs fetch, filter, normalize and sort, returning the meetups with run statistics.
// The first event source failure aborts the run and no partial result is returned.
func (p *Pipeline) Import(ctx context.Context, groupIDs []int64) (*Result, error) {
	result := &Result{
		Meetups: make([]meetup.Meetup, 0),
		Skipped: make(map[SkipReason]int),
	}

	events, err := p.fetch(ctx, groupIDs, result)
	if err != nil {
		return nil, err
	}
	result.Fetched = len(events)

	accepted := make(groupSet)

	for i := range events {
		evt := &events[i]

		m, reason, err := p.processEvent(i, evt, accepted, result)
		if err != nil {
			var malformed *MalformedRecordError
			if p.onMalformed == MalformedSkip && errors.As(err, &malformed) {
				result.Malformed = append(result.Malformed, malformed)
				continue
			}
			return nil, err
		}

		if reason != "" {
			result.Skipped[reason]++
			continue
		}

		result.Meetups = append(result.Meetups, m)
	}

	sortByStartDateTime(result.Meetups)

	return result, nil
}

// fetch calls the event source sequentially, one batch at a time
func (p *Pipeline) fetch(ctx context.Context, groupIDs []int64, result *Result) ([]meetupcom.Event, error) {
	var events []meetupcom.Event

	for i, batch := range chunkGroupIDs(groupIDs, MaxGroupsPerRequest) {
		fetched, err := p.source.FetchByGroupIDs(ctx, batch)
		if err != nil {
			return nil, &ImportError{Batch: i, GroupIDs: len(batch), Err: err}
		}
		events = append(events, fetched...)
		result.Batches++
	}

	return events, nil
}

// processEvent returns either a meetup, a skip reason, or an error
func (p *Pipeline) processEvent(index int, evt *meetupcom.Event, accepted groupSet, result *Result) (meetup.Meetup, SkipReason, error) {
	timeSpan, irregular, err := p.createTimeSpanFromEventData(index, evt)
	if err != nil {
		return meetup.Meetup{}, "", err
	}
	result.IrregularTimestamps += irregular

	reason, skip, err := p.shouldSkipMeetup(index, evt, timeSpan, accepted)
	if err != nil {
		return meetup.Meetup{}, "", err
	}
	if skip {
		return meetup.Meetup{}, reason, nil
	}

	m, err := p.createMeetupFromEventData(index, evt, timeSpan)
	if err != nil {
		// let a later meetup of the same group take the place of the dropped one
		delete(accepted, evt.Group.Name)
		return meetup.Meetup{}, "", err
	}

	return m, "", nil
}

// createTimeSpanFromEventData builds the UTC time span from time, utc_offset and duration.
// irregular counts values whose padding digits were not zero.
func (p *Pipeline) createTimeSpanFromEventData(index int, evt *meetupcom.Event) (meetup.TimeSpan, int, error) {
	irregular := 0
	normalize := func(field string, raw int64) (int64, error) {
		seconds, ok := NormalizeTimestamp(raw)
		if !ok {
			if p.strictTimestamps {
				return 0, &MalformedRecordError{Index: index, EventID: evt.ID, Field: field, Reason: fmt.Sprintf("has unexpected sub-second digits (%d)", raw)}
			}
			irregular++
		}
		return seconds, nil
	}

	if evt.Time == nil {
		return meetup.TimeSpan{}, 0, &MalformedRecordError{Index: index, EventID: evt.ID, Field: "time"}
	}
	if evt.UTCOffset == nil {
		return meetup.TimeSpan{}, 0, &MalformedRecordError{Index: index, EventID: evt.ID, Field: "utc_offset"}
	}

	timestamp, err := normalize("time", *evt.Time)
	if err != nil {
		return meetup.TimeSpan{}, 0, err
	}
	utcOffset, err := normalize("utc_offset", *evt.UTCOffset)
	if err != nil {
		return meetup.TimeSpan{}, 0, err
	}

	start := time.Unix(timestamp+utcOffset, 0).UTC()

	var end *time.Time
	if evt.Duration != nil && *evt.Duration != 0 {
		duration, err := normalize("duration", *evt.Duration)
		if err != nil {
			return meetup.TimeSpan{}, 0, err
		}
		if duration < 0 {
			return meetup.TimeSpan{}, 0, &MalformedRecordError{Index: index, EventID: evt.ID, Field: "duration", Reason: "is negative"}
		}
		if duration > maxDurationSeconds {
			return meetup.TimeSpan{}, 0, &MalformedRecordError{Index: index, EventID: evt.ID, Field: "duration", Reason: fmt.Sprintf("is out of range (%d s)", duration)}
		}
		e := start.Add(time.Duration(duration) * time.Second)
		end = &e
	}

	timeSpan, err := meetup.NewTimeSpan(start, end)
	if err != nil {
		return meetup.TimeSpan{}, 0, &MalformedRecordError{Index: index, EventID: evt.ID, Field: "duration", Reason: "is negative"}
	}

	return timeSpan, irregular, nil
}

// createMeetupFromEventData normalizes venue, title and country into a Meetup
func (p *Pipeline) createMeetupFromEventData(index int, evt *meetupcom.Event, timeSpan meetup.TimeSpan) (meetup.Meetup, error) {
	if evt.Name == nil {
		return meetup.Meetup{}, &MalformedRecordError{Index: index, EventID: evt.ID, Field: "name"}
	}
	if evt.EventURL == nil || *evt.EventURL == "" {
		return meetup.Meetup{}, &MalformedRecordError{Index: index, EventID: evt.ID, Field: "event_url"}
	}

	venue := *evt.Venue

	// venue without geocoding, use the group's base location
	if venue.Lon == 0 || venue.Lat == 0 {
		venue.Lon = evt.Group.GroupLon
		venue.Lat = evt.Group.GroupLat
	}

	venue.City = NormalizeCity(venue.City)
	country := p.resolver.ResolveByVenue(venue)

	location := meetup.Location{
		City:      venue.City,
		Country:   country,
		Longitude: venue.Lon,
		Latitude:  venue.Lat,
	}

	title := strings.ReplaceAll(strings.TrimSpace(*evt.Name), "@", "")
	description := meetupcom.PlainText(evt.Description, DescriptionLength)

	return meetup.New(title, evt.Group.Name, timeSpan, location, *evt.EventURL, description), nil
}

// sortByStartDateTime sorts ascending by start; equal starts keep their order
func sortByStartDateTime(meetups []meetup.Meetup) {
	sort.SliceStable(meetups, func(i, j int) bool {
		return meetups[i].TimeSpan.Start.Before(meetups[j].TimeSpan.Start)
	})
}

// chunkGroupIDs splits ids into slices of at most size elements
func chunkGroupIDs(ids []int64, size int) [][]int64 {
	var chunks [][]int64
	for start := 0; start < len(ids); start += size {
		end := min(start+size, len(ids))
		chunks = append(chunks, ids[start:end])
	}
	return chunks
}
