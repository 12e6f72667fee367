package importer

import (
	"github.com/pfrederiksen/meetup-events/internal/meetup"
	"github.com/pfrederiksen/meetup-events/internal/meetupcom"
)

// SkipReason tells why an event was left out of an import
type SkipReason string

const (
	SkipNotAnnounced   SkipReason = "not_announced"
	SkipNotUpcoming    SkipReason = "not_upcoming"
	SkipBeyondHorizon  SkipReason = "beyond_horizon"
	SkipNoVenue        SkipReason = "no_venue"
	SkipGroupHasMeetup SkipReason = "group_has_meetup"
)

const statusUpcoming = "upcoming"

// SkipReasons lists every reason in evaluation order
var SkipReasons = []SkipReason{
	SkipNotAnnounced,
	SkipNotUpcoming,
	SkipBeyondHorizon,
	SkipNoVenue,
	SkipGroupHasMeetup,
}

// groupSet tracks the groups that already have an accepted meetup in one run
type groupSet map[string]struct{}

// shouldSkipMeetup evaluates the skip rules in order; the first match wins.
// When no rule matches, the event's group is marked in accepted.
func (p *Pipeline) shouldSkipMeetup(index int, evt *meetupcom.Event, timeSpan meetup.TimeSpan, accepted groupSet) (SkipReason, bool, error) {
	// not announced yet
	if evt.Announced != nil && !*evt.Announced {
		return SkipNotAnnounced, true, nil
	}

	// past, cancelled, proposed
	if evt.Status != statusUpcoming {
		return SkipNotUpcoming, true, nil
	}

	if timeSpan.Start.After(p.maxForecastDateTime) {
		return SkipBeyondHorizon, true, nil
	}

	// draft event, no location yet
	if evt.Venue == nil {
		return SkipNoVenue, true, nil
	}

	if evt.Group == nil || evt.Group.Name == "" {
		return "", false, &MalformedRecordError{Index: index, EventID: evt.ID, Field: "group.name"}
	}

	// only the nearest meetup of each group
	if _, ok := accepted[evt.Group.Name]; ok {
		return SkipGroupHasMeetup, true, nil
	}
	accepted[evt.Group.Name] = struct{}{}

	return "", false, nil
}
