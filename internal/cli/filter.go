package cli

import (
	"errors"
	"time"

	"github.com/pfrederiksen/meetup-events/internal/filter"
	"github.com/pfrederiksen/meetup-events/internal/meetup"
	"github.com/spf13/cobra"
)

// filterFlags holds the criteria shared by list and calendar
type filterFlags struct {
	countries []string
	cities    []string
	groups    []string
	from      string
	to        string
	dateRange string
	weekends  bool
	days      int
}

func (ff *filterFlags) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringSliceVar(&ff.countries, "country", nil, "Only meetups in these countries (repeatable)")
	f.StringSliceVar(&ff.cities, "city", nil, "Only meetups in cities containing this text (repeatable)")
	f.StringSliceVar(&ff.groups, "group", nil, "Only meetups of groups containing this text (repeatable)")
	f.StringVar(&ff.from, "from", "", "Only meetups on or after this date (YYYY-MM-DD)")
	f.StringVar(&ff.to, "to", "", "Only meetups on or before this date (YYYY-MM-DD)")
	f.StringVar(&ff.dateRange, "range", "", "Date range such as 'Mar 1-15', 'March 1 - April 15' or 'March'")
	f.BoolVar(&ff.weekends, "weekends", false, "Only meetups on Saturday or Sunday")
	f.IntVar(&ff.days, "days", 0, "Only meetups starting within this many days")
}

// build turns the flags into a filter
func (ff *filterFlags) build(now time.Time) (*filter.Filter, error) {
	if ff.dateRange != "" && (ff.from != "" || ff.to != "") {
		return nil, errors.New("--range cannot be combined with --from or --to")
	}
	if ff.days < 0 {
		return nil, errors.New("--days cannot be negative")
	}

	f := filter.NewFilter()
	f.Countries = append(f.Countries, ff.countries...)
	f.Cities = append(f.Cities, ff.cities...)
	f.Groups = append(f.Groups, ff.groups...)
	f.WeekendsOnly = ff.weekends

	if ff.dateRange != "" {
		from, to, err := filter.ParseDateRange(ff.dateRange, now)
		if err != nil {
			return nil, err
		}
		f.DateFrom, f.DateTo = from, to
	}
	if ff.from != "" {
		from, err := filter.ParseDate(ff.from, false)
		if err != nil {
			return nil, err
		}
		f.DateFrom = from
	}
	if ff.to != "" {
		to, err := filter.ParseDate(ff.to, true)
		if err != nil {
			return nil, err
		}
		f.DateTo = to
	}
	if f.DateFrom != nil && f.DateTo != nil && f.DateTo.Before(*f.DateFrom) {
		return nil, errors.New("end date is before start date")
	}

	return f, nil
}

// selectMeetups applies the filter and the --days window
func (ff *filterFlags) selectMeetups(meetups []meetup.Meetup, f *filter.Filter, now time.Time) []meetup.Meetup {
	selected := f.Apply(meetups)
	if ff.days <= 0 {
		return selected
	}

	within := make([]meetup.Meetup, 0, len(selected))
	for _, m := range selected {
		if m.IsWithinDays(now, ff.days) {
			within = append(within, m)
		}
	}
	return within
}
