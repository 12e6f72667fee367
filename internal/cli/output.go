package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pfrederiksen/meetup-events/internal/meetup"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

const displayTimeFormat = "2006-01-02 15:04"

// ParseOutputFormat validates a --format value
func ParseOutputFormat(s string) (OutputFormat, error) {
	format := OutputFormat(strings.ToLower(strings.TrimSpace(s)))
	if format != FormatText && format != FormatJSON {
		return "", fmt.Errorf("invalid format: %s (must be 'text' or 'json')", s)
	}
	return format, nil
}

// ImportResult contains the report of an import run
type ImportResult struct {
	RunID               string                     `json:"run_id"`
	ImportedAt          time.Time                  `json:"imported_at"`
	MaxForecastDays     int                        `json:"max_forecast_days"`
	Groups              int                        `json:"groups"`
	Fetched             int                        `json:"fetched"`
	Skipped             map[string]int             `json:"skipped"`
	Malformed           []string                   `json:"malformed,omitempty"`
	IrregularTimestamps int                        `json:"irregular_timestamps,omitempty"`
	MeetupCount         int                        `json:"meetup_count"`
	Meetups             []meetup.Meetup            `json:"meetups"`
	NewMeetups          []meetup.Meetup            `json:"new_meetups"`
	ByCountry           map[string][]meetup.Meetup `json:"by_country,omitempty"`
	Changes             []meetup.Change            `json:"changes,omitempty"`
}

// ListResult contains saved meetups selected by a filter
type ListResult struct {
	ImportedAt  time.Time       `json:"imported_at"`
	Filter      string          `json:"filter"`
	MeetupCount int             `json:"meetup_count"`
	Meetups     []meetup.Meetup `json:"meetups"`
}

// WriteImportOutput writes an import report in the specified format
func WriteImportOutput(w io.Writer, result *ImportResult, format OutputFormat, verbose bool) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, result)
	case FormatText:
		return writeImportText(w, result, verbose)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// WriteListOutput writes a meetup listing in the specified format
func WriteListOutput(w io.Writer, result *ListResult, format OutputFormat, verbose bool) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, result)
	case FormatText:
		return writeListText(w, result, verbose)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// writeJSON outputs results as JSON
func writeJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// writeImportText outputs an import report grouped by country, marking new meetups
func writeImportText(w io.Writer, result *ImportResult, verbose bool) error {
	fmt.Fprintf(w, "Loaded %d meetups for next %d days\n", result.MeetupCount, result.MaxForecastDays)

	if result.MeetupCount == 0 {
		return nil
	}

	isNew := make(map[string]bool, len(result.NewMeetups))
	for _, m := range result.NewMeetups {
		isNew[m.ID] = true
	}

	byCountry := make(map[string][]meetup.Meetup)
	for _, m := range result.Meetups {
		byCountry[m.Location.Country] = append(byCountry[m.Location.Country], m)
	}

	for _, country := range meetup.Countries(byCountry) {
		meetups := byCountry[country]
		fmt.Fprintf(w, "\n%s (%d meetups):\n", country, len(meetups))
		for _, m := range meetups {
			marker := "   "
			if isNew[m.ID] {
				marker = "NEW"
			}
			fmt.Fprintf(w, "  %s %s\n", marker, formatMeetupLine(m))
			if verbose {
				writeMeetupDetails(w, m, "       ")
			}
		}
	}

	if len(result.Changes) > 0 {
		fmt.Fprintf(w, "\nChanged since last import:\n")
		for _, c := range result.Changes {
			fmt.Fprintf(w, "  %s %s: %s -> %s\n", c.MeetupID[:min(8, len(c.MeetupID))], c.ChangeType, c.OldValue, c.NewValue)
		}
	}

	fmt.Fprintf(w, "\nTotal: %d meetups (%d new) across %d countries\n",
		result.MeetupCount, len(result.NewMeetups), len(byCountry))

	if verbose {
		fmt.Fprintf(w, "Fetched %d events from %d groups", result.Fetched, result.Groups)
		for _, reason := range sortedKeys(result.Skipped) {
			fmt.Fprintf(w, ", %s: %d", reason, result.Skipped[reason])
		}
		fmt.Fprintln(w)
		for _, m := range result.Malformed {
			fmt.Fprintf(w, "Dropped %s\n", m)
		}
	}

	return nil
}

// writeListText outputs one meetup per line
func writeListText(w io.Writer, result *ListResult, verbose bool) error {
	if result.MeetupCount == 0 {
		fmt.Fprintln(w, "No meetups found.")
		return nil
	}

	for _, m := range result.Meetups {
		fmt.Fprintf(w, "%s  [%s]\n", formatMeetupLine(m), m.Location.Country)
		if verbose {
			writeMeetupDetails(w, m, "     ")
		}
	}

	fmt.Fprintf(w, "\nTotal: %d meetups", result.MeetupCount)
	if result.Filter != "" {
		fmt.Fprintf(w, " (%s)", result.Filter)
	}
	fmt.Fprintln(w)

	return nil
}

func formatMeetupLine(m meetup.Meetup) string {
	line := fmt.Sprintf("%s  %s (%s)", m.TimeSpan.Start.Format(displayTimeFormat), m.Title, m.GroupName)
	if m.Location.City != "" {
		line += ", " + m.Location.City
	}
	return line
}

func writeMeetupDetails(w io.Writer, m meetup.Meetup, indent string) {
	fmt.Fprintf(w, "%sID: %s\n", indent, m.ID)
	fmt.Fprintf(w, "%sURL: %s\n", indent, m.URL)
	if m.TimeSpan.HasEnd() {
		fmt.Fprintf(w, "%sEnds: %s (%s)\n", indent, m.TimeSpan.End.Format(displayTimeFormat), m.TimeSpan.Duration())
	}
	if m.Description != "" {
		fmt.Fprintf(w, "%s%s\n", indent, m.Description)
	}
}
