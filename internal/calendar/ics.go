package calendar

import (
	"fmt"
	"strings"
	"time"

	"github.com/pfrederiksen/meetup-events/internal/meetup"
)

const (
	prodID = "-//Meetup Events//meetup-events//EN"

	// DefaultDuration is used for meetups the API reported without a duration
	DefaultDuration = 2 * time.Hour

	// maxLineOctets is the RFC 5545 content line limit, excluding CRLF
	maxLineOctets = 75
)

// now is replaced in tests
var now = time.Now

// GenerateICS generates an iCalendar (.ics) file for a single meetup
func GenerateICS(m meetup.Meetup) string {
	var ics strings.Builder

	writeHeader(&ics, "")
	writeEvent(&ics, m, now().UTC())
	ics.WriteString("END:VCALENDAR\r\n")

	return ics.String()
}

// GenerateBulkICS generates one calendar holding every meetup.
// Returns an empty string when there are no meetups.
func GenerateBulkICS(meetups []meetup.Meetup, calendarName string) string {
	if len(meetups) == 0 {
		return ""
	}

	var ics strings.Builder
	stamp := now().UTC()

	writeHeader(&ics, calendarName)
	for _, m := range meetups {
		writeEvent(&ics, m, stamp)
	}
	ics.WriteString("END:VCALENDAR\r\n")

	return ics.String()
}

func writeHeader(ics *strings.Builder, calendarName string) {
	ics.WriteString("BEGIN:VCALENDAR\r\n")
	ics.WriteString("VERSION:2.0\r\n")
	ics.WriteString("PRODID:" + prodID + "\r\n")
	ics.WriteString("CALSCALE:GREGORIAN\r\n")
	ics.WriteString("METHOD:PUBLISH\r\n")
	if calendarName != "" {
		writeLine(ics, "X-WR-CALNAME:"+escapeICS(calendarName))
	}
}

func writeEvent(ics *strings.Builder, m meetup.Meetup, stamp time.Time) {
	ics.WriteString("BEGIN:VEVENT\r\n")

	// UID - unique identifier for the meetup
	writeLine(ics, fmt.Sprintf("UID:%s@meetup.com", m.ID))

	// DTSTAMP - timestamp when this calendar entry was created
	writeLine(ics, "DTSTAMP:"+formatICSTime(stamp))

	// DTSTART and DTEND - venue wall clock, written as floating local time
	start := m.TimeSpan.Start
	end := start.Add(DefaultDuration)
	if m.TimeSpan.HasEnd() {
		end = *m.TimeSpan.End
	}
	writeLine(ics, "DTSTART:"+formatLocalTime(start))
	writeLine(ics, "DTEND:"+formatLocalTime(end))

	writeLine(ics, "SUMMARY:"+escapeICS(m.Title))

	description := m.GroupName
	if m.Description != "" {
		description = fmt.Sprintf("%s\n\n%s", m.GroupName, m.Description)
	}
	writeLine(ics, "DESCRIPTION:"+escapeICS(description))

	writeLine(ics, "LOCATION:"+escapeICS(formatLocation(m.Location)))

	if m.Location.Latitude != 0 || m.Location.Longitude != 0 {
		writeLine(ics, fmt.Sprintf("GEO:%.6f;%.6f", m.Location.Latitude, m.Location.Longitude))
	}

	if m.URL != "" {
		writeLine(ics, "URL:"+m.URL)
	}

	ics.WriteString("STATUS:CONFIRMED\r\n")
	ics.WriteString("TRANSP:OPAQUE\r\n")
	ics.WriteString("END:VEVENT\r\n")
}

func formatLocation(loc meetup.Location) string {
	switch {
	case loc.City != "" && loc.Country != "":
		return loc.City + ", " + loc.Country
	case loc.City != "":
		return loc.City
	default:
		return loc.Country
	}
}

// formatICSTime formats a time.Time as an iCalendar UTC datetime string
func formatICSTime(t time.Time) string {
	return t.UTC().Format("20060102T150405Z")
}

// formatLocalTime formats a time.Time as an iCalendar floating datetime string
func formatLocalTime(t time.Time) string {
	return t.Format("20060102T150405")
}

// escapeICS escapes special characters for iCalendar format
func escapeICS(s string) string {
	// Replace special characters according to RFC 5545
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, ",", "\\,")
	s = strings.ReplaceAll(s, ";", "\\;")
	s = strings.ReplaceAll(s, "\r\n", "\\n")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return s
}

// writeLine writes a content line, folding it at 75 octets without splitting a UTF-8 sequence
func writeLine(ics *strings.Builder, line string) {
	limit := maxLineOctets
	for len(line) > limit {
		cut := limit
		// back up to a rune boundary
		for cut > 0 && line[cut]&0xC0 == 0x80 {
			cut--
		}
		ics.WriteString(line[:cut])
		ics.WriteString("\r\n ")
		line = line[cut:]
		// continuation lines start with a space
		limit = maxLineOctets - 1
	}
	ics.WriteString(line)
	ics.WriteString("\r\n")
}
