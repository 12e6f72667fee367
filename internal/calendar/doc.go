// Package calendar exports meetups as iCalendar (RFC 5545) data.
package calendar
