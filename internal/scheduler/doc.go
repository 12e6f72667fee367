// Package scheduler runs imports on a cron schedule.
//
// Runs never overlap: a trigger that fires while an import is in progress is
// skipped and logged. Besides the schedule, an import can be triggered when
// the groups file changes.
package scheduler
