package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/pfrederiksen/meetup-events/internal/logger"
	"github.com/robfig/cron/v3"
)

// Trigger names for log entries
const (
	TriggerSchedule = "schedule"
	TriggerWatch    = "groups_changed"
	TriggerManual   = "manual"
)

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ErrAlreadyImporting is returned by RunNow while another import is in progress
var ErrAlreadyImporting = errors.New("import already in progress")

// Job performs one import
type Job func(ctx context.Context) error

// Watcher reports changes to the groups file
type Watcher interface {
	Watch(onChange func()) (stop func(), err error)
}

// ValidateSchedule checks a five-field cron expression or descriptor such as "@hourly"
func ValidateSchedule(spec string) error {
	if _, err := parser.Parse(spec); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", spec, err)
	}
	return nil
}

// ImportScheduler manages periodic imports
type ImportScheduler struct {
	schedule string
	job      Job
	log      *logger.Logger

	cron        *cron.Cron
	entryID     cron.EntryID
	mu          sync.RWMutex
	isRunning   bool
	isImporting bool
	ctx         context.Context
	cancelFunc  context.CancelFunc
	stopWatch   func()
	watchRuns   sync.WaitGroup // imports triggered by the groups watch
}

// New creates a scheduler for job. log may be nil to use the default logger.
func New(schedule string, job Job, log *logger.Logger) (*ImportScheduler, error) {
	if job == nil {
		return nil, errors.New("import job is required")
	}
	if err := ValidateSchedule(schedule); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Default()
	}

	return &ImportScheduler{
		schedule: schedule,
		job:      job,
		log:      log,
		cron:     cron.New(cron.WithParser(parser)),
		ctx:      context.Background(),
	}, nil
}

// Start begins the schedule. Imports run with a context derived from ctx;
// cancelling ctx stops the scheduler.
func (s *ImportScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	entryID, err := s.cron.AddFunc(s.schedule, func() {
		s.runImport(TriggerSchedule)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule import job: %w", err)
	}
	s.entryID = entryID

	s.ctx, s.cancelFunc = context.WithCancel(ctx)
	runCtx := s.ctx

	s.cron.Start()
	s.isRunning = true

	fields := logger.Fields{"schedule": s.schedule}
	if next := s.cron.Entry(entryID).Next; !next.IsZero() {
		fields["next_run"] = next.UTC().Format(time.RFC3339)
	}
	s.log.Info("Import scheduler started", fields)

	// Monitor for context cancellation
	go func() {
		<-runCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop stops the schedule and the groups watch, waiting for running imports to finish
func (s *ImportScheduler) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	cancel := s.cancelFunc
	stopWatch := s.stopWatch
	s.cancelFunc = nil
	s.stopWatch = nil
	s.mu.Unlock()

	if stopWatch != nil {
		stopWatch()
	}

	// Stop accepting new jobs and wait for running jobs to complete
	<-s.cron.Stop().Done()
	s.cron.Remove(s.entryID)
	s.watchRuns.Wait()

	if cancel != nil {
		cancel()
	}

	s.log.Info("Import scheduler stopped", nil)
}

// WatchGroups triggers an import whenever w reports a change. Stop ends the watch.
func (s *ImportScheduler) WatchGroups(w Watcher) error {
	stop, err := w.Watch(func() {
		s.watchRuns.Add(1)
		go func() {
			defer s.watchRuns.Done()
			s.runImport(TriggerWatch)
		}()
	})
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.stopWatch = stop
	s.mu.Unlock()

	return nil
}

// RunNow runs an import synchronously. It returns ErrAlreadyImporting when
// another import is in progress, otherwise the job's error.
func (s *ImportScheduler) RunNow() error {
	return s.runImport(TriggerManual)
}

// IsRunning returns whether the schedule is active
func (s *ImportScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// IsImporting returns whether an import is currently in progress
func (s *ImportScheduler) IsImporting() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isImporting
}

// NextRun returns when the next scheduled import will occur
func (s *ImportScheduler) NextRun() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}

	next := s.cron.Entry(s.entryID).Next
	if next.IsZero() {
		return nil
	}
	return &next
}

// runImport performs one import unless another is in progress
func (s *ImportScheduler) runImport(trigger string) error {
	s.mu.Lock()
	if s.isImporting {
		s.mu.Unlock()
		s.log.Warn("Import skipped (already importing)", logger.Fields{"trigger": trigger})
		return ErrAlreadyImporting
	}
	s.isImporting = true
	ctx := s.ctx
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.isImporting = false
		s.mu.Unlock()
	}()

	s.log.Debug("Import triggered", logger.Fields{"trigger": trigger})

	if err := s.job(ctx); err != nil {
		s.log.Error("Scheduled import failed", logger.Fields{"trigger": trigger}, err)
		return err
	}

	return nil
}
