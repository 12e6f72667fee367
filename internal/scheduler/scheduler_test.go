package scheduler

import (
	"bytes"
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pfrederiksen/meetup-events/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logger.Logger {
	return logger.New(logger.LevelError, &bytes.Buffer{})
}

type fakeWatcher struct {
	onChange func()
	stopped  atomic.Bool
}

func (w *fakeWatcher) Watch(onChange func()) (func(), error) {
	w.onChange = onChange
	return func() { w.stopped.Store(true) }, nil
}

func TestValidateSchedule(t *testing.T) {
	tests := []struct {
		spec    string
		wantErr bool
	}{
		{spec: "0 */6 * * *"},
		{spec: "*/15 * * * *"},
		{spec: "@hourly"},
		{spec: "@every 10m"},
		{spec: "0 0 */6 * * *", wantErr: true}, // seconds field is not accepted
		{spec: "every day", wantErr: true},
		{spec: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			err := ValidateSchedule(tt.spec)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNew_Validation(t *testing.T) {
	_, err := New("0 * * * *", nil, nil)
	assert.Error(t, err)

	_, err = New("not cron", func(context.Context) error { return nil }, nil)
	assert.Error(t, err)
}

func TestRunNow(t *testing.T) {
	var runs atomic.Int32
	jobErr := errors.New("api down")

	s, err := New("@hourly", func(context.Context) error {
		if runs.Add(1) == 2 {
			return jobErr
		}
		return nil
	}, quietLogger())
	require.NoError(t, err)

	assert.NoError(t, s.RunNow())
	assert.ErrorIs(t, s.RunNow(), jobErr)
	assert.Equal(t, int32(2), runs.Load())
	assert.False(t, s.IsImporting())
}

func TestRunNow_NoOverlap(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})

	s, err := New("@hourly", func(context.Context) error {
		close(started)
		<-release
		return nil
	}, quietLogger())
	require.NoError(t, err)

	done := make(chan error)
	go func() { done <- s.RunNow() }()

	<-started
	assert.True(t, s.IsImporting())
	assert.ErrorIs(t, s.RunNow(), ErrAlreadyImporting)

	close(release)
	assert.NoError(t, <-done)
	assert.False(t, s.IsImporting())
}

func TestStartStop(t *testing.T) {
	var runs atomic.Int32
	s, err := New("@every 1s", func(ctx context.Context) error {
		runs.Add(1)
		return nil
	}, quietLogger())
	require.NoError(t, err)

	assert.Nil(t, s.NextRun())

	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, s.Start(context.Background()), "starting twice is a no-op")
	assert.True(t, s.IsRunning())
	require.NotNil(t, s.NextRun())

	assert.Eventually(t, func() bool { return runs.Load() > 0 }, 5*time.Second, 50*time.Millisecond)

	s.Stop()
	assert.False(t, s.IsRunning())
	assert.Nil(t, s.NextRun())

	after := runs.Load()
	time.Sleep(1500 * time.Millisecond)
	assert.Equal(t, after, runs.Load(), "no imports after Stop")
}

func TestStart_ContextCancelStops(t *testing.T) {
	s, err := New("@hourly", func(context.Context) error { return nil }, quietLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, s.Start(ctx))

	cancel()
	assert.Eventually(t, func() bool { return !s.IsRunning() }, 2*time.Second, 20*time.Millisecond)
}

func TestWatchGroups(t *testing.T) {
	runs := make(chan struct{}, 1)
	s, err := New("@hourly", func(context.Context) error {
		runs <- struct{}{}
		return nil
	}, quietLogger())
	require.NoError(t, err)

	w := &fakeWatcher{}
	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, s.WatchGroups(w))

	w.onChange()

	select {
	case <-runs:
	case <-time.After(2 * time.Second):
		t.Fatal("groups change did not trigger an import")
	}

	s.Stop()
	assert.True(t, w.stopped.Load(), "Stop ends the watch")
}

func TestStop_WaitsForWatchTriggeredImport(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var finished atomic.Bool

	s, err := New("@hourly", func(context.Context) error {
		close(started)
		<-release
		finished.Store(true)
		return nil
	}, quietLogger())
	require.NoError(t, err)

	w := &fakeWatcher{}
	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, s.WatchGroups(w))

	w.onChange()
	<-started

	stopped := make(chan struct{})
	go func() {
		s.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
		t.Fatal("Stop returned while an import was in progress")
	case <-time.After(200 * time.Millisecond):
	}

	close(release)
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return after the import finished")
	}
	assert.True(t, finished.Load())
}
