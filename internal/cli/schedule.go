package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/pfrederiksen/meetup-events/internal/config"
	"github.com/pfrederiksen/meetup-events/internal/group"
	"github.com/pfrederiksen/meetup-events/internal/logger"
	"github.com/pfrederiksen/meetup-events/internal/metrics"
	"github.com/pfrederiksen/meetup-events/internal/scheduler"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

func newScheduleCmd() *cobra.Command {
	var (
		schedule    string
		watch       bool
		metricsAddr string
		runNow      bool
	)

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run imports periodically until interrupted",
		Long: `Runs the import on a cron schedule (default $IMPORT_SCHEDULE, every 6 hours).
With --watch an import also runs whenever the groups file changes. With
--metrics-addr the import metrics are served at /metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if flags.Changed("schedule") {
				cfg.Schedule.Cron = schedule
			}
			if flags.Changed("metrics-addr") {
				cfg.Metrics.Addr = metricsAddr
			}
			return runSchedule(cmd.Context(), cfg, watch, runNow)
		},
	}

	cmd.Flags().StringVar(&schedule, "schedule", "", "Cron schedule, e.g. '0 */6 * * *' or '@hourly'")
	cmd.Flags().BoolVar(&watch, "watch", false, "Also import when the groups file changes")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve /metrics and /healthz on this address, e.g. ':9110'")
	cmd.Flags().BoolVar(&runNow, "run-now", false, "Import once right after starting")

	return cmd
}

// runSchedule blocks until ctx is cancelled
func runSchedule(ctx context.Context, c *config.Config, watch, runNow bool) error {
	m := metrics.New()

	var s *scheduler.ImportScheduler
	job := func(ctx context.Context) error {
		result, err := runImport(ctx, c, m)
		if c.Metrics.Textfile != "" {
			if writeErr := m.WriteTextfile(c.Metrics.Textfile); writeErr != nil {
				logger.Warn("Could not write metrics", logger.Fields{"path": c.Metrics.Textfile, "error": writeErr.Error()})
			}
		}
		if err != nil {
			return err
		}
		fields := logger.Fields{
			"run_id":            result.RunID,
			"meetups":           result.MeetupCount,
			"new":               len(result.NewMeetups),
			"max_forecast_days": result.MaxForecastDays,
		}
		if next := s.NextRun(); next != nil {
			fields["next_run"] = next.UTC().Format(time.RFC3339)
		}
		logger.Info("Loaded meetups", fields)
		return nil
	}

	s, err := scheduler.New(c.Schedule.Cron, job, logger.Default())
	if err != nil {
		return err
	}

	var server *http.Server
	serveErr := make(chan error, 1)
	if c.Metrics.Addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", m.Handler())
		mux.Handle("/healthz", healthHandler(s))
		server = &http.Server{
			Addr:              c.Metrics.Addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			logger.Info("Serving metrics", logger.Fields{"addr": c.Metrics.Addr})
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serveErr <- err
			}
		}()
	}

	if err := s.Start(ctx); err != nil {
		return err
	}
	defer s.Stop()

	if watch {
		if err := s.WatchGroups(group.NewRepository(c.GroupsFile)); err != nil {
			return fmt.Errorf("watching groups file: %w", err)
		}
		logger.Info("Watching groups file", logger.Fields{"path": c.GroupsFile})
	}

	if runNow {
		// a failed first import is logged by the scheduler; keep the schedule running
		_ = s.RunNow()
	}

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		return fmt.Errorf("metrics server: %w", err)
	}

	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Metrics server shutdown failed", logger.Fields{"error": err.Error()})
		}
	}

	return nil
}

// healthStatus is the /healthz response body
type healthStatus struct {
	Status    string     `json:"status"`
	Importing bool       `json:"importing"`
	NextRun   *time.Time `json:"next_run,omitempty"`
}

// healthHandler reports the scheduler state; 503 once it has stopped
func healthHandler(s *scheduler.ImportScheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := healthStatus{
			Status:    "ok",
			Importing: s.IsImporting(),
			NextRun:   s.NextRun(),
		}
		code := http.StatusOK
		if !s.IsRunning() {
			status.Status = "stopped"
			code = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(status)
	}
}
