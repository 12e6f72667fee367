package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pfrederiksen/meetup-events/internal/config"
	"github.com/pfrederiksen/meetup-events/internal/country"
	"github.com/pfrederiksen/meetup-events/internal/group"
	"github.com/pfrederiksen/meetup-events/internal/importer"
	"github.com/pfrederiksen/meetup-events/internal/logger"
	"github.com/pfrederiksen/meetup-events/internal/meetup"
	"github.com/pfrederiksen/meetup-events/internal/meetupcom"
	"github.com/pfrederiksen/meetup-events/internal/metrics"
	"github.com/pfrederiksen/meetup-events/internal/storage"
	"github.com/spf13/cobra"
)

var (
	flagMaxForecastDays  int
	flagSkipMalformed    bool
	flagStrictTimestamps bool
	flagMetricsTextfile  string
)

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import upcoming meetups and save them",
		Long: `Fetches upcoming events of every group in the groups file, keeps the
nearest announced meetup of each group within the forecast horizon and saves
the result, replacing the previous import. Meetups not in the previous import
are marked NEW.`,
		Args: cobra.NoArgs,
		RunE: runImportCmd,
	}

	cmd.Flags().IntVar(&flagMaxForecastDays, "max-forecast-days", 0, "Forecast horizon in days (default $MAX_FORECAST_DAYS or 30)")
	cmd.Flags().BoolVar(&flagSkipMalformed, "skip-malformed", false, "Drop event records missing required fields instead of failing")
	cmd.Flags().BoolVar(&flagStrictTimestamps, "strict-timestamps", false, "Treat timestamps with sub-second digits as malformed")
	cmd.Flags().StringVar(&flagMetricsTextfile, "metrics-textfile", "", "Write Prometheus metrics to this file (default $METRICS_TEXTFILE)")

	return cmd
}

// applyImportFlags overrides the import settings given on the command line
func applyImportFlags(cmd *cobra.Command, c *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("max-forecast-days") {
		if flagMaxForecastDays <= 0 {
			return fmt.Errorf("--max-forecast-days must be positive, got %d", flagMaxForecastDays)
		}
		c.MaxForecastDays = flagMaxForecastDays
	}
	if flags.Changed("skip-malformed") && flagSkipMalformed {
		c.MalformedPolicy = string(importer.MalformedSkip)
	}
	if flags.Changed("strict-timestamps") {
		c.StrictTimestamps = flagStrictTimestamps
	}
	if flags.Changed("metrics-textfile") {
		c.Metrics.Textfile = flagMetricsTextfile
	}
	return nil
}

func runImportCmd(cmd *cobra.Command, args []string) error {
	format, err := ParseOutputFormat(flagFormat)
	if err != nil {
		return err
	}
	if err := applyImportFlags(cmd, cfg); err != nil {
		return err
	}

	m := metrics.New()
	result, err := runImport(cmd.Context(), cfg, m)

	if cfg.Metrics.Textfile != "" {
		if writeErr := m.WriteTextfile(cfg.Metrics.Textfile); writeErr != nil {
			logger.Warn("Could not write metrics", logger.Fields{"path": cfg.Metrics.Textfile, "error": writeErr.Error()})
		}
	}

	if err != nil {
		return err
	}

	if err := WriteImportOutput(cmd.OutOrStdout(), result, format, flagVerbose); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}

	return nil
}

// runImport performs one import: groups file, events API, pipeline, diff against the
// previous import and save. The run is recorded in m whether or not it succeeds.
func runImport(ctx context.Context, c *config.Config, m *metrics.Metrics) (*ImportResult, error) {
	runID := uuid.NewString()
	log := logger.With(logger.Fields{"run_id": runID})

	if c.API.Key == "" {
		return nil, errors.New("MEETUP_API_KEY is required")
	}

	policy, err := importer.ParseMalformedPolicy(c.MalformedPolicy)
	if err != nil {
		return nil, err
	}

	repo := group.NewRepository(c.GroupsFile)
	groupIDs, err := repo.GroupIDs()
	if err != nil {
		return nil, fmt.Errorf("loading groups: %w", err)
	}

	store, err := storage.New(c.DataDir)
	if err != nil {
		return nil, fmt.Errorf("initializing storage: %w", err)
	}

	previous, err := store.LoadImports()
	if err != nil {
		return nil, fmt.Errorf("loading previous import: %w", err)
	}

	client := meetupcom.NewClient(c.API.Key,
		meetupcom.WithBaseURL(c.API.BaseURL),
		meetupcom.WithTimeout(c.API.Timeout),
	)

	pipeline, err := importer.New(importer.Config{
		MaxForecastDays:  c.MaxForecastDays,
		OnMalformed:      policy,
		StrictTimestamps: c.StrictTimestamps,
	}, client, country.NewResolver())
	if err != nil {
		return nil, fmt.Errorf("creating import pipeline: %w", err)
	}

	log.Info("Import started", logger.Fields{
		"groups":            len(groupIDs),
		"max_forecast_days": c.MaxForecastDays,
		"cutoff":            pipeline.MaxForecastDateTime().UTC().Format(time.RFC3339),
	})

	start := time.Now()
	imported, err := pipeline.Import(ctx, groupIDs)
	m.ObserveRun(imported, err, time.Since(start))
	if err != nil {
		log.Error("Import failed", logger.Fields{"duration_ms": time.Since(start).Milliseconds()}, err)
		return nil, err
	}

	for _, malformed := range imported.Malformed {
		log.Warn("Dropped malformed event record", logger.Fields{
			"index":    malformed.Index,
			"event_id": malformed.EventID,
			"field":    malformed.Field,
		})
	}
	if imported.IrregularTimestamps > 0 {
		log.Warn("Timestamps with sub-second digits", logger.Fields{"count": imported.IrregularTimestamps})
	}

	if err := store.SaveImports(imported.Meetups, c.MaxForecastDays); err != nil {
		return nil, fmt.Errorf("saving import: %w", err)
	}

	diff := meetup.Diff(previous.Meetups, imported.Meetups)

	result := &ImportResult{
		RunID:               runID,
		ImportedAt:          time.Now().UTC(),
		MaxForecastDays:     c.MaxForecastDays,
		Groups:              len(groupIDs),
		Fetched:             imported.Fetched,
		Skipped:             make(map[string]int, len(imported.Skipped)),
		IrregularTimestamps: imported.IrregularTimestamps,
		MeetupCount:         len(imported.Meetups),
		Meetups:             imported.Meetups,
		NewMeetups:          diff.NewMeetups,
		ByCountry:           diff.Countries,
		Changes:             meetup.CompareImports(previous.Meetups, imported.Meetups),
	}
	for reason, n := range imported.Skipped {
		result.Skipped[string(reason)] = n
	}
	for _, malformed := range imported.Malformed {
		result.Malformed = append(result.Malformed, malformed.Error())
	}

	log.Info("Import finished", logger.Fields{
		"meetups":     result.MeetupCount,
		"new":         len(result.NewMeetups),
		"changed":     len(result.Changes),
		"fetched":     result.Fetched,
		"skipped":     imported.SkippedTotal(),
		"batches":     imported.Batches,
		"duration_ms": time.Since(start).Milliseconds(),
	})

	return result, nil
}
