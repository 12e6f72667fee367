package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pfrederiksen/meetup-events/internal/config"
	"github.com/pfrederiksen/meetup-events/internal/logger"
	"github.com/spf13/cobra"
)

const (
	ExitSuccess = 0
	ExitError   = 1
)

var (
	cfg *config.Config

	flagDataDir    string
	flagGroupsFile string
	flagFormat     string
	flagLogLevel   string
	flagVerbose    bool
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "meetup-events",
		Short: "Import upcoming meetups of configured groups",
		Long: `A CLI tool to import the nearest upcoming meetup of each configured
meetup.com group within a forecast horizon. Imports are saved as YAML and can
be listed, filtered and exported as an iCalendar feed.

Settings are read from the environment (MEETUP_API_KEY, MAX_FORECAST_DAYS,
GROUPS_FILE, DATA_DIR, ...); flags override them.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: loadConfig,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&flagDataDir, "data-dir", "", "Data directory for saved imports (default $DATA_DIR or "+config.DefaultDataDir+")")
	pf.StringVar(&flagGroupsFile, "groups-file", "", "YAML file listing the groups (default $GROUPS_FILE or "+config.DefaultGroupsFile+")")
	pf.StringVar(&flagFormat, "format", "text", "Output format: text or json")
	pf.StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn or error (default $LOG_LEVEL or info)")
	pf.BoolVar(&flagVerbose, "verbose", false, "Show meetup details and import statistics")

	cmd.AddCommand(
		newImportCmd(),
		newListCmd(),
		newCalendarCmd(),
		newScheduleCmd(),
	)

	return cmd
}

// loadConfig reads the environment, applies flag overrides and sets up logging
func loadConfig(cmd *cobra.Command, args []string) error {
	cfg = config.NewConfig()

	flags := cmd.Flags()
	if flags.Changed("data-dir") {
		cfg.DataDir = flagDataDir
	}
	if flags.Changed("groups-file") {
		cfg.GroupsFile = flagGroupsFile
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = flagLogLevel
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	level, err := logger.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	logger.SetDefault(logger.New(level, cmd.ErrOrStderr()))

	return nil
}

// Execute runs the CLI. SIGINT and SIGTERM cancel the command context.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(ExitError)
	}
}
