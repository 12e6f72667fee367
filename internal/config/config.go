package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/pfrederiksen/meetup-events/internal/importer"
	"github.com/pfrederiksen/meetup-events/internal/logger"
	"github.com/pfrederiksen/meetup-events/internal/meetupcom"
	"github.com/spf13/viper"
)

const (
	DefaultGroupsFile = "./data/groups.yaml"
	DefaultDataDir    = "~/.local/share/meetup-events"
)

type (
	Config struct {
		API
		Import
		Storage
		Schedule
		Metrics
		Log
	}

	API struct {
		Key     string
		BaseURL string
		Timeout time.Duration
	}
	Import struct {
		MaxForecastDays  int
		GroupsFile       string
		MalformedPolicy  string // "abort" or "skip"
		StrictTimestamps bool
	}
	Storage struct {
		DataDir string
	}
	Schedule struct {
		Cron string // Cron format: "0 */6 * * *" = every 6 hours
	}
	Metrics struct {
		Textfile string // node exporter textfile, written after each import
		Addr     string // listen address for /metrics while scheduling
	}
	Log struct {
		Level string
	}
)

// NewConfig reads the configuration from the environment
func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("meetup_api_key", "")
	v.SetDefault("meetup_api_url", meetupcom.DefaultBaseURL)
	v.SetDefault("meetup_http_timeout", "30s")
	v.SetDefault("max_forecast_days", 30)
	v.SetDefault("groups_file", DefaultGroupsFile)
	v.SetDefault("malformed_policy", string(importer.MalformedAbort))
	v.SetDefault("strict_timestamps", false)
	v.SetDefault("data_dir", DefaultDataDir)
	v.SetDefault("import_schedule", "0 */6 * * *") // Every 6 hours
	v.SetDefault("metrics_textfile", "")
	v.SetDefault("metrics_addr", "")
	v.SetDefault("log_level", "info")

	return &Config{
		API: API{
			Key:     v.GetString("MEETUP_API_KEY"),
			BaseURL: v.GetString("MEETUP_API_URL"),
			Timeout: v.GetDuration("MEETUP_HTTP_TIMEOUT"),
		},
		Import: Import{
			MaxForecastDays:  v.GetInt("MAX_FORECAST_DAYS"),
			GroupsFile:       v.GetString("GROUPS_FILE"),
			MalformedPolicy:  v.GetString("MALFORMED_POLICY"),
			StrictTimestamps: v.GetBool("STRICT_TIMESTAMPS"),
		},
		Storage: Storage{
			DataDir: v.GetString("DATA_DIR"),
		},
		Schedule: Schedule{
			Cron: v.GetString("IMPORT_SCHEDULE"),
		},
		Metrics: Metrics{
			Textfile: v.GetString("METRICS_TEXTFILE"),
			Addr:     v.GetString("METRICS_ADDR"),
		},
		Log: Log{
			Level: v.GetString("LOG_LEVEL"),
		},
	}
}

// Validate checks the values an import needs. The API key is checked by the
// commands that call the API.
func (c *Config) Validate() error {
	var errs []error

	if c.MaxForecastDays <= 0 {
		errs = append(errs, fmt.Errorf("MAX_FORECAST_DAYS must be positive, got %d", c.MaxForecastDays))
	}
	if c.API.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("MEETUP_HTTP_TIMEOUT must be positive, got %s", c.API.Timeout))
	}
	if c.GroupsFile == "" {
		errs = append(errs, errors.New("GROUPS_FILE is required"))
	}
	if c.DataDir == "" {
		errs = append(errs, errors.New("DATA_DIR is required"))
	}
	if _, err := importer.ParseMalformedPolicy(c.MalformedPolicy); err != nil {
		errs = append(errs, fmt.Errorf("MALFORMED_POLICY: %w", err))
	}
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
	}

	return errors.Join(errs...)
}
