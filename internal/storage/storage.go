package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pfrederiksen/meetup-events/internal/meetup"
	"gopkg.in/yaml.v3"
)

// ImportsFile is the name of the saved imports file inside the data directory
const ImportsFile = "meetups.yaml"

// ErrMeetupNotFound is returned when an ID is not in the saved imports
var ErrMeetupNotFound = errors.New("meetup not found")

// Imports is the content of the saved imports file
type Imports struct {
	ImportedAt      time.Time       `yaml:"imported_at"`
	MaxForecastDays int             `yaml:"max_forecast_days"`
	Meetups         []meetup.Meetup `yaml:"meetups"`
}

// Storage handles persistence of imported meetups
type Storage struct {
	dataDir string
	now     func() time.Time
}

// New creates a new Storage instance
func New(dataDir string) (*Storage, error) {
	// Expand ~ to home directory
	if strings.HasPrefix(dataDir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, dataDir[2:])
	}

	// Create data directory if it doesn't exist
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	return &Storage{
		dataDir: dataDir,
		now:     time.Now,
	}, nil
}

// Path returns the location of the saved imports file
func (s *Storage) Path() string {
	return filepath.Join(s.dataDir, ImportsFile)
}

// LoadImports reads the saved imports. A missing file yields empty imports.
func (s *Storage) LoadImports() (*Imports, error) {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		if os.IsNotExist(err) {
			// No previous import
			return &Imports{Meetups: []meetup.Meetup{}}, nil
		}
		return nil, fmt.Errorf("reading imports: %w", err)
	}

	var imports Imports
	if err := yaml.Unmarshal(data, &imports); err != nil {
		return nil, fmt.Errorf("parsing imports: %w", err)
	}

	if imports.Meetups == nil {
		imports.Meetups = []meetup.Meetup{}
	}

	return &imports, nil
}

// SaveImports replaces the saved imports with meetups.
// The file is written to a temporary name first and renamed into place.
func (s *Storage) SaveImports(meetups []meetup.Meetup, maxForecastDays int) error {
	if meetups == nil {
		meetups = []meetup.Meetup{}
	}

	imports := Imports{
		ImportedAt:      s.now().UTC().Truncate(time.Second),
		MaxForecastDays: maxForecastDays,
		Meetups:         meetups,
	}

	data, err := yaml.Marshal(&imports)
	if err != nil {
		return fmt.Errorf("encoding imports: %w", err)
	}

	tmp := s.Path() + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing imports: %w", err)
	}
	if err := os.Rename(tmp, s.Path()); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("writing imports: %w", err)
	}

	return nil
}

// GetMeetupByID retrieves a meetup by ID from the saved imports
func (s *Storage) GetMeetupByID(id string) (*meetup.Meetup, error) {
	imports, err := s.LoadImports()
	if err != nil {
		return nil, fmt.Errorf("loading imports: %w", err)
	}

	for i := range imports.Meetups {
		if imports.Meetups[i].ID == id {
			return &imports.Meetups[i], nil
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrMeetupNotFound, id)
}
