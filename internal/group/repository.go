package group

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/pfrederiksen/meetup-events/internal/meetup"
	"gopkg.in/yaml.v3"
)

type groupsFile struct {
	Groups []meetup.Group `yaml:"groups"`
}

// Repository loads groups from a YAML file. The file is read on every call.
type Repository struct {
	path string
}

// NewRepository creates a Repository for the file at path
func NewRepository(path string) *Repository {
	return &Repository{path: filepath.Clean(path)}
}

// Path returns the groups file location
func (r *Repository) Path() string {
	return r.path
}

// FetchAll returns every group in file order
func (r *Repository) FetchAll() ([]meetup.Group, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("reading groups file %s: %w", r.path, err)
	}

	var file groupsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing groups file %s: %w", r.path, err)
	}

	for i, g := range file.Groups {
		if g.Name == "" {
			return nil, fmt.Errorf("groups file %s: group %d has no name", r.path, i)
		}
		if g.MeetupID < 0 {
			return nil, fmt.Errorf("groups file %s: group %q has invalid meetup_com_id %d", r.path, g.Name, g.MeetupID)
		}
	}

	return file.Groups, nil
}

// GroupIDs returns the meetup.com IDs of all importable groups in file order
func (r *Repository) GroupIDs() ([]int64, error) {
	groups, err := r.FetchAll()
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(groups))
	for _, g := range groups {
		if g.MeetupID == 0 {
			continue
		}
		ids = append(ids, g.MeetupID)
	}

	return ids, nil
}

// Watch calls onChange whenever the groups file is written or recreated.
// The parent directory is watched so editors that replace the file are noticed.
// Call the returned stop function to clean up.
func (r *Repository) Watch(onChange func()) (stop func(), err error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("groups watcher: %w", err)
	}
	dir := filepath.Dir(r.path)
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, fmt.Errorf("groups watcher add %s: %w", dir, err)
	}

	done := make(chan struct{})
	go func() {
		defer w.Close()
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != r.path {
					continue
				}
				if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
					onChange()
				}
			case _, ok := <-w.Errors:
				if !ok {
					return
				}
			case <-done:
				return
			}
		}
	}()

	return func() { close(done) }, nil
}
