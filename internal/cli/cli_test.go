package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pfrederiksen/meetup-events/internal/config"
	"github.com/pfrederiksen/meetup-events/internal/logger"
	"github.com/pfrederiksen/meetup-events/internal/meetup"
	"github.com/pfrederiksen/meetup-events/internal/scheduler"
	"github.com/pfrederiksen/meetup-events/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testGroups = `groups:
  - name: Golang Vienna
    meetup_com_id: 1
    url: https://www.meetup.com/golang-vienna/
  - name: Berlin Gophers
    meetup_com_id: 2
    url: https://www.meetup.com/berlin-gophers/
`

// fakeAPI serves /2/events and records the group_id parameter of every request
type fakeAPI struct {
	mu       sync.Mutex
	status   int
	events   []map[string]interface{}
	groupIDs []string
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if r.URL.Path != "/2/events" {
		http.NotFound(w, r)
		return
	}
	f.groupIDs = append(f.groupIDs, r.URL.Query().Get("group_id"))

	if f.status != 0 && f.status != http.StatusOK {
		w.WriteHeader(f.status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"results": f.events})
}

func (f *fakeAPI) fail(status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = status
}

func apiEvent(id, group, city, countryCode string, start time.Time) map[string]interface{} {
	return map[string]interface{}{
		"id":         id,
		"name":       "Go @ " + city,
		"time":       start.Unix() * 1000,
		"utc_offset": 3600 * 1000,
		"duration":   7200 * 1000,
		"status":     "upcoming",
		"venue": map[string]interface{}{
			"city":    city,
			"country": countryCode,
			"lon":     16.37,
			"lat":     48.21,
		},
		"group":       map[string]interface{}{"name": group},
		"event_url":   fmt.Sprintf("https://www.meetup.com/%s/events/%s/", strings.ToLower(strings.ReplaceAll(group, " ", "-")), id),
		"description": "<p>Talks and <b>pizza</b></p>",
	}
}

type testEnv struct {
	api     *fakeAPI
	dataDir string
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()

	now := time.Now().UTC().Truncate(time.Second)
	api := &fakeAPI{
		events: []map[string]interface{}{
			apiEvent("1", "Golang Vienna", "Wien", "at", now.Add(72*time.Hour)),
			apiEvent("2", "Golang Vienna", "Wien", "at", now.Add(240*time.Hour)),
			apiEvent("3", "Berlin Gophers", "Berlin", "de", now.Add(60*24*time.Hour)),
		},
	}
	server := httptest.NewServer(api)
	t.Cleanup(server.Close)

	dir := t.TempDir()
	groupsFile := filepath.Join(dir, "groups.yaml")
	require.NoError(t, os.WriteFile(groupsFile, []byte(testGroups), 0644))
	dataDir := filepath.Join(dir, "data")

	t.Setenv("MEETUP_API_KEY", "test-key")
	t.Setenv("MEETUP_API_URL", server.URL)
	t.Setenv("MEETUP_HTTP_TIMEOUT", "5s")
	t.Setenv("MAX_FORECAST_DAYS", "30")
	t.Setenv("GROUPS_FILE", groupsFile)
	t.Setenv("DATA_DIR", dataDir)
	t.Setenv("MALFORMED_POLICY", "abort")
	t.Setenv("STRICT_TIMESTAMPS", "false")
	t.Setenv("METRICS_TEXTFILE", "")
	t.Setenv("LOG_LEVEL", "error")

	return &testEnv{api: api, dataDir: dataDir}
}

func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)

	err := root.ExecuteContext(context.Background())
	return stdout.String(), err
}

func decodeImportResult(t *testing.T, out string) ImportResult {
	t.Helper()
	var result ImportResult
	require.NoError(t, json.Unmarshal([]byte(out), &result), out)
	return result
}

func TestImportCommand(t *testing.T) {
	env := setupEnv(t)

	out, err := executeCommand(t, "import", "--format", "json")
	require.NoError(t, err)

	result := decodeImportResult(t, out)
	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, 30, result.MaxForecastDays)
	assert.Equal(t, 2, result.Groups)
	assert.Equal(t, 3, result.Fetched)
	assert.Equal(t, 1, result.Skipped["group_has_meetup"])
	assert.Equal(t, 1, result.Skipped["beyond_horizon"])
	require.Equal(t, 1, result.MeetupCount)
	assert.Len(t, result.NewMeetups, 1)

	m := result.Meetups[0]
	assert.Equal(t, "Go  Wien", m.Title)
	assert.Equal(t, "Vienna", m.Location.City)
	assert.Equal(t, "Austria", m.Location.Country)
	assert.Equal(t, "Talks and pizza", m.Description)
	assert.Equal(t, []string{"1,2"}, env.api.groupIDs)

	store, err := storage.New(env.dataDir)
	require.NoError(t, err)
	saved, err := store.LoadImports()
	require.NoError(t, err)
	assert.Equal(t, 30, saved.MaxForecastDays)
	require.Len(t, saved.Meetups, 1)
	assert.Equal(t, m.ID, saved.Meetups[0].ID)
}

func TestImportCommand_SecondRunHasNoNewMeetups(t *testing.T) {
	setupEnv(t)

	_, err := executeCommand(t, "import")
	require.NoError(t, err)

	out, err := executeCommand(t, "import", "--format", "json")
	require.NoError(t, err)

	result := decodeImportResult(t, out)
	assert.Equal(t, 1, result.MeetupCount)
	assert.Empty(t, result.NewMeetups)
	assert.Empty(t, result.Changes)
}

func TestImportCommand_TextOutput(t *testing.T) {
	setupEnv(t)

	out, err := executeCommand(t, "import")
	require.NoError(t, err)

	assert.Contains(t, out, "Loaded 1 meetups for next 30 days")
	assert.Contains(t, out, "Austria (1 meetups):")
	assert.Contains(t, out, "NEW")
	assert.Contains(t, out, "Total: 1 meetups (1 new) across 1 countries")
}

func TestImportCommand_MaxForecastDaysFlag(t *testing.T) {
	setupEnv(t)

	out, err := executeCommand(t, "import", "--format", "json", "--max-forecast-days", "90")
	require.NoError(t, err)

	result := decodeImportResult(t, out)
	assert.Equal(t, 90, result.MaxForecastDays)
	assert.Equal(t, 2, result.MeetupCount)
	assert.Equal(t, 0, result.Skipped["beyond_horizon"])

	_, err = executeCommand(t, "import", "--max-forecast-days", "0")
	assert.Error(t, err)
}

func TestImportCommand_MissingAPIKey(t *testing.T) {
	setupEnv(t)
	t.Setenv("MEETUP_API_KEY", "")

	_, err := executeCommand(t, "import")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MEETUP_API_KEY")
}

func TestImportCommand_FailureKeepsPreviousImport(t *testing.T) {
	env := setupEnv(t)

	_, err := executeCommand(t, "import")
	require.NoError(t, err)

	env.api.fail(http.StatusInternalServerError)
	_, err = executeCommand(t, "import")
	require.Error(t, err)

	out, err := executeCommand(t, "list", "--format", "json")
	require.NoError(t, err)

	var listed ListResult
	require.NoError(t, json.Unmarshal([]byte(out), &listed))
	assert.Equal(t, 1, listed.MeetupCount)
}

func TestImportCommand_MalformedRecord(t *testing.T) {
	env := setupEnv(t)
	delete(env.api.events[0], "event_url")

	_, err := executeCommand(t, "import")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "event_url")

	out, err := executeCommand(t, "import", "--format", "json", "--skip-malformed")
	require.NoError(t, err)

	result := decodeImportResult(t, out)
	require.Len(t, result.Malformed, 1)
	assert.Contains(t, result.Malformed[0], "event_url")
	// the group's next meetup takes the place of the dropped one
	require.Equal(t, 1, result.MeetupCount)
	assert.Contains(t, result.Meetups[0].URL, "/events/2/")
}

func TestImportCommand_MetricsTextfile(t *testing.T) {
	setupEnv(t)
	path := filepath.Join(t.TempDir(), "meetup_import.prom")

	_, err := executeCommand(t, "import", "--metrics-textfile", path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `meetup_import_runs_total{result="success"} 1`)
	assert.Contains(t, string(data), "meetup_import_meetups 1")
}

func seedImports(t *testing.T, dataDir string, meetups ...meetup.Meetup) {
	t.Helper()
	store, err := storage.New(dataDir)
	require.NoError(t, err)
	require.NoError(t, store.SaveImports(meetups, 30))
}

func savedMeetup(title, group, city, country string, start time.Time) meetup.Meetup {
	ts, _ := meetup.NewTimeSpan(start, nil)
	url := "https://www.meetup.com/" + strings.ToLower(strings.ReplaceAll(title, " ", "-")) + "/"
	return meetup.New(title, group, ts, meetup.Location{City: city, Country: country}, url, "")
}

// listFixtures returns a Thursday, a Saturday and a Tuesday meetup
func listFixtures() []meetup.Meetup {
	return []meetup.Meetup{
		savedMeetup("Go Night", "Golang Vienna", "Vienna", "Austria", time.Date(2030, 3, 14, 18, 0, 0, 0, time.UTC)),
		savedMeetup("Gopher Brunch", "Berlin Gophers", "Berlin", "Germany", time.Date(2030, 3, 16, 11, 0, 0, 0, time.UTC)),
		savedMeetup("Rust and Go", "Prague Gophers", "Prague", "Czechia", time.Date(2030, 4, 2, 18, 0, 0, 0, time.UTC)),
	}
}

func TestListCommand(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		titles []string
	}{
		{"all", nil, []string{"Go Night", "Gopher Brunch", "Rust and Go"}},
		{"country", []string{"--country", "germany"}, []string{"Gopher Brunch"}},
		{"two countries", []string{"--country", "Austria", "--country", "Czechia"}, []string{"Go Night", "Rust and Go"}},
		{"city", []string{"--city", "vien"}, []string{"Go Night"}},
		{"group", []string{"--group", "gophers"}, []string{"Gopher Brunch", "Rust and Go"}},
		{"weekends", []string{"--weekends"}, []string{"Gopher Brunch"}},
		{"from to", []string{"--from", "2030-03-15", "--to", "2030-03-31"}, []string{"Gopher Brunch"}},
		{"sort by title", []string{"--sort", "title"}, []string{"Go Night", "Gopher Brunch", "Rust and Go"}},
		{"sort by country", []string{"--sort", "country"}, []string{"Go Night", "Rust and Go", "Gopher Brunch"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupEnv(t)
			seedImports(t, env.dataDir, listFixtures()...)

			out, err := executeCommand(t, append([]string{"list", "--format", "json"}, tt.args...)...)
			require.NoError(t, err)

			var result ListResult
			require.NoError(t, json.Unmarshal([]byte(out), &result))

			var titles []string
			for _, m := range result.Meetups {
				titles = append(titles, m.Title)
			}
			assert.Equal(t, tt.titles, titles)
			assert.Equal(t, len(tt.titles), result.MeetupCount)
		})
	}
}

func TestListCommand_InvalidFlags(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"bad sort", []string{"--sort", "size"}},
		{"bad format", []string{"--format", "xml"}},
		{"bad date", []string{"--from", "14.03.2030"}},
		{"range with from", []string{"--range", "March", "--from", "2030-03-01"}},
		{"reversed dates", []string{"--from", "2030-04-01", "--to", "2030-03-01"}},
		{"negative days", []string{"--days", "-1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupEnv(t)
			_, err := executeCommand(t, append([]string{"list"}, tt.args...)...)
			assert.Error(t, err)
		})
	}
}

func TestListCommand_NoImport(t *testing.T) {
	setupEnv(t)

	out, err := executeCommand(t, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No meetups found.")
}

func TestCalendarCommand(t *testing.T) {
	env := setupEnv(t)
	seedImports(t, env.dataDir, listFixtures()...)
	path := filepath.Join(t.TempDir(), "meetups.ics")

	_, err := executeCommand(t, "calendar", "--country", "Austria", "--name", "Austrian Meetups", "-o", path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	ics := string(data)
	assert.Contains(t, ics, "X-WR-CALNAME:Austrian Meetups\r\n")
	assert.Contains(t, ics, "SUMMARY:Go Night\r\n")
	assert.Contains(t, ics, "DTSTART:20300314T180000\r\n")
	assert.Equal(t, 1, strings.Count(ics, "BEGIN:VEVENT"))
}

func TestCalendarCommand_Stdout(t *testing.T) {
	env := setupEnv(t)
	seedImports(t, env.dataDir, listFixtures()...)

	out, err := executeCommand(t, "calendar")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "BEGIN:VCALENDAR\r\n"))
	assert.Equal(t, 3, strings.Count(out, "BEGIN:VEVENT"))
}

func TestCalendarCommand_NoMeetups(t *testing.T) {
	env := setupEnv(t)
	seedImports(t, env.dataDir, listFixtures()...)

	_, err := executeCommand(t, "calendar", "--country", "France")
	assert.Error(t, err)
}

func TestScheduleCommand_InvalidSchedule(t *testing.T) {
	setupEnv(t)

	_, err := executeCommand(t, "schedule", "--schedule", "every day")
	assert.Error(t, err)
}

func TestRootCommand_InvalidConfig(t *testing.T) {
	setupEnv(t)
	t.Setenv("MALFORMED_POLICY", "ignore")

	_, err := executeCommand(t, "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestCalendarCommand_SingleMeetup(t *testing.T) {
	env := setupEnv(t)
	fixtures := listFixtures()
	seedImports(t, env.dataDir, fixtures...)

	out, err := executeCommand(t, "calendar", "--id", fixtures[1].ID)
	require.NoError(t, err)

	assert.Equal(t, 1, strings.Count(out, "BEGIN:VEVENT"))
	assert.Contains(t, out, "UID:"+fixtures[1].ID+"@meetup.com\r\n")
	assert.Contains(t, out, "SUMMARY:Gopher Brunch\r\n")
	assert.NotContains(t, out, "X-WR-CALNAME:")

	_, err = executeCommand(t, "calendar", "--id", "does-not-exist")
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrMeetupNotFound)
}

func TestListCommand_VerboseShowsEndAndDuration(t *testing.T) {
	env := setupEnv(t)
	start := time.Date(2030, 3, 14, 18, 0, 0, 0, time.UTC)
	end := start.Add(90 * time.Minute)
	ts, err := meetup.NewTimeSpan(start, &end)
	require.NoError(t, err)
	seedImports(t, env.dataDir, meetup.New("Go Night", "Golang Vienna", ts,
		meetup.Location{City: "Vienna", Country: "Austria"}, "https://www.meetup.com/golang-vienna/events/1/", ""))

	out, err := executeCommand(t, "list", "--verbose")
	require.NoError(t, err)
	assert.Contains(t, out, "Ends: 2030-03-14 19:30 (1h30m0s)")
}

func TestHealthHandler(t *testing.T) {
	s, err := scheduler.New("@hourly", func(context.Context) error { return nil }, logger.New(logger.LevelError, &bytes.Buffer{}))
	require.NoError(t, err)

	get := func() (int, healthStatus) {
		rec := httptest.NewRecorder()
		healthHandler(s)(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		var status healthStatus
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
		return rec.Code, status
	}

	code, status := get()
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "stopped", status.Status)
	assert.Nil(t, status.NextRun)

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	code, status = get()
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", status.Status)
	assert.False(t, status.Importing)
	require.NotNil(t, status.NextRun)
	assert.True(t, status.NextRun.After(time.Now()))
}

func TestRunSchedule_MissingAPIKeyFailsTheImport(t *testing.T) {
	setupEnv(t)
	t.Setenv("MEETUP_API_KEY", "")

	var logs bytes.Buffer
	previous := logger.Default()
	logger.SetDefault(logger.New(logger.LevelError, &logs))
	t.Cleanup(func() { logger.SetDefault(previous) })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, runSchedule(ctx, config.NewConfig(), false, true))
	assert.Contains(t, logs.String(), "MEETUP_API_KEY is required")
}
