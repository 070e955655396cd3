package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDefaults(t *testing.T) {
	var cfg Config
	cfg.Normalize()

	assert.Equal(t, "127.0.0.1:8080", cfg.Listen)
	assert.Equal(t, "UTC", cfg.Timezone)
	assert.Equal(t, "*/15 * * * *", cfg.RefreshCron)
	assert.Equal(t, 30, cfg.HorizonDays)
	assert.Equal(t, 8, cfg.HourStart)
	assert.Equal(t, 16, cfg.HourEnd)
	assert.NotNil(t, cfg.REST)
	assert.NotNil(t, cfg.ICS)
	assert.NotEmpty(t, cfg.CategoryKeywords)
}

func TestNormalizeRepairsHourRange(t *testing.T) {
	tests := []struct {
		name      string
		start     int
		end       int
		wantStart int
		wantEnd   int
	}{
		{name: "inverted", start: 16, end: 8, wantStart: 16, wantEnd: 24},
		{name: "start out of range", start: 30, end: 40, wantStart: 8, wantEnd: 16},
		{name: "end past midnight", start: 20, end: 30, wantStart: 20, wantEnd: 24},
		{name: "valid untouched", start: 9, end: 17, wantStart: 9, wantEnd: 17},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{HourStart: tt.start, HourEnd: tt.end}
			cfg.Normalize()
			assert.Equal(t, tt.wantStart, cfg.HourStart)
			assert.Equal(t, tt.wantEnd, cfg.HourEnd)
		})
	}
}

func TestLoadCreatesDefaultOnFirstRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, "127.0.0.1:8080", cfg.Listen)

	info, err := os.Stat(path)
	require.NoError(t, err)
	if runtime.GOOS != "windows" {
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := DefaultConfig()
	cfg.Listen = "0.0.0.0:9090"
	cfg.Timezone = "Europe/Berlin"
	cfg.HourStart = 9
	cfg.HourEnd = 18
	cfg.REST = []RESTConfig{{ID: "campus", Name: "Campus API", EventsURL: "https://campus.example.edu/events", TasksURL: "https://campus.example.edu/tasks"}}
	cfg.ICS = []ICSConfig{{ID: "timetable", URL: "https://campus.example.edu/timetable.ics"}}
	cfg.BasicAuth = &BasicAuthConfig{Username: "u", Password: "p"}

	require.NoError(t, Save(path, cfg))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Listen, got.Listen)
	assert.Equal(t, cfg.Timezone, got.Timezone)
	assert.Equal(t, cfg.HourStart, got.HourStart)
	assert.Equal(t, cfg.HourEnd, got.HourEnd)
	assert.Equal(t, cfg.REST, got.REST)
	assert.Equal(t, cfg.ICS, got.ICS)
	require.NotNil(t, got.BasicAuth)
	assert.Equal(t, "u", got.BasicAuth.Username)
}

func TestLoadEmptyPath(t *testing.T) {
	_, err := Load("")
	assert.Error(t, err)
}
