package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// RESTConfig describes one REST collaborator serving JSON event/task
// records for a user's courses.
type RESTConfig struct {
	// ID is an internal identifier used for de-dup and logging.
	ID string `yaml:"id" json:"id"`
	// Name is a human-friendly label shown in the UI.
	Name string `yaml:"name" json:"name"`
	// EventsURL returns a JSON array of event records.
	EventsURL string `yaml:"events_url" json:"events_url"`
	// TasksURL returns a JSON array of task records. Optional.
	TasksURL string `yaml:"tasks_url" json:"tasks_url"`
}

// ICSConfig describes a single ICS subscription source (e.g. a
// university timetable feed).
type ICSConfig struct {
	URL  string `yaml:"url" json:"url"`
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the Web UI/API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the Web UI and API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA timezone used as canonical display zone.
	Timezone string `yaml:"timezone" json:"timezone"`

	// RefreshCron is a cron-style schedule string (e.g. "*/15 * * * *")
	// driving periodic source refresh and snapshot capture.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// HorizonDays is the number of future days fetched from sources.
	HorizonDays int `yaml:"horizon_days" json:"horizon_days"`

	// BackfillDays is the number of past days fetched from sources.
	BackfillDays int `yaml:"backfill_days" json:"backfill_days"`

	// HourStart / HourEnd define the visible hour range of the week
	// view as [HourStart, HourEnd). Events are clipped to this window.
	HourStart int `yaml:"hour_start" json:"hour_start"`
	HourEnd   int `yaml:"hour_end" json:"hour_end"`

	// CategoryKeywords maps a category name to summary keywords used to
	// classify ICS events, which carry no category of their own.
	CategoryKeywords map[string][]string `yaml:"category_keywords" json:"category_keywords"`

	// REST is the list of REST event/task sources.
	REST []RESTConfig `yaml:"rest" json:"rest"`

	// ICS is the list of subscribed ICS sources.
	ICS []ICSConfig `yaml:"ics" json:"ics"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all
	// endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

func defaultCategoryKeywords() map[string][]string {
	return map[string][]string{
		"lecture":  {"lecture", "class"},
		"lab":      {"lab", "practical"},
		"deadline": {"deadline", "due", "exam"},
		"tutorial": {"tutorial", "seminar"},
	}
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:           "127.0.0.1:8080",
		Timezone:         "UTC",
		RefreshCron:      "*/15 * * * *",
		HorizonDays:      30,
		BackfillDays:     7,
		HourStart:        8,
		HourEnd:          16,
		CategoryKeywords: defaultCategoryKeywords(),
		REST:             []RESTConfig{},
		ICS:              []ICSConfig{},
		BasicAuth:        nil,
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs (e.g., older versions) still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8080"
	}
	if c.Timezone == "" {
		c.Timezone = "UTC"
	}
	if c.RefreshCron == "" {
		c.RefreshCron = "*/15 * * * *"
	}
	if c.HorizonDays <= 0 {
		c.HorizonDays = 30
	}
	if c.BackfillDays < 0 {
		c.BackfillDays = 0
	}

	// Hour range must be a non-empty window inside a single day.
	if c.HourStart < 0 || c.HourStart > 23 {
		c.HourStart = 8
	}
	if c.HourEnd <= c.HourStart || c.HourEnd > 24 {
		c.HourEnd = c.HourStart + 8
		if c.HourEnd > 24 {
			c.HourEnd = 24
		}
	}

	if c.CategoryKeywords == nil {
		c.CategoryKeywords = defaultCategoryKeywords()
	}
	if c.REST == nil {
		c.REST = []RESTConfig{}
	}
	if c.ICS == nil {
		c.ICS = []ICSConfig{}
	}
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Marshals cfg to YAML.
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	// Atomic write: write to temp file in same directory then rename.
	tmp, err := os.CreateTemp(dir, ".studycal-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}

	if err := os.Rename(tmpName, path); err != nil {
		return err
	}

	return nil
}

// Save is a convenience method on Config that delegates to the
// package-level Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
