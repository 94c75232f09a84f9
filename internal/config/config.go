package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/ini.v1"

	"github.com/sadopc/worktimer/internal/logging"
	"github.com/sadopc/worktimer/internal/store"
)

const envPrefix = "WORKTIMER_"

type Config struct {
	// Storage
	Dir        string
	Backend    string
	KeyByYear  bool
	SQLitePath string
	BoltPath   string

	// Display
	DateLayout       string
	DecimalSeparator string
	TickInterval     time.Duration

	// Logging
	LogFile  string
	LogLevel string

	// Google Sheets
	SpreadsheetID   string
	CredentialsFile string
}

type storageSection struct {
	Dir        string `ini:"dir"`
	Backend    string `ini:"backend"`
	KeyByYear  bool   `ini:"key_by_year"`
	SQLitePath string `ini:"sqlite_path"`
	BoltPath   string `ini:"bolt_path"`
}

type displaySection struct {
	DateLayout       string `ini:"date_layout"`
	DecimalSeparator string `ini:"decimal_separator"`
	TickInterval     string `ini:"tick_interval"`
}

type logSection struct {
	File  string `ini:"file"`
	Level string `ini:"level"`
}

type sheetsSection struct {
	SpreadsheetID   string `ini:"spreadsheet_id"`
	CredentialsFile string `ini:"credentials_file"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Dir:              ".",
		Backend:          store.BackendXLSX,
		DateLayout:       store.DefaultDateLayout,
		DecimalSeparator: ",",
		TickInterval:     time.Second,
		LogFile:          defaultLogFile(),
		LogLevel:         "info",
	}
}

// DefaultPath is the config file read when no path is given.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "worktimer", "config.ini")
}

func defaultLogFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "worktimer", "worktimer.log")
}

// Load reads defaults, then the INI file at path (DefaultPath when empty; a
// missing file is not an error), then WORKTIMER_* environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultPath()
	}
	if path != "" {
		if err := cfg.readFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()
	cfg.Dir = expandHome(cfg.Dir)
	cfg.SQLitePath = expandHome(cfg.SQLitePath)
	cfg.BoltPath = expandHome(cfg.BoltPath)
	cfg.LogFile = expandHome(cfg.LogFile)
	cfg.CredentialsFile = expandHome(cfg.CredentialsFile)
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	f, err := ini.Load(path)
	if err != nil {
		return fmt.Errorf("load config %s: %w", path, err)
	}

	st := storageSection{Dir: c.Dir, Backend: c.Backend, KeyByYear: c.KeyByYear, SQLitePath: c.SQLitePath, BoltPath: c.BoltPath}
	if err := f.Section("storage").MapTo(&st); err != nil {
		return fmt.Errorf("config %s [storage]: %w", path, err)
	}
	disp := displaySection{DateLayout: c.DateLayout, DecimalSeparator: c.DecimalSeparator}
	if err := f.Section("display").MapTo(&disp); err != nil {
		return fmt.Errorf("config %s [display]: %w", path, err)
	}
	lg := logSection{File: c.LogFile, Level: c.LogLevel}
	if err := f.Section("log").MapTo(&lg); err != nil {
		return fmt.Errorf("config %s [log]: %w", path, err)
	}
	sh := sheetsSection{SpreadsheetID: c.SpreadsheetID, CredentialsFile: c.CredentialsFile}
	if err := f.Section("sheets").MapTo(&sh); err != nil {
		return fmt.Errorf("config %s [sheets]: %w", path, err)
	}

	c.Dir, c.Backend, c.KeyByYear = st.Dir, st.Backend, st.KeyByYear
	c.SQLitePath, c.BoltPath = st.SQLitePath, st.BoltPath
	c.DateLayout, c.DecimalSeparator = disp.DateLayout, disp.DecimalSeparator
	if disp.TickInterval != "" {
		d, err := time.ParseDuration(disp.TickInterval)
		if err != nil {
			return fmt.Errorf("config %s [display] tick_interval: %w", path, err)
		}
		c.TickInterval = d
	}
	c.LogFile, c.LogLevel = lg.File, lg.Level
	c.SpreadsheetID, c.CredentialsFile = sh.SpreadsheetID, sh.CredentialsFile
	return nil
}

func (c *Config) applyEnv() {
	c.Dir = getEnv("DIR", c.Dir)
	c.Backend = getEnv("BACKEND", c.Backend)
	c.KeyByYear = getEnvBool("KEY_BY_YEAR", c.KeyByYear)
	c.SQLitePath = getEnv("SQLITE_PATH", c.SQLitePath)
	c.BoltPath = getEnv("BOLT_PATH", c.BoltPath)

	c.DateLayout = getEnv("DATE_LAYOUT", c.DateLayout)
	c.DecimalSeparator = getEnv("DECIMAL_SEPARATOR", c.DecimalSeparator)
	c.TickInterval = getEnvDuration("TICK_INTERVAL", c.TickInterval)

	c.LogFile = getEnv("LOG_FILE", c.LogFile)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)

	c.SpreadsheetID = getEnv("SPREADSHEET_ID", c.SpreadsheetID)
	c.CredentialsFile = getEnv("CREDENTIALS_FILE", c.CredentialsFile)
}

// StoreOptions maps the storage settings onto store.Options.
func (c *Config) StoreOptions() store.Options {
	return store.Options{
		Backend:         c.Backend,
		Dir:             c.Dir,
		SQLitePath:      c.SQLitePath,
		BoltPath:        c.BoltPath,
		SpreadsheetID:   c.SpreadsheetID,
		CredentialsFile: c.CredentialsFile,
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errs []string

	validBackend := false
	for _, b := range store.Backends {
		if c.Backend == b {
			validBackend = true
			break
		}
	}
	if !validBackend {
		errs = append(errs, fmt.Sprintf("invalid backend '%s': must be one of %v", c.Backend, store.Backends))
	}

	if c.Backend == store.BackendSheets && strings.TrimSpace(c.SpreadsheetID) == "" {
		errs = append(errs, "spreadsheet id is required when using sheets backend")
	}

	if strings.TrimSpace(c.Dir) == "" {
		errs = append(errs, "data directory cannot be empty")
	}

	if c.DateLayout == "" {
		errs = append(errs, "date layout cannot be empty")
	}

	if c.DecimalSeparator == "" {
		errs = append(errs, "decimal separator cannot be empty")
	}

	if c.TickInterval < 10*time.Millisecond {
		errs = append(errs, fmt.Sprintf("invalid tick interval %v: must be at least 10ms", c.TickInterval))
	} else if c.TickInterval > time.Minute {
		errs = append(errs, fmt.Sprintf("invalid tick interval %v: must be at most 1 minute", c.TickInterval))
	}

	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(envPrefix + key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(envPrefix + key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(envPrefix + key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
