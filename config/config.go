// Package config provides CLI configuration management for the netnotes command-line tool.
// It supports loading configuration from YAML files, environment variables, and command-line flags.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// OutputFormat defines the supported output formats for CLI results.
type OutputFormat string

const (
	// OutputFormatText is human-readable colored text output.
	OutputFormatText OutputFormat = "text"
	// OutputFormatJSON is JSON-formatted output for machine processing.
	OutputFormatJSON OutputFormat = "json"
	// OutputFormatYAML is YAML-formatted output for machine processing.
	OutputFormatYAML OutputFormat = "yaml"
)

// StoreBackend selects where people, notes and trips are kept.
type StoreBackend string

const (
	StoreMemory   StoreBackend = "memory"
	StoreSQLite   StoreBackend = "sqlite"
	StorePostgres StoreBackend = "postgres"
)

// Default configuration values.
const (
	DefaultOutputFormat    = OutputFormatText
	DefaultStoreBackend    = StoreSQLite
	DefaultConfigDir       = ".netnotes"
	DefaultConfigFile      = "config.yaml"
	DefaultDatabaseFile    = "netnotes.db"
	DefaultLocationTimeout = 3 * time.Second
	DefaultFollowUpDays    = 7
	DefaultLogLevel        = "warn"
)

// StoreConfig selects and locates the store.
type StoreConfig struct {
	// Backend is memory, sqlite or postgres.
	Backend StoreBackend `yaml:"backend"`

	// SQLitePath is the database file. Defaults to netnotes.db in the config dir.
	// Supports ~ for home directory expansion.
	SQLitePath string `yaml:"sqlite_path,omitempty"`

	// PostgresDSN is a full connection string. When empty the NETNOTES_DB_*
	// variables and the stored password are used.
	PostgresDSN string `yaml:"postgres_dsn,omitempty"`
}

// RedisConfig points at the Redis server holding the once-per-day state.
// Without an address that state is kept in process.
type RedisConfig struct {
	Addr string `yaml:"addr,omitempty"`
	DB   int    `yaml:"db,omitempty"`
}

// LocationConfig configures the device location lookup.
type LocationConfig struct {
	// Timeout bounds each position or geocode lookup.
	Timeout time.Duration `yaml:"-"`

	// Lat and Lng, when both set, are reported as the device position.
	Lat *float64 `yaml:"lat,omitempty"`
	Lng *float64 `yaml:"lng,omitempty"`

	// Label names the static position, e.g. "Ace Hotel".
	Label string `yaml:"label,omitempty"`
}

// HasFix reports whether a static position is configured.
func (l LocationConfig) HasFix() bool {
	return l.Lat != nil && l.Lng != nil
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `yaml:"level,omitempty"`
	// File, when set, also writes JSON lines to a rotating file.
	File string `yaml:"file,omitempty"`
	JSON bool   `yaml:"json,omitempty"`
}

// CLIConfig holds the CLI configuration settings.
type CLIConfig struct {
	Store    StoreConfig    `yaml:"store"`
	Redis    RedisConfig    `yaml:"redis,omitempty"`
	Location LocationConfig `yaml:"location"`
	Log      LogConfig      `yaml:"log,omitempty"`

	// OutputFormat specifies the default output format for commands.
	OutputFormat OutputFormat `yaml:"output_format"`

	// FollowUpDays is the follow-up delay when a line asks for one without a date.
	FollowUpDays int `yaml:"follow_up_days"`

	// Debug enables verbose debug logging.
	Debug bool `yaml:"debug,omitempty"`
}

// DefaultConfig returns a CLIConfig with default values.
func DefaultConfig() *CLIConfig {
	return &CLIConfig{
		Store:        StoreConfig{Backend: DefaultStoreBackend},
		Location:     LocationConfig{Timeout: DefaultLocationTimeout},
		Log:          LogConfig{Level: DefaultLogLevel},
		OutputFormat: DefaultOutputFormat,
		FollowUpDays: DefaultFollowUpDays,
	}
}

// ConfigDir returns the configuration directory path.
// Uses $NETNOTES_CONFIG_DIR if set, otherwise ~/.netnotes
func ConfigDir() (string, error) {
	if dir := os.Getenv("NETNOTES_CONFIG_DIR"); dir != "" {
		return dir, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}

	return filepath.Join(home, DefaultConfigDir), nil
}

// ConfigPath returns the full path to the configuration file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, DefaultConfigFile), nil
}

// LoadConfig loads the CLI configuration from file and environment variables.
// Configuration is loaded in this order (later sources override earlier):
// 1. Default values
// 2. Config file (~/.netnotes/config.yaml or $NETNOTES_CONFIG_DIR/config.yaml)
// 3. Environment variables (NETNOTES_*)
func LoadConfig() (*CLIConfig, error) {
	cfg := DefaultConfig()

	configPath, err := ConfigPath()
	if err != nil {
		return nil, fmt.Errorf("getting config path: %w", err)
	}

	if _, err := os.Stat(configPath); err == nil {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}

	if err := loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// configFile is the on-disk shape. Durations are kept as strings.
type configFile struct {
	Store    StoreConfig  `yaml:"store"`
	Redis    RedisConfig  `yaml:"redis,omitempty"`
	Location locationFile `yaml:"location"`
	Log      LogConfig    `yaml:"log,omitempty"`

	OutputFormat OutputFormat `yaml:"output_format"`
	FollowUpDays int          `yaml:"follow_up_days,omitempty"`
	Debug        bool         `yaml:"debug,omitempty"`
}

type locationFile struct {
	Timeout string   `yaml:"timeout,omitempty"`
	Lat     *float64 `yaml:"lat,omitempty"`
	Lng     *float64 `yaml:"lng,omitempty"`
	Label   string   `yaml:"label,omitempty"`
}

// loadFromFile loads configuration from a YAML file.
func loadFromFile(cfg *CLIConfig, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	var fileCfg configFile
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	if fileCfg.Store.Backend != "" {
		cfg.Store.Backend = fileCfg.Store.Backend
	}
	if fileCfg.Store.SQLitePath != "" {
		cfg.Store.SQLitePath = fileCfg.Store.SQLitePath
	}
	if fileCfg.Store.PostgresDSN != "" {
		cfg.Store.PostgresDSN = fileCfg.Store.PostgresDSN
	}
	cfg.Redis = fileCfg.Redis

	if fileCfg.Location.Timeout != "" {
		timeout, err := time.ParseDuration(fileCfg.Location.Timeout)
		if err != nil {
			return fmt.Errorf("parsing location timeout: %w", err)
		}
		cfg.Location.Timeout = timeout
	}
	cfg.Location.Lat = fileCfg.Location.Lat
	cfg.Location.Lng = fileCfg.Location.Lng
	cfg.Location.Label = fileCfg.Location.Label

	if fileCfg.Log.Level != "" {
		cfg.Log.Level = fileCfg.Log.Level
	}
	cfg.Log.File = fileCfg.Log.File
	cfg.Log.JSON = fileCfg.Log.JSON

	if fileCfg.OutputFormat != "" {
		cfg.OutputFormat = fileCfg.OutputFormat
	}
	if fileCfg.FollowUpDays != 0 {
		cfg.FollowUpDays = fileCfg.FollowUpDays
	}
	cfg.Debug = fileCfg.Debug

	return nil
}

// loadFromEnv overlays environment variables onto the configuration.
func loadFromEnv(cfg *CLIConfig) error {
	if v := os.Getenv("NETNOTES_STORE"); v != "" {
		cfg.Store.Backend = StoreBackend(v)
	}
	if v := os.Getenv("NETNOTES_SQLITE_PATH"); v != "" {
		cfg.Store.SQLitePath = v
	}
	if v := os.Getenv("NETNOTES_PG_DSN"); v != "" {
		cfg.Store.PostgresDSN = v
	}

	if v := os.Getenv("NETNOTES_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("NETNOTES_REDIS_DB"); v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("NETNOTES_REDIS_DB: %w", err)
		}
		cfg.Redis.DB = db
	}

	if v := os.Getenv("NETNOTES_LOCATION_TIMEOUT"); v != "" {
		if timeout, err := time.ParseDuration(v); err == nil {
			cfg.Location.Timeout = timeout
		}
	}
	lat, lng := os.Getenv("NETNOTES_LOCATION_LAT"), os.Getenv("NETNOTES_LOCATION_LNG")
	if lat != "" || lng != "" {
		la, err := strconv.ParseFloat(lat, 64)
		if err != nil {
			return fmt.Errorf("NETNOTES_LOCATION_LAT: %w", err)
		}
		ln, err := strconv.ParseFloat(lng, 64)
		if err != nil {
			return fmt.Errorf("NETNOTES_LOCATION_LNG: %w", err)
		}
		cfg.Location.Lat, cfg.Location.Lng = &la, &ln
	}
	if v := os.Getenv("NETNOTES_LOCATION_LABEL"); v != "" {
		cfg.Location.Label = v
	}

	if v := os.Getenv("NETNOTES_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("NETNOTES_LOG_FILE"); v != "" {
		cfg.Log.File = v
	}
	if v := os.Getenv("NETNOTES_LOG_JSON"); v == "true" || v == "1" {
		cfg.Log.JSON = true
	}

	if v := os.Getenv("NETNOTES_OUTPUT_FORMAT"); v != "" {
		cfg.OutputFormat = OutputFormat(v)
	}
	if v := os.Getenv("NETNOTES_FOLLOW_UP_DAYS"); v != "" {
		if days, err := strconv.Atoi(v); err == nil {
			cfg.FollowUpDays = days
		}
	}
	if v := os.Getenv("NETNOTES_DEBUG"); v == "true" || v == "1" {
		cfg.Debug = true
	}
	return nil
}

// Validate checks that the configuration is valid.
func (c *CLIConfig) Validate() error {
	if !c.Store.Backend.IsValid() {
		return fmt.Errorf("invalid store.backend: %q (must be memory, sqlite, or postgres)", c.Store.Backend)
	}

	if c.Location.Timeout <= 0 {
		return fmt.Errorf("location.timeout must be positive")
	}

	if (c.Location.Lat == nil) != (c.Location.Lng == nil) {
		return fmt.Errorf("location.lat and location.lng must be set together")
	}

	if c.FollowUpDays <= 0 {
		return fmt.Errorf("follow_up_days must be positive")
	}

	if !c.OutputFormat.IsValid() {
		return fmt.Errorf("invalid output_format: %q (must be text, json, or yaml)", c.OutputFormat)
	}

	return nil
}

// IsValid checks if the output format is valid.
func (f OutputFormat) IsValid() bool {
	switch f {
	case OutputFormatText, OutputFormatJSON, OutputFormatYAML:
		return true
	default:
		return false
	}
}

// String returns the string representation of the output format.
func (f OutputFormat) String() string {
	return string(f)
}

// IsValid checks if the backend is known.
func (b StoreBackend) IsValid() bool {
	switch b {
	case StoreMemory, StoreSQLite, StorePostgres:
		return true
	default:
		return false
	}
}

// SQLitePath returns the expanded database path, defaulting to the config dir.
func (c *CLIConfig) SQLitePath() (string, error) {
	if c.Store.SQLitePath != "" {
		return ExpandPath(c.Store.SQLitePath)
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, DefaultDatabaseFile), nil
}

// FollowUpAfter is FollowUpDays as a duration.
func (c *CLIConfig) FollowUpAfter() time.Duration {
	return time.Duration(c.FollowUpDays) * 24 * time.Hour
}

// SaveConfig saves the configuration to the config file.
func SaveConfig(cfg *CLIConfig) error {
	configDir, err := ConfigDir()
	if err != nil {
		return fmt.Errorf("getting config directory: %w", err)
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	fileCfg := configFile{
		Store: cfg.Store,
		Redis: cfg.Redis,
		Location: locationFile{
			Timeout: cfg.Location.Timeout.String(),
			Lat:     cfg.Location.Lat,
			Lng:     cfg.Location.Lng,
			Label:   cfg.Location.Label,
		},
		Log:          cfg.Log,
		OutputFormat: cfg.OutputFormat,
		FollowUpDays: cfg.FollowUpDays,
		Debug:        cfg.Debug,
	}

	data, err := yaml.Marshal(&fileCfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	configPath := filepath.Join(configDir, DefaultConfigFile)
	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// EnsureConfigDir creates the configuration directory if it doesn't exist.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		return filepath.Join(home, path[1:]), nil
	}
	return path, nil
}
