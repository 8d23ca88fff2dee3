package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var envVars = []string{
	"NETNOTES_STORE", "NETNOTES_SQLITE_PATH", "NETNOTES_PG_DSN",
	"NETNOTES_REDIS_ADDR", "NETNOTES_REDIS_DB",
	"NETNOTES_LOCATION_TIMEOUT", "NETNOTES_LOCATION_LAT", "NETNOTES_LOCATION_LNG", "NETNOTES_LOCATION_LABEL",
	"NETNOTES_LOG_LEVEL", "NETNOTES_LOG_FILE", "NETNOTES_LOG_JSON",
	"NETNOTES_OUTPUT_FORMAT", "NETNOTES_FOLLOW_UP_DAYS", "NETNOTES_DEBUG",
}

// isolate points the config dir at a temp dir and blanks every override.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("NETNOTES_CONFIG_DIR", dir)
	for _, v := range envVars {
		t.Setenv(v, "")
	}
	return dir
}

// TestDefaultConfig verifies default configuration values.
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Store.Backend != StoreSQLite {
		t.Errorf("Store.Backend = %v, want sqlite", cfg.Store.Backend)
	}
	if cfg.Location.Timeout != 3*time.Second {
		t.Errorf("Location.Timeout = %v, want 3s", cfg.Location.Timeout)
	}
	if cfg.Location.HasFix() {
		t.Error("no static fix expected by default")
	}
	if cfg.OutputFormat != OutputFormatText {
		t.Errorf("OutputFormat = %v, want text", cfg.OutputFormat)
	}
	if cfg.FollowUpDays != 7 {
		t.Errorf("FollowUpDays = %v, want 7", cfg.FollowUpDays)
	}
	if cfg.FollowUpAfter() != 7*24*time.Hour {
		t.Errorf("FollowUpAfter = %v, want 168h", cfg.FollowUpAfter())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

// TestOutputFormat_IsValid verifies output format validation.
func TestOutputFormat_IsValid(t *testing.T) {
	tests := []struct {
		format OutputFormat
		valid  bool
	}{
		{OutputFormatText, true},
		{OutputFormatJSON, true},
		{OutputFormatYAML, true},
		{"invalid", false},
		{"", false},
		{"JSON", false}, // Case sensitive
	}

	for _, tc := range tests {
		if got := tc.format.IsValid(); got != tc.valid {
			t.Errorf("OutputFormat(%q).IsValid() = %v, want %v", tc.format, got, tc.valid)
		}
	}
}

func TestCLIConfig_Validate(t *testing.T) {
	lat := 40.7
	tests := []struct {
		name    string
		modify  func(*CLIConfig)
		wantErr string
	}{
		{"valid", func(*CLIConfig) {}, ""},
		{"unknown backend", func(c *CLIConfig) { c.Store.Backend = "mongo" }, "store.backend"},
		{"zero timeout", func(c *CLIConfig) { c.Location.Timeout = 0 }, "location.timeout"},
		{"lat without lng", func(c *CLIConfig) { c.Location.Lat = &lat }, "set together"},
		{"zero follow-up days", func(c *CLIConfig) { c.FollowUpDays = 0 }, "follow_up_days"},
		{"bad output", func(c *CLIConfig) { c.OutputFormat = "xml" }, "output_format"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.modify(cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tc.wantErr)
			}
		})
	}
}

func TestConfigDir(t *testing.T) {
	t.Setenv("NETNOTES_CONFIG_DIR", "/custom/dir")
	dir, err := ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir() error = %v", err)
	}
	if dir != "/custom/dir" {
		t.Errorf("ConfigDir() = %v, want /custom/dir", dir)
	}

	t.Setenv("NETNOTES_CONFIG_DIR", "")
	dir, err = ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir() error = %v", err)
	}
	if filepath.Base(dir) != DefaultConfigDir {
		t.Errorf("ConfigDir() = %v, want suffix %v", dir, DefaultConfigDir)
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	dir := isolate(t)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Store.Backend != StoreSQLite {
		t.Errorf("Store.Backend = %v, want sqlite", cfg.Store.Backend)
	}

	path, err := cfg.SQLitePath()
	if err != nil {
		t.Fatalf("SQLitePath() error = %v", err)
	}
	if path != filepath.Join(dir, DefaultDatabaseFile) {
		t.Errorf("SQLitePath() = %v, want file in config dir", path)
	}
}

func TestLoadConfig_FromFile(t *testing.T) {
	dir := isolate(t)

	configContent := `store:
  backend: postgres
  postgres_dsn: postgres://me@localhost/notes
redis:
  addr: localhost:6379
  db: 2
location:
  timeout: 1500ms
  lat: 34.05
  lng: -118.24
  label: Polo Lounge
log:
  level: debug
  file: /tmp/netnotes.log
output_format: yaml
follow_up_days: 3
`
	if err := os.WriteFile(filepath.Join(dir, DefaultConfigFile), []byte(configContent), 0600); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Store.Backend != StorePostgres {
		t.Errorf("Store.Backend = %v, want postgres", cfg.Store.Backend)
	}
	if cfg.Store.PostgresDSN != "postgres://me@localhost/notes" {
		t.Errorf("Store.PostgresDSN = %v", cfg.Store.PostgresDSN)
	}
	if cfg.Redis.Addr != "localhost:6379" || cfg.Redis.DB != 2 {
		t.Errorf("Redis = %+v", cfg.Redis)
	}
	if cfg.Location.Timeout != 1500*time.Millisecond {
		t.Errorf("Location.Timeout = %v, want 1.5s", cfg.Location.Timeout)
	}
	if !cfg.Location.HasFix() || *cfg.Location.Lat != 34.05 || cfg.Location.Label != "Polo Lounge" {
		t.Errorf("Location = %+v", cfg.Location)
	}
	if cfg.Log.Level != "debug" || cfg.Log.File != "/tmp/netnotes.log" {
		t.Errorf("Log = %+v", cfg.Log)
	}
	if cfg.OutputFormat != OutputFormatYAML {
		t.Errorf("OutputFormat = %v, want yaml", cfg.OutputFormat)
	}
	if cfg.FollowUpDays != 3 {
		t.Errorf("FollowUpDays = %v, want 3", cfg.FollowUpDays)
	}
}

func TestLoadConfig_InvalidTimeout(t *testing.T) {
	dir := isolate(t)

	if err := os.WriteFile(filepath.Join(dir, DefaultConfigFile), []byte("location:\n  timeout: soon\n"), 0600); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	if _, err := LoadConfig(); err == nil {
		t.Error("LoadConfig() should fail on an unparseable timeout")
	}
}

func TestLoadConfig_WithEnvOverrides(t *testing.T) {
	dir := isolate(t)
	if err := os.WriteFile(filepath.Join(dir, DefaultConfigFile), []byte("output_format: yaml\n"), 0600); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	t.Setenv("NETNOTES_STORE", "memory")
	t.Setenv("NETNOTES_OUTPUT_FORMAT", "json")
	t.Setenv("NETNOTES_LOCATION_LAT", "48.85")
	t.Setenv("NETNOTES_LOCATION_LNG", "2.35")
	t.Setenv("NETNOTES_LOCATION_TIMEOUT", "5s")
	t.Setenv("NETNOTES_FOLLOW_UP_DAYS", "14")
	t.Setenv("NETNOTES_DEBUG", "1")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Store.Backend != StoreMemory {
		t.Errorf("Store.Backend = %v, want memory", cfg.Store.Backend)
	}
	if cfg.OutputFormat != OutputFormatJSON {
		t.Errorf("OutputFormat = %v, want json (env beats file)", cfg.OutputFormat)
	}
	if !cfg.Location.HasFix() || *cfg.Location.Lng != 2.35 {
		t.Errorf("Location = %+v", cfg.Location)
	}
	if cfg.Location.Timeout != 5*time.Second {
		t.Errorf("Location.Timeout = %v, want 5s", cfg.Location.Timeout)
	}
	if cfg.FollowUpDays != 14 {
		t.Errorf("FollowUpDays = %v, want 14", cfg.FollowUpDays)
	}
	if !cfg.Debug {
		t.Error("Debug should be true")
	}
}

func TestLoadFromEnv_BadCoordinates(t *testing.T) {
	isolate(t)
	t.Setenv("NETNOTES_LOCATION_LAT", "north")

	if _, err := LoadConfig(); err == nil {
		t.Error("LoadConfig() should fail on a bad latitude")
	}
}

func TestSaveConfig(t *testing.T) {
	dir := filepath.Join(isolate(t), "nested")
	t.Setenv("NETNOTES_CONFIG_DIR", dir)

	lat, lng := 51.5, -0.12
	cfg := DefaultConfig()
	cfg.Store.Backend = StoreMemory
	cfg.Location = LocationConfig{Timeout: 2 * time.Second, Lat: &lat, Lng: &lng, Label: "Soho House"}
	cfg.OutputFormat = OutputFormatJSON

	if err := SaveConfig(cfg); err != nil {
		t.Fatalf("SaveConfig() error = %v", err)
	}

	info, err := os.Stat(filepath.Join(dir, DefaultConfigFile))
	if err != nil {
		t.Fatalf("config file not written: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("config file mode = %v, want 0600", info.Mode().Perm())
	}

	loaded, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if loaded.Store.Backend != StoreMemory {
		t.Errorf("Store.Backend = %v, want memory", loaded.Store.Backend)
	}
	if loaded.Location.Timeout != 2*time.Second || loaded.Location.Label != "Soho House" {
		t.Errorf("Location = %+v", loaded.Location)
	}
	if loaded.OutputFormat != OutputFormatJSON {
		t.Errorf("OutputFormat = %v, want json", loaded.OutputFormat)
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"/abs/path.db", "/abs/path.db"},
		{"~/notes.db", filepath.Join(home, "notes.db")},
		{"~", home},
		{"~other/x", "~other/x"},
	}
	for _, tc := range tests {
		got, err := ExpandPath(tc.in)
		if err != nil {
			t.Errorf("ExpandPath(%q) error = %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ExpandPath(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestEnsureConfigDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	t.Setenv("NETNOTES_CONFIG_DIR", dir)

	if err := EnsureConfigDir(); err != nil {
		t.Fatalf("EnsureConfigDir() error = %v", err)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Errorf("config dir not created: %v", err)
	}
}
