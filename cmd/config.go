package cmd

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/netnotes-cli/config"
)

// ConfigOutput is the effective configuration as shown by config show.
type ConfigOutput struct {
	Path          string   `json:"path" yaml:"path"`
	StoreBackend  string   `json:"store_backend" yaml:"store_backend"`
	SQLitePath    string   `json:"sqlite_path,omitempty" yaml:"sqlite_path,omitempty"`
	PostgresDSN   bool     `json:"postgres_dsn_set" yaml:"postgres_dsn_set"`
	RedisAddr     string   `json:"redis_addr,omitempty" yaml:"redis_addr,omitempty"`
	RedisDB       int      `json:"redis_db" yaml:"redis_db"`
	LocationLabel string   `json:"location_label,omitempty" yaml:"location_label,omitempty"`
	Lat           *float64 `json:"lat,omitempty" yaml:"lat,omitempty"`
	Lng           *float64 `json:"lng,omitempty" yaml:"lng,omitempty"`
	LocationWait  string   `json:"location_timeout" yaml:"location_timeout"`
	LogLevel      string   `json:"log_level" yaml:"log_level"`
	LogFile       string   `json:"log_file,omitempty" yaml:"log_file,omitempty"`
	OutputFormat  string   `json:"output_format" yaml:"output_format"`
	FollowUpDays  int      `json:"follow_up_days" yaml:"follow_up_days"`
	Debug         bool     `json:"debug" yaml:"debug"`
}

// configKeys are the keys accepted by config set.
var configKeys = []string{
	"store.backend", "store.sqlite_path", "store.postgres_dsn",
	"redis.addr", "redis.db",
	"location.coords", "location.label", "location.timeout",
	"log.level", "log.file", "log.json",
	"output_format", "follow_up_days", "debug",
}

// NewConfigCommand creates the config command with all subcommands.
func NewConfigCommand(deps *CommandDeps) *cobra.Command {
	deps = orDefault(deps)

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
		Long:  `View and modify the netnotes configuration in ~/.netnotes/config.yaml.`,
	}

	cmd.AddCommand(newConfigShowCommand(deps))
	cmd.AddCommand(newConfigInitCommand())
	cmd.AddCommand(newConfigSetCommand())

	return cmd
}

func newConfigShowCommand(deps *CommandDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow(deps, cmd.OutOrStdout())
		},
	}
}

func runConfigShow(deps *CommandDeps, out io.Writer) error {
	cfg, err := deps.cliConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	path, _ := config.ConfigPath()
	sqlitePath, _ := cfg.SQLitePath()

	view := ConfigOutput{
		Path:          path,
		StoreBackend:  string(cfg.Store.Backend),
		PostgresDSN:   cfg.Store.PostgresDSN != "",
		RedisAddr:     cfg.Redis.Addr,
		RedisDB:       cfg.Redis.DB,
		LocationLabel: cfg.Location.Label,
		Lat:           cfg.Location.Lat,
		Lng:           cfg.Location.Lng,
		LocationWait:  cfg.Location.Timeout.String(),
		LogLevel:      cfg.Log.Level,
		LogFile:       cfg.Log.File,
		OutputFormat:  cfg.OutputFormat.String(),
		FollowUpDays:  cfg.FollowUpDays,
		Debug:         cfg.Debug,
	}
	if cfg.Store.Backend == config.StoreSQLite {
		view.SQLitePath = sqlitePath
	}

	if ok, err := writeStructured(out, outputFormat(cfg), view); ok {
		return err
	}

	fmt.Fprintln(out, "Current configuration:")
	fmt.Fprintf(out, "  Config file:    %s\n", view.Path)
	fmt.Fprintf(out, "  Store:          %s\n", view.StoreBackend)
	switch cfg.Store.Backend {
	case config.StoreSQLite:
		fmt.Fprintf(out, "  SQLite path:    %s\n", view.SQLitePath)
	case config.StorePostgres:
		dsn := "(from NETNOTES_DB_* and keyring)"
		if view.PostgresDSN {
			dsn = "(set)"
		}
		fmt.Fprintf(out, "  Postgres DSN:   %s\n", dsn)
	}
	fmt.Fprintf(out, "  Redis:          %s\n", valueOrDash(view.RedisAddr))
	if cfg.Location.HasFix() {
		fmt.Fprintf(out, "  Location:       %.5f, %.5f %s\n", *view.Lat, *view.Lng, view.LocationLabel)
	} else {
		fmt.Fprintln(out, "  Location:       -")
	}
	fmt.Fprintf(out, "  Location wait:  %s\n", view.LocationWait)
	fmt.Fprintf(out, "  Log level:      %s\n", view.LogLevel)
	fmt.Fprintf(out, "  Log file:       %s\n", valueOrDash(view.LogFile))
	fmt.Fprintf(out, "  Output format:  %s\n", view.OutputFormat)
	fmt.Fprintf(out, "  Follow-up days: %d\n", view.FollowUpDays)
	fmt.Fprintf(out, "  Debug:          %t\n", view.Debug)
	return nil
}

func newConfigInitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration file",
		Long:  `Create a new configuration file with default values if one doesn't exist.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigInit(cmd.OutOrStdout())
		},
	}
}

func runConfigInit(out io.Writer) error {
	configPath, err := config.ConfigPath()
	if err != nil {
		return fmt.Errorf("getting config path: %w", err)
	}
	if _, err := os.Stat(configPath); err == nil {
		fmt.Fprintf(out, "Configuration file already exists: %s\n", configPath)
		fmt.Fprintln(out, "Use 'netnotes config show' to view current settings.")
		return nil
	}

	defaultCfg := config.DefaultConfig()
	if err := config.SaveConfig(defaultCfg); err != nil {
		return fmt.Errorf("saving configuration: %w", err)
	}
	fmt.Fprintf(out, "Created configuration file: %s\n", configPath)
	fmt.Fprintf(out, "  Store:          %s\n", defaultCfg.Store.Backend)
	fmt.Fprintf(out, "  Output format:  %s\n", defaultCfg.OutputFormat)
	fmt.Fprintf(out, "  Follow-up days: %d\n", defaultCfg.FollowUpDays)
	return nil
}

func newConfigSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long: `Set a configuration value in the config file.

Available keys:
  store.backend       memory, sqlite or postgres
  store.sqlite_path   SQLite database file (supports ~)
  store.postgres_dsn  PostgreSQL connection string
  redis.addr          Redis host:port for the once-per-day state
  redis.db            Redis database number
  location.coords     Static position as "lat,lng"
  location.label      Name of the static position
  location.timeout    Location lookup timeout (e.g. 3s)
  log.level           debug, info, warn or error
  log.file            Rotating log file (supports ~)
  log.json            JSON log lines on stderr (true/false)
  output_format       Default output format (text, json, yaml)
  follow_up_days      Default follow-up delay in days
  debug               Enable debug mode (true/false)

Use an empty value to unset an optional key.

Examples:
  netnotes config set store.backend postgres
  netnotes config set redis.addr localhost:6379
  netnotes config set location.coords 34.0736,-118.4004
  netnotes config set output_format json`,
		Args: cobra.ExactArgs(2),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			if len(args) == 0 {
				return configKeys, cobra.ShellCompDirectiveNoFileComp
			}
			return nil, cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigSet(cmd.OutOrStdout(), args[0], args[1])
		},
	}
}

func runConfigSet(out io.Writer, key, value string) error {
	current, err := config.LoadConfig()
	if err != nil {
		current = config.DefaultConfig()
	}
	if err := applyConfigValue(current, key, value); err != nil {
		return err
	}
	if err := current.Validate(); err != nil {
		return err
	}
	if err := config.SaveConfig(current); err != nil {
		return fmt.Errorf("saving configuration: %w", err)
	}
	fmt.Fprintf(out, "Set %s = %s\n", key, value)
	return nil
}

// applyConfigValue sets one key on cfg.
func applyConfigValue(cfg *config.CLIConfig, key, value string) error {
	switch key {
	case "store.backend":
		b := config.StoreBackend(value)
		if !b.IsValid() {
			return fmt.Errorf("invalid store backend: %s (must be memory, sqlite, or postgres)", value)
		}
		cfg.Store.Backend = b
	case "store.sqlite_path":
		if _, err := config.ExpandPath(value); err != nil {
			return fmt.Errorf("invalid sqlite path: %w", err)
		}
		cfg.Store.SQLitePath = value
	case "store.postgres_dsn":
		cfg.Store.PostgresDSN = value
	case "redis.addr":
		cfg.Redis.Addr = value
	case "redis.db":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("invalid redis db: %s", value)
		}
		cfg.Redis.DB = n
	case "location.coords":
		if value == "" {
			cfg.Location.Lat, cfg.Location.Lng = nil, nil
			return nil
		}
		lat, lng, err := parseCoords(value)
		if err != nil {
			return err
		}
		cfg.Location.Lat, cfg.Location.Lng = &lat, &lng
	case "location.label":
		cfg.Location.Label = value
	case "location.timeout":
		d, err := time.ParseDuration(value)
		if err != nil || d <= 0 {
			return fmt.Errorf("invalid location timeout: %s", value)
		}
		cfg.Location.Timeout = d
	case "log.level":
		switch value {
		case "debug", "info", "warn", "error":
			cfg.Log.Level = value
		default:
			return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", value)
		}
	case "log.file":
		cfg.Log.File = value
	case "log.json":
		b, err := parseBool(value)
		if err != nil {
			return fmt.Errorf("invalid log.json value: %w", err)
		}
		cfg.Log.JSON = b
	case "output_format":
		format := config.OutputFormat(value)
		if !format.IsValid() {
			return fmt.Errorf("invalid output format: %s (must be text, json, or yaml)", value)
		}
		cfg.OutputFormat = format
	case "follow_up_days":
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid follow_up_days: %s (must be a positive number)", value)
		}
		cfg.FollowUpDays = n
	case "debug":
		b, err := parseBool(value)
		if err != nil {
			return fmt.Errorf("invalid debug value: %w", err)
		}
		cfg.Debug = b
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return nil
}

func parseBool(value string) (bool, error) {
	switch value {
	case "true", "1":
		return true, nil
	case "false", "0":
		return false, nil
	}
	return false, fmt.Errorf("%s (must be true or false)", value)
}

// parseCoords reads "lat,lng".
func parseCoords(value string) (float64, float64, error) {
	latText, lngText, ok := strings.Cut(value, ",")
	if !ok {
		return 0, 0, fmt.Errorf("invalid location.coords: %s (want lat,lng)", value)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latText), 64)
	if err != nil || lat < -90 || lat > 90 {
		return 0, 0, fmt.Errorf("invalid latitude: %s", latText)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(lngText), 64)
	if err != nil || lng < -180 || lng > 180 {
		return 0, 0, fmt.Errorf("invalid longitude: %s", lngText)
	}
	return lat, lng, nil
}
