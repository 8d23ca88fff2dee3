// Package cmd provides the CLI commands for the netnotes tool.
package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/otherjamesbrown/netnotes-cli/config"
	"github.com/otherjamesbrown/netnotes-cli/credentials"
	"github.com/otherjamesbrown/netnotes-cli/pkg/capture"
	"github.com/otherjamesbrown/netnotes-cli/pkg/clock"
	"github.com/otherjamesbrown/netnotes-cli/pkg/daily"
	"github.com/otherjamesbrown/netnotes-cli/pkg/db"
	"github.com/otherjamesbrown/netnotes-cli/pkg/lineparse"
	"github.com/otherjamesbrown/netnotes-cli/pkg/location"
	"github.com/otherjamesbrown/netnotes-cli/pkg/logging"
	"github.com/otherjamesbrown/netnotes-cli/pkg/observability"
	"github.com/otherjamesbrown/netnotes-cli/pkg/people"
	"github.com/otherjamesbrown/netnotes-cli/pkg/relevance"
	"github.com/otherjamesbrown/netnotes-cli/pkg/store/memory"
	"github.com/otherjamesbrown/netnotes-cli/pkg/store/postgres"
	"github.com/otherjamesbrown/netnotes-cli/pkg/store/sqlite"
)

// RedisPasswordEnv holds the optional Redis password.
const RedisPasswordEnv = "NETNOTES_REDIS_PASSWORD"

// CommandDeps holds the dependencies shared by the netnotes commands.
// Fields left nil fall back to production defaults.
type CommandDeps struct {
	Config     *config.CLIConfig
	LoadConfig func() (*config.CLIConfig, error)
	OpenStore  func(context.Context, *config.CLIConfig) (people.Store, error)
	OpenDaily  func(context.Context, *config.CLIConfig) (daily.Store, error)
	ConnectDB  func(context.Context, *config.CLIConfig) (*pgxpool.Pool, error)
	Clock      clock.Clock
	Logger     logging.Logger
	Metrics    *observability.CaptureMetrics
	Gatherer   prometheus.Gatherer
	Tracer     *observability.Tracer

	// Provider overrides the configured device position.
	Provider location.Provider

	// Interactive reports whether prompts can be shown on the terminal.
	Interactive func() bool
}

// DefaultDeps returns the default dependencies for production use.
func DefaultDeps() *CommandDeps {
	return &CommandDeps{
		LoadConfig:  config.LoadConfig,
		OpenStore:   openStore,
		OpenDaily:   openDaily,
		ConnectDB:   connectToDatabase,
		Clock:       clock.System{},
		Metrics:     observability.DefaultCaptureMetrics(),
		Gatherer:    prometheus.DefaultGatherer,
		Tracer:      observability.NewTracer(),
		Interactive: stdinIsTerminal,
	}
}

// WriteMetrics writes everything gathered so far to path in the Prometheus
// text format. An empty path does nothing.
func (d *CommandDeps) WriteMetrics(path string) error {
	if path == "" {
		return nil
	}
	path, err := config.ExpandPath(path)
	if err != nil {
		return fmt.Errorf("metrics file: %w", err)
	}
	g := d.Gatherer
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("writing metrics: %w", err)
	}
	return nil
}

func orDefault(deps *CommandDeps) *CommandDeps {
	if deps == nil {
		return DefaultDeps()
	}
	return deps
}

// cliConfig returns the loaded configuration, loading it on first use.
func (d *CommandDeps) cliConfig() (*config.CLIConfig, error) {
	if d.Config != nil {
		return d.Config, nil
	}
	load := d.LoadConfig
	if load == nil {
		load = config.LoadConfig
	}
	cfg, err := load()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	d.Config = cfg
	return cfg, nil
}

func (d *CommandDeps) clk() clock.Clock {
	if d.Clock == nil {
		return clock.System{}
	}
	return d.Clock
}

func (d *CommandDeps) logger() logging.Logger {
	if d.Logger == nil {
		return logging.MustGlobal()
	}
	return d.Logger
}

func (d *CommandDeps) store(ctx context.Context) (people.Store, *config.CLIConfig, error) {
	cfg, err := d.cliConfig()
	if err != nil {
		return nil, nil, err
	}
	open := d.OpenStore
	if open == nil {
		open = openStore
	}
	s, err := open(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s store: %w", cfg.Store.Backend, err)
	}
	return s, cfg, nil
}

func (d *CommandDeps) gate(ctx context.Context, cfg *config.CLIConfig) (*daily.Gate, error) {
	open := d.OpenDaily
	if open == nil {
		open = openDaily
	}
	st, err := open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("opening daily state: %w", err)
	}
	return daily.NewGate(st,
		daily.WithClock(d.clk()),
		daily.WithLogger(d.logger()),
	), nil
}

func (d *CommandDeps) locationResolver(cfg *config.CLIConfig) *location.Resolver {
	provider := d.Provider
	if provider == nil && cfg.Location.HasFix() {
		provider = location.Static{
			Coords: &people.Coordinates{Lat: *cfg.Location.Lat, Lng: *cfg.Location.Lng},
			Place:  location.Place{Name: cfg.Location.Label},
		}
	}
	return location.NewResolver(provider,
		location.WithTimeout(cfg.Location.Timeout),
		location.WithGeocoder(location.Gazetteer{}),
		location.WithLogger(d.logger()),
		location.WithMetrics(d.Metrics),
	)
}

func (d *CommandDeps) scorer() *relevance.Scorer {
	return relevance.NewScorer(d.clk())
}

func (d *CommandDeps) parser(cfg *config.CLIConfig) *lineparse.Parser {
	return lineparse.New(
		lineparse.WithClock(d.clk()),
		lineparse.WithFollowUpAfter(cfg.FollowUpAfter()),
	)
}

func (d *CommandDeps) resolver(s people.PersonStore) *people.Resolver {
	return people.NewResolver(s,
		people.WithClock(d.clk()),
		people.WithResolverLogger(d.logger()),
		people.WithTracer(d.Tracer),
		people.WithMetrics(d.Metrics),
	)
}

func (d *CommandDeps) capturer(s people.Store, cfg *config.CLIConfig) *capture.Capturer {
	return capture.New(d.resolver(s), s,
		capture.WithParser(d.parser(cfg)),
		capture.WithLocation(d.locationResolver(cfg)),
		capture.WithClock(d.clk()),
		capture.WithLogger(d.logger()),
		capture.WithTracer(d.Tracer),
		capture.WithMetrics(d.Metrics),
	)
}

func (d *CommandDeps) interactive() bool {
	return d.Interactive != nil && d.Interactive()
}

// openStore opens the configured backend.
func openStore(ctx context.Context, cfg *config.CLIConfig) (people.Store, error) {
	switch cfg.Store.Backend {
	case config.StoreMemory:
		return memory.New(), nil
	case config.StorePostgres:
		dbCfg, err := postgresConfig(cfg)
		if err != nil {
			return nil, err
		}
		return postgres.Open(ctx, dbCfg)
	default:
		path, err := cfg.SQLitePath()
		if err != nil {
			return nil, fmt.Errorf("resolving sqlite path: %w", err)
		}
		return sqlite.Open(ctx, path)
	}
}

// postgresConfig builds the connection settings from the config file DSN or
// the NETNOTES_DB_* environment plus the stored password.
func postgresConfig(cfg *config.CLIConfig) (*db.Config, error) {
	dbCfg := db.ConfigFromEnv()
	if cfg.Store.PostgresDSN != "" {
		dbCfg.DSN = cfg.Store.PostgresDSN
	}
	if dbCfg.DSN == "" {
		pw, err := credentials.DatabasePassword()
		if err != nil {
			return nil, fmt.Errorf("reading database password: %w", err)
		}
		dbCfg.Password = pw
	}
	if err := dbCfg.Validate(); err != nil {
		return nil, err
	}
	return dbCfg, nil
}

// connectToDatabase opens a pool for the db maintenance commands.
func connectToDatabase(ctx context.Context, cfg *config.CLIConfig) (*pgxpool.Pool, error) {
	dbCfg, err := postgresConfig(cfg)
	if err != nil {
		return nil, err
	}
	return db.ConnectWithRetry(ctx, dbCfg, 3, 2*time.Second)
}

// openDaily uses Redis when an address is configured and process memory
// otherwise.
func openDaily(ctx context.Context, cfg *config.CLIConfig) (daily.Store, error) {
	if cfg.Redis.Addr == "" {
		return daily.NewMemoryStore(), nil
	}
	client, err := daily.Connect(ctx, cfg.Redis.Addr, os.Getenv(RedisPasswordEnv), cfg.Redis.DB)
	if err != nil {
		return nil, err
	}
	return daily.NewRedisStore(client, daily.DefaultTTL), nil
}

// NewLogger builds the process logger from the log settings.
func NewLogger(cfg *config.CLIConfig) logging.Logger {
	lc := logging.DefaultConfig()
	lc.Level = logging.ParseLevel(cfg.Log.Level)
	if cfg.Debug {
		lc.Level = logging.LevelDebug
	}
	lc.JSONFormat = cfg.Log.JSON
	if cfg.Log.File != "" {
		if path, err := config.ExpandPath(cfg.Log.File); err == nil {
			lc.File = &logging.FileConfig{
				Path:       path,
				MaxSizeMB:  10,
				MaxBackups: 3,
				MaxAgeDays: 28,
			}
		}
	}
	return logging.NewLogger(lc)
}
