package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/netnotes-cli/credentials"
	"github.com/otherjamesbrown/netnotes-cli/pkg/db"
	"github.com/otherjamesbrown/netnotes-cli/pkg/logging"
)

// DBHealthOutput is the result of db health.
type DBHealthOutput struct {
	Healthy   bool               `json:"healthy" yaml:"healthy"`
	LatencyMs float64            `json:"latency_ms" yaml:"latency_ms"`
	Error     string             `json:"error,omitempty" yaml:"error,omitempty"`
	Pool      map[string]float64 `json:"pool,omitempty" yaml:"pool,omitempty"`
}

// NewDbCommand creates the root db command with all subcommands.
func NewDbCommand(deps *CommandDeps) *cobra.Command {
	deps = orDefault(deps)

	cmd := &cobra.Command{
		Use:   "db",
		Short: "PostgreSQL store maintenance",
		Long: `Maintenance commands for the PostgreSQL store.

The connection comes from store.postgres_dsn in the config, NETNOTES_PG_DSN,
or the NETNOTES_DB_* variables together with the password saved by
'netnotes db set-password'.

Migrations are built into the binary and tracked in the schema_migrations
table. Opening the postgres store applies them automatically; these
commands let you inspect and apply them by hand.

Examples:
  netnotes db status
  netnotes db migrate --dry-run
  netnotes db health
  netnotes db set-password`,
		Aliases: []string{"database"},
	}

	cmd.AddCommand(newDbMigrateCommand(deps))
	cmd.AddCommand(newDbStatusCommand(deps))
	cmd.AddCommand(newDbHealthCommand(deps))
	cmd.AddCommand(newDbSetPasswordCommand(deps))

	return cmd
}

func newDbMigrateCommand(deps *CommandDeps) *cobra.Command {
	var dryRun, yes bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Long: `Apply pending database migrations.

Each migration runs in its own transaction. If one fails it is rolled back
and no later migration is attempted.`,
		Example: `  netnotes db migrate
  netnotes db migrate --dry-run
  netnotes db migrate --yes`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDbMigrate(cmd.Context(), deps, cmd.OutOrStdout(), dryRun, yes)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would be applied without executing")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Apply without asking")

	return cmd
}

func (d *CommandDeps) pool(ctx context.Context) (*pgxpool.Pool, error) {
	cfg, err := d.cliConfig()
	if err != nil {
		return nil, err
	}
	connect := d.ConnectDB
	if connect == nil {
		connect = connectToDatabase
	}
	pool, err := connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	return pool, nil
}

func runDbMigrate(ctx context.Context, deps *CommandDeps, out io.Writer, dryRun, yes bool) error {
	pool, err := deps.pool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	status, err := db.GetMigrationStatus(ctx, pool, db.Migrations())
	if err != nil {
		return fmt.Errorf("getting migration status: %w", err)
	}
	if len(status.Pending) == 0 {
		fmt.Fprintln(out, "No pending migrations.")
		return nil
	}

	fmt.Fprintf(out, "Pending migrations (%d):\n", len(status.Pending))
	for _, m := range status.Pending {
		fmt.Fprintf(out, "  %s\n", m.Name)
	}
	fmt.Fprintln(out)

	if dryRun {
		fmt.Fprintln(out, "Dry run mode: no migrations applied.")
		return nil
	}
	if !yes && deps.interactive() {
		apply := false
		if err := runForm(ctx, huh.NewConfirm().Title("Apply these migrations?").Value(&apply)); err != nil && !errors.Is(err, huh.ErrUserAborted) {
			return err
		}
		if !apply {
			fmt.Fprintln(out, "Migration cancelled.")
			return nil
		}
	}

	result, err := db.RunMigrations(ctx, pool, db.Migrations())
	if err != nil {
		fmt.Fprintf(out, "%s %v\n", warnColor.Sprint("Migration failed:"), err)
		if result != nil && len(result.Applied) > 0 {
			fmt.Fprintln(out, "\nApplied before failure:")
			for _, v := range result.Applied {
				fmt.Fprintf(out, "  %s %s\n", okColor.Sprint("+"), v)
			}
		}
		return err
	}

	fmt.Fprintf(out, "%s\n", okColor.Sprintf("Applied %d migration(s):", len(result.Applied)))
	for _, v := range result.Applied {
		fmt.Fprintf(out, "  %s %s\n", okColor.Sprint("+"), v)
	}
	return nil
}

func newDbStatusCommand(deps *CommandDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show database migration status",
		Long: `Show applied and pending migrations, and drift: migrations recorded in
the database that this binary does not know about.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDbStatus(cmd.Context(), deps, cmd.OutOrStdout())
		},
	}
}

func runDbStatus(ctx context.Context, deps *CommandDeps, out io.Writer) error {
	pool, err := deps.pool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	status, err := db.GetMigrationStatus(ctx, pool, db.Migrations())
	if err != nil {
		return fmt.Errorf("getting migration status: %w", err)
	}
	if ok, err := writeStructured(out, outputFormat(deps.Config), status); ok {
		return err
	}
	return outputMigrationStatusText(out, status)
}

func outputMigrationStatusText(out io.Writer, status *db.MigrationStatus) error {
	section := func(title string, entries []db.MigrationStatusEntry) {
		if len(entries) == 0 {
			return
		}
		fmt.Fprintf(out, "%s (%d):\n", title, len(entries))
		for _, m := range entries {
			fmt.Fprintf(out, "  %-32s %s\n", truncate(m.Name, 32), formatOptionalTime(m.AppliedAt))
		}
		fmt.Fprintln(out)
	}
	section(okColor.Sprint("Applied"), status.Applied)
	section(warnColor.Sprint("Pending"), status.Pending)
	section(warnColor.Sprint("Drift, applied but unknown"), status.Drift)

	if len(status.Applied) == 0 && len(status.Pending) == 0 && len(status.Drift) == 0 {
		fmt.Fprintln(out, "No migrations found.")
		return nil
	}
	fmt.Fprintf(out, "Summary: %d applied, %d pending, %d drift\n",
		len(status.Applied), len(status.Pending), len(status.Drift))
	return nil
}

func newDbHealthCommand(deps *CommandDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check the database connection and pool",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDbHealth(cmd.Context(), deps, cmd.OutOrStdout())
		},
	}
}

func runDbHealth(ctx context.Context, deps *CommandDeps, out io.Writer) error {
	pool, err := deps.pool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	health := db.Check(ctx, pool)
	result := DBHealthOutput{
		Healthy:   health.Healthy,
		LatencyMs: float64(health.Latency.Microseconds()) / 1000,
	}
	if health.Error != nil {
		result.Error = health.Error.Error()
	}
	stats, err := poolStats(pool)
	if err != nil {
		deps.logger().Debug("Pool stats unavailable", logging.Err(err))
	}
	result.Pool = stats

	if ok, err := writeStructured(out, outputFormat(deps.Config), result); ok {
		return err
	}

	state := okColor.Sprint("HEALTHY")
	if !result.Healthy {
		state = warnColor.Sprint("UNHEALTHY")
	}
	fmt.Fprintf(out, "Database: %s (%.1fms)\n", state, result.LatencyMs)
	if result.Error != "" {
		fmt.Fprintf(out, "  Error: %s\n", result.Error)
	}
	for _, name := range []string{"total_conns", "idle_conns", "acquired_conns", "max_conns"} {
		if v, ok := result.Pool[name]; ok {
			fmt.Fprintf(out, "  %-16s %.0f\n", name+":", v)
		}
	}
	if !result.Healthy {
		return fmt.Errorf("database unhealthy")
	}
	return nil
}

// poolStats reads the pool gauges through the Prometheus collector.
func poolStats(pool *pgxpool.Pool) (map[string]float64, error) {
	reg := prometheus.NewRegistry()
	if _, err := db.RegisterPoolStats(pool, reg); err != nil {
		return nil, err
	}
	families, err := reg.Gather()
	if err != nil {
		return nil, err
	}
	stats := make(map[string]float64)
	for _, mf := range families {
		name := strings.TrimPrefix(mf.GetName(), "netnotes_db_pool_")
		for _, m := range mf.GetMetric() {
			stats[name] = m.GetGauge().GetValue()
		}
	}
	return stats, nil
}

func newDbSetPasswordCommand(deps *CommandDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "set-password",
		Short: "Save the database password in the system keyring",
		Long: `Save the PostgreSQL password in the system keyring.

On a terminal the password is asked for without echo. Otherwise it is read
from the first line of standard input. NETNOTES_DB_PASSWORD, when set, still
takes precedence over the stored value.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDbSetPassword(cmd.Context(), deps, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

func runDbSetPassword(ctx context.Context, deps *CommandDeps, in io.Reader, out io.Writer) error {
	var password string
	if deps.interactive() {
		field := huh.NewInput().
			Title("Database password").
			EchoMode(huh.EchoModePassword).
			Value(&password)
		if err := runForm(ctx, field); err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				return nil
			}
			return err
		}
	} else {
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("reading password: %w", err)
		}
		password = strings.TrimRight(line, "\r\n")
	}

	if err := credentials.SetDatabasePassword(password); err != nil {
		return fmt.Errorf("saving password: %w", err)
	}
	fmt.Fprintf(out, "Password saved to %s\n", credentials.DatabasePasswordProvider().Description())
	if os.Getenv(credentials.DBPasswordEnv) != "" {
		fmt.Fprintf(out, "%s %s is set and takes precedence\n", warnColor.Sprint("Note:"), credentials.DBPasswordEnv)
	}
	return nil
}
