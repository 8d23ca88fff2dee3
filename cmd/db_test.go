package cmd

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otherjamesbrown/netnotes-cli/config"
	"github.com/otherjamesbrown/netnotes-cli/pkg/db"
)

func TestDbCommand(t *testing.T) {
	cmd := NewDbCommand(newTestEnv(t).deps)

	assert.Equal(t, "db", cmd.Use)
	assert.Contains(t, cmd.Aliases, "database")
	assert.NotEmpty(t, cmd.Long)
	for _, name := range []string{"migrate", "status", "health", "set-password"} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, sub.Name())
	}
}

func TestDbMigrateCommand_Flags(t *testing.T) {
	cmd := NewDbCommand(nil)
	migrate, _, err := cmd.Find([]string{"migrate"})
	require.NoError(t, err)

	dryRun := migrate.Flags().Lookup("dry-run")
	require.NotNil(t, dryRun)
	assert.Equal(t, "bool", dryRun.Value.Type())
	assert.Equal(t, "false", dryRun.DefValue)

	yes := migrate.Flags().Lookup("yes")
	require.NotNil(t, yes)
	assert.Equal(t, "y", yes.Shorthand)
}

func TestDbCommands_ConnectError(t *testing.T) {
	env := newTestEnv(t)
	env.deps.ConnectDB = func(context.Context, *config.CLIConfig) (*pgxpool.Pool, error) {
		return nil, errors.New("connection refused")
	}
	ctx := context.Background()

	runs := map[string]func() error{
		"status":  func() error { return runDbStatus(ctx, env.deps, &bytes.Buffer{}) },
		"health":  func() error { return runDbHealth(ctx, env.deps, &bytes.Buffer{}) },
		"migrate": func() error { return runDbMigrate(ctx, env.deps, &bytes.Buffer{}, true, false) },
	}
	for name, run := range runs {
		t.Run(name, func(t *testing.T) {
			err := run()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "connecting to database")
			assert.Contains(t, err.Error(), "connection refused")
		})
	}
}

func TestOutputMigrationStatusText(t *testing.T) {
	applied := time.Date(2026, 4, 1, 10, 0, 0, 0, time.Local)
	status := &db.MigrationStatus{
		Applied: []db.MigrationStatusEntry{{Version: "001", Name: "001_people.sql", AppliedAt: &applied}},
		Pending: []db.MigrationStatusEntry{{Version: "002", Name: "002_trips.sql"}},
	}

	var out bytes.Buffer
	require.NoError(t, outputMigrationStatusText(&out, status))
	assert.Contains(t, out.String(), "Applied (1):")
	assert.Contains(t, out.String(), "001_people.sql")
	assert.Contains(t, out.String(), "Pending (1):")
	assert.Contains(t, out.String(), "002_trips.sql")
	assert.NotContains(t, out.String(), "Drift")
	assert.Contains(t, out.String(), "Summary: 1 applied, 1 pending, 0 drift")
}

func TestOutputMigrationStatusText_Empty(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, outputMigrationStatusText(&out, &db.MigrationStatus{}))
	assert.Equal(t, "No migrations found.\n", out.String())
}
