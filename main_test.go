package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otherjamesbrown/netnotes-cli/cmd"
	"github.com/otherjamesbrown/netnotes-cli/config"
	"github.com/otherjamesbrown/netnotes-cli/pkg/logging"
	"github.com/otherjamesbrown/netnotes-cli/pkg/observability"
)

func resetFlags() {
	outputFormat, storeBackend, metricsFile, debug = "", "", "", false
}

func testDeps() *cmd.CommandDeps {
	deps := cmd.DefaultDeps()
	deps.LoadConfig = func() (*config.CLIConfig, error) {
		cfg := config.DefaultConfig()
		cfg.Store.Backend = config.StoreMemory
		return cfg, nil
	}
	deps.Logger = logging.NewNopLogger()
	deps.Interactive = func() bool { return false }
	return deps
}

func TestRootCommand_Subcommands(t *testing.T) {
	root := newRootCommand(testDeps())

	for _, name := range []string{"capture", "parse", "people", "today", "trip", "followups", "config", "db", "completion", "version"} {
		t.Run(name, func(t *testing.T) {
			c, _, err := root.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, c.Name())
			assert.NotEmpty(t, c.GroupID)
		})
	}
}

func TestRootCommand_PersistentFlags(t *testing.T) {
	root := newRootCommand(testDeps())

	for _, name := range []string{"output", "store", "debug"} {
		assert.NotNil(t, root.PersistentFlags().Lookup(name), "--%s", name)
	}
	assert.Equal(t, "o", root.PersistentFlags().Lookup("output").Shorthand)
}

func TestLoadSettings_FlagsOverrideConfig(t *testing.T) {
	defer resetFlags()
	deps := testDeps()

	outputFormat = "json"
	debug = true
	require.NoError(t, loadSettings(deps))

	require.NotNil(t, deps.Config)
	assert.Equal(t, config.OutputFormatJSON, deps.Config.OutputFormat)
	assert.Equal(t, config.StoreMemory, deps.Config.Store.Backend)
	assert.True(t, deps.Config.Debug)
}

func TestLoadSettings_InvalidFlag(t *testing.T) {
	defer resetFlags()

	storeBackend = "cassandra"
	err := loadSettings(testDeps())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.backend")
}

func TestParseCommand_JSONOutput(t *testing.T) {
	defer resetFlags()
	root := newRootCommand(testDeps())

	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetArgs([]string{"parse", "--output", "json", "named Alex, 29, met at Polo Lounge LA"})
	require.NoError(t, root.Execute())

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "Alex", got["name"])
	assert.EqualValues(t, 29, got["age"])
}

func TestCompletionCommand(t *testing.T) {
	root := newRootCommand(testDeps())

	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetArgs([]string{"completion", "bash"})
	require.NoError(t, root.Execute())
	assert.Contains(t, buf.String(), "netnotes")
}

func TestExecute_WritesMetricsFile(t *testing.T) {
	defer resetFlags()
	reg := prometheus.NewRegistry()
	deps := testDeps()
	deps.Metrics = observability.NewCaptureMetrics(reg)
	deps.Gatherer = reg
	path := filepath.Join(t.TempDir(), "netnotes.prom")

	root := newRootCommand(deps)
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"capture", "--metrics-file", path, "--place-yes", "named Alex, 29, met at Polo Lounge LA"})
	require.NoError(t, execute(context.Background(), root, deps))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `netnotes_captures_total{outcome="committed"} 1`)
	assert.Contains(t, string(data), `netnotes_capture_prompts_total{kind="confirm_place"} 1`)
}

func TestExecute_WritesMetricsOnFailure(t *testing.T) {
	defer resetFlags()
	reg := prometheus.NewRegistry()
	deps := testDeps()
	deps.Metrics = observability.NewCaptureMetrics(reg)
	deps.Gatherer = reg
	path := filepath.Join(t.TempDir(), "netnotes.prom")

	root := newRootCommand(deps)
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"capture", "--metrics-file", path, "named Alex, 29, met at Polo Lounge LA"})
	require.Error(t, execute(context.Background(), root, deps))

	_, err := os.Stat(path)
	assert.NoError(t, err)
}
