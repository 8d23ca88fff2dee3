package cmd

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otherjamesbrown/netnotes-cli/config"
)

func TestConfigCommand(t *testing.T) {
	cmd := NewConfigCommand(nil)

	assert.Equal(t, "config", cmd.Use)
	for _, name := range []string{"show", "init", "set"} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, sub.Name())
	}
}

func TestApplyConfigValue(t *testing.T) {
	tests := []struct {
		key     string
		value   string
		wantErr bool
		check   func(t *testing.T, cfg *config.CLIConfig)
	}{
		{key: "store.backend", value: "postgres", check: func(t *testing.T, cfg *config.CLIConfig) {
			assert.Equal(t, config.StorePostgres, cfg.Store.Backend)
		}},
		{key: "store.backend", value: "mongo", wantErr: true},
		{key: "redis.db", value: "2", check: func(t *testing.T, cfg *config.CLIConfig) {
			assert.Equal(t, 2, cfg.Redis.DB)
		}},
		{key: "redis.db", value: "-1", wantErr: true},
		{key: "location.coords", value: "34.0736, -118.4004", check: func(t *testing.T, cfg *config.CLIConfig) {
			require.True(t, cfg.Location.HasFix())
			assert.Equal(t, 34.0736, *cfg.Location.Lat)
			assert.Equal(t, -118.4004, *cfg.Location.Lng)
		}},
		{key: "location.coords", value: "", check: func(t *testing.T, cfg *config.CLIConfig) {
			assert.False(t, cfg.Location.HasFix())
		}},
		{key: "location.coords", value: "91,0", wantErr: true},
		{key: "location.timeout", value: "5s", check: func(t *testing.T, cfg *config.CLIConfig) {
			assert.Equal(t, 5*time.Second, cfg.Location.Timeout)
		}},
		{key: "location.timeout", value: "0s", wantErr: true},
		{key: "log.level", value: "warn", check: func(t *testing.T, cfg *config.CLIConfig) {
			assert.Equal(t, "warn", cfg.Log.Level)
		}},
		{key: "log.level", value: "loud", wantErr: true},
		{key: "log.json", value: "1", check: func(t *testing.T, cfg *config.CLIConfig) {
			assert.True(t, cfg.Log.JSON)
		}},
		{key: "output_format", value: "yaml", check: func(t *testing.T, cfg *config.CLIConfig) {
			assert.Equal(t, config.OutputFormatYAML, cfg.OutputFormat)
		}},
		{key: "follow_up_days", value: "0", wantErr: true},
		{key: "debug", value: "maybe", wantErr: true},
		{key: "colour", value: "blue", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			cfg := config.DefaultConfig()
			err := applyConfigValue(cfg, tt.key, tt.value)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestParseCoords(t *testing.T) {
	lat, lng, err := parseCoords("51.5,-0.12")
	require.NoError(t, err)
	assert.Equal(t, 51.5, lat)
	assert.Equal(t, -0.12, lng)

	for _, bad := range []string{"51.5", "north,west", "0,181"} {
		_, _, err := parseCoords(bad)
		assert.Error(t, err, bad)
	}
}

func TestRunConfigSet_WritesFile(t *testing.T) {
	t.Setenv("NETNOTES_CONFIG_DIR", t.TempDir())

	var out bytes.Buffer
	require.NoError(t, runConfigSet(&out, "follow_up_days", "3"))
	assert.Equal(t, "Set follow_up_days = 3\n", out.String())

	cfg, err := config.LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.FollowUpDays)
}

func TestRunConfigShow_JSON(t *testing.T) {
	env := newTestEnv(t)
	env.setOutput(config.OutputFormatJSON)
	env.deps.Config.Redis.Addr = "localhost:6379"

	var out bytes.Buffer
	require.NoError(t, runConfigShow(env.deps, &out))

	var got ConfigOutput
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, "memory", got.StoreBackend)
	assert.Equal(t, "localhost:6379", got.RedisAddr)
	assert.Equal(t, "json", got.OutputFormat)
	assert.False(t, got.PostgresDSN)
}
