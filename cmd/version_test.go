package cmd

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otherjamesbrown/netnotes-cli/config"
	"github.com/otherjamesbrown/netnotes-cli/pkg/buildinfo"
)

func TestVersionCommand(t *testing.T) {
	cmd := NewVersionCommand(nil)

	assert.Equal(t, "version", cmd.Use)
	assert.NotNil(t, cmd.Flags().Lookup("short"))
}

func TestRunVersion_Short(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, runVersion(&CommandDeps{}, &out, true))
	assert.Equal(t, buildinfo.Get("netnotes").Version, strings.TrimSpace(out.String()))
}

func TestRunVersion_Text(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, runVersion(&CommandDeps{}, &out, false))
	assert.True(t, strings.HasPrefix(out.String(), "netnotes version "))
	assert.Contains(t, out.String(), "commit:")
}

func TestRunVersion_JSON(t *testing.T) {
	env := newTestEnv(t)
	env.setOutput(config.OutputFormatJSON)

	var out bytes.Buffer
	require.NoError(t, runVersion(env.deps, &out, false))

	var got buildinfo.Info
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, "netnotes", got.Name)
	assert.NotEmpty(t, got.GoVersion)
}
