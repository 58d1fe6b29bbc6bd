package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigureJSONWithComponent(t *testing.T) {
	var buf bytes.Buffer
	Configure(Config{Level: "debug", Format: "json", Output: &buf, Version: "1.2.3"})
	t.Cleanup(func() { Configure(Config{Format: "json"}) })

	l := WithComponent("imagebuild")
	l.Debug().Str("ref", "app:1").Msg("building")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "imagebuild", entry["component"])
	assert.Equal(t, "1.2.3", entry["version"])
	assert.Equal(t, "building", entry["message"])
	assert.Equal(t, "debug", entry["level"])
}

func TestConfigureLevelFiltersEntries(t *testing.T) {
	var buf bytes.Buffer
	Configure(Config{Level: "warn", Format: "json", Output: &buf})
	t.Cleanup(func() { Configure(Config{Format: "json"}) })

	l := Base()
	l.Info().Msg("hidden")
	assert.Empty(t, buf.String())

	l.Warn().Msg("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestUseConsoleExplicitFormats(t *testing.T) {
	var buf bytes.Buffer
	assert.True(t, useConsole("console", &buf))
	assert.False(t, useConsole("json", &buf))
	assert.False(t, useConsole("", &buf))
}
