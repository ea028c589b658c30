package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, time.Second, cfg.PollInterval)
	assert.Equal(t, "ctrl+alt+j", cfg.Hotkey)
	assert.Equal(t, "json", cfg.Store.Backend)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_MissingFileIsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
poll_interval: 2500ms
hotkey: shift+win+f5
store:
  backend: sqlcipher
  dir: /tmp/expurgate-data
log:
  level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 2500*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, "shift+win+f5", cfg.Hotkey)
	assert.Equal(t, "sqlcipher", cfg.Store.Backend)
	assert.Equal(t, "/tmp/expurgate-data", cfg.DataDir())
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_PartialFileKeepsOtherDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "hotkey: alt+k\n"))
	require.NoError(t, err)

	assert.Equal(t, "alt+k", cfg.Hotkey)
	assert.Equal(t, time.Second, cfg.PollInterval)
	assert.Equal(t, "json", cfg.Store.Backend)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantPath string
	}{
		{"bad hotkey", "hotkey: j\n", "hotkey"},
		{"tiny interval", "poll_interval: 1ms\n", "poll_interval"},
		{"unknown backend", "store:\n  backend: redis\n", "store.backend"},
		{"unknown level", "log:\n  level: loud\n", "log.level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.wantPath, verr.Path)
		})
	}
}

func TestLoad_MalformedYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "hotkey: [unclosed\n"))
	assert.ErrorContains(t, err, "failed to parse config")
}

func TestLogFile(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "expurgate.log", filepath.Base(cfg.LogFile()))

	cfg.Log.File = "/var/log/x.log"
	assert.Equal(t, "/var/log/x.log", cfg.LogFile())
}
