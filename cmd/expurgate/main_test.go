package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_FlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("hotkey: alt+k\npoll_interval: 3s\n"), 0600))

	configPath = path
	t.Cleanup(func() {
		configPath = ""
		hotkeyFlag = ""
	})

	cfg, err := loadConfig(runCmd)
	require.NoError(t, err)
	assert.Equal(t, "alt+k", cfg.Hotkey)
	assert.Equal(t, 3*time.Second, cfg.PollInterval)

	require.NoError(t, runCmd.Flags().Set("hotkey", "ctrl+shift+x"))
	cfg, err = loadConfig(runCmd)
	require.NoError(t, err)
	assert.Equal(t, "ctrl+shift+x", cfg.Hotkey)
	assert.Equal(t, 3*time.Second, cfg.PollInterval)
}

func TestContains(t *testing.T) {
	assert.True(t, contains([]uint32{1, 2, 3}, 2))
	assert.False(t, contains(nil, 2))
}

func TestOnOff(t *testing.T) {
	assert.Equal(t, "on", onOff(true))
	assert.Equal(t, "off", onOff(false))
}
