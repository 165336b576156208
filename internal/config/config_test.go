package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsWhenNoConfigFile(t *testing.T) {
	cfg := LoadFrom(t.TempDir())

	assert.Equal(t, 30*time.Minute, cfg.SessionTimeout)
	assert.Equal(t, 500*time.Millisecond, cfg.DraftDebounce)
	assert.Equal(t, 30*24*time.Hour, cfg.DraftRetention)
	assert.Equal(t, 1200*time.Millisecond, cfg.ReplyDelayMin)
	assert.Equal(t, 3200*time.Millisecond, cfg.ReplyDelayMax)
	assert.Equal(t, 3, cfg.GroupAdminCap)
	assert.Equal(t, 60*time.Second, cfg.FlushInterval)
}

func TestConfigFileOverrides(t *testing.T) {
	dir := t.TempDir()
	yaml := "session_timeout: 5m\ngroup_admin_cap: 5\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg := LoadFrom(dir)
	assert.Equal(t, 5*time.Minute, cfg.SessionTimeout)
	assert.Equal(t, 5, cfg.GroupAdminCap)

	// Unset keys keep their defaults.
	assert.Equal(t, 500*time.Millisecond, cfg.DraftDebounce)
}

func TestDefaultDataDir(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".palabre"), DefaultDataDir())
}
