package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, "localhost:7233", cfg.Temporal.HostPort)
	assert.Equal(t, 1, cfg.Workflow.MaxLoopBacks)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[temporal]
host_port = "temporal:7233"

[workflow]
max_loop_backs = 2
lane_timeout_ms = 5000
join_deadline_ms = 12000
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "temporal:7233", cfg.Temporal.HostPort)
	assert.Equal(t, 2, cfg.Workflow.MaxLoopBacks)
	assert.Equal(t, 5*time.Second, cfg.Workflow.LaneTimeout())
	assert.Equal(t, 12*time.Second, cfg.Workflow.JoinDeadline())
	// Untouched sections keep their defaults.
	assert.Equal(t, ":8090", cfg.HTTP.Listen)
	assert.Equal(t, 0.8, cfg.Workflow.DenyThreshold)
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`[temporal`), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadRejectsJoinDeadlineBelowLaneTimeout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[workflow]
lane_timeout_ms = 10000
join_deadline_ms = 5000
`), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "join deadline")
}

func TestLoadRejectsOutOfRangeThreshold(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[workflow]
deny_threshold = 1.5
`), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}
