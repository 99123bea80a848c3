package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thrasher-corp/gct-backtester/common"
)

func TestGenerateDefaultBacktesterConfig(t *testing.T) {
	t.Parallel()
	cfg := GenerateDefaultBacktesterConfig()
	require.NoError(t, cfg.Validate(), "Validate must not error")
	assert.True(t, cfg.Server.Enabled)
	assert.Equal(t, "backtester.db", cfg.Database.ConnectionDetails.Database)
}

func TestReadBacktesterConfigFromPath(t *testing.T) {
	t.Parallel()
	_, err := ReadBacktesterConfigFromPath("")
	assert.ErrorIs(t, err, errNoPath)

	dir := t.TempDir()
	cfg := GenerateDefaultBacktesterConfig()
	cfg.Server.ListenAddress = "localhost:1337"
	path := filepath.Join(dir, "config.json")
	require.NoError(t, cfg.SaveBacktesterConfig(path), "SaveBacktesterConfig must not error")

	loaded, err := ReadBacktesterConfigFromPath(path)
	require.NoError(t, err, "ReadBacktesterConfigFromPath must not error")
	assert.Equal(t, "localhost:1337", loaded.Server.ListenAddress)
	assert.Equal(t, cfg.Server.ShutdownTimeout, loaded.Server.ShutdownTimeout)
	assert.Equal(t, cfg.MaxConcurrentRuns, loaded.MaxConcurrentRuns)
}

func TestBacktesterConfigValidate(t *testing.T) {
	t.Parallel()
	var nilCfg *BacktesterConfig
	assert.ErrorIs(t, nilCfg.Validate(), common.ErrNilPointer)

	cfg := GenerateDefaultBacktesterConfig()
	cfg.MaxConcurrentRuns = 0
	assert.ErrorIs(t, cfg.Validate(), errInvalidConcurrency)

	cfg = GenerateDefaultBacktesterConfig()
	cfg.Server.ListenAddress = "nowhere"
	assert.ErrorIs(t, cfg.Validate(), errInvalidListenAddress)

	cfg = GenerateDefaultBacktesterConfig()
	cfg.Server.SubmissionBurst = 0
	assert.ErrorIs(t, cfg.Validate(), errInvalidRateLimit)

	cfg.Server.Enabled = false
	assert.NoError(t, cfg.Validate())
}
