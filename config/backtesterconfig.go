package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/thrasher-corp/gct-backtester/common"
	"github.com/thrasher-corp/gct-backtester/database"
	"github.com/thrasher-corp/gct-backtester/database/drivers"
	"github.com/thrasher-corp/gct-backtester/log"
)

// DefaultBTDir returns the default backtester data directory for the OS
func DefaultBTDir() string {
	if runtime.GOOS == "windows" {
		return filepath.Join(os.Getenv("APPDATA"), "GctBacktester")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".gct-backtester"
	}
	return filepath.Join(home, ".gct-backtester")
}

// DefaultBTConfigPath is the default backtester config file
func DefaultBTConfigPath() string {
	return filepath.Join(DefaultBTDir(), "config.json")
}

// ReadBacktesterConfigFromPath loads the application config. Every value
// can be overridden with an environment variable such as
// BACKTESTER_SERVER_LISTEN_ADDRESS
func ReadBacktesterConfigFromPath(path string) (*BacktesterConfig, error) {
	if path == "" {
		return nil, fmt.Errorf("%w %w", common.ErrConfiguration, errNoPath)
	}
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("%w reading %v: %w", common.ErrConfiguration, path, err)
	}
	resp := &BacktesterConfig{}
	if err := v.Unmarshal(resp, decoderOptions); err != nil {
		return nil, fmt.Errorf("%w decoding %v: %w", common.ErrConfiguration, path, err)
	}
	if err := resp.Validate(); err != nil {
		return nil, err
	}
	return resp, nil
}

// SaveBacktesterConfig writes the application config to path as indented JSON
func (b *BacktesterConfig) SaveBacktesterConfig(path string) error {
	if b == nil {
		return common.ErrNilPointer
	}
	return writeJSON(path, b)
}

// Validate checks the application settings
func (b *BacktesterConfig) Validate() error {
	if b == nil {
		return fmt.Errorf("%w %w", common.ErrConfiguration, common.ErrNilPointer)
	}
	if b.MaxConcurrentRuns <= 0 {
		return fmt.Errorf("%w %w, received %v", common.ErrConfiguration, errInvalidConcurrency, b.MaxConcurrentRuns)
	}
	if b.Server.Enabled {
		if !strings.Contains(b.Server.ListenAddress, ":") {
			return fmt.Errorf("%w %w %q", common.ErrConfiguration, errInvalidListenAddress, b.Server.ListenAddress)
		}
		if b.Server.SubmissionsPerSecond <= 0 || b.Server.SubmissionBurst <= 0 {
			return fmt.Errorf("%w %w", common.ErrConfiguration, errInvalidRateLimit)
		}
	}
	return nil
}

// GenerateDefaultBacktesterConfig returns sane application settings backed
// by a sqlite database in the data directory
func GenerateDefaultBacktesterConfig() *BacktesterConfig {
	dir := DefaultBTDir()
	return &BacktesterConfig{
		StopAllTasksOnClose: true,
		MaxConcurrentRuns:   runtime.NumCPU(),
		DataDirectory:       dir,
		Server: Server{
			Enabled:              true,
			ListenAddress:        "localhost:9054",
			SubmissionsPerSecond: 2,
			SubmissionBurst:      5,
			ShutdownTimeout:      10 * time.Second,
		},
		Report: Report{
			GenerateReport: true,
			OutputPath:     filepath.Join(dir, "results"),
		},
		Database: database.Config{
			Enabled: true,
			Driver:  database.DBSQLite3,
			ConnectionDetails: drivers.ConnectionDetails{
				Database: "backtester.db",
			},
		},
		Logging: log.GenDefaultSettings(),
	}
}
