package config

import (
	"errors"
	"time"

	"github.com/thrasher-corp/gct-backtester/database"
	"github.com/thrasher-corp/gct-backtester/log"
)

var (
	errInvalidListenAddress = errors.New("invalid listen address")
	errInvalidRateLimit     = errors.New("submission rate limit must be above zero")
	errInvalidConcurrency   = errors.New("maximum concurrent runs must be above zero")
)

// BacktesterConfig contains the configuration for the backtester application
// which runs strategy configs, serves the REST API and imports data
type BacktesterConfig struct {
	Verbose             bool            `json:"verbose" mapstructure:"verbose"`
	StopAllTasksOnClose bool            `json:"stop-all-tasks-on-close" mapstructure:"stop-all-tasks-on-close"`
	MaxConcurrentRuns   int             `json:"max-concurrent-runs" mapstructure:"max-concurrent-runs"`
	DataDirectory       string          `json:"data-directory" mapstructure:"data-directory"`
	Server              Server          `json:"server" mapstructure:"server"`
	Report              Report          `json:"report" mapstructure:"report"`
	Database            database.Config `json:"database" mapstructure:"database"`
	Logging             log.Config      `json:"logging" mapstructure:"logging"`
}

// Server holds the REST server settings
type Server struct {
	Enabled              bool          `json:"enabled" mapstructure:"enabled"`
	ListenAddress        string        `json:"listen-address" mapstructure:"listen-address"`
	SubmissionsPerSecond float64       `json:"submissions-per-second" mapstructure:"submissions-per-second"`
	SubmissionBurst      int           `json:"submission-burst" mapstructure:"submission-burst"`
	ShutdownTimeout      time.Duration `json:"shutdown-timeout" mapstructure:"shutdown-timeout"`
}

// Report contains the report settings
type Report struct {
	GenerateReport bool   `json:"output-report" mapstructure:"output-report"`
	OutputPath     string `json:"output-path" mapstructure:"output-path"`
	DarkMode       bool   `json:"dark-mode" mapstructure:"dark-mode"`
}
