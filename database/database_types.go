package database

import (
	"database/sql"
	"errors"
	"sync"

	"github.com/thrasher-corp/gct-backtester/database/drivers"
)

// Supported drivers
const (
	DBSQLite3    = "sqlite3"
	DBPostgreSQL = "postgres"
)

var (
	// ErrDatabaseNotConnected is returned when a repository is used without a connection
	ErrDatabaseNotConnected = errors.New("database is not connected")
	// ErrNoDatabaseProvided is returned when the database name or file is empty
	ErrNoDatabaseProvided  = errors.New("no database provided")
	errNilInstance         = errors.New("database instance is nil")
	errNilConfig           = errors.New("received nil config")
	errNilSQL              = errors.New("database SQL connection is nil")
	errUnsupportedDatabase = errors.New("unsupported database driver")
	errDatabaseDisabled    = errors.New("database support is disabled")
	errMigration           = errors.New("could not migrate database")
)

// Config holds all database configurable options including enable/disabled & DSN settings
type Config struct {
	Enabled           bool                      `json:"enabled" mapstructure:"enabled"`
	Verbose           bool                      `json:"verbose" mapstructure:"verbose"`
	Driver            string                    `json:"driver" mapstructure:"driver"`
	ConnectionDetails drivers.ConnectionDetails `json:"connectionDetails" mapstructure:"connection-details"`
}

// Instance holds the database connection along with the config it was made with
type Instance struct {
	SQL       *sql.DB
	config    *Config
	connected bool
	m         sync.RWMutex
}
