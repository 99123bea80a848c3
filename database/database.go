package database

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/thrasher-corp/gct-backtester/database/drivers/postgres"
	sqlite "github.com/thrasher-corp/gct-backtester/database/drivers/sqlite3"
	"github.com/thrasher-corp/gct-backtester/log"
)

// Open connects to the configured database and ensures the schema exists.
// SQLite database files are resolved relative to dataPath
func Open(ctx context.Context, cfg *Config, dataPath string) (*Instance, error) {
	if cfg == nil {
		return nil, errNilConfig
	}
	if !cfg.Enabled {
		return nil, errDatabaseDisabled
	}
	if cfg.ConnectionDetails.Database == "" {
		return nil, ErrNoDatabaseProvided
	}
	i := &Instance{}
	if err := i.SetConfig(cfg); err != nil {
		return nil, err
	}
	switch cfg.Driver {
	case DBSQLite3, "sqlite":
		con, err := sqlite.Connect(filepath.Join(dataPath, cfg.ConnectionDetails.Database))
		if err != nil {
			return nil, err
		}
		i.SetSQLiteConnection(con)
	case DBPostgreSQL, "postgresql", "psql":
		con, err := postgres.Connect(&cfg.ConnectionDetails)
		if err != nil {
			return nil, err
		}
		if err = i.SetPostgresConnection(con); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w '%v'", errUnsupportedDatabase, cfg.Driver)
	}
	i.SetConnected(true)
	if err := i.Migrate(ctx); err != nil {
		_ = i.CloseConnection()
		return nil, err
	}
	log.Infof(log.Database, "connected to %v database %v", i.Driver(), cfg.ConnectionDetails.Database)
	return i, nil
}

// SetConfig safely sets the database instance's config with some
// basic locks and checks
func (i *Instance) SetConfig(cfg *Config) error {
	if i == nil {
		return errNilInstance
	}
	if cfg == nil {
		return errNilConfig
	}
	i.m.Lock()
	i.config = cfg
	i.m.Unlock()
	return nil
}

// SetSQLiteConnection safely sets the database instance's connection
// to use SQLite
func (i *Instance) SetSQLiteConnection(con *sql.DB) {
	i.m.Lock()
	defer i.m.Unlock()
	i.SQL = con
	i.SQL.SetMaxOpenConns(1)
}

// SetPostgresConnection safely sets the database instance's connection
// to use Postgres
func (i *Instance) SetPostgresConnection(con *sql.DB) error {
	if err := con.Ping(); err != nil {
		return err
	}
	i.m.Lock()
	defer i.m.Unlock()
	i.SQL = con
	i.SQL.SetMaxOpenConns(2)
	i.SQL.SetMaxIdleConns(1)
	i.SQL.SetConnMaxLifetime(time.Hour)
	return nil
}

// SetConnected safely sets the database instance's connected status
func (i *Instance) SetConnected(v bool) {
	i.m.Lock()
	i.connected = v
	i.m.Unlock()
}

// CloseConnection safely disconnects the database instance
func (i *Instance) CloseConnection() error {
	if i == nil {
		return errNilInstance
	}
	i.m.Lock()
	defer i.m.Unlock()
	if i.SQL == nil {
		return errNilSQL
	}
	i.connected = false
	return i.SQL.Close()
}

// IsConnected safely checks the SQL connection status
func (i *Instance) IsConnected() bool {
	if i == nil {
		return false
	}
	i.m.RLock()
	defer i.m.RUnlock()
	return i.connected
}

// GetConfig safely returns a copy of the config
func (i *Instance) GetConfig() *Config {
	i.m.RLock()
	defer i.m.RUnlock()
	if i.config == nil {
		return nil
	}
	cpy := *i.config
	return &cpy
}

// Driver returns the normalised driver name of the connection
func (i *Instance) Driver() string {
	cfg := i.GetConfig()
	if cfg == nil {
		return ""
	}
	switch cfg.Driver {
	case DBPostgreSQL, "postgresql", "psql":
		return DBPostgreSQL
	default:
		return DBSQLite3
	}
}

// Ping pings the database
func (i *Instance) Ping() error {
	if i == nil {
		return errNilInstance
	}
	i.m.RLock()
	defer i.m.RUnlock()
	if i.SQL == nil {
		return errNilSQL
	}
	return i.SQL.Ping()
}

// GetSQL returns the connection, or an error when not connected
func (i *Instance) GetSQL() (*sql.DB, error) {
	if i == nil {
		return nil, errNilInstance
	}
	if !i.IsConnected() {
		return nil, ErrDatabaseNotConnected
	}
	i.m.RLock()
	defer i.m.RUnlock()
	if i.SQL == nil {
		return nil, errNilSQL
	}
	return i.SQL, nil
}

// Rebind converts '?' placeholders into the numbered form postgres expects
func (i *Instance) Rebind(query string) string {
	if i.Driver() != DBPostgreSQL {
		return query
	}
	var sb strings.Builder
	n := 0
	for _, r := range query {
		if r != '?' {
			sb.WriteRune(r)
			continue
		}
		n++
		sb.WriteByte('$')
		sb.WriteString(strconv.Itoa(n))
	}
	return sb.String()
}

// Migrate applies every migration the database has not seen yet
func (i *Instance) Migrate(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := runMigrations(i, "up"); err != nil {
		return err
	}
	log.Debugf(log.Database, "%v database migrated", i.Driver())
	return nil
}
