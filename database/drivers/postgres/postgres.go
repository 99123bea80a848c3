package postgres

import (
	"database/sql"
	"fmt"

	// import postgres driver
	_ "github.com/lib/pq"
	"github.com/thrasher-corp/gct-backtester/database/drivers"
)

// Connect opens a connection pool to a postgres database
func Connect(cfg *drivers.ConnectionDetails) (*sql.DB, error) {
	if cfg == nil {
		return nil, fmt.Errorf("received nil connection details")
	}
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}
	port := cfg.Port
	if port == 0 {
		port = 5432
	}
	configDSN := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		host,
		port,
		cfg.Username,
		cfg.Password,
		cfg.Database,
		sslMode)
	return sql.Open("postgres", configDSN)
}
