package database

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/thrasher-corp/gct-backtester/log"
	"github.com/thrasher-corp/goose"
)

// Each migration is a directory holding one goose SQL file per dialect.
// Decimal values are stored as text to keep their exact representation and
// timestamps are unix milliseconds in UTC
//
//go:embed migrations
var migrationFiles embed.FS

// goose keeps its dialect in package state
var migrateMu sync.Mutex

// writeMigrations copies the migrations for a dialect into dir so goose
// can read them from disk
func writeMigrations(dir, dialect string) (int, error) {
	var n int
	err := fs.WalkDir(migrationFiles, "migrations", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || d.Name() != dialect+".sql" {
			return nil
		}
		data, err := migrationFiles.ReadFile(path)
		if err != nil {
			return err
		}
		target := filepath.Join(dir, filepath.Base(filepath.Dir(path)))
		if err = os.MkdirAll(target, 0o750); err != nil {
			return err
		}
		n++
		return os.WriteFile(filepath.Join(target, d.Name()), data, 0o600)
	})
	return n, err
}

func runMigrations(i *Instance, command string) error {
	db, err := i.GetSQL()
	if err != nil {
		return err
	}
	dir, err := os.MkdirTemp("", "backtester-migrations")
	if err != nil {
		return err
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			log.Warnf(log.Database, "could not remove migration directory %v: %v", dir, err)
		}
	}()
	dialect := i.Driver()
	n, err := writeMigrations(dir, dialect)
	if err != nil {
		return fmt.Errorf("%w %v: %w", errMigration, dialect, err)
	}
	if n == 0 {
		return fmt.Errorf("%w, no %v migrations found", errMigration, dialect)
	}
	migrateMu.Lock()
	defer migrateMu.Unlock()
	if err = goose.Run(command, db, dialect, dir, ""); err != nil {
		return fmt.Errorf("%w %v: %w", errMigration, command, err)
	}
	return nil
}
