package report

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/thrasher-corp/gct-backtester/eventhandlers/portfolio/compliance"
	"github.com/thrasher-corp/gct-backtester/eventhandlers/portfolio/holdings"
	"github.com/thrasher-corp/gct-backtester/log"
)

// WriteEquityLog writes the equity curve as JSON lines, one entry per line
func WriteEquityLog(path string, equity []holdings.Equity) error {
	return writeJSONLines(path, equity)
}

// WriteAuditLog writes the fill, rejection, expiry and cancellation records
// as JSON lines, one record per line
func WriteAuditLog(path string, records []compliance.Record) error {
	return writeJSONLines(path, records)
}

func writeJSONLines[T any](path string, items []T) (err error) {
	if path == "" {
		return errNoOutputPath
	}
	if err = os.MkdirAll(filepath.Dir(path), 0o770); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o640)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for i := range items {
		if err = enc.Encode(&items[i]); err != nil {
			return fmt.Errorf("%v line %d: %w", path, i+1, err)
		}
	}
	if err = w.Flush(); err != nil {
		return err
	}
	log.Debugf(log.BackTester, "wrote %d lines to %v", len(items), path)
	return nil
}
