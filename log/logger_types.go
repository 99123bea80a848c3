package log

import (
	"errors"
	"io"
	"sync"

	"github.com/sirupsen/logrus"
)

const (
	timestampFormat = "02/01/2006 15:04:05"
	// TextFormat renders log lines as key=value text
	TextFormat = "text"
	// JSONFormat renders log lines as JSON objects
	JSONFormat = "json"

	subLoggerField = "sublogger"
	runField       = "run"
)

var (
	// ErrWriterNotFound is returned when removing a writer which was never added
	ErrWriterNotFound        = errors.New("io.Writer not found")
	errSubLoggerNotFound     = errors.New("sub logger not found")
	errUnhandledOutputWriter = errors.New("unhandled output writer")
	errUnhandledFormatter    = errors.New("unhandled formatter")
	errWriterAlreadyLoaded   = errors.New("io.Writer already loaded")
)

var (
	base        = logrus.New()
	subLoggers  = map[string]*SubLogger{}
	globalMulti = &multiWriter{}
	mu          sync.RWMutex
)

// Config holds the logging settings read from the application config
type Config struct {
	Enabled    *bool             `json:"enabled" mapstructure:"enabled"`
	Level      string            `json:"level" mapstructure:"level"`
	Formatter  string            `json:"formatter" mapstructure:"formatter"`
	Output     string            `json:"output" mapstructure:"output"`
	FileName   string            `json:"filename,omitempty" mapstructure:"filename"`
	SubLoggers []SubLoggerConfig `json:"subloggers,omitempty" mapstructure:"subloggers"`
}

// SubLoggerConfig holds sub logger configuration settings
type SubLoggerConfig struct {
	Name  string `json:"name" mapstructure:"name"`
	Level string `json:"level" mapstructure:"level"`
}

// SubLogger names a subsystem. Log lines carry its name and are filtered by
// its level. A scoped copy additionally tags every line with a run id
type SubLogger struct {
	name   string
	runID  string
	levels *levelHolder
}

type levelHolder struct {
	m     sync.RWMutex
	level logrus.Level
}

type multiWriter struct {
	mu      sync.RWMutex
	writers []io.Writer
}
