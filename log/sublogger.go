package log

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// Global vars related to the logger package
var (
	Global     = NewSubLogger("GLOBAL")
	BackTester = NewSubLogger("BACKTESTER")
	ConfigMgr  = NewSubLogger("CONFIG")
	Data       = NewSubLogger("DATA")
	Strategy   = NewSubLogger("STRATEGY")
	Portfolio  = NewSubLogger("PORTFOLIO")
	Execution  = NewSubLogger("EXECUTION")
	Statistics = NewSubLogger("STATISTICS")
	Database   = NewSubLogger("DATABASE")
	RESTSys    = NewSubLogger("REST")
)

// NewSubLogger registers a named sub logger at the info level. Registering
// an existing name returns the existing sub logger
func NewSubLogger(name string) *SubLogger {
	name = strings.ToUpper(name)
	mu.Lock()
	defer mu.Unlock()
	if sl, ok := subLoggers[name]; ok {
		return sl
	}
	sl := &SubLogger{
		name:   name,
		levels: &levelHolder{level: logrus.InfoLevel},
	}
	subLoggers[name] = sl
	return sl
}

// Scoped returns a copy of the sub logger that tags every line with the run
// id. The copy shares its level with the original
func Scoped(sl *SubLogger, runID string) *SubLogger {
	if sl == nil {
		return nil
	}
	return &SubLogger{
		name:   sl.name,
		runID:  runID,
		levels: sl.levels,
	}
}

// Name returns the sub logger name
func (sl *SubLogger) Name() string {
	if sl == nil {
		return ""
	}
	return sl.name
}

// SetLevel parses and sets the minimum level written by the sub logger
func (sl *SubLogger) SetLevel(level string) error {
	if sl == nil {
		return errSubLoggerNotFound
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	sl.levels.m.Lock()
	sl.levels.level = lvl
	sl.levels.m.Unlock()
	return nil
}

func (sl *SubLogger) enabled(level logrus.Level) bool {
	if sl == nil {
		return false
	}
	sl.levels.m.RLock()
	defer sl.levels.m.RUnlock()
	return sl.levels.level >= level
}

func (sl *SubLogger) log(level logrus.Level, msg string) {
	if !sl.enabled(level) {
		return
	}
	entry := base.WithField(subLoggerField, sl.name)
	if sl.runID != "" {
		entry = entry.WithField(runField, sl.runID)
	}
	entry.Log(level, msg)
}

func getSubLogger(name string) (*SubLogger, error) {
	mu.RLock()
	defer mu.RUnlock()
	sl, ok := subLoggers[strings.ToUpper(name)]
	if !ok {
		return nil, fmt.Errorf("%w %v", errSubLoggerNotFound, name)
	}
	return sl, nil
}
