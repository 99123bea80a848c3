package log

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Info takes a pointer subLogger struct and string and writes an info line
func Info(sl *SubLogger, data string) {
	sl.log(logrus.InfoLevel, data)
}

// Infoln takes a pointer subLogger struct and interface and writes an info line
func Infoln(sl *SubLogger, v ...interface{}) {
	sl.log(logrus.InfoLevel, fmt.Sprint(v...))
}

// Infof takes a pointer subLogger struct, string and interface formats and writes an info line
func Infof(sl *SubLogger, data string, v ...interface{}) {
	if !sl.enabled(logrus.InfoLevel) {
		return
	}
	sl.log(logrus.InfoLevel, fmt.Sprintf(data, v...))
}

// Debug takes a pointer subLogger struct and string and writes a debug line
func Debug(sl *SubLogger, data string) {
	sl.log(logrus.DebugLevel, data)
}

// Debugf takes a pointer subLogger struct, string and interface formats and writes a debug line
func Debugf(sl *SubLogger, data string, v ...interface{}) {
	if !sl.enabled(logrus.DebugLevel) {
		return
	}
	sl.log(logrus.DebugLevel, fmt.Sprintf(data, v...))
}

// Warn takes a pointer subLogger struct & string and writes a warning line
func Warn(sl *SubLogger, data string) {
	sl.log(logrus.WarnLevel, data)
}

// Warnf takes a pointer subLogger struct, string and interface formats and writes a warning line
func Warnf(sl *SubLogger, data string, v ...interface{}) {
	if !sl.enabled(logrus.WarnLevel) {
		return
	}
	sl.log(logrus.WarnLevel, fmt.Sprintf(data, v...))
}

// Error takes a pointer subLogger struct & string and writes an error line
func Error(sl *SubLogger, data string) {
	sl.log(logrus.ErrorLevel, data)
}

// Errorln takes a pointer subLogger struct & interface and writes an error line
func Errorln(sl *SubLogger, v ...interface{}) {
	sl.log(logrus.ErrorLevel, fmt.Sprint(v...))
}

// Errorf takes a pointer subLogger struct, string and interface formats and writes an error line
func Errorf(sl *SubLogger, data string, v ...interface{}) {
	if !sl.enabled(logrus.ErrorLevel) {
		return
	}
	sl.log(logrus.ErrorLevel, fmt.Sprintf(data, v...))
}
