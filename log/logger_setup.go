package log

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

func init() {
	_ = globalMulti.Add(os.Stdout)
	base.SetOutput(globalMulti)
	base.SetLevel(logrus.TraceLevel)
	base.SetFormatter(newFormatter(TextFormat))
}

// GenDefaultSettings return struct with known sane/working logger settings
func GenDefaultSettings() Config {
	enabled := true
	return Config{
		Enabled:   &enabled,
		Level:     "info",
		Formatter: TextFormat,
		Output:    "console",
	}
}

func newFormatter(format string) logrus.Formatter {
	if format == JSONFormat {
		return &logrus.JSONFormatter{TimestampFormat: timestampFormat}
	}
	return &logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: timestampFormat,
		DisableColors:   true,
	}
}

// SetupGlobalLogger applies the config to every registered sub logger and
// replaces the base output writers
func SetupGlobalLogger(cfg *Config) error {
	if cfg == nil {
		def := GenDefaultSettings()
		cfg = &def
	}
	switch strings.ToLower(cfg.Formatter) {
	case "", TextFormat, JSONFormat:
	default:
		return fmt.Errorf("%w: %s", errUnhandledFormatter, cfg.Formatter)
	}
	writers, err := getWriters(cfg)
	if err != nil {
		return err
	}

	mu.Lock()
	level := cfg.Level
	if level == "" {
		level = "info"
	}
	if cfg.Enabled != nil && !*cfg.Enabled {
		level = "panic"
	}
	for _, sl := range subLoggers {
		if err = sl.SetLevel(level); err != nil {
			mu.Unlock()
			return err
		}
	}
	mu.Unlock()

	for i := range cfg.SubLoggers {
		var sl *SubLogger
		sl, err = getSubLogger(cfg.SubLoggers[i].Name)
		if err != nil {
			return err
		}
		if err = sl.SetLevel(cfg.SubLoggers[i].Level); err != nil {
			return err
		}
	}

	globalMulti.replace(writers)
	base.SetFormatter(newFormatter(strings.ToLower(cfg.Formatter)))
	return nil
}

func getWriters(cfg *Config) ([]io.Writer, error) {
	var writers []io.Writer
	output := cfg.Output
	if output == "" {
		output = "console"
	}
	for _, o := range strings.Split(output, "|") {
		switch strings.ToLower(o) {
		case "stdout", "console":
			writers = append(writers, os.Stdout)
		case "stderr":
			writers = append(writers, os.Stderr)
		case "file":
			if cfg.FileName == "" {
				return nil, fmt.Errorf("%w: file output requires a filename", errUnhandledOutputWriter)
			}
			f, err := os.OpenFile(cfg.FileName, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640)
			if err != nil {
				return nil, err
			}
			writers = append(writers, f)
		default:
			return nil, fmt.Errorf("%w: %s", errUnhandledOutputWriter, o)
		}
	}
	return writers, nil
}

// AddWriter adds a writer which receives every log line
func AddWriter(w io.Writer) error {
	return globalMulti.Add(w)
}

// RemoveWriter stops a writer from receiving log lines
func RemoveWriter(w io.Writer) error {
	return globalMulti.Remove(w)
}
