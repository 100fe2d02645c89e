package log

import (
	"fmt"
	stdlog "log"
	"strings"
)

// Config declaratively describes a logger.
type Config struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"` // text | json
}

// ParseLevel converts a level name to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DebugLevel, nil
	case "info", "":
		return InfoLevel, nil
	case "warn", "warning":
		return WarnLevel, nil
	case "error":
		return ErrorLevel, nil
	case "fatal":
		return FatalLevel, nil
	default:
		return InfoLevel, fmt.Errorf("unknown log level %q", s)
	}
}

// ApplyConfig builds a logger from a declarative Config.
func ApplyConfig(cfg *Config) (Logger, error) {
	level := InfoLevel
	if cfg != nil && cfg.Level != "" {
		l, err := ParseLevel(cfg.Level)
		if err != nil {
			return nil, err
		}
		level = l
	}

	var formatter Formatter = &TextFormatter{}
	if cfg != nil {
		switch strings.ToLower(cfg.Format) {
		case "", "text":
			formatter = &TextFormatter{}
		case "json":
			formatter = &JSONFormatter{}
		default:
			return nil, fmt.Errorf("unknown log format %q", cfg.Format)
		}
	}

	return NewLogger(WithLevel(level), WithFormatter(formatter)), nil
}

// writerFunc adapts a Logger into an io.Writer for stdlib interop.
type writerFunc func(p []byte) (int, error)

func (f writerFunc) Write(p []byte) (int, error) { return f(p) }

// ToStdLogger returns a *log.Logger that forwards to the given Logger at the
// given level. Useful for libraries that expect the standard library logger.
func ToStdLogger(l Logger, level Level) *stdlog.Logger {
	return stdlog.New(writerFunc(func(p []byte) (int, error) {
		msg := strings.TrimRight(string(p), "\n")
		switch level {
		case DebugLevel:
			l.Debug(msg)
		case WarnLevel:
			l.Warn(msg)
		case ErrorLevel:
			l.Error(msg)
		default:
			l.Info(msg)
		}
		return len(p), nil
	}), "", 0)
}

// RedirectStdLog routes the global standard library logger (used by Pebble and
// other dependencies) through the given Logger.
func RedirectStdLog(l Logger) {
	stdlog.SetFlags(0)
	stdlog.SetPrefix("")
	stdlog.SetOutput(writerFunc(func(p []byte) (int, error) {
		l.Info(strings.TrimRight(string(p), "\n"))
		return len(p), nil
	}))
}
