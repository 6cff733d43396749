package config

import (
	"io"
	"log/slog"
	"strings"

	"github.com/born-ml/stick/internal/status"
	"gopkg.in/yaml.v3"
)

// Level is the engine log verbosity.
type Level int

// Log levels, from silent to most verbose.
const (
	LevelOff Level = iota
	LevelFatal
	LevelError
	LevelWarn
	LevelInfo
	LevelDebug
	LevelTrace
)

// slogTrace sits below slog.LevelDebug.
const slogTrace = slog.Level(-8)

// String returns the lowercase level name.
func (l Level) String() string {
	switch l {
	case LevelOff:
		return "off"
	case LevelFatal:
		return "fatal"
	case LevelError:
		return "error"
	case LevelWarn:
		return "warn"
	case LevelInfo:
		return "info"
	case LevelDebug:
		return "debug"
	case LevelTrace:
		return "trace"
	default:
		return "unknown"
	}
}

// ParseLevel parses a level name, case-insensitively.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "off", "none":
		return LevelOff, nil
	case "fatal":
		return LevelFatal, nil
	case "error":
		return LevelError, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "info":
		return LevelInfo, nil
	case "debug":
		return LevelDebug, nil
	case "trace":
		return LevelTrace, nil
	default:
		return LevelOff, status.Newf(status.ErrInvalidArgument, "unknown log level %q", s)
	}
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (l *Level) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	lvl, err := ParseLevel(s)
	if err != nil {
		return err
	}
	*l = lvl
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (l Level) MarshalYAML() (interface{}, error) {
	return l.String(), nil
}

// slogLevel maps l onto slog. Fatal has no slog counterpart and is reported
// as error.
func (l Level) slogLevel() slog.Level {
	switch l {
	case LevelFatal, LevelError:
		return slog.LevelError
	case LevelWarn:
		return slog.LevelWarn
	case LevelInfo:
		return slog.LevelInfo
	case LevelDebug:
		return slog.LevelDebug
	default:
		return slogTrace
	}
}

// NewLogger returns a text logger writing to w at the given level. LevelOff
// discards everything.
func NewLogger(w io.Writer, level Level) *slog.Logger {
	if level == LevelOff {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level.slogLevel()}))
}

// Logger returns a logger honoring c.LogLevel.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	return NewLogger(w, c.LogLevel)
}
