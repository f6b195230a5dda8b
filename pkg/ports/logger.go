// Package ports defines the interfaces between the encoder pipeline and its
// adapters: encoders, the libvpx binding, sources, muxers and logging.
package ports

import (
	"errors"
	"fmt"
	"strings"
)

// LogLevel orders log severities. Loggers drop messages below their level.
type LogLevel int

const (
	// LevelDebug covers per-frame and per-component detail.
	LevelDebug LogLevel = iota
	// LevelInfo covers run progress.
	LevelInfo
	// LevelWarn covers problems the run recovers from, such as a rejected
	// resize.
	LevelWarn
	// LevelError covers failures that end the run.
	LevelError
	// LevelQuiet suppresses all output.
	LevelQuiet
)

// ErrUnknownLogLevel is returned by ParseLogLevel.
var ErrUnknownLogLevel = errors.New("unknown log level")

var levelNames = [...]string{"debug", "info", "warn", "error", "quiet"}

func (l LogLevel) String() string {
	if l < LevelDebug || l > LevelQuiet {
		return fmt.Sprintf("LogLevel(%d)", int(l))
	}
	return levelNames[l]
}

// ParseLogLevel accepts the level names case-insensitively, plus
// "warning". An empty string means LevelInfo.
func ParseLogLevel(s string) (LogLevel, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "":
		return LevelInfo, nil
	case "warning":
		return LevelWarn, nil
	}
	for i, name := range levelNames {
		if s == name {
			return LogLevel(i), nil
		}
	}
	return LevelInfo, fmt.Errorf("%w: %q", ErrUnknownLogLevel, s)
}

// Logger is the logging port. msg is a go-l10n message key formatted with
// args, so implementations translate before writing.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})

	// WithComponent returns a logger tagging messages with component,
	// e.g. "encode" or "vpx".
	WithComponent(component string) Logger
}
