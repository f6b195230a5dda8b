package logger

import (
	"io"
	"os"

	"github.com/ideamans/go-l10n"
	"github.com/sirupsen/logrus"

	"github.com/user/vpxenc/pkg/ports"
)

// Format selects the structured log encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// LogrusLogger adapts a logrus entry to ports.Logger. Components become a
// "component" field instead of a message prefix.
type LogrusLogger struct {
	entry *logrus.Entry
}

// NewLogrus creates a structured logger writing to stderr.
func NewLogrus(level ports.LogLevel, format Format) *LogrusLogger {
	return NewLogrusWriter(level, format, os.Stderr)
}

// NewLogrusWriter creates a structured logger writing to w.
func NewLogrusWriter(level ports.LogLevel, format Format, w io.Writer) *LogrusLogger {
	l := logrus.New()
	l.SetOutput(w)
	if format == FormatJSON {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{DisableColors: true, FullTimestamp: true})
	}

	switch level {
	case ports.LevelDebug:
		l.SetLevel(logrus.DebugLevel)
	case ports.LevelInfo:
		l.SetLevel(logrus.InfoLevel)
	case ports.LevelWarn:
		l.SetLevel(logrus.WarnLevel)
	case ports.LevelError:
		l.SetLevel(logrus.ErrorLevel)
	default:
		l.SetOutput(io.Discard)
		l.SetLevel(logrus.PanicLevel)
	}
	return &LogrusLogger{entry: logrus.NewEntry(l)}
}

func (l *LogrusLogger) Debug(msg string, args ...interface{}) {
	if l.entry.Logger.IsLevelEnabled(logrus.DebugLevel) {
		l.entry.Debug(l10n.F(msg, args...))
	}
}

func (l *LogrusLogger) Info(msg string, args ...interface{}) {
	if l.entry.Logger.IsLevelEnabled(logrus.InfoLevel) {
		l.entry.Info(l10n.F(msg, args...))
	}
}

func (l *LogrusLogger) Warn(msg string, args ...interface{}) {
	if l.entry.Logger.IsLevelEnabled(logrus.WarnLevel) {
		l.entry.Warn(l10n.F(msg, args...))
	}
}

func (l *LogrusLogger) Error(msg string, args ...interface{}) {
	if l.entry.Logger.IsLevelEnabled(logrus.ErrorLevel) {
		l.entry.Error(l10n.F(msg, args...))
	}
}

// WithComponent returns a logger tagging entries with the component.
func (l *LogrusLogger) WithComponent(component string) ports.Logger {
	return &LogrusLogger{entry: l.entry.WithField("component", component)}
}

var _ ports.Logger = (*LogrusLogger)(nil)
