// Package logger provides ports.Logger implementations: a console logger
// for interactive use, a logrus-backed structured logger and a no-op logger.
package logger

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/ideamans/go-l10n"
	"github.com/mattn/go-isatty"

	"github.com/user/vpxenc/pkg/ports"
)

const (
	colorReset  = "\033[0m"
	colorGray   = "\033[90m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
	colorCyan   = "\033[36m"
)

var levelStyles = map[ports.LogLevel]struct{ tag, color string }{
	ports.LevelDebug: {"debug", colorGray},
	ports.LevelInfo:  {"", ""},
	ports.LevelWarn:  {"warning", colorYellow},
	ports.LevelError: {"error", colorRed},
}

// ConsoleLogger writes one human-readable line per message to stderr,
// keeping stdout free for command output. Lines are coloured when stderr
// is a terminal.
type ConsoleLogger struct {
	level     ports.LogLevel
	component string
	color     bool

	mu *sync.Mutex
	w  io.Writer
}

func NewConsole(level ports.LogLevel) *ConsoleLogger {
	fd := os.Stderr.Fd()
	l := NewConsoleWriter(level, os.Stderr)
	l.color = isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
	return l
}

// NewConsoleWriter creates an uncoloured console logger writing to w.
func NewConsoleWriter(level ports.LogLevel, w io.Writer) *ConsoleLogger {
	return &ConsoleLogger{level: level, mu: &sync.Mutex{}, w: w}
}

func (l *ConsoleLogger) Debug(msg string, args ...interface{}) { l.log(ports.LevelDebug, msg, args) }
func (l *ConsoleLogger) Info(msg string, args ...interface{})  { l.log(ports.LevelInfo, msg, args) }
func (l *ConsoleLogger) Warn(msg string, args ...interface{})  { l.log(ports.LevelWarn, msg, args) }
func (l *ConsoleLogger) Error(msg string, args ...interface{}) { l.log(ports.LevelError, msg, args) }

// WithComponent returns a logger sharing the output, prefixing lines with
// "[component]".
func (l *ConsoleLogger) WithComponent(component string) ports.Logger {
	c := *l
	c.component = component
	return &c
}

func (l *ConsoleLogger) log(level ports.LogLevel, msg string, args []interface{}) {
	if level < l.level {
		return
	}
	style := levelStyles[level]

	var b strings.Builder
	if l.color {
		b.WriteString(style.color)
	}
	if style.tag != "" {
		b.WriteString(l10n.T(style.tag))
		b.WriteString(": ")
	}
	if l.component != "" {
		if l.color {
			b.WriteString(colorCyan + "[" + l.component + "]" + colorReset + style.color)
		} else {
			b.WriteString("[" + l.component + "]")
		}
		b.WriteByte(' ')
	}
	b.WriteString(l10n.F(msg, args...))
	if l.color && style.color != "" {
		b.WriteString(colorReset)
	}
	b.WriteByte('\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	io.WriteString(l.w, b.String())
}

var _ ports.Logger = (*ConsoleLogger)(nil)
