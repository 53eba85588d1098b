// Package logx is a small levelled logger. Each component gets its own
// prefixed Logger; all of them share one output (console, file or both).
package logx

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
)

// Level orders log severities.
type Level int

const (
	Debug Level = iota
	Info
	Warn
	Error
)

func (l Level) String() string {
	switch l {
	case Debug:
		return "DEBUG"
	case Info:
		return "INFO"
	case Warn:
		return "WARN"
	default:
		return "ERROR"
	}
}

// ParseLevel maps "debug", "info", "warn" and "error"; anything else is Info.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return Debug
	case "warn", "warning":
		return Warn
	case "error":
		return Error
	default:
		return Info
	}
}

// Options configures the shared output.
type Options struct {
	Level   string
	File    string // optional append-only log file
	Console bool
}

var (
	mu      sync.RWMutex
	out     io.Writer = os.Stderr
	level             = Info
	logFile *os.File
)

// Init points every Logger at the configured writers. With neither a file
// nor console enabled, output falls back to stderr.
func Init(o Options) error {
	mu.Lock()
	defer mu.Unlock()

	var ws []io.Writer
	if o.Console {
		ws = append(ws, os.Stderr)
	}
	if o.File != "" {
		f, err := os.OpenFile(o.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file %s: %w", o.File, err)
		}
		if logFile != nil {
			_ = logFile.Close()
		}
		logFile = f
		ws = append(ws, f)
	}
	switch len(ws) {
	case 0:
		out = os.Stderr
	case 1:
		out = ws[0]
	default:
		out = io.MultiWriter(ws...)
	}
	level = ParseLevel(o.Level)
	return nil
}

// SetOutput redirects all loggers; used by tests.
func SetOutput(w io.Writer, l Level) {
	mu.Lock()
	out, level = w, l
	mu.Unlock()
}

// Close releases the log file, if any.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if logFile == nil {
		return nil
	}
	err := logFile.Close()
	logFile = nil
	out = os.Stderr
	return err
}

// Logger writes prefixed, levelled lines to the shared output.
type Logger struct {
	prefix string
}

// New returns a Logger tagging lines with "[name]".
func New(name string) *Logger {
	return &Logger{prefix: "[" + name + "] "}
}

func (l *Logger) logf(lv Level, format string, v ...any) {
	mu.RLock()
	w, min := out, level
	mu.RUnlock()
	if lv < min {
		return
	}
	lg := log.New(w, "", log.LstdFlags)
	lg.Print(lv.String() + " " + l.prefix + fmt.Sprintf(format, v...))
}

func (l *Logger) Debugf(format string, v ...any) { l.logf(Debug, format, v...) }
func (l *Logger) Infof(format string, v ...any)  { l.logf(Info, format, v...) }
func (l *Logger) Warnf(format string, v ...any)  { l.logf(Warn, format, v...) }
func (l *Logger) Errorf(format string, v ...any) { l.logf(Error, format, v...) }

// Fatalf logs at error level, closes the log file and exits with status 1.
func (l *Logger) Fatalf(format string, v ...any) {
	l.logf(Error, "FATAL: "+format, v...)
	_ = Close()
	os.Exit(1)
}
