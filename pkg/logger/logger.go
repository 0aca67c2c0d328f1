// Package logger provides structured logging for oliviabot.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

var (
	global   *Logger
	globalMu sync.RWMutex
	initOnce sync.Once
)

// Version is stamped into every record as the "version" attribute.
var Version = "dev"

// LogLevel names a logging level in configuration
type LogLevel string

const (
	LevelDebug LogLevel = "debug"
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
)

// Logger is an slog.Logger that remembers its component
type Logger struct {
	*slog.Logger
	component string
}

// Config selects level, encoding and destination of a logger.
type Config struct {
	Level     string
	Format    string // "json" or "text"
	Output    string // "stdout", "stderr", or file path
	Component string
}

func (c Config) withDefaults() Config {
	if c.Level == "" {
		c.Level = string(LevelInfo)
	}
	if c.Format == "" {
		c.Format = "text"
	}
	if c.Output == "" {
		c.Output = "stdout"
	}
	if c.Component == "" {
		c.Component = "bot"
	}
	return c
}

// ParseLevel converts a level name to a slog.Level. Unknown names map to info.
func ParseLevel(s string) slog.Level {
	switch LogLevel(strings.ToLower(s)) {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn, "warning":
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// openOutput resolves "stdout", "stderr" or an append-only log file.
func openOutput(output string) (io.Writer, error) {
	switch output {
	case "", "stdout":
		return os.Stdout, nil
	case "stderr":
		return os.Stderr, nil
	}
	if err := os.MkdirAll(filepath.Dir(output), 0755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}

// New builds a logger writing to cfg.Output.
func New(cfg Config) (*Logger, error) {
	w, err := openOutput(cfg.Output)
	if err != nil {
		return nil, err
	}
	return NewWithWriter(w, cfg), nil
}

// NewWithWriter builds a logger that writes to w, ignoring cfg.Output.
func NewWithWriter(w io.Writer, cfg Config) *Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}

	var h slog.Handler = slog.NewTextHandler(w, opts)
	if cfg.Format == "json" {
		h = slog.NewJSONHandler(w, opts)
	}

	return &Logger{
		Logger: slog.New(h).With(
			"service", "oliviabot",
			"component", cfg.Component,
			"version", Version,
		),
		component: cfg.Component,
	}
}

// Initialize installs the process-wide logger. Only the first call has any
// effect; it also becomes the slog default.
func Initialize(cfg Config) error {
	var err error
	initOnce.Do(func() {
		cfg = cfg.withDefaults()
		var l *Logger
		if l, err = New(cfg); err != nil {
			err = fmt.Errorf("initialize logger: %w", err)
			return
		}

		globalMu.Lock()
		global = l
		globalMu.Unlock()
		slog.SetDefault(l.Logger)

		l.Debug("logger initialized", "level", cfg.Level, "format", cfg.Format, "output", cfg.Output)
	})
	return err
}

// Global returns the installed logger, or a stdout text logger before
// Initialize has run.
func Global() *Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	if global != nil {
		return global
	}
	return NewWithWriter(os.Stdout, Config{Component: "bot"})
}

func (l *Logger) Component() string {
	return l.component
}

// WithComponent returns a child logger with the component attribute replaced
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{Logger: l.Logger.With("component", component), component: component}
}

// WithCommand tags records with the invoked command name
func (l *Logger) WithCommand(name string) *Logger {
	return &Logger{Logger: l.Logger.With("command", name), component: l.component}
}

// WithReportID tags records with a diagnostic report ID
func (l *Logger) WithReportID(id string) *Logger {
	return &Logger{Logger: l.Logger.With("report_id", id), component: l.component}
}

// Warn logs through the global logger
func Warn(msg string, args ...any) {
	Global().Warn(msg, args...)
}
