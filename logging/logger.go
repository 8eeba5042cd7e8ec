// Package logging wraps log/slog for the whole service: text to the console,
// JSON to weekly rotating files, and an HTTP request logging middleware.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/giygas/prescription-api/config"
)

// LoggingService owns the global logger and the file behind it.
type LoggingService struct {
	Logger         *slog.Logger
	rotatingLogger *RotatingLogger
}

// DefaultLoggingService is used by the package-level helpers.
var DefaultLoggingService *LoggingService

// InitLogger initializes the global logger with development defaults.
func InitLogger(logDir string) {
	InitLoggerWithRetentionAndSize(logDir, config.EnvDevelopment, "", 4, defaultMaxFileSize)
}

// InitLoggerWithRetentionAndSize initializes the global logger. logLevel
// overrides the environment's console level; the file always gets debug.
func InitLoggerWithRetentionAndSize(logDir string, env config.Environment, logLevel string, retentionWeeks int, maxFileSize int64) {
	if DefaultLoggingService != nil {
		DefaultLoggingService.Close()
	}
	DefaultLoggingService = newLoggingService(logDir, env, logLevel, retentionWeeks, maxFileSize, false)
	slog.SetDefault(DefaultLoggingService.Logger)
}

// InitConsoleLogger installs a text-only global logger writing to w, for
// command line tools whose stdout carries results.
func InitConsoleLogger(w io.Writer, logLevel string) {
	if DefaultLoggingService != nil {
		DefaultLoggingService.Close()
	}
	DefaultLoggingService = &LoggingService{
		Logger: slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: parseLogLevel(logLevel)})),
	}
	slog.SetDefault(DefaultLoggingService.Logger)
}

func newLoggingService(logDir string, env config.Environment, logLevel string, retentionWeeks int, maxFileSize int64, verbose bool) *LoggingService {
	consoleHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: GetConsoleLogLevel(env, logLevel, verbose),
	})

	if err := os.MkdirAll(logDir, 0o755); err != nil {
		logger := slog.New(consoleHandler)
		logger.Error("Failed to create logs directory, logging to console only", "error", err)
		return &LoggingService{Logger: logger}
	}

	rl := NewRotatingLoggerWithSizeLimit(logDir, retentionWeeks, maxFileSize)
	rl.startCleanup(24 * time.Hour)

	fileHandler := slog.NewJSONHandler(rl, &slog.HandlerOptions{
		Level: GetFileLogLevel(),
	})

	return &LoggingService{
		Logger:         slog.New(&multiHandler{handlers: []slog.Handler{consoleHandler, fileHandler}}),
		rotatingLogger: rl,
	}
}

// Close flushes and closes the log file, if any.
func (s *LoggingService) Close() {
	if s != nil && s.rotatingLogger != nil {
		_ = s.rotatingLogger.Close()
	}
}

// Close closes the global logging service.
func Close() {
	DefaultLoggingService.Close()
}

// parseLogLevel maps a LOG_LEVEL value to a slog level, info when unknown.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// GetConsoleLogLevel picks the console level. Tests stay quiet unless run
// verbose; an explicit level wins everywhere else.
func GetConsoleLogLevel(env config.Environment, logLevel string, verbose bool) slog.Level {
	if env == config.EnvTest {
		if verbose {
			return slog.LevelInfo
		}
		return slog.LevelError
	}
	if logLevel != "" {
		return parseLogLevel(logLevel)
	}
	switch env {
	case config.EnvProduction, config.EnvStaging:
		return slog.LevelWarn
	}
	return slog.LevelInfo
}

// GetFileLogLevel is the level of the JSON file handler.
func GetFileLogLevel() slog.Level {
	return slog.LevelDebug
}

// multiHandler fans records out to several handlers.
type multiHandler struct {
	handlers []slog.Handler
}

func (m *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m *multiHandler) Handle(ctx context.Context, r slog.Record) error {
	var firstErr error
	for _, h := range m.handlers {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (m *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		next[i] = h.WithAttrs(attrs)
	}
	return &multiHandler{handlers: next}
}

func (m *multiHandler) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		next[i] = h.WithGroup(name)
	}
	return &multiHandler{handlers: next}
}

var fallbackLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))

func logger() *slog.Logger {
	if DefaultLoggingService == nil || DefaultLoggingService.Logger == nil {
		return fallbackLogger
	}
	return DefaultLoggingService.Logger
}

// Logger returns the global logger, or a console logger before InitLogger.
func Logger() *slog.Logger {
	return logger()
}

func Info(msg string, args ...any) {
	logger().Info(msg, args...)
}

func Error(msg string, args ...any) {
	logger().Error(msg, args...)
}

func Warn(msg string, args ...any) {
	logger().Warn(msg, args...)
}

func Debug(msg string, args ...any) {
	logger().Debug(msg, args...)
}
