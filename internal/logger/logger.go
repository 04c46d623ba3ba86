// Package logger provides the process-wide logger for docqa.
// Console output is gated by verbose mode (enabled via the --verbose flag) so
// the answer pipeline can be traced step by step; errors are always printed.
// An optional JSON file sink with size-based rotation records info and above
// regardless of verbosity.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	mu       sync.RWMutex
	verbose  bool
	output   io.Writer = os.Stderr
	fileSink *lumberjack.Logger
	base     = build(false, os.Stderr, nil)
)

// Rotation limits for the file sink.
const (
	maxSizeMB  = 10
	maxBackups = 5
	maxAgeDays = 30
)

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
	base = build(verbose, output, fileSink)
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the output writer for console logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
	base = build(verbose, output, fileSink)
}

// EnableFile adds a rotated JSON log file at path.
// Passing an empty path disables the file sink.
func EnableFile(path string) error {
	mu.Lock()
	defer mu.Unlock()

	if fileSink != nil {
		if err := fileSink.Close(); err != nil {
			return fmt.Errorf("close log file: %w", err)
		}
		fileSink = nil
	}
	if path != "" {
		fileSink = &lumberjack.Logger{
			Filename:   path,
			MaxSize:    maxSizeMB,
			MaxBackups: maxBackups,
			MaxAge:     maxAgeDays,
			Compress:   true,
		}
	}
	base = build(verbose, output, fileSink)
	return nil
}

// Close flushes buffered entries and closes the file sink, if any.
func Close() error {
	mu.Lock()
	defer mu.Unlock()

	_ = base.Sync() //nolint:errcheck // syncing stderr fails on some platforms
	if fileSink == nil {
		return nil
	}
	err := fileSink.Close()
	fileSink = nil
	base = build(verbose, output, nil)
	return err
}

// Zap returns the structured logger behind the package functions.
// Use it where key/value fields matter, such as HTTP access logs.
func Zap() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

// Debug prints a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	Zap().Debug(fmt.Sprintf(format, args...))
}

// Info prints an informational message if verbose mode is enabled.
func Info(format string, args ...any) {
	Zap().Info(fmt.Sprintf(format, args...))
}

// Warn prints a warning message if verbose mode is enabled.
func Warn(format string, args ...any) {
	Zap().Warn(fmt.Sprintf(format, args...))
}

// Error prints an error message regardless of verbose mode.
func Error(format string, args ...any) {
	Zap().Error(fmt.Sprintf(format, args...))
}

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}

func build(v bool, w io.Writer, file *lumberjack.Logger) *zap.Logger {
	console := zapcore.NewCore(
		zapcore.NewConsoleEncoder(consoleEncoderConfig()),
		zapcore.Lock(zapcore.AddSync(w)),
		zap.LevelEnablerFunc(func(l zapcore.Level) bool {
			return v || l >= zapcore.ErrorLevel
		}),
	)
	if file == nil {
		return zap.New(console)
	}

	fileCore := zapcore.NewCore(
		zapcore.NewJSONEncoder(fileEncoderConfig()),
		zapcore.AddSync(file),
		zap.InfoLevel,
	)
	return zap.New(zapcore.NewTee(console, fileCore))
}

// consoleEncoderConfig renders "[LEVEL] message" lines with any fields appended.
func consoleEncoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		MessageKey: "message",
		LevelKey:   "level",
		LineEnding: zapcore.DefaultLineEnding,
		EncodeLevel: func(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
			enc.AppendString("[" + l.CapitalString() + "]")
		},
		ConsoleSeparator: " ",
	}
}

func fileEncoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "timestamp"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.MessageKey = "message"
	cfg.LevelKey = "level"
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	return cfg
}
