// pattern: Imperative Shell

package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config holds configuration for the log manager. The settings file
// only exposes level and path; rotation policy is fixed.
type Config struct {
	FilePath string // Path to log file
	Level    string // Minimum log level (debug, info, warn, error)
}

// Rotation and buffering policy. Every gitloom process appends to the
// same file, so the caps bound the shared file, not one process.
const (
	maxLogSizeMB   = 10
	maxLogBackups  = 5
	maxLogAgeDays  = 7
	channelBufSize = 1000
)

// ScopedLogger is the logging handle handed to subsystems. Keys and
// values alternate in args, slog style.
type ScopedLogger struct {
	sugar *zap.SugaredLogger
	scope string
}

// Debug logs at DEBUG level.
func (l *ScopedLogger) Debug(msg string, args ...any) {
	if l.sugar != nil {
		l.sugar.Debugw(msg, args...)
	}
}

// Info logs at INFO level.
func (l *ScopedLogger) Info(msg string, args ...any) {
	if l.sugar != nil {
		l.sugar.Infow(msg, args...)
	}
}

// Warn logs at WARN level.
func (l *ScopedLogger) Warn(msg string, args ...any) {
	if l.sugar != nil {
		l.sugar.Warnw(msg, args...)
	}
}

// Error logs at ERROR level.
func (l *ScopedLogger) Error(msg string, args ...any) {
	if l.sugar != nil {
		l.sugar.Errorw(msg, args...)
	}
}

// With returns a logger that attaches the given key-value pairs to
// every entry.
func (l *ScopedLogger) With(args ...any) *ScopedLogger {
	if l.sugar == nil {
		return l
	}
	return &ScopedLogger{sugar: l.sugar.With(args...), scope: l.scope}
}

// Scope returns the logger's subsystem name.
func (l *ScopedLogger) Scope() string {
	return l.scope
}

// NopLogger returns a logger that discards everything. Constructors
// accepting a nil logger substitute it.
func NopLogger() *ScopedLogger {
	return &ScopedLogger{sugar: zap.NewNop().Sugar()}
}

// Manager owns the process-wide log pipeline: one JSON stream teed to
// the rotated log file and to an in-memory channel for the dashboard
// footer.
type Manager struct {
	base        *zap.Logger
	channelSink *ChannelSink
	fileWriter  *lumberjack.Logger

	mu      sync.RWMutex
	loggers map[string]*ScopedLogger
}

// NewManager builds the pipeline. An unknown level falls back to info.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.FilePath == "" {
		return nil, fmt.Errorf("FilePath is required")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0755); err != nil {
		return nil, err
	}

	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	fileWriter := &lumberjack.Logger{
		Filename:   cfg.FilePath,
		MaxSize:    maxLogSizeMB,
		MaxBackups: maxLogBackups,
		MaxAge:     maxLogAgeDays,
		Compress:   true,
	}
	channelSink := NewChannelSink(channelBufSize)

	base := zap.New(zapcore.NewTee(
		jsonCore(fileWriter, level),
		jsonCore(channelSink, level),
	))

	return &Manager{
		base:        base,
		channelSink: channelSink,
		fileWriter:  fileWriter,
		loggers:     make(map[string]*ScopedLogger),
	}, nil
}

// jsonCore builds a JSON-encoding core over w. The ts/level/logger
// keys written here are the wire format decodeLogLine reads back, both
// for this process's channel sink and for any process tailing the file.
func jsonCore(w io.Writer, level zapcore.Level) zapcore.Core {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.EpochTimeEncoder
	encoderCfg.EncodeLevel = zapcore.LowercaseLevelEncoder
	return zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), zapcore.AddSync(w), level)
}

// For returns the cached logger for a subsystem scope, creating it on
// first use. The scope lands in the "logger" field of every entry.
func (m *Manager) For(scope string) *ScopedLogger {
	m.mu.RLock()
	if logger, ok := m.loggers[scope]; ok {
		m.mu.RUnlock()
		return logger
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()
	if logger, ok := m.loggers[scope]; ok {
		return logger
	}
	logger := &ScopedLogger{sugar: m.base.Named(scope).Sugar(), scope: scope}
	m.loggers[scope] = logger
	return logger
}

// Entries returns the channel for consuming log entries.
func (m *Manager) Entries() <-chan LogEntry {
	return m.channelSink.Entries()
}

// Sync flushes all buffered logs.
func (m *Manager) Sync() error {
	return m.base.Sync()
}

// Close syncs and closes all resources.
func (m *Manager) Close() error {
	_ = m.Sync()
	_ = m.channelSink.Close()
	return m.fileWriter.Close()
}
