// Package logging provides the levelled, structured logger used across the
// toolkit. Entries are written as JSON lines by zap.
package logging

import (
	"io"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the logging contract components depend on.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	// With returns a child logger carrying fields on every entry.
	With(fields ...Field) Logger
	SetLevel(level Level)
	GetLevel() Level
}

// JSONLogger writes JSON lines through zap. Children created by With share
// the parent's level.
type JSONLogger struct {
	z     *zap.Logger
	level zap.AtomicLevel
}

var encoderConfig = zapcore.EncoderConfig{
	TimeKey:        "time",
	LevelKey:       "level",
	MessageKey:     "msg",
	LineEnding:     zapcore.DefaultLineEnding,
	EncodeTime:     zapcore.RFC3339NanoTimeEncoder,
	EncodeLevel:    zapcore.CapitalLevelEncoder,
	EncodeDuration: zapcore.StringDurationEncoder,
}

// NewJSONLogger logs to w at the given level.
func NewJSONLogger(w io.Writer, level Level) *JSONLogger {
	atom := zap.NewAtomicLevelAt(level.zap())
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), zapcore.AddSync(w), atom)
	return &JSONLogger{z: zap.New(core), level: atom}
}

// NewNopLogger discards every entry.
func NewNopLogger() *JSONLogger {
	return &JSONLogger{z: zap.NewNop(), level: zap.NewAtomicLevelAt(zapcore.ErrorLevel)}
}

func (l *JSONLogger) Debug(msg string, fields ...Field) { l.z.Debug(msg, fields...) }
func (l *JSONLogger) Info(msg string, fields ...Field)  { l.z.Info(msg, fields...) }
func (l *JSONLogger) Warn(msg string, fields ...Field)  { l.z.Warn(msg, fields...) }
func (l *JSONLogger) Error(msg string, fields ...Field) { l.z.Error(msg, fields...) }

func (l *JSONLogger) With(fields ...Field) Logger {
	return &JSONLogger{z: l.z.With(fields...), level: l.level}
}

func (l *JSONLogger) SetLevel(level Level) { l.level.SetLevel(level.zap()) }
func (l *JSONLogger) GetLevel() Level      { return fromZap(l.level.Level()) }

// Sync flushes buffered entries.
func (l *JSONLogger) Sync() error {
	return l.z.Sync()
}

var (
	defaultMu     sync.RWMutex
	defaultOnce   sync.Once
	defaultLogger Logger
)

// DefaultLogger returns the process-wide logger. Unless replaced with
// SetDefaultLogger it writes to stderr at the level named by LOG_LEVEL
// (INFO when unset).
func DefaultLogger() Logger {
	defaultOnce.Do(func() {
		defaultMu.Lock()
		defer defaultMu.Unlock()
		if defaultLogger == nil {
			defaultLogger = NewJSONLogger(os.Stderr, ParseLevel(os.Getenv("LOG_LEVEL")))
		}
	})
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

// SetDefaultLogger replaces the process-wide logger.
func SetDefaultLogger(logger Logger) {
	defaultOnce.Do(func() {})
	defaultMu.Lock()
	defaultLogger = logger
	defaultMu.Unlock()
}

// OrDefault returns logger, or DefaultLogger when it is nil.
func OrDefault(logger Logger) Logger {
	if logger == nil {
		return DefaultLogger()
	}
	return logger
}

// Timer logs the latency of an operation when it ends.
type Timer struct {
	logger Logger
	msg    string
	start  time.Time
	fields []Field
}

// StartTimer starts timing msg. fields are attached to the final entry.
func StartTimer(logger Logger, msg string, fields ...Field) *Timer {
	return &Timer{logger: OrDefault(logger), msg: msg, start: time.Now(), fields: fields}
}

// Elapsed returns the time since StartTimer.
func (t *Timer) Elapsed() time.Duration {
	return time.Since(t.start)
}

// End logs the operation at INFO.
func (t *Timer) End() {
	t.EndWithLevel(InfoLevel, t.msg)
}

// EndWithLevel logs msg at level with the latency attached.
func (t *Timer) EndWithLevel(level Level, msg string) {
	fields := append(append([]Field(nil), t.fields...), Latency(t.Elapsed()))
	switch level {
	case DebugLevel:
		t.logger.Debug(msg, fields...)
	case WarnLevel:
		t.logger.Warn(msg, fields...)
	case ErrorLevel:
		t.logger.Error(msg, fields...)
	default:
		t.logger.Info(msg, fields...)
	}
}

// EndError logs the operation at ERROR with err and the latency attached.
func (t *Timer) EndError(err error) {
	fields := append(append([]Field(nil), t.fields...), Latency(t.Elapsed()), Error(err))
	t.logger.Error(t.msg, fields...)
}
