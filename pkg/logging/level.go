package logging

import (
	"strings"

	"go.uber.org/zap/zapcore"
)

// Level is the minimum severity a logger emits.
type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

var levelNames = [...]string{"DEBUG", "INFO", "WARN", "ERROR"}

var zapLevels = [...]zapcore.Level{zapcore.DebugLevel, zapcore.InfoLevel, zapcore.WarnLevel, zapcore.ErrorLevel}

// String implements fmt.Stringer.
func (l Level) String() string {
	if l < DebugLevel || l > ErrorLevel {
		return "UNKNOWN"
	}
	return levelNames[l]
}

func (l Level) zap() zapcore.Level {
	if l < DebugLevel || l > ErrorLevel {
		return zapcore.InfoLevel
	}
	return zapLevels[l]
}

func fromZap(z zapcore.Level) Level {
	switch {
	case z <= zapcore.DebugLevel:
		return DebugLevel
	case z == zapcore.InfoLevel:
		return InfoLevel
	case z == zapcore.WarnLevel:
		return WarnLevel
	default:
		return ErrorLevel
	}
}

// ParseLevel reads a level name case-insensitively. "warning" is accepted
// for WARN; anything unrecognised is INFO.
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return DebugLevel
	case "WARN", "WARNING":
		return WarnLevel
	case "ERROR":
		return ErrorLevel
	default:
		return InfoLevel
	}
}
