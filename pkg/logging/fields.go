package logging

import (
	"time"

	"go.uber.org/zap"
)

// Field is a structured key/value attached to a log entry.
type Field = zap.Field

func String(key, value string) Field          { return zap.String(key, value) }
func Int(key string, value int) Field         { return zap.Int(key, value) }
func Float64(key string, value float64) Field { return zap.Float64(key, value) }
func Bool(key string, value bool) Field       { return zap.Bool(key, value) }
func Any(key string, value any) Field         { return zap.Any(key, value) }

// Duration is encoded as a Go duration string ("1.5s").
func Duration(key string, value time.Duration) Field { return zap.Duration(key, value) }

// Error attaches err under "error". A nil error adds nothing.
func Error(err error) Field { return zap.NamedError("error", err) }

// Domain fields.

func Component(name string) Field   { return String("component", name) }
func NodeID(id string) Field        { return String("node_id", id) }
func ModelID(id string) Field       { return String("model_id", id) }
func Count(n int) Field             { return Int("count", n) }
func Path(p string) Field           { return String("path", p) }
func Latency(d time.Duration) Field { return Duration("latency", d) }
