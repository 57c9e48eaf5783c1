// Package gamelog wraps zap in the teacher's terse, one-line-per-event
// style (spec.md §7's logging rules: rule errors never logged above
// debug, security/authorization errors logged at warn, internal
// invariant violations logged at error) — generalizing the teacher's
// raw log.Printf call sites into structured fields without changing
// their register.
package gamelog

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a production zap.Logger at the given level ("debug", "info",
// "warn", "error"; anything else falls back to "info").
func New(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(parseLevel(level))
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
