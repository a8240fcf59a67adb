// Package telemetry builds the daemon's structured logger, grounded on the
// same go.uber.org/zap stack used for structured logging, keyed off a
// --log-level flag the way the broader pack wires zap up.
package telemetry

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds a zap.Logger for the given level name ("debug", "info",
// "warn", "error"). Level below "info" uses zap's development encoder
// (human-readable, colorized level); "info" and above uses the production
// JSON encoder suited for log aggregation.
func NewLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parsing log level %q: %w", level, err)
	}

	var cfg zap.Config
	if lvl <= zapcore.DebugLevel {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return logger, nil
}

// WithSession returns a child logger carrying the session_id field. No code
// in this module calls it; the engine does not log per session.
func WithSession(log *zap.Logger, sessionID string) *zap.Logger {
	return log.With(zap.String("session_id", sessionID))
}
