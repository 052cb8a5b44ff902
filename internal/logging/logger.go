// Package logging builds zap loggers for the applink client packages.
//
// Unlike a daemon, a client library has no business owning a global logger:
// the mqtt and amqp constructors accept a *zap.Logger and fall back to
// zap.NewNop() when the caller doesn't supply one (httpapi does not log). This package only
// centralizes the encoder/level wiring so every caller gets the same
// conventions (ISO8601 timestamps, caller info, error-level stacktraces).
package logging

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config selects the verbosity and encoding of a logger built by New.
type Config struct {
	Level  string // debug, info, warn, error
	Format string // json, text
}

// New builds a *zap.Logger from cfg. It never returns an error: unknown
// levels fall back to info, unknown formats fall back to console encoding.
func New(cfg Config) *zap.Logger {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "time"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

	var encoder zapcore.Encoder
	if strings.EqualFold(cfg.Format, "json") {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	} else {
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), parseLevel(cfg.Level))
	return zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// OrNop returns l, or a no-op logger if l is nil. Every package in this
// module that accepts an optional *zap.Logger should route it through here.
func OrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
