// logging/logging.go

// Package logging builds the zap loggers used by the CLI and the dev
// server, plus the HTTP logging middleware.
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// BootstrapLogger returns a console logger for use before config is loaded.
// It logs to stderr at info level.
func BootstrapLogger() *zap.Logger {
	cfg := consoleConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	logger, err := cfg.Build()
	if err != nil {
		// Without a logger nothing can report the failure; fall back to no-op.
		return zap.NewNop()
	}
	return logger
}

// ParseLevel parses a level name case-insensitively.
func ParseLevel(level string) (zapcore.Level, error) {
	l, err := zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return zap.InfoLevel, fmt.Errorf("invalid log level %q", level)
	}
	return l, nil
}

// BuildLogger constructs the logger for env: JSON lines in "prod", a
// colored console encoder otherwise. Output goes to stderr so that
// commands like `termsite importmap` keep stdout clean.
func BuildLogger(level, env string) (*zap.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}

	var cfg zap.Config
	if env == "prod" {
		cfg = zap.NewProductionConfig()
		cfg.Encoding = "json"
		// RFC-3339 timestamps for log shippers.
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		cfg = consoleConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	// stdout belongs to command output (importmap JSON, deploy lists).
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	return cfg.Build()
}

func consoleConfig() zap.Config {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	// Build errors are wrapped with their page and hook; stacks add noise.
	cfg.DisableStacktrace = true
	cfg.DisableCaller = true
	return cfg
}
