// Copyright © 2018 One Concern

// Package dlogger builds the zap loggers used by the CLI, with log levels
package dlogger

import (
	"github.com/oneconcern/assetsync/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	// LogLevelInfo sets the log level to info
	LogLevelInfo = "info"

	// LogLevelDebug sets the log level to debug
	LogLevelDebug = "debug"

	// LogLevelWarn sets the log level to warn
	LogLevelWarn = "warn"

	// LogLevelError sets the log level to error
	LogLevelError = "error"

	// LogLevelNone sets logger to no logging
	LogLevelNone = "none"
)

// ErrInvalidLevel is returned for an unknown log level
var ErrInvalidLevel = errors.New("invalid log level")

// GetLogger returns a JSON zap logger writing to stderr at the specified level.
// LogLevelNone yields a no-op logger.
func GetLogger(logLevel string) (*zap.Logger, error) {
	if logLevel == LogLevelNone {
		return zap.NewNop(), nil
	}
	lvl, err := zapcore.ParseLevel(logLevel)
	if err != nil {
		return nil, ErrInvalidLevel.WrapMessage("%q", logLevel)
	}

	zapConfig := zap.NewProductionConfig()
	zapConfig.Level = zap.NewAtomicLevelAt(lvl)
	zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return zapConfig.Build()
}

// MustGetLogger returns a zap logger with the specified level or panics
func MustGetLogger(logLevel string) *zap.Logger {
	l, err := GetLogger(logLevel)
	if err != nil {
		panic(err)
	}
	return l
}
