// Copyright © 2018 One Concern

package updater

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Hook is called before downloading a named file. Returning an error aborts the update.
type Hook func(ctx context.Context, name string) error

// Option to configure the update engine
type Option func(*Engine)

// Logger sets a logger for the engine
func Logger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.l = l
		}
	}
}

// MaxAttempts sets how many times each file download is attempted. Defaults to 1 (no retry).
func MaxAttempts(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxAttempts = n
		}
	}
}

// RetryInterval sets the wait before the first retry. Subsequent waits grow exponentially.
func RetryInterval(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.retryInterval = d
		}
	}
}

// Timeout bounds every single download attempt. Zero means no timeout.
func Timeout(d time.Duration) Option {
	return func(e *Engine) {
		e.timeout = d
	}
}

// BeforeDownload sets a hook called before downloading every bundle, e.g. to emulate some latency
func BeforeDownload(hook Hook) Option {
	return func(e *Engine) {
		e.beforeDownload = hook
	}
}

// WithMetrics toggles metrics collection on the engine
func WithMetrics(enabled bool) Option {
	return func(e *Engine) {
		e.EnableMetrics(enabled)
	}
}
