// Copyright © 2018 One Concern

package metrics

import (
	"time"

	"go.opencensus.io/stats/view"
	"go.uber.org/zap"
)

// Option configures the metrics registry
type Option func(*registry)

// WithBasePath prefixes all registered locations
func WithBasePath(location string) Option {
	return func(r *registry) {
		r.basePath = location
	}
}

// WithExporter conveys metrics to some backend. The default exporter writes metrics to the log.
func WithExporter(exporter view.Exporter) Option {
	return func(r *registry) {
		if exporter != nil {
			r.exporter = flusher(exporter)
		}
	}
}

// WithReportingPeriod sets how often views are exported in the background.
// Periods under one second are ignored: the opencensus default (10s) applies.
func WithReportingPeriod(d time.Duration) Option {
	return func(r *registry) {
		r.period = d
	}
}

// WithLogger sets the logger used by the default exporter
func WithLogger(logger *zap.Logger) Option {
	return func(r *registry) {
		if logger != nil {
			r.l = logger
		}
	}
}
