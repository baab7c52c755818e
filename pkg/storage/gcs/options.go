// Copyright © 2018 One Concern

package gcs

import (
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// Option is a functor to pass optional parameters to the gcs store
type Option func(*gcs)

// Logger specifies a logger for this store
func Logger(logger *zap.Logger) Option {
	return func(g *gcs) {
		if logger != nil {
			g.l = logger
		}
	}
}

// ClientOptions passes extra options to the google cloud client, e.g. credentials or endpoint
func ClientOptions(opts ...option.ClientOption) Option {
	return func(g *gcs) {
		g.clientOpts = append(g.clientOpts, opts...)
	}
}
