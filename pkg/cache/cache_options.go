// Copyright © 2018 One Concern

package cache

import (
	"context"

	"github.com/oneconcern/assetsync/pkg/manifest"
	"go.uber.org/zap"
)

// Hook is called before some operation on a named resource. Returning an error aborts the operation.
type Hook func(ctx context.Context, name string) error

// Option to configure the cache
type Option func(*Cache)

// Logger sets a logger for the cache
func Logger(l *zap.Logger) Option {
	return func(c *Cache) {
		if l != nil {
			c.l = l
		}
	}
}

// ContentsTable sets the index resolving assets to bundles, used by LoadAsset and UnloadAsset
func ContentsTable(table *manifest.ContentsTable) Option {
	return func(c *Cache) {
		c.table = table
	}
}

// BeforeFetch sets a hook called before fetching any bundle, e.g. to emulate some latency
func BeforeFetch(hook Hook) Option {
	return func(c *Cache) {
		c.beforeFetch = hook
	}
}

// BeforeAssetLoad sets a hook called before loading an asset from its bundle
func BeforeAssetLoad(hook Hook) Option {
	return func(c *Cache) {
		c.beforeAssetLoad = hook
	}
}

// WithMetrics toggles metrics collection on the cache
func WithMetrics(enabled bool) Option {
	return func(c *Cache) {
		c.EnableMetrics(enabled)
	}
}
