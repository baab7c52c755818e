// Copyright © 2018 One Concern

package cache

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/oneconcern/assetsync/pkg/bundle"
	"github.com/oneconcern/assetsync/pkg/status"
	"go.uber.org/zap"
)

// LoadedAssetHandle is returned by LoadAsset. It must be handed back to UnloadAsset
// to release the bundle holding the asset.
type LoadedAssetHandle struct {
	Path  string
	Asset *bundle.Asset

	released atomic.Bool
}

// LoadAsset resolves the bundle holding an asset, loads that bundle then the asset itself.
//
// An asset which is not listed in the contents table is reported as status.ErrNotFound,
// without any fetch.
func (c *Cache) LoadAsset(ctx context.Context, assetPath string) (handle *LoadedAssetHandle, err error) {
	if c.MetricsEnabled() {
		defer func(start time.Time) {
			c.m.Usage.UsedAll(start, "LoadAsset")(err)
		}(time.Now())
	}

	id, err := c.table.BundleOf(assetPath)
	if err != nil {
		return nil, err
	}

	b, err := c.Load(ctx, id)
	if err != nil {
		return nil, err
	}

	if c.beforeAssetLoad != nil {
		if err = c.beforeAssetLoad(ctx, assetPath); err != nil {
			_ = c.Unload(id)
			return nil, status.Cancelled(err)
		}
	}

	asset, err := b.Load(ctx, assetPath)
	if err != nil {
		_ = c.Unload(id)
		c.l.Warn("failed to load asset", zap.String("asset", assetPath), zap.String("bundle", id), zap.Error(err))
		return nil, err
	}

	return &LoadedAssetHandle{
		Path:  assetPath,
		Asset: asset,
	}, nil
}

// UnloadAsset releases the bundle holding the asset of some handle.
//
// A handle may only be released once: subsequent calls report status.ErrNotLoaded.
func (c *Cache) UnloadAsset(handle *LoadedAssetHandle) error {
	if handle == nil || !handle.released.CompareAndSwap(false, true) {
		return status.ErrNotLoaded.WrapMessage("asset handle already released")
	}
	id, err := c.table.BundleOf(handle.Path)
	if err != nil {
		return err
	}
	return c.Unload(id)
}
