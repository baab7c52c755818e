// Copyright © 2018 One Concern

package session

import (
	"context"

	"github.com/oneconcern/assetsync/pkg/bundle"
	"github.com/oneconcern/assetsync/pkg/errors"
	"github.com/oneconcern/assetsync/pkg/locator"
	"github.com/oneconcern/assetsync/pkg/status"
	"github.com/oneconcern/assetsync/pkg/storage"
	"go.uber.org/zap"
)

// storeFetcher reads bundles from the store backing their tier
type storeFetcher struct {
	stores locator.Stores
	opener bundle.Opener
	l      *zap.Logger
}

func (f *storeFetcher) Fetch(ctx context.Context, loc locator.Location) (bundle.Bundle, error) {
	store := f.stores.For(loc.Tier)
	if store == nil {
		return nil, status.ErrInconsistent.WrapMessage("no store for tier %v, required by %q", loc.Tier, loc.Name)
	}

	data, err := storage.ReadAll(ctx, store, loc.Name)
	if err != nil {
		if ctx.Err() != nil {
			return nil, status.Cancelled(ctx.Err())
		}
		return nil, status.ErrFetchFailed.WrapMessage("%s", loc.URI).Wrap(err)
	}
	f.l.Debug("bundle fetched", zap.String("uri", loc.URI), zap.Int("size", len(data)))

	b, err := f.opener.Open(loc.Name, data)
	if err != nil {
		if errors.Is(err, status.ErrDecode) {
			return nil, err
		}
		return nil, status.ErrDecode.WrapMessage("bundle %q", loc.Name).Wrap(err)
	}
	return b, nil
}
