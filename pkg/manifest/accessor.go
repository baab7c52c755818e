// Copyright © 2018 One Concern

package manifest

import (
	"bytes"
	"context"

	"github.com/oneconcern/assetsync/pkg/bundle"
	"github.com/oneconcern/assetsync/pkg/status"
	"github.com/oneconcern/assetsync/pkg/storage"
	storagestatus "github.com/oneconcern/assetsync/pkg/storage/status"
)

func readObject(ctx context.Context, store storage.Store, name string) ([]byte, error) {
	data, err := storage.ReadAll(ctx, store, name)
	switch {
	case err == nil:
		return data, nil
	case storagestatus.IsNotExist(err):
		return nil, status.ErrTierAbsent.WrapMessage("%s/%s", store, name).Wrap(err)
	case ctx.Err() != nil:
		return nil, status.Cancelled(ctx.Err())
	default:
		return nil, status.ErrFetchFailed.WrapMessage("%s/%s", store, name).Wrap(err)
	}
}

// LoadVersionManifest reads the version manifest held by a storage tier
func LoadVersionManifest(ctx context.Context, store storage.Store, name string) (*VersionManifest, error) {
	data, err := readObject(ctx, store, name)
	if err != nil {
		return nil, err
	}
	return DecodeVersionManifest(data)
}

// SaveVersionManifest writes a version manifest to a storage tier, replacing the former one
func SaveVersionManifest(ctx context.Context, store storage.Store, name string, m *VersionManifest) error {
	data, err := m.Encode()
	if err != nil {
		return err
	}
	return store.Put(ctx, name, bytes.NewReader(data), storage.OverWrite)
}

// LoadContentsTable reads the contents table held by a storage tier
func LoadContentsTable(ctx context.Context, store storage.Store, name string) (*ContentsTable, error) {
	data, err := readObject(ctx, store, name)
	if err != nil {
		return nil, err
	}
	return DecodeContentsTable(data)
}

// LoadRoot reads the root manifest from the root container held by a storage tier
func LoadRoot(ctx context.Context, store storage.Store, name string, opener bundle.Opener) (*RootManifest, error) {
	data, err := readObject(ctx, store, name)
	if err != nil {
		return nil, err
	}
	container, err := opener.Open(name, data)
	if err != nil {
		return nil, status.ErrDecode.WrapMessage("root container %q", name).Wrap(err)
	}
	defer func() {
		_ = container.Close()
	}()
	return DecodeRoot(ctx, container)
}
