// Copyright © 2018 One Concern

package session

import (
	"context"
	"net/url"
	"strings"

	"github.com/oneconcern/assetsync/pkg/locator"
	"github.com/oneconcern/assetsync/pkg/storage"
	"github.com/oneconcern/assetsync/pkg/storage/gcs"
	"github.com/oneconcern/assetsync/pkg/storage/httpstore"
	"github.com/oneconcern/assetsync/pkg/storage/localfs"
	"github.com/oneconcern/assetsync/pkg/storage/sthree"
	"github.com/spf13/afero"
)

// buildStores maps the tiers of a configuration onto stores.
//
// The base tier is read-only, the overlay tier stages its writes. The remote store is instrumented.
func (s *Session) buildStores(ctx context.Context) (locator.Stores, error) {
	var stores locator.Stores

	stores.Base = localfs.NewReadOnly(afero.NewBasePathFs(s.fs, s.cfg.BasePath))

	if err := s.fs.MkdirAll(s.cfg.OverlayPath, 0700); err != nil {
		return stores, ErrInvalidConfig.WrapMessage("overlay path %q", s.cfg.OverlayPath).Wrap(err)
	}
	overlay, err := localfs.NewAtomic(afero.NewBasePathFs(s.fs, s.cfg.OverlayPath))
	if err != nil {
		return stores, err
	}
	stores.Overlay = overlay

	if s.cfg.RemoteURL == "" {
		return stores, nil
	}
	remote, err := s.remoteStore(ctx, s.cfg.RemoteRoot())
	if err != nil {
		return stores, err
	}
	stores.Remote = storage.Instrument(s.tracer, s.l, remote)
	return stores, nil
}

func (s *Session) remoteStore(ctx context.Context, root string) (storage.Store, error) {
	u, err := url.Parse(root)
	if err != nil {
		return nil, ErrInvalidConfig.WrapMessage("remote URL %q", root).Wrap(err)
	}
	prefix := strings.Trim(u.Path, "/")

	switch u.Scheme {
	case "", "file":
		dir := root
		if u.Scheme == "file" {
			dir = u.Path
		}
		return localfs.NewReadOnly(afero.NewBasePathFs(s.fs, dir)), nil
	case "http", "https":
		return httpstore.New(root,
			httpstore.Logger(s.l),
			httpstore.Timeout(s.cfg.DownloadTimeout),
		)
	case "gs":
		return gcs.New(ctx, u.Host, prefix, gcs.Logger(s.l), gcs.ClientOptions(s.gcsOptions...))
	case "s3":
		opts := []sthree.Option{sthree.Prefix(prefix), sthree.Logger(s.l)}
		if s.awsConfig != nil {
			opts = append(opts, sthree.AWSConfig(s.awsConfig))
		}
		return sthree.New(sthree.Bucket(u.Host), opts...)
	default:
		return nil, ErrInvalidConfig.WrapMessage("unsupported remote URL scheme %q", u.Scheme)
	}
}
