// Copyright © 2018 One Concern

package updater

import (
	"context"
	"io"
	"time"

	"github.com/cenkalti/backoff/v4"
	units "github.com/docker/go-units"
	"github.com/oneconcern/assetsync/pkg/errors"
	"github.com/oneconcern/assetsync/pkg/locator"
	"github.com/oneconcern/assetsync/pkg/manifest"
	"github.com/oneconcern/assetsync/pkg/metrics"
	"github.com/oneconcern/assetsync/pkg/status"
	"github.com/oneconcern/assetsync/pkg/storage"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var errSizeMismatch = errors.New("downloaded size does not match the version manifest")

const (
	defaultRetryInterval = 100 * time.Millisecond
	maxRetryInterval     = 30 * time.Second
)

// Names of the package files found on every tier
type Names struct {
	Root            string
	ContentsTable   string
	VersionManifest string
}

// Companion is the name of the human-readable companion of the root container
func (n Names) Companion() string {
	return n.Root + manifest.CompanionSuffix
}

// Engine downloads updated bundles from the remote tier to the overlay tier.
//
// The overlay store is expected to stage its writes, so an interrupted download leaves no partial file.
type Engine struct {
	stores locator.Stores
	names  Names

	maxAttempts    int
	retryInterval  time.Duration
	timeout        time.Duration
	beforeDownload Hook
	l              *zap.Logger

	metrics.Enable
	m *M
}

// New update engine over the tiers of a package
func New(stores locator.Stores, names Names, opts ...Option) *Engine {
	e := &Engine{
		stores:        stores,
		names:         names,
		maxAttempts:   1,
		retryInterval: defaultRetryInterval,
		l:             zap.NewNop(),
	}
	for _, apply := range opts {
		apply(e)
	}
	if e.MetricsEnabled() {
		e.m = e.EnsureMetrics("updater", &M{}).(*M)
	}
	return e
}

// LocalManifest is the version manifest of the overlay tier, or the one of the base tier if the overlay holds none
func (e *Engine) LocalManifest(ctx context.Context) (*manifest.VersionManifest, error) {
	local, err := manifest.LoadVersionManifest(ctx, e.stores.Overlay, e.names.VersionManifest)
	if err == nil {
		return local, nil
	}
	if !errors.Is(err, status.ErrTierAbsent) {
		return nil, err
	}
	if e.stores.Base == nil {
		e.l.Debug("no local version manifest: starting from scratch")
		return manifest.Empty(), nil
	}
	e.l.Debug("no overlay version manifest: falling back to base", zap.Stringer("store", e.stores.Base))
	return manifest.LoadVersionManifest(ctx, e.stores.Base, e.names.VersionManifest)
}

// RemoteManifest is the version manifest of the remote tier
func (e *Engine) RemoteManifest(ctx context.Context) (*manifest.VersionManifest, error) {
	return manifest.LoadVersionManifest(ctx, e.stores.Remote, e.names.VersionManifest)
}

// UpdateSet computes the bundles to be downloaded, along with the local manifest it was computed against.
//
// Local and remote manifests are fetched concurrently.
func (e *Engine) UpdateSet(ctx context.Context) (*manifest.VersionManifest, []manifest.VersionEntry, error) {
	var local, remote *manifest.VersionManifest
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		remote, err = e.RemoteManifest(gctx)
		return err
	})
	g.Go(func() (err error) {
		local, err = e.LocalManifest(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return local, ComputeUpdateSet(local, remote), nil
}

// CalculateDownloadSize is the total byte size of all bundles an update would download. It has no side effect.
func (e *Engine) CalculateDownloadSize(ctx context.Context) (int64, error) {
	_, updates, err := e.UpdateSet(ctx)
	if err != nil {
		return 0, err
	}
	size := DownloadSize(updates)
	e.l.Info("download size calculated",
		zap.Int("bundles", len(updates)),
		zap.String("size", units.HumanSize(float64(size))),
	)
	return size, nil
}

// DownloadUpdated downloads all updated bundles in sequence, then the root container, its companion
// and the contents table.
//
// onEach is called after each bundle has landed on the overlay tier. Whatever the outcome,
// the local manifest is saved to the overlay tier: it lists exactly the bundles which were downloaded.
func (e *Engine) DownloadUpdated(ctx context.Context, onEach func(manifest.VersionEntry)) (err error) {
	if e.MetricsEnabled() {
		defer func(start time.Time) {
			e.m.Usage.UsedAll(start, "DownloadUpdated")(err)
		}(time.Now())
	}

	local, updates, err := e.UpdateSet(ctx)
	if err != nil {
		return err
	}
	e.l.Info("updating package",
		zap.Int("bundles", len(updates)),
		zap.String("size", units.HumanSize(float64(DownloadSize(updates)))),
		zap.Stringer("from", e.stores.Remote),
		zap.Stringer("to", e.stores.Overlay),
	)

	defer func() {
		// the manifest is saved even when the update was cancelled
		saveCtx := context.WithoutCancel(ctx)
		if serr := manifest.SaveVersionManifest(saveCtx, e.stores.Overlay, e.names.VersionManifest, local); serr != nil {
			e.l.Error("could not save the local version manifest", zap.Error(serr))
			if err == nil {
				err = serr
			}
		}
	}()

	for _, target := range updates {
		if err = ctx.Err(); err != nil {
			return status.Cancelled(err)
		}
		if e.beforeDownload != nil {
			if err = e.beforeDownload(ctx, target.FilePath); err != nil {
				return status.Cancelled(err)
			}
		}

		if err = e.download(ctx, target.FilePath, target.ByteSize, e.maxAttempts); err != nil {
			return err
		}

		local.Set(target.FilePath, target)
		if e.MetricsEnabled() {
			e.m.Volume.Bundles.Inc("download")
			e.m.Volume.Bundles.Size(target.ByteSize, "download")
		}
		if onEach != nil {
			onEach(target)
		}
	}

	for _, name := range []string{e.names.Root, e.names.Companion(), e.names.ContentsTable} {
		if err = e.download(ctx, name, 0, e.maxAttempts); err != nil {
			return err
		}
	}

	e.l.Info("package updated", zap.Int("bundles", len(updates)))
	return nil
}

// Download a file from the remote tier to the overlay tier, with up to maxAttempts attempts.
//
// Cancellation is never retried. Failure after all attempts reports status.ErrFetchFailed.
func (e *Engine) Download(ctx context.Context, name string, maxAttempts int) error {
	return e.download(ctx, name, 0, maxAttempts)
}

func (e *Engine) download(ctx context.Context, name string, expectedSize int64, maxAttempts int) error {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var (
		attempt int
		lastErr error
	)
	operation := func() error {
		attempt++
		e.l.Debug("downloading", zap.String("file", name), zap.Int("attempt", attempt))

		start := time.Now()
		size, err := e.attempt(ctx, name, expectedSize)
		if e.MetricsEnabled() {
			e.m.Volume.IO.IORecord(start, "download")(size, err)
		}
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return backoff.Permanent(status.Cancelled(ctx.Err()))
		}

		lastErr = err
		e.l.Warn("download attempt failed",
			zap.String("file", name),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", maxAttempts),
			zap.Error(err),
		)
		return err
	}

	err := backoff.Retry(operation, backoff.WithContext(
		backoff.WithMaxRetries(e.retryPolicy(), uint64(maxAttempts-1)),
		ctx,
	))
	switch {
	case err == nil:
		return nil
	case status.IsCancelled(err):
		return err
	case ctx.Err() != nil:
		// cancelled while waiting for the next attempt
		return status.Cancelled(ctx.Err())
	default:
		return status.ErrFetchFailed.WrapMessage("%s/%s", e.stores.Remote, name).Wrap(lastErr)
	}
}

// retryPolicy spaces out attempts exponentially, from the configured retry interval
func (e *Engine) retryPolicy() backoff.BackOff {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = e.retryInterval
	policy.MaxInterval = maxRetryInterval
	policy.MaxElapsedTime = 0
	return policy
}

func (e *Engine) attempt(ctx context.Context, name string, expectedSize int64) (int64, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	reader, err := e.stores.Remote.Get(ctx, name)
	if err != nil {
		return 0, err
	}
	defer reader.Close()

	counter := &storage.CountingReader{Reader: storage.ContextReader{Ctx: ctx, Reader: reader}}
	var source io.Reader = counter
	if expectedSize > 0 {
		source = &sizeGuard{CountingReader: counter, expected: expectedSize}
	}

	err = e.stores.Overlay.Put(ctx, name, source, storage.OverWrite)
	return counter.N, err
}

// sizeGuard fails a copy which does not yield the expected number of bytes
type sizeGuard struct {
	*storage.CountingReader
	expected int64
}

func (g *sizeGuard) Read(p []byte) (int, error) {
	n, err := g.CountingReader.Read(p)
	if g.N > g.expected || (err == io.EOF && g.N != g.expected) {
		return n, errSizeMismatch.WrapMessage("expected %d bytes, got %d", g.expected, g.N)
	}
	return n, err
}
