// Copyright © 2018 One Concern

package session

import (
	"context"
	"sync"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/oneconcern/assetsync/pkg/bundle"
	"github.com/oneconcern/assetsync/pkg/cache"
	"github.com/oneconcern/assetsync/pkg/errors"
	"github.com/oneconcern/assetsync/pkg/locator"
	"github.com/oneconcern/assetsync/pkg/manifest"
	"github.com/oneconcern/assetsync/pkg/status"
	"github.com/oneconcern/assetsync/pkg/storage"
	"github.com/oneconcern/assetsync/pkg/updater"
	opentracing "github.com/opentracing/opentracing-go"
	"github.com/segmentio/ksuid"
	"github.com/spf13/afero"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

var (
	// ErrNotReady indicates that assets are requested before the session is set up
	ErrNotReady = errors.New("session is not set up")

	// ErrNoRemote indicates that an update is requested on a session without remote tier
	ErrNoRemote = errors.New("no remote configured")
)

// Session serves the assets of one content package, and keeps its overlay tier up to date
type Session struct {
	id     string
	cfg    Config
	stores locator.Stores
	opener bundle.Opener

	l          *zap.Logger
	fs         afero.Fs
	tracer     opentracing.Tracer
	gcsOptions []option.ClientOption
	awsConfig  *aws.Config

	resolver *locator.Resolver
	updater  *updater.Engine

	mx    sync.RWMutex
	cache *cache.Cache
	table *manifest.ContentsTable
}

func newSession(cfg Config, opts ...Option) *Session {
	s := &Session{
		id:  ksuid.New().String(),
		cfg: cfg.WithDefaults(),
		l:   zap.NewNop(),
		fs:  afero.NewOsFs(),
	}
	for _, apply := range opts {
		apply(s)
	}
	s.l = s.l.With(zap.String("session", s.id))
	s.opener = bundle.ZipOpener{CacheSize: s.cfg.AssetCacheSize}
	return s
}

// New session over some already built stores. Only the names, limits and delays of the configuration are used.
func New(cfg Config, stores locator.Stores, opts ...Option) (*Session, error) {
	if stores.Base == nil || stores.Overlay == nil {
		return nil, ErrInvalidConfig.WrapMessage("base and overlay stores are required")
	}
	s := newSession(cfg, opts...)
	s.init(stores)
	return s, nil
}

// Open a session: the stores backing each tier are built from the configuration
func Open(ctx context.Context, cfg Config, opts ...Option) (*Session, error) {
	s := newSession(cfg, opts...)
	if err := s.cfg.Validate(); err != nil {
		return nil, err
	}
	stores, err := s.buildStores(ctx)
	if err != nil {
		return nil, err
	}
	s.init(stores)
	s.l.Info("session opened",
		zap.Stringer("base", stores.Base),
		zap.Stringer("overlay", stores.Overlay),
		zap.String("remote", s.cfg.RemoteRoot()),
	)
	return s, nil
}

func (s *Session) init(stores locator.Stores) {
	s.stores = stores
	s.resolver = locator.New(s.cfg.Layout(), stores, s.cfg.VersionManifestName, locator.Logger(s.l))
	if stores.Remote != nil {
		s.updater = updater.New(stores, s.cfg.Names(),
			updater.Logger(s.l),
			updater.MaxAttempts(s.cfg.MaxAttempts),
			updater.RetryInterval(s.cfg.RetryInterval),
			updater.Timeout(s.cfg.DownloadTimeout),
			updater.BeforeDownload(Delay(s.cfg.DownloadDelay)),
			updater.WithMetrics(s.cfg.Metrics),
		)
	}
}

// ID uniquely identifies this session
func (s *Session) ID() string {
	return s.id
}

// Config of the session, with defaults applied
func (s *Session) Config() Config {
	return s.cfg
}

// Stores backing the tiers of the session
func (s *Session) Stores() locator.Stores {
	return s.stores
}

// Setup releases all loaded bundles, then builds the location map, the dependency graph
// and the contents table from the local tiers. Assets may be loaded once the setup is complete.
func (s *Session) Setup(ctx context.Context) error {
	s.UnloadAll()

	if err := s.resolver.Build(ctx); err != nil {
		return err
	}

	root, err := s.loadRoot(ctx)
	if err != nil {
		return err
	}

	table, err := s.loadContentsTable(ctx)
	if err != nil {
		return err
	}

	fetcher := &storeFetcher{stores: s.stores, opener: s.opener, l: s.l}
	c := cache.New(manifest.NewDependencyGraph(root), s.resolver, fetcher,
		cache.Logger(s.l),
		cache.ContentsTable(table),
		cache.BeforeFetch(Delay(s.cfg.BundleLoadDelay)),
		cache.BeforeAssetLoad(Delay(s.cfg.AssetLoadDelay)),
		cache.WithMetrics(s.cfg.Metrics),
	)

	s.mx.Lock()
	former := s.cache
	s.cache, s.table = c, table
	s.mx.Unlock()

	if former != nil {
		_ = former.Close()
	}
	s.l.Info("session set up", zap.Int("bundles", len(root.Bundles)), zap.Int("assets", table.Len()))
	return nil
}

// overlay first, then base
func (s *Session) fromLocalTiers(ctx context.Context, what string, load func(context.Context, storage.Store) error) error {
	err := load(ctx, s.stores.Overlay)
	if err == nil || !errors.Is(err, status.ErrTierAbsent) {
		return err
	}
	s.l.Debug("falling back to base tier", zap.String("object", what))
	return load(ctx, s.stores.Base)
}

func (s *Session) loadRoot(ctx context.Context) (*manifest.RootManifest, error) {
	var root *manifest.RootManifest
	err := s.fromLocalTiers(ctx, s.cfg.RootName, func(ctx context.Context, store storage.Store) (err error) {
		root, err = manifest.LoadRoot(ctx, store, s.cfg.RootName, s.opener)
		return err
	})
	return root, err
}

func (s *Session) loadContentsTable(ctx context.Context) (*manifest.ContentsTable, error) {
	var table *manifest.ContentsTable
	err := s.fromLocalTiers(ctx, s.cfg.ContentsTableName, func(ctx context.Context, store storage.Store) (err error) {
		table, err = manifest.LoadContentsTable(ctx, store, s.cfg.ContentsTableName)
		return err
	})
	return table, err
}

// CalculateDownloadSize is the total byte size of the bundles an update would download
func (s *Session) CalculateDownloadSize(ctx context.Context) (int64, error) {
	if s.updater == nil {
		return 0, ErrNoRemote
	}
	return s.updater.CalculateDownloadSize(ctx)
}

// DownloadPackage downloads all updated bundles to the overlay tier, then sets the session up again
// so loads are served from the updated package.
//
// onEach is called after each bundle has been downloaded.
func (s *Session) DownloadPackage(ctx context.Context, onEach func(manifest.VersionEntry)) error {
	if s.updater == nil {
		return ErrNoRemote
	}
	if err := s.updater.DownloadUpdated(ctx, onEach); err != nil {
		return err
	}
	return s.Setup(ctx)
}

func (s *Session) current() (*cache.Cache, error) {
	s.mx.RLock()
	defer s.mx.RUnlock()
	if s.cache == nil {
		return nil, ErrNotReady
	}
	return s.cache, nil
}

// LoadAsset loads an asset, along with the bundle holding it and all its dependencies.
//
// The returned handle must be released with UnloadAsset.
func (s *Session) LoadAsset(ctx context.Context, assetPath string) (*cache.LoadedAssetHandle, error) {
	c, err := s.current()
	if err != nil {
		return nil, err
	}
	return c.LoadAsset(ctx, assetPath)
}

// UnloadAsset releases an asset handle obtained from LoadAsset
func (s *Session) UnloadAsset(handle *cache.LoadedAssetHandle) error {
	c, err := s.current()
	if err != nil {
		return err
	}
	return c.UnloadAsset(handle)
}

// UnloadAll releases all bundles and cancels all pending loads
func (s *Session) UnloadAll() {
	s.mx.RLock()
	c := s.cache
	s.mx.RUnlock()
	if c != nil {
		c.UnloadAll()
	}
}

// DeleteBundleCache releases all bundles, then wipes the overlay tier.
//
// The session must be set up again before loading assets.
func (s *Session) DeleteBundleCache(ctx context.Context) error {
	s.mx.Lock()
	c := s.cache
	s.cache, s.table = nil, nil
	s.mx.Unlock()

	if c != nil {
		_ = c.Close()
	}
	s.resolver.Clear()

	if err := s.stores.Overlay.Clear(ctx); err != nil {
		return err
	}
	s.l.Info("bundle cache deleted", zap.Stringer("overlay", s.stores.Overlay))
	return nil
}

// Assets lists the assets of the package, under some path prefix
func (s *Session) Assets(prefix string) ([]string, error) {
	s.mx.RLock()
	defer s.mx.RUnlock()
	if s.table == nil {
		return nil, ErrNotReady
	}
	return s.table.Assets(prefix), nil
}

// Stats of the bundle cache
func (s *Session) Stats() cache.Stats {
	c, err := s.current()
	if err != nil {
		return cache.Stats{}
	}
	return c.Stats()
}

// Close releases all resources held by the session
func (s *Session) Close() error {
	s.mx.Lock()
	c := s.cache
	s.cache, s.table = nil, nil
	s.mx.Unlock()

	if c != nil {
		return c.Close()
	}
	return nil
}
