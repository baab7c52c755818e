// Copyright © 2018 One Concern

package cache

import (
	"context"
	"sync"
	"time"

	"github.com/oneconcern/assetsync/pkg/bundle"
	"github.com/oneconcern/assetsync/pkg/locator"
	"github.com/oneconcern/assetsync/pkg/manifest"
	"github.com/oneconcern/assetsync/pkg/metrics"
	"github.com/oneconcern/assetsync/pkg/status"
	"go.uber.org/zap"
)

// Fetcher retrieves a bundle from its location
type Fetcher interface {
	Fetch(context.Context, locator.Location) (bundle.Bundle, error)
}

// FetcherFunc adapts a function as a Fetcher
type FetcherFunc func(context.Context, locator.Location) (bundle.Bundle, error)

// Fetch a bundle
func (f FetcherFunc) Fetch(ctx context.Context, loc locator.Location) (bundle.Bundle, error) {
	return f(ctx, loc)
}

// Resolver knows the location of bundles
type Resolver interface {
	Resolve(string) (locator.Location, error)
}

// Graph knows the direct dependencies of bundles
type Graph interface {
	DependenciesOf(string) []string
}

// Stats is a snapshot of the cache state
type Stats struct {
	Resident int
	InFlight int
	Refs     int
}

type record struct {
	refs   int
	bundle bundle.Bundle // nil until the fetch completes
}

// inFlight is shared by all callers waiting for the same fetch
type inFlight struct {
	done   chan struct{}
	bundle bundle.Bundle
	err    error
}

// Cache is a reference-counted, dependency-aware bundle cache
type Cache struct {
	graph    Graph
	resolver Resolver
	fetcher  Fetcher
	table    *manifest.ContentsTable
	l        *zap.Logger

	beforeFetch     Hook
	beforeAssetLoad Hook

	mx       sync.Mutex
	records  map[string]*record
	inFlight map[string]*inFlight // keyed by URI
	scope    context.Context
	cancel   context.CancelFunc
	gen      uint64
	fetches  sync.WaitGroup

	metrics.Enable
	m *M
}

// New bundle cache
func New(graph Graph, resolver Resolver, fetcher Fetcher, opts ...Option) *Cache {
	c := &Cache{
		graph:    graph,
		resolver: resolver,
		fetcher:  fetcher,
		l:        zap.NewNop(),
		records:  make(map[string]*record),
		inFlight: make(map[string]*inFlight),
	}
	c.scope, c.cancel = context.WithCancel(context.Background())

	for _, apply := range opts {
		apply(c)
	}
	if c.MetricsEnabled() {
		c.m = c.EnsureMetrics("cache", &M{}).(*M)
	}
	return c
}

// Load a bundle and, first, all its dependencies.
//
// Every successful Load must be balanced by one Unload. On failure, no reference is retained.
// A reset of the cache while loading reports status.ErrCancelled.
func (c *Cache) Load(ctx context.Context, id string) (bundle.Bundle, error) {
	if c.MetricsEnabled() {
		defer c.m.Usage.Used(time.Now(), "Load")
	}
	b, _, err := c.load(ctx, id)
	return b, err
}

// load returns the generation holding all the references taken on the dependency closure of id
func (c *Cache) load(ctx context.Context, id string) (bundle.Bundle, uint64, error) {
	gen := c.generation()

	deps := c.graph.DependenciesOf(id)
	loaded := make([]string, 0, len(deps))
	for _, dep := range deps {
		_, depGen, err := c.load(ctx, dep)
		if err != nil {
			c.rollback(gen, loaded)
			return nil, 0, err
		}
		if depGen != gen {
			c.rollback(depGen, []string{dep})
			c.rollback(gen, loaded)
			return nil, 0, errReset(id)
		}
		loaded = append(loaded, dep)
	}

	b, refGen, err := c.loadOne(ctx, id)
	if err != nil {
		c.rollback(gen, loaded)
		return nil, 0, err
	}
	if refGen != gen {
		// dependencies were released by a reset: the bundle cannot stand alone
		c.release(refGen, id)
		c.rollback(gen, loaded)
		return nil, 0, errReset(id)
	}
	return b, gen, nil
}

func errReset(id string) error {
	return status.ErrCancelled.WrapMessage("cache reset while loading bundle %q", id)
}

func (c *Cache) generation() uint64 {
	c.mx.Lock()
	defer c.mx.Unlock()
	return c.gen
}

// rollback releases the dependency closures loaded in some generation. References from
// a former generation were already dropped by the reset.
func (c *Cache) rollback(gen uint64, loaded []string) {
	if len(loaded) == 0 {
		return
	}
	var toClose []bundle.Bundle
	c.mx.Lock()
	if c.gen == gen {
		for i := len(loaded) - 1; i >= 0; i-- {
			released, _ := c.unloadLocked(loaded[i])
			toClose = append(toClose, released...)
		}
	}
	c.mx.Unlock()
	closeAll(toClose)
}

func (c *Cache) loadOne(ctx context.Context, id string) (bundle.Bundle, uint64, error) {
	loc, err := c.resolver.Resolve(id)
	if err != nil {
		return nil, 0, err
	}

	c.mx.Lock()
	gen := c.gen
	rec, ok := c.records[id]
	if !ok {
		rec = &record{}
		c.records[id] = rec
	}
	rec.refs++

	if rec.bundle != nil {
		b, refs := rec.bundle, rec.refs
		c.mx.Unlock()
		c.l.Debug("bundle already resident", zap.String("bundle", id), zap.Int("refs", refs))
		if c.MetricsEnabled() {
			c.m.Volume.Bundles.Load("hit")
		}
		return b, gen, nil
	}

	pending, coalesced := c.inFlight[loc.URI]
	if !coalesced {
		pending = &inFlight{done: make(chan struct{})}
		c.inFlight[loc.URI] = pending
		c.fetches.Add(1)
		go c.fetch(c.scope, gen, id, loc, pending)
	}
	c.mx.Unlock()

	if c.MetricsEnabled() {
		if coalesced {
			c.m.Volume.Bundles.Load("coalesced")
		} else {
			c.m.Volume.Bundles.Load("fetched")
		}
	}

	select {
	case <-pending.done:
	case <-ctx.Done():
		c.release(gen, id)
		return nil, 0, status.Cancelled(ctx.Err())
	}

	c.mx.Lock()
	if c.gen != gen {
		c.mx.Unlock()
		return nil, 0, errReset(id)
	}
	if pending.err != nil {
		toClose := c.releaseLocked(id)
		c.mx.Unlock()
		closeAll(toClose)
		c.l.Error("failed to load bundle", zap.String("bundle", id), zap.String("uri", loc.URI), zap.Error(pending.err))
		return nil, 0, pending.err
	}
	if err = ctx.Err(); err != nil {
		// the fetch completed, but this caller gave up in the meantime
		toClose := c.releaseLocked(id)
		c.mx.Unlock()
		closeAll(toClose)
		return nil, 0, status.Cancelled(err)
	}
	c.mx.Unlock()

	return pending.bundle, gen, nil
}

// fetch runs once per URI. The result is registered only if the bundle is still wanted
// within the same cache generation, and released otherwise.
func (c *Cache) fetch(scope context.Context, gen uint64, id string, loc locator.Location, pending *inFlight) {
	defer c.fetches.Done()

	var start time.Time
	if c.MetricsEnabled() {
		start = time.Now()
	}
	c.l.Debug("fetching bundle", zap.String("bundle", id), zap.Stringer("tier", loc.Tier), zap.String("uri", loc.URI))

	b, err := c.doFetch(scope, id, loc)
	if c.MetricsEnabled() {
		c.m.Volume.IO.IORecord(start, "fetch")(0, err)
	}

	var discard bundle.Bundle
	c.mx.Lock()
	if c.inFlight[loc.URI] == pending {
		delete(c.inFlight, loc.URI)
	}
	if err == nil {
		rec, wanted := c.records[id]
		if c.gen != gen || !wanted || rec.refs <= 0 {
			discard, b = b, nil
			err = status.ErrCancelled.WrapMessage("bundle %q released before its fetch completed", id)
		} else {
			rec.bundle = b
		}
	}
	pending.bundle, pending.err = b, err
	close(pending.done)
	c.mx.Unlock()

	if discard != nil {
		c.l.Debug("discarding fetched bundle", zap.String("bundle", id))
		_ = discard.Close()
	}
}

func (c *Cache) doFetch(scope context.Context, id string, loc locator.Location) (bundle.Bundle, error) {
	if c.beforeFetch != nil {
		if err := c.beforeFetch(scope, id); err != nil {
			return nil, status.Cancelled(err)
		}
	}
	b, err := c.fetcher.Fetch(scope, loc)
	if err != nil {
		if scope.Err() != nil {
			return nil, status.Cancelled(scope.Err())
		}
		return nil, err
	}
	return b, nil
}

// release drops one reference taken by a load which did not complete
func (c *Cache) release(gen uint64, id string) {
	c.mx.Lock()
	if c.gen != gen {
		c.mx.Unlock()
		return
	}
	toClose := c.releaseLocked(id)
	c.mx.Unlock()
	closeAll(toClose)
}

func (c *Cache) releaseLocked(id string) []bundle.Bundle {
	rec, ok := c.records[id]
	if !ok {
		return nil
	}
	rec.refs--
	if rec.refs > 0 {
		return nil
	}
	delete(c.records, id)
	if rec.bundle == nil {
		return nil
	}
	if c.MetricsEnabled() {
		c.m.Volume.Bundles.Release(c.residentLocked())
	}
	return []bundle.Bundle{rec.bundle}
}

// Unload drops one reference on a bundle, then on each of its dependencies.
//
// Bundles are released as soon as their count reaches zero.
// Unloading a bundle which is not loaded reports status.ErrNotLoaded.
func (c *Cache) Unload(id string) error {
	c.mx.Lock()
	toClose, err := c.unloadLocked(id)
	c.mx.Unlock()

	closeAll(toClose)
	if err != nil {
		c.l.DPanic("unloading a bundle which is not loaded", zap.String("bundle", id), zap.Error(err))
	}
	return err
}

func (c *Cache) unloadLocked(id string) ([]bundle.Bundle, error) {
	rec, ok := c.records[id]
	if !ok || rec.refs <= 0 {
		return nil, status.ErrNotLoaded.WrapMessage("bundle %q", id)
	}

	toClose := c.releaseLocked(id)
	if len(toClose) > 0 {
		c.l.Debug("bundle released", zap.String("bundle", id))
	}

	var firstErr error
	for _, dep := range c.graph.DependenciesOf(id) {
		released, err := c.unloadLocked(dep)
		toClose = append(toClose, released...)
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return toClose, firstErr
}

// UnloadAll cancels all pending fetches and releases every bundle, regardless of reference counts.
//
// Subsequent loads run under a fresh context.
func (c *Cache) UnloadAll() {
	c.mx.Lock()
	c.cancel()
	c.scope, c.cancel = context.WithCancel(context.Background())
	c.gen++

	toClose := make([]bundle.Bundle, 0, len(c.records))
	for _, rec := range c.records {
		if rec.bundle != nil {
			toClose = append(toClose, rec.bundle)
		}
	}
	c.records = make(map[string]*record)
	c.inFlight = make(map[string]*inFlight)
	c.mx.Unlock()

	c.l.Info("all bundles unloaded", zap.Int("released", len(toClose)))
	closeAll(toClose)
}

// Close releases all bundles and waits for pending fetches to terminate
func (c *Cache) Close() error {
	c.UnloadAll()
	c.mx.Lock()
	c.cancel()
	c.mx.Unlock()
	c.fetches.Wait()
	return nil
}

// RefCount returns the current reference count of a bundle
func (c *Cache) RefCount(id string) int {
	c.mx.Lock()
	defer c.mx.Unlock()
	if rec, ok := c.records[id]; ok {
		return rec.refs
	}
	return 0
}

// Resident tells if a bundle is currently loaded
func (c *Cache) Resident(id string) bool {
	c.mx.Lock()
	defer c.mx.Unlock()
	rec, ok := c.records[id]
	return ok && rec.bundle != nil
}

// Stats returns a snapshot of the cache state
func (c *Cache) Stats() Stats {
	c.mx.Lock()
	defer c.mx.Unlock()
	s := Stats{
		Resident: c.residentLocked(),
		InFlight: len(c.inFlight),
	}
	for _, rec := range c.records {
		s.Refs += rec.refs
	}
	return s
}

func (c *Cache) residentLocked() int {
	n := 0
	for _, rec := range c.records {
		if rec.bundle != nil {
			n++
		}
	}
	return n
}

func closeAll(bundles []bundle.Bundle) {
	for _, b := range bundles {
		_ = b.Close()
	}
}
