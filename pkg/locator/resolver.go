// Copyright © 2018 One Concern

package locator

import (
	"context"
	"sort"
	"sync"

	"github.com/oneconcern/assetsync/pkg/errors"
	"github.com/oneconcern/assetsync/pkg/manifest"
	"github.com/oneconcern/assetsync/pkg/status"
	"go.uber.org/zap"
)

// Resolver maps bundles to the tier holding their current copy
type Resolver struct {
	layout       Layout
	stores       Stores
	manifestName string
	l            *zap.Logger

	mx        sync.RWMutex
	locations map[string]Location
}

// New resolver over some tiers. The version manifest of each tier is found under manifestName.
func New(layout Layout, stores Stores, manifestName string, opts ...Option) *Resolver {
	r := &Resolver{
		layout:       layout,
		stores:       stores,
		manifestName: manifestName,
		l:            zap.NewNop(),
		locations:    make(map[string]Location),
	}
	for _, apply := range opts {
		apply(r)
	}
	return r
}

// Build reads the version manifests of the Overlay and Base tiers, then assigns a tier to every bundle.
//
// A missing Overlay manifest is treated as empty. A missing Base manifest is an error.
func (r *Resolver) Build(ctx context.Context) error {
	overlay, err := manifest.LoadVersionManifest(ctx, r.stores.Overlay, r.manifestName)
	switch {
	case errors.Is(err, status.ErrTierAbsent):
		r.l.Debug("no overlay version manifest", zap.Stringer("store", r.stores.Overlay))
		overlay = manifest.Empty()
	case err != nil:
		return err
	}

	base, err := manifest.LoadVersionManifest(ctx, r.stores.Base, r.manifestName)
	if err != nil {
		return err
	}

	r.BuildFrom(base, overlay)
	return nil
}

// BuildFrom assigns a tier to every bundle listed in the Base or Overlay manifest:
//
//   - a bundle only known to one tier is located there
//   - a bundle known to both tiers is located on Overlay only if the overlay copy is strictly more recent,
//     otherwise it stays on Base
func (r *Resolver) BuildFrom(base, overlay *manifest.VersionManifest) {
	locations := make(map[string]Location, base.Len()+overlay.Len())

	for _, entry := range overlay.Entries() {
		locations[entry.FilePath] = r.locate(Overlay, entry.FilePath)
	}
	for _, entry := range base.Entries() {
		if fromOverlay, isInOverlay := overlay.Get(entry.FilePath); isInOverlay && fromOverlay.LastWriteTime > entry.LastWriteTime {
			continue
		}
		locations[entry.FilePath] = r.locate(Base, entry.FilePath)
	}

	r.mx.Lock()
	r.locations = locations
	r.mx.Unlock()

	r.l.Info("location map built",
		zap.Int("bundles", len(locations)),
		zap.Int("base", base.Len()),
		zap.Int("overlay", overlay.Len()),
	)
}

func (r *Resolver) locate(tier Tier, name string) Location {
	return Location{
		Tier: tier,
		Name: name,
		URI:  r.layout.URI(tier, name),
	}
}

// Resolve the location of a bundle.
//
// A bundle which was never seen while building is reported as status.ErrInconsistent.
func (r *Resolver) Resolve(id string) (Location, error) {
	r.mx.RLock()
	loc, ok := r.locations[id]
	r.mx.RUnlock()
	if !ok {
		r.l.Error("no location for bundle", zap.String("bundle", id))
		return Location{}, status.ErrInconsistent.WrapMessage("bundle %q has no known location", id)
	}
	return loc, nil
}

// Tier tells on which tier a bundle is located
func (r *Resolver) Tier(id string) (Tier, bool) {
	r.mx.RLock()
	defer r.mx.RUnlock()
	loc, ok := r.locations[id]
	return loc.Tier, ok
}

// Bundles lists all located bundles, sorted
func (r *Resolver) Bundles() []string {
	r.mx.RLock()
	res := make([]string, 0, len(r.locations))
	for id := range r.locations {
		res = append(res, id)
	}
	r.mx.RUnlock()
	sort.Strings(res)
	return res
}

// Stores backing the tiers
func (r *Resolver) Stores() Stores {
	return r.stores
}

// Clear forgets all locations
func (r *Resolver) Clear() {
	r.mx.Lock()
	r.locations = make(map[string]Location)
	r.mx.Unlock()
}
