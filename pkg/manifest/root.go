// Copyright © 2018 One Concern

package manifest

import (
	"bytes"
	"context"
	"sort"

	"github.com/oneconcern/assetsync/pkg/bundle"
	"github.com/oneconcern/assetsync/pkg/status"
	"gopkg.in/yaml.v2"
)

// RootManifestAsset is the name of the asset holding the root manifest inside the root container
const RootManifestAsset = "manifest.json"

// CompanionSuffix is appended to the root container name to locate its human-readable companion
const CompanionSuffix = ".manifest"

// RootEntry describes one bundle of the package
type RootEntry struct {
	Hash         string   `json:"hash" yaml:"hash"`
	Dependencies []string `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
}

// RootManifest enumerates all bundles of a package with their direct dependencies
type RootManifest struct {
	Bundles map[string]RootEntry `json:"bundles" yaml:"bundles"`
}

// EncodeRoot packs the root manifest as a root container
func EncodeRoot(root *RootManifest) ([]byte, error) {
	doc, err := json.Marshal(root)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err = bundle.Pack(&buf, map[string][]byte{RootManifestAsset: doc}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeRoot extracts the root manifest from a root container
func DecodeRoot(ctx context.Context, container bundle.Bundle) (*RootManifest, error) {
	asset, err := container.Load(ctx, RootManifestAsset)
	if err != nil {
		if status.IsCancelled(err) {
			return nil, err
		}
		return nil, status.ErrDecode.WrapMessage("root container %q", container.Name()).Wrap(err)
	}
	var root RootManifest
	if err = json.Unmarshal(asset.Data, &root); err != nil {
		return nil, status.ErrDecode.WrapMessage("root manifest in %q", container.Name()).Wrap(err)
	}
	if root.Bundles == nil {
		root.Bundles = make(map[string]RootEntry)
	}
	return &root, nil
}

// EncodeCompanion renders the root manifest as YAML, stored alongside the root container
func EncodeCompanion(root *RootManifest) ([]byte, error) {
	return yaml.Marshal(root)
}

// DependencyGraph maps every bundle to its direct dependencies. It is immutable.
type DependencyGraph struct {
	deps map[string][]string
}

// NewDependencyGraph builds the graph from a root manifest.
//
// No cycle detection is carried out: packages are expected to describe a DAG.
func NewDependencyGraph(root *RootManifest) *DependencyGraph {
	g := &DependencyGraph{deps: make(map[string][]string)}
	if root == nil {
		return g
	}
	for id, entry := range root.Bundles {
		if len(entry.Dependencies) == 0 {
			continue
		}
		deps := make([]string, len(entry.Dependencies))
		copy(deps, entry.Dependencies)
		g.deps[id] = deps
	}
	return g
}

// DependenciesOf returns the direct dependencies of a bundle, or nil for a leaf or unknown bundle
func (g *DependencyGraph) DependenciesOf(id string) []string {
	if g == nil {
		return nil
	}
	deps, ok := g.deps[id]
	if !ok {
		return nil
	}
	res := make([]string, len(deps))
	copy(res, deps)
	return res
}

// Bundles lists the bundles which have dependencies, sorted
func (g *DependencyGraph) Bundles() []string {
	if g == nil {
		return nil
	}
	res := make([]string, 0, len(g.deps))
	for id := range g.deps {
		res = append(res, id)
	}
	sort.Strings(res)
	return res
}
