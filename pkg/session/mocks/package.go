// Copyright © 2018 One Concern

// Package mocks builds complete content packages on afero filesystems, for testing purpose.
package mocks

import (
	"bytes"
	"sort"
	"testing"

	"github.com/oneconcern/assetsync/pkg/bundle"
	"github.com/oneconcern/assetsync/pkg/manifest"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

// Default file names of a package
const (
	RootName            = "AssetBundles"
	ContentsTableName   = "ContentsTable.json"
	VersionManifestName = "VersionManifest.json"
)

// Bundle describes one bundle of a fixture package
type Bundle struct {
	Assets        map[string]string
	Dependencies  []string
	LastWriteTime int64
}

// Package maps bundle identifiers to their description
type Package map[string]Bundle

// DefaultPackage is a small package with a dependency chain: a -> {b, c}, b -> {c}, and a standalone d
func DefaultPackage(lastWriteTime int64) Package {
	return Package{
		"a": {
			Assets:        map[string]string{"assets/a.txt": "content of a", "assets/shared/a.json": `{"a":1}`},
			Dependencies:  []string{"b", "c"},
			LastWriteTime: lastWriteTime,
		},
		"b": {
			Assets:        map[string]string{"assets/b.txt": "content of b"},
			Dependencies:  []string{"c"},
			LastWriteTime: lastWriteTime,
		},
		"c": {
			Assets:        map[string]string{"assets/c.txt": "content of c"},
			LastWriteTime: lastWriteTime,
		},
		"d": {
			Assets:        map[string]string{"assets/d.txt": "content of d"},
			LastWriteTime: lastWriteTime,
		},
	}
}

// With returns a copy of the package with one bundle added or replaced
func (p Package) With(id string, b Bundle) Package {
	res := make(Package, len(p)+1)
	for k, v := range p {
		res[k] = v
	}
	res[id] = b
	return res
}

// IDs of the bundles, sorted
func (p Package) IDs() []string {
	ids := make([]string, 0, len(p))
	for id := range p {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Packed zip bundle
func (b Bundle) Packed(t testing.TB) []byte {
	files := make(map[string][]byte, len(b.Assets))
	for k, v := range b.Assets {
		files[k] = []byte(v)
	}
	var buf bytes.Buffer
	require.NoError(t, bundle.Pack(&buf, files))
	return buf.Bytes()
}

// WritePackage writes every file of a package at the root of fs: bundles, root container and its companion,
// contents table and version manifest.
//
// The version manifest is returned.
func WritePackage(t testing.TB, fs afero.Fs, p Package) *manifest.VersionManifest {
	t.Helper()

	versions := manifest.Empty()
	root := &manifest.RootManifest{Bundles: make(map[string]manifest.RootEntry, len(p))}
	pairs := make(map[string]string)

	for _, id := range p.IDs() {
		b := p[id]
		data := b.Packed(t)
		require.NoError(t, afero.WriteFile(fs, id, data, 0644))

		hash := bundle.Hash(data)
		versions.Set(id, manifest.VersionEntry{
			Hash:          hash,
			ByteSize:      int64(len(data)),
			LastWriteTime: b.LastWriteTime,
		})
		root.Bundles[id] = manifest.RootEntry{Hash: hash, Dependencies: b.Dependencies}
		for assetPath := range b.Assets {
			pairs[assetPath] = id
		}
	}

	container, err := manifest.EncodeRoot(root)
	require.NoError(t, err)
	require.NoError(t, afero.WriteFile(fs, RootName, container, 0644))

	companion, err := manifest.EncodeCompanion(root)
	require.NoError(t, err)
	require.NoError(t, afero.WriteFile(fs, RootName+manifest.CompanionSuffix, companion, 0644))

	table, err := manifest.NewContentsTable(pairs).Encode()
	require.NoError(t, err)
	require.NoError(t, afero.WriteFile(fs, ContentsTableName, table, 0644))

	doc, err := versions.Encode()
	require.NoError(t, err)
	require.NoError(t, afero.WriteFile(fs, VersionManifestName, doc, 0644))

	return versions
}
