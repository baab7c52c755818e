// Copyright © 2018 One Concern

package updater

import (
	"testing"

	"github.com/oneconcern/assetsync/pkg/manifest"
	"github.com/stretchr/testify/assert"
)

func version(id, hash string, ts int64) manifest.VersionEntry {
	return manifest.VersionEntry{FilePath: id, Hash: hash, ByteSize: 10, LastWriteTime: ts}
}

func TestComputeUpdateSet(t *testing.T) {
	for _, toPin := range []struct {
		Name     string
		Local    []manifest.VersionEntry
		Remote   []manifest.VersionEntry
		Expected []string
	}{
		{
			Name:     "new bundle",
			Local:    nil,
			Remote:   []manifest.VersionEntry{version("x", "h1", 100)},
			Expected: []string{"x"},
		},
		{
			Name:     "changed and newer",
			Local:    []manifest.VersionEntry{version("x", "h1", 100)},
			Remote:   []manifest.VersionEntry{version("x", "h2", 200)},
			Expected: []string{"x"},
		},
		{
			Name:     "same hash, newer",
			Local:    []manifest.VersionEntry{version("x", "h1", 100)},
			Remote:   []manifest.VersionEntry{version("x", "h1", 200)},
			Expected: []string{},
		},
		{
			Name:     "changed, same timestamp",
			Local:    []manifest.VersionEntry{version("x", "h1", 100)},
			Remote:   []manifest.VersionEntry{version("x", "h2", 100)},
			Expected: []string{},
		},
		{
			Name:     "changed, older",
			Local:    []manifest.VersionEntry{version("x", "h1", 200)},
			Remote:   []manifest.VersionEntry{version("x", "h2", 100)},
			Expected: []string{},
		},
		{
			Name:     "local only bundles are kept",
			Local:    []manifest.VersionEntry{version("x", "h1", 100), version("y", "h1", 100)},
			Remote:   []manifest.VersionEntry{version("x", "h1", 100)},
			Expected: []string{},
		},
		{
			Name:  "sorted",
			Local: []manifest.VersionEntry{version("m", "h1", 100)},
			Remote: []manifest.VersionEntry{
				version("z", "h1", 100), version("m", "h2", 101), version("a", "h1", 100),
			},
			Expected: []string{"a", "m", "z"},
		},
	} {
		testCase := toPin
		t.Run(testCase.Name, func(t *testing.T) {
			t.Parallel()
			updates := ComputeUpdateSet(manifest.New(testCase.Local...), manifest.New(testCase.Remote...))

			ids := make([]string, 0, len(updates))
			for _, u := range updates {
				ids = append(ids, u.FilePath)
			}
			assert.Equal(t, testCase.Expected, ids)
			assert.Equal(t, int64(10*len(testCase.Expected)), DownloadSize(updates))
		})
	}
}

func TestUpdateSetCarriesRemoteVersions(t *testing.T) {
	updates := ComputeUpdateSet(
		manifest.New(version("x", "h1", 100)),
		manifest.New(version("x", "h2", 200)),
	)
	if assert.Len(t, updates, 1) {
		assert.Equal(t, version("x", "h2", 200), updates[0])
	}
}
