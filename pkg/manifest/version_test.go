// Copyright © 2018 One Concern

package manifest

import (
	"testing"

	"github.com/oneconcern/assetsync/pkg/errors"
	"github.com/oneconcern/assetsync/pkg/status"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsNewerThan(t *testing.T) {
	local := VersionEntry{FilePath: "x", Hash: "h1", LastWriteTime: 100}

	assert.True(t, VersionEntry{FilePath: "x", Hash: "h2", LastWriteTime: 200}.IsNewerThan(local))
	assert.False(t, VersionEntry{FilePath: "x", Hash: "h1", LastWriteTime: 200}.IsNewerThan(local), "same hash")
	assert.False(t, VersionEntry{FilePath: "x", Hash: "h2", LastWriteTime: 100}.IsNewerThan(local), "same timestamp")
	assert.False(t, VersionEntry{FilePath: "x", Hash: "h2", LastWriteTime: 50}.IsNewerThan(local), "older")
}

func TestVersionManifest(t *testing.T) {
	m := New(
		VersionEntry{FilePath: "b", Hash: "1"},
		VersionEntry{FilePath: "a", Hash: "1"},
		VersionEntry{FilePath: "b", Hash: "2"},
	)
	require.Equal(t, 2, m.Len())
	b, ok := m.Get("b")
	require.True(t, ok)
	assert.Equal(t, "2", b.Hash)

	m.Set("c", VersionEntry{Hash: "3", ByteSize: 10})
	c, ok := m.Get("c")
	require.True(t, ok)
	assert.Equal(t, "c", c.FilePath)

	m.Set("c", VersionEntry{Hash: "4"})
	assert.Equal(t, 3, m.Len(), "set overwrites")

	clone := m.Clone()
	m.Remove("a")
	_, ok = m.Get("a")
	assert.False(t, ok)
	_, ok = clone.Get("a")
	assert.True(t, ok, "clones are independent")

	entries := clone.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, "a", entries[0].FilePath)
	assert.Equal(t, "c", entries[2].FilePath)

	assert.Equal(t, 0, Empty().Len())
}

func TestVersionManifestRoundTrip(t *testing.T) {
	m := Empty()
	m.Set("z", VersionEntry{Hash: "hz", ByteSize: 3, LastWriteTime: 30})
	m.Set("y", VersionEntry{Hash: "hy", ByteSize: 2, LastWriteTime: 20})
	m.Set("x", VersionEntry{Hash: "hx", ByteSize: 1, LastWriteTime: 10})

	data, err := m.Encode()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"filePath":"x"`)

	decoded, err := DecodeVersionManifest(data)
	require.NoError(t, err)
	assert.Equal(t, m.Entries(), decoded.Entries())

	empty, err := Empty().Encode()
	require.NoError(t, err)
	assert.Equal(t, "[]", string(empty))
}

func TestDecodeVersionManifest(t *testing.T) {
	m, err := DecodeVersionManifest([]byte(`[{"FilePath":"walls","Hash":"abc","ByteSize":12,"LastWriteTime":637000000000000000}]`))
	require.NoError(t, err)
	e, ok := m.Get("walls")
	require.True(t, ok)
	assert.Equal(t, int64(12), e.ByteSize)
	assert.Equal(t, int64(637000000000000000), e.LastWriteTime)

	_, err = DecodeVersionManifest([]byte(`{"not":"a list"}`))
	assert.True(t, errors.Is(err, status.ErrDecode))

	_, err = DecodeVersionManifest([]byte(`[{"hash":"abc"}]`))
	assert.True(t, errors.Is(err, status.ErrDecode))
}
