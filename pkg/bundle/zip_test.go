// Copyright © 2018 One Concern

package bundle

import (
	"bytes"
	"context"
	"testing"

	"github.com/oneconcern/assetsync/internal/rand"
	"github.com/oneconcern/assetsync/pkg/errors"
	"github.com/oneconcern/assetsync/pkg/status"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func packFixture(t testing.TB) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, Pack(&buf, map[string][]byte{
		"Assets/Textures/Stone.png":  []byte("stone"),
		"assets/prefabs/wall.prefab": []byte("wall"),
	}))
	return buf.Bytes()
}

func TestZipBundle(t *testing.T) {
	for _, cacheSize := range []int{0, 4} {
		b, err := ZipOpener{CacheSize: cacheSize}.Open("walls", packFixture(t))
		require.NoError(t, err)
		assert.Equal(t, "walls", b.Name())
		assert.Equal(t, []string{"assets/prefabs/wall.prefab", "assets/textures/stone.png"}, b.Assets())

		for i := 0; i < 2; i++ {
			asset, err := b.Load(context.Background(), "ASSETS/Textures/Stone.png")
			require.NoError(t, err)
			assert.Equal(t, "assets/textures/stone.png", asset.Path)
			assert.Equal(t, "stone", string(asset.Data))
		}

		_, err = b.Load(context.Background(), "assets/missing.png")
		require.Error(t, err)
		assert.True(t, errors.Is(err, status.ErrNotFound))

		require.NoError(t, b.Close())
		require.NoError(t, b.Close())
		_, err = b.Load(context.Background(), "assets/prefabs/wall.prefab")
		assert.True(t, errors.Is(err, ErrClosed))
	}
}

func TestZipBundleCancelled(t *testing.T) {
	b, err := ZipOpener{}.Open("walls", packFixture(t))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = b.Load(ctx, "assets/prefabs/wall.prefab")
	assert.True(t, status.IsCancelled(err))
}

func TestOpenCorrupted(t *testing.T) {
	_, err := ZipOpener{}.Open("broken", []byte("not a zip archive"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrDecode))
}

func TestLargeAssets(t *testing.T) {
	files := map[string][]byte{
		"assets/noise.bin":   rand.Bytes(1 << 20),
		"assets/letters.txt": []byte(rand.LetterString(1 << 16)),
	}
	var buf bytes.Buffer
	require.NoError(t, Pack(&buf, files))

	b, err := ZipOpener{CacheSize: 1}.Open("large", buf.Bytes())
	require.NoError(t, err)
	defer func() { _ = b.Close() }()

	for pth, expected := range files {
		asset, err := b.Load(context.Background(), pth)
		require.NoError(t, err, pth)
		assert.Equal(t, expected, asset.Data, pth)
	}
}

func TestPackIsDeterministic(t *testing.T) {
	first, second := packFixture(t), packFixture(t)
	assert.Equal(t, Hash(first), Hash(second))
	assert.Len(t, Hash(first), 64)
	assert.NotEqual(t, Hash(first), Hash([]byte("other")))
}

func TestOpenerFunc(t *testing.T) {
	var called string
	o := OpenerFunc(func(name string, data []byte) (Bundle, error) {
		called = name
		return ZipOpener{}.Open(name, data)
	})
	_, err := o.Open("walls", packFixture(t))
	require.NoError(t, err)
	assert.Equal(t, "walls", called)
}
