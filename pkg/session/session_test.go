// Copyright © 2018 One Concern

package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/oneconcern/assetsync/pkg/locator"
	"github.com/oneconcern/assetsync/pkg/manifest"
	"github.com/oneconcern/assetsync/pkg/session/mocks"
	"github.com/oneconcern/assetsync/pkg/status"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const (
	basePath    = "/app/AssetBundles"
	overlayPath = "/cache/AssetBundles"
	remotePath  = "/cdn"
	packageName = "v1"
)

func testConfig() Config {
	return Config{
		Package:     packageName,
		BasePath:    basePath,
		OverlayPath: overlayPath,
		RemoteURL:   remotePath,
	}
}

func updatedPackage() mocks.Package {
	return mocks.DefaultPackage(100).
		With("b", mocks.Bundle{
			Assets:        map[string]string{"assets/b.txt": "new content of b"},
			Dependencies:  []string{"c"},
			LastWriteTime: 200,
		}).
		With("e", mocks.Bundle{
			Assets:        map[string]string{"assets/e.txt": "content of e"},
			Dependencies:  []string{"d"},
			LastWriteTime: 200,
		})
}

// setupFs writes the base package, and the remote package when not nil
func setupFs(t testing.TB, base, remote mocks.Package) afero.Fs {
	fs := afero.NewMemMapFs()
	mocks.WritePackage(t, afero.NewBasePathFs(fs, basePath), base)
	if remote != nil {
		mocks.WritePackage(t, afero.NewBasePathFs(fs, remotePath+"/"+packageName), remote)
	}
	return fs
}

func openSession(t testing.TB, cfg Config, fs afero.Fs) *Session {
	t.Helper()
	s, err := Open(context.Background(), cfg, Fs(fs), Logger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func loadString(t testing.TB, s *Session, assetPath string) string {
	t.Helper()
	handle, err := s.LoadAsset(context.Background(), assetPath)
	require.NoError(t, err)
	defer func() {
		require.NoError(t, s.UnloadAsset(handle))
	}()
	return string(handle.Asset.Data)
}

func TestSetupAndLoad(t *testing.T) {
	s := openSession(t, testConfig(), setupFs(t, mocks.DefaultPackage(100), nil))
	ctx := context.Background()

	_, err := s.LoadAsset(ctx, "assets/a.txt")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotReady))

	require.NoError(t, s.Setup(ctx))
	assert.NotEmpty(t, s.ID())

	handle, err := s.LoadAsset(ctx, "assets/a.txt")
	require.NoError(t, err)
	assert.Equal(t, "content of a", string(handle.Asset.Data))
	assert.Equal(t, 3, s.Stats().Resident, "a, b and c are resident")

	other, err := s.LoadAsset(ctx, "assets/shared/a.json")
	require.NoError(t, err)
	assert.Equal(t, 3, s.Stats().Resident)

	require.NoError(t, s.UnloadAsset(handle))
	assert.Equal(t, 3, s.Stats().Resident)
	require.NoError(t, s.UnloadAsset(other))
	assert.Zero(t, s.Stats().Resident)

	_, err = s.LoadAsset(ctx, "assets/unknown.txt")
	assert.True(t, errors.Is(err, status.ErrNotFound))

	assets, err := s.Assets("assets/shared")
	require.NoError(t, err)
	assert.Equal(t, []string{"assets/shared/a.json"}, assets)
}

func TestSetupWithoutBase(t *testing.T) {
	s := openSession(t, testConfig(), afero.NewMemMapFs())

	err := s.Setup(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrTierAbsent))
}

func TestDownloadPackage(t *testing.T) {
	s := openSession(t, testConfig(), setupFs(t, mocks.DefaultPackage(100), updatedPackage()))
	ctx := context.Background()
	require.NoError(t, s.Setup(ctx))
	assert.Equal(t, "content of b", loadString(t, s, "assets/b.txt"))

	size, err := s.CalculateDownloadSize(ctx)
	require.NoError(t, err)
	assert.Positive(t, size)

	var downloaded []string
	require.NoError(t, s.DownloadPackage(ctx, func(v manifest.VersionEntry) {
		downloaded = append(downloaded, v.FilePath)
	}))
	assert.Equal(t, []string{"b", "e"}, downloaded)

	assert.Equal(t, "new content of b", loadString(t, s, "assets/b.txt"))
	assert.Equal(t, "content of e", loadString(t, s, "assets/e.txt"))
	assert.Equal(t, "content of a", loadString(t, s, "assets/a.txt"))

	for id, expected := range map[string]locator.Tier{
		"a": locator.Base,
		"b": locator.Overlay,
		"e": locator.Overlay,
	} {
		tier, ok := s.resolver.Tier(id)
		require.True(t, ok, id)
		assert.Equal(t, expected, tier, id)
	}

	size, err = s.CalculateDownloadSize(ctx)
	require.NoError(t, err)
	assert.Zero(t, size)

	// the dependency graph is rebuilt from the updated root container
	handle, err := s.LoadAsset(ctx, "assets/e.txt")
	require.NoError(t, err)
	assert.Equal(t, 2, s.Stats().Resident, "e depends on d")
	require.NoError(t, s.UnloadAsset(handle))
}

func TestDeleteBundleCache(t *testing.T) {
	fs := setupFs(t, mocks.DefaultPackage(100), updatedPackage())
	s := openSession(t, testConfig(), fs)
	ctx := context.Background()
	require.NoError(t, s.DownloadPackage(ctx, nil))
	assert.Equal(t, "new content of b", loadString(t, s, "assets/b.txt"))

	require.NoError(t, s.DeleteBundleCache(ctx))
	_, err := s.LoadAsset(ctx, "assets/b.txt")
	assert.True(t, errors.Is(err, ErrNotReady))

	keys, err := s.Stores().Overlay.Keys(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)

	require.NoError(t, s.Setup(ctx))
	assert.Equal(t, "content of b", loadString(t, s, "assets/b.txt"))
	_, err = s.LoadAsset(ctx, "assets/e.txt")
	assert.True(t, errors.Is(err, status.ErrNotFound), "e is only part of the updated package")
}

func TestNoRemote(t *testing.T) {
	cfg := testConfig()
	cfg.RemoteURL = ""
	s := openSession(t, cfg, setupFs(t, mocks.DefaultPackage(100), nil))

	err := s.DownloadPackage(context.Background(), nil)
	assert.True(t, errors.Is(err, ErrNoRemote))
	_, err = s.CalculateDownloadSize(context.Background())
	assert.True(t, errors.Is(err, ErrNoRemote))
}

func TestHTTPRemote(t *testing.T) {
	fs := setupFs(t, mocks.DefaultPackage(100), nil)
	remoteFs := afero.NewMemMapFs()
	mocks.WritePackage(t, afero.NewBasePathFs(remoteFs, "/packages/"+packageName), updatedPackage())

	server := httptest.NewServer(http.FileServer(afero.NewHttpFs(remoteFs).Dir("/")))
	defer server.Close()

	cfg := testConfig()
	cfg.RemoteURL = server.URL + "/packages"
	cfg.MaxAttempts = 2
	s := openSession(t, cfg, fs)
	ctx := context.Background()

	assert.Equal(t, server.URL+"/packages/"+packageName, cfg.RemoteRoot())
	require.NoError(t, s.DownloadPackage(ctx, nil))
	assert.Equal(t, "new content of b", loadString(t, s, "assets/b.txt"))
}

func TestCancelledLoad(t *testing.T) {
	cfg := testConfig()
	cfg.BundleLoadDelay = time.Minute
	s := openSession(t, cfg, setupFs(t, mocks.DefaultPackage(100), nil))
	require.NoError(t, s.Setup(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := s.LoadAsset(ctx, "assets/d.txt")
	require.Error(t, err)
	assert.True(t, status.IsCancelled(err))
	assert.False(t, errors.Is(err, status.ErrFetchFailed))

	// a reset aborts the delayed fetch, which is still pending
	s.UnloadAll()
	assert.Equal(t, 0, s.Stats().InFlight)
}

func TestFetchFailure(t *testing.T) {
	fs := setupFs(t, mocks.DefaultPackage(100), nil)
	require.NoError(t, fs.Remove(basePath+"/c"))
	s := openSession(t, testConfig(), fs)
	require.NoError(t, s.Setup(context.Background()))

	_, err := s.LoadAsset(context.Background(), "assets/a.txt")
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrFetchFailed))
	assert.Equal(t, 0, s.Stats().Refs, "no reference is retained")

	assert.Equal(t, "content of d", loadString(t, s, "assets/d.txt"))
}

func TestConcurrentLoads(t *testing.T) {
	s := openSession(t, testConfig(), setupFs(t, mocks.DefaultPackage(100), nil))
	require.NoError(t, s.Setup(context.Background()))

	paths := []string{"assets/a.txt", "assets/b.txt", "assets/c.txt", "assets/d.txt", "assets/shared/a.json"}
	type result struct {
		data string
		err  error
	}
	results := make(chan result, 4*len(paths))
	for i := 0; i < 4; i++ {
		for _, p := range paths {
			go func(p string) {
				handle, err := s.LoadAsset(context.Background(), p)
				if err != nil {
					results <- result{err: err}
					return
				}
				data := string(handle.Asset.Data)
				results <- result{data: data, err: s.UnloadAsset(handle)}
			}(p)
		}
	}

	contents := make(map[string]int)
	for i := 0; i < cap(results); i++ {
		r := <-results
		require.NoError(t, r.err)
		contents[r.data]++
	}
	assert.Equal(t, map[string]int{
		"content of a": 4,
		"content of b": 4,
		"content of c": 4,
		"content of d": 4,
		`{"a":1}`:      4,
	}, contents)
	assert.Equal(t, 0, s.Stats().Refs)
	assert.Equal(t, 0, s.Stats().Resident)
}
