// Copyright © 2018 One Concern

package httpstore

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/oneconcern/assetsync/pkg/errors"
	"github.com/oneconcern/assetsync/pkg/storage"
	"github.com/oneconcern/assetsync/pkg/storage/status"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStore(t testing.TB, opts ...Option) (storage.Store, func()) {
	t.Helper()

	objects := map[string]string{
		"/assets/sixteentons":           "this is the text",
		"/assets/bundles/seventeentons": "this is the text for another thing",
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/assets/private":
			w.WriteHeader(http.StatusForbidden)
			return
		case "/assets/slow":
			time.Sleep(200 * time.Millisecond)
		}
		content, ok := objects[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("X-Token") != "" {
			w.Header().Set("X-Token", r.Header.Get("X-Token"))
		}
		_, _ = w.Write([]byte(content))
	}))

	bs, err := New(srv.URL+"/assets", opts...)
	require.NoError(t, err)
	return bs, srv.Close
}

func TestHas(t *testing.T) {
	bs, cleanup := setupStore(t)
	defer cleanup()

	has, err := bs.Has(context.Background(), "sixteentons")
	require.NoError(t, err)
	assert.True(t, has)

	has, err = bs.Has(context.Background(), "bundles/seventeentons")
	require.NoError(t, err)
	assert.True(t, has)

	has, err = bs.Has(context.Background(), "fifteentons")
	require.NoError(t, err)
	assert.False(t, has)

	_, err = bs.Has(context.Background(), "private")
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrForbidden))
}

func TestGet(t *testing.T) {
	bs, cleanup := setupStore(t, Header("X-Token", "secret"))
	defer cleanup()

	b, err := storage.ReadAll(context.Background(), bs, "bundles/seventeentons")
	require.NoError(t, err)
	assert.Equal(t, "this is the text for another thing", string(b))

	_, err = bs.Get(context.Background(), "fifteentons")
	require.Error(t, err)
	assert.True(t, status.IsNotExist(err))
}

func TestTimeout(t *testing.T) {
	bs, cleanup := setupStore(t, Timeout(20*time.Millisecond))
	defer cleanup()

	_, err := bs.Get(context.Background(), "slow")
	require.Error(t, err)
}

func TestReadOnly(t *testing.T) {
	bs, cleanup := setupStore(t)
	defer cleanup()

	ctx := context.Background()
	assert.True(t, errors.Is(bs.Put(ctx, "x", strings.NewReader("x"), storage.OverWrite), status.ErrNotSupported))
	assert.True(t, errors.Is(bs.Delete(ctx, "x"), status.ErrNotSupported))
	assert.True(t, errors.Is(bs.Clear(ctx), status.ErrNotSupported))
	_, err := bs.Keys(ctx)
	assert.True(t, errors.Is(err, status.ErrNotSupported))
}

func TestNewRejectsScheme(t *testing.T) {
	_, err := New("ftp://example.com/assets")
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrInvalidResource))
}
