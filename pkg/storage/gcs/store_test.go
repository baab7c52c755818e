// Copyright © 2018 One Concern

package gcs

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"

	gcsStorage "cloud.google.com/go/storage"
	"github.com/oneconcern/assetsync/pkg/errors"
	"github.com/oneconcern/assetsync/pkg/storage"
	"github.com/oneconcern/assetsync/pkg/storage/status"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

func TestToSentinelErrors(t *testing.T) {
	for _, toPin := range []struct {
		Name     string
		Err      error
		Expected error
	}{
		{Name: "missing object", Err: gcsStorage.ErrObjectNotExist, Expected: status.ErrNotExists},
		{Name: "missing bucket", Err: fmt.Errorf("attrs: %w", gcsStorage.ErrBucketNotExist), Expected: status.ErrNotExists},
		{Name: "invalid bucket", Err: &googleapi.Error{Code: 400, Body: "the bucket is not valid"}, Expected: status.ErrInvalidResource},
		{Name: "bad request", Err: &googleapi.Error{Code: 400}, Expected: status.ErrStorageAPI},
		{Name: "unauthorized", Err: &googleapi.Error{Code: 401}, Expected: status.ErrUnauthorized},
		{Name: "forbidden", Err: &googleapi.Error{Code: 403}, Expected: status.ErrForbidden},
		{Name: "not found", Err: &googleapi.Error{Code: 404}, Expected: status.ErrNotFound},
		{Name: "server", Err: &googleapi.Error{Code: 503}, Expected: status.ErrStorageAPI},
	} {
		testCase := toPin
		t.Run(testCase.Name, func(t *testing.T) {
			err := toSentinelErrors(testCase.Err)
			require.Error(t, err)
			assert.True(t, errors.Is(err, testCase.Expected), "got %v", err)
		})
	}
	assert.NoError(t, toSentinelErrors(nil))
}

func TestReadOnly(t *testing.T) {
	bs, err := New(context.Background(), "bucket", "/assets/", ClientOptions(option.WithoutAuthentication()))
	require.NoError(t, err)
	assert.Equal(t, "gcs://bucket/assets", bs.String())

	ctx := context.Background()
	assert.True(t, errors.Is(bs.Put(ctx, "x", strings.NewReader("x"), storage.OverWrite), status.ErrNotSupported))
	assert.True(t, errors.Is(bs.Delete(ctx, "x"), status.ErrNotSupported))
	assert.True(t, errors.Is(bs.Clear(ctx), status.ErrNotSupported))
}

func TestJoinKey(t *testing.T) {
	assert.Equal(t, "assets/bundles/a", joinKey("assets", "bundles/a"))
	assert.Equal(t, "bundles/a", joinKey("", "/bundles/a"))
}

// TestGet needs some real bucket to read from
func TestGet(t *testing.T) {
	bucket := os.Getenv("ASSETSYNC_TEST_GCS_BUCKET")
	if bucket == "" {
		t.Skip("ASSETSYNC_TEST_GCS_BUCKET not set")
	}
	bs, err := New(context.Background(), bucket, "")
	require.NoError(t, err)

	keys, err := bs.Keys(context.Background())
	require.NoError(t, err)
	for _, k := range keys {
		has, err := bs.Has(context.Background(), k)
		require.NoError(t, err)
		assert.True(t, has)
	}

	has, err := bs.Has(context.Background(), "definitely/not/there")
	require.NoError(t, err)
	assert.False(t, has)
}
