// Copyright © 2018 One Concern

// Package gcs implements a read-only storage.Store over a google cloud storage bucket.
package gcs

import (
	"context"
	"io"
	"path"
	"strings"

	gcsStorage "cloud.google.com/go/storage"
	"github.com/oneconcern/assetsync/pkg/storage"
	"github.com/oneconcern/assetsync/pkg/storage/status"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

type gcs struct {
	readOnlyClient *gcsStorage.Client
	bucket         string
	prefix         string
	clientOpts     []option.ClientOption
	l              *zap.Logger
}

// New builds a read-only store over objects located under prefix in some bucket.
//
// Credentials are resolved the usual google way, e.g. from GOOGLE_APPLICATION_CREDENTIALS.
func New(ctx context.Context, bucket, prefix string, opts ...Option) (storage.Store, error) {
	googleStore := &gcs{
		bucket:     bucket,
		prefix:     strings.Trim(prefix, "/"),
		clientOpts: []option.ClientOption{option.WithScopes(gcsStorage.ScopeReadOnly)},
		l:          zap.NewNop(),
	}
	for _, apply := range opts {
		apply(googleStore)
	}
	var err error
	googleStore.readOnlyClient, err = gcsStorage.NewClient(ctx, googleStore.clientOpts...)
	if err != nil {
		return nil, toSentinelErrors(err)
	}
	return googleStore, nil
}

func (g *gcs) String() string {
	if g.prefix == "" {
		return "gcs://" + g.bucket
	}
	return "gcs://" + g.bucket + "/" + g.prefix
}

func (g *gcs) objectName(key string) string {
	return joinKey(g.prefix, key)
}

func joinKey(prefix, key string) string {
	if prefix == "" {
		return strings.TrimPrefix(key, "/")
	}
	return path.Join(prefix, key)
}

func (g *gcs) Has(ctx context.Context, key string) (bool, error) {
	_, err := g.readOnlyClient.Bucket(g.bucket).Object(g.objectName(key)).Attrs(ctx)
	if err != nil {
		err = toSentinelErrors(err)
		if status.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (g *gcs) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	objectReader, err := g.readOnlyClient.Bucket(g.bucket).Object(g.objectName(key)).NewReader(ctx)
	if err != nil {
		return nil, toSentinelErrors(err)
	}
	return objectReader, nil
}

func (g *gcs) Put(context.Context, string, io.Reader, bool) error {
	return status.ErrNotSupported.WrapMessage("put on %s", g)
}

func (g *gcs) Delete(context.Context, string) error {
	return status.ErrNotSupported.WrapMessage("delete on %s", g)
}

func (g *gcs) Keys(ctx context.Context) ([]string, error) {
	var query *gcsStorage.Query
	if g.prefix != "" {
		query = &gcsStorage.Query{Prefix: g.prefix + "/"}
	}
	objectsIterator := g.readOnlyClient.Bucket(g.bucket).Objects(ctx, query)
	var keys []string
	for {
		attrs, err := objectsIterator.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, toSentinelErrors(err)
		}
		keys = append(keys, strings.TrimPrefix(attrs.Name, g.prefix+"/"))
	}
	g.l.Debug("listed gcs keys", zap.String("bucket", g.bucket), zap.Int("count", len(keys)))
	return keys, nil
}

func (g *gcs) Clear(context.Context) error {
	return status.ErrNotSupported.WrapMessage("clear on %s", g)
}
