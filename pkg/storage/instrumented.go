// Copyright © 2018 One Concern

package storage

import (
	"context"
	"io"
	"strings"

	opentracing "github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
	"go.uber.org/zap"
)

// Instrument decorates a store with tracing spans and debug logs.
//
// A nil tracer falls back to the global opentracing tracer, which is a no-op unless registered.
func Instrument(tr opentracing.Tracer, logger *zap.Logger, store Store) Store {
	if tr == nil {
		tr = opentracing.GlobalTracer()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &instrumentedStore{
		tr:    tr,
		store: store,
		l:     logger.With(zap.Stringer("store", store)),
	}
}

type instrumentedStore struct {
	store Store
	tr    opentracing.Tracer
	l     *zap.Logger
}

func (i *instrumentedStore) opName(name string) string {
	return strings.Join([]string{"storage", i.String(), name}, ".")
}

func (i *instrumentedStore) spanFromContext(ctx context.Context, name string) opentracing.Span {
	parent := opentracing.SpanFromContext(ctx)
	var span opentracing.Span
	if parent != nil {
		span = i.tr.StartSpan(name, opentracing.ChildOf(parent.Context()))
	} else {
		span = i.tr.StartSpan(name)
	}
	return span
}

func finish(span opentracing.Span, err error) {
	if err != nil {
		ext.Error.Set(span, true)
		span.SetTag("error.message", err.Error())
	}
	span.Finish()
}

func (i *instrumentedStore) Has(ctx context.Context, key string) (has bool, err error) {
	span := i.spanFromContext(ctx, i.opName("Has"))
	defer func() { finish(span, err) }()
	i.l.Debug("storage has", zap.String("key", key))

	return i.store.Has(ctx, key)
}

func (i *instrumentedStore) Get(ctx context.Context, key string) (rdr io.ReadCloser, err error) {
	span := i.spanFromContext(ctx, i.opName("Get"))
	defer func() { finish(span, err) }()
	i.l.Debug("storage get", zap.String("key", key))

	return i.store.Get(ctx, key)
}

func (i *instrumentedStore) Put(ctx context.Context, key string, rdr io.Reader, exclusive bool) (err error) {
	span := i.spanFromContext(ctx, i.opName("Put"))
	defer func() { finish(span, err) }()
	i.l.Debug("storage put", zap.String("key", key), zap.Bool("exclusive", exclusive))

	return i.store.Put(ctx, key, rdr, exclusive)
}

func (i *instrumentedStore) Delete(ctx context.Context, key string) (err error) {
	span := i.spanFromContext(ctx, i.opName("Delete"))
	defer func() { finish(span, err) }()
	i.l.Debug("storage delete", zap.String("key", key))

	return i.store.Delete(ctx, key)
}

func (i *instrumentedStore) Keys(ctx context.Context) (keys []string, err error) {
	span := i.spanFromContext(ctx, i.opName("Keys"))
	defer func() { finish(span, err) }()
	i.l.Debug("storage keys")

	return i.store.Keys(ctx)
}

func (i *instrumentedStore) Clear(ctx context.Context) (err error) {
	span := i.spanFromContext(ctx, i.opName("Clear"))
	defer func() { finish(span, err) }()
	i.l.Debug("storage clear")

	return i.store.Clear(ctx)
}

func (i *instrumentedStore) String() string {
	return i.store.String()
}
