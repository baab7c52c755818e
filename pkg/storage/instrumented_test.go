// Copyright © 2018 One Concern

package storage_test

import (
	"context"
	"strings"
	"testing"

	"github.com/oneconcern/assetsync/pkg/storage"
	"github.com/oneconcern/assetsync/pkg/storage/localfs"
	"github.com/opentracing/opentracing-go/mocktracer"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestInstrument(t *testing.T) {
	tracer := mocktracer.New()
	core, logs := observer.New(zapcore.DebugLevel)
	store := storage.Instrument(tracer, zap.New(core), localfs.New(afero.NewMemMapFs()))

	ctx := context.Background()
	require.NoError(t, store.Put(ctx, "a/b", strings.NewReader("payload"), storage.NoOverWrite))
	data, err := storage.ReadAll(ctx, store, "a/b")
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))

	_, err = store.Get(ctx, "missing")
	require.Error(t, err)

	spans := tracer.FinishedSpans()
	require.Len(t, spans, 3)
	assert.Equal(t, "storage.localfs.Put", spans[0].OperationName)
	assert.Equal(t, "storage.localfs.Get", spans[1].OperationName)
	assert.Equal(t, true, spans[2].Tag("error"))

	assert.Equal(t, 3, logs.FilterMessage("storage put").Len()+logs.FilterMessage("storage get").Len())
	assert.Equal(t, "localfs", store.String())
}
