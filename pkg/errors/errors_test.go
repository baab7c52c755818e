package errors

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError(t *testing.T) {
	e1 := New("cause1")
	e2 := New("cause2").Wrap(e1)
	e := New("dummy").Wrap(e2)
	e3 := e.Unwrap()
	assert.True(t, Is(e, e1))
	assert.True(t, Is(e, e2))
	assert.True(t, e3 == e2)
}

func TestWrapKeepsSentinel(t *testing.T) {
	sentinel := New("fetch failed")

	wrapped := sentinel.Wrap(context.DeadlineExceeded)
	require.NotSame(t, sentinel, wrapped)
	assert.Nil(t, sentinel.Unwrap(), "wrapping must not mutate the sentinel")

	assert.True(t, Is(wrapped, sentinel))
	assert.True(t, Is(wrapped, context.DeadlineExceeded))
	assert.False(t, Is(wrapped, New("fetch failed")))

	detailed := wrapped.WrapMessage("uri %s", "file:///x")
	assert.True(t, Is(detailed, sentinel))
	assert.True(t, Is(detailed, context.DeadlineExceeded))
	assert.Equal(t, "fetch failed: uri file:///x: context deadline exceeded", detailed.Error())
}
