package dlogger

import (
	"testing"

	"github.com/oneconcern/assetsync/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestGetLogger(t *testing.T) {
	for _, level := range []string{LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError} {
		l, err := GetLogger(level)
		require.NoError(t, err, level)
		require.NotNil(t, l)
	}

	l := MustGetLogger(LogLevelNone)
	assert.False(t, l.Core().Enabled(zapcore.ErrorLevel))

	l = MustGetLogger(LogLevelWarn)
	assert.False(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, l.Core().Enabled(zapcore.WarnLevel))

	_, err := GetLogger("chatty")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidLevel))
	assert.Panics(t, func() { _ = MustGetLogger("chatty") })
}
