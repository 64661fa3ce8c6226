package logger

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

// TestParseLogLevel verifies mapping from strings to zapcore.Level and handling of unknown values.
func TestParseLogLevel(t *testing.T) {
	t.Parallel()

	cases := map[string]zapcore.Level{
		"debug": zapcore.DebugLevel,
		"info":  zapcore.InfoLevel,
		"warn":  zapcore.WarnLevel,
		"error": zapcore.ErrorLevel,
		"fatal": zapcore.FatalLevel,
	}
	for s, lvl := range cases {
		got, ok := ParseLogLevel(s)
		require.True(t, ok)
		require.Equal(t, lvl, got)
	}

	_, ok := ParseLogLevel("unknown")
	require.False(t, ok)
}

// TestFromContext verifies logger carriage through a context and the global fallback.
func TestFromContext(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	require.Same(t, Logger(), FromContext(ctx))

	named := New(nil, WithLevel(zapcore.WarnLevel)).Named("test")
	ctx = ToContext(ctx, named)
	require.Same(t, named, FromContext(ctx))

	// WithName derives a child logger without touching the global one.
	child := WithName(ctx, "sub")
	require.NotSame(t, FromContext(ctx), FromContext(child))
	require.Same(t, Logger(), FromContext(t.Context()))
}
