package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// TestParseLogLevel verifies mapping from strings to zapcore.Level and handling of unknown values.
func TestParseLogLevel(t *testing.T) {
	t.Parallel()

	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"INFO":    zapcore.InfoLevel,
		"":        zapcore.InfoLevel,
		"warning": zapcore.WarnLevel,
		" error ": zapcore.ErrorLevel,
	}
	for s, lvl := range cases {
		got, ok := ParseLogLevel(s)
		require.True(t, ok, s)
		require.Equal(t, lvl, got)
	}

	_, ok := ParseLogLevel("verbose")
	require.False(t, ok)
}

// TestFromContext_FallsBackToGlobal checks that a bare context yields the global logger.
func TestFromContext_FallsBackToGlobal(t *testing.T) {
	t.Parallel()

	require.Same(t, Logger(), FromContext(context.Background()))
}

// TestWithKV_AttachesFields ensures scoped fields reach every entry written through the context.
func TestWithKV_AttachesFields(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	ctx := ToContext(context.Background(), zap.New(core).Sugar())
	ctx = WithKV(WithName(ctx, "sos"), "alert_id", "a-1")

	WarnKV(Detach(ctx), "responder unreachable", "responder_id", "r-2")

	entries := logs.All()
	require.Len(t, entries, 1)
	require.Equal(t, "sos", entries[0].LoggerName)
	require.Equal(t, "a-1", entries[0].ContextMap()["alert_id"])
	require.Equal(t, "r-2", entries[0].ContextMap()["responder_id"])
}

// TestWithLevel_RaisesFloor checks the derived logger drops entries below its level and keeps the floor on With.
func TestWithLevel_RaisesFloor(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	ctx := ToContext(context.Background(), zap.New(core).Sugar())
	ctx = WithKV(WithOptions(ctx, WithLevel(zapcore.WarnLevel)), "alert_id", "a-1")

	InfoKV(ctx, "dropped")
	WarnKV(ctx, "kept")

	entries := logs.All()
	require.Len(t, entries, 1)
	require.Equal(t, "kept", entries[0].Message)
	require.Equal(t, "a-1", entries[0].ContextMap()["alert_id"])
}

// TestWithLevel_NeverLowers keeps entries the underlying core rejects dropped.
func TestWithLevel_NeverLowers(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.ErrorLevel)
	ctx := WithOptions(ToContext(context.Background(), zap.New(core).Sugar()), WithLevel(zapcore.DebugLevel))

	WarnKV(ctx, "dropped")
	ErrorKV(ctx, "kept")

	require.Equal(t, 1, logs.Len())
}
