package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(Config{Level: "loud"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestInitReplacesGlobal(t *testing.T) {
	require.NoError(t, Init(Config{Level: "debug", Encoding: "json"}))
	first := Get()
	require.NoError(t, Init(Config{Level: "warn", Encoding: "console"}))
	assert.NotSame(t, first, Get())
}

func TestWithContextAddsRunID(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	base := zap.New(core)

	ctx := NewRunContext(context.Background())
	ctx = WithFormat(ctx, "sqlite")
	WithContext(ctx, base).Info("hello")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, RunID(ctx), fields["run_id"])
	assert.Equal(t, "sqlite", fields["format"])
	assert.Len(t, RunID(ctx), 36)
}

func TestRunIDMissing(t *testing.T) {
	assert.Empty(t, RunID(context.Background()))
}
