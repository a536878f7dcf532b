package main

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetupLogger(t *testing.T) {
	ctx := t.Context()

	assert.True(t, setupLogger(envLocal).Enabled(ctx, slog.LevelDebug))
	assert.False(t, setupLogger(envDev).Enabled(ctx, slog.LevelDebug))
	assert.True(t, setupLogger(envDev).Enabled(ctx, slog.LevelInfo))
	assert.False(t, setupLogger(envProd).Enabled(ctx, slog.LevelInfo))
	assert.True(t, setupLogger(envProd).Enabled(ctx, slog.LevelWarn))
	assert.False(t, setupLogger("unknown").Enabled(ctx, slog.LevelWarn))
}

func TestDropTime(t *testing.T) {
	assert.Equal(t, slog.Attr{}, dropTime(nil, slog.String(slog.TimeKey, "now")))
	assert.Equal(t, "msg", dropTime(nil, slog.String(slog.MessageKey, "msg")).Key)
}
