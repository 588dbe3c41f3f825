package clog

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddAttributes_MergesNestedMaps(t *testing.T) {
	ctx := ContextWithSlog(context.Background())
	AddAttributes(ctx, map[string]any{"view": map[string]any{"id": "v1"}})
	AddAttributes(ctx, map[string]any{"view": map[string]any{"tasks": 3}, "event": "x"})

	got := GetAttributes(ctx)
	assert.Equal(t, map[string]any{"id": "v1", "tasks": 3}, got["view"])
	assert.Equal(t, "x", got["event"])
}

func TestAttributes_WithoutBag(t *testing.T) {
	ctx := context.Background()
	AddAttribute(ctx, "k", "v")
	assert.Nil(t, GetAttributes(ctx))
	assert.Nil(t, GetError(ctx))
	assert.Empty(t, GetStack(ctx))
}

func TestGetAttribute_Typed(t *testing.T) {
	ctx := ContextWithSlog(context.Background())
	want := errors.New("boom")
	AddError(ctx, want)
	AddStack(ctx, "stack")
	AddAttribute(ctx, "n", 1)

	assert.Equal(t, want, GetError(ctx))
	assert.Equal(t, "stack", GetStack(ctx))
	assert.Equal(t, 1, GetAttribute[int](ctx, "n"))
	assert.Empty(t, GetAttribute[string](ctx, "n"))
}

func TestTextHandler_EngineLayout(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := slog.New(NewContextHandler(NewTextHandler(buf, WithColor(false), WithLayout(LayoutEngine))))

	ctx := WithView(context.Background(), "v1", "ScheduleChanged")
	AddError(ctx, errors.New("task t9 not found"))
	logger.WarnContext(ctx, "reschedule failed", "anchor", "t1")

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "WARN v1 ScheduleChanged reschedule failed task t9 not found")
	assert.Equal(t, "    anchor=t1", lines[1])
}

func TestTextHandler_LevelFilter(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := slog.New(NewTextHandler(buf, WithColor(false), WithLevel(slog.LevelWarn)))

	logger.Info("hidden")
	logger.Error("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"shown"`)
}

func TestTextHandler_Groups(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := slog.New(NewTextHandler(buf, WithColor(false))).WithGroup("engine").With("view", "v1")

	logger.Info("loaded", "tasks", 2)
	assert.Contains(t, buf.String(), "engine.view=v1")
	assert.Contains(t, buf.String(), "engine.tasks=2")
}

func TestConnectCodeToLevel(t *testing.T) {
	assert.Equal(t, LevelInfo, ConnectCodeToLevel(connect.CodeNotFound))
	assert.Equal(t, LevelInfo, ConnectCodeToLevel(connect.CodeFailedPrecondition))
	assert.Equal(t, LevelError, ConnectCodeToLevel(connect.CodeInternal))
	assert.Equal(t, LevelError, ConnectCodeToLevel(connect.Code(99)))
}

func TestHTTPStatusToLevel(t *testing.T) {
	assert.Equal(t, LevelInfo, HTTPStatusToLevel(200))
	assert.Equal(t, LevelInfo, HTTPStatusToLevel(499))
	assert.Equal(t, LevelWarn, HTTPStatusToLevel(404))
	assert.Equal(t, LevelError, HTTPStatusToLevel(503))
}
