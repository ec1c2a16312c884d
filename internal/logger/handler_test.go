package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bizassist/internal/middleware"
)

func logLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	return line
}

func TestCorrelationHandler_StampsID(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewCorrelationHandler(slog.NewJSONHandler(&buf, nil)))

	ctx := middleware.WithCorrelationID(context.Background(), "corr-42")
	log.InfoContext(ctx, "ingestion started")

	assert.Equal(t, "corr-42", logLine(t, &buf)["correlation_id"])
}

func TestCorrelationHandler_NoIDPassesThrough(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewCorrelationHandler(slog.NewJSONHandler(&buf, nil)))

	log.InfoContext(context.Background(), "startup")

	line := logLine(t, &buf)
	assert.Equal(t, "startup", line["msg"])
	assert.NotContains(t, line, "correlation_id")
}

func TestCorrelationHandler_WithAttrsKeepsStamping(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewCorrelationHandler(slog.NewJSONHandler(&buf, nil))).With("component", "worker")

	ctx := middleware.WithCorrelationID(context.Background(), "corr-43")
	log.InfoContext(ctx, "message handled")

	line := logLine(t, &buf)
	assert.Equal(t, "worker", line["component"])
	assert.Equal(t, "corr-43", line["correlation_id"])
}
