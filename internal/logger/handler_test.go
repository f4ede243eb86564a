package logger

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"konduit/backend/internal/middleware"
)

func TestContextHandler_AddsCorrelationID(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewContextHandler(slog.NewJSONHandler(&buf, nil)))

	ctx := middleware.WithCorrelationID(context.Background(), "corr-123")
	log.InfoContext(ctx, "hello")

	assert.Contains(t, buf.String(), `"correlation_id":"corr-123"`)
}

func TestContextHandler_NoCorrelationID(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewContextHandler(slog.NewJSONHandler(&buf, nil)))

	log.InfoContext(context.Background(), "hello")

	assert.NotContains(t, buf.String(), "correlation_id")
}
