package retrieval

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"konduit/backend/internal/middleware"
)

func TestQueryLogger_AppendsJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "query.log")
	logger, err := NewFileQueryLogger(path)
	require.NoError(t, err)
	defer logger.Close()

	ctx := middleware.WithCorrelationID(context.Background(), "corr-123")
	logger.Log(ctx, QueryLogEntry{Query: "first", TopK: 5, Results: 3, Timestamp: time.Now().UTC()})
	logger.Log(ctx, QueryLogEntry{Query: "second", TopK: 7, Results: 0, Timestamp: time.Now().UTC()})

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"query":"first"`)
	assert.Contains(t, lines[0], `"correlation_id":"corr-123"`)
	assert.Contains(t, lines[1], `"query":"second"`)
}

func TestQueryLogger_NilLoggerIsNoOp(t *testing.T) {
	var logger *QueryLogger
	logger.Log(context.Background(), QueryLogEntry{Query: "ignored"})
	assert.NoError(t, logger.Close())
}
