package retrieval

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"konduit/backend/internal/middleware"
)

// QueryLogEntry is one line of the query audit trail.
type QueryLogEntry struct {
	Query         string    `json:"query"`
	TopK          int       `json:"top_k"`
	Results       int       `json:"results"`
	DurationMs    int64     `json:"duration_ms"`
	CorrelationID string    `json:"correlation_id,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// QueryLogger appends search activity to a JSONL file. It is best-effort:
// write failures are logged, never surfaced to callers. A nil QueryLogger is
// a no-op.
type QueryLogger struct {
	mu sync.Mutex
	f  *os.File
}

func NewFileQueryLogger(path string) (*QueryLogger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, err
	}
	return &QueryLogger{f: f}, nil
}

func (l *QueryLogger) Log(ctx context.Context, entry QueryLogEntry) {
	if l == nil {
		return
	}
	entry.CorrelationID = middleware.GetCorrelationID(ctx)

	data, err := json.Marshal(entry)
	if err != nil {
		slog.WarnContext(ctx, "failed to marshal query log entry", "error", err)
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.f.Write(append(data, '\n')); err != nil {
		slog.WarnContext(ctx, "failed to write query log entry", "error", err)
	}
}

func (l *QueryLogger) Close() error {
	if l == nil {
		return nil
	}
	return l.f.Close()
}
