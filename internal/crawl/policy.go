package crawl

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
)

// Audit decision tags. Unreadable policy files are logged distinctly from
// explicit denials so operators can tell coverage loss from compliance.
const (
	DecisionAllowed    = "ALLOWED"
	DecisionBlocked    = "BLOCKED"
	DecisionUnreadable = "UNREADABLE"
)

// AuditLog is an append-only record of policy decisions.
type AuditLog struct {
	mu     sync.Mutex
	writer io.Writer
}

func NewAuditLog(w io.Writer) *AuditLog {
	return &AuditLog{writer: w}
}

func NewFileAuditLog(path string) (*AuditLog, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, err
	}

	cleanPath := filepath.Clean(path)
	f, err := os.OpenFile(cleanPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, err
	}
	return NewAuditLog(f), nil
}

func (l *AuditLog) Record(decision, rawURL string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := fmt.Fprintf(l.writer, "[%s] %s\n", decision, rawURL); err != nil {
		slog.Error("failed to write robots audit entry", "error", err)
	}
}

// PolicyGate decides whether a URL may be fetched according to the origin's
// robots.txt for the wildcard agent. Any failure to retrieve or parse the
// policy file denies the fetch (fail-closed). Decisions are re-evaluated per
// URL; nothing is cached across calls.
type PolicyGate struct {
	client *http.Client
	audit  *AuditLog
}

func NewPolicyGate(client *http.Client, audit *AuditLog) *PolicyGate {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &PolicyGate{client: client, audit: audit}
}

func (g *PolicyGate) Allowed(ctx context.Context, rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		g.audit.Record(DecisionUnreadable, rawURL)
		return false
	}

	robotsURL := fmt.Sprintf("%s://%s/robots.txt", u.Scheme, u.Host)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		g.audit.Record(DecisionUnreadable, rawURL)
		return false
	}

	resp, err := g.client.Do(req)
	if err != nil {
		slog.WarnContext(ctx, "could not read robots.txt, defaulting to disallow", "url", robotsURL, "error", err)
		g.audit.Record(DecisionUnreadable, rawURL)
		return false
	}
	defer resp.Body.Close()

	data, err := robotstxt.FromResponse(resp)
	if err != nil {
		slog.WarnContext(ctx, "could not parse robots.txt, defaulting to disallow", "url", robotsURL, "error", err)
		g.audit.Record(DecisionUnreadable, rawURL)
		return false
	}

	if !data.TestAgent(u.RequestURI(), "*") {
		slog.InfoContext(ctx, "disallowed by robots.txt", "url", rawURL)
		g.audit.Record(DecisionBlocked, rawURL)
		return false
	}

	g.audit.Record(DecisionAllowed, rawURL)
	return true
}
