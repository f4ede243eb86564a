package crawl

import (
	"context"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"strings"
	"time"
)

var userAgents = []string{
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/127.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) Gecko/20100101 Firefox/115.0",
	"Mozilla/5.0 (iPhone; CPU iPhone OS 17_1 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1",
}

const acceptLanguage = "en-US,en;q=0.9"

// Fetcher retrieves single pages under a concurrency gate. The gate bounds
// in-flight requests across all crawler instances sharing this fetcher; each
// crawl loop itself issues one fetch at a time.
type Fetcher struct {
	client *http.Client
	gate   chan struct{}
}

func NewFetcher(timeout time.Duration, concurrency int) *Fetcher {
	if concurrency <= 0 {
		concurrency = 5
	}
	return &Fetcher{
		client: &http.Client{Timeout: timeout},
		gate:   make(chan struct{}, concurrency),
	}
}

// Fetch returns the response body and true only for a 2xx HTML response.
// Every other outcome (timeout, error status, wrong content type, transport
// error) is a non-fatal skip: no retry, empty result.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (string, bool) {
	select {
	case f.gate <- struct{}{}:
	case <-ctx.Done():
		return "", false
	}
	defer func() { <-f.gate }()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", false
	}
	req.Header.Set("User-Agent", userAgents[rand.Intn(len(userAgents))])
	req.Header.Set("Accept-Language", acceptLanguage)

	resp, err := f.client.Do(req)
	if err != nil {
		slog.DebugContext(ctx, "fetch failed", "url", rawURL, "error", err)
		return "", false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", false
	}
	if !strings.Contains(resp.Header.Get("Content-Type"), "text/html") {
		return "", false
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		slog.DebugContext(ctx, "fetch body read failed", "url", rawURL, "error", err)
		return "", false
	}
	return string(body), true
}
