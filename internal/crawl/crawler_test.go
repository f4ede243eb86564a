package crawl

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func page(body string, links ...string) string {
	html := "<html><body><p>" + body + "</p>"
	for _, l := range links {
		html += fmt.Sprintf(`<a href="%s">link</a>`, l)
	}
	return html + "</body></html>"
}

// crawlSite serves a small site with a configurable robots.txt.
func crawlSite(t *testing.T, robots string, pages map[string]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			_, _ = w.Write([]byte(robots))
			return
		}
		body, ok := pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(body))
	}))
}

func newTestCrawler(server *httptest.Server, maxPages, maxDepth int, opts ...Option) *Crawler {
	gate := NewPolicyGate(server.Client(), nil)
	fetcher := NewFetcher(5*time.Second, 2)
	opts = append([]Option{WithDelay(time.Millisecond)}, opts...)
	return New(gate, fetcher, nil, maxPages, maxDepth, opts...)
}

func TestCrawler_CollectsLinkedPages(t *testing.T) {
	server := crawlSite(t, "User-agent: *\nAllow: /\n", map[string]string{
		"/":  page("Start page with plenty of introductory words here", "/a", "/b"),
		"/a": page("Branch page a with plenty of additional words here"),
		"/b": page("Branch page b with plenty of additional words here"),
	})
	defer server.Close()

	c := newTestCrawler(server, 10, 2)
	pages, blocked := c.Run(context.Background(), server.URL+"/", "")

	require.Len(t, pages, 3)
	assert.Empty(t, blocked)
	assert.Equal(t, server.URL+"/", pages[0].URL)
}

func TestCrawler_RespectsMaxPages(t *testing.T) {
	site := map[string]string{
		"/": page("Start page with plenty of introductory words here", "/p0", "/p1", "/p2", "/p3", "/p4"),
	}
	for i := 0; i < 5; i++ {
		site[fmt.Sprintf("/p%d", i)] = page("Leaf page with plenty of additional filler words here")
	}
	server := crawlSite(t, "User-agent: *\nAllow: /\n", site)
	defer server.Close()

	c := newTestCrawler(server, 3, 2)
	pages, _ := c.Run(context.Background(), server.URL+"/", "")

	assert.Len(t, pages, 3)
}

func TestCrawler_RecordsBlockedURLs(t *testing.T) {
	server := crawlSite(t, "User-agent: *\nDisallow: /private/\n", map[string]string{
		"/":          page("Start page with plenty of introductory words here", "/private/x", "/open"),
		"/open":      page("Open page with plenty of additional filler words here"),
		"/private/x": page("Hidden page that must never ever be fetched at all"),
	})
	defer server.Close()

	c := newTestCrawler(server, 10, 2)
	pages, blocked := c.Run(context.Background(), server.URL+"/", "")

	require.Len(t, blocked, 1)
	assert.Contains(t, blocked[0], "/private/x")
	for _, p := range pages {
		assert.NotContains(t, p.Content, "Hidden page")
	}
}

func TestCrawler_StopsEarlyOnRelevantContent(t *testing.T) {
	var fetched atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			_, _ = w.Write([]byte("User-agent: *\nAllow: /\n"))
			return
		}
		fetched.Add(1)
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(page(
			"Solar panels generate clean electricity from sunlight every single day",
			"/next1", "/next2")))
	}))
	defer server.Close()

	c := newTestCrawler(server, 10, 2)
	pages, _ := c.Run(context.Background(), server.URL+"/", "solar electricity")

	assert.Len(t, pages, 1)
	assert.Equal(t, int32(1), fetched.Load())
}

func TestCrawler_DoesNotRefetchVisitedURLs(t *testing.T) {
	var rootFetches atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/robots.txt":
			_, _ = w.Write([]byte("User-agent: *\nAllow: /\n"))
			return
		case "/":
			rootFetches.Add(1)
		}
		w.Header().Set("Content-Type", "text/html")
		// Every page links back to the root.
		_, _ = w.Write([]byte(page("A page with plenty of additional filler words here", "/", "/other")))
	}))
	defer server.Close()

	c := newTestCrawler(server, 10, 2)
	c.Run(context.Background(), server.URL+"/", "")

	assert.Equal(t, int32(1), rootFetches.Load())
}

func TestCrawler_FallsBackWhenNothingCrawlable(t *testing.T) {
	blockedSite := crawlSite(t, "User-agent: *\nDisallow: /\n", map[string]string{
		"/": page("Never served because robots denies everything on this site"),
	})
	defer blockedSite.Close()

	var fallbackPath string
	fallback := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fallbackPath = r.URL.Path
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(page("Reference article with plenty of useful background words here")))
	}))
	defer fallback.Close()

	gate := NewPolicyGate(blockedSite.Client(), nil)
	fetcher := NewFetcher(5*time.Second, 2)
	c := New(gate, fetcher, nil, 10, 2,
		WithDelay(time.Millisecond),
		WithFallbackBase(fallback.URL+"/wiki/"))

	pages, blocked := c.Run(context.Background(), "https://www.acme.example/start", "")

	require.Len(t, pages, 1)
	assert.Equal(t, "/wiki/Acme", fallbackPath)
	assert.Contains(t, pages[0].Content, "Reference article")
	assert.NotEmpty(t, blocked)
}

func TestCrawler_InvalidSeed(t *testing.T) {
	c := New(NewPolicyGate(nil, nil), NewFetcher(time.Second, 1), nil, 5, 1)
	pages, blocked := c.Run(context.Background(), "not a url", "anything")
	assert.Empty(t, pages)
	assert.Empty(t, blocked)
}
