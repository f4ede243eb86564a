package crawl

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const defaultFallbackBase = "https://en.wikipedia.org/wiki/"

type task struct {
	url   string
	depth int
}

// Crawler walks a bounded neighborhood of a site breadth-first. Each instance
// owns its queue and visited set; the policy gate, fetcher and archive may be
// shared between instances.
type Crawler struct {
	policy  *PolicyGate
	fetcher *Fetcher
	archive *Archive

	maxPages     int
	maxDepth     int
	delay        time.Duration
	fallbackBase string
}

type Option func(*Crawler)

// WithFallbackBase overrides the reference-page base used when a crawl
// collects nothing.
func WithFallbackBase(base string) Option {
	return func(c *Crawler) { c.fallbackBase = base }
}

func WithDelay(d time.Duration) Option {
	return func(c *Crawler) { c.delay = d }
}

func New(policy *PolicyGate, fetcher *Fetcher, archive *Archive, maxPages, maxDepth int, opts ...Option) *Crawler {
	c := &Crawler{
		policy:       policy,
		fetcher:      fetcher,
		archive:      archive,
		maxPages:     maxPages,
		maxDepth:     maxDepth,
		delay:        200 * time.Millisecond,
		fallbackBase: defaultFallbackBase,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run crawls from startURL, restricted to its domain, until the queue drains,
// maxPages pages are collected, or two query terms are found in a page's
// ranked text. Fetch and parse failures are absorbed; policy denials are
// collected in the returned blocked list. The loop is strictly sequential:
// one fetch at a time, with a polite delay between iterations.
func (c *Crawler) Run(ctx context.Context, startURL, query string) ([]Page, []string) {
	seed, err := url.Parse(startURL)
	if err != nil || seed.Host == "" {
		slog.WarnContext(ctx, "invalid seed url", "url", startURL)
		return nil, nil
	}
	domain := seed.Host

	slog.InfoContext(ctx, "starting crawl", "seed", startURL, "domain", domain)

	limiter := rate.NewLimiter(rate.Every(c.delay), 1)
	visited := make(map[string]bool)
	queue := []task{{url: startURL, depth: 0}}
	var pages []Page
	var blocked []string

	for len(queue) > 0 && len(pages) < c.maxPages {
		if err := limiter.Wait(ctx); err != nil {
			break
		}

		t := queue[0]
		queue = queue[1:]

		if visited[t.url] || t.depth > c.maxDepth {
			continue
		}

		if !c.policy.Allowed(ctx, t.url) {
			blocked = append(blocked, t.url)
			continue
		}

		html, ok := c.fetcher.Fetch(ctx, t.url)
		visited[t.url] = true
		if !ok {
			continue
		}

		text := ExtractText(html)
		if text == "" {
			continue
		}

		ranked := RankByQuery(text, query)
		pages = append(pages, Page{URL: t.url, Content: ranked})
		slog.InfoContext(ctx, "crawled page", "url", t.url, "chars", len(ranked))

		if RelevanceHits(ranked, query) >= 2 {
			slog.InfoContext(ctx, "early stop, sufficient relevant hits", "url", t.url)
			break
		}

		if t.depth < c.maxDepth {
			for _, link := range ExtractLinks(html, t.url, domain) {
				if !visited[link] && len(queue) < c.maxPages {
					queue = append(queue, task{url: link, depth: t.depth + 1})
				}
			}
		}
	}

	if len(pages) == 0 {
		if page, ok := c.fallback(ctx, domain, query); ok {
			pages = append(pages, page)
		}
	}

	slog.InfoContext(ctx, "crawl complete", "pages", len(pages), "blocked", len(blocked))

	if c.archive != nil {
		if path, err := c.archive.SavePages(domain, pages); err != nil {
			slog.WarnContext(ctx, "failed to archive crawl", "error", err)
		} else {
			slog.InfoContext(ctx, "crawl archived", "path", path)
		}
	}

	return pages, blocked
}

// fallback fetches one deterministic reference page derived from the domain's
// brand token when the crawl itself collected nothing.
func (c *Crawler) fallback(ctx context.Context, domain, query string) (Page, bool) {
	brand := strings.Split(strings.TrimPrefix(domain, "www."), ".")[0]
	if brand == "" {
		return Page{}, false
	}
	title := strings.ToUpper(brand[:1]) + strings.ToLower(brand[1:])
	target := c.fallbackBase + title

	slog.InfoContext(ctx, "no crawlable data found, trying fallback", "url", target)

	html, ok := c.fetcher.Fetch(ctx, target)
	if !ok {
		return Page{}, false
	}
	text := ExtractText(html)
	if text == "" {
		return Page{}, false
	}
	return Page{URL: target, Content: RankByQuery(text, query)}, true
}
