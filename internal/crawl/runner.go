package crawl

import (
	"context"
	"sync"
	"time"
)

// Runner fans independent crawler instances out over multiple seed sites.
// Instances share the fetcher's concurrency gate and the policy gate but own
// disjoint traversal state, so no locking is needed between them.
type Runner struct {
	policy  *PolicyGate
	fetcher *Fetcher
	archive *Archive

	maxPages int
	maxDepth int
	delay    time.Duration
	opts     []Option
}

func NewRunner(policy *PolicyGate, fetcher *Fetcher, archive *Archive, maxPages, maxDepth int, delay time.Duration, opts ...Option) *Runner {
	return &Runner{
		policy:   policy,
		fetcher:  fetcher,
		archive:  archive,
		maxPages: maxPages,
		maxDepth: maxDepth,
		delay:    delay,
		opts:     opts,
	}
}

func (r *Runner) newCrawler(maxPages, maxDepth int) *Crawler {
	opts := append([]Option{WithDelay(r.delay)}, r.opts...)
	return New(r.policy, r.fetcher, r.archive, maxPages, maxDepth, opts...)
}

// CrawlAll runs one crawler per seed concurrently and merges their results.
func (r *Runner) CrawlAll(ctx context.Context, seeds []string, query string) ([]Page, []string) {
	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		pages   []Page
		blocked []string
	)

	for _, seed := range seeds {
		if seed == "" {
			continue
		}
		wg.Add(1)
		go func(seed string) {
			defer wg.Done()
			p, b := r.newCrawler(r.maxPages, r.maxDepth).Run(ctx, seed, query)
			mu.Lock()
			pages = append(pages, p...)
			blocked = append(blocked, b...)
			mu.Unlock()
		}(seed)
	}
	wg.Wait()

	return pages, blocked
}

// CrawlLimited runs a single crawl with a smaller page cap. Used for the
// last-resort reference crawl when every seed yields nothing.
func (r *Runner) CrawlLimited(ctx context.Context, seed, query string, maxPages int) ([]Page, []string) {
	return r.newCrawler(maxPages, r.maxDepth).Run(ctx, seed, query)
}
