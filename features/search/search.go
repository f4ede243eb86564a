package search

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"konduit/backend/internal/crawl"
	"konduit/backend/internal/retrieval"
)

const (
	fallbackSeed     = "https://en.wikipedia.org/wiki/Main_Page"
	fallbackMaxPages = 2

	noResultsSummary = "No relevant information found."
	summaryFailed    = "Unable to summarize content."
)

// ErrNoContent is returned when neither the requested sites nor the fallback
// crawl produced any readable pages.
var ErrNoContent = errors.New("search: no readable content found")

// SiteCrawler collects pages from seed sites.
type SiteCrawler interface {
	CrawlAll(ctx context.Context, seeds []string, query string) ([]crawl.Page, []string)
	CrawlLimited(ctx context.Context, seed, query string, maxPages int) ([]crawl.Page, []string)
}

// IndexBuilder rebuilds the retrieval index from crawled pages.
type IndexBuilder interface {
	Build(ctx context.Context, pages []crawl.Page) error
}

// Searcher runs hybrid retrieval over the built index.
type Searcher interface {
	Search(ctx context.Context, query string, opts retrieval.SearchOptions) ([]retrieval.SearchResult, error)
}

// Summarizer condenses retrieved content into an answer.
type Summarizer interface {
	Summarize(ctx context.Context, text, query string) (string, error)
}

// Request is one end-to-end search: crawl the seeds, index what was found and
// retrieve against the query. Smart additionally asks for a generated answer.
type Request struct {
	Query string
	Seeds []string
	Smart bool
}

type Result struct {
	Summary string
	Results []retrieval.SearchResult
	Blocked []string
}

type Options struct {
	TopK     int
	Weight   float64
	MinScore float64
}

type Service struct {
	crawler    SiteCrawler
	index      IndexBuilder
	searcher   Searcher
	summarizer Summarizer
	opts       Options
}

func NewService(crawler SiteCrawler, index IndexBuilder, searcher Searcher, summarizer Summarizer, opts Options) *Service {
	return &Service{
		crawler:    crawler,
		index:      index,
		searcher:   searcher,
		summarizer: summarizer,
		opts:       opts,
	}
}

// Search crawls the requested sites, rebuilds the index from whatever was
// readable and retrieves the best chunks. When every seed is blocked or
// empty, a short general-reference crawl is tried before giving up.
func (s *Service) Search(ctx context.Context, req Request) (*Result, error) {
	pages, blocked := s.crawler.CrawlAll(ctx, req.Seeds, req.Query)
	if len(pages) == 0 {
		slog.WarnContext(ctx, "no pages from requested sites, trying general reference", "blocked", len(blocked))
		fallbackPages, fallbackBlocked := s.crawler.CrawlLimited(ctx, fallbackSeed, "", fallbackMaxPages)
		pages = fallbackPages
		blocked = append(blocked, fallbackBlocked...)
	}
	if len(pages) == 0 {
		return &Result{Blocked: blocked}, ErrNoContent
	}

	if err := s.index.Build(ctx, pages); err != nil {
		return nil, err
	}

	topK := s.opts.TopK
	weight := s.opts.Weight
	minScore := s.opts.MinScore
	results, err := s.searcher.Search(ctx, req.Query, retrieval.SearchOptions{
		TopK:     &topK,
		Weight:   &weight,
		MinScore: &minScore,
	})
	if err != nil {
		return nil, err
	}

	res := &Result{Results: results, Blocked: blocked}
	if len(results) == 0 {
		res.Summary = noResultsSummary
		return res, nil
	}

	if req.Smart && s.summarizer != nil {
		var contents []string
		for _, r := range results {
			contents = append(contents, r.Content)
		}
		summary, err := s.summarizer.Summarize(ctx, strings.Join(contents, "\n\n"), req.Query)
		if err != nil {
			slog.WarnContext(ctx, "summarization failed", "error", err)
			summary = summaryFailed
		}
		res.Summary = summary
	}

	return res, nil
}
