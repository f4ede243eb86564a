package worker

import (
	"context"

	"konduit/backend/internal/crawl"
)

// CrawlTaskPayload is the message published to the crawl task topic when a
// crawl job is accepted.
type CrawlTaskPayload struct {
	JobID         string   `json:"job_id"`
	URLs          []string `json:"urls"`
	Query         string   `json:"query"`
	CorrelationID string   `json:"correlation_id,omitempty"`
}

// SiteCrawler runs the bounded crawl across the payload's seed URLs.
type SiteCrawler interface {
	CrawlAll(ctx context.Context, seeds []string, query string) ([]crawl.Page, []string)
}

// IndexBuilder rebuilds the retrieval index from crawled pages.
type IndexBuilder interface {
	Build(ctx context.Context, pages []crawl.Page) error
}

// JobUpdater records crawl job lifecycle transitions.
type JobUpdater interface {
	MarkRunning(ctx context.Context, id string) error
	MarkCompleted(ctx context.Context, id string, pages, blocked int) error
	MarkFailed(ctx context.Context, id, reason string) error
}
