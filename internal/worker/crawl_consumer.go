package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/nsqio/go-nsq"

	"konduit/backend/internal/middleware"
)

// CrawlConsumer handles crawl task messages: it runs the crawl, rebuilds the
// index from the results and records the job outcome.
type CrawlConsumer struct {
	crawler SiteCrawler
	index   IndexBuilder
	jobs    JobUpdater
}

func NewCrawlConsumer(crawler SiteCrawler, index IndexBuilder, jobs JobUpdater) *CrawlConsumer {
	return &CrawlConsumer{crawler: crawler, index: index, jobs: jobs}
}

// HandleMessage implements nsq.Handler. Malformed messages are dropped rather
// than requeued; only index build failures are returned so NSQ retries work
// that can plausibly succeed later.
func (c *CrawlConsumer) HandleMessage(m *nsq.Message) error {
	if len(m.Body) == 0 {
		return nil
	}

	var payload CrawlTaskPayload
	if err := json.Unmarshal(m.Body, &payload); err != nil {
		slog.Error("dropping malformed crawl task", "error", err)
		return nil
	}
	if payload.JobID == "" || len(payload.URLs) == 0 {
		slog.Error("dropping incomplete crawl task", "job_id", payload.JobID, "urls", len(payload.URLs))
		return nil
	}

	correlationID := payload.CorrelationID
	if correlationID == "" {
		correlationID = uuid.NewString()
	}
	ctx := middleware.WithCorrelationID(context.Background(), correlationID)

	slog.InfoContext(ctx, "processing crawl task", "job_id", payload.JobID, "seeds", len(payload.URLs))

	if err := c.jobs.MarkRunning(ctx, payload.JobID); err != nil {
		slog.WarnContext(ctx, "failed to mark job running", "job_id", payload.JobID, "error", err)
	}

	pages, blocked := c.crawler.CrawlAll(ctx, payload.URLs, payload.Query)
	if len(pages) == 0 {
		reason := fmt.Sprintf("no crawlable pages (%d blocked)", len(blocked))
		if err := c.jobs.MarkFailed(ctx, payload.JobID, reason); err != nil {
			slog.WarnContext(ctx, "failed to mark job failed", "job_id", payload.JobID, "error", err)
		}
		return nil
	}

	if err := c.index.Build(ctx, pages); err != nil {
		slog.ErrorContext(ctx, "failed to build index from crawl", "job_id", payload.JobID, "error", err)
		return err
	}

	if err := c.jobs.MarkCompleted(ctx, payload.JobID, len(pages), len(blocked)); err != nil {
		slog.WarnContext(ctx, "failed to mark job completed", "job_id", payload.JobID, "error", err)
	}

	slog.InfoContext(ctx, "crawl task completed", "job_id", payload.JobID, "pages", len(pages), "blocked", len(blocked))
	return nil
}
