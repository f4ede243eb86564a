package crawljob

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"konduit/backend/internal/config"
	"konduit/backend/internal/middleware"
	"konduit/backend/internal/worker"
)

// ErrNoSeeds is returned when an enqueue request carries no usable URLs.
var ErrNoSeeds = errors.New("crawljob: no seed urls provided")

// EventPublisher publishes task messages to a topic.
type EventPublisher interface {
	Publish(topic string, body []byte) error
}

type Service struct {
	repo Repository
	pub  EventPublisher
}

func NewService(repo Repository, pub EventPublisher) *Service {
	return &Service{repo: repo, pub: pub}
}

// Enqueue persists a new crawl job and dispatches it to the crawl task topic.
// If the dispatch fails the job is marked failed so it never sits queued
// forever.
func (s *Service) Enqueue(ctx context.Context, urls []string, query string) (*Job, error) {
	var seeds []string
	for _, u := range urls {
		if u = strings.TrimSpace(u); u != "" {
			seeds = append(seeds, u)
		}
	}
	if len(seeds) == 0 {
		return nil, ErrNoSeeds
	}

	job := &Job{URLs: seeds, Query: strings.TrimSpace(query), Status: StatusQueued}
	if err := s.repo.Save(ctx, job); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(worker.CrawlTaskPayload{
		JobID:         job.ID,
		URLs:          job.URLs,
		Query:         job.Query,
		CorrelationID: middleware.GetCorrelationID(ctx),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal crawl task: %w", err)
	}

	if err := s.pub.Publish(config.TopicCrawlTask, payload); err != nil {
		slog.ErrorContext(ctx, "failed to publish crawl task", "job_id", job.ID, "error", err)
		if markErr := s.repo.MarkFailed(ctx, job.ID, "failed to dispatch crawl task"); markErr != nil {
			slog.WarnContext(ctx, "failed to mark undispatched job failed", "job_id", job.ID, "error", markErr)
		}
		return nil, fmt.Errorf("failed to dispatch crawl task: %w", err)
	}

	slog.InfoContext(ctx, "crawl job enqueued", "job_id", job.ID, "seeds", len(job.URLs))
	return job, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Job, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]Job, error) {
	return s.repo.List(ctx)
}
