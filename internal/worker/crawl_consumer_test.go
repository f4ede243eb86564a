package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/nsqio/go-nsq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"konduit/backend/internal/crawl"
)

type mockCrawler struct {
	mock.Mock
}

func (m *mockCrawler) CrawlAll(ctx context.Context, seeds []string, query string) ([]crawl.Page, []string) {
	args := m.Called(ctx, seeds, query)
	return args.Get(0).([]crawl.Page), args.Get(1).([]string)
}

type mockIndex struct {
	mock.Mock
}

func (m *mockIndex) Build(ctx context.Context, pages []crawl.Page) error {
	return m.Called(ctx, pages).Error(0)
}

type mockJobs struct {
	mock.Mock
}

func (m *mockJobs) MarkRunning(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockJobs) MarkCompleted(ctx context.Context, id string, pages, blocked int) error {
	return m.Called(ctx, id, pages, blocked).Error(0)
}

func (m *mockJobs) MarkFailed(ctx context.Context, id, reason string) error {
	return m.Called(ctx, id, reason).Error(0)
}

func taskMessage(t *testing.T, payload CrawlTaskPayload) *nsq.Message {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	return nsq.NewMessage(nsq.MessageID{}, body)
}

func TestCrawlConsumer_SuccessfulCrawl(t *testing.T) {
	crawler := new(mockCrawler)
	index := new(mockIndex)
	jobs := new(mockJobs)

	pages := []crawl.Page{{URL: "https://a.example/", Content: "content"}}
	crawler.On("CrawlAll", mock.Anything, []string{"https://a.example/"}, "solar").Return(pages, []string{"https://a.example/private"})
	index.On("Build", mock.Anything, pages).Return(nil)
	jobs.On("MarkRunning", mock.Anything, "job-1").Return(nil)
	jobs.On("MarkCompleted", mock.Anything, "job-1", 1, 1).Return(nil)

	c := NewCrawlConsumer(crawler, index, jobs)
	err := c.HandleMessage(taskMessage(t, CrawlTaskPayload{
		JobID: "job-1",
		URLs:  []string{"https://a.example/"},
		Query: "solar",
	}))

	assert.NoError(t, err)
	crawler.AssertExpectations(t)
	index.AssertExpectations(t)
	jobs.AssertExpectations(t)
}

func TestCrawlConsumer_NoPagesMarksJobFailed(t *testing.T) {
	crawler := new(mockCrawler)
	index := new(mockIndex)
	jobs := new(mockJobs)

	crawler.On("CrawlAll", mock.Anything, mock.Anything, mock.Anything).Return([]crawl.Page{}, []string{"https://a", "https://b"})
	jobs.On("MarkRunning", mock.Anything, "job-2").Return(nil)
	jobs.On("MarkFailed", mock.Anything, "job-2", "no crawlable pages (2 blocked)").Return(nil)

	c := NewCrawlConsumer(crawler, index, jobs)
	err := c.HandleMessage(taskMessage(t, CrawlTaskPayload{
		JobID: "job-2",
		URLs:  []string{"https://a"},
	}))

	assert.NoError(t, err, "an empty crawl is terminal, not retryable")
	index.AssertNotCalled(t, "Build")
	jobs.AssertExpectations(t)
}

func TestCrawlConsumer_IndexFailureIsRetryable(t *testing.T) {
	crawler := new(mockCrawler)
	index := new(mockIndex)
	jobs := new(mockJobs)

	pages := []crawl.Page{{URL: "https://a.example/", Content: "content"}}
	crawler.On("CrawlAll", mock.Anything, mock.Anything, mock.Anything).Return(pages, []string{})
	index.On("Build", mock.Anything, pages).Return(errors.New("embedder down"))
	jobs.On("MarkRunning", mock.Anything, "job-3").Return(nil)

	c := NewCrawlConsumer(crawler, index, jobs)
	err := c.HandleMessage(taskMessage(t, CrawlTaskPayload{
		JobID: "job-3",
		URLs:  []string{"https://a.example/"},
	}))

	assert.Error(t, err)
	jobs.AssertNotCalled(t, "MarkCompleted")
	jobs.AssertNotCalled(t, "MarkFailed")
}

func TestCrawlConsumer_DropsMalformedMessages(t *testing.T) {
	c := NewCrawlConsumer(new(mockCrawler), new(mockIndex), new(mockJobs))

	assert.NoError(t, c.HandleMessage(nsq.NewMessage(nsq.MessageID{}, []byte("not json"))))
	assert.NoError(t, c.HandleMessage(nsq.NewMessage(nsq.MessageID{}, nil)))
}

func TestCrawlConsumer_DropsIncompletePayloads(t *testing.T) {
	crawler := new(mockCrawler)
	c := NewCrawlConsumer(crawler, new(mockIndex), new(mockJobs))

	assert.NoError(t, c.HandleMessage(taskMessage(t, CrawlTaskPayload{URLs: []string{"https://a"}})))
	assert.NoError(t, c.HandleMessage(taskMessage(t, CrawlTaskPayload{JobID: "job-4"})))
	crawler.AssertNotCalled(t, "CrawlAll")
}

func TestCrawlConsumer_MarkRunningFailureDoesNotAbort(t *testing.T) {
	crawler := new(mockCrawler)
	index := new(mockIndex)
	jobs := new(mockJobs)

	pages := []crawl.Page{{URL: "https://a.example/", Content: "content"}}
	crawler.On("CrawlAll", mock.Anything, mock.Anything, mock.Anything).Return(pages, []string{})
	index.On("Build", mock.Anything, pages).Return(nil)
	jobs.On("MarkRunning", mock.Anything, "job-5").Return(errors.New("db hiccup"))
	jobs.On("MarkCompleted", mock.Anything, "job-5", 1, 0).Return(nil)

	c := NewCrawlConsumer(crawler, index, jobs)
	err := c.HandleMessage(taskMessage(t, CrawlTaskPayload{
		JobID: "job-5",
		URLs:  []string{"https://a.example/"},
	}))

	assert.NoError(t, err)
	jobs.AssertExpectations(t)
}
