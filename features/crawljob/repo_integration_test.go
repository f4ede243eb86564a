package crawljob

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"konduit/backend/internal/testutils"
)

func TestPostgresRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	suite := testutils.NewIntegrationSuite(t)
	suite.Setup()
	defer suite.Teardown()

	repo := NewPostgresRepo(suite.DB)
	ctx := context.Background()

	job := &Job{
		URLs:   []string{"https://a.example/", "https://b.example/"},
		Query:  "solar panels",
		Status: StatusQueued,
	}
	require.NoError(t, repo.Save(ctx, job))
	require.NotEmpty(t, job.ID)

	require.NoError(t, repo.MarkRunning(ctx, job.ID))
	require.NoError(t, repo.MarkCompleted(ctx, job.ID, 12, 3))

	got, err := repo.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)
	assert.Equal(t, 12, got.Pages)
	assert.Equal(t, 3, got.Blocked)
	assert.Equal(t, job.URLs, got.URLs)

	jobs, err := repo.List(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, jobs)
}
