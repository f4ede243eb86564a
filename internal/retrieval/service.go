package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"konduit/backend/internal/index"
)

const (
	defaultTopK     = 5
	defaultWeight   = 0.7
	defaultMinScore = 0.15

	// Candidates are over-fetched ahead of reranking so the reranker sees a
	// wider pool than the final page.
	candidateMultiplier = 3
)

// SearchResult is one scored chunk. RerankScore is only populated when the
// reranker contributed to the ordering.
type SearchResult struct {
	URL           string  `json:"url"`
	Content       string  `json:"content"`
	SemanticScore float64 `json:"semantic_score"`
	KeywordScore  float64 `json:"keyword_score"`
	FinalScore    float64 `json:"final_score"`
	RerankScore   float64 `json:"rerank_score,omitempty"`
}

// Index supplies the embedded corpus and query vectors.
type Index interface {
	Snapshot() (*index.Snapshot, error)
	QueryVector(ctx context.Context, query string) ([]float32, error)
}

// Reranker rescores candidate documents against a query. Score returns one
// relevance score per document, in document order.
type Reranker interface {
	Score(ctx context.Context, query string, docs []string) ([]float64, error)
}

// SearchOptions override the service defaults per call. Nil fields keep the
// default.
type SearchOptions struct {
	TopK     *int
	Weight   *float64
	MinScore *float64
}

type Service struct {
	index    Index
	reranker Reranker
	queryLog *QueryLogger
}

func NewService(ix Index, reranker Reranker, queryLog *QueryLogger) *Service {
	return &Service{index: ix, reranker: reranker, queryLog: queryLog}
}

// Search runs hybrid retrieval: every chunk is scored by cosine similarity to
// the query vector fused with keyword overlap, candidates below the score
// floor are dropped, and the survivors are reranked. A reranker failure
// degrades to the fused ordering rather than failing the search.
func (s *Service) Search(ctx context.Context, query string, opts SearchOptions) ([]SearchResult, error) {
	topK := defaultTopK
	weight := defaultWeight
	minScore := defaultMinScore
	if opts.TopK != nil {
		topK = *opts.TopK
	}
	if opts.Weight != nil {
		weight = *opts.Weight
	}
	if opts.MinScore != nil {
		minScore = *opts.MinScore
	}

	start := time.Now()
	var logged []SearchResult
	defer func() {
		s.queryLog.Log(ctx, QueryLogEntry{
			Query:      query,
			TopK:       topK,
			Results:    len(logged),
			DurationMs: time.Since(start).Milliseconds(),
			Timestamp:  time.Now().UTC(),
		})
	}()

	snap, err := s.index.Snapshot()
	if err != nil {
		return nil, err
	}

	qv, err := s.index.QueryVector(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to vectorize query: %w", err)
	}

	scored := make([]SearchResult, len(snap.Chunks))
	for i, chunk := range snap.Chunks {
		sem := Cosine(qv, snap.Embeddings[i])
		kw := KeywordOverlap(query, chunk)
		scored[i] = SearchResult{
			URL:           snap.URLs[i],
			Content:       chunk,
			SemanticScore: sem,
			KeywordScore:  kw,
			FinalScore:    sem*weight + kw*(1-weight),
		}
	}

	sort.SliceStable(scored, func(a, b int) bool {
		return scored[a].FinalScore > scored[b].FinalScore
	})

	limit := candidateMultiplier * topK
	if limit > len(scored) {
		limit = len(scored)
	}
	candidates := make([]SearchResult, 0, limit)
	for _, r := range scored[:limit] {
		if r.FinalScore >= minScore {
			candidates = append(candidates, r)
		}
	}
	if len(candidates) == 0 {
		logged = candidates
		return []SearchResult{}, nil
	}

	results := s.rerank(ctx, query, candidates, topK)
	logged = results
	return results, nil
}

func (s *Service) rerank(ctx context.Context, query string, candidates []SearchResult, topK int) []SearchResult {
	if s.reranker == nil {
		return truncate(candidates, topK)
	}

	docs := make([]string, len(candidates))
	for i, c := range candidates {
		docs[i] = c.Content
	}

	scores, err := s.reranker.Score(ctx, query, docs)
	if err != nil || len(scores) != len(candidates) {
		slog.WarnContext(ctx, "reranker unavailable, keeping fused order", "error", err)
		return truncate(candidates, topK)
	}

	for i := range candidates {
		candidates[i].RerankScore = scores[i]
	}
	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].RerankScore > candidates[b].RerankScore
	})
	return truncate(candidates, topK)
}

func truncate(results []SearchResult, topK int) []SearchResult {
	if len(results) > topK {
		return results[:topK]
	}
	return results
}
