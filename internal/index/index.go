package index

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"konduit/backend/internal/crawl"
)

// ErrNotBuilt is returned when the index is queried before a successful Build
// has produced at least one chunk.
var ErrNotBuilt = errors.New("index: not built")

// Embedder turns text into dense vectors.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Snapshot is one immutable generation of the index. Chunks, URLs and
// Embeddings are parallel slices; readers must treat them as read-only.
type Snapshot struct {
	Chunks     []string
	URLs       []string
	Embeddings [][]float32
}

// Index holds embedded page chunks for retrieval. Build constructs a complete
// new snapshot off to the side and swaps it in atomically, so queries running
// during a rebuild see a consistent generation.
type Index struct {
	embedder    Embedder
	persistPath string
	maxChunkLen int

	mu   sync.RWMutex
	snap *Snapshot

	cacheMu    sync.Mutex
	queryCache map[string][]float32
}

func New(embedder Embedder, persistPath string, maxChunkLen int) *Index {
	return &Index{
		embedder:    embedder,
		persistPath: persistPath,
		maxChunkLen: maxChunkLen,
		queryCache:  make(map[string][]float32),
	}
}

// Build chunks the given pages, embeds every chunk and replaces the current
// snapshot. Pages yielding no chunks leave the index unbuilt without error.
// The previous snapshot stays visible until the swap.
func (ix *Index) Build(ctx context.Context, pages []crawl.Page) error {
	var chunks []string
	var urls []string
	for _, p := range pages {
		for _, c := range Chunk(p.Content, ix.maxChunkLen) {
			chunks = append(chunks, c)
			urls = append(urls, p.URL)
		}
	}

	if len(chunks) == 0 {
		slog.WarnContext(ctx, "no chunks produced, index left unbuilt", "pages", len(pages))
		ix.mu.Lock()
		ix.snap = nil
		ix.mu.Unlock()
		return nil
	}

	embeddings, err := ix.embedder.EmbedBatch(ctx, chunks)
	if err != nil {
		return fmt.Errorf("failed to embed %d chunks: %w", len(chunks), err)
	}
	if len(embeddings) != len(chunks) {
		return fmt.Errorf("embedder returned %d vectors for %d chunks", len(embeddings), len(chunks))
	}

	snap := &Snapshot{Chunks: chunks, URLs: urls, Embeddings: embeddings}

	ix.mu.Lock()
	ix.snap = snap
	ix.mu.Unlock()

	slog.InfoContext(ctx, "index built", "chunks", len(chunks), "pages", len(pages))

	if err := ix.persist(snap); err != nil {
		slog.WarnContext(ctx, "failed to persist index", "error", err)
	}
	return nil
}

// Snapshot returns the current generation, or ErrNotBuilt before the first
// successful Build.
func (ix *Index) Snapshot() (*Snapshot, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if ix.snap == nil {
		return nil, ErrNotBuilt
	}
	return ix.snap, nil
}

// QueryVector embeds a query, memoizing results so repeated queries skip the
// embedder. The cache survives rebuilds; query embeddings do not depend on
// index contents.
func (ix *Index) QueryVector(ctx context.Context, query string) ([]float32, error) {
	ix.cacheMu.Lock()
	if v, ok := ix.queryCache[query]; ok {
		ix.cacheMu.Unlock()
		return v, nil
	}
	ix.cacheMu.Unlock()

	v, err := ix.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	ix.cacheMu.Lock()
	ix.queryCache[query] = v
	ix.cacheMu.Unlock()
	return v, nil
}

type persistedIndex struct {
	Chunks []string `json:"chunks"`
	URLs   []string `json:"urls"`
}

// persist writes the chunk texts and their source URLs as a JSON artifact.
// Embeddings are deliberately not persisted; they are rebuilt on demand.
func (ix *Index) persist(snap *Snapshot) error {
	if ix.persistPath == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(ix.persistPath), 0o750); err != nil {
		return err
	}
	data, err := json.Marshal(persistedIndex{Chunks: snap.Chunks, URLs: snap.URLs})
	if err != nil {
		return err
	}
	return os.WriteFile(ix.persistPath, data, 0o600)
}
