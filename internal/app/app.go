package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"konduit/backend/features/crawljob"
	"konduit/backend/features/search"
	"konduit/backend/internal/adapter/reranker"
	"konduit/backend/internal/config"
	"konduit/backend/internal/crawl"
	"konduit/backend/internal/index"
	"konduit/backend/internal/middleware"
	"konduit/backend/internal/retrieval"
	"konduit/backend/internal/worker"
)

// Embedder is the vector provider the index is built on.
type Embedder = index.Embedder

// Summarizer generates answers for smart searches.
type Summarizer = search.Summarizer

// App bundles the wired HTTP surface and the crawl task consumer.
type App struct {
	Handler       http.Handler
	CrawlConsumer *worker.CrawlConsumer

	queryLog *retrieval.QueryLogger
}

// New wires the crawl, index and retrieval stack behind the HTTP handlers and
// the NSQ consumer. The caller owns db, embedder and taskPub lifecycles.
func New(cfg config.Config, db *sql.DB, embedder Embedder, summarizer Summarizer, taskPub crawljob.EventPublisher) (*App, error) {
	audit, err := crawl.NewFileAuditLog(cfg.RobotsLogPath)
	if err != nil {
		slog.Warn("robots audit log unavailable, auditing to stdout", "path", cfg.RobotsLogPath, "error", err)
		audit = crawl.NewAuditLog(os.Stdout)
	}

	fetcher := crawl.NewFetcher(time.Duration(cfg.FetchTimeoutSeconds)*time.Second, cfg.FetchConcurrency)
	policy := crawl.NewPolicyGate(nil, audit)
	archive := crawl.NewArchive(cfg.DataDir)
	runner := crawl.NewRunner(policy, fetcher, archive, cfg.CrawlMaxPages, cfg.CrawlMaxDepth,
		time.Duration(cfg.CrawlDelayMs)*time.Millisecond)

	ix := index.New(embedder, cfg.IndexPath, cfg.ChunkMaxChars)

	queryLog, err := retrieval.NewFileQueryLogger(cfg.QueryLogPath)
	if err != nil {
		slog.Warn("query log unavailable, query logging disabled", "path", cfg.QueryLogPath, "error", err)
		queryLog = nil
	}

	var rr retrieval.Reranker
	if cfg.RerankAPIKey != "" {
		rr = reranker.NewClient(cfg.RerankProvider, cfg.RerankAPIKey)
	}
	retrievalSvc := retrieval.NewService(ix, rr, queryLog)

	jobRepo := crawljob.NewPostgresRepo(db)
	jobSvc := crawljob.NewService(jobRepo, taskPub)
	jobHandler := crawljob.NewHandler(jobSvc)

	searchSvc := search.NewService(runner, ix, retrievalSvc, summarizer, search.Options{
		TopK:     cfg.SearchTopK,
		Weight:   cfg.SearchWeight,
		MinScore: cfg.SearchMinScore,
	})
	searchHandler := search.NewHandler(searchSvc)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/crawl", jobHandler.Enqueue)
	mux.HandleFunc("GET /api/jobs", jobHandler.List)
	mux.HandleFunc("GET /api/jobs/{id}", jobHandler.Get)
	mux.HandleFunc("POST /api/search", searchHandler.Search)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"status":"ok"}`)
	})

	consumer := worker.NewCrawlConsumer(runner, ix, jobRepo)

	return &App{
		Handler:       middleware.CorrelationID(corsMiddleware(mux)),
		CrawlConsumer: consumer,
		queryLog:      queryLog,
	}, nil
}

// Run serves HTTP until ctx is canceled, then drains in-flight requests.
func (a *App) Run(ctx context.Context, port string) error {
	server := &http.Server{
		Addr:              ":" + port,
		Handler:           a.Handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "port", port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	if a.queryLog != nil {
		_ = a.queryLog.Close()
	}
	return nil
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Correlation-ID")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
