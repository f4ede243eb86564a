package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"github.com/nsqio/go-nsq"

	"konduit/backend/internal/config"
)

// Dependencies holds the external resources the app needs. Close releases
// them in reverse acquisition order.
type Dependencies struct {
	DB          *sql.DB
	NSQProducer *nsq.Producer
}

func (d *Dependencies) Close() {
	if d.NSQProducer != nil {
		d.NSQProducer.Stop()
	}
	if d.DB != nil {
		_ = d.DB.Close()
	}
}

// Bootstrap connects to Postgres and NSQ, runs pending migrations and
// pre-creates the crawl task topic. Connection attempts retry per the
// configured backoff so the service tolerates dependencies starting late.
func Bootstrap(ctx context.Context, cfg config.Config) (*Dependencies, error) {
	db, err := connectDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if err := runMigrations(cfg); err != nil {
		_ = db.Close()
		return nil, err
	}

	producer, err := nsq.NewProducer(cfg.NSQDHost, nsq.NewConfig())
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create nsq producer: %w", err)
	}

	go createTopics(ctx, cfg.NSQDHTTP)

	return &Dependencies{DB: db, NSQProducer: producer}, nil
}

func connectDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	var pingErr error
	for attempt := 1; attempt <= cfg.BootstrapRetryAttempts; attempt++ {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		pingErr = db.PingContext(pingCtx)
		cancel()
		if pingErr == nil {
			return db, nil
		}
		slog.Warn("database not ready", "attempt", attempt, "error", pingErr)
		select {
		case <-ctx.Done():
			_ = db.Close()
			return nil, ctx.Err()
		case <-time.After(time.Duration(cfg.BootstrapRetryDelaySeconds) * time.Second):
		}
	}
	_ = db.Close()
	return nil, fmt.Errorf("database unreachable after %d attempts: %w", cfg.BootstrapRetryAttempts, pingErr)
}

func runMigrations(cfg config.Config) error {
	m, err := migrate.New(cfg.MigrationPath, cfg.DSN())
	if err != nil {
		return fmt.Errorf("failed to init migrations: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// createTopics asks nsqd to create the crawl task topic up front so the first
// publish does not race consumer registration. Best-effort.
func createTopics(ctx context.Context, nsqdHTTPAddress string) {
	url := fmt.Sprintf("http://%s/topic/create?topic=%s", nsqdHTTPAddress, config.TopicCrawlTask)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		slog.Warn("failed to build topic create request", "error", err)
		return
	}

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		slog.Warn("failed to pre-create nsq topic", "topic", config.TopicCrawlTask, "error", err)
		return
	}
	defer res.Body.Close()
	slog.Info("nsq topic ready", "topic", config.TopicCrawlTask, "status", res.StatusCode)
}
