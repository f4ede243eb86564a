package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

var ErrMissingRequired = errors.New("missing required configuration")

type Config struct {
	DBHost string `envconfig:"DB_HOST" default:"postgres"`
	DBPort int    `envconfig:"DB_PORT" default:"5432"`
	DBUser string `envconfig:"DB_USER" default:"konduit"`
	DBPass string `envconfig:"DB_PASS" default:"password"`
	DBName string `envconfig:"DB_NAME" default:"konduit"`

	NSQLookupd string `envconfig:"NSQ_LOOKUPD" default:"nsqlookupd:4161"`
	NSQDHost   string `envconfig:"NSQD_HOST" default:"nsqd:4150"`
	NSQDHTTP   string `envconfig:"NSQD_HTTP" default:"nsqd:4151"`

	ServerPort    int    `envconfig:"SERVER_PORT" default:"8000"`
	MigrationPath string `envconfig:"MIGRATION_PATH" default:"file://migrations"`

	// Crawler bounds
	CrawlMaxPages       int `envconfig:"CRAWL_MAX_PAGES" default:"50"`
	CrawlMaxDepth       int `envconfig:"CRAWL_MAX_DEPTH" default:"2"`
	CrawlDelayMs        int `envconfig:"CRAWL_DELAY_MS" default:"200"`
	FetchTimeoutSeconds int `envconfig:"FETCH_TIMEOUT_SECONDS" default:"10"`
	FetchConcurrency    int `envconfig:"FETCH_CONCURRENCY" default:"5"`

	// Artifacts
	DataDir       string `envconfig:"DATA_DIR" default:"data"`
	IndexPath     string `envconfig:"INDEX_PATH" default:"data/embeddings.json"`
	RobotsLogPath string `envconfig:"ROBOTS_LOG_PATH" default:"data/logs/robots.log"`
	QueryLogPath  string `envconfig:"QUERY_LOG_PATH" default:"data/logs/query.log"`

	// Capabilities
	GeminiAPIKey   string `envconfig:"GEMINI_API_KEY"`
	RerankProvider string `envconfig:"RERANK_PROVIDER" default:"jina"`
	RerankAPIKey   string `envconfig:"RERANK_API_KEY"`

	// Retrieval
	ChunkMaxChars  int     `envconfig:"CHUNK_MAX_CHARS" default:"300"`
	SearchTopK     int     `envconfig:"SEARCH_TOP_K" default:"7"`
	SearchWeight   float64 `envconfig:"SEARCH_HYBRID_WEIGHT" default:"0.7"`
	SearchMinScore float64 `envconfig:"SEARCH_MIN_SCORE" default:"0.15"`

	// Resilience
	BootstrapRetryAttempts     int `envconfig:"BOOTSTRAP_RETRY_ATTEMPTS" default:"10"`
	BootstrapRetryDelaySeconds int `envconfig:"BOOTSTRAP_RETRY_DELAY_SECONDS" default:"2"`
}

func Load() (*Config, error) {
	// Try loading .env from current dir and repo root.
	// Ignore errors, as env vars might be set in the shell.
	_ = godotenv.Load(".env")

	cwd, _ := os.Getwd()
	rootEnv := filepath.Join(cwd, "../.env")
	_ = godotenv.Load(rootEnv)

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// DSN returns the Postgres connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DBUser, c.DBPass, c.DBHost, c.DBPort, c.DBName)
}

func (c *Config) Validate() error {
	if c.DBHost == "" {
		return fmt.Errorf("%w: DB_HOST", ErrMissingRequired)
	}
	if c.DBUser == "" {
		return fmt.Errorf("%w: DB_USER", ErrMissingRequired)
	}
	if c.DBName == "" {
		return fmt.Errorf("%w: DB_NAME", ErrMissingRequired)
	}
	if c.CrawlMaxPages <= 0 {
		return fmt.Errorf("%w: CRAWL_MAX_PAGES must be positive", ErrMissingRequired)
	}
	if c.FetchConcurrency <= 0 {
		return fmt.Errorf("%w: FETCH_CONCURRENCY must be positive", ErrMissingRequired)
	}
	return nil
}
