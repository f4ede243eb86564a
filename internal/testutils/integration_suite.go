package testutils

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"path/filepath"
	"runtime"
	"strconv"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"github.com/nsqio/go-nsq"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"konduit/backend/internal/config"
)

// IntegrationSuite spins up throwaway Postgres and NSQ containers for
// integration tests, with migrations applied.
type IntegrationSuite struct {
	T   *testing.T
	DB  *sql.DB
	NSQ *nsq.Producer

	connStr      string
	pgContainer  *postgres.PostgresContainer
	nsqContainer testcontainers.Container
	nsqAddress   string
}

func NewIntegrationSuite(t *testing.T) *IntegrationSuite {
	return &IntegrationSuite{T: t}
}

func (s *IntegrationSuite) Setup() {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("konduit_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(s.T, err)
	s.pgContainer = pgContainer

	s.connStr, err = pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(s.T, err)

	s.DB, err = sql.Open("postgres", s.connStr)
	require.NoError(s.T, err)

	m, err := migrate.New(migrationPath(), s.connStr)
	require.NoError(s.T, err)
	require.NoError(s.T, m.Up())

	nsqReq := testcontainers.ContainerRequest{
		Image:        "nsqio/nsq:v1.3.0",
		ExposedPorts: []string{"4150/tcp", "4151/tcp"},
		Cmd:          []string{"/nsqd", "--broadcast-address=localhost"},
		WaitingFor:   wait.ForLog("TCP: listening on").WithStartupTimeout(60 * time.Second),
	}
	nsqC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: nsqReq,
		Started:          true,
	})
	require.NoError(s.T, err)
	s.nsqContainer = nsqC

	nsqHost, err := nsqC.Host(ctx)
	require.NoError(s.T, err)
	nsqPort, err := nsqC.MappedPort(ctx, "4150")
	require.NoError(s.T, err)
	s.nsqAddress = fmt.Sprintf("%s:%s", nsqHost, nsqPort.Port())

	s.NSQ, err = nsq.NewProducer(s.nsqAddress, nsq.NewConfig())
	require.NoError(s.T, err)
}

// GetAppConfig returns a config pointing at the suite's containers.
func (s *IntegrationSuite) GetAppConfig() config.Config {
	u, err := url.Parse(s.connStr)
	require.NoError(s.T, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(s.T, err)
	pass, _ := u.User.Password()

	return config.Config{
		DBHost:                     u.Hostname(),
		DBPort:                     port,
		DBUser:                     u.User.Username(),
		DBPass:                     pass,
		DBName:                     "konduit_test",
		NSQDHost:                   s.nsqAddress,
		MigrationPath:              migrationPath(),
		GeminiAPIKey:               "test-key",
		CrawlMaxPages:              5,
		CrawlMaxDepth:              1,
		CrawlDelayMs:               10,
		FetchTimeoutSeconds:        5,
		FetchConcurrency:           2,
		DataDir:                    s.T.TempDir(),
		ChunkMaxChars:              300,
		SearchTopK:                 5,
		SearchWeight:               0.7,
		SearchMinScore:             0.15,
		BootstrapRetryAttempts:     3,
		BootstrapRetryDelaySeconds: 1,
	}
}

func (s *IntegrationSuite) Teardown() {
	ctx := context.Background()
	if s.NSQ != nil {
		s.NSQ.Stop()
	}
	if s.DB != nil {
		s.DB.Close()
	}
	if s.pgContainer != nil {
		s.pgContainer.Terminate(ctx)
	}
	if s.nsqContainer != nil {
		s.nsqContainer.Terminate(ctx)
	}
}

func migrationPath() string {
	_, b, _, _ := runtime.Caller(0)
	basepath := filepath.Dir(b)
	return fmt.Sprintf("file://%s/../../migrations", basepath)
}
