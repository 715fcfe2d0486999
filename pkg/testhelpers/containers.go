// Package testhelpers starts throwaway datasources for integration tests.
package testhelpers

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// PostgresTestImage is the stock image the report fixtures are loaded into.
const PostgresTestImage = "postgres:16-alpine"

// ordersFixture is the schema and data report queries run against.
const ordersFixture = `
CREATE TABLE orders (
	id         serial PRIMARY KEY,
	customer   text        NOT NULL,
	status     text        NOT NULL,
	amount     numeric     NOT NULL,
	created_at date        NOT NULL
);
INSERT INTO orders (customer, status, amount, created_at) VALUES
	('acme',    'shipped', 120.50, '2024-01-05'),
	('acme',    'pending',  80.00, '2024-02-10'),
	('globex',  'shipped', 300.00, '2024-02-20'),
	('initech', 'pending',  15.25, '2024-02-29'),
	('initech', 'shipped',  42.00, '2024-03-01');
CREATE TABLE customers (
	id   text PRIMARY KEY,
	name text NOT NULL
);
INSERT INTO customers (id, name) VALUES
	('c1', 'Acme'),
	('c2', 'Globex'),
	('c3', 'Initech');
`

// TestDB holds a shared test database container and connection pool.
type TestDB struct {
	Container testcontainers.Container
	Pool      *pgxpool.Pool
	// AdapterConfig is the map handed to datasource.NewQueryExecutor.
	AdapterConfig map[string]any
}

var (
	sharedTestDB     *TestDB
	sharedTestDBOnce sync.Once
	sharedTestDBErr  error
)

// GetTestDB returns a shared PostgreSQL container loaded with the orders
// fixture. The container is created once and reused across the test run.
func GetTestDB(t *testing.T) *TestDB {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode (requires Docker)")
	}

	sharedTestDBOnce.Do(func() {
		sharedTestDB, sharedTestDBErr = setupTestDB()
	})

	if sharedTestDBErr != nil {
		t.Fatalf("Failed to setup test database: %v", sharedTestDBErr)
	}

	return sharedTestDB
}

func setupTestDB() (*TestDB, error) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        PostgresTestImage,
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_DB":       "reports",
			"POSTGRES_USER":     "redash",
			"POSTGRES_PASSWORD": "test_password",
		},
		// The server restarts once after initdb, so wait for the second message.
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start test container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get container host: %w", err)
	}

	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		return nil, fmt.Errorf("failed to get container port: %w", err)
	}

	connStr := fmt.Sprintf("postgres://redash:test_password@%s:%s/reports?sslmode=disable", host, port.Port())
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Verify connection with retry
	for i := 0; i < 10; i++ {
		if err = pool.Ping(ctx); err == nil {
			break
		}
		time.Sleep(500 * time.Millisecond)
	}
	if err != nil {
		return nil, fmt.Errorf("database never became reachable: %w", err)
	}

	if _, err := pool.Exec(ctx, ordersFixture); err != nil {
		return nil, fmt.Errorf("failed to load fixture: %w", err)
	}

	return &TestDB{
		Container: container,
		Pool:      pool,
		AdapterConfig: map[string]any{
			"host":     host,
			"port":     port.Int(),
			"user":     "redash",
			"password": "test_password",
			"database": "reports",
			"ssl_mode": "disable",
		},
	}, nil
}
