//go:build integration

// Package dbtest starts a throwaway PostgreSQL for repository tests. Run with
// `go test -tags integration ./...`; Docker must be reachable.
package dbtest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"github.com/aura-webinar/storefront/pkg/database"
)

const (
	user     = "storefront"
	password = "storefront"
)

var (
	once      sync.Once
	container testcontainers.Container
	startErr  error
)

// start runs one postgres container per test binary. Ryuk removes it when
// the process exits.
func start() (testcontainers.Container, error) {
	once.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
		defer cancel()
		container, startErr = testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
			ContainerRequest: testcontainers.ContainerRequest{
				Image:        "postgres:16-alpine",
				ExposedPorts: []string{"5432/tcp"},
				Env: map[string]string{
					"POSTGRES_USER":     user,
					"POSTGRES_PASSWORD": password,
					"POSTGRES_DB":       "postgres",
				},
				Tmpfs: map[string]string{"/var/lib/postgresql/data": "rw"},
				Cmd:   []string{"postgres", "-c", "fsync=off", "-c", "synchronous_commit=off"},
				WaitingFor: wait.ForSQL("5432/tcp", "pgx", func(host string, port nat.Port) string {
					return dsn(host, port, "postgres")
				}).WithStartupTimeout(time.Minute),
			},
			Started: true,
		})
	})
	return container, startErr
}

func dsn(host string, port nat.Port, db string) string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, password, host, port.Port(), db)
}

// NewPool creates a fresh database with the embedded schema applied and
// returns a pool on it. The database is dropped when the test ends.
func NewPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	c, err := start()
	require.NoError(t, err, "start postgres container")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	host, err := c.Host(ctx)
	require.NoError(t, err)
	port, err := c.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	name := "test_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	admin, err := pgxpool.New(ctx, dsn(host, port, "postgres"))
	require.NoError(t, err)
	defer admin.Close()
	_, err = admin.Exec(ctx, "CREATE DATABASE "+name)
	require.NoError(t, err, "create database")

	pool, err := database.NewPostgresPool(ctx, dsn(host, port, name), database.PoolOptions{MaxConns: 8}, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, database.Migrate(ctx, pool, zap.NewNop()), "migrate")

	t.Cleanup(func() {
		pool.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		admin, err := pgxpool.New(ctx, dsn(host, port, "postgres"))
		if err != nil {
			return
		}
		defer admin.Close()
		_, _ = admin.Exec(ctx, "DROP DATABASE IF EXISTS "+name+" WITH (FORCE)")
	})
	return pool
}

// InsertUser adds a user row and returns its id.
func InsertUser(t *testing.T, pool *pgxpool.Pool, email string) uuid.UUID {
	t.Helper()
	var id uuid.UUID
	err := pool.QueryRow(context.Background(),
		`INSERT INTO users (email, password_hash, full_name) VALUES ($1, 'x', 'Test User') RETURNING id`, email).Scan(&id)
	require.NoError(t, err)
	return id
}

// InsertWebinar adds a published webinar with the given capacity and
// available seat count.
func InsertWebinar(t *testing.T, pool *pgxpool.Pool, title string, total, available int) uuid.UUID {
	t.Helper()
	var id uuid.UUID
	err := pool.QueryRow(context.Background(),
		`INSERT INTO webinars (title, slug, starts_at, price, total_slots, available_slots, status)
		VALUES ($1, $2, NOW() + INTERVAL '7 days', 499, $3, $4, 'published') RETURNING id`,
		title, "w-"+uuid.NewString(), total, available).Scan(&id)
	require.NoError(t, err)
	return id
}

// InsertRegistration adds a registration in the given payment status.
func InsertRegistration(t *testing.T, pool *pgxpool.Pool, userID, webinarID uuid.UUID, status, paymentID string) uuid.UUID {
	t.Helper()
	var id uuid.UUID
	err := pool.QueryRow(context.Background(),
		`INSERT INTO webinar_registrations (user_id, webinar_id, amount_paid, payment_status, payment_id)
		VALUES ($1, $2, 499, $3, NULLIF($4,'')) RETURNING id`,
		userID, webinarID, status, paymentID).Scan(&id)
	require.NoError(t, err)
	return id
}
