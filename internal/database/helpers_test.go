package database

import (
	"context"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupSQLiteDB opens a fresh SQLite database in a temp directory.
func setupSQLiteDB(t *testing.T) *DB {
	t.Helper()

	db, err := NewDB(Config{Type: TypeSQLite, SQLitePath: filepath.Join(t.TempDir(), "test.db")})
	if err != nil {
		t.Fatalf("Failed to open SQLite database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// setupPostgresDB starts a throwaway postgres container and applies the
// repository migrations. It is skipped in -short mode or when no container
// runtime is available.
func setupPostgresDB(t *testing.T) *DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres tests in short mode")
	}

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("leafscan_test"),
		postgres.WithUsername("leafscan_test"),
		postgres.WithPassword("leafscan_test_password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Skipf("PostgreSQL container unavailable: %v", err)
	}
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	})

	host, err := pgContainer.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := pgContainer.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	db, err := NewDB(Config{
		Type:     TypePostgres,
		Host:     host,
		Port:     port.Int(),
		User:     "leafscan_test",
		Password: "leafscan_test_password",
		Name:     "leafscan_test",
	})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, err := NewMigrator(db).Run(ctx, migrationsDir()); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	return db
}

// forEachDB runs fn against SQLite and, outside -short mode, postgres.
func forEachDB(t *testing.T, fn func(t *testing.T, db *DB)) {
	t.Run(TypeSQLite, func(t *testing.T) {
		fn(t, setupSQLiteDB(t))
	})
	t.Run(TypePostgres, func(t *testing.T) {
		fn(t, setupPostgresDB(t))
	})
}

func migrationsDir() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..", "migrations")
}
