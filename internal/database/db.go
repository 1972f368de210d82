package database

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

const (
	TypeSQLite   = "sqlite"
	TypePostgres = "postgres"
)

type DB struct {
	conn   *sql.DB
	dbType string
}

type Config struct {
	Type       string
	Host       string
	Port       int
	User       string
	Password   string
	Name       string
	SQLitePath string
}

func NewDB(config Config) (*DB, error) {
	var conn *sql.DB
	var err error

	switch config.Type {
	case TypeSQLite:
		// Foreign keys are off by default in SQLite.
		conn, err = sql.Open("sqlite3", config.SQLitePath+"?_foreign_keys=on")
	case TypePostgres:
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
			config.Host, config.Port, config.User, config.Password, config.Name)
		conn, err = sql.Open("pgx", dsn)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", config.Type)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &DB{conn: conn, dbType: config.Type}

	// Postgres schema comes from the migrations directory.
	if config.Type == TypeSQLite {
		// One writer at a time avoids SQLITE_BUSY under concurrent requests.
		conn.SetMaxOpenConns(1)
		if err := db.createTables(context.Background()); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to create tables: %w", err)
		}
	}

	return db, nil
}

func (db *DB) createTables(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS datasets (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		crop_type TEXT NOT NULL UNIQUE,
		source TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS disease_samples (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		dataset_id INTEGER NOT NULL REFERENCES datasets(id) ON DELETE CASCADE,
		label TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		severity TEXT NOT NULL DEFAULT '',
		color_features TEXT NOT NULL,
		texture_features TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS treatments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		sample_id INTEGER NOT NULL REFERENCES disease_samples(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		application_rate TEXT NOT NULL DEFAULT '',
		effectiveness REAL NOT NULL DEFAULT 0,
		eco_friendly BOOLEAN NOT NULL DEFAULT 1
	);

	CREATE TABLE IF NOT EXISTS detection_history (
		id TEXT PRIMARY KEY,
		crop_type TEXT NOT NULL,
		detected_diseases TEXT NOT NULL,
		confidence_scores TEXT NOT NULL,
		image_hash TEXT NOT NULL,
		timestamp DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_detection_history_timestamp ON detection_history(timestamp DESC);
	`

	_, err := db.conn.ExecContext(ctx, query)
	return err
}

// rebind rewrites ? placeholders to $1..$n for postgres.
func (db *DB) rebind(query string) string {
	if db.dbType != TypePostgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (db *DB) Type() string {
	return db.dbType
}

func (db *DB) Close() error {
	return db.conn.Close()
}
