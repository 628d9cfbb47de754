package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

// DB wraps the database connection
type DB struct {
	conn *sql.DB
	log  *zap.Logger
}

// NewDB creates a new database connection. An empty dsn falls back to
// DATABASE_URL and then to the individual DB_* variables.
func NewDB(ctx context.Context, dsn string, log *zap.Logger) (*DB, error) {
	if dsn == "" {
		dsn = dsnFromEnv()
	}

	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := newWithConn(conn, log)
	if err := db.initSchema(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return db, nil
}

func newWithConn(conn *sql.DB, log *zap.Logger) *DB {
	return &DB{conn: conn, log: log}
}

func dsnFromEnv() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}

	host := getEnvOrDefault("DB_HOST", "localhost")
	port := getEnvOrDefault("DB_PORT", "5432")
	user := getEnvOrDefault("DB_USER", "arcdata")
	password := getEnvOrDefault("DB_PASSWORD", "")
	dbname := getEnvOrDefault("DB_NAME", "arcdata")
	sslmode := getEnvOrDefault("DB_SSLMODE", "disable")

	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, password, dbname, sslmode)
}

func getEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

var schema = []struct {
	name string
	stmt string
}{
	{"items", `
		CREATE TABLE IF NOT EXISTS items (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL DEFAULT '',
			data JSONB NOT NULL,
			created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
		)
	`},
	{"arcs", `
		CREATE TABLE IF NOT EXISTS arcs (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL DEFAULT '',
			data JSONB NOT NULL,
			created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
		)
	`},
	{"workbench_levels", `
		CREATE TABLE IF NOT EXISTS workbench_levels (
			workbench TEXT NOT NULL,
			position INTEGER NOT NULL,
			level TEXT,
			requirements JSONB NOT NULL,
			crafts JSONB NOT NULL DEFAULT '[]',
			rates TEXT,
			created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (workbench, position)
		)
	`},
}

// initSchema creates the necessary tables if they don't exist
func (db *DB) initSchema(ctx context.Context) error {
	for _, t := range schema {
		if _, err := db.conn.ExecContext(ctx, t.stmt); err != nil {
			return fmt.Errorf("failed to create %s table: %w", t.name, err)
		}
	}

	db.log.Debug("Database schema initialized")
	return nil
}
