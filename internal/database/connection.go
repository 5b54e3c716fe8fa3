package database

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/example/wordsrs/internal/config"
)

// DB is the global database connection
var DB *sqlx.DB

// Connect establishes a connection to the configured database and creates
// the schema if it does not exist yet.
func Connect(cfg config.DatabaseConfig) error {
	var (
		db  *sqlx.DB
		err error
	)

	switch cfg.Type {
	case "postgres":
		db, err = sqlx.Connect("postgres", cfg.DSN)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
	case "sqlite", "":
		if dir := filepath.Dir(cfg.SQLitePath); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("failed to create data directory: %w", err)
			}
		}
		db, err = sqlx.Connect("sqlite3", cfg.SQLitePath+"?_busy_timeout=5000")
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		if _, err = db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return fmt.Errorf("failed to enable foreign keys: %w", err)
		}
		// SQLite doesn't support multiple writers
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	default:
		return fmt.Errorf("unsupported database type %q", cfg.Type)
	}

	DB = db
	if err := initializeSchema(); err != nil {
		return err
	}
	return nil
}

// Close closes the database connection
func Close() error {
	if DB != nil {
		err := DB.Close()
		DB = nil
		return err
	}
	return nil
}

func isPostgres() bool {
	return DB.DriverName() == "postgres"
}

// schema uses {{ts}} for the timestamp column type, which differs per driver
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		telegram_id BIGINT PRIMARY KEY,
		username TEXT NOT NULL DEFAULT '',
		notification_enabled BOOLEAN NOT NULL DEFAULT TRUE,
		notification_hour INTEGER NOT NULL DEFAULT 9,
		daily_limit INTEGER NOT NULL DEFAULT 20,
		created_at {{ts}} NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS item_states (
		user_id BIGINT NOT NULL,
		item_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		group_tag TEXT NOT NULL DEFAULT '',
		state TEXT NOT NULL DEFAULT 'new',
		stability DOUBLE PRECISION NOT NULL DEFAULT 0,
		difficulty DOUBLE PRECISION NOT NULL DEFAULT 0,
		reps INTEGER NOT NULL DEFAULT 0,
		lapses INTEGER NOT NULL DEFAULT 0,
		total_attempts INTEGER NOT NULL DEFAULT 0,
		correct_attempts INTEGER NOT NULL DEFAULT 0,
		success_rate DOUBLE PRECISION NOT NULL DEFAULT 0,
		avg_response_time DOUBLE PRECISION NOT NULL DEFAULT 0,
		consecutive_correct INTEGER NOT NULL DEFAULT 0,
		due_date {{ts}},
		last_review {{ts}},
		elapsed_days DOUBLE PRECISION NOT NULL DEFAULT 0,
		interval_days DOUBLE PRECISION NOT NULL DEFAULT 0,
		retrievability DOUBLE PRECISION NOT NULL DEFAULT 0,
		last_rating INTEGER NOT NULL DEFAULT 0,
		version BIGINT NOT NULL DEFAULT 1,
		PRIMARY KEY (user_id, item_id, kind)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_item_states_due ON item_states (user_id, kind, due_date)`,
	`CREATE TABLE IF NOT EXISTS review_history (
		id TEXT PRIMARY KEY,
		user_id BIGINT NOT NULL,
		item_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		rating INTEGER NOT NULL DEFAULT 0,
		is_correct BOOLEAN NOT NULL DEFAULT FALSE,
		response_time_ms BIGINT NOT NULL DEFAULT 0,
		response_quality TEXT NOT NULL DEFAULT '',
		stability_before DOUBLE PRECISION NOT NULL,
		stability_after DOUBLE PRECISION NOT NULL,
		difficulty_before DOUBLE PRECISION NOT NULL,
		difficulty_after DOUBLE PRECISION NOT NULL,
		state_before TEXT NOT NULL,
		state_after TEXT NOT NULL,
		due_before {{ts}},
		due_after {{ts}},
		changes TEXT NOT NULL DEFAULT '[]',
		reviewed_at {{ts}} NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_review_history_item ON review_history (user_id, kind, item_id, reviewed_at)`,
	`CREATE TABLE IF NOT EXISTS user_statistics (
		user_id BIGINT PRIMARY KEY,
		words_mastered INTEGER NOT NULL DEFAULT 0,
		questions_mastered INTEGER NOT NULL DEFAULT 0,
		reviews_total INTEGER NOT NULL DEFAULT 0,
		updated_at {{ts}} NOT NULL
	)`,
}

// initializeSchema creates necessary tables if they don't exist
func initializeSchema() error {
	ts := "TIMESTAMP"
	if isPostgres() {
		ts = "TIMESTAMPTZ"
	}
	for _, stmt := range schema {
		if _, err := DB.Exec(strings.ReplaceAll(stmt, "{{ts}}", ts)); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
	}
	return nil
}
