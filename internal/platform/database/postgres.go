package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"daily_judge/internal/platform/config"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	log "github.com/sirupsen/logrus"
)

var logger = log.WithField("from", "database")

func Connect(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open("pgx", cfg.DBConnStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err = db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	logger.Info("connected to PostgreSQL")
	return db, nil
}

// EnsureSchema creates the document tables when missing.
func EnsureSchema(ctx context.Context, db *sql.DB, tables []string) error {
	for _, table := range tables {
		stmt := `CREATE TABLE IF NOT EXISTS ` + table + ` (
			id         TEXT PRIMARY KEY,
			data       JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create table %s: %w", table, err)
		}
	}
	return nil
}

func Close(db *sql.DB) {
	if db != nil {
		db.Close()
		logger.Info("database connection closed")
	}
}
