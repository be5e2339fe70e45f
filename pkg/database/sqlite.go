package database

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/noah-isme/edutask-api/pkg/config"
)

// SQLiteDSN returns the go-sqlite3 DSN for the file at path.
func SQLiteDSN(path string) string {
	q := url.Values{}
	q.Set("_busy_timeout", "5000")
	q.Set("_journal_mode", "WAL")
	q.Set("_foreign_keys", "on")
	return "file:" + path + "?" + q.Encode()
}

// NewSQLite opens the SQLite database file. Writes go through a single
// connection since SQLite allows one writer at a time.
func NewSQLite(ctx context.Context, cfg config.SQLiteConfig) (*sqlx.DB, error) {
	if cfg.Path == "" {
		return nil, errors.New("sqlite path is required")
	}
	db, err := sqlx.ConnectContext(ctx, "sqlite3", SQLiteDSN(cfg.Path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", cfg.Path, err)
	}
	db.SetMaxOpenConns(1)
	return db, nil
}
