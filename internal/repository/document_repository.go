package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/edutask-api/internal/models"
	"github.com/noah-isme/edutask-api/internal/store"
)

// QueryObserver receives query timings.
type QueryObserver interface {
	ObserveDBQuery(label string, duration time.Duration)
}

// DocumentRepository persists the document as one JSON row per id in
// PostgreSQL or SQLite. Queries use ? placeholders rebound per driver.
type DocumentRepository struct {
	db       *sqlx.DB
	observer QueryObserver
}

// NewDocumentRepository constructs the repository. observer may be nil.
func NewDocumentRepository(db *sqlx.DB, observer QueryObserver) *DocumentRepository {
	return &DocumentRepository{db: db, observer: observer}
}

type documentRow struct {
	Version int64  `db:"version"`
	Payload string `db:"payload"`
}

// EnsureSchema creates the documents table when missing.
func (r *DocumentRepository) EnsureSchema(ctx context.Context) error {
	payloadType := "TEXT"
	timeType := "TIMESTAMP"
	if r.db.DriverName() == "postgres" {
		payloadType = "JSONB"
		timeType = "TIMESTAMPTZ"
	}
	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS entity_documents (
	id TEXT PRIMARY KEY,
	version BIGINT NOT NULL,
	payload %s NOT NULL,
	updated_at %s NOT NULL
)`, payloadType, timeType)
	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("ensure entity_documents: %w", err)
	}
	return nil
}

// Load returns the stored document, or an empty document at version 0.
func (r *DocumentRepository) Load(ctx context.Context, id string) (models.Document, int64, error) {
	defer r.observe("document_load", time.Now())

	var row documentRow
	query := r.db.Rebind(`SELECT version, payload FROM entity_documents WHERE id = ?`)
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.NewDocument(), 0, nil
		}
		return models.Document{}, 0, fmt.Errorf("load document %s: %w", id, err)
	}
	doc, err := decodeDocument([]byte(row.Payload))
	if err != nil {
		return models.Document{}, 0, fmt.Errorf("decode document %s: %w", id, err)
	}
	return doc, row.Version, nil
}

// CompareAndSwap writes doc at expected+1 when the stored version still equals
// expected. The first write inserts the row.
func (r *DocumentRepository) CompareAndSwap(ctx context.Context, id string, expected int64, doc models.Document) error {
	defer r.observe("document_swap", time.Now())

	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document %s: %w", id, err)
	}
	now := time.Now().UTC()

	var result sql.Result
	if expected == 0 {
		query := r.db.Rebind(`INSERT INTO entity_documents (id, version, payload, updated_at) VALUES (?, ?, ?, ?) ON CONFLICT (id) DO NOTHING`)
		result, err = r.db.ExecContext(ctx, query, id, int64(1), string(payload), now)
	} else {
		query := r.db.Rebind(`UPDATE entity_documents SET version = ?, payload = ?, updated_at = ? WHERE id = ? AND version = ?`)
		result, err = r.db.ExecContext(ctx, query, expected+1, string(payload), now, id, expected)
	}
	if err != nil {
		return fmt.Errorf("swap document %s: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("swap document %s rows affected: %w", id, err)
	}
	if affected != 1 {
		return store.ErrVersionConflict
	}
	return nil
}

func (r *DocumentRepository) observe(label string, start time.Time) {
	if r.observer != nil {
		r.observer.ObserveDBQuery(label, time.Since(start))
	}
}
