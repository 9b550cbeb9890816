package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// documentRowID is the only row of directory_document.
const documentRowID = 1

// SQLiteStore keeps the document as a single JSON row in directory_document.
// The table is created by the embedded migrations.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a store on an open, migrated database.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Load reads the document row.
func (s *SQLiteStore) Load(ctx context.Context) (*Document, error) {
	var body string
	err := s.db.QueryRowContext(ctx,
		"SELECT body FROM directory_document WHERE id = ?", documentRowID,
	).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return NewDocument(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying document: %w", err)
	}
	return decodeDocument([]byte(body))
}

// Replace upserts the document row in one transaction.
func (s *SQLiteStore) Replace(ctx context.Context, doc *Document) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding document: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback is no-op after commit

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO directory_document (id, body, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at
	`, documentRowID, string(body), time.Now().UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("writing document: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing document: %w", err)
	}
	return nil
}
