package documents

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"attachments-backend/internal/morph"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const documentColumns = `id, documentable_type, documentable_id, text, created_by, original_filename, mime_type, storage_key, size_bytes, created_at`

// OwnerExists checks the owner row in its own table. The table name
// comes from the morph registry, which only admits plain identifiers.
func (r *PGRepo) OwnerExists(ctx context.Context, owner morph.Model, ownerID string) (bool, error) {
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %q WHERE id = $1)`, owner.Table)

	var exists bool
	if err := r.DB.QueryRowContext(ctx, query, ownerID).Scan(&exists); err != nil {
		return false, fmt.Errorf("owner exists %s: %w", owner.Table, err)
	}
	return exists, nil
}

// ListByOwner returns all documents attached to one owner.
func (r *PGRepo) ListByOwner(ctx context.Context, documentableType, documentableID string) ([]Document, error) {
	query := `
SELECT ` + documentColumns + `
FROM documents
WHERE documentable_type = $1 AND documentable_id = $2`

	rows, err := r.DB.QueryContext(ctx, query, documentableType, documentableID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanDocuments(rows)
}

// CreateBatch inserts all documents and touches the owner row inside a
// single transaction.
func (r *PGRepo) CreateBatch(ctx context.Context, owner morph.Model, ownerID string, docs []Document) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch: %w", err)
	}
	defer tx.Rollback()

	const insert = `
INSERT INTO documents (
    id,
    documentable_type,
    documentable_id,
    text,
    created_by,
    original_filename,
    mime_type,
    storage_key,
    size_bytes,
    created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	for _, doc := range docs {
		var text sql.NullString
		if doc.Text != nil {
			text = sql.NullString{String: *doc.Text, Valid: true}
		}
		if _, err := tx.ExecContext(
			ctx,
			insert,
			doc.ID,
			doc.DocumentableType,
			doc.DocumentableID,
			text,
			doc.CreatedBy,
			doc.File.OriginalName,
			doc.File.MimeType,
			doc.File.StorageKey,
			doc.File.SizeBytes,
			doc.CreatedAt,
		); err != nil {
			return fmt.Errorf("insert document %s: %w", doc.ID, err)
		}
	}

	touch := fmt.Sprintf(`UPDATE %q SET updated_at = $1 WHERE id = $2`, owner.Table)
	if _, err := tx.ExecContext(ctx, touch, time.Now().UTC(), ownerID); err != nil {
		return fmt.Errorf("touch owner %s: %w", owner.Table, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	return nil
}

// List returns documents for one owner, newest first, optionally
// filtered by a case-insensitive search over the file's original name
// or the extracted text.
func (r *PGRepo) List(ctx context.Context, q Query) ([]Document, error) {
	query := `
SELECT ` + documentColumns + `
FROM documents
WHERE documentable_type = $1 AND documentable_id = $2`

	args := []any{q.DocumentableType, q.DocumentableID}
	if q.Search != "" {
		query += ` AND (original_filename ILIKE $3 OR text ILIKE $3)`
		args = append(args, "%"+q.Search+"%")
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanDocuments(rows)
}

// GetByID fetches a document by ID.
func (r *PGRepo) GetByID(ctx context.Context, id string) (Document, error) {
	query := `
SELECT ` + documentColumns + `
FROM documents
WHERE id = $1
LIMIT 1`

	doc, err := scanDocument(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}
	return doc, nil
}

// Delete removes a document row.
func (r *PGRepo) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetText stores extracted text, only while the column is still null.
func (r *PGRepo) SetText(ctx context.Context, id, text string) error {
	const query = `
UPDATE documents
SET text = $1
WHERE id = $2 AND text IS NULL`
	_, err := r.DB.ExecContext(ctx, query, text, id)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (Document, error) {
	var doc Document
	var text sql.NullString
	if err := row.Scan(
		&doc.ID,
		&doc.DocumentableType,
		&doc.DocumentableID,
		&text,
		&doc.CreatedBy,
		&doc.File.OriginalName,
		&doc.File.MimeType,
		&doc.File.StorageKey,
		&doc.File.SizeBytes,
		&doc.CreatedAt,
	); err != nil {
		return Document{}, err
	}
	if text.Valid {
		doc.Text = &text.String
	}
	return doc, nil
}

func scanDocuments(rows *sql.Rows) ([]Document, error) {
	var out []Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

var _ Repo = (*PGRepo)(nil)
