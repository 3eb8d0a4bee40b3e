package documents

import (
	"context"

	"attachments-backend/internal/morph"
)

// Repo defines persistence operations for documents and their owners.
type Repo interface {
	// OwnerExists reports whether the owner row identified by the
	// resolved model and id exists.
	OwnerExists(ctx context.Context, owner morph.Model, ownerID string) (bool, error)

	// ListByOwner returns all documents attached to one owner, with
	// file metadata, in no particular order.
	ListByOwner(ctx context.Context, documentableType, documentableID string) ([]Document, error)

	// CreateBatch inserts all documents and bumps the owner row's
	// updated_at in a single transaction. Either every row is committed
	// or none are.
	CreateBatch(ctx context.Context, owner morph.Model, ownerID string, docs []Document) error

	// List returns documents matching the query, newest first.
	List(ctx context.Context, q Query) ([]Document, error)

	GetByID(ctx context.Context, id string) (Document, error)
	Delete(ctx context.Context, id string) error

	// SetText stores extracted text on a document, only while the text
	// column is still null.
	SetText(ctx context.Context, id, text string) error
}
