package documents

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"attachments-backend/internal/morph"
)

// MemoryRepo is an in-memory implementation of Repo used in dev mode and
// tests. Owners must be registered before documents can be attached.
type MemoryRepo struct {
	mu     sync.RWMutex
	docs   map[string]Document             // document id -> document
	owners map[string]map[string]time.Time // table -> owner id -> updated_at
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		docs:   make(map[string]Document),
		owners: make(map[string]map[string]time.Time),
	}
}

// RegisterOwner adds an owner row the repo will report as existing.
func (r *MemoryRepo) RegisterOwner(table, id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.owners[table] == nil {
		r.owners[table] = make(map[string]time.Time)
	}
	r.owners[table][id] = time.Now().UTC()
}

// OwnerUpdatedAt returns the owner's last touch time.
func (r *MemoryRepo) OwnerUpdatedAt(table, id string) (time.Time, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ts, ok := r.owners[table][id]
	return ts, ok
}

// OwnerExists reports whether a registered owner exists.
func (r *MemoryRepo) OwnerExists(ctx context.Context, owner morph.Model, ownerID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.owners[owner.Table][ownerID]
	return ok, nil
}

// ListByOwner returns all documents attached to one owner.
func (r *MemoryRepo) ListByOwner(ctx context.Context, documentableType, documentableID string) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Document
	for _, doc := range r.docs {
		if doc.DocumentableType == documentableType && doc.DocumentableID == documentableID {
			out = append(out, doc)
		}
	}
	return out, nil
}

// CreateBatch stores all documents and touches the owner. The batch is
// applied under one lock so readers never observe a partial set.
func (r *MemoryRepo) CreateBatch(ctx context.Context, owner morph.Model, ownerID string, docs []Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.owners[owner.Table][ownerID]; !ok {
		return ErrOwnerNotFound
	}

	for _, doc := range docs {
		r.docs[doc.ID] = doc
	}
	r.owners[owner.Table][ownerID] = time.Now().UTC()
	return nil
}

// List returns matching documents, newest first.
func (r *MemoryRepo) List(ctx context.Context, q Query) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	search := strings.ToLower(q.Search)
	var out []Document
	for _, doc := range r.docs {
		if doc.DocumentableType != q.DocumentableType || doc.DocumentableID != q.DocumentableID {
			continue
		}
		if search != "" && !matchesSearch(doc, search) {
			continue
		}
		out = append(out, doc)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// GetByID returns a document by ID.
func (r *MemoryRepo) GetByID(ctx context.Context, id string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	doc, ok := r.docs[id]
	if !ok {
		return Document{}, ErrNotFound
	}
	return doc, nil
}

// Delete removes a document.
func (r *MemoryRepo) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.docs[id]; !ok {
		return ErrNotFound
	}
	delete(r.docs, id)
	return nil
}

// SetText stores extracted text, only while the document has none.
func (r *MemoryRepo) SetText(ctx context.Context, id, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, ok := r.docs[id]
	if !ok {
		return ErrNotFound
	}
	if doc.Text == nil {
		doc.Text = &text
		r.docs[id] = doc
	}
	return nil
}

func matchesSearch(doc Document, loweredSearch string) bool {
	if strings.Contains(strings.ToLower(doc.File.OriginalName), loweredSearch) {
		return true
	}
	return doc.Text != nil && strings.Contains(strings.ToLower(*doc.Text), loweredSearch)
}

var _ Repo = (*MemoryRepo)(nil)
