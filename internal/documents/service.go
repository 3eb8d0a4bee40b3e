package documents

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"attachments-backend/internal/morph"
	"attachments-backend/internal/queue"
	"attachments-backend/internal/shared/storage/object"
	"attachments-backend/internal/shared/telemetry"
	"attachments-backend/internal/shared/util"
)

const mimePDF = "application/pdf"

// UploadedFile is one file handle in a store batch.
type UploadedFile struct {
	Name    string
	Content io.Reader
}

// Service contains business logic for document attachments.
type Service struct {
	Repo    Repo
	Store   object.ObjectStore
	Queue   queue.Client
	Morph   *morph.Registry
	Policy  *Policy
	Uploads object.UploadOptions

	// LoggableMorph is the morph key under which documents appear in
	// activity logs.
	LoggableMorph string
}

// StoreBatch validates and persists a batch of uploaded files against a
// polymorphic owner. Either every file in the batch becomes a document
// or none do. Returns the created documents in input order.
func (s *Service) StoreBatch(ctx context.Context, userID, documentableType, documentableID string, files []UploadedFile) ([]Document, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: empty file batch", ErrInvalidInput)
	}
	if documentableID == "" {
		return nil, fmt.Errorf("%w: documentable_id required", ErrInvalidInput)
	}

	owner, err := s.Morph.Resolve(documentableType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	exists, err := s.Repo.OwnerExists(ctx, owner, documentableID)
	if err != nil {
		return nil, fmt.Errorf("resolve owner %s/%s: %w", owner.Table, documentableID, err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s/%s", ErrOwnerNotFound, documentableType, documentableID)
	}

	if err := s.validateExisting(ctx, owner, documentableID, files); err != nil {
		return nil, err
	}

	docs, err := s.uploadAll(ctx, owner, userID, documentableID, files)
	if err != nil {
		return nil, err
	}

	if err := s.Repo.CreateBatch(ctx, owner, documentableID, docs); err != nil {
		s.discardUploads(ctx, docs)
		return nil, fmt.Errorf("persist batch: %w", err)
	}

	for i := range docs {
		s.ocr(ctx, owner, docs[i])
	}

	telemetry.Info("documents.stored", map[string]any{
		"morph":             s.LoggableMorph,
		"documentable_type": owner.Table,
		"documentable_id":   documentableID,
		"count":             len(docs),
		"created_by":        userID,
		"request_id":        RequestIDFromContext(ctx),
	})

	return docs, nil
}

// List returns documents for an owner, newest first, optionally filtered
// by search term.
func (s *Service) List(ctx context.Context, q Query) ([]Document, error) {
	if q.DocumentableType == "" || q.DocumentableID == "" {
		return nil, fmt.Errorf("%w: documentable_type and documentable_id required", ErrInvalidInput)
	}

	owner, err := s.Morph.Resolve(q.DocumentableType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	q.DocumentableType = owner.Table

	docs, err := s.Repo.List(ctx, q)
	if err != nil {
		return nil, err
	}
	if docs == nil {
		docs = []Document{}
	}
	return docs, nil
}

// Download returns a document and its file contents if the user may
// download it.
func (s *Service) Download(ctx context.Context, user User, documentID string) (Document, io.ReadCloser, error) {
	doc, err := s.Repo.GetByID(ctx, documentID)
	if err != nil {
		return Document{}, nil, err
	}

	if !s.Policy.Allows(user, AbilityDownload, doc) {
		return Document{}, nil, ErrForbidden
	}

	body, err := s.Store.Open(ctx, doc.File.StorageKey)
	if err != nil {
		return Document{}, nil, fmt.Errorf("open stored file: %w", err)
	}
	return doc, body, nil
}

// Destroy removes a document and its stored file if the user may
// destroy it.
func (s *Service) Destroy(ctx context.Context, user User, documentID string) error {
	doc, err := s.Repo.GetByID(ctx, documentID)
	if err != nil {
		return err
	}

	if !s.Policy.Allows(user, AbilityDestroy, doc) {
		return ErrForbidden
	}

	if err := s.Repo.Delete(ctx, documentID); err != nil {
		return err
	}

	// The row is gone; a dangling blob is tolerable.
	if err := s.Store.Delete(ctx, doc.File.StorageKey); err != nil {
		telemetry.Warn("documents.blob_delete_failed", map[string]any{
			"document_id": documentID,
			"storage_key": doc.File.StorageKey,
			"error":       err.Error(),
		})
	}
	return nil
}

func (s *Service) validateExisting(ctx context.Context, owner morph.Model, documentableID string, files []UploadedFile) error {
	existing, err := s.Repo.ListByOwner(ctx, owner.Table, documentableID)
	if err != nil {
		return fmt.Errorf("load existing documents: %w", err)
	}

	names := make(map[string]struct{}, len(existing))
	for _, doc := range existing {
		names[doc.File.OriginalName] = struct{}{}
	}

	var conflicting []string
	for _, file := range files {
		if _, ok := names[file.Name]; ok {
			conflicting = append(conflicting, file.Name)
		}
	}
	if len(conflicting) > 0 {
		return &DuplicateError{Names: conflicting}
	}
	return nil
}

func (s *Service) uploadAll(ctx context.Context, owner morph.Model, userID, documentableID string, files []UploadedFile) ([]Document, error) {
	ownerKey := util.HashOwnerKey(owner.Table + "/" + documentableID)

	docs := make([]Document, 0, len(files))
	for _, file := range files {
		meta, err := s.Store.Upload(ctx, s.Uploads, ownerKey, file.Name, file.Content)
		if err != nil {
			s.discardUploads(ctx, docs)
			return nil, fmt.Errorf("store file %s: %w", file.Name, err)
		}

		docs = append(docs, Document{
			ID:               uuid.NewString(),
			DocumentableType: owner.Table,
			DocumentableID:   documentableID,
			CreatedBy:        userID,
			CreatedAt:        time.Now().UTC(),
			File: File{
				OriginalName: meta.OriginalName,
				MimeType:     meta.MimeType,
				StorageKey:   meta.StorageKey,
				SizeBytes:    meta.SizeBytes,
			},
		})
	}
	return docs, nil
}

// discardUploads removes blobs uploaded for a batch that failed to
// persist, best effort.
func (s *Service) discardUploads(ctx context.Context, docs []Document) {
	for _, doc := range docs {
		if err := s.Store.Delete(ctx, doc.File.StorageKey); err != nil {
			telemetry.Warn("documents.blob_discard_failed", map[string]any{
				"storage_key": doc.File.StorageKey,
				"error":       err.Error(),
			})
		}
	}
}

// ocr enqueues a text-extraction job for PDF files attached to
// OCR-capable owners. Dispatch is fire-and-forget: failures are logged
// and never fail the store.
func (s *Service) ocr(ctx context.Context, owner morph.Model, doc Document) {
	if s.Queue == nil || !owner.Ocrable || doc.File.MimeType != mimePDF {
		return
	}

	msg := queue.Message{
		Kind:       queue.KindOCR,
		DocumentID: doc.ID,
		RequestID:  RequestIDFromContext(ctx),
		EnqueuedAt: time.Now().UTC().Format(time.RFC3339),
		Version:    1,
	}
	if err := s.Queue.Send(ctx, msg); err != nil {
		telemetry.Error("documents.ocr_enqueue_failed", map[string]any{
			"document_id": doc.ID,
			"error":       err.Error(),
		})
	}
}
