// Package ocr runs text extraction jobs for stored documents.
package ocr

import (
	"context"
	"errors"
	"fmt"

	"attachments-backend/internal/documents"
	"attachments-backend/internal/extract"
	"attachments-backend/internal/shared/storage/object"
	"attachments-backend/internal/shared/telemetry"
)

// ErrAlreadyExtracted indicates the document already carries text.
var ErrAlreadyExtracted = errors.New("document text already extracted")

// Service processes OCR jobs referenced by document id.
type Service struct {
	Repo  documents.Repo
	Store object.ObjectStore
}

// Process extracts text for the given document and persists it. The
// extracted text is also written next to the original object so the raw
// output survives later edits to the row.
func (s *Service) Process(ctx context.Context, documentID string) error {
	doc, err := s.Repo.GetByID(ctx, documentID)
	if err != nil {
		return fmt.Errorf("ocr process document=%s: %w", documentID, err)
	}
	if doc.Text != nil {
		return fmt.Errorf("ocr process document=%s: %w", documentID, ErrAlreadyExtracted)
	}

	text, err := extract.Text(ctx, s.Store, doc.File.StorageKey, doc.File.MimeType)
	if err != nil {
		return fmt.Errorf("ocr process document=%s: %w", documentID, err)
	}

	if err := s.Repo.SetText(ctx, documentID, text); err != nil {
		return fmt.Errorf("ocr process document=%s: %w", documentID, err)
	}

	telemetry.Info("ocr.completed", map[string]any{
		"document_id": documentID,
		"text_chars":  len(text),
	})
	return nil
}
