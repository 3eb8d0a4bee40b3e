package documents

import "time"

// DocumentResponse is the outward-facing representation of a document.
type DocumentResponse struct {
	DocumentID       string    `json:"documentId"`
	DocumentableType string    `json:"documentableType"`
	DocumentableID   string    `json:"documentableId"`
	FileName         string    `json:"fileName"`
	MimeType         string    `json:"mimeType"`
	SizeBytes        int64     `json:"sizeBytes"`
	Text             *string   `json:"text,omitempty"`
	CreatedBy        string    `json:"createdBy"`
	CreatedAt        time.Time `json:"createdAt"`
}

func toResponse(doc Document) DocumentResponse {
	return DocumentResponse{
		DocumentID:       doc.ID,
		DocumentableType: doc.DocumentableType,
		DocumentableID:   doc.DocumentableID,
		FileName:         doc.File.OriginalName,
		MimeType:         doc.File.MimeType,
		SizeBytes:        doc.File.SizeBytes,
		Text:             doc.Text,
		CreatedBy:        doc.CreatedBy,
		CreatedAt:        doc.CreatedAt,
	}
}

func toResponses(docs []Document) []DocumentResponse {
	out := make([]DocumentResponse, 0, len(docs))
	for _, doc := range docs {
		out = append(out, toResponse(doc))
	}
	return out
}
