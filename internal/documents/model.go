package documents

import "time"

// Document represents one stored file attached to a polymorphic owner.
type Document struct {
	ID               string
	DocumentableType string
	DocumentableID   string
	Text             *string
	CreatedBy        string
	CreatedAt        time.Time
	File             File
}

// File is the metadata of the stored file owned by a document.
type File struct {
	OriginalName string
	MimeType     string
	StorageKey   string
	SizeBytes    int64
}

// Query filters the document listing. DocumentableType and
// DocumentableID are required; Search optionally matches the file's
// original name or the extracted text, case-insensitively.
type Query struct {
	DocumentableType string
	DocumentableID   string
	Search           string
}

// User is the caller identity evaluated by the access policy.
type User struct {
	ID   string
	Role string
}

// IsAdmin reports whether the user holds the administrator role.
func (u User) IsAdmin() bool {
	return u.Role == "admin"
}
