package documents

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrOwnerNotFound = errors.New("owner not found")
	ErrInvalidInput  = errors.New("invalid input")
	ErrForbidden     = errors.New("forbidden")
)

// DuplicateError reports uploaded filenames that already exist among an
// owner's documents. Names keep the encounter order of the upload batch.
type DuplicateError struct {
	Names []string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate file names: %s", strings.Join(e.Names, ", "))
}
