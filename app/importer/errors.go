package importer

import (
	"errors"
	"fmt"
)

var ErrNoImporter = errors.New("no importer identity")

// ExtractionError means an item lacks a field required to build an article.
type ExtractionError struct {
	Field string
	Title string
}

func (e *ExtractionError) Error() string {
	if e.Title != "" {
		return fmt.Sprintf("item %q has no %s", e.Title, e.Field)
	}
	return fmt.Sprintf("item has no %s", e.Field)
}

// PersistenceError wraps a failure to store an article. Uniqueness
// conflicts unwrap to database.ErrDuplicateArticle.
type PersistenceError struct {
	SourceURL string
	Err       error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to store article %s: %v", e.SourceURL, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
