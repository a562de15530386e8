package importer

import (
	"errors"
	"fmt"
)

var (
	// ErrLookupMiss indicates no stored article matched a row's key.
	ErrLookupMiss = errors.New("no stored article")

	// ErrDuplicateIdentifier indicates a key matched more than one stored article.
	ErrDuplicateIdentifier = errors.New("duplicate stored articles")
)

// LookupMissError reports a row whose key matched nothing. The row is skipped.
type LookupMissError struct {
	Field string // Column the key came from, e.g. "URL"
	Key   string
}

func (e *LookupMissError) Error() string {
	return fmt.Sprintf("no stored article with %s %q", e.Field, e.Key)
}

func (e *LookupMissError) Unwrap() error { return ErrLookupMiss }

// DuplicateIdentifierError reports a key that matched several stored
// articles. The row is skipped and none of the matches is modified.
type DuplicateIdentifierError struct {
	Field string // "oai_identifier" or "article_url"
	Key   string
	Count int
}

func (e *DuplicateIdentifierError) Error() string {
	return fmt.Sprintf("%d stored articles share %s %q", e.Count, e.Field, e.Key)
}

func (e *DuplicateIdentifierError) Unwrap() error { return ErrDuplicateIdentifier }

// IsRowError reports whether err is scoped to a single row and should be
// counted and skipped rather than aborting the run.
func IsRowError(err error) bool {
	return errors.Is(err, ErrLookupMiss) || errors.Is(err, ErrDuplicateIdentifier)
}
