// Package article defines the core domain types for repository articles.
package article

import (
	"strings"
	"time"
)

// Article represents one publication in the institutional repository.
type Article struct {
	// Identity
	ID         int64  `json:"id"`             // Storage row ID (0 until saved)
	Identifier string `json:"oai_identifier"` // Stable external identifier (re-import key)

	// Locations
	URL               string `json:"article_url"`
	PDFURL            string `json:"pdf_url"`
	SourceFulltextURL string `json:"source_fulltext_url,omitempty"` // Faculty items only

	// Metadata
	Title          string    `json:"title"`
	SubmissionDate time.Time `json:"submission_date"`
	Date           time.Time `json:"date"` // Publication date
	DocumentType   string    `json:"document_type"`
	LastEvent      string    `json:"last_event"`
	LastEventDate  time.Time `json:"last_event_date"`
	Status         string    `json:"status"`
	Publication    string    `json:"publication,omitempty"` // Venue display name

	// Citation
	Volume    string `json:"volume,omitempty"`
	Issue     string `json:"issue,omitempty"`
	FirstPage string `json:"fpage,omitempty"`
	LastPage  string `json:"lpage,omitempty"`

	// Owned collections, ordered by position (downloads by month)
	Creators    []Creator  `json:"creators,omitempty"`
	Subjects    []Term     `json:"subjects,omitempty"`
	Disciplines []Term     `json:"disciplines,omitempty"`
	Downloads   []Download `json:"downloads,omitempty"`
}

// Creator is an author of an article at a 1-based position.
type Creator struct {
	Position    int    `json:"position"`
	First       string `json:"first"`
	Middle      string `json:"middle,omitempty"`
	Last        string `json:"last"`
	Suffix      string `json:"suffix,omitempty"`
	Institution string `json:"institution,omitempty"`
	Email       string `json:"email,omitempty"` // Empty means unset
}

// Term is a subject or discipline at a 1-based position.
type Term struct {
	Position int    `json:"position"`
	Term     string `json:"term"`
}

// Download is the download count for one calendar month.
type Download struct {
	Month time.Time `json:"download_date"` // Always the first day of the month, UTC
	Count int       `json:"download_count"`
}

// MonthOf normalizes t to the first day of its month in UTC.
func MonthOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// Name formats the creator as "Last, First".
func (c Creator) Name() string {
	var parts []string
	if c.Last != "" {
		parts = append(parts, c.Last)
	}
	if c.First != "" {
		parts = append(parts, c.First)
	}
	return strings.Join(parts, ", ")
}

// FullName formats the creator as "First Middle Last Suffix", skipping blanks.
func (c Creator) FullName() string {
	return strings.Join(strings.Fields(strings.Join([]string{c.First, c.Middle, c.Last, c.Suffix}, " ")), " ")
}

// Byline joins creator names in position order.
//
//   - one creator    → "A"
//   - two creators   → "A and B"
//   - three or more  → "A, B and C"
func (a *Article) Byline() string {
	names := make([]string, 0, len(a.Creators))
	for _, c := range a.Creators {
		names = append(names, c.FullName())
	}
	switch len(names) {
	case 0:
		return ""
	case 1:
		return names[0]
	case 2:
		return names[0] + " and " + names[1]
	default:
		return strings.Join(names[:len(names)-1], ", ") + " and " + names[len(names)-1]
	}
}

// HasEmail reports whether any creator has an email address.
// Reports use this as the "has faculty" flag.
func (a *Article) HasEmail() bool {
	for _, c := range a.Creators {
		if c.Email != "" {
			return true
		}
	}
	return false
}

// Context returns the publication context encoded in the identifier.
func (a *Article) Context() string {
	return ContextFromIdentifier(a.Identifier)
}
