package importer

import (
	"strings"
	"time"

	"github.com/dukelaw/repometrics/internal/sheet"
)

// Editor report columns.
const (
	colManuscript     = "Manuscript#"
	colURL            = "URL"
	colTitle          = "Title"
	colSubmissionDate = "Submission date"
	colDatePosted     = "Date posted"
	colDatePublished  = "Date published"
	colSubmissionType = "Submission type"
	colLastEvent      = "Last event"
	colLastEventDate  = "Date of last event"
	colStatus         = "Status"
	colKeywords       = "Keywords"
	colVolume         = "Volume"
	colIssue          = "Issue"
)

// Metadata report columns.
const (
	metaURL               = "calc_url"
	metaVolume            = "volnum"
	metaIssue             = "issnum"
	metaFirstPage         = "fpage"
	metaLastPage          = "lpage"
	metaDisciplines       = "disciplines"
	metaSourcePublication = "source_publication"
	metaSourceFulltextURL = "source_fulltext_url"
)

// DefaultDocumentType is used when the editor report has no submission type column.
const DefaultDocumentType = "Other"

// Row gives optional-field access to a decoded spreadsheet record.
// Presence means the column exists in the report, whatever the cell holds.
type Row struct {
	sheet.Record
}

// EditorRow is one row of an editor report.
type EditorRow struct{ Row }

// Metadata is one row of a metadata report.
type Metadata struct{ Row }

// Has reports whether the column exists in this row's report.
func (r Row) Has(key string) bool {
	return r.Record.Has(key)
}

// Text returns the cell rendered as text, or "" when the column is absent.
func (r Row) Text(key string) string {
	v, ok := r.Get(key)
	if !ok {
		return ""
	}
	return v.String()
}

// Lookup returns the cell text and whether the column exists.
func (r Row) Lookup(key string) (string, bool) {
	v, ok := r.Get(key)
	if !ok {
		return "", false
	}
	return v.String(), true
}

// FirstPresent returns the value of the first key whose column exists.
func (r Row) FirstPresent(keys ...string) (sheet.Value, string, bool) {
	for _, k := range keys {
		if v, ok := r.Get(k); ok {
			return v, k, true
		}
	}
	return sheet.Value{}, "", false
}

// Time returns the cell as a date. Blank or unparseable cells yield the zero time.
func (r Row) Time(key string) time.Time {
	v, ok := r.Get(key)
	if !ok {
		return time.Time{}
	}
	t, _ := v.Time()
	return t
}

// Trimmed returns the cell text with surrounding whitespace removed.
func (r Row) Trimmed(key string) string {
	return strings.TrimSpace(r.Text(key))
}
