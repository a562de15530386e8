package importer

import (
	"github.com/dukelaw/repometrics/internal/article"
)

// Reconcile merges an editor row, and the article's metadata record when
// meta is non-nil, into a's scalar fields. It performs no I/O.
//
// Editor values always win. Metadata only fills volume and issue when the
// editor report has no such column, and supplies pages. Faculty items take
// venue and source full-text URL from metadata unconditionally; every other
// context takes the venue from its fixed display name.
func Reconcile(a *article.Article, c article.Context, row EditorRow, meta *Metadata, pdfBase string) {
	if row.Has(colTitle) {
		a.Title = row.Trimmed(colTitle)
	}
	if row.Has(colURL) {
		a.URL = row.Trimmed(colURL)
	}
	if manuscript := row.Trimmed(colManuscript); manuscript != "" {
		a.PDFURL = PDFURL(pdfBase, manuscript, c.Key)
	}

	a.SubmissionDate = row.Time(colSubmissionDate)
	// When a report carries both date columns, "Date posted" wins.
	if v, _, ok := row.FirstPresent(colDatePosted, colDatePublished); ok {
		a.Date, _ = v.Time()
	}

	if typ, ok := row.Lookup(colSubmissionType); ok {
		a.DocumentType = typ
	} else {
		a.DocumentType = DefaultDocumentType
	}
	a.LastEvent = row.Text(colLastEvent)
	a.LastEventDate = row.Time(colLastEventDate)
	a.Status = row.Text(colStatus)

	a.Volume = preferEditor(row, colVolume, meta, metaVolume, a.Volume)
	a.Issue = preferEditor(row, colIssue, meta, metaIssue, a.Issue)
	if meta != nil {
		if v, ok := meta.Lookup(metaFirstPage); ok {
			a.FirstPage = v
		}
		if v, ok := meta.Lookup(metaLastPage); ok {
			a.LastPage = v
		}
	}

	if c.IsFaculty() {
		a.Publication, a.SourceFulltextURL = "", ""
		if meta != nil {
			a.Publication = meta.Trimmed(metaSourcePublication)
			a.SourceFulltextURL = meta.Trimmed(metaSourceFulltextURL)
		}
		return
	}
	a.Publication = c.Publication
	a.SourceFulltextURL = ""
}

// preferEditor returns the editor column if the report has it, else the
// metadata column if present, else current.
func preferEditor(row EditorRow, editorKey string, meta *Metadata, metaKey, current string) string {
	if v, ok := row.Lookup(editorKey); ok {
		return v
	}
	if meta != nil {
		if v, ok := meta.Lookup(metaKey); ok {
			return v
		}
	}
	return current
}
