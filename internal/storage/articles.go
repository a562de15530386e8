package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dukelaw/repometrics/internal/article"
)

// dateLayout is how dates are bound as parameters and stored in SQLite.
const dateLayout = "2006-01-02"

const selectArticleFields = `id, oai_identifier, title,
	submission_date, publication_date, document_type, article_url,
	last_event, last_event_date, status, pdf_url,
	publication, source_fulltext_url,
	volume, issue, fpage, lpage`

// articleRow mirrors the articles table; nullable columns scan into Null types.
type articleRow struct {
	ID                int64          `db:"id"`
	Identifier        string         `db:"oai_identifier"`
	Title             sql.NullString `db:"title"`
	SubmissionDate    nullDate       `db:"submission_date"`
	PublicationDate   nullDate       `db:"publication_date"`
	DocumentType      sql.NullString `db:"document_type"`
	URL               sql.NullString `db:"article_url"`
	LastEvent         sql.NullString `db:"last_event"`
	LastEventDate     nullDate       `db:"last_event_date"`
	Status            sql.NullString `db:"status"`
	PDFURL            sql.NullString `db:"pdf_url"`
	Publication       sql.NullString `db:"publication"`
	SourceFulltextURL sql.NullString `db:"source_fulltext_url"`
	Volume            sql.NullString `db:"volume"`
	Issue             sql.NullString `db:"issue"`
	FirstPage         sql.NullString `db:"fpage"`
	LastPage          sql.NullString `db:"lpage"`
}

func (r articleRow) toArticle() *article.Article {
	return &article.Article{
		ID:                r.ID,
		Identifier:        r.Identifier,
		URL:               r.URL.String,
		PDFURL:            r.PDFURL.String,
		SourceFulltextURL: r.SourceFulltextURL.String,
		Title:             r.Title.String,
		SubmissionDate:    r.SubmissionDate.Time,
		Date:              r.PublicationDate.Time,
		DocumentType:      r.DocumentType.String,
		LastEvent:         r.LastEvent.String,
		LastEventDate:     r.LastEventDate.Time,
		Status:            r.Status.String,
		Publication:       r.Publication.String,
		Volume:            r.Volume.String,
		Issue:             r.Issue.String,
		FirstPage:         r.FirstPage.String,
		LastPage:          r.LastPage.String,
	}
}

// FindByIdentifier returns every article with the given stable identifier.
// Children are not loaded.
func (t *Tx) FindByIdentifier(ctx context.Context, identifier string) ([]*article.Article, error) {
	return t.findBy(ctx, "oai_identifier", identifier)
}

// FindByURL returns every article whose canonical URL equals url.
// Children are not loaded.
func (t *Tx) FindByURL(ctx context.Context, url string) ([]*article.Article, error) {
	return t.findBy(ctx, "article_url", url)
}

func (t *Tx) findBy(ctx context.Context, column, value string) ([]*article.Article, error) {
	var rows []articleRow
	query := `SELECT ` + selectArticleFields + ` FROM articles WHERE ` + column + ` = ? ORDER BY id`
	if err := t.tx.SelectContext(ctx, &rows, t.tx.Rebind(query), value); err != nil {
		return nil, fmt.Errorf("finding article by %s: %w", column, err)
	}
	articles := make([]*article.Article, len(rows))
	for i, r := range rows {
		articles[i] = r.toArticle()
	}
	return articles, nil
}

// SaveArticle inserts or updates the article's scalar fields, keyed by
// identifier, and sets a.ID. Collections are written separately.
func (t *Tx) SaveArticle(ctx context.Context, a *article.Article) error {
	if a.Identifier == "" {
		return fmt.Errorf("saving article: empty identifier")
	}

	query := `
		INSERT INTO articles (
			oai_identifier, title,
			submission_date, publication_date, document_type, article_url,
			last_event, last_event_date, status, pdf_url,
			publication, source_fulltext_url,
			volume, issue, fpage, lpage
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (oai_identifier) DO UPDATE SET
			title = excluded.title,
			submission_date = excluded.submission_date,
			publication_date = excluded.publication_date,
			document_type = excluded.document_type,
			article_url = excluded.article_url,
			last_event = excluded.last_event,
			last_event_date = excluded.last_event_date,
			status = excluded.status,
			pdf_url = excluded.pdf_url,
			publication = excluded.publication,
			source_fulltext_url = excluded.source_fulltext_url,
			volume = excluded.volume,
			issue = excluded.issue,
			fpage = excluded.fpage,
			lpage = excluded.lpage
		RETURNING id`

	var id int64
	err := t.tx.QueryRowxContext(ctx, t.tx.Rebind(query),
		a.Identifier, nullableStringValue(a.Title),
		dateValue(a.SubmissionDate), dateValue(a.Date),
		nullableStringValue(a.DocumentType), nullableStringValue(a.URL),
		nullableStringValue(a.LastEvent), dateValue(a.LastEventDate),
		nullableStringValue(a.Status), nullableStringValue(a.PDFURL),
		nullableStringValue(a.Publication), nullableStringValue(a.SourceFulltextURL),
		nullableStringValue(a.Volume), nullableStringValue(a.Issue),
		nullableStringValue(a.FirstPage), nullableStringValue(a.LastPage),
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("saving article %s: %w", a.Identifier, err)
	}
	a.ID = id
	return nil
}

// nullableStringValue converts a string to sql.NullString, treating empty as NULL.
func nullableStringValue(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// dateValue binds a date as "YYYY-MM-DD", or NULL for the zero time.
func dateValue(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.Format(dateLayout)
}

// nullDate scans DATE columns from either driver: pgx yields time.Time,
// SQLite yields the stored text.
type nullDate struct {
	Time time.Time
}

func (d *nullDate) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		d.Time = time.Time{}
		return nil
	case time.Time:
		d.Time = time.Date(v.Year(), v.Month(), v.Day(), 0, 0, 0, 0, time.UTC)
		return nil
	case string:
		return d.parse(v)
	case []byte:
		return d.parse(string(v))
	default:
		return fmt.Errorf("cannot scan %T into date", src)
	}
}

func (d *nullDate) parse(s string) error {
	if s == "" {
		d.Time = time.Time{}
		return nil
	}
	if len(s) > len(dateLayout) {
		s = s[:len(dateLayout)]
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return fmt.Errorf("parsing stored date %q: %w", s, err)
	}
	d.Time = t
	return nil
}
