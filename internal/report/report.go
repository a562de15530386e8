// Package report writes CSV projections of stored articles for pivot-table analysis.
package report

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/dukelaw/repometrics/internal/article"
	"github.com/dukelaw/repometrics/internal/logger"
	"github.com/dukelaw/repometrics/internal/storage"
)

// Kind names a report.
type Kind string

const (
	AuthorMonth      Kind = "author-month"
	ArticlesByAuthor Kind = "articles-by-author"
	ArticlesMonth    Kind = "articles-month"
	ArticleSummary   Kind = "article-summary"
	Faculty          Kind = "faculty"
)

// Kinds lists every report kind.
func Kinds() []Kind {
	return []Kind{AuthorMonth, ArticlesByAuthor, ArticlesMonth, ArticleSummary, Faculty}
}

// ParseKind validates a report name.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds() {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown report %q (valid: %v)", s, Kinds())
}

// ProgressEvery is how many rows pass between progress log lines.
const ProgressEvery = 1000

// Source is the read side of the store.
type Source interface {
	EachArticle(ctx context.Context, filter storage.Filter, fn func(*article.Article) error) error
	DownloadCount(ctx context.Context, pdfURL string, month time.Time) (int, bool, error)
}

// Generate writes the report of the given kind to w and returns the number
// of data rows written.
func Generate(ctx context.Context, kind Kind, src Source, w io.Writer, log *logger.Logger) (int, error) {
	if log == nil {
		log = logger.NewNop()
	}
	var gen func(context.Context, Source, *writer) error
	var header []string
	switch kind {
	case AuthorMonth:
		gen, header = authorMonth, authorMonthHeader
	case ArticlesByAuthor:
		gen, header = articlesByAuthor, articlesByAuthorHeader
	case ArticlesMonth:
		gen, header = articlesMonth, articleMonthHeader
	case ArticleSummary:
		gen, header = articleSummary, articleSummaryHeader
	case Faculty:
		gen, header = faculty, articleMonthHeader
	default:
		return 0, fmt.Errorf("unknown report %q", kind)
	}

	out := &writer{csv: csv.NewWriter(w), log: log.With("report", string(kind))}
	if err := out.csv.Write(header); err != nil {
		return 0, fmt.Errorf("writing header: %w", err)
	}
	if err := gen(ctx, src, out); err != nil {
		return out.rows, err
	}
	out.csv.Flush()
	if err := out.csv.Error(); err != nil {
		return out.rows, fmt.Errorf("writing %s report: %w", kind, err)
	}
	out.log.Info("report written", "rows", out.rows)
	return out.rows, nil
}

// writer counts rows and logs progress.
type writer struct {
	csv  *csv.Writer
	log  *logger.Logger
	rows int
}

func (w *writer) write(record []string) error {
	if err := w.csv.Write(record); err != nil {
		return fmt.Errorf("writing row %d: %w", w.rows+1, err)
	}
	w.rows++
	if w.rows%ProgressEvery == 0 {
		w.log.Info("writing row", "rows", w.rows)
	}
	return nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

func formatYear(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return strconv.Itoa(t.Year())
}

func articleID(a *article.Article) string {
	return strconv.FormatInt(a.ID, 10)
}

var authorMonthHeader = []string{
	"email", "creator", "article_id", "title", "publication",
	"publication_date", "deposit_date", "document_type",
	"article_url", "download_date", "download_count",
}

// authorMonth emits one row per emailed creator per month with downloads.
func authorMonth(ctx context.Context, src Source, w *writer) error {
	return src.EachArticle(ctx, storage.Filter{}, func(a *article.Article) error {
		for _, c := range a.Creators {
			if c.Email == "" {
				continue
			}
			for _, d := range a.Downloads {
				if d.Count <= 0 {
					continue
				}
				err := w.write([]string{
					c.Email, c.Name(), articleID(a), strings.TrimSpace(a.Title), a.Publication,
					formatDate(a.Date), formatDate(a.SubmissionDate), a.DocumentType,
					a.URL, formatDate(d.Month), strconv.Itoa(d.Count),
				})
				if err != nil {
					return err
				}
			}
		}
		return nil
	})
}

var articlesByAuthorHeader = []string{
	"email", "creator", "article_id", "title", "publication",
	"publication_date", "deposit_date", "document_type",
	"article_url", "byline", "constant",
}

// articlesByAuthor emits one row per creator. The constant column is 1 so
// pivot tables can count articles per author.
func articlesByAuthor(ctx context.Context, src Source, w *writer) error {
	return src.EachArticle(ctx, storage.Filter{}, func(a *article.Article) error {
		byline := a.Byline()
		for _, c := range a.Creators {
			err := w.write([]string{
				c.Email, c.Name(), articleID(a), strings.TrimSpace(a.Title), strings.TrimSpace(a.Publication),
				formatDate(a.Date), formatDate(a.SubmissionDate), a.DocumentType,
				a.URL, byline, "1",
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
}

var articleSummaryHeader = []string{
	"article_id", "title", "byline",
	"publication", "publication_date", "publication_year",
	"deposit_date", "document_type", "context",
	"article_url", "has_faculty",
}

var articleMonthHeader = []string{
	"article_id", "download_date", "title", "byline",
	"publication", "publication_date", "publication_year",
	"deposit_date", "document_type", "context",
	"article_url", "has_faculty", "download_count",
}

// summaryFields returns the article_summary columns for a.
func summaryFields(a *article.Article) []string {
	return []string{
		articleID(a), strings.TrimSpace(a.Title), a.Byline(),
		strings.TrimSpace(a.Publication), formatDate(a.Date), formatYear(a.Date),
		formatDate(a.SubmissionDate), a.DocumentType, a.Context(),
		a.URL, strconv.FormatBool(a.HasEmail()),
	}
}

// monthFields lays out an article_month row from the summary columns.
func monthFields(summary []string, d article.Download, count int) []string {
	row := make([]string, 0, len(articleMonthHeader))
	row = append(row, summary[0], formatDate(d.Month))
	row = append(row, summary[1:]...)
	return append(row, strconv.Itoa(count))
}

func articleSummary(ctx context.Context, src Source, w *writer) error {
	return src.EachArticle(ctx, storage.Filter{}, func(a *article.Article) error {
		return w.write(summaryFields(a))
	})
}

func articlesMonth(ctx context.Context, src Source, w *writer) error {
	return src.EachArticle(ctx, storage.Filter{}, func(a *article.Article) error {
		summary := summaryFields(a)
		for _, d := range a.Downloads {
			if err := w.write(monthFields(summary, d, d.Count)); err != nil {
				return err
			}
		}
		return nil
	})
}

// faculty emits faculty items by month, adding the downloads of the journal
// copy named by their source full-text URL. It then emits non-faculty
// articles with an emailed creator, except journal copies already counted.
func faculty(ctx context.Context, src Source, w *writer) error {
	seen := make(map[string]bool)
	emit := func(a *article.Article) error {
		summary := summaryFields(a)
		for _, d := range a.Downloads {
			count := d.Count
			if a.SourceFulltextURL != "" {
				seen[a.SourceFulltextURL] = true
				n, ok, err := src.DownloadCount(ctx, a.SourceFulltextURL, d.Month)
				if err != nil {
					w.log.Warn("journal copy lookup failed", "article_url", a.URL, "error", err)
				} else if ok {
					count += n
				}
			}
			if err := w.write(monthFields(summary, d, count)); err != nil {
				return err
			}
		}
		return nil
	}

	var articles int
	err := src.EachArticle(ctx, storage.Filter{Context: article.FacultyScholarship}, func(a *article.Article) error {
		articles++
		if articles%100 == 0 {
			w.log.Info("starting article", "n", articles, "article_url", a.URL)
		}
		return emit(a)
	})
	if err != nil {
		return err
	}

	w.log.Info("starting non-faculty articles")
	return src.EachArticle(ctx, storage.Filter{ExcludeContext: article.FacultyScholarship}, func(a *article.Article) error {
		if !hasAddress(a) {
			return nil
		}
		if seen[a.PDFURL] {
			w.log.Debug("skipping journal copy", "oai_identifier", a.Identifier)
			return nil
		}
		return emit(a)
	})
}

// hasAddress reports whether any creator has an email containing "@".
func hasAddress(a *article.Article) bool {
	for _, c := range a.Creators {
		if strings.Contains(c.Email, "@") {
			return true
		}
	}
	return false
}
