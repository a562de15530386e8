package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dukelaw/repometrics/internal/article"
	"github.com/jmoiron/sqlx"
)

// pageSize is how many articles EachArticle loads per round trip.
const pageSize = 500

// Filter restricts EachArticle by identifier context.
type Filter struct {
	Context        string // Only articles from this context
	ExcludeContext string // Skip articles from this context
}

// likeEscaper quotes LIKE metacharacters; context keys contain "_".
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func contextPattern(key string) string {
	return "%:" + likeEscaper.Replace(key) + "-%"
}

func (f Filter) where() (string, []any) {
	clause, args := "", []any{}
	if f.Context != "" {
		clause += ` AND oai_identifier LIKE ? ESCAPE '\'`
		args = append(args, contextPattern(f.Context))
	}
	if f.ExcludeContext != "" {
		clause += ` AND oai_identifier NOT LIKE ? ESCAPE '\'`
		args = append(args, contextPattern(f.ExcludeContext))
	}
	return clause, args
}

// EachArticle calls fn for every article matching filter in ID order, with
// all collections loaded. Iteration stops at the first error from fn.
func (s *Store) EachArticle(ctx context.Context, filter Filter, fn func(*article.Article) error) error {
	where, filterArgs := filter.where()
	query := s.db.Rebind(`SELECT ` + selectArticleFields + ` FROM articles WHERE id > ?` + where + ` ORDER BY id LIMIT ?`)

	var after int64
	for {
		var rows []articleRow
		args := append(append([]any{after}, filterArgs...), pageSize)
		if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
			return fmt.Errorf("listing articles: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}

		page := make([]*article.Article, len(rows))
		for i, r := range rows {
			page[i] = r.toArticle()
		}
		if err := s.loadChildren(ctx, page); err != nil {
			return err
		}
		for _, a := range page {
			if err := fn(a); err != nil {
				return err
			}
		}

		if len(rows) < pageSize {
			return nil
		}
		after = rows[len(rows)-1].ID
	}
}

// GetArticle returns the article with the given identifier and its
// collections, or nil when none exists.
func (s *Store) GetArticle(ctx context.Context, identifier string) (*article.Article, error) {
	var row articleRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind(`SELECT `+selectArticleFields+` FROM articles WHERE oai_identifier = ?`), identifier)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting article %s: %w", identifier, err)
	}
	a := row.toArticle()
	if err := s.loadChildren(ctx, []*article.Article{a}); err != nil {
		return nil, err
	}
	return a, nil
}

type creatorRow struct {
	ArticleID   int64          `db:"article_id"`
	Position    int            `db:"position"`
	Last        sql.NullString `db:"last"`
	First       sql.NullString `db:"first"`
	Middle      sql.NullString `db:"middle"`
	Suffix      sql.NullString `db:"suffix"`
	Institution sql.NullString `db:"institution"`
	Email       sql.NullString `db:"email"`
}

type termRow struct {
	ArticleID int64          `db:"article_id"`
	Position  int            `db:"position"`
	Term      sql.NullString `db:"term"`
}

type downloadRow struct {
	ArticleID int64         `db:"article_id"`
	Month     nullDate      `db:"download_date"`
	Count     sql.NullInt64 `db:"download_count"`
}

// loadChildren fills the collections of a page of articles with one query per table.
func (s *Store) loadChildren(ctx context.Context, page []*article.Article) error {
	byID := make(map[int64]*article.Article, len(page))
	ids := make([]int64, len(page))
	for i, a := range page {
		byID[a.ID] = a
		ids[i] = a.ID
	}

	var creators []creatorRow
	if err := s.selectIn(ctx, &creators, `SELECT article_id, position, last, first, middle, suffix, institution, email
		FROM creators WHERE article_id IN (?) ORDER BY article_id, position`, ids); err != nil {
		return fmt.Errorf("loading creators: %w", err)
	}
	for _, c := range creators {
		a := byID[c.ArticleID]
		a.Creators = append(a.Creators, article.Creator{
			Position:    c.Position,
			First:       c.First.String,
			Middle:      c.Middle.String,
			Last:        c.Last.String,
			Suffix:      c.Suffix.String,
			Institution: c.Institution.String,
			Email:       c.Email.String,
		})
	}

	for _, tc := range []struct {
		table  string
		target func(*article.Article) *[]article.Term
	}{
		{"subjects", func(a *article.Article) *[]article.Term { return &a.Subjects }},
		{"disciplines", func(a *article.Article) *[]article.Term { return &a.Disciplines }},
	} {
		var terms []termRow
		if err := s.selectIn(ctx, &terms, `SELECT article_id, position, term FROM `+tc.table+`
			WHERE article_id IN (?) ORDER BY article_id, position`, ids); err != nil {
			return fmt.Errorf("loading %s: %w", tc.table, err)
		}
		for _, t := range terms {
			dst := tc.target(byID[t.ArticleID])
			*dst = append(*dst, article.Term{Position: t.Position, Term: t.Term.String})
		}
	}

	var downloads []downloadRow
	if err := s.selectIn(ctx, &downloads, `SELECT article_id, download_date, download_count
		FROM downloads WHERE article_id IN (?) ORDER BY article_id, download_date`, ids); err != nil {
		return fmt.Errorf("loading downloads: %w", err)
	}
	for _, d := range downloads {
		a := byID[d.ArticleID]
		a.Downloads = append(a.Downloads, article.Download{Month: d.Month.Time, Count: int(d.Count.Int64)})
	}
	return nil
}

func (s *Store) selectIn(ctx context.Context, dest any, query string, ids []int64) error {
	q, args, err := sqlx.In(query, ids)
	if err != nil {
		return err
	}
	return s.db.SelectContext(ctx, dest, s.db.Rebind(q), args...)
}

// DownloadCount returns the count recorded for month against the article
// whose PDF URL is pdfURL. ok is false when no such row exists.
func (s *Store) DownloadCount(ctx context.Context, pdfURL string, month time.Time) (count int, ok bool, err error) {
	var n sql.NullInt64
	err = s.db.GetContext(ctx, &n, s.db.Rebind(`
		SELECT d.download_count
		FROM downloads d
		JOIN articles a ON a.id = d.article_id
		WHERE a.pdf_url = ? AND d.download_date = ?
		ORDER BY a.id
		LIMIT 1`), pdfURL, dateValue(article.MonthOf(month)))
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("looking up downloads for %s: %w", pdfURL, err)
	}
	return int(n.Int64), true, nil
}
