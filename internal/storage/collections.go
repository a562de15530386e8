package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/dukelaw/repometrics/internal/article"
)

// collection describes a child table owned by an article.
type collection struct {
	table   string
	columns []string // excluding article_id
}

var (
	creatorsTable    = collection{"creators", []string{"position", "last", "first", "middle", "suffix", "institution", "email"}}
	subjectsTable    = collection{"subjects", []string{"position", "term"}}
	disciplinesTable = collection{"disciplines", []string{"position", "term"}}
	downloadsTable   = collection{"downloads", []string{"download_date", "download_count"}}
)

// setCollection replaces every row the article owns in c with items.
// Delete and insert share the caller's transaction, so a failure leaves the
// previous collection intact.
func setCollection[T any](ctx context.Context, t *Tx, c collection, articleID int64, items []T, values func(T) []any) error {
	if articleID == 0 {
		return fmt.Errorf("replacing %s: article not saved", c.table)
	}

	if err := t.exec(ctx, `DELETE FROM `+c.table+` WHERE article_id = ?`, articleID); err != nil {
		return fmt.Errorf("clearing %s for article %d: %w", c.table, articleID, err)
	}
	if len(items) == 0 {
		return nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(c.columns)+1), ", ")
	query := `INSERT INTO ` + c.table + ` (article_id, ` + strings.Join(c.columns, ", ") + `) VALUES (` + placeholders + `)`
	stmt, err := t.tx.PreparexContext(ctx, t.tx.Rebind(query))
	if err != nil {
		return fmt.Errorf("preparing %s insert: %w", c.table, err)
	}
	defer stmt.Close()

	for _, item := range items {
		args := append([]any{articleID}, values(item)...)
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("inserting %s for article %d: %w", c.table, articleID, err)
		}
	}
	return nil
}

// SetCreators replaces the article's creators.
func (t *Tx) SetCreators(ctx context.Context, articleID int64, creators []article.Creator) error {
	return setCollection(ctx, t, creatorsTable, articleID, creators, func(c article.Creator) []any {
		return []any{
			c.Position,
			nullableStringValue(c.Last), nullableStringValue(c.First),
			nullableStringValue(c.Middle), nullableStringValue(c.Suffix),
			nullableStringValue(c.Institution), nullableStringValue(c.Email),
		}
	})
}

// SetSubjects replaces the article's subjects.
func (t *Tx) SetSubjects(ctx context.Context, articleID int64, subjects []article.Term) error {
	return setCollection(ctx, t, subjectsTable, articleID, subjects, termValues)
}

// SetDisciplines replaces the article's disciplines.
func (t *Tx) SetDisciplines(ctx context.Context, articleID int64, disciplines []article.Term) error {
	return setCollection(ctx, t, disciplinesTable, articleID, disciplines, termValues)
}

// SetDownloads replaces the article's monthly download counts.
func (t *Tx) SetDownloads(ctx context.Context, articleID int64, downloads []article.Download) error {
	return setCollection(ctx, t, downloadsTable, articleID, downloads, func(d article.Download) []any {
		return []any{dateValue(article.MonthOf(d.Month)), d.Count}
	})
}

func termValues(t article.Term) []any {
	return []any{t.Position, t.Term}
}
