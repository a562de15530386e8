// Package importer loads repository spreadsheet reports into storage.
//
// The editor pass walks one context's editor report, pairs each row with its
// metadata record by URL, and upserts the article keyed by its stable
// identifier. The downloads pass matches rows by URL and replaces each
// article's monthly download counts. Every row commits in its own
// transaction; a failed row is logged and skipped.
package importer

import (
	"context"
	"errors"
	"fmt"

	"github.com/dukelaw/repometrics/internal/article"
	"github.com/dukelaw/repometrics/internal/fetch"
	"github.com/dukelaw/repometrics/internal/logger"
	"github.com/dukelaw/repometrics/internal/sheet"
	"github.com/dukelaw/repometrics/internal/storage"
)

// ProgressEvery is how many rows pass between progress log lines.
const ProgressEvery = 100

// ErrMissingKey indicates a row without the column value that identifies it.
var ErrMissingKey = errors.New("row has no key value")

// Options configures identifiers and report layouts.
type Options struct {
	IdentifierPrefix string
	PDFBase          string
	Downloads        sheet.Options // Layout of the downloads report
}

// DefaultOptions returns the repository's identifier scheme and the usual
// downloads layout (labels on the second row, data from the third).
func DefaultOptions() Options {
	return Options{
		IdentifierPrefix: article.DefaultIdentifierPrefix,
		PDFBase:          "http://scholarship.law.duke.edu/cgi/viewcontent.cgi",
		Downloads:        sheet.Options{SheetIndex: 0, HeaderRow: 1, FirstDataRow: 2},
	}
}

// Stats counts row outcomes for one pass.
type Stats struct {
	Rows       int `json:"rows"`
	Created    int `json:"created"`
	Updated    int `json:"updated"`
	Missing    int `json:"missing"`    // No stored article matched
	Duplicates int `json:"duplicates"` // Key matched several stored articles
	Failed     int `json:"failed"`     // Any other row error
}

// Add accumulates o into s.
func (s *Stats) Add(o Stats) {
	s.Rows += o.Rows
	s.Created += o.Created
	s.Updated += o.Updated
	s.Missing += o.Missing
	s.Duplicates += o.Duplicates
	s.Failed += o.Failed
}

func (s *Stats) countError(err error) {
	switch {
	case errors.Is(err, ErrLookupMiss):
		s.Missing++
	case errors.Is(err, ErrDuplicateIdentifier):
		s.Duplicates++
	default:
		s.Failed++
	}
}

// Importer runs import passes against one store.
type Importer struct {
	store   *storage.Store
	fetcher Fetcher
	log     *logger.Logger
	opts    Options
}

// New creates an importer. The store must already be migrated.
func New(store *storage.Store, fetcher Fetcher, log *logger.Logger, opts Options) *Importer {
	if log == nil {
		log = logger.NewNop()
	}
	return &Importer{store: store, fetcher: fetcher, log: log, opts: opts}
}

// ImportContext runs the editor pass for one context. An error means the
// editor report itself could not be fetched or decoded; row failures are
// only counted.
func (im *Importer) ImportContext(ctx context.Context, server, contextKey string) (Stats, error) {
	var stats Stats
	c := article.LookupContext(contextKey)
	log := im.log.With("context", contextKey)
	if c.Kind == article.KindUnknown {
		log.Warn("unknown context; publication will be unset")
	}

	meta := BuildMetadataIndex(ctx, im.fetcher, server, contextKey, log)

	source, err := fetch.ReportURL(server, fetch.EditorReport(contextKey))
	if err != nil {
		return stats, err
	}
	log.Info("opening report", "url", source)
	data, err := im.fetcher.Fetch(ctx, source)
	if err != nil {
		return stats, fmt.Errorf("fetching editor report: %w", err)
	}
	r, err := sheet.Open(data, sheet.DefaultOptions())
	if err != nil {
		return stats, fmt.Errorf("decoding editor report %s: %w", source, err)
	}
	defer r.Close()

	for rec := range r.Records() {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		stats.Rows++
		row := EditorRow{Row{rec}}

		created, err := im.importEditorRow(ctx, c, row, meta)
		switch {
		case err != nil:
			stats.countError(err)
			log.Warn("skipping row", "row", rec.Row+1, "manuscript", row.Text(colManuscript), "error", err)
		case created:
			stats.Created++
		default:
			stats.Updated++
		}

		if stats.Rows%ProgressEvery == 0 {
			log.Info("processing row", "rows", stats.Rows, "url", row.Text(colURL))
		}
	}

	log.Info("context imported",
		"rows", stats.Rows, "created", stats.Created, "updated", stats.Updated,
		"missing", stats.Missing, "duplicates", stats.Duplicates, "failed", stats.Failed)
	return stats, nil
}

// ImportContexts runs ImportContext for each key. A context whose editor
// report is unavailable is logged and skipped. Only cancellation stops the run.
func (im *Importer) ImportContexts(ctx context.Context, server string, contextKeys []string) (Stats, []string, error) {
	var total Stats
	var skipped []string
	for _, key := range contextKeys {
		stats, err := im.ImportContext(ctx, server, key)
		total.Add(stats)
		if err != nil {
			if ctx.Err() != nil {
				return total, skipped, ctx.Err()
			}
			im.log.Warn("skipping context", "context", key, "error", err)
			skipped = append(skipped, key)
		}
	}
	return total, skipped, nil
}

func (im *Importer) importEditorRow(ctx context.Context, c article.Context, row EditorRow, index *MetadataIndex) (bool, error) {
	manuscript := row.Trimmed(colManuscript)
	if manuscript == "" {
		return false, fmt.Errorf("%w: %s", ErrMissingKey, colManuscript)
	}
	identifier := article.NewIdentifier(im.opts.IdentifierPrefix, c.Key, manuscript)

	var meta *Metadata
	if m, ok := index.Lookup(row.Trimmed(colURL)); ok {
		meta = &m
	}

	var created bool
	err := im.store.InTx(ctx, func(tx *storage.Tx) error {
		res, err := ResolveArticle(ctx, tx, identifier)
		if err != nil {
			return err
		}
		created = res.Created
		a := res.Article

		Reconcile(a, c, row, meta, im.opts.PDFBase)
		if err := tx.SaveArticle(ctx, a); err != nil {
			return err
		}
		if err := tx.SetCreators(ctx, a.ID, ParseCreators(row)); err != nil {
			return err
		}
		if err := tx.SetSubjects(ctx, a.ID, ParseSubjects(row)); err != nil {
			return err
		}
		if meta != nil {
			if err := tx.SetDisciplines(ctx, a.ID, ParseDisciplines(*meta)); err != nil {
				return err
			}
		}
		return nil
	})
	return created, err
}
