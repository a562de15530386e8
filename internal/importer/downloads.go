package importer

import (
	"context"
	"fmt"
	"time"

	"github.com/dukelaw/repometrics/internal/article"
	"github.com/dukelaw/repometrics/internal/sheet"
	"github.com/dukelaw/repometrics/internal/storage"
)

// monthColumn is a downloads report column whose header decoded as a date.
type monthColumn struct {
	index int
	month time.Time
}

// monthColumns returns the date-labelled columns in sheet order.
func monthColumns(labels []sheet.Value) []monthColumn {
	var cols []monthColumn
	for i, l := range labels {
		if l.Kind != sheet.KindDate {
			continue
		}
		cols = append(cols, monthColumn{index: i, month: article.MonthOf(l.Date.Time())})
	}
	return cols
}

// ParseDownloads reads one count per month column. Blank cells count as
// zero. Two columns in the same month keep the later one.
func ParseDownloads(rec sheet.Record, cols []monthColumn) ([]article.Download, error) {
	downloads := make([]article.Download, 0, len(cols))
	seen := make(map[time.Time]int, len(cols))
	for _, col := range cols {
		if col.index >= len(rec.Cells) {
			continue
		}
		n, err := rec.Cells[col.index].Value.Int()
		if err != nil {
			return nil, fmt.Errorf("count for %s: %w", col.month.Format("2006-01"), err)
		}
		d := article.Download{Month: col.month, Count: n}
		if i, ok := seen[col.month]; ok {
			downloads[i] = d
			continue
		}
		seen[col.month] = len(downloads)
		downloads = append(downloads, d)
	}
	return downloads, nil
}

// ImportDownloads reads a monthly downloads report from source and replaces
// the download counts of every article it names. Rows are matched on the
// exact URL column. An error means the report could not be read at all.
func (im *Importer) ImportDownloads(ctx context.Context, source string) (Stats, error) {
	var stats Stats
	log := im.log.With("report", "downloads")

	log.Info("opening report", "url", source)
	data, err := im.fetcher.Fetch(ctx, source)
	if err != nil {
		return stats, fmt.Errorf("fetching downloads report: %w", err)
	}
	r, err := sheet.Open(data, im.opts.Downloads)
	if err != nil {
		return stats, fmt.Errorf("decoding downloads report %s: %w", source, err)
	}
	defer r.Close()

	cols := monthColumns(r.Labels())
	if len(cols) == 0 {
		log.Warn("no month columns in header row", "header_row", im.opts.Downloads.HeaderRow+1)
	}

	for rec := range r.Records() {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		stats.Rows++
		url := Row{rec}.Trimmed(colURL)

		if err := im.importDownloadRow(ctx, url, rec, cols); err != nil {
			stats.countError(err)
			log.Warn("skipping row", "row", rec.Row+1, "url", url, "error", err)
		} else {
			stats.Updated++
		}

		if stats.Rows%ProgressEvery == 0 {
			log.Info("processing row", "rows", stats.Rows, "url", url)
		}
	}

	log.Info("downloads imported", "rows", stats.Rows, "updated", stats.Updated,
		"missing", stats.Missing, "duplicates", stats.Duplicates, "failed", stats.Failed)
	return stats, nil
}

func (im *Importer) importDownloadRow(ctx context.Context, url string, rec sheet.Record, cols []monthColumn) error {
	if url == "" {
		return &LookupMissError{Field: colURL, Key: url}
	}
	downloads, err := ParseDownloads(rec, cols)
	if err != nil {
		return err
	}
	return im.store.InTx(ctx, func(tx *storage.Tx) error {
		a, err := ResolveByURL(ctx, tx, url)
		if err != nil {
			return err
		}
		return tx.SetDownloads(ctx, a.ID, downloads)
	})
}
