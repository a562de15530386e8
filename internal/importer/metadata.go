package importer

import (
	"context"
	"strings"

	"github.com/dukelaw/repometrics/internal/fetch"
	"github.com/dukelaw/repometrics/internal/logger"
	"github.com/dukelaw/repometrics/internal/sheet"
)

// Fetcher retrieves a report's raw bytes from a URL or local path.
type Fetcher interface {
	Fetch(ctx context.Context, source string) ([]byte, error)
}

// MetadataIndex maps article URL to its metadata record. It is built once
// per context and only read afterwards.
type MetadataIndex struct {
	byURL map[string]Metadata
}

// NewMetadataIndex indexes records by their trimmed calc_url, skipping empty
// URLs. A later record with the same URL replaces an earlier one.
func NewMetadataIndex(records []sheet.Record) *MetadataIndex {
	idx := &MetadataIndex{byURL: make(map[string]Metadata, len(records))}
	for _, rec := range records {
		m := Metadata{Row{rec}}
		url := m.Trimmed(metaURL)
		if url == "" {
			continue
		}
		idx.byURL[url] = m
	}
	return idx
}

// Lookup returns the metadata record for url, ignoring surrounding whitespace.
func (idx *MetadataIndex) Lookup(url string) (Metadata, bool) {
	if idx == nil {
		return Metadata{}, false
	}
	m, ok := idx.byURL[strings.TrimSpace(url)]
	return m, ok
}

// Len returns the number of indexed URLs.
func (idx *MetadataIndex) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.byURL)
}

// BuildMetadataIndex fetches and indexes the metadata report for a context.
// A report that cannot be fetched or decoded yields an empty index: every
// row of the context then imports without supplementary metadata.
func BuildMetadataIndex(ctx context.Context, f Fetcher, server, contextKey string, log *logger.Logger) *MetadataIndex {
	empty := NewMetadataIndex(nil)

	source, err := fetch.ReportURL(server, fetch.MetadataReport(contextKey))
	if err != nil {
		log.Warn("bad metadata report location", "context", contextKey, "error", err)
		return empty
	}
	log.Info("opening report", "url", source)

	records, err := readReport(ctx, f, source, sheet.DefaultOptions())
	if err != nil {
		log.Warn("metadata report unavailable", "context", contextKey, "url", source, "error", err)
		return empty
	}

	idx := NewMetadataIndex(records)
	log.Debug("indexed metadata", "context", contextKey, "records", idx.Len())
	return idx
}

// readReport fetches and fully decodes a report.
func readReport(ctx context.Context, f Fetcher, source string, opts sheet.Options) ([]sheet.Record, error) {
	data, err := f.Fetch(ctx, source)
	if err != nil {
		return nil, err
	}
	r, err := sheet.Open(data, opts)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var records []sheet.Record
	for rec := range r.Records() {
		records = append(records, rec)
	}
	return records, nil
}
