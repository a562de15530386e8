package importer

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/dukelaw/repometrics/internal/article"
	"github.com/dukelaw/repometrics/internal/logger"
	"github.com/dukelaw/repometrics/internal/sheet"
	"github.com/dukelaw/repometrics/internal/storage"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

const (
	testServer = "http://reports.test/"
	articleURL = "http://scholarship.law.duke.edu/dlj/vol61/iss1/3"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

var editorHeader = []any{
	"Manuscript#", "URL", "Title", "Submission date", "Date posted",
	"Last event", "Date of last event", "Status", "Keywords",
	"Author 1 First Name", "Author 1 Middle Name", "Author 1 Last Name",
	"Author 1 Suffix", "Author 1 Institution", "Author 1 Email",
	"Author 2 First Name", "Author 2 Middle Name", "Author 2 Last Name",
	"Author 2 Suffix", "Author 2 Institution", "Author 2 Email",
	"Author 3 First Name", "Author 3 Middle Name", "Author 3 Last Name",
	"Author 3 Suffix", "Author 3 Institution", "Author 3 Email",
}

func editorReport(t *testing.T, keywords string) []byte {
	return buildWorkbook(t, [][]any{
		editorHeader,
		{
			1001, articleURL, "  Takings and Tradeoffs ", date(2012, 1, 5), date(2012, 2, 1),
			"Posted", date(2012, 2, 1), "published", keywords,
			"Ann", "", "Lee", "", "Duke University School of Law", "lee@law.duke.edu",
			"", "", "", "", "Nowhere U", "ghost@example.org",
			"Bo", "", "Chen", "", "", "",
		},
	})
}

func metadataReport(t *testing.T) []byte {
	return buildWorkbook(t, [][]any{
		{"calc_url", "volnum", "issnum", "fpage", "lpage", "disciplines"},
		{articleURL, "61", "1", "101", "150", "Law; Property Law and Real Estate;; Torts"},
		{"", "99", "9", "1", "2", "Ignored"},
	})
}

func newTestImporter(t *testing.T, f fakeFetcher) (*Importer, *storage.Store) {
	s := openStore(t)
	return New(s, f, nil, DefaultOptions()), s
}

func TestImportContext_CreatesFullGraph(t *testing.T) {
	ctx := context.Background()
	im, s := newTestImporter(t, fakeFetcher{
		testServer + "dlj_editor.xlsx":   editorReport(t, "a, b,, c"),
		testServer + "dlj_metadata.xlsx": metadataReport(t),
	})

	stats, err := im.ImportContext(ctx, testServer, "dlj")
	require.NoError(t, err)
	require.Equal(t, Stats{Rows: 1, Created: 1}, stats)

	a, err := s.GetArticle(ctx, "oai:scholarship.law.duke.edu:dlj-1001")
	require.NoError(t, err)
	require.NotNil(t, a)

	require.Equal(t, "Takings and Tradeoffs", a.Title)
	require.Equal(t, articleURL, a.URL)
	require.Equal(t, "http://scholarship.law.duke.edu/cgi/viewcontent.cgi?article=1001&context=dlj", a.PDFURL)
	require.Equal(t, "Other", a.DocumentType)
	require.Equal(t, "Duke Law Journal", a.Publication)
	require.Equal(t, "", a.SourceFulltextURL)
	require.Equal(t, "61", a.Volume)
	require.Equal(t, "1", a.Issue)
	require.Equal(t, "101", a.FirstPage)
	require.Equal(t, "150", a.LastPage)
	require.True(t, a.SubmissionDate.Equal(date(2012, 1, 5)), "SubmissionDate = %v", a.SubmissionDate)
	require.True(t, a.Date.Equal(date(2012, 2, 1)), "Date = %v", a.Date)

	require.Equal(t, []article.Creator{
		{Position: 1, First: "Ann", Last: "Lee", Institution: "Duke University School of Law", Email: "lee@law.duke.edu"},
		{Position: 2, First: "Bo", Last: "Chen"},
	}, a.Creators)
	require.Equal(t, terms("a", "b", "c"), a.Subjects)
	require.Equal(t, terms("Law", "Property Law and Real Estate", "Torts"), a.Disciplines)
}

func TestImportContext_Idempotent(t *testing.T) {
	ctx := context.Background()
	im, s := newTestImporter(t, fakeFetcher{
		testServer + "dlj_editor.xlsx":   editorReport(t, "a, b,, c"),
		testServer + "dlj_metadata.xlsx": metadataReport(t),
	})

	_, err := im.ImportContext(ctx, testServer, "dlj")
	require.NoError(t, err)
	first, err := s.GetArticle(ctx, "oai:scholarship.law.duke.edu:dlj-1001")
	require.NoError(t, err)

	stats, err := im.ImportContext(ctx, testServer, "dlj")
	require.NoError(t, err)
	require.Equal(t, Stats{Rows: 1, Updated: 1}, stats)

	second, err := s.GetArticle(ctx, "oai:scholarship.law.duke.edu:dlj-1001")
	require.NoError(t, err)
	require.Equal(t, first, second)

	counts, err := s.TableCounts(ctx)
	require.NoError(t, err)
	require.Equal(t, map[string]int{"articles": 1, "creators": 2, "subjects": 3, "disciplines": 3, "downloads": 0}, counts)
}

func TestImportContext_MetadataJoinIgnoresWhitespace(t *testing.T) {
	ctx := context.Background()
	const padded = "http://scholarship.law.duke.edu/dlj/vol1/iss1/9 "
	im, s := newTestImporter(t, fakeFetcher{
		testServer + "dlj_editor.xlsx": buildWorkbook(t, [][]any{
			{"Manuscript#", "URL", "Title"},
			{9, padded, "Padded"},
		}),
		testServer + "dlj_metadata.xlsx": buildWorkbook(t, [][]any{
			{"calc_url", "volnum", "fpage", "disciplines"},
			{padded, "12", "5", "Law"},
		}),
	})

	_, err := im.ImportContext(ctx, testServer, "dlj")
	require.NoError(t, err)

	a, err := s.GetArticle(ctx, "oai:scholarship.law.duke.edu:dlj-9")
	require.NoError(t, err)
	require.NotNil(t, a)
	require.Equal(t, "http://scholarship.law.duke.edu/dlj/vol1/iss1/9", a.URL)
	require.Equal(t, "12", a.Volume)
	require.Equal(t, "5", a.FirstPage)
	require.Equal(t, terms("Law"), a.Disciplines)
}

func TestMetadataIndex_TrimsBothSides(t *testing.T) {
	idx := NewMetadataIndex([]sheet.Record{
		record("calc_url", "  http://a/1 ", "volnum", "3"),
		record("calc_url", "   ", "volnum", "4"),
	})
	require.Equal(t, 1, idx.Len())

	m, ok := idx.Lookup("http://a/1\t")
	require.True(t, ok)
	require.Equal(t, "3", m.Text("volnum"))
}

func TestImportContext_ReplacesCollections(t *testing.T) {
	ctx := context.Background()
	f := fakeFetcher{
		testServer + "dlj_editor.xlsx":   editorReport(t, "a, b,, c"),
		testServer + "dlj_metadata.xlsx": metadataReport(t),
	}
	im, s := newTestImporter(t, f)
	_, err := im.ImportContext(ctx, testServer, "dlj")
	require.NoError(t, err)

	f[testServer+"dlj_editor.xlsx"] = editorReport(t, "zoning")
	delete(f, testServer+"dlj_metadata.xlsx")
	_, err = im.ImportContext(ctx, testServer, "dlj")
	require.NoError(t, err)

	a, err := s.GetArticle(ctx, "oai:scholarship.law.duke.edu:dlj-1001")
	require.NoError(t, err)
	require.Equal(t, terms("zoning"), a.Subjects)
	// Without a metadata record disciplines and fallback fields stay as stored.
	require.Equal(t, terms("Law", "Property Law and Real Estate", "Torts"), a.Disciplines)
	require.Equal(t, "61", a.Volume)
}

func TestImportContext_Faculty(t *testing.T) {
	ctx := context.Background()
	facultyURL := "http://scholarship.law.duke.edu/faculty_scholarship/77"
	im, s := newTestImporter(t, fakeFetcher{
		testServer + "faculty_scholarship_editor.xlsx": buildWorkbook(t, [][]any{
			{"Manuscript#", "URL", "Title", "Submission type", "Keywords", "Volume"},
			{77, facultyURL, "Faculty copy", "article", "", "60"},
		}),
		testServer + "faculty_scholarship_metadata.xlsx": buildWorkbook(t, [][]any{
			{"calc_url", "volnum", "source_publication", "source_fulltext_url", "disciplines"},
			{facultyURL, "12", "  Duke Law Journal ", " http://journal/pdf ", ""},
		}),
	})

	_, err := im.ImportContext(ctx, testServer, article.FacultyScholarship)
	require.NoError(t, err)

	a, err := s.GetArticle(ctx, "oai:scholarship.law.duke.edu:faculty_scholarship-77")
	require.NoError(t, err)
	require.Equal(t, "Duke Law Journal", a.Publication)
	require.Equal(t, "http://journal/pdf", a.SourceFulltextURL)
	require.Equal(t, "article", a.DocumentType)
	require.Equal(t, "60", a.Volume)
	require.Empty(t, a.Subjects)
	require.Empty(t, a.Disciplines)
}

func TestImportContext_RowErrorsDoNotAbort(t *testing.T) {
	ctx := context.Background()
	im, s := newTestImporter(t, fakeFetcher{
		testServer + "lcp_editor.xlsx": buildWorkbook(t, [][]any{
			{"Manuscript#", "URL", "Title"},
			{nil, "http://no-manuscript", "Orphan"},
			{5, "http://lcp/5", "Kept"},
		}),
	})

	stats, err := im.ImportContext(ctx, testServer, "lcp")
	require.NoError(t, err)
	require.Equal(t, Stats{Rows: 2, Created: 1, Failed: 1}, stats)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestImportContext_ProgressCountsFailedRows(t *testing.T) {
	rows := [][]any{{"Manuscript#", "URL", "Title"}}
	for i := 0; i < ProgressEvery; i++ {
		rows = append(rows, []any{nil, fmt.Sprintf("http://x/%d", i), "No manuscript"})
	}
	core, logs := observer.New(zap.InfoLevel)
	log := &logger.Logger{SugaredLogger: zap.New(core).Sugar()}
	im := New(openStore(t), fakeFetcher{testServer + "dlj_editor.xlsx": buildWorkbook(t, rows)}, log, DefaultOptions())

	stats, err := im.ImportContext(context.Background(), testServer, "dlj")
	require.NoError(t, err)
	require.Equal(t, Stats{Rows: ProgressEvery, Failed: ProgressEvery}, stats)

	require.Equal(t, 1, logs.FilterMessage("processing row").Len())
	summary := logs.FilterMessage("context imported").All()
	require.Len(t, summary, 1)
	require.Contains(t, summary[0].ContextMap(), "missing")
}

func TestImportContexts_SkipsUnavailableReports(t *testing.T) {
	ctx := context.Background()
	im, _ := newTestImporter(t, fakeFetcher{
		testServer + "dlj_editor.xlsx": editorReport(t, "a"),
		testServer + "lcp_editor.xlsx": []byte("not a workbook"),
	})

	total, skipped, err := im.ImportContexts(ctx, testServer, []string{"alr", "dlj", "lcp"})
	require.NoError(t, err)
	require.Equal(t, []string{"alr", "lcp"}, skipped)
	require.Equal(t, 1, total.Created)
}

func TestImportContexts_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	im, _ := newTestImporter(t, fakeFetcher{testServer + "dlj_editor.xlsx": editorReport(t, "a")})

	_, _, err := im.ImportContexts(ctx, testServer, []string{"dlj"})
	require.ErrorIs(t, err, context.Canceled)
}

func saveArticle(t *testing.T, s *storage.Store, identifier, url string, downloads ...article.Download) *article.Article {
	t.Helper()
	ctx := context.Background()
	a := &article.Article{Identifier: identifier, URL: url, Title: identifier}
	require.NoError(t, s.InTx(ctx, func(tx *storage.Tx) error {
		if err := tx.SaveArticle(ctx, a); err != nil {
			return err
		}
		return tx.SetDownloads(ctx, a.ID, downloads)
	}))
	return a
}

func TestImportDownloads(t *testing.T) {
	ctx := context.Background()
	const source = "/exports/downloads.xlsx"
	jan, feb := date(2023, 1, 1), date(2023, 2, 1)

	im, s := newTestImporter(t, fakeFetcher{
		source: buildWorkbook(t, [][]any{
			{"Monthly downloads"},
			{"URL", jan, feb},
			{"http://x", 10, 25},
			{"http://missing", 1, 2},
			{"http://dup", 3, 4},
			{"http://bad", "lots", 1},
			{"http://blank", nil, 6},
		}),
	})

	saveArticle(t, s, "oai:test:dlj-1", "http://x", article.Download{Month: date(2022, 12, 1), Count: 4})
	dupA := saveArticle(t, s, "oai:test:dlj-2", "http://dup", article.Download{Month: jan, Count: 99})
	saveArticle(t, s, "oai:test:lcp-2", "http://dup")
	saveArticle(t, s, "oai:test:dlj-3", "http://bad")
	saveArticle(t, s, "oai:test:dlj-4", "http://blank")

	stats, err := im.ImportDownloads(ctx, source)
	require.NoError(t, err)
	require.Equal(t, Stats{Rows: 5, Updated: 2, Missing: 1, Duplicates: 1, Failed: 1}, stats)

	x, err := s.GetArticle(ctx, "oai:test:dlj-1")
	require.NoError(t, err)
	require.Equal(t, []article.Download{{Month: jan, Count: 10}, {Month: feb, Count: 25}}, x.Downloads)

	blank, err := s.GetArticle(ctx, "oai:test:dlj-4")
	require.NoError(t, err)
	require.Equal(t, []article.Download{{Month: jan, Count: 0}, {Month: feb, Count: 6}}, blank.Downloads)

	dup, err := s.GetArticle(ctx, dupA.Identifier)
	require.NoError(t, err)
	require.Equal(t, []article.Download{{Month: jan, Count: 99}}, dup.Downloads)
}

func TestImportDownloads_Unreadable(t *testing.T) {
	im, _ := newTestImporter(t, fakeFetcher{"bad.xlsx": []byte("nope")})

	_, err := im.ImportDownloads(context.Background(), "bad.xlsx")
	require.Error(t, err)

	_, err = im.ImportDownloads(context.Background(), "absent.xlsx")
	require.Error(t, err)
}

func TestParseDownloads_SameMonthKeepsLater(t *testing.T) {
	rec := record("URL", "http://x", "a", "1", "b", "2")
	cols := []monthColumn{{index: 1, month: date(2023, 1, 1)}, {index: 2, month: date(2023, 1, 1)}}

	got, err := ParseDownloads(rec, cols)
	require.NoError(t, err)
	require.Equal(t, []article.Download{{Month: date(2023, 1, 1), Count: 2}}, got)
}
