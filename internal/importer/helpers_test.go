package importer

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/dukelaw/repometrics/internal/sheet"
	"github.com/dukelaw/repometrics/internal/storage"
	"github.com/xuri/excelize/v2"
)

// record builds a sheet record from label/value pairs. String values become
// text cells; sheet.Value values are used as given.
func record(kv ...any) sheet.Record {
	if len(kv)%2 != 0 {
		panic("record: odd number of arguments")
	}
	cells := make([]sheet.Cell, 0, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		var v sheet.Value
		switch x := kv[i+1].(type) {
		case string:
			v = sheet.Text(x)
		case sheet.Value:
			v = x
		default:
			panic(fmt.Sprintf("record: unsupported value %T", x))
		}
		cells = append(cells, sheet.Cell{Label: sheet.Text(kv[i].(string)), Value: v})
	}
	return sheet.NewRecord(1, cells)
}

func editorRow(kv ...any) EditorRow { return EditorRow{Row{record(kv...)}} }

func metadata(kv ...any) *Metadata { return &Metadata{Row{record(kv...)}} }

// buildWorkbook writes rows to Sheet1 starting at A1 and returns the xlsx bytes.
func buildWorkbook(t *testing.T, rows [][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for r, row := range rows {
		for c, v := range row {
			if v == nil {
				continue
			}
			axis, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				t.Fatal(err)
			}
			if err := f.SetCellValue("Sheet1", axis, v); err != nil {
				t.Fatalf("SetCellValue(%s) error = %v", axis, err)
			}
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// fakeFetcher serves report bytes from memory.
type fakeFetcher map[string][]byte

func (f fakeFetcher) Fetch(_ context.Context, source string) ([]byte, error) {
	data, ok := f[source]
	if !ok {
		return nil, fmt.Errorf("fetching %s: HTTP 404", source)
	}
	return data, nil
}

func openStore(t *testing.T) *storage.Store {
	t.Helper()
	ctx := context.Background()
	s, err := storage.Open(ctx, storage.DriverSQLite, filepath.Join(t.TempDir(), "import.db"))
	if err != nil {
		t.Fatalf("storage.Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	if _, err := s.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return s
}
