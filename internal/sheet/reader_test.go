package sheet

import (
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
)

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
				t.Fatalf("CoordinatesToCellName() error = %v", err)
			}
			if err := f.SetCellValue("Sheet1", axis, v); err != nil {
				t.Fatalf("SetCellValue(%s) error = %v", axis, err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer() error = %v", err)
	}
	return buf.Bytes()
}

func collect(r *Reader) []Record {
	var out []Record
	for rec := range r.Records() {
		out = append(out, rec)
	}
	return out
}

func TestOpen_NotASpreadsheet(t *testing.T) {
	_, err := Open([]byte("this is not a workbook"), DefaultOptions())
	if err == nil {
		t.Fatal("Open() expected error for garbage input")
	}
	if !IsDecodeError(err) {
		t.Errorf("Open() error = %v, want DecodeError", err)
	}
}

func TestOpen_BadLayout(t *testing.T) {
	data := buildWorkbook(t, [][]any{{"URL"}, {"http://x"}})

	tests := []struct {
		name string
		opts Options
	}{
		{"data before header", Options{HeaderRow: 1, FirstDataRow: 1}},
		{"missing sheet", Options{SheetIndex: 3, FirstDataRow: 1}},
		{"header past end", Options{HeaderRow: 5, FirstDataRow: 6}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Open(data, tt.opts); !IsDecodeError(err) {
				t.Errorf("Open() error = %v, want DecodeError", err)
			}
		})
	}
}

func TestReader_CellTyping(t *testing.T) {
	posted := time.Date(2021, time.March, 4, 0, 0, 0, 0, time.UTC)
	data := buildWorkbook(t, [][]any{
		{"Manuscript#", "Title", "Date posted", "Peer reviewed", "Volume"},
		{4321, "  A Title  ", posted, true, 12.0},
	})

	r, err := Open(data, DefaultOptions())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer r.Close()

	recs := collect(r)
	if len(recs) != 1 {
		t.Fatalf("Records() yielded %d records, want 1", len(recs))
	}
	rec := recs[0]

	if v, _ := rec.Get("Manuscript#"); v.Kind != KindNumber || v.Text != "4321" {
		t.Errorf("Manuscript# = %+v, want number 4321", v)
	}
	if v, _ := rec.Get("Title"); v.Kind != KindText || v.Text != "  A Title  " {
		t.Errorf("Title = %+v, want untrimmed text", v)
	}
	if v, _ := rec.Get("Date posted"); v.Kind != KindDate || v.Date != (DateTuple{Year: 2021, Month: 3, Day: 4}) {
		t.Errorf("Date posted = %+v, want date 2021-03-04", v)
	}
	if v, _ := rec.Get("Peer reviewed"); v.Kind != KindBool || !v.Bool {
		t.Errorf("Peer reviewed = %+v, want true", v)
	}
	if v, _ := rec.Get("Volume"); v.String() != "12" {
		t.Errorf("Volume = %q, want %q", v.String(), "12")
	}
	if rec.Has("Missing") {
		t.Error("Has(Missing) = true, want false")
	}
}

func TestReader_DateHeaders(t *testing.T) {
	jan := time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2023, time.February, 1, 0, 0, 0, 0, time.UTC)
	data := buildWorkbook(t, [][]any{
		{"Monthly downloads report"},
		{"URL", jan, feb},
		{"http://x", 10, 25},
	})

	r, err := Open(data, Options{HeaderRow: 1, FirstDataRow: 2})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer r.Close()

	labels := r.Labels()
	if len(labels) != 3 {
		t.Fatalf("Labels() = %d, want 3", len(labels))
	}
	if labels[1].Kind != KindDate || labels[1].Date.Month != 1 {
		t.Errorf("label[1] = %+v, want January date", labels[1])
	}
	if labels[2].Kind != KindDate || labels[2].Date.Month != 2 {
		t.Errorf("label[2] = %+v, want February date", labels[2])
	}

	recs := collect(r)
	if len(recs) != 1 {
		t.Fatalf("Records() yielded %d records, want 1", len(recs))
	}
	if n, err := recs[0].Cells[2].Value.Int(); err != nil || n != 25 {
		t.Errorf("Cells[2].Int() = %d, %v; want 25", n, err)
	}
}

func TestReader_RecordsRestartableAndSkipsBlankRows(t *testing.T) {
	data := buildWorkbook(t, [][]any{
		{"URL", "Title"},
		{"http://a", "A"},
		{nil, nil},
		{"http://b", nil},
	})

	r, err := Open(data, DefaultOptions())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer r.Close()

	first := collect(r)
	second := collect(r)
	if len(first) != 2 || len(second) != 2 {
		t.Fatalf("Records() yielded %d then %d records, want 2 both times", len(first), len(second))
	}
	if v, ok := first[1].Get("Title"); !ok || v.Text != "" {
		t.Errorf("short row Title = %+v, %v; want present and empty", v, ok)
	}

	// Stopping early must not panic.
	for range r.Records() {
		break
	}
}

func TestValue_Time(t *testing.T) {
	tests := []struct {
		name  string
		value Value
		want  time.Time
		ok    bool
	}{
		{"date", Date(DateTuple{Year: 2020, Month: 5, Day: 6}), time.Date(2020, 5, 6, 0, 0, 0, 0, time.UTC), true},
		{"iso text", Text("2020-05-06"), time.Date(2020, 5, 6, 0, 0, 0, 0, time.UTC), true},
		{"us text", Text("5/6/2020"), time.Date(2020, 5, 6, 0, 0, 0, 0, time.UTC), true},
		{"blank", Text(""), time.Time{}, false},
		{"garbage", Text("soon"), time.Time{}, false},
		{"number", Number(43000), time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.value.Time()
			if ok != tt.ok || !got.Equal(tt.want) {
				t.Errorf("Time() = %v, %v; want %v, %v", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestValue_Int(t *testing.T) {
	tests := []struct {
		value   Value
		want    int
		wantErr bool
	}{
		{Number(10), 10, false},
		{Text(" 7 "), 7, false},
		{Text(""), 0, false},
		{Text("3.0"), 3, false},
		{Text("many"), 0, true},
		{Date(DateTuple{Year: 2020, Month: 1, Day: 1}), 0, true},
	}

	for _, tt := range tests {
		got, err := tt.value.Int()
		if (err != nil) != tt.wantErr {
			t.Errorf("Int(%+v) error = %v, wantErr %v", tt.value, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("Int(%+v) = %d, want %d", tt.value, got, tt.want)
		}
	}
}

func TestNumber_TruncatesToIntegerText(t *testing.T) {
	if got := Number(1234.0).String(); got != "1234" {
		t.Errorf("Number(1234.0) = %q, want 1234", got)
	}
	if got := Number(7.9).String(); got != "7" {
		t.Errorf("Number(7.9) = %q, want 7", got)
	}
}

func TestHasDateTokens(t *testing.T) {
	tests := []struct {
		code string
		want bool
	}{
		{"yyyy-mm-dd", true},
		{"mmm d", true},
		{"0.00", false},
		{`"day"0`, false},
		{"[Red]0.00", false},
	}
	for _, tt := range tests {
		if got := hasDateTokens(tt.code); got != tt.want {
			t.Errorf("hasDateTokens(%q) = %v, want %v", tt.code, got, tt.want)
		}
	}
}
