// Package sheet decodes spreadsheet exports into labeled, typed records.
package sheet

import (
	"bytes"
	"errors"
	"fmt"
	"iter"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// DecodeError indicates the input is not a readable spreadsheet.
// Callers treat it as "no data available" for that source.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding spreadsheet: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// IsDecodeError returns true if err is or wraps a DecodeError.
func IsDecodeError(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}

// Options selects the sheet and row layout. All indexes are zero-based.
type Options struct {
	SheetIndex   int
	HeaderRow    int
	FirstDataRow int
}

// DefaultOptions reads labels from the first row and data from the second.
func DefaultOptions() Options {
	return Options{SheetIndex: 0, HeaderRow: 0, FirstDataRow: 1}
}

// Cell pairs a column label with the cell value in one row.
type Cell struct {
	Label Value
	Value Value
}

// Record is one data row. Cells keep column order; text labels are indexed by name.
type Record struct {
	Row   int // Zero-based sheet row
	Cells []Cell
	index map[string]int
}

// NewRecord builds a record from cells, indexing text and number labels.
// A label that appears twice resolves to its last column.
func NewRecord(row int, cells []Cell) Record {
	rec := Record{Row: row, Cells: cells, index: make(map[string]int, len(cells))}
	for i, c := range cells {
		if c.Label.Kind == KindText || c.Label.Kind == KindNumber {
			if c.Label.Text == "" {
				continue
			}
			rec.index[c.Label.Text] = i
		}
	}
	return rec
}

// Get returns the value under a text label.
func (r Record) Get(name string) (Value, bool) {
	i, ok := r.index[name]
	if !ok {
		return Value{}, false
	}
	return r.Cells[i].Value, true
}

// Has reports whether the record has a column with the given label.
func (r Record) Has(name string) bool {
	_, ok := r.index[name]
	return ok
}

// Reader yields records from one sheet of a workbook.
type Reader struct {
	file       *excelize.File
	sheet      string
	opts       Options
	rows       [][]string
	labels     []Value
	date1904   bool
	dateStyles map[int]bool
}

// Open parses a workbook and prepares the selected sheet.
// Returns a *DecodeError if data is not a readable workbook or the layout does not fit.
func Open(data []byte, opts Options) (*Reader, error) {
	if opts.FirstDataRow <= opts.HeaderRow {
		return nil, &DecodeError{Err: fmt.Errorf("first data row %d must follow header row %d", opts.FirstDataRow, opts.HeaderRow)}
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, &DecodeError{Err: err}
	}

	sheets := f.GetSheetList()
	if opts.SheetIndex < 0 || opts.SheetIndex >= len(sheets) {
		f.Close()
		return nil, &DecodeError{Err: fmt.Errorf("sheet index %d out of range (%d sheets)", opts.SheetIndex, len(sheets))}
	}

	r := &Reader{
		file:       f,
		sheet:      sheets[opts.SheetIndex],
		opts:       opts,
		dateStyles: make(map[int]bool),
	}

	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		r.date1904 = *props.Date1904
	}

	r.rows, err = f.GetRows(r.sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		f.Close()
		return nil, &DecodeError{Err: fmt.Errorf("reading sheet %q: %w", r.sheet, err)}
	}
	if opts.HeaderRow >= len(r.rows) {
		f.Close()
		return nil, &DecodeError{Err: fmt.Errorf("header row %d missing (%d rows)", opts.HeaderRow, len(r.rows))}
	}

	header := r.rows[opts.HeaderRow]
	r.labels = make([]Value, len(header))
	for col, raw := range header {
		r.labels[col] = r.typedCell(opts.HeaderRow, col, raw)
	}

	return r, nil
}

// Close releases the workbook.
func (r *Reader) Close() error {
	return r.file.Close()
}

// Labels returns the typed header cells.
func (r *Reader) Labels() []Value {
	return r.labels
}

// Len returns the number of data rows, blank rows included.
func (r *Reader) Len() int {
	if n := len(r.rows) - r.opts.FirstDataRow; n > 0 {
		return n
	}
	return 0
}

// Records returns a lazy sequence of data records. Each call starts again from
// the first data row. Rows whose cells are all blank are skipped.
func (r *Reader) Records() iter.Seq[Record] {
	return func(yield func(Record) bool) {
		for rowIdx := r.opts.FirstDataRow; rowIdx < len(r.rows); rowIdx++ {
			raw := r.rows[rowIdx]
			if isBlankRow(raw) {
				continue
			}
			cells := make([]Cell, len(r.labels))
			for col, label := range r.labels {
				var s string
				if col < len(raw) {
					s = raw[col]
				}
				cells[col] = Cell{Label: label, Value: r.typedCell(rowIdx, col, s)}
			}
			if !yield(NewRecord(rowIdx, cells)) {
				return
			}
		}
	}
}

func isBlankRow(raw []string) bool {
	for _, s := range raw {
		if strings.TrimSpace(s) != "" {
			return false
		}
	}
	return true
}

// typedCell converts a raw cell into the canonical value model.
func (r *Reader) typedCell(row, col int, raw string) Value {
	if raw == "" {
		return Text("")
	}
	axis, err := excelize.CoordinatesToCellName(col+1, row+1)
	if err != nil {
		return Text(raw)
	}
	typ, err := r.file.GetCellType(r.sheet, axis)
	if err != nil {
		return Text(raw)
	}

	switch typ {
	case excelize.CellTypeBool:
		return Bool(raw == "1" || strings.EqualFold(raw, "true"))
	case excelize.CellTypeDate:
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
			if t, err := time.Parse(layout, raw); err == nil {
				return Date(TupleOf(t))
			}
		}
		return Text(raw)
	case excelize.CellTypeNumber, excelize.CellTypeUnset:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return Text(raw)
		}
		if r.isDateStyled(axis) {
			if t, err := excelize.ExcelDateToTime(f, r.date1904); err == nil {
				return Date(TupleOf(t))
			}
		}
		return Number(f)
	default:
		return Text(raw)
	}
}

// isDateStyled reports whether the cell's number format renders a date.
func (r *Reader) isDateStyled(axis string) bool {
	idx, err := r.file.GetCellStyle(r.sheet, axis)
	if err != nil || idx == 0 {
		return false
	}
	if isDate, ok := r.dateStyles[idx]; ok {
		return isDate
	}
	style, err := r.file.GetStyle(idx)
	isDate := err == nil && style != nil && isDateFormat(style.NumFmt, style.CustomNumFmt)
	r.dateStyles[idx] = isDate
	return isDate
}

// isDateFormat recognizes the built-in date formats and custom codes with date tokens.
func isDateFormat(numFmt int, custom *string) bool {
	switch {
	case numFmt >= 14 && numFmt <= 22,
		numFmt >= 27 && numFmt <= 36,
		numFmt >= 45 && numFmt <= 47,
		numFmt >= 50 && numFmt <= 58:
		return true
	}
	if custom == nil {
		return false
	}
	return hasDateTokens(*custom)
}

// hasDateTokens looks for y or d outside quoted literals and [..] sections.
func hasDateTokens(code string) bool {
	inQuote, inBracket := false, false
	for _, ch := range strings.ToLower(code) {
		switch {
		case ch == '"':
			inQuote = !inQuote
		case inQuote:
		case ch == '[':
			inBracket = true
		case ch == ']':
			inBracket = false
		case inBracket:
		case ch == 'y' || ch == 'd':
			return true
		}
	}
	return false
}
