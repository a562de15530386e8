package sheet

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Kind is the canonical type of a decoded cell.
type Kind int

const (
	KindText Kind = iota
	KindNumber
	KindDate
	KindBool
)

// DateTuple is a calendar date and time of day without a zone.
type DateTuple struct {
	Year, Month, Day     int
	Hour, Minute, Second int
}

// Time converts the tuple to a UTC time.
func (d DateTuple) Time() time.Time {
	return time.Date(d.Year, time.Month(d.Month), d.Day, d.Hour, d.Minute, d.Second, 0, time.UTC)
}

func (d DateTuple) String() string {
	if d.Hour == 0 && d.Minute == 0 && d.Second == 0 {
		return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
	}
	return fmt.Sprintf("%04d-%02d-%02d %02d:%02d:%02d", d.Year, d.Month, d.Day, d.Hour, d.Minute, d.Second)
}

// TupleOf converts t to a DateTuple.
func TupleOf(t time.Time) DateTuple {
	return DateTuple{
		Year: t.Year(), Month: int(t.Month()), Day: t.Day(),
		Hour: t.Hour(), Minute: t.Minute(), Second: t.Second(),
	}
}

// Value is a typed spreadsheet cell.
// Numbers are kept as integer text so numeric-looking identifiers survive intact.
type Value struct {
	Kind Kind
	Text string    // Text and Number kinds
	Date DateTuple // Date kind
	Bool bool      // Bool kind
}

// Text returns a text value.
func Text(s string) Value { return Value{Kind: KindText, Text: s} }

// Number returns a numeric value rendered as integer text.
func Number(f float64) Value {
	return Value{Kind: KindNumber, Text: strconv.FormatInt(int64(f), 10)}
}

// Date returns a date value.
func Date(d DateTuple) Value { return Value{Kind: KindDate, Date: d} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// String renders any kind as text.
func (v Value) String() string {
	switch v.Kind {
	case KindDate:
		return v.Date.String()
	case KindBool:
		return strconv.FormatBool(v.Bool)
	default:
		return v.Text
	}
}

// IsBlank reports whether the value is empty text.
func (v Value) IsBlank() bool {
	return (v.Kind == KindText || v.Kind == KindNumber) && strings.TrimSpace(v.Text) == ""
}

// textDateLayouts are accepted when a date arrives as a text cell.
var textDateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"1/2/2006",
	"1/2/2006 15:04",
	"01/02/2006",
}

// Time interprets the value as a calendar date.
// Date cells convert directly; text cells are parsed with common layouts.
func (v Value) Time() (time.Time, bool) {
	switch v.Kind {
	case KindDate:
		return v.Date.Time(), true
	case KindText:
		s := strings.TrimSpace(v.Text)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range textDateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

// Int interprets the value as an integer. Blank values are zero.
func (v Value) Int() (int, error) {
	switch v.Kind {
	case KindBool:
		if v.Bool {
			return 1, nil
		}
		return 0, nil
	case KindDate:
		return 0, fmt.Errorf("date value %s is not an integer", v.Date)
	}
	s := strings.TrimSpace(v.Text)
	if s == "" {
		return 0, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid integer %q", s)
	}
	return int(f), nil
}
