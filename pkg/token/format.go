// Package token formats and parses the scalar values of a component record.
//
// A value is written either bare, quoted ('...' or "..."), as a semicolon
// delimited text field, or as the unknown sentinel "?". The sentinel is only
// recognized when it appears bare; a quoted '?' is the literal string.
package token

import (
	"strconv"
	"strings"
	"time"
)

// Unknown is the sentinel written for absent or unspecified values.
const Unknown = "?"

// DateLayout is the calendar date layout used by the dictionary.
const DateLayout = "2006-01-02"

// DefaultPrecision is the number of decimals used for floating point values.
const DefaultPrecision = 3

// Kind is the declared kind of a scalar field.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindFloat
	KindDate
	KindEnum
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "integer"
	case KindFloat:
		return "float"
	case KindDate:
		return "date"
	case KindEnum:
		return "enum"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

var reservedPrefixes = []string{"data_", "loop_", "save_", "global_", "stop_"}

// FormatString renders s as a bare token when that is unambiguous, otherwise
// as a quoted token, falling back to a text field.
func FormatString(s string) string {
	if isBareSafe(s) {
		return s
	}
	if canQuote(s, '"') {
		return `"` + s + `"`
	}
	if canQuote(s, '\'') {
		return "'" + s + "'"
	}
	return formatTextField(s)
}

// FormatOptionalString renders nil as the unknown sentinel.
func FormatOptionalString(s *string) string {
	if s == nil {
		return Unknown
	}
	return FormatString(*s)
}

// FormatInt renders n in base 10.
func FormatInt(n int) string {
	return strconv.Itoa(n)
}

// FormatOptionalInt renders nil as the unknown sentinel.
func FormatOptionalInt(n *int) string {
	if n == nil {
		return Unknown
	}
	return FormatInt(*n)
}

// FormatFloat renders f with prec decimals. When the fixed form would not
// parse back to exactly f, the shortest exact decimal form is used instead.
func FormatFloat(f float64, prec int) string {
	if prec < 0 {
		prec = DefaultPrecision
	}
	if f == 0 {
		f = 0 // drop the sign of negative zero
	}
	s := strconv.FormatFloat(f, 'f', prec, 64)
	if back, err := strconv.ParseFloat(s, 64); err != nil || back != f {
		s = strconv.FormatFloat(f, 'f', -1, 64)
	}
	return s
}

// FormatOptionalFloat renders nil as the unknown sentinel.
func FormatOptionalFloat(f *float64, prec int) string {
	if f == nil {
		return Unknown
	}
	return FormatFloat(*f, prec)
}

// FormatDate renders t as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// FormatOptionalDate renders nil as the unknown sentinel.
func FormatOptionalDate(t *time.Time) string {
	if t == nil {
		return Unknown
	}
	return FormatDate(*t)
}

// Encodable reports why s cannot be written so that it reads back
// unchanged. A text field ends at the first line starting with ';', and line
// endings are read back as a bare \n.
func Encodable(s string) error {
	switch {
	case strings.Contains(s, "\n;"):
		return &MalformedValue{Kind: KindString, Token: s, Reason: "a line inside the value starts with ';'"}
	case strings.Contains(s, "\r"):
		return &MalformedValue{Kind: KindString, Token: s, Reason: "carriage returns are not preserved"}
	}
	return nil
}

// IsCalendarDate reports whether t is a UTC midnight, the only instants that
// FormatDate writes without loss.
func IsCalendarDate(t time.Time) bool {
	return t.Location() == time.UTC && t.Equal(CalendarDate(t))
}

// CalendarDate returns the UTC midnight of the date t falls on in its own
// location, which is the date FormatDate writes.
func CalendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// IsTextField reports whether a formatted value is a semicolon text field.
// Text fields always occupy their own lines.
func IsTextField(formatted string) bool {
	return strings.HasPrefix(formatted, ";")
}

func isBareSafe(s string) bool {
	if s == "" || s == Unknown || s == "." {
		return false
	}
	switch s[0] {
	case '_', '#', '$', '\'', '"', ';', '[', ']':
		return false
	}
	lower := strings.ToLower(s)
	for _, p := range reservedPrefixes {
		if strings.HasPrefix(lower, p) {
			return false
		}
	}
	for i := 0; i < len(s); i++ {
		if isSpace(s[i]) || s[i] < 0x20 {
			return false
		}
	}
	return true
}

// canQuote reports whether s can be wrapped in q. A quote character only
// closes a token when it is followed by whitespace, so embedded quotes are
// allowed as long as they are not.
func canQuote(s string, q byte) bool {
	if strings.ContainsAny(s, "\n\r") {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] == q && i+1 < len(s) && isSpace(s[i+1]) {
			return false
		}
	}
	return true
}

func formatTextField(s string) string {
	return ";" + s + "\n;"
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
