package loop

import (
	"fmt"
	"strings"

	"github.com/ssargent/chemcomp/pkg/token"
)

// SchemaMismatchError reports a tag list or row that does not fit the schema.
type SchemaMismatchError struct {
	Kind   Kind
	Line   int
	Row    int // 1-based row index, 0 for the tag list
	Got    int
	Want   int
	Reason string
}

func (e *SchemaMismatchError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s table: line %d: %s", e.Kind, e.Line, e.Reason)
	}
	return fmt.Sprintf("%s table: line %d: row %d has %d values, want %d", e.Kind, e.Line, e.Row, e.Got, e.Want)
}

// Row is one decoded table row with the line it started on.
type Row struct {
	Line   int
	Tokens []token.Token
}

// Encode writes a loop table: the "loop_" keyword, one tag per line, then
// one row per line with columns padded to a common width. Cells holding a
// text field are placed on their own lines. An empty table still gets its
// header.
func Encode(b *strings.Builder, s Schema, rows [][]string) error {
	for i, r := range rows {
		if len(r) != s.Arity() {
			return &SchemaMismatchError{Kind: s.Kind, Row: i + 1, Got: len(r), Want: s.Arity()}
		}
	}

	b.WriteString("loop_\n")
	for _, tag := range s.Tags() {
		b.WriteString(tag)
		b.WriteByte('\n')
	}

	widths := make([]int, s.Arity())
	for _, r := range rows {
		for j, cell := range r {
			if !token.IsTextField(cell) && len(cell) > widths[j] {
				widths[j] = len(cell)
			}
		}
	}

	for _, r := range rows {
		var line strings.Builder
		flush := func() {
			if line.Len() == 0 {
				return
			}
			b.WriteString(strings.TrimRight(line.String(), " "))
			b.WriteByte('\n')
			line.Reset()
		}
		for j, cell := range r {
			if token.IsTextField(cell) {
				flush()
				b.WriteString(cell)
				b.WriteByte('\n')
				continue
			}
			line.WriteString(cell)
			if pad := widths[j] - len(cell); pad > 0 {
				line.WriteString(strings.Repeat(" ", pad))
			}
			line.WriteByte(' ')
		}
		flush()
	}
	return nil
}

// ReadHeader consumes a "loop_" line and its tag lines and checks the tags
// against s, column for column.
func ReadHeader(sc *token.Scanner, s Schema) error {
	l, ok := sc.Next()
	if !ok || !strings.EqualFold(l.Trimmed(), "loop_") {
		return &SchemaMismatchError{Kind: s.Kind, Line: l.Num, Reason: fmt.Sprintf("expected loop_, found %q", l.Trimmed())}
	}

	var tags []string
	start := sc.LineNum()
	for {
		next, ok := sc.Peek()
		if !ok || !strings.HasPrefix(next.Trimmed(), "_") {
			break
		}
		sc.Next()
		tags = append(tags, next.Trimmed())
	}

	want := s.Tags()
	if len(tags) != len(want) {
		return &SchemaMismatchError{
			Kind:   s.Kind,
			Line:   start,
			Got:    len(tags),
			Want:   len(want),
			Reason: fmt.Sprintf("found %d columns, want %d", len(tags), len(want)),
		}
	}
	for i := range tags {
		if tags[i] != want[i] {
			return &SchemaMismatchError{
				Kind:   s.Kind,
				Line:   start + i,
				Reason: fmt.Sprintf("column %d is %s, want %s", i+1, tags[i], want[i]),
			}
		}
	}
	return nil
}

// ReadRows consumes data rows until a separator, a tag, another loop, a data
// block or the end of input. A row normally occupies one line; when a text
// field leaves a row short, the following lines continue it until the row is
// complete.
func ReadRows(sc *token.Scanner, s Schema) ([]Row, error) {
	var (
		rows     []Row
		cur      *Row
		afterTxt bool
	)
	finish := func() error {
		if cur == nil {
			return nil
		}
		if len(cur.Tokens) != s.Arity() {
			return &SchemaMismatchError{Kind: s.Kind, Line: cur.Line, Row: len(rows) + 1, Got: len(cur.Tokens), Want: s.Arity()}
		}
		rows = append(rows, *cur)
		cur = nil
		return nil
	}

	for {
		l, ok := sc.Peek()
		if !ok || endsRows(l) {
			break
		}
		if l.IsBlank() {
			sc.Next()
			continue
		}

		if l.IsTextFieldStart() {
			if cur == nil || len(cur.Tokens) >= s.Arity() {
				if err := finish(); err != nil {
					return nil, err
				}
				cur = &Row{Line: l.Num}
			}
			field, rest, err := sc.ReadTextField()
			if err != nil {
				return nil, fmt.Errorf("%s table: line %d: %w", s.Kind, l.Num, err)
			}
			cur.Tokens = append(cur.Tokens, field)
			cur.Tokens = append(cur.Tokens, rest...)
			afterTxt = true
			continue
		}

		sc.Next()
		toks, err := token.SplitLine(l.Text)
		if err != nil {
			return nil, fmt.Errorf("%s table: line %d: %w", s.Kind, l.Num, err)
		}
		if len(toks) == 0 {
			continue
		}
		if cur != nil && afterTxt && len(cur.Tokens) < s.Arity() {
			cur.Tokens = append(cur.Tokens, toks...)
		} else {
			if err := finish(); err != nil {
				return nil, err
			}
			cur = &Row{Line: l.Num, Tokens: toks}
		}
		afterTxt = false
	}
	if err := finish(); err != nil {
		return nil, err
	}
	return rows, nil
}

func endsRows(l token.Line) bool {
	t := l.Trimmed()
	if strings.HasPrefix(t, "#") || strings.HasPrefix(t, "_") {
		return true
	}
	lower := strings.ToLower(t)
	return lower == "loop_" || strings.HasPrefix(lower, "data_")
}

// Pair is one "_category.column value" item of the key-value form.
type Pair struct {
	Line   int
	Column string
	Value  token.Token
}

// ReadPairs consumes consecutive key-value items of one category. The value
// may follow the tag on the same line or, as a text field, on the next
// lines. Reading stops at the first line that is not a tag of category.
func ReadPairs(sc *token.Scanner, category string) ([]Pair, error) {
	var pairs []Pair
	prefix := "_" + category + "."
	for {
		l, ok := sc.Peek()
		if !ok {
			break
		}
		t := l.Trimmed()
		if !strings.HasPrefix(t, prefix) {
			break
		}
		sc.Next()

		toks, err := token.SplitLine(t)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", l.Num, err)
		}
		_, column, _ := SplitTag(toks[0].Value)
		p := Pair{Line: l.Num, Column: column}

		switch len(toks) {
		case 2:
			p.Value = toks[1]
		case 1:
			next, ok := sc.Peek()
			if !ok || !next.IsTextFieldStart() {
				return nil, fmt.Errorf("line %d: %s has no value", l.Num, toks[0].Value)
			}
			field, rest, err := sc.ReadTextField()
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", next.Num, err)
			}
			if len(rest) > 0 {
				return nil, fmt.Errorf("line %d: unexpected %q after text field", next.Num, rest[0].Value)
			}
			p.Value = field
		default:
			return nil, fmt.Errorf("line %d: %s has %d values, want 1", l.Num, toks[0].Value, len(toks)-1)
		}
		pairs = append(pairs, p)
	}
	return pairs, nil
}

// EncodePairs writes items in the key-value form, aligning values after the
// longest tag. Text field values go on the lines after their tag.
func EncodePairs(b *strings.Builder, category string, columns, values []string) error {
	if len(columns) != len(values) {
		return fmt.Errorf("%s: %d columns but %d values", category, len(columns), len(values))
	}
	width := 0
	for _, c := range columns {
		if n := len(category) + len(c) + 2; n > width {
			width = n
		}
	}
	for i, c := range columns {
		tag := "_" + category + "." + c
		b.WriteString(tag)
		if token.IsTextField(values[i]) {
			b.WriteByte('\n')
			b.WriteString(values[i])
			b.WriteByte('\n')
			continue
		}
		b.WriteString(strings.Repeat(" ", width-len(tag)+1))
		b.WriteString(values[i])
		b.WriteByte('\n')
	}
	return nil
}

// ReadSingleRow reads the key-value form of a one-row table and returns the
// row in schema column order.
func ReadSingleRow(sc *token.Scanner, s Schema) (Row, error) {
	line := sc.LineNum()
	pairs, err := ReadPairs(sc, s.Category)
	if err != nil {
		return Row{}, fmt.Errorf("%s table: %w", s.Kind, err)
	}
	if len(pairs) != s.Arity() {
		return Row{}, &SchemaMismatchError{
			Kind:   s.Kind,
			Line:   line,
			Row:    1,
			Got:    len(pairs),
			Want:   s.Arity(),
			Reason: fmt.Sprintf("found %d columns, want %d", len(pairs), s.Arity()),
		}
	}
	row := Row{Line: line, Tokens: make([]token.Token, len(pairs))}
	for i, p := range pairs {
		if p.Column != s.Columns[i] {
			return Row{}, &SchemaMismatchError{
				Kind:   s.Kind,
				Line:   p.Line,
				Reason: fmt.Sprintf("column %d is %s, want %s", i+1, s.Tag(p.Column), s.Tag(s.Columns[i])),
			}
		}
		row.Tokens[i] = p.Value
	}
	return row, nil
}

// Read reads a table in either form: a loop, or the key-value form used for
// tables with a single row.
func Read(sc *token.Scanner, s Schema) ([]Row, error) {
	l, ok := sc.Peek()
	if ok && strings.HasPrefix(l.Trimmed(), "_"+s.Category+".") {
		row, err := ReadSingleRow(sc, s)
		if err != nil {
			return nil, err
		}
		return []Row{row}, nil
	}
	if err := ReadHeader(sc, s); err != nil {
		return nil, err
	}
	return ReadRows(sc, s)
}
