package loop

import (
	"fmt"
	"strings"

	"github.com/ssargent/chemcomp/pkg/token"
)

// Column binds one schema column to a field of T.
type Column[T any] struct {
	Name   string
	Format func(*T) string
	Parse  func(*T, token.Token) error
}

// Table is a typed codec for one table kind. Its columns must match the
// schema in name and order.
type Table[T any] struct {
	schema  Schema
	columns []Column[T]
}

// NewTable checks columns against s and returns the table codec.
func NewTable[T any](s Schema, columns ...Column[T]) (*Table[T], error) {
	if len(columns) != s.Arity() {
		return nil, fmt.Errorf("%s table: %d columns bound, schema has %d", s.Kind, len(columns), s.Arity())
	}
	for i, c := range columns {
		if c.Name != s.Columns[i] {
			return nil, fmt.Errorf("%s table: column %d bound as %s, schema has %s", s.Kind, i+1, c.Name, s.Columns[i])
		}
		if c.Format == nil || c.Parse == nil {
			return nil, fmt.Errorf("%s table: column %s needs both format and parse", s.Kind, c.Name)
		}
	}
	return &Table[T]{schema: s, columns: columns}, nil
}

// MustTable is NewTable for statically known bindings.
func MustTable[T any](s Schema, columns ...Column[T]) *Table[T] {
	t, err := NewTable(s, columns...)
	if err != nil {
		panic(err)
	}
	return t
}

// Schema returns the table schema.
func (t *Table[T]) Schema() Schema {
	return t.schema
}

// Cells formats every row into its column cells.
func (t *Table[T]) Cells(rows []T) [][]string {
	out := make([][]string, len(rows))
	for i := range rows {
		cells := make([]string, len(t.columns))
		for j, c := range t.columns {
			cells[j] = c.Format(&rows[i])
		}
		out[i] = cells
	}
	return out
}

// Encode writes rows as a loop table.
func (t *Table[T]) Encode(b *strings.Builder, rows []T) error {
	return Encode(b, t.schema, t.Cells(rows))
}

// CellError reports a cell whose value does not parse.
type CellError struct {
	Kind   Kind
	Line   int
	Row    int
	Column string
	Err    error
}

func (e *CellError) Error() string {
	return fmt.Sprintf("%s table: line %d: row %d: %s: %v", e.Kind, e.Line, e.Row, e.Column, e.Err)
}

func (e *CellError) Unwrap() error {
	return e.Err
}

// Decode converts rows into values of T.
func (t *Table[T]) Decode(rows []Row) ([]T, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	out := make([]T, len(rows))
	for i, r := range rows {
		if len(r.Tokens) != len(t.columns) {
			return nil, &SchemaMismatchError{Kind: t.schema.Kind, Line: r.Line, Row: i + 1, Got: len(r.Tokens), Want: len(t.columns)}
		}
		for j, c := range t.columns {
			if err := c.Parse(&out[i], r.Tokens[j]); err != nil {
				return nil, &CellError{Kind: t.schema.Kind, Line: r.Line, Row: i + 1, Column: c.Name, Err: err}
			}
		}
	}
	return out, nil
}

// Read reads a table in either form from sc and decodes it.
func (t *Table[T]) Read(sc *token.Scanner) ([]T, error) {
	rows, err := Read(sc, t.schema)
	if err != nil {
		return nil, err
	}
	return t.Decode(rows)
}
