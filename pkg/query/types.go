package query

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/segmentio/ksuid"

	"github.com/ssargent/chemcomp/pkg/chemcomp"
)

// Indexed fields of a component record
const (
	FieldID              = "id"
	FieldName            = "name"
	FieldFormula         = "formula"
	FieldDescriptor      = "descriptor"
	FieldWeight          = "formula_weight"
	FieldType            = "type"
	FieldOneLetterCode   = "one_letter_code"
	FieldThreeLetterCode = "three_letter_code"
)

// Fields lists every field RecordExtractor understands.
func Fields() []string {
	return []string{
		FieldID, FieldName, FieldFormula, FieldDescriptor,
		FieldWeight, FieldType, FieldOneLetterCode, FieldThreeLetterCode,
	}
}

// FieldExtractor defines how to extract indexable values from a record and
// how to bring query values into the same form
type FieldExtractor interface {
	Extract(rec *chemcomp.Record, field string) ([]interface{}, error)
	Normalize(field string, value interface{}) (interface{}, error)
}

// RecordExtractor extracts the indexed fields of a component record. Names
// are matched case-insensitively and formulas ignore spacing and case.
type RecordExtractor struct{}

// Extract implements FieldExtractor. Unknown optional values yield no entries.
func (e *RecordExtractor) Extract(rec *chemcomp.Record, field string) ([]interface{}, error) {
	h := &rec.Header
	switch field {
	case FieldID:
		return []interface{}{h.ID}, nil
	case FieldName:
		names := rec.Names()
		out := make([]interface{}, len(names))
		for i, n := range names {
			out[i] = n
		}
		return out, nil
	case FieldFormula:
		if f := rec.NormalizedFormula(); f != "" {
			return []interface{}{f}, nil
		}
		return nil, nil
	case FieldDescriptor:
		out := make([]interface{}, 0, len(rec.Descriptors))
		for _, d := range rec.Descriptors {
			out = append(out, d.Descriptor)
		}
		return out, nil
	case FieldWeight:
		if h.MolecularWeight == nil {
			return nil, nil
		}
		return []interface{}{*h.MolecularWeight}, nil
	case FieldType:
		return []interface{}{strings.ToUpper(h.Type)}, nil
	case FieldOneLetterCode:
		return optional(h.OneLetterCode), nil
	case FieldThreeLetterCode:
		return optional(h.ThreeLetterCode), nil
	default:
		return nil, fmt.Errorf("field '%s' is not indexed", field)
	}
}

func optional(s *string) []interface{} {
	if s == nil {
		return nil
	}
	return []interface{}{*s}
}

// Normalize implements FieldExtractor
func (e *RecordExtractor) Normalize(field string, value interface{}) (interface{}, error) {
	if field == FieldWeight {
		switch v := value.(type) {
		case float64:
			return v, nil
		case int:
			return float64(v), nil
		case int64:
			return float64(v), nil
		case string:
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				return nil, fmt.Errorf("field '%s' needs a number, got %q", field, v)
			}
			return f, nil
		default:
			return nil, fmt.Errorf("field '%s' needs a number, got %T", field, value)
		}
	}

	s, ok := value.(string)
	if !ok {
		return nil, fmt.Errorf("field '%s' needs a string, got %T", field, value)
	}
	switch field {
	case FieldName:
		return strings.ToLower(strings.TrimSpace(s)), nil
	case FieldFormula:
		return chemcomp.NormalizeFormula(s), nil
	case FieldType:
		return strings.ToUpper(s), nil
	case FieldID, FieldDescriptor, FieldOneLetterCode, FieldThreeLetterCode:
		return s, nil
	default:
		return nil, fmt.Errorf("field '%s' is not indexed", field)
	}
}

// FieldQuery represents a single field-based query condition
type FieldQuery struct {
	Field    string      // Field name to query (e.g., "name", "formula_weight")
	Operator string      // Comparison operator: "=", "^", ">", "<", ">=", "<="
	Value    interface{} // Value to compare against
}

// Validate checks if the query is properly formed
func (q *FieldQuery) Validate() error {
	if q.Field == "" {
		return fmt.Errorf("field name cannot be empty")
	}
	if q.Operator == "" {
		return fmt.Errorf("operator cannot be empty")
	}
	validOps := map[string]bool{
		"=": true, "^": true, ">": true, "<": true, ">=": true, "<=": true,
	}
	if !validOps[q.Operator] {
		return fmt.Errorf("invalid operator: %s", q.Operator)
	}
	if q.Value == nil {
		return fmt.Errorf("value cannot be nil")
	}
	if q.Operator == "^" {
		if _, ok := q.Value.(string); !ok {
			return fmt.Errorf("prefix operator needs a string value, got %T", q.Value)
		}
	}
	return nil
}

// QueryResult represents a single query result
type QueryResult struct {
	CompID   string      // The component id
	Revision ksuid.KSUID // Revision of the library entry when it was indexed
}

// QueryIterator provides streaming access to query results
type QueryIterator interface {
	Next() bool
	Result() QueryResult
	Close() error
}

// QueryEngine handles query execution
type QueryEngine interface {
	ExecuteQuery(ctx context.Context, query FieldQuery) (QueryIterator, error)
	ExecuteRangeQuery(ctx context.Context, startQuery, endQuery FieldQuery) (QueryIterator, error)
}

// Collect drains it into a slice and closes it.
func Collect(it QueryIterator) ([]QueryResult, error) {
	var out []QueryResult
	for it.Next() {
		out = append(out, it.Result())
	}
	return out, it.Close()
}
