package library

import (
	"github.com/segmentio/ksuid"

	"github.com/ssargent/chemcomp/pkg/chemcomp"
	"github.com/ssargent/chemcomp/pkg/query"
)

// Entry is a stored component and the revision it was added under
type Entry struct {
	Record   chemcomp.Record
	Revision ksuid.KSUID
}

// By selects the key Find matches on
type By string

const (
	ByID         By = query.FieldID
	ByName       By = query.FieldName
	ByFormula    By = query.FieldFormula
	ByDescriptor By = query.FieldDescriptor
)

// Placeholders returned by the code translations for unknown components
const (
	UnknownOneLetterCode   = "X"
	UnknownThreeLetterCode = "XXX"
)

// Stats holds statistics about the library
type Stats struct {
	Components int
	Postings   map[string]int // index field -> posting count
}

// Errors
var (
	ErrNotFound  = &LibraryError{"component not found"}
	ErrInvalidID = &LibraryError{"invalid component id"}
)

// LibraryError represents a component library error
type LibraryError struct {
	Message string
}

func (e *LibraryError) Error() string {
	return e.Message
}
