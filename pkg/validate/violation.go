// Package validate checks a component record for cross-table consistency.
//
// Rules collect every problem they find instead of stopping at the first.
// Violations of severity Error make a record unusable; warnings are reported
// but never block serialization or parsing.
package validate

import (
	"fmt"
	"strings"
)

// Severity captures the outcome of a rule.
type Severity string

const (
	// SeverityError blocks serialization and parsing.
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Violation codes.
const (
	CodeCompIDMismatch          = "comp_id_mismatch"
	CodeDuplicateAtomID         = "duplicate_atom_id"
	CodeUnknownAtomReference    = "unknown_atom_reference"
	CodeSelfBond                = "self_bond"
	CodeDuplicateBond           = "duplicate_bond"
	CodeOrdinalSequence         = "ordinal_sequence"
	CodeInvalidHeaderField      = "invalid_header_field"
	CodeInvalidBondOrder        = "invalid_bond_order"
	CodeFormalChargeMismatch    = "formal_charge_mismatch"
	CodeEmptyDescriptors        = "empty_descriptors"
	CodeMissingMolecularWeight  = "missing_molecular_weight"
	CodeComponentCompIDMismatch = "component_comp_id_mismatch"
	CodeUnknownComponentType    = "unknown_component_type"
	CodeUnencodableValue        = "unencodable_value"
	CodeTruncatedDate           = "truncated_date"
)

// Table names used in violations.
const (
	TableHeader      = "header"
	TableSynonyms    = "synonyms"
	TableAtoms       = "atoms"
	TableBonds       = "bonds"
	TableDescriptors = "descriptors"
	TableIdentifiers = "identifiers"
)

// Violation reports one failed check. Row is the ordinal of the offending row,
// or its 1-based position for tables without ordinals. It is 0 for the header.
type Violation struct {
	Severity Severity
	Code     string
	Message  string
	Table    string
	Row      int
}

func (v Violation) String() string {
	if v.Table == TableHeader || v.Row == 0 {
		return fmt.Sprintf("%s %s: %s", v.Severity, v.Code, v.Message)
	}
	return fmt.Sprintf("%s %s: %s row %d: %s", v.Severity, v.Code, v.Table, v.Row, v.Message)
}

// Result aggregates violations from the engine.
type Result struct {
	Violations []Violation
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

func (r *Result) add(sev Severity, code, table string, row int, format string, args ...any) {
	r.Violations = append(r.Violations, Violation{
		Severity: sev,
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		Table:    table,
		Row:      row,
	})
}

func (r *Result) errorf(code, table string, row int, format string, args ...any) {
	r.add(SeverityError, code, table, row, format, args...)
}

func (r *Result) warnf(code, table string, row int, format string, args ...any) {
	r.add(SeverityWarning, code, table, row, format, args...)
}

// HasErrors returns true if any violation has severity Error.
func (r Result) HasErrors() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Errors returns the violations of severity Error.
func (r Result) Errors() []Violation {
	return r.filter(SeverityError)
}

// Warnings returns the violations of severity Warning.
func (r Result) Warnings() []Violation {
	return r.filter(SeverityWarning)
}

func (r Result) filter(sev Severity) []Violation {
	var out []Violation
	for _, v := range r.Violations {
		if v.Severity == sev {
			out = append(out, v)
		}
	}
	return out
}

// Err returns a *ValidationError carrying every violation when any of them is
// an error, and nil otherwise.
func (r Result) Err() error {
	if !r.HasErrors() {
		return nil
	}
	return &ValidationError{Violations: append([]Violation(nil), r.Violations...)}
}

// ValidationError is returned when a record has hard violations.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	var msgs []string
	for _, v := range e.Violations {
		if v.Severity == SeverityError {
			msgs = append(msgs, v.String())
		}
	}
	return fmt.Sprintf("record failed validation with %d error(s): %s", len(msgs), strings.Join(msgs, "; "))
}

// Has reports whether a violation with code is present.
func (e *ValidationError) Has(code string) bool {
	for _, v := range e.Violations {
		if v.Code == code {
			return true
		}
	}
	return false
}
