package codec

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ssargent/chemcomp/pkg/loop"
)

// Section is a stage of the record layout. Sections appear in declaration
// order.
type Section int

const (
	SectionHeader Section = iota
	SectionSynonymLoop
	SectionAtomLoop
	SectionBondLoop
	SectionDescriptorLoop
	SectionIdentifierLoop
	SectionEnd
)

var sectionNames = [...]string{
	SectionHeader:         "header",
	SectionSynonymLoop:    "synonym loop",
	SectionAtomLoop:       "atom loop",
	SectionBondLoop:       "bond loop",
	SectionDescriptorLoop: "descriptor loop",
	SectionIdentifierLoop: "identifier loop",
	SectionEnd:            "end",
}

func (s Section) String() string {
	if s < 0 || int(s) >= len(sectionNames) {
		return fmt.Sprintf("section(%d)", int(s))
	}
	return sectionNames[s]
}

// ParseError reports a structural failure while decoding text. Row is the
// 1-based row of a loop section, or 0.
type ParseError struct {
	Section Section
	Line    int
	Row     int
	Reason  string
	Err     error
}

func (e *ParseError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "parse error in %s at line %d", e.Section, e.Line)
	if e.Row > 0 {
		fmt.Fprintf(&b, ", row %d", e.Row)
	}
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// sectionError positions err inside section, taking the line and row from
// the loop errors that carry them.
func sectionError(section Section, line int, err error) *ParseError {
	pe := &ParseError{Section: section, Line: line, Err: err}

	var sm *loop.SchemaMismatchError
	var ce *loop.CellError
	switch {
	case errors.As(err, &ce):
		pe.Line, pe.Row = ce.Line, ce.Row
		pe.Reason = "invalid " + ce.Column
	case errors.As(err, &sm):
		if sm.Line > 0 {
			pe.Line = sm.Line
		}
		pe.Row = sm.Row
		pe.Reason = "schema mismatch"
	}
	return pe
}
