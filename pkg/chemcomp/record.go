// Package chemcomp holds the in-memory model of one chemical component
// record: its header and the synonym, atom, bond, descriptor and identifier
// tables.
//
// The model is a plain aggregate. Cross-table checks live in package
// validate; text encoding lives in package codec.
package chemcomp

import (
	"slices"
	"strings"
	"time"
)

// Header is the identity and metadata of a component. Unknown values are
// nil pointers.
type Header struct {
	ID              string `validate:"required,compid"`
	Name            string `validate:"required"`
	Type            string `validate:"required"`
	PdbxType        *string
	Formula         string `validate:"required"`
	FormalCharge    *int
	CreateDate      *time.Time
	ModifyDate      *time.Time
	MolecularWeight *float64 `validate:"omitempty,gte=0"`
	OneLetterCode   *string
	ThreeLetterCode *string
	ParentCompID    *string
	Constants
}

// Synonym is an alternative name for the component.
type Synonym struct {
	Ordinal int
	CompID  string
	Name    string
}

// Atom is one atom of the component with its idealized coordinates.
type Atom struct {
	CompID          string
	AtomID          string
	AltAtomID       string
	ElementSymbol   string
	Charge          *int
	X, Y, Z         *float64
	ComponentAtomID string
	ComponentCompID string
	Ordinal         int
}

// BondOrder is the value_order of a bond.
type BondOrder string

const (
	BondSingle      BondOrder = "SING"
	BondDouble      BondOrder = "DOUB"
	BondTriple      BondOrder = "TRIP"
	BondQuadruple   BondOrder = "QUAD"
	BondAromatic    BondOrder = "AROM"
	BondPolymeric   BondOrder = "POLY"
	BondDelocalized BondOrder = "DELO"
	BondPi          BondOrder = "PI"
)

// BondOrders lists the recognized bond orders.
func BondOrders() []string {
	return []string{
		string(BondSingle), string(BondDouble), string(BondTriple), string(BondQuadruple),
		string(BondAromatic), string(BondPolymeric), string(BondDelocalized), string(BondPi),
	}
}

// Valid reports whether o is a recognized bond order.
func (o BondOrder) Valid() bool {
	return slices.Contains(BondOrders(), string(o))
}

// Multiplicity is the number of covalent bonds o stands for. Orders without
// an integral multiplicity return 0.
func (o BondOrder) Multiplicity() int {
	switch o {
	case BondSingle:
		return 1
	case BondDouble:
		return 2
	case BondTriple:
		return 3
	case BondQuadruple:
		return 4
	default:
		return 0
	}
}

// BondOrderFromMultiplicity is the inverse of Multiplicity for 1..4.
func BondOrderFromMultiplicity(n int) (BondOrder, bool) {
	switch n {
	case 1:
		return BondSingle, true
	case 2:
		return BondDouble, true
	case 3:
		return BondTriple, true
	case 4:
		return BondQuadruple, true
	default:
		return "", false
	}
}

// Bond connects two atoms of the same component.
type Bond struct {
	CompID  string
	AtomID1 string
	AtomID2 string
	Order   BondOrder
	Ordinal int
}

// Descriptor is a textual structure descriptor such as a SMILES or InChI.
type Descriptor struct {
	CompID     string
	Type       string
	Descriptor string
}

// Identifier is a systematic name or other identifier of the component.
type Identifier struct {
	CompID     string
	Type       string
	Identifier string
}

// Record is a complete component: header plus its tables. An empty table is
// a nil slice; parsing never yields an empty non-nil one.
type Record struct {
	Header      Header
	Synonyms    []Synonym
	Atoms       []Atom
	Bonds       []Bond
	Descriptors []Descriptor
	Identifiers []Identifier
}

// NewRecord builds a record that owns deep copies of the given header and
// tables. Empty tables become nil and dates become the UTC midnight of their
// calendar day, the form parsing produces.
func NewRecord(h Header, synonyms []Synonym, atoms []Atom, bonds []Bond, descriptors []Descriptor, identifiers []Identifier) Record {
	rec := Record{
		Header:      h,
		Synonyms:    synonyms,
		Atoms:       atoms,
		Bonds:       bonds,
		Descriptors: descriptors,
		Identifiers: identifiers,
	}.Clone()
	rec.Header.CreateDate = calendarDate(rec.Header.CreateDate)
	rec.Header.ModifyDate = calendarDate(rec.Header.ModifyDate)
	return rec
}

// Clone returns a copy of r that shares no memory with it. Empty tables
// become nil.
func (r Record) Clone() Record {
	out := Record{
		Header:      r.Header.Clone(),
		Synonyms:    cloneTable(r.Synonyms),
		Atoms:       cloneTable(r.Atoms),
		Bonds:       cloneTable(r.Bonds),
		Descriptors: cloneTable(r.Descriptors),
		Identifiers: cloneTable(r.Identifiers),
	}
	for i := range out.Atoms {
		a := &out.Atoms[i]
		a.Charge = clonePtr(a.Charge)
		a.X, a.Y, a.Z = clonePtr(a.X), clonePtr(a.Y), clonePtr(a.Z)
	}
	return out
}

// Clone returns a copy of h with its optional values copied.
func (h Header) Clone() Header {
	h.PdbxType = clonePtr(h.PdbxType)
	h.FormalCharge = clonePtr(h.FormalCharge)
	h.CreateDate = clonePtr(h.CreateDate)
	h.ModifyDate = clonePtr(h.ModifyDate)
	h.MolecularWeight = clonePtr(h.MolecularWeight)
	h.OneLetterCode = clonePtr(h.OneLetterCode)
	h.ThreeLetterCode = clonePtr(h.ThreeLetterCode)
	h.ParentCompID = clonePtr(h.ParentCompID)
	return h
}

func cloneTable[T any](rows []T) []T {
	if len(rows) == 0 {
		return nil
	}
	return slices.Clone(rows)
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func calendarDate(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	y, m, d := t.Date()
	return Ptr(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
}

// ID is the component code.
func (r *Record) ID() string {
	return r.Header.ID
}

// AtomByID returns the atom with the given atom_id.
func (r *Record) AtomByID(id string) (Atom, bool) {
	for _, a := range r.Atoms {
		if a.AtomID == id {
			return a, true
		}
	}
	return Atom{}, false
}

// Names returns the lower-cased component name, synonyms and identifiers,
// without duplicates, in that order.
func (r *Record) Names() []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(s string) {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" {
			return
		}
		if _, ok := seen[s]; ok {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	add(r.Header.Name)
	for _, s := range r.Synonyms {
		add(s.Name)
	}
	for _, id := range r.Identifiers {
		add(id.Identifier)
	}
	return out
}

// NormalizedFormula is the formula with spaces removed, upper-cased.
func (r *Record) NormalizedFormula() string {
	return NormalizeFormula(r.Header.Formula)
}

// NormalizeFormula removes spaces and upper-cases a formula.
func NormalizeFormula(f string) string {
	return strings.ToUpper(strings.Join(strings.Fields(f), ""))
}

// Ptr returns a pointer to v, for optional fields.
func Ptr[T any](v T) *T {
	return &v
}
