package validate

import (
	"slices"
	"strings"
	"time"

	"github.com/ssargent/chemcomp/pkg/chemcomp"
	"github.com/ssargent/chemcomp/pkg/token"
)

// CompIDRule checks that every table row belongs to the header's component.
// An atom whose pdbx_component_comp_id differs only warns.
func CompIDRule() Rule {
	return NewRule("comp_id", func(rec *chemcomp.Record) Result {
		var res Result
		id := rec.Header.ID
		mismatch := func(table string, row int, got string) {
			res.errorf(CodeCompIDMismatch, table, row, "comp_id %q does not match component %q", got, id)
		}
		for _, s := range rec.Synonyms {
			if s.CompID != id {
				mismatch(TableSynonyms, s.Ordinal, s.CompID)
			}
		}
		for _, a := range rec.Atoms {
			if a.CompID != id {
				mismatch(TableAtoms, a.Ordinal, a.CompID)
			}
			if a.ComponentCompID != "" && a.ComponentCompID != id {
				res.warnf(CodeComponentCompIDMismatch, TableAtoms, a.Ordinal,
					"atom %s: pdbx_component_comp_id %q does not match component %q", a.AtomID, a.ComponentCompID, id)
			}
		}
		for _, b := range rec.Bonds {
			if b.CompID != id {
				mismatch(TableBonds, b.Ordinal, b.CompID)
			}
		}
		for i, d := range rec.Descriptors {
			if d.CompID != id {
				mismatch(TableDescriptors, i+1, d.CompID)
			}
		}
		for i, ident := range rec.Identifiers {
			if ident.CompID != id {
				mismatch(TableIdentifiers, i+1, ident.CompID)
			}
		}
		return res
	})
}

// OrdinalRule checks that synonym, atom and bond ordinals run 1, 2, 3, ... in
// row order.
func OrdinalRule() Rule {
	return NewRule("ordinals", func(rec *chemcomp.Record) Result {
		var res Result
		check := func(table string, ordinals []int) {
			for i, o := range ordinals {
				if o != i+1 {
					res.errorf(CodeOrdinalSequence, table, o, "ordinal %d at position %d, want %d", o, i+1, i+1)
				}
			}
		}
		check(TableSynonyms, ordinals(rec.Synonyms, func(s chemcomp.Synonym) int { return s.Ordinal }))
		check(TableAtoms, ordinals(rec.Atoms, func(a chemcomp.Atom) int { return a.Ordinal }))
		check(TableBonds, ordinals(rec.Bonds, func(b chemcomp.Bond) int { return b.Ordinal }))
		return res
	})
}

func ordinals[T any](rows []T, ordinal func(T) int) []int {
	out := make([]int, len(rows))
	for i, r := range rows {
		out[i] = ordinal(r)
	}
	return out
}

// AtomRule checks that atom ids are unique.
func AtomRule() Rule {
	return NewRule("atoms", func(rec *chemcomp.Record) Result {
		var res Result
		first := make(map[string]int, len(rec.Atoms))
		for _, a := range rec.Atoms {
			if prev, dup := first[a.AtomID]; dup {
				res.errorf(CodeDuplicateAtomID, TableAtoms, a.Ordinal, "atom_id %s already used by ordinal %d", a.AtomID, prev)
				continue
			}
			first[a.AtomID] = a.Ordinal
		}
		return res
	})
}

// BondRule checks that bonds join two distinct known atoms, that no atom pair
// is bonded twice and that the bond order is recognized.
func BondRule() Rule {
	return NewRule("bonds", func(rec *chemcomp.Record) Result {
		var res Result
		atoms := make(map[string]struct{}, len(rec.Atoms))
		for _, a := range rec.Atoms {
			atoms[a.AtomID] = struct{}{}
		}

		seen := make(map[[2]string]int, len(rec.Bonds))
		for _, b := range rec.Bonds {
			for _, ref := range []string{b.AtomID1, b.AtomID2} {
				if _, ok := atoms[ref]; !ok {
					res.errorf(CodeUnknownAtomReference, TableBonds, b.Ordinal, "bond references unknown atom %s", ref)
				}
			}
			if b.AtomID1 == b.AtomID2 {
				res.errorf(CodeSelfBond, TableBonds, b.Ordinal, "atom %s is bonded to itself", b.AtomID1)
			}
			if !b.Order.Valid() {
				res.errorf(CodeInvalidBondOrder, TableBonds, b.Ordinal, "value_order %q is not one of %s", b.Order, strings.Join(chemcomp.BondOrders(), " "))
			}

			key := [2]string{b.AtomID1, b.AtomID2}
			if key[0] > key[1] {
				key[0], key[1] = key[1], key[0]
			}
			if prev, dup := seen[key]; dup {
				res.errorf(CodeDuplicateBond, TableBonds, b.Ordinal, "atoms %s and %s are already bonded by ordinal %d", b.AtomID1, b.AtomID2, prev)
				continue
			}
			seen[key] = b.Ordinal
		}
		return res
	})
}

// ChargeRule compares the sum of atom charges with the formal charge when
// both are fully known. The disagreement is a warning unless strict is set.
func ChargeRule(strict bool) Rule {
	return NewRule("charge", func(rec *chemcomp.Record) Result {
		var res Result
		if rec.Header.FormalCharge == nil || len(rec.Atoms) == 0 {
			return res
		}
		sum := 0
		for _, a := range rec.Atoms {
			if a.Charge == nil {
				return res
			}
			sum += *a.Charge
		}
		if sum == *rec.Header.FormalCharge {
			return res
		}
		sev := SeverityWarning
		if strict {
			sev = SeverityError
		}
		res.add(sev, CodeFormalChargeMismatch, TableHeader, 0,
			"atom charges sum to %d but formal charge is %d", sum, *rec.Header.FormalCharge)
		return res
	})
}

// CompletenessRule warns about data a complete definition is expected to
// carry.
func CompletenessRule() Rule {
	return NewRule("completeness", func(rec *chemcomp.Record) Result {
		var res Result
		if len(rec.Descriptors) == 0 {
			res.warnf(CodeEmptyDescriptors, TableDescriptors, 0, "component %s has no descriptors", rec.Header.ID)
		}
		if rec.Header.MolecularWeight == nil {
			res.warnf(CodeMissingMolecularWeight, TableHeader, 0, "component %s has no formula weight", rec.Header.ID)
		}
		if rec.Header.Type != "" && !slices.Contains(chemcomp.ComponentTypes(), strings.ToUpper(rec.Header.Type)) {
			res.warnf(CodeUnknownComponentType, TableHeader, 0, "type %q is not a recognized component type", rec.Header.Type)
		}
		return res
	})
}

// EncodingRule rejects string values the text format cannot carry unchanged
// and warns about dates that carry more than a calendar day.
func EncodingRule() Rule {
	return NewRule("encoding", func(rec *chemcomp.Record) Result {
		var res Result
		check := func(table string, row int, field, value string) {
			if err := token.Encodable(value); err != nil {
				res.errorf(CodeUnencodableValue, table, row, "%s: %v", field, err)
			}
		}
		checkOptional := func(field string, value *string) {
			if value != nil {
				check(TableHeader, 0, field, *value)
			}
		}
		checkDate := func(field string, value *time.Time) {
			if value != nil && !token.IsCalendarDate(*value) {
				res.warnf(CodeTruncatedDate, TableHeader, 0, "%s %s is written as %s",
					field, value.Format(time.RFC3339Nano), token.FormatDate(*value))
			}
		}

		h := &rec.Header
		check(TableHeader, 0, "name", h.Name)
		check(TableHeader, 0, "type", h.Type)
		check(TableHeader, 0, "formula", h.Formula)
		checkOptional("pdbx_type", h.PdbxType)
		checkOptional("one_letter_code", h.OneLetterCode)
		checkOptional("three_letter_code", h.ThreeLetterCode)
		checkOptional("mon_nstd_parent_comp_id", h.ParentCompID)
		checkDate("pdbx_initial_date", h.CreateDate)
		checkDate("pdbx_modified_date", h.ModifyDate)

		for _, s := range rec.Synonyms {
			check(TableSynonyms, s.Ordinal, "name", s.Name)
		}
		for _, a := range rec.Atoms {
			check(TableAtoms, a.Ordinal, "atom_id", a.AtomID)
			check(TableAtoms, a.Ordinal, "alt_atom_id", a.AltAtomID)
			check(TableAtoms, a.Ordinal, "type_symbol", a.ElementSymbol)
			check(TableAtoms, a.Ordinal, "pdbx_component_atom_id", a.ComponentAtomID)
			check(TableAtoms, a.Ordinal, "pdbx_component_comp_id", a.ComponentCompID)
		}
		for i, d := range rec.Descriptors {
			check(TableDescriptors, i+1, "type", d.Type)
			check(TableDescriptors, i+1, "descriptor", d.Descriptor)
		}
		for i, ident := range rec.Identifiers {
			check(TableIdentifiers, i+1, "type", ident.Type)
			check(TableIdentifiers, i+1, "identifier", ident.Identifier)
		}
		return res
	})
}
