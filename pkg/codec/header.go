package codec

import (
	"fmt"
	"strings"

	"github.com/ssargent/chemcomp/pkg/chemcomp"
	"github.com/ssargent/chemcomp/pkg/loop"
	"github.com/ssargent/chemcomp/pkg/token"
)

const headerCategory = "chem_comp"

type headerField struct {
	name     string
	required bool
	format   func(h *chemcomp.Header, weightPrec int) string
	parse    func(h *chemcomp.Header, t token.Token) error
}

// headerFields lists the _chem_comp keywords in output order.
var headerFields = []headerField{
	{
		name:     "id",
		required: true,
		format:   func(h *chemcomp.Header, _ int) string { return token.FormatString(h.ID) },
		parse: func(h *chemcomp.Header, t token.Token) (err error) {
			h.ID, err = token.ParseString(t)
			return err
		},
	},
	{
		name:     "name",
		required: true,
		format:   func(h *chemcomp.Header, _ int) string { return token.FormatString(h.Name) },
		parse: func(h *chemcomp.Header, t token.Token) (err error) {
			h.Name, err = token.ParseString(t)
			return err
		},
	},
	{
		name:     "type",
		required: true,
		format:   func(h *chemcomp.Header, _ int) string { return token.FormatString(h.Type) },
		parse: func(h *chemcomp.Header, t token.Token) (err error) {
			h.Type, err = token.ParseString(t)
			return err
		},
	},
	{
		name:   "pdbx_type",
		format: func(h *chemcomp.Header, _ int) string { return token.FormatOptionalString(h.PdbxType) },
		parse: func(h *chemcomp.Header, t token.Token) (err error) {
			h.PdbxType, err = token.ParseOptionalString(t)
			return err
		},
	},
	{
		name:     "formula",
		required: true,
		format:   func(h *chemcomp.Header, _ int) string { return token.FormatString(h.Formula) },
		parse: func(h *chemcomp.Header, t token.Token) (err error) {
			h.Formula, err = token.ParseString(t)
			return err
		},
	},
	{
		name:   "mon_nstd_parent_comp_id",
		format: func(h *chemcomp.Header, _ int) string { return token.FormatOptionalString(h.ParentCompID) },
		parse: func(h *chemcomp.Header, t token.Token) (err error) {
			h.ParentCompID, err = token.ParseOptionalString(t)
			return err
		},
	},
	{
		name:   "pdbx_formal_charge",
		format: func(h *chemcomp.Header, _ int) string { return token.FormatOptionalInt(h.FormalCharge) },
		parse: func(h *chemcomp.Header, t token.Token) (err error) {
			h.FormalCharge, err = token.ParseOptionalInt(t)
			return err
		},
	},
	{
		name:   "pdbx_initial_date",
		format: func(h *chemcomp.Header, _ int) string { return token.FormatOptionalDate(h.CreateDate) },
		parse: func(h *chemcomp.Header, t token.Token) (err error) {
			h.CreateDate, err = token.ParseOptionalDate(t)
			return err
		},
	},
	{
		name:   "pdbx_modified_date",
		format: func(h *chemcomp.Header, _ int) string { return token.FormatOptionalDate(h.ModifyDate) },
		parse: func(h *chemcomp.Header, t token.Token) (err error) {
			h.ModifyDate, err = token.ParseOptionalDate(t)
			return err
		},
	},
	{
		name:     "pdbx_ambiguous_flag",
		required: true,
		format:   func(h *chemcomp.Header, _ int) string { return token.FormatString(string(h.AmbiguousFlag)) },
		parse: func(h *chemcomp.Header, t token.Token) error {
			v, err := token.ParseEnum(t, chemcomp.AmbiguousFlags())
			h.AmbiguousFlag = chemcomp.AmbiguousFlag(v)
			return err
		},
	},
	{
		name:     "pdbx_release_status",
		required: true,
		format:   func(h *chemcomp.Header, _ int) string { return token.FormatString(string(h.ReleaseStatus)) },
		parse: func(h *chemcomp.Header, t token.Token) error {
			v, err := token.ParseEnum(t, chemcomp.ReleaseStatuses())
			h.ReleaseStatus = chemcomp.ReleaseStatus(v)
			return err
		},
	},
	{
		name: "formula_weight",
		format: func(h *chemcomp.Header, prec int) string {
			return token.FormatOptionalFloat(h.MolecularWeight, prec)
		},
		parse: func(h *chemcomp.Header, t token.Token) (err error) {
			h.MolecularWeight, err = token.ParseOptionalFloat(t)
			return err
		},
	},
	{
		name:   "one_letter_code",
		format: func(h *chemcomp.Header, _ int) string { return token.FormatOptionalString(h.OneLetterCode) },
		parse: func(h *chemcomp.Header, t token.Token) (err error) {
			h.OneLetterCode, err = token.ParseOptionalString(t)
			return err
		},
	},
	{
		name:   "three_letter_code",
		format: func(h *chemcomp.Header, _ int) string { return token.FormatOptionalString(h.ThreeLetterCode) },
		parse: func(h *chemcomp.Header, t token.Token) (err error) {
			h.ThreeLetterCode, err = token.ParseOptionalString(t)
			return err
		},
	},
	{
		name:     "pdbx_processing_site",
		required: true,
		format:   func(h *chemcomp.Header, _ int) string { return token.FormatString(string(h.ProcessingSite)) },
		parse: func(h *chemcomp.Header, t token.Token) error {
			v, err := token.ParseEnum(t, chemcomp.ProcessingSites())
			h.ProcessingSite = chemcomp.ProcessingSite(v)
			return err
		},
	},
}

var headerFieldIndex = func() map[string]int {
	m := make(map[string]int, len(headerFields))
	for i, f := range headerFields {
		m[f.name] = i
	}
	return m
}()

func encodeHeader(b *strings.Builder, h *chemcomp.Header, weightPrec int) error {
	b.WriteString("data_")
	b.WriteString(h.ID)
	b.WriteString("\n#\n")

	columns := make([]string, len(headerFields))
	values := make([]string, len(headerFields))
	for i, f := range headerFields {
		columns[i] = f.name
		values[i] = f.format(h, weightPrec)
	}
	return loop.EncodePairs(b, headerCategory, columns, values)
}

// decodeHeader reads the data block line and the _chem_comp items.
func decodeHeader(sc *token.Scanner) (chemcomp.Header, error) {
	var h chemcomp.Header

	sc.SkipCosmetic()
	l, ok := sc.Next()
	block, isBlock := blockName(l.Text)
	if !ok || !isBlock {
		return h, &ParseError{Section: SectionHeader, Line: l.Num, Reason: fmt.Sprintf("expected data_ block, found %q", l.Trimmed())}
	}

	sc.SkipCosmetic()
	start := sc.LineNum()
	pairs, err := loop.ReadPairs(sc, headerCategory)
	if err != nil {
		return h, sectionError(SectionHeader, start, err)
	}
	if len(pairs) == 0 {
		return h, &ParseError{Section: SectionHeader, Line: start, Reason: "no _chem_comp items"}
	}

	seen := make(map[string]int, len(pairs))
	for _, p := range pairs {
		i, known := headerFieldIndex[p.Column]
		if !known {
			return h, &ParseError{Section: SectionHeader, Line: p.Line, Reason: fmt.Sprintf("unknown keyword _%s.%s", headerCategory, p.Column)}
		}
		if prev, dup := seen[p.Column]; dup {
			return h, &ParseError{Section: SectionHeader, Line: p.Line, Reason: fmt.Sprintf("duplicate keyword _%s.%s, first on line %d", headerCategory, p.Column, prev)}
		}
		seen[p.Column] = p.Line
		if err := headerFields[i].parse(&h, p.Value); err != nil {
			return h, &ParseError{Section: SectionHeader, Line: p.Line, Reason: "invalid " + p.Column, Err: err}
		}
	}

	for _, f := range headerFields {
		if _, ok := seen[f.name]; f.required && !ok {
			return h, &ParseError{Section: SectionHeader, Line: start, Reason: fmt.Sprintf("missing keyword _%s.%s", headerCategory, f.name)}
		}
	}

	if block != h.ID {
		return h, &ParseError{Section: SectionHeader, Line: l.Num, Reason: fmt.Sprintf("block data_%s does not match _chem_comp.id %s", block, h.ID)}
	}
	return h, nil
}

// blockName returns the name of a "data_<name>" line.
func blockName(line string) (string, bool) {
	t := strings.TrimSpace(line)
	if len(t) < 5 || !strings.EqualFold(t[:5], "data_") {
		return "", false
	}
	return t[5:], true
}
