package codec

import (
	"github.com/ssargent/chemcomp/pkg/chemcomp"
	"github.com/ssargent/chemcomp/pkg/loop"
	"github.com/ssargent/chemcomp/pkg/token"
)

// tables holds the typed codecs of the five loop tables.
type tables struct {
	synonyms    *loop.Table[chemcomp.Synonym]
	atoms       *loop.Table[chemcomp.Atom]
	bonds       *loop.Table[chemcomp.Bond]
	descriptors *loop.Table[chemcomp.Descriptor]
	identifiers *loop.Table[chemcomp.Identifier]
}

func stringColumn[T any](name string, field func(*T) *string) loop.Column[T] {
	return loop.Column[T]{
		Name:   name,
		Format: func(r *T) string { return token.FormatString(*field(r)) },
		Parse: func(r *T, t token.Token) (err error) {
			*field(r), err = token.ParseString(t)
			return err
		},
	}
}

func intColumn[T any](name string, field func(*T) *int) loop.Column[T] {
	return loop.Column[T]{
		Name:   name,
		Format: func(r *T) string { return token.FormatInt(*field(r)) },
		Parse: func(r *T, t token.Token) (err error) {
			*field(r), err = token.ParseInt(t)
			return err
		},
	}
}

func optionalIntColumn[T any](name string, field func(*T) **int) loop.Column[T] {
	return loop.Column[T]{
		Name:   name,
		Format: func(r *T) string { return token.FormatOptionalInt(*field(r)) },
		Parse: func(r *T, t token.Token) (err error) {
			*field(r), err = token.ParseOptionalInt(t)
			return err
		},
	}
}

func optionalFloatColumn[T any](name string, prec int, field func(*T) **float64) loop.Column[T] {
	return loop.Column[T]{
		Name:   name,
		Format: func(r *T) string { return token.FormatOptionalFloat(*field(r), prec) },
		Parse: func(r *T, t token.Token) (err error) {
			*field(r), err = token.ParseOptionalFloat(t)
			return err
		},
	}
}

func newTables(reg *loop.Registry, coordPrec int) tables {
	return tables{
		synonyms: loop.MustTable(reg.MustLookup(loop.KindSynonyms),
			intColumn("ordinal", func(s *chemcomp.Synonym) *int { return &s.Ordinal }),
			stringColumn("comp_id", func(s *chemcomp.Synonym) *string { return &s.CompID }),
			stringColumn("name", func(s *chemcomp.Synonym) *string { return &s.Name }),
		),
		atoms: loop.MustTable(reg.MustLookup(loop.KindAtoms),
			stringColumn("comp_id", func(a *chemcomp.Atom) *string { return &a.CompID }),
			stringColumn("atom_id", func(a *chemcomp.Atom) *string { return &a.AtomID }),
			stringColumn("alt_atom_id", func(a *chemcomp.Atom) *string { return &a.AltAtomID }),
			stringColumn("type_symbol", func(a *chemcomp.Atom) *string { return &a.ElementSymbol }),
			optionalIntColumn("charge", func(a *chemcomp.Atom) **int { return &a.Charge }),
			optionalFloatColumn("pdbx_model_Cartn_x_ideal", coordPrec, func(a *chemcomp.Atom) **float64 { return &a.X }),
			optionalFloatColumn("pdbx_model_Cartn_y_ideal", coordPrec, func(a *chemcomp.Atom) **float64 { return &a.Y }),
			optionalFloatColumn("pdbx_model_Cartn_z_ideal", coordPrec, func(a *chemcomp.Atom) **float64 { return &a.Z }),
			stringColumn("pdbx_component_atom_id", func(a *chemcomp.Atom) *string { return &a.ComponentAtomID }),
			stringColumn("pdbx_component_comp_id", func(a *chemcomp.Atom) *string { return &a.ComponentCompID }),
			intColumn("pdbx_ordinal", func(a *chemcomp.Atom) *int { return &a.Ordinal }),
		),
		bonds: loop.MustTable(reg.MustLookup(loop.KindBonds),
			stringColumn("comp_id", func(b *chemcomp.Bond) *string { return &b.CompID }),
			stringColumn("atom_id_1", func(b *chemcomp.Bond) *string { return &b.AtomID1 }),
			stringColumn("atom_id_2", func(b *chemcomp.Bond) *string { return &b.AtomID2 }),
			loop.Column[chemcomp.Bond]{
				Name:   "value_order",
				Format: func(b *chemcomp.Bond) string { return token.FormatString(string(b.Order)) },
				Parse: func(b *chemcomp.Bond, t token.Token) error {
					v, err := token.ParseString(t)
					b.Order = chemcomp.BondOrder(v)
					return err
				},
			},
			intColumn("pdbx_ordinal", func(b *chemcomp.Bond) *int { return &b.Ordinal }),
		),
		descriptors: loop.MustTable(reg.MustLookup(loop.KindDescriptors),
			stringColumn("comp_id", func(d *chemcomp.Descriptor) *string { return &d.CompID }),
			stringColumn("type", func(d *chemcomp.Descriptor) *string { return &d.Type }),
			stringColumn("descriptor", func(d *chemcomp.Descriptor) *string { return &d.Descriptor }),
		),
		identifiers: loop.MustTable(reg.MustLookup(loop.KindIdentifiers),
			stringColumn("comp_id", func(i *chemcomp.Identifier) *string { return &i.CompID }),
			stringColumn("type", func(i *chemcomp.Identifier) *string { return &i.Type }),
			stringColumn("identifier", func(i *chemcomp.Identifier) *string { return &i.Identifier }),
		),
	}
}
