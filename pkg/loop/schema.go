// Package loop encodes and decodes the repeated-row "loop_" tables of a
// component record.
//
// Every table kind has one registered Schema whose column order is fixed.
// The codec never infers columns from the data: a tag list or a row that does
// not match the schema is rejected.
package loop

import (
	"fmt"
	"strings"
)

// Kind selects a table schema.
type Kind string

const (
	KindSynonyms    Kind = "synonyms"
	KindAtoms       Kind = "atoms"
	KindBonds       Kind = "bonds"
	KindDescriptors Kind = "descriptors"
	KindIdentifiers Kind = "identifiers"
)

// Schema is the canonical column layout of one table kind.
type Schema struct {
	Kind     Kind
	Category string
	Columns  []string
}

// Tag returns the full data name of column, e.g. "_chem_comp_atom.atom_id".
func (s Schema) Tag(column string) string {
	return "_" + s.Category + "." + column
}

// Tags returns the data names of all columns in order.
func (s Schema) Tags() []string {
	tags := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		tags[i] = s.Tag(c)
	}
	return tags
}

// Arity is the number of columns.
func (s Schema) Arity() int {
	return len(s.Columns)
}

// SplitTag splits "_category.column" into its parts.
func SplitTag(tag string) (category, column string, ok bool) {
	if !strings.HasPrefix(tag, "_") {
		return "", "", false
	}
	category, column, ok = strings.Cut(tag[1:], ".")
	if !ok || category == "" || column == "" {
		return "", "", false
	}
	return category, column, true
}

// Registry maps table kinds and categories to schemas.
type Registry struct {
	byKind     map[Kind]Schema
	byCategory map[string]Kind
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byKind:     make(map[Kind]Schema),
		byCategory: make(map[string]Kind),
	}
}

// Register adds a schema. Kinds and categories must be unique.
func (r *Registry) Register(s Schema) error {
	if s.Kind == "" || s.Category == "" {
		return fmt.Errorf("schema requires a kind and a category")
	}
	if len(s.Columns) == 0 {
		return fmt.Errorf("schema %s has no columns", s.Kind)
	}
	if _, exists := r.byKind[s.Kind]; exists {
		return fmt.Errorf("schema for %s already registered", s.Kind)
	}
	if _, exists := r.byCategory[s.Category]; exists {
		return fmt.Errorf("category %s already registered", s.Category)
	}
	seen := make(map[string]struct{}, len(s.Columns))
	for _, c := range s.Columns {
		if _, dup := seen[c]; dup {
			return fmt.Errorf("schema %s lists column %s twice", s.Kind, c)
		}
		seen[c] = struct{}{}
	}
	s.Columns = append([]string(nil), s.Columns...)
	r.byKind[s.Kind] = s
	r.byCategory[s.Category] = s.Kind
	return nil
}

// Lookup returns the schema registered for kind.
func (r *Registry) Lookup(kind Kind) (Schema, bool) {
	s, ok := r.byKind[kind]
	return s, ok
}

// MustLookup is Lookup for schemas known to be registered.
func (r *Registry) MustLookup(kind Kind) Schema {
	s, ok := r.Lookup(kind)
	if !ok {
		panic("loop: no schema registered for " + string(kind))
	}
	return s
}

// ByCategory returns the schema whose category is cat.
func (r *Registry) ByCategory(cat string) (Schema, bool) {
	k, ok := r.byCategory[cat]
	if !ok {
		return Schema{}, false
	}
	return r.byKind[k], true
}

// Canonical schemas of the chemical component dictionary.
var (
	SynonymSchema = Schema{
		Kind:     KindSynonyms,
		Category: "pdbx_chem_comp_synonyms",
		Columns:  []string{"ordinal", "comp_id", "name"},
	}
	AtomSchema = Schema{
		Kind:     KindAtoms,
		Category: "chem_comp_atom",
		Columns: []string{
			"comp_id", "atom_id", "alt_atom_id", "type_symbol", "charge",
			"pdbx_model_Cartn_x_ideal", "pdbx_model_Cartn_y_ideal", "pdbx_model_Cartn_z_ideal",
			"pdbx_component_atom_id", "pdbx_component_comp_id", "pdbx_ordinal",
		},
	}
	BondSchema = Schema{
		Kind:     KindBonds,
		Category: "chem_comp_bond",
		Columns:  []string{"comp_id", "atom_id_1", "atom_id_2", "value_order", "pdbx_ordinal"},
	}
	DescriptorSchema = Schema{
		Kind:     KindDescriptors,
		Category: "pdbx_chem_comp_descriptor",
		Columns:  []string{"comp_id", "type", "descriptor"},
	}
	IdentifierSchema = Schema{
		Kind:     KindIdentifiers,
		Category: "pdbx_chem_comp_identifier",
		Columns:  []string{"comp_id", "type", "identifier"},
	}
)

// DefaultRegistry returns a registry holding the canonical schemas.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, s := range []Schema{SynonymSchema, AtomSchema, BondSchema, DescriptorSchema, IdentifierSchema} {
		if err := r.Register(s); err != nil {
			panic(err)
		}
	}
	return r
}
