// Package codec serializes and parses chemical component records.
//
// The codec renders a chemcomp.Record as one mmCIF-style data block and
// decodes such a block back into a record. Both directions run the validator:
// a record with hard violations is never written, and text that decodes into
// one is never returned.
//
// # Record Format
//
// A record is a sequence of sections in a fixed order:
//
//	data_GLY
//	#
//	_chem_comp.id                   GLY
//	_chem_comp.name                 GLYCINE
//	...
//	#
//	loop_
//	_pdbx_chem_comp_synonyms.ordinal
//	...
//	#
//	loop_
//	_chem_comp_atom.comp_id
//	...
//	#
//	loop_
//	_chem_comp_bond.comp_id
//	...
//	#
//	loop_
//	_pdbx_chem_comp_descriptor.comp_id
//	...
//	#
//	loop_
//	_pdbx_chem_comp_identifier.comp_id
//	...
//	##
//
// Sections:
//   - Header: the data block line followed by the _chem_comp items
//   - Synonym, atom, bond, descriptor and identifier loops, each with its
//     canonical column list (see package loop)
//   - End: the "##" terminator line
//
// Serialization always emits every loop, so an empty table keeps its header
// with no rows. Lines made of '#' between sections are cosmetic.
//
// # Values
//
// Scalars are formatted by package token. Absent optional values are written
// as a bare "?"; a quoted '?' is the literal string. Floating point values
// use a fixed number of decimals (3 by default, see config.FormatConfig)
// unless that would lose precision.
//
// # Usage
//
// Basic serialization and parsing:
//
//	c := codec.NewRecordCodec(codec.WithLogger(logger))
//
//	text, err := c.Serialize(rec)
//	if err != nil {
//	    return err // *validate.ValidationError
//	}
//
//	back, err := c.Parse(text)
//	if err != nil {
//	    return err // *codec.ParseError or *validate.ValidationError
//	}
//
// # Parsing
//
// Parsing is a single pass over the sections. A loop may be given either as a
// loop_ table or, for a single row, in the key-value form. A table whose
// section is missing decodes as empty. Unknown header keywords, duplicate or
// missing required keywords, a data block name that differs from
// _chem_comp.id, unknown categories, sections out of order and malformed rows
// all abort the parse with a *ParseError naming the section, line and row.
//
// # Error Handling
//
// Only two error kinds reach the caller:
//   - *ParseError for structural failures; it wraps *token.MalformedValue,
//     *loop.SchemaMismatchError or *loop.CellError where applicable
//   - *validate.ValidationError listing every violation of a record
//
// Warnings never fail an operation. They are logged and returned in the
// Report of SerializeWithReport and ParseWithReport.
//
// # Thread Safety
//
// RecordCodec instances hold only immutable configuration and are safe for
// concurrent use.
package codec
