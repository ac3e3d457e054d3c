package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/chemcomp/pkg/chemcomp"
)

func serine() chemcomp.Record {
	return chemcomp.Record{
		Header: chemcomp.Header{
			ID:              "SER",
			Name:            "SERINE",
			Type:            "L-peptide linking",
			Formula:         "C3 H7 N O3",
			MolecularWeight: chemcomp.Ptr(105.093),
			OneLetterCode:   chemcomp.Ptr("S"),
			ThreeLetterCode: chemcomp.Ptr("SER"),
		},
		Synonyms: []chemcomp.Synonym{{Ordinal: 1, CompID: "SER", Name: "Serine"}},
		Descriptors: []chemcomp.Descriptor{
			{CompID: "SER", Type: "SMILES", Descriptor: "C(C(C(=O)O)N)O"},
			{CompID: "SER", Type: "InChIKey", Descriptor: "MTCFGRXMJLQNBG-REOHCLBHSA-N"},
		},
		Identifiers: []chemcomp.Identifier{{CompID: "SER", Type: "SYSTEMATIC NAME", Identifier: "(2S)-2-amino-3-hydroxypropanoic acid"}},
	}
}

func TestRecordExtractor_Extract(t *testing.T) {
	e := &RecordExtractor{}
	rec := serine()

	testCases := []struct {
		field string
		want  []interface{}
	}{
		{FieldID, []interface{}{"SER"}},
		{FieldName, []interface{}{"serine", "(2s)-2-amino-3-hydroxypropanoic acid"}},
		{FieldFormula, []interface{}{"C3H7NO3"}},
		{FieldDescriptor, []interface{}{"C(C(C(=O)O)N)O", "MTCFGRXMJLQNBG-REOHCLBHSA-N"}},
		{FieldWeight, []interface{}{105.093}},
		{FieldType, []interface{}{"L-PEPTIDE LINKING"}},
		{FieldOneLetterCode, []interface{}{"S"}},
		{FieldThreeLetterCode, []interface{}{"SER"}},
	}

	for _, tc := range testCases {
		t.Run(tc.field, func(t *testing.T) {
			got, err := e.Extract(&rec, tc.field)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestRecordExtractor_ExtractUnknownValues(t *testing.T) {
	e := &RecordExtractor{}
	rec := serine()
	rec.Header.MolecularWeight = nil
	rec.Header.OneLetterCode = nil

	got, err := e.Extract(&rec, FieldWeight)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = e.Extract(&rec, FieldOneLetterCode)
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = e.Extract(&rec, "color")
	assert.Error(t, err)
}

func TestRecordExtractor_Normalize(t *testing.T) {
	e := &RecordExtractor{}

	testCases := []struct {
		name    string
		field   string
		value   interface{}
		want    interface{}
		wantErr bool
	}{
		{"name lower-cased", FieldName, "  SeRiNe ", "serine", false},
		{"formula compacted", FieldFormula, "c3 h7 n o3", "C3H7NO3", false},
		{"type upper-cased", FieldType, "non-polymer", "NON-POLYMER", false},
		{"id kept", FieldID, "ser", "ser", false},
		{"weight float", FieldWeight, 75.5, 75.5, false},
		{"weight int", FieldWeight, 75, 75.0, false},
		{"weight string", FieldWeight, " 75.067", 75.067, false},
		{"weight not a number", FieldWeight, "heavy", nil, true},
		{"weight wrong type", FieldWeight, true, nil, true},
		{"string field with number", FieldName, 12, nil, true},
		{"unknown field", "color", "red", nil, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := e.Normalize(tc.field, tc.value)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestFields(t *testing.T) {
	e := &RecordExtractor{}
	rec := serine()
	for _, f := range Fields() {
		_, err := e.Extract(&rec, f)
		assert.NoError(t, err, f)
	}
}

func BenchmarkFieldQuery_Validate(b *testing.B) {
	query := FieldQuery{
		Field:    FieldWeight,
		Operator: ">=",
		Value:    75.0,
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = query.Validate()
	}
}
