package library

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ssargent/chemcomp/pkg/chemcomp"
	"github.com/ssargent/chemcomp/pkg/codec"
	"github.com/ssargent/chemcomp/pkg/metrics"
	"github.com/ssargent/chemcomp/pkg/query"
	"github.com/ssargent/chemcomp/pkg/validate"
)

type atomSpec struct {
	id, element string
}

// component builds a valid record whose atoms form a chain.
func component(id, name, formula string, weight float64, oneLetter string, atoms ...atomSpec) chemcomp.Record {
	rec := chemcomp.Record{
		Header: chemcomp.Header{
			ID:              id,
			Name:            name,
			Type:            "L-PEPTIDE LINKING",
			Formula:         formula,
			FormalCharge:    chemcomp.Ptr(0),
			MolecularWeight: chemcomp.Ptr(weight),
			ThreeLetterCode: chemcomp.Ptr(id),
			Constants:       chemcomp.DefaultConstants(),
		},
		Descriptors: []chemcomp.Descriptor{{CompID: id, Type: "SMILES", Descriptor: strings.ToLower(id) + "-smiles"}},
	}
	if oneLetter != "" {
		rec.Header.OneLetterCode = chemcomp.Ptr(oneLetter)
	}
	for i, a := range atoms {
		rec.Atoms = append(rec.Atoms, chemcomp.Atom{
			CompID: id, AtomID: a.id, AltAtomID: a.id, ElementSymbol: a.element, Charge: chemcomp.Ptr(0),
			X: chemcomp.Ptr(float64(i)), Y: chemcomp.Ptr(0.0), Z: chemcomp.Ptr(0.0),
			ComponentAtomID: a.id, ComponentCompID: id, Ordinal: i + 1,
		})
		if i > 0 {
			rec.Bonds = append(rec.Bonds, chemcomp.Bond{
				CompID: id, AtomID1: atoms[i-1].id, AtomID2: a.id, Order: chemcomp.BondSingle, Ordinal: i,
			})
		}
	}
	return rec
}

func glycine() chemcomp.Record {
	rec := component("GLY", "GLYCINE", "C2 H5 N O2", 75.067, "G",
		atomSpec{"N", "N"}, atomSpec{"CA", "C"}, atomSpec{"C", "C"}, atomSpec{"O", "O"})
	rec.Synonyms = []chemcomp.Synonym{{Ordinal: 1, CompID: "GLY", Name: "Aminoacetic acid"}}
	rec.Identifiers = []chemcomp.Identifier{{CompID: "GLY", Type: "SYSTEMATIC NAME", Identifier: "2-azanylethanoic acid"}}
	return rec
}

func alanine() chemcomp.Record {
	return component("ALA", "ALANINE", "C3 H7 N O2", 89.093, "A",
		atomSpec{"N", "N"}, atomSpec{"CA", "C"}, atomSpec{"CB", "C"})
}

func dAlanine() chemcomp.Record {
	rec := component("DAL", "D-ALANINE", "C3 H7 N O2", 89.093, "A",
		atomSpec{"N", "N"}, atomSpec{"CA", "C"}, atomSpec{"CB", "C"})
	rec.Header.ParentCompID = chemcomp.Ptr("ALA")
	rec.Header.ThreeLetterCode = chemcomp.Ptr("DAL")
	return rec
}

func water() chemcomp.Record {
	rec := component("HOH", "WATER", "H2 O", 18.015, "", atomSpec{"O", "O"})
	rec.Header.Type = "NON-POLYMER"
	rec.Header.ThreeLetterCode = nil
	return rec
}

func newTestLibrary(t *testing.T, opts ...Option) *Library {
	t.Helper()
	l := New(opts...)
	for _, rec := range []chemcomp.Record{glycine(), alanine(), dAlanine(), water()} {
		_, err := l.Add(rec)
		require.NoError(t, err)
	}
	return l
}

func document(t *testing.T, recs ...chemcomp.Record) string {
	t.Helper()
	var b strings.Builder
	for _, rec := range recs {
		text, err := codec.Serialize(rec)
		require.NoError(t, err)
		b.WriteString(text)
	}
	return b.String()
}

func recordIDs(recs []chemcomp.Record) []string {
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.Header.ID)
	}
	return out
}

func TestLibrary_AddGetHasRemove(t *testing.T) {
	l := New()

	rev, err := l.Add(glycine())
	require.NoError(t, err)
	assert.False(t, rev.IsNil())

	assert.True(t, l.Has("GLY"))
	assert.False(t, l.Has("ALA"))
	assert.Equal(t, 1, l.Len())

	got, err := l.Get("GLY")
	require.NoError(t, err)
	assert.Equal(t, glycine(), got)

	e, ok := l.Entry("GLY")
	require.True(t, ok)
	assert.Equal(t, rev, e.Revision)

	_, err = l.Get("ALA")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.True(t, l.Remove("GLY"))
	assert.False(t, l.Remove("GLY"))
	assert.False(t, l.Has("GLY"))
	assert.Equal(t, 0, l.Len())

	found, err := l.Find(ByName, "glycine")
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestLibrary_AddCopiesRecord(t *testing.T) {
	l := New()
	rec := glycine()
	_, err := l.Add(rec)
	require.NoError(t, err)

	rec.Atoms[0].AtomID = "XX"
	got, err := l.Get("GLY")
	require.NoError(t, err)
	assert.Equal(t, "N", got.Atoms[0].AtomID)
}

func TestLibrary_AddCopiesOptionalValues(t *testing.T) {
	l := New()
	rec := glycine()
	_, err := l.Add(rec)
	require.NoError(t, err)

	*rec.Header.MolecularWeight = 500
	*rec.Atoms[0].X = 42
	got, err := l.Get("GLY")
	require.NoError(t, err)
	assert.Equal(t, 75.067, *got.Header.MolecularWeight)
	assert.Equal(t, 0.0, *got.Atoms[0].X)

	*got.Header.MolecularWeight = 600
	again, err := l.Get("GLY")
	require.NoError(t, err)
	assert.Equal(t, 75.067, *again.Header.MolecularWeight)

	found, err := l.Query(context.Background(), query.FieldQuery{Field: query.FieldWeight, Operator: "<", Value: 100})
	require.NoError(t, err)
	require.Equal(t, []string{"GLY"}, recordIDs(found))
	assert.Equal(t, 75.067, *found[0].Header.MolecularWeight)
}

func TestLibrary_AddRejectsInvalidRecord(t *testing.T) {
	l := New()
	rec := glycine()
	rec.Bonds[0].AtomID2 = "CB"

	rev, err := l.Add(rec)
	var ve *validate.ValidationError
	require.True(t, errors.As(err, &ve), "got %v", err)
	assert.True(t, ve.Has(validate.CodeUnknownAtomReference))
	assert.True(t, rev.IsNil())
	assert.Equal(t, 0, l.Len())

	_, err = l.Add(water())
	require.NoError(t, err)
	_, err = l.Render()
	assert.NoError(t, err)
}

func TestLibrary_AddInvalidID(t *testing.T) {
	l := New()
	rec := glycine()
	rec.Header.ID = " "

	_, err := l.Add(rec)
	assert.ErrorIs(t, err, ErrInvalidID)
	assert.Equal(t, 0, l.Len())
}

func TestLibrary_AddReplaces(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	l := New(WithLogger(zap.New(core)))

	first, err := l.Add(glycine())
	require.NoError(t, err)

	renamed := glycine()
	renamed.Header.Name = "GLYCOCOLL"
	renamed.Synonyms = nil
	second, err := l.Add(renamed)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
	assert.Equal(t, 1, l.Len())

	found, err := l.Find(ByName, "glycine")
	require.NoError(t, err)
	assert.Empty(t, found, "old name must be unindexed")

	found, err = l.Find(ByName, "glycocoll")
	require.NoError(t, err)
	assert.Equal(t, []string{"GLY"}, recordIDs(found))

	entries := logs.FilterMessage("component replaced").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "GLY", entries[0].ContextMap()["comp_id"])
}

func TestLibrary_Find(t *testing.T) {
	l := newTestLibrary(t)

	testCases := []struct {
		name string
		by   By
		q    string
		want []string
	}{
		{"id", ByID, "ALA", []string{"ALA"}},
		{"id is exact", ByID, "ala", []string{}},
		{"name ignores case", ByName, "Glycine", []string{"GLY"}},
		{"synonym", ByName, "AMINOACETIC ACID", []string{"GLY"}},
		{"identifier", ByName, "2-azanylethanoic acid", []string{"GLY"}},
		{"formula ignores spacing", ByFormula, "c3h7no2", []string{"ALA", "DAL"}},
		{"formula spaced", ByFormula, "H2 O", []string{"HOH"}},
		{"descriptor", ByDescriptor, "gly-smiles", []string{"GLY"}},
		{"no match", ByName, "tryptophan", []string{}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := l.Find(tc.by, tc.q)
			require.NoError(t, err)
			assert.Equal(t, tc.want, recordIDs(got))
		})
	}

	_, err := l.Find("smell", "sweet")
	assert.Error(t, err)
}

func TestLibrary_Query(t *testing.T) {
	l := newTestLibrary(t)
	ctx := context.Background()

	got, err := l.Query(ctx, query.FieldQuery{Field: query.FieldWeight, Operator: ">", Value: 80})
	require.NoError(t, err)
	assert.Equal(t, []string{"ALA", "DAL"}, recordIDs(got))

	got, err = l.Query(ctx, query.FieldQuery{Field: query.FieldName, Operator: "^", Value: "GLY"})
	require.NoError(t, err)
	assert.Equal(t, []string{"GLY"}, recordIDs(got))

	got, err = l.Query(ctx, query.FieldQuery{Field: query.FieldType, Operator: "=", Value: "non-polymer"})
	require.NoError(t, err)
	assert.Equal(t, []string{"HOH"}, recordIDs(got))

	got, err = l.QueryRange(ctx,
		query.FieldQuery{Field: query.FieldWeight, Operator: ">=", Value: 18},
		query.FieldQuery{Field: query.FieldWeight, Operator: "<=", Value: 75.067},
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"HOH", "GLY"}, recordIDs(got))

	_, err = l.Query(ctx, query.FieldQuery{Field: "color", Operator: "=", Value: "red"})
	assert.Error(t, err)
}

func TestLibrary_IDsAndFormulas(t *testing.T) {
	l := newTestLibrary(t)

	assert.Equal(t, []string{"ALA", "DAL", "GLY", "HOH"}, l.IDs())
	assert.Equal(t, []string{"C3 H7 N O2", "C3 H7 N O2", "C2 H5 N O2", "H2 O"}, l.Formulas())

	stats := l.Stats()
	assert.Equal(t, 4, stats.Components)
	assert.Equal(t, 4, stats.Postings[query.FieldID])
	assert.Equal(t, 3, stats.Postings[query.FieldOneLetterCode])
}

func TestLibrary_Translate(t *testing.T) {
	l := newTestLibrary(t)

	assert.Equal(t, []string{"G", "A", "A", "X", "X"},
		l.TranslateThreeToOne([]string{"GLY", "ALA", "DAL", "HOH", "UNK"}))

	assert.Equal(t, []string{"GLY", "ALA", "XXX"},
		l.TranslateOneToThree([]string{"G", "A", "Z"}))

	assert.Empty(t, l.TranslateThreeToOne(nil))
}

func TestLibrary_TranslateOneToThreeFallsBackToVariant(t *testing.T) {
	l := New()
	_, err := l.Add(dAlanine())
	require.NoError(t, err)

	assert.Equal(t, []string{"DAL"}, l.TranslateOneToThree([]string{"A"}))
}

func TestLibrary_Merge(t *testing.T) {
	a := New()
	_, err := a.Add(glycine())
	require.NoError(t, err)
	_, err = a.Add(water())
	require.NoError(t, err)

	b := New()
	_, err = b.Add(alanine())
	require.NoError(t, err)
	newer := water()
	newer.Header.Name = "DIHYDROGEN OXIDE"
	_, err = b.Add(newer)
	require.NoError(t, err)

	n, err := a.Merge(b)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"ALA", "GLY", "HOH"}, a.IDs())

	got, err := a.Get("HOH")
	require.NoError(t, err)
	assert.Equal(t, "DIHYDROGEN OXIDE", got.Header.Name)

	n, err = a.Merge(a)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, 2, b.Len())
}

func TestLibrary_MergeChecksRules(t *testing.T) {
	strict := codec.NewRecordCodec(codec.WithEngine(validate.NewDefaultEngine(validate.Options{StrictCharge: true})))
	a := New(WithCodec(strict))

	charged := alanine()
	charged.Header.FormalCharge = chemcomp.Ptr(1)
	b := New()
	_, err := b.Add(water())
	require.NoError(t, err)
	_, err = b.Add(charged)
	require.NoError(t, err)

	n, err := a.Merge(b)
	var ve *validate.ValidationError
	require.True(t, errors.As(err, &ve), "got %v", err)
	assert.True(t, ve.Has(validate.CodeFormalChargeMismatch))
	assert.Equal(t, 0, n)
	assert.Equal(t, 0, a.Len())
}

func TestLibrary_LoadAndRender(t *testing.T) {
	reg := prometheus.NewRegistry()
	l := New(WithMetrics(metrics.NewMetrics(reg)), WithWorkers(2))

	doc := document(t, glycine(), alanine(), water())
	n, err := l.Load(context.Background(), "# components\n"+doc)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []string{"ALA", "GLY", "HOH"}, l.IDs())

	got, err := l.Get("GLY")
	require.NoError(t, err)
	assert.Equal(t, glycine(), got)

	rendered, err := l.Render()
	require.NoError(t, err)
	assert.Equal(t, document(t, alanine(), glycine(), water()), rendered)

	again := New()
	_, err = again.Load(context.Background(), rendered)
	require.NoError(t, err)
	assert.Equal(t, l.IDs(), again.IDs())

	expected := `
# HELP chemcomp_library_components Number of components held by the library
# TYPE chemcomp_library_components gauge
chemcomp_library_components 3
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "chemcomp_library_components"))
}

func TestLibrary_LoadRenderedMultiLineValues(t *testing.T) {
	l := New()
	gly := glycine()
	gly.Header.Name = "glycine\ndata_note here"
	_, err := l.Add(gly)
	require.NoError(t, err)
	_, err = l.Add(water())
	require.NoError(t, err)

	rendered, err := l.Render()
	require.NoError(t, err)

	again := New()
	n, err := again.Load(context.Background(), rendered)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err := again.Get("GLY")
	require.NoError(t, err)
	assert.Equal(t, gly, got)
}

func TestLibrary_LoadFailureAddsNothing(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	l := New(WithLogger(zap.New(core)))

	broken := strings.Replace(document(t, water()), "_chem_comp.formula ", "_chem_comp.formulae", 1)
	doc := document(t, glycine()) + broken + document(t, alanine())

	_, err := l.Load(context.Background(), doc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "block 2")

	var pe *codec.ParseError
	assert.True(t, errors.As(err, &pe))
	assert.Equal(t, 0, l.Len())
	assert.Equal(t, 1, logs.FilterMessage("load failed").Len())
}

func TestLibrary_LoadErrors(t *testing.T) {
	l := New()

	_, err := l.Load(context.Background(), "no blocks here\n")
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = l.Load(ctx, document(t, glycine()))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, l.Len())
}

func TestLibrary_LoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "components.cif")
	require.NoError(t, os.WriteFile(path, []byte(document(t, glycine(), water())), 0600))

	l := New()
	n, err := l.LoadFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = l.LoadFile(context.Background(), filepath.Join(t.TempDir(), "missing.cif"))
	assert.Error(t, err)
}

func TestLibrary_ConcurrentAccess(t *testing.T) {
	l := newTestLibrary(t)
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				_, _ = l.Add(glycine())
				l.Remove("HOH")
				_, _ = l.Add(water())
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				found, err := l.Find(ByFormula, "C2H5NO2")
				if err != nil || len(found) != 1 {
					t.Errorf("Find(formula) = %d records, %v", len(found), err)
				}
				l.TranslateThreeToOne([]string{"GLY"})
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, []string{"ALA", "DAL", "GLY", "HOH"}, l.IDs())
}
