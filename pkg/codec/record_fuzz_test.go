//go:build fuzz
// +build fuzz

package codec

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ssargent/chemcomp/pkg/chemcomp"
	"github.com/ssargent/chemcomp/pkg/validate"
)

func seedGolden(f *testing.F) {
	data, err := os.ReadFile(filepath.Join("testdata", "GLY.cif"))
	if err != nil {
		f.Fatal(err)
	}
	f.Add(string(data))
}

// FuzzParse checks that arbitrary text never panics and only fails with the
// two documented error kinds.
func FuzzParse(f *testing.F) {
	seedGolden(f)
	f.Add("")
	f.Add("data_X\n##\n")
	f.Add("data_X\n_chem_comp.id X\nloop_\n_chem_comp_atom.comp_id\n;\n")
	f.Add("data_X\n_chem_comp.name 'unterminated\n")

	f.Fuzz(func(t *testing.T, text string) {
		if len(text) > 100000 {
			t.Skip("Input too large for fuzz test")
		}

		_, err := Parse(text)
		if err == nil {
			return
		}
		var pe *ParseError
		var ve *validate.ValidationError
		if !errors.As(err, &pe) && !errors.As(err, &ve) {
			t.Fatalf("unexpected error type %T: %v", err, err)
		}
	})
}

// FuzzRoundTrip checks that any accepted record serializes to text that
// parses back into the same record.
func FuzzRoundTrip(f *testing.F) {
	f.Add("GLYCINE", "aminoacetic acid", "C(C(=O)O)N")
	f.Add("x", "'quoted' \"both\"", "a\nb")
	f.Add("?", "", "_tag")
	f.Add(";", "loop_", "#")

	f.Fuzz(func(t *testing.T, name, synonym, descriptor string) {
		rec := chemcomp.Record{
			Header: chemcomp.Header{
				ID:        "FZZ",
				Name:      name,
				Type:      "NON-POLYMER",
				Formula:   "C1",
				Constants: chemcomp.DefaultConstants(),
			},
			Synonyms:    []chemcomp.Synonym{{Ordinal: 1, CompID: "FZZ", Name: synonym}},
			Descriptors: []chemcomp.Descriptor{{CompID: "FZZ", Type: "SMILES", Descriptor: descriptor}},
		}

		text, err := Serialize(rec)
		if err != nil {
			// Values the validator rejects, such as an empty name.
			t.Skip()
		}

		back, err := Parse(text)
		if err != nil {
			t.Fatalf("Parse failed for serialized text:\n%s\n%v", text, err)
		}
		if back.Header.Name != name || back.Synonyms[0].Name != synonym || back.Descriptors[0].Descriptor != descriptor {
			t.Errorf("round trip mismatch:\n%s", text)
		}
	})
}
