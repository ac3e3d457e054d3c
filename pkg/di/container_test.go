package di

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ssargent/chemcomp/pkg/chemcomp"
	"github.com/ssargent/chemcomp/pkg/config"
)

func water() chemcomp.Record {
	return chemcomp.Record{
		Header: chemcomp.Header{
			ID:              "HOH",
			Name:            "WATER",
			Type:            "NON-POLYMER",
			Formula:         "H2 O",
			MolecularWeight: chemcomp.Ptr(18.01528),
		},
		Atoms: []chemcomp.Atom{{
			CompID: "HOH", AtomID: "O", AltAtomID: "O", ElementSymbol: "O",
			X: chemcomp.Ptr(-0.06379), Y: chemcomp.Ptr(0.0), Z: chemcomp.Ptr(0.0),
			ComponentAtomID: "O", ComponentCompID: "HOH", Ordinal: 1,
		}},
		Descriptors: []chemcomp.Descriptor{{CompID: "HOH", Type: "SMILES", Descriptor: "O"}},
	}
}

func TestNewContainer_Defaults(t *testing.T) {
	c, err := NewContainer(nil)
	require.NoError(t, err)
	defer c.Close()

	assert.Equal(t, config.DefaultConfig(), c.GetConfig())
	assert.NotNil(t, c.GetLogger())
	assert.NotNil(t, c.GetMetrics())
	assert.NotNil(t, c.GetCodec())
	assert.NotNil(t, c.GetLibrary())
}

func TestNewContainer_InvalidConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Library.LoadWorkers = 0

	_, err := NewContainer(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LoadWorkers")
}

func TestNewContainerFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := config.DefaultConfig()
	cfg.Format.CoordinatePrecision = 5
	cfg.Logging.Level = "error"
	require.NoError(t, config.SaveConfig(cfg, path))

	c, err := NewContainerFromFile(path)
	require.NoError(t, err)
	defer c.Close()
	assert.Equal(t, 5, c.GetConfig().Format.CoordinatePrecision)

	_, err = NewContainerFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestContainer_WiresConfigIntoCodec(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Format.CoordinatePrecision = 5
	cfg.Format.WeightPrecision = 2
	cfg.Header.ReleaseStatus = chemcomp.StatusHold

	c, err := NewContainerWithLogger(cfg, nil)
	require.NoError(t, err)

	text, err := c.GetCodec().Serialize(water())
	require.NoError(t, err)
	assert.Contains(t, text, "-0.06379")
	assert.Contains(t, text, "HOLD")
	assert.Contains(t, text, "18.01528")
}

func TestContainer_LibrarySharesMetricsAndLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	c, err := NewContainerWithLogger(nil, zap.New(core))
	require.NoError(t, err)

	text, err := c.GetCodec().Serialize(water())
	require.NoError(t, err)

	n, err := c.GetLibrary().Load(context.Background(), text)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	entries := logs.FilterMessage("components loaded").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "library", entries[0].LoggerName)

	expected := `
# HELP chemcomp_library_components Number of components held by the library
# TYPE chemcomp_library_components gauge
chemcomp_library_components 1
`
	assert.NoError(t, testutil.GatherAndCompare(c.GetRegistry(), strings.NewReader(expected), "chemcomp_library_components"))

	count, err := testutil.GatherAndCount(c.GetRegistry(), "chemcomp_codec_operations_total")
	require.NoError(t, err)
	// serialize/success, parse/success and load/success
	assert.Equal(t, 3, count)
}

func TestNewContainer_BadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("library:\n  index_order: 1\n"), 0600))

	_, err := NewContainerFromFile(path)
	assert.Error(t, err)
}
