package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/ssargent/chemcomp/pkg/chemcomp"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, chemcomp.SiteRCSB, config.Header.ProcessingSite)
	assert.Equal(t, chemcomp.StatusReleased, config.Header.ReleaseStatus)
	assert.Equal(t, chemcomp.AmbiguousNo, config.Header.AmbiguousFlag)
	assert.Equal(t, 3, config.Format.CoordinatePrecision)
	assert.Equal(t, 3, config.Format.WeightPrecision)
	assert.False(t, config.Validation.StrictCharge)
	assert.Equal(t, "info", config.Logging.Level)
	assert.Equal(t, "json", config.Logging.Format)
	assert.NoError(t, config.Validate())
	assert.Equal(t, chemcomp.DefaultConstants(), config.Constants())
}

func TestConfig_Validate(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(c *Config)
		errMsg string
	}{
		{"unknown processing site", func(c *Config) { c.Header.ProcessingSite = "NIH" }, "ProcessingSite"},
		{"missing release status", func(c *Config) { c.Header.ReleaseStatus = "" }, "ReleaseStatus"},
		{"bad ambiguous flag", func(c *Config) { c.Header.AmbiguousFlag = "maybe" }, "AmbiguousFlag"},
		{"negative precision", func(c *Config) { c.Format.CoordinatePrecision = -1 }, "CoordinatePrecision"},
		{"precision too large", func(c *Config) { c.Format.WeightPrecision = 11 }, "WeightPrecision"},
		{"index order too small", func(c *Config) { c.Library.IndexOrder = 2 }, "IndexOrder"},
		{"no load workers", func(c *Config) { c.Library.LoadWorkers = 0 }, "LoadWorkers"},
		{"unknown level", func(c *Config) { c.Logging.Level = "trace" }, "Level"},
		{"unknown format", func(c *Config) { c.Logging.Format = "xml" }, "Format"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			config := DefaultConfig()
			tc.mutate(config)
			err := config.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid config")
			assert.Contains(t, err.Error(), tc.errMsg)
		})
	}
}

func TestParseConfig(t *testing.T) {
	t.Run("partial document keeps defaults", func(t *testing.T) {
		config, err := ParseConfig([]byte("header:\n  release_status: HOLD\nvalidation:\n  strict_charge: true\n"))
		require.NoError(t, err)
		assert.Equal(t, chemcomp.StatusHold, config.Header.ReleaseStatus)
		assert.Equal(t, chemcomp.SiteRCSB, config.Header.ProcessingSite)
		assert.True(t, config.Validation.StrictCharge)
		assert.Equal(t, 3, config.Format.CoordinatePrecision)
	})

	t.Run("invalid values rejected", func(t *testing.T) {
		_, err := ParseConfig([]byte("format:\n  coordinate_precision: 42\n"))
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "CoordinatePrecision")
	})
}

func TestLoadConfig(t *testing.T) {
	t.Run("load existing config", func(t *testing.T) {
		tmpDir, err := os.MkdirTemp("", "chemcomp_config_test")
		require.NoError(t, err)
		defer os.RemoveAll(tmpDir)

		configPath := filepath.Join(tmpDir, "config.yaml")
		expectedConfig := &Config{
			Header: chemcomp.Constants{
				ProcessingSite: chemcomp.SitePDBE,
				ReleaseStatus:  chemcomp.StatusObsolete,
				AmbiguousFlag:  chemcomp.AmbiguousYes,
			},
			Format: FormatConfig{
				CoordinatePrecision: 4,
				WeightPrecision:     2,
			},
			Validation: ValidationConfig{
				StrictCharge: true,
			},
			Library: LibraryConfig{
				IndexOrder:  8,
				LoadWorkers: 2,
			},
			Logging: Logging{
				Level:  "debug",
				Format: "console",
			},
		}

		err = SaveConfig(expectedConfig, configPath)
		require.NoError(t, err)

		loadedConfig, err := LoadConfig(configPath)
		require.NoError(t, err)
		assert.Equal(t, expectedConfig, loadedConfig)
	})

	t.Run("load non-existent config", func(t *testing.T) {
		_, err := LoadConfig("/non/existent/config.yaml")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "config file does not exist")
	})

	t.Run("load invalid yaml", func(t *testing.T) {
		tmpDir, err := os.MkdirTemp("", "chemcomp_config_test")
		require.NoError(t, err)
		defer os.RemoveAll(tmpDir)

		configPath := filepath.Join(tmpDir, "invalid.yaml")
		err = os.WriteFile(configPath, []byte("invalid: yaml: content: ["), 0644)
		require.NoError(t, err)

		_, err = LoadConfig(configPath)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse config file")
	})
}

func TestSaveConfig(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "chemcomp_config_test")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	configPath := filepath.Join(tmpDir, "nested", "config.yaml")
	config := DefaultConfig()

	err = SaveConfig(config, configPath)
	require.NoError(t, err)

	info, err := os.Stat(configPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loadedConfig, err := LoadConfig(configPath)
	require.NoError(t, err)
	assert.Equal(t, config, loadedConfig)
}

func TestSaveConfigErrorHandling(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "chemcomp_config_test")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	blocker := filepath.Join(tmpDir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	err = SaveConfig(DefaultConfig(), filepath.Join(blocker, "sub", "config.yaml"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create config directory")

	bad := DefaultConfig()
	bad.Header.AmbiguousFlag = "?"
	err = SaveConfig(bad, filepath.Join(tmpDir, "bad.yaml"))
	assert.Error(t, err)
	assert.False(t, ConfigExists(filepath.Join(tmpDir, "bad.yaml")))
}

func TestConfigExists(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "chemcomp_config_test")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	existingPath := filepath.Join(tmpDir, "exists.yaml")
	nonExistentPath := filepath.Join(tmpDir, "does-not-exist.yaml")

	err = os.WriteFile(existingPath, []byte("test"), 0644)
	require.NoError(t, err)

	assert.True(t, ConfigExists(existingPath))
	assert.False(t, ConfigExists(nonExistentPath))
}

func TestConfigYAMLKeys(t *testing.T) {
	data, err := yaml.Marshal(DefaultConfig())
	require.NoError(t, err)

	text := string(data)
	assert.Contains(t, text, "processing_site: RCSB")
	assert.Contains(t, text, "release_status: REL")
	assert.Contains(t, text, "coordinate_precision: 3")
	assert.Contains(t, text, "strict_charge: false")
	assert.Contains(t, text, "index_order: 32")
}

func TestNewLogger(t *testing.T) {
	for _, format := range []string{"json", "console", ""} {
		logger, err := NewLogger(Logging{Level: "debug", Format: format})
		require.NoError(t, err, format)
		assert.True(t, logger.Core().Enabled(-1))
	}

	logger, err := NewLogger(Logging{Level: "warn", Format: "json"})
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(0))

	_, err = NewLogger(Logging{Level: "loud"})
	assert.Error(t, err)

	_, err = NewLogger(Logging{Level: "info", Format: "xml"})
	assert.Error(t, err)
}
