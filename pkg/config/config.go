package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/ssargent/chemcomp/pkg/chemcomp"
	"github.com/ssargent/chemcomp/pkg/token"
)

// Config represents the record engine configuration
type Config struct {
	Header     chemcomp.Constants `yaml:"header"`
	Format     FormatConfig       `yaml:"format"`
	Validation ValidationConfig   `yaml:"validation"`
	Library    LibraryConfig      `yaml:"library"`
	Logging    Logging            `yaml:"logging"`
}

// FormatConfig controls how numeric values are written
type FormatConfig struct {
	CoordinatePrecision int `yaml:"coordinate_precision" validate:"gte=0,lte=10"`
	WeightPrecision     int `yaml:"weight_precision" validate:"gte=0,lte=10"`
}

// ValidationConfig tunes the record validator
type ValidationConfig struct {
	StrictCharge bool `yaml:"strict_charge"`
}

// LibraryConfig sizes the component library
type LibraryConfig struct {
	IndexOrder  int `yaml:"index_order" validate:"gte=3"`
	LoadWorkers int `yaml:"load_workers" validate:"gte=1,lte=256"`
}

// Logging contains logging configuration
type Logging struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=json console"`
}

var validate = validator.New()

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Header: chemcomp.DefaultConstants(),
		Format: FormatConfig{
			CoordinatePrecision: token.DefaultPrecision,
			WeightPrecision:     token.DefaultPrecision,
		},
		Library: LibraryConfig{
			IndexOrder:  32,
			LoadWorkers: 4,
		},
		Logging: Logging{
			Level:  "info",
			Format: "json",
		},
	}
}

// Constants returns the configured header constants
func (c *Config) Constants() chemcomp.Constants {
	return c.Header
}

// Validate checks that constants are recognized options and precisions are
// in range
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var msgs []string
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, e := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %s %s", e.Namespace(), e.Tag(), e.Param()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// ParseConfig decodes YAML over the defaults and validates the result
func ParseConfig(data []byte) (*Config, error) {
	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// LoadConfig loads configuration from the specified path
func LoadConfig(configPath string) (*Config, error) {
	if !ConfigExists(configPath) {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	if !filepath.IsAbs(configPath) {
		absPath, err := filepath.Abs(configPath)
		if err != nil {
			return nil, fmt.Errorf("invalid config path: %w", err)
		}
		configPath = absPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return ParseConfig(data)
}

// SaveConfig saves the configuration to the specified path with secure permissions
func SaveConfig(config *Config, configPath string) error {
	if err := config.Validate(); err != nil {
		return err
	}

	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ConfigExists checks if a configuration file exists
func ConfigExists(configPath string) bool {
	_, err := os.Stat(configPath)
	return !os.IsNotExist(err)
}

// NewLogger builds a zap logger for the logging configuration. The json
// format uses the production encoder, console the development one.
func NewLogger(cfg Logging) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	var zc zap.Config
	switch cfg.Format {
	case "", "json":
		zc = zap.NewProductionConfig()
	case "console":
		zc = zap.NewDevelopmentConfig()
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}
	zc.Level = level

	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}
