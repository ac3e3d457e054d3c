// Package di provides dependency injection container
package di

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/ssargent/chemcomp/pkg/codec"
	"github.com/ssargent/chemcomp/pkg/config"
	"github.com/ssargent/chemcomp/pkg/library"
	"github.com/ssargent/chemcomp/pkg/metrics"
)

// Container holds all the dependencies for the application
type Container struct {
	config   *config.Config
	logger   *zap.Logger
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	codec    *codec.RecordCodec
	library  *library.Library
}

// NewContainer builds the logger, metrics, codec and library from cfg. A nil
// cfg uses config.DefaultConfig.
func NewContainer(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, err := config.NewLogger(cfg.Logging)
	if err != nil {
		return nil, err
	}
	return newContainer(cfg, logger), nil
}

// NewContainerFromFile loads the configuration at path and builds a container
func NewContainerFromFile(path string) (*Container, error) {
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return NewContainer(cfg)
}

// NewContainerWithLogger builds a container around an existing logger (for testing)
func NewContainerWithLogger(cfg *config.Config, logger *zap.Logger) (*Container, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return newContainer(cfg, logger), nil
}

func newContainer(cfg *config.Config, logger *zap.Logger) *Container {
	registry := prometheus.NewRegistry()
	m := metrics.NewMetrics(registry)

	c := codec.NewRecordCodec(
		codec.WithConfig(cfg),
		codec.WithLogger(logger.Named("codec")),
		codec.WithMetrics(m),
	)
	lib := library.New(
		library.WithCodec(c),
		library.WithLogger(logger.Named("library")),
		library.WithMetrics(m),
		library.WithIndexOrder(cfg.Library.IndexOrder),
		library.WithWorkers(cfg.Library.LoadWorkers),
	)

	return &Container{
		config:   cfg,
		logger:   logger,
		registry: registry,
		metrics:  m,
		codec:    c,
		library:  lib,
	}
}

// GetConfig returns the configuration the container was built from
func (c *Container) GetConfig() *config.Config {
	return c.config
}

// GetLogger returns the root logger
func (c *Container) GetLogger() *zap.Logger {
	return c.logger
}

// GetRegistry returns the registry holding the metrics
func (c *Container) GetRegistry() *prometheus.Registry {
	return c.registry
}

// GetMetrics returns the metrics
func (c *Container) GetMetrics() *metrics.Metrics {
	return c.metrics
}

// GetCodec returns the record codec
func (c *Container) GetCodec() *codec.RecordCodec {
	return c.codec
}

// GetLibrary returns the component library
func (c *Container) GetLibrary() *library.Library {
	return c.library
}

// Close flushes the logger
func (c *Container) Close() {
	_ = c.logger.Sync()
}
