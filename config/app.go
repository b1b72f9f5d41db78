package config

import (
	"fmt"

	"github.com/kbukum/compgraph/extsort"
	"github.com/kbukum/compgraph/logger"
	"github.com/kbukum/compgraph/validation"
)

// DefaultSortChunkSize is the number of rows an external sort holds in memory
// before spilling a chunk to disk.
const DefaultSortChunkSize = extsort.DefaultChunkSize

// App is the complete compgraph configuration.
type App struct {
	Name          string              `yaml:"name" mapstructure:"name" validate:"required"`
	Environment   string              `yaml:"environment" mapstructure:"environment" validate:"oneof=development staging production"`
	Logging       logger.Config       `yaml:"logging" mapstructure:"logging"`
	Engine        EngineConfig        `yaml:"engine" mapstructure:"engine"`
	Observability ObservabilityConfig `yaml:"observability" mapstructure:"observability"`
}

// EngineConfig tunes the dataflow engine.
type EngineConfig struct {
	SortChunkSize int    `yaml:"sort_chunk_size" mapstructure:"sort_chunk_size" validate:"gte=1"`
	TempDir       string `yaml:"temp_dir" mapstructure:"temp_dir" validate:"omitempty,dir"`
}

// ObservabilityConfig controls OpenTelemetry export.
type ObservabilityConfig struct {
	Enabled    bool    `yaml:"enabled" mapstructure:"enabled"`
	Endpoint   string  `yaml:"endpoint" mapstructure:"endpoint" validate:"required_if=Enabled true"`
	Insecure   bool    `yaml:"insecure" mapstructure:"insecure"`
	SampleRate float64 `yaml:"sample_rate" mapstructure:"sample_rate" validate:"gte=0,lte=1"`
}

// SortOptions turns the engine settings into options for every sort of a graph.
func (e EngineConfig) SortOptions() []extsort.Option {
	opts := []extsort.Option{extsort.WithChunkSize(e.SortChunkSize)}
	if e.TempDir != "" {
		opts = append(opts, extsort.WithTempDir(e.TempDir))
	}
	return opts
}

// ApplyDefaults fills unset fields.
func (c *App) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "compgraph"
	}
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Logging.ServiceName == "" {
		c.Logging.ServiceName = c.Name
	}
	c.Logging.ApplyDefaults()
	if c.Engine.SortChunkSize == 0 {
		c.Engine.SortChunkSize = DefaultSortChunkSize
	}
	if c.Observability.Endpoint == "" {
		c.Observability.Endpoint = "localhost:4318"
	}
	if c.Observability.SampleRate == 0 {
		c.Observability.SampleRate = 1.0
	}
}

// Validate validates the configuration.
func (c *App) Validate() error {
	if err := validation.Validate(c); err != nil {
		return err
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("config.logging: %w", err)
	}
	return nil
}

// Load reads, defaults and validates the application configuration.
func Load(opts ...LoaderOption) (*App, error) {
	var cfg App
	if err := LoadConfig("compgraph", &cfg, opts...); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
