package config

import (
	"runtime"

	"github.com/ajitpratap0/strata/pkg/compression"
	"github.com/ajitpratap0/strata/pkg/csv"
	"github.com/ajitpratap0/strata/pkg/errors"
	"github.com/ajitpratap0/strata/pkg/logger"
	"github.com/ajitpratap0/strata/pkg/schema"
)

// Config describes one event table: where its rows come from, how they are
// split and typed, and the defaults of queries run against it.
type Config struct {
	// Name identifies the table in logs and metrics
	Name    string `yaml:"name" json:"name"`
	Version string `yaml:"version" json:"version"`

	// Source locates the input
	Source SourceConfig `yaml:"source" json:"source"`

	// Reader sets the CSV dialect and scratch buffer sizes
	Reader ReaderConfig `yaml:"reader" json:"reader"`

	// Ingest controls batching and concurrency
	Ingest IngestConfig `yaml:"ingest" json:"ingest"`

	// EventID selects how event ids are assigned to rows
	EventID EventIDConfig `yaml:"event_id" json:"event_id"`

	// Query holds defaults for statistics and value queries
	Query QueryConfig `yaml:"query" json:"query"`

	// Schema lists the columns in field order
	Schema []schema.Field `yaml:"schema" json:"schema"`

	// Observability settings for logging, metrics and tracing
	Observability ObservabilityConfig `yaml:"observability" json:"observability"`
}

// SourceConfig locates the input.
type SourceConfig struct {
	// Path of the input file; "-" reads standard input
	Path string `yaml:"path" json:"path"`
	// Compression is none, auto or an algorithm name
	Compression compression.Algorithm `yaml:"compression" json:"compression"`
	// HasHeader skips the first record
	HasHeader bool `yaml:"has_header" json:"has_header"`
	// MemoryMap maps uncompressed files into memory instead of streaming them
	MemoryMap bool `yaml:"memory_map" json:"memory_map"`
}

// ReaderConfig is the CSV dialect.
type ReaderConfig struct {
	Delimiter   string `yaml:"delimiter" json:"delimiter"`
	Quote       string `yaml:"quote" json:"quote"`
	DoubleQuote bool   `yaml:"double_quote" json:"double_quote"`
	// FieldBufferSize and EndsBufferSize are the initial scratch sizes; they
	// never change the records produced.
	FieldBufferSize int `yaml:"field_buffer_size" json:"field_buffer_size"`
	EndsBufferSize  int `yaml:"ends_buffer_size" json:"ends_buffer_size"`
}

// IngestConfig controls batching and concurrency.
type IngestConfig struct {
	// BatchSize is the number of records materialized together
	BatchSize int `yaml:"batch_size" json:"batch_size"`
	// Workers bounds concurrent batch materialization; zero uses all CPUs
	Workers int `yaml:"workers" json:"workers"`
}

// EventIDConfig selects how event ids are assigned. When Column names an
// Int64 column its values are the ids; otherwise row i gets Base+i.
type EventIDConfig struct {
	Column string `yaml:"column" json:"column"`
	Base   uint64 `yaml:"base" json:"base"`
}

// QueryConfig holds query defaults.
type QueryConfig struct {
	// TopN is the number of frequent values kept per column
	TopN uint32 `yaml:"top_n" json:"top_n"`
	// TimeInterval is the datetime bucket width in seconds
	TimeInterval uint32 `yaml:"time_interval" json:"time_interval"`
	// MaxLength truncates rendered values; zero keeps them whole
	MaxLength int `yaml:"max_length" json:"max_length"`
	// Unique drops repeated values of one event
	Unique bool `yaml:"unique" json:"unique"`
}

// ObservabilityConfig contains monitoring and observability settings.
type ObservabilityConfig struct {
	// LogLevel sets logging verbosity (debug, info, warn, error)
	LogLevel string `yaml:"log_level" json:"log_level"`
	// LogEncoding is json or console
	LogEncoding string `yaml:"log_encoding" json:"log_encoding"`
	Development bool   `yaml:"development" json:"development"`
	// MetricsAddr serves Prometheus metrics when not empty
	MetricsAddr string `yaml:"metrics_addr" json:"metrics_addr"`
	// EnableTracing activates OpenTelemetry spans
	EnableTracing bool `yaml:"enable_tracing" json:"enable_tracing"`
}

// NewConfig creates a Config with sensible defaults.
func NewConfig(name string) *Config {
	return &Config{
		Name:    name,
		Version: "1.0.0",
		Source: SourceConfig{
			Compression: compression.Auto,
		},
		Reader: ReaderConfig{
			Delimiter:       ",",
			Quote:           `"`,
			DoubleQuote:     true,
			FieldBufferSize: csv.DefaultFieldBufferSize,
			EndsBufferSize:  csv.DefaultEndsBufferSize,
		},
		Ingest: IngestConfig{
			BatchSize: 4096,
			Workers:   runtime.NumCPU(),
		},
		Query: QueryConfig{
			TopN:         10,
			TimeInterval: 3600,
		},
		Observability: ObservabilityConfig{
			LogLevel:    "info",
			LogEncoding: "json",
		},
	}
}

// Validate checks required fields and value ranges.
func (c *Config) Validate() error {
	if c.Name == "" {
		return errors.New(errors.ErrorTypeConfig, "name is required")
	}
	if len(c.Schema) == 0 {
		return errors.New(errors.ErrorTypeConfig, "schema must list at least one column")
	}
	seen := make(map[string]bool, len(c.Schema))
	for i, f := range c.Schema {
		if f.Name == "" {
			return errors.Newf(errors.ErrorTypeConfig, "schema column %d has no name", i)
		}
		if seen[f.Name] {
			return errors.Newf(errors.ErrorTypeConfig, "duplicate schema column %q", f.Name)
		}
		seen[f.Name] = true
	}
	if len(c.Reader.Delimiter) != 1 {
		return errors.New(errors.ErrorTypeConfig, "delimiter must be a single byte")
	}
	if len(c.Reader.Quote) > 1 {
		return errors.New(errors.ErrorTypeConfig, "quote must be a single byte or empty")
	}
	if c.Reader.Quote == c.Reader.Delimiter {
		return errors.New(errors.ErrorTypeConfig, "quote and delimiter must differ")
	}
	if c.Reader.FieldBufferSize < 0 || c.Reader.EndsBufferSize < 0 {
		return errors.New(errors.ErrorTypeConfig, "buffer sizes cannot be negative")
	}
	if c.Ingest.BatchSize <= 0 {
		return errors.New(errors.ErrorTypeConfig, "batch_size must be positive")
	}
	if c.Ingest.Workers < 0 {
		return errors.New(errors.ErrorTypeConfig, "workers cannot be negative")
	}
	if _, err := compression.ParseAlgorithm(string(c.Source.Compression)); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "invalid source compression")
	}
	if c.EventID.Column != "" {
		i, ok := c.TableSchema().Index(c.EventID.Column)
		if !ok {
			return errors.Newf(errors.ErrorTypeConfig, "event id column %q is not in the schema", c.EventID.Column)
		}
		if c.Schema[i].Type != schema.Int64 {
			return errors.Newf(errors.ErrorTypeConfig, "event id column %q must be int64, not %s",
				c.EventID.Column, c.Schema[i].Type)
		}
	}
	return nil
}

// TableSchema returns the configured columns as a schema.
func (c *Config) TableSchema() *schema.Schema {
	return &schema.Schema{Fields: c.Schema}
}

// Options returns the CSV reader options of the dialect.
func (r ReaderConfig) Options() []csv.Option {
	opts := []csv.Option{csv.WithDoubleQuote(r.DoubleQuote)}
	if r.Delimiter != "" {
		opts = append(opts, csv.WithDelimiter(r.Delimiter[0]))
	}
	if r.Quote == "" {
		opts = append(opts, csv.WithQuote(0))
	} else {
		opts = append(opts, csv.WithQuote(r.Quote[0]))
	}
	if r.FieldBufferSize > 0 || r.EndsBufferSize > 0 {
		opts = append(opts, csv.WithBufferSizes(r.FieldBufferSize, r.EndsBufferSize))
	}
	return opts
}

// GetWorkers returns the number of workers, ensuring it's at least 1
func (i IngestConfig) GetWorkers() int {
	if i.Workers <= 0 {
		return runtime.NumCPU()
	}
	return i.Workers
}

// Logger returns the logger configuration.
func (o ObservabilityConfig) Logger() logger.Config {
	return logger.Config{
		Level:       o.LogLevel,
		Development: o.Development,
		Encoding:    o.LogEncoding,
	}
}
