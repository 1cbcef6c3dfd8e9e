// Package config holds the settings of a formatlab run.
//
// Settings come from Default, then an optional YAML file, then command line
// flags, and are checked by Validate before a run starts.
package config

import (
	"bytes"
	"io"
	"os"
	"slices"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	fmtarrow "github.com/VanDung-dev/formatlab/arrow"
	"github.com/VanDung-dev/formatlab/records"
	"github.com/VanDung-dev/formatlab/tabular"
)

// Config holds the settings of a run.
type Config struct {
	// ScratchDir is where example files are written.
	ScratchDir string `yaml:"scratch_dir"`
	// LogLevel is debug, info, warn or error.
	LogLevel string `yaml:"log_level"`

	// Numbers is the length of the numeric sequence.
	Numbers int `yaml:"numbers"`
	// Rows is the row count of the synthetic table.
	Rows int `yaml:"rows"`
	// Seed makes the synthetic table reproducible.
	Seed uint64 `yaml:"seed"`
	// People is the number of records in the semi-structured section.
	People int `yaml:"people"`
	// Repeat is how many times each load is timed in text-vs-binary.
	Repeat int `yaml:"repeat"`

	ParquetCodec       string   `yaml:"parquet_codec"`
	RowGroupSize       int64    `yaml:"row_group_size"`
	FeatherCompression string   `yaml:"feather_compression"`
	ThriftProtocols    []string `yaml:"thrift_protocols"`
	// Formats restricts the tabular section; empty means all.
	Formats []string `yaml:"formats"`

	// MetricsFile, when set, receives a Prometheus textfile after the run.
	MetricsFile string `yaml:"metrics_file"`
	// MetricsAddress, when set, serves /metrics during the run.
	MetricsAddress string `yaml:"metrics_address"`
}

// Default returns the settings used when nothing is configured.
func Default() *Config {
	return &Config{
		ScratchDir:         "data",
		LogLevel:           "info",
		Numbers:            1_000_000,
		Rows:               100_000,
		Seed:               42,
		People:             10_000,
		Repeat:             3,
		ParquetCodec:       "snappy",
		RowGroupSize:       1 << 20,
		FeatherCompression: fmtarrow.CompressionNone,
		ThriftProtocols:    records.Protocols(),
	}
}

// Load reads a YAML file over the defaults. Unknown keys are errors.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading config %s", path)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Wrapf(err, "parsing config %s", path)
	}
	return cfg, nil
}

// TabularOptions returns the tabular format options of the config.
func (c *Config) TabularOptions() tabular.Options {
	opts := tabular.DefaultOptions()
	opts.ParquetCodec = c.ParquetCodec
	opts.RowGroupSize = c.RowGroupSize
	opts.FeatherCompression = c.FeatherCompression
	return opts
}

// Validate checks that the settings can be run.
func (c *Config) Validate() error {
	if c.ScratchDir == "" {
		return errors.New("scratch_dir must be set")
	}
	if !slices.Contains([]string{"debug", "info", "warn", "error"}, c.LogLevel) {
		return errors.Newf("log_level %q must be debug, info, warn or error", c.LogLevel)
	}
	if c.Numbers < 0 {
		return errors.Newf("numbers must not be negative, got %d", c.Numbers)
	}
	if c.Rows <= 0 {
		return errors.Newf("rows must be positive, got %d", c.Rows)
	}
	if c.People <= 0 {
		return errors.Newf("people must be positive, got %d", c.People)
	}
	if c.Repeat < 1 {
		return errors.Newf("repeat must be at least 1, got %d", c.Repeat)
	}
	if c.RowGroupSize <= 0 {
		return errors.Newf("row_group_size must be positive, got %d", c.RowGroupSize)
	}
	formats, err := tabular.Formats(c.TabularOptions())
	if err != nil {
		return err
	}
	for _, name := range c.Formats {
		if _, err := tabular.Lookup(formats, name); err != nil {
			return err
		}
	}
	if len(c.ThriftProtocols) == 0 {
		return errors.New("thrift_protocols must not be empty")
	}
	for _, p := range c.ThriftProtocols {
		if !slices.Contains(records.Protocols(), p) {
			return errors.Wrapf(records.ErrUnknownProtocol, "%q", p)
		}
	}
	return nil
}
