package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"

	"github.com/VanDung-dev/formatlab/records"
	"github.com/VanDung-dev/formatlab/tabular"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "formatlab.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("Default config should be valid: %v", err)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
rows: 500
parquet_codec: zstd
formats: [csv, parquet]
thrift_protocols: [compact]
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Rows != 500 {
		t.Errorf("Expected rows 500, got %d", cfg.Rows)
	}
	if cfg.ParquetCodec != "zstd" {
		t.Errorf("Expected zstd, got %s", cfg.ParquetCodec)
	}
	if cfg.Numbers != Default().Numbers {
		t.Errorf("Expected default numbers, got %d", cfg.Numbers)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate failed: %v", err)
	}
	if got := cfg.TabularOptions().ParquetCodec; got != "zstd" {
		t.Errorf("Expected tabular codec zstd, got %s", got)
	}
}

func TestLoadEmptyPathAndFile(t *testing.T) {
	cfg, err := Load("")
	if err != nil || cfg.Rows != Default().Rows {
		t.Errorf("Expected defaults for empty path, got %+v (%v)", cfg, err)
	}
	cfg, err = Load(writeConfig(t, ""))
	if err != nil || cfg.Rows != Default().Rows {
		t.Errorf("Expected defaults for empty file, got %+v (%v)", cfg, err)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	if _, err := Load(writeConfig(t, "rowz: 5\n")); err == nil {
		t.Error("Expected error for unknown key")
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		target error
	}{
		{name: "empty scratch", mutate: func(c *Config) { c.ScratchDir = "" }},
		{name: "bad log level", mutate: func(c *Config) { c.LogLevel = "trace" }},
		{name: "negative numbers", mutate: func(c *Config) { c.Numbers = -1 }},
		{name: "zero rows", mutate: func(c *Config) { c.Rows = 0 }},
		{name: "zero people", mutate: func(c *Config) { c.People = 0 }},
		{name: "zero repeat", mutate: func(c *Config) { c.Repeat = 0 }},
		{name: "zero row group", mutate: func(c *Config) { c.RowGroupSize = 0 }},
		{name: "bad codec", mutate: func(c *Config) { c.ParquetCodec = "lzo" }},
		{name: "bad feather", mutate: func(c *Config) { c.FeatherCompression = "snappy" }},
		{name: "bad format", mutate: func(c *Config) { c.Formats = []string{"hdf5"} }, target: tabular.ErrUnknownFormat},
		{name: "no protocols", mutate: func(c *Config) { c.ThriftProtocols = nil }},
		{name: "bad protocol", mutate: func(c *Config) { c.ThriftProtocols = []string{"json"} }, target: records.ErrUnknownProtocol},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Expected validation error")
			}
			if tt.target != nil && !errors.Is(err, tt.target) {
				t.Errorf("Expected %v, got %v", tt.target, err)
			}
		})
	}
}
