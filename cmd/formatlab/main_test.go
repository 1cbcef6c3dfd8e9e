package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/goccy/go-json"
	"github.com/spf13/pflag"

	"github.com/VanDung-dev/formatlab/config"
	"github.com/VanDung-dev/formatlab/lab"
)

func TestVersionCommand(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})
	if err := root.Execute(); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if got := out.String(); got != "formatlab v"+Version+"\n" {
		t.Errorf("Unexpected output %q", got)
	}
}

func TestSectionsCommand(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"sections"})
	if err := root.Execute(); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	for _, name := range []string{"persisting", "text-vs-binary", "tabular", "semi-structured"} {
		if !strings.Contains(out.String(), name) {
			t.Errorf("Expected %s in output:\n%s", name, out.String())
		}
	}
}

func TestRunJSONKeepsStdoutParseable(t *testing.T) {
	root := newRootCmd()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs([]string{
		"--scratch", t.TempDir(), "--numbers", "500", "--repeat", "1", "--log-level", "error",
		"run", "--json", "persisting", "text-vs-binary",
	})
	if err := root.Execute(); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	var report lab.Report
	if err := json.Unmarshal(stdout.Bytes(), &report); err != nil {
		t.Fatalf("Expected stdout to be a JSON report: %v\n%s", err, stdout.String())
	}
	if len(report.Results) == 0 {
		t.Error("Expected results in the JSON report")
	}
	if !strings.Contains(stderr.String(), "load text") {
		t.Errorf("Expected progress lines on stderr, got %q", stderr.String())
	}
}

func TestFlagsOverrideConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "formatlab.yaml")
	body := "rows: 777\nnumbers: 10\nscratch_dir: " + filepath.Join(dir, "from-file") + "\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"--config", path, "--numbers", "20", "version"})
	if err := root.Execute(); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
}

func TestResolveLayersFileUnderFlags(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "formatlab.yaml")
	if err := os.WriteFile(path, []byte("rows: 777\nnumbers: 10\n"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	f := &flags{cfg: config.Default(), configPath: path}
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.IntVar(&f.cfg.Numbers, "numbers", f.cfg.Numbers, "")
	fs.IntVar(&f.cfg.Rows, "rows", f.cfg.Rows, "")
	if err := fs.Parse([]string{"--numbers", "20"}); err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if err := f.resolve(fs); err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if f.cfg.Rows != 777 {
		t.Errorf("Expected rows from file, got %d", f.cfg.Rows)
	}
	if f.cfg.Numbers != 20 {
		t.Errorf("Expected numbers from flag, got %d", f.cfg.Numbers)
	}
}

func TestInvalidFlagsFail(t *testing.T) {
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"--rows", "0", "version"})
	if err := root.Execute(); err == nil {
		t.Error("Expected validation error for zero rows")
	}
}

func TestApplyFlag(t *testing.T) {
	dst := config.Default()
	src := config.Default()
	src.Rows = 5
	src.ParquetCodec = "zstd"
	src.Formats = []string{"csv"}

	for _, name := range []string{"rows", "parquet-codec", "formats"} {
		applyFlag(dst, src, name)
	}
	if dst.Rows != 5 || dst.ParquetCodec != "zstd" || len(dst.Formats) != 1 {
		t.Errorf("Expected flags to be applied, got %+v", dst)
	}
	if dst.Numbers != config.Default().Numbers {
		t.Errorf("Expected untouched numbers, got %d", dst.Numbers)
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"success", nil, 0},
		{"interrupted", errors.Wrap(context.Canceled, "running tabular"), exitInterrupted},
		{"failure", errors.New("boom"), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stderr bytes.Buffer
			if got := exitCode(&stderr, tt.err); got != tt.want {
				t.Errorf("Expected exit code %d, got %d", tt.want, got)
			}
			if tt.want == 1 && !strings.Contains(stderr.String(), "boom") {
				t.Errorf("Expected the error on stderr, got %q", stderr.String())
			}
		})
	}
}
