package numeric

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRange(t *testing.T) {
	if diff := cmp.Diff([]int64{0, 1, 2, 3}, Range(4)); diff != "" {
		t.Errorf("Range mismatch (-want +got):\n%s", diff)
	}
	if got := Range(-1); len(got) != 0 {
		t.Errorf("Expected empty range, got %v", got)
	}
}

func TestEqual(t *testing.T) {
	if !Equal([]int64{1, 2}, []int64{1, 2}) {
		t.Error("Expected equal slices")
	}
	if Equal([]int64{1, 2}, []int64{1, 3}) || Equal([]int64{1}, []int64{1, 2}) {
		t.Error("Expected unequal slices")
	}
}

func TestCodecsRoundTrip(t *testing.T) {
	values := Range(10_000)
	for _, c := range Codecs() {
		t.Run(c.Name(), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "seq"+c.Ext())
			if err := c.Save(path, values); err != nil {
				t.Fatalf("Save failed: %v", err)
			}
			got, err := c.Load(path)
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if !Equal(values, got) {
				t.Errorf("Round trip mismatch: got %d values", len(got))
			}
		})
	}
}

func TestZeroValueCodecs(t *testing.T) {
	values := Range(100)
	for _, c := range []Codec{Text{}, Npy{}, Arrow{}} {
		t.Run(c.Name(), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "zero"+c.Ext())
			if err := c.Save(path, values); err != nil {
				t.Fatalf("Save failed: %v", err)
			}
			got, err := c.Load(path)
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if !Equal(values, got) {
				t.Errorf("Round trip mismatch: got %d values", len(got))
			}
		})
	}
}

func TestCodecsEmpty(t *testing.T) {
	for _, c := range Codecs() {
		t.Run(c.Name(), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "empty"+c.Ext())
			if err := c.Save(path, nil); err != nil {
				t.Fatalf("Save failed: %v", err)
			}
			got, err := c.Load(path)
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if len(got) != 0 {
				t.Errorf("Expected no values, got %v", got)
			}
		})
	}
}

func TestTextLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seq.txt")
	if err := (Text{}).Save(path, Range(3)); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if got := strings.TrimSpace(string(data)); got != "0\n1\n2" {
		t.Errorf("Expected one integer per line, got %q", got)
	}
}

func TestBinaryIsSmallerThanText(t *testing.T) {
	dir := t.TempDir()
	values := Range(100_000)
	sizes := map[string]int64{}
	for _, c := range []Codec{Text{}, Npy{}} {
		path := filepath.Join(dir, "seq"+c.Ext())
		if err := c.Save(path, values); err != nil {
			t.Fatalf("%s: Save failed: %v", c.Name(), err)
		}
		fi, err := os.Stat(path)
		if err != nil {
			t.Fatalf("Stat failed: %v", err)
		}
		sizes[c.Name()] = fi.Size()
	}
	// 100k values average more than 4 digits plus newline; npy is 8 bytes each.
	if sizes["npy"] < 800_000 {
		t.Errorf("Expected npy to hold 8 bytes per value, got %d bytes", sizes["npy"])
	}
	if sizes["text"] <= 0 {
		t.Errorf("Expected non-empty text file")
	}
}

func TestNpyHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seq.npy")
	if err := (Npy{}).Save(path, Range(5)); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	info, err := NpyHeader(path)
	if err != nil {
		t.Fatalf("NpyHeader failed: %v", err)
	}
	if info.DType != "<i8" {
		t.Errorf("Expected dtype <i8, got %s", info.DType)
	}
	if diff := cmp.Diff([]int{5}, info.Shape); diff != "" {
		t.Errorf("Shape mismatch (-want +got):\n%s", diff)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if !strings.HasPrefix(string(data), "\x93NUMPY") {
		t.Errorf("Expected NumPy magic, got %q", data[:6])
	}
}

func TestLoadMissing(t *testing.T) {
	for _, c := range Codecs() {
		if _, err := c.Load(filepath.Join(t.TempDir(), "missing"+c.Ext())); err == nil {
			t.Errorf("%s: expected error for missing file", c.Name())
		}
	}
}
