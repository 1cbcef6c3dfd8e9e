package arrow

import (
	"path/filepath"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

func makeInt64Record(t *testing.T, values []int64) arrow.Record {
	t.Helper()
	schema := arrow.NewSchema(
		[]arrow.Field{
			{Name: "n", Type: arrow.PrimitiveTypes.Int64},
		},
		nil,
	)

	b := array.NewRecordBuilder(memory.NewGoAllocator(), schema)
	defer b.Release()

	b.Field(0).(*array.Int64Builder).AppendValues(values, nil)
	return b.NewRecord()
}

func TestNewIPCRejectsUnknownCompression(t *testing.T) {
	if _, err := NewIPC("snappy"); err == nil {
		t.Error("Expected error for unsupported compression")
	}
	c, err := NewIPC("")
	if err != nil {
		t.Fatalf("NewIPC failed: %v", err)
	}
	if c.Compression() != CompressionNone {
		t.Errorf("Expected %s, got %s", CompressionNone, c.Compression())
	}
}

func TestStreamRoundTrip(t *testing.T) {
	c, err := NewIPC(CompressionNone)
	if err != nil {
		t.Fatalf("NewIPC failed: %v", err)
	}

	rec := makeInt64Record(t, []int64{1, 2, 3, 4, 5})
	defer rec.Release()

	data, err := c.SerializeToIPC(rec)
	if err != nil {
		t.Fatalf("SerializeToIPC failed: %v", err)
	}

	got, err := c.DeserializeFromIPC(data)
	if err != nil {
		t.Fatalf("DeserializeFromIPC failed: %v", err)
	}
	defer got.Release()

	if !array.RecordEqual(rec, got) {
		t.Errorf("Expected %v, got %v", rec, got)
	}

	if _, err := c.DeserializeFromIPC([]byte("not arrow")); err == nil {
		t.Error("Expected error for garbage input")
	}
}

func TestFileRoundTrip(t *testing.T) {
	for _, compression := range []string{CompressionNone, CompressionZstd, CompressionLZ4} {
		t.Run(compression, func(t *testing.T) {
			c, err := NewIPC(compression)
			if err != nil {
				t.Fatalf("NewIPC failed: %v", err)
			}

			first := makeInt64Record(t, []int64{1, 2, 3})
			defer first.Release()
			second := makeInt64Record(t, []int64{4, 5})
			defer second.Release()

			table := array.NewTableFromRecords(first.Schema(), []arrow.Record{first, second})
			defer table.Release()

			path := filepath.Join(t.TempDir(), "n.arrow")
			if err := c.WriteFile(path, table); err != nil {
				t.Fatalf("WriteFile failed: %v", err)
			}

			got, err := c.ReadFile(path)
			if err != nil {
				t.Fatalf("ReadFile failed: %v", err)
			}
			defer got.Release()

			if got.NumRows() != 5 {
				t.Errorf("Expected 5 rows, got %d", got.NumRows())
			}

			merged, err := ConcatTable(got)
			if err != nil {
				t.Fatalf("ConcatTable failed: %v", err)
			}
			defer merged.Release()

			values := merged.Column(0).(*array.Int64).Int64Values()
			for i, v := range values {
				if v != int64(i+1) {
					t.Errorf("Row %d: expected %d, got %d", i, i+1, v)
				}
			}
		})
	}
}

func TestReadFileMissing(t *testing.T) {
	c := Uncompressed()
	if _, err := c.ReadFile(filepath.Join(t.TempDir(), "missing.arrow")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestMultipleStreamRoundTrip(t *testing.T) {
	for _, compression := range []string{CompressionNone, CompressionZstd, CompressionLZ4} {
		t.Run(compression, func(t *testing.T) {
			c, err := NewIPC(compression)
			if err != nil {
				t.Fatalf("NewIPC failed: %v", err)
			}

			values := make([]int64, 10)
			for i := range values {
				values[i] = int64(i * 3)
			}
			rec := makeInt64Record(t, values)
			defer rec.Release()

			batches := SliceRecord(rec, 4)
			defer func() {
				for _, b := range batches {
					b.Release()
				}
			}()
			if len(batches) != 4 {
				t.Fatalf("Expected 4 batches, got %d", len(batches))
			}

			data, err := c.SerializeMultipleToIPC(batches)
			if err != nil {
				t.Fatalf("SerializeMultipleToIPC failed: %v", err)
			}

			got, err := c.DeserializeAllFromIPC(data)
			if err != nil {
				t.Fatalf("DeserializeAllFromIPC failed: %v", err)
			}
			defer func() {
				for _, r := range got {
					r.Release()
				}
			}()

			if len(got) != len(batches) {
				t.Fatalf("Expected %d records, got %d", len(batches), len(got))
			}
			var all []int64
			for _, r := range got {
				all = append(all, r.Column(0).(*array.Int64).Int64Values()...)
			}
			if len(all) != len(values) {
				t.Fatalf("Expected %d values, got %d", len(values), len(all))
			}
			for i := range values {
				if all[i] != values[i] {
					t.Errorf("Row %d: expected %d, got %d", i, values[i], all[i])
				}
			}
		})
	}
}

func TestSerializeMultipleRejectsEmpty(t *testing.T) {
	if _, err := Uncompressed().SerializeMultipleToIPC(nil); err == nil {
		t.Error("Expected error for no records")
	}
}

func TestDeserializeAllRejectsGarbage(t *testing.T) {
	if _, err := Uncompressed().DeserializeAllFromIPC([]byte("not an ipc stream")); err == nil {
		t.Error("Expected error for invalid stream")
	}
}

func TestSliceRecordEmpty(t *testing.T) {
	rec := makeInt64Record(t, nil)
	defer rec.Release()

	batches := SliceRecord(rec, 8)
	defer func() {
		for _, b := range batches {
			b.Release()
		}
	}()
	if len(batches) != 1 || batches[0].NumRows() != 0 {
		t.Errorf("Expected one empty batch, got %d", len(batches))
	}
}
