package dataset

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/cockroachdb/errors"
)

func TestSchema(t *testing.T) {
	schema := Schema()

	if schema.NumFields() != 5 {
		t.Errorf("Expected 5 fields, got %d", schema.NumFields())
	}

	expectedNames := []string{ColID, ColValue, ColCategory, ColTS, ColFlag}
	for i, name := range expectedNames {
		if schema.Field(i).Name != name {
			t.Errorf("Field %d: expected %s, got %s", i, name, schema.Field(i).Name)
		}
	}

	if schema.Field(2).Type.ID() != arrow.DICTIONARY {
		t.Errorf("Expected category to be a dictionary, got %s", schema.Field(2).Type)
	}
}

func TestGenerateIsDeterministic(t *testing.T) {
	a, err := Generate(100, 42)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	defer a.Release()
	b, err := Generate(100, 42)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	defer b.Release()

	if !array.RecordEqual(a, b) {
		t.Error("Expected identical records for the same seed")
	}
	if err := ValidateSchema(a.Schema(), Schema()); err != nil {
		t.Errorf("Validation should pass: %v", err)
	}

	ids := a.Column(0).(*array.Int64)
	ts := a.Column(3).(*array.Timestamp)
	values := a.Column(1).(*array.Float64)
	flags := a.Column(4).(*array.Boolean)
	for i := 0; i < int(a.NumRows()); i++ {
		if ids.Value(i) != int64(i) {
			t.Fatalf("Row %d: expected id %d, got %d", i, i, ids.Value(i))
		}
		wantTS := Epoch.UnixMilli() + int64(i)*1000
		if int64(ts.Value(i)) != wantTS {
			t.Fatalf("Row %d: expected ts %d, got %d", i, wantTS, ts.Value(i))
		}
		if v := values.Value(i); v < 0 || v >= 1 {
			t.Fatalf("Row %d: value %f out of range", i, v)
		}
		if flags.Value(i) != (values.Value(i) < 0.5) {
			t.Fatalf("Row %d: flag does not match value", i)
		}
	}
}

func TestGenerateRejectsEmpty(t *testing.T) {
	for _, rows := range []int{0, -3} {
		if _, err := Generate(rows, 1); !errors.Is(err, ErrEmpty) {
			t.Errorf("rows=%d: expected ErrEmpty, got %v", rows, err)
		}
	}
}

func TestValidateSchemaMismatch(t *testing.T) {
	other := arrow.NewSchema([]arrow.Field{{Name: "id", Type: arrow.PrimitiveTypes.Int32}}, nil)
	if err := ValidateSchema(other, Schema()); err == nil {
		t.Error("Validation should fail with wrong schema")
	}
	if err := ValidateSchema(nil, Schema()); err == nil {
		t.Error("Validation should fail with nil schema")
	}
}

func TestFlatten(t *testing.T) {
	rec, err := Generate(10, 7)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	defer rec.Release()

	flat := Flatten(rec)
	defer flat.Release()

	if flat.NumRows() != rec.NumRows() {
		t.Errorf("Expected %d rows, got %d", rec.NumRows(), flat.NumRows())
	}
	for _, i := range []int{2, 3} {
		if flat.Schema().Field(i).Type.ID() != arrow.STRING {
			t.Errorf("Field %s: expected string, got %s", flat.Schema().Field(i).Name, flat.Schema().Field(i).Type)
		}
	}

	ts := flat.Column(3).(*array.String)
	if ts.Value(1) != "2024-01-01 00:00:01" {
		t.Errorf("Expected rendered timestamp, got %q", ts.Value(1))
	}

	cats := flat.Column(2).(*array.String)
	for i := 0; i < cats.Len(); i++ {
		found := false
		for _, c := range Categories {
			if cats.Value(i) == c {
				found = true
			}
		}
		if !found {
			t.Errorf("Row %d: unexpected category %q", i, cats.Value(i))
		}
	}
}

func TestCompare(t *testing.T) {
	rec, err := Generate(20, 3)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	defer rec.Release()
	flat := Flatten(rec)
	defer flat.Release()

	want := array.NewTableFromRecords(rec.Schema(), []arrow.Record{rec})
	defer want.Release()
	got := array.NewTableFromRecords(flat.Schema(), []arrow.Record{flat})
	defer got.Release()

	same := Compare(want, want)
	if s := Summary(same); s != "types 5/5, values 5/5" {
		t.Errorf("Expected full fidelity, got %s", s)
	}

	report := Compare(want, got)
	if len(report) != 5 {
		t.Fatalf("Expected 5 columns, got %d", len(report))
	}
	for _, cf := range report {
		changed := cf.Name == ColCategory || cf.Name == ColTS
		if cf.TypePreserved == changed {
			t.Errorf("Column %s: unexpected TypePreserved=%v", cf.Name, cf.TypePreserved)
		}
		if !cf.ValuesPreserved {
			t.Errorf("Column %s: expected values to survive flattening", cf.Name)
		}
	}
	if s := Summary(report); s != "types 3/5, values 5/5" {
		t.Errorf("Unexpected summary %s", s)
	}
}
