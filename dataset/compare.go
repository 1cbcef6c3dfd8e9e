package dataset

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
)

// ColumnFidelity describes what survived of one column after a round trip.
type ColumnFidelity struct {
	Name            string `json:"name"`
	WantType        string `json:"want_type"`
	GotType         string `json:"got_type,omitempty"`
	Present         bool   `json:"present"`
	TypePreserved   bool   `json:"type_preserved"`
	ValuesPreserved bool   `json:"values_preserved"`
}

// Compare reports, for every column of want, whether got holds the same
// type and the same values. Values of columns whose type changed are
// compared on their text rendering.
func Compare(want, got arrow.Table) []ColumnFidelity {
	out := make([]ColumnFidelity, 0, want.NumCols())
	for i := 0; i < int(want.NumCols()); i++ {
		wantField := want.Schema().Field(i)
		cf := ColumnFidelity{Name: wantField.Name, WantType: wantField.Type.String()}

		idx := got.Schema().FieldIndices(wantField.Name)
		if len(idx) == 0 {
			out = append(out, cf)
			continue
		}
		gotCol := got.Column(idx[0])
		cf.Present = true
		cf.GotType = gotCol.DataType().String()
		cf.TypePreserved = arrow.TypeEqual(wantField.Type, gotCol.DataType())

		switch {
		case want.NumRows() != got.NumRows():
		case cf.TypePreserved:
			cf.ValuesPreserved = array.ChunkedEqual(want.Column(i).Data(), gotCol.Data())
		default:
			cf.ValuesPreserved = equalRendered(want.Column(i).Data(), gotCol.Data())
		}
		out = append(out, cf)
	}
	return out
}

// Summary condenses a fidelity report to "types a/n, values b/n".
func Summary(report []ColumnFidelity) string {
	var types, values int
	for _, cf := range report {
		if cf.TypePreserved {
			types++
		}
		if cf.ValuesPreserved {
			values++
		}
	}
	return fmt.Sprintf("types %d/%d, values %d/%d", types, len(report), values, len(report))
}

func equalRendered(a, b *arrow.Chunked) bool {
	if a.Len() != b.Len() {
		return false
	}
	left := renderChunked(a)
	right := renderChunked(b)
	for i := range left {
		if left[i] != right[i] {
			return false
		}
	}
	return true
}

func renderChunked(c *arrow.Chunked) []string {
	out := make([]string, 0, c.Len())
	for _, chunk := range c.Chunks() {
		for j := 0; j < chunk.Len(); j++ {
			out = append(out, CellString(chunk, j))
		}
	}
	return out
}
