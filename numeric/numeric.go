// Package numeric persists a plain integer sequence in a text encoding and
// in binary array encodings, so their size and load speed can be compared.
package numeric

import (
	"bufio"
	"bytes"
	"os"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/csv"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/cockroachdb/errors"
	"github.com/sbinet/npyio"

	fmtarrow "github.com/VanDung-dev/formatlab/arrow"
)

// Codec saves and loads an integer sequence.
type Codec interface {
	Name() string
	Ext() string
	Save(path string, values []int64) error
	Load(path string) ([]int64, error)
}

// Codecs returns every codec, text first.
func Codecs() []Codec {
	return []Codec{Text{}, Npy{}, Arrow{ipc: fmtarrow.Uncompressed()}}
}

// Range returns 0, 1, ..., n-1.
func Range(n int) []int64 {
	if n < 0 {
		n = 0
	}
	out := make([]int64, n)
	for i := range out {
		out[i] = int64(i)
	}
	return out
}

// Equal reports whether a and b hold the same values.
func Equal(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func sequenceSchema() *arrow.Schema {
	return arrow.NewSchema([]arrow.Field{{Name: "n", Type: arrow.PrimitiveTypes.Int64}}, nil)
}

// Record wraps values in a single int64 column record named "n".
func Record(values []int64) arrow.Record {
	b := array.NewRecordBuilder(memory.DefaultAllocator, sequenceSchema())
	defer b.Release()
	b.Field(0).(*array.Int64Builder).AppendValues(values, nil)
	return b.NewRecord()
}

// Text stores one decimal integer per line.
type Text struct{}

func (Text) Name() string { return "text" }
func (Text) Ext() string  { return ".txt" }

// Save writes values as text.
func (Text) Save(path string, values []int64) error {
	data, err := EncodeText(values)
	if err != nil {
		return errors.Wrapf(err, "encoding %s", path)
	}
	return errors.Wrapf(os.WriteFile(path, data, 0o644), "writing %s", path)
}

// EncodeText renders values one per line.
func EncodeText(values []int64) ([]byte, error) {
	rec := Record(values)
	defer rec.Release()

	var buf bytes.Buffer
	w := csv.NewWriter(&buf, rec.Schema(), csv.WithHeader(false))
	if err := w.Write(rec); err != nil {
		return nil, err
	}
	if err := w.Flush(); err != nil {
		return nil, err
	}
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Load parses a text file written by Save.
func (Text) Load(path string) ([]int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	defer f.Close()

	r := csv.NewReader(bufio.NewReader(f), sequenceSchema(),
		csv.WithHeader(false), csv.WithChunk(64*1024))
	defer r.Release()

	var out []int64
	for r.Next() {
		out = append(out, r.Record().Column(0).(*array.Int64).Int64Values()...)
	}
	if err := r.Err(); err != nil {
		return nil, errors.Wrapf(err, "parsing %s", path)
	}
	if out == nil {
		out = []int64{}
	}
	return out, nil
}

// Npy stores values in the NumPy array format.
type Npy struct{}

func (Npy) Name() string { return "npy" }
func (Npy) Ext() string  { return ".npy" }

// Save writes values as a one dimensional <i8 array.
func (Npy) Save(path string, values []int64) error {
	var buf bytes.Buffer
	if err := npyio.Write(&buf, values); err != nil {
		return errors.Wrapf(err, "encoding %s", path)
	}
	return errors.Wrapf(os.WriteFile(path, buf.Bytes(), 0o644), "writing %s", path)
}

// Load reads a NumPy array of int64.
func (Npy) Load(path string) ([]int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	defer f.Close()

	var out []int64
	if err := npyio.Read(f, &out); err != nil {
		return nil, errors.Wrapf(err, "decoding %s", path)
	}
	return out, nil
}

// NpyInfo is the metadata stored in a .npy header.
type NpyInfo struct {
	Major   byte
	Minor   byte
	DType   string
	Fortran bool
	Shape   []int
}

// NpyHeader reads only the header of a .npy file.
func NpyHeader(path string) (NpyInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return NpyInfo{}, errors.Wrapf(err, "opening %s", path)
	}
	defer f.Close()

	r, err := npyio.NewReader(f)
	if err != nil {
		return NpyInfo{}, errors.Wrapf(err, "reading header of %s", path)
	}
	return NpyInfo{
		Major:   r.Header.Major,
		Minor:   r.Header.Minor,
		DType:   r.Header.Descr.Type,
		Fortran: r.Header.Descr.Fortran,
		Shape:   r.Header.Descr.Shape,
	}, nil
}

// Arrow stores values as a single column Arrow IPC file.
type Arrow struct {
	ipc *fmtarrow.IPC
}

func (a Arrow) codec() *fmtarrow.IPC {
	if a.ipc == nil {
		return fmtarrow.Uncompressed()
	}
	return a.ipc
}

func (Arrow) Name() string { return "arrow" }
func (Arrow) Ext() string  { return ".arrow" }

// Save writes values as an IPC file.
func (a Arrow) Save(path string, values []int64) error {
	rec := Record(values)
	defer rec.Release()
	table := fmtarrow.TableFromRecord(rec)
	defer table.Release()
	return a.codec().WriteFile(path, table)
}

// Load reads an IPC file written by Save.
func (a Arrow) Load(path string) ([]int64, error) {
	table, err := a.codec().ReadFile(path)
	if err != nil {
		return nil, err
	}
	defer table.Release()
	if table.NumCols() != 1 || table.Column(0).DataType().ID() != arrow.INT64 {
		return nil, errors.Newf("%s: expected a single int64 column, got %s", path, table.Schema())
	}

	out := make([]int64, 0, table.NumRows())
	for _, chunk := range table.Column(0).Data().Chunks() {
		out = append(out, chunk.(*array.Int64).Int64Values()...)
	}
	return out, nil
}
