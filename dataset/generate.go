package dataset

import (
	"math/rand/v2"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/cockroachdb/errors"
)

// ErrEmpty is returned when a table with no rows is requested.
var ErrEmpty = errors.New("row count must be positive")

// Categories are the labels of the category column.
var Categories = []string{"alpha", "beta", "gamma", "delta", "epsilon"}

// Epoch is the timestamp of row 0.
var Epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// TimestampLayout is how timestamps are rendered as text.
const TimestampLayout = "2006-01-02 15:04:05"

// Generate builds a table of rows rows. The same seed always yields the
// same table.
func Generate(rows int, seed uint64) (arrow.Record, error) {
	if rows <= 0 {
		return nil, errors.Wrapf(ErrEmpty, "rows=%d", rows)
	}

	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	builder := array.NewRecordBuilder(memory.DefaultAllocator, Schema())
	defer builder.Release()

	idBuilder := builder.Field(0).(*array.Int64Builder)
	valueBuilder := builder.Field(1).(*array.Float64Builder)
	categoryBuilder := builder.Field(2).(*array.BinaryDictionaryBuilder)
	tsBuilder := builder.Field(3).(*array.TimestampBuilder)
	flagBuilder := builder.Field(4).(*array.BooleanBuilder)

	idBuilder.Reserve(rows)
	valueBuilder.Reserve(rows)
	tsBuilder.Reserve(rows)
	flagBuilder.Reserve(rows)

	epochMillis := Epoch.UnixMilli()
	for i := 0; i < rows; i++ {
		v := rng.Float64()
		idBuilder.Append(int64(i))
		valueBuilder.Append(v)
		if err := categoryBuilder.AppendString(Categories[rng.IntN(len(Categories))]); err != nil {
			return nil, errors.Wrapf(err, "appending category for row %d", i)
		}
		tsBuilder.Append(arrow.Timestamp(epochMillis + int64(i)*1000))
		flagBuilder.Append(v < 0.5)
	}

	return builder.NewRecord(), nil
}

// Flatten returns a copy of record that text formats can hold: dictionary
// columns are decoded into strings and timestamps are rendered with
// TimestampLayout.
func Flatten(record arrow.Record) arrow.Record {
	mem := memory.DefaultAllocator
	schema := record.Schema()
	fields := make([]arrow.Field, record.NumCols())
	cols := make([]arrow.Array, record.NumCols())
	defer func() {
		for _, col := range cols {
			col.Release()
		}
	}()

	for i, col := range record.Columns() {
		field := schema.Field(i)
		switch col.DataType().ID() {
		case arrow.DICTIONARY, arrow.TIMESTAMP:
			sb := array.NewStringBuilder(mem)
			sb.Reserve(col.Len())
			for j := 0; j < col.Len(); j++ {
				if col.IsNull(j) {
					sb.AppendNull()
					continue
				}
				sb.Append(CellString(col, j))
			}
			cols[i] = sb.NewArray()
			sb.Release()
			fields[i] = arrow.Field{Name: field.Name, Type: arrow.BinaryTypes.String, Nullable: field.Nullable}
		default:
			col.Retain()
			cols[i] = col
			fields[i] = field
		}
	}

	return array.NewRecord(arrow.NewSchema(fields, nil), cols, record.NumRows())
}

// CellString renders one value the way it is compared across formats.
// Timestamps use TimestampLayout and dictionaries are decoded.
func CellString(arr arrow.Array, i int) string {
	if arr.IsNull(i) {
		return ""
	}
	switch a := arr.(type) {
	case *array.Timestamp:
		unit := a.DataType().(*arrow.TimestampType).Unit
		return a.Value(i).ToTime(unit).UTC().Format(TimestampLayout)
	case *array.Dictionary:
		return CellString(a.Dictionary(), a.GetValueIndex(i))
	default:
		return arr.ValueStr(i)
	}
}
