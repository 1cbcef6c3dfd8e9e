package dataset

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/cockroachdb/errors"
)

// Column names of the synthetic table.
const (
	ColID       = "id"
	ColValue    = "value"
	ColCategory = "category"
	ColTS       = "ts"
	ColFlag     = "flag"
)

// TimestampType is the type of the ts column.
var TimestampType = &arrow.TimestampType{Unit: arrow.Millisecond, TimeZone: "UTC"}

// CategoryType is the type of the category column.
var CategoryType = &arrow.DictionaryType{
	IndexType: arrow.PrimitiveTypes.Int32,
	ValueType: arrow.BinaryTypes.String,
}

// Schema returns the Arrow schema of the synthetic table.
//
// Fields:
//   - id: int64 - Row number
//   - value: float64 - Uniform sample in [0, 1)
//   - category: dictionary<int32, string> - Label from Categories
//   - ts: timestamp[ms, UTC] - Epoch plus id seconds
//   - flag: bool - value < 0.5
func Schema() *arrow.Schema {
	return arrow.NewSchema(
		[]arrow.Field{
			{Name: ColID, Type: arrow.PrimitiveTypes.Int64},
			{Name: ColValue, Type: arrow.PrimitiveTypes.Float64},
			{Name: ColCategory, Type: CategoryType},
			{Name: ColTS, Type: TimestampType},
			{Name: ColFlag, Type: arrow.FixedWidthTypes.Boolean},
		},
		nil,
	)
}

// ValidateSchema checks if a schema matches the expected one by field
// count, names and types.
func ValidateSchema(actual, expected *arrow.Schema) error {
	if actual == nil {
		return errors.New("schema is nil")
	}

	if actual.NumFields() != expected.NumFields() {
		return errors.Newf("field count mismatch: got %d, expected %d",
			actual.NumFields(), expected.NumFields())
	}

	for i := 0; i < actual.NumFields(); i++ {
		actualField := actual.Field(i)
		expectedField := expected.Field(i)

		if actualField.Name != expectedField.Name {
			return errors.Newf("field %d name mismatch: got %s, expected %s",
				i, actualField.Name, expectedField.Name)
		}

		if !arrow.TypeEqual(actualField.Type, expectedField.Type) {
			return errors.Newf("field %s type mismatch: got %s, expected %s",
				actualField.Name, actualField.Type, expectedField.Type)
		}
	}

	return nil
}
