package records

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/cockroachdb/errors"
	"github.com/goccy/go-json"
)

// PersonSchema returns the Arrow schema for a Person.
//
// Fields:
//   - name: string (nullable)
//   - age: int32 (nullable)
func PersonSchema() *arrow.Schema {
	return arrow.NewSchema(
		[]arrow.Field{
			{Name: "name", Type: arrow.BinaryTypes.String, Nullable: true},
			{Name: "age", Type: arrow.PrimitiveTypes.Int32, Nullable: true},
		},
		nil,
	)
}

// Converter handles conversion between records, JSON and Arrow.
type Converter struct {
	allocator memory.Allocator
	schema    *arrow.Schema
}

// NewConverter creates a new Converter with the default memory allocator.
func NewConverter() *Converter {
	return &Converter{
		allocator: memory.DefaultAllocator,
		schema:    PersonSchema(),
	}
}

// PeopleToRecord converts people to an Arrow record batch.
func (c *Converter) PeopleToRecord(people []Person) (arrow.Record, error) {
	if len(people) == 0 {
		return nil, errors.New("empty people slice")
	}

	builder := array.NewRecordBuilder(c.allocator, c.schema)
	defer builder.Release()

	nameBuilder := builder.Field(0).(*array.StringBuilder)
	ageBuilder := builder.Field(1).(*array.Int32Builder)

	for _, p := range people {
		nameBuilder.Append(p.Name)
		ageBuilder.Append(p.Age)
	}

	return builder.NewRecord(), nil
}

// JSONToRecord converts a JSON array of people to an Arrow record batch.
func (c *Converter) JSONToRecord(jsonData []byte) (arrow.Record, error) {
	var people []Person
	if err := json.Unmarshal(jsonData, &people); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal JSON")
	}
	return c.PeopleToRecord(people)
}

// RecordToPeople converts an Arrow record batch back to people. Null
// cells become zero values.
func (c *Converter) RecordToPeople(record arrow.Record) ([]Person, error) {
	if record == nil || record.NumRows() == 0 {
		return []Person{}, nil
	}

	if record.NumCols() < 2 {
		return nil, errors.Newf("invalid record: expected at least 2 columns, got %d", record.NumCols())
	}

	nameCol, ok := record.Column(0).(*array.String)
	if !ok {
		return nil, errors.New("column 0 (name) is not a String array")
	}
	ageCol, ok := record.Column(1).(*array.Int32)
	if !ok {
		return nil, errors.New("column 1 (age) is not an Int32 array")
	}

	people := make([]Person, record.NumRows())
	for i := range people {
		if nameCol.IsValid(i) {
			people[i].Name = nameCol.Value(i)
		}
		if ageCol.IsValid(i) {
			people[i].Age = ageCol.Value(i)
		}
	}
	return people, nil
}

// RecordToJSON converts an Arrow record batch back to JSON bytes.
func (c *Converter) RecordToJSON(record arrow.Record) ([]byte, error) {
	people, err := c.RecordToPeople(record)
	if err != nil {
		return nil, err
	}
	return json.Marshal(people)
}
