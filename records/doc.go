// Package records serializes a small list of name/age records as a
// hierarchical text document and as schema-declared Thrift structs.
// This package implements:
// - JSON array of objects encoding
// - Thrift Person/People structs over binary and compact protocols
// - Length-prefixed framed record files
// - Conversion of records to and from Arrow record batches
package records
