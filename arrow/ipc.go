package arrow

import (
	"bytes"
	"os"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/cockroachdb/errors"
)

// Compression names accepted by NewIPC.
const (
	CompressionNone = "none"
	CompressionZstd = "zstd"
	CompressionLZ4  = "lz4"
)

// IPC reads and writes Arrow IPC streams and files.
type IPC struct {
	allocator   memory.Allocator
	compression string
}

// NewIPC creates an IPC codec. compression is one of "", "none", "zstd" or "lz4".
func NewIPC(compression string) (*IPC, error) {
	switch compression {
	case "", CompressionNone:
		compression = CompressionNone
	case CompressionZstd, CompressionLZ4:
	default:
		return nil, errors.Newf("unknown IPC compression %q", compression)
	}
	return &IPC{
		allocator:   memory.DefaultAllocator,
		compression: compression,
	}, nil
}

// Uncompressed returns an IPC codec without body compression.
func Uncompressed() *IPC {
	return &IPC{allocator: memory.DefaultAllocator, compression: CompressionNone}
}

// Compression returns the body compression in use.
func (c *IPC) Compression() string { return c.compression }

func (c *IPC) writerOptions(schema *arrow.Schema) []ipc.Option {
	opts := []ipc.Option{ipc.WithSchema(schema), ipc.WithAllocator(c.allocator)}
	switch c.compression {
	case CompressionZstd:
		opts = append(opts, ipc.WithZstd())
	case CompressionLZ4:
		opts = append(opts, ipc.WithLZ4())
	}
	return opts
}

// SerializeToIPC serializes a record to IPC stream bytes.
func (c *IPC) SerializeToIPC(record arrow.Record) ([]byte, error) {
	var buf bytes.Buffer

	writer := ipc.NewWriter(&buf, c.writerOptions(record.Schema())...)
	defer writer.Close()

	if err := writer.Write(record); err != nil {
		return nil, errors.Wrap(err, "failed to write record")
	}

	if err := writer.Close(); err != nil {
		return nil, errors.Wrap(err, "failed to close writer")
	}

	return buf.Bytes(), nil
}

// DeserializeFromIPC deserializes IPC stream bytes to the first record.
func (c *IPC) DeserializeFromIPC(data []byte) (arrow.Record, error) {
	reader, err := ipc.NewReader(bytes.NewReader(data), ipc.WithAllocator(c.allocator))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create reader")
	}
	defer reader.Release()

	if !reader.Next() {
		if reader.Err() != nil {
			return nil, reader.Err()
		}
		return nil, errors.New("no records in IPC data")
	}

	record := reader.Record()
	record.Retain()

	return record, nil
}

// SerializeMultipleToIPC serializes records sharing one schema into a single
// IPC stream.
func (c *IPC) SerializeMultipleToIPC(records []arrow.Record) ([]byte, error) {
	if len(records) == 0 {
		return nil, errors.New("no records to serialize")
	}

	var buf bytes.Buffer
	writer := ipc.NewWriter(&buf, c.writerOptions(records[0].Schema())...)
	defer writer.Close()

	for i, record := range records {
		if err := writer.Write(record); err != nil {
			return nil, errors.Wrapf(err, "failed to write record %d", i)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, errors.Wrap(err, "failed to close writer")
	}

	return buf.Bytes(), nil
}

// DeserializeAllFromIPC deserializes every record of an IPC stream. The
// caller releases the returned records.
func (c *IPC) DeserializeAllFromIPC(data []byte) ([]arrow.Record, error) {
	reader, err := ipc.NewReader(bytes.NewReader(data), ipc.WithAllocator(c.allocator))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create reader")
	}
	defer reader.Release()

	var records []arrow.Record
	for reader.Next() {
		record := reader.Record()
		record.Retain()
		records = append(records, record)
	}

	if err := reader.Err(); err != nil {
		for _, r := range records {
			r.Release()
		}
		return nil, errors.Wrap(err, "failed to read records")
	}

	return records, nil
}

// SliceRecord splits record into at most n batches of near equal length.
// An empty record yields one empty batch. The caller releases every batch.
func SliceRecord(record arrow.Record, n int) []arrow.Record {
	rows := record.NumRows()
	if n < 1 {
		n = 1
	}
	if rows == 0 {
		record.Retain()
		return []arrow.Record{record}
	}
	size := (rows + int64(n) - 1) / int64(n)
	batches := make([]arrow.Record, 0, n)
	for start := int64(0); start < rows; start += size {
		end := min(start+size, rows)
		batches = append(batches, record.NewSlice(start, end))
	}
	return batches
}

// WriteFile writes the table to path in the IPC file format.
func (c *IPC) WriteFile(path string, table arrow.Table) error {
	var buf bytes.Buffer
	writer, err := ipc.NewFileWriter(&buf, c.writerOptions(table.Schema())...)
	if err != nil {
		return errors.Wrap(err, "failed to create file writer")
	}
	defer writer.Close()

	tr := array.NewTableReader(table, -1)
	defer tr.Release()
	for tr.Next() {
		if err := writer.Write(tr.Record()); err != nil {
			return errors.Wrapf(err, "failed to write record to %s", path)
		}
	}
	if err := tr.Err(); err != nil {
		return errors.Wrap(err, "failed to iterate table")
	}

	if err := writer.Close(); err != nil {
		return errors.Wrap(err, "failed to close file writer")
	}
	return errors.Wrapf(os.WriteFile(path, buf.Bytes(), 0o644), "writing %s", path)
}

// ReadFile reads every record of an IPC file into a table.
func (c *IPC) ReadFile(path string) (arrow.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	defer f.Close()

	reader, err := ipc.NewFileReader(f, ipc.WithAllocator(c.allocator))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create file reader for %s", path)
	}
	defer reader.Close()

	records := make([]arrow.Record, 0, reader.NumRecords())
	defer func() {
		for _, r := range records {
			r.Release()
		}
	}()
	for i := 0; i < reader.NumRecords(); i++ {
		rec, err := reader.Record(i)
		if err != nil {
			return nil, errors.Wrapf(err, "reading record %d of %s", i, path)
		}
		rec.Retain()
		records = append(records, rec)
	}

	return array.NewTableFromRecords(reader.Schema(), records), nil
}

// TableFromRecord wraps a single record in a table.
func TableFromRecord(record arrow.Record) arrow.Table {
	return array.NewTableFromRecords(record.Schema(), []arrow.Record{record})
}

// ConcatTable merges every chunk of table into one record.
func ConcatTable(table arrow.Table) (arrow.Record, error) {
	mem := memory.DefaultAllocator
	cols := make([]arrow.Array, table.NumCols())
	defer func() {
		for _, col := range cols {
			if col != nil {
				col.Release()
			}
		}
	}()

	for i := 0; i < int(table.NumCols()); i++ {
		chunks := table.Column(i).Data().Chunks()
		if len(chunks) == 0 {
			cols[i] = array.MakeArrayOfNull(mem, table.Column(i).DataType(), 0)
			continue
		}
		merged, err := array.Concatenate(chunks, mem)
		if err != nil {
			return nil, errors.Wrapf(err, "concatenating column %s", table.Schema().Field(i).Name)
		}
		cols[i] = merged
	}

	return array.NewRecord(table.Schema(), cols, table.NumRows()), nil
}
