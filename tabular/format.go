package tabular

import (
	"context"
	"sort"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/cockroachdb/errors"

	fmtarrow "github.com/VanDung-dev/formatlab/arrow"
)

// ErrUnknownFormat is returned by Lookup for names no Format answers to.
var ErrUnknownFormat = errors.New("unknown tabular format")

// Format persists a table to a file.
type Format interface {
	// Name identifies the format on the command line and in reports.
	Name() string
	// Ext is the file extension, including the dot.
	Ext() string
	Write(ctx context.Context, path string, table arrow.Table) error
	Read(ctx context.Context, path string) (arrow.Table, error)
}

// Options tune the formats returned by Formats.
type Options struct {
	// ParquetCodec is one of ParquetCodecs.
	ParquetCodec string
	// RowGroupSize is the maximum number of rows per Parquet row group.
	RowGroupSize int64
	// FeatherCompression is "none", "zstd" or "lz4".
	FeatherCompression string
	// ChunkSize is the number of rows per record when reading text.
	ChunkSize int
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{
		ParquetCodec:       "snappy",
		RowGroupSize:       1 << 20,
		FeatherCompression: fmtarrow.CompressionNone,
		ChunkSize:          64 * 1024,
	}
}

// Formats returns every format in the order the lab runs them.
func Formats(opts Options) ([]Format, error) {
	if _, err := ParquetCodec(opts.ParquetCodec); err != nil {
		return nil, err
	}
	ipc, err := fmtarrow.NewIPC(opts.FeatherCompression)
	if err != nil {
		return nil, err
	}
	return []Format{
		CSV{ChunkSize: opts.ChunkSize},
		CSV{Gzip: true, ChunkSize: opts.ChunkSize},
		XLSX{ChunkSize: opts.ChunkSize},
		Parquet{Codec: opts.ParquetCodec, RowGroupSize: opts.RowGroupSize},
		Feather{ipc: ipc},
	}, nil
}

// Lookup returns the format called name.
func Lookup(formats []Format, name string) (Format, error) {
	for _, f := range formats {
		if f.Name() == name {
			return f, nil
		}
	}
	return nil, errors.Wrapf(ErrUnknownFormat, "%q (known: %v)", name, Names(formats))
}

// Names returns the sorted names of formats.
func Names(formats []Format) []string {
	names := make([]string, len(formats))
	for i, f := range formats {
		names[i] = f.Name()
	}
	sort.Strings(names)
	return names
}

// recordReader is the part of the Arrow record readers collect needs.
type recordReader interface {
	Next() bool
	Record() arrow.Record
	Schema() *arrow.Schema
	Err() error
}

// collect drains r into a table.
func collect(ctx context.Context, r recordReader) (arrow.Table, error) {
	var records []arrow.Record
	defer func() {
		for _, rec := range records {
			rec.Release()
		}
	}()
	for r.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec := r.Record()
		rec.Retain()
		records = append(records, rec)
	}
	if err := r.Err(); err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, errors.New("no rows")
	}
	return array.NewTableFromRecords(r.Schema(), records), nil
}
