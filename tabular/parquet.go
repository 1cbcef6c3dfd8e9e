package tabular

import (
	"bytes"
	"context"
	"os"
	"sort"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"github.com/cockroachdb/errors"
)

var parquetCodecs = map[string]compress.Compression{
	"none":   compress.Codecs.Uncompressed,
	"snappy": compress.Codecs.Snappy,
	"gzip":   compress.Codecs.Gzip,
	"zstd":   compress.Codecs.Zstd,
	"brotli": compress.Codecs.Brotli,
}

// ParquetCodecs returns the accepted codec names, sorted.
func ParquetCodecs() []string {
	names := make([]string, 0, len(parquetCodecs))
	for name := range parquetCodecs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParquetCodec resolves a codec name; "" means snappy.
func ParquetCodec(name string) (compress.Compression, error) {
	if name == "" {
		name = "snappy"
	}
	c, ok := parquetCodecs[name]
	if !ok {
		return compress.Codecs.Uncompressed, errors.Newf("unknown parquet codec %q (known: %v)", name, ParquetCodecs())
	}
	return c, nil
}

// Parquet is the columnar format, written with dictionary encoding and the
// Arrow schema embedded so types survive the round trip.
type Parquet struct {
	Codec        string
	RowGroupSize int64
}

func (p Parquet) Name() string { return "parquet" }
func (p Parquet) Ext() string  { return ".parquet" }

// Write encodes table as Parquet.
func (p Parquet) Write(ctx context.Context, path string, table arrow.Table) error {
	codec, err := ParquetCodec(p.Codec)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	rowGroup := p.RowGroupSize
	if rowGroup <= 0 {
		rowGroup = DefaultOptions().RowGroupSize
	}

	props := parquet.NewWriterProperties(
		parquet.WithCompression(codec),
		parquet.WithDictionaryDefault(true),
		parquet.WithAllocator(memory.DefaultAllocator),
	)
	arrProps := pqarrow.NewArrowWriterProperties(pqarrow.WithStoreSchema())

	var buf bytes.Buffer
	if err := pqarrow.WriteTable(table, &buf, rowGroup, props, arrProps); err != nil {
		return errors.Wrapf(err, "encoding %s", path)
	}
	return errors.Wrapf(os.WriteFile(path, buf.Bytes(), 0o644), "writing %s", path)
}

// Read decodes every row group of path.
func (p Parquet) Read(ctx context.Context, path string) (arrow.Table, error) {
	rdr, err := file.OpenParquetFile(path, false)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	defer rdr.Close()

	fr, err := pqarrow.NewFileReader(rdr, pqarrow.ArrowReadProperties{BatchSize: 64 * 1024}, memory.DefaultAllocator)
	if err != nil {
		return nil, errors.Wrapf(err, "creating arrow reader for %s", path)
	}

	table, err := fr.ReadTable(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	return table, nil
}

// ParquetInfo summarizes a Parquet footer.
type ParquetInfo struct {
	Rows      int64
	RowGroups int
	Columns   int
	Codec     string
}

// ParquetMeta reads the footer of path.
func ParquetMeta(path string) (ParquetInfo, error) {
	rdr, err := file.OpenParquetFile(path, false)
	if err != nil {
		return ParquetInfo{}, errors.Wrapf(err, "opening %s", path)
	}
	defer rdr.Close()

	md := rdr.MetaData()
	info := ParquetInfo{
		Rows:      rdr.NumRows(),
		RowGroups: rdr.NumRowGroups(),
		Columns:   md.Schema.NumColumns(),
	}
	if info.RowGroups > 0 && info.Columns > 0 {
		cc, err := md.RowGroup(0).ColumnChunk(0)
		if err != nil {
			return info, errors.Wrapf(err, "reading column chunk metadata of %s", path)
		}
		info.Codec = cc.Compression().String()
	}
	return info, nil
}
