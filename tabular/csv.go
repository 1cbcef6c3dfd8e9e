package tabular

import (
	"bytes"
	"context"
	"io"
	"os"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/csv"
	"github.com/cockroachdb/errors"
	"github.com/klauspost/compress/gzip"

	"github.com/VanDung-dev/formatlab/dataset"
)

// CSV is comma separated text with a header row, optionally gzipped.
type CSV struct {
	Gzip      bool
	ChunkSize int
}

func (c CSV) Name() string {
	if c.Gzip {
		return "csv.gz"
	}
	return "csv"
}

func (c CSV) Ext() string { return "." + c.Name() }

// Write flattens table and writes it as CSV.
func (c CSV) Write(ctx context.Context, path string, table arrow.Table) error {
	var buf bytes.Buffer
	var sink io.Writer = &buf
	var zw *gzip.Writer
	if c.Gzip {
		zw = gzip.NewWriter(&buf)
		sink = zw
	}

	if err := writeCSV(ctx, sink, table); err != nil {
		return errors.Wrapf(err, "encoding %s", path)
	}
	if zw != nil {
		if err := zw.Close(); err != nil {
			return errors.Wrapf(err, "compressing %s", path)
		}
	}
	return errors.Wrapf(os.WriteFile(path, buf.Bytes(), 0o644), "writing %s", path)
}

func writeCSV(ctx context.Context, w io.Writer, table arrow.Table) error {
	tr := array.NewTableReader(table, -1)
	defer tr.Release()

	var cw *csv.Writer
	for tr.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}
		flat := dataset.Flatten(tr.Record())
		if cw == nil {
			cw = csv.NewWriter(w, flat.Schema(), csv.WithHeader(true), csv.WithComma(','))
		}
		err := cw.Write(flat)
		flat.Release()
		if err != nil {
			return err
		}
	}
	if err := tr.Err(); err != nil {
		return err
	}
	if cw == nil {
		return errors.New("table has no records")
	}
	if err := cw.Flush(); err != nil {
		return err
	}
	return cw.Error()
}

// Read parses the CSV, inferring column types from the text.
func (c CSV) Read(ctx context.Context, path string) (arrow.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	defer f.Close()

	var src io.Reader = f
	if c.Gzip {
		zr, err := gzip.NewReader(f)
		if err != nil {
			return nil, errors.Wrapf(err, "decompressing %s", path)
		}
		defer zr.Close()
		src = zr
	}

	table, err := readInferredCSV(ctx, src, c.ChunkSize)
	return table, errors.Wrapf(err, "parsing %s", path)
}

func readInferredCSV(ctx context.Context, r io.Reader, chunk int) (arrow.Table, error) {
	if chunk <= 0 {
		chunk = DefaultOptions().ChunkSize
	}
	cr := csv.NewInferringReader(r, csv.WithHeader(true), csv.WithChunk(chunk))
	defer cr.Release()
	return collect(ctx, cr)
}
