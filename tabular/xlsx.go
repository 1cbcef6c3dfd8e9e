package tabular

import (
	"bytes"
	"context"
	stdcsv "encoding/csv"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/cockroachdb/errors"
	"github.com/xuri/excelize/v2"

	"github.com/VanDung-dev/formatlab/dataset"
)

// SheetName is the worksheet the table is stored in.
const SheetName = "data"

// timestampNumFmt renders dates like dataset.TimestampLayout.
var timestampNumFmt = "yyyy-mm-dd hh:mm:ss"

// ErrTooManyRows is returned when a table does not fit in one worksheet.
var ErrTooManyRows = errors.New("table exceeds worksheet row limit")

// XLSX is an Office Open XML workbook with a single sheet.
type XLSX struct {
	ChunkSize int
}

func (XLSX) Name() string { return "xlsx" }
func (XLSX) Ext() string  { return ".xlsx" }

// Write streams the table into a workbook, header row first.
func (x XLSX) Write(ctx context.Context, path string, table arrow.Table) error {
	if table.NumRows()+1 > excelize.TotalRows {
		return errors.Wrapf(ErrTooManyRows, "%d rows (max %d)", table.NumRows(), excelize.TotalRows-1)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return errors.Wrap(err, "renaming sheet")
	}
	dateStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &timestampNumFmt})
	if err != nil {
		return errors.Wrap(err, "creating date style")
	}
	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return errors.Wrap(err, "creating stream writer")
	}

	header := make([]interface{}, table.NumCols())
	for i, field := range table.Schema().Fields() {
		header[i] = field.Name
	}
	if err := sw.SetRow("A1", header); err != nil {
		return errors.Wrap(err, "writing header")
	}

	tr := array.NewTableReader(table, -1)
	defer tr.Release()

	row := 2
	for tr.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}
		rec := tr.Record()
		for i := 0; i < int(rec.NumRows()); i++ {
			cells := make([]interface{}, rec.NumCols())
			for j, col := range rec.Columns() {
				cells[j] = cellValue(col, i, dateStyle)
			}
			cell, err := excelize.CoordinatesToCellName(1, row)
			if err != nil {
				return err
			}
			if err := sw.SetRow(cell, cells); err != nil {
				return errors.Wrapf(err, "writing row %d", row)
			}
			row++
		}
	}
	if err := tr.Err(); err != nil {
		return err
	}
	if err := sw.Flush(); err != nil {
		return errors.Wrap(err, "flushing stream writer")
	}
	return errors.Wrapf(f.SaveAs(path), "writing %s", path)
}

// cellValue converts one Arrow value to something excelize can type.
func cellValue(col arrow.Array, i int, dateStyle int) interface{} {
	if col.IsNull(i) {
		return nil
	}
	switch a := col.(type) {
	case *array.Int64:
		return a.Value(i)
	case *array.Float64:
		return a.Value(i)
	case *array.Boolean:
		return a.Value(i)
	case *array.Timestamp:
		unit := a.DataType().(*arrow.TimestampType).Unit
		return excelize.Cell{StyleID: dateStyle, Value: a.Value(i).ToTime(unit).UTC()}
	default:
		return dataset.CellString(col, i)
	}
}

// Read loads the sheet's displayed cell text and infers column types the
// same way CSV does.
func (x XLSX) Read(ctx context.Context, path string) (arrow.Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	if err != nil {
		return nil, errors.Wrapf(err, "reading sheet %s of %s", SheetName, path)
	}
	if len(rows) < 2 {
		return nil, errors.Newf("%s: sheet %s has no data rows", path, SheetName)
	}

	var buf bytes.Buffer
	w := stdcsv.NewWriter(&buf)
	width := len(rows[0])
	for _, r := range rows {
		for len(r) < width {
			r = append(r, "")
		}
		if err := w.Write(r[:width]); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}

	table, err := readInferredCSV(ctx, &buf, x.ChunkSize)
	return table, errors.Wrapf(err, "parsing cells of %s", path)
}
