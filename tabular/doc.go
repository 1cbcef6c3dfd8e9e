// Package tabular writes and reads the synthetic table in delimited text,
// spreadsheet, Parquet and Arrow IPC form.
//
// Every Format only wires an existing library to a file path. Text formats
// cannot carry column types, so their readers infer types from the cells and
// the caller is expected to compare the result with dataset.Compare.
package tabular
