// Package dataset generates the synthetic table used by the tabular section
// and checks how much of it survives a trip through a file format.
// This package implements:
// - The Arrow schema of the synthetic table
// - Deterministic generation of integer, float, categorical, timestamp and boolean columns
// - Per-column fidelity comparison between the original and a reloaded table
package dataset
