// Package arrow provides Apache Arrow IPC helpers for formatlab.
// This package implements:
// - In-memory IPC stream serialization of record batches
// - The IPC file format (the "feather" layout) with optional compression
// - Conversion between chunked tables and single record batches
package arrow
