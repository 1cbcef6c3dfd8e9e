package tabular

import (
	"context"

	"github.com/apache/arrow-go/v18/arrow"

	fmtarrow "github.com/VanDung-dev/formatlab/arrow"
)

// Feather is the Arrow IPC file format. The zero value writes
// uncompressed files.
type Feather struct {
	ipc *fmtarrow.IPC
}

func (f Feather) codec() *fmtarrow.IPC {
	if f.ipc == nil {
		return fmtarrow.Uncompressed()
	}
	return f.ipc
}

func (Feather) Name() string { return "feather" }
func (Feather) Ext() string  { return ".arrow" }

// Write stores table as an IPC file.
func (f Feather) Write(ctx context.Context, path string, table arrow.Table) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return f.codec().WriteFile(path, table)
}

// Read loads an IPC file.
func (f Feather) Read(ctx context.Context, path string) (arrow.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return f.codec().ReadFile(path)
}
