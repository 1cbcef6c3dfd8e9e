package lab

import (
	"io"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/olekukonko/tablewriter"

	"github.com/VanDung-dev/formatlab/scratch"
)

// Operations recorded in a Result.
const (
	OpWrite  = "write"
	OpRead   = "read"
	OpEncode = "encode"
	OpDecode = "decode"
	OpMeta   = "meta"
)

// Result is one measurement.
type Result struct {
	Section  string        `json:"section"`
	Format   string        `json:"format"`
	Op       string        `json:"op"`
	Duration time.Duration `json:"duration_ns"`
	Bytes    int64         `json:"bytes,omitempty"`
	// Intact reports whether a read returned exactly what was written.
	Intact   bool   `json:"intact"`
	Fidelity string `json:"fidelity,omitempty"`
	Note     string `json:"note,omitempty"`
}

// Report is every measurement of a run in order.
type Report struct {
	Results []Result `json:"results"`
}

// Filter returns the results of section with operation op. Empty strings
// match everything.
func (r *Report) Filter(section, op string) []Result {
	var out []Result
	for _, res := range r.Results {
		if (section == "" || res.Section == section) && (op == "" || res.Op == op) {
			out = append(out, res)
		}
	}
	return out
}

// Render prints the report as a table.
func (r *Report) Render(w io.Writer) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Section", "Format", "Op", "Time", "Size", "Fidelity", "Note"})
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	for _, res := range r.Results {
		size := ""
		if res.Bytes > 0 {
			size = scratch.HumanSize(res.Bytes)
		}
		elapsed := ""
		if res.Duration > 0 {
			elapsed = strconv.FormatFloat(res.Duration.Seconds(), 'f', 3, 64) + "s"
		}
		table.Append([]string{res.Section, res.Format, res.Op, elapsed, size, res.Fidelity, res.Note})
	}
	table.Render()
}

// JSON returns the report as indented JSON.
func (r *Report) JSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}
