package lab

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/VanDung-dev/formatlab/config"
	"github.com/VanDung-dev/formatlab/metrics"
	"github.com/VanDung-dev/formatlab/scratch"
	"github.com/VanDung-dev/formatlab/timing"
)

// Errors returned by Run.
var (
	ErrUnknownSection = errors.New("unknown section")
	ErrRoundTrip      = errors.New("round trip changed the data")
)

// Section is one heading of the tutorial.
type Section struct {
	Name  string
	Title string
	run   func(ctx context.Context, l *Lab) error
}

// Sections returns every section in tutorial order.
func Sections() []Section {
	return []Section{
		{Name: "persisting", Title: "Persisting Data", run: runPersisting},
		{Name: "text-vs-binary", Title: "Text vs Binary", run: runTextVsBinary},
		{Name: "tabular", Title: "Tabular Data Formats", run: runTabular},
		{Name: "semi-structured", Title: "Semi-Structured Formats", run: runSemiStructured},
	}
}

// LookupSection returns the section called name.
func LookupSection(name string) (Section, error) {
	for _, s := range Sections() {
		if s.Name == name {
			return s, nil
		}
	}
	return Section{}, errors.Wrapf(ErrUnknownSection, "%q", name)
}

// Lab runs sections with one configuration.
type Lab struct {
	cfg     *config.Config
	dir     *scratch.Dir
	out     io.Writer
	metrics *metrics.Metrics
	logger  *slog.Logger

	section string
	report  Report
}

// Option customizes a Lab.
type Option func(*Lab)

// WithOutput sets where timing lines and listings are printed.
func WithOutput(w io.Writer) Option { return func(l *Lab) { l.out = w } }

// WithMetrics records every measurement in m.
func WithMetrics(m *metrics.Metrics) Option { return func(l *Lab) { l.metrics = m } }

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option { return func(l *Lab) { l.logger = logger } }

// New creates a Lab writing into dir.
func New(cfg *config.Config, dir *scratch.Dir, opts ...Option) *Lab {
	l := &Lab{
		cfg:    cfg,
		dir:    dir,
		out:    os.Stdout,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.metrics == nil {
		l.metrics = metrics.NewMetrics("formatlab")
	}
	return l
}

// Run runs the named sections in the order given, or every section when
// names is empty. It stops at the first failing section and returns what
// was measured so far.
func (l *Lab) Run(ctx context.Context, names ...string) (*Report, error) {
	sections := Sections()
	if len(names) > 0 {
		sections = sections[:0:0]
		for _, name := range names {
			s, err := LookupSection(name)
			if err != nil {
				return nil, err
			}
			sections = append(sections, s)
		}
	}

	l.report = Report{}
	for _, s := range sections {
		if err := ctx.Err(); err != nil {
			return l.snapshot(), err
		}
		l.section = s.Name
		l.printf("\n## %s\n\n", s.Title)
		l.logger.Info("section started", "section", s.Name)
		start := time.Now()
		if err := s.run(ctx, l); err != nil {
			l.logger.Error("section failed", "section", s.Name, "err", err)
			return l.snapshot(), errors.Wrapf(err, "section %s", s.Name)
		}
		l.logger.Info("section finished", "section", s.Name, "elapsed", time.Since(start))
	}
	return l.snapshot(), nil
}

func (l *Lab) snapshot() *Report {
	r := Report{Results: append([]Result(nil), l.report.Results...)}
	return &r
}

func (l *Lab) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(l.out, format, args...)
}

// timed runs fn as one snippet unless ctx is done.
func (l *Lab) timed(ctx context.Context, msg string, fn func() error) (time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return timing.Timed(l.out, msg, timing.DefaultWidth, fn)
}

func (l *Lab) add(r Result) {
	r.Section = l.section
	l.report.Results = append(l.report.Results, r)
	switch r.Op {
	case OpWrite:
		l.metrics.RecordWrite(r.Section, r.Format, r.Duration, r.Bytes)
	case OpRead:
		l.metrics.RecordRead(r.Section, r.Format, r.Duration, r.Intact)
	}
}

// size returns the size of a scratch file, or -1 when it cannot be read.
func (l *Lab) size(name string) int64 {
	n, err := l.dir.Size(name)
	if err != nil {
		l.logger.Warn("cannot stat output", "file", name, "err", err)
		return -1
	}
	return n
}

// listing prints the scratch files whose names are in names.
func (l *Lab) listing(names ...string) error {
	files, err := l.dir.List()
	if err != nil {
		return err
	}
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}
	for _, f := range files {
		if want[f.Name] {
			l.printf("%-*s%s\n", timing.DefaultWidth, f.Name, scratch.HumanSize(f.Size))
		}
	}
	return nil
}
