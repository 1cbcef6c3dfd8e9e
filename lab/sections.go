package lab

import (
	"context"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/cockroachdb/errors"

	fmtarrow "github.com/VanDung-dev/formatlab/arrow"
	"github.com/VanDung-dev/formatlab/dataset"
	"github.com/VanDung-dev/formatlab/numeric"
	"github.com/VanDung-dev/formatlab/records"
	"github.com/VanDung-dev/formatlab/tabular"
)

const (
	sequenceBase = "sequence"

	// streamBatches is the record count of the multi-batch arrow stream.
	streamBatches = 8
)

// runPersisting saves the numeric sequence in every encoding, lists the
// files and loads them back.
func runPersisting(ctx context.Context, l *Lab) error {
	values := numeric.Range(l.cfg.Numbers)
	codecs := numeric.Codecs()

	names := make([]string, 0, len(codecs))
	for _, c := range codecs {
		name := sequenceBase + c.Ext()
		names = append(names, name)
		d, err := l.timed(ctx, "save "+c.Name(), func() error {
			return c.Save(l.dir.Path(name), values)
		})
		if err != nil {
			return err
		}
		l.add(Result{Format: c.Name(), Op: OpWrite, Duration: d, Bytes: l.size(name)})
		l.logger.Debug("wrote sequence", "file", l.dir.Path(name), "values", len(values))
	}

	l.printf("\n")
	if err := l.listing(names...); err != nil {
		return err
	}

	info, err := numeric.NpyHeader(l.dir.Path(sequenceBase + numeric.Npy{}.Ext()))
	if err != nil {
		return err
	}
	l.printf("npy header: version %d.%d dtype %s shape %v\n\n", info.Major, info.Minor, info.DType, info.Shape)
	l.add(Result{Format: "npy", Op: OpMeta, Note: fmt.Sprintf("dtype %s shape %v", info.DType, info.Shape)})

	for _, c := range codecs {
		name := sequenceBase + c.Ext()
		var loaded []int64
		d, err := l.timed(ctx, "load "+c.Name(), func() error {
			var err error
			loaded, err = c.Load(l.dir.Path(name))
			return err
		})
		if err != nil {
			return err
		}
		intact := numeric.Equal(values, loaded)
		l.add(Result{Format: c.Name(), Op: OpRead, Duration: d, Intact: intact, Fidelity: fidelityWord(intact)})
		if !intact {
			return errors.Wrapf(ErrRoundTrip, "%s: wrote %d values, read %d", c.Name(), len(values), len(loaded))
		}
	}
	return nil
}

// runTextVsBinary times repeated loads of the text and binary encodings and
// compares the in-memory sizes of text and Arrow IPC.
func runTextVsBinary(ctx context.Context, l *Lab) error {
	values := numeric.Range(l.cfg.Numbers)
	text, binary := numeric.Text{}, numeric.Npy{}

	best := map[string]time.Duration{}
	for _, c := range []numeric.Codec{text, binary} {
		name := "compare" + c.Ext()
		if err := c.Save(l.dir.Path(name), values); err != nil {
			return err
		}
		for i := 0; i < l.cfg.Repeat; i++ {
			var loaded []int64
			d, err := l.timed(ctx, fmt.Sprintf("load %s #%d", c.Name(), i+1), func() error {
				var err error
				loaded, err = c.Load(l.dir.Path(name))
				return err
			})
			if err != nil {
				return err
			}
			if !numeric.Equal(values, loaded) {
				return errors.Wrapf(ErrRoundTrip, "%s load %d", c.Name(), i+1)
			}
			if b, ok := best[c.Name()]; !ok || d < b {
				best[c.Name()] = d
			}
		}
		l.add(Result{Format: c.Name(), Op: OpRead, Duration: best[c.Name()], Bytes: l.size(name), Intact: true,
			Fidelity: fidelityWord(true), Note: fmt.Sprintf("best of %d", l.cfg.Repeat)})
	}

	if b := best[binary.Name()]; b > 0 {
		ratio := float64(best[text.Name()]) / float64(b)
		l.printf("\nbinary load is %.1fx faster than text\n\n", ratio)
		l.add(Result{Format: binary.Name() + "/" + text.Name(), Op: OpMeta, Note: fmt.Sprintf("%.1fx faster", ratio)})
	}

	var textBytes []byte
	d, err := l.timed(ctx, "encode text in memory", func() error {
		var err error
		textBytes, err = numeric.EncodeText(values)
		return err
	})
	if err != nil {
		return err
	}
	l.add(Result{Format: text.Name(), Op: OpEncode, Duration: d, Bytes: int64(len(textBytes))})

	ipc := fmtarrow.Uncompressed()
	rec := numeric.Record(values)
	defer rec.Release()
	var ipcBytes []byte
	d, err = l.timed(ctx, "encode arrow stream in memory", func() error {
		var err error
		ipcBytes, err = ipc.SerializeToIPC(rec)
		return err
	})
	if err != nil {
		return err
	}
	l.add(Result{Format: "arrow-stream", Op: OpEncode, Duration: d, Bytes: int64(len(ipcBytes))})

	var decoded arrow.Record
	d, err = l.timed(ctx, "decode arrow stream in memory", func() error {
		var err error
		decoded, err = ipc.DeserializeFromIPC(ipcBytes)
		return err
	})
	if err != nil {
		return err
	}
	defer decoded.Release()
	if !numeric.Equal(values, decoded.Column(0).(*array.Int64).Int64Values()) {
		return errors.Wrap(ErrRoundTrip, "arrow-stream decode")
	}
	l.add(Result{Format: "arrow-stream", Op: OpDecode, Duration: d, Intact: true, Fidelity: fidelityWord(true)})

	batches := fmtarrow.SliceRecord(rec, streamBatches)
	defer func() {
		for _, b := range batches {
			b.Release()
		}
	}()
	format := fmt.Sprintf("arrow-stream/%d", len(batches))
	d, err = l.timed(ctx, fmt.Sprintf("encode %d-batch arrow stream", len(batches)), func() error {
		var err error
		ipcBytes, err = ipc.SerializeMultipleToIPC(batches)
		return err
	})
	if err != nil {
		return err
	}
	l.add(Result{Format: format, Op: OpEncode, Duration: d, Bytes: int64(len(ipcBytes))})

	var records []arrow.Record
	d, err = l.timed(ctx, fmt.Sprintf("decode %d-batch arrow stream", len(batches)), func() error {
		var err error
		records, err = ipc.DeserializeAllFromIPC(ipcBytes)
		return err
	})
	if err != nil {
		return err
	}
	defer func() {
		for _, r := range records {
			r.Release()
		}
	}()
	got := make([]int64, 0, len(values))
	for _, r := range records {
		got = append(got, r.Column(0).(*array.Int64).Int64Values()...)
	}
	if len(records) != len(batches) || !numeric.Equal(values, got) {
		return errors.Wrapf(ErrRoundTrip, "%s decode", format)
	}
	l.add(Result{Format: format, Op: OpDecode, Duration: d, Intact: true, Fidelity: fidelityWord(true),
		Note: fmt.Sprintf("%d records", len(records))})
	return nil
}

// runTabular writes the synthetic table in every tabular format and reads
// it back, reporting size, speed and what survived.
func runTabular(ctx context.Context, l *Lab) error {
	var rec arrow.Record
	_, err := l.timed(ctx, fmt.Sprintf("generate %d rows", l.cfg.Rows), func() error {
		var err error
		rec, err = dataset.Generate(l.cfg.Rows, l.cfg.Seed)
		return err
	})
	if err != nil {
		return err
	}
	defer rec.Release()
	want := fmtarrow.TableFromRecord(rec)
	defer want.Release()

	formats, err := tabular.Formats(l.cfg.TabularOptions())
	if err != nil {
		return err
	}
	if len(l.cfg.Formats) > 0 {
		selected := make([]tabular.Format, 0, len(l.cfg.Formats))
		for _, name := range l.cfg.Formats {
			f, err := tabular.Lookup(formats, name)
			if err != nil {
				return err
			}
			selected = append(selected, f)
		}
		formats = selected
	}

	names := make([]string, 0, len(formats))
	for _, f := range formats {
		name := "table" + f.Ext()
		names = append(names, name)
		path := l.dir.Path(name)

		d, err := l.timed(ctx, "write "+f.Name(), func() error {
			return f.Write(ctx, path, want)
		})
		if errors.Is(err, tabular.ErrTooManyRows) {
			l.logger.Warn("skipping format", "format", f.Name(), "err", err)
			l.add(Result{Format: f.Name(), Op: OpWrite, Note: "skipped: too many rows"})
			names = names[:len(names)-1]
			continue
		}
		if err != nil {
			return err
		}
		l.add(Result{Format: f.Name(), Op: OpWrite, Duration: d, Bytes: l.size(name)})

		if f.Name() == "parquet" {
			info, err := tabular.ParquetMeta(path)
			if err != nil {
				return err
			}
			l.add(Result{Format: f.Name(), Op: OpMeta, Note: fmt.Sprintf("%d row groups, %d columns, %s",
				info.RowGroups, info.Columns, info.Codec)})
		}

		var got arrow.Table
		d, err = l.timed(ctx, "read "+f.Name(), func() error {
			var err error
			got, err = f.Read(ctx, path)
			return err
		})
		if err != nil {
			return err
		}
		report := dataset.Compare(want, got)
		got.Release()

		intact := true
		var changed []string
		for _, cf := range report {
			if !cf.TypePreserved || !cf.ValuesPreserved {
				intact = false
				changed = append(changed, fmt.Sprintf("%s:%s", cf.Name, cf.GotType))
			}
		}
		res := Result{Format: f.Name(), Op: OpRead, Duration: d, Intact: intact, Fidelity: dataset.Summary(report)}
		if len(changed) > 0 {
			res.Note = fmt.Sprintf("changed %v", changed)
		}
		l.add(res)
		l.logger.Debug("table round trip", "format", f.Name(), "fidelity", res.Fidelity)
	}

	l.printf("\n")
	return l.listing(names...)
}

// runSemiStructured stores the records as JSON, as Thrift structs, as framed
// Thrift messages and as a Parquet table.
func runSemiStructured(ctx context.Context, l *Lab) error {
	people := records.Repeat(records.SamplePeople(), l.cfg.People)
	var names []string

	jsonName := "people.json"
	names = append(names, jsonName)
	d, err := l.timed(ctx, "save json", func() error {
		return records.SaveJSON(l.dir.Path(jsonName), people)
	})
	if err != nil {
		return err
	}
	l.add(Result{Format: "json", Op: OpWrite, Duration: d, Bytes: l.size(jsonName)})

	var loaded []records.Person
	d, err = l.timed(ctx, "load json", func() error {
		var err error
		loaded, err = records.LoadJSON(l.dir.Path(jsonName))
		return err
	})
	if err != nil {
		return err
	}
	if err := l.checkPeople("json", d, people, loaded); err != nil {
		return err
	}

	for _, protocol := range l.cfg.ThriftProtocols {
		format := "thrift-" + protocol
		name := "people." + protocol + ".thrift"
		names = append(names, name)

		d, err := l.timed(ctx, "save "+format, func() error {
			data, err := records.EncodePeople(ctx, people, protocol)
			if err != nil {
				return err
			}
			return errors.Wrapf(os.WriteFile(l.dir.Path(name), data, 0o644), "writing %s", name)
		})
		if err != nil {
			return err
		}
		l.add(Result{Format: format, Op: OpWrite, Duration: d, Bytes: l.size(name)})

		d, err = l.timed(ctx, "load "+format, func() error {
			data, err := os.ReadFile(l.dir.Path(name))
			if err != nil {
				return errors.Wrapf(err, "reading %s", name)
			}
			loaded, err = records.DecodePeople(ctx, data, protocol)
			return err
		})
		if err != nil {
			return err
		}
		if err := l.checkPeople(format, d, people, loaded); err != nil {
			return err
		}

		framedFormat := format + "-framed"
		framedName := "people." + protocol + ".frames"
		names = append(names, framedName)
		d, err = l.timed(ctx, "save "+framedFormat, func() error {
			return records.WriteFramed(ctx, l.dir.Path(framedName), people, protocol)
		})
		if err != nil {
			return err
		}
		l.add(Result{Format: framedFormat, Op: OpWrite, Duration: d, Bytes: l.size(framedName)})

		d, err = l.timed(ctx, "load "+framedFormat, func() error {
			var err error
			loaded, err = records.ReadFramed(ctx, l.dir.Path(framedName), protocol)
			return err
		})
		if err != nil {
			return err
		}
		if err := l.checkPeople(framedFormat, d, people, loaded); err != nil {
			return err
		}
	}

	if err := l.peopleAsParquet(ctx, people); err != nil {
		return err
	}
	names = append(names, "people.parquet")

	l.printf("\n")
	return l.listing(names...)
}

func (l *Lab) peopleAsParquet(ctx context.Context, people []records.Person) error {
	conv := records.NewConverter()
	rec, err := conv.PeopleToRecord(people)
	if err != nil {
		return err
	}
	defer rec.Release()
	table := fmtarrow.TableFromRecord(rec)
	defer table.Release()

	pq := tabular.Parquet{Codec: l.cfg.ParquetCodec, RowGroupSize: l.cfg.RowGroupSize}
	name := "people" + pq.Ext()
	d, err := l.timed(ctx, "save parquet", func() error {
		return pq.Write(ctx, l.dir.Path(name), table)
	})
	if err != nil {
		return err
	}
	l.add(Result{Format: "parquet", Op: OpWrite, Duration: d, Bytes: l.size(name)})

	var loaded []records.Person
	d, err = l.timed(ctx, "load parquet", func() error {
		got, err := pq.Read(ctx, l.dir.Path(name))
		if err != nil {
			return err
		}
		defer got.Release()
		merged, err := fmtarrow.ConcatTable(got)
		if err != nil {
			return err
		}
		defer merged.Release()
		loaded, err = conv.RecordToPeople(merged)
		return err
	})
	if err != nil {
		return err
	}
	return l.checkPeople("parquet", d, people, loaded)
}

func (l *Lab) checkPeople(format string, d time.Duration, want, got []records.Person) error {
	intact := slices.Equal(want, got)
	l.add(Result{Format: format, Op: OpRead, Duration: d, Intact: intact, Fidelity: fidelityWord(intact)})
	if !intact {
		return errors.Wrapf(ErrRoundTrip, "%s: wrote %d records, read %d", format, len(want), len(got))
	}
	return nil
}

func fidelityWord(intact bool) string {
	if intact {
		return "exact"
	}
	return "mismatch"
}
