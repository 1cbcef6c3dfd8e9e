// Command formatlab writes the same data as text and as binary files and
// reports how large each file is, how long it takes to read back, and what
// survived the trip.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/VanDung-dev/formatlab/config"
	"github.com/VanDung-dev/formatlab/lab"
	"github.com/VanDung-dev/formatlab/metrics"
	"github.com/VanDung-dev/formatlab/scratch"
)

// Version information
const (
	Version = "0.1.0"
	Name    = "formatlab"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if code := exitCode(os.Stderr, newRootCmd().ExecuteContext(ctx)); code != 0 {
		os.Exit(code)
	}
}

// exitCode reports err and maps it to the process exit status.
func exitCode(stderr io.Writer, err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, context.Canceled):
		slog.Warn("interrupted")
		return exitInterrupted
	default:
		fmt.Fprintf(stderr, "%s: %v\n", Name, err)
		return 1
	}
}

// exitInterrupted is the shell convention for termination by SIGINT.
const exitInterrupted = 130

type flags struct {
	configPath string
	cfg        *config.Config
	jsonOut    bool
}

func newRootCmd() *cobra.Command {
	f := &flags{cfg: config.Default()}

	root := &cobra.Command{
		Use:           Name,
		Short:         "Compare text and binary data formats",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return f.resolve(cmd.Flags())
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&f.configPath, "config", "", "YAML config file")
	pf.StringVar(&f.cfg.ScratchDir, "scratch", f.cfg.ScratchDir, "Directory example files are written to")
	pf.StringVar(&f.cfg.LogLevel, "log-level", f.cfg.LogLevel, "Log level (debug, info, warn, error)")
	pf.IntVar(&f.cfg.Numbers, "numbers", f.cfg.Numbers, "Length of the numeric sequence")
	pf.IntVar(&f.cfg.Rows, "rows", f.cfg.Rows, "Rows of the synthetic table")
	pf.Uint64Var(&f.cfg.Seed, "seed", f.cfg.Seed, "Seed of the synthetic table")
	pf.IntVar(&f.cfg.People, "people", f.cfg.People, "Number of name/age records")
	pf.IntVar(&f.cfg.Repeat, "repeat", f.cfg.Repeat, "Timed loads per encoding in text-vs-binary")
	pf.StringVar(&f.cfg.ParquetCodec, "parquet-codec", f.cfg.ParquetCodec, "Parquet compression codec")
	pf.Int64Var(&f.cfg.RowGroupSize, "row-group-size", f.cfg.RowGroupSize, "Maximum rows per Parquet row group")
	pf.StringVar(&f.cfg.FeatherCompression, "feather-compression", f.cfg.FeatherCompression, "Arrow IPC body compression (none, zstd, lz4)")
	pf.StringSliceVar(&f.cfg.Formats, "formats", nil, "Tabular formats to run (default all)")
	pf.StringSliceVar(&f.cfg.ThriftProtocols, "thrift-protocols", f.cfg.ThriftProtocols, "Thrift protocols to run")
	pf.StringVar(&f.cfg.MetricsFile, "metrics-file", "", "Write Prometheus metrics to this file after the run")
	pf.StringVar(&f.cfg.MetricsAddress, "metrics-addr", "", "Serve /metrics on this address during the run")

	run := &cobra.Command{
		Use:   "run [section...]",
		Short: "Run sections of the lab (default all)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLab(cmd.Context(), f, args, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	run.Flags().BoolVar(&f.jsonOut, "json", false, "Print the summary as JSON")

	root.AddCommand(
		run,
		&cobra.Command{
			Use:   "sections",
			Short: "List the sections",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, _ []string) {
				for _, s := range lab.Sections() {
					fmt.Fprintf(cmd.OutOrStdout(), "%-20s%s\n", s.Name, s.Title)
				}
			},
		},
		&cobra.Command{
			Use:   "clean",
			Short: "Remove the files in the scratch directory",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				dir, err := scratch.Open(f.cfg.ScratchDir)
				if err != nil {
					return err
				}
				n, err := dir.Clean()
				if err != nil {
					return err
				}
				slog.Info("scratch directory cleaned", "dir", dir.Root(), "removed", n)
				return nil
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the version",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s v%s\n", Name, Version)
			},
		},
	)
	return root
}

// resolve layers the config file under the flags the user set explicitly,
// then validates the result and installs the logger.
func (f *flags) resolve(fs *pflag.FlagSet) error {
	if f.configPath != "" {
		fromFile, err := config.Load(f.configPath)
		if err != nil {
			return err
		}
		explicit := *f.cfg
		*f.cfg = *fromFile
		fs.Visit(func(fl *pflag.Flag) {
			applyFlag(f.cfg, &explicit, fl.Name)
		})
	}
	if err := f.cfg.Validate(); err != nil {
		return err
	}
	setupLogger(f.cfg.LogLevel)
	return nil
}

// applyFlag copies the field behind a flag from src to dst.
func applyFlag(dst, src *config.Config, name string) {
	switch name {
	case "scratch":
		dst.ScratchDir = src.ScratchDir
	case "log-level":
		dst.LogLevel = src.LogLevel
	case "numbers":
		dst.Numbers = src.Numbers
	case "rows":
		dst.Rows = src.Rows
	case "seed":
		dst.Seed = src.Seed
	case "people":
		dst.People = src.People
	case "repeat":
		dst.Repeat = src.Repeat
	case "parquet-codec":
		dst.ParquetCodec = src.ParquetCodec
	case "row-group-size":
		dst.RowGroupSize = src.RowGroupSize
	case "feather-compression":
		dst.FeatherCompression = src.FeatherCompression
	case "formats":
		dst.Formats = src.Formats
	case "thrift-protocols":
		dst.ThriftProtocols = src.ThriftProtocols
	case "metrics-file":
		dst.MetricsFile = src.MetricsFile
	case "metrics-addr":
		dst.MetricsAddress = src.MetricsAddress
	}
}

func setupLogger(level string) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	logger := slog.New(tint.NewHandler(colorable.NewColorable(os.Stderr), &tint.Options{
		Level:      lvl,
		TimeFormat: "15:04:05.000",
		NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
	}))
	slog.SetDefault(logger)
}

// runLab runs the sections and prints the summary to stdout. With --json the
// progress lines go to stderr so stdout holds only the JSON report.
func runLab(ctx context.Context, f *flags, sections []string, stdout, stderr io.Writer) error {
	cfg := f.cfg
	dir, err := scratch.Open(cfg.ScratchDir)
	if err != nil {
		return err
	}

	m := metrics.NewMetrics("formatlab")
	if cfg.MetricsAddress != "" {
		srv := metrics.NewServer(cfg.MetricsAddress, m)
		if err := srv.StartAsync(); err != nil {
			return err
		}
		slog.Info("serving metrics", "addr", srv.Addr())
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Stop(shutdownCtx)
		}()
	}

	progress := stdout
	if f.jsonOut {
		progress = stderr
	}
	l := lab.New(cfg, dir, lab.WithOutput(progress), lab.WithMetrics(m), lab.WithLogger(slog.Default()))
	report, runErr := l.Run(ctx, sections...)

	if report != nil && len(report.Results) > 0 {
		if f.jsonOut {
			data, err := report.JSON()
			if err != nil {
				return errors.CombineErrors(runErr, err)
			}
			fmt.Fprintln(stdout, string(data))
		} else {
			fmt.Fprintln(stdout)
			report.Render(stdout)
		}
	}

	if cfg.MetricsFile != "" {
		if err := m.WriteTextfile(cfg.MetricsFile); err != nil {
			return errors.CombineErrors(runErr, err)
		}
		slog.Info("wrote metrics", "file", cfg.MetricsFile)
	}
	return runErr
}
