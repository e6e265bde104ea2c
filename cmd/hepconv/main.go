package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ajitpratap0/hepconv/internal/driver"
	"github.com/ajitpratap0/hepconv/pkg/config"
	"github.com/ajitpratap0/hepconv/pkg/errors"
	"github.com/ajitpratap0/hepconv/pkg/logger"
	"github.com/ajitpratap0/hepconv/pkg/observability"
)

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes the command line and returns the process exit status
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := newRootCommand(stdout)
	root.SetArgs(args)

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		if errors.IsType(err, errors.ErrorTypeValidation) {
			fmt.Fprint(stderr, root.UsageString())
		}
		return 1
	}
	return 0
}

func newRootCommand(stdout io.Writer) *cobra.Command {
	var (
		opts      driver.Options
		showUsage bool
	)

	root := &cobra.Command{
		Use:   "hepconv [-i input.parquet] [-i ...] [-r | -o output format]",
		Short: "hepconv - decay event format converter",
		Long: `hepconv streams DecayTree events from Parquet inputs into Avro, Arrow or
SQLite outputs, runs the muon veto over Parquet or SQLite inputs, or performs
an optimized filter scan over Parquet inputs.

Settings are read from the YAML file named by HEPCONV_CONFIG and from
HEPCONV_* environment variables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return errors.Newf(errors.ErrorTypeValidation, "unexpected argument %q", args[0])
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if showUsage {
				return cmd.Usage()
			}
			return execute(cmd.Context(), opts, stdout)
		},
	}
	root.SetOut(stdout)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return errors.Wrap(err, errors.ErrorTypeValidation, "invalid option")
	})

	flags := root.Flags()
	flags.StringArrayVarP(&opts.Inputs, "input", "i", nil, "input location, repeatable; parquet inputs are chained in order")
	flags.StringVarP(&opts.OutputSuffix, "output", "o", "", "output format token (avro, arrow, sqlite); enables conversion")
	flags.BoolVarP(&opts.FilterScan, "filter-scan", "r", false, "run the optimized filter scan over parquet inputs")
	flags.BoolVarP(&showUsage, "version", "v", false, "print usage and exit")

	return root
}

// execute loads settings, runs the driver and prints the summary
func execute(ctx context.Context, opts driver.Options, stdout io.Writer) error {
	cfg, err := config.Load(os.Getenv(config.ConfigPathEnv))
	if err != nil {
		return err
	}

	if err := logger.Init(cfg.LoggerConfig()); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "failed to initialize logger")
	}
	defer func() { _ = logger.Sync() }()
	log := logger.With(zap.String("component", "hepconv-cli"))

	shutdown, err := observability.InitTracing(ctx, cfg.Tracing, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			log.Warn("failed to flush traces", zap.Error(err))
		}
	}()

	opts.Config = cfg
	opts.Logger = log

	ctx = logger.NewRunContext(ctx)
	log.Info("starting run",
		zap.String("run_id", logger.RunID(ctx)),
		zap.Strings("inputs", opts.Inputs),
		zap.String("output", opts.OutputSuffix),
		zap.Bool("filter_scan", opts.FilterScan))

	summary, err := driver.New(opts).Run(ctx)
	if err != nil {
		log.Error("run failed", errors.Fields(err)...)
		return err
	}

	printSummary(stdout, summary)
	return nil
}

func printSummary(w io.Writer, s *driver.Summary) {
	switch s.Mode {
	case driver.ModeScan:
		fmt.Fprintf(w, "Optimized scan: %d events read, %d events skipped (checksum: %f)\n",
			s.Read, s.Skipped, s.Checksum)
	case driver.ModeConvert:
		fmt.Fprintf(w, "finished (%d events) -> %s\n", s.Events, s.Output)
	default:
		fmt.Fprintf(w, "finished (%d events, %d vetoed)\n", s.Events, s.Vetoed)
	}
}
