// Package driver runs one hepconv invocation end to end.
//
// # Modes
//
// A run is either a filter scan or a streaming pass over one reader:
//   - scan: column projection over tree inputs, reports read and skipped rows
//   - convert: tree input streamed into a writer picked by output suffix
//   - analyse: any readable input streamed through the muon veto
//
// Format tokens are parsed before any file is touched, so an unknown token
// fails without side effects. Reader and writer are always closed, writer
// first, and close failures are joined into the returned error.
package driver

import (
	"context"
	"strings"
	"time"

	"github.com/ajitpratap0/hepconv/pkg/analysis"
	"github.com/ajitpratap0/hepconv/pkg/config"
	"github.com/ajitpratap0/hepconv/pkg/errors"
	"github.com/ajitpratap0/hepconv/pkg/formats"
	"github.com/ajitpratap0/hepconv/pkg/formats/core"
	"github.com/ajitpratap0/hepconv/pkg/formats/tree"
	"github.com/ajitpratap0/hepconv/pkg/logger"
	"github.com/ajitpratap0/hepconv/pkg/metrics"
	"github.com/ajitpratap0/hepconv/pkg/models"
	"github.com/ajitpratap0/hepconv/pkg/observability"
	"github.com/ajitpratap0/hepconv/pkg/scan"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Mode is the terminal state a run ends in
type Mode string

const (
	ModeScan    Mode = "scan"
	ModeConvert Mode = "convert"
	ModeAnalyse Mode = "analyse"
)

// Options selects what a run does
type Options struct {
	// Inputs are input locations in command-line order
	Inputs []string
	// OutputSuffix is the output format token; empty means analyse
	OutputSuffix string
	// FilterScan selects the scan mode and takes precedence over OutputSuffix
	FilterScan bool
	// Config defaults to config.NewConfig()
	Config *config.Config
	// Logger defaults to the global logger
	Logger *zap.Logger
}

// Summary reports what a run did
type Summary struct {
	Mode Mode

	// Events is the number of events pulled from the reader
	Events int64
	// Written is the number of events accepted by the writer
	Written int64
	// Vetoed and Accepted split Events in analyse mode
	Vetoed   int64
	Accepted int64

	// Read, Skipped and Checksum are filled in scan mode
	Read     uint64
	Skipped  uint64
	Checksum float64

	// Output is the path written in convert mode
	Output   string
	Duration time.Duration
}

// Driver executes runs
type Driver struct {
	opts   Options
	cfg    *config.Config
	logger *zap.Logger
}

// New creates a driver for opts
func New(opts Options) *Driver {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.NewConfig()
	}
	log := opts.Logger
	if log == nil {
		log = logger.Get()
	}
	return &Driver{
		opts:   opts,
		cfg:    cfg,
		logger: log.With(zap.String("component", "driver")),
	}
}

// Run executes the configured run and returns its summary
func (d *Driver) Run(ctx context.Context) (*Summary, error) {
	if logger.RunID(ctx) == "" {
		ctx = logger.NewRunContext(ctx)
	}
	log := logger.WithContext(ctx, d.logger)

	if len(d.opts.Inputs) == 0 {
		return nil, errors.New(errors.ErrorTypeConfig, "at least one input is required (-i)")
	}

	if d.opts.FilterScan {
		if d.opts.OutputSuffix != "" {
			log.Warn("output format ignored in filter-scan mode", zap.String("output", d.opts.OutputSuffix))
		}
		return d.runScan(ctx, log)
	}
	return d.runStream(ctx, log)
}

func (d *Driver) runScan(ctx context.Context, log *zap.Logger) (*Summary, error) {
	timer := metrics.NewTimer(string(ModeScan))
	ctx, span := observability.StartSpan(ctx, "hepconv.scan",
		attribute.StringSlice("inputs", d.opts.Inputs))

	res, err := scan.Run(ctx, d.opts.Inputs, scan.Options{
		BatchSize:     d.cfg.Scan.BatchSize,
		ProgressEvery: d.cfg.Scan.ProgressEvery,
		Logger:        log,
	})
	span.End(err)
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		Mode:     ModeScan,
		Read:     res.Read,
		Skipped:  res.Skipped,
		Checksum: res.Checksum,
		Duration: timer.ObserveDuration(),
	}
	log.Info("optimized scan finished",
		zap.Uint64("read", summary.Read),
		zap.Uint64("skipped", summary.Skipped),
		zap.Float64("checksum", summary.Checksum),
		zap.Duration("duration", summary.Duration))
	return summary, nil
}

// plan is the fully resolved stream run, built before any I/O
type plan struct {
	mode     Mode
	location string
	input    core.Format
	output   core.Format
	outPath  string
}

func (d *Driver) resolve() (*plan, error) {
	first := d.opts.Inputs[0]
	input, err := formats.FormatOf(first)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "unsupported input").WithDetail("input", first)
	}
	if input != core.FormatTree && len(d.opts.Inputs) > 1 {
		return nil, errors.Newf(errors.ErrorTypeConfig, "only %s inputs can be chained, got %d %s inputs",
			core.FormatTree, len(d.opts.Inputs), input)
	}

	p := &plan{
		mode:     ModeAnalyse,
		location: strings.Join(d.opts.Inputs, tree.Separator),
		input:    input,
	}
	if d.opts.OutputSuffix == "" {
		return p, nil
	}

	output, err := formats.ParseFormat(d.opts.OutputSuffix)
	if err != nil {
		return nil, err
	}
	if input != core.FormatTree {
		return nil, errors.Newf(errors.ErrorTypeConfig, "conversion requires %s input, got %s", core.FormatTree, input)
	}
	if output == core.FormatTree {
		return nil, errors.Newf(errors.ErrorTypeConfig, "cannot convert %s to itself", core.FormatTree)
	}

	p.mode = ModeConvert
	p.output = output
	p.outPath = formats.ReplaceSuffix(first, d.opts.OutputSuffix)
	return p, nil
}

func (d *Driver) runStream(ctx context.Context, log *zap.Logger) (summary *Summary, err error) {
	p, err := d.resolve()
	if err != nil {
		return nil, err
	}
	ctx = logger.WithFormat(ctx, string(p.input))
	log = logger.WithContext(ctx, d.logger)

	opts := d.cfg.FormatOptions(log)
	reader, err := formats.NewReader(p.input, opts)
	if err != nil {
		return nil, err
	}
	var writer core.EventWriter
	if p.mode == ModeConvert {
		if writer, err = formats.NewWriter(p.output, opts); err != nil {
			return nil, err
		}
	}

	timer := metrics.NewTimer(string(p.mode))
	ctx, span := observability.StartSpan(ctx, "hepconv."+string(p.mode),
		attribute.String("input", p.location),
		attribute.String("input_format", string(p.input)))
	defer func() { span.End(err) }()

	defer func() {
		var closeErrs []error
		if writer != nil {
			finish := writer.Close
			if err != nil {
				finish = writer.Abort
			}
			if cerr := finish(); cerr != nil {
				closeErrs = append(closeErrs, cerr)
			}
		}
		if cerr := reader.Close(); cerr != nil {
			closeErrs = append(closeErrs, cerr)
		}
		if len(closeErrs) > 0 {
			summary = nil
			err = errors.Join(append([]error{err}, closeErrs...)...)
		}
	}()

	if err = reader.Open(ctx, p.location); err != nil {
		return nil, err
	}

	var ev models.Event
	if p.mode == ModeConvert {
		err = reader.PrepareForConversion(&ev)
	} else {
		err = reader.Bind(&ev, models.AnalysisFields)
	}
	if err != nil {
		return nil, err
	}

	if writer != nil {
		if err = writer.Open(ctx, p.outPath); err != nil {
			return nil, err
		}
		span.SetAttributes(attribute.String("output", p.outPath))
		log.Info("converting", zap.String("input", p.location), zap.String("output", p.outPath))
	}

	summary = &Summary{Mode: p.mode, Output: p.outPath}
	if err = d.stream(ctx, log, reader, writer, &ev, summary); err != nil {
		return nil, err
	}

	summary.Duration = timer.ObserveDuration()
	span.SetAttributes(attribute.Int64("events", summary.Events))
	return summary, nil
}

func (d *Driver) stream(ctx context.Context, log *zap.Logger, reader core.EventReader, writer core.EventWriter, ev *models.Event, summary *Summary) error {
	progress := metrics.NewProgressReporter(log, d.cfg.Convert.ProgressEvery)
	if counter, ok := reader.(interface{ Entries() int64 }); ok {
		progress.SetTotal(counter.Entries())
	}
	readCounter := metrics.EventsRead.WithLabelValues(string(reader.Format()))

	var hist analysis.Histograms
	for {
		if err := ctx.Err(); err != nil {
			return errors.Wrap(err, errors.ErrorTypeInternal, "run cancelled")
		}

		more, err := reader.NextEvent(ctx)
		if err != nil {
			return err
		}
		if !more {
			break
		}
		summary.Events++
		readCounter.Inc()

		if writer != nil {
			if err := writer.WriteEvent(ctx, ev); err != nil {
				log.Error("write failed", zap.Int64("event", summary.Events-1), zap.Error(err))
				return err
			}
			metrics.EventsWritten.WithLabelValues(string(writer.Format())).Inc()
		} else if analysis.Process(ev, &hist) {
			summary.Accepted++
		} else {
			summary.Vetoed++
		}
		progress.Increment()
	}

	if writer != nil {
		summary.Written = writer.EventsWritten()
	}
	progress.Finish("finished",
		zap.String("mode", string(summary.Mode)),
		zap.Int64("events", summary.Events),
		zap.Int64("written", summary.Written),
		zap.Int64("vetoed", summary.Vetoed))
	return nil
}
