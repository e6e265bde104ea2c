// Package scan implements the filter scan: a column-at-a-time pass over tree
// inputs that counts muon-vetoed rows and folds every accepted row's analysis
// values into a checksum, without materialising events.
package scan

import (
	"context"

	"github.com/ajitpratap0/hepconv/pkg/errors"
	"github.com/ajitpratap0/hepconv/pkg/formats/tree"
	"github.com/ajitpratap0/hepconv/pkg/metrics"
	"github.com/ajitpratap0/hepconv/pkg/models"
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"go.uber.org/zap"
)

// Options configures a scan
type Options struct {
	BatchSize     int
	ProgressEvery int64
	// TreeName is the record set every input must carry; empty means DecayTree
	TreeName string
	Logger   *zap.Logger
}

// Result summarises a scan
type Result struct {
	Read     uint64
	Skipped  uint64
	Checksum float64
}

// Accepted returns the number of rows that passed the muon veto
func (r Result) Accepted() uint64 {
	return r.Read - r.Skipped
}

// projection holds the 3 muon flags followed by the 18 accumulated columns
type projection struct {
	flags  []models.Column
	values []models.Column
}

func newProjection() projection {
	var p projection
	p.flags = models.MuonColumns()
	for _, c := range models.ColumnsFor(models.AnalysisFields) {
		if c.Kind == models.KindInt32 && c.Name == p.flags[c.Slot].Name {
			continue
		}
		p.values = append(p.values, c)
	}
	return p
}

func (p projection) names() []string {
	out := make([]string, 0, len(p.flags)+len(p.values))
	for _, c := range p.flags {
		out = append(out, c.Name)
	}
	for _, c := range p.values {
		out = append(out, c.Name)
	}
	return out
}

// Run scans every input in order and returns the accumulated result
func Run(ctx context.Context, inputs []string, opts Options) (*Result, error) {
	if len(inputs) == 0 {
		return nil, errors.New(errors.ErrorTypeConfig, "scan: no inputs given")
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 1024
	}
	if opts.TreeName == "" {
		opts.TreeName = models.TreeName
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	logger := opts.Logger.With(zap.String("component", "scan"))

	s := &scanner{
		proj:     newProjection(),
		opts:     opts,
		logger:   logger,
		progress: metrics.NewProgressReporter(logger, opts.ProgressEvery),
	}

	for _, location := range inputs {
		for _, path := range tree.SplitLocation(location) {
			if err := s.scanFile(ctx, path); err != nil {
				return nil, err
			}
		}
	}

	s.progress.Finish("scan completed",
		zap.Uint64("read", s.result.Read),
		zap.Uint64("skipped", s.result.Skipped),
		zap.Float64("checksum", s.result.Checksum))
	return &s.result, nil
}

type scanner struct {
	proj     projection
	opts     Options
	logger   *zap.Logger
	progress *metrics.ProgressReporter
	result   Result
}

func (s *scanner) scanFile(ctx context.Context, path string) error {
	pf, err := file.OpenParquetFile(path, false)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "scan: failed to open input").WithDetail("path", path)
	}
	defer pf.Close()

	if name := pf.MetaData().KeyValueMetadata().FindValue(tree.TreeNameKey); name != nil && *name != s.opts.TreeName {
		return errors.Newf(errors.ErrorTypeData, "scan: %s holds record set %q, want %q", path, *name, s.opts.TreeName).
			WithDetail("path", path)
	}

	if pf.NumRows() == 0 {
		return nil
	}

	names := s.proj.names()
	leaves := make([]int, len(names))
	for i, name := range names {
		leaves[i] = pf.MetaData().Schema.ColumnIndexByName(name)
		if leaves[i] < 0 {
			return errors.Newf(errors.ErrorTypeData, "scan: %s has no column %s", path, name).
				WithDetail("path", path).
				WithDetail("column", name)
		}
	}

	fr, err := pqarrow.NewFileReader(pf, pqarrow.ArrowReadProperties{BatchSize: int64(s.opts.BatchSize)}, memory.DefaultAllocator)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "scan: failed to create arrow reader").WithDetail("path", path)
	}

	rr, err := fr.GetRecordReader(ctx, leaves, nil)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "scan: failed to start record reader").WithDetail("path", path)
	}
	defer rr.Release()

	for rr.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.scanBatch(rr.Record()); err != nil {
			return errors.Wrap(err, errors.ErrorTypeData, "scan: bad batch").WithDetail("path", path)
		}
	}
	if err := rr.Err(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "scan: failed to read batch").WithDetail("path", path)
	}

	s.logger.Debug("scanned input", zap.String("path", path), zap.Int64("rows", pf.NumRows()))
	return nil
}

// column is a typed view of one projected column
type column struct {
	f64 []float64
	i32 []int32
}

func (c column) at(row int) float64 {
	if c.i32 != nil {
		return float64(c.i32[row])
	}
	return c.f64[row]
}

func typedColumn(rec arrow.Record, name string) (column, error) {
	idx := rec.Schema().FieldIndices(name)
	if len(idx) == 0 {
		return column{}, errors.Newf(errors.ErrorTypeData, "column %s missing from batch", name)
	}
	switch a := rec.Column(idx[0]).(type) {
	case *array.Float64:
		return column{f64: a.Float64Values()}, nil
	case *array.Int32:
		return column{i32: a.Int32Values()}, nil
	default:
		return column{}, errors.Newf(errors.ErrorTypeData, "column %s has unsupported type %s", name, a.DataType())
	}
}

func (s *scanner) scanBatch(rec arrow.Record) error {
	flags := make([]column, len(s.proj.flags))
	for i, c := range s.proj.flags {
		col, err := typedColumn(rec, c.Name)
		if err != nil {
			return err
		}
		flags[i] = col
	}
	values := make([]column, len(s.proj.values))
	for i, c := range s.proj.values {
		col, err := typedColumn(rec, c.Name)
		if err != nil {
			return err
		}
		values[i] = col
	}

	rows := int(rec.NumRows())
	for row := 0; row < rows; row++ {
		s.result.Read++
		s.progress.Increment()

		if vetoed(flags, row) {
			s.result.Skipped++
			metrics.ScanRows.WithLabelValues(metrics.OutcomeSkipped).Inc()
			continue
		}
		for _, v := range values {
			s.result.Checksum += v.at(row)
		}
		metrics.ScanRows.WithLabelValues(metrics.OutcomeAccepted).Inc()
	}
	return nil
}

func vetoed(flags []column, row int) bool {
	for _, f := range flags {
		if f.at(row) != 0 {
			return true
		}
	}
	return false
}
