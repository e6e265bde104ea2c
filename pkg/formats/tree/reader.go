// Package tree reads decay events from chained Parquet files that carry the
// DecayTree record set.
package tree

import (
	"context"
	"strings"

	"github.com/ajitpratap0/hepconv/pkg/errors"
	"github.com/ajitpratap0/hepconv/pkg/formats/core"
	"github.com/ajitpratap0/hepconv/pkg/models"
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"go.uber.org/zap"
)

// TreeNameKey is the Parquet key/value metadata entry naming the record set.
const TreeNameKey = "hepconv.tree"

// Separator joins several input locations into one chained location.
const Separator = ":"

// SplitLocation splits a colon-joined location into its non-empty parts.
func SplitLocation(location string) []string {
	parts := strings.Split(location, Separator)
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// chainFile is one member of the chain
type chainFile struct {
	path   string
	pf     *file.Reader
	fr     *pqarrow.FileReader
	rows   int64
	leaves []int
}

type boundColumn struct {
	col models.Column
	arr arrow.Array
}

// Reader streams events position by position across every chained file.
// It is not safe for concurrent use.
type Reader struct {
	opts   core.Options
	logger *zap.Logger

	files []*chainFile
	total int64
	pos   int64

	ev      *models.Event
	fields  models.FieldSet
	columns []models.Column
	bound   bool
	started bool
	done    bool

	cur      int
	rr       pqarrow.RecordReader
	batch    arrow.Record
	batchRow int64
	arrays   []boundColumn
}

// NewReader creates an unopened tree reader
func NewReader(opts core.Options) *Reader {
	opts = opts.WithDefaults()
	return &Reader{
		opts:   opts,
		logger: opts.Logger.With(zap.String("component", "tree_reader")),
	}
}

// Open opens every file in the colon-joined location and builds the chain
func (r *Reader) Open(ctx context.Context, location string) error {
	paths := SplitLocation(location)
	if len(paths) == 0 {
		return errors.New(errors.ErrorTypeConfig, "tree reader: no input location given")
	}

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			_ = r.Close()
			return err
		}
		cf, err := r.openFile(path)
		if err != nil {
			_ = r.Close()
			return err
		}
		r.files = append(r.files, cf)
		r.total += cf.rows
	}

	r.logger.Info("opened tree chain",
		zap.Int("files", len(r.files)),
		zap.Int64("entries", r.total))
	return nil
}

func (r *Reader) openFile(path string) (*chainFile, error) {
	pf, err := file.OpenParquetFile(path, false)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "tree reader: failed to open input").
			WithDetail("path", path)
	}

	if name := pf.MetaData().KeyValueMetadata().FindValue(TreeNameKey); name != nil && *name != r.opts.TreeName {
		_ = pf.Close()
		return nil, errors.Newf(errors.ErrorTypeData, "tree reader: %s holds record set %q, want %q",
			path, *name, r.opts.TreeName)
	}

	fr, err := pqarrow.NewFileReader(pf, pqarrow.ArrowReadProperties{BatchSize: int64(r.opts.BatchSize)}, memory.DefaultAllocator)
	if err != nil {
		_ = pf.Close()
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "tree reader: failed to create arrow reader").
			WithDetail("path", path)
	}

	return &chainFile{path: path, pf: pf, fr: fr, rows: pf.NumRows()}, nil
}

// Entries returns the total number of records across the chain
func (r *Reader) Entries() int64 {
	return r.total
}

// Bind attaches ev as the output buffer and resolves the requested columns
// in every chained file.
func (r *Reader) Bind(ev *models.Event, fields models.FieldSet) error {
	if ev == nil {
		return errors.New(errors.ErrorTypeValidation, "tree reader: bind target is nil")
	}
	if r.started {
		return errors.New(errors.ErrorTypeState, "tree reader: cannot bind after the first advance")
	}
	if r.files == nil {
		return errors.New(errors.ErrorTypeState, "tree reader: bind before open")
	}

	columns := models.ColumnsFor(fields)
	for _, cf := range r.files {
		leaves := make([]int, 0, len(columns))
		for _, c := range columns {
			idx := cf.pf.MetaData().Schema.ColumnIndexByName(c.Name)
			if idx < 0 {
				return errors.Newf(errors.ErrorTypeData, "tree reader: %s has no column %s", cf.path, c.Name).
					WithDetail("path", cf.path).
					WithDetail("column", c.Name)
			}
			leaves = append(leaves, idx)
		}
		cf.leaves = leaves
	}

	r.ev = ev
	r.fields = fields
	r.columns = columns
	r.bound = true

	r.logger.Debug("bound event buffer",
		zap.Stringer("fields", fields),
		zap.Int("columns", len(columns)))
	return nil
}

// PrepareForConversion binds every field, including the conditional ones
func (r *Reader) PrepareForConversion(ev *models.Event) error {
	return r.Bind(ev, models.AllFields)
}

// NextEvent overwrites the bound event with the record at the current
// position and advances.
func (r *Reader) NextEvent(ctx context.Context) (bool, error) {
	if r.done {
		return false, nil
	}
	if !r.bound {
		return false, errors.New(errors.ErrorTypeState, "tree reader: next called before bind")
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.started = true

	if r.pos >= r.total {
		r.finish()
		return false, nil
	}

	if len(r.columns) == 0 {
		r.pos++
		return true, nil
	}

	for r.batch == nil || r.batchRow >= r.batch.NumRows() {
		if err := r.nextBatch(ctx); err != nil {
			return false, err
		}
		if r.done {
			return false, nil
		}
	}

	for _, bc := range r.arrays {
		copyValue(bc, r.ev, int(r.batchRow))
	}
	r.batchRow++
	r.pos++
	return true, nil
}

// nextBatch moves to the next record batch, crossing file boundaries
func (r *Reader) nextBatch(ctx context.Context) error {
	r.batch = nil
	r.arrays = r.arrays[:0]

	for {
		if r.rr != nil {
			if r.rr.Next() {
				r.batch = r.rr.Record()
				r.batchRow = 0
				return r.resolveArrays()
			}
			err := r.rr.Err()
			r.rr.Release()
			r.rr = nil
			if err != nil {
				return errors.Wrap(err, errors.ErrorTypeFile, "tree reader: failed to read batch").
					WithDetail("path", r.files[r.cur].path)
			}
			r.cur++
		}

		if r.cur >= len(r.files) {
			if r.pos < r.total {
				return errors.Newf(errors.ErrorTypeData, "tree reader: chain ended at %d of %d entries", r.pos, r.total)
			}
			r.finish()
			return nil
		}

		cf := r.files[r.cur]
		if cf.rows == 0 {
			r.cur++
			continue
		}
		rr, err := cf.fr.GetRecordReader(ctx, cf.leaves, nil)
		if err != nil {
			return errors.Wrap(err, errors.ErrorTypeFile, "tree reader: failed to start record reader").
				WithDetail("path", cf.path)
		}
		r.rr = rr
	}
}

func (r *Reader) resolveArrays() error {
	schema := r.batch.Schema()
	for _, c := range r.columns {
		idx := schema.FieldIndices(c.Name)
		if len(idx) == 0 {
			return errors.Newf(errors.ErrorTypeData, "tree reader: batch is missing column %s", c.Name)
		}
		arr := r.batch.Column(idx[0])
		if !supported(arr) {
			return errors.Newf(errors.ErrorTypeData, "tree reader: column %s has unsupported type %s",
				c.Name, arr.DataType())
		}
		r.arrays = append(r.arrays, boundColumn{col: c, arr: arr})
	}
	return nil
}

func supported(arr arrow.Array) bool {
	switch arr.(type) {
	case *array.Float64, *array.Float32, *array.Int32, *array.Int64, *array.Int16, *array.Int8:
		return true
	default:
		return false
	}
}

func copyValue(bc boundColumn, ev *models.Event, row int) {
	switch a := bc.arr.(type) {
	case *array.Float64:
		setFloat(bc.col, ev, a.Value(row))
	case *array.Float32:
		setFloat(bc.col, ev, float64(a.Value(row)))
	case *array.Int32:
		setInt(bc.col, ev, int64(a.Value(row)))
	case *array.Int64:
		setInt(bc.col, ev, a.Value(row))
	case *array.Int16:
		setInt(bc.col, ev, int64(a.Value(row)))
	case *array.Int8:
		setInt(bc.col, ev, int64(a.Value(row)))
	}
}

// setFloat truncates when the target column is an integer
func setFloat(c models.Column, ev *models.Event, v float64) {
	if c.Kind == models.KindInt32 {
		*c.Int32(ev) = int32(v)
		return
	}
	*c.Float64(ev) = v
}

func setInt(c models.Column, ev *models.Event, v int64) {
	if c.Kind == models.KindInt32 {
		*c.Int32(ev) = int32(v)
		return
	}
	*c.Float64(ev) = float64(v)
}

func (r *Reader) finish() {
	r.done = true
	r.batch = nil
	r.arrays = nil
	if r.rr != nil {
		r.rr.Release()
		r.rr = nil
	}
}

// Close releases every open file. It is safe to call more than once.
func (r *Reader) Close() error {
	r.finish()

	var errs []error
	for _, cf := range r.files {
		if cf.pf == nil {
			continue
		}
		if err := cf.pf.Close(); err != nil {
			errs = append(errs, errors.Wrap(err, errors.ErrorTypeFile, "tree reader: failed to close input").
				WithDetail("path", cf.path))
		}
		cf.pf = nil
	}
	r.files = nil
	r.bound = false
	return errors.Join(errs...)
}

// Format returns FormatTree
func (r *Reader) Format() core.Format {
	return core.FormatTree
}

var _ core.EventReader = (*Reader)(nil)
