package rowbinary

import (
	"context"
	"os"

	"github.com/ajitpratap0/hepconv/pkg/errors"
	"github.com/ajitpratap0/hepconv/pkg/formats/core"
	"github.com/ajitpratap0/hepconv/pkg/models"
	"github.com/ajitpratap0/hepconv/pkg/pool"
	"github.com/linkedin/goavro/v2"
	"go.uber.org/zap"
)

// datums recycles record maps between blocks. Every map handed out holds
// all 26 fields at their zero value.
var datums = pool.New(
	func() map[string]interface{} {
		rec := make(map[string]interface{}, len(datumColumns))
		zeroDatum(rec)
		return rec
	},
	zeroDatum,
)

var datumColumns = models.Columns()

// newOCFWriter writes the container header
var newOCFWriter = goavro.NewOCFWriter

func zeroDatum(rec map[string]interface{}) {
	for _, c := range datumColumns {
		if c.Kind == models.KindInt32 {
			rec[c.Name] = int32(0)
		} else {
			rec[c.Name] = float64(0)
		}
	}
}

// Writer appends events to a fixed-capacity row-binary dataset. Records
// are buffered and appended as one container block per BatchSize events.
type Writer struct {
	opts   core.Options
	logger *zap.Logger

	path    string
	file    *os.File
	ocf     *goavro.OCFWriter
	columns []models.Column

	buffer  []interface{}
	written int64
	offset  int64
	closed  bool
}

// NewWriter creates an unopened row-binary writer
func NewWriter(opts core.Options) *Writer {
	opts = opts.WithDefaults()
	return &Writer{
		opts:   opts,
		logger: opts.Logger.With(zap.String("component", "rowbinary_writer")),
	}
}

// Open creates (truncating) the file at path and writes the container header
func (w *Writer) Open(ctx context.Context, path string) error {
	if w.file != nil {
		return errors.New(errors.ErrorTypeState, "rowbinary writer: already open")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	codec, err := newCodec()
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "rowbinary writer: failed to build schema")
	}

	f, err := os.Create(path) //nolint:gosec // output path derived from the operator's input path
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "rowbinary writer: failed to create output").
			WithDetail("path", path)
	}

	ocf, err := newOCFWriter(goavro.OCFConfig{
		W:               f,
		Codec:           codec,
		CompressionName: compressionName(w.opts.Compression),
		MetaData: map[string][]byte{
			CapacityKey: encodeCapacity(w.opts.RowCapacity),
		},
	})
	if err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return errors.Wrap(err, errors.ErrorTypeFile, "rowbinary writer: failed to write container header").
			WithDetail("path", path)
	}

	w.path = path
	w.file = f
	w.ocf = ocf
	w.columns = w.populatedColumns()
	w.buffer = make([]interface{}, 0, w.opts.BatchSize)

	w.logger.Info("opened row-binary dataset",
		zap.String("path", path),
		zap.Int64("capacity", w.opts.RowCapacity),
		zap.String("schema_mode", string(w.opts.SchemaMode)),
		zap.String("compression", w.opts.Compression))
	return nil
}

// populatedColumns returns the columns whose values are copied from the
// event; the rest are written as zero.
func (w *Writer) populatedColumns() []models.Column {
	if w.opts.SchemaMode == core.SchemaLegacy {
		var out []models.Column
		for _, c := range models.Columns() {
			if c.Slot < 0 {
				out = append(out, c)
			}
		}
		return out
	}
	return models.Columns()
}

// Capacity returns the negotiated dataset capacity, 0 if unbounded
func (w *Writer) Capacity() int64 {
	return w.opts.RowCapacity
}

// WriteEvent appends ev at the current offset. Writing past the capacity
// fails without writing anything.
func (w *Writer) WriteEvent(ctx context.Context, ev *models.Event) error {
	if w.ocf == nil || w.closed {
		return errors.New(errors.ErrorTypeState, "rowbinary writer: not open")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if w.opts.RowCapacity > 0 && w.offset >= w.opts.RowCapacity {
		return errors.Newf(errors.ErrorTypeCapacity, "rowbinary writer: dataset capacity %d reached", w.opts.RowCapacity).
			WithDetail("path", w.path).
			WithDetail("offset", w.offset)
	}

	w.buffer = append(w.buffer, w.record(ev))
	w.offset++

	if len(w.buffer) >= w.opts.BatchSize {
		return w.flush()
	}
	return nil
}

func (w *Writer) record(ev *models.Event) map[string]interface{} {
	rec := datums.Get()
	for _, c := range w.columns {
		rec[c.Name] = c.Value(ev)
	}
	return rec
}

func (w *Writer) flush() error {
	if len(w.buffer) == 0 {
		return nil
	}
	if err := w.ocf.Append(w.buffer); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "rowbinary writer: failed to append block").
			WithDetail("path", w.path)
	}
	w.written += int64(len(w.buffer))
	for i, rec := range w.buffer {
		datums.Put(rec.(map[string]interface{}))
		w.buffer[i] = nil
	}
	w.buffer = w.buffer[:0]
	return nil
}

// Close flushes the pending block and closes the file
func (w *Writer) Close() error {
	if w.closed || w.file == nil {
		w.closed = true
		return nil
	}
	w.closed = true

	var errs []error
	if err := w.flush(); err != nil {
		errs = append(errs, err)
	}
	if err := w.file.Sync(); err != nil {
		errs = append(errs, errors.Wrap(err, errors.ErrorTypeFile, "rowbinary writer: failed to sync output"))
	}
	if err := w.file.Close(); err != nil {
		errs = append(errs, errors.Wrap(err, errors.ErrorTypeFile, "rowbinary writer: failed to close output"))
	}

	w.logger.Info("closed row-binary dataset",
		zap.String("path", w.path),
		zap.Int64("events", w.written))
	return errors.Join(errs...)
}

// Abort drops the pending block, closes the file and removes it
func (w *Writer) Abort() error {
	if w.closed || w.file == nil {
		w.closed = true
		return nil
	}
	w.closed = true

	for i, rec := range w.buffer {
		datums.Put(rec.(map[string]interface{}))
		w.buffer[i] = nil
	}
	w.buffer = w.buffer[:0]

	var errs []error
	if err := w.file.Close(); err != nil {
		errs = append(errs, errors.Wrap(err, errors.ErrorTypeFile, "rowbinary writer: failed to close output"))
	}
	if err := os.Remove(w.path); err != nil && !os.IsNotExist(err) {
		errs = append(errs, errors.Wrap(err, errors.ErrorTypeFile, "rowbinary writer: failed to remove partial output").
			WithDetail("path", w.path))
	}

	w.logger.Warn("aborted row-binary dataset",
		zap.String("path", w.path),
		zap.Int64("discarded", w.offset))
	return errors.Join(errs...)
}

// Format returns FormatRowBinary
func (w *Writer) Format() core.Format {
	return core.FormatRowBinary
}

// EventsWritten returns the number of events accepted, including those
// still buffered for the next block
func (w *Writer) EventsWritten() int64 {
	return w.offset
}

var _ core.EventWriter = (*Writer)(nil)
