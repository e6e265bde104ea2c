package rowbinary

import (
	"bufio"
	"context"
	"os"

	"github.com/ajitpratap0/hepconv/pkg/errors"
	"github.com/ajitpratap0/hepconv/pkg/formats/core"
	"github.com/ajitpratap0/hepconv/pkg/models"
	"github.com/linkedin/goavro/v2"
)

// Reader reads a row-binary dataset back into events. It is the inverse of
// Writer and is used to verify written datasets.
type Reader struct {
	file     *os.File
	ocf      *goavro.OCFReader
	capacity int64

	ev      *models.Event
	columns []models.Column
	started bool
	done    bool
}

// NewReader creates an unopened row-binary reader
func NewReader() *Reader {
	return &Reader{}
}

// Open opens the dataset at path and reads the container header
func (r *Reader) Open(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f, err := os.Open(path) //nolint:gosec // caller-supplied dataset path
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "rowbinary reader: failed to open input").
			WithDetail("path", path)
	}

	ocf, err := goavro.NewOCFReader(bufio.NewReader(f))
	if err != nil {
		_ = f.Close()
		return errors.Wrap(err, errors.ErrorTypeData, "rowbinary reader: not a row-binary dataset").
			WithDetail("path", path)
	}

	r.file = f
	r.ocf = ocf
	r.capacity, _ = decodeCapacity(ocf.MetaData())
	return nil
}

// Capacity returns the capacity recorded when the dataset was created
func (r *Reader) Capacity() int64 {
	return r.capacity
}

// Bind attaches ev as the output buffer
func (r *Reader) Bind(ev *models.Event, fields models.FieldSet) error {
	if ev == nil {
		return errors.New(errors.ErrorTypeValidation, "rowbinary reader: bind target is nil")
	}
	if r.started {
		return errors.New(errors.ErrorTypeState, "rowbinary reader: cannot bind after the first advance")
	}
	r.ev = ev
	r.columns = models.ColumnsFor(fields)
	return nil
}

// PrepareForConversion binds every field
func (r *Reader) PrepareForConversion(ev *models.Event) error {
	return r.Bind(ev, models.AllFields)
}

// NextEvent decodes the next record into the bound event
func (r *Reader) NextEvent(ctx context.Context) (bool, error) {
	if r.done {
		return false, nil
	}
	if r.ev == nil {
		return false, errors.New(errors.ErrorTypeState, "rowbinary reader: next called before bind")
	}
	if r.ocf == nil {
		return false, errors.New(errors.ErrorTypeState, "rowbinary reader: not open")
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.started = true

	if !r.ocf.Scan() {
		r.done = true
		if err := r.ocf.Err(); err != nil {
			return false, errors.Wrap(err, errors.ErrorTypeData, "rowbinary reader: failed to read block")
		}
		return false, nil
	}

	datum, err := r.ocf.Read()
	if err != nil {
		return false, errors.Wrap(err, errors.ErrorTypeData, "rowbinary reader: failed to decode record")
	}
	rec, ok := datum.(map[string]interface{})
	if !ok {
		return false, errors.Newf(errors.ErrorTypeData, "rowbinary reader: unexpected datum %T", datum)
	}
	for _, c := range r.columns {
		if err := c.Set(r.ev, rec[c.Name]); err != nil {
			return false, errors.Wrap(err, errors.ErrorTypeData, "rowbinary reader: bad field")
		}
	}
	return true, nil
}

// Close closes the dataset. It is safe to call more than once.
func (r *Reader) Close() error {
	r.done = true
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "rowbinary reader: failed to close input")
	}
	return nil
}

// Format returns FormatRowBinary
func (r *Reader) Format() core.Format {
	return core.FormatRowBinary
}

var _ core.EventReader = (*Reader)(nil)
