// Package columnbinary creates columnar binary containers (Arrow IPC files).
// Only the empty container is supported; event writes are rejected.
package columnbinary

import (
	"context"
	"os"

	"github.com/ajitpratap0/hepconv/pkg/errors"
	"github.com/ajitpratap0/hepconv/pkg/formats/core"
	"github.com/ajitpratap0/hepconv/pkg/models"
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"go.uber.org/zap"
)

// Writer holds an empty container open until Close
type Writer struct {
	logger *zap.Logger

	path   string
	file   *os.File
	fw     *ipc.FileWriter
	closed bool
}

// NewWriter creates an unopened columnar-binary writer
func NewWriter(opts core.Options) *Writer {
	opts = opts.WithDefaults()
	return &Writer{logger: opts.Logger.With(zap.String("component", "columnbinary_writer"))}
}

// Open creates an empty container at path
func (w *Writer) Open(ctx context.Context, path string) error {
	if w.file != nil {
		return errors.New(errors.ErrorTypeState, "columnbinary writer: already open")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	f, err := os.Create(path) //nolint:gosec // output path derived from the operator's input path
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "columnbinary writer: failed to create output").
			WithDetail("path", path)
	}

	fw, err := ipc.NewFileWriter(f, ipc.WithSchema(arrow.NewSchema(nil, nil)), ipc.WithAllocator(memory.DefaultAllocator))
	if err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return errors.Wrap(err, errors.ErrorTypeFile, "columnbinary writer: failed to create container").
			WithDetail("path", path)
	}

	w.path = path
	w.file = f
	w.fw = fw
	w.logger.Info("opened columnar-binary container", zap.String("path", path))
	return nil
}

// WriteEvent is not supported by this format
func (w *Writer) WriteEvent(_ context.Context, _ *models.Event) error {
	return errors.New(errors.ErrorTypeCapability, "columnbinary writer: writing events is not yet supported")
}

// Close finalises the container and closes the file
func (w *Writer) Close() error {
	if w.closed || w.file == nil {
		w.closed = true
		return nil
	}
	w.closed = true

	var errs []error
	if err := w.fw.Close(); err != nil {
		errs = append(errs, errors.Wrap(err, errors.ErrorTypeFile, "columnbinary writer: failed to finalise container"))
	}
	if err := w.file.Close(); err != nil {
		errs = append(errs, errors.Wrap(err, errors.ErrorTypeFile, "columnbinary writer: failed to close output"))
	}
	return errors.Join(errs...)
}

// Abort closes the file without finalising the container and removes it
func (w *Writer) Abort() error {
	if w.closed || w.file == nil {
		w.closed = true
		return nil
	}
	w.closed = true

	var errs []error
	if err := w.file.Close(); err != nil {
		errs = append(errs, errors.Wrap(err, errors.ErrorTypeFile, "columnbinary writer: failed to close output"))
	}
	if err := os.Remove(w.path); err != nil && !os.IsNotExist(err) {
		errs = append(errs, errors.Wrap(err, errors.ErrorTypeFile, "columnbinary writer: failed to remove partial output").
			WithDetail("path", w.path))
	}
	w.logger.Warn("aborted columnar-binary container", zap.String("path", w.path))
	return errors.Join(errs...)
}

// Format returns FormatColumnBinary
func (w *Writer) Format() core.Format {
	return core.FormatColumnBinary
}

// EventsWritten always returns 0
func (w *Writer) EventsWritten() int64 {
	return 0
}

var _ core.EventWriter = (*Writer)(nil)
