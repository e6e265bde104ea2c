package relational

import (
	"context"
	"os"

	"github.com/ajitpratap0/hepconv/pkg/errors"
	"github.com/ajitpratap0/hepconv/pkg/formats/core"
	"github.com/ajitpratap0/hepconv/pkg/models"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// Writer inserts events into a fresh store inside one transaction that is
// committed on Close.
type Writer struct {
	opts   core.Options
	logger *zap.Logger

	path    string
	db      *sqlx.DB
	tx      *sqlx.Tx
	stmt    *sqlx.NamedStmt
	written int64
	failed  bool
	closed  bool
}

// NewWriter creates an unopened relational writer
func NewWriter(opts core.Options) *Writer {
	opts = opts.WithDefaults()
	return &Writer{
		opts:   opts,
		logger: opts.Logger.With(zap.String("component", "relational_writer")),
	}
}

// Open replaces any store at path with an empty events table and prepares
// the insert statement
func (w *Writer) Open(ctx context.Context, path string) error {
	if w.db != nil {
		return errors.New(errors.ErrorTypeState, "relational writer: already open")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, errors.ErrorTypeFile, "relational writer: failed to remove existing store").
			WithDetail("path", path)
	}

	db, err := sqlx.Open(DriverName, dataSource(path, "rwc"))
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "relational writer: failed to open store").
			WithDetail("path", path)
	}
	db.SetMaxOpenConns(1)
	w.db = db
	w.path = path

	if _, err := db.ExecContext(ctx, createTableSQL()); err != nil {
		_ = w.release(false)
		return errors.Wrap(err, errors.ErrorTypeQuery, "relational writer: failed to create table").
			WithDetail("path", path)
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		_ = w.release(false)
		return errors.Wrap(err, errors.ErrorTypeQuery, "relational writer: failed to begin transaction")
	}
	w.tx = tx

	stmt, err := tx.PrepareNamedContext(ctx, insertSQL())
	if err != nil {
		_ = w.release(false)
		return errors.Wrap(err, errors.ErrorTypeQuery, "relational writer: failed to prepare insert")
	}
	w.stmt = stmt

	w.logger.Info("opened relational store",
		zap.String("path", path),
		zap.String("schema_mode", string(w.opts.SchemaMode)))
	return nil
}

// params binds the event onto the named parameters. Legacy mode leaves the
// event-level scalars NULL.
func (w *Writer) params(ev *models.Event) map[string]interface{} {
	p := make(map[string]interface{}, 26)
	for _, c := range models.Columns() {
		if w.opts.SchemaMode == core.SchemaLegacy && c.Slot < 0 {
			p[c.Name] = nil
			continue
		}
		p[c.Name] = c.Value(ev)
	}
	return p
}

// WriteEvent inserts one row
func (w *Writer) WriteEvent(ctx context.Context, ev *models.Event) error {
	if w.stmt == nil || w.closed {
		return errors.New(errors.ErrorTypeState, "relational writer: not open")
	}
	if _, err := w.stmt.ExecContext(ctx, w.params(ev)); err != nil {
		w.failed = true
		return errors.Wrap(err, errors.ErrorTypeQuery, "relational writer: insert failed").
			WithDetail("path", w.path).
			WithDetail("row", w.written+1)
	}
	w.written++
	return nil
}

// Close commits the transaction, or rolls it back after a failed write,
// then closes the statement and the connection.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	if w.db == nil {
		return nil
	}

	commit := !w.failed
	err := w.release(commit)
	w.logger.Info("closed relational store",
		zap.String("path", w.path),
		zap.Int64("events", w.written),
		zap.Bool("committed", commit && err == nil))
	return err
}

// Abort rolls the transaction back so the store keeps an empty table
func (w *Writer) Abort() error {
	if w.closed {
		return nil
	}
	w.closed = true
	if w.db == nil {
		return nil
	}

	err := w.release(false)
	w.logger.Warn("aborted relational store",
		zap.String("path", w.path),
		zap.Int64("discarded", w.written))
	return err
}

// release closes the statement, ends the transaction and closes the store
func (w *Writer) release(commit bool) error {
	var errs []error
	if w.stmt != nil {
		if err := w.stmt.Close(); err != nil {
			errs = append(errs, errors.Wrap(err, errors.ErrorTypeQuery, "relational writer: failed to close statement"))
		}
		w.stmt = nil
	}
	if w.tx != nil {
		if !commit || len(errs) > 0 {
			if err := w.tx.Rollback(); err != nil {
				errs = append(errs, errors.Wrap(err, errors.ErrorTypeQuery, "relational writer: rollback failed"))
			}
		} else if err := w.tx.Commit(); err != nil {
			errs = append(errs, errors.Wrap(err, errors.ErrorTypeQuery, "relational writer: commit failed"))
		}
		w.tx = nil
	}
	if w.db != nil {
		if err := w.db.Close(); err != nil {
			errs = append(errs, errors.Wrap(err, errors.ErrorTypeFile, "relational writer: failed to close store"))
		}
		w.db = nil
	}
	return errors.Join(errs...)
}

// Format returns FormatRelational
func (w *Writer) Format() core.Format {
	return core.FormatRelational
}

// EventsWritten returns the number of rows inserted so far
func (w *Writer) EventsWritten() int64 {
	return w.written
}

var _ core.EventWriter = (*Writer)(nil)
