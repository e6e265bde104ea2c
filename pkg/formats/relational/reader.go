package relational

import (
	"context"
	"database/sql"

	"github.com/ajitpratap0/hepconv/pkg/errors"
	"github.com/ajitpratap0/hepconv/pkg/formats/core"
	"github.com/ajitpratap0/hepconv/pkg/models"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// Reader steps through the events table in insertion order. Only the
// analysis columns are read; conditional fields are never restored.
type Reader struct {
	logger *zap.Logger

	path string
	db   *sqlx.DB
	stmt *sqlx.Stmt
	rows *sqlx.Rows

	ev      *models.Event
	decode  bool
	columns []models.Column
	flags   []int
	dest    []interface{}
	floats  []sql.NullFloat64
	ints    []sql.NullInt32

	started bool
	done    bool
}

// NewReader creates an unopened relational reader
func NewReader(opts core.Options) *Reader {
	opts = opts.WithDefaults()
	return &Reader{logger: opts.Logger.With(zap.String("component", "relational_reader"))}
}

// Open opens the store read-only and prepares the positional SELECT
func (r *Reader) Open(ctx context.Context, path string) error {
	if r.db != nil {
		return errors.New(errors.ErrorTypeState, "relational reader: already open")
	}
	if path == "" {
		return errors.New(errors.ErrorTypeConfig, "relational reader: no input location given")
	}

	db, err := sqlx.Open(DriverName, dataSource(path, "ro"))
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "relational reader: failed to open store").
			WithDetail("path", path)
	}
	db.SetMaxOpenConns(1)
	r.db = db
	r.path = path

	if err := db.PingContext(ctx); err != nil {
		_ = r.Close()
		return errors.Wrap(err, errors.ErrorTypeFile, "relational reader: failed to open store").
			WithDetail("path", path)
	}

	query, err := selectSQL()
	if err != nil {
		_ = r.Close()
		return errors.Wrap(err, errors.ErrorTypeInternal, "relational reader: failed to build select")
	}

	stmt, err := db.PreparexContext(ctx, query)
	if err != nil {
		_ = r.Close()
		return errors.Wrap(err, errors.ErrorTypeQuery, "relational reader: failed to prepare select").
			WithDetail("path", path)
	}
	r.stmt = stmt
	r.done = false

	r.logger.Info("opened relational store", zap.String("path", path))
	return nil
}

// Bind attaches ev as the output buffer. Only the analysis fields can be
// bound; NoFields steps rows without decoding them.
func (r *Reader) Bind(ev *models.Event, fields models.FieldSet) error {
	if ev == nil {
		return errors.New(errors.ErrorTypeValidation, "relational reader: bind target is nil")
	}
	if fields.Has(models.ConversionFields) {
		return errors.New(errors.ErrorTypeCapability, "relational reader: conditional fields are not stored for read-back")
	}
	if r.started {
		return errors.New(errors.ErrorTypeState, "relational reader: cannot bind after the first advance")
	}

	r.ev = ev
	r.decode = fields.Has(models.AnalysisFields)
	if !r.decode {
		return nil
	}

	cols := selectColumns()
	r.columns = cols
	r.dest = make([]interface{}, len(cols))
	r.floats = make([]sql.NullFloat64, len(cols))
	r.ints = make([]sql.NullInt32, len(cols))
	r.flags = r.flags[:0]
	for i, c := range cols {
		if c.Kind == models.KindInt32 {
			r.dest[i] = &r.ints[i]
		} else {
			r.dest[i] = &r.floats[i]
		}
	}
	for _, m := range models.MuonColumns() {
		for i, c := range cols {
			if c.Name == m.Name {
				r.flags = append(r.flags, i)
			}
		}
	}
	return nil
}

// PrepareForConversion is not supported: the store cannot serve as a
// conversion source
func (r *Reader) PrepareForConversion(_ *models.Event) error {
	return errors.New(errors.ErrorTypeCapability, "relational reader: cannot be prepared for conversion")
}

// NextEvent steps one row. The muon flags are decoded first; when any is
// set the remaining fields of the bound event keep their previous values.
func (r *Reader) NextEvent(ctx context.Context) (bool, error) {
	if r.done {
		return false, nil
	}
	if r.ev == nil {
		return false, errors.New(errors.ErrorTypeState, "relational reader: next called before bind")
	}
	if r.stmt == nil {
		return false, errors.New(errors.ErrorTypeState, "relational reader: not open")
	}

	if !r.started {
		r.started = true
		rows, err := r.stmt.QueryxContext(ctx)
		if err != nil {
			return false, errors.Wrap(err, errors.ErrorTypeQuery, "relational reader: select failed").
				WithDetail("path", r.path)
		}
		r.rows = rows
	}

	if !r.rows.Next() {
		r.done = true
		err := r.rows.Err()
		_ = r.rows.Close()
		r.rows = nil
		if err != nil {
			return false, errors.Wrap(err, errors.ErrorTypeQuery, "relational reader: step failed").
				WithDetail("path", r.path)
		}
		return false, nil
	}
	if !r.decode {
		return true, nil
	}

	if err := r.rows.Scan(r.dest...); err != nil {
		return false, errors.Wrap(err, errors.ErrorTypeQuery, "relational reader: failed to decode row").
			WithDetail("path", r.path)
	}

	muon := false
	for _, i := range r.flags {
		*r.columns[i].Int32(r.ev) = r.ints[i].Int32
		if r.ints[i].Int32 != 0 {
			muon = true
		}
	}
	if muon {
		return true, nil
	}

	for i, c := range r.columns {
		if c.Kind == models.KindInt32 {
			*c.Int32(r.ev) = r.ints[i].Int32
		} else {
			*c.Float64(r.ev) = r.floats[i].Float64
		}
	}
	return true, nil
}

// Close releases the cursor, the statement and the connection. It is safe
// to call more than once.
func (r *Reader) Close() error {
	r.done = true

	var errs []error
	if r.rows != nil {
		if err := r.rows.Close(); err != nil {
			errs = append(errs, errors.Wrap(err, errors.ErrorTypeQuery, "relational reader: failed to close cursor"))
		}
		r.rows = nil
	}
	if r.stmt != nil {
		if err := r.stmt.Close(); err != nil {
			errs = append(errs, errors.Wrap(err, errors.ErrorTypeQuery, "relational reader: failed to close statement"))
		}
		r.stmt = nil
	}
	if r.db != nil {
		if err := r.db.Close(); err != nil {
			errs = append(errs, errors.Wrap(err, errors.ErrorTypeFile, "relational reader: failed to close store"))
		}
		r.db = nil
	}
	return errors.Join(errs...)
}

// Format returns FormatRelational
func (r *Reader) Format() core.Format {
	return core.FormatRelational
}

var _ core.EventReader = (*Reader)(nil)
