// Package core defines the streaming contract shared by every event reader
// and writer, independent of the storage engine behind it.
package core

import (
	"context"
	"fmt"

	"github.com/ajitpratap0/hepconv/pkg/models"
	"go.uber.org/zap"
)

// Format identifies a storage representation
type Format string

const (
	// FormatTree is the chained columnar record set (Parquet files)
	FormatTree Format = "parquet"
	// FormatRowBinary is the row-major binary table (Avro object container)
	FormatRowBinary Format = "avro"
	// FormatColumnBinary is the columnar binary container (Arrow IPC file)
	FormatColumnBinary Format = "arrow"
	// FormatRelational is the single-table relational store (SQLite)
	FormatRelational Format = "sqlite"
)

// Role is the direction a format is used in
type Role string

const (
	RoleReader Role = "reader"
	RoleWriter Role = "writer"
)

// SchemaMode controls how many declared columns a writer populates
type SchemaMode string

const (
	// SchemaStrict writes every declared column
	SchemaStrict SchemaMode = "strict"
	// SchemaLegacy reproduces the historic partial mapping: the row-binary
	// writer only fills the two event scalars and the relational writer
	// leaves the event scalars NULL.
	SchemaLegacy SchemaMode = "legacy"
)

// ParseSchemaMode validates a schema mode name
func ParseSchemaMode(s string) (SchemaMode, error) {
	switch SchemaMode(s) {
	case SchemaStrict, SchemaLegacy:
		return SchemaMode(s), nil
	case "":
		return SchemaStrict, nil
	default:
		return "", fmt.Errorf("unknown schema mode %q", s)
	}
}

// EventReader produces a lazy sequence of events from one or more input
// locations. Initialisation is explicit and two-phase: Bind attaches the
// caller's Event buffer, then NextEvent overwrites that buffer in place.
type EventReader interface {
	// Open acquires the input. Formats that support chaining accept a
	// colon-joined list of locations.
	Open(ctx context.Context, location string) error
	// Bind attaches ev as the output buffer for the given field groups.
	// It must be called before the first NextEvent and never after.
	Bind(ev *models.Event, fields models.FieldSet) error
	// PrepareForConversion binds every field, including the conditional
	// ones, to ev. Same ordering rule as Bind.
	PrepareForConversion(ev *models.Event) error
	// NextEvent advances to the next record. It returns false once the input
	// is exhausted and keeps returning false afterwards.
	NextEvent(ctx context.Context) (bool, error)
	// Close releases every resource acquired by Open. It is idempotent.
	Close() error
	// Format returns the reader's storage format
	Format() Format
}

// EventWriter persists events
type EventWriter interface {
	// Open creates the output at path
	Open(ctx context.Context, path string) error
	// WriteEvent persists one event. The writer does not retain ev.
	WriteEvent(ctx context.Context, ev *models.Event) error
	// Close flushes and releases every resource acquired by Open. It is
	// idempotent.
	Close() error
	// Abort releases every resource acquired by Open and discards what was
	// written, leaving no completed-looking output. It is idempotent and a
	// no-op after Close.
	Abort() error
	// Format returns the writer's storage format
	Format() Format
	// EventsWritten returns the number of events persisted so far
	EventsWritten() int64
}

// Options configures readers and writers at construction time
type Options struct {
	// RowCapacity bounds the row-binary dataset; 0 means unbounded
	RowCapacity int64
	// BatchSize is the number of rows buffered per block or batch
	BatchSize int
	// SchemaMode selects strict or legacy column population
	SchemaMode SchemaMode
	// Compression is the row-binary block codec (null, deflate, snappy)
	Compression string
	// TreeName is the record set name tree inputs must carry
	TreeName string
	// Logger receives component logs; nil means a no-op logger
	Logger *zap.Logger
}

// DefaultRowCapacity is the preallocated event count of the historic
// row-binary dataset.
const DefaultRowCapacity int64 = 8556118

// DefaultOptions returns options with production defaults
func DefaultOptions() Options {
	return Options{
		RowCapacity: DefaultRowCapacity,
		BatchSize:   1024,
		SchemaMode:  SchemaStrict,
		Compression: "null",
		TreeName:    models.TreeName,
	}
}

// WithDefaults fills zero-valued fields from DefaultOptions. RowCapacity is
// left untouched because zero is meaningful.
func (o Options) WithDefaults() Options {
	d := DefaultOptions()
	if o.BatchSize <= 0 {
		o.BatchSize = d.BatchSize
	}
	if o.SchemaMode == "" {
		o.SchemaMode = d.SchemaMode
	}
	if o.Compression == "" {
		o.Compression = d.Compression
	}
	if o.TreeName == "" {
		o.TreeName = d.TreeName
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}
