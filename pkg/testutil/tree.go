package testutil

import (
	"fmt"
	"os"
	"testing"

	"github.com/ajitpratap0/hepconv/pkg/models"
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"github.com/stretchr/testify/require"
)

// TreeFile describes a Parquet fixture
type TreeFile struct {
	// Columns restricts the written columns; empty means all 26
	Columns []string
	// TreeName is stored under the hepconv.tree metadata key; empty omits it
	TreeName string
	// StringColumns are written as utf8 columns holding the value's text,
	// a type no reader accepts
	StringColumns []string
}

// WriteTreeFile writes events as a complete DecayTree Parquet file
func WriteTreeFile(t *testing.T, path string, events []models.Event) {
	t.Helper()
	WriteTreeFileWith(t, path, events, TreeFile{TreeName: models.TreeName})
}

// WriteTreeFileWith writes events to a Parquet file restricted to the
// columns and record-set name in shape
func WriteTreeFileWith(t *testing.T, path string, events []models.Event, shape TreeFile) {
	t.Helper()

	columns := models.Columns()
	if len(shape.Columns) > 0 {
		columns = columns[:0]
		for _, name := range shape.Columns {
			c, ok := models.ColumnByName(name)
			require.True(t, ok, "unknown column %s", name)
			columns = append(columns, c)
		}
	}

	asString := make(map[string]bool, len(shape.StringColumns))
	for _, name := range shape.StringColumns {
		asString[name] = true
	}

	fields := make([]arrow.Field, len(columns))
	for i, c := range columns {
		var typ arrow.DataType = arrow.PrimitiveTypes.Float64
		switch {
		case asString[c.Name]:
			typ = arrow.BinaryTypes.String
		case c.Kind == models.KindInt32:
			typ = arrow.PrimitiveTypes.Int32
		}
		fields[i] = arrow.Field{Name: c.Name, Type: typ}
	}
	schema := arrow.NewSchema(fields, nil)

	f, err := os.Create(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	fw, err := pqarrow.NewFileWriter(schema, f, parquet.NewWriterProperties(), pqarrow.DefaultWriterProps())
	require.NoError(t, err)

	if shape.TreeName != "" {
		require.NoError(t, fw.AppendKeyValueMetadata("hepconv.tree", shape.TreeName))
	}

	if len(events) > 0 {
		b := array.NewRecordBuilder(memory.DefaultAllocator, schema)
		defer b.Release()

		for i := range events {
			ev := &events[i]
			for j, c := range columns {
				switch fb := b.Field(j).(type) {
				case *array.Float64Builder:
					fb.Append(*c.Float64(ev))
				case *array.Int32Builder:
					fb.Append(*c.Int32(ev))
				case *array.StringBuilder:
					fb.Append(fmt.Sprint(c.Value(ev)))
				}
			}
		}

		rec := b.NewRecord()
		defer rec.Release()
		require.NoError(t, fw.Write(rec))
	}

	require.NoError(t, fw.Close())
}
