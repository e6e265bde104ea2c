package tree_test

import (
	"path/filepath"
	"testing"

	"github.com/ajitpratap0/hepconv/pkg/errors"
	"github.com/ajitpratap0/hepconv/pkg/formats/core"
	"github.com/ajitpratap0/hepconv/pkg/formats/tree"
	"github.com/ajitpratap0/hepconv/pkg/models"
	"github.com/ajitpratap0/hepconv/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newReader(t *testing.T, batch int) *tree.Reader {
	opts := core.DefaultOptions()
	opts.BatchSize = batch
	opts.Logger = testutil.TestLogger(t)
	return tree.NewReader(opts)
}

func TestSplitLocation(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"a.parquet", []string{"a.parquet"}},
		{"a.parquet:b.parquet", []string{"a.parquet", "b.parquet"}},
		{"a.parquet::b.parquet:", []string{"a.parquet", "b.parquet"}},
		{"", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, tree.SplitLocation(tt.in))
		})
	}
}

func TestReaderConversionFields(t *testing.T) {
	ctx := testutil.TestContext(t)
	path := testutil.TempPath(t, "events.parquet")
	events := testutil.RandomEvents(1, 7)
	testutil.WriteTreeFile(t, path, events)

	r := newReader(t, 3)
	require.NoError(t, r.Open(ctx, path))
	defer r.Close()
	assert.Equal(t, int64(7), r.Entries())

	var ev models.Event
	require.NoError(t, r.PrepareForConversion(&ev))

	for i := range events {
		ok, err := r.NextEvent(ctx)
		require.NoError(t, err)
		require.True(t, ok, "event %d", i)
		assert.Equal(t, events[i], ev, "event %d", i)
	}

	ok, err := r.NextEvent(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestReaderAnalysisFieldsLeaveConditionalUntouched(t *testing.T) {
	ctx := testutil.TestContext(t)
	path := testutil.TempPath(t, "events.parquet")
	events := testutil.RandomEvents(2, 2)
	testutil.WriteTreeFile(t, path, events)

	r := newReader(t, 0)
	require.NoError(t, r.Open(ctx, path))
	defer r.Close()

	ev := models.Event{FlightDistance: -1}
	ev.Kaons[2].IPChi2 = -2
	require.NoError(t, r.Bind(&ev, models.AnalysisFields))

	ok, err := r.NextEvent(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, -1.0, ev.FlightDistance)
	assert.Equal(t, -2.0, ev.Kaons[2].IPChi2)
	assert.Equal(t, events[0].Kaons[2].ProbK, ev.Kaons[2].ProbK)
	assert.Equal(t, events[0].Kaons[1].ProbK, ev.Kaons[1].ProbK)
	assert.Equal(t, events[0].Kaons[1].IsMuon, ev.Kaons[1].IsMuon)
}

func TestReaderChainsFiles(t *testing.T) {
	ctx := testutil.TestContext(t)
	dir := t.TempDir()
	first := filepath.Join(dir, "a.parquet")
	empty := filepath.Join(dir, "b.parquet")
	second := filepath.Join(dir, "c.parquet")

	gen := testutil.NewEventGenerator(3)
	a, c := gen.Events(4), gen.Events(5)
	testutil.WriteTreeFile(t, first, a)
	testutil.WriteTreeFile(t, empty, nil)
	testutil.WriteTreeFile(t, second, c)

	r := newReader(t, 2)
	require.NoError(t, r.Open(ctx, first+":"+empty+":"+second))
	defer r.Close()
	assert.Equal(t, int64(9), r.Entries())

	var ev models.Event
	require.NoError(t, r.PrepareForConversion(&ev))

	want := append(append([]models.Event{}, a...), c...)
	var got []models.Event
	for {
		ok, err := r.NextEvent(ctx)
		require.NoError(t, err)
		if !ok {
			break
		}
		got = append(got, ev)
	}
	assert.Equal(t, want, got)
}

func TestReaderExhaustionIsIdempotent(t *testing.T) {
	ctx := testutil.TestContext(t)
	path := testutil.TempPath(t, "one.parquet")
	testutil.WriteTreeFile(t, path, testutil.RandomEvents(4, 1))

	r := newReader(t, 0)
	require.NoError(t, r.Open(ctx, path))
	defer r.Close()

	var ev models.Event
	require.NoError(t, r.Bind(&ev, models.AnalysisFields))

	ok, err := r.NextEvent(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	for i := 0; i < 3; i++ {
		ok, err = r.NextEvent(ctx)
		require.NoError(t, err)
		assert.False(t, ok)
	}
}

func TestReaderBindOrdering(t *testing.T) {
	ctx := testutil.TestContext(t)
	path := testutil.TempPath(t, "events.parquet")
	testutil.WriteTreeFile(t, path, testutil.RandomEvents(5, 3))

	r := newReader(t, 0)
	var ev models.Event
	err := r.Bind(&ev, models.AnalysisFields)
	assert.True(t, errors.IsType(err, errors.ErrorTypeState), "bind before open")

	require.NoError(t, r.Open(ctx, path))
	defer r.Close()

	_, err = r.NextEvent(ctx)
	assert.True(t, errors.IsType(err, errors.ErrorTypeState), "next before bind")

	require.NoError(t, r.Bind(&ev, models.AnalysisFields))
	_, err = r.NextEvent(ctx)
	require.NoError(t, err)

	err = r.PrepareForConversion(&ev)
	assert.True(t, errors.IsType(err, errors.ErrorTypeState), "prepare after advance")
}

func TestReaderOpenErrors(t *testing.T) {
	ctx := testutil.TestContext(t)

	t.Run("empty location", func(t *testing.T) {
		err := newReader(t, 0).Open(ctx, "")
		assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
	})

	t.Run("missing file", func(t *testing.T) {
		err := newReader(t, 0).Open(ctx, testutil.TempPath(t, "absent.parquet"))
		assert.True(t, errors.IsType(err, errors.ErrorTypeFile))
	})

	t.Run("wrong record set", func(t *testing.T) {
		path := testutil.TempPath(t, "other.parquet")
		testutil.WriteTreeFileWith(t, path, testutil.RandomEvents(6, 1), testutil.TreeFile{TreeName: "OtherTree"})
		err := newReader(t, 0).Open(ctx, path)
		assert.True(t, errors.IsType(err, errors.ErrorTypeData))
	})

	t.Run("unnamed record set is accepted", func(t *testing.T) {
		path := testutil.TempPath(t, "plain.parquet")
		testutil.WriteTreeFileWith(t, path, testutil.RandomEvents(6, 1), testutil.TreeFile{})
		r := newReader(t, 0)
		require.NoError(t, r.Open(ctx, path))
		assert.NoError(t, r.Close())
	})
}

func TestReaderMissingColumn(t *testing.T) {
	ctx := testutil.TestContext(t)
	path := testutil.TempPath(t, "partial.parquet")
	testutil.WriteTreeFileWith(t, path, testutil.RandomEvents(7, 2), testutil.TreeFile{
		TreeName: models.TreeName,
		Columns:  []string{"H1_PX", "H1_isMuon"},
	})

	r := newReader(t, 0)
	require.NoError(t, r.Open(ctx, path))
	defer r.Close()

	var ev models.Event
	err := r.Bind(&ev, models.AnalysisFields)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeData))
	assert.Contains(t, err.Error(), "H1_PY")
}

func TestReaderCloseIsIdempotent(t *testing.T) {
	ctx := testutil.TestContext(t)
	path := testutil.TempPath(t, "events.parquet")
	testutil.WriteTreeFile(t, path, testutil.RandomEvents(8, 2))

	r := newReader(t, 0)
	require.NoError(t, r.Open(ctx, path))
	assert.NoError(t, r.Close())
	assert.NoError(t, r.Close())
	assert.Equal(t, core.FormatTree, r.Format())
}
