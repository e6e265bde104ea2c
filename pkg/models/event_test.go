package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColumnsCatalogue(t *testing.T) {
	cols := Columns()
	require.Len(t, cols, 26)

	assert.Equal(t, "B_FlightDistance", cols[0].Name)
	assert.Equal(t, "B_VertexChi2", cols[1].Name)
	assert.Equal(t, "H1_PX", cols[2].Name)
	assert.Equal(t, "H1_IPChi2", cols[9].Name)
	assert.Equal(t, "H3_IPChi2", cols[25].Name)

	seen := map[string]bool{}
	for _, c := range cols {
		assert.False(t, seen[c.Name], "duplicate column %s", c.Name)
		seen[c.Name] = true
	}
}

func TestColumnsFor(t *testing.T) {
	assert.Len(t, ColumnsFor(AnalysisFields), 21)
	assert.Len(t, ColumnsFor(ConversionFields), 5)
	assert.Len(t, ColumnsFor(AllFields), 26)
	assert.Empty(t, ColumnsFor(NoFields))
}

func TestColumnAccessorsAddressTheRightSlot(t *testing.T) {
	var ev Event
	for i, c := range Columns() {
		switch c.Kind {
		case KindFloat64:
			*c.Float64(&ev) = float64(i) + 0.5
		case KindInt32:
			*c.Int32(&ev) = int32(i)
		}
	}

	assert.Equal(t, 0.5, ev.FlightDistance)
	assert.Equal(t, 1.5, ev.VertexChi2)
	assert.Equal(t, 2.5, ev.Kaons[0].PX)
	assert.Equal(t, int32(8), ev.Kaons[0].IsMuon)
	assert.Equal(t, 13.5, ev.Kaons[1].ProbK)
	assert.Equal(t, 21.5, ev.Kaons[2].ProbK)
	assert.Equal(t, int32(23), ev.Kaons[2].Charge)
	assert.Equal(t, 25.5, ev.Kaons[2].IPChi2)
}

func TestColumnSetConverts(t *testing.T) {
	var ev Event
	charge, ok := ColumnByName("H2_Charge")
	require.True(t, ok)
	require.NoError(t, charge.Set(&ev, int64(-1)))
	assert.Equal(t, int32(-1), ev.Kaons[1].Charge)

	px, ok := ColumnByName("H3_PX")
	require.True(t, ok)
	require.NoError(t, px.Set(&ev, float32(2)))
	assert.Equal(t, 2.0, ev.Kaons[2].PX)
	assert.Equal(t, float64(2), px.Value(&ev))

	assert.Error(t, px.Set(&ev, "nope"))
	assert.Error(t, charge.Set(&ev, 1.5))
}

func TestMuonColumns(t *testing.T) {
	muons := MuonColumns()
	require.Len(t, muons, NumCandidates)
	for i, c := range muons {
		assert.Equal(t, i, c.Slot)
	}
}

func TestHasMuonAndReset(t *testing.T) {
	var ev Event
	assert.False(t, ev.HasMuon())

	ev.Kaons[1].IsMuon = 1
	ev.Kaons[0].PX = 3
	assert.True(t, ev.HasMuon())

	ev.Reset()
	assert.Equal(t, Event{}, ev)
}

func TestFieldSet(t *testing.T) {
	assert.True(t, AllFields.Has(AnalysisFields))
	assert.True(t, AllFields.Has(ConversionFields))
	assert.False(t, AnalysisFields.Has(ConversionFields))
	assert.Equal(t, "all", AllFields.String())
	assert.Equal(t, "analysis", AnalysisFields.String())
}

func TestWrongKindPanics(t *testing.T) {
	px, _ := ColumnByName("H1_PX")
	assert.Panics(t, func() { px.Int32(&Event{}) })
}
