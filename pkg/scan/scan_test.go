package scan

import (
	"path/filepath"
	"testing"

	"github.com/ajitpratap0/hepconv/pkg/errors"
	"github.com/ajitpratap0/hepconv/pkg/models"
	"github.com/ajitpratap0/hepconv/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func checksum(events []models.Event) (skipped uint64, sum float64) {
	for i := range events {
		ev := &events[i]
		if ev.HasMuon() {
			skipped++
			continue
		}
		for _, k := range ev.Kaons {
			sum += k.PX + k.PY + k.PZ + k.ProbK + k.ProbPi + float64(k.Charge)
		}
	}
	return skipped, sum
}

func TestProjection(t *testing.T) {
	p := newProjection()
	assert.Len(t, p.flags, 3)
	assert.Len(t, p.values, 18)
	for _, c := range p.values {
		assert.NotContains(t, c.Name, "isMuon")
		assert.NotContains(t, c.Name, "IPChi2")
	}
	assert.Equal(t, []string{"H1_isMuon", "H2_isMuon", "H3_isMuon"}, p.names()[:3])
}

func TestRunSingleMuonEvent(t *testing.T) {
	path := testutil.TempPath(t, "muon.parquet")
	var ev models.Event
	ev.Kaons[1].IsMuon = 1
	ev.Kaons[0].PX = 123
	testutil.WriteTreeFile(t, path, []models.Event{ev})

	res, err := Run(testutil.TestContext(t), []string{path}, Options{Logger: testutil.TestLogger(t)})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), res.Read)
	assert.Equal(t, uint64(1), res.Skipped)
	assert.Equal(t, uint64(0), res.Accepted())
	assert.Zero(t, res.Checksum)
}

func TestRunAccumulatesAcrossInputs(t *testing.T) {
	dir := t.TempDir()
	gen := testutil.NewEventGenerator(11)
	gen.MuonRate = 30
	a, b := gen.Events(25), gen.Events(40)

	first := filepath.Join(dir, "a.parquet")
	second := filepath.Join(dir, "b.parquet")
	testutil.WriteTreeFile(t, first, a)
	testutil.WriteTreeFile(t, second, b)

	all := append(append([]models.Event{}, a...), b...)
	wantSkipped, wantSum := checksum(all)

	tests := []struct {
		name   string
		inputs []string
	}{
		{"separate inputs", []string{first, second}},
		{"chained location", []string{first + ":" + second}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Run(testutil.TestContext(t), tt.inputs, Options{BatchSize: 7, ProgressEvery: 10})
			require.NoError(t, err)
			assert.Equal(t, uint64(65), res.Read)
			assert.Equal(t, wantSkipped, res.Skipped)
			assert.InDelta(t, wantSum, res.Checksum, 1e-6*(1+abs(wantSum)))
		})
	}
}

func TestRunErrors(t *testing.T) {
	ctx := testutil.TestContext(t)

	_, err := Run(ctx, nil, Options{})
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))

	_, err = Run(ctx, []string{testutil.TempPath(t, "absent.parquet")}, Options{})
	assert.True(t, errors.IsType(err, errors.ErrorTypeFile))

	partial := testutil.TempPath(t, "partial.parquet")
	testutil.WriteTreeFileWith(t, partial, testutil.RandomEvents(1, 3), testutil.TreeFile{
		Columns: []string{"H1_isMuon", "H2_isMuon", "H3_isMuon"},
	})
	_, err = Run(ctx, []string{partial}, Options{})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeData))
	assert.Contains(t, err.Error(), "H1_PX")
}

func TestRunEmptyInput(t *testing.T) {
	path := testutil.TempPath(t, "empty.parquet")
	testutil.WriteTreeFile(t, path, nil)

	res, err := Run(testutil.TestContext(t), []string{path}, Options{})
	require.NoError(t, err)
	assert.Equal(t, Result{}, *res)
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

func TestRunRejectsOtherRecordSet(t *testing.T) {
	path := testutil.TempPath(t, "other.parquet")
	testutil.WriteTreeFileWith(t, path, testutil.RandomEvents(64, 2), testutil.TreeFile{TreeName: "MCDecayTree"})

	_, err := Run(testutil.TestContext(t), []string{path}, Options{})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeData))
	assert.Contains(t, err.Error(), "MCDecayTree")

	res, err := Run(testutil.TestContext(t), []string{path}, Options{TreeName: "MCDecayTree"})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), res.Read)
}
