package columnbinary

import (
	"os"
	"testing"

	"github.com/ajitpratap0/hepconv/pkg/errors"
	"github.com/ajitpratap0/hepconv/pkg/formats/core"
	"github.com/ajitpratap0/hepconv/pkg/models"
	"github.com/ajitpratap0/hepconv/pkg/testutil"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterCreatesEmptyContainer(t *testing.T) {
	ctx := testutil.TestContext(t)
	path := testutil.TempPath(t, "events.arrow")

	w := NewWriter(core.Options{Logger: testutil.TestLogger(t)})
	require.NoError(t, w.Open(ctx, path))

	err := w.WriteEvent(ctx, &models.Event{})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeCapability))
	assert.Contains(t, err.Error(), "not yet supported")

	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
	assert.Zero(t, w.EventsWritten())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	r, err := ipc.NewFileReader(f)
	require.NoError(t, err)
	defer r.Close()
	assert.Equal(t, 0, r.NumRecords())
	assert.Equal(t, 0, r.Schema().NumFields())
}

func TestWriterOpenFailure(t *testing.T) {
	w := NewWriter(core.Options{})
	err := w.Open(testutil.TestContext(t), t.TempDir()+"/missing/out.arrow")
	assert.True(t, errors.IsType(err, errors.ErrorTypeFile))
	assert.NoError(t, w.Close())
	assert.Equal(t, core.FormatColumnBinary, w.Format())
}

func TestWriterAbortRemovesContainer(t *testing.T) {
	path := testutil.TempPath(t, "aborted.arrow")
	w := NewWriter(core.Options{Logger: testutil.TestLogger(t)})
	require.NoError(t, w.Open(testutil.TestContext(t), path))

	require.NoError(t, w.Abort())
	assert.NoError(t, w.Abort())
	assert.NoError(t, w.Close())
	assert.NoFileExists(t, path)
}
