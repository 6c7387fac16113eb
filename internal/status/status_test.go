package status

import (
	"testing"

	"steward/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRecorder(t *testing.T) *Recorder {
	t.Helper()
	cfg := config.GetDefaultConfig()
	cfg.Paths.StateDir = t.TempDir()
	return NewRecorder(cfg)
}

func TestRecordAndGet(t *testing.T) {
	recorder := testRecorder(t)

	id, err := recorder.Record("myapp", KindIssuanceFailed, "challenge failed")
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	record, err := recorder.Get("myapp")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, id, record.ID)
	assert.Equal(t, "myapp", record.Project)
	assert.Equal(t, KindIssuanceFailed, record.Kind)
	assert.Equal(t, "challenge failed", record.Message)
	assert.False(t, record.Time.IsZero())
}

func TestGet_HealthyProjectIsNil(t *testing.T) {
	recorder := testRecorder(t)

	record, err := recorder.Get("healthy")
	require.NoError(t, err)
	assert.Nil(t, record)
}

func TestRecord_ReplacesPrevious(t *testing.T) {
	recorder := testRecorder(t)

	_, err := recorder.Record("myapp", KindIssuanceFailed, "first")
	require.NoError(t, err)
	_, err = recorder.Record("myapp", KindProbeRestart, "second")
	require.NoError(t, err)

	record, err := recorder.Get("myapp")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, KindProbeRestart, record.Kind)
	assert.Equal(t, "second", record.Message)
}

func TestClear(t *testing.T) {
	recorder := testRecorder(t)

	_, err := recorder.Record("myapp", KindProbeRestart, "restarted")
	require.NoError(t, err)
	require.NoError(t, recorder.Clear("myapp"))

	record, err := recorder.Get("myapp")
	require.NoError(t, err)
	assert.Nil(t, record)

	// Clearing again is not an error.
	assert.NoError(t, recorder.Clear("myapp"))
}
