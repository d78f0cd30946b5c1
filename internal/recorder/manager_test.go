package recorder

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/camsentry/camsentry/internal/conf"
)

func TestStartRecorderFailsWithoutFfmpeg(t *testing.T) {
	settings := testSettings()
	settings.Recording.FfmpegPath = filepath.Join(t.TempDir(), "missing-ffmpeg")
	conf.SetSettings(settings)

	m := NewManager(nil, nil)
	err := m.StartRecorder(testCamera(1, "cam"))
	require.Error(t, err)
	assert.Equal(t, 0, m.Count())
	assert.False(t, m.IsRecording(1))
}

func TestManagerTracksRecorders(t *testing.T) {
	m := NewManager(nil, nil)

	// recorders registered without starting exercise the map semantics
	m.recorders[3] = NewSegmentRecorder(testCamera(3, "c"), nil, nil)
	m.recorders[1] = NewSegmentRecorder(testCamera(1, "a"), nil, nil)
	m.recorders[2] = NewSegmentRecorder(testCamera(2, "b"), nil, nil)

	assert.Equal(t, 3, m.Count())
	assert.True(t, m.IsRecording(2))
	assert.False(t, m.IsRecording(9))
	assert.Equal(t, []uint{1, 2, 3}, m.ActiveCameras())
}

func TestStopRecorderIsIdempotent(t *testing.T) {
	m := NewManager(nil, nil)
	m.recorders[1] = NewSegmentRecorder(testCamera(1, "a"), nil, nil)

	m.StopRecorder(1)
	assert.Equal(t, 0, m.Count())

	// stopping an unknown camera is a no-op
	m.StopRecorder(1)
	m.StopRecorder(42)
	assert.Equal(t, 0, m.Count())
}

func TestStopAll(t *testing.T) {
	m := NewManager(nil, nil)
	m.recorders[1] = NewSegmentRecorder(testCamera(1, "a"), nil, nil)
	m.recorders[2] = NewSegmentRecorder(testCamera(2, "b"), nil, nil)

	m.StopAll()
	assert.Equal(t, 0, m.Count())
	assert.Empty(t, m.ActiveCameras())

	// idempotent on an empty manager
	m.StopAll()
	assert.Equal(t, 0, m.Count())
}
