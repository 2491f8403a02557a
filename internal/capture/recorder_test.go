package capture

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sealFailMicrophone hands out handles whose Seal fails with sealErr.
type sealFailMicrophone struct {
	sealErr error
}

func (m *sealFailMicrophone) Acquire(context.Context) (RecordingHandle, error) {
	return &sealFailHandle{err: m.sealErr}, nil
}

type sealFailHandle struct {
	err error
}

func (h *sealFailHandle) Write(p []byte) (int, error) { return len(p), nil }

func (h *sealFailHandle) Seal() ([]byte, string, error) {
	if h.err != nil {
		return nil, "", h.err
	}
	return []byte("frames"), "audio/webm", nil
}

func (h *sealFailHandle) Release() error { return nil }

func TestRecorderLifecycle(t *testing.T) {
	mic := NewRemoteMicrophone("audio/webm;codecs=opus")
	r := NewRecorder(mic, 30, time.Second)

	assert.Equal(t, RecorderIdle, r.State())

	// Stop from idle is a no-op.
	assert.NoError(t, r.Stop())
	assert.Equal(t, RecorderIdle, r.State())

	require.NoError(t, r.Start(context.Background()))
	assert.Equal(t, RecorderRecording, r.State())

	require.NoError(t, r.Append([]byte("chunk-1")))
	require.NoError(t, r.Append([]byte("chunk-2")))

	require.NoError(t, r.Stop())
	assert.Equal(t, RecorderStopped, r.State())

	asset, ok := r.Asset()
	require.True(t, ok)
	assert.Equal(t, []byte("chunk-1chunk-2"), asset.Bytes)
	// The declared type keeps its codec hint; stripping happens at upload.
	assert.Equal(t, "audio/webm;codecs=opus", asset.DeclaredMediaType)

	// Stop is idempotent once stopped.
	assert.NoError(t, r.Stop())
	_, ok = r.Asset()
	assert.True(t, ok)
}

func TestRecorderPermissionDenied(t *testing.T) {
	mic := NewRemoteMicrophone("audio/webm")
	mic.ReportPermission(true)

	r := NewRecorder(mic, 30, time.Second)
	err := r.Start(context.Background())

	require.Error(t, err)
	assert.Equal(t, CodePermissionDenied, CodeOf(err))
	assert.Equal(t, RecorderIdle, r.State())
	require.NotNil(t, r.Failure())
	assert.Equal(t, CodePermissionDenied, r.Failure().Code)
}

func TestRecorderDeviceUnsupported(t *testing.T) {
	mic := NewRemoteMicrophone("audio/webm")
	mic.ReportUnsupported()

	r := NewRecorder(mic, 30, time.Second)
	err := r.Start(context.Background())

	require.Error(t, err)
	assert.Equal(t, CodeDeviceUnsupported, CodeOf(err))
}

func TestRecorderAutoStopsAtCeiling(t *testing.T) {
	mic := NewRemoteMicrophone("audio/webm")
	r := NewRecorder(mic, 3, time.Millisecond)

	require.NoError(t, r.Start(context.Background()))

	assert.Eventually(t, func() bool {
		return r.State() == RecorderStopped
	}, time.Second, time.Millisecond)

	asset, ok := r.Asset()
	require.True(t, ok)
	assert.Equal(t, 3, asset.DurationSeconds)
}

func TestRecorderAppendOutsideRecording(t *testing.T) {
	mic := NewRemoteMicrophone("audio/webm")
	r := NewRecorder(mic, 30, time.Second)

	assert.Error(t, r.Append([]byte("early")))

	require.NoError(t, r.Start(context.Background()))
	require.NoError(t, r.Stop())
	assert.Error(t, r.Append([]byte("late")))
}

func TestRecorderSealFailureReturnsToIdle(t *testing.T) {
	mic := &sealFailMicrophone{sealErr: errors.New("encoder crashed")}
	r := NewRecorder(mic, 30, time.Second)

	require.NoError(t, r.Start(context.Background()))
	err := r.Stop()
	require.Error(t, err)
	assert.Equal(t, CodeUnexpected, CodeOf(err))

	// The lost clip does not strand the recorder in stopped-without-asset.
	assert.Equal(t, RecorderIdle, r.State())
	_, ok := r.Asset()
	assert.False(t, ok)
	require.NotNil(t, r.Failure())

	// Another take works once the device recovers.
	mic.sealErr = nil
	require.NoError(t, r.Start(context.Background()))
	require.NoError(t, r.Stop())
	_, ok = r.Asset()
	assert.True(t, ok)
}

func TestRecorderReset(t *testing.T) {
	mic := NewRemoteMicrophone("audio/webm")
	r := NewRecorder(mic, 30, time.Second)

	require.NoError(t, r.Start(context.Background()))
	require.NoError(t, r.Append([]byte("clip")))
	require.NoError(t, r.Stop())

	r.Reset()
	assert.Equal(t, RecorderIdle, r.State())
	_, ok := r.Asset()
	assert.False(t, ok)

	// A fresh recording can start after reset.
	require.NoError(t, r.Start(context.Background()))
	assert.Equal(t, RecorderRecording, r.State())
}
