package capture

import (
	"bytes"
	"context"
	"sync"

	"civireport/internal/model"
)

// RemoteMicrophone adapts the submitting device's microphone to the
// Microphone port. The device streams chunks over HTTP into the handle; a
// permission refusal or missing capability is reported by the device before
// recording starts and surfaces as the typed acquisition error.
type RemoteMicrophone struct {
	mu          sync.Mutex
	denied      bool
	unsupported bool
	mediaType   string
}

// NewRemoteMicrophone builds a microphone that declares the given media type
// for sealed recordings until the device reports otherwise.
func NewRemoteMicrophone(mediaType string) *RemoteMicrophone {
	if mediaType == "" {
		mediaType = "audio/webm"
	}
	return &RemoteMicrophone{mediaType: mediaType}
}

// ReportPermission records the device's microphone permission outcome.
func (m *RemoteMicrophone) ReportPermission(denied bool) {
	m.mu.Lock()
	m.denied = denied
	m.mu.Unlock()
}

// ReportUnsupported marks the capture channel as absent on the device.
func (m *RemoteMicrophone) ReportUnsupported() {
	m.mu.Lock()
	m.unsupported = true
	m.mu.Unlock()
}

// SetMediaType updates the declared recording type (the device knows its
// encoder; parameters like codec hints are kept as declared).
func (m *RemoteMicrophone) SetMediaType(mt string) {
	if mt == "" {
		return
	}
	m.mu.Lock()
	m.mediaType = mt
	m.mu.Unlock()
}

func (m *RemoteMicrophone) Acquire(_ context.Context) (RecordingHandle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.unsupported {
		return nil, NewError(CodeDeviceUnsupported, "device has no recording capability")
	}
	if m.denied {
		return nil, NewError(CodePermissionDenied, "microphone permission denied")
	}
	return &remoteRecording{mediaType: m.mediaType}, nil
}

type remoteRecording struct {
	mu        sync.Mutex
	buf       bytes.Buffer
	sealed    bool
	mediaType string
}

func (h *remoteRecording) Write(p []byte) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.sealed {
		return 0, NewError(CodeUnexpected, "recording already sealed")
	}
	return h.buf.Write(p)
}

func (h *remoteRecording) Seal() ([]byte, string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sealed = true
	return h.buf.Bytes(), h.mediaType, nil
}

func (h *remoteRecording) Release() error { return nil }

// RemotePositionFeed adapts device-pushed geolocation fixes to the
// PositionProvider port. Current blocks until the device reports a fix or a
// typed failure, or the bounded wait expires.
type RemotePositionFeed struct {
	once    sync.Once
	results chan positionResult
}

type positionResult struct {
	pos model.Position
	err error
}

// NewRemotePositionFeed builds an empty feed.
func NewRemotePositionFeed() *RemotePositionFeed {
	return &RemotePositionFeed{results: make(chan positionResult, 1)}
}

// ReportFix delivers a device sensor fix. Only the first report is consumed;
// auto-capture issues a single request per draft.
func (f *RemotePositionFeed) ReportFix(lat, lng, accuracy float64) {
	f.deliver(positionResult{pos: model.Position{
		Latitude:       lat,
		Longitude:      lng,
		AccuracyMeters: accuracy,
		Source:         model.PositionAuto,
	}})
}

// ReportDenied delivers a geolocation permission refusal.
func (f *RemotePositionFeed) ReportDenied() {
	f.deliver(positionResult{err: NewError(CodePermissionDenied, "geolocation permission denied")})
}

// ReportUnavailable delivers a sensor failure.
func (f *RemotePositionFeed) ReportUnavailable() {
	f.deliver(positionResult{err: NewError(CodePositionUnavailable, "position unavailable")})
}

func (f *RemotePositionFeed) deliver(r positionResult) {
	f.once.Do(func() { f.results <- r })
}

func (f *RemotePositionFeed) Current(ctx context.Context) (model.Position, error) {
	select {
	case r := <-f.results:
		return r.pos, r.err
	case <-ctx.Done():
		return model.Position{}, ctx.Err()
	}
}
