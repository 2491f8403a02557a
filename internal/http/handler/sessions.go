package handler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"civireport/internal/capture"
	"civireport/internal/config"
	"civireport/internal/identity"
)

// CaptureDeps are the backends shared by all capture sessions.
type CaptureDeps struct {
	Capture  config.CaptureConfig
	Uploader capture.Uploader
	Reports  capture.ReportCreator
	Resolver *identity.Resolver
}

// captureSession binds one draft's orchestrator to the remote device feeds
// the submitting client pushes into.
type captureSession struct {
	ID        string
	DeviceID  string
	Mic       *capture.RemoteMicrophone
	Geo       *capture.RemotePositionFeed
	Orch      *capture.Orchestrator
	CreatedAt time.Time

	ctx    context.Context
	cancel context.CancelFunc
}

// SessionRegistry is the in-memory registry of live capture sessions.
type SessionRegistry struct {
	deps CaptureDeps

	mu sync.RWMutex
	m  map[string]*captureSession
}

// NewSessionRegistry builds an empty registry.
func NewSessionRegistry(deps CaptureDeps) *SessionRegistry {
	return &SessionRegistry{deps: deps, m: make(map[string]*captureSession)}
}

// Create opens a new draft session for one report type and device.
func (r *SessionRegistry) Create(reportType, deviceID, audioMediaType string) *captureSession {
	mic := capture.NewRemoteMicrophone(audioMediaType)
	geo := capture.NewRemotePositionFeed()

	// The session context outlives individual HTTP requests; stopping the
	// recorder must not cancel an in-flight geolocation request.
	ctx, cancel := context.WithCancel(context.Background())

	orch := capture.NewOrchestrator(capture.Config{
		Type:             reportType,
		Microphone:       mic,
		PositionProvider: geo,
		MaxRecordSeconds: r.deps.Capture.MaxRecordSeconds,
		GeoTimeout:       r.deps.Capture.GeoTimeout,
		ImageWhitelist:   r.deps.Capture.ImageWhitelist,
		ImageMaxBytes:    r.deps.Capture.ImageMaxBytes,
		Identity:         r.deps.Resolver.ForDevice(deviceID),
		Uploader:         r.deps.Uploader,
		Reports:          r.deps.Reports,
	})

	s := &captureSession{
		ID:        uuid.NewString(),
		DeviceID:  deviceID,
		Mic:       mic,
		Geo:       geo,
		Orch:      orch,
		CreatedAt: time.Now().UTC(),
		ctx:       ctx,
		cancel:    cancel,
	}

	r.mu.Lock()
	r.m[s.ID] = s
	r.mu.Unlock()
	return s
}

// Get returns the session by id.
func (r *SessionRegistry) Get(id string) (*captureSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.m[id]
	return s, ok
}

// Delete cancels and removes the session.
func (r *SessionRegistry) Delete(id string) {
	r.mu.Lock()
	s, ok := r.m[id]
	delete(r.m, id)
	r.mu.Unlock()
	if ok {
		s.cancel()
	}
}
