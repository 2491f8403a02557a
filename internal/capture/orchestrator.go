package capture

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"civireport/internal/model"
)

// State is the submission pipeline state for one draft.
type State string

const (
	StateIdle       State = "idle"
	StateRecording  State = "recording"
	StateLocating   State = "locating"
	StatePhoto      State = "photo"
	StateSubmitting State = "submitting"
	StateDone       State = "done"
	StateFailed     State = "failed"
)

// ErrSubmitInFlight is returned when a submit action arrives while a
// submission is already running. The duplicate action is ignored; no second
// create is issued.
var ErrSubmitInFlight = errors.New("submission already in progress")

// ErrDraftClosed is returned for actions on a draft that already persisted.
var ErrDraftClosed = errors.New("draft already submitted")

// Kind values understood by the Uploader.
const (
	KindAudio = "audio"
	KindImage = "image"
)

// Config wires one capture session.
type Config struct {
	Type string

	Microphone       Microphone
	PositionProvider PositionProvider
	Compressor       Compressor

	MaxRecordSeconds int
	RecordTick       time.Duration
	GeoTimeout       time.Duration
	ImageWhitelist   []string
	ImageMaxBytes    int64

	Identity IdentityResolver
	Uploader Uploader
	Reports  ReportCreator
}

// Orchestrator owns one ReportDraft and sequences the capture controllers
// into a single consistent multi-part write. Controllers report results
// through one-shot events; the orchestrator is the only writer of the draft.
type Orchestrator struct {
	cfg      Config
	recorder *Recorder
	locator  *Locator
	images   *ImageService

	mu      sync.Mutex
	state   State
	draft   model.ReportDraft
	lastErr *Error
	result  *model.Report
}

// Snapshot is a point-in-time view of the session for callers.
type Snapshot struct {
	State           State
	Type            string
	RecordedSeconds int
	HasAudio        bool
	Position        *model.Position
	HasImage        bool
	LastError       *Error
	Result          *model.Report
}

// NewOrchestrator builds the session pipeline around the given devices and
// backends.
func NewOrchestrator(cfg Config) *Orchestrator {
	o := &Orchestrator{cfg: cfg, state: StateIdle}
	o.draft.Type = cfg.Type
	o.recorder = NewRecorder(cfg.Microphone, cfg.MaxRecordSeconds, cfg.RecordTick)
	o.locator = NewLocator(cfg.PositionProvider, cfg.GeoTimeout, o.onPositionEvent)
	o.images = NewImageService(cfg.ImageWhitelist, cfg.ImageMaxBytes, cfg.Compressor)
	return o
}

// StartRecording begins audio capture and fires geolocation auto-capture
// concurrently. ctx should outlive the HTTP request that triggered it.
func (o *Orchestrator) StartRecording(ctx context.Context) error {
	o.mu.Lock()
	if o.state != StateIdle {
		o.mu.Unlock()
		return NewError(CodeUnexpected, "recording can only start from idle")
	}
	o.mu.Unlock()

	if err := o.recorder.Start(ctx); err != nil {
		o.mu.Lock()
		if ce := asCaptureError(err); ce != nil {
			o.lastErr = ce
		}
		o.mu.Unlock()
		return err
	}

	o.mu.Lock()
	o.state = StateRecording
	o.lastErr = nil
	o.mu.Unlock()

	o.locator.BeginAuto(ctx)
	return nil
}

// AppendAudio feeds a chunk into the live recording.
func (o *Orchestrator) AppendAudio(p []byte) error {
	return o.recorder.Append(p)
}

// StopRecording seals the clip. If the position already resolved while
// recording, the photo step opens immediately; otherwise the draft waits in
// locating until a fix (auto or manual) arrives.
func (o *Orchestrator) StopRecording() error {
	o.mu.Lock()
	if o.state != StateRecording {
		o.mu.Unlock()
		return NewError(CodeUnexpected, "no recording in progress")
	}
	o.mu.Unlock()

	if err := o.recorder.Stop(); err != nil {
		// The clip is gone and the recorder re-armed itself; fall back to
		// idle so the user can record another take.
		o.mu.Lock()
		o.state = StateIdle
		o.lastErr = asCaptureError(err)
		o.mu.Unlock()
		return err
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if asset, ok := o.recorder.Asset(); ok {
		o.draft.Audio = asset
	}
	if pos, ok := o.locator.Position(); ok {
		o.draft.Position = pos
		o.state = StatePhoto
	} else {
		o.state = StateLocating
		if f := o.locator.Failure(); f != nil {
			o.lastErr = f
		}
	}
	return nil
}

// onPositionEvent is the locator's one-shot callback.
func (o *Orchestrator) onPositionEvent() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if pos, ok := o.locator.Position(); ok {
		o.draft.Position = pos
		o.lastErr = nil
		if o.state == StateLocating {
			o.state = StatePhoto
		}
		return
	}
	if f := o.locator.Failure(); f != nil {
		o.lastErr = f
	}
}

// SetManualPosition records a user placement; auto mode stays disabled for
// the rest of the draft.
func (o *Orchestrator) SetManualPosition(lat, lng, accuracy float64) {
	o.locator.SetManual(lat, lng, accuracy)
}

// AttachPhoto validates, compresses and stores the optional image.
func (o *Orchestrator) AttachPhoto(ctx context.Context, data []byte, mediaType string) error {
	o.mu.Lock()
	if o.state == StateSubmitting || o.state == StateDone {
		o.mu.Unlock()
		return ErrDraftClosed
	}
	o.mu.Unlock()

	asset, err := o.images.Accept(ctx, data, mediaType)
	if err != nil {
		return err
	}
	o.mu.Lock()
	o.draft.Image = asset
	o.mu.Unlock()
	return nil
}

// RemovePhoto clears the image selection; the draft stays valid without one.
func (o *Orchestrator) RemovePhoto() {
	o.images.Remove()
	o.mu.Lock()
	o.draft.Image = nil
	o.mu.Unlock()
}

// Submit runs the validation gate, uploads audio then image, and persists
// the record. A duplicate submit while one is running returns
// ErrSubmitInFlight without side effects. On failure the draft is preserved
// and the session moves to failed, from which submit may be retried.
func (o *Orchestrator) Submit(ctx context.Context) (*model.Report, error) {
	o.mu.Lock()
	switch o.state {
	case StateSubmitting:
		o.mu.Unlock()
		return nil, ErrSubmitInFlight
	case StateDone:
		o.mu.Unlock()
		return nil, ErrDraftClosed
	}

	// Snapshot controller results into the draft before the gate.
	if asset, ok := o.recorder.Asset(); ok {
		o.draft.Audio = asset
	}
	if pos, ok := o.locator.Position(); ok {
		o.draft.Position = pos
	}

	if verr := Validate(&o.draft); verr != nil {
		// Prefer the original device failure when it explains the gap.
		if verr.Code == CodeMissingRequiredFields && o.draft.Position == nil {
			if f := o.locator.Failure(); f != nil {
				o.lastErr = f
				o.mu.Unlock()
				return nil, f
			}
		}
		o.lastErr = verr
		o.mu.Unlock()
		return nil, verr
	}

	identity, resolved := o.cfg.Identity.Resolve(ctx)
	if resolved {
		o.draft.Identity = &identity
	} else {
		o.draft.Identity = nil
	}

	draft := o.draft
	o.state = StateSubmitting
	o.lastErr = nil
	o.mu.Unlock()

	report, err := o.persist(ctx, draft)
	if err != nil {
		o.mu.Lock()
		o.state = StateFailed
		o.lastErr = asCaptureError(err)
		o.mu.Unlock()
		return nil, err
	}

	o.mu.Lock()
	o.state = StateDone
	o.result = report
	o.draft = model.ReportDraft{Type: draft.Type}
	o.mu.Unlock()
	return report, nil
}

// persist uploads the media and creates the row. There is no cross-resource
// transaction: audio goes first, then image, then the database write, and a
// failure at any later step rolls back the blobs already uploaded.
func (o *Orchestrator) persist(ctx context.Context, draft model.ReportDraft) (*model.Report, error) {
	ownerID := ""
	if draft.Identity != nil && draft.Identity.UserID != nil {
		ownerID = *draft.Identity.UserID
	}

	audioURL, err := o.cfg.Uploader.Upload(ctx, draft.Audio.Bytes, draft.Audio.DeclaredMediaType, KindAudio, ownerID)
	if err != nil {
		return nil, err
	}

	var imageURL *string
	if draft.Image != nil {
		u, err := o.cfg.Uploader.Upload(ctx, draft.Image.Bytes, draft.Image.MediaType, KindImage, ownerID)
		if err != nil {
			// Rollback: delete the audio blob that already landed
			if delErr := o.cfg.Uploader.Discard(ctx, audioURL); delErr != nil {
				return nil, fmt.Errorf("image upload failed: %v; rollback delete failed: %v", err, delErr)
			}
			return nil, err
		}
		imageURL = &u
	}

	in := model.ReportInput{
		Type:      draft.Type,
		Latitude:  &draft.Position.Latitude,
		Longitude: &draft.Position.Longitude,
		AudioURL:  &audioURL,
		ImageURL:  imageURL,
	}
	if draft.Identity != nil {
		in.CommuneID = draft.Identity.CommuneID
		in.CitizenName = draft.Identity.Name
		in.Phone = draft.Identity.Phone
		in.SubmitterUserID = draft.Identity.UserID
	}

	report, err := o.cfg.Reports.Create(ctx, in)
	if err != nil {
		// Rollback: delete the uploaded media
		urls := []string{audioURL}
		if imageURL != nil {
			urls = append(urls, *imageURL)
		}
		for _, u := range urls {
			if delErr := o.cfg.Uploader.Discard(ctx, u); delErr != nil {
				return nil, fmt.Errorf("report create failed: %v; rollback delete failed: %v", err, delErr)
			}
		}
		return nil, err
	}
	return report, nil
}

// Reset destroys the draft and re-arms the pipeline, including a fresh
// locator (auto-capture is re-enabled only because this starts a new draft).
func (o *Orchestrator) Reset() error {
	o.mu.Lock()
	if o.state == StateSubmitting {
		o.mu.Unlock()
		return ErrSubmitInFlight
	}
	o.mu.Unlock()

	o.recorder.Reset()
	o.images.Remove()

	o.mu.Lock()
	o.locator = NewLocator(o.cfg.PositionProvider, o.cfg.GeoTimeout, o.onPositionEvent)
	o.draft = model.ReportDraft{Type: o.cfg.Type}
	o.state = StateIdle
	o.lastErr = nil
	o.result = nil
	o.mu.Unlock()
	return nil
}

// State returns the pipeline state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Snapshot returns a consistent view for read endpoints.
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	s := Snapshot{
		State:           o.state,
		Type:            o.draft.Type,
		RecordedSeconds: o.recorder.Elapsed(),
		HasAudio:        o.draft.Audio != nil,
		HasImage:        o.draft.Image != nil,
		LastError:       o.lastErr,
		Result:          o.result,
	}
	if o.draft.Position != nil {
		pos := *o.draft.Position
		s.Position = &pos
	}
	return s
}

func asCaptureError(err error) *Error {
	if err == nil {
		return nil
	}
	var ce *Error
	if errors.As(err, &ce) {
		return ce
	}
	return WrapError(CodeUnexpected, "capture pipeline failure", err)
}
