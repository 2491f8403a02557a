package capture

import (
	"context"
	"errors"
	"sync"
	"time"

	"civireport/internal/model"
)

// RecorderState is the audio controller's lifecycle state.
type RecorderState string

const (
	RecorderIdle      RecorderState = "idle"
	RecorderRecording RecorderState = "recording"
	RecorderStopped   RecorderState = "stopped"
)

// Recorder captures a bounded-duration voice clip. It owns the device handle
// between Start and Stop and enforces the duration ceiling with its own
// clock; downstream components never re-validate duration.
type Recorder struct {
	mic        Microphone
	maxSeconds int
	tick       time.Duration

	mu      sync.Mutex
	state   RecorderState
	handle  RecordingHandle
	elapsed int
	asset   *model.AudioAsset
	failure *Error
	done    chan struct{}
}

// NewRecorder builds an idle recorder. maxSeconds is the hard recording
// ceiling; tick is the clock granularity (one second in production, shorter
// in tests).
func NewRecorder(mic Microphone, maxSeconds int, tick time.Duration) *Recorder {
	if maxSeconds <= 0 {
		maxSeconds = 30
	}
	if tick <= 0 {
		tick = time.Second
	}
	return &Recorder{mic: mic, maxSeconds: maxSeconds, tick: tick, state: RecorderIdle}
}

// Start acquires the device and begins recording. Permission denial and
// missing capability surface as typed errors from the microphone port and
// are retained as controller state.
func (r *Recorder) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.state != RecorderIdle {
		r.mu.Unlock()
		return NewError(CodeUnexpected, "recorder is not idle")
	}
	r.mu.Unlock()

	handle, err := r.mic.Acquire(ctx)
	if err != nil {
		r.mu.Lock()
		if ce, ok := err.(*Error); ok {
			r.failure = ce
		} else {
			r.failure = WrapError(CodeUnexpected, "acquire recording device", err)
		}
		failure := r.failure
		r.mu.Unlock()
		return failure
	}

	r.mu.Lock()
	r.state = RecorderRecording
	r.handle = handle
	r.elapsed = 0
	r.failure = nil
	r.asset = nil
	r.done = make(chan struct{})
	done := r.done
	r.mu.Unlock()

	go r.runClock(done)
	return nil
}

// runClock advances the recording timer and auto-stops at the ceiling.
func (r *Recorder) runClock(done chan struct{}) {
	t := time.NewTicker(r.tick)
	defer t.Stop()
	for {
		select {
		case <-done:
			return
		case <-t.C:
			r.mu.Lock()
			if r.state != RecorderRecording {
				r.mu.Unlock()
				return
			}
			r.elapsed++
			reached := r.elapsed >= r.maxSeconds
			r.mu.Unlock()
			if reached {
				_ = r.Stop()
				return
			}
		}
	}
}

// Stop seals the recording and releases the device. It is a no-op from idle
// and idempotent once stopped.
func (r *Recorder) Stop() error {
	r.mu.Lock()
	if r.state != RecorderRecording {
		r.mu.Unlock()
		return nil
	}
	handle := r.handle
	close(r.done)
	r.state = RecorderStopped
	r.handle = nil
	duration := r.elapsed
	r.mu.Unlock()

	data, mediaType, err := handle.Seal()
	releaseErr := handle.Release()
	if err != nil {
		if releaseErr != nil {
			err = errors.Join(err, releaseErr)
		}
		sealErr := WrapError(CodeUnexpected, "seal recording", err)
		// The clip is lost; arm the recorder for another take.
		r.mu.Lock()
		r.state = RecorderIdle
		r.failure = sealErr
		r.mu.Unlock()
		return sealErr
	}

	r.mu.Lock()
	r.asset = &model.AudioAsset{
		Bytes:             data,
		DeclaredMediaType: mediaType,
		DurationSeconds:   duration,
	}
	if releaseErr != nil {
		// The sealed clip is intact; keep the device fault visible.
		r.failure = WrapError(CodeUnexpected, "release recording device", releaseErr)
	}
	r.mu.Unlock()
	return nil
}

// Reset discards any sealed clip and returns to idle.
func (r *Recorder) Reset() {
	_ = r.Stop()
	r.mu.Lock()
	r.state = RecorderIdle
	r.asset = nil
	r.elapsed = 0
	r.failure = nil
	r.mu.Unlock()
}

// Append writes a chunk into the live recording.
func (r *Recorder) Append(p []byte) error {
	r.mu.Lock()
	if r.state != RecorderRecording || r.handle == nil {
		r.mu.Unlock()
		return NewError(CodeUnexpected, "recorder is not recording")
	}
	handle := r.handle
	r.mu.Unlock()

	if _, err := handle.Write(p); err != nil {
		return WrapError(CodeUnexpected, "write audio chunk", err)
	}
	return nil
}

// State returns the controller state.
func (r *Recorder) State() RecorderState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Elapsed returns whole recorded time units so far.
func (r *Recorder) Elapsed() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.elapsed
}

// Asset returns the sealed clip once the recorder has stopped.
func (r *Recorder) Asset() (*model.AudioAsset, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != RecorderStopped || r.asset == nil {
		return nil, false
	}
	return r.asset, true
}

// Failure returns the retained device failure, if any.
func (r *Recorder) Failure() *Error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.failure
}
