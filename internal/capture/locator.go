package capture

import (
	"context"
	"errors"
	"sync"
	"time"

	"civireport/internal/model"
)

// Locator acquires the draft position. Auto-capture races a single provider
// request against a timeout; a manual placement permanently disables auto
// mode for the lifetime of the draft and a late auto result is discarded,
// never merged.
type Locator struct {
	provider PositionProvider
	timeout  time.Duration
	notify   func()

	mu          sync.Mutex
	autoStarted bool
	manualSet   bool
	position    *model.Position
	failure     *Error
}

// NewLocator builds a locator. notify fires once per resolution event
// (auto fix, auto failure, or manual placement) outside the locator's lock;
// the orchestrator uses it to advance its own state.
func NewLocator(provider PositionProvider, timeout time.Duration, notify func()) *Locator {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if notify == nil {
		notify = func() {}
	}
	return &Locator{provider: provider, timeout: timeout, notify: notify}
}

// BeginAuto issues the single bounded position request. It is a no-op when
// auto-capture already ran or a manual placement exists.
func (l *Locator) BeginAuto(ctx context.Context) {
	l.mu.Lock()
	if l.autoStarted || l.manualSet {
		l.mu.Unlock()
		return
	}
	l.autoStarted = true
	l.mu.Unlock()

	go func() {
		reqCtx, cancel := context.WithTimeout(ctx, l.timeout)
		defer cancel()

		pos, err := l.provider.Current(reqCtx)

		l.mu.Lock()
		if l.manualSet {
			// Manual won the race; the auto result is dropped.
			l.mu.Unlock()
			return
		}
		if err != nil {
			l.failure = autoFailure(err)
		} else {
			pos.Source = model.PositionAuto
			l.position = &pos
			l.failure = nil
		}
		l.mu.Unlock()
		l.notify()
	}()
}

func autoFailure(err error) *Error {
	var ce *Error
	if errors.As(err, &ce) {
		return ce
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return NewError(CodeTimeout, "position request timed out")
	}
	if errors.Is(err, context.Canceled) {
		return NewError(CodePositionUnavailable, "position request canceled")
	}
	return WrapError(CodePositionUnavailable, "position request failed", err)
}

// SetManual records a user placement. Once called, auto mode stays disabled
// for the rest of the draft; repeated calls follow last-manual-wins.
func (l *Locator) SetManual(lat, lng, accuracy float64) {
	l.mu.Lock()
	l.manualSet = true
	l.position = &model.Position{
		Latitude:       lat,
		Longitude:      lng,
		AccuracyMeters: accuracy,
		Source:         model.PositionManual,
	}
	l.failure = nil
	l.mu.Unlock()
	l.notify()
}

// Position returns the active fix, if any.
func (l *Locator) Position() (*model.Position, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.position == nil {
		return nil, false
	}
	return l.position, true
}

// Failure returns the retained auto-capture failure. It is nil once a
// position is present.
func (l *Locator) Failure() *Error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.failure
}
