package identity

import (
	"context"
	"sync"
)

// PushBackend is an in-process auth boundary fed by the external auth
// system over the /v1/auth webhook. It implements both SessionBackend and
// AuthNotifier: the auth system pushes the current profile and emits
// state-change notifications, and the reconciler consumes both.
type PushBackend struct {
	mu          sync.Mutex
	hasSession  bool
	profile     *Profile
	subscribers map[int]func(AuthEvent)
	nextSub     int
}

// NewPushBackend builds an empty backend with no session.
func NewPushBackend() *PushBackend {
	return &PushBackend{subscribers: make(map[int]func(AuthEvent))}
}

func (b *PushBackend) HasSession(context.Context) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hasSession, nil
}

func (b *PushBackend) LoadProfile(context.Context) (*Profile, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.profile, nil
}

func (b *PushBackend) Subscribe(fn func(AuthEvent)) func() {
	b.mu.Lock()
	id := b.nextSub
	b.nextSub++
	b.subscribers[id] = fn
	b.mu.Unlock()
	return func() {
		b.mu.Lock()
		delete(b.subscribers, id)
		b.mu.Unlock()
	}
}

// SetSession records the pushed session state before the notification fires.
func (b *PushBackend) SetSession(has bool, profile *Profile) {
	b.mu.Lock()
	b.hasSession = has
	b.profile = profile
	b.mu.Unlock()
}

// Emit delivers a notification to all subscribers.
func (b *PushBackend) Emit(ev AuthEvent) {
	b.mu.Lock()
	fns := make([]func(AuthEvent), 0, len(b.subscribers))
	for _, fn := range b.subscribers {
		fns = append(fns, fn)
	}
	b.mu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}
