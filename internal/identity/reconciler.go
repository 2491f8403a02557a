package identity

import (
	"context"
	"sync"
)

// Profile is the server-session identity record.
type Profile struct {
	UserID    string  `json:"user_id"`
	Name      string  `json:"name"`
	Phone     string  `json:"phone"`
	CommuneID *string `json:"commune_id"`
}

// AuthEvent is a state-change notification from the auth boundary.
type AuthEvent string

const (
	EventSignedIn       AuthEvent = "signed_in"
	EventSignedOut      AuthEvent = "signed_out"
	EventTokenRefreshed AuthEvent = "token_refreshed"
)

// AuthNotifier delivers auth state-change notifications. Subscribe returns
// an unsubscribe func.
type AuthNotifier interface {
	Subscribe(fn func(AuthEvent)) (unsubscribe func())
}

// SessionBackend answers the explicit session check and loads the profile.
type SessionBackend interface {
	HasSession(ctx context.Context) (bool, error)
	LoadProfile(ctx context.Context) (*Profile, error)
}

// reconcilerState is the reconciler's own lifecycle, modeled explicitly:
// the notifier replays the current auth state as its first notification,
// which duplicates the explicit check done in Init, so that one event is
// consumed by the awaitingFirstEvent state rather than acted on.
type reconcilerState int

const (
	stateUninitialized reconcilerState = iota
	stateAwaitingFirstEvent
	stateReady
)

// Reconciler tracks session existence separately from the loaded profile:
// a session can exist before its profile has loaded.
type Reconciler struct {
	backend  SessionBackend
	notifier AuthNotifier

	mu          sync.Mutex
	state       reconcilerState
	hasSession  bool
	profile     *Profile
	unsubscribe func()
}

// NewReconciler builds an uninitialized reconciler.
func NewReconciler(backend SessionBackend, notifier AuthNotifier) *Reconciler {
	return &Reconciler{backend: backend, notifier: notifier}
}

// Init performs the explicit initial session check and subscribes to the
// notifier. The first notification after subscribing is ignored.
func (r *Reconciler) Init(ctx context.Context) error {
	r.mu.Lock()
	if r.state != stateUninitialized {
		r.mu.Unlock()
		return nil
	}
	r.mu.Unlock()

	has, err := r.backend.HasSession(ctx)
	if err != nil {
		return err
	}
	var profile *Profile
	if has {
		profile, err = r.backend.LoadProfile(ctx)
		if err != nil {
			return err
		}
	}

	r.mu.Lock()
	r.hasSession = has
	r.profile = profile
	r.state = stateAwaitingFirstEvent
	r.mu.Unlock()

	r.unsubscribe = r.notifier.Subscribe(r.handleEvent)
	return nil
}

func (r *Reconciler) handleEvent(ev AuthEvent) {
	r.mu.Lock()
	switch r.state {
	case stateUninitialized:
		r.mu.Unlock()
		return
	case stateAwaitingFirstEvent:
		// Duplicates the explicit check done in Init.
		r.state = stateReady
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()

	switch ev {
	case EventSignedOut:
		r.mu.Lock()
		r.hasSession = false
		r.profile = nil
		r.mu.Unlock()
	case EventSignedIn:
		r.mu.Lock()
		r.hasSession = true
		r.mu.Unlock()
		r.reloadProfile()
	case EventTokenRefreshed:
		// Re-triggers a profile reload without touching hasSession.
		r.reloadProfile()
	}
}

func (r *Reconciler) reloadProfile() {
	profile, err := r.backend.LoadProfile(context.Background())
	if err != nil {
		return
	}
	r.mu.Lock()
	r.profile = profile
	r.mu.Unlock()
}

// Close drops the notifier subscription.
func (r *Reconciler) Close() {
	if r.unsubscribe != nil {
		r.unsubscribe()
	}
}

// HasSession reports session existence, which may precede a loaded profile.
func (r *Reconciler) HasSession() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hasSession
}

// Profile returns the loaded session profile, or nil.
func (r *Reconciler) Profile() *Profile {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.profile
}
