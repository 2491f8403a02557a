package identity

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	mu        sync.Mutex
	has       bool
	profile   *Profile
	hasCalls  int
	loadCalls int
}

func (b *fakeBackend) HasSession(context.Context) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.hasCalls++
	return b.has, nil
}

func (b *fakeBackend) LoadProfile(context.Context) (*Profile, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.loadCalls++
	return b.profile, nil
}

func (b *fakeBackend) set(has bool, p *Profile) {
	b.mu.Lock()
	b.has = has
	b.profile = p
	b.mu.Unlock()
}

func newReadyReconciler(t *testing.T, backend *fakeBackend, notifier *PushBackend) *Reconciler {
	t.Helper()
	r := NewReconciler(backend, notifier)
	require.NoError(t, r.Init(context.Background()))
	// The notifier replays the current state once after subscription; the
	// reconciler must swallow it.
	notifier.Emit(EventSignedIn)
	return r
}

func TestReconcilerInitChecksExplicitly(t *testing.T) {
	communeID := "dakar-plateau"
	backend := &fakeBackend{has: true, profile: &Profile{UserID: "u-1", Name: "Awa", CommuneID: &communeID}}
	r := NewReconciler(backend, NewPushBackend())

	require.NoError(t, r.Init(context.Background()))
	assert.True(t, r.HasSession())
	require.NotNil(t, r.Profile())
	assert.Equal(t, "u-1", r.Profile().UserID)
	assert.Equal(t, 1, backend.hasCalls)

	// Init is a one-time transition; repeating it is a no-op.
	require.NoError(t, r.Init(context.Background()))
	assert.Equal(t, 1, backend.hasCalls)
}

func TestReconcilerIgnoresFirstNotification(t *testing.T) {
	backend := &fakeBackend{has: true, profile: &Profile{UserID: "u-1"}}
	notifier := NewPushBackend()
	r := NewReconciler(backend, notifier)
	require.NoError(t, r.Init(context.Background()))

	// The replayed initial notification must not disturb the checked state,
	// whatever it claims.
	notifier.Emit(EventSignedOut)
	assert.True(t, r.HasSession())
	assert.NotNil(t, r.Profile())

	// The next one is a real state change.
	notifier.Emit(EventSignedOut)
	assert.False(t, r.HasSession())
	assert.Nil(t, r.Profile())
}

func TestReconcilerSignedInLoadsProfile(t *testing.T) {
	backend := &fakeBackend{}
	notifier := NewPushBackend()
	r := newReadyReconciler(t, backend, notifier)
	assert.False(t, r.HasSession())

	backend.set(true, &Profile{UserID: "u-2", Name: "Moussa"})
	notifier.Emit(EventSignedIn)

	assert.True(t, r.HasSession())
	require.NotNil(t, r.Profile())
	assert.Equal(t, "u-2", r.Profile().UserID)
}

func TestReconcilerTokenRefreshReloadsProfileOnly(t *testing.T) {
	backend := &fakeBackend{has: true, profile: &Profile{UserID: "u-1", Name: "Awa"}}
	notifier := NewPushBackend()
	r := newReadyReconciler(t, backend, notifier)

	backend.set(true, &Profile{UserID: "u-1", Name: "Awa Ndiaye"})
	notifier.Emit(EventTokenRefreshed)

	assert.True(t, r.HasSession())
	require.NotNil(t, r.Profile())
	assert.Equal(t, "Awa Ndiaye", r.Profile().Name)
}

func TestReconcilerCloseUnsubscribes(t *testing.T) {
	backend := &fakeBackend{has: true, profile: &Profile{UserID: "u-1"}}
	notifier := NewPushBackend()
	r := newReadyReconciler(t, backend, notifier)

	r.Close()
	notifier.Emit(EventSignedOut)
	assert.True(t, r.HasSession(), "events after Close are not delivered")
}
