package identity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"civireport/internal/model"
)

type fakeSessionState struct {
	has     bool
	profile *Profile
}

func (s fakeSessionState) HasSession() bool  { return s.has }
func (s fakeSessionState) Profile() *Profile { return s.profile }

func TestResolverDeviceLocalWinsOverSession(t *testing.T) {
	communeID := "dakar-plateau"
	sessions := fakeSessionState{has: true, profile: &Profile{
		UserID:    "u-1",
		Name:      "Session Name",
		Phone:     "+221770000000",
		CommuneID: &communeID,
	}}
	enrollments := NewEnrollmentStore()
	enrollments.Enroll("device-a", "Awa Ndiaye", "+221771234567")

	id, ok := NewResolver(sessions, enrollments).Resolve(context.Background(), "device-a")
	require.True(t, ok)
	assert.Equal(t, model.IdentityDeviceLocal, id.Source)
	require.NotNil(t, id.Name)
	assert.Equal(t, "Awa Ndiaye", *id.Name)
	require.NotNil(t, id.Phone)
	assert.Equal(t, "+221771234567", *id.Phone)

	// Enrollment fields are never mixed with session fields.
	assert.Nil(t, id.CommuneID)
	assert.Nil(t, id.UserID)
}

func TestResolverFallsBackToSession(t *testing.T) {
	communeID := "dakar-plateau"
	sessions := fakeSessionState{has: true, profile: &Profile{
		UserID:    "u-1",
		Name:      "Moussa Diop",
		Phone:     "+221770000000",
		CommuneID: &communeID,
	}}

	id, ok := NewResolver(sessions, NewEnrollmentStore()).Resolve(context.Background(), "device-a")
	require.True(t, ok)
	assert.Equal(t, model.IdentitySession, id.Source)
	require.NotNil(t, id.UserID)
	assert.Equal(t, "u-1", *id.UserID)
	require.NotNil(t, id.CommuneID)
	assert.Equal(t, communeID, *id.CommuneID)
	require.NotNil(t, id.Name)
	assert.Equal(t, "Moussa Diop", *id.Name)
}

func TestResolverSessionWithoutProfileIsUnresolved(t *testing.T) {
	// Session existence can precede the profile load.
	sessions := fakeSessionState{has: true}

	_, ok := NewResolver(sessions, NewEnrollmentStore()).Resolve(context.Background(), "device-a")
	assert.False(t, ok)
}

func TestResolverNeitherSourceIsUnresolved(t *testing.T) {
	_, ok := NewResolver(fakeSessionState{}, NewEnrollmentStore()).Resolve(context.Background(), "device-a")
	assert.False(t, ok)
}

func TestResolverClearedEnrollmentFallsBack(t *testing.T) {
	sessions := fakeSessionState{has: true, profile: &Profile{UserID: "u-1"}}
	enrollments := NewEnrollmentStore()
	enrollments.Enroll("device-a", "Awa", "+221771234567")
	enrollments.Clear("device-a")

	id, ok := NewResolver(sessions, enrollments).Resolve(context.Background(), "device-a")
	require.True(t, ok)
	assert.Equal(t, model.IdentitySession, id.Source)
}

func TestDeviceResolverBindsDeviceID(t *testing.T) {
	enrollments := NewEnrollmentStore()
	enrollments.Enroll("device-a", "Awa", "+221771234567")
	r := NewResolver(fakeSessionState{}, enrollments)

	id, ok := r.ForDevice("device-a").Resolve(context.Background())
	require.True(t, ok)
	assert.Equal(t, model.IdentityDeviceLocal, id.Source)

	_, ok = r.ForDevice("device-b").Resolve(context.Background())
	assert.False(t, ok)
}
