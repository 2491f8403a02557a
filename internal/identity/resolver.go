package identity

import (
	"context"

	"civireport/internal/model"
)

// SessionState is the reconciler surface the resolver needs.
type SessionState interface {
	HasSession() bool
	Profile() *Profile
}

// Enrollments looks up the device-local identity active for a device.
type Enrollments interface {
	Active(deviceID string) (Enrollment, bool)
}

// Resolver applies the identity precedence rule at submission time: an
// active device-local enrollment always supplies name/phone, even when a
// server session exists; the session profile contributes communeId/userId
// only when no enrollment is active. Fields from the two sources are never
// combined.
type Resolver struct {
	sessions    SessionState
	enrollments Enrollments
}

// NewResolver wires the two identity sources.
func NewResolver(sessions SessionState, enrollments Enrollments) *Resolver {
	return &Resolver{sessions: sessions, enrollments: enrollments}
}

// Resolve returns the identity for a submission from deviceID, or false when
// neither source is present. Submission proceeds with null identity fields
// in that case; identity is not mandatory for report creation.
func (r *Resolver) Resolve(_ context.Context, deviceID string) (model.SubmitterIdentity, bool) {
	if r.enrollments != nil && deviceID != "" {
		if e, ok := r.enrollments.Active(deviceID); ok {
			name, phone := e.Name, e.Phone
			return model.SubmitterIdentity{
				Source: model.IdentityDeviceLocal,
				Name:   &name,
				Phone:  &phone,
			}, true
		}
	}

	if r.sessions != nil && r.sessions.HasSession() {
		if p := r.sessions.Profile(); p != nil {
			name, phone, userID := p.Name, p.Phone, p.UserID
			id := model.SubmitterIdentity{
				Source:    model.IdentitySession,
				CommuneID: p.CommuneID,
				UserID:    &userID,
			}
			if name != "" {
				id.Name = &name
			}
			if phone != "" {
				id.Phone = &phone
			}
			return id, true
		}
	}

	return model.SubmitterIdentity{}, false
}

// ForDevice binds the resolver to one device id, matching the capture
// pipeline's IdentityResolver port.
func (r *Resolver) ForDevice(deviceID string) DeviceResolver {
	return DeviceResolver{resolver: r, deviceID: deviceID}
}

// DeviceResolver is a Resolver fixed to one submitting device.
type DeviceResolver struct {
	resolver *Resolver
	deviceID string
}

func (d DeviceResolver) Resolve(ctx context.Context) (model.SubmitterIdentity, bool) {
	return d.resolver.Resolve(ctx, d.deviceID)
}
