package identity

import (
	"sync"
	"time"
)

// Enrollment is a device-local identity captured through the low-literacy
// enrollment flow. It lives only on the submitting device and in this
// registry, never behind a server-issued session.
type Enrollment struct {
	Name       string    `json:"name"`
	Phone      string    `json:"phone"`
	EnrolledAt time.Time `json:"enrolled_at"`
}

// EnrollmentStore is an in-memory device-local enrollment registry keyed by
// device id.
type EnrollmentStore struct {
	mu sync.RWMutex
	m  map[string]Enrollment
}

// NewEnrollmentStore builds an empty registry.
func NewEnrollmentStore() *EnrollmentStore {
	return &EnrollmentStore{m: make(map[string]Enrollment)}
}

// Enroll records (or replaces) the device-local identity for deviceID.
func (s *EnrollmentStore) Enroll(deviceID, name, phone string) Enrollment {
	e := Enrollment{Name: name, Phone: phone, EnrolledAt: time.Now().UTC()}
	s.mu.Lock()
	s.m[deviceID] = e
	s.mu.Unlock()
	return e
}

// Active returns the enrollment for deviceID, if one exists.
func (s *EnrollmentStore) Active(deviceID string) (Enrollment, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.m[deviceID]
	return e, ok
}

// Clear removes the enrollment for deviceID.
func (s *EnrollmentStore) Clear(deviceID string) {
	s.mu.Lock()
	delete(s.m, deviceID)
	s.mu.Unlock()
}
