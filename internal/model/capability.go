package model

import "time"

// CapabilityKind distinguishes the two delegated-access surfaces.
type CapabilityKind string

const (
	KindGuardianPortal    CapabilityKind = "guardian_portal"
	KindSubstituteProctor CapabilityKind = "substitute_proctor"
)

// String returns the string representation of the kind.
func (k CapabilityKind) String() string {
	return string(k)
}

// IsValid checks whether the kind is a known value.
func (k CapabilityKind) IsValid() bool {
	switch k {
	case KindGuardianPortal, KindSubstituteProctor:
		return true
	}
	return false
}

// Capability is the persisted record of an issued access link. Only the
// one-way digest of the raw secret is ever stored; the raw secret exists
// transiently at issue time and on the wire to its intended recipient.
// Multiple capabilities may be simultaneously valid for the same subject.
type Capability struct {
	ID        string         `json:"id"`
	Digest    string         `json:"-"`
	SubjectID string         `json:"subject_id"`
	Kind      CapabilityKind `json:"kind"`
	IssuedAt  time.Time      `json:"issued_at"`
	ExpiresAt time.Time      `json:"expires_at"`
}

// Expired reports whether the capability is inert at the given instant.
func (c *Capability) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}
