package consent

import (
	"time"

	"github.com/google/uuid"
)

// Consent statuses. Revocation is one-way: active -> revoked.
const (
	StatusActive  = "active"
	StatusRevoked = "revoked"
)

// Consent maps to the consent table. It records one clinician's temporary
// right to read one subject's data. Rows are never hard-deleted; the table
// doubles as the audit trail of past grants.
type Consent struct {
	ID               uuid.UUID  `db:"id" json:"id"`
	PatientOwnerID   uuid.UUID  `db:"patient_owner_id" json:"patient_owner_id"`
	SubjectProfileID *uuid.UUID `db:"subject_profile_id" json:"subject_profile_id,omitempty"`
	DoctorID         uuid.UUID  `db:"doctor_id" json:"doctor_id"`
	Status           string     `db:"status" json:"status"`
	ValidFrom        time.Time  `db:"valid_from" json:"valid_from"`
	ValidUntil       time.Time  `db:"valid_until" json:"valid_until"`
	RevokedAt        *time.Time `db:"revoked_at" json:"revoked_at,omitempty"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`
}

// IsActiveAt reports whether the grant is currently valid at t:
// status is active and t falls inside [ValidFrom, ValidUntil].
func (c *Consent) IsActiveAt(t time.Time) bool {
	if c.Status != StatusActive {
		return false
	}
	return !t.Before(c.ValidFrom) && !t.After(c.ValidUntil)
}

// CoversSubject reports whether the grant applies to the given subject
// profile. A nil subject on both sides means the primary profile.
func (c *Consent) CoversSubject(subjectProfileID *uuid.UUID) bool {
	if c.SubjectProfileID == nil && subjectProfileID == nil {
		return true
	}
	if c.SubjectProfileID == nil || subjectProfileID == nil {
		return false
	}
	return *c.SubjectProfileID == *subjectProfileID
}
