package consent

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, c *Consent) error
	GetByID(ctx context.Context, id uuid.UUID) (*Consent, error)
	// MarkRevoked flips the status to revoked. Idempotent on an already
	// revoked row.
	MarkRevoked(ctx context.Context, id uuid.UUID, at time.Time) (*Consent, error)
	// FindActiveGrant returns the most recently created active grant for
	// (owner, subject, doctor) covering the instant at, or nil.
	FindActiveGrant(ctx context.Context, ownerID uuid.UUID, subjectProfileID *uuid.UUID, doctorID uuid.UUID, at time.Time) (*Consent, error)
	ListByPatient(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]*Consent, int, error)
	ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Consent, int, error)
}
