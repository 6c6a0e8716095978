package records

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, rec *HealthRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*HealthRecord, error)
	// ListByOwner returns the owner's records newest first. A nil profileID
	// means the primary profile.
	ListByOwner(ctx context.Context, ownerID uuid.UUID, profileID *uuid.UUID, limit, offset int) ([]*HealthRecord, int, error)
}
