package profile

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, p *Profile) error
	GetByID(ctx context.Context, id uuid.UUID) (*Profile, error)
	// GetPrimaryByAccount returns the account's own (non-dependent) profile.
	GetPrimaryByAccount(ctx context.Context, accountID uuid.UUID) (*Profile, error)
	ListByAccount(ctx context.Context, accountID uuid.UUID) ([]*Profile, error)
	Update(ctx context.Context, p *Profile) error
}
