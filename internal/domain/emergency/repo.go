package emergency

import (
	"context"
	"time"
)

type Repository interface {
	Insert(ctx context.Context, s *Snapshot) error
	// FindByDigest returns the snapshot with the given token digest, or
	// (nil, nil) when none exists.
	FindByDigest(ctx context.Context, digest string) (*Snapshot, error)
	// DeleteExpired removes snapshots whose validity window ended before
	// now and reports how many were removed.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
