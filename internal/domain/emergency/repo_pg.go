package emergency

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/phr/phr/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

// The frozen clinical content is stored as one jsonb payload; identity,
// digest, and the validity window get their own columns so lookup and purge
// stay indexable.
func (r *repoPG) Insert(ctx context.Context, s *Snapshot) error {
	s.ID = uuid.New()
	payload, err := json.Marshal(s)
	if err != nil {
		return err
	}
	_, err = r.conn(ctx).Exec(ctx, `
		INSERT INTO emergency_snapshot (id, patient_id, profile_id, token_digest, payload, created_at, expires_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		s.ID, s.PatientID, s.ProfileID, s.TokenDigest, payload, s.CreatedAt, s.ExpiresAt)
	return err
}

func (r *repoPG) FindByDigest(ctx context.Context, digest string) (*Snapshot, error) {
	var (
		s       Snapshot
		payload []byte
	)
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT id, patient_id, profile_id, token_digest, payload, created_at, expires_at
		FROM emergency_snapshot WHERE token_digest = $1`,
		digest,
	).Scan(&s.ID, &s.PatientID, &s.ProfileID, &s.TokenDigest, &payload, &s.CreatedAt, &s.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	// Columns win over whatever the payload carried.
	id, patientID, profileID, tokenDigest := s.ID, s.PatientID, s.ProfileID, s.TokenDigest
	createdAt, expiresAt := s.CreatedAt, s.ExpiresAt
	if err := json.Unmarshal(payload, &s); err != nil {
		return nil, err
	}
	s.ID, s.PatientID, s.ProfileID, s.TokenDigest = id, patientID, profileID, tokenDigest
	s.CreatedAt, s.ExpiresAt = createdAt, expiresAt
	return &s, nil
}

func (r *repoPG) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.conn(ctx).Exec(ctx,
		`DELETE FROM emergency_snapshot WHERE expires_at < $1`, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
