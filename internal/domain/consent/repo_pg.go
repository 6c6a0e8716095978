package consent

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/phr/phr/internal/platform/db"
	"github.com/phr/phr/pkg/errs"
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

const consentCols = `id, patient_owner_id, subject_profile_id, doctor_id, status,
	valid_from, valid_until, revoked_at, created_at, updated_at`

func scanConsent(row pgx.Row) (*Consent, error) {
	var c Consent
	err := row.Scan(&c.ID, &c.PatientOwnerID, &c.SubjectProfileID, &c.DoctorID, &c.Status,
		&c.ValidFrom, &c.ValidUntil, &c.RevokedAt, &c.CreatedAt, &c.UpdatedAt)
	return &c, err
}

func (r *repoPG) Create(ctx context.Context, c *Consent) error {
	c.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO consent (id, patient_owner_id, subject_profile_id, doctor_id, status, valid_from, valid_until)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at, updated_at`,
		c.ID, c.PatientOwnerID, c.SubjectProfileID, c.DoctorID, c.Status, c.ValidFrom, c.ValidUntil,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Consent, error) {
	c, err := scanConsent(r.conn(ctx).QueryRow(ctx,
		`SELECT `+consentCols+` FROM consent WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.NewNotFound("consent", id.String())
	}
	return c, err
}

func (r *repoPG) MarkRevoked(ctx context.Context, id uuid.UUID, at time.Time) (*Consent, error) {
	// Single atomic status transition. COALESCE keeps the original
	// revocation instant when the row was already revoked.
	c, err := scanConsent(r.conn(ctx).QueryRow(ctx, `
		UPDATE consent
		SET status = $2, revoked_at = COALESCE(revoked_at, $3), updated_at = NOW()
		WHERE id = $1
		RETURNING `+consentCols, id, StatusRevoked, at))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.NewNotFound("consent", id.String())
	}
	return c, err
}

func (r *repoPG) FindActiveGrant(ctx context.Context, ownerID uuid.UUID, subjectProfileID *uuid.UUID, doctorID uuid.UUID, at time.Time) (*Consent, error) {
	c, err := scanConsent(r.conn(ctx).QueryRow(ctx, `
		SELECT `+consentCols+` FROM consent
		WHERE patient_owner_id = $1
		  AND subject_profile_id IS NOT DISTINCT FROM $2
		  AND doctor_id = $3
		  AND status = $4
		  AND valid_from <= $5 AND valid_until >= $5
		ORDER BY created_at DESC
		LIMIT 1`, ownerID, subjectProfileID, doctorID, StatusActive, at))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return c, err
}

func (r *repoPG) ListByPatient(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]*Consent, int, error) {
	return r.list(ctx, `patient_owner_id`, ownerID, limit, offset)
}

func (r *repoPG) ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Consent, int, error) {
	return r.list(ctx, `doctor_id`, doctorID, limit, offset)
}

func (r *repoPG) list(ctx context.Context, column string, id uuid.UUID, limit, offset int) ([]*Consent, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM consent WHERE `+column+` = $1`, id).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+consentCols+` FROM consent
		WHERE `+column+` = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`, id, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Consent
	for rows.Next() {
		c, err := scanConsent(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, c)
	}
	return items, total, rows.Err()
}
