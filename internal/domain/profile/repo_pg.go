package profile

import (
	"context"
	"errors"

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

const profileCols = `id, account_id, is_dependent, full_name, date_of_birth,
	blood_group, allergies, chronic_conditions, current_medications,
	share_womens_health, womens_health, created_at, updated_at`

func scanProfile(row pgx.Row) (*Profile, error) {
	var p Profile
	err := row.Scan(&p.ID, &p.AccountID, &p.IsDependent, &p.FullName, &p.DateOfBirth,
		&p.BloodGroup, &p.Allergies, &p.ChronicConditions, &p.CurrentMedications,
		&p.ShareWomensHealth, &p.WomensHealth, &p.CreatedAt, &p.UpdatedAt)
	return &p, err
}

func (r *repoPG) Create(ctx context.Context, p *Profile) error {
	p.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO profile (id, account_id, is_dependent, full_name, date_of_birth,
			blood_group, allergies, chronic_conditions, current_medications,
			share_womens_health, womens_health)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		RETURNING created_at, updated_at`,
		p.ID, p.AccountID, p.IsDependent, p.FullName, p.DateOfBirth,
		p.BloodGroup, p.Allergies, p.ChronicConditions, p.CurrentMedications,
		p.ShareWomensHealth, p.WomensHealth,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Profile, error) {
	p, err := scanProfile(r.conn(ctx).QueryRow(ctx,
		`SELECT `+profileCols+` FROM profile WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.NewNotFound("profile", id.String())
	}
	return p, err
}

func (r *repoPG) GetPrimaryByAccount(ctx context.Context, accountID uuid.UUID) (*Profile, error) {
	p, err := scanProfile(r.conn(ctx).QueryRow(ctx,
		`SELECT `+profileCols+` FROM profile WHERE account_id = $1 AND is_dependent = FALSE`, accountID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.NewNotFound("profile", accountID.String())
	}
	return p, err
}

func (r *repoPG) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]*Profile, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+profileCols+` FROM profile
		WHERE account_id = $1
		ORDER BY is_dependent, created_at`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

func (r *repoPG) Update(ctx context.Context, p *Profile) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE profile SET full_name=$2, date_of_birth=$3, blood_group=$4,
			allergies=$5, chronic_conditions=$6, current_medications=$7,
			share_womens_health=$8, womens_health=$9, updated_at=NOW()
		WHERE id = $1`,
		p.ID, p.FullName, p.DateOfBirth, p.BloodGroup,
		p.Allergies, p.ChronicConditions, p.CurrentMedications,
		p.ShareWomensHealth, p.WomensHealth)
	return err
}
