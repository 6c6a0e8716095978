package consent

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/phr/phr/internal/platform/audit"
	"github.com/phr/phr/pkg/errs"
)

// Service is the consent ledger: it owns grants, revocations, and validity
// queries. Every mutation appends one entry to the audit sink.
type Service struct {
	repo   Repository
	sink   audit.Sink
	logger zerolog.Logger
	now    func() time.Time
}

func NewService(repo Repository, sink audit.Sink, logger zerolog.Logger) *Service {
	return &Service{repo: repo, sink: sink, logger: logger, now: time.Now}
}

// Grant creates a new active consent for (owner, subject, doctor) over the
// window [validFrom, validUntil]. Overlapping active grants for the same
// triple may coexist; the ledger is deliberately permissive and concurrent
// grants can duplicate each other (see consent docs).
func (s *Service) Grant(ctx context.Context, ownerID uuid.UUID, subjectProfileID *uuid.UUID, doctorID uuid.UUID, validFrom, validUntil time.Time) (*Consent, error) {
	if ownerID == uuid.Nil {
		return nil, errs.NewValidation("patient_owner_id", "is required")
	}
	if doctorID == uuid.Nil {
		return nil, errs.NewValidation("doctor_id", "is required")
	}
	if !validUntil.After(validFrom) {
		return nil, errs.NewValidation("valid_until", "must be after valid_from")
	}

	c := &Consent{
		PatientOwnerID:   ownerID,
		SubjectProfileID: subjectProfileID,
		DoctorID:         doctorID,
		Status:           StatusActive,
		ValidFrom:        validFrom,
		ValidUntil:       validUntil,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}

	s.append(ctx, ownerID, audit.Entry{
		PatientOwnerID: ownerID,
		Action:         audit.ActionConsentGrant,
		Resource:       "consent",
		ResourceID:     &c.ID,
		Purpose:        "grant doctor " + doctorID.String() + " access until " + validUntil.UTC().Format(time.RFC3339),
	})
	return c, nil
}

// Revoke permanently ends a grant. Only the owning patient account may
// revoke; doctors have no write access to consents naming them. Revoking an
// already revoked grant is a no-op that returns the record unchanged.
func (s *Service) Revoke(ctx context.Context, consentID, requestedBy uuid.UUID) (*Consent, error) {
	existing, err := s.repo.GetByID(ctx, consentID)
	if err != nil {
		return nil, err
	}
	if existing.PatientOwnerID != requestedBy {
		return nil, errs.NewAuthorization(errs.ReasonNotOwner)
	}

	c, err := s.repo.MarkRevoked(ctx, consentID, s.now().UTC())
	if err != nil {
		return nil, err
	}

	s.append(ctx, c.PatientOwnerID, audit.Entry{
		PatientOwnerID: c.PatientOwnerID,
		Action:         audit.ActionConsentRevoke,
		Resource:       "consent",
		ResourceID:     &c.ID,
		Purpose:        "revoke doctor " + c.DoctorID.String() + " access",
	})
	return c, nil
}

// FindActiveGrant returns the most relevant active grant for the triple at
// the given instant, or nil when none exists.
func (s *Service) FindActiveGrant(ctx context.Context, ownerID uuid.UUID, subjectProfileID *uuid.UUID, doctorID uuid.UUID, at time.Time) (*Consent, error) {
	return s.repo.FindActiveGrant(ctx, ownerID, subjectProfileID, doctorID, at)
}

// HasActiveGrant implements the access gate's consent check.
func (s *Service) HasActiveGrant(ctx context.Context, ownerID uuid.UUID, subjectProfileID *uuid.UUID, doctorID uuid.UUID, at time.Time) (bool, error) {
	c, err := s.repo.FindActiveGrant(ctx, ownerID, subjectProfileID, doctorID, at)
	if err != nil {
		return false, err
	}
	return c != nil, nil
}

// ListForPatient returns grants the patient account has issued.
func (s *Service) ListForPatient(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]*Consent, int, error) {
	return s.repo.ListByPatient(ctx, ownerID, limit, offset)
}

// ListForDoctor returns grants issued to the clinician.
func (s *Service) ListForDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Consent, int, error) {
	return s.repo.ListByDoctor(ctx, doctorID, limit, offset)
}

// append writes to the audit sink. Grant/revoke already succeeded by the
// time this runs; a sink failure is logged rather than unwinding the
// committed mutation.
func (s *Service) append(ctx context.Context, actorID uuid.UUID, e audit.Entry) {
	if s.sink == nil {
		return
	}
	e.ActorID = &actorID
	if err := s.sink.Append(ctx, e); err != nil {
		s.logger.Error().Err(err).
			Str("action", e.Action).
			Str("patient_owner_id", e.PatientOwnerID.String()).
			Msg("audit append failed")
	}
}
