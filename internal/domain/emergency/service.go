package emergency

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/phr/phr/internal/domain/profile"
	"github.com/phr/phr/internal/domain/records"
	"github.com/phr/phr/internal/platform/audit"
	"github.com/phr/phr/pkg/errs"
)

// secretBytes is the entropy of the access secret before encoding.
const secretBytes = 32

// recordWindow caps how many recent records feed the builder.
const recordWindow = 50

type Service struct {
	repo     Repository
	profiles profile.Repository
	records  records.Repository
	sink     audit.Sink
	logger   zerolog.Logger
	ttl      time.Duration
	now      func() time.Time
}

func NewService(repo Repository, profiles profile.Repository, recs records.Repository, sink audit.Sink, logger zerolog.Logger, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Service{
		repo:     repo,
		profiles: profiles,
		records:  recs,
		sink:     sink,
		logger:   logger,
		ttl:      ttl,
		now:      time.Now,
	}
}

// GenerateResult is the one and only place the plaintext secret exists
// server-side. It is handed to the caller and forgotten.
type GenerateResult struct {
	Secret    string    `json:"secret"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Generate builds and persists a snapshot for the patient (or one of their
// dependent profiles) and mints its access secret. Any collaborator failure
// aborts the whole generation; a partial snapshot is never issued.
func (s *Service) Generate(ctx context.Context, patientID uuid.UUID, profileID *uuid.UUID) (*GenerateResult, error) {
	if patientID == uuid.Nil {
		return nil, errs.NewValidation("patient_id", "required")
	}

	var (
		p   *profile.Profile
		err error
	)
	if profileID != nil {
		p, err = s.profiles.GetByID(ctx, *profileID)
		if err != nil {
			return nil, err
		}
		if p.AccountID != patientID {
			return nil, errs.NewAuthorization(errs.ReasonNotOwner)
		}
	} else {
		p, err = s.profiles.GetPrimaryByAccount(ctx, patientID)
		if err != nil {
			return nil, err
		}
	}

	recs, _, err := s.records.ListByOwner(ctx, patientID, profileID, recordWindow, 0)
	if err != nil {
		return nil, fmt.Errorf("load records: %w", err)
	}

	secret, digest, err := mintSecret()
	if err != nil {
		return nil, fmt.Errorf("mint secret: %w", err)
	}

	now := s.now().UTC()
	snap, err := NewSnapshotBuilder(now).
		WithPatient(p).
		WithRecords(recs).
		EvaluateRisks().
		WithSecurity(digest, now.Add(s.ttl)).
		Build()
	if err != nil {
		return nil, err
	}

	if err := s.repo.Insert(ctx, snap); err != nil {
		return nil, fmt.Errorf("persist snapshot: %w", err)
	}

	actorID := patientID
	s.append(ctx, audit.Entry{
		ActorID:        &actorID,
		PatientOwnerID: patientID,
		Action:         audit.ActionSnapshotCreate,
		Resource:       "emergency_snapshot",
		ResourceID:     &snap.ID,
	})

	s.logger.Info().
		Str("patient_id", patientID.String()).
		Time("expires_at", snap.ExpiresAt).
		Int("risk_flags", len(snap.RiskFlags)).
		Msg("emergency snapshot generated")

	return &GenerateResult{Secret: secret, ExpiresAt: snap.ExpiresAt}, nil
}

// Resolve exchanges an access secret for the snapshot view. Unknown and
// expired secrets return errors the transport layer must render identically,
// so a caller cannot tell the two apart.
func (s *Service) Resolve(ctx context.Context, secret string) (*View, error) {
	if secret == "" {
		return nil, errs.NewNotFound("emergency_snapshot", "")
	}
	digest := digestOf(secret)

	snap, err := s.repo.FindByDigest(ctx, digest)
	if err != nil {
		return nil, fmt.Errorf("find snapshot: %w", err)
	}
	if snap == nil {
		return nil, errs.NewNotFound("emergency_snapshot", "")
	}
	if subtle.ConstantTimeCompare([]byte(snap.TokenDigest), []byte(digest)) != 1 {
		return nil, errs.NewNotFound("emergency_snapshot", "")
	}
	if snap.ExpiredAt(s.now().UTC()) {
		return nil, errs.NewExpired("emergency_snapshot", snap.ExpiresAt)
	}

	s.append(ctx, audit.Entry{
		PatientOwnerID: snap.PatientID,
		Action:         audit.ActionSnapshotResolve,
		Resource:       "emergency_snapshot",
		ResourceID:     &snap.ID,
	})

	return snap.View(), nil
}

// PurgeExpired removes snapshots past their validity window. Meant to run on
// a ticker; expiry is still enforced on every resolve, so a missed run never
// extends access.
func (s *Service) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := s.repo.DeleteExpired(ctx, s.now().UTC())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info().Int64("purged", n).Msg("expired emergency snapshots removed")
	}
	return n, nil
}

func (s *Service) append(ctx context.Context, e audit.Entry) {
	if s.sink == nil {
		return
	}
	if err := s.sink.Append(ctx, e); err != nil {
		s.logger.Error().Err(err).Str("action", e.Action).Msg("audit append failed")
	}
}

// mintSecret returns a fresh URL-safe secret and its persisted digest.
func mintSecret() (secret, digest string, err error) {
	buf := make([]byte, secretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", "", err
	}
	secret = base64.RawURLEncoding.EncodeToString(buf)
	return secret, digestOf(secret), nil
}

func digestOf(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}
