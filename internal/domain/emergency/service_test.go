package emergency

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/phr/phr/internal/domain/profile"
	"github.com/phr/phr/internal/domain/records"
	"github.com/phr/phr/internal/platform/audit"
	"github.com/phr/phr/pkg/errs"
)

type memRepo struct {
	byDigest map[string]*Snapshot
}

func newMemRepo() *memRepo {
	return &memRepo{byDigest: map[string]*Snapshot{}}
}

func (m *memRepo) Insert(_ context.Context, s *Snapshot) error {
	cp := *s
	m.byDigest[s.TokenDigest] = &cp
	return nil
}

func (m *memRepo) FindByDigest(_ context.Context, digest string) (*Snapshot, error) {
	s, ok := m.byDigest[digest]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (m *memRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	var n int64
	for digest, s := range m.byDigest {
		if now.After(s.ExpiresAt) {
			delete(m.byDigest, digest)
			n++
		}
	}
	return n, nil
}

type memProfiles struct {
	byID map[uuid.UUID]*profile.Profile
}

func (m *memProfiles) Create(context.Context, *profile.Profile) error { return nil }
func (m *memProfiles) Update(context.Context, *profile.Profile) error { return nil }
func (m *memProfiles) ListByAccount(context.Context, uuid.UUID) ([]*profile.Profile, error) {
	return nil, nil
}

func (m *memProfiles) GetByID(_ context.Context, id uuid.UUID) (*profile.Profile, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, errs.NewNotFound("profile", id.String())
	}
	return p, nil
}

func (m *memProfiles) GetPrimaryByAccount(_ context.Context, accountID uuid.UUID) (*profile.Profile, error) {
	for _, p := range m.byID {
		if p.AccountID == accountID && !p.IsDependent {
			return p, nil
		}
	}
	return nil, errs.NewNotFound("profile", accountID.String())
}

type memRecords struct {
	recs []*records.HealthRecord
	err  error
}

func (m *memRecords) Create(context.Context, *records.HealthRecord) error { return nil }
func (m *memRecords) GetByID(context.Context, uuid.UUID) (*records.HealthRecord, error) {
	return nil, errs.NewNotFound("health_record", "")
}

func (m *memRecords) ListByOwner(_ context.Context, _ uuid.UUID, _ *uuid.UUID, _, _ int) ([]*records.HealthRecord, int, error) {
	if m.err != nil {
		return nil, 0, m.err
	}
	return m.recs, len(m.recs), nil
}

type memSink struct {
	entries []audit.Entry
}

func (m *memSink) Append(_ context.Context, e audit.Entry) error {
	m.entries = append(m.entries, e)
	return nil
}

func newTestService(t *testing.T, accountID uuid.UUID) (*Service, *memRepo, *memSink) {
	t.Helper()
	p := testProfile(accountID)
	repo := newMemRepo()
	sink := &memSink{}
	svc := NewService(repo,
		&memProfiles{byID: map[uuid.UUID]*profile.Profile{p.ID: p}},
		&memRecords{},
		sink, zerolog.Nop(), time.Hour)
	return svc, repo, sink
}

func TestGenerateAndResolveRoundTrip(t *testing.T) {
	accountID := uuid.New()
	svc, repo, sink := newTestService(t, accountID)

	result, err := svc.Generate(context.Background(), accountID, nil)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if result.Secret == "" {
		t.Fatal("no secret returned")
	}
	if got := time.Until(result.ExpiresAt); got < 59*time.Minute || got > 61*time.Minute {
		t.Errorf("expiry %v from now, want about an hour", got)
	}

	// Only the digest is persisted.
	for digest := range repo.byDigest {
		if digest == result.Secret {
			t.Fatal("plaintext secret was persisted")
		}
		if digest != digestOf(result.Secret) {
			t.Errorf("stored digest %q does not match the secret's digest", digest)
		}
	}

	view, err := svc.Resolve(context.Background(), result.Secret)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if view.PatientName != "Jane Roe" {
		t.Errorf("patient name = %q", view.PatientName)
	}
	if view.Critical.BloodGroup != "O-" {
		t.Errorf("blood group = %q", view.Critical.BloodGroup)
	}
	if view.Bundle == nil {
		t.Error("view missing interoperability bundle")
	}

	if len(sink.entries) != 2 {
		t.Fatalf("audit entries = %d, want create + resolve", len(sink.entries))
	}
	if sink.entries[0].Action != audit.ActionSnapshotCreate || sink.entries[1].Action != audit.ActionSnapshotResolve {
		t.Errorf("audit actions = %s, %s", sink.entries[0].Action, sink.entries[1].Action)
	}
	if sink.entries[1].ActorID != nil {
		t.Error("resolve audit entry should have no actor")
	}
}

func TestGenerateForUnownedProfileDenied(t *testing.T) {
	accountID := uuid.New()
	svc, _, _ := newTestService(t, accountID)

	other := testProfile(uuid.New())
	svc.profiles.(*memProfiles).byID[other.ID] = other

	_, err := svc.Generate(context.Background(), accountID, &other.ID)
	var ae *errs.AuthorizationError
	if !errors.As(err, &ae) {
		t.Fatalf("err = %v, want authorization error", err)
	}
}

func TestGenerateAbortsOnRecordFailure(t *testing.T) {
	accountID := uuid.New()
	svc, repo, _ := newTestService(t, accountID)
	svc.records.(*memRecords).err = errors.New("storage down")

	if _, err := svc.Generate(context.Background(), accountID, nil); err == nil {
		t.Fatal("generate should abort when records cannot be loaded")
	}
	if len(repo.byDigest) != 0 {
		t.Error("no snapshot may be persisted after an aborted generation")
	}
}

func TestResolveUnknownSecret(t *testing.T) {
	svc, _, _ := newTestService(t, uuid.New())

	_, err := svc.Resolve(context.Background(), "never-issued")
	var nf *errs.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("err = %v, want not found", err)
	}
}

func TestResolveExpiredSecret(t *testing.T) {
	accountID := uuid.New()
	svc, _, _ := newTestService(t, accountID)

	result, err := svc.Generate(context.Background(), accountID, nil)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	svc.now = func() time.Time { return result.ExpiresAt.Add(time.Second) }

	_, err = svc.Resolve(context.Background(), result.Secret)
	var ex *errs.ExpiredError
	if !errors.As(err, &ex) {
		t.Fatalf("err = %v, want expired", err)
	}
}

func TestResolveFrozenAgainstLaterEdits(t *testing.T) {
	accountID := uuid.New()
	svc, _, _ := newTestService(t, accountID)

	result, err := svc.Generate(context.Background(), accountID, nil)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	// Mutate the live profile after generation.
	p, _ := svc.profiles.GetPrimaryByAccount(context.Background(), accountID)
	p.BloodGroup = "AB+"
	p.CurrentMedications = "Warfarin"

	view, err := svc.Resolve(context.Background(), result.Secret)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if view.Critical.BloodGroup != "O-" {
		t.Errorf("blood group = %q, snapshot must stay frozen", view.Critical.BloodGroup)
	}
	if strings.Join(view.Critical.CurrentMedications, ",") != "Amoxicillin,Lisinopril" {
		t.Errorf("medications = %v, snapshot must stay frozen", view.Critical.CurrentMedications)
	}
}

func TestPurgeExpired(t *testing.T) {
	accountID := uuid.New()
	svc, repo, _ := newTestService(t, accountID)

	if _, err := svc.Generate(context.Background(), accountID, nil); err != nil {
		t.Fatalf("generate: %v", err)
	}

	svc.now = func() time.Time { return time.Now().UTC().Add(2 * time.Hour) }
	n, err := svc.PurgeExpired(context.Background())
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if n != 1 || len(repo.byDigest) != 0 {
		t.Errorf("purged %d, remaining %d", n, len(repo.byDigest))
	}
}

func TestMintSecretEntropyAndEncoding(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 32; i++ {
		secret, digest, err := mintSecret()
		if err != nil {
			t.Fatalf("mint: %v", err)
		}
		if seen[secret] {
			t.Fatal("duplicate secret minted")
		}
		seen[secret] = true
		if strings.ContainsAny(secret, "+/=") {
			t.Errorf("secret %q is not URL-safe", secret)
		}
		if digest != digestOf(secret) {
			t.Error("digest mismatch")
		}
	}
}
