package emergency

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/phr/phr/internal/domain/profile"
	"github.com/phr/phr/internal/domain/records"
	"github.com/phr/phr/internal/domain/risk"
	"github.com/phr/phr/internal/platform/fhir"
	"github.com/phr/phr/pkg/errs"
)

const maxRecentReports = 5

// reportTypes are the record types condensed into the recent-reports section.
var reportTypes = map[string]bool{
	records.TypeLabReport:        true,
	records.TypeDischargeSummary: true,
	records.TypeImaging:          true,
}

// SnapshotBuilder assembles a Snapshot in fixed stages: patient, records,
// risks, security, then Build. Each stage records the first error and later
// stages become no-ops, so callers chain without checking in between.
type SnapshotBuilder struct {
	snap Snapshot
	now  time.Time
	err  error

	hasPatient bool
	hasRecords bool
	hasRisks   bool
}

func NewSnapshotBuilder(now time.Time) *SnapshotBuilder {
	return &SnapshotBuilder{now: now, snap: Snapshot{CreatedAt: now}}
}

// WithPatient copies the clinical basics out of the profile. Reproductive
// health data is included only when the profile has opted in.
func (b *SnapshotBuilder) WithPatient(p *profile.Profile) *SnapshotBuilder {
	if b.err != nil {
		return b
	}
	if p == nil {
		b.err = errors.New("snapshot builder: nil profile")
		return b
	}

	b.snap.PatientID = p.AccountID
	if p.IsDependent {
		id := p.ID
		b.snap.ProfileID = &id
	}
	b.snap.PatientName = p.FullName
	b.snap.Critical = CriticalSummary{
		BloodGroup:         p.BloodGroup,
		MajorAllergies:     profile.SplitList(p.Allergies),
		ChronicConditions:  profile.SplitList(p.ChronicConditions),
		CurrentMedications: profile.SplitList(p.CurrentMedications),
	}
	if p.ShareWomensHealth && p.WomensHealth != nil {
		wh := *p.WomensHealth
		b.snap.WomensHealth = &wh
	}
	b.hasPatient = true
	return b
}

// WithRecords condenses the newest reports and picks the most recent vitals
// reading. Records must arrive newest first.
func (b *SnapshotBuilder) WithRecords(recs []*records.HealthRecord) *SnapshotBuilder {
	if b.err != nil {
		return b
	}
	if !b.hasPatient {
		b.err = errors.New("snapshot builder: records stage before patient stage")
		return b
	}

	for _, rec := range recs {
		switch {
		case reportTypes[rec.Type] && len(b.snap.RecentReports) < maxRecentReports:
			b.snap.RecentReports = append(b.snap.RecentReports, ReportExtract{
				Title:      rec.Title,
				Date:       rec.CreatedAt,
				Summary:    rec.BestSummary(),
				Highlights: extractHighlights(rec),
			})
		case rec.Type == records.TypeVitals && b.snap.Vitals == nil:
			b.snap.Vitals = &risk.Vitals{
				BloodPressure: rec.StructuredString("blood_pressure"),
				HeartRate:     rec.StructuredString("heart_rate"),
				Temperature:   rec.StructuredString("temperature"),
				SpO2:          rec.StructuredString("spo2"),
			}
		}
	}
	b.hasRecords = true
	return b
}

// EvaluateRisks runs the risk engine over the clinical content collected so
// far. It must run after both the patient and records stages so the engine
// sees the same data the snapshot will carry.
func (b *SnapshotBuilder) EvaluateRisks() *SnapshotBuilder {
	if b.err != nil {
		return b
	}
	if !b.hasRecords {
		b.err = errors.New("snapshot builder: risks stage before records stage")
		return b
	}

	b.snap.RiskFlags = risk.Evaluate(risk.Input{
		Allergies:   b.snap.Critical.MajorAllergies,
		Medications: b.snap.Critical.CurrentMedications,
		Conditions:  b.snap.Critical.ChronicConditions,
		Vitals:      b.snap.Vitals,
	})
	b.hasRisks = true
	return b
}

// WithSecurity attaches the secret digest and the validity window.
func (b *SnapshotBuilder) WithSecurity(digest string, expiresAt time.Time) *SnapshotBuilder {
	if b.err != nil {
		return b
	}
	if !b.hasRisks {
		b.err = errors.New("snapshot builder: security stage before risks stage")
		return b
	}
	b.snap.TokenDigest = digest
	b.snap.ExpiresAt = expiresAt
	return b
}

// Build validates the assembled snapshot and computes the interoperability
// bundle last, from the final clinical content.
func (b *SnapshotBuilder) Build() (*Snapshot, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.snap.PatientID == uuid.Nil {
		return nil, errs.NewValidation("patient_id", "is required")
	}
	if b.snap.TokenDigest == "" {
		return nil, errs.NewValidation("token_digest", "is required")
	}
	if !b.snap.ExpiresAt.After(b.now) {
		return nil, errs.NewValidation("expires_at", "must be in the future")
	}

	b.snap.Bundle = fhir.SummaryBundle(fhir.PatientSummary{
		PatientID:   b.snap.PatientID.String(),
		PatientName: b.snap.PatientName,
		BloodGroup:  b.snap.Critical.BloodGroup,
		Allergies:   b.snap.Critical.MajorAllergies,
		Conditions:  b.snap.Critical.ChronicConditions,
		Medications: b.snap.Critical.CurrentMedications,
		CreatedAt:   b.snap.CreatedAt,
	})

	snap := b.snap
	return &snap, nil
}

func extractHighlights(rec *records.HealthRecord) []string {
	raw, ok := rec.StructuredData["highlights"].([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
