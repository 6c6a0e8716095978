package emergency

import (
	"time"

	"github.com/google/uuid"

	"github.com/phr/phr/internal/domain/profile"
	"github.com/phr/phr/internal/domain/risk"
	"github.com/phr/phr/internal/platform/fhir"
)

// CriticalSummary is the always-present clinical core of a snapshot.
type CriticalSummary struct {
	BloodGroup         string   `json:"blood_group,omitempty"`
	MajorAllergies     []string `json:"major_allergies,omitempty"`
	ChronicConditions  []string `json:"chronic_conditions,omitempty"`
	CurrentMedications []string `json:"current_medications,omitempty"`
}

// ReportExtract is a condensed recent report included in a snapshot.
type ReportExtract struct {
	Title      string    `json:"title"`
	Date       time.Time `json:"date"`
	Summary    string    `json:"summary,omitempty"`
	Highlights []string  `json:"highlights,omitempty"`
}

// Snapshot is a frozen, time-boxed emergency disclosure. All clinical
// content is copied at generation time; later edits to the underlying
// profile or records never change an issued snapshot.
type Snapshot struct {
	ID          uuid.UUID  `json:"id"`
	PatientID   uuid.UUID  `json:"patient_id"`
	ProfileID   *uuid.UUID `json:"profile_id,omitempty"`
	PatientName string     `json:"patient_name"`

	// TokenDigest is the SHA-256 hex digest of the access secret. The
	// secret itself is never persisted.
	TokenDigest string `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`

	Critical      CriticalSummary       `json:"critical"`
	RiskFlags     []risk.Flag           `json:"risk_flags,omitempty"`
	RecentReports []ReportExtract       `json:"recent_reports,omitempty"`
	Vitals        *risk.Vitals          `json:"vitals,omitempty"`
	WomensHealth  *profile.WomensHealth `json:"womens_health,omitempty"`
	Bundle        *fhir.Bundle          `json:"bundle,omitempty"`
}

// ExpiredAt reports whether the snapshot is past its validity window at t.
// This check runs on every resolve regardless of storage cleanup.
func (s *Snapshot) ExpiredAt(t time.Time) bool {
	return t.After(s.ExpiresAt)
}

// View is the public read shape returned to emergency responders. It carries
// everything clinical but neither the digest nor internal identifiers.
type View struct {
	PatientName   string                `json:"patient_name"`
	CreatedAt     time.Time             `json:"created_at"`
	ExpiresAt     time.Time             `json:"expires_at"`
	Critical      CriticalSummary       `json:"critical"`
	RiskFlags     []risk.Flag           `json:"risk_flags,omitempty"`
	RecentReports []ReportExtract       `json:"recent_reports,omitempty"`
	Vitals        *risk.Vitals          `json:"vitals,omitempty"`
	WomensHealth  *profile.WomensHealth `json:"womens_health,omitempty"`
	Bundle        *fhir.Bundle          `json:"bundle,omitempty"`
}

// View projects the snapshot into its public shape.
func (s *Snapshot) View() *View {
	return &View{
		PatientName:   s.PatientName,
		CreatedAt:     s.CreatedAt,
		ExpiresAt:     s.ExpiresAt,
		Critical:      s.Critical,
		RiskFlags:     s.RiskFlags,
		RecentReports: s.RecentReports,
		Vitals:        s.Vitals,
		WomensHealth:  s.WomensHealth,
		Bundle:        s.Bundle,
	}
}
