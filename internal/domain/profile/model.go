package profile

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Profile maps to the profile table. One account owns a primary profile and
// zero or more dependent profiles; dependents have no identity of their own
// beyond the owning account.
type Profile struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	AccountID   uuid.UUID  `db:"account_id" json:"account_id"`
	IsDependent bool       `db:"is_dependent" json:"is_dependent"`
	FullName    string     `db:"full_name" json:"full_name"`
	DateOfBirth *time.Time `db:"date_of_birth" json:"date_of_birth,omitempty"`

	// Clinical basics captured as comma-separated free text on intake.
	BloodGroup         string `db:"blood_group" json:"blood_group"`
	Allergies          string `db:"allergies" json:"allergies"`
	ChronicConditions  string `db:"chronic_conditions" json:"chronic_conditions"`
	CurrentMedications string `db:"current_medications" json:"current_medications"`

	// ShareWomensHealth is the explicit opt-in for including reproductive
	// health data in emergency disclosures. Defaults to false.
	ShareWomensHealth bool          `db:"share_womens_health" json:"share_womens_health"`
	WomensHealth      *WomensHealth `db:"womens_health" json:"womens_health,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// WomensHealth is stored as jsonb on the profile row.
type WomensHealth struct {
	CyclePhase     string     `json:"cycle_phase,omitempty"`
	LastPeriodDate *time.Time `json:"last_period_date,omitempty"`
	Pregnancy      bool       `json:"pregnancy,omitempty"`
	PregnancyWeeks int        `json:"pregnancy_weeks,omitempty"`
	Note           string     `json:"note,omitempty"`
}

// SplitList turns comma-separated free text into a normalized list:
// entries trimmed, empties dropped.
func SplitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
