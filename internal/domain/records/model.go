package records

import (
	"time"

	"github.com/google/uuid"
)

// Record types as captured by the upload pipeline.
const (
	TypeLabReport        = "lab_report"
	TypePrescription     = "prescription"
	TypeDischargeSummary = "discharge_summary"
	TypeVitals           = "vitals"
	TypeImaging          = "imaging"
	TypeOther            = "other"
)

// HealthRecord maps to the health_record table. StructuredData carries
// whatever structure the extraction step produced, stored as jsonb; for
// vitals records it holds keys like blood_pressure, heart_rate,
// temperature, spo2.
type HealthRecord struct {
	ID             uuid.UUID              `db:"id" json:"id"`
	OwnerID        uuid.UUID              `db:"owner_id" json:"owner_id"`
	ProfileID      *uuid.UUID             `db:"profile_id" json:"profile_id,omitempty"`
	Type           string                 `db:"type" json:"type"`
	Title          string                 `db:"title" json:"title"`
	Source         string                 `db:"source" json:"source"`
	Summary        string                 `db:"summary" json:"summary"`
	AISummary      *string                `db:"ai_summary" json:"ai_summary,omitempty"`
	StructuredData map[string]interface{} `db:"structured_data" json:"structured_data,omitempty"`
	CreatedAt      time.Time              `db:"created_at" json:"created_at"`
}

// BestSummary prefers the AI-generated summary when one exists.
func (r *HealthRecord) BestSummary() string {
	if r.AISummary != nil && *r.AISummary != "" {
		return *r.AISummary
	}
	return r.Summary
}

// StructuredString returns a string value from the structured extraction.
func (r *HealthRecord) StructuredString(key string) string {
	if r.StructuredData == nil {
		return ""
	}
	v, _ := r.StructuredData[key].(string)
	return v
}
