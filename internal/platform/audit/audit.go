// Package audit provides the append-only audit trail for consent mutations
// and clinician data access. The sink is write-only: nothing in the core
// reads audit entries back.
package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/phr/phr/internal/platform/db"
)

// Audit actions recorded by the core.
const (
	ActionConsentGrant    = "consent-grant"
	ActionConsentRevoke   = "consent-revoke"
	ActionRecordAccess    = "record-access"
	ActionSnapshotCreate  = "snapshot-create"
	ActionSnapshotResolve = "snapshot-resolve"
)

// Entry is a single audit trail item. ActorID is empty for unauthenticated
// actors (emergency responders resolving a snapshot).
type Entry struct {
	ID             uuid.UUID  `json:"id"`
	ActorID        *uuid.UUID `json:"actor_id,omitempty"`
	PatientOwnerID uuid.UUID  `json:"patient_owner_id"`
	Action         string     `json:"action"`
	Resource       string     `json:"resource"`
	ResourceID     *uuid.UUID `json:"resource_id,omitempty"`
	Purpose        string     `json:"purpose,omitempty"`
	Outcome        string     `json:"outcome"`
	RecordedAt     time.Time  `json:"recorded_at"`
}

// Sink receives audit entries. Implementations must be append-only.
type Sink interface {
	Append(ctx context.Context, e Entry) error
}

// PGSink writes audit entries to the audit_entry table.
type PGSink struct {
	pool *pgxpool.Pool
}

func NewPGSink(pool *pgxpool.Pool) *PGSink {
	return &PGSink{pool: pool}
}

func (s *PGSink) Append(ctx context.Context, e Entry) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.RecordedAt.IsZero() {
		e.RecordedAt = time.Now().UTC()
	}
	if e.Outcome == "" {
		e.Outcome = "success"
	}

	const query = `
		INSERT INTO audit_entry (id, actor_id, patient_owner_id, action, resource, resource_id, purpose, outcome, recorded_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`

	if conn := db.ConnFromContext(ctx); conn != nil {
		_, err := conn.Exec(ctx, query,
			e.ID, e.ActorID, e.PatientOwnerID, e.Action, e.Resource, e.ResourceID, e.Purpose, e.Outcome, e.RecordedAt)
		return err
	}

	_, err := s.pool.Exec(ctx, query,
		e.ID, e.ActorID, e.PatientOwnerID, e.Action, e.Resource, e.ResourceID, e.Purpose, e.Outcome, e.RecordedAt)
	if err != nil {
		return fmt.Errorf("audit append: %w", err)
	}
	return nil
}

// LogSink writes audit entries to a zerolog logger. Used in development and
// as the fallback when no database-backed sink is configured.
type LogSink struct {
	logger zerolog.Logger
}

func NewLogSink(logger zerolog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Append(_ context.Context, e Entry) error {
	evt := s.logger.Info().
		Str("patient_owner_id", e.PatientOwnerID.String()).
		Str("action", e.Action).
		Str("resource", e.Resource).
		Str("outcome", e.Outcome)
	if e.ActorID != nil {
		evt = evt.Str("actor_id", e.ActorID.String())
	}
	if e.ResourceID != nil {
		evt = evt.Str("resource_id", e.ResourceID.String())
	}
	if e.Purpose != "" {
		evt = evt.Str("purpose", e.Purpose)
	}
	evt.Msg("audit")
	return nil
}
