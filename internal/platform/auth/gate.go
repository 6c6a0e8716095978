package auth

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/phr/phr/internal/platform/audit"
	"github.com/phr/phr/pkg/errs"
)

// Actions a caller can request on a subject's data.
const (
	ActionRead  = "read"
	ActionWrite = "write"
)

// Decision reason codes. Allowed decisions carry the rule that matched,
// denials carry a stable code the caller can surface.
const (
	ReasonSelfAccess    = "SELF_ACCESS"
	ReasonActiveConsent = "ACTIVE_CONSENT"
)

// Decision is the result of an authorization check.
type Decision struct {
	Allowed bool
	Reason  string
}

// Target identifies whose data is being requested. SubjectProfileID is nil
// for the account's primary profile and set for a dependent profile.
type Target struct {
	OwnerID          uuid.UUID
	SubjectProfileID *uuid.UUID
}

// ConsentChecker reports whether a doctor holds an active grant for a
// subject at a given instant. Implemented by the consent service; the
// interface lives here so the gate does not import the consent package.
type ConsentChecker interface {
	HasActiveGrant(ctx context.Context, ownerID uuid.UUID, subjectProfileID *uuid.UUID, doctorID uuid.UUID, at time.Time) (bool, error)
}

// Gate is the single authorization point for subject data. Both the internal
// records API and the FHIR interoperability surface funnel into Authorize;
// the surfaces differ only in how they extract the target from the request.
type Gate struct {
	consents ConsentChecker
	sink     audit.Sink
	logger   zerolog.Logger
	now      func() time.Time
}

func NewGate(consents ConsentChecker, sink audit.Sink, logger zerolog.Logger) *Gate {
	return &Gate{consents: consents, sink: sink, logger: logger, now: time.Now}
}

// Authorize decides whether the actor may perform action on the target's
// data right now. Rules, in order: a patient may only touch their own
// account's data (dependent profiles are sub-resources of the account); a
// doctor needs an active consent grant for the exact (owner, subject) pair;
// every other role is denied.
func (g *Gate) Authorize(ctx context.Context, actor Actor, action string, target Target) (Decision, error) {
	switch actor.Role {
	case RolePatient:
		if actor.ID == target.OwnerID {
			return Decision{Allowed: true, Reason: ReasonSelfAccess}, nil
		}
		return Decision{Reason: errs.ReasonForbidden}, nil

	case RoleDoctor:
		ok, err := g.consents.HasActiveGrant(ctx, target.OwnerID, target.SubjectProfileID, actor.ID, g.now())
		if err != nil {
			return Decision{}, err
		}
		if !ok {
			return Decision{Reason: errs.ReasonNoActiveConsent}, nil
		}
		g.recordAccess(ctx, actor, action, target)
		return Decision{Allowed: true, Reason: ReasonActiveConsent}, nil

	default:
		return Decision{Reason: errs.ReasonForbidden}, nil
	}
}

// recordAccess appends one audit entry for an allowed clinician access.
// Audit failure on a read path is logged, not propagated.
func (g *Gate) recordAccess(ctx context.Context, actor Actor, action string, target Target) {
	if g.sink == nil {
		return
	}
	actorID := actor.ID
	err := g.sink.Append(ctx, audit.Entry{
		ActorID:        &actorID,
		PatientOwnerID: target.OwnerID,
		Action:         audit.ActionRecordAccess,
		Resource:       "health_record",
		ResourceID:     target.SubjectProfileID,
		Purpose:        action,
	})
	if err != nil {
		g.logger.Error().Err(err).
			Str("actor_id", actor.ID.String()).
			Str("owner_id", target.OwnerID.String()).
			Msg("audit append failed for clinician access")
	}
}

// TargetExtractor pulls the target owner and subject profile out of a
// request. Each API surface supplies its own extractor so that the decision
// logic itself never forks per surface.
type TargetExtractor func(c echo.Context) (Target, error)

// Require returns echo middleware that authorizes the request against the
// gate and stores the decision reason in the context. Denials surface as a
// generic 403 without revealing whether the target exists.
func (g *Gate) Require(action string, extract TargetExtractor) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			actor, ok := ActorFromContext(c.Request().Context())
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "unauthenticated")
			}

			target, err := extract(c)
			if err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, err.Error())
			}

			decision, err := g.Authorize(c.Request().Context(), actor, action, target)
			if err != nil {
				return echo.NewHTTPError(http.StatusInternalServerError, "authorization check failed")
			}
			if !decision.Allowed {
				g.logger.Info().
					Str("actor_id", actor.ID.String()).
					Str("role", actor.Role).
					Str("owner_id", target.OwnerID.String()).
					Str("reason", decision.Reason).
					Msg("access denied")
				return echo.NewHTTPError(http.StatusForbidden, map[string]string{
					"error":  "access denied",
					"reason": decision.Reason,
				})
			}

			c.Set("authz_reason", decision.Reason)
			return next(c)
		}
	}
}
