package records

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/phr/phr/internal/platform/auth"
	"github.com/phr/phr/pkg/errs"
	"github.com/phr/phr/pkg/pagination"
)

// Handler exposes the internal records API, the first of the two surfaces
// that enforce access through the shared gate.
type Handler struct {
	repo Repository
	gate *auth.Gate
}

func NewHandler(repo Repository, gate *auth.Gate) *Handler {
	return &Handler{repo: repo, gate: gate}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/records", h.List,
		auth.RequireRole(auth.RolePatient, auth.RoleDoctor),
		h.gate.Require(auth.ActionRead, targetFromQuery))
	api.GET("/records/:id", h.Get,
		auth.RequireRole(auth.RolePatient, auth.RoleDoctor))
}

// targetFromQuery extracts the target from query parameters: owner_id
// (defaults to the caller for patient self-access) and profile_id for a
// dependent subject.
func targetFromQuery(c echo.Context) (auth.Target, error) {
	actor, _ := auth.ActorFromContext(c.Request().Context())
	target := auth.Target{OwnerID: actor.ID}

	if v := c.QueryParam("owner_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return auth.Target{}, errors.New("invalid owner_id")
		}
		target.OwnerID = id
	}
	if v := c.QueryParam("profile_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return auth.Target{}, errors.New("invalid profile_id")
		}
		target.SubjectProfileID = &id
	}
	return target, nil
}

func (h *Handler) List(c echo.Context) error {
	target, err := targetFromQuery(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	pg := pagination.FromContext(c)

	items, total, err := h.repo.ListByOwner(c.Request().Context(), target.OwnerID, target.SubjectProfileID, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

// Get loads a record and authorizes against its actual owner. Non-owners
// get the same generic denial whether or not the id exists, so the endpoint
// cannot be used to probe for record ids.
func (h *Handler) Get(c echo.Context) error {
	actor, _ := auth.ActorFromContext(c.Request().Context())

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	rec, err := h.repo.GetByID(c.Request().Context(), id)
	if err != nil {
		var nf *errs.NotFoundError
		if errors.As(err, &nf) {
			if actor.Role == auth.RolePatient {
				return echo.NewHTTPError(http.StatusNotFound, "record not found")
			}
			return echo.NewHTTPError(http.StatusForbidden, "access denied")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	decision, err := h.gate.Authorize(c.Request().Context(), actor, auth.ActionRead,
		auth.Target{OwnerID: rec.OwnerID, SubjectProfileID: rec.ProfileID})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "authorization check failed")
	}
	if !decision.Allowed {
		// Same response a patient gets for a missing id, so a denied id
		// is indistinguishable from a nonexistent one.
		if actor.Role == auth.RolePatient {
			return echo.NewHTTPError(http.StatusNotFound, "record not found")
		}
		return echo.NewHTTPError(http.StatusForbidden, "access denied")
	}

	return c.JSON(http.StatusOK, rec)
}
