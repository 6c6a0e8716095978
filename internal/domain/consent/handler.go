package consent

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/phr/phr/internal/platform/auth"
	"github.com/phr/phr/pkg/errs"
	"github.com/phr/phr/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/consents", h.Grant, auth.RequireRole(auth.RolePatient))
	api.POST("/consents/:id/revoke", h.Revoke, auth.RequireRole(auth.RolePatient))
	api.GET("/consents", h.List, auth.RequireRole(auth.RolePatient, auth.RoleDoctor))
}

type grantRequest struct {
	DoctorID         uuid.UUID  `json:"doctor_id"`
	SubjectProfileID *uuid.UUID `json:"subject_profile_id,omitempty"`
	ValidUntil       time.Time  `json:"valid_until"`
}

// Grant creates a consent for the authenticated patient. The validity
// window starts now; the request only names its end.
func (h *Handler) Grant(c echo.Context) error {
	actor, _ := auth.ActorFromContext(c.Request().Context())

	var req grantRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	now := time.Now()
	consent, err := h.svc.Grant(c.Request().Context(), actor.ID, req.SubjectProfileID, req.DoctorID, now, req.ValidUntil)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, consent)
}

func (h *Handler) Revoke(c echo.Context) error {
	actor, _ := auth.ActorFromContext(c.Request().Context())

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	consent, err := h.svc.Revoke(c.Request().Context(), id, actor.ID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, consent)
}

// List shows the caller's side of the ledger: patients see grants they
// issued, doctors see grants issued to them.
func (h *Handler) List(c echo.Context) error {
	actor, _ := auth.ActorFromContext(c.Request().Context())
	pg := pagination.FromContext(c)

	var (
		items []*Consent
		total int
		err   error
	)
	switch actor.Role {
	case auth.RoleDoctor:
		items, total, err = h.svc.ListForDoctor(c.Request().Context(), actor.ID, pg.Limit, pg.Offset)
	default:
		items, total, err = h.svc.ListForPatient(c.Request().Context(), actor.ID, pg.Limit, pg.Offset)
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

// httpError maps ledger errors onto HTTP status codes.
func httpError(err error) error {
	var (
		vErr *errs.ValidationError
		nErr *errs.NotFoundError
		aErr *errs.AuthorizationError
	)
	switch {
	case errors.As(err, &vErr):
		return echo.NewHTTPError(http.StatusBadRequest, vErr.Error())
	case errors.As(err, &nErr):
		return echo.NewHTTPError(http.StatusNotFound, nErr.Error())
	case errors.As(err, &aErr):
		return echo.NewHTTPError(http.StatusForbidden, "access denied")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
