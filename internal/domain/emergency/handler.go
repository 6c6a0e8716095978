package emergency

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/phr/phr/internal/platform/auth"
	"github.com/phr/phr/pkg/errs"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes wires both surfaces: the authenticated generation endpoint
// under the API group and the public, unauthenticated resolve endpoint.
func (h *Handler) RegisterRoutes(api *echo.Group, public *echo.Group) {
	api.POST("/emergency-access", h.Generate, auth.RequireRole(auth.RolePatient))
	public.GET("/emergency/:secret", h.Resolve)
}

type generateRequest struct {
	ProfileID *uuid.UUID `json:"profile_id,omitempty"`
}

// generateResponse carries the plaintext secret together with a resolve URL
// the caller can embed in a QR code or wallet card as-is.
type generateResponse struct {
	Secret     string    `json:"secret"`
	ExpiresAt  time.Time `json:"expires_at"`
	ResolveURL string    `json:"resolve_url"`
}

func (h *Handler) Generate(c echo.Context) error {
	actor, ok := auth.ActorFromContext(c.Request().Context())
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthenticated")
	}

	var req generateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	result, err := h.svc.Generate(c.Request().Context(), actor.ID, req.ProfileID)
	if err != nil {
		var (
			ve *errs.ValidationError
			nf *errs.NotFoundError
			ae *errs.AuthorizationError
		)
		switch {
		case errors.As(err, &ve):
			return echo.NewHTTPError(http.StatusBadRequest, ve.Error())
		case errors.As(err, &nf):
			return echo.NewHTTPError(http.StatusNotFound, nf.Error())
		case errors.As(err, &ae):
			return echo.NewHTTPError(http.StatusForbidden, "access denied")
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.JSON(http.StatusCreated, generateResponse{
		Secret:     result.Secret,
		ExpiresAt:  result.ExpiresAt,
		ResolveURL: c.Scheme() + "://" + c.Request().Host + "/emergency/" + result.Secret,
	})
}

// Resolve is the public emergency endpoint. Unknown and expired secrets get
// byte-identical 404 responses so the endpoint leaks nothing about whether a
// secret was ever issued.
func (h *Handler) Resolve(c echo.Context) error {
	view, err := h.svc.Resolve(c.Request().Context(), c.Param("secret"))
	if err != nil {
		var (
			nf *errs.NotFoundError
			ex *errs.ExpiredError
		)
		if errors.As(err, &nf) || errors.As(err, &ex) {
			return echo.NewHTTPError(http.StatusNotFound, "not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, view)
}
