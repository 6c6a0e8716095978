// Package interop exposes the external FHIR R4 surface. It is a thin read
// layer: authorization goes through the same gate as the internal API, and
// resource mapping is delegated to the platform fhir package.
package interop

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/phr/phr/internal/domain/profile"
	"github.com/phr/phr/internal/platform/auth"
	"github.com/phr/phr/internal/platform/fhir"
	"github.com/phr/phr/pkg/errs"
)

const fhirMIME = "application/fhir+json"

type Handler struct {
	profiles profile.Repository
	gate     *auth.Gate
}

func NewHandler(profiles profile.Repository, gate *auth.Gate) *Handler {
	return &Handler{profiles: profiles, gate: gate}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/Patient/:id/$summary", h.PatientSummary,
		auth.RequireRole(auth.RolePatient, auth.RoleDoctor),
		h.gate.Require(auth.ActionRead, targetFromPath))
}

// targetFromPath reads the target owner from the Patient path segment.
func targetFromPath(c echo.Context) (auth.Target, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return auth.Target{}, errors.New("invalid patient id")
	}
	return auth.Target{OwnerID: id}, nil
}

// PatientSummary returns the patient's current clinical basics as a FHIR
// collection Bundle. Unlike an emergency snapshot this is live data, mapped
// at request time.
func (h *Handler) PatientSummary(c echo.Context) error {
	target, err := targetFromPath(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	p, err := h.profiles.GetPrimaryByAccount(c.Request().Context(), target.OwnerID)
	if err != nil {
		var nf *errs.NotFoundError
		if errors.As(err, &nf) {
			return echo.NewHTTPError(http.StatusNotFound, "Patient not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	bundle := fhir.SummaryBundle(fhir.PatientSummary{
		PatientID:   p.AccountID.String(),
		PatientName: p.FullName,
		BloodGroup:  p.BloodGroup,
		Allergies:   profile.SplitList(p.Allergies),
		Conditions:  profile.SplitList(p.ChronicConditions),
		Medications: profile.SplitList(p.CurrentMedications),
		CreatedAt:   p.UpdatedAt,
	})

	c.Response().Header().Set(echo.HeaderContentType, fhirMIME)
	return c.JSON(http.StatusOK, bundle)
}
