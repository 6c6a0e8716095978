package emergency

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/phr/phr/internal/platform/auth"
)

func newTestServer(svc *Service) *echo.Echo {
	e := echo.New()
	h := NewHandler(svc)
	h.RegisterRoutes(e.Group("/api/v1"), e.Group(""))
	return e
}

func doRequest(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func asPatient(req *http.Request, id uuid.UUID) *http.Request {
	ctx := auth.WithActor(req.Context(), auth.Actor{ID: id, Role: auth.RolePatient})
	return req.WithContext(ctx)
}

func TestGenerateEndpoint(t *testing.T) {
	accountID := uuid.New()
	svc, _, _ := newTestService(t, accountID)
	e := newTestServer(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/emergency-access", strings.NewReader(`{}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := doRequest(e, asPatient(req, accountID))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var result generateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.Secret == "" {
		t.Error("response missing secret")
	}
	if !result.ExpiresAt.After(time.Now()) {
		t.Error("expiry must be in the future")
	}
	if !strings.HasSuffix(result.ResolveURL, "/emergency/"+result.Secret) {
		t.Errorf("resolve_url = %q, want it to end with the resolve path", result.ResolveURL)
	}
	if !strings.HasPrefix(result.ResolveURL, "http") {
		t.Errorf("resolve_url = %q, want an absolute URL", result.ResolveURL)
	}
}

func TestGenerateRequiresPatientRole(t *testing.T) {
	svc, _, _ := newTestService(t, uuid.New())
	e := newTestServer(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/emergency-access", strings.NewReader(`{}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	ctx := auth.WithActor(req.Context(), auth.Actor{ID: uuid.New(), Role: auth.RoleDoctor})
	rec := doRequest(e, req.WithContext(ctx))

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}

func TestResolveEndpoint(t *testing.T) {
	accountID := uuid.New()
	svc, _, _ := newTestService(t, accountID)
	e := newTestServer(svc)

	result, err := svc.Generate(context.Background(), accountID, nil)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	rec := doRequest(e, httptest.NewRequest(http.MethodGet, "/emergency/"+result.Secret, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var view View
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if view.PatientName != "Jane Roe" {
		t.Errorf("patient name = %q", view.PatientName)
	}
	if strings.Contains(rec.Body.String(), digestOf(result.Secret)) {
		t.Error("response leaks the token digest")
	}
}

// Unknown and expired secrets must be indistinguishable from the outside.
func TestResolveUnknownAndExpiredLookIdentical(t *testing.T) {
	accountID := uuid.New()
	svc, _, _ := newTestService(t, accountID)
	e := newTestServer(svc)

	result, err := svc.Generate(context.Background(), accountID, nil)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	svc.now = func() time.Time { return result.ExpiresAt.Add(time.Minute) }

	unknown := doRequest(e, httptest.NewRequest(http.MethodGet, "/emergency/never-issued", nil))
	expired := doRequest(e, httptest.NewRequest(http.MethodGet, "/emergency/"+result.Secret, nil))

	if unknown.Code != http.StatusNotFound || expired.Code != http.StatusNotFound {
		t.Fatalf("status codes = %d, %d, want 404 for both", unknown.Code, expired.Code)
	}
	if unknown.Body.String() != expired.Body.String() {
		t.Errorf("bodies differ: %q vs %q", unknown.Body.String(), expired.Body.String())
	}
}
