package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	httpmiddleware "github.com/wellcare-clinic/clinicops/internal/http/middleware"
	"github.com/wellcare-clinic/clinicops/internal/patients"
)

type stubPatientsRepo struct{}

func (stubPatientsRepo) Create(context.Context, *patients.CreatePatientRequest) (*patients.Patient, error) {
	return &patients.Patient{ID: uuid.New()}, nil
}

func (stubPatientsRepo) GetByID(context.Context, string, uuid.UUID) (*patients.Patient, error) {
	return nil, patients.ErrPatientNotFound
}

func (stubPatientsRepo) Update(context.Context, string, uuid.UUID, *patients.UpdatePatientRequest) (*patients.Patient, error) {
	return nil, patients.ErrPatientNotFound
}

func (stubPatientsRepo) Archive(context.Context, string, uuid.UUID) error {
	return patients.ErrPatientNotFound
}

func (stubPatientsRepo) List(context.Context, string, patients.ListPatientsFilter) ([]*patients.Patient, error) {
	return nil, nil
}

func testRouter(t *testing.T) http.Handler {
	t.Helper()
	return New(&Config{
		PatientsHandler: patients.NewHandler(stubPatientsRepo{}, nil, nil),
		JWTSecret:       "router-test-secret",
		JWTIssuer:       "clinicops",
	})
}

func TestHealthIsPublic(t *testing.T) {
	rec := httptest.NewRecorder()
	testRouter(t).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAPIRequiresToken(t *testing.T) {
	rec := httptest.NewRecorder()
	testRouter(t).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/patients", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}
}

func TestAPIAcceptsValidToken(t *testing.T) {
	token, err := httpmiddleware.IssueToken("router-test-secret", "clinicops", "ada@wellcare.example", "org-1", "reception", time.Hour)
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/patients", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	testRouter(t).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with valid token, got %d", rec.Code)
	}
}

func TestUnknownRouteIs404(t *testing.T) {
	rec := httptest.NewRecorder()
	testRouter(t).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
