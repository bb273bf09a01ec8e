package patients

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/wellcare-clinic/clinicops/internal/tenancy"
)

type stubRepo struct {
	created  *CreatePatientRequest
	patient  *Patient
	getErr   error
	listResp []*Patient
}

func (s *stubRepo) Create(_ context.Context, req *CreatePatientRequest) (*Patient, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	s.created = req
	return &Patient{ID: uuid.New(), OrgID: req.OrgID, FirstName: req.FirstName, LastName: req.LastName}, nil
}

func (s *stubRepo) GetByID(_ context.Context, _ string, _ uuid.UUID) (*Patient, error) {
	return s.patient, s.getErr
}

func (s *stubRepo) Update(_ context.Context, _ string, _ uuid.UUID, _ *UpdatePatientRequest) (*Patient, error) {
	return s.patient, s.getErr
}

func (s *stubRepo) Archive(_ context.Context, _ string, _ uuid.UUID) error {
	return s.getErr
}

func (s *stubRepo) List(_ context.Context, _ string, _ ListPatientsFilter) ([]*Patient, error) {
	return s.listResp, nil
}

func TestCreatePatientHandler(t *testing.T) {
	repo := &stubRepo{}
	handler := NewHandler(repo, nil, nil)

	body := `{"first_name":"Dana","last_name":"Reyes","email":"dana@example.com"}`
	req := httptest.NewRequest(http.MethodPost, "/patients", strings.NewReader(body))
	req = req.WithContext(tenancy.WithOrgID(req.Context(), "org-1"))
	rec := httptest.NewRecorder()

	handler.CreatePatient(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if repo.created == nil || repo.created.OrgID != "org-1" {
		t.Fatalf("expected org id injected from context, got %#v", repo.created)
	}
	var got Patient
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if got.FirstName != "Dana" {
		t.Errorf("unexpected response: %#v", got)
	}
}

func TestCreatePatientRequiresOrgContext(t *testing.T) {
	handler := NewHandler(&stubRepo{}, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/patients", strings.NewReader(`{"first_name":"A","last_name":"B","email":"a@b.c"}`))
	rec := httptest.NewRecorder()

	handler.CreatePatient(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without org context, got %d", rec.Code)
	}
}

func TestGetPatientNotFound(t *testing.T) {
	handler := NewHandler(&stubRepo{getErr: ErrPatientNotFound}, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/patients/"+uuid.NewString(), nil)
	req = req.WithContext(tenancy.WithOrgID(req.Context(), "org-1"))
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("patientID", uuid.NewString())
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	rec := httptest.NewRecorder()

	handler.GetPatient(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestGetPatientRejectsBadID(t *testing.T) {
	handler := NewHandler(&stubRepo{}, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/patients/not-a-uuid", nil)
	req = req.WithContext(tenancy.WithOrgID(req.Context(), "org-1"))
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("patientID", "not-a-uuid")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	rec := httptest.NewRecorder()

	handler.GetPatient(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid uuid, got %d", rec.Code)
	}
}

func TestListPatientsResponseShape(t *testing.T) {
	repo := &stubRepo{listResp: []*Patient{{ID: uuid.New(), FirstName: "Dana"}}}
	handler := NewHandler(repo, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/patients?limit=10", nil)
	req = req.WithContext(tenancy.WithOrgID(req.Context(), "org-1"))
	rec := httptest.NewRecorder()

	handler.ListPatients(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp ListPatientsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if resp.Count != 1 || resp.Limit != 10 {
		t.Fatalf("unexpected response: %+v", resp)
	}
}
