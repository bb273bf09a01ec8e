package invoicing

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/wellcare-clinic/clinicops/internal/invoicing/sequence"
	"github.com/wellcare-clinic/clinicops/internal/tenancy"
)

type stubRepo struct {
	createResp *Invoice
	createErr  error
	getResp    *Invoice
	getErr     error
	listResp   []*Invoice
	paidID     uuid.UUID
}

func (s *stubRepo) Create(_ context.Context, req *CreateInvoiceRequest) (*Invoice, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return s.createResp, s.createErr
}

func (s *stubRepo) GetByID(_ context.Context, _ string, _ uuid.UUID) (*Invoice, error) {
	return s.getResp, s.getErr
}

func (s *stubRepo) List(_ context.Context, _ string, _ ListInvoicesFilter) ([]*Invoice, error) {
	return s.listResp, nil
}

func (s *stubRepo) MarkPaid(_ context.Context, _ string, id uuid.UUID) (*Invoice, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	s.paidID = id
	return s.getResp, nil
}

func (s *stubRepo) Void(_ context.Context, _ string, _ uuid.UUID) (*Invoice, error) {
	return s.getResp, s.getErr
}

func orgRequest(method, target, body string) *http.Request {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	return req.WithContext(tenancy.WithOrgID(req.Context(), "org-1"))
}

func withInvoiceID(req *http.Request, id string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("invoiceID", id)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestCreateInvoiceHandler(t *testing.T) {
	inv := &Invoice{
		ID:         uuid.New(),
		OrgID:      "org-1",
		PatientID:  uuid.New(),
		Number:     "WC-2025-0007",
		Status:     StatusIssued,
		TotalCents: 5000,
	}
	handler := NewHandler(&stubRepo{createResp: inv}, nil, nil, nil, nil, nil)

	body := `{"patient_id":"` + inv.PatientID.String() + `","items":[{"description":"Visit","quantity":1,"unit_price_cents":5000}]}`
	rec := httptest.NewRecorder()
	handler.CreateInvoice(rec, orgRequest(http.MethodPost, "/invoices", body))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var got Invoice
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if got.Number != "WC-2025-0007" {
		t.Errorf("unexpected number: %s", got.Number)
	}
}

func TestCreateInvoiceRejectsEmptyItems(t *testing.T) {
	handler := NewHandler(&stubRepo{}, nil, nil, nil, nil, nil)

	body := `{"patient_id":"` + uuid.NewString() + `","items":[]}`
	rec := httptest.NewRecorder()
	handler.CreateInvoice(rec, orgRequest(http.MethodPost, "/invoices", body))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCreateInvoiceSequenceExhaustedIsConflict(t *testing.T) {
	handler := NewHandler(&stubRepo{createErr: sequence.ErrSequenceExhausted}, nil, nil, nil, nil, nil)

	body := `{"patient_id":"` + uuid.NewString() + `","items":[{"description":"Visit","quantity":1,"unit_price_cents":100}]}`
	rec := httptest.NewRecorder()
	handler.CreateInvoice(rec, orgRequest(http.MethodPost, "/invoices", body))

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for exhausted sequence, got %d", rec.Code)
	}
}

func TestCreateInvoiceMalformedNumberIsInternal(t *testing.T) {
	handler := NewHandler(&stubRepo{createErr: sequence.ErrMalformedNumber}, nil, nil, nil, nil, nil)

	body := `{"patient_id":"` + uuid.NewString() + `","items":[{"description":"Visit","quantity":1,"unit_price_cents":100}]}`
	rec := httptest.NewRecorder()
	handler.CreateInvoice(rec, orgRequest(http.MethodPost, "/invoices", body))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 for malformed number, got %d", rec.Code)
	}
}

func TestPayInvoice(t *testing.T) {
	id := uuid.New()
	repo := &stubRepo{getResp: &Invoice{ID: id, Status: StatusPaid}}
	handler := NewHandler(repo, nil, nil, nil, nil, nil)

	rec := httptest.NewRecorder()
	handler.PayInvoice(rec, withInvoiceID(orgRequest(http.MethodPost, "/invoices/"+id.String()+"/pay", ""), id.String()))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if repo.paidID != id {
		t.Fatalf("expected MarkPaid called with %s, got %s", id, repo.paidID)
	}
}

func TestPayInvoiceInvalidTransition(t *testing.T) {
	handler := NewHandler(&stubRepo{getErr: ErrInvalidTransition}, nil, nil, nil, nil, nil)

	id := uuid.NewString()
	rec := httptest.NewRecorder()
	handler.PayInvoice(rec, withInvoiceID(orgRequest(http.MethodPost, "/invoices/"+id+"/pay", ""), id))

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestGetInvoiceNotFound(t *testing.T) {
	handler := NewHandler(&stubRepo{getErr: ErrInvoiceNotFound}, nil, nil, nil, nil, nil)

	id := uuid.NewString()
	rec := httptest.NewRecorder()
	handler.GetInvoice(rec, withInvoiceID(orgRequest(http.MethodGet, "/invoices/"+id, ""), id))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestListInvoicesRejectsBadPatientID(t *testing.T) {
	handler := NewHandler(&stubRepo{}, nil, nil, nil, nil, nil)

	rec := httptest.NewRecorder()
	handler.ListInvoices(rec, orgRequest(http.MethodGet, "/invoices?patient_id=nope", ""))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
