package invoicing

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/wellcare-clinic/clinicops/internal/compliance"
	"github.com/wellcare-clinic/clinicops/internal/invoicing/sequence"
	"github.com/wellcare-clinic/clinicops/internal/notify"
	"github.com/wellcare-clinic/clinicops/internal/observability/metrics"
	"github.com/wellcare-clinic/clinicops/internal/patients"
	"github.com/wellcare-clinic/clinicops/internal/tenancy"
	"github.com/wellcare-clinic/clinicops/pkg/logging"
)

// patientDirectory is the slice of the patients repository the handler needs
// to address invoice receipts.
type patientDirectory interface {
	GetByID(ctx context.Context, orgID string, id uuid.UUID) (*patients.Patient, error)
}

// Handler handles HTTP requests for invoices
type Handler struct {
	repo     Repository
	patients patientDirectory
	notifier *notify.Service
	audit    *compliance.AuditService
	metrics  *metrics.InvoicingMetrics
	logger   *logging.Logger
}

// NewHandler creates a new invoicing handler. Notifier, audit, and metrics
// are optional.
func NewHandler(repo Repository, patientDir patientDirectory, notifier *notify.Service, audit *compliance.AuditService, m *metrics.InvoicingMetrics, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		repo:     repo,
		patients: patientDir,
		notifier: notifier,
		audit:    audit,
		metrics:  m,
		logger:   logger,
	}
}

// CreateInvoice handles POST /invoices requests
func (h *Handler) CreateInvoice(w http.ResponseWriter, r *http.Request) {
	var req CreateInvoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode request", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	orgID, ok := tenancy.OrgIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing org context", http.StatusBadRequest)
		return
	}
	req.OrgID = orgID

	start := time.Now()
	inv, err := h.repo.Create(r.Context(), &req)
	h.metrics.ObserveCreateLatency(time.Since(start).Seconds())
	if err != nil {
		h.metrics.ObserveFailure(failureReason(err))
		switch {
		case errors.Is(err, sequence.ErrSequenceExhausted):
			h.logger.Error("invoice sequence exhausted", "org_id", orgID)
			http.Error(w, "invoice sequence exhausted for this year", http.StatusConflict)
		case errors.Is(err, sequence.ErrMalformedNumber), errors.Is(err, sequence.ErrNoTransaction):
			h.logger.Error("invoice numbering bug", "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
		default:
			h.logger.Error("failed to create invoice", "error", err)
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
		return
	}

	parsed, perr := sequence.Parse(inv.Number)
	if perr == nil {
		h.metrics.ObserveIssued(parsed.Partition)
	}
	h.logger.Info("invoice issued", "number", inv.Number, "org_id", orgID, "total_cents", inv.TotalCents)

	if err := h.audit.LogInvoiceIssued(r.Context(), orgID, actorFrom(r), inv.ID.String(), inv.Number, inv.TotalCents); err != nil {
		h.logger.Error("failed to write audit event", "error", err)
	}
	h.sendReceipt(r.Context(), inv)

	writeJSON(w, http.StatusCreated, inv)
}

// GetInvoice handles GET /invoices/{invoiceID}
func (h *Handler) GetInvoice(w http.ResponseWriter, r *http.Request) {
	orgID, id, ok := h.orgAndID(w, r)
	if !ok {
		return
	}

	inv, err := h.repo.GetByID(r.Context(), orgID, id)
	if err != nil {
		if errors.Is(err, ErrInvoiceNotFound) {
			http.Error(w, "invoice not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to load invoice", "error", err, "id", id)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

// ListInvoicesResponse is the response for listing invoices
type ListInvoicesResponse struct {
	Invoices []*Invoice `json:"invoices"`
	Count    int        `json:"count"`
	Offset   int        `json:"offset"`
	Limit    int        `json:"limit"`
}

// ListInvoices handles GET /invoices requests
func (h *Handler) ListInvoices(w http.ResponseWriter, r *http.Request) {
	orgID, ok := tenancy.OrgIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing org context", http.StatusBadRequest)
		return
	}

	filter := ListInvoicesFilter{Limit: 50, Offset: 0}
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 && limit <= 100 {
			filter.Limit = limit
		}
	}
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil && offset >= 0 {
			filter.Offset = offset
		}
	}
	if patientStr := r.URL.Query().Get("patient_id"); patientStr != "" {
		id, err := uuid.Parse(patientStr)
		if err != nil {
			http.Error(w, "invalid patient_id", http.StatusBadRequest)
			return
		}
		filter.PatientID = id
	}
	filter.Status = r.URL.Query().Get("status")

	list, err := h.repo.List(r.Context(), orgID, filter)
	if err != nil {
		h.logger.Error("failed to list invoices", "error", err, "org_id", orgID)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, ListInvoicesResponse{
		Invoices: list,
		Count:    len(list),
		Offset:   filter.Offset,
		Limit:    filter.Limit,
	})
}

// PayInvoice handles POST /invoices/{invoiceID}/pay
func (h *Handler) PayInvoice(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.repo.MarkPaid, compliance.EventInvoicePaid)
}

// VoidInvoice handles POST /invoices/{invoiceID}/void
func (h *Handler) VoidInvoice(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.repo.Void, compliance.EventInvoiceVoided)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, op func(context.Context, string, uuid.UUID) (*Invoice, error), event compliance.AuditEventType) {
	orgID, id, ok := h.orgAndID(w, r)
	if !ok {
		return
	}

	inv, err := op(r.Context(), orgID, id)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvoiceNotFound):
			http.Error(w, "invoice not found", http.StatusNotFound)
		case errors.Is(err, ErrInvalidTransition):
			http.Error(w, "invalid invoice status transition", http.StatusConflict)
		default:
			h.logger.Error("invoice transition failed", "error", err, "id", id)
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
		return
	}

	if err := h.audit.LogInvoiceTransition(r.Context(), event, orgID, actorFrom(r), id.String()); err != nil {
		h.logger.Error("failed to write audit event", "error", err)
	}
	writeJSON(w, http.StatusOK, inv)
}

// sendReceipt emails the patient; failures are logged, never surfaced.
func (h *Handler) sendReceipt(ctx context.Context, inv *Invoice) {
	if h.notifier == nil || h.patients == nil {
		return
	}
	patient, err := h.patients.GetByID(ctx, inv.OrgID, inv.PatientID)
	if err != nil {
		h.logger.Error("failed to load patient for receipt", "error", err, "invoice", inv.Number)
		return
	}
	_ = h.notifier.SendInvoiceReceipt(ctx, patient.Email, patient.FullName(), inv.Number, inv.TotalCents)
}

func (h *Handler) orgAndID(w http.ResponseWriter, r *http.Request) (string, uuid.UUID, bool) {
	orgID, ok := tenancy.OrgIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing org context", http.StatusBadRequest)
		return "", uuid.Nil, false
	}
	id, err := uuid.Parse(chi.URLParam(r, "invoiceID"))
	if err != nil {
		http.Error(w, "invalid invoice id", http.StatusBadRequest)
		return "", uuid.Nil, false
	}
	return orgID, id, true
}

func actorFrom(r *http.Request) string {
	actor, _ := tenancy.ActorFromContext(r.Context())
	return actor
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, sequence.ErrSequenceExhausted):
		return "exhausted"
	case errors.Is(err, sequence.ErrMalformedNumber):
		return "malformed"
	case errors.Is(err, sequence.ErrNoTransaction):
		return "no_transaction"
	default:
		return "storage"
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
