package patients

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/wellcare-clinic/clinicops/internal/compliance"
	"github.com/wellcare-clinic/clinicops/internal/tenancy"
	"github.com/wellcare-clinic/clinicops/pkg/logging"
)

// Handler handles HTTP requests for patients
type Handler struct {
	repo   Repository
	audit  *compliance.AuditService
	logger *logging.Logger
}

// NewHandler creates a new patients handler
func NewHandler(repo Repository, audit *compliance.AuditService, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, audit: audit, logger: logger}
}

// CreatePatient handles POST /patients requests
func (h *Handler) CreatePatient(w http.ResponseWriter, r *http.Request) {
	var req CreatePatientRequest
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

	patient, err := h.repo.Create(r.Context(), &req)
	if err != nil {
		h.logger.Error("failed to create patient", "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.logger.Info("patient created", "id", patient.ID, "org_id", orgID)
	if err := h.audit.LogEvent(r.Context(), compliance.AuditEvent{
		EventType: compliance.EventPatientCreated,
		OrgID:     orgID,
		EntityID:  patient.ID.String(),
	}); err != nil {
		h.logger.Error("failed to write audit event", "error", err)
	}

	writeJSON(w, http.StatusCreated, patient)
}

// GetPatient handles GET /patients/{patientID}
func (h *Handler) GetPatient(w http.ResponseWriter, r *http.Request) {
	orgID, id, ok := h.orgAndID(w, r)
	if !ok {
		return
	}

	patient, err := h.repo.GetByID(r.Context(), orgID, id)
	if err != nil {
		if errors.Is(err, ErrPatientNotFound) {
			http.Error(w, "patient not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to load patient", "error", err, "id", id)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, patient)
}

// UpdatePatient handles PUT /patients/{patientID}
func (h *Handler) UpdatePatient(w http.ResponseWriter, r *http.Request) {
	orgID, id, ok := h.orgAndID(w, r)
	if !ok {
		return
	}

	var req UpdatePatientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	patient, err := h.repo.Update(r.Context(), orgID, id, &req)
	if err != nil {
		if errors.Is(err, ErrPatientNotFound) {
			http.Error(w, "patient not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to update patient", "error", err, "id", id)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	if err := h.audit.LogEvent(r.Context(), compliance.AuditEvent{
		EventType: compliance.EventPatientUpdated,
		OrgID:     orgID,
		EntityID:  id.String(),
	}); err != nil {
		h.logger.Error("failed to write audit event", "error", err)
	}
	writeJSON(w, http.StatusOK, patient)
}

// ArchivePatient handles DELETE /patients/{patientID}
func (h *Handler) ArchivePatient(w http.ResponseWriter, r *http.Request) {
	orgID, id, ok := h.orgAndID(w, r)
	if !ok {
		return
	}

	if err := h.repo.Archive(r.Context(), orgID, id); err != nil {
		if errors.Is(err, ErrPatientNotFound) {
			http.Error(w, "patient not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to archive patient", "error", err, "id", id)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	if err := h.audit.LogEvent(r.Context(), compliance.AuditEvent{
		EventType: compliance.EventPatientArchived,
		OrgID:     orgID,
		EntityID:  id.String(),
	}); err != nil {
		h.logger.Error("failed to write audit event", "error", err)
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListPatientsResponse is the response for listing patients
type ListPatientsResponse struct {
	Patients []*Patient `json:"patients"`
	Count    int        `json:"count"`
	Offset   int        `json:"offset"`
	Limit    int        `json:"limit"`
}

// ListPatients handles GET /patients requests
func (h *Handler) ListPatients(w http.ResponseWriter, r *http.Request) {
	orgID, ok := tenancy.OrgIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing org context", http.StatusBadRequest)
		return
	}

	filter := ListPatientsFilter{Limit: 50, Offset: 0}
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
	filter.Search = r.URL.Query().Get("q")
	filter.IncludeArchived = r.URL.Query().Get("include_archived") == "true"

	list, err := h.repo.List(r.Context(), orgID, filter)
	if err != nil {
		h.logger.Error("failed to list patients", "error", err, "org_id", orgID)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, ListPatientsResponse{
		Patients: list,
		Count:    len(list),
		Offset:   filter.Offset,
		Limit:    filter.Limit,
	})
}

func (h *Handler) orgAndID(w http.ResponseWriter, r *http.Request) (string, uuid.UUID, bool) {
	orgID, ok := tenancy.OrgIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing org context", http.StatusBadRequest)
		return "", uuid.Nil, false
	}
	id, err := uuid.Parse(chi.URLParam(r, "patientID"))
	if err != nil {
		http.Error(w, "invalid patient id", http.StatusBadRequest)
		return "", uuid.Nil, false
	}
	return orgID, id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
