package appointments

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/wellcare-clinic/clinicops/internal/tenancy"
	"github.com/wellcare-clinic/clinicops/pkg/logging"
)

// Handler handles HTTP requests for appointments
type Handler struct {
	repo   Repository
	logger *logging.Logger
}

// NewHandler creates a new appointments handler
func NewHandler(repo Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, logger: logger}
}

// BookAppointment handles POST /appointments requests
func (h *Handler) BookAppointment(w http.ResponseWriter, r *http.Request) {
	var req BookAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	orgID, ok := tenancy.OrgIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing org context", http.StatusBadRequest)
		return
	}
	req.OrgID = orgID

	appt, err := h.repo.Book(r.Context(), &req)
	if err != nil {
		if errors.Is(err, ErrSlotTaken) {
			http.Error(w, "practitioner slot already booked", http.StatusConflict)
			return
		}
		h.logger.Error("failed to book appointment", "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.logger.Info("appointment booked", "id", appt.ID, "practitioner_id", appt.PractitionerID, "starts_at", appt.StartsAt)
	writeJSON(w, http.StatusCreated, appt)
}

// GetAppointment handles GET /appointments/{appointmentID}
func (h *Handler) GetAppointment(w http.ResponseWriter, r *http.Request) {
	orgID, id, ok := h.orgAndID(w, r)
	if !ok {
		return
	}

	appt, err := h.repo.GetByID(r.Context(), orgID, id)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			http.Error(w, "appointment not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to load appointment", "error", err, "id", id)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

// RescheduleAppointment handles POST /appointments/{appointmentID}/reschedule
func (h *Handler) RescheduleAppointment(w http.ResponseWriter, r *http.Request) {
	orgID, id, ok := h.orgAndID(w, r)
	if !ok {
		return
	}

	var req RescheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	appt, err := h.repo.Reschedule(r.Context(), orgID, id, &req)
	if err != nil {
		h.writeOpError(w, err, id)
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

// CancelAppointment handles POST /appointments/{appointmentID}/cancel
func (h *Handler) CancelAppointment(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, StatusCancelled)
}

// CompleteAppointment handles POST /appointments/{appointmentID}/complete
func (h *Handler) CompleteAppointment(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, StatusCompleted)
}

// MarkNoShow handles POST /appointments/{appointmentID}/no-show
func (h *Handler) MarkNoShow(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, StatusNoShow)
}

func (h *Handler) setStatus(w http.ResponseWriter, r *http.Request, status string) {
	orgID, id, ok := h.orgAndID(w, r)
	if !ok {
		return
	}

	appt, err := h.repo.SetStatus(r.Context(), orgID, id, status)
	if err != nil {
		h.writeOpError(w, err, id)
		return
	}
	h.logger.Info("appointment status changed", "id", id, "status", status)
	writeJSON(w, http.StatusOK, appt)
}

// ListAppointmentsResponse is the response for listing appointments
type ListAppointmentsResponse struct {
	Appointments []*Appointment `json:"appointments"`
	Count        int            `json:"count"`
	Offset       int            `json:"offset"`
	Limit        int            `json:"limit"`
}

// ListAppointments handles GET /appointments requests
func (h *Handler) ListAppointments(w http.ResponseWriter, r *http.Request) {
	orgID, ok := tenancy.OrgIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing org context", http.StatusBadRequest)
		return
	}

	filter := ListAppointmentsFilter{Limit: 50, Offset: 0}
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
	if pid := r.URL.Query().Get("practitioner_id"); pid != "" {
		id, err := uuid.Parse(pid)
		if err != nil {
			http.Error(w, "invalid practitioner_id", http.StatusBadRequest)
			return
		}
		filter.PractitionerID = id
	}
	if pid := r.URL.Query().Get("patient_id"); pid != "" {
		id, err := uuid.Parse(pid)
		if err != nil {
			http.Error(w, "invalid patient_id", http.StatusBadRequest)
			return
		}
		filter.PatientID = id
	}
	if day := r.URL.Query().Get("day"); day != "" {
		parsed, err := time.Parse("2006-01-02", day)
		if err != nil {
			http.Error(w, "invalid day, expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		filter.Day = &parsed
	}

	list, err := h.repo.List(r.Context(), orgID, filter)
	if err != nil {
		h.logger.Error("failed to list appointments", "error", err, "org_id", orgID)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, ListAppointmentsResponse{
		Appointments: list,
		Count:        len(list),
		Offset:       filter.Offset,
		Limit:        filter.Limit,
	})
}

func (h *Handler) writeOpError(w http.ResponseWriter, err error, id uuid.UUID) {
	switch {
	case errors.Is(err, ErrAppointmentNotFound):
		http.Error(w, "appointment not found", http.StatusNotFound)
	case errors.Is(err, ErrSlotTaken):
		http.Error(w, "practitioner slot already booked", http.StatusConflict)
	case errors.Is(err, ErrNotReschedulable):
		http.Error(w, "appointment is no longer scheduled", http.StatusConflict)
	default:
		h.logger.Error("appointment operation failed", "error", err, "id", id)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func (h *Handler) orgAndID(w http.ResponseWriter, r *http.Request) (string, uuid.UUID, bool) {
	orgID, ok := tenancy.OrgIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing org context", http.StatusBadRequest)
		return "", uuid.Nil, false
	}
	id, err := uuid.Parse(chi.URLParam(r, "appointmentID"))
	if err != nil {
		http.Error(w, "invalid appointment id", http.StatusBadRequest)
		return "", uuid.Nil, false
	}
	return orgID, id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
