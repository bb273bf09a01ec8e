package shifts

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

// Handler handles HTTP requests for the shift roster
type Handler struct {
	repo   Repository
	logger *logging.Logger
}

// NewHandler creates a new shifts handler
func NewHandler(repo Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, logger: logger}
}

// CreateShift handles POST /shifts requests
func (h *Handler) CreateShift(w http.ResponseWriter, r *http.Request) {
	var req CreateShiftRequest
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

	shift, err := h.repo.Create(r.Context(), &req)
	if err != nil {
		if errors.Is(err, ErrShiftOverlap) {
			http.Error(w, "overlapping shift exists", http.StatusConflict)
			return
		}
		h.logger.Error("failed to create shift", "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.logger.Info("shift rostered", "id", shift.ID, "staff_id", shift.StaffID)
	writeJSON(w, http.StatusCreated, shift)
}

// DeleteShift handles DELETE /shifts/{shiftID}
func (h *Handler) DeleteShift(w http.ResponseWriter, r *http.Request) {
	orgID, ok := tenancy.OrgIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing org context", http.StatusBadRequest)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "shiftID"))
	if err != nil {
		http.Error(w, "invalid shift id", http.StatusBadRequest)
		return
	}

	if err := h.repo.Delete(r.Context(), orgID, id); err != nil {
		if errors.Is(err, ErrShiftNotFound) {
			http.Error(w, "shift not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to delete shift", "error", err, "id", id)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListShiftsResponse is the response for listing shifts
type ListShiftsResponse struct {
	Shifts []*Shift `json:"shifts"`
	Count  int      `json:"count"`
	Offset int      `json:"offset"`
	Limit  int      `json:"limit"`
}

// ListShifts handles GET /shifts requests
func (h *Handler) ListShifts(w http.ResponseWriter, r *http.Request) {
	orgID, ok := tenancy.OrgIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing org context", http.StatusBadRequest)
		return
	}

	filter := ListShiftsFilter{Limit: 50, Offset: 0}
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
	if sid := r.URL.Query().Get("staff_id"); sid != "" {
		id, err := uuid.Parse(sid)
		if err != nil {
			http.Error(w, "invalid staff_id", http.StatusBadRequest)
			return
		}
		filter.StaffID = id
	}
	if from := r.URL.Query().Get("from"); from != "" {
		parsed, err := time.Parse(time.RFC3339, from)
		if err != nil {
			http.Error(w, "invalid from timestamp", http.StatusBadRequest)
			return
		}
		filter.From = &parsed
	}
	if to := r.URL.Query().Get("to"); to != "" {
		parsed, err := time.Parse(time.RFC3339, to)
		if err != nil {
			http.Error(w, "invalid to timestamp", http.StatusBadRequest)
			return
		}
		filter.To = &parsed
	}

	list, err := h.repo.List(r.Context(), orgID, filter)
	if err != nil {
		h.logger.Error("failed to list shifts", "error", err, "org_id", orgID)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, ListShiftsResponse{
		Shifts: list,
		Count:  len(list),
		Offset: filter.Offset,
		Limit:  filter.Limit,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
