package staff

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/wellcare-clinic/clinicops/internal/tenancy"
	"github.com/wellcare-clinic/clinicops/pkg/logging"
)

// Handler handles HTTP requests for staff
type Handler struct {
	repo   Repository
	logger *logging.Logger
}

// NewHandler creates a new staff handler
func NewHandler(repo Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, logger: logger}
}

// CreateMember handles POST /staff requests
func (h *Handler) CreateMember(w http.ResponseWriter, r *http.Request) {
	var req CreateMemberRequest
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

	member, err := h.repo.Create(r.Context(), &req)
	if err != nil {
		h.logger.Error("failed to create staff member", "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.logger.Info("staff member created", "id", member.ID, "org_id", orgID, "role", member.Role)
	writeJSON(w, http.StatusCreated, member)
}

// GetMember handles GET /staff/{staffID}
func (h *Handler) GetMember(w http.ResponseWriter, r *http.Request) {
	orgID, id, ok := h.orgAndID(w, r)
	if !ok {
		return
	}

	member, err := h.repo.GetByID(r.Context(), orgID, id)
	if err != nil {
		if errors.Is(err, ErrMemberNotFound) {
			http.Error(w, "staff member not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to load staff member", "error", err, "id", id)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, member)
}

// UpdateMember handles PUT /staff/{staffID}
func (h *Handler) UpdateMember(w http.ResponseWriter, r *http.Request) {
	orgID, id, ok := h.orgAndID(w, r)
	if !ok {
		return
	}

	var req UpdateMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := req.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	member, err := h.repo.Update(r.Context(), orgID, id, &req)
	if err != nil {
		if errors.Is(err, ErrMemberNotFound) {
			http.Error(w, "staff member not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to update staff member", "error", err, "id", id)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, member)
}

// DeactivateMember handles DELETE /staff/{staffID}
func (h *Handler) DeactivateMember(w http.ResponseWriter, r *http.Request) {
	orgID, id, ok := h.orgAndID(w, r)
	if !ok {
		return
	}

	if err := h.repo.Deactivate(r.Context(), orgID, id); err != nil {
		if errors.Is(err, ErrMemberNotFound) {
			http.Error(w, "staff member not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to deactivate staff member", "error", err, "id", id)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListMembersResponse is the response for listing staff
type ListMembersResponse struct {
	Staff  []*Member `json:"staff"`
	Count  int       `json:"count"`
	Offset int       `json:"offset"`
	Limit  int       `json:"limit"`
}

// ListMembers handles GET /staff requests
func (h *Handler) ListMembers(w http.ResponseWriter, r *http.Request) {
	orgID, ok := tenancy.OrgIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing org context", http.StatusBadRequest)
		return
	}

	filter := ListMembersFilter{Limit: 50, Offset: 0}
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
	filter.Role = r.URL.Query().Get("role")
	filter.IncludeDeactivated = r.URL.Query().Get("include_deactivated") == "true"

	list, err := h.repo.List(r.Context(), orgID, filter)
	if err != nil {
		h.logger.Error("failed to list staff", "error", err, "org_id", orgID)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, ListMembersResponse{
		Staff:  list,
		Count:  len(list),
		Offset: filter.Offset,
		Limit:  filter.Limit,
	})
}

func (h *Handler) orgAndID(w http.ResponseWriter, r *http.Request) (string, uuid.UUID, bool) {
	orgID, ok := tenancy.OrgIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing org context", http.StatusBadRequest)
		return "", uuid.Nil, false
	}
	id, err := uuid.Parse(chi.URLParam(r, "staffID"))
	if err != nil {
		http.Error(w, "invalid staff id", http.StatusBadRequest)
		return "", uuid.Nil, false
	}
	return orgID, id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
