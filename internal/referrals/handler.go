package referrals

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

// Handler handles HTTP requests for referrals
type Handler struct {
	repo   Repository
	audit  *compliance.AuditService
	logger *logging.Logger
}

// NewHandler creates a new referrals handler
func NewHandler(repo Repository, audit *compliance.AuditService, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, audit: audit, logger: logger}
}

// CreateReferral handles POST /referrals requests
func (h *Handler) CreateReferral(w http.ResponseWriter, r *http.Request) {
	var req CreateReferralRequest
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

	ref, err := h.repo.Create(r.Context(), &req)
	if err != nil {
		h.logger.Error("failed to create referral", "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.logger.Info("referral recorded", "id", ref.ID, "org_id", orgID, "partner", ref.PartnerName)
	writeJSON(w, http.StatusCreated, ref)
}

// GetReferral handles GET /referrals/{referralID}
func (h *Handler) GetReferral(w http.ResponseWriter, r *http.Request) {
	orgID, id, ok := h.orgAndID(w, r)
	if !ok {
		return
	}

	ref, err := h.repo.GetByID(r.Context(), orgID, id)
	if err != nil {
		if errors.Is(err, ErrReferralNotFound) {
			http.Error(w, "referral not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to load referral", "error", err, "id", id)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, ref)
}

type setStatusRequest struct {
	Status string `json:"status"`
}

// SetStatus handles POST /referrals/{referralID}/status
func (h *Handler) SetStatus(w http.ResponseWriter, r *http.Request) {
	orgID, id, ok := h.orgAndID(w, r)
	if !ok {
		return
	}

	var req setStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	ref, err := h.repo.SetStatus(r.Context(), orgID, id, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, ErrReferralNotFound):
			http.Error(w, "referral not found", http.StatusNotFound)
		case errors.Is(err, ErrInvalidTransition):
			http.Error(w, err.Error(), http.StatusConflict)
		default:
			h.logger.Error("failed to update referral status", "error", err, "id", id)
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
		return
	}

	if ref.Status == StatusConverted {
		if err := h.audit.LogEvent(r.Context(), compliance.AuditEvent{
			EventType: compliance.EventReferralConverted,
			OrgID:     orgID,
			EntityID:  id.String(),
		}); err != nil {
			h.logger.Error("failed to write audit event", "error", err)
		}
	}
	writeJSON(w, http.StatusOK, ref)
}

// ListReferralsResponse is the response for listing referrals
type ListReferralsResponse struct {
	Referrals []*Referral `json:"referrals"`
	Count     int         `json:"count"`
	Offset    int         `json:"offset"`
	Limit     int         `json:"limit"`
}

// ListReferrals handles GET /referrals requests
func (h *Handler) ListReferrals(w http.ResponseWriter, r *http.Request) {
	orgID, ok := tenancy.OrgIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing org context", http.StatusBadRequest)
		return
	}

	filter := ListReferralsFilter{Limit: 50, Offset: 0}
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
	filter.PartnerName = r.URL.Query().Get("partner")
	filter.Status = r.URL.Query().Get("status")

	list, err := h.repo.List(r.Context(), orgID, filter)
	if err != nil {
		h.logger.Error("failed to list referrals", "error", err, "org_id", orgID)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, ListReferralsResponse{
		Referrals: list,
		Count:     len(list),
		Offset:    filter.Offset,
		Limit:     filter.Limit,
	})
}

func (h *Handler) orgAndID(w http.ResponseWriter, r *http.Request) (string, uuid.UUID, bool) {
	orgID, ok := tenancy.OrgIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing org context", http.StatusBadRequest)
		return "", uuid.Nil, false
	}
	id, err := uuid.Parse(chi.URLParam(r, "referralID"))
	if err != nil {
		http.Error(w, "invalid referral id", http.StatusBadRequest)
		return "", uuid.Nil, false
	}
	return orgID, id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
