package documents

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/wellcare-clinic/clinicops/internal/compliance"
	"github.com/wellcare-clinic/clinicops/internal/tenancy"
	"github.com/wellcare-clinic/clinicops/pkg/logging"
)

// maxUploadBytes caps a single document upload at 20 MiB.
const maxUploadBytes = 20 << 20

// Handler handles HTTP requests for patient documents
type Handler struct {
	repo   Repository
	store  *BlobStore
	audit  *compliance.AuditService
	logger *logging.Logger
}

// NewHandler creates a new documents handler
func NewHandler(repo Repository, store *BlobStore, audit *compliance.AuditService, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, store: store, audit: audit, logger: logger}
}

// UploadDocument handles POST /patients/{patientID}/documents as a multipart
// form with a single "file" part.
func (h *Handler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	orgID, ok := tenancy.OrgIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing org context", http.StatusBadRequest)
		return
	}
	patientID, err := uuid.Parse(chi.URLParam(r, "patientID"))
	if err != nil {
		http.Error(w, "invalid patient id", http.StatusBadRequest)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "missing file part", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.logger.Error("failed to read upload", "error", err)
		http.Error(w, "failed to read upload", http.StatusBadRequest)
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	docID := uuid.New()
	key := h.store.Key(orgID, patientID, docID)
	if err := h.store.Put(r.Context(), key, contentType, data); err != nil {
		if errors.Is(err, ErrStoreDisabled) {
			http.Error(w, "document storage not configured", http.StatusServiceUnavailable)
			return
		}
		h.logger.Error("failed to store document blob", "error", err, "s3_key", key)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	actor, _ := tenancy.ActorFromContext(r.Context())
	doc, err := h.repo.Create(r.Context(), &CreateDocumentRequest{
		ID:          docID,
		OrgID:       orgID,
		PatientID:   patientID,
		FileName:    header.Filename,
		ContentType: contentType,
		SizeBytes:   int64(len(data)),
		S3Key:       key,
		UploadedBy:  actor,
	})
	if err != nil {
		h.logger.Error("failed to record document metadata", "error", err, "s3_key", key)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	h.logger.Info("document uploaded", "id", doc.ID, "patient_id", patientID, "bytes", doc.SizeBytes)
	details, _ := json.Marshal(map[string]any{"patient_id": patientID.String(), "file_name": doc.FileName})
	if err := h.audit.LogEvent(r.Context(), compliance.AuditEvent{
		EventType: compliance.EventDocumentUploaded,
		OrgID:     orgID,
		EntityID:  doc.ID.String(),
		Actor:     actor,
		Details:   details,
	}); err != nil {
		h.logger.Error("failed to write audit event", "error", err)
	}

	writeJSON(w, http.StatusCreated, doc)
}

// DownloadResponse carries a presigned link when the store can mint one.
type DownloadResponse struct {
	URL       string `json:"url"`
	ExpiresIn int    `json:"expires_in_seconds"`
}

// DownloadDocument handles GET /documents/{documentID}. When a presigner is
// configured it answers with a short-lived link; otherwise it streams the
// bytes directly.
func (h *Handler) DownloadDocument(w http.ResponseWriter, r *http.Request) {
	orgID, id, ok := h.orgAndID(w, r)
	if !ok {
		return
	}

	doc, err := h.repo.GetByID(r.Context(), orgID, id)
	if err != nil {
		if errors.Is(err, ErrDocumentNotFound) {
			http.Error(w, "document not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to load document", "error", err, "id", id)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	url, err := h.store.DownloadURL(r.Context(), doc.S3Key)
	if err != nil {
		h.logger.Error("failed to presign document", "error", err, "id", id)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if url != "" {
		writeJSON(w, http.StatusOK, DownloadResponse{URL: url, ExpiresIn: int(DownloadURLTTL.Seconds())})
		return
	}

	data, err := h.store.Get(r.Context(), doc.S3Key)
	if err != nil {
		if errors.Is(err, ErrStoreDisabled) {
			http.Error(w, "document storage not configured", http.StatusServiceUnavailable)
			return
		}
		h.logger.Error("failed to fetch document blob", "error", err, "id", id)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", doc.ContentType)
	w.Header().Set("Content-Disposition", "attachment; filename=\""+doc.FileName+"\"")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// DeleteDocument handles DELETE /documents/{documentID}
func (h *Handler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	orgID, id, ok := h.orgAndID(w, r)
	if !ok {
		return
	}

	if err := h.repo.Delete(r.Context(), orgID, id); err != nil {
		if errors.Is(err, ErrDocumentNotFound) {
			http.Error(w, "document not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to delete document", "error", err, "id", id)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListDocumentsResponse is the response for listing documents
type ListDocumentsResponse struct {
	Documents []*Document `json:"documents"`
	Count     int         `json:"count"`
	Offset    int         `json:"offset"`
	Limit     int         `json:"limit"`
}

// ListDocuments handles GET /patients/{patientID}/documents
func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	orgID, ok := tenancy.OrgIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing org context", http.StatusBadRequest)
		return
	}
	patientID, err := uuid.Parse(chi.URLParam(r, "patientID"))
	if err != nil {
		http.Error(w, "invalid patient id", http.StatusBadRequest)
		return
	}

	filter := ListDocumentsFilter{PatientID: patientID, Limit: 50, Offset: 0}
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

	list, err := h.repo.List(r.Context(), orgID, filter)
	if err != nil {
		h.logger.Error("failed to list documents", "error", err, "org_id", orgID)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, ListDocumentsResponse{
		Documents: list,
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
	id, err := uuid.Parse(chi.URLParam(r, "documentID"))
	if err != nil {
		http.Error(w, "invalid document id", http.StatusBadRequest)
		return "", uuid.Nil, false
	}
	return orgID, id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
