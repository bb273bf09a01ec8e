package documents

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Document is the metadata row for a patient file. The bytes themselves live
// in S3 under S3Key; Postgres only tracks what exists and who uploaded it.
type Document struct {
	ID          uuid.UUID `json:"id"`
	OrgID       string    `json:"org_id"`
	PatientID   uuid.UUID `json:"patient_id"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	S3Key       string    `json:"-"`
	UploadedBy  string    `json:"uploaded_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// CreateDocumentRequest is the metadata written alongside an upload. ID is
// assigned by the handler before the blob upload so the object key can embed
// it.
type CreateDocumentRequest struct {
	ID          uuid.UUID
	OrgID       string
	PatientID   uuid.UUID
	FileName    string
	ContentType string
	SizeBytes   int64
	S3Key       string
	UploadedBy  string
}

// Validate checks required fields.
func (r *CreateDocumentRequest) Validate() error {
	if r.OrgID == "" {
		return errors.New("documents: org_id is required")
	}
	if r.PatientID == uuid.Nil {
		return errors.New("documents: patient_id is required")
	}
	if r.FileName == "" {
		return errors.New("documents: file_name is required")
	}
	if r.S3Key == "" {
		return errors.New("documents: s3 key is required")
	}
	return nil
}

// ListDocumentsFilter narrows document listings.
type ListDocumentsFilter struct {
	PatientID uuid.UUID
	Limit     int
	Offset    int
}
