package documents

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v4"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	t.Cleanup(mock.Close)
	return mock
}

func TestCreateRecordsMetadata(t *testing.T) {
	mock := newMock(t)
	repo := NewPostgresRepositoryWithDB(mock)
	docID := uuid.New()
	patientID := uuid.New()
	now := time.Now().UTC()
	key := "documents/v1/org-1/" + patientID.String() + "/" + docID.String()

	mock.ExpectQuery(`INSERT INTO documents`).
		WithArgs(docID, "org-1", patientID, "intake.pdf", "application/pdf", int64(2048), key, "dr.tanaka").
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(now))

	doc, err := repo.Create(context.Background(), &CreateDocumentRequest{
		ID:          docID,
		OrgID:       "org-1",
		PatientID:   patientID,
		FileName:    "intake.pdf",
		ContentType: "application/pdf",
		SizeBytes:   2048,
		S3Key:       key,
		UploadedBy:  "dr.tanaka",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if doc.ID != docID {
		t.Fatalf("expected supplied id to be kept, got %s", doc.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDeleteMissingDocument(t *testing.T) {
	mock := newMock(t)
	repo := NewPostgresRepositoryWithDB(mock)
	id := uuid.New()

	mock.ExpectExec(`DELETE FROM documents`).
		WithArgs(id, "org-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err := repo.Delete(context.Background(), "org-1", id)
	if !errors.Is(err, ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
}

func TestListByPatient(t *testing.T) {
	mock := newMock(t)
	repo := NewPostgresRepositoryWithDB(mock)
	patientID := uuid.New()
	now := time.Now().UTC()
	cols := []string{"id", "org_id", "patient_id", "file_name", "content_type", "size_bytes", "s3_key", "uploaded_by", "created_at"}

	mock.ExpectQuery(`SELECT .* FROM documents`).
		WithArgs("org-1", patientID, 50, 0).
		WillReturnRows(pgxmock.NewRows(cols).
			AddRow(uuid.New(), "org-1", patientID, "intake.pdf", "application/pdf", int64(2048), "k1", "dr.tanaka", now).
			AddRow(uuid.New(), "org-1", patientID, "xray.png", "image/png", int64(90210), "k2", "dr.tanaka", now))

	list, err := repo.List(context.Background(), "org-1", ListDocumentsFilter{PatientID: patientID})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(list))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
