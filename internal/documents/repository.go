package documents

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository defines document metadata persistence operations.
type Repository interface {
	Create(ctx context.Context, req *CreateDocumentRequest) (*Document, error)
	GetByID(ctx context.Context, orgID string, id uuid.UUID) (*Document, error)
	Delete(ctx context.Context, orgID string, id uuid.UUID) error
	List(ctx context.Context, orgID string, filter ListDocumentsFilter) ([]*Document, error)
}

type db interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresRepository stores document metadata in the relational database.
type PostgresRepository struct {
	db db
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("documents: pgx pool required")
	}
	return &PostgresRepository{db: pool}
}

// NewPostgresRepositoryWithDB allows injecting a mock database for testing.
func NewPostgresRepositoryWithDB(db db) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a metadata row after the blob upload succeeded.
func (r *PostgresRepository) Create(ctx context.Context, req *CreateDocumentRequest) (*Document, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	id := req.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	doc := &Document{
		ID:          id,
		OrgID:       req.OrgID,
		PatientID:   req.PatientID,
		FileName:    req.FileName,
		ContentType: req.ContentType,
		SizeBytes:   req.SizeBytes,
		S3Key:       req.S3Key,
		UploadedBy:  req.UploadedBy,
	}
	if err := r.db.QueryRow(ctx, `
		INSERT INTO documents (id, org_id, patient_id, file_name, content_type, size_bytes, s3_key, uploaded_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`,
		doc.ID, doc.OrgID, doc.PatientID, doc.FileName, doc.ContentType, doc.SizeBytes, doc.S3Key, doc.UploadedBy,
	).Scan(&doc.CreatedAt); err != nil {
		return nil, fmt.Errorf("documents: insert failed: %w", err)
	}
	return doc, nil
}

// GetByID fetches document metadata scoped to the org.
func (r *PostgresRepository) GetByID(ctx context.Context, orgID string, id uuid.UUID) (*Document, error) {
	return r.scan(r.db.QueryRow(ctx, `
		SELECT id, org_id, patient_id, file_name, content_type, size_bytes, s3_key, uploaded_by, created_at
		FROM documents
		WHERE id = $1 AND org_id = $2
	`, id, orgID))
}

// Delete removes the metadata row. Blob cleanup is a separate concern; S3
// lifecycle rules expire orphaned objects.
func (r *PostgresRepository) Delete(ctx context.Context, orgID string, id uuid.UUID) error {
	ct, err := r.db.Exec(ctx, `
		DELETE FROM documents WHERE id = $1 AND org_id = $2
	`, id, orgID)
	if err != nil {
		return fmt.Errorf("documents: delete failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrDocumentNotFound
	}
	return nil
}

// List returns documents for a patient, newest first.
func (r *PostgresRepository) List(ctx context.Context, orgID string, filter ListDocumentsFilter) ([]*Document, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 50
	}

	query := `
		SELECT id, org_id, patient_id, file_name, content_type, size_bytes, s3_key, uploaded_by, created_at
		FROM documents
		WHERE org_id = $1
	`
	args := []any{orgID}
	if filter.PatientID != uuid.Nil {
		args = append(args, filter.PatientID)
		query += fmt.Sprintf(" AND patient_id = $%d", len(args))
	}
	args = append(args, filter.Limit, filter.Offset)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("documents: list failed: %w", err)
	}
	defer rows.Close()

	var out []*Document
	for rows.Next() {
		doc, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *PostgresRepository) scan(row rowScanner) (*Document, error) {
	var d Document
	if err := row.Scan(
		&d.ID,
		&d.OrgID,
		&d.PatientID,
		&d.FileName,
		&d.ContentType,
		&d.SizeBytes,
		&d.S3Key,
		&d.UploadedBy,
		&d.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDocumentNotFound
		}
		return nil, fmt.Errorf("documents: scan failed: %w", err)
	}
	return &d, nil
}
