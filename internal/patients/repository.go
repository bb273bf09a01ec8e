package patients

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository defines patient persistence operations.
type Repository interface {
	Create(ctx context.Context, req *CreatePatientRequest) (*Patient, error)
	GetByID(ctx context.Context, orgID string, id uuid.UUID) (*Patient, error)
	Update(ctx context.Context, orgID string, id uuid.UUID, req *UpdatePatientRequest) (*Patient, error)
	Archive(ctx context.Context, orgID string, id uuid.UUID) error
	List(ctx context.Context, orgID string, filter ListPatientsFilter) ([]*Patient, error)
}

type db interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresRepository stores patients in the relational database.
type PostgresRepository struct {
	db db
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("patients: pgx pool required")
	}
	return &PostgresRepository{db: pool}
}

// NewPostgresRepositoryWithDB allows injecting a mock database for testing.
func NewPostgresRepositoryWithDB(db db) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new patient row.
func (r *PostgresRepository) Create(ctx context.Context, req *CreatePatientRequest) (*Patient, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	patient := &Patient{
		ID:          uuid.New(),
		OrgID:       req.OrgID,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		Phone:       req.Phone,
		DateOfBirth: req.DateOfBirth,
		Notes:       req.Notes,
	}
	if err := r.db.QueryRow(ctx, `
		INSERT INTO patients (id, org_id, first_name, last_name, email, phone, date_of_birth, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`,
		patient.ID, patient.OrgID, patient.FirstName, patient.LastName,
		patient.Email, patient.Phone, patient.DateOfBirth, patient.Notes,
	).Scan(&patient.CreatedAt, &patient.UpdatedAt); err != nil {
		return nil, fmt.Errorf("patients: insert failed: %w", err)
	}
	return patient, nil
}

// GetByID fetches a patient scoped to the org.
func (r *PostgresRepository) GetByID(ctx context.Context, orgID string, id uuid.UUID) (*Patient, error) {
	return r.scan(r.db.QueryRow(ctx, `
		SELECT id, org_id, first_name, last_name, email, phone, date_of_birth, notes, archived_at, created_at, updated_at
		FROM patients
		WHERE id = $1 AND org_id = $2
	`, id, orgID))
}

// Update applies the non-nil fields of req and returns the updated row.
func (r *PostgresRepository) Update(ctx context.Context, orgID string, id uuid.UUID, req *UpdatePatientRequest) (*Patient, error) {
	return r.scan(r.db.QueryRow(ctx, `
		UPDATE patients
		SET first_name    = COALESCE($3, first_name),
		    last_name     = COALESCE($4, last_name),
		    email         = COALESCE($5, email),
		    phone         = COALESCE($6, phone),
		    date_of_birth = COALESCE($7, date_of_birth),
		    notes         = COALESCE($8, notes),
		    updated_at    = now()
		WHERE id = $1 AND org_id = $2
		RETURNING id, org_id, first_name, last_name, email, phone, date_of_birth, notes, archived_at, created_at, updated_at
	`, id, orgID, req.FirstName, req.LastName, req.Email, req.Phone, req.DateOfBirth, req.Notes))
}

// Archive soft-deletes a patient. Archived patients stay queryable for
// invoicing history.
func (r *PostgresRepository) Archive(ctx context.Context, orgID string, id uuid.UUID) error {
	ct, err := r.db.Exec(ctx, `
		UPDATE patients
		SET archived_at = now(), updated_at = now()
		WHERE id = $1 AND org_id = $2 AND archived_at IS NULL
	`, id, orgID)
	if err != nil {
		return fmt.Errorf("patients: archive failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrPatientNotFound
	}
	return nil
}

// List returns patients for the org, optionally matching a name/email search
// term, newest first.
func (r *PostgresRepository) List(ctx context.Context, orgID string, filter ListPatientsFilter) ([]*Patient, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 50
	}

	query := `
		SELECT id, org_id, first_name, last_name, email, phone, date_of_birth, notes, archived_at, created_at, updated_at
		FROM patients
		WHERE org_id = $1
	`
	args := []any{orgID}
	if !filter.IncludeArchived {
		query += " AND archived_at IS NULL"
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		query += fmt.Sprintf(" AND (first_name ILIKE $%d OR last_name ILIKE $%d OR email ILIKE $%d)", len(args), len(args), len(args))
	}
	args = append(args, filter.Limit, filter.Offset)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("patients: list failed: %w", err)
	}
	defer rows.Close()

	var out []*Patient
	for rows.Next() {
		patient, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, patient)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *PostgresRepository) scan(row rowScanner) (*Patient, error) {
	var p Patient
	if err := row.Scan(
		&p.ID,
		&p.OrgID,
		&p.FirstName,
		&p.LastName,
		&p.Email,
		&p.Phone,
		&p.DateOfBirth,
		&p.Notes,
		&p.ArchivedAt,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, fmt.Errorf("patients: scan failed: %w", err)
	}
	return &p, nil
}
