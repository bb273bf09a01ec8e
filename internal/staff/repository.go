package staff

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository defines staff persistence operations.
type Repository interface {
	Create(ctx context.Context, req *CreateMemberRequest) (*Member, error)
	GetByID(ctx context.Context, orgID string, id uuid.UUID) (*Member, error)
	Update(ctx context.Context, orgID string, id uuid.UUID, req *UpdateMemberRequest) (*Member, error)
	Deactivate(ctx context.Context, orgID string, id uuid.UUID) error
	List(ctx context.Context, orgID string, filter ListMembersFilter) ([]*Member, error)
}

type db interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresRepository stores staff members in the relational database.
type PostgresRepository struct {
	db db
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("staff: pgx pool required")
	}
	return &PostgresRepository{db: pool}
}

// NewPostgresRepositoryWithDB allows injecting a mock database for testing.
func NewPostgresRepositoryWithDB(db db) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new staff member.
func (r *PostgresRepository) Create(ctx context.Context, req *CreateMemberRequest) (*Member, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	member := &Member{
		ID:    uuid.New(),
		OrgID: req.OrgID,
		Name:  req.Name,
		Email: req.Email,
		Role:  req.Role,
	}
	if err := r.db.QueryRow(ctx, `
		INSERT INTO staff (id, org_id, name, email, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`,
		member.ID, member.OrgID, member.Name, member.Email, member.Role,
	).Scan(&member.CreatedAt, &member.UpdatedAt); err != nil {
		return nil, fmt.Errorf("staff: insert failed: %w", err)
	}
	return member, nil
}

// GetByID fetches a staff member scoped to the org.
func (r *PostgresRepository) GetByID(ctx context.Context, orgID string, id uuid.UUID) (*Member, error) {
	return r.scan(r.db.QueryRow(ctx, `
		SELECT id, org_id, name, email, role, deactivated_at, created_at, updated_at
		FROM staff
		WHERE id = $1 AND org_id = $2
	`, id, orgID))
}

// Update applies the non-nil fields of req and returns the updated row.
func (r *PostgresRepository) Update(ctx context.Context, orgID string, id uuid.UUID, req *UpdateMemberRequest) (*Member, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return r.scan(r.db.QueryRow(ctx, `
		UPDATE staff
		SET name       = COALESCE($3, name),
		    email      = COALESCE($4, email),
		    role       = COALESCE($5, role),
		    updated_at = now()
		WHERE id = $1 AND org_id = $2
		RETURNING id, org_id, name, email, role, deactivated_at, created_at, updated_at
	`, id, orgID, req.Name, req.Email, req.Role))
}

// Deactivate removes the member from scheduling and auth without deleting the
// row. Historical shifts keep their reference.
func (r *PostgresRepository) Deactivate(ctx context.Context, orgID string, id uuid.UUID) error {
	ct, err := r.db.Exec(ctx, `
		UPDATE staff
		SET deactivated_at = now(), updated_at = now()
		WHERE id = $1 AND org_id = $2 AND deactivated_at IS NULL
	`, id, orgID)
	if err != nil {
		return fmt.Errorf("staff: deactivate failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrMemberNotFound
	}
	return nil
}

// List returns staff for the org, optionally by role, name order.
func (r *PostgresRepository) List(ctx context.Context, orgID string, filter ListMembersFilter) ([]*Member, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 50
	}

	query := `
		SELECT id, org_id, name, email, role, deactivated_at, created_at, updated_at
		FROM staff
		WHERE org_id = $1
	`
	args := []any{orgID}
	if !filter.IncludeDeactivated {
		query += " AND deactivated_at IS NULL"
	}
	if filter.Role != "" {
		args = append(args, filter.Role)
		query += fmt.Sprintf(" AND role = $%d", len(args))
	}
	args = append(args, filter.Limit, filter.Offset)
	query += fmt.Sprintf(" ORDER BY name ASC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("staff: list failed: %w", err)
	}
	defer rows.Close()

	var out []*Member
	for rows.Next() {
		member, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, member)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *PostgresRepository) scan(row rowScanner) (*Member, error) {
	var m Member
	if err := row.Scan(
		&m.ID,
		&m.OrgID,
		&m.Name,
		&m.Email,
		&m.Role,
		&m.DeactivatedAt,
		&m.CreatedAt,
		&m.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("staff: scan failed: %w", err)
	}
	return &m, nil
}
