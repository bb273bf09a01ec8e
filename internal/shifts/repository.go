package shifts

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrShiftNotFound indicates no shift matched the id within the org.
	ErrShiftNotFound = errors.New("shifts: shift not found")

	// ErrShiftOverlap indicates the staff member is already rostered for an
	// overlapping period.
	ErrShiftOverlap = errors.New("shifts: overlapping shift exists")
)

// Repository defines shift persistence operations.
type Repository interface {
	Create(ctx context.Context, req *CreateShiftRequest) (*Shift, error)
	Delete(ctx context.Context, orgID string, id uuid.UUID) error
	List(ctx context.Context, orgID string, filter ListShiftsFilter) ([]*Shift, error)
}

type db interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresRepository stores the shift roster in the relational database.
type PostgresRepository struct {
	db db
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("shifts: pgx pool required")
	}
	return &PostgresRepository{db: pool}
}

// NewPostgresRepositoryWithDB allows injecting a mock database for testing.
func NewPostgresRepositoryWithDB(db db) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create rosters a shift after rejecting overlap for the same staff member.
func (r *PostgresRepository) Create(ctx context.Context, req *CreateShiftRequest) (*Shift, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var clashes int
	if err := r.db.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM shifts
		WHERE org_id = $1 AND staff_id = $2
		  AND starts_at < $4 AND ends_at > $3
	`, req.OrgID, req.StaffID, req.StartsAt, req.EndsAt).Scan(&clashes); err != nil {
		return nil, fmt.Errorf("shifts: overlap check: %w", err)
	}
	if clashes > 0 {
		return nil, ErrShiftOverlap
	}

	shift := &Shift{
		ID:       uuid.New(),
		OrgID:    req.OrgID,
		StaffID:  req.StaffID,
		StartsAt: req.StartsAt,
		EndsAt:   req.EndsAt,
		Role:     req.Role,
	}
	if err := r.db.QueryRow(ctx, `
		INSERT INTO shifts (id, org_id, staff_id, starts_at, ends_at, role)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`,
		shift.ID, shift.OrgID, shift.StaffID, shift.StartsAt, shift.EndsAt, shift.Role,
	).Scan(&shift.CreatedAt); err != nil {
		return nil, fmt.Errorf("shifts: insert failed: %w", err)
	}
	return shift, nil
}

// Delete removes a shift from the roster.
func (r *PostgresRepository) Delete(ctx context.Context, orgID string, id uuid.UUID) error {
	ct, err := r.db.Exec(ctx, `DELETE FROM shifts WHERE id = $1 AND org_id = $2`, id, orgID)
	if err != nil {
		return fmt.Errorf("shifts: delete failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrShiftNotFound
	}
	return nil
}

// List returns shifts for the org, optionally scoped to one staff member and
// a date range, ordered by start time.
func (r *PostgresRepository) List(ctx context.Context, orgID string, filter ListShiftsFilter) ([]*Shift, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 50
	}

	query := `
		SELECT id, org_id, staff_id, starts_at, ends_at, role, created_at
		FROM shifts
		WHERE org_id = $1
	`
	args := []any{orgID}
	if filter.StaffID != uuid.Nil {
		args = append(args, filter.StaffID)
		query += fmt.Sprintf(" AND staff_id = $%d", len(args))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		query += fmt.Sprintf(" AND ends_at > $%d", len(args))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		query += fmt.Sprintf(" AND starts_at < $%d", len(args))
	}
	args = append(args, filter.Limit, filter.Offset)
	query += fmt.Sprintf(" ORDER BY starts_at LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("shifts: list failed: %w", err)
	}
	defer rows.Close()

	var out []*Shift
	for rows.Next() {
		var s Shift
		if err := rows.Scan(&s.ID, &s.OrgID, &s.StaffID, &s.StartsAt, &s.EndsAt, &s.Role, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("shifts: scan failed: %w", err)
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}
