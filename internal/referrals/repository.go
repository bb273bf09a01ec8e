package referrals

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository defines referral persistence operations.
type Repository interface {
	Create(ctx context.Context, req *CreateReferralRequest) (*Referral, error)
	GetByID(ctx context.Context, orgID string, id uuid.UUID) (*Referral, error)
	SetStatus(ctx context.Context, orgID string, id uuid.UUID, status string) (*Referral, error)
	List(ctx context.Context, orgID string, filter ListReferralsFilter) ([]*Referral, error)
}

type db interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresRepository stores referrals in the relational database.
type PostgresRepository struct {
	db db
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("referrals: pgx pool required")
	}
	return &PostgresRepository{db: pool}
}

// NewPostgresRepositoryWithDB allows injecting a mock database for testing.
func NewPostgresRepositoryWithDB(db db) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create records a new referral in the received state.
func (r *PostgresRepository) Create(ctx context.Context, req *CreateReferralRequest) (*Referral, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	ref := &Referral{
		ID:          uuid.New(),
		OrgID:       req.OrgID,
		PartnerName: req.PartnerName,
		PatientName: req.PatientName,
		Contact:     req.Contact,
		Status:      StatusReceived,
		Notes:       req.Notes,
	}
	if err := r.db.QueryRow(ctx, `
		INSERT INTO referrals (id, org_id, partner_name, patient_name, contact, status, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`,
		ref.ID, ref.OrgID, ref.PartnerName, ref.PatientName, ref.Contact, ref.Status, ref.Notes,
	).Scan(&ref.CreatedAt, &ref.UpdatedAt); err != nil {
		return nil, fmt.Errorf("referrals: insert failed: %w", err)
	}
	return ref, nil
}

// GetByID fetches a referral scoped to the org.
func (r *PostgresRepository) GetByID(ctx context.Context, orgID string, id uuid.UUID) (*Referral, error) {
	return r.scan(r.db.QueryRow(ctx, `
		SELECT id, org_id, partner_name, patient_name, contact, status, notes, created_at, updated_at
		FROM referrals
		WHERE id = $1 AND org_id = $2
	`, id, orgID))
}

// SetStatus advances the referral lifecycle. The current status is read first
// so forbidden moves fail with ErrInvalidTransition rather than silently
// updating nothing.
func (r *PostgresRepository) SetStatus(ctx context.Context, orgID string, id uuid.UUID, status string) (*Referral, error) {
	current, err := r.GetByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if err := ValidateTransition(current.Status, status); err != nil {
		return nil, err
	}

	return r.scan(r.db.QueryRow(ctx, `
		UPDATE referrals
		SET status = $3, updated_at = now()
		WHERE id = $1 AND org_id = $2
		RETURNING id, org_id, partner_name, patient_name, contact, status, notes, created_at, updated_at
	`, id, orgID, status))
}

// List returns referrals for the org, newest first.
func (r *PostgresRepository) List(ctx context.Context, orgID string, filter ListReferralsFilter) ([]*Referral, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 50
	}

	query := `
		SELECT id, org_id, partner_name, patient_name, contact, status, notes, created_at, updated_at
		FROM referrals
		WHERE org_id = $1
	`
	args := []any{orgID}
	if filter.PartnerName != "" {
		args = append(args, filter.PartnerName)
		query += fmt.Sprintf(" AND partner_name = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	args = append(args, filter.Limit, filter.Offset)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("referrals: list failed: %w", err)
	}
	defer rows.Close()

	var out []*Referral
	for rows.Next() {
		ref, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ref)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *PostgresRepository) scan(row rowScanner) (*Referral, error) {
	var ref Referral
	if err := row.Scan(
		&ref.ID,
		&ref.OrgID,
		&ref.PartnerName,
		&ref.PatientName,
		&ref.Contact,
		&ref.Status,
		&ref.Notes,
		&ref.CreatedAt,
		&ref.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrReferralNotFound
		}
		return nil, fmt.Errorf("referrals: scan failed: %w", err)
	}
	return &ref, nil
}
