package invoicing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wellcare-clinic/clinicops/internal/invoicing/sequence"
)

// Repository defines invoice persistence operations.
type Repository interface {
	Create(ctx context.Context, req *CreateInvoiceRequest) (*Invoice, error)
	GetByID(ctx context.Context, orgID string, id uuid.UUID) (*Invoice, error)
	List(ctx context.Context, orgID string, filter ListInvoicesFilter) ([]*Invoice, error)
	MarkPaid(ctx context.Context, orgID string, id uuid.UUID) (*Invoice, error)
	Void(ctx context.Context, orgID string, id uuid.UUID) (*Invoice, error)
}

// db is the pgx surface the repository needs; pgxmock satisfies it in tests.
type db interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresRepository stores invoices in the relational database. Invoice
// numbers come from the allocator, always inside the same transaction as the
// invoice insert so a failed insert also rolls the counter back.
type PostgresRepository struct {
	db      db
	alloc   *sequence.Allocator
	dueDays int
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool, alloc *sequence.Allocator, dueDays int) *PostgresRepository {
	if pool == nil {
		panic("invoicing: pgx pool required")
	}
	return newRepository(pool, alloc, dueDays)
}

// NewPostgresRepositoryWithDB allows injecting a mock database for testing.
func NewPostgresRepositoryWithDB(db db, alloc *sequence.Allocator, dueDays int) *PostgresRepository {
	return newRepository(db, alloc, dueDays)
}

func newRepository(db db, alloc *sequence.Allocator, dueDays int) *PostgresRepository {
	if alloc == nil {
		panic("invoicing: sequence allocator required")
	}
	if dueDays <= 0 {
		dueDays = 30
	}
	return &PostgresRepository{db: db, alloc: alloc, dueDays: dueDays}
}

// Create issues a new invoice. The number allocation, invoice insert, and
// item inserts commit atomically; on any error the transaction rolls back and
// the allocated number is burned.
func (r *PostgresRepository) Create(ctx context.Context, req *CreateInvoiceRequest) (*Invoice, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	partition := fmt.Sprintf("%04d", now.Year())

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("invoicing: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	number, err := r.alloc.Next(ctx, tx, partition)
	if err != nil {
		return nil, err
	}

	inv := &Invoice{
		ID:         uuid.New(),
		OrgID:      req.OrgID,
		PatientID:  req.PatientID,
		Number:     number,
		Status:     StatusIssued,
		TotalCents: req.Total(),
		IssuedAt:   now,
		DueAt:      now.AddDate(0, 0, r.dueDays),
	}

	if err := tx.QueryRow(ctx, `
		INSERT INTO invoices (id, org_id, patient_id, number, status, total_cents, issued_at, due_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`,
		inv.ID, inv.OrgID, inv.PatientID, inv.Number, inv.Status, inv.TotalCents, inv.IssuedAt, inv.DueAt,
	).Scan(&inv.CreatedAt); err != nil {
		return nil, fmt.Errorf("invoicing: insert invoice: %w", err)
	}

	for _, in := range req.Items {
		item := Item{
			ID:             uuid.New(),
			Description:    in.Description,
			Quantity:       in.Quantity,
			UnitPriceCents: in.UnitPriceCents,
			AmountCents:    int64(in.Quantity) * in.UnitPriceCents,
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO invoice_items (id, invoice_id, description, quantity, unit_price_cents, amount_cents)
			VALUES ($1, $2, $3, $4, $5, $6)
		`,
			item.ID, inv.ID, item.Description, item.Quantity, item.UnitPriceCents, item.AmountCents,
		); err != nil {
			return nil, fmt.Errorf("invoicing: insert item: %w", err)
		}
		inv.Items = append(inv.Items, item)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("invoicing: commit: %w", err)
	}
	return inv, nil
}

// GetByID fetches an invoice with its items, scoped to the org.
func (r *PostgresRepository) GetByID(ctx context.Context, orgID string, id uuid.UUID) (*Invoice, error) {
	inv, err := r.scanInvoice(r.db.QueryRow(ctx, `
		SELECT id, org_id, patient_id, number, status, total_cents, issued_at, due_at, paid_at, voided_at, created_at
		FROM invoices
		WHERE id = $1 AND org_id = $2
	`, id, orgID))
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, description, quantity, unit_price_cents, amount_cents
		FROM invoice_items
		WHERE invoice_id = $1
		ORDER BY description
	`, id)
	if err != nil {
		return nil, fmt.Errorf("invoicing: select items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item Item
		if err := rows.Scan(&item.ID, &item.Description, &item.Quantity, &item.UnitPriceCents, &item.AmountCents); err != nil {
			return nil, fmt.Errorf("invoicing: scan item: %w", err)
		}
		inv.Items = append(inv.Items, item)
	}
	return inv, rows.Err()
}

// List returns invoices for the org, optionally filtered by patient and
// status, newest first.
func (r *PostgresRepository) List(ctx context.Context, orgID string, filter ListInvoicesFilter) ([]*Invoice, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 50
	}

	query := `
		SELECT id, org_id, patient_id, number, status, total_cents, issued_at, due_at, paid_at, voided_at, created_at
		FROM invoices
		WHERE org_id = $1
	`
	args := []any{orgID}
	if filter.PatientID != uuid.Nil {
		args = append(args, filter.PatientID)
		query += fmt.Sprintf(" AND patient_id = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	args = append(args, filter.Limit, filter.Offset)
	query += fmt.Sprintf(" ORDER BY issued_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("invoicing: list: %w", err)
	}
	defer rows.Close()

	var invoices []*Invoice
	for rows.Next() {
		inv, err := r.scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, inv)
	}
	return invoices, rows.Err()
}

// MarkPaid transitions an issued invoice to paid.
func (r *PostgresRepository) MarkPaid(ctx context.Context, orgID string, id uuid.UUID) (*Invoice, error) {
	return r.transition(ctx, orgID, id, StatusPaid, `
		UPDATE invoices
		SET status = 'paid', paid_at = now()
		WHERE id = $1 AND org_id = $2 AND status = 'issued'
	`)
}

// Void transitions an issued invoice to void.
func (r *PostgresRepository) Void(ctx context.Context, orgID string, id uuid.UUID) (*Invoice, error) {
	return r.transition(ctx, orgID, id, StatusVoid, `
		UPDATE invoices
		SET status = 'void', voided_at = now()
		WHERE id = $1 AND org_id = $2 AND status = 'issued'
	`)
}

func (r *PostgresRepository) transition(ctx context.Context, orgID string, id uuid.UUID, target, query string) (*Invoice, error) {
	ct, err := r.db.Exec(ctx, query, id, orgID)
	if err != nil {
		return nil, fmt.Errorf("invoicing: transition to %s: %w", target, err)
	}
	if ct.RowsAffected() == 0 {
		// Distinguish missing invoice from a forbidden transition.
		if _, err := r.GetByID(ctx, orgID, id); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: invoice %s to %s", ErrInvalidTransition, id, target)
	}
	return r.GetByID(ctx, orgID, id)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *PostgresRepository) scanInvoice(row rowScanner) (*Invoice, error) {
	var inv Invoice
	if err := row.Scan(
		&inv.ID,
		&inv.OrgID,
		&inv.PatientID,
		&inv.Number,
		&inv.Status,
		&inv.TotalCents,
		&inv.IssuedAt,
		&inv.DueAt,
		&inv.PaidAt,
		&inv.VoidedAt,
		&inv.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("invoicing: scan invoice: %w", err)
	}
	return &inv, nil
}
