package appointments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository defines appointment persistence operations.
type Repository interface {
	Book(ctx context.Context, req *BookAppointmentRequest) (*Appointment, error)
	GetByID(ctx context.Context, orgID string, id uuid.UUID) (*Appointment, error)
	Reschedule(ctx context.Context, orgID string, id uuid.UUID, req *RescheduleRequest) (*Appointment, error)
	SetStatus(ctx context.Context, orgID string, id uuid.UUID, status string) (*Appointment, error)
	List(ctx context.Context, orgID string, filter ListAppointmentsFilter) ([]*Appointment, error)
}

type db interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresRepository stores appointments in the relational database.
type PostgresRepository struct {
	db db
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("appointments: pgx pool required")
	}
	return &PostgresRepository{db: pool}
}

// NewPostgresRepositoryWithDB allows injecting a mock database for testing.
func NewPostgresRepositoryWithDB(db db) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Book inserts a new appointment after checking the practitioner's calendar
// for overlap.
func (r *PostgresRepository) Book(ctx context.Context, req *BookAppointmentRequest) (*Appointment, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var clashes int
	if err := r.db.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM appointments
		WHERE org_id = $1 AND practitioner_id = $2 AND status = 'scheduled'
		  AND starts_at < $4 AND ends_at > $3
	`, req.OrgID, req.PractitionerID, req.StartsAt, req.EndsAt).Scan(&clashes); err != nil {
		return nil, fmt.Errorf("appointments: overlap check: %w", err)
	}
	if clashes > 0 {
		return nil, ErrSlotTaken
	}

	appt := &Appointment{
		ID:             uuid.New(),
		OrgID:          req.OrgID,
		PatientID:      req.PatientID,
		PractitionerID: req.PractitionerID,
		StartsAt:       req.StartsAt,
		EndsAt:         req.EndsAt,
		Status:         StatusScheduled,
		Reason:         req.Reason,
	}
	if err := r.db.QueryRow(ctx, `
		INSERT INTO appointments (id, org_id, patient_id, practitioner_id, starts_at, ends_at, status, reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`,
		appt.ID, appt.OrgID, appt.PatientID, appt.PractitionerID,
		appt.StartsAt, appt.EndsAt, appt.Status, appt.Reason,
	).Scan(&appt.CreatedAt, &appt.UpdatedAt); err != nil {
		return nil, fmt.Errorf("appointments: insert failed: %w", err)
	}
	return appt, nil
}

// GetByID fetches an appointment scoped to the org.
func (r *PostgresRepository) GetByID(ctx context.Context, orgID string, id uuid.UUID) (*Appointment, error) {
	return r.scan(r.db.QueryRow(ctx, `
		SELECT id, org_id, patient_id, practitioner_id, starts_at, ends_at, status, reason, created_at, updated_at
		FROM appointments
		WHERE id = $1 AND org_id = $2
	`, id, orgID))
}

// Reschedule moves a scheduled appointment to a new slot, re-running the
// overlap check against other appointments.
func (r *PostgresRepository) Reschedule(ctx context.Context, orgID string, id uuid.UUID, req *RescheduleRequest) (*Appointment, error) {
	if req.StartsAt.IsZero() || !req.EndsAt.After(req.StartsAt) {
		return nil, errors.New("appointments: invalid reschedule window")
	}

	current, err := r.GetByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if current.Status != StatusScheduled {
		return nil, ErrNotReschedulable
	}

	var clashes int
	if err := r.db.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM appointments
		WHERE org_id = $1 AND practitioner_id = $2 AND status = 'scheduled' AND id <> $3
		  AND starts_at < $5 AND ends_at > $4
	`, orgID, current.PractitionerID, id, req.StartsAt, req.EndsAt).Scan(&clashes); err != nil {
		return nil, fmt.Errorf("appointments: overlap check: %w", err)
	}
	if clashes > 0 {
		return nil, ErrSlotTaken
	}

	return r.scan(r.db.QueryRow(ctx, `
		UPDATE appointments
		SET starts_at = $3, ends_at = $4, updated_at = now()
		WHERE id = $1 AND org_id = $2
		RETURNING id, org_id, patient_id, practitioner_id, starts_at, ends_at, status, reason, created_at, updated_at
	`, id, orgID, req.StartsAt, req.EndsAt))
}

// SetStatus transitions a scheduled appointment to completed, cancelled, or
// no_show.
func (r *PostgresRepository) SetStatus(ctx context.Context, orgID string, id uuid.UUID, status string) (*Appointment, error) {
	switch status {
	case StatusCompleted, StatusCancelled, StatusNoShow:
	default:
		return nil, fmt.Errorf("appointments: unknown status %q", status)
	}

	row := r.db.QueryRow(ctx, `
		UPDATE appointments
		SET status = $3, updated_at = now()
		WHERE id = $1 AND org_id = $2 AND status = 'scheduled'
		RETURNING id, org_id, patient_id, practitioner_id, starts_at, ends_at, status, reason, created_at, updated_at
	`, id, orgID, status)
	appt, err := r.scan(row)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			// Distinguish missing appointment from a terminal status.
			if _, getErr := r.GetByID(ctx, orgID, id); getErr == nil {
				return nil, ErrNotReschedulable
			}
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}
	return appt, nil
}

// List returns appointments for the org, optionally scoped to a practitioner,
// patient, or calendar day, ordered by start time.
func (r *PostgresRepository) List(ctx context.Context, orgID string, filter ListAppointmentsFilter) ([]*Appointment, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 50
	}

	query := `
		SELECT id, org_id, patient_id, practitioner_id, starts_at, ends_at, status, reason, created_at, updated_at
		FROM appointments
		WHERE org_id = $1
	`
	args := []any{orgID}
	if filter.PractitionerID != uuid.Nil {
		args = append(args, filter.PractitionerID)
		query += fmt.Sprintf(" AND practitioner_id = $%d", len(args))
	}
	if filter.PatientID != uuid.Nil {
		args = append(args, filter.PatientID)
		query += fmt.Sprintf(" AND patient_id = $%d", len(args))
	}
	if filter.Day != nil {
		dayStart := time.Date(filter.Day.Year(), filter.Day.Month(), filter.Day.Day(), 0, 0, 0, 0, time.UTC)
		args = append(args, dayStart, dayStart.AddDate(0, 0, 1))
		query += fmt.Sprintf(" AND starts_at >= $%d AND starts_at < $%d", len(args)-1, len(args))
	}
	args = append(args, filter.Limit, filter.Offset)
	query += fmt.Sprintf(" ORDER BY starts_at LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("appointments: list failed: %w", err)
	}
	defer rows.Close()

	var out []*Appointment
	for rows.Next() {
		appt, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, appt)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *PostgresRepository) scan(row rowScanner) (*Appointment, error) {
	var a Appointment
	if err := row.Scan(
		&a.ID,
		&a.OrgID,
		&a.PatientID,
		&a.PractitionerID,
		&a.StartsAt,
		&a.EndsAt,
		&a.Status,
		&a.Reason,
		&a.CreatedAt,
		&a.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("appointments: scan failed: %w", err)
	}
	return &a, nil
}
