// Package compliance records the immutable audit trail required for clinic
// administrative actions.
package compliance

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AuditEventType represents the type of audit event.
type AuditEventType string

const (
	// EventInvoiceIssued is logged when an invoice number is allocated and
	// the invoice committed.
	EventInvoiceIssued AuditEventType = "billing.invoice_issued"
	// EventInvoicePaid is logged when an invoice is marked paid.
	EventInvoicePaid AuditEventType = "billing.invoice_paid"
	// EventInvoiceVoided is logged when an invoice is voided.
	EventInvoiceVoided AuditEventType = "billing.invoice_voided"
	// EventPatientCreated is logged when a patient record is created.
	EventPatientCreated AuditEventType = "records.patient_created"
	// EventPatientUpdated is logged when a patient record is updated.
	EventPatientUpdated AuditEventType = "records.patient_updated"
	// EventPatientArchived is logged when a patient record is archived.
	EventPatientArchived AuditEventType = "records.patient_archived"
	// EventDocumentUploaded is logged when a patient document is stored.
	EventDocumentUploaded AuditEventType = "records.document_uploaded"
	// EventReferralConverted is logged when a partner referral converts.
	EventReferralConverted AuditEventType = "referrals.converted"
)

// AuditEvent represents an immutable audit record.
type AuditEvent struct {
	ID        string          `json:"id"`
	EventType AuditEventType  `json:"event_type"`
	OrgID     string          `json:"org_id"`
	Actor     string          `json:"actor,omitempty"`
	EntityID  string          `json:"entity_id,omitempty"`
	Details   json.RawMessage `json:"details,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// AuditService handles audit logging.
type AuditService struct {
	db *sql.DB
}

// NewAuditService creates a new audit service.
func NewAuditService(db *sql.DB) *AuditService {
	return &AuditService{db: db}
}

// LogEvent records an audit event.
func (s *AuditService) LogEvent(ctx context.Context, event AuditEvent) error {
	if s == nil || s.db == nil {
		return nil
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO audit_events (id, event_type, org_id, actor, entity_id, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := s.db.ExecContext(ctx, query,
		event.ID,
		event.EventType,
		event.OrgID,
		nullString(event.Actor),
		nullString(event.EntityID),
		event.Details,
		event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("compliance: failed to log audit event: %w", err)
	}
	return nil
}

// LogInvoiceIssued records an invoice issuance with its allocated number.
func (s *AuditService) LogInvoiceIssued(ctx context.Context, orgID, actor, invoiceID, number string, totalCents int64) error {
	details, _ := json.Marshal(map[string]any{
		"number":      number,
		"total_cents": totalCents,
	})
	return s.LogEvent(ctx, AuditEvent{
		EventType: EventInvoiceIssued,
		OrgID:     orgID,
		Actor:     actor,
		EntityID:  invoiceID,
		Details:   details,
	})
}

// LogInvoiceTransition records a paid/void transition.
func (s *AuditService) LogInvoiceTransition(ctx context.Context, eventType AuditEventType, orgID, actor, invoiceID string) error {
	return s.LogEvent(ctx, AuditEvent{
		EventType: eventType,
		OrgID:     orgID,
		Actor:     actor,
		EntityID:  invoiceID,
	})
}

// ListEvents returns recent events for an org, newest first.
func (s *AuditService) ListEvents(ctx context.Context, orgID string, limit int) ([]AuditEvent, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	if limit <= 0 || limit > 200 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, event_type, org_id, actor, entity_id, details, created_at
		FROM audit_events
		WHERE org_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, orgID, limit)
	if err != nil {
		return nil, fmt.Errorf("compliance: list events: %w", err)
	}
	defer rows.Close()

	var events []AuditEvent
	for rows.Next() {
		var event AuditEvent
		var actor, entityID sql.NullString
		var details []byte
		if err := rows.Scan(&event.ID, &event.EventType, &event.OrgID, &actor, &entityID, &details, &event.CreatedAt); err != nil {
			return nil, fmt.Errorf("compliance: scan event: %w", err)
		}
		event.Actor = actor.String
		event.EntityID = entityID.String
		event.Details = details
		events = append(events, event)
	}
	return events, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
