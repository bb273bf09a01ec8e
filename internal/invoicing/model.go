package invoicing

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Invoice statuses. An invoice is born issued; paid and void are terminal.
const (
	StatusIssued = "issued"
	StatusPaid   = "paid"
	StatusVoid   = "void"
)

// Invoice is a billed amount owed by a patient, identified externally by its
// Number (WC-YYYY-NNNN).
type Invoice struct {
	ID         uuid.UUID  `json:"id"`
	OrgID      string     `json:"org_id"`
	PatientID  uuid.UUID  `json:"patient_id"`
	Number     string     `json:"number"`
	Status     string     `json:"status"`
	TotalCents int64      `json:"total_cents"`
	IssuedAt   time.Time  `json:"issued_at"`
	DueAt      time.Time  `json:"due_at"`
	PaidAt     *time.Time `json:"paid_at,omitempty"`
	VoidedAt   *time.Time `json:"voided_at,omitempty"`
	Items      []Item     `json:"items,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// Item is a single invoice line.
type Item struct {
	ID             uuid.UUID `json:"id"`
	Description    string    `json:"description"`
	Quantity       int32     `json:"quantity"`
	UnitPriceCents int64     `json:"unit_price_cents"`
	AmountCents    int64     `json:"amount_cents"`
}

// CreateInvoiceRequest is the payload for creating an invoice.
type CreateInvoiceRequest struct {
	OrgID     string            `json:"-"`
	PatientID uuid.UUID         `json:"patient_id"`
	Items     []CreateItemInput `json:"items"`
}

// CreateItemInput is one requested line item.
type CreateItemInput struct {
	Description    string `json:"description"`
	Quantity       int32  `json:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents"`
}

// Validate checks request fields before any database work.
func (r *CreateInvoiceRequest) Validate() error {
	if r.OrgID == "" {
		return errors.New("invoicing: org_id is required")
	}
	if r.PatientID == uuid.Nil {
		return errors.New("invoicing: patient_id is required")
	}
	if len(r.Items) == 0 {
		return errors.New("invoicing: at least one line item is required")
	}
	for _, item := range r.Items {
		if item.Description == "" {
			return errors.New("invoicing: item description is required")
		}
		if item.Quantity <= 0 {
			return errors.New("invoicing: item quantity must be positive")
		}
		if item.UnitPriceCents < 0 {
			return errors.New("invoicing: item unit price must not be negative")
		}
	}
	return nil
}

// Total computes the invoice total from the requested items.
func (r *CreateInvoiceRequest) Total() int64 {
	var total int64
	for _, item := range r.Items {
		total += int64(item.Quantity) * item.UnitPriceCents
	}
	return total
}

// ListInvoicesFilter narrows invoice listings.
type ListInvoicesFilter struct {
	PatientID uuid.UUID
	Status    string
	Limit     int
	Offset    int
}
