package invoicing

import "errors"

var (
	// ErrInvoiceNotFound indicates no invoice matched the id within the org.
	ErrInvoiceNotFound = errors.New("invoicing: invoice not found")

	// ErrInvalidTransition indicates a status change the lifecycle forbids,
	// e.g. paying a voided invoice.
	ErrInvalidTransition = errors.New("invoicing: invalid status transition")
)
