// Package sequence issues unique, monotonically increasing, year-scoped
// invoice numbers. Concurrency control is delegated entirely to the database:
// the counter row is read under SELECT ... FOR UPDATE inside the caller's
// transaction, so two concurrent allocations for the same partition serialize
// on the row lock and a rollback of the caller's transaction discards the
// counter advance along with the rest of its work.
package sequence

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/wellcare-clinic/clinicops/pkg/logging"
)

var (
	// ErrNoTransaction is returned when Next is called without an open
	// transaction. The row lock is only meaningful inside the transaction
	// that also inserts the invoice, so this is a programmer error.
	ErrNoTransaction = errors.New("sequence: open transaction required")

	// ErrMalformedNumber indicates a formatted number failed validation.
	// Distinct from storage errors: it means a logic bug (for example a
	// partition key that is not 4 digits), not a data problem.
	ErrMalformedNumber = errors.New("sequence: malformed invoice number")

	// ErrSequenceExhausted is returned when a partition's counter would pass
	// 9999. The 4-digit field is a wire-format contract, so the allocator
	// refuses rather than widen or wrap.
	ErrSequenceExhausted = errors.New("sequence: partition exhausted")
)

// Tx is the subset of pgx.Tx the allocator needs. pgxmock pools satisfy it
// in tests.
type Tx interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Allocator issues the next invoice number for a partition. It owns the only
// write path to the invoice_sequences table.
type Allocator struct {
	logger *logging.Logger
}

// NewAllocator creates an allocator.
func NewAllocator(logger *logging.Logger) *Allocator {
	if logger == nil {
		logger = logging.Default()
	}
	return &Allocator{logger: logger}
}

// Next allocates the next number for partition inside tx and returns it
// formatted, e.g. "WC-2025-0007". The caller must commit or roll back tx;
// on rollback the allocated value is burned and never reissued.
func (a *Allocator) Next(ctx context.Context, tx Tx, partition string) (string, error) {
	if tx == nil {
		return "", ErrNoTransaction
	}

	var last int
	err := tx.QueryRow(ctx,
		`SELECT last_value FROM invoice_sequences WHERE partition_key = $1 FOR UPDATE`,
		partition,
	).Scan(&last)

	var next int
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		next = 1
		if _, err := tx.Exec(ctx,
			`INSERT INTO invoice_sequences (partition_key, last_value) VALUES ($1, $2)`,
			partition, next,
		); err != nil {
			return "", fmt.Errorf("sequence: initialize partition %s: %w", partition, err)
		}
	case err != nil:
		return "", fmt.Errorf("sequence: lock partition %s: %w", partition, err)
	default:
		next = last + 1
		if next > MaxValue {
			return "", fmt.Errorf("%w: partition %s at %d", ErrSequenceExhausted, partition, last)
		}
		if _, err := tx.Exec(ctx,
			`UPDATE invoice_sequences SET last_value = $2 WHERE partition_key = $1`,
			partition, next,
		); err != nil {
			return "", fmt.Errorf("sequence: advance partition %s: %w", partition, err)
		}
	}

	number := Format(partition, next)
	if !ValidFormat(number) {
		return "", fmt.Errorf("%w: %q", ErrMalformedNumber, number)
	}

	a.logger.Debug("invoice number allocated", "partition", partition, "value", next)
	return number, nil
}
