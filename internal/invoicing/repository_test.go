package invoicing

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"

	"github.com/wellcare-clinic/clinicops/internal/invoicing/sequence"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	t.Cleanup(mock.Close)
	return mock
}

func currentPartition() string {
	return fmt.Sprintf("%04d", time.Now().UTC().Year())
}

func TestCreateAllocatesNumberInsideTransaction(t *testing.T) {
	mock := newMock(t)
	repo := NewPostgresRepositoryWithDB(mock, sequence.NewAllocator(nil), 30)
	partition := currentPartition()
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT last_value FROM invoice_sequences`).
		WithArgs(partition).
		WillReturnRows(pgxmock.NewRows([]string{"last_value"}).AddRow(12))
	mock.ExpectExec(`UPDATE invoice_sequences SET last_value`).
		WithArgs(partition, 13).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectQuery(`INSERT INTO invoices`).
		WithArgs(
			pgxmock.AnyArg(), "org-1", pgxmock.AnyArg(), "WC-"+partition+"-0013",
			StatusIssued, int64(15000), pgxmock.AnyArg(), pgxmock.AnyArg(),
		).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(now))
	mock.ExpectExec(`INSERT INTO invoice_items`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), "Consultation", int32(2), int64(7500), int64(15000)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	inv, err := repo.Create(context.Background(), &CreateInvoiceRequest{
		OrgID:     "org-1",
		PatientID: uuid.New(),
		Items: []CreateItemInput{
			{Description: "Consultation", Quantity: 2, UnitPriceCents: 7500},
		},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if inv.Number != "WC-"+partition+"-0013" {
		t.Fatalf("unexpected invoice number: %s", inv.Number)
	}
	if inv.TotalCents != 15000 {
		t.Fatalf("unexpected total: %d", inv.TotalCents)
	}
	if !sequence.ValidFormat(inv.Number) {
		t.Fatalf("invoice number violates format contract: %s", inv.Number)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateRollsBackWhenInvoiceInsertFails(t *testing.T) {
	mock := newMock(t)
	repo := NewPostgresRepositoryWithDB(mock, sequence.NewAllocator(nil), 30)
	partition := currentPartition()

	insertErr := errors.New("duplicate key")
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT last_value FROM invoice_sequences`).
		WithArgs(partition).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectExec(`INSERT INTO invoice_sequences`).
		WithArgs(partition, 1).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectQuery(`INSERT INTO invoices`).
		WithArgs(
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
		).
		WillReturnError(insertErr)
	mock.ExpectRollback()

	_, err := repo.Create(context.Background(), &CreateInvoiceRequest{
		OrgID:     "org-1",
		PatientID: uuid.New(),
		Items:     []CreateItemInput{{Description: "Visit", Quantity: 1, UnitPriceCents: 5000}},
	})
	if !errors.Is(err, insertErr) {
		t.Fatalf("expected wrapped insert error, got %v", err)
	}
	// The rollback discards the counter advance along with the invoice.
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreatePropagatesAllocatorErrors(t *testing.T) {
	mock := newMock(t)
	repo := NewPostgresRepositoryWithDB(mock, sequence.NewAllocator(nil), 30)
	partition := currentPartition()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT last_value FROM invoice_sequences`).
		WithArgs(partition).
		WillReturnRows(pgxmock.NewRows([]string{"last_value"}).AddRow(sequence.MaxValue))
	mock.ExpectRollback()

	_, err := repo.Create(context.Background(), &CreateInvoiceRequest{
		OrgID:     "org-1",
		PatientID: uuid.New(),
		Items:     []CreateItemInput{{Description: "Visit", Quantity: 1, UnitPriceCents: 5000}},
	})
	if !errors.Is(err, sequence.ErrSequenceExhausted) {
		t.Fatalf("expected ErrSequenceExhausted, got %v", err)
	}
}

func TestMarkPaidRejectsNonIssuedInvoice(t *testing.T) {
	mock := newMock(t)
	repo := NewPostgresRepositoryWithDB(mock, sequence.NewAllocator(nil), 30)
	id := uuid.New()
	now := time.Now().UTC()

	mock.ExpectExec(`UPDATE invoices`).
		WithArgs(id, "org-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	// Invoice exists but is already void.
	mock.ExpectQuery(`SELECT id, org_id, patient_id`).
		WithArgs(id, "org-1").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "org_id", "patient_id", "number", "status", "total_cents",
			"issued_at", "due_at", "paid_at", "voided_at", "created_at",
		}).AddRow(id, "org-1", uuid.New(), "WC-2025-0001", StatusVoid, int64(100), now, now, nil, &now, now))
	mock.ExpectQuery(`SELECT id, description`).
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{"id", "description", "quantity", "unit_price_cents", "amount_cents"}))

	_, err := repo.MarkPaid(context.Background(), "org-1", id)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestMarkPaidMissingInvoice(t *testing.T) {
	mock := newMock(t)
	repo := NewPostgresRepositoryWithDB(mock, sequence.NewAllocator(nil), 30)
	id := uuid.New()

	mock.ExpectExec(`UPDATE invoices`).
		WithArgs(id, "org-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectQuery(`SELECT id, org_id, patient_id`).
		WithArgs(id, "org-1").
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.MarkPaid(context.Background(), "org-1", id)
	if !errors.Is(err, ErrInvoiceNotFound) {
		t.Fatalf("expected ErrInvoiceNotFound, got %v", err)
	}
}
