package notify

import (
	"context"
	"fmt"

	"github.com/wellcare-clinic/clinicops/pkg/logging"
)

// Service sends patient-facing notifications. Email failures are logged and
// reported but never block the business operation that triggered them.
type Service struct {
	email  EmailSender
	logger *logging.Logger
}

// NewService creates a notification service. A nil sender disables email.
func NewService(email EmailSender, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{email: email, logger: logger}
}

// SendInvoiceReceipt emails the patient a receipt for a freshly issued
// invoice.
func (s *Service) SendInvoiceReceipt(ctx context.Context, to, toName, invoiceNumber string, totalCents int64) error {
	if s == nil || s.email == nil {
		return nil
	}
	if to == "" {
		s.logger.Debug("invoice receipt skipped, patient has no email", "number", invoiceNumber)
		return nil
	}

	msg := EmailMessage{
		To:      to,
		ToName:  toName,
		Subject: fmt.Sprintf("WellCare Clinic invoice %s", invoiceNumber),
		Body: fmt.Sprintf(
			"Hello %s,\n\nYour invoice %s for $%d.%02d has been issued. Please contact the front desk with any questions.\n\nWellCare Clinic",
			toName, invoiceNumber, totalCents/100, totalCents%100,
		),
	}
	if err := s.email.Send(ctx, msg); err != nil {
		s.logger.Error("failed to send invoice receipt", "error", err, "number", invoiceNumber)
		return err
	}
	return nil
}

// SendAppointmentReminder emails the patient about an upcoming appointment.
func (s *Service) SendAppointmentReminder(ctx context.Context, to, toName, when, practitioner string) error {
	if s == nil || s.email == nil {
		return nil
	}
	if to == "" {
		return nil
	}

	msg := EmailMessage{
		To:      to,
		ToName:  toName,
		Subject: "Appointment reminder - WellCare Clinic",
		Body: fmt.Sprintf(
			"Hello %s,\n\nThis is a reminder of your appointment on %s with %s.\n\nWellCare Clinic",
			toName, when, practitioner,
		),
	}
	if err := s.email.Send(ctx, msg); err != nil {
		s.logger.Error("failed to send appointment reminder", "error", err, "to", to)
		return err
	}
	return nil
}
