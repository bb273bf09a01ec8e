package appointments

import "errors"

var (
	// ErrAppointmentNotFound indicates no appointment matched the id within
	// the org.
	ErrAppointmentNotFound = errors.New("appointments: appointment not found")

	// ErrSlotTaken indicates the practitioner already has an overlapping
	// appointment.
	ErrSlotTaken = errors.New("appointments: practitioner slot already booked")

	// ErrNotReschedulable indicates the appointment is not in a state that
	// can be moved or cancelled.
	ErrNotReschedulable = errors.New("appointments: appointment is no longer scheduled")
)
