package appointments

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Appointment statuses.
const (
	StatusScheduled = "scheduled"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
	StatusNoShow    = "no_show"
)

// Appointment is a booked visit between a patient and a practitioner.
type Appointment struct {
	ID             uuid.UUID `json:"id"`
	OrgID          string    `json:"org_id"`
	PatientID      uuid.UUID `json:"patient_id"`
	PractitionerID uuid.UUID `json:"practitioner_id"`
	StartsAt       time.Time `json:"starts_at"`
	EndsAt         time.Time `json:"ends_at"`
	Status         string    `json:"status"`
	Reason         string    `json:"reason,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// BookAppointmentRequest is the payload for booking an appointment.
type BookAppointmentRequest struct {
	OrgID          string    `json:"-"`
	PatientID      uuid.UUID `json:"patient_id"`
	PractitionerID uuid.UUID `json:"practitioner_id"`
	StartsAt       time.Time `json:"starts_at"`
	EndsAt         time.Time `json:"ends_at"`
	Reason         string    `json:"reason"`
}

// Validate checks request fields before any database work.
func (r *BookAppointmentRequest) Validate() error {
	if r.OrgID == "" {
		return errors.New("appointments: org_id is required")
	}
	if r.PatientID == uuid.Nil {
		return errors.New("appointments: patient_id is required")
	}
	if r.PractitionerID == uuid.Nil {
		return errors.New("appointments: practitioner_id is required")
	}
	if r.StartsAt.IsZero() || r.EndsAt.IsZero() {
		return errors.New("appointments: starts_at and ends_at are required")
	}
	if !r.EndsAt.After(r.StartsAt) {
		return errors.New("appointments: ends_at must be after starts_at")
	}
	return nil
}

// RescheduleRequest moves an appointment to a new slot.
type RescheduleRequest struct {
	StartsAt time.Time `json:"starts_at"`
	EndsAt   time.Time `json:"ends_at"`
}

// ListAppointmentsFilter narrows appointment listings.
type ListAppointmentsFilter struct {
	PractitionerID uuid.UUID
	PatientID      uuid.UUID
	Day            *time.Time
	Limit          int
	Offset         int
}
