package shifts

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Shift is a rostered working period for a staff member.
type Shift struct {
	ID        uuid.UUID `json:"id"`
	OrgID     string    `json:"org_id"`
	StaffID   uuid.UUID `json:"staff_id"`
	StartsAt  time.Time `json:"starts_at"`
	EndsAt    time.Time `json:"ends_at"`
	Role      string    `json:"role,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateShiftRequest is the payload for rostering a shift.
type CreateShiftRequest struct {
	OrgID    string    `json:"-"`
	StaffID  uuid.UUID `json:"staff_id"`
	StartsAt time.Time `json:"starts_at"`
	EndsAt   time.Time `json:"ends_at"`
	Role     string    `json:"role"`
}

// Validate checks required fields.
func (r *CreateShiftRequest) Validate() error {
	if r.OrgID == "" {
		return errors.New("shifts: org_id is required")
	}
	if r.StaffID == uuid.Nil {
		return errors.New("shifts: staff_id is required")
	}
	if r.StartsAt.IsZero() || r.EndsAt.IsZero() {
		return errors.New("shifts: starts_at and ends_at are required")
	}
	if !r.EndsAt.After(r.StartsAt) {
		return errors.New("shifts: ends_at must be after starts_at")
	}
	return nil
}

// ListShiftsFilter narrows shift listings.
type ListShiftsFilter struct {
	StaffID uuid.UUID
	From    *time.Time
	To      *time.Time
	Limit   int
	Offset  int
}
