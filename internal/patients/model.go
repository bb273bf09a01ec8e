package patients

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Patient is a registered patient of the clinic.
type Patient struct {
	ID          uuid.UUID  `json:"id"`
	OrgID       string     `json:"org_id"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	Email       string     `json:"email,omitempty"`
	Phone       string     `json:"phone,omitempty"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
	Notes       string     `json:"notes,omitempty"`
	ArchivedAt  *time.Time `json:"archived_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// FullName returns the display name.
func (p *Patient) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// CreatePatientRequest is the payload for registering a patient.
type CreatePatientRequest struct {
	OrgID       string     `json:"-"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	Email       string     `json:"email"`
	Phone       string     `json:"phone"`
	DateOfBirth *time.Time `json:"date_of_birth"`
	Notes       string     `json:"notes"`
}

// Validate checks required fields.
func (r *CreatePatientRequest) Validate() error {
	if r.OrgID == "" {
		return errors.New("patients: org_id is required")
	}
	if strings.TrimSpace(r.FirstName) == "" {
		return errors.New("patients: first_name is required")
	}
	if strings.TrimSpace(r.LastName) == "" {
		return errors.New("patients: last_name is required")
	}
	if r.Email == "" && r.Phone == "" {
		return errors.New("patients: email or phone is required")
	}
	return nil
}

// UpdatePatientRequest carries mutable patient fields; nil pointers leave the
// stored value unchanged.
type UpdatePatientRequest struct {
	FirstName *string    `json:"first_name"`
	LastName  *string    `json:"last_name"`
	Email     *string    `json:"email"`
	Phone     *string    `json:"phone"`
	DateOfBirth *time.Time `json:"date_of_birth"`
	Notes     *string    `json:"notes"`
}

// ListPatientsFilter narrows patient listings.
type ListPatientsFilter struct {
	Search          string
	IncludeArchived bool
	Limit           int
	Offset          int
}
