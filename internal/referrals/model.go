package referrals

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Referral statuses. A referral moves received -> contacted -> converted or
// declined; declined is also reachable straight from received.
const (
	StatusReceived  = "received"
	StatusContacted = "contacted"
	StatusConverted = "converted"
	StatusDeclined  = "declined"
)

var allowedTransitions = map[string][]string{
	StatusReceived:  {StatusContacted, StatusDeclined},
	StatusContacted: {StatusConverted, StatusDeclined},
}

// ErrInvalidTransition indicates a status change the lifecycle forbids.
var ErrInvalidTransition = errors.New("referrals: invalid status transition")

// CanTransition reports whether a referral may move from one status to
// another.
func CanTransition(from, to string) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ValidateTransition returns ErrInvalidTransition when the move is forbidden.
func ValidateTransition(from, to string) error {
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}

// Referral is an inbound patient referral from a partner practice.
type Referral struct {
	ID          uuid.UUID `json:"id"`
	OrgID       string    `json:"org_id"`
	PartnerName string    `json:"partner_name"`
	PatientName string    `json:"patient_name"`
	Contact     string    `json:"contact"`
	Status      string    `json:"status"`
	Notes       string    `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CreateReferralRequest is the payload for recording a referral.
type CreateReferralRequest struct {
	OrgID       string `json:"-"`
	PartnerName string `json:"partner_name"`
	PatientName string `json:"patient_name"`
	Contact     string `json:"contact"`
	Notes       string `json:"notes"`
}

// Validate checks required fields.
func (r *CreateReferralRequest) Validate() error {
	if r.OrgID == "" {
		return errors.New("referrals: org_id is required")
	}
	if r.PartnerName == "" {
		return errors.New("referrals: partner_name is required")
	}
	if r.PatientName == "" {
		return errors.New("referrals: patient_name is required")
	}
	if r.Contact == "" {
		return errors.New("referrals: contact is required")
	}
	return nil
}

// ListReferralsFilter narrows referral listings.
type ListReferralsFilter struct {
	PartnerName string
	Status      string
	Limit       int
	Offset      int
}
