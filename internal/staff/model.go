package staff

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Staff roles used by the auth middleware for route guards.
const (
	RoleAdmin        = "admin"
	RolePractitioner = "practitioner"
	RoleReception    = "reception"
)

// ValidRole reports whether the role is one the platform knows.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RolePractitioner, RoleReception:
		return true
	}
	return false
}

// Member is a clinic staff identity row. Authentication itself happens
// upstream; this record supplies the role and display name behind a token
// subject.
type Member struct {
	ID            uuid.UUID  `json:"id"`
	OrgID         string     `json:"org_id"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	Role          string     `json:"role"`
	DeactivatedAt *time.Time `json:"deactivated_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Active reports whether the member may be scheduled and authenticated.
func (m *Member) Active() bool {
	return m.DeactivatedAt == nil
}

// CreateMemberRequest is the payload for adding a staff member.
type CreateMemberRequest struct {
	OrgID string `json:"-"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Validate checks required fields and the role value.
func (r *CreateMemberRequest) Validate() error {
	if r.OrgID == "" {
		return errors.New("staff: org_id is required")
	}
	if r.Name == "" {
		return errors.New("staff: name is required")
	}
	if r.Email == "" {
		return errors.New("staff: email is required")
	}
	if !ValidRole(r.Role) {
		return fmt.Errorf("staff: unknown role %q", r.Role)
	}
	return nil
}

// UpdateMemberRequest carries optional field updates.
type UpdateMemberRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
	Role  *string `json:"role"`
}

// Validate rejects an unknown role when one is supplied.
func (r *UpdateMemberRequest) Validate() error {
	if r.Role != nil && !ValidRole(*r.Role) {
		return fmt.Errorf("staff: unknown role %q", *r.Role)
	}
	return nil
}

// ListMembersFilter narrows staff listings.
type ListMembersFilter struct {
	Role               string
	IncludeDeactivated bool
	Limit              int
	Offset             int
}
