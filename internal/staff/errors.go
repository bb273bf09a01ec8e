package staff

import "errors"

// ErrMemberNotFound indicates the staff member does not exist for the org.
var ErrMemberNotFound = errors.New("staff: member not found")
