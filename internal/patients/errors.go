package patients

import "errors"

// ErrPatientNotFound indicates no patient matched the id within the org.
var ErrPatientNotFound = errors.New("patients: patient not found")
