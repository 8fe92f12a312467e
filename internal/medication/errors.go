package medication

import "errors"

// ErrNotFound is returned when a medication does not exist or is not owned
// by the requesting user.
var ErrNotFound = errors.New("medication not found")

// ErrDoseNotFound is returned when a dose instance does not exist.
var ErrDoseNotFound = errors.New("dose instance not found")
