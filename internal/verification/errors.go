package verification

import "errors"

// ErrInvalidInput matches every request shape error raised before any
// evidence is evaluated.
var ErrInvalidInput = errors.New("invalid verification input")

// InputError is a request shape failure with a client facing reason.
type InputError struct {
	Reason string
}

func (e *InputError) Error() string {
	return e.Reason
}

func (e *InputError) Is(target error) bool {
	return target == ErrInvalidInput
}

const (
	reasonRollNumberRequired     = "Roll number is required."
	reasonStudentCardRequired    = "Student ID Card image is required."
	reasonGraduationYearRequired = "Graduation year is required."
	reasonGraduationYearRange    = "Graduation year is out of range."
	reasonCorporateEmailOrCard   = "Provide a corporate work email OR upload your company ID card."
	reasonAdminNotAllowed        = "Admin cannot register publicly."
	reasonUnsupportedRole        = "Unsupported role."
)
