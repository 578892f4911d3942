package attendance

import "errors"

var (
	ErrAlreadyClockedIn           = errors.New("already clocked in today")
	ErrNotClockedIn               = errors.New("not clocked in today")
	ErrAlreadyClockedOut          = errors.New("already clocked out today")
	ErrAttendanceNotFound         = errors.New("attendance record not found")
	ErrCorrectionNotFound         = errors.New("attendance correction not found")
	ErrCorrectionPending          = errors.New("a correction is already pending for this attendance record")
	ErrCorrectionAlreadyProcessed = errors.New("attendance correction already processed")
	ErrCorrectionDateMismatch     = errors.New("corrected times must fall on the attendance work date")
	ErrSelfReview                 = errors.New("cannot review your own attendance correction")
	ErrSummaryNotFound            = errors.New("attendance summary not found")
	ErrNoEmployeeRecord           = errors.New("caller is not linked to an employee record")
	ErrUnauthorized               = errors.New("unauthorized to access this attendance record")
)
