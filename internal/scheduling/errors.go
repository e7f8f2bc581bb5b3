package scheduling

import "errors"

// Business-rule rejections are sentinel values so callers can branch with
// errors.Is; anything else coming out of the service is a storage failure.
var (
	// ErrSlotTaken means the requested (professional, date, time) slot is
	// already held by a scheduled appointment.
	ErrSlotTaken = errors.New("slot already taken")

	// ErrTooLate means the appointment starts in less than 24 hours and can
	// no longer be rescheduled or cancelled.
	ErrTooLate = errors.New("less than 24 hours before appointment")

	// ErrNotFound means the referenced appointment does not exist.
	ErrNotFound = errors.New("appointment not found")

	// ErrInvalid means the request is missing fields or references an
	// inconsistent catalog selection or an off-grid slot.
	ErrInvalid = errors.New("invalid appointment request")
)
