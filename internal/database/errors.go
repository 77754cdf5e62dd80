package database

import "errors"

var (
	// ErrSlotTaken means the (provider, date, time) slot already carries a
	// reservation marker. Returned from the transactional re-check, so it is
	// the signal that another client won the race.
	ErrSlotTaken = errors.New("slot already booked")

	// ErrSlotPast means the slot's wall-clock moment passed between the
	// optimistic check and the transaction.
	ErrSlotPast = errors.New("slot is in the past")

	// ErrNotFound is returned when a looked-up record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrNotOwner means the caller tried to act on an appointment that
	// belongs to a different client.
	ErrNotOwner = errors.New("appointment belongs to another client")

	// ErrDuplicateEmail means a client with that e-mail is already registered.
	ErrDuplicateEmail = errors.New("email already registered")

	// ErrTokenExpired means a verification or reset token is past its expiry.
	ErrTokenExpired = errors.New("token expired")
)
