package booking

import "errors"

var (
	// Reference resolution
	ErrRoomNotFound        = errors.New("room not found")
	ErrUserNotFound        = errors.New("user not found")
	ErrReservationNotFound = errors.New("reservation not found")

	// Double-booking
	ErrRoomConflict = errors.New("room is already reserved for this time")
	ErrUserConflict = errors.New("user already holds a reservation for this time")

	// Group entitlement policy
	ErrNoGroupAssigned  = errors.New("user has no group assigned")
	ErrRoomNotPermitted = errors.New("group is not permitted to book this room")
	ErrHorizonExceeded  = errors.New("reservation ends beyond the allowed booking horizon")

	// More than one permission row for a (group, room) pair. This is
	// corrupted configuration, not a user error.
	ErrDuplicatePermission = errors.New("duplicate group permission for room")

	// Edit-window policy
	ErrNotOwner         = errors.New("cannot edit or cancel another user's reservation")
	ErrAlreadyEnded     = errors.New("reservation has already ended")
	ErrEditWindowClosed = errors.New("reservation is in progress past the grace window")

	ErrForbidden              = errors.New("only a superuser may book for another user")
	ErrOwnerChangeUnsupported = errors.New("editing does not support changing the reservation owner")
	ErrInvalidInterval        = errors.New("reservation start must be before its end")
)
