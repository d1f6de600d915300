package routes

import (
	"errors"
	"net/http"

	"room-reservation/internal/booking"
	"room-reservation/internal/identity"
	"room-reservation/internal/storage"
)

// HTTPError represents an error with an associated HTTP status code and user message
type HTTPError struct {
	Err        error    // The underlying error
	StatusCode int      // HTTP status code
	Message    string   // User-friendly message
	StopCodes  []string // Optional stop codes for client-side handling
	Internal   bool     // Whether this is an internal error (hide details from user)
}

// ErrorInfo contains error metadata for user-facing errors
type ErrorInfo struct {
	Message   string   // User-friendly message
	StopCodes []string // Optional stop codes for client-side application
}

// Error implements the error interface
func (e *HTTPError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// Unwrap returns the underlying error
func (e *HTTPError) Unwrap() error {
	return e.Err
}

// NewHTTPError creates a new HTTPError
func NewHTTPError(statusCode int, err error, message string, stopCodes ...string) *HTTPError {
	return &HTTPError{
		Err:        err,
		StatusCode: statusCode,
		Message:    message,
		StopCodes:  stopCodes,
		Internal:   statusCode >= 500,
	}
}

// Routes-specific errors (that don't conflict with other packages)
var (
	// Authentication errors
	ErrUnauthorized = errors.New("unauthorized")

	// Authorization errors
	ErrSuperuserRequired = errors.New("superuser required")

	// Validation errors
	ErrInvalidRequest = errors.New("invalid request")

	// Internal errors
	ErrInternalServer = errors.New("internal server error")
)

// errorStatusMap maps errors to HTTP status codes
var errorStatusMap = map[error]int{
	// 400 Bad Request
	ErrInvalidRequest:          http.StatusBadRequest,
	booking.ErrInvalidInterval: http.StatusBadRequest,

	// 401 Unauthorized
	ErrUnauthorized:                http.StatusUnauthorized,
	identity.ErrNonValidToken:      http.StatusUnauthorized,
	identity.ErrInvalidToken:       http.StatusUnauthorized,
	identity.ErrInvalidCredentials: http.StatusUnauthorized,

	// 403 Forbidden
	ErrSuperuserRequired:        http.StatusForbidden,
	booking.ErrForbidden:        http.StatusForbidden,
	booking.ErrNotOwner:         http.StatusForbidden,
	booking.ErrAlreadyEnded:     http.StatusForbidden,
	booking.ErrEditWindowClosed: http.StatusForbidden,

	// 404 Not Found
	booking.ErrRoomNotFound:        http.StatusNotFound,
	booking.ErrUserNotFound:        http.StatusNotFound,
	booking.ErrReservationNotFound: http.StatusNotFound,
	storage.ErrNotFound:            http.StatusNotFound,

	// 422 Unprocessable Entity
	booking.ErrRoomConflict:     http.StatusUnprocessableEntity,
	booking.ErrUserConflict:     http.StatusUnprocessableEntity,
	booking.ErrNoGroupAssigned:  http.StatusUnprocessableEntity,
	booking.ErrRoomNotPermitted: http.StatusUnprocessableEntity,
	booking.ErrHorizonExceeded:  http.StatusUnprocessableEntity,

	// 500 Internal Server Error
	ErrInternalServer:              http.StatusInternalServerError,
	booking.ErrDuplicatePermission: http.StatusInternalServerError,

	// 501 Not Implemented
	booking.ErrOwnerChangeUnsupported: http.StatusNotImplemented,
}

// errorInfoMap maps errors to optional stop codes for client-side handling
var errorInfoMap = map[error]ErrorInfo{
	ErrUnauthorized: {
		Message:   "Authentication required",
		StopCodes: []string{"AUTH_REQUIRED"},
	},
	identity.ErrNonValidToken: {
		Message:   "Invalid or expired authentication token",
		StopCodes: []string{"AUTH_INVALID_TOKEN"},
	},
	identity.ErrInvalidCredentials: {
		Message:   "Invalid credentials provided",
		StopCodes: []string{"AUTH_INVALID_CREDENTIALS"},
	},
	ErrSuperuserRequired: {
		Message:   "This action requires superuser privileges",
		StopCodes: []string{"SUPERUSER_REQUIRED"},
	},
	booking.ErrRoomConflict: {
		StopCodes: []string{"ROOM_DOUBLE_BOOKED"},
	},
	booking.ErrUserConflict: {
		StopCodes: []string{"USER_DOUBLE_BOOKED"},
	},
	booking.ErrNoGroupAssigned: {
		StopCodes: []string{"NO_GROUP"},
	},
	booking.ErrRoomNotPermitted: {
		StopCodes: []string{"ROOM_NOT_PERMITTED"},
	},
	booking.ErrHorizonExceeded: {
		StopCodes: []string{"HORIZON_EXCEEDED"},
	},
	booking.ErrEditWindowClosed: {
		StopCodes: []string{"EDIT_WINDOW_CLOSED"},
	},
	booking.ErrDuplicatePermission: {
		Message: "Permission configuration is corrupted",
	},
	ErrInternalServer: {
		Message: "An internal error occurred",
	},
}

// GetErrorStatus returns the HTTP status code for an error
func GetErrorStatus(err error) int {
	// Check if it's already an HTTPError
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode
	}

	// Check direct match
	if status, ok := errorStatusMap[err]; ok {
		return status
	}

	// Check if error wraps a known error
	for knownErr, status := range errorStatusMap {
		if errors.Is(err, knownErr) {
			return status
		}
	}

	// Default to 500 Internal Server Error
	return http.StatusInternalServerError
}

// GetErrorInfo returns error information including message and stop codes.
// Client errors keep the full error text so the caller sees which entity
// blocked the request; server errors get a generic message.
func GetErrorInfo(err error) ErrorInfo {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return ErrorInfo{
			Message:   httpErr.Message,
			StopCodes: httpErr.StopCodes,
		}
	}

	status := GetErrorStatus(err)

	var info ErrorInfo
	if mapped, ok := errorInfoMap[err]; ok {
		info = mapped
	} else {
		for knownErr, mapped := range errorInfoMap {
			if errors.Is(err, knownErr) {
				info = mapped
				break
			}
		}
	}

	if status >= 500 {
		if info.Message == "" {
			info.Message = "An internal error occurred"
		}
		return info
	}
	if info.Message == "" {
		info.Message = err.Error()
	}
	return info
}
