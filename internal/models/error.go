package models

import "errors"

// Sentinel errors for common failure conditions
var (
	ErrNotFound       = errors.New("resource not found")
	ErrConflict       = errors.New("resource already exists")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrBadRequest     = errors.New("bad request")
	ErrInternalServer = errors.New("internal server error")

	// Domain errors
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAlreadyRegistered  = errors.New("participant already registered for this account")
	ErrAlreadySubscribed  = errors.New("email already subscribed")
	ErrLotNotAvailable    = errors.New("lot is not available")
	ErrLotNotReserved     = errors.New("lot is not reserved")
	ErrSelfReservation    = errors.New("cannot reserve your own lot")
	ErrRateLimited        = errors.New("rate limit exceeded")
)
