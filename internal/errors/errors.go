package errors

import "errors"

var ErrUnauthorized = errors.New("user is not authorized")
var ErrForbidden = errors.New("operation is forbidden for user")

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInactiveUser       = errors.New("user is inactive or blocked")
	ErrTokenExpired       = errors.New("token expired")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrValidation         = errors.New("validation failed")
	ErrNotFound           = errors.New("not found")
	ErrTenantNotFound     = errors.New("tenant not found")
)

var (
	ErrNumberUnavailable  = errors.New("number is not available")
	ErrRaffleNotActive    = errors.New("raffle is not active")
	ErrRaffleNotClosed    = errors.New("raffle is not closed")
	ErrInvalidTransition  = errors.New("invalid raffle status transition")
	ErrResultRequired     = errors.New("result not recorded yet")
	ErrNoPaidNumbers      = errors.New("raffle has no paid numbers")
	ErrRateLimited        = errors.New("too many active reservations")
	ErrReservationExpired = errors.New("reservation expired")
	ErrPaymentProvider    = errors.New("payment provider failure")
)
