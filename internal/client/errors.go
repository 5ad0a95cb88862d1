package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"rifas/internal/i18n"
)

var (
	ErrUnauthenticated    = errors.New("not authenticated")
	ErrNumberUnavailable  = errors.New("number unavailable")
	ErrValidation         = errors.New("invalid data")
	ErrResultRequired     = errors.New("result not recorded yet")
	ErrPayment            = errors.New("payment request failed")
	ErrNetwork            = errors.New("network error")
	ErrReservationExpired = errors.New("reservation expired")
)

// APIError is a non-2xx answer of the rifas API
type APIError struct {
	Status int
	Code   string
	Detail string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("api error %d: %s", e.Status, e.Detail)
	}
	return fmt.Sprintf("api error %d %s: %s", e.Status, e.Code, e.Detail)
}

// Unwrap lets callers match the broad categories with errors.Is
func (e *APIError) Unwrap() error {
	switch {
	case e.Status == http.StatusUnauthorized:
		return ErrUnauthenticated
	case e.Code == "NUMBER_UNAVAILABLE":
		return ErrNumberUnavailable
	case e.Code == "RESULT_REQUIRED":
		return ErrResultRequired
	case e.Status == http.StatusBadRequest || e.Status == http.StatusUnprocessableEntity:
		return ErrValidation
	}
	return nil
}

var codeMessages = map[string]string{
	"INVALID_CREDENTIALS": i18n.MsgInvalidCredentials,
	"USER_NOT_FOUND":      i18n.MsgUserNotFound,
	"USER_BLOCKED":        i18n.MsgInactiveUser,
	"INACTIVE_USER":       i18n.MsgInactiveUser,
	"TOKEN_EXPIRED":       i18n.MsgTokenExpired,
	"USER_ALREADY_EXISTS": i18n.MsgUserExists,
	"NUMBER_UNAVAILABLE":  i18n.MsgNumberUnavailable,
	"RESULT_REQUIRED":     i18n.MsgResultRequired,
	"RESERVATION_EXPIRED": i18n.MsgReservationExpired,
}

// MapError turns any client error into the pt-BR message shown to the user.
// A nil error maps to the empty string.
func MapError(err error) string {
	if err == nil {
		return ""
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if id, ok := codeMessages[apiErr.Code]; ok {
			return i18n.T(id)
		}
		switch apiErr.Status {
		case http.StatusUnauthorized:
			return i18n.T(i18n.MsgTokenExpired)
		case http.StatusBadRequest, http.StatusUnprocessableEntity:
			return i18n.T(i18n.MsgInvalidData)
		case http.StatusForbidden:
			return i18n.T(i18n.MsgAccessDenied)
		}
		if errors.Is(err, ErrPayment) {
			return i18n.T(i18n.MsgPaymentError)
		}
		return i18n.T(i18n.MsgUnexpected)
	}

	switch {
	case errors.Is(err, ErrNetwork), errors.Is(err, context.DeadlineExceeded):
		return i18n.T(i18n.MsgNetworkError)
	case errors.Is(err, ErrNumberUnavailable):
		return i18n.T(i18n.MsgNumberUnavailable)
	case errors.Is(err, ErrReservationExpired):
		return i18n.T(i18n.MsgReservationExpired)
	case errors.Is(err, ErrResultRequired):
		return i18n.T(i18n.MsgResultRequired)
	case errors.Is(err, ErrUnauthenticated):
		return i18n.T(i18n.MsgTokenExpired)
	case errors.Is(err, ErrValidation):
		return i18n.T(i18n.MsgInvalidData)
	case errors.Is(err, ErrPayment):
		return i18n.T(i18n.MsgPaymentError)
	}
	return i18n.T(i18n.MsgUnexpected)
}
