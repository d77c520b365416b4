package errors

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrInvalid        = errors.New("invalid")
	ErrConflict       = errors.New("conflict")
	ErrTooMany        = errors.New("too many requests")
	ErrInternal       = errors.New("internal")
	ErrNetwork        = errors.New("network error")
	ErrHTTP           = errors.New("http error")
	ErrTimeout        = errors.New("timeout")
	ErrCanceled       = errors.New("canceled")
	ErrParse          = errors.New("parse error")
	ErrNoResults      = errors.New("no results")
	ErrWrongPassword  = errors.New("wrong password")
	ErrCipherFailure  = errors.New("cipher failure")
	ErrSaveInProgress = errors.New("save in progress")
)

// HTTPError carries the status of a non-2xx upstream response. It matches ErrHTTP.
type HTTPError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("http error: %s", e.Status)
	}
	return fmt.Sprintf("http error: %s: %s", e.Status, e.Body)
}

func (e *HTTPError) Is(target error) bool {
	return target == ErrHTTP
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsWrongPassword(err error) bool {
	return errors.Is(err, ErrWrongPassword)
}
