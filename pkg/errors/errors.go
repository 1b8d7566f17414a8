package waerrors

import (
	"errors"
	"time"
)

// Common errors
var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidInput        = errors.New("invalid input")
	ErrAlreadyExists       = errors.New("already exists")
	ErrConflict            = errors.New("conflict")
	ErrProviderUnavailable = errors.New("provider unavailable")
	ErrProviderRejected    = errors.New("provider rejected")
	ErrPersistence         = errors.New("persistence failure")
	ErrServiceUnavailable  = errors.New("service unavailable")
)

// NowPtr returns a pointer to current time
func NowPtr() *time.Time {
	now := time.Now()
	return &now
}
