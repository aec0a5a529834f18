package apperr

import "errors"

var (
	ErrNotFound       = errors.New("not found")
	ErrValidation     = errors.New("validation failed")
	ErrEmptyVault     = errors.New("no words to export")
	ErrSubmitInFlight = errors.New("save already in progress")
	ErrSessionClosed  = errors.New("session closed")
)
