package domain

import "errors"

var (
	// ErrStatementLocked is returned when a recalculation is attempted on
	// a locked statement. Recoverable by the caller after an explicit
	// unlock.
	ErrStatementLocked = errors.New("statement_locked")
	ErrNotFound        = errors.New("statement_not_found")
	ErrInvalidRole     = errors.New("invalid_confirm_role")
)
