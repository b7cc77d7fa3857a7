package domain

import "errors"

// Error taxonomy shared by every bounded context. Context specific errors wrap
// one of these so callers can classify failures with errors.Is.
var (
	ErrNotFound            = errors.New("not found")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrAlreadyTerminated   = errors.New("already terminated")
	ErrNotDue              = errors.New("payment not due")
	ErrExpired             = errors.New("payment window expired")
	ErrInvalidCompensation = errors.New("invalid compensation")
	ErrTransferFailed      = errors.New("transfer failed")
	ErrInvalidParameters   = errors.New("invalid parameters")
	// ErrInconsistentState signals a content address that resolves to a
	// record with different defining fields.
	ErrInconsistentState = errors.New("inconsistent state")
)
