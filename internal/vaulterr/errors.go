// Package vaulterr defines the error kinds the registries report. Every
// failure a caller can trigger maps to exactly one of these sentinels so the
// request layer can translate them into stable response codes.
package vaulterr

import "errors"

var (
	ErrNotRegistered     = errors.New("identity not registered")
	ErrAlreadyRegistered = errors.New("identity already registered")
	ErrNameTooShort      = errors.New("display name too short")
	ErrNameTaken         = errors.New("display name already taken")
	ErrSuspended         = errors.New("identity suspended")
	ErrAlreadySuspended  = errors.New("identity already suspended")
	ErrNotSuspended      = errors.New("identity not suspended")
	ErrQuotaExceeded     = errors.New("storage quota exceeded")
	ErrDuplicateHash     = errors.New("file hash already registered")
	ErrInsufficientFee   = errors.New("insufficient storage fee")
	ErrNotFound          = errors.New("not found")
	ErrNotAuthorized     = errors.New("not authorized")
	ErrNotOwnerOrAdmin   = errors.New("caller is not file owner or admin")
	ErrRootMismatch      = errors.New("merkle root mismatch")
	ErrMalformedProof    = errors.New("malformed merkle proof")
	ErrSystemPaused      = errors.New("system paused")
	ErrInvalidRequest    = errors.New("invalid request")

	// ErrStorageUnavailable wraps failures of the durability substrate itself.
	// It is the only kind that signals a fault rather than a bad request.
	ErrStorageUnavailable = errors.New("storage unavailable")
)
