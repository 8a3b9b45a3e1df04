package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"nebulavault/internal/vaulterr"
)

// kindFor maps an error to its stable kind name and HTTP status. Internal
// state never leaks: callers see kind + message only.
func kindFor(err error) (int, string) {
	switch {
	case errors.Is(err, vaulterr.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, vaulterr.ErrNotAuthorized):
		return http.StatusForbidden, "not_authorized"
	case errors.Is(err, vaulterr.ErrNotOwnerOrAdmin):
		return http.StatusForbidden, "not_owner_or_admin"
	case errors.Is(err, vaulterr.ErrNotRegistered):
		return http.StatusForbidden, "not_registered"
	case errors.Is(err, vaulterr.ErrSuspended):
		return http.StatusForbidden, "suspended"
	case errors.Is(err, vaulterr.ErrAlreadyRegistered):
		return http.StatusConflict, "already_registered"
	case errors.Is(err, vaulterr.ErrNameTaken):
		return http.StatusConflict, "name_taken"
	case errors.Is(err, vaulterr.ErrDuplicateHash):
		return http.StatusConflict, "duplicate_hash"
	case errors.Is(err, vaulterr.ErrAlreadySuspended):
		return http.StatusConflict, "already_suspended"
	case errors.Is(err, vaulterr.ErrNotSuspended):
		return http.StatusConflict, "not_suspended"
	case errors.Is(err, vaulterr.ErrNameTooShort):
		return http.StatusBadRequest, "name_too_short"
	case errors.Is(err, vaulterr.ErrMalformedProof):
		return http.StatusBadRequest, "malformed_proof"
	case errors.Is(err, vaulterr.ErrInvalidRequest):
		return http.StatusBadRequest, "invalid_request"
	case errors.Is(err, vaulterr.ErrInsufficientFee):
		return http.StatusPaymentRequired, "insufficient_fee"
	case errors.Is(err, vaulterr.ErrQuotaExceeded):
		return http.StatusRequestEntityTooLarge, "quota_exceeded"
	case errors.Is(err, vaulterr.ErrRootMismatch):
		return http.StatusUnprocessableEntity, "root_mismatch"
	case errors.Is(err, vaulterr.ErrSystemPaused):
		return http.StatusServiceUnavailable, "system_paused"
	case errors.Is(err, vaulterr.ErrStorageUnavailable):
		return http.StatusServiceUnavailable, "storage_unavailable"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func respondErr(c *gin.Context, err error) {
	status, kind := kindFor(err)
	c.JSON(status, gin.H{"error": kind, "message": err.Error()})
}
