package httpapi

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"nebulavault/internal/vaulterr"
)

type valueRequest struct {
	Value uint64 `json:"value"`
}

func (h *Handler) handlePause(c *gin.Context) {
	if err := h.gw.Pause(callerIdentity(c)); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "paused"})
}

func (h *Handler) handleUnpause(c *gin.Context) {
	if err := h.gw.Unpause(callerIdentity(c)); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "active"})
}

func (h *Handler) handleSetFee(c *gin.Context) {
	h.adminValue(c, func(caller string, v uint64) error {
		return h.gw.SetStorageFee(caller, v)
	})
}

func (h *Handler) handleSetThreshold(c *gin.Context) {
	h.adminValue(c, func(caller string, v uint64) error {
		return h.gw.SetVerificationThreshold(caller, v)
	})
}

func (h *Handler) handleSetDefaultQuota(c *gin.Context) {
	h.adminValue(c, func(caller string, v uint64) error {
		return h.gw.SetDefaultQuota(caller, v)
	})
}

func (h *Handler) handleSetMaxQuota(c *gin.Context) {
	h.adminValue(c, func(caller string, v uint64) error {
		return h.gw.SetMaxQuota(caller, v)
	})
}

func (h *Handler) handleSetUserQuota(c *gin.Context) {
	identity := c.Param("identity")
	h.adminValue(c, func(caller string, v uint64) error {
		return h.gw.SetUserQuota(c.Request.Context(), caller, identity, v)
	})
}

func (h *Handler) handleSuspend(c *gin.Context) {
	if err := h.gw.Suspend(c.Request.Context(), callerIdentity(c), c.Param("identity")); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "suspended"})
}

func (h *Handler) handleUnsuspend(c *gin.Context) {
	if err := h.gw.Unsuspend(c.Request.Context(), callerIdentity(c), c.Param("identity")); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "unsuspended"})
}

// adminValue binds the {"value": n} body shared by every config setter and
// applies it.
func (h *Handler) adminValue(c *gin.Context, apply func(caller string, v uint64) error) {
	var req valueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, fmt.Errorf("%w: %v", vaulterr.ErrInvalidRequest, err))
		return
	}
	if err := apply(callerIdentity(c), req.Value); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "updated", "value": req.Value})
}
