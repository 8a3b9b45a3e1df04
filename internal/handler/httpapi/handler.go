// Package httpapi is the REST ingress in front of the gateway. It
// authenticates callers, translates HTTP requests into typed gateway calls,
// handles the physical file bytes (chunking, hashing, blob storage) and maps
// error kinds to stable response codes.
package httpapi

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"nebulavault/internal/registry/gateway"
	"nebulavault/internal/service/auth"
	"nebulavault/internal/storage/blob"
)

type Handler struct {
	gw        *gateway.Gateway
	auth      *auth.Service
	blobs     *blob.Store
	chunkSize int
}

func New(gw *gateway.Gateway, authSvc *auth.Service, blobs *blob.Store, chunkSize int) *Handler {
	if chunkSize <= 0 {
		chunkSize = 32 * 1024
	}
	return &Handler{gw: gw, auth: authSvc, blobs: blobs, chunkSize: chunkSize}
}

// Router builds the gin engine with all routes attached.
func (h *Handler) Router() *gin.Engine {
	r := gin.Default()

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowAllOrigins = true
	corsCfg.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	r.Use(cors.New(corsCfg))

	r.GET("/health", h.handleHealth)

	api := r.Group("/api")
	{
		api.POST("/register", h.handleRegister)
		api.POST("/login", h.handleLogin)
		api.POST("/refresh", h.handleRefresh)

		// Public metadata reads: file existence and stats are visible to
		// everyone, only downloads are access gated.
		api.GET("/files/:hash", h.handleGetFile)
		api.GET("/stats", h.handleStats)

		authorized := api.Group("/")
		authorized.Use(h.authMiddleware())
		{
			authorized.POST("/logout", h.handleLogout)
			authorized.GET("/profile", h.handleProfile)
			authorized.POST("/upload", h.handleUpload)
			authorized.GET("/files/:hash/download", h.handleDownload)
			authorized.POST("/files/:hash/authorize", h.handleAuthorize)
			authorized.POST("/files/:hash/verify", h.handleVerify)

			admin := authorized.Group("/admin")
			{
				admin.POST("/pause", h.handlePause)
				admin.POST("/unpause", h.handleUnpause)
				admin.PUT("/fee", h.handleSetFee)
				admin.PUT("/threshold", h.handleSetThreshold)
				admin.PUT("/quota/default", h.handleSetDefaultQuota)
				admin.PUT("/quota/max", h.handleSetMaxQuota)
				admin.PUT("/users/:identity/quota", h.handleSetUserQuota)
				admin.POST("/users/:identity/suspend", h.handleSuspend)
				admin.POST("/users/:identity/unsuspend", h.handleUnsuspend)
			}
		}
	}

	return r
}
