package httpapi

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"nebulavault/internal/vaulterr"
	"nebulavault/pkg/merkle"
)

type registerRequest struct {
	Name string `json:"name" binding:"required"`
}

type loginRequest struct {
	Identity string `json:"identity" binding:"required"`
	Secret   string `json:"secret" binding:"required"`
}

type refreshRequest struct {
	Identity     string `json:"identity" binding:"required"`
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type authorizeRequest struct {
	Grantee string `json:"grantee" binding:"required"`
}

type verifyRequest struct {
	ClaimedRoot string   `json:"claimed_root" binding:"required"`
	LeafHash    string   `json:"leaf_hash" binding:"required"`
	Proof       []string `json:"proof"`
	Indices     []uint8  `json:"indices"`
}

func (h *Handler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "paused": h.gw.Paused()})
}

// handleRegister mints an identity, stores its API secret and registers the
// profile. The plaintext secret is returned exactly once.
func (h *Handler) handleRegister(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, fmt.Errorf("%w: %v", vaulterr.ErrInvalidRequest, err))
		return
	}
	ctx := c.Request.Context()

	identity := h.auth.NewIdentity()
	secret, err := h.auth.CreateCredential(ctx, identity)
	if err != nil {
		respondErr(c, err)
		return
	}
	profile, err := h.gw.RegisterUser(ctx, identity, req.Name)
	if err != nil {
		_ = h.auth.DeleteCredential(ctx, identity)
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"identity": identity,
		"secret":   secret,
		"profile":  profile,
	})
}

func (h *Handler) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, fmt.Errorf("%w: %v", vaulterr.ErrInvalidRequest, err))
		return
	}
	access, refresh, err := h.auth.Login(c.Request.Context(), req.Identity, req.Secret)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": access, "refresh_token": refresh})
}

func (h *Handler) handleRefresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, fmt.Errorf("%w: %v", vaulterr.ErrInvalidRequest, err))
		return
	}
	access, refresh, err := h.auth.RefreshToken(c.Request.Context(), req.Identity, req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": access, "refresh_token": refresh})
}

func (h *Handler) handleLogout(c *gin.Context) {
	if err := h.auth.Logout(c.Request.Context(), callerIdentity(c), bearerToken(c)); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

func (h *Handler) handleProfile(c *gin.Context) {
	profile, err := h.gw.GetProfile(c.Request.Context(), callerIdentity(c))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// handleUpload receives the file bytes, chunks and hashes them, stores the
// payload in the blob store and registers the metadata through the gateway.
// The core only ever sees the resulting hashes.
func (h *Handler) handleUpload(c *gin.Context) {
	identity := callerIdentity(c)

	feePaid, err := strconv.ParseUint(c.PostForm("fee"), 10, 64)
	if err != nil {
		respondErr(c, fmt.Errorf("%w: fee must be an unsigned integer", vaulterr.ErrInvalidRequest))
		return
	}
	uploaded, err := c.FormFile("file")
	if err != nil {
		respondErr(c, fmt.Errorf("%w: no file provided", vaulterr.ErrInvalidRequest))
		return
	}
	src, err := uploaded.Open()
	if err != nil {
		respondErr(c, fmt.Errorf("%w: %v", vaulterr.ErrInvalidRequest, err))
		return
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		respondErr(c, fmt.Errorf("%w: %v", vaulterr.ErrInvalidRequest, err))
		return
	}

	fileHash, root, err := h.digest(data)
	if err != nil {
		respondErr(c, err)
		return
	}

	ctx := c.Request.Context()
	contentType := uploaded.Header.Get("Content-Type")
	if err := h.blobs.Put(ctx, fileHash, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		respondErr(c, fmt.Errorf("%w: blob store: %v", vaulterr.ErrStorageUnavailable, err))
		return
	}

	receipt, err := h.gw.UploadFile(ctx, identity, fileHash, uploaded.Filename, uint64(len(data)), root, feePaid)
	if err != nil {
		// Keep the blob for duplicate uploads: the existing record points at
		// the same content-addressed key.
		if !errors.Is(err, vaulterr.ErrDuplicateHash) {
			_ = h.blobs.Remove(ctx, fileHash)
		}
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"file":   receipt.Record,
		"refund": receipt.Refund,
	})
}

func (h *Handler) handleDownload(c *gin.Context) {
	ctx := c.Request.Context()
	rec, err := h.gw.DownloadFile(ctx, callerIdentity(c), c.Param("hash"))
	if err != nil {
		respondErr(c, err)
		return
	}
	reader, err := h.blobs.Get(ctx, rec.FileHash)
	if err != nil {
		respondErr(c, fmt.Errorf("%w: blob store: %v", vaulterr.ErrStorageUnavailable, err))
		return
	}
	defer reader.Close()

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", rec.Filename))
	c.DataFromReader(http.StatusOK, int64(rec.Size), "application/octet-stream", reader, nil)
}

func (h *Handler) handleGetFile(c *gin.Context) {
	rec, err := h.gw.GetFile(c.Request.Context(), c.Param("hash"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"file":     rec,
		"verified": rec.Verified(h.gw.VerificationThreshold()),
	})
}

func (h *Handler) handleAuthorize(c *gin.Context) {
	var req authorizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, fmt.Errorf("%w: %v", vaulterr.ErrInvalidRequest, err))
		return
	}
	if err := h.gw.AuthorizeUser(c.Request.Context(), callerIdentity(c), c.Param("hash"), req.Grantee); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "authorized"})
}

func (h *Handler) handleVerify(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, fmt.Errorf("%w: %v", vaulterr.ErrInvalidRequest, err))
		return
	}
	sides := make([]merkle.Side, len(req.Indices))
	for i, idx := range req.Indices {
		sides[i] = merkle.Side(idx)
	}
	outcome, err := h.gw.VerifyFileProof(c.Request.Context(), c.Param("hash"), req.ClaimedRoot, req.LeafHash, req.Proof, sides)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, outcome)
}

func (h *Handler) handleStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.gw.GetSystemStats())
}

// digest computes the content hash and chunk-tree root for an upload.
func (h *Handler) digest(data []byte) (fileHash, root string, err error) {
	if len(data) == 0 {
		return "", "", fmt.Errorf("%w: empty file", vaulterr.ErrInvalidRequest)
	}
	sum := sha256.Sum256(data)
	fileHash = hex.EncodeToString(sum[:])

	var leaves []string
	for off := 0; off < len(data); off += h.chunkSize {
		end := off + h.chunkSize
		if end > len(data) {
			end = len(data)
		}
		leaves = append(leaves, merkle.HashLeaf(data[off:end]))
	}
	tree, err := merkle.Build(leaves)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", vaulterr.ErrInvalidRequest, err)
	}
	return fileHash, tree.Root(), nil
}
