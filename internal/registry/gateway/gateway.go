// Package gateway is the single entry point in front of the three registries.
// It owns the pause switch and the aggregate statistics and sequences every
// cross-registry call; the registries never call each other directly.
package gateway

import (
	"context"
	"sync"

	"nebulavault/internal/model/fileinfo"
	"nebulavault/internal/model/user"
	"nebulavault/internal/registry/access"
	"nebulavault/internal/registry/filereg"
	"nebulavault/internal/registry/proof"
	"nebulavault/internal/vaulterr"
	"nebulavault/pkg/merkle"
)

// Stats are the process-wide counters, zeroed at construction. Every counter
// moves exactly once per successful corresponding operation.
type Stats struct {
	TotalUsers         uint64 `json:"total_users"`
	TotalFiles         uint64 `json:"total_files"`
	TotalVerifiedFiles uint64 `json:"total_verified_files"`
	TotalUploads       uint64 `json:"total_uploads"`
	TotalDownloads     uint64 `json:"total_downloads"`
}

type Gateway struct {
	access *access.Registry
	files  *filereg.Registry
	proofs *proof.Verifier
	admin  string

	// mu serializes mutating operations: each one commits or fails as a
	// single unit of work. Reads stay available while paused.
	mu     sync.RWMutex
	paused bool
	stats  Stats
}

func New(accessReg *access.Registry, fileReg *filereg.Registry, verifier *proof.Verifier, admin string) *Gateway {
	return &Gateway{access: accessReg, files: fileReg, proofs: verifier, admin: admin}
}

// RegisterUser creates a profile for identity and counts the new user.
func (g *Gateway) RegisterUser(ctx context.Context, identity, name string) (*user.Profile, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.paused {
		return nil, vaulterr.ErrSystemPaused
	}
	profile, err := g.access.Register(ctx, identity, name)
	if err != nil {
		return nil, err
	}
	g.stats.TotalUsers++
	return profile, nil
}

// UploadFile records a file for identity and counts the upload.
func (g *Gateway) UploadFile(ctx context.Context, identity, fileHash, filename string, size uint64, merkleRoot string, feePaid uint64) (*filereg.UploadReceipt, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.paused {
		return nil, vaulterr.ErrSystemPaused
	}
	receipt, err := g.files.Upload(ctx, identity, fileHash, filename, size, merkleRoot, feePaid)
	if err != nil {
		return nil, err
	}
	g.stats.TotalFiles++
	g.stats.TotalUploads++
	return receipt, nil
}

// DownloadFile authorizes identity against the file and counts the download.
func (g *Gateway) DownloadFile(ctx context.Context, identity, fileHash string) (*fileinfo.Record, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.paused {
		return nil, vaulterr.ErrSystemPaused
	}
	rec, err := g.files.Download(ctx, identity, fileHash)
	if err != nil {
		return nil, err
	}
	g.stats.TotalDownloads++
	return rec, nil
}

// VerifyFileProof runs one inclusion proof. The file counts toward
// TotalVerifiedFiles on the call that reaches the threshold, not on every
// successful proof.
func (g *Gateway) VerifyFileProof(ctx context.Context, fileHash, claimedRoot, leafHash string, path []string, sides []merkle.Side) (*proof.Outcome, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.paused {
		return nil, vaulterr.ErrSystemPaused
	}
	outcome, err := g.proofs.Verify(ctx, fileHash, claimedRoot, leafHash, path, sides)
	if err != nil {
		return nil, err
	}
	if outcome.NewlyVerified {
		g.stats.TotalVerifiedFiles++
	}
	return outcome, nil
}

// AuthorizeUser grants grantee download access to the file.
func (g *Gateway) AuthorizeUser(ctx context.Context, caller, fileHash, grantee string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.paused {
		return vaulterr.ErrSystemPaused
	}
	return g.files.Authorize(ctx, caller, fileHash, grantee)
}

// GetFile is a public metadata read; only downloads are access gated.
func (g *Gateway) GetFile(ctx context.Context, fileHash string) (*fileinfo.Record, error) {
	return g.files.GetFile(ctx, fileHash)
}

// GetProfile reads one identity's profile.
func (g *Gateway) GetProfile(ctx context.Context, identity string) (*user.Profile, error) {
	return g.access.GetProfile(ctx, identity)
}

// GetSystemStats is allowed in both states, paused included.
func (g *Gateway) GetSystemStats() Stats {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.stats
}

// Paused reports the current switch position.
func (g *Gateway) Paused() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.paused
}

// StorageFee exposes the current upload fee for the request layer.
func (g *Gateway) StorageFee() uint64 {
	return g.files.StorageFee()
}

// VerificationThreshold exposes the current proof threshold.
func (g *Gateway) VerificationThreshold() uint64 {
	return g.proofs.Threshold()
}

// Pause flips the switch to Paused. Pausing an already paused system is a
// no-op success.
func (g *Gateway) Pause(caller string) error {
	if err := g.requireAdmin(caller); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.paused = true
	return nil
}

// Unpause flips the switch back to Active, idempotently.
func (g *Gateway) Unpause(caller string) error {
	if err := g.requireAdmin(caller); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.paused = false
	return nil
}

// SetStorageFee is admin-only and rejected while paused.
func (g *Gateway) SetStorageFee(caller string, fee uint64) error {
	if err := g.adminMutation(caller); err != nil {
		return err
	}
	g.files.SetStorageFee(fee)
	return nil
}

// SetVerificationThreshold is admin-only and rejected while paused.
func (g *Gateway) SetVerificationThreshold(caller string, n uint64) error {
	if err := g.adminMutation(caller); err != nil {
		return err
	}
	return g.proofs.SetThreshold(n)
}

// SetDefaultQuota is admin-only and rejected while paused.
func (g *Gateway) SetDefaultQuota(caller string, quota uint64) error {
	if err := g.adminMutation(caller); err != nil {
		return err
	}
	return g.access.SetDefaultQuota(quota)
}

// SetMaxQuota is admin-only and rejected while paused.
func (g *Gateway) SetMaxQuota(caller string, quota uint64) error {
	if err := g.adminMutation(caller); err != nil {
		return err
	}
	g.access.SetMaxQuota(quota)
	return nil
}

// SetUserQuota is admin-only and rejected while paused.
func (g *Gateway) SetUserQuota(ctx context.Context, caller, identity string, quota uint64) error {
	if err := g.adminMutation(caller); err != nil {
		return err
	}
	return g.access.SetQuota(ctx, identity, quota)
}

// Suspend is admin-only and rejected while paused.
func (g *Gateway) Suspend(ctx context.Context, caller, identity string) error {
	if err := g.adminMutation(caller); err != nil {
		return err
	}
	return g.access.Suspend(ctx, identity)
}

// Unsuspend is admin-only and rejected while paused.
func (g *Gateway) Unsuspend(ctx context.Context, caller, identity string) error {
	if err := g.adminMutation(caller); err != nil {
		return err
	}
	return g.access.Unsuspend(ctx, identity)
}

func (g *Gateway) requireAdmin(caller string) error {
	if caller != g.admin {
		return vaulterr.ErrNotAuthorized
	}
	return nil
}

// adminMutation gates config setters: admin-only, and like every other
// mutation they are rejected while paused. Only Pause/Unpause bypass the
// switch.
func (g *Gateway) adminMutation(caller string) error {
	if err := g.requireAdmin(caller); err != nil {
		return err
	}
	g.mu.RLock()
	paused := g.paused
	g.mu.RUnlock()
	if paused {
		return vaulterr.ErrSystemPaused
	}
	return nil
}
