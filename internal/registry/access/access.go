// Package access owns the identity-to-profile mapping: registration, quota
// bookkeeping and suspension. It never calls into the other registries.
package access

import (
	"context"
	"sync"
	"time"

	"nebulavault/internal/model/user"
	"nebulavault/internal/vaulterr"
)

// MinNameLength is the shortest display name accepted at registration.
const MinNameLength = 3

// ProfileStore is the durable profile storage the registry runs on. A missing
// profile is reported as (nil, nil); a non-nil error means the substrate
// itself failed and is already wrapped in vaulterr.ErrStorageUnavailable.
type ProfileStore interface {
	Create(ctx context.Context, p *user.Profile) error
	GetByIdentity(ctx context.Context, identity string) (*user.Profile, error)
	GetByName(ctx context.Context, name string) (*user.Profile, error)
	UpdateUsage(ctx context.Context, identity string, used uint64) error
	SetSuspended(ctx context.Context, identity string, suspended bool) error
	SetQuota(ctx context.Context, identity string, quota uint64) error
}

type Registry struct {
	store ProfileStore

	mu           sync.RWMutex
	defaultQuota uint64
	maxQuota     uint64 // 0 means no ceiling
}

func New(store ProfileStore, defaultQuota, maxQuota uint64) *Registry {
	return &Registry{store: store, defaultQuota: defaultQuota, maxQuota: maxQuota}
}

// Register creates the profile for an identity. Registration is not
// idempotent: a second call for the same identity fails.
func (r *Registry) Register(ctx context.Context, identity, name string) (*user.Profile, error) {
	if len(name) < MinNameLength {
		return nil, vaulterr.ErrNameTooShort
	}
	existing, err := r.store.GetByIdentity(ctx, identity)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, vaulterr.ErrAlreadyRegistered
	}
	// Display names are unique and case-sensitive.
	taken, err := r.store.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if taken != nil {
		return nil, vaulterr.ErrNameTaken
	}

	r.mu.RLock()
	quota := r.defaultQuota
	r.mu.RUnlock()

	profile := &user.Profile{
		Identity:     identity,
		Name:         name,
		RegisteredAt: time.Now().UTC(),
		StorageQuota: quota,
	}
	if err := r.store.Create(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

func (r *Registry) GetProfile(ctx context.Context, identity string) (*user.Profile, error) {
	profile, err := r.store.GetByIdentity(ctx, identity)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, vaulterr.ErrNotFound
	}
	return profile, nil
}

// IsEligible is the one read exposed to the other registries: true iff the
// identity is registered and not suspended.
func (r *Registry) IsEligible(ctx context.Context, identity string) (bool, error) {
	profile, err := r.store.GetByIdentity(ctx, identity)
	if err != nil {
		return false, err
	}
	return profile != nil && !profile.Suspended, nil
}

// ChargeQuota adds bytes to the identity's storage usage, rejecting the charge
// if it would push usage past the quota.
func (r *Registry) ChargeQuota(ctx context.Context, identity string, bytes uint64) error {
	profile, err := r.store.GetByIdentity(ctx, identity)
	if err != nil {
		return err
	}
	if profile == nil {
		return vaulterr.ErrNotRegistered
	}
	if profile.Suspended {
		return vaulterr.ErrSuspended
	}
	if profile.StorageUsed+bytes > profile.StorageQuota {
		return vaulterr.ErrQuotaExceeded
	}
	return r.store.UpdateUsage(ctx, identity, profile.StorageUsed+bytes)
}

// RefundQuota reverses a charge after a failed upload so no partial state
// survives the failure.
func (r *Registry) RefundQuota(ctx context.Context, identity string, bytes uint64) error {
	profile, err := r.store.GetByIdentity(ctx, identity)
	if err != nil {
		return err
	}
	if profile == nil {
		return vaulterr.ErrNotRegistered
	}
	used := profile.StorageUsed
	if bytes > used {
		used = 0
	} else {
		used -= bytes
	}
	return r.store.UpdateUsage(ctx, identity, used)
}

func (r *Registry) Suspend(ctx context.Context, identity string) error {
	profile, err := r.store.GetByIdentity(ctx, identity)
	if err != nil {
		return err
	}
	if profile == nil {
		return vaulterr.ErrNotRegistered
	}
	if profile.Suspended {
		return vaulterr.ErrAlreadySuspended
	}
	return r.store.SetSuspended(ctx, identity, true)
}

func (r *Registry) Unsuspend(ctx context.Context, identity string) error {
	profile, err := r.store.GetByIdentity(ctx, identity)
	if err != nil {
		return err
	}
	if profile == nil {
		return vaulterr.ErrNotRegistered
	}
	if !profile.Suspended {
		return vaulterr.ErrNotSuspended
	}
	return r.store.SetSuspended(ctx, identity, false)
}

// SetDefaultQuota changes the quota granted to future registrations.
func (r *Registry) SetDefaultQuota(quota uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.maxQuota > 0 && quota > r.maxQuota {
		return vaulterr.ErrQuotaExceeded
	}
	r.defaultQuota = quota
	return nil
}

// SetMaxQuota sets the ceiling future per-user quotas cannot exceed.
func (r *Registry) SetMaxQuota(quota uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.maxQuota = quota
}

// SetQuota changes one identity's quota, bounded by the configured ceiling.
func (r *Registry) SetQuota(ctx context.Context, identity string, quota uint64) error {
	r.mu.RLock()
	ceiling := r.maxQuota
	r.mu.RUnlock()
	if ceiling > 0 && quota > ceiling {
		return vaulterr.ErrQuotaExceeded
	}
	profile, err := r.store.GetByIdentity(ctx, identity)
	if err != nil {
		return err
	}
	if profile == nil {
		return vaulterr.ErrNotRegistered
	}
	return r.store.SetQuota(ctx, identity, quota)
}
