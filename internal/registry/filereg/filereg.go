// Package filereg owns file metadata: fee and quota gated uploads,
// authorization-gated downloads and the per-file authorization list.
package filereg

import (
	"context"
	"sync"
	"time"

	"nebulavault/internal/model/fileinfo"
	"nebulavault/internal/vaulterr"
	"nebulavault/pkg/merkle"
)

// FileStore is the durable record storage. A missing record is (nil, nil); a
// non-nil error is a substrate failure wrapped in ErrStorageUnavailable.
type FileStore interface {
	CreateFile(ctx context.Context, rec *fileinfo.Record) error
	GetByHash(ctx context.Context, hash string) (*fileinfo.Record, error)
	AddAuthorized(ctx context.Context, hash, identity string) error
	IncrementDownloads(ctx context.Context, hash string) error
}

// AccessChecker is the slice of the access registry the file registry needs
// for caller eligibility and quota accounting.
type AccessChecker interface {
	IsEligible(ctx context.Context, identity string) (bool, error)
	ChargeQuota(ctx context.Context, identity string, bytes uint64) error
	RefundQuota(ctx context.Context, identity string, bytes uint64) error
}

// UploadReceipt reports the created record and the excess fee returned to the
// caller. The fee is flat: anything above it is refunded in full.
type UploadReceipt struct {
	Record *fileinfo.Record
	Refund uint64
}

type Registry struct {
	store  FileStore
	access AccessChecker
	admin  string

	mu         sync.RWMutex
	storageFee uint64
}

func New(store FileStore, access AccessChecker, admin string, storageFee uint64) *Registry {
	return &Registry{store: store, access: access, admin: admin, storageFee: storageFee}
}

// StorageFee returns the current flat upload fee.
func (r *Registry) StorageFee() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.storageFee
}

// SetStorageFee changes the flat upload fee.
func (r *Registry) SetStorageFee(fee uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.storageFee = fee
}

// Upload records a new file for owner. The quota charge and the record
// creation commit together: a creation failure refunds the charge before the
// error propagates.
func (r *Registry) Upload(ctx context.Context, owner, fileHash, filename string, size uint64, merkleRoot string, feePaid uint64) (*UploadReceipt, error) {
	eligible, err := r.access.IsEligible(ctx, owner)
	if err != nil {
		return nil, err
	}
	if !eligible {
		return nil, vaulterr.ErrNotRegistered
	}
	fee := r.StorageFee()
	if feePaid < fee {
		return nil, vaulterr.ErrInsufficientFee
	}
	if size == 0 {
		return nil, vaulterr.ErrInvalidRequest
	}
	hash, err := merkle.Normalize(fileHash)
	if err != nil {
		return nil, vaulterr.ErrInvalidRequest
	}
	root, err := merkle.Normalize(merkleRoot)
	if err != nil {
		return nil, vaulterr.ErrInvalidRequest
	}

	existing, err := r.store.GetByHash(ctx, hash)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, vaulterr.ErrDuplicateHash
	}

	if err := r.access.ChargeQuota(ctx, owner, size); err != nil {
		return nil, err
	}

	rec := &fileinfo.Record{
		FileHash:    hash,
		Filename:    filename,
		Size:        size,
		MerkleRoot:  root,
		Owner:       owner,
		Authorized:  []string{owner},
		UploadCount: 1,
		CreatedAt:   time.Now().UTC(),
	}
	if err := r.store.CreateFile(ctx, rec); err != nil {
		// Undo the charge so the failed upload leaves no trace.
		_ = r.access.RefundQuota(ctx, owner, size)
		return nil, err
	}

	return &UploadReceipt{Record: rec, Refund: feePaid - fee}, nil
}

// Download authorizes requester against the record and bumps the download
// counter. The system admin may always download.
func (r *Registry) Download(ctx context.Context, requester, fileHash string) (*fileinfo.Record, error) {
	rec, err := r.getRecord(ctx, fileHash)
	if err != nil {
		return nil, err
	}
	if requester != r.admin && !rec.IsAuthorized(requester) {
		return nil, vaulterr.ErrNotAuthorized
	}
	if err := r.store.IncrementDownloads(ctx, rec.FileHash); err != nil {
		return nil, err
	}
	rec.DownloadCount++
	return rec, nil
}

// Authorize adds grantee to the file's download list. Only the file owner or
// the system admin may grant access.
func (r *Registry) Authorize(ctx context.Context, caller, fileHash, grantee string) error {
	rec, err := r.getRecord(ctx, fileHash)
	if err != nil {
		return err
	}
	if caller != rec.Owner && caller != r.admin {
		return vaulterr.ErrNotOwnerOrAdmin
	}
	if rec.IsAuthorized(grantee) {
		return nil
	}
	return r.store.AddAuthorized(ctx, rec.FileHash, grantee)
}

// GetFile returns file metadata without an authorization check: anyone may
// see a file exists, only authorized parties may fetch it.
func (r *Registry) GetFile(ctx context.Context, fileHash string) (*fileinfo.Record, error) {
	return r.getRecord(ctx, fileHash)
}

func (r *Registry) getRecord(ctx context.Context, fileHash string) (*fileinfo.Record, error) {
	hash, err := merkle.Normalize(fileHash)
	if err != nil {
		return nil, vaulterr.ErrNotFound
	}
	rec, err := r.store.GetByHash(ctx, hash)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, vaulterr.ErrNotFound
	}
	return rec, nil
}
