// Package proof validates Merkle inclusion proofs against the root stored for
// a file and tracks how many independent proofs each file has passed.
package proof

import (
	"context"
	"fmt"
	"sync"

	"nebulavault/internal/vaulterr"
	"nebulavault/pkg/merkle"
)

// RecordStore is the slice of file storage the verifier reads roots from and
// writes counters through. It holds no ownership over the records.
type RecordStore interface {
	GetMerkleRoot(ctx context.Context, hash string) (string, error)
	IncrementVerified(ctx context.Context, hash string) (uint64, error)
}

// Outcome is the result of one successful verification call.
type Outcome struct {
	FileHash           string `json:"file_hash"`
	VerifiedProofCount uint64 `json:"verified_proof_count"`
	Verified           bool   `json:"verified"`
	// NewlyVerified is true on the call that made the count reach the
	// threshold, so the file is counted as verified exactly once.
	NewlyVerified bool `json:"newly_verified"`
}

type Verifier struct {
	store RecordStore

	mu        sync.RWMutex
	threshold uint64
}

func New(store RecordStore, threshold uint64) *Verifier {
	if threshold < 1 {
		threshold = 1
	}
	return &Verifier{store: store, threshold: threshold}
}

// Threshold returns the number of proofs required before a file counts as
// verified.
func (v *Verifier) Threshold() uint64 {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.threshold
}

// SetThreshold changes the verification threshold. The threshold is at least
// one proof.
func (v *Verifier) SetThreshold(n uint64) error {
	if n < 1 {
		return vaulterr.ErrInvalidRequest
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.threshold = n
	return nil
}

// Verify recomputes the candidate root from leafHash, path and sides and
// accepts the proof only if it equals both the claimed root and the stored
// root. A failed proof is always reported to the caller: it is evidence of
// data unavailability or corruption upstream.
func (v *Verifier) Verify(ctx context.Context, fileHash, claimedRoot, leafHash string, path []string, sides []merkle.Side) (*Outcome, error) {
	hash, err := merkle.Normalize(fileHash)
	if err != nil {
		return nil, vaulterr.ErrNotFound
	}
	stored, err := v.store.GetMerkleRoot(ctx, hash)
	if err != nil {
		return nil, err
	}
	if stored == "" {
		return nil, vaulterr.ErrNotFound
	}

	claimed, err := merkle.Normalize(claimedRoot)
	if err != nil {
		return nil, fmt.Errorf("%w: claimed root: %v", vaulterr.ErrMalformedProof, err)
	}
	candidate, err := merkle.Fold(leafHash, path, sides)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", vaulterr.ErrMalformedProof, err)
	}
	if candidate != claimed || candidate != stored {
		return nil, vaulterr.ErrRootMismatch
	}

	count, err := v.store.IncrementVerified(ctx, hash)
	if err != nil {
		return nil, err
	}
	threshold := v.Threshold()
	return &Outcome{
		FileHash:           hash,
		VerifiedProofCount: count,
		Verified:           count >= threshold,
		NewlyVerified:      count == threshold,
	}, nil
}
