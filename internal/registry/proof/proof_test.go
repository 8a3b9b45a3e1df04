package proof_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nebulavault/internal/model/fileinfo"
	"nebulavault/internal/registry/proof"
	"nebulavault/internal/repository/memstore"
	"nebulavault/internal/vaulterr"
	"nebulavault/pkg/merkle"
)

// seedFile stores a record whose root covers the given leaves and returns the
// file hash, the tree and the verifier.
func seedFile(t *testing.T, threshold uint64, leaves ...[]byte) (string, *merkle.Tree, *proof.Verifier) {
	t.Helper()
	hashes := make([]string, len(leaves))
	for i, leaf := range leaves {
		hashes[i] = merkle.HashLeaf(leaf)
	}
	tree, err := merkle.Build(hashes)
	require.NoError(t, err)

	store := memstore.New()
	fileHash := merkle.HashLeaf([]byte("the-file"))
	require.NoError(t, store.CreateFile(context.Background(), &fileinfo.Record{
		FileHash:   fileHash,
		MerkleRoot: tree.Root(),
	}))
	return fileHash, tree, proof.New(store, threshold)
}

func TestVerify_TwoLeaves(t *testing.T) {
	ctx := context.Background()
	fileHash, tree, verifier := seedFile(t, 2, []byte("chunk-0"), []byte("chunk-1"))

	path, sides, err := tree.Proof(0)
	require.NoError(t, err)
	require.Equal(t, []string{merkle.HashLeaf([]byte("chunk-1"))}, path)
	require.Equal(t, []merkle.Side{merkle.SiblingRight}, sides)

	outcome, err := verifier.Verify(ctx, fileHash, tree.Root(), merkle.HashLeaf([]byte("chunk-0")), path, sides)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), outcome.VerifiedProofCount)
	assert.False(t, outcome.Verified)
	assert.False(t, outcome.NewlyVerified)

	// Verification is deterministic: the same proof passes again and the
	// second success reaches the threshold.
	outcome, err = verifier.Verify(ctx, fileHash, tree.Root(), merkle.HashLeaf([]byte("chunk-0")), path, sides)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), outcome.VerifiedProofCount)
	assert.True(t, outcome.Verified)
	assert.True(t, outcome.NewlyVerified)
}

func TestVerify_SidesMatter(t *testing.T) {
	ctx := context.Background()
	fileHash, tree, verifier := seedFile(t, 1, []byte("chunk-0"), []byte("chunk-1"))

	path, _, err := tree.Proof(0)
	require.NoError(t, err)

	// Same sibling, wrong side: the candidate root comes out different.
	_, err = verifier.Verify(ctx, fileHash, tree.Root(), merkle.HashLeaf([]byte("chunk-0")), path, []merkle.Side{merkle.SiblingLeft})
	assert.ErrorIs(t, err, vaulterr.ErrRootMismatch)
}

func TestVerify_ClaimedRootMismatch(t *testing.T) {
	ctx := context.Background()
	fileHash, tree, verifier := seedFile(t, 1, []byte("chunk-0"), []byte("chunk-1"))

	path, sides, err := tree.Proof(0)
	require.NoError(t, err)

	bogus := merkle.HashLeaf([]byte("not-the-root"))
	_, err = verifier.Verify(ctx, fileHash, bogus, merkle.HashLeaf([]byte("chunk-0")), path, sides)
	assert.ErrorIs(t, err, vaulterr.ErrRootMismatch)
}

func TestVerify_Malformed(t *testing.T) {
	ctx := context.Background()
	fileHash, tree, verifier := seedFile(t, 1, []byte("chunk-0"), []byte("chunk-1"))

	leaf := merkle.HashLeaf([]byte("chunk-0"))
	path, sides, err := tree.Proof(0)
	require.NoError(t, err)

	_, err = verifier.Verify(ctx, fileHash, tree.Root(), "zz", path, sides)
	assert.ErrorIs(t, err, vaulterr.ErrMalformedProof)

	_, err = verifier.Verify(ctx, fileHash, tree.Root(), leaf, []string{"zz"}, sides)
	assert.ErrorIs(t, err, vaulterr.ErrMalformedProof)

	_, err = verifier.Verify(ctx, fileHash, tree.Root(), leaf, path, nil)
	assert.ErrorIs(t, err, vaulterr.ErrMalformedProof)

	_, err = verifier.Verify(ctx, fileHash, "zz", leaf, path, sides)
	assert.ErrorIs(t, err, vaulterr.ErrMalformedProof)
}

func TestVerify_UnknownFile(t *testing.T) {
	_, tree, verifier := seedFile(t, 1, []byte("chunk-0"), []byte("chunk-1"))

	path, sides, err := tree.Proof(0)
	require.NoError(t, err)

	_, err = verifier.Verify(context.Background(), merkle.HashLeaf([]byte("missing")),
		tree.Root(), merkle.HashLeaf([]byte("chunk-0")), path, sides)
	assert.ErrorIs(t, err, vaulterr.ErrNotFound)
}

func TestVerify_LargerTree(t *testing.T) {
	ctx := context.Background()
	chunks := [][]byte{[]byte("a"), []byte("b"), []byte("c"), []byte("d"), []byte("e")}
	fileHash, tree, verifier := seedFile(t, 1, chunks...)

	for i, chunk := range chunks {
		path, sides, err := tree.Proof(i)
		require.NoError(t, err)

		outcome, err := verifier.Verify(ctx, fileHash, tree.Root(), merkle.HashLeaf(chunk), path, sides)
		require.NoError(t, err, "leaf %d", i)
		assert.True(t, outcome.Verified, "leaf %d", i)
	}
}

func TestThreshold(t *testing.T) {
	store := memstore.New()

	// A zero threshold is clamped to one.
	verifier := proof.New(store, 0)
	assert.Equal(t, uint64(1), verifier.Threshold())

	assert.ErrorIs(t, verifier.SetThreshold(0), vaulterr.ErrInvalidRequest)
	require.NoError(t, verifier.SetThreshold(5))
	assert.Equal(t, uint64(5), verifier.Threshold())
}
