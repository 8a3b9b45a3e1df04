package merkle_test

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"nebulavault/pkg/merkle"

	"github.com/stretchr/testify/assert"
)

func hashOf(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

func TestFold_TwoLeaves(t *testing.T) {
	l0 := hashOf("left leaf")
	l1 := hashOf("right leaf")
	root := hashOf(l0 + l1)

	got, err := merkle.Fold(l0, []string{l1}, []merkle.Side{merkle.SiblingRight})
	assert.NoError(t, err)
	assert.Equal(t, root, got)

	// Swapped side flag must produce a different digest.
	swapped, err := merkle.Fold(l0, []string{l1}, []merkle.Side{merkle.SiblingLeft})
	assert.NoError(t, err)
	assert.NotEqual(t, root, swapped)
}

func TestFold_Malformed(t *testing.T) {
	l0 := hashOf("leaf")

	_, err := merkle.Fold(l0, []string{hashOf("sib")}, nil)
	assert.ErrorIs(t, err, merkle.ErrLengthMismatch)

	_, err = merkle.Fold("not-hex", []string{hashOf("sib")}, []merkle.Side{merkle.SiblingRight})
	assert.ErrorIs(t, err, merkle.ErrInvalidHash)

	_, err = merkle.Fold(l0, []string{hashOf("sib")}, []merkle.Side{merkle.Side(7)})
	assert.ErrorIs(t, err, merkle.ErrInvalidSide)
}

func TestNormalize_HexPrefix(t *testing.T) {
	h := hashOf("data")
	got, err := merkle.Normalize("0x" + h)
	assert.NoError(t, err)
	assert.Equal(t, h, got)

	_, err = merkle.Normalize("0x1234")
	assert.ErrorIs(t, err, merkle.ErrInvalidHash)
}

func TestBuild_RootMatchesManualFold(t *testing.T) {
	leaves := []string{hashOf("a"), hashOf("b"), hashOf("c"), hashOf("d")}
	tree, err := merkle.Build(leaves)
	assert.NoError(t, err)

	want := hashOf(hashOf(leaves[0]+leaves[1]) + hashOf(leaves[2]+leaves[3]))
	assert.Equal(t, want, tree.Root())
}

func TestBuild_OddLeafPromoted(t *testing.T) {
	leaves := []string{hashOf("a"), hashOf("b"), hashOf("c")}
	tree, err := merkle.Build(leaves)
	assert.NoError(t, err)

	want := hashOf(hashOf(leaves[0]+leaves[1]) + leaves[2])
	assert.Equal(t, want, tree.Root())
}

func TestProof_RoundTrip(t *testing.T) {
	leaves := []string{hashOf("a"), hashOf("b"), hashOf("c"), hashOf("d"), hashOf("e")}
	tree, err := merkle.Build(leaves)
	assert.NoError(t, err)

	for i, leaf := range leaves {
		path, sides, err := tree.Proof(i)
		assert.NoError(t, err)

		got, err := merkle.Fold(leaf, path, sides)
		assert.NoError(t, err)
		assert.Equal(t, tree.Root(), got, "leaf %d", i)
	}

	_, _, err = tree.Proof(len(leaves))
	assert.ErrorIs(t, err, merkle.ErrInvalidIndex)
}

func TestBuild_Empty(t *testing.T) {
	_, err := merkle.Build(nil)
	assert.ErrorIs(t, err, merkle.ErrEmptyTree)
}
