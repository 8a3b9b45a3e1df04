// Package merkle implements the hash tree used for file inclusion proofs.
// Nodes are lowercase hex sha256 digests and a parent is the digest of the
// concatenated hex encodings of its children. An odd trailing node is promoted
// to the next level unchanged.
package merkle

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
)

// HexSize is the length of a hex-encoded sha256 digest.
const HexSize = 64

// Side says where the proof sibling sits relative to the running hash.
type Side uint8

const (
	SiblingRight Side = 0 // running hash is the left child
	SiblingLeft  Side = 1 // running hash is the right child
)

var (
	ErrEmptyTree      = errors.New("empty merkle tree")
	ErrInvalidHash    = errors.New("invalid hash")
	ErrInvalidIndex   = errors.New("invalid leaf index")
	ErrInvalidSide    = errors.New("invalid side flag")
	ErrLengthMismatch = errors.New("proof path and sides length mismatch")
)

// HashLeaf returns the hex digest of a raw data block.
func HashLeaf(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Normalize lowercases a hex hash and strips an optional 0x prefix.
func Normalize(h string) (string, error) {
	h = strings.ToLower(strings.TrimPrefix(strings.TrimPrefix(h, "0x"), "0X"))
	if len(h) != HexSize {
		return "", ErrInvalidHash
	}
	if _, err := hex.DecodeString(h); err != nil {
		return "", ErrInvalidHash
	}
	return h, nil
}

func nodeHash(left, right string) string {
	sum := sha256.Sum256([]byte(left + right))
	return hex.EncodeToString(sum[:])
}

// Fold recomputes a candidate root from a leaf hash, the sibling path and the
// side flags. Swapping a side flag changes the digest, so the flags carry the
// in-tree position of every level.
func Fold(leafHash string, path []string, sides []Side) (string, error) {
	if len(path) != len(sides) {
		return "", ErrLengthMismatch
	}
	cur, err := Normalize(leafHash)
	if err != nil {
		return "", err
	}
	for i, sibling := range path {
		sib, err := Normalize(sibling)
		if err != nil {
			return "", err
		}
		switch sides[i] {
		case SiblingRight:
			cur = nodeHash(cur, sib)
		case SiblingLeft:
			cur = nodeHash(sib, cur)
		default:
			return "", ErrInvalidSide
		}
	}
	return cur, nil
}

// Tree is a fully materialized hash tree over a set of leaf hashes.
type Tree struct {
	levels [][]string
}

// Build constructs the tree bottom-up from leaf hashes.
func Build(leaves []string) (*Tree, error) {
	if len(leaves) == 0 {
		return nil, ErrEmptyTree
	}
	level := make([]string, len(leaves))
	for i, leaf := range leaves {
		h, err := Normalize(leaf)
		if err != nil {
			return nil, err
		}
		level[i] = h
	}
	levels := [][]string{level}
	for len(level) > 1 {
		next := make([]string, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			if i+1 < len(level) {
				next = append(next, nodeHash(level[i], level[i+1]))
			} else {
				next = append(next, level[i])
			}
		}
		levels = append(levels, next)
		level = next
	}
	return &Tree{levels: levels}, nil
}

// Root returns the tree root hash.
func (t *Tree) Root() string {
	top := t.levels[len(t.levels)-1]
	return top[0]
}

// Proof returns the sibling path and side flags for the leaf at index. Levels
// where the node was promoted without a sibling contribute no path entry.
func (t *Tree) Proof(index int) ([]string, []Side, error) {
	if index < 0 || index >= len(t.levels[0]) {
		return nil, nil, ErrInvalidIndex
	}
	path := make([]string, 0, len(t.levels))
	sides := make([]Side, 0, len(t.levels))
	idx := index
	for _, level := range t.levels[:len(t.levels)-1] {
		sib := idx ^ 1
		if sib < len(level) {
			path = append(path, level[sib])
			if idx%2 == 0 {
				sides = append(sides, SiblingRight)
			} else {
				sides = append(sides, SiblingLeft)
			}
		}
		idx /= 2
	}
	return path, sides, nil
}
