// Package elkrem stores a party's revealed per-commitment secrets in
// O(log n) space, following the hash-tree construction BOLT-3 specifies
// for per-commitment secret generation: each new secret can derive every
// earlier secret whose index agrees with it on every bit above the new
// secret's lowest set bit, so the store only ever needs to retain nodes
// that aren't yet derivable from one another. Compression depends on
// secrets arriving in descending index order, as BOLT-3 issues them: a
// stored node is dropped only when a later insert can derive it, so
// inserting indices in ascending order keeps one node per secret.
package elkrem

import (
	"crypto/sha256"
	"fmt"
)

// maxHeight is the number of bits in a per-commitment index.
const maxHeight = 48

// ErrInvalidSecret is returned when an inserted secret fails to derive an
// already-known secret it should be able to reproduce.
var ErrInvalidSecret = fmt.Errorf("revealed secret does not derive a " +
	"previously known secret")

// lowestSetBit returns the position of the lowest set bit of index, or
// maxHeight if index is zero (the root, which derives every index).
func lowestSetBit(index uint64) int {
	for b := 0; b < maxHeight; b++ {
		if index&(1<<uint(b)) != 0 {
			return b
		}
	}
	return maxHeight
}

// deriveFromSeed reproduces the BOLT-3 per-commitment secret generation
// from the channel's root seed: starting at seed, for every set bit of
// index from 47 down to 0, flip that bit of the running state and rehash.
func deriveFromSeed(seed [32]byte, index uint64) [32]byte {
	return deriveFromNode(seed, maxHeight, index)
}

// deriveFromNode continues the derivation from an already-derived value
// whose own index had its lowest set bit at position fromHeight, producing
// the secret at toIndex. The caller must have already checked
// canDerive(fromHeight, fromIndex, toIndex).
func deriveFromNode(value [32]byte, fromHeight int, toIndex uint64) [32]byte {
	p := value
	for b := fromHeight - 1; b >= 0; b-- {
		if toIndex&(1<<uint(b)) != 0 {
			p[b/8] ^= 1 << uint(b%8)
			p = sha256.Sum256(p[:])
		}
	}
	return p
}

// canDerive reports whether a node stored at fromIndex, whose lowest set
// bit is at fromHeight, can derive the secret at toIndex: every bit of
// fromIndex at or above fromHeight must equal the corresponding bit of
// toIndex.
func canDerive(fromHeight int, fromIndex, toIndex uint64) bool {
	if fromHeight >= maxHeight {
		return true
	}
	mask := ^uint64(0) << uint(fromHeight)
	return fromIndex&mask == toIndex&mask
}

// node is one retained (index, secret) basis element.
type node struct {
	height uint8
	index  uint64
	secret [32]byte
}

// Store is a compressed store of a single party's revealed per-commitment
// secrets.
type Store struct {
	nodes []node
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{}
}

// Insert records the secret revealed for commitment index. It is verified
// against, and supersedes, every node it can now derive; a secret that
// fails to reproduce an already-known descendant is rejected.
func (s *Store) Insert(index uint64, secret [32]byte) error {
	height := lowestSetBit(index)

	kept := s.nodes[:0]
	for _, n := range s.nodes {
		if !canDerive(height, index, n.index) {
			kept = append(kept, n)
			continue
		}
		if deriveFromNode(secret, height, n.index) != n.secret {
			return ErrInvalidSecret
		}
		// n is now redundant: it's derivable from the new node.
	}

	kept = append(kept, node{
		height: uint8(height),
		index:  index,
		secret: secret,
	})
	s.nodes = kept
	return nil
}

// LookupSecret returns the secret at index, deriving it from a stored
// ancestor if index itself was never inserted directly.
func (s *Store) LookupSecret(index uint64) ([32]byte, bool) {
	for _, n := range s.nodes {
		if canDerive(int(n.height), n.index, index) {
			return deriveFromNode(n.secret, int(n.height), index), true
		}
	}
	return [32]byte{}, false
}

// Len returns the number of basis nodes currently retained.
func (s *Store) Len() int {
	return len(s.nodes)
}
