package elkrem

import (
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/require"
)

func seedAt(seedSecret string, index uint64) [32]byte {
	seed := sha256.Sum256([]byte(seedSecret))
	return deriveFromSeed(seed, index)
}

func TestStoreSequentialInsertAndLookup(t *testing.T) {
	store := NewStore()

	// Insert in descending index order, as BOLT-3 issues secrets: each
	// new secret can derive the higher-indexed ones already stored.
	for i := uint64(20); i > 0; i-- {
		secret := seedAt("test-seed", i-1)
		require.NoError(t, store.Insert(i-1, secret))
	}

	for i := uint64(0); i < 20; i++ {
		got, ok := store.LookupSecret(i)
		require.True(t, ok)
		require.Equal(t, seedAt("test-seed", i), got)
	}

	require.Less(t, store.Len(), 20)
}

func TestStoreRejectsInvalidSecret(t *testing.T) {
	store := NewStore()

	// Insert a descendant first, then a bogus root: the root derives
	// every index, so it must reproduce the already-known secret at 1.
	require.NoError(t, store.Insert(1, seedAt("seed-a", 1)))

	var bogus [32]byte
	bogus[0] = 0xff
	err := store.Insert(0, bogus)
	require.ErrorIs(t, err, ErrInvalidSecret)
}

func TestStoreUnknownIndex(t *testing.T) {
	store := NewStore()
	require.NoError(t, store.Insert(5, seedAt("seed-b", 5)))

	_, ok := store.LookupSecret(3)
	require.False(t, ok)
}
