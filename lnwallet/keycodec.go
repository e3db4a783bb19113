package lnwallet

import "github.com/btcsuite/btcd/btcec/v2"

// encodePubKey serializes k in compressed form, or returns nil for a nil
// key, so it can be carried as a plain byte slice through gob-encoded
// structs that hold a *btcec.PublicKey: btcec's own internal point
// representation isn't exported, so gob's default field reflection can't
// round-trip it.
func encodePubKey(k *btcec.PublicKey) []byte {
	if k == nil {
		return nil
	}
	return k.SerializeCompressed()
}

// decodePubKey reverses encodePubKey.
func decodePubKey(raw []byte) (*btcec.PublicKey, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	return btcec.ParsePubKey(raw)
}

// encodePrivKey serializes k's scalar value, or returns nil for a nil key.
func encodePrivKey(k *btcec.PrivateKey) []byte {
	if k == nil {
		return nil
	}
	return k.Serialize()
}

// decodePrivKey reverses encodePrivKey.
func decodePrivKey(raw []byte) *btcec.PrivateKey {
	if len(raw) == 0 {
		return nil
	}
	return btcec.PrivKeyFromBytes(raw)
}
