package lnwallet

import (
	"crypto/sha256"

	"github.com/btcsuite/btcd/btcec/v2"
)

// tweakPubKey derives a per-commitment key from a basepoint, following
// BOLT-3: pubkey = basepoint + SHA256(perCommitmentPoint || basepoint)*G.
// This is what lets each side rotate its commitment keys every state update
// without needing a fresh basepoint exchange.
func tweakPubKey(basePoint, perCommitmentPoint *btcec.PublicKey) *btcec.PublicKey {
	tweakBytes := sha256.Sum256(append(
		perCommitmentPoint.SerializeCompressed(),
		basePoint.SerializeCompressed()...,
	))

	var tweakScalar btcec.ModNScalar
	tweakScalar.SetBytes(&tweakBytes)

	var tweakPoint btcec.JacobianPoint
	btcec.ScalarBaseMultNonConst(&tweakScalar, &tweakPoint)

	var baseJacobian btcec.JacobianPoint
	basePoint.AsJacobian(&baseJacobian)

	var result btcec.JacobianPoint
	btcec.AddNonConst(&baseJacobian, &tweakPoint, &result)
	result.ToAffine()

	return btcec.NewPublicKey(&result.X, &result.Y)
}
