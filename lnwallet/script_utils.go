package lnwallet

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"math/big"

	"golang.org/x/crypto/hkdf"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
)

var (
	// OP_CHECKSEQUENCEVERIFY is BIP-112's opcode, reusing the former NOP3.
	OP_CHECKSEQUENCEVERIFY = txscript.OP_CHECKSEQUENCEVERIFY

	sequenceLockTimeMask = uint32(0x0000ffff)
)

// witnessScriptHash generates a pay-to-witness-script-hash public key script
// paying to a version 0 witness program paying to the passed redeem script.
func witnessScriptHash(redeemScript []byte) ([]byte, error) {
	bldr := txscript.NewScriptBuilder()

	bldr.AddOp(txscript.OP_0)
	scriptHash := sha256.Sum256(redeemScript)
	bldr.AddData(scriptHash[:])
	return bldr.Script()
}

// genMultiSigScript generates the non-p2sh'd multisig script for 2 of 2
// pubkeys, sorted lexicographically so both sides derive the same script.
func genMultiSigScript(aPub, bPub []byte) ([]byte, error) {
	if len(aPub) != 33 || len(bPub) != 33 {
		return nil, fmt.Errorf("pubkey size error, compressed pubkeys only")
	}

	if bytes.Compare(aPub, bPub) == -1 {
		aPub, bPub = bPub, aPub
	}

	bldr := txscript.NewScriptBuilder()
	bldr.AddOp(txscript.OP_2)
	bldr.AddData(aPub)
	bldr.AddData(bPub)
	bldr.AddOp(txscript.OP_2)
	bldr.AddOp(txscript.OP_CHECKMULTISIG)
	return bldr.Script()
}

// genFundingPkScript creates a redeem script, and its matching p2wsh
// output, for the funding transaction.
func genFundingPkScript(aPub, bPub []byte, amt int64) ([]byte, *wire.TxOut, error) {
	if amt <= 0 {
		return nil, nil, fmt.Errorf("can't create funding script with " +
			"zero or negative coins")
	}

	redeemScript, err := genMultiSigScript(aPub, bPub)
	if err != nil {
		return nil, nil, err
	}

	pkScript, err := witnessScriptHash(redeemScript)
	if err != nil {
		return nil, nil, err
	}

	return redeemScript, wire.NewTxOut(amt, pkScript), nil
}

// findScriptOutputIndex finds the index of the public key script output
// matching script, if any.
func findScriptOutputIndex(tx *wire.MsgTx, script []byte) (bool, uint32) {
	for i, txOut := range tx.TxOut {
		if bytes.Equal(txOut.PkScript, script) {
			return true, uint32(i)
		}
	}
	return false, 0
}

// senderHTLCScript constructs the public key script for an outgoing HTLC
// output on the sender's version of the commitment transaction.
//
// OP_IF
//
//	OP_IF
//	    <revocation hash>
//	OP_ELSE
//	    OP_SIZE 32 OP_EQUALVERIFY
//	    <payment hash>
//	OP_ENDIF
//	OP_SWAP OP_SHA256 OP_EQUALVERIFY
//	<receiver key> OP_CHECKSIG
//
// OP_ELSE
//
//	<absolute timeout> OP_CHECKLOCKTIMEVERIFY
//	<relative timeout> OP_CHECKSEQUENCEVERIFY OP_2DROP
//	<sender key> OP_CHECKSIG
//
// OP_ENDIF
func senderHTLCScript(absoluteTimeout, relativeTimeout uint32, senderKey,
	receiverKey *btcec.PublicKey, revokeHash, paymentHash []byte) ([]byte, error) {

	builder := txscript.NewScriptBuilder()

	builder.AddOp(txscript.OP_IF)
	builder.AddOp(txscript.OP_IF)
	builder.AddData(revokeHash)
	builder.AddOp(txscript.OP_ELSE)
	builder.AddOp(txscript.OP_SIZE)
	builder.AddInt64(32)
	builder.AddOp(txscript.OP_EQUALVERIFY)
	builder.AddData(paymentHash)
	builder.AddOp(txscript.OP_ENDIF)
	builder.AddOp(txscript.OP_SWAP)
	builder.AddOp(txscript.OP_SHA256)
	builder.AddOp(txscript.OP_EQUALVERIFY)
	builder.AddData(receiverKey.SerializeCompressed())
	builder.AddOp(txscript.OP_CHECKSIG)
	builder.AddOp(txscript.OP_ELSE)
	builder.AddInt64(int64(absoluteTimeout))
	builder.AddOp(txscript.OP_CHECKLOCKTIMEVERIFY)
	builder.AddInt64(int64(relativeTimeout))
	builder.AddOp(txscript.OP_CHECKSEQUENCEVERIFY)
	builder.AddOp(txscript.OP_2DROP)
	builder.AddData(senderKey.SerializeCompressed())
	builder.AddOp(txscript.OP_CHECKSIG)
	builder.AddOp(txscript.OP_ENDIF)

	return builder.Script()
}

// receiverHTLCScript constructs the public key script for an incoming HTLC
// output on the receiver's version of the commitment transaction.
func receiverHTLCScript(absoluteTimeout, relativeTimeout uint32, senderKey,
	receiverKey *btcec.PublicKey, revokeHash, paymentHash []byte) ([]byte, error) {

	builder := txscript.NewScriptBuilder()

	builder.AddOp(txscript.OP_IF)
	builder.AddOp(txscript.OP_SIZE)
	builder.AddInt64(32)
	builder.AddOp(txscript.OP_EQUALVERIFY)
	builder.AddOp(txscript.OP_SHA256)
	builder.AddData(paymentHash)
	builder.AddOp(txscript.OP_EQUALVERIFY)
	builder.AddInt64(int64(relativeTimeout))
	builder.AddOp(txscript.OP_CHECKSEQUENCEVERIFY)
	builder.AddOp(txscript.OP_DROP)
	builder.AddData(receiverKey.SerializeCompressed())
	builder.AddOp(txscript.OP_CHECKSIG)
	builder.AddOp(txscript.OP_ELSE)
	builder.AddOp(txscript.OP_IF)
	builder.AddOp(txscript.OP_SHA256)
	builder.AddData(revokeHash)
	builder.AddOp(txscript.OP_EQUALVERIFY)
	builder.AddOp(txscript.OP_ELSE)
	builder.AddInt64(int64(absoluteTimeout))
	builder.AddOp(txscript.OP_CHECKLOCKTIMEVERIFY)
	builder.AddOp(txscript.OP_DROP)
	builder.AddOp(txscript.OP_ENDIF)
	builder.AddData(senderKey.SerializeCompressed())
	builder.AddOp(txscript.OP_CHECKSIG)
	builder.AddOp(txscript.OP_ENDIF)

	return builder.Script()
}

// lockTimeToSequence converts a relative locktime into a BIP-68 sequence
// number.
func lockTimeToSequence(isSeconds bool, locktime uint32) uint32 {
	if !isSeconds {
		return sequenceLockTimeMask & locktime
	}
	return (uint32(1) << 22) | (locktime >> 9)
}

// commitScriptToSelf constructs the public key script for the commitment
// output paying back to the owner of that commitment transaction, spendable
// either immediately by the revocation key (if the commitment was revoked)
// or after csvTimeout by the owner's own key.
func commitScriptToSelf(csvTimeout uint32, selfKey, revokeKey *btcec.PublicKey) ([]byte, error) {
	builder := txscript.NewScriptBuilder()

	builder.AddOp(txscript.OP_IF)
	builder.AddData(revokeKey.SerializeCompressed())
	builder.AddOp(txscript.OP_CHECKSIG)
	builder.AddOp(txscript.OP_ELSE)
	builder.AddData(selfKey.SerializeCompressed())
	builder.AddOp(txscript.OP_CHECKSIGVERIFY)
	builder.AddInt64(int64(csvTimeout))
	builder.AddOp(txscript.OP_CHECKSEQUENCEVERIFY)
	builder.AddOp(txscript.OP_ENDIF)

	return builder.Script()
}

// commitScriptUnencumbered constructs the public key script for the
// commitment output paying the counterparty, a plain p2wkh output spendable
// immediately.
func commitScriptUnencumbered(key *btcec.PublicKey) ([]byte, error) {
	builder := txscript.NewScriptBuilder()
	builder.AddOp(txscript.OP_0)
	builder.AddData(btcutil.Hash160(key.SerializeCompressed()))
	return builder.Script()
}

// deriveRevocationPubkey derives the revocation public key given a party's
// revocation basepoint and the counterparty's current per-commitment point,
// exploiting the additive homomorphism of the elliptic curve group:
//
//	revokeKey := basePoint + commitPoint == G*(b+k)
//
// Once the per-commitment secret k is divulged, the basepoint's owner
// computes the matching private key as basePriv + k mod N via
// deriveRevocationPrivKey.
func deriveRevocationPubkey(basePoint,
	commitPoint *btcec.PublicKey) *btcec.PublicKey {

	var baseJacobian, commitJacobian btcec.JacobianPoint
	basePoint.AsJacobian(&baseJacobian)
	commitPoint.AsJacobian(&commitJacobian)

	var result btcec.JacobianPoint
	btcec.AddNonConst(&baseJacobian, &commitJacobian, &result)
	result.ToAffine()

	return btcec.NewPublicKey(&result.X, &result.Y)
}

// deriveRevocationPrivKey derives the private key behind a revocation
// pubkey, given the revocation basepoint's own private key and the
// counterparty's disclosed per-commitment secret.
func deriveRevocationPrivKey(basePrivKey *btcec.PrivateKey,
	commitSecret []byte) *btcec.PrivateKey {

	commitScalar := new(big.Int).SetBytes(commitSecret)

	var baseScalar big.Int
	baseScalar.SetBytes(basePrivKey.Serialize())

	curveOrder := btcec.S256().N
	sum := new(big.Int).Add(commitScalar, &baseScalar)
	sum.Mod(sum, curveOrder)

	priv := btcec.PrivKeyFromBytes(sum.Bytes())
	return priv
}

// deriveShachainSeed derives the channel's per-commitment secret seed,
// unique to this channel, via HKDF instantiated with SHA-256, salted by the
// remote party's funding pubkey. It only returns the seed; no code in this
// package passes it on to the elkrem package.
func deriveShachainSeed(localMultiSigKey *btcec.PrivateKey,
	remoteMultiSigKey *btcec.PublicKey) [32]byte {

	secret := localMultiSigKey.Serialize()
	salt := remoteMultiSigKey.SerializeCompressed()
	info := []byte("shachain-seed")

	rootReader := hkdf.New(sha256.New, secret, salt, info)

	var seed [32]byte
	rootReader.Read(seed[:])
	return seed
}
