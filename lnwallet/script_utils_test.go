package lnwallet

import (
	"bytes"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/stretchr/testify/require"
)

func genTestKey(t *testing.T) *btcec.PrivateKey {
	t.Helper()
	priv, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	return priv
}

func TestGenFundingPkScriptSortsKeys(t *testing.T) {
	aPriv, bPriv := genTestKey(t), genTestKey(t)
	aPub := aPriv.PubKey().SerializeCompressed()
	bPub := bPriv.PubKey().SerializeCompressed()

	scriptA, outA, err := genFundingPkScript(aPub, bPub, 1_000_000)
	require.NoError(t, err)
	scriptB, outB, err := genFundingPkScript(bPub, aPub, 1_000_000)
	require.NoError(t, err)

	// Argument order must not matter: the multisig script sorts its keys.
	require.True(t, bytes.Equal(scriptA, scriptB))
	require.True(t, bytes.Equal(outA.PkScript, outB.PkScript))
}

func TestGenFundingPkScriptRejectsZeroAmount(t *testing.T) {
	aPriv, bPriv := genTestKey(t), genTestKey(t)
	_, _, err := genFundingPkScript(
		aPriv.PubKey().SerializeCompressed(),
		bPriv.PubKey().SerializeCompressed(),
		0,
	)
	require.Error(t, err)
}

func TestCommitScriptToSelfNonEmpty(t *testing.T) {
	self, revoke := genTestKey(t).PubKey(), genTestKey(t).PubKey()
	script, err := commitScriptToSelf(144, self, revoke)
	require.NoError(t, err)
	require.NotEmpty(t, script)
}

func TestRevocationKeyHomomorphism(t *testing.T) {
	basePriv := genTestKey(t)

	var secret [32]byte
	secret[0] = 0x42
	commitPriv := btcec.PrivKeyFromBytes(secret[:])

	revokePub := deriveRevocationPubkey(basePriv.PubKey(), commitPriv.PubKey())
	revokePriv := deriveRevocationPrivKey(basePriv, secret[:])

	require.True(t, revokePub.IsEqual(revokePriv.PubKey()))
}

func TestSenderAndReceiverHTLCScriptsDiffer(t *testing.T) {
	sender, receiver := genTestKey(t).PubKey(), genTestKey(t).PubKey()

	var revokeHash, paymentHash [32]byte
	revokeHash[0], paymentHash[0] = 0x01, 0x02

	senderScript, err := senderHTLCScript(
		500_000, 144, sender, receiver, revokeHash[:], paymentHash[:],
	)
	require.NoError(t, err)

	receiverScript, err := receiverHTLCScript(
		500_000, 144, sender, receiver, revokeHash[:], paymentHash[:],
	)
	require.NoError(t, err)

	require.False(t, bytes.Equal(senderScript, receiverScript))
}

func TestDeriveShachainSeedDeterministic(t *testing.T) {
	local := genTestKey(t)
	remote := genTestKey(t).PubKey()

	seed1 := deriveShachainSeed(local, remote)
	seed2 := deriveShachainSeed(local, remote)
	require.Equal(t, seed1, seed2)

	other := genTestKey(t).PubKey()
	seed3 := deriveShachainSeed(local, other)
	require.NotEqual(t, seed1, seed3)
}
