package lnwallet

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"
	"github.com/lightningnetwork/lnchannel/elkrem"
	"github.com/lightningnetwork/lnchannel/lnwire"
	"github.com/stretchr/testify/require"
)

// mockKeyManager derives every basepoint and per-commitment key from a
// single fixed seed, so tests are fully deterministic without needing a
// real wallet.
type mockKeyManager struct {
	seed [32]byte
}

func newMockKeyManager(tag byte) *mockKeyManager {
	var seed [32]byte
	seed[0] = tag
	return &mockKeyManager{seed: seed}
}

func (m *mockKeyManager) basepoint(label string) (*btcec.PublicKey, error) {
	h := sha256.Sum256(append(m.seed[:], []byte(label)...))
	return btcec.PrivKeyFromBytes(h[:]).PubKey(), nil
}

func (m *mockKeyManager) FundingPublicKey(keyPath []uint32) (*btcec.PublicKey, error) {
	return m.basepoint("funding")
}

func (m *mockKeyManager) ChannelKeyPath(localParams *LocalParams, version ChannelVersion) []uint32 {
	return []uint32{0}
}

func (m *mockKeyManager) PaymentPoint(keyPath []uint32) (*btcec.PublicKey, error) {
	return m.basepoint("payment")
}

func (m *mockKeyManager) DelayedPaymentPoint(keyPath []uint32) (*btcec.PublicKey, error) {
	return m.basepoint("delayed-payment")
}

func (m *mockKeyManager) HtlcPoint(keyPath []uint32) (*btcec.PublicKey, error) {
	return m.basepoint("htlc")
}

func (m *mockKeyManager) RevocationPoint(keyPath []uint32) (*btcec.PublicKey, error) {
	return m.basepoint("revocation")
}

func (m *mockKeyManager) commitmentSecretAt(index uint64) [32]byte {
	var idxBytes [8]byte
	binary.BigEndian.PutUint64(idxBytes[:], index)
	return sha256.Sum256(append(append(m.seed[:], []byte("commitment")...), idxBytes[:]...))
}

func (m *mockKeyManager) CommitmentPoint(keyPath []uint32, index uint64) (*btcec.PublicKey, error) {
	secret := m.commitmentSecretAt(index)
	return btcec.PrivKeyFromBytes(secret[:]).PubKey(), nil
}

func (m *mockKeyManager) CommitmentSecret(keyPath []uint32, index uint64) ([32]byte, error) {
	return m.commitmentSecretAt(index), nil
}

func (m *mockKeyManager) Sign(tx *wire.MsgTx, amount btcutil.Amount,
	witnessScript []byte, fundingPubKey *btcec.PublicKey) ([]byte, error) {

	// The mock never produces a real signature; tests that need a
	// verifiable CommitSig build one directly rather than routing
	// through sendCommit's keyManager.Sign call.
	return make([]byte, 64), nil
}

var _ KeyManager = (*mockKeyManager)(nil)

func testChannelConstraints() ChannelConstraints {
	return ChannelConstraints{
		DustLimit:        546,
		ChanReserve:      10000,
		MaxPendingAmount: lnwire.NewMSatFromSatoshis(5_000_000),
		MinHTLC:          1,
		MaxAcceptedHtlcs: 30,
		CsvDelay:         144,
	}
}

func testCommitments(t *testing.T) *Commitments {
	t.Helper()

	local := newMockKeyManager(1)
	remote := newMockKeyManager(2)

	localDelayed, err := local.basepoint("delayed-payment")
	require.NoError(t, err)
	localPayment, err := local.basepoint("payment")
	require.NoError(t, err)
	localHtlc, err := local.basepoint("htlc")
	require.NoError(t, err)
	localRevocation, err := local.basepoint("revocation")
	require.NoError(t, err)

	localParams := &LocalParams{
		ChannelConstraints:      testChannelConstraints(),
		ChannelKeyPath:          []uint32{0},
		RevocationBasepoint:     localRevocation,
		PaymentBasepoint:        localPayment,
		DelayedPaymentBasepoint: localDelayed,
		HtlcBasepoint:           localHtlc,
		ToSelfDelay:             144,
		Features:                nil,
	}

	remoteDelayed, err := remote.basepoint("delayed-payment")
	require.NoError(t, err)
	remotePayment, err := remote.basepoint("payment")
	require.NoError(t, err)
	remoteHtlc, err := remote.basepoint("htlc")
	require.NoError(t, err)
	remoteRevocation, err := remote.basepoint("revocation")
	require.NoError(t, err)
	remoteFunding, err := remote.basepoint("funding")
	require.NoError(t, err)

	remoteParams := &RemoteParams{
		ChannelConstraints:      testChannelConstraints(),
		FundingPubKey:           remoteFunding,
		RevocationBasepoint:     remoteRevocation,
		PaymentBasepoint:        remotePayment,
		DelayedPaymentBasepoint: remoteDelayed,
		HtlcBasepoint:           remoteHtlc,
		ToSelfDelay:             144,
	}

	spec := NewCommitmentSpec(
		1000, lnwire.NewMSatFromSatoshis(500_000),
		lnwire.NewMSatFromSatoshis(500_000),
	)

	localFundingPub, err := local.FundingPublicKey(localParams.ChannelKeyPath)
	require.NoError(t, err)
	witnessScript, err := genMultiSigScript(
		localFundingPub.SerializeCompressed(), remoteFunding.SerializeCompressed(),
	)
	require.NoError(t, err)

	firstRemotePoint, err := remote.CommitmentPoint(nil, 0)
	require.NoError(t, err)

	return &Commitments{
		ChannelVersion: 0,
		LocalParams:    localParams,
		RemoteParams:   remoteParams,
		ChannelID:      lnwire.ChannelID{1, 2, 3},
		LocalCommit:    LocalCommit{Index: 0, Spec: spec.clone()},
		RemoteCommit: RemoteCommit{
			Index: 0, Spec: spec.clone(), RemotePerCommitmentPoint: firstRemotePoint,
		},
		RemoteNextCommitInfo: rightNextPoint(firstRemotePoint),
		CommitInput: CommitInput{
			Outpoint:      wire.OutPoint{Index: 0},
			Amount:        1_000_000,
			WitnessScript: witnessScript,
		},
		RemotePerCommitmentSecrets: elkrem.NewStore(),
		OriginChannels:             make(map[uint64]struct{}),
	}
}

func TestSendAddEnforcesMinHTLC(t *testing.T) {
	c := testCommitments(t)

	_, _, err := c.sendAdd(AddHTLCCommand{Amount: 0, CltvExpiry: 500})
	require.ErrorIs(t, err, ErrInvalidHTLCAmt)
}

func TestSendAddAppendsProposedChangeAndAssignsID(t *testing.T) {
	c := testCommitments(t)

	next, msg, err := c.sendAdd(AddHTLCCommand{
		Amount: lnwire.NewMSatFromSatoshis(50000), CltvExpiry: 500,
	})
	require.NoError(t, err)
	require.Equal(t, uint64(0), msg.ID)
	require.Equal(t, uint64(1), next.LocalNextHtlcID)
	require.Len(t, next.LocalChanges.Proposed, 1)

	// original is untouched (copy-on-write).
	require.Equal(t, uint64(0), c.LocalNextHtlcID)
	require.Empty(t, c.LocalChanges.Proposed)
}

func TestSendAddRejectsOverReserve(t *testing.T) {
	c := testCommitments(t)

	_, _, err := c.sendAdd(AddHTLCCommand{
		Amount: lnwire.NewMSatFromSatoshis(499_000), CltvExpiry: 500,
	})
	require.ErrorIs(t, err, ErrInsufficientBalance)
}

func TestReceiveAddRejectsOutOfOrderID(t *testing.T) {
	c := testCommitments(t)

	_, err := c.receiveAdd(&lnwire.UpdateAddHTLC{
		ID: 5, Amount: lnwire.NewMSatFromSatoshis(1000),
	})
	require.ErrorIs(t, err, ErrHTLCIDMismatch)
}

func TestFulfillRoundTripConservesValue(t *testing.T) {
	c := testCommitments(t)

	var hash [32]byte
	var preimage [32]byte
	preimage[0] = 0x42
	hash = sha256.Sum256(preimage[:])

	// The remote party "added" an HTLC from our perspective: simulate by
	// recording it straight into RemoteChanges via receiveAdd.
	next, err := c.receiveAdd(&lnwire.UpdateAddHTLC{
		ID: 0, Amount: lnwire.NewMSatFromSatoshis(10000), PaymentHash: hash,
		Expiry: 600,
	})
	require.NoError(t, err)

	totalBefore := next.RemoteCommit.Spec.totalFunds()

	next, _, err = next.sendFulfill(0, preimage)
	require.NoError(t, err)
	require.Len(t, next.LocalChanges.Proposed, 1)

	// totalFunds on the remote spec hasn't moved yet: sendFulfill only
	// queues the change, applyChanges realizes it once folded into a
	// commitment.
	require.Equal(t, totalBefore, next.RemoteCommit.Spec.totalFunds())
}

func TestFulfillRejectsWrongPreimage(t *testing.T) {
	c := testCommitments(t)

	var hash [32]byte
	hash[0] = 0x99

	next, err := c.receiveAdd(&lnwire.UpdateAddHTLC{
		ID: 0, Amount: lnwire.NewMSatFromSatoshis(10000), PaymentHash: hash,
		Expiry: 600,
	})
	require.NoError(t, err)

	var wrongPreimage [32]byte
	wrongPreimage[0] = 0x01

	_, _, err = next.sendFulfill(0, wrongPreimage)
	require.ErrorIs(t, err, ErrInvalidPreimage)
}

func TestFulfillRejectsUnknownID(t *testing.T) {
	c := testCommitments(t)

	var preimage [32]byte
	_, _, err := c.sendFulfill(7, preimage)
	require.ErrorIs(t, err, ErrUnknownHTLCIndex)
}

func TestApplyChangesConservesTotalFunds(t *testing.T) {
	c := testCommitments(t)

	next, _, err := c.sendAdd(AddHTLCCommand{
		Amount: lnwire.NewMSatFromSatoshis(20000), CltvExpiry: 600,
	})
	require.NoError(t, err)

	before := next.RemoteCommit.Spec.totalFunds()

	applied := applyChanges(
		next.RemoteCommit.Spec, next.LocalChanges.Proposed, next.RemoteChanges.Acked, true,
	)
	require.Equal(t, before+lnwire.NewMSatFromSatoshis(20000), applied.totalFunds())
}

func TestSendCommitRequiresUnsignedChanges(t *testing.T) {
	c := testCommitments(t)
	km := newMockKeyManager(1)

	_, _, err := c.sendCommit(km)
	require.ErrorIs(t, err, ErrNoUnsignedChanges)
}

// TestSendCommitAllowedForUnresolvedRemoteAckedChanges covers the case
// where the local change log is empty but a remote change has already been
// acked (e.g. via receiveCommit) and not yet folded into an outgoing
// commitment: sendCommit must still proceed, since that's the only way the
// acked change becomes irrevocable.
func TestSendCommitAllowedForUnresolvedRemoteAckedChanges(t *testing.T) {
	c := testCommitments(t)
	km := newMockKeyManager(1)

	htlc := InternalHTLC{
		ID:         0,
		Amount:     lnwire.NewMSatFromSatoshis(20000),
		CltvExpiry: 600,
	}
	c.RemoteChanges.Acked = append(c.RemoteChanges.Acked, logEntry{
		UpdateType: updateAdd,
		HTLCID:     htlc.ID,
		Htlc:       &htlc,
	})

	require.False(t, c.localHasChanges())
	require.True(t, c.remoteAckedChangesUnresolved())

	next, msg, err := c.sendCommit(km)
	require.NoError(t, err)
	require.NotNil(t, next)
	require.NotNil(t, msg)
}

func TestSendCommitRespectsCommitmentWindow(t *testing.T) {
	c := testCommitments(t)
	km := newMockKeyManager(1)

	c, _, err := c.sendAdd(AddHTLCCommand{
		Amount: lnwire.NewMSatFromSatoshis(20000), CltvExpiry: 600,
	})
	require.NoError(t, err)

	c.RemoteNextCommitInfo = leftWaiting(&waitingForRevocation{
		NextRemoteCommit: &c.RemoteCommit,
	})

	_, _, err = c.sendCommit(km)
	require.ErrorIs(t, err, ErrNoWindow)
}

func TestSendCommitBuildsNonEmptyTransaction(t *testing.T) {
	c := testCommitments(t)
	km := newMockKeyManager(1)

	c, _, err := c.sendAdd(AddHTLCCommand{
		Amount: lnwire.NewMSatFromSatoshis(20000), CltvExpiry: 600,
	})
	require.NoError(t, err)

	next, msg, err := c.sendCommit(km)
	require.NoError(t, err)
	require.NotNil(t, msg)
	require.True(t, next.RemoteNextCommitInfo.isWaiting())
	require.Equal(t, uint64(1), next.RemoteNextCommitInfo.waiting.NextRemoteCommit.Index)
}

func TestAvailableBalanceForSendShrinksWithReserve(t *testing.T) {
	c := testCommitments(t)

	available := c.availableBalanceForSend()
	require.True(t, available > 0)
	require.True(t, available < c.LocalCommit.Spec.ToLocalMsat)
}

func TestReceiveRevocationRejectsWrongSecret(t *testing.T) {
	c := testCommitments(t)

	c.RemoteNextCommitInfo = leftWaiting(&waitingForRevocation{
		NextRemoteCommit: &RemoteCommit{Index: 1, Spec: c.RemoteCommit.Spec},
	})

	var bogus [32]byte
	bogus[0] = 0xff

	_, _, err := c.receiveRevocation(&lnwire.RevokeAndAck{Revocation: bogus})
	require.ErrorIs(t, err, ErrInvalidRevocation)
}

func TestBuildCommitTxUsesOwnBasepointForToLocalOutput(t *testing.T) {
	c := testCommitments(t)

	perCommitmentPoint, err := newMockKeyManager(1).CommitmentPoint(nil, 0)
	require.NoError(t, err)

	ownLocalKey := tweakPubKey(c.LocalParams.DelayedPaymentBasepoint, perCommitmentPoint)
	wrongLocalKey := tweakPubKey(c.RemoteParams.DelayedPaymentBasepoint, perCommitmentPoint)
	revokeKey := deriveRevocationPubkey(c.RemoteParams.RevocationBasepoint, perCommitmentPoint)

	ownScript, err := commitScriptToSelf(uint32(c.LocalParams.ToSelfDelay), ownLocalKey, revokeKey)
	require.NoError(t, err)
	ownPkScript, err := witnessScriptHash(ownScript)
	require.NoError(t, err)

	wrongScript, err := commitScriptToSelf(uint32(c.LocalParams.ToSelfDelay), wrongLocalKey, revokeKey)
	require.NoError(t, err)
	wrongPkScript, err := witnessScriptHash(wrongScript)
	require.NoError(t, err)

	tx, err := BuildCommitmentTx(c, c.LocalCommit.Spec, perCommitmentPoint, true)
	require.NoError(t, err)

	var found bool
	for _, out := range tx.TxOut {
		if bytes.Equal(out.PkScript, wrongPkScript) {
			t.Fatalf("to_local output derived from the counterparty's basepoint instead of our own")
		}
		if bytes.Equal(out.PkScript, ownPkScript) {
			found = true
		}
	}
	require.True(t, found, "expected to_local output derived from our own delayed payment basepoint")
}

func TestBuildCommitTxOfferedHtlcScriptFlipsWithOwner(t *testing.T) {
	c := testCommitments(t)

	htlc := InternalHTLC{
		ID: 0, Amount: lnwire.NewMSatFromSatoshis(50_000),
		CltvExpiry: 500, PaymentHash: [32]byte{0xaa},
	}
	spec := c.LocalCommit.Spec.clone().addHtlc(Outgoing, htlc)

	localPoint, err := newMockKeyManager(1).CommitmentPoint(nil, 0)
	require.NoError(t, err)
	remotePoint, err := newMockKeyManager(2).CommitmentPoint(nil, 0)
	require.NoError(t, err)

	// An HTLC we sent (Outgoing) is "offered" on our own commitment, so
	// it must use senderHTLCScript there...
	ourTx, err := BuildCommitmentTx(c, spec, localPoint, true)
	require.NoError(t, err)

	localDelayKey := tweakPubKey(c.LocalParams.DelayedPaymentBasepoint, localPoint)
	ourToRemoteKey := c.RemoteParams.PaymentBasepoint
	ourRevokeKey := deriveRevocationPubkey(c.RemoteParams.RevocationBasepoint, localPoint)

	offeredOnOurs, err := senderHTLCScript(
		htlc.CltvExpiry, uint32(c.LocalParams.ToSelfDelay), localDelayKey,
		ourToRemoteKey, ourRevokeKey.SerializeCompressed(), htlc.PaymentHash[:],
	)
	require.NoError(t, err)
	offeredOnOursPkScript, err := witnessScriptHash(offeredOnOurs)
	require.NoError(t, err)

	found := false
	for _, out := range ourTx.TxOut {
		if bytes.Equal(out.PkScript, offeredOnOursPkScript) {
			found = true
		}
	}
	require.True(t, found, "expected an offered-HTLC output using senderHTLCScript on our own commitment")

	// ...but the very same Outgoing HTLC is "received" from the remote
	// party's point of view on their commitment, so it must use
	// receiverHTLCScript there instead.
	theirTx, err := BuildCommitmentTx(c, spec, remotePoint, false)
	require.NoError(t, err)

	remoteDelayKey := tweakPubKey(c.RemoteParams.DelayedPaymentBasepoint, remotePoint)
	theirToRemoteKey := c.LocalParams.PaymentBasepoint
	theirRevokeKey := deriveRevocationPubkey(c.LocalParams.RevocationBasepoint, remotePoint)

	receivedOnTheirs, err := receiverHTLCScript(
		htlc.CltvExpiry, uint32(c.RemoteParams.ToSelfDelay), theirToRemoteKey,
		remoteDelayKey, theirRevokeKey.SerializeCompressed(), htlc.PaymentHash[:],
	)
	require.NoError(t, err)
	receivedOnTheirsPkScript, err := witnessScriptHash(receivedOnTheirs)
	require.NoError(t, err)

	found = false
	wrongScript, err := senderHTLCScript(
		htlc.CltvExpiry, uint32(c.RemoteParams.ToSelfDelay), remoteDelayKey,
		theirToRemoteKey, theirRevokeKey.SerializeCompressed(), htlc.PaymentHash[:],
	)
	require.NoError(t, err)
	wrongPkScript, err := witnessScriptHash(wrongScript)
	require.NoError(t, err)

	for _, out := range theirTx.TxOut {
		if bytes.Equal(out.PkScript, wrongPkScript) {
			t.Fatalf("HTLC output used senderHTLCScript on the counterparty's " +
				"commitment; it should be receiverHTLCScript there")
		}
		if bytes.Equal(out.PkScript, receivedOnTheirsPkScript) {
			found = true
		}
	}
	require.True(t, found, "expected the same HTLC to use receiverHTLCScript on the counterparty's commitment")
}

func TestDirectedHtlcDustTrimmingIsSymmetricByDirection(t *testing.T) {
	spec := NewCommitmentSpec(5000, lnwire.NewMSatFromSatoshis(100_000),
		lnwire.NewMSatFromSatoshis(100_000))

	dustAmt := lnwire.NewMSatFromSatoshis(500)
	spec = spec.addHtlc(Outgoing, InternalHTLC{ID: 0, Amount: dustAmt})
	spec = spec.addHtlc(Incoming, InternalHTLC{ID: 1, Amount: dustAmt})

	require.Empty(t, spec.nonDustHtlcs(true, 546))
	require.Empty(t, spec.nonDustHtlcs(false, 546))
}
