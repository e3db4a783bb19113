package lnwallet

import (
	"bytes"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"
	"github.com/lightningnetwork/lnchannel/elkrem"
	"github.com/lightningnetwork/lnchannel/lnwire"
)

// NewCommitInput packages the funding outpoint both commitment transactions
// spend, along with the amount and 2-of-2 witness script locking it.
func NewCommitInput(outpoint wire.OutPoint, amount btcutil.Amount,
	witnessScript []byte) CommitInput {

	return CommitInput{
		Outpoint:      outpoint,
		Amount:        amount,
		WitnessScript: witnessScript,
	}
}

// FundingScript derives the 2-of-2 multisig witness script and its matching
// p2wsh pkScript for a funding output of amount satoshis locked by the two
// parties' funding keys.
func FundingScript(localFundingPub,
	remoteFundingPub *btcec.PublicKey, amount btcutil.Amount) (witnessScript, pkScript []byte, err error) {

	redeem, txOut, err := genFundingPkScript(
		localFundingPub.SerializeCompressed(),
		remoteFundingPub.SerializeCompressed(), int64(amount),
	)
	if err != nil {
		return nil, nil, err
	}
	return redeem, txOut.PkScript, nil
}

// InitialCommitmentSpec computes the CommitmentSpec each side's very first
// commitment transaction is built from: the funder's side pays the full
// funding amount less any push, and the fundee's side receives the push, with
// no HTLCs outstanding yet.
func InitialCommitmentSpec(isFunder bool, fundingAmount btcutil.Amount,
	pushAmt lnwire.MilliSatoshi, feeratePerKw btcutil.Amount) *CommitmentSpec {

	capacity := lnwire.NewMSatFromSatoshis(fundingAmount)

	toLocal := capacity - pushAmt
	toRemote := pushAmt
	if !isFunder {
		toLocal, toRemote = toRemote, toLocal
	}

	return NewCommitmentSpec(
		feeratePerKw, toLocal, toRemote,
	)
}

// BuildCommitmentTx constructs the commitment transaction for spec, owned by
// the party identified by isOurCommit, at perCommitmentPoint. It is the
// exported entry point the funding and channel-reestablishment flows use to
// build a party's very first commitment transaction, before a Commitments
// value's change logs have anything to apply.
func BuildCommitmentTx(c *Commitments, spec *CommitmentSpec,
	perCommitmentPoint *btcec.PublicKey, isOurCommit bool) (*wire.MsgTx, error) {

	return buildCommitTx(c, spec, perCommitmentPoint, isOurCommit)
}

// SignCommitmentTx signs tx, the counterparty's commitment transaction,
// under the local side of the 2-of-2 funding multisig.
func (c *Commitments) SignCommitmentTx(tx *wire.MsgTx,
	keyManager KeyManager) ([]byte, error) {

	fundingPub, err := keyManager.FundingPublicKey(c.LocalParams.ChannelKeyPath)
	if err != nil {
		return nil, err
	}
	return keyManager.Sign(tx, c.CommitInput.Amount, c.CommitInput.WitnessScript, fundingPub)
}

// VerifyCommitmentSig checks the remote party's signature over tx, our own
// commitment transaction, under the 2-of-2 funding multisig.
func (c *Commitments) VerifyCommitmentSig(tx *wire.MsgTx, sig []byte,
	localFundingPub *btcec.PublicKey) bool {

	return verifyCommitSig(
		tx, c.CommitInput, sig, c.RemoteParams.FundingPubKey, localFundingPub,
	)
}

// NewCommitments assembles the initial Commitments for a freshly negotiated
// channel: both sides' first (HTLC-free) commitment transactions at index 0,
// and no outstanding change-log entries or pending commit. remoteNextPoint is
// the remote party's per-commitment point at index 1, known only once
// FundingLocked is received; callers that don't have it yet pass nil and
// fill it in later via SetRemoteNextPoint.
func NewCommitments(version ChannelVersion, local *LocalParams, remote *RemoteParams,
	channelFlags byte, channelID lnwire.ChannelID, input CommitInput,
	localSpec, remoteSpec *CommitmentSpec, localCommitTx *wire.MsgTx,
	remoteCommitTx *wire.MsgTx, remoteFirstPoint, remoteNextPoint *btcec.PublicKey) *Commitments {

	return &Commitments{
		ChannelVersion: version,
		LocalParams:    local,
		RemoteParams:   remote,
		ChannelFlags:   channelFlags,
		ChannelID:      channelID,
		LocalCommit: LocalCommit{
			Index: 0,
			Spec:  localSpec,
			Tx:    localCommitTx,
		},
		RemoteCommit: RemoteCommit{
			Index:                    0,
			Spec:                     remoteSpec,
			Txid:                     remoteCommitTx.TxHash(),
			RemotePerCommitmentPoint: remoteFirstPoint,
		},
		RemoteNextCommitInfo:       rightNextPoint(remoteNextPoint),
		CommitInput:                input,
		RemotePerCommitmentSecrets: elkrem.NewStore(),
		OriginChannels:             make(map[uint64]struct{}),
	}
}

// SetRemoteNextPoint records the remote party's per-commitment point at
// index 1, disclosed in FundingLocked, completing the Commitments value
// NewCommitments built before that message arrived.
func (c *Commitments) SetRemoteNextPoint(point *btcec.PublicKey) {
	c.RemoteNextCommitInfo = rightNextPoint(point)
}

// FundingPkScript returns the p2wsh output script the funding transaction
// pays to.
func (c *Commitments) FundingPkScript() ([]byte, error) {
	return witnessScriptHash(c.CommitInput.WitnessScript)
}

// VerifyFundingOutput reports whether tx pays input.Amount to input's
// witness script at input.Outpoint.Index, guarding against a confirmed
// transaction that doesn't match what was negotiated.
func VerifyFundingOutput(input CommitInput, tx *wire.MsgTx) bool {
	pkScript, err := witnessScriptHash(input.WitnessScript)
	if err != nil {
		return false
	}

	idx := input.Outpoint.Index
	if idx >= uint32(len(tx.TxOut)) {
		return false
	}

	out := tx.TxOut[idx]
	return out.Value == int64(input.Amount) && bytes.Equal(out.PkScript, pkScript)
}
