package lnwallet

import (
	"github.com/btcsuite/btcd/btcutil"
	"github.com/lightningnetwork/lnchannel/lnwire"
)

// This file re-exports the Commitments change-log operations for callers
// outside this package, mirroring the pattern already used in funding.go:
// the underlying logic stays put, only the entry points are widened.

// SendAdd proposes a new local HTLC.
func (c *Commitments) SendAdd(cmd AddHTLCCommand) (*Commitments, *lnwire.UpdateAddHTLC, error) {
	return c.sendAdd(cmd)
}

// ReceiveAdd records an incoming HTLC proposal.
func (c *Commitments) ReceiveAdd(msg *lnwire.UpdateAddHTLC) (*Commitments, error) {
	return c.receiveAdd(msg)
}

// SendFulfill settles a remotely-added HTLC with its preimage.
func (c *Commitments) SendFulfill(id uint64, preimage [32]byte) (*Commitments, *lnwire.UpdateFulfillHTLC, error) {
	return c.sendFulfill(id, preimage)
}

// ReceiveFulfill records the remote party's settlement of a locally-added
// HTLC.
func (c *Commitments) ReceiveFulfill(msg *lnwire.UpdateFulfillHTLC) (*Commitments, error) {
	return c.receiveFulfill(msg)
}

// SendFail cancels a remotely-added HTLC.
func (c *Commitments) SendFail(id uint64, reason []byte) (*Commitments, *lnwire.UpdateFailHTLC, error) {
	return c.sendFail(id, reason)
}

// ReceiveFail records the remote party's cancellation of a locally-added
// HTLC.
func (c *Commitments) ReceiveFail(msg *lnwire.UpdateFailHTLC) (*Commitments, error) {
	return c.receiveFail(msg)
}

// SendFailMalformed cancels a remotely-added HTLC whose onion failed to
// decode.
func (c *Commitments) SendFailMalformed(id uint64, code uint16,
	shaOnionBlob [32]byte) (*Commitments, *lnwire.UpdateFailMalformedHTLC, error) {

	return c.sendFailMalformed(id, code, shaOnionBlob)
}

// ReceiveFailMalformed records the remote party's malformed-onion
// cancellation of a locally-added HTLC.
func (c *Commitments) ReceiveFailMalformed(msg *lnwire.UpdateFailMalformedHTLC) (*Commitments, error) {
	return c.receiveFailMalformed(msg)
}

// SendCommit signs and proposes the remote party's next commitment.
func (c *Commitments) SendCommit(keyManager KeyManager) (*Commitments, *lnwire.CommitSig, error) {
	return c.sendCommit(keyManager)
}

// ReceiveCommit verifies and accepts the remote party's signature over our
// next commitment, producing the RevokeAndAck that releases the one it
// supersedes.
func (c *Commitments) ReceiveCommit(msg *lnwire.CommitSig,
	keyManager KeyManager) (*Commitments, *lnwire.RevokeAndAck, error) {

	return c.receiveCommit(msg, keyManager)
}

// ReceiveRevocation validates a revealed per-commitment secret and advances
// the remote commitment to the one it was waiting to revoke, returning
// every remote change that has become irrevocable.
func (c *Commitments) ReceiveRevocation(msg *lnwire.RevokeAndAck) (*Commitments, []HtlcResolution, error) {
	return c.receiveRevocation(msg)
}

// LocalHasChanges reports whether there are unsigned local changes CmdSign
// could commit.
func (c *Commitments) LocalHasChanges() bool {
	return c.localHasChanges()
}

// RemoteHasChanges reports whether there are unsigned remote changes.
func (c *Commitments) RemoteHasChanges() bool {
	return c.remoteHasChanges()
}

// RemoteAckedChangesUnresolved reports whether the remote change log holds
// acked entries CmdSign still needs to fold into an outgoing commitment
// before they become irrevocable and forwardable.
func (c *Commitments) RemoteAckedChangesUnresolved() bool {
	return c.remoteAckedChangesUnresolved()
}

// IsAwaitingRevocation reports whether a previously sent commitment is
// still awaiting the remote party's revocation, i.e. the signing window is
// currently closed.
func (c *Commitments) IsAwaitingRevocation() bool {
	return c.RemoteNextCommitInfo.isWaiting()
}

// MarkReSignAsap flags the pending commitment as needing an immediate
// re-sign once it's revoked. A no-op if there is no pending commitment.
func (c *Commitments) MarkReSignAsap() *Commitments {
	if !c.RemoteNextCommitInfo.isWaiting() {
		return c
	}

	next := c.clone()
	w := *next.RemoteNextCommitInfo.waiting
	w.ReSignAsap = true
	next.RemoteNextCommitInfo = leftWaiting(&w)
	return next
}

// ReSignAsap reports whether the pending commitment, if any, was flagged by
// MarkReSignAsap.
func (c *Commitments) ReSignAsap() bool {
	return c.RemoteNextCommitInfo.waiting != nil && c.RemoteNextCommitInfo.waiting.ReSignAsap
}

// PendingRemoteCommit returns the remote commitment most recently sent via
// SendCommit that the remote party has not yet revoked its predecessor for,
// or nil if there is none. This is the commitment whose HTLC set a caller
// persisting alongside the CommitSig that proposed it must use, since
// RemoteCommit itself still reflects the prior, superseded state until the
// matching RevokeAndAck arrives.
func (c *Commitments) PendingRemoteCommit() *RemoteCommit {
	if !c.RemoteNextCommitInfo.isWaiting() {
		return nil
	}
	return c.RemoteNextCommitInfo.waiting.NextRemoteCommit
}

// NonDustHtlcs returns the HTLCs of spec that survive dust trimming on the
// commitment transaction identified by ourCommit, at dustLimit.
func (spec *CommitmentSpec) NonDustHtlcs(ourCommit bool, dustLimit btcutil.Amount) []DirectedHtlc {
	return spec.nonDustHtlcs(ourCommit, dustLimit)
}

// HTLCID identifies the HTLC this resolution concerns: the add's own id.
func (h HtlcResolution) HTLCID() uint64 {
	return h.Entry.HTLCID
}

// IsAdd reports whether this resolution is a newly proposed HTLC.
func (h HtlcResolution) IsAdd() bool {
	return h.Entry.UpdateType == updateAdd
}

// IsFulfill reports whether this resolution settles an HTLC with a preimage.
func (h HtlcResolution) IsFulfill() bool {
	return h.Entry.UpdateType == updateFulfill
}

// IsFail reports whether this resolution cancels an HTLC with an opaque
// reason.
func (h HtlcResolution) IsFail() bool {
	return h.Entry.UpdateType == updateFail
}

// IsFailMalformed reports whether this resolution cancels an HTLC whose
// onion failed to decode.
func (h HtlcResolution) IsFailMalformed() bool {
	return h.Entry.UpdateType == updateFailMalformed
}

// Htlc returns the full HTLC payload, populated only when IsAdd is true.
func (h HtlcResolution) Htlc() *InternalHTLC {
	return h.Entry.Htlc
}

// Preimage returns the fulfillment preimage, populated only when IsFulfill
// is true.
func (h HtlcResolution) Preimage() [32]byte {
	return h.Entry.Preimage
}

// FailReason returns the opaque encrypted failure message, populated only
// when IsFail is true.
func (h HtlcResolution) FailReason() []byte {
	return h.Entry.FailReason
}

// FailCode and ShaOnionBlob return the malformed-onion failure detail,
// populated only when IsFailMalformed is true.
func (h HtlcResolution) FailCode() uint16 {
	return h.Entry.FailCode
}

func (h HtlcResolution) ShaOnionBlob() [32]byte {
	return h.Entry.ShaOnionBlob
}

// ChannelSnapshot is a read-only, point-in-time view of a channel's
// balances and pending HTLC count, safe to hand to a caller outside this
// package without exposing the mutable Commitments it was taken from.
type ChannelSnapshot struct {
	ChannelID       lnwire.ChannelID
	Capacity        btcutil.Amount
	LocalBalance    lnwire.MilliSatoshi
	RemoteBalance   lnwire.MilliSatoshi
	NumPendingHtlcs int
}

// Snapshot reports the local commitment's view of the channel: its own
// balances are authoritative until the next state transition replaces them.
func (c *Commitments) Snapshot() ChannelSnapshot {
	spec := c.LocalCommit.Spec
	return ChannelSnapshot{
		ChannelID:       c.ChannelID,
		Capacity:        c.CommitInput.Amount,
		LocalBalance:    spec.ToLocalMsat,
		RemoteBalance:   spec.ToRemoteMsat,
		NumPendingHtlcs: len(spec.Htlcs),
	}
}
