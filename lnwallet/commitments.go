package lnwallet

import (
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/lightningnetwork/lnchannel/elkrem"
	"github.com/lightningnetwork/lnchannel/lnwire"
)

// LocalCommit is the local party's current signed view of its own
// commitment transaction: the spec it was built from, its index, and the
// fully-signed transaction the local party can broadcast immediately.
type LocalCommit struct {
	Index uint64
	Spec  *CommitmentSpec
	Tx    *wire.MsgTx
}

// RemoteCommit is the local party's view of the remote party's current
// commitment transaction: enough to reconstruct and verify it, but not
// the transaction itself, since only the remote party holds its signature
// over their own inputs.
type RemoteCommit struct {
	Index                    uint64
	Spec                     *CommitmentSpec
	Txid                     chainhash.Hash
	RemotePerCommitmentPoint *btcec.PublicKey
}

// waitingForRevocation marks a commitment sent to the remote party that
// they have not yet revoked their prior one in response to.
type waitingForRevocation struct {
	NextRemoteCommit          *RemoteCommit
	SentAfterLocalCommitIndex uint64
	ReSignAsap                bool

	// RemoteChangesThrough is how many of RemoteChanges.Acked were folded
	// into NextRemoteCommit's spec. Once the remote party revokes the
	// commitment this replaced, every one of those entries is reflected
	// on both sides and becomes irrevocable.
	RemoteChangesThrough int
}

// remoteCommitInfo is the Either(WaitingForRevocation, nextPerCommitmentPoint)
// spec.md describes: exactly one of the two fields is set.
type remoteCommitInfo struct {
	waiting   *waitingForRevocation
	nextPoint *btcec.PublicKey
}

func rightNextPoint(point *btcec.PublicKey) remoteCommitInfo {
	return remoteCommitInfo{nextPoint: point}
}

func leftWaiting(w *waitingForRevocation) remoteCommitInfo {
	return remoteCommitInfo{waiting: w}
}

// isWaiting reports whether we're in the Left(WaitingForRevocation) case.
func (r remoteCommitInfo) isWaiting() bool {
	return r.waiting != nil
}

// CommitInput identifies the funding output both commitment transactions
// spend.
type CommitInput struct {
	Outpoint      wire.OutPoint
	Amount        btcutil.Amount
	WitnessScript []byte
}

// Commitments is the heart of the channel data model: both parties' current
// commitment transactions, their pending HTLCs, the change logs tracking
// the two-phase commit dance, and the revocation state.
type Commitments struct {
	ChannelVersion ChannelVersion
	LocalParams    *LocalParams
	RemoteParams   *RemoteParams
	ChannelFlags   byte
	ChannelID      lnwire.ChannelID

	LocalCommit  LocalCommit
	RemoteCommit RemoteCommit

	LocalChanges  changeLog
	RemoteChanges changeLog

	LocalNextHtlcID  uint64
	RemoteNextHtlcID uint64

	RemoteNextCommitInfo remoteCommitInfo

	CommitInput CommitInput

	// RemotePerCommitmentSecrets stores every per-commitment secret the
	// remote party has revealed. receiveRevocation inserts them by
	// ascending commitment index, so the store keeps one node per secret.
	RemotePerCommitmentSecrets *elkrem.Store

	// OriginChannels is always empty: this core implements a leaf
	// endpoint, never a forwarding hop.
	OriginChannels map[uint64]struct{}

	// resolvedRemoteChanges is how many of RemoteChanges.Acked have
	// already been surfaced as HtlcResolutions by receiveRevocation.
	resolvedRemoteChanges int
}

// clone returns a shallow copy of c suitable as the basis for a
// copy-on-write transition; callers that mutate LocalChanges/RemoteChanges
// or the commits should replace those fields on the returned value rather
// than mutate c's.
func (c *Commitments) clone() *Commitments {
	cp := *c
	cp.LocalChanges = c.LocalChanges.clone()
	cp.RemoteChanges = c.RemoteChanges.clone()
	return &cp
}

// localHasChanges reports whether the local change log has anything left
// unsigned.
func (c *Commitments) localHasChanges() bool {
	return c.LocalChanges.hasUnsignedChanges()
}

// remoteHasChanges reports whether the remote change log has anything left
// unsigned from our perspective (i.e. proposed changes we haven't yet
// committed to).
func (c *Commitments) remoteHasChanges() bool {
	return c.RemoteChanges.hasUnsignedChanges()
}

// remoteAckedChangesUnresolved reports whether the remote change log holds
// acked entries that haven't yet been folded into a local commitment we've
// sent out. An entry lands in RemoteChanges.Acked as soon as we receive the
// remote's commitment_signed for it, but it only becomes irrevocable once we
// in turn sign a commitment covering it and the remote revokes its
// predecessor. Until then it hasn't reached the point of being forwardable.
func (c *Commitments) remoteAckedChangesUnresolved() bool {
	return len(c.RemoteChanges.Acked) > c.resolvedRemoteChanges
}

// availableBalanceForSend returns the local balance still available to
// propose new outgoing HTLCs with: the current to-local balance, minus the
// channel reserve (when applicable), minus the commitment fee the local
// party as funder would owe.
func (c *Commitments) availableBalanceForSend() lnwire.MilliSatoshi {
	balance := c.LocalCommit.Spec.ToLocalMsat

	reserve := lnwire.NewMSatFromSatoshis(c.LocalParams.ChanReserve)
	if balance < reserve {
		return 0
	}
	balance -= reserve

	fee := lnwire.NewMSatFromSatoshis(
		commitTxFee(c.LocalCommit.Spec, c.LocalParams.DustLimit),
	)
	if balance < fee {
		return 0
	}
	return balance - fee
}

// commitTxFee estimates the total fee the funder owes for a commitment
// transaction carrying spec's non-dust HTLCs at spec's feerate.
func commitTxFee(spec *CommitmentSpec, dustLimit btcutil.Amount) btcutil.Amount {
	nonDust := len(spec.nonDustHtlcs(true, dustLimit))
	weight := estimateCommitTxWeight(nonDust, false)
	return btcutil.Amount(weight) * spec.FeeratePerKw / 1000
}

// AddHTLCCommand is the local command to propose a new outgoing HTLC.
type AddHTLCCommand struct {
	Amount      lnwire.MilliSatoshi
	PaymentHash [32]byte
	CltvExpiry  uint32
	OnionBlob   [lnwire.OnionBlobSize]byte
}

// checkHTLCBounds enforces the HTLC-minimum, max-accepted, in-flight and
// reserve-plus-fee bounds on a proposed change. It does not compare the
// amount against either side's dust limit. spec is the prospective spec
// that would result from accepting the change (it already contains the new
// HTLC), and payerDirection identifies which side's balance the new HTLC
// would be drawn against.
func checkHTLCBounds(spec *CommitmentSpec, constraints ChannelConstraints,
	pendingCount int, amount lnwire.MilliSatoshi, payerDirection HTLCDirection) error {

	if amount < constraints.MinHTLC {
		return ErrInvalidHTLCAmt
	}
	if pendingCount+1 > int(constraints.MaxAcceptedHtlcs) {
		return ErrMaxHTLCNumber
	}

	var inFlight, payerPending lnwire.MilliSatoshi
	for _, htlc := range spec.Htlcs {
		inFlight += htlc.Amount
		if htlc.Direction == payerDirection {
			payerPending += htlc.Amount
		}
	}
	if inFlight > constraints.MaxPendingAmount {
		return ErrInsufficientBalance
	}

	weight := estimateCommitTxWeight(len(spec.Htlcs)+1, false)
	fee := btcutil.Amount(weight) * spec.FeeratePerKw / 1000
	reserve := constraints.ChanReserve

	payerBalance := spec.ToLocalMsat
	if payerDirection == Incoming {
		payerBalance = spec.ToRemoteMsat
	}

	if payerPending.ToSatoshis()+reserve+fee > payerBalance.ToSatoshis() {
		return ErrInsufficientBalance
	}

	return nil
}

// sendAdd assigns the next local HTLC id to cmd, enforces bounds against the
// prospective local and remote views, and appends the proposed add to the
// local change log.
func (c *Commitments) sendAdd(cmd AddHTLCCommand) (*Commitments, *lnwire.UpdateAddHTLC, error) {
	htlc := InternalHTLC{
		ID:          c.LocalNextHtlcID,
		Amount:      cmd.Amount,
		PaymentHash: cmd.PaymentHash,
		CltvExpiry:  cmd.CltvExpiry,
		OnionBlob:   cmd.OnionBlob,
	}

	localProspective := c.LocalCommit.Spec.addHtlc(Outgoing, htlc)
	if err := checkHTLCBounds(
		localProspective, c.LocalParams.ChannelConstraints,
		len(c.LocalCommit.Spec.Htlcs), cmd.Amount, Outgoing,
	); err != nil {
		return nil, nil, err
	}

	remoteProspective := c.RemoteCommit.Spec.addHtlc(Outgoing, htlc)
	if err := checkHTLCBounds(
		remoteProspective, c.RemoteParams.ChannelConstraints,
		len(c.RemoteCommit.Spec.Htlcs), cmd.Amount, Outgoing,
	); err != nil {
		return nil, nil, err
	}

	next := c.clone()
	next.LocalNextHtlcID++
	next.LocalChanges.Proposed = append(next.LocalChanges.Proposed, logEntry{
		UpdateType: updateAdd,
		HTLCID:     htlc.ID,
		Htlc:       &htlc,
	})

	msg := &lnwire.UpdateAddHTLC{
		ChanID:      c.ChannelID,
		ID:          htlc.ID,
		Amount:      htlc.Amount,
		PaymentHash: htlc.PaymentHash,
		Expiry:      htlc.CltvExpiry,
		OnionBlob:   htlc.OnionBlob,
	}
	return next, msg, nil
}

// receiveAdd validates and records an incoming UpdateAddHTLC, which must
// carry exactly the next expected remote HTLC id.
func (c *Commitments) receiveAdd(msg *lnwire.UpdateAddHTLC) (*Commitments, error) {
	if msg.ID != c.RemoteNextHtlcID {
		return nil, ErrHTLCIDMismatch
	}

	htlc := InternalHTLC{
		ID:          msg.ID,
		Amount:      msg.Amount,
		PaymentHash: msg.PaymentHash,
		CltvExpiry:  msg.Expiry,
		OnionBlob:   msg.OnionBlob,
	}

	remoteProspective := c.RemoteCommit.Spec.addHtlc(Incoming, htlc)
	if err := checkHTLCBounds(
		remoteProspective, c.RemoteParams.ChannelConstraints,
		len(c.RemoteCommit.Spec.Htlcs), msg.Amount, Incoming,
	); err != nil {
		return nil, err
	}

	next := c.clone()
	next.RemoteNextHtlcID++
	next.RemoteChanges.Proposed = append(next.RemoteChanges.Proposed, logEntry{
		UpdateType: updateAdd,
		HTLCID:     htlc.ID,
		Htlc:       &htlc,
	})
	return next, nil
}

// findAddEntry locates the Add entry for id in log, searching the acked,
// then signed, then proposed portion. An add that is still only proposed
// is found as well; the entry is not required to have been signed.
func findAddEntry(log changeLog, id uint64) (*logEntry, bool) {
	for _, entries := range [][]logEntry{log.Acked, log.Signed, log.Proposed} {
		for i := range entries {
			if entries[i].UpdateType == updateAdd && entries[i].HTLCID == id {
				return &entries[i], true
			}
		}
	}
	return nil, false
}

// sendFulfill records a local fulfillment of a remotely-added HTLC,
// verifying the preimage hashes to the HTLC's payment hash.
func (c *Commitments) sendFulfill(id uint64, preimage [32]byte) (*Commitments, *lnwire.UpdateFulfillHTLC, error) {
	entry, ok := findAddEntry(c.RemoteChanges, id)
	if !ok {
		return nil, nil, ErrUnknownHTLCIndex
	}
	if sha256Sum(preimage[:]) != entry.Htlc.PaymentHash {
		return nil, nil, ErrInvalidPreimage
	}

	next := c.clone()
	next.LocalChanges.Proposed = append(next.LocalChanges.Proposed, logEntry{
		UpdateType: updateFulfill,
		HTLCID:     id,
		Preimage:   preimage,
	})

	msg := &lnwire.UpdateFulfillHTLC{
		ChanID:          c.ChannelID,
		ID:              id,
		PaymentPreimage: preimage,
	}
	return next, msg, nil
}

// receiveFulfill records the remote party's fulfillment of a locally-added
// HTLC.
func (c *Commitments) receiveFulfill(msg *lnwire.UpdateFulfillHTLC) (*Commitments, error) {
	entry, ok := findAddEntry(c.LocalChanges, msg.ID)
	if !ok {
		return nil, ErrUnknownHTLCIndex
	}
	if sha256Sum(msg.PaymentPreimage[:]) != entry.Htlc.PaymentHash {
		return nil, ErrInvalidPreimage
	}

	next := c.clone()
	next.RemoteChanges.Proposed = append(next.RemoteChanges.Proposed, logEntry{
		UpdateType: updateFulfill,
		HTLCID:     msg.ID,
		Preimage:   msg.PaymentPreimage,
	})
	return next, nil
}

// sendFail records a local failure of a remotely-added HTLC.
func (c *Commitments) sendFail(id uint64, reason []byte) (*Commitments, *lnwire.UpdateFailHTLC, error) {
	if _, ok := findAddEntry(c.RemoteChanges, id); !ok {
		return nil, nil, ErrUnknownHTLCIndex
	}

	next := c.clone()
	next.LocalChanges.Proposed = append(next.LocalChanges.Proposed, logEntry{
		UpdateType: updateFail,
		HTLCID:     id,
		FailReason: reason,
	})

	msg := &lnwire.UpdateFailHTLC{ChanID: c.ChannelID, ID: id, Reason: reason}
	return next, msg, nil
}

// receiveFail records the remote party's failure of a locally-added HTLC.
func (c *Commitments) receiveFail(msg *lnwire.UpdateFailHTLC) (*Commitments, error) {
	if _, ok := findAddEntry(c.LocalChanges, msg.ID); !ok {
		return nil, ErrUnknownHTLCIndex
	}

	next := c.clone()
	next.RemoteChanges.Proposed = append(next.RemoteChanges.Proposed, logEntry{
		UpdateType: updateFail,
		HTLCID:     msg.ID,
		FailReason: msg.Reason,
	})
	return next, nil
}

// sendFailMalformed records a local malformed-onion failure of a
// remotely-added HTLC.
func (c *Commitments) sendFailMalformed(id uint64, code uint16,
	shaOnionBlob [32]byte) (*Commitments, *lnwire.UpdateFailMalformedHTLC, error) {

	if _, ok := findAddEntry(c.RemoteChanges, id); !ok {
		return nil, nil, ErrUnknownHTLCIndex
	}

	next := c.clone()
	next.LocalChanges.Proposed = append(next.LocalChanges.Proposed, logEntry{
		UpdateType:   updateFailMalformed,
		HTLCID:       id,
		FailCode:     code,
		ShaOnionBlob: shaOnionBlob,
	})

	msg := &lnwire.UpdateFailMalformedHTLC{
		ChanID:       c.ChannelID,
		ID:           id,
		ShaOnionBlob: shaOnionBlob,
		FailureCode:  code,
	}
	return next, msg, nil
}

// receiveFailMalformed records the remote party's malformed-onion failure
// of a locally-added HTLC.
func (c *Commitments) receiveFailMalformed(msg *lnwire.UpdateFailMalformedHTLC) (*Commitments, error) {
	if _, ok := findAddEntry(c.LocalChanges, msg.ID); !ok {
		return nil, ErrUnknownHTLCIndex
	}

	next := c.clone()
	next.RemoteChanges.Proposed = append(next.RemoteChanges.Proposed, logEntry{
		UpdateType:   updateFailMalformed,
		HTLCID:       msg.ID,
		FailCode:     msg.FailureCode,
		ShaOnionBlob: msg.ShaOnionBlob,
	})
	return next, nil
}

// applyChanges folds every proposed-or-signed entry from adder, plus every
// acked entry from acker, onto base, producing the spec that results once
// every already-exchanged change is applied. Adds always increase the
// HTLC set; Fulfill/Fail/FailMalformed resolve an entry the *other* log
// originally added, so they're applied by removing from the opposite
// direction than the log they live in.
func applyChanges(base *CommitmentSpec, adderEntries []logEntry,
	ackerEntries []logEntry, adderIsLocal bool) *CommitmentSpec {

	spec := base

	addDirection := Outgoing
	if !adderIsLocal {
		addDirection = Incoming
	}
	// Acker resolutions settle HTLCs the adder log added.
	resolveDirection := addDirection

	for _, entry := range adderEntries {
		if entry.UpdateType == updateAdd {
			spec = spec.addHtlc(addDirection, *entry.Htlc)
		}
	}
	for _, entry := range ackerEntries {
		if entry.UpdateType == updateAdd {
			continue
		}
		fulfilled := entry.UpdateType == updateFulfill
		spec, _, _ = spec.removeHtlc(resolveDirection, entry.HTLCID, fulfilled)
	}

	return spec
}

func sha256Sum(b []byte) [32]byte {
	return chainhash.HashH(b)
}

// sendCommit builds, signs, and proposes the remote party's next
// commitment: every proposed-or-signed local change plus every acked
// remote change folded onto the current remote spec.
func (c *Commitments) sendCommit(keyManager KeyManager) (*Commitments, *lnwire.CommitSig, error) {
	if c.RemoteNextCommitInfo.isWaiting() {
		return nil, nil, ErrNoWindow
	}
	if !c.localHasChanges() && !c.remoteAckedChangesUnresolved() {
		return nil, nil, ErrNoUnsignedChanges
	}

	localAdds := append(append([]logEntry{}, c.LocalChanges.Signed...), c.LocalChanges.Proposed...)
	nextRemoteSpec := applyChanges(c.RemoteCommit.Spec, localAdds, c.RemoteChanges.Acked, true)

	nextIndex := c.RemoteCommit.Index + 1
	nextPoint := c.RemoteNextCommitInfo.nextPoint

	tx, err := buildCommitTx(c, nextRemoteSpec, nextPoint, false)
	if err != nil {
		return nil, nil, err
	}

	fundingPub, err := keyManager.FundingPublicKey(c.LocalParams.ChannelKeyPath)
	if err != nil {
		return nil, nil, err
	}
	sig, err := keyManager.Sign(tx, c.CommitInput.Amount, c.CommitInput.WitnessScript, fundingPub)
	if err != nil {
		return nil, nil, err
	}

	next := c.clone()
	next.LocalChanges.Signed = append(next.LocalChanges.Signed, next.LocalChanges.Proposed...)
	next.LocalChanges.Proposed = nil
	next.RemoteNextCommitInfo = leftWaiting(&waitingForRevocation{
		RemoteChangesThrough: len(c.RemoteChanges.Acked),
		NextRemoteCommit: &RemoteCommit{
			Index:                    nextIndex,
			Spec:                     nextRemoteSpec,
			Txid:                     tx.TxHash(),
			RemotePerCommitmentPoint: nextPoint,
		},
		SentAfterLocalCommitIndex: c.LocalCommit.Index,
	})

	var sigArr [64]byte
	copy(sigArr[:], sig)

	msg := &lnwire.CommitSig{
		ChanID:    c.ChannelID,
		CommitSig: sigArr,
	}
	return next, msg, nil
}

// buildCommitTx constructs the commitment transaction for spec, owned by
// the party identified by isOurCommit, at the given per-commitment point.
func buildCommitTx(c *Commitments, spec *CommitmentSpec,
	perCommitmentPoint *btcec.PublicKey, isOurCommit bool) (*wire.MsgTx, error) {

	tx := wire.NewMsgTx(2)
	tx.AddTxIn(&wire.TxIn{PreviousOutPoint: c.CommitInput.Outpoint})

	toLocalDelay := uint32(c.LocalParams.ToSelfDelay)
	if !isOurCommit {
		toLocalDelay = uint32(c.RemoteParams.ToSelfDelay)
	}

	var localDelayKey, toRemoteKey, revokeKey *btcec.PublicKey
	if isOurCommit {
		localDelayKey = tweakPubKey(c.LocalParams.DelayedPaymentBasepoint, perCommitmentPoint)
		toRemoteKey = c.RemoteParams.PaymentBasepoint
		revokeKey = deriveRevocationPubkey(c.RemoteParams.RevocationBasepoint, perCommitmentPoint)
	} else {
		localDelayKey = tweakPubKey(c.RemoteParams.DelayedPaymentBasepoint, perCommitmentPoint)
		toRemoteKey = c.LocalParams.PaymentBasepoint
		revokeKey = deriveRevocationPubkey(c.LocalParams.RevocationBasepoint, perCommitmentPoint)
	}
	if !c.ChannelVersion.HasStaticRemoteKey() {
		toRemoteKey = tweakPubKey(toRemoteKey, perCommitmentPoint)
	}

	dustLimit := c.LocalParams.DustLimit
	if !isOurCommit {
		dustLimit = c.RemoteParams.DustLimit
	}

	toLocalSat := spec.ToLocalMsat.ToSatoshis()
	if toLocalSat >= dustLimit {
		script, err := commitScriptToSelf(toLocalDelay, localDelayKey, revokeKey)
		if err != nil {
			return nil, err
		}
		pkScript, err := witnessScriptHash(script)
		if err != nil {
			return nil, err
		}
		tx.AddTxOut(wire.NewTxOut(int64(toLocalSat), pkScript))
	}

	toRemoteSat := spec.ToRemoteMsat.ToSatoshis()
	if toRemoteSat >= dustLimit {
		pkScript, err := commitScriptUnencumbered(toRemoteKey)
		if err != nil {
			return nil, err
		}
		tx.AddTxOut(wire.NewTxOut(int64(toRemoteSat), pkScript))
	}

	for _, htlc := range spec.nonDustHtlcs(isOurCommit, dustLimit) {
		var script []byte
		var err error

		// htlc.Direction is always relative to the local node, not to
		// whichever party owns this commitment. An HTLC is "offered"
		// on a commitment when the owner of that commitment is the
		// one who sent it: that's us on our own commitment sending
		// Outgoing, or the remote party on their own commitment
		// having sent what we see as Incoming. Mirrors htlcIsDust's
		// incoming/ourCommit combination above.
		offered := (htlc.Direction == Incoming) != isOurCommit
		if offered {
			script, err = senderHTLCScript(
				htlc.CltvExpiry, uint32(toLocalDelay), localDelayKey, toRemoteKey,
				revokeKey.SerializeCompressed(), htlc.PaymentHash[:],
			)
		} else {
			script, err = receiverHTLCScript(
				htlc.CltvExpiry, uint32(toLocalDelay), toRemoteKey, localDelayKey,
				revokeKey.SerializeCompressed(), htlc.PaymentHash[:],
			)
		}
		if err != nil {
			return nil, err
		}
		pkScript, err := witnessScriptHash(script)
		if err != nil {
			return nil, err
		}
		tx.AddTxOut(wire.NewTxOut(int64(htlc.Amount.ToSatoshis()), pkScript))
	}

	return tx, nil
}

// receiveCommit verifies the remote party's signature over our next
// commitment transaction, advances
// localCommit, and produces the RevokeAndAck releasing the secret for the
// commitment it supersedes. The per-HTLC signatures in msg are not
// verified.
func (c *Commitments) receiveCommit(msg *lnwire.CommitSig,
	keyManager KeyManager) (*Commitments, *lnwire.RevokeAndAck, error) {

	remoteAdds := append(append([]logEntry{}, c.RemoteChanges.Signed...), c.RemoteChanges.Proposed...)
	nextLocalSpec := applyChanges(c.LocalCommit.Spec, remoteAdds, c.LocalChanges.Acked, false)

	nextIndex := c.LocalCommit.Index + 1
	nextPoint, err := keyManager.CommitmentPoint(c.LocalParams.ChannelKeyPath, nextIndex)
	if err != nil {
		return nil, nil, err
	}

	tx, err := buildCommitTx(c, nextLocalSpec, nextPoint, true)
	if err != nil {
		return nil, nil, err
	}

	fundingPub, err := keyManager.FundingPublicKey(c.LocalParams.ChannelKeyPath)
	if err != nil {
		return nil, nil, err
	}
	if !verifyCommitSig(tx, c.CommitInput, msg.CommitSig[:], c.RemoteParams.FundingPubKey, fundingPub) {
		return nil, nil, ErrInvalidCommitSig
	}

	revealIndex := c.LocalCommit.Index
	revealSecret, err := keyManager.CommitmentSecret(c.LocalParams.ChannelKeyPath, revealIndex)
	if err != nil {
		return nil, nil, err
	}

	newPoint, err := keyManager.CommitmentPoint(c.LocalParams.ChannelKeyPath, nextIndex+1)
	if err != nil {
		return nil, nil, err
	}

	next := c.clone()
	next.LocalCommit = LocalCommit{Index: nextIndex, Spec: nextLocalSpec, Tx: tx}
	next.RemoteChanges.Proposed, next.RemoteChanges.Acked = nil,
		append(next.RemoteChanges.Acked, remoteAdds...)

	revoke := &lnwire.RevokeAndAck{
		ChanID:                 c.ChannelID,
		Revocation:             revealSecret,
		NextPerCommitmentPoint: newPoint,
	}
	return next, revoke, nil
}

// verifyCommitSig checks a DER-less 64-byte compact signature produced by
// the remote party over tx's single funding input, under the 2-of-2
// multisig formed by remotePub and localPub.
func verifyCommitSig(tx *wire.MsgTx, input CommitInput, sig []byte,
	remotePub, localPub *btcec.PublicKey) bool {

	if len(sig) != 64 {
		return false
	}

	fundingPkScript, err := witnessScriptHash(input.WitnessScript)
	if err != nil {
		return false
	}
	prevOutFetcher := txscript.NewCannedPrevOutputFetcher(
		fundingPkScript, int64(input.Amount),
	)
	hashCache := txscript.NewTxSigHashes(tx, prevOutFetcher)
	sigHash, err := txscript.CalcWitnessSigHash(
		input.WitnessScript, hashCache, txscript.SigHashAll, tx, 0,
		int64(input.Amount),
	)
	if err != nil {
		return false
	}

	var r, s btcec.ModNScalar
	r.SetByteSlice(sig[:32])
	s.SetByteSlice(sig[32:])
	parsedSig := ecdsa.NewSignature(&r, &s)

	return parsedSig.Verify(sigHash, remotePub)
}

// HtlcResolution describes an HTLC change that became irrevocable as the
// result of processing a RevokeAndAck: either a remote-originated change
// (add, fulfill, fail, or fail-malformed) or one of our own signed
// fulfills or fails of a remote HTLC. The driver surfaces these so a
// forwarding layer (absent at a leaf endpoint) could act on them.
type HtlcResolution struct {
	Entry logEntry
}

// receiveRevocation validates the revealed secret against the previous
// remote per-commitment point, advances remoteCommit to the previously
// pending commitment, and returns every remote change that has now become
// irrevocable, preceded by our own signed fulfills and fails.
func (c *Commitments) receiveRevocation(msg *lnwire.RevokeAndAck) (*Commitments, []HtlcResolution, error) {
	if !c.RemoteNextCommitInfo.isWaiting() {
		return nil, nil, fmt.Errorf("no pending commitment to revoke")
	}

	revealedPoint := deriveCommitmentPointFromSecret(msg.Revocation)
	if !revealedPoint.IsEqual(c.RemoteCommit.RemotePerCommitmentPoint) {
		return nil, nil, ErrInvalidRevocation
	}

	if err := c.RemotePerCommitmentSecrets.Insert(c.RemoteCommit.Index, msg.Revocation); err != nil {
		return nil, nil, err
	}

	waiting := c.RemoteNextCommitInfo.waiting

	var resolved []HtlcResolution
	for _, entry := range c.LocalChanges.Signed {
		if entry.UpdateType != updateAdd {
			resolved = append(resolved, HtlcResolution{Entry: entry})
		}
	}

	// Every remote change folded into the commitment the remote party
	// just revoked its predecessor for is now reflected on both sides:
	// it was already applied to our LocalCommit when we first received
	// it, and the remote party's own current commitment now carries it
	// too. That makes it irrevocable, whether it's their HTLC add or
	// their resolution of one of ours.
	for _, entry := range c.RemoteChanges.Acked[c.resolvedRemoteChanges:waiting.RemoteChangesThrough] {
		resolved = append(resolved, HtlcResolution{Entry: entry})
	}

	next := c.clone()
	next.RemoteCommit = *waiting.NextRemoteCommit
	next.RemoteNextCommitInfo = rightNextPoint(msg.NextPerCommitmentPoint)
	next.LocalChanges.Acked = append(next.LocalChanges.Acked, next.LocalChanges.Signed...)
	next.LocalChanges.Signed = nil
	next.resolvedRemoteChanges = waiting.RemoteChangesThrough

	return next, resolved, nil
}

// deriveCommitmentPointFromSecret recovers the per-commitment point that
// corresponds to a revealed per-commitment secret.
func deriveCommitmentPointFromSecret(secret [32]byte) *btcec.PublicKey {
	priv := btcec.PrivKeyFromBytes(secret[:])
	return priv.PubKey()
}
