package lnwallet

import "github.com/lightningnetwork/lnchannel/lnwire"

// HTLCDirection marks which side originated an HTLC within a commitment
// spec, relative to the local node whichever party owns the commitment:
// Outgoing HTLCs were added by us, Incoming ones by the remote party.
type HTLCDirection uint8

const (
	// Outgoing marks an HTLC this side added to the log.
	Outgoing HTLCDirection = iota

	// Incoming marks an HTLC the counterparty added to the log.
	Incoming
)

// String returns a human readable name for the direction.
func (d HTLCDirection) String() string {
	if d == Incoming {
		return "Incoming"
	}
	return "Outgoing"
}

// InternalHTLC is the channel-internal representation of a pending HTLC,
// carrying only the fields the commitment spec needs; the wire encoding of
// the onion routing blob lives in lnwire.UpdateAddHTLC.
type InternalHTLC struct {
	// ID is assigned by the adding party from its own monotonic counter.
	ID uint64

	// Amount is the HTLC's value.
	Amount lnwire.MilliSatoshi

	// PaymentHash is the hash the HTLC is conditioned on.
	PaymentHash [32]byte

	// CltvExpiry is the absolute block height the HTLC times out at.
	CltvExpiry uint32

	// OnionBlob is the Sphinx-encrypted onion routing packet, opaque to
	// the channel state machine.
	OnionBlob [lnwire.OnionBlobSize]byte
}

// DirectedHtlc pairs an InternalHTLC with the direction it flows, as stored
// within a CommitmentSpec.
type DirectedHtlc struct {
	InternalHTLC

	Direction HTLCDirection
}

// updateType identifies the kind of change carried by a logEntry.
type updateType uint8

const (
	// updateAdd proposes a new HTLC.
	updateAdd updateType = iota

	// updateFulfill settles a previously added HTLC with its preimage.
	updateFulfill

	// updateFail cancels a previously added HTLC with an opaque reason.
	updateFail

	// updateFailMalformed cancels a previously added HTLC whose onion
	// failed to decode, carrying a failure code and the onion's sha256
	// instead of an opaque encrypted reason.
	updateFailMalformed
)

func (u updateType) String() string {
	switch u {
	case updateAdd:
		return "Add"
	case updateFulfill:
		return "Fulfill"
	case updateFail:
		return "Fail"
	case updateFailMalformed:
		return "FailMalformed"
	default:
		return "<unknown update type>"
	}
}

// logEntry is one entry in a party's change log: either a new HTLC, or a
// resolution (fulfill/fail/fail-malformed) of one the counterparty added.
type logEntry struct {
	UpdateType updateType

	// HTLCID identifies the add this entry concerns: its own ID for an
	// Add entry, or the ID of the HTLC being resolved otherwise.
	HTLCID uint64

	// Htlc holds the full HTLC payload; only populated for Add entries.
	Htlc *InternalHTLC

	// Preimage holds the fulfillment preimage; only populated for
	// Fulfill entries.
	Preimage [32]byte

	// FailReason holds the opaque encrypted failure message; only
	// populated for Fail entries.
	FailReason []byte

	// FailCode and ShaOnionBlob are only populated for FailMalformed
	// entries.
	FailCode     uint16
	ShaOnionBlob [32]byte
}

// changeLog is the three-stage proposed/signed/acked update log BOLT-2's
// two-phase commit dance requires for one side of a channel.
type changeLog struct {
	Proposed []logEntry
	Signed   []logEntry
	Acked    []logEntry
}

func (c changeLog) clone() changeLog {
	return changeLog{
		Proposed: append([]logEntry(nil), c.Proposed...),
		Signed:   append([]logEntry(nil), c.Signed...),
		Acked:    append([]logEntry(nil), c.Acked...),
	}
}

// hasUnsignedChanges reports whether any entries remain in Proposed.
func (c changeLog) hasUnsignedChanges() bool {
	return len(c.Proposed) > 0
}
