package lnwallet

import "fmt"

var (
	// ErrNoWindow is returned when the revocation window is exhausted: the
	// local party wants to sign a new commitment before the remote party
	// has revoked its prior one.
	ErrNoWindow = fmt.Errorf("unable to sign new commitment, the current" +
		" revocation window is exhausted")

	// ErrMaxWeightCost is returned when a commitment transaction would
	// exceed the widely used maximum allowed policy weight limit.
	ErrMaxWeightCost = fmt.Errorf("commitment transaction exceeds max " +
		"available cost")

	// ErrMaxHTLCNumber is returned when a proposed HTLC would exceed the
	// maximum number of allowed HTLCs in a single commitment.
	ErrMaxHTLCNumber = fmt.Errorf("commitment transaction exceeds max " +
		"htlc number")

	// ErrInsufficientBalance is returned when a proposed HTLC would
	// exceed the available balance of the proposing side.
	ErrInsufficientBalance = fmt.Errorf("insufficient balance to add htlc")

	// ErrInvalidHTLCAmt is returned when a proposed HTLC's amount falls
	// outside the bounds the channel enforces.
	ErrInvalidHTLCAmt = fmt.Errorf("htlc amount is outside the channel's " +
		"allowed bounds")

	// ErrHTLCIDMismatch is returned when a received HTLC update message's
	// id does not match the expected next id from that party.
	ErrHTLCIDMismatch = fmt.Errorf("received htlc with unexpected id")

	// ErrUnknownHTLCIndex is returned when an HTLC update message
	// references an id no longer present in the appropriate log.
	ErrUnknownHTLCIndex = fmt.Errorf("unknown htlc index")

	// ErrInvalidPreimage is returned when a claimed preimage does not
	// hash to the HTLC's payment hash.
	ErrInvalidPreimage = fmt.Errorf("payment preimage does not match " +
		"payment hash")

	// ErrNoUnsignedChanges is returned when sendCommit is invoked but
	// there are no outstanding local changes, nor any acked remote
	// changes still unresolved, to sign.
	ErrNoUnsignedChanges = fmt.Errorf("no unsigned changes to commit")

	// ErrInvalidCommitSig is returned when the remote party's signature
	// on a new commitment transaction fails to verify.
	ErrInvalidCommitSig = fmt.Errorf("invalid commitment signature")

	// ErrInvalidRevocation is returned when a revealed per-commitment
	// secret fails to hash to the previously-sent per-commitment point.
	ErrInvalidRevocation = fmt.Errorf("invalid revocation secret")
)
