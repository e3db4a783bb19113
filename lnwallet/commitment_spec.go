package lnwallet

import (
	"github.com/btcsuite/btcd/btcutil"
	"github.com/lightningnetwork/lnchannel/lnwire"
)

// htlcTimeoutFee returns the fee, in satoshis, required for an HTLC timeout
// second-level transaction at the given feerate.
func htlcTimeoutFee(feePerKw btcutil.Amount) btcutil.Amount {
	return (feePerKw * HtlcTimeoutWeight) / 1000
}

// htlcSuccessFee returns the fee, in satoshis, required for an HTLC success
// second-level transaction at the given feerate.
func htlcSuccessFee(feePerKw btcutil.Amount) btcutil.Amount {
	return (feePerKw * HtlcSuccessWeight) / 1000
}

// htlcIsDust determines whether an HTLC output would be trimmed from a
// commitment transaction: its value, net of the second-level transaction fee
// it would require, falls below the relevant party's dust limit. Incoming
// vs. outgoing, and which side's commitment it sits on, determine whether a
// timeout or a success transaction applies.
func htlcIsDust(incoming, ourCommit bool, feePerKw, htlcAmt,
	dustLimit btcutil.Amount) bool {

	var htlcFee btcutil.Amount
	switch {
	case incoming && ourCommit:
		htlcFee = htlcSuccessFee(feePerKw)
	case incoming && !ourCommit:
		htlcFee = htlcTimeoutFee(feePerKw)
	case !incoming && ourCommit:
		htlcFee = htlcTimeoutFee(feePerKw)
	case !incoming && !ourCommit:
		htlcFee = htlcSuccessFee(feePerKw)
	}

	return (htlcAmt - htlcFee) < dustLimit
}

// htlcKey uniquely identifies an HTLC within a CommitmentSpec: direction
// matters because the two sides maintain independent id counters.
type htlcKey struct {
	Direction HTLCDirection
	ID        uint64
}

// CommitmentSpec is the full picture of one commitment transaction's
// economic content: the pending HTLCs it carries, at what feerate, and each
// side's settled balance.
type CommitmentSpec struct {
	Htlcs map[htlcKey]DirectedHtlc

	FeeratePerKw btcutil.Amount

	ToLocalMsat  lnwire.MilliSatoshi
	ToRemoteMsat lnwire.MilliSatoshi
}

// NewCommitmentSpec returns an empty spec with the given opening balances.
func NewCommitmentSpec(feeratePerKw btcutil.Amount, toLocal,
	toRemote lnwire.MilliSatoshi) *CommitmentSpec {

	return &CommitmentSpec{
		Htlcs:        make(map[htlcKey]DirectedHtlc),
		FeeratePerKw: feeratePerKw,
		ToLocalMsat:  toLocal,
		ToRemoteMsat: toRemote,
	}
}

// clone returns a deep-enough copy of the spec: the Htlcs map is copied so
// callers can mutate the result without affecting the original.
func (s *CommitmentSpec) clone() *CommitmentSpec {
	htlcs := make(map[htlcKey]DirectedHtlc, len(s.Htlcs))
	for k, v := range s.Htlcs {
		htlcs[k] = v
	}
	return &CommitmentSpec{
		Htlcs:        htlcs,
		FeeratePerKw: s.FeeratePerKw,
		ToLocalMsat:  s.ToLocalMsat,
		ToRemoteMsat: s.ToRemoteMsat,
	}
}

// addHtlc returns a copy of the spec with htlc added.
func (s *CommitmentSpec) addHtlc(direction HTLCDirection, htlc InternalHTLC) *CommitmentSpec {
	next := s.clone()
	next.Htlcs[htlcKey{direction, htlc.ID}] = DirectedHtlc{
		InternalHTLC: htlc,
		Direction:    direction,
	}
	return next
}

// removeHtlc returns a copy of the spec with the given HTLC removed and its
// value credited according to who is settling or failing it: a fulfilled
// HTLC credits the receiver, a failed one returns to the sender.
func (s *CommitmentSpec) removeHtlc(direction HTLCDirection, id uint64,
	fulfilled bool) (*CommitmentSpec, InternalHTLC, bool) {

	key := htlcKey{direction, id}
	htlc, ok := s.Htlcs[key]
	if !ok {
		return s, InternalHTLC{}, false
	}

	next := s.clone()
	delete(next.Htlcs, key)

	switch {
	case direction == Outgoing && fulfilled:
		next.ToRemoteMsat += htlc.Amount
	case direction == Outgoing && !fulfilled:
		next.ToLocalMsat += htlc.Amount
	case direction == Incoming && fulfilled:
		next.ToLocalMsat += htlc.Amount
	case direction == Incoming && !fulfilled:
		next.ToRemoteMsat += htlc.Amount
	}

	return next, htlc.InternalHTLC, true
}

// totalFunds returns the conserved total of the spec: to-local, to-remote,
// and every pending HTLC's amount. It must stay constant across a valid
// transition, net of fees charged against the funder's balance.
func (s *CommitmentSpec) totalFunds() lnwire.MilliSatoshi {
	total := s.ToLocalMsat + s.ToRemoteMsat
	for _, htlc := range s.Htlcs {
		total += htlc.Amount
	}
	return total
}

// nonDustHtlcs returns the HTLCs in the spec that would not be trimmed as
// dust from the commitment transaction identified by ourCommit, at the
// given dust limit.
func (s *CommitmentSpec) nonDustHtlcs(ourCommit bool,
	dustLimit btcutil.Amount) []DirectedHtlc {

	var kept []DirectedHtlc
	for _, htlc := range s.Htlcs {
		incoming := htlc.Direction == Incoming
		amt := htlc.Amount.ToSatoshis()
		if htlcIsDust(incoming, ourCommit, s.FeeratePerKw, amt, dustLimit) {
			continue
		}
		kept = append(kept, htlc)
	}
	return kept
}
