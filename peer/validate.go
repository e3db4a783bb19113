package peer

import "github.com/lightningnetwork/lnchannel/lnwallet"

// validateConstraints enforces the local-policy bounds spec.md §7 groups
// under "parameter validation": a peer's proposed dust limit, to-self delay
// and max-accepted-htlcs must all fall within what this node is willing to
// operate a channel under. The proposed channel reserve is not checked.
func validateConstraints(c lnwallet.ChannelConstraints, toSelfDelay uint16) error {
	if c.DustLimit < MinDustLimit {
		return ErrInvalidParameters
	}
	if c.MaxAcceptedHtlcs == 0 || c.MaxAcceptedHtlcs > MaxAcceptedHTLCs {
		return ErrInvalidParameters
	}
	if toSelfDelay > MaxToSelfDelay {
		return ErrInvalidParameters
	}
	return nil
}
