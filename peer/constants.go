package peer

import "time"

// BOLT-2 constants governing channel-open parameter validation and
// confirmation depth.
const (
	// AnnouncementsMinConf is the confirmation depth at which a channel
	// becomes eligible for public announcement.
	AnnouncementsMinConf = 6

	// MaxAcceptedHTLCs is the largest value either side may request for
	// the number of HTLCs it will accept outstanding at once.
	MaxAcceptedHTLCs = 483

	// MinDustLimit is the smallest dust limit either side may propose.
	MinDustLimit = 546

	// MaxToSelfDelay is the largest to-self CSV delay either side may
	// require of the other.
	MaxToSelfDelay = 2016

	// FundingTimeoutFundee is how long a fundee waits for the funding
	// transaction to confirm before abandoning a channel negotiation.
	FundingTimeoutFundee = 5 * 24 * time.Hour
)
