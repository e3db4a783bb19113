package peer

import "fmt"

var (
	// ErrInvalidParameters is returned when a peer's OpenChannel or
	// AcceptChannel violates local policy (dust limit too low,
	// max-accepted-htlcs out of range, or to-self-delay too long).
	ErrInvalidParameters = fmt.Errorf("channel parameters violate local policy")

	// ErrFundingOutputMismatch is returned when the wallet's funding
	// transaction doesn't pay the expected amount to the expected
	// script.
	ErrFundingOutputMismatch = fmt.Errorf("funding output does not match expected script/amount")

	// ErrFundingVerificationFailed is returned when the confirmed
	// funding transaction doesn't match what was negotiated, on a chain
	// where that's treated as fatal (see WatchReceivedConfirmed.IsRegtestChain).
	ErrFundingVerificationFailed = fmt.Errorf("funding transaction failed verification")
)
