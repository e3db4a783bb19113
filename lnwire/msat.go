package lnwire

import "github.com/btcsuite/btcd/btcutil"

// MilliSatoshi is a sub-satoshi amount, the unit HTLC values and balances
// are expressed in on the wire (1 satoshi == 1000 milli-satoshis).
type MilliSatoshi uint64

// ToSatoshis truncates down to the nearest whole satoshi.
func (m MilliSatoshi) ToSatoshis() btcutil.Amount {
	return btcutil.Amount(m / 1000)
}

// NewMSatFromSatoshis converts a satoshi amount to milli-satoshis.
func NewMSatFromSatoshis(amt btcutil.Amount) MilliSatoshi {
	return MilliSatoshi(amt * 1000)
}
