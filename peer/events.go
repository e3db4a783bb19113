package peer

import (
	"github.com/btcsuite/btcd/btcutil"
	"github.com/lightningnetwork/lnchannel/chainntfs"
	"github.com/lightningnetwork/lnchannel/lnwallet"
	"github.com/lightningnetwork/lnchannel/lnwire"
)

// Event is the tagged sum of every input the driver can feed into a
// channel's transition function: peer messages, watch notifications, local
// commands, and funding-tx construction callbacks.
type Event interface {
	isEvent()
}

type eventBase struct{}

func (eventBase) isEvent() {}

// InitFundee kicks off the fundee's side of a new channel negotiation.
type InitFundee struct {
	eventBase

	TemporaryChannelID lnwire.ChannelID
	LocalParams        *lnwallet.LocalParams
	RemoteInit         *lnwire.Init
}

// InitFunder kicks off the funder's side of a new channel negotiation.
type InitFunder struct {
	eventBase

	TemporaryChannelID lnwire.ChannelID
	FundingAmount       btcutil.Amount
	PushAmount          lnwire.MilliSatoshi
	FeeratePerKw        btcutil.Amount
	LocalParams         *lnwallet.LocalParams
	RemoteInit          *lnwire.Init
}

// MessageReceived wraps any wire message received from the peer.
type MessageReceived struct {
	eventBase

	Msg lnwire.Message
}

// MakeFundingTxResponse reports the wallet's response to a previously
// emitted MakeFundingTx action.
type MakeFundingTxResponse struct {
	eventBase

	Result *lnwallet.FundingTxResult
}

// WatchReceivedConfirmed reports that a previously watched transaction
// reached its target confirmation depth.
type WatchReceivedConfirmed struct {
	eventBase

	Confirmed *chainntfs.WatchEventConfirmed

	// IsRegtestChain lets the funding-verification guard apply the
	// spec's testing concession (verification failure ignored on
	// regtest, fatal elsewhere) without the transition function needing
	// a chain-params collaborator of its own.
	IsRegtestChain bool
}

// WatchReceivedSpent reports that a previously watched outpoint was spent.
type WatchReceivedSpent struct {
	eventBase

	Spent *chainntfs.WatchEventSpent
}

// ExecuteCommand wraps a locally originated command (CMD_ADD_HTLC and
// friends).
type ExecuteCommand struct {
	eventBase

	Cmd Command
}
