package peer

import (
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/lightningnetwork/lnchannel/lnwallet"
	"github.com/lightningnetwork/lnchannel/lnwire"
)

// Action is the tagged sum of every effect a transition can ask the driver
// to perform. The transition function only ever returns these; it never
// performs I/O itself.
type Action interface {
	isAction()
}

type actionBase struct{}

func (actionBase) isAction() {}

// SendMessage asks the driver to write Msg to the peer.
type SendMessage struct {
	actionBase

	Msg lnwire.Message
}

// MakeFundingTx asks the wallet collaborator to construct (but not
// broadcast) the funding transaction.
type MakeFundingTx struct {
	actionBase

	PkScript     []byte
	Amount       btcutil.Amount
	FeeratePerKw btcutil.Amount
}

// SendWatchSpent asks the watcher collaborator to report if Outpoint is
// ever spent.
type SendWatchSpent struct {
	actionBase

	Outpoint   wire.OutPoint
	PkScript   []byte
	HeightHint uint32
}

// SendWatchConfirmed asks the watcher collaborator to report once Txid
// reaches NumConfs confirmations.
type SendWatchConfirmed struct {
	actionBase

	Txid       chainhash.Hash
	PkScript   []byte
	NumConfs   uint32
	HeightHint uint32
}

// SendWatchLost cancels a previously registered watch.
type SendWatchLost struct {
	actionBase

	Txid chainhash.Hash
}

// ChannelIDAssigned tells the driver the temporary channel id has become
// permanent, so it can update whatever index it keys channels by.
type ChannelIDAssigned struct {
	actionBase

	TemporaryChannelID lnwire.ChannelID
	ChannelID          lnwire.ChannelID
}

// ChannelIDSwitch tells the driver this channel is now addressed by a
// different (permanent) id than the one it most recently used, e.g. once
// the fundee learns the funding outpoint from FundingCreated.
type ChannelIDSwitch struct {
	actionBase

	OldChannelID lnwire.ChannelID
	NewChannelID lnwire.ChannelID
}

// StoreState asks the driver to persist the new state before performing any
// subsequent action in the same batch that is externally observable and
// cannot be rolled back.
type StoreState struct {
	actionBase
}

// StoreHtlcInfos asks the driver to persist the HTLC set carried by the
// commitment just signed, ahead of sending the CommitSig referencing them.
type StoreHtlcInfos struct {
	actionBase

	Htlcs []lnwallet.DirectedHtlc
}

// PublishTx asks the driver's wallet collaborator to broadcast Tx.
type PublishTx struct {
	actionBase

	Tx *wire.MsgTx
}

// ProcessCommand asks the driver to re-enqueue Cmd as a fresh
// ExecuteCommand event, used to retry CMD_SIGN once the commitment window
// reopens, or to chain a sign immediately after an HTLC update.
type ProcessCommand struct {
	actionBase

	Cmd Command
}

// ProcessAdd, ProcessFulfill and ProcessFail surface an HTLC change that has
// become irrevocable after a RevokeAndAck: a remote change, or one of our own
// signed fulfills or fails. A fail-malformed is surfaced as ProcessFail. The
// driver hands each one to its Forwarder; at a leaf endpoint that
// implementation can simply log and discard them.
type ProcessAdd struct {
	actionBase

	HTLCID uint64
}

// ProcessFulfill mirrors ProcessAdd for a fulfilled HTLC.
type ProcessFulfill struct {
	actionBase

	HTLCID   uint64
	Preimage [32]byte
}

// ProcessFail mirrors ProcessAdd for a failed HTLC.
type ProcessFail struct {
	actionBase

	HTLCID uint64
	Reason []byte
}

// HandleError asks the driver to report the protocol or cryptographic
// failure described by Err, e.g. by sending an Error message and tearing
// down the channel; core state is left unchanged by whatever transition
// produced this action.
type HandleError struct {
	actionBase

	Err error
}
