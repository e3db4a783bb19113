// Package chainntfs defines the Watcher collaborator: the driver's window
// onto the chain. The state machine never inspects blocks itself — it
// issues WatchSpent/WatchConfirmed/WatchLost requests and waits for the
// corresponding WatchEventConfirmed/WatchEventSpent notifications to arrive
// as ordinary events, the same way it waits on wire messages.
package chainntfs

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// Watcher is a trusted source of notifications about targeted events on the
// chain. The interface is intentionally general so it can be backed by
// btcd's websocket notifications, Bitcoin Core's ZeroMQ notifications, an
// Electrum server, or any other chain backend.
//
// Concrete implementations must support multiple concurrent outstanding
// requests, since a single channel can have a funding confirmation watch
// and a spend watch outstanding at once, across many channels.
type Watcher interface {
	// WatchConfirmed registers an intent to be notified once txid
	// reaches numConfs confirmations. The returned ConfirmationEvent
	// fires once that depth is reached, or if the watched transaction is
	// reorged back out of the best chain.
	WatchConfirmed(txid *chainhash.Hash, pkScript []byte,
		numConfs, heightHint uint32) (*ConfirmationEvent, error)

	// WatchSpent registers an intent to be notified once outpoint is
	// spent by a transaction confirmed on the best chain. The returned
	// SpendEvent fires once a spending transaction is seen, even before
	// it has any confirmations of its own.
	WatchSpent(outpoint *wire.OutPoint, pkScript []byte,
		heightHint uint32) (*SpendEvent, error)

	// WatchLost cancels a previously registered confirmation or spend
	// watch; used once a channel has advanced past the point where the
	// notification is still needed (e.g. after FundingLocked is
	// exchanged the funding confirmation watch is replaced by a
	// deeper one for announcement purposes).
	WatchLost(txid *chainhash.Hash) error

	// Start brings up the watcher. Once started it is ready to accept
	// registrations from clients.
	Start() error

	// Stop tears down the watcher. Every outstanding event's channel is
	// closed, waking any driver blocked on one.
	Stop() error
}

// ConfirmationEvent is delivered once a watched transaction reaches its
// target depth, or is reorged out before it does.
//
// Confirmed fires with the block height the confirmation was observed at.
// NegativeConf fires with the depth of the reorg if the transaction is
// ever disconnected from the best chain after being reported confirmed.
type ConfirmationEvent struct {
	Confirmed chan *WatchEventConfirmed // MUST be buffered.

	NegativeConf chan int32 // MUST be buffered.
}

// SpendDetail carries everything the driver needs to act on a spend: which
// outpoint was spent, by which transaction, at which input, and at what
// height the spending transaction was confirmed.
type SpendDetail struct {
	SpentOutPoint     *wire.OutPoint
	SpenderTxHash     *chainhash.Hash
	SpendingTx        *wire.MsgTx
	SpenderInputIndex uint32
	SpendingHeight    int32
}

// SpendEvent fires once with a WatchEventSpent once the registered outpoint
// is spent on the best chain.
type SpendEvent struct {
	Spend chan *WatchEventSpent // MUST be buffered.
}

// WatchEventConfirmed is the notification payload spec.md's transition
// table calls WatchReceived(Confirmed): the watched transaction, the block
// it confirmed in, and its index within that block.
type WatchEventConfirmed struct {
	Tx          *wire.MsgTx
	BlockHeight uint32
	TxIndex     uint32
}

// WatchEventSpent is the notification payload for a spend of a watched
// outpoint: the spending transaction itself.
type WatchEventSpent struct {
	SpendingTx *wire.MsgTx
	Detail     *SpendDetail
}
