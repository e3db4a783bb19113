package peer

import (
	"sync"
	"time"

	"github.com/btcsuite/btcd/wire"
	"github.com/davecgh/go-spew/spew"
	"github.com/go-errors/errors"
	"github.com/lightningnetwork/lnchannel/chainntfs"
	"github.com/lightningnetwork/lnchannel/lnwallet"
	"github.com/lightningnetwork/lnchannel/lnwire"
)

// MessageSender delivers a wire message to the remote peer. The Driver
// never retries a failed send; that's left to the transport.
type MessageSender interface {
	SendMessage(msg lnwire.Message) error
}

// Publisher broadcasts a transaction to the network.
type Publisher interface {
	PublishTransaction(tx *wire.MsgTx) error
}

// StateStore persists a channel's current State, keyed by its channel id,
// and the HTLC set riding on a freshly signed commitment.
type StateStore interface {
	PutState(id lnwire.ChannelID, state State) error
	PutHtlcInfos(id lnwire.ChannelID, htlcs []lnwallet.DirectedHtlc) error
}

// ErrorReporter is told about protocol or cryptographic failures a
// transition surfaced via HandleError.
type ErrorReporter interface {
	ReportError(id lnwire.ChannelID, err error)
}

// Forwarder receives the HTLC changes that became irrevocable after a
// RevokeAndAck: remote changes and our own signed fulfills and fails. A
// leaf endpoint's implementation can simply log and
// discard them; a forwarding hop would route them onward.
type Forwarder interface {
	ForwardAdd(id lnwire.ChannelID, htlcID uint64)
	ForwardFulfill(id lnwire.ChannelID, htlcID uint64, preimage [32]byte)
	ForwardFail(id lnwire.ChannelID, htlcID uint64, reason []byte)
}

// Driver owns one channel's state and pumps Events into Process, dispatching
// the actions it returns to the collaborators above. It is the only part of
// this package that performs I/O; Process itself stays pure.
type Driver struct {
	mu sync.Mutex

	id    lnwire.ChannelID
	state State

	km        lnwallet.KeyManager
	wallet    lnwallet.Wallet
	publisher Publisher
	watcher   chainntfs.Watcher
	sender    MessageSender
	store     StateStore
	errs      ErrorReporter
	forward   Forwarder
	now       func() time.Time

	// isRegtestChain lets WatchReceivedConfirmed's funding-verification
	// guard apply the spec's testing concession without the transition
	// function needing a chain-params collaborator of its own.
	isRegtestChain bool

	events chan Event
	quit   chan struct{}
	wg     sync.WaitGroup
}

// NewDriver constructs a Driver for a channel already in initial, holding
// collaborators it will dispatch actions to. now defaults to time.Now when
// nil; tests substitute a deterministic clock.
func NewDriver(initial State, km lnwallet.KeyManager, wallet lnwallet.Wallet,
	publisher Publisher, watcher chainntfs.Watcher, sender MessageSender,
	store StateStore, errs ErrorReporter, forward Forwarder,
	now func() time.Time, isRegtestChain bool) *Driver {

	if now == nil {
		now = time.Now
	}
	return &Driver{
		state:          initial,
		km:             km,
		wallet:         wallet,
		publisher:      publisher,
		watcher:        watcher,
		sender:         sender,
		store:          store,
		errs:           errs,
		forward:        forward,
		now:            now,
		isRegtestChain: isRegtestChain,
		events:         make(chan Event, 64),
		quit:           make(chan struct{}),
	}
}

// waitForConfirmation blocks until ev fires, then submits the notification
// as an ordinary event. Runs in its own goroutine so the dispatch loop is
// never blocked waiting on the chain.
func (d *Driver) waitForConfirmation(ev *chainntfs.ConfirmationEvent) {
	select {
	case confirmed, ok := <-ev.Confirmed:
		if !ok {
			return
		}
		d.Submit(WatchReceivedConfirmed{
			Confirmed:      confirmed,
			IsRegtestChain: d.isRegtestChain,
		})

	case <-d.quit:
	}
}

// waitForSpend blocks until ev fires, then submits the notification as an
// ordinary event.
func (d *Driver) waitForSpend(ev *chainntfs.SpendEvent) {
	select {
	case spent, ok := <-ev.Spend:
		if !ok {
			return
		}
		d.Submit(WatchReceivedSpent{Spent: spent})

	case <-d.quit:
	}
}

// Start launches the Driver's event loop.
func (d *Driver) Start() {
	d.wg.Add(1)
	go d.run()
}

// Stop shuts the event loop down and waits for it to exit.
func (d *Driver) Stop() {
	close(d.quit)
	d.wg.Wait()
}

// Submit enqueues an event for the Driver to process. Safe for concurrent
// callers; blocks if the queue is full, applying backpressure rather than
// dropping events.
func (d *Driver) Submit(event Event) {
	select {
	case d.events <- event:
	case <-d.quit:
	}
}

// State returns a snapshot of the channel's current state.
func (d *Driver) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Snapshot returns the channel's current balances and pending HTLC count,
// for a host process reporting channel balances, e.g. over an RPC surface
// this package doesn't itself provide. ok is false before the channel has
// a Commitments to report (still negotiating, or not yet constructed).
func (d *Driver) Snapshot() (snapshot lnwallet.ChannelSnapshot, ok bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var commitments *lnwallet.Commitments
	switch s := d.state.(type) {
	case WaitForFundingConfirmed:
		commitments = s.Commitments
	case WaitForFundingLocked:
		commitments = s.Commitments
	case Normal:
		commitments = s.Commitments
	}
	if commitments == nil {
		return lnwallet.ChannelSnapshot{}, false
	}
	return commitments.Snapshot(), true
}

func (d *Driver) run() {
	defer d.wg.Done()

	for {
		select {
		case event := <-d.events:
			d.step(event)

		case <-d.quit:
			return
		}
	}
}

// step applies one event and dispatches the resulting actions in order,
// re-entering the transition function for any ProcessCommand action it
// sees along the way.
func (d *Driver) step(event Event) {
	d.mu.Lock()
	state, actions := Process(d.km, d.now(), d.state, event)
	d.state = state
	d.mu.Unlock()

	d.dispatch(actions)
}

// dispatch carries out actions in the order the transition function
// returned them, without reordering. The transition function places
// StoreState ahead of publishing the funding transaction and ahead of
// sending CommitSig or RevokeAndAck. Other messages can go out before the
// StoreState that follows them; the fundee sends FundingSigned first.
func (d *Driver) dispatch(actions []Action) {
	for _, action := range actions {
		switch a := action.(type) {
		case SendMessage:
			if err := d.sender.SendMessage(a.Msg); err != nil {
				log.Errorf("ChannelID(%v): failed sending %T: %v", d.id, a.Msg, err)
			}

		case MakeFundingTx:
			go func(a MakeFundingTx) {
				result, err := d.wallet.MakeFundingTx(a.PkScript, a.Amount, a.FeeratePerKw)
				if err != nil {
					wrapped := errors.Wrap(err, 1)
					log.Errorf("ChannelID(%v): funding tx construction failed: %v",
						d.id, wrapped.ErrorStack())
					d.errs.ReportError(d.id, wrapped)
					return
				}
				d.Submit(MakeFundingTxResponse{Result: result})
			}(a)

		case SendWatchSpent:
			outpoint := a.Outpoint
			spendEvent, err := d.watcher.WatchSpent(&outpoint, a.PkScript, a.HeightHint)
			if err != nil {
				log.Errorf("ChannelID(%v): WatchSpent failed: %v", d.id, err)
				continue
			}
			go d.waitForSpend(spendEvent)

		case SendWatchConfirmed:
			txid := a.Txid
			confEvent, err := d.watcher.WatchConfirmed(&txid, a.PkScript, a.NumConfs, a.HeightHint)
			if err != nil {
				log.Errorf("ChannelID(%v): WatchConfirmed failed: %v", d.id, err)
				continue
			}
			go d.waitForConfirmation(confEvent)

		case SendWatchLost:
			txid := a.Txid
			if err := d.watcher.WatchLost(&txid); err != nil {
				log.Errorf("ChannelID(%v): WatchLost failed: %v", d.id, err)
			}

		case ChannelIDAssigned:
			d.id = a.ChannelID

		case ChannelIDSwitch:
			d.id = a.NewChannelID

		case StoreState:
			if err := d.store.PutState(d.id, d.State()); err != nil {
				log.Errorf("ChannelID(%v): failed persisting state: %v", d.id, err)
			}

		case StoreHtlcInfos:
			if err := d.store.PutHtlcInfos(d.id, a.Htlcs); err != nil {
				log.Errorf("ChannelID(%v): failed persisting htlc infos: %v", d.id, err)
			}

		case PublishTx:
			if err := d.publisher.PublishTransaction(a.Tx); err != nil {
				log.Errorf("ChannelID(%v): failed publishing funding tx: %v", d.id, err)
			}

		case ProcessCommand:
			d.step(ExecuteCommand{Cmd: a.Cmd})

		case ProcessAdd:
			d.forward.ForwardAdd(d.id, a.HTLCID)

		case ProcessFulfill:
			d.forward.ForwardFulfill(d.id, a.HTLCID, a.Preimage)

		case ProcessFail:
			d.forward.ForwardFail(d.id, a.HTLCID, a.Reason)

		case HandleError:
			d.errs.ReportError(d.id, a.Err)

		default:
			log.Warnf("ChannelID(%v): unhandled action:\n%s", d.id, spew.Sdump(action))
		}
	}
}
