package peer

import (
	"sync"
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/lightningnetwork/lnchannel/chainntfs"
	"github.com/lightningnetwork/lnchannel/lnwallet"
	"github.com/lightningnetwork/lnchannel/lnwire"
	"github.com/stretchr/testify/require"
)

// recordingSender captures every message handed to it, in order.
type recordingSender struct {
	mu   sync.Mutex
	sent []lnwire.Message
}

func (r *recordingSender) SendMessage(msg lnwire.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, msg)
	return nil
}

func (r *recordingSender) messages() []lnwire.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]lnwire.Message, len(r.sent))
	copy(out, r.sent)
	return out
}

// recordingPublisher captures every transaction broadcast.
type recordingPublisher struct {
	mu        sync.Mutex
	published []*wire.MsgTx
}

func (p *recordingPublisher) PublishTransaction(tx *wire.MsgTx) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, tx)
	return nil
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.published)
}

func (p *recordingPublisher) first() *wire.MsgTx {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.published[0]
}

// recordingStore captures every PutState call, letting a test assert it was
// reached before a later, irreversible action such as PublishTx.
type recordingStore struct {
	mu        sync.Mutex
	storeCalls int
	htlcCalls  int
}

func (s *recordingStore) PutState(lnwire.ChannelID, State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.storeCalls++
	return nil
}

func (s *recordingStore) PutHtlcInfos(lnwire.ChannelID, []lnwallet.DirectedHtlc) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.htlcCalls++
	return nil
}

func (s *recordingStore) counts() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.storeCalls, s.htlcCalls
}

type recordingErrorReporter struct {
	mu   sync.Mutex
	errs []error
}

func (r *recordingErrorReporter) ReportError(_ lnwire.ChannelID, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
}

func (r *recordingErrorReporter) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.errs)
}

type noopForwarder struct{}

func (noopForwarder) ForwardAdd(lnwire.ChannelID, uint64)               {}
func (noopForwarder) ForwardFulfill(lnwire.ChannelID, uint64, [32]byte) {}
func (noopForwarder) ForwardFail(lnwire.ChannelID, uint64, []byte)      {}

// stubWallet returns a canned FundingTxResult whose output pays pkScript, so
// the driver's MakeFundingTx dispatch has something real to report back.
type stubWallet struct {
	amount btcutil.Amount
}

func (w *stubWallet) MakeFundingTx(pkScript []byte, amount btcutil.Amount,
	_ btcutil.Amount) (*lnwallet.FundingTxResult, error) {

	tx := &wire.MsgTx{
		TxOut: []*wire.TxOut{{Value: int64(amount), PkScript: pkScript}},
	}
	return &lnwallet.FundingTxResult{Tx: tx, OutputIndex: 0, Fee: 250}, nil
}

var _ lnwallet.Wallet = (*stubWallet)(nil)

// stubWatcher returns a pre-buffered ConfirmationEvent/SpendEvent every call,
// so a test can fire it on demand without racing the driver's own goroutine.
type stubWatcher struct {
	mu          sync.Mutex
	confirmedCh chan *chainntfs.WatchEventConfirmed
	spentCh     chan *chainntfs.WatchEventSpent
}

func newStubWatcher() *stubWatcher {
	return &stubWatcher{
		confirmedCh: make(chan *chainntfs.WatchEventConfirmed, 1),
		spentCh:     make(chan *chainntfs.WatchEventSpent, 1),
	}
}

func (w *stubWatcher) WatchConfirmed(_ *chainhash.Hash, _ []byte,
	_, _ uint32) (*chainntfs.ConfirmationEvent, error) {

	return &chainntfs.ConfirmationEvent{
		Confirmed:    w.confirmedCh,
		NegativeConf: make(chan int32, 1),
	}, nil
}

func (w *stubWatcher) WatchSpent(_ *wire.OutPoint, _ []byte,
	_ uint32) (*chainntfs.SpendEvent, error) {

	return &chainntfs.SpendEvent{Spend: w.spentCh}, nil
}

func (w *stubWatcher) WatchLost(*chainhash.Hash) error { return nil }
func (w *stubWatcher) Start() error                    { return nil }
func (w *stubWatcher) Stop() error                     { return nil }

var _ chainntfs.Watcher = (*stubWatcher)(nil)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition never became true")
}

// TestDriverFundingFlowReachesNormal drives a funder's Driver through the
// entire open sequence with an already-accepted channel, confirming the
// watcher notification is consumed and fed back as an event rather than
// discarded, and that StoreState always precedes PublishTx.
func TestDriverFundingFlowReachesNormal(t *testing.T) {
	km := newMockKeyManager(1)
	sender := &recordingSender{}
	publisher := &recordingPublisher{}
	store := &recordingStore{}
	errs := &recordingErrorReporter{}
	watcher := newStubWatcher()
	wallet := &stubWallet{}

	staticParams := testStaticParams(3)
	initial := State(WaitForInit{Base: Base{StaticParams: staticParams}})

	clock := time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC)
	d := NewDriver(initial, km, wallet, publisher, watcher, sender, store, errs,
		noopForwarder{}, func() time.Time { return clock }, true)
	d.Start()
	defer d.Stop()

	var tmpID lnwire.ChannelID
	tmpID[31] = 0x07

	d.Submit(InitFunder{
		TemporaryChannelID: tmpID,
		FundingAmount:       1_000_000,
		PushAmount:          0,
		FeeratePerKw:        2500,
		LocalParams:         testLocalParams(),
		RemoteInit:          &lnwire.Init{Features: lnwire.NewFeatureVector(nil)},
	})

	waitFor(t, func() bool { return len(sender.messages()) >= 1 })
	_, ok := sender.messages()[0].(*lnwire.OpenChannel)
	require.True(t, ok)

	accepteeKM := newMockKeyManager(2)
	fundeeState := State(WaitForOpenChannel{
		Base:        Base{StaticParams: testStaticParams(3)},
		LocalParams: testLocalParams(),
		RemoteInit:  &lnwire.Init{Features: lnwire.NewFeatureVector(nil)},
	})
	fundeeState, _ = Process(accepteeKM, clock, fundeeState, MessageReceived{
		Msg: sender.messages()[0],
	})
	acceptMsg := fundeeState.(WaitForFundingCreated).LastSent

	d.Submit(MessageReceived{Msg: acceptMsg})

	waitFor(t, func() bool { return len(sender.messages()) >= 2 })
	fundingCreatedMsg, ok := sender.messages()[1].(*lnwire.FundingCreated)
	require.True(t, ok)

	fundeeState, _ = Process(accepteeKM, clock, fundeeState, MessageReceived{Msg: fundingCreatedMsg})
	fundingSignedMsg := fundeeState.(WaitForFundingConfirmed).LastSent.fundingSigned
	require.NotNil(t, fundingSignedMsg)

	d.Submit(MessageReceived{Msg: fundingSignedMsg})

	waitFor(t, func() bool { return publisher.count() >= 1 })

	storeCalls, _ := store.counts()
	require.GreaterOrEqual(t, storeCalls, 1)
	require.Equal(t, 0, errs.count())

	confirmed := &chainntfs.WatchEventConfirmed{
		Tx:          publisher.first(),
		BlockHeight: 600_000,
		TxIndex:     0,
	}
	watcher.confirmedCh <- confirmed

	waitFor(t, func() bool { return len(sender.messages()) >= 3 })
	_, ok = sender.messages()[2].(*lnwire.FundingLocked)
	require.True(t, ok)

	fundeePoint, err := accepteeKM.CommitmentPoint(nil, 1)
	require.NoError(t, err)
	chanID := lnwire.NewChanIDFromOutPoint(&fundingCreatedMsg.FundingPoint)
	d.Submit(MessageReceived{Msg: lnwire.NewFundingLocked(chanID, fundeePoint)})
	waitFor(t, func() bool {
		_, ok := d.State().(Normal)
		return ok
	})

	snap, ok := d.Snapshot()
	require.True(t, ok)
	require.Equal(t, btcutil.Amount(1_000_000), snap.Capacity)
}

// TestDriverReportsWalletError covers the MakeFundingTx failure path: the
// error reaches the ErrorReporter rather than being resubmitted as a bogus
// command.
func TestDriverReportsWalletError(t *testing.T) {
	km := newMockKeyManager(1)
	sender := &recordingSender{}
	publisher := &recordingPublisher{}
	store := &recordingStore{}
	errs := &recordingErrorReporter{}
	watcher := newStubWatcher()
	wallet := &failingWallet{}

	initial := State(WaitForFundingInternal{
		Base:          Base{StaticParams: testStaticParams(3)},
		LocalParams:   testLocalParams(),
		RemoteParams:  &lnwallet.RemoteParams{},
		FundingAmount: 1_000_000,
		FeeratePerKw:  2500,
		MinDepth:      3,
		LastSent:      &lnwire.OpenChannel{},
	})

	d := NewDriver(initial, km, wallet, publisher, watcher, sender, store, errs,
		noopForwarder{}, nil, false)
	d.Start()
	defer d.Stop()

	d.dispatch([]Action{MakeFundingTx{PkScript: []byte{0}, Amount: 1_000_000, FeeratePerKw: 2500}})

	waitFor(t, func() bool { return errs.count() >= 1 })
}

type failingWallet struct{}

func (failingWallet) MakeFundingTx(_ []byte, _ btcutil.Amount,
	_ btcutil.Amount) (*lnwallet.FundingTxResult, error) {

	return nil, errTestWallet
}

var errTestWallet = &walletError{"wallet unavailable"}

type walletError struct{ msg string }

func (e *walletError) Error() string { return e.msg }

var _ lnwallet.Wallet = (*failingWallet)(nil)
