// Package peer implements the channel state machine: a tagged sum of
// channel states plus the pure transition function (State, Event) ->
// (State, Actions), and the Driver that pumps events into it and dispatches
// its actions to the external collaborators (key manager, watcher, wallet,
// wire transport, storage).
package peer

import (
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/lightningnetwork/lnchannel/lnwallet"
	"github.com/lightningnetwork/lnchannel/lnwire"
)

// Tip identifies the best chain tip a state was last aware of.
type Tip struct {
	Height uint32
	Hash   chainhash.Hash
}

// State is the tagged sum of every channel state this core can be in. Each
// concrete type is one variant; the transition function dispatches on the
// concrete type via a type switch, never via inheritance.
type State interface {
	// Base returns the fields common to every state variant.
	Base() Base
}

// Base carries the fields every state variant shares: the channel's fixed
// parameters and its last known view of the chain tip.
type Base struct {
	StaticParams *lnwallet.StaticChannelParams
	CurrentTip   Tip
}

func (b Base) Base() Base { return b }

// WaitForInit is the entry state: the channel doesn't exist yet, waiting to
// learn whether it's being opened as funder or fundee.
type WaitForInit struct {
	Base
}

// WaitForOpenChannel is the fundee's state after being told a channel is
// incoming, before the peer's OpenChannel has arrived.
type WaitForOpenChannel struct {
	Base

	TemporaryChannelID lnwire.ChannelID
	LocalParams        *lnwallet.LocalParams
	RemoteInit         *lnwire.Init
}

// WaitForAcceptChannel is the funder's state after sending OpenChannel,
// waiting for the fundee's AcceptChannel.
type WaitForAcceptChannel struct {
	Base

	TemporaryChannelID lnwire.ChannelID
	FundingAmount       btcutil.Amount
	PushAmount          lnwire.MilliSatoshi
	FeeratePerKw        btcutil.Amount
	LocalParams         *lnwallet.LocalParams
	RemoteInit          *lnwire.Init

	LastSent *lnwire.OpenChannel
}

// WaitForFundingInternal is the funder's state after receiving a valid
// AcceptChannel, waiting on the wallet to build the funding transaction.
type WaitForFundingInternal struct {
	Base

	TemporaryChannelID lnwire.ChannelID
	LocalParams        *lnwallet.LocalParams
	RemoteParams       *lnwallet.RemoteParams
	FundingAmount      btcutil.Amount
	PushAmount         lnwire.MilliSatoshi
	FeeratePerKw       btcutil.Amount
	RemoteFirstPoint   *btcec.PublicKey
	ChannelVersion     lnwallet.ChannelVersion
	ChannelFlags       byte

	// MinDepth is the confirmation depth the fundee required in its
	// AcceptChannel, binding on both sides per BOLT-2.
	MinDepth uint32

	LastSent *lnwire.OpenChannel
}

// WaitForFundingCreated is the fundee's state after sending AcceptChannel,
// waiting for the funder's FundingCreated.
type WaitForFundingCreated struct {
	Base

	TemporaryChannelID lnwire.ChannelID
	LocalParams        *lnwallet.LocalParams
	RemoteParams       *lnwallet.RemoteParams
	FundingAmount      btcutil.Amount
	PushAmount         lnwire.MilliSatoshi
	FeeratePerKw       btcutil.Amount
	RemoteFirstPoint   *btcec.PublicKey
	ChannelVersion     lnwallet.ChannelVersion
	ChannelFlags       byte

	// MinDepth is the confirmation depth this fundee required in its
	// AcceptChannel; it binds both sides.
	MinDepth uint32

	LastSent *lnwire.AcceptChannel
}

// WaitForFundingSigned is the funder's state after sending FundingCreated,
// waiting for the fundee's FundingSigned.
type WaitForFundingSigned struct {
	Base

	ChannelID      lnwire.ChannelID
	LocalParams    *lnwallet.LocalParams
	RemoteParams   *lnwallet.RemoteParams
	ChannelFlags   byte
	ChannelVersion lnwallet.ChannelVersion

	FundingTx     *wire.MsgTx
	FundingOutput wire.OutPoint
	Fee           btcutil.Amount

	LocalSpec  *lnwallet.CommitmentSpec
	RemoteSpec *lnwallet.CommitmentSpec

	LocalCommitTx    *wire.MsgTx
	RemoteCommitTx   *wire.MsgTx
	RemoteFirstPoint *btcec.PublicKey

	// MinDepth is the confirmation depth the fundee required in its
	// AcceptChannel, binding on both sides per BOLT-2.
	MinDepth uint32

	LastSent *lnwire.FundingCreated
}

// LastSentConfirmPending is the Either(FundingCreated, FundingSigned) the
// funder/fundee last sent before entering WaitForFundingConfirmed, mirroring
// the Either pattern lnwallet.Commitments already uses for a pending commit
// (waiting-for-revocation vs. next-point).
type LastSentConfirmPending struct {
	fundingCreated *lnwire.FundingCreated
	fundingSigned  *lnwire.FundingSigned
}

// LeftFundingCreated builds a LastSentConfirmPending from the funder's last
// sent message.
func LeftFundingCreated(msg *lnwire.FundingCreated) LastSentConfirmPending {
	return LastSentConfirmPending{fundingCreated: msg}
}

// RightFundingSigned builds a LastSentConfirmPending from the fundee's last
// sent message.
func RightFundingSigned(msg *lnwire.FundingSigned) LastSentConfirmPending {
	return LastSentConfirmPending{fundingSigned: msg}
}

// IsFunder reports whether this is the funder's Left(FundingCreated) case.
func (p LastSentConfirmPending) IsFunder() bool {
	return p.fundingCreated != nil
}

// WaitForFundingConfirmed is entered by both sides once they've exchanged
// signatures over each other's initial commitment, waiting for the funding
// transaction to reach its minimum confirmation depth.
type WaitForFundingConfirmed struct {
	Base

	Commitments *lnwallet.Commitments

	// FundingTx is populated only for the funder, who is responsible for
	// broadcasting it.
	FundingTx *wire.MsgTx

	WaitingSince time.Time

	// DeferredFundingLocked holds a FundingLocked received before the
	// funding confirmation watch fires; the transition to
	// WaitForFundingLocked replays it immediately.
	DeferredFundingLocked *lnwire.FundingLocked

	LastSent LastSentConfirmPending
}

// WaitForFundingLocked is entered once the funding transaction is confirmed
// and FundingLocked has been sent, waiting for the peer's own FundingLocked.
type WaitForFundingLocked struct {
	Base

	Commitments    *lnwallet.Commitments
	ShortChannelID uint64

	LastSent *lnwire.FundingLocked
}

// Normal is the channel's steady operating state: both sides' FundingLocked
// exchanged, free to propose and accept HTLC updates.
type Normal struct {
	Base

	Commitments    *lnwallet.Commitments
	ShortChannelID uint64

	// Buried reports whether the funding transaction has reached
	// ANNOUNCEMENTS_MINCONF, the depth at which a channel becomes
	// eligible for public announcement. Announcement production itself
	// is out of scope; this flag exists so the transition table's
	// WatchReceived(Confirmed @ ANNOUNCEMENTS_MINCONF) guard has
	// somewhere to record its result.
	Buried bool

	LocalShutdown  *lnwire.Shutdown
	RemoteShutdown *lnwire.Shutdown
}

var (
	_ State = WaitForInit{}
	_ State = WaitForOpenChannel{}
	_ State = WaitForAcceptChannel{}
	_ State = WaitForFundingInternal{}
	_ State = WaitForFundingCreated{}
	_ State = WaitForFundingSigned{}
	_ State = WaitForFundingConfirmed{}
	_ State = WaitForFundingLocked{}
	_ State = Normal{}
)
