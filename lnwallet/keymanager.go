package lnwallet

import (
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"
)

// KeyManager is the collaborator the core consults for every per-channel
// key and signature it needs. It is never implemented by this package;
// concrete implementations derive keys from a wallet seed and sign with
// keys that never leave it.
type KeyManager interface {
	// FundingPublicKey returns the 2-of-2 multisig basepoint at keyPath.
	FundingPublicKey(keyPath []uint32) (*btcec.PublicKey, error)

	// ChannelKeyPath derives the key-derivation path to use for a new
	// channel negotiated with the given local parameters and channel
	// version.
	ChannelKeyPath(localParams *LocalParams, version ChannelVersion) []uint32

	// PaymentPoint returns the basepoint used to derive the per-commitment
	// key paying the counterparty.
	PaymentPoint(keyPath []uint32) (*btcec.PublicKey, error)

	// DelayedPaymentPoint returns the basepoint used to derive this
	// side's own delayed (to-self) output key.
	DelayedPaymentPoint(keyPath []uint32) (*btcec.PublicKey, error)

	// HtlcPoint returns the basepoint used to derive per-commitment HTLC
	// keys.
	HtlcPoint(keyPath []uint32) (*btcec.PublicKey, error)

	// RevocationPoint returns the basepoint the counterparty combines
	// with our revealed per-commitment secrets to derive a revocation
	// key for our old commitments.
	RevocationPoint(keyPath []uint32) (*btcec.PublicKey, error)

	// CommitmentPoint derives the per-commitment point at the given
	// index for the channel at keyPath.
	CommitmentPoint(keyPath []uint32, index uint64) (*btcec.PublicKey, error)

	// CommitmentSecret derives the per-commitment secret at the given
	// index; revealing it is what revokes that commitment.
	CommitmentSecret(keyPath []uint32, index uint64) ([32]byte, error)

	// Sign produces a signature for input 0 of tx, which spends an output
	// of amount satoshis locked by witnessScript, using the private key
	// underlying fundingPubKey.
	Sign(tx *wire.MsgTx, amount btcutil.Amount, witnessScript []byte,
		fundingPubKey *btcec.PublicKey) ([]byte, error)
}

// Wallet is the collaborator responsible for constructing the funding
// transaction; the core only ever requests one be built and waits for the
// response as a regular event.
type Wallet interface {
	// MakeFundingTx constructs (but does not broadcast) a transaction
	// paying amount to pkScript at feeratePerKw.
	MakeFundingTx(pkScript []byte, amount btcutil.Amount,
		feeratePerKw btcutil.Amount) (*FundingTxResult, error)
}

// FundingTxResult is the outcome of a successful MakeFundingTx call.
type FundingTxResult struct {
	Tx          *wire.MsgTx
	OutputIndex uint32
	Fee         btcutil.Amount
}
