package lnwallet

import (
	"bytes"
	"encoding/gob"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/lightningnetwork/lnchannel/feature"
	"github.com/lightningnetwork/lnchannel/lnwire"
)

// ChannelVersion is a set of bit flags that influence key derivation and
// default behavior for a channel. It's fixed at channel-open time and never
// changes for the life of the channel.
type ChannelVersion uint8

const (
	// StaticRemoteKeyBit indicates the remote party's output on our
	// commitment transaction pays directly to their (unmodified) payment
	// basepoint, instead of one tweaked per commitment.
	StaticRemoteKeyBit ChannelVersion = 1 << 0

	// ZeroReserveBit indicates the channel carries no channel reserve
	// requirement on either side.
	ZeroReserveBit ChannelVersion = 1 << 1
)

// HasStaticRemoteKey reports whether v has the static remote key bit set.
func (v ChannelVersion) HasStaticRemoteKey() bool {
	return v&StaticRemoteKeyBit != 0
}

// HasZeroReserve reports whether v has the zero reserve bit set.
func (v ChannelVersion) HasZeroReserve() bool {
	return v&ZeroReserveBit != 0
}

// DeriveChannelVersion computes the channel version to apply to a channel
// being negotiated between a local and remote feature set: StaticRemoteKey
// is adopted only when both sides advertise it.
func DeriveChannelVersion(local, remote *feature.Set) ChannelVersion {
	var v ChannelVersion
	if feature.CanUseFeature(local, remote, feature.StaticRemoteKey) {
		v |= StaticRemoteKeyBit
	}
	return v
}

// NodeParams holds the node-wide parameters shared by every channel a node
// maintains: its chain, its node identity key, and default policy.
type NodeParams struct {
	// ChainHash identifies the genesis block of the chain this channel
	// operates on.
	ChainHash chainhash.Hash

	// NodeKey is this node's long-term identity private key.
	NodeKey *btcec.PrivateKey

	// MinDepth is the default number of confirmations this node requires
	// before considering a funding transaction locked in, absent a
	// ZeroReserveBit override.
	MinDepth uint32

	// FeeratePerKw is this node's default commitment feerate, expressed
	// per 1000 weight units.
	FeeratePerKw btcutil.Amount
}

// StaticChannelParams are the parameters fixed for the lifetime of a
// channel: the node's own parameters plus the identity of the remote peer.
type StaticChannelParams struct {
	NodeParams

	// RemoteNodeID is the remote peer's long-term identity public key.
	RemoteNodeID *btcec.PublicKey
}

// staticChannelParamsGob mirrors StaticChannelParams with its two raw
// secp256k1 keys carried as serialized bytes, since btcec's key types don't
// expose exported fields for gob's default reflection to walk.
type staticChannelParamsGob struct {
	ChainHash    chainhash.Hash
	NodeKey      []byte
	MinDepth     uint32
	FeeratePerKw btcutil.Amount
	RemoteNodeID []byte
}

// GobEncode implements gob.GobEncoder.
func (p *StaticChannelParams) GobEncode() ([]byte, error) {
	mirror := staticChannelParamsGob{
		ChainHash:    p.ChainHash,
		NodeKey:      encodePrivKey(p.NodeKey),
		MinDepth:     p.MinDepth,
		FeeratePerKw: p.FeeratePerKw,
		RemoteNodeID: encodePubKey(p.RemoteNodeID),
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(mirror); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GobDecode implements gob.GobDecoder.
func (p *StaticChannelParams) GobDecode(data []byte) error {
	var mirror staticChannelParamsGob
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&mirror); err != nil {
		return err
	}

	remoteNodeID, err := decodePubKey(mirror.RemoteNodeID)
	if err != nil {
		return err
	}

	*p = StaticChannelParams{
		NodeParams: NodeParams{
			ChainHash:    mirror.ChainHash,
			NodeKey:      decodePrivKey(mirror.NodeKey),
			MinDepth:     mirror.MinDepth,
			FeeratePerKw: mirror.FeeratePerKw,
		},
		RemoteNodeID: remoteNodeID,
	}
	return nil
}

// ChannelConstraints are the bounds one side of a channel imposes on the
// other's proposed commitment updates.
type ChannelConstraints struct {
	// DustLimit is the output value, in satoshis, below which an HTLC or
	// balance output is trimmed from that side's commitment transaction.
	DustLimit btcutil.Amount

	// ChanReserve is the minimum balance, in satoshis, this side must
	// always keep on its own commitment output.
	ChanReserve btcutil.Amount

	// MaxPendingAmount is the maximum aggregate value, in millisatoshi,
	// this side will allow in outstanding HTLCs at once.
	MaxPendingAmount lnwire.MilliSatoshi

	// MinHTLC is the smallest HTLC amount, in millisatoshi, this side
	// will accept.
	MinHTLC lnwire.MilliSatoshi

	// MaxAcceptedHtlcs is the maximum number of outstanding HTLCs this
	// side will accept at once.
	MaxAcceptedHtlcs uint16

	// CsvDelay is the number of blocks this side's to-self output must
	// mature for before it's spendable, absent a breach.
	CsvDelay uint16
}

// LocalParams are the per-channel parameters this side negotiated at open
// time.
type LocalParams struct {
	ChannelConstraints

	// ChannelKeyPath identifies the key-derivation path the KeyManager
	// uses to derive every per-channel basepoint for this side.
	ChannelKeyPath []uint32

	// RevocationBasepoint, PaymentBasepoint, DelayedPaymentBasepoint and
	// HtlcBasepoint are this side's own per-channel basepoints, derived
	// from the KeyManager at ChannelKeyPath and cached here so commitment
	// construction doesn't need a KeyManager in hand.
	RevocationBasepoint     *btcec.PublicKey
	PaymentBasepoint        *btcec.PublicKey
	DelayedPaymentBasepoint *btcec.PublicKey
	HtlcBasepoint           *btcec.PublicKey

	// ToSelfDelay mirrors CsvDelay; retained under the BOLT-2 field name
	// for parameters that round-trip through OpenChannel/AcceptChannel.
	ToSelfDelay uint16

	// Features is the local feature set advertised for this channel.
	Features *feature.Set
}

// localParamsGob mirrors LocalParams with its four basepoints carried as
// serialized bytes, for the same reason remoteParamsGob does.
type localParamsGob struct {
	ChannelConstraints
	ChannelKeyPath          []uint32
	RevocationBasepoint     []byte
	PaymentBasepoint        []byte
	DelayedPaymentBasepoint []byte
	HtlcBasepoint           []byte
	ToSelfDelay             uint16
	Features                *feature.Set
}

// GobEncode implements gob.GobEncoder.
func (p *LocalParams) GobEncode() ([]byte, error) {
	mirror := localParamsGob{
		ChannelConstraints:      p.ChannelConstraints,
		ChannelKeyPath:          p.ChannelKeyPath,
		RevocationBasepoint:     encodePubKey(p.RevocationBasepoint),
		PaymentBasepoint:        encodePubKey(p.PaymentBasepoint),
		DelayedPaymentBasepoint: encodePubKey(p.DelayedPaymentBasepoint),
		HtlcBasepoint:           encodePubKey(p.HtlcBasepoint),
		ToSelfDelay:             p.ToSelfDelay,
		Features:                p.Features,
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(mirror); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GobDecode implements gob.GobDecoder.
func (p *LocalParams) GobDecode(data []byte) error {
	var mirror localParamsGob
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&mirror); err != nil {
		return err
	}

	revocationBasepoint, err := decodePubKey(mirror.RevocationBasepoint)
	if err != nil {
		return err
	}
	paymentBasepoint, err := decodePubKey(mirror.PaymentBasepoint)
	if err != nil {
		return err
	}
	delayedPaymentBasepoint, err := decodePubKey(mirror.DelayedPaymentBasepoint)
	if err != nil {
		return err
	}
	htlcBasepoint, err := decodePubKey(mirror.HtlcBasepoint)
	if err != nil {
		return err
	}

	*p = LocalParams{
		ChannelConstraints:      mirror.ChannelConstraints,
		ChannelKeyPath:          mirror.ChannelKeyPath,
		RevocationBasepoint:     revocationBasepoint,
		PaymentBasepoint:        paymentBasepoint,
		DelayedPaymentBasepoint: delayedPaymentBasepoint,
		HtlcBasepoint:           htlcBasepoint,
		ToSelfDelay:             mirror.ToSelfDelay,
		Features:                mirror.Features,
	}
	return nil
}

// RemoteParams are the per-channel parameters the remote side supplied in
// its OpenChannel or AcceptChannel message.
type RemoteParams struct {
	ChannelConstraints

	// FundingPubKey is the remote party's funding multisig basepoint.
	FundingPubKey *btcec.PublicKey

	// RevocationBasepoint, PaymentBasepoint, DelayedPaymentBasepoint and
	// HtlcBasepoint are the remote party's per-channel basepoints used to
	// derive their per-commitment keys.
	RevocationBasepoint     *btcec.PublicKey
	PaymentBasepoint        *btcec.PublicKey
	DelayedPaymentBasepoint *btcec.PublicKey
	HtlcBasepoint           *btcec.PublicKey

	// ToSelfDelay is the remote side's required csv delay on its own
	// commitment output.
	ToSelfDelay uint16

	// Features is the feature set the remote party advertised.
	Features *feature.Set
}

// remoteParamsGob mirrors RemoteParams with its five basepoints carried as
// serialized bytes, for the same reason staticChannelParamsGob does.
type remoteParamsGob struct {
	ChannelConstraints
	FundingPubKey           []byte
	RevocationBasepoint     []byte
	PaymentBasepoint        []byte
	DelayedPaymentBasepoint []byte
	HtlcBasepoint           []byte
	ToSelfDelay             uint16
	Features                *feature.Set
}

// GobEncode implements gob.GobEncoder.
func (p *RemoteParams) GobEncode() ([]byte, error) {
	mirror := remoteParamsGob{
		ChannelConstraints:      p.ChannelConstraints,
		FundingPubKey:           encodePubKey(p.FundingPubKey),
		RevocationBasepoint:     encodePubKey(p.RevocationBasepoint),
		PaymentBasepoint:        encodePubKey(p.PaymentBasepoint),
		DelayedPaymentBasepoint: encodePubKey(p.DelayedPaymentBasepoint),
		HtlcBasepoint:           encodePubKey(p.HtlcBasepoint),
		ToSelfDelay:             p.ToSelfDelay,
		Features:                p.Features,
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(mirror); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GobDecode implements gob.GobDecoder.
func (p *RemoteParams) GobDecode(data []byte) error {
	var mirror remoteParamsGob
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&mirror); err != nil {
		return err
	}

	fundingPubKey, err := decodePubKey(mirror.FundingPubKey)
	if err != nil {
		return err
	}
	revocationBasepoint, err := decodePubKey(mirror.RevocationBasepoint)
	if err != nil {
		return err
	}
	paymentBasepoint, err := decodePubKey(mirror.PaymentBasepoint)
	if err != nil {
		return err
	}
	delayedPaymentBasepoint, err := decodePubKey(mirror.DelayedPaymentBasepoint)
	if err != nil {
		return err
	}
	htlcBasepoint, err := decodePubKey(mirror.HtlcBasepoint)
	if err != nil {
		return err
	}

	*p = RemoteParams{
		ChannelConstraints:      mirror.ChannelConstraints,
		FundingPubKey:           fundingPubKey,
		RevocationBasepoint:     revocationBasepoint,
		PaymentBasepoint:        paymentBasepoint,
		DelayedPaymentBasepoint: delayedPaymentBasepoint,
		HtlcBasepoint:           htlcBasepoint,
		ToSelfDelay:             mirror.ToSelfDelay,
		Features:                mirror.Features,
	}
	return nil
}
