package lnwire

import (
	"io"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// OpenChannel is sent by the funder of a channel to kick off the funding
// workflow, per BOLT-2.
type OpenChannel struct {
	// ChainHash denotes the target chain this channel will reside
	// within.
	ChainHash chainhash.Hash

	// PendingChannelID identifies this particular funding workflow until
	// a permanent ChannelID can be derived from the funding outpoint.
	PendingChannelID ChannelID

	FundingAmount        btcutil.Amount
	PushAmount           MilliSatoshi
	DustLimit            btcutil.Amount
	MaxValueInFlight     MilliSatoshi
	ChannelReserve       btcutil.Amount
	HtlcMinimum          MilliSatoshi
	FeePerKw             btcutil.Amount
	CsvDelay             uint16
	MaxAcceptedHTLCs     uint16

	FundingKey            *btcec.PublicKey
	RevocationPoint       *btcec.PublicKey
	PaymentPoint          *btcec.PublicKey
	DelayedPaymentPoint   *btcec.PublicKey
	HtlcPoint             *btcec.PublicKey
	FirstCommitmentPoint  *btcec.PublicKey

	// ChannelFlags is a bitfield; bit 0 being set indicates the funder
	// wants this channel to be announced publicly.
	ChannelFlags byte
}

var _ Message = (*OpenChannel)(nil)

// Decode deserializes a serialized OpenChannel message.
//
// This is part of the lnwire.Message interface.
func (c *OpenChannel) Decode(r io.Reader, pver uint32) error {
	return readElements(r,
		c.ChainHash[:],
		&c.PendingChannelID,
		&c.FundingAmount,
		&c.PushAmount,
		&c.DustLimit,
		&c.MaxValueInFlight,
		&c.ChannelReserve,
		&c.HtlcMinimum,
		&c.FeePerKw,
		&c.CsvDelay,
		&c.MaxAcceptedHTLCs,
		&c.FundingKey,
		&c.RevocationPoint,
		&c.PaymentPoint,
		&c.DelayedPaymentPoint,
		&c.HtlcPoint,
		&c.FirstCommitmentPoint,
		&c.ChannelFlags,
	)
}

// Encode serializes the target OpenChannel message.
//
// This is part of the lnwire.Message interface.
func (c *OpenChannel) Encode(w io.Writer, pver uint32) error {
	return writeElements(w,
		c.ChainHash[:],
		c.PendingChannelID,
		c.FundingAmount,
		c.PushAmount,
		c.DustLimit,
		c.MaxValueInFlight,
		c.ChannelReserve,
		c.HtlcMinimum,
		c.FeePerKw,
		c.CsvDelay,
		c.MaxAcceptedHTLCs,
		c.FundingKey,
		c.RevocationPoint,
		c.PaymentPoint,
		c.DelayedPaymentPoint,
		c.HtlcPoint,
		c.FirstCommitmentPoint,
		c.ChannelFlags,
	)
}

// MsgType returns the integer uniquely identifying this message type.
//
// This is part of the lnwire.Message interface.
func (c *OpenChannel) MsgType() MessageType {
	return MsgOpenChannel
}

// MaxPayloadLength returns the maximum allowed payload size for an
// OpenChannel message.
//
// This is part of the lnwire.Message interface.
func (c *OpenChannel) MaxPayloadLength(uint32) uint32 {
	return MaxMessagePayload
}
