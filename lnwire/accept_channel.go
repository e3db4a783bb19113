package lnwire

import (
	"io"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
)

// AcceptChannel is the fundee's response to OpenChannel, carrying the
// parameters and basepoints for her side of the channel.
type AcceptChannel struct {
	PendingChannelID ChannelID

	DustLimit            btcutil.Amount
	MaxValueInFlight      MilliSatoshi
	ChannelReserve       btcutil.Amount
	HtlcMinimum          MilliSatoshi
	MinAcceptDepth       uint32
	CsvDelay             uint16
	MaxAcceptedHTLCs     uint16

	FundingKey            *btcec.PublicKey
	RevocationPoint       *btcec.PublicKey
	PaymentPoint          *btcec.PublicKey
	DelayedPaymentPoint   *btcec.PublicKey
	HtlcPoint             *btcec.PublicKey
	FirstCommitmentPoint  *btcec.PublicKey
}

var _ Message = (*AcceptChannel)(nil)

// Decode deserializes a serialized AcceptChannel message.
//
// This is part of the lnwire.Message interface.
func (c *AcceptChannel) Decode(r io.Reader, pver uint32) error {
	return readElements(r,
		&c.PendingChannelID,
		&c.DustLimit,
		&c.MaxValueInFlight,
		&c.ChannelReserve,
		&c.HtlcMinimum,
		&c.MinAcceptDepth,
		&c.CsvDelay,
		&c.MaxAcceptedHTLCs,
		&c.FundingKey,
		&c.RevocationPoint,
		&c.PaymentPoint,
		&c.DelayedPaymentPoint,
		&c.HtlcPoint,
		&c.FirstCommitmentPoint,
	)
}

// Encode serializes the target AcceptChannel message.
//
// This is part of the lnwire.Message interface.
func (c *AcceptChannel) Encode(w io.Writer, pver uint32) error {
	return writeElements(w,
		c.PendingChannelID,
		c.DustLimit,
		c.MaxValueInFlight,
		c.ChannelReserve,
		c.HtlcMinimum,
		c.MinAcceptDepth,
		c.CsvDelay,
		c.MaxAcceptedHTLCs,
		c.FundingKey,
		c.RevocationPoint,
		c.PaymentPoint,
		c.DelayedPaymentPoint,
		c.HtlcPoint,
		c.FirstCommitmentPoint,
	)
}

// MsgType returns the integer uniquely identifying this message type.
//
// This is part of the lnwire.Message interface.
func (c *AcceptChannel) MsgType() MessageType {
	return MsgAcceptChannel
}

// MaxPayloadLength returns the maximum allowed payload size for an
// AcceptChannel message.
//
// This is part of the lnwire.Message interface.
func (c *AcceptChannel) MaxPayloadLength(uint32) uint32 {
	return MaxMessagePayload
}
