package lnwire

import (
	"io"

	"github.com/btcsuite/btcd/wire"
)

// FundingCreated is sent by the funder once the funding transaction has
// been constructed, carrying the funding outpoint and the funder's
// signature on the fundee's initial commitment transaction.
type FundingCreated struct {
	PendingChannelID ChannelID
	FundingPoint     wire.OutPoint
	CommitSig        [64]byte
}

var _ Message = (*FundingCreated)(nil)

// Decode deserializes a serialized FundingCreated message.
//
// This is part of the lnwire.Message interface.
func (c *FundingCreated) Decode(r io.Reader, pver uint32) error {
	return readElements(r,
		&c.PendingChannelID,
		&c.FundingPoint,
		c.CommitSig[:],
	)
}

// Encode serializes the target FundingCreated message.
//
// This is part of the lnwire.Message interface.
func (c *FundingCreated) Encode(w io.Writer, pver uint32) error {
	return writeElements(w,
		c.PendingChannelID,
		c.FundingPoint,
		c.CommitSig[:],
	)
}

// MsgType returns the integer uniquely identifying this message type.
//
// This is part of the lnwire.Message interface.
func (c *FundingCreated) MsgType() MessageType {
	return MsgFundingCreated
}

// MaxPayloadLength returns the maximum allowed payload size for a
// FundingCreated message.
//
// This is part of the lnwire.Message interface.
func (c *FundingCreated) MaxPayloadLength(uint32) uint32 {
	return 32 + 36 + 64
}
