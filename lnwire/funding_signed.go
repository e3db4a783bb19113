package lnwire

import "io"

// FundingSigned completes the funding flow: the fundee's signature on the
// funder's initial commitment transaction.
type FundingSigned struct {
	ChannelID ChannelID
	CommitSig [64]byte
}

var _ Message = (*FundingSigned)(nil)

// Decode deserializes a serialized FundingSigned message.
//
// This is part of the lnwire.Message interface.
func (c *FundingSigned) Decode(r io.Reader, pver uint32) error {
	return readElements(r,
		&c.ChannelID,
		c.CommitSig[:],
	)
}

// Encode serializes the target FundingSigned message.
//
// This is part of the lnwire.Message interface.
func (c *FundingSigned) Encode(w io.Writer, pver uint32) error {
	return writeElements(w,
		c.ChannelID,
		c.CommitSig[:],
	)
}

// MsgType returns the integer uniquely identifying this message type.
//
// This is part of the lnwire.Message interface.
func (c *FundingSigned) MsgType() MessageType {
	return MsgFundingSigned
}

// MaxPayloadLength returns the maximum allowed payload size for a
// FundingSigned message.
//
// This is part of the lnwire.Message interface.
func (c *FundingSigned) MaxPayloadLength(uint32) uint32 {
	return 32 + 64
}
