package lnwire

import (
	"fmt"
	"io"

	"github.com/btcsuite/btcd/btcec/v2"
)

// FundingLocked is sent by both parties once they've each observed the
// funding transaction reach its minimum confirmation depth. It carries the
// per-commitment point to be used for the channel's second commitment
// (index 1).
type FundingLocked struct {
	// ChannelID identifies the now-permanent channel.
	ChannelID ChannelID

	// NextPerCommitmentPoint is the per-commitment point at index 1,
	// used to build and revoke the channel's second commitment.
	NextPerCommitmentPoint *btcec.PublicKey
}

// NewFundingLocked creates a new FundingLocked message.
func NewFundingLocked(cid ChannelID, npcp *btcec.PublicKey) *FundingLocked {
	return &FundingLocked{
		ChannelID:               cid,
		NextPerCommitmentPoint:  npcp,
	}
}

var _ Message = (*FundingLocked)(nil)

// Decode deserializes a serialized FundingLocked message.
//
// This is part of the lnwire.Message interface.
func (c *FundingLocked) Decode(r io.Reader, pver uint32) error {
	return readElements(r,
		&c.ChannelID,
		&c.NextPerCommitmentPoint,
	)
}

// Encode serializes the target FundingLocked message.
//
// This is part of the lnwire.Message interface.
func (c *FundingLocked) Encode(w io.Writer, pver uint32) error {
	return writeElements(w,
		c.ChannelID,
		c.NextPerCommitmentPoint,
	)
}

// MsgType returns the integer uniquely identifying this message type.
//
// This is part of the lnwire.Message interface.
func (c *FundingLocked) MsgType() MessageType {
	return MsgFundingLocked
}

// MaxPayloadLength returns the maximum allowed payload size for a
// FundingLocked message.
//
// This is part of the lnwire.Message interface.
func (c *FundingLocked) MaxPayloadLength(uint32) uint32 {
	return 32 + 33
}

// Validate examines each populated field for sanity.
func (c *FundingLocked) Validate() error {
	if c.NextPerCommitmentPoint == nil {
		return fmt.Errorf("the next per-commitment point must be non-nil")
	}
	return nil
}
