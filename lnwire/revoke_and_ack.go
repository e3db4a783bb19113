package lnwire

import (
	"io"

	"github.com/btcsuite/btcd/btcec/v2"
)

// RevokeAndAck finalizes a commitment update: it reveals the per-commitment
// secret of the now-obsolete commitment, and hands over the point to be
// used for the next one.
type RevokeAndAck struct {
	ChanID ChannelID

	// Revocation is the secret that can be used to reconstruct the
	// private key for the prior per-commitment point.
	Revocation [32]byte

	NextPerCommitmentPoint *btcec.PublicKey
}

var _ Message = (*RevokeAndAck)(nil)

// Decode deserializes a serialized RevokeAndAck message.
//
// This is part of the lnwire.Message interface.
func (c *RevokeAndAck) Decode(r io.Reader, pver uint32) error {
	return readElements(r,
		&c.ChanID,
		c.Revocation[:],
		&c.NextPerCommitmentPoint,
	)
}

// Encode serializes the target RevokeAndAck message.
//
// This is part of the lnwire.Message interface.
func (c *RevokeAndAck) Encode(w io.Writer, pver uint32) error {
	return writeElements(w,
		c.ChanID,
		c.Revocation[:],
		c.NextPerCommitmentPoint,
	)
}

// MsgType returns the integer uniquely identifying this message type.
//
// This is part of the lnwire.Message interface.
func (c *RevokeAndAck) MsgType() MessageType {
	return MsgRevokeAndAck
}

// MaxPayloadLength returns the maximum allowed payload size for a
// RevokeAndAck message.
//
// This is part of the lnwire.Message interface.
func (c *RevokeAndAck) MaxPayloadLength(uint32) uint32 {
	return 32 + 32 + 33
}
