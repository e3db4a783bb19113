package lnwire

import (
	"encoding/binary"
	"io"
)

// maxOpaqueFailureReason bounds the encrypted failure reason blob, per
// BOLT-2.
const maxOpaqueFailureReason = 256

// UpdateFailHTLC is sent to remove a particular HTLC, citing an
// onion-encrypted failure reason meaningful only to the payment's origin.
type UpdateFailHTLC struct {
	ChanID ChannelID
	ID     uint64
	Reason []byte
}

var _ Message = (*UpdateFailHTLC)(nil)

// Decode deserializes a serialized UpdateFailHTLC message.
//
// This is part of the lnwire.Message interface.
func (c *UpdateFailHTLC) Decode(r io.Reader, pver uint32) error {
	if err := readElements(r, &c.ChanID, &c.ID); err != nil {
		return err
	}

	var length uint16
	if err := binary.Read(r, binary.BigEndian, &length); err != nil {
		return err
	}
	c.Reason = make([]byte, length)
	return readElement(r, c.Reason)
}

// Encode serializes the target UpdateFailHTLC message.
//
// This is part of the lnwire.Message interface.
func (c *UpdateFailHTLC) Encode(w io.Writer, pver uint32) error {
	if err := writeElements(w, c.ChanID, c.ID); err != nil {
		return err
	}

	if err := binary.Write(w, binary.BigEndian, uint16(len(c.Reason))); err != nil {
		return err
	}
	return writeElement(w, c.Reason)
}

// MsgType returns the integer uniquely identifying this message type.
//
// This is part of the lnwire.Message interface.
func (c *UpdateFailHTLC) MsgType() MessageType {
	return MsgUpdateFailHTLC
}

// MaxPayloadLength returns the maximum allowed payload size for an
// UpdateFailHTLC message.
//
// This is part of the lnwire.Message interface.
func (c *UpdateFailHTLC) MaxPayloadLength(uint32) uint32 {
	return 32 + 8 + 2 + maxOpaqueFailureReason
}
