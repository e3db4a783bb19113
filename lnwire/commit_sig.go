package lnwire

import (
	"encoding/binary"
	"io"
)

// CommitSig locks in the sender's outstanding changes by signing the
// receiver's next commitment transaction, along with every HTLC
// transaction spending from it.
type CommitSig struct {
	ChanID    ChannelID
	CommitSig [64]byte
	HtlcSigs  [][64]byte
}

var _ Message = (*CommitSig)(nil)

// Decode deserializes a serialized CommitSig message.
//
// This is part of the lnwire.Message interface.
func (c *CommitSig) Decode(r io.Reader, pver uint32) error {
	if err := readElements(r, &c.ChanID, c.CommitSig[:]); err != nil {
		return err
	}

	var numSigs uint16
	if err := binary.Read(r, binary.BigEndian, &numSigs); err != nil {
		return err
	}

	c.HtlcSigs = make([][64]byte, numSigs)
	for i := range c.HtlcSigs {
		if err := readElement(r, c.HtlcSigs[i][:]); err != nil {
			return err
		}
	}
	return nil
}

// Encode serializes the target CommitSig message.
//
// This is part of the lnwire.Message interface.
func (c *CommitSig) Encode(w io.Writer, pver uint32) error {
	if err := writeElements(w, c.ChanID, c.CommitSig[:]); err != nil {
		return err
	}

	if err := binary.Write(w, binary.BigEndian, uint16(len(c.HtlcSigs))); err != nil {
		return err
	}
	for _, sig := range c.HtlcSigs {
		if err := writeElement(w, sig[:]); err != nil {
			return err
		}
	}
	return nil
}

// MsgType returns the integer uniquely identifying this message type.
//
// This is part of the lnwire.Message interface.
func (c *CommitSig) MsgType() MessageType {
	return MsgCommitSig
}

// MaxPayloadLength returns the maximum allowed payload size for a CommitSig
// message.
//
// This is part of the lnwire.Message interface.
func (c *CommitSig) MaxPayloadLength(uint32) uint32 {
	return MaxMessagePayload
}
