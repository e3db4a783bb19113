package lnwire

import (
	"encoding/binary"
	"io"
)

// Error is sent by either side to report a protocol violation and request
// the channel be torn down. A zero ChannelID broadcasts the error to every
// channel with the peer.
type Error struct {
	ChanID ChannelID
	Data   []byte
}

// NewError creates an Error message carrying msg as its data.
func NewError(cid ChannelID, msg string) *Error {
	return &Error{
		ChanID: cid,
		Data:   []byte(msg),
	}
}

var _ Message = (*Error)(nil)

// Decode deserializes a serialized Error message.
//
// This is part of the lnwire.Message interface.
func (c *Error) Decode(r io.Reader, pver uint32) error {
	if err := readElement(r, &c.ChanID); err != nil {
		return err
	}

	var length uint16
	if err := binary.Read(r, binary.BigEndian, &length); err != nil {
		return err
	}
	c.Data = make([]byte, length)
	return readElement(r, c.Data)
}

// Encode serializes the target Error message.
//
// This is part of the lnwire.Message interface.
func (c *Error) Encode(w io.Writer, pver uint32) error {
	if err := writeElement(w, c.ChanID); err != nil {
		return err
	}

	if err := binary.Write(w, binary.BigEndian, uint16(len(c.Data))); err != nil {
		return err
	}
	return writeElement(w, c.Data)
}

// MsgType returns the integer uniquely identifying this message type.
//
// This is part of the lnwire.Message interface.
func (c *Error) MsgType() MessageType {
	return MsgError
}

// MaxPayloadLength returns the maximum allowed payload size for an Error
// message.
//
// This is part of the lnwire.Message interface.
func (c *Error) MaxPayloadLength(uint32) uint32 {
	return MaxMessagePayload
}

// Error returns a human-readable representation so *Error also satisfies
// the standard error interface; convenient when wrapping it in a
// HandleError action.
func (c *Error) Error() string {
	return string(c.Data)
}
