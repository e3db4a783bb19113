package lnwire

import "io"

// Shutdown initiates, or responds to, a cooperative channel close. Carried
// by the core only to let Normal track that closing is underway; the
// closing negotiation itself is out of core scope.
type Shutdown struct {
	ChannelID       ChannelID
	DeliveryAddress PkScript
}

// NewShutdown creates a new Shutdown message.
func NewShutdown(cid ChannelID, addr PkScript) *Shutdown {
	return &Shutdown{
		ChannelID:       cid,
		DeliveryAddress: addr,
	}
}

var _ Message = (*Shutdown)(nil)

// Decode deserializes a serialized Shutdown message.
//
// This is part of the lnwire.Message interface.
func (c *Shutdown) Decode(r io.Reader, pver uint32) error {
	return readElements(r,
		&c.ChannelID,
		&c.DeliveryAddress,
	)
}

// Encode serializes the target Shutdown message.
//
// This is part of the lnwire.Message interface.
func (c *Shutdown) Encode(w io.Writer, pver uint32) error {
	return writeElements(w,
		c.ChannelID,
		c.DeliveryAddress,
	)
}

// MsgType returns the integer uniquely identifying this message type.
//
// This is part of the lnwire.Message interface.
func (c *Shutdown) MsgType() MessageType {
	return MsgShutdown
}

// MaxPayloadLength returns the maximum allowed payload size for a Shutdown
// message.
//
// This is part of the lnwire.Message interface.
func (c *Shutdown) MaxPayloadLength(uint32) uint32 {
	return 32 + 2 + maxPkScriptLen
}
