package lnwire

import "io"

// OnionBlobSize is the fixed size of the onion routing packet carried by an
// UpdateAddHTLC. The onion's contents are opaque to the channel core; only
// payment relay (out of core scope) decodes them.
const OnionBlobSize = 1366

// UpdateAddHTLC is sent by either side to offer a new HTLC to the other
// party's commitment.
type UpdateAddHTLC struct {
	ChanID ChannelID

	// ID is the index of this HTLC within the sender's update log.
	ID uint64

	Amount      MilliSatoshi
	PaymentHash [32]byte
	Expiry      uint32

	// OnionBlob is the Sphinx-encrypted onion routing packet; opaque to
	// this package.
	OnionBlob [OnionBlobSize]byte
}

var _ Message = (*UpdateAddHTLC)(nil)

// Decode deserializes a serialized UpdateAddHTLC message.
//
// This is part of the lnwire.Message interface.
func (c *UpdateAddHTLC) Decode(r io.Reader, pver uint32) error {
	return readElements(r,
		&c.ChanID,
		&c.ID,
		&c.Amount,
		c.PaymentHash[:],
		&c.Expiry,
		c.OnionBlob[:],
	)
}

// Encode serializes the target UpdateAddHTLC message.
//
// This is part of the lnwire.Message interface.
func (c *UpdateAddHTLC) Encode(w io.Writer, pver uint32) error {
	return writeElements(w,
		c.ChanID,
		c.ID,
		c.Amount,
		c.PaymentHash[:],
		c.Expiry,
		c.OnionBlob[:],
	)
}

// MsgType returns the integer uniquely identifying this message type.
//
// This is part of the lnwire.Message interface.
func (c *UpdateAddHTLC) MsgType() MessageType {
	return MsgUpdateAddHTLC
}

// MaxPayloadLength returns the maximum allowed payload size for an
// UpdateAddHTLC message.
//
// This is part of the lnwire.Message interface.
func (c *UpdateAddHTLC) MaxPayloadLength(uint32) uint32 {
	return 32 + 8 + 8 + 32 + 4 + OnionBlobSize
}
