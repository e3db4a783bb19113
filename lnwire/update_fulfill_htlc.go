package lnwire

import "io"

// UpdateFulfillHTLC is sent to settle a particular HTLC by revealing its
// payment preimage. A subsequent CommitSig locks in the removal.
type UpdateFulfillHTLC struct {
	// ChanID references the active channel holding the HTLC to settle.
	ChanID ChannelID

	// ID denotes the HTLC, within the receiving node's commitment, to
	// be removed.
	ID uint64

	// PaymentPreimage is the preimage that hashes to the HTLC's
	// PaymentHash.
	PaymentPreimage [32]byte
}

// NewUpdateFulfillHTLC returns a new UpdateFulfillHTLC populated with the
// given channel ID, HTLC ID and preimage.
func NewUpdateFulfillHTLC(chanID ChannelID, id uint64,
	preimage [32]byte) *UpdateFulfillHTLC {

	return &UpdateFulfillHTLC{
		ChanID:          chanID,
		ID:              id,
		PaymentPreimage: preimage,
	}
}

var _ Message = (*UpdateFulfillHTLC)(nil)

// Decode deserializes a serialized UpdateFulfillHTLC message.
//
// This is part of the lnwire.Message interface.
func (c *UpdateFulfillHTLC) Decode(r io.Reader, pver uint32) error {
	return readElements(r,
		&c.ChanID,
		&c.ID,
		c.PaymentPreimage[:],
	)
}

// Encode serializes the target UpdateFulfillHTLC message.
//
// This is part of the lnwire.Message interface.
func (c *UpdateFulfillHTLC) Encode(w io.Writer, pver uint32) error {
	return writeElements(w,
		c.ChanID,
		c.ID,
		c.PaymentPreimage[:],
	)
}

// MsgType returns the integer uniquely identifying this message type.
//
// This is part of the lnwire.Message interface.
func (c *UpdateFulfillHTLC) MsgType() MessageType {
	return MsgUpdateFulfillHTLC
}

// MaxPayloadLength returns the maximum allowed payload size for an
// UpdateFulfillHTLC message.
//
// This is part of the lnwire.Message interface.
func (c *UpdateFulfillHTLC) MaxPayloadLength(uint32) uint32 {
	return 32 + 8 + 32
}
