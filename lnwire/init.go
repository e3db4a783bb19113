package lnwire

import "io"

// Init is the first message sent once a connection is established. It
// advertises the features this node supports at both the global
// (gossip/payment) and local (per-peer) scope.
type Init struct {
	// GlobalFeatures are feature bits that are also used in node
	// announcements.
	GlobalFeatures *FeatureVector

	// Features are feature bits only relevant to direct peer
	// connections.
	Features *FeatureVector
}

// NewInitMessage creates a new Init message from the given feature vectors.
func NewInitMessage(global, local *FeatureVector) *Init {
	return &Init{
		GlobalFeatures: global,
		Features:       local,
	}
}

var _ Message = (*Init)(nil)

// Decode deserializes a serialized Init message.
//
// This is part of the lnwire.Message interface.
func (c *Init) Decode(r io.Reader, pver uint32) error {
	return readElements(r,
		&c.GlobalFeatures,
		&c.Features,
	)
}

// Encode serializes the target Init message.
//
// This is part of the lnwire.Message interface.
func (c *Init) Encode(w io.Writer, pver uint32) error {
	return writeElements(w,
		c.GlobalFeatures,
		c.Features,
	)
}

// MsgType returns the integer uniquely identifying this message type.
//
// This is part of the lnwire.Message interface.
func (c *Init) MsgType() MessageType {
	return MsgInit
}

// MaxPayloadLength returns the maximum allowed payload size for an Init
// message.
//
// This is part of the lnwire.Message interface.
func (c *Init) MaxPayloadLength(uint32) uint32 {
	return MaxMessagePayload
}
