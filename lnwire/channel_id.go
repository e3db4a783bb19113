package lnwire

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// ChannelID is the unique identifier for a channel, derived from the
// funding transaction's outpoint: the funding txid with the funding output
// index XORed into its final two bytes.
type ChannelID [32]byte

// NewChanIDFromOutPoint derives the ChannelID for the funding outpoint op.
func NewChanIDFromOutPoint(op *wire.OutPoint) ChannelID {
	var cid ChannelID
	copy(cid[:], op.Hash[:])

	cid[30] ^= byte(op.Index >> 8)
	cid[31] ^= byte(op.Index)

	return cid
}

// String returns the hex-reversed (big-endian, block-explorer style)
// representation of the channel id.
func (c ChannelID) String() string {
	var reversed ChannelID
	for i := 0; i < 32; i++ {
		reversed[i] = c[32-i-1]
	}
	return chainhash.Hash(reversed).String()
}

// IsTemporary reports whether this ChannelID looks like one of the
// temporary identifiers generated before a funding outpoint exists, i.e.
// still all-zero in its unXORed form. Used only for tests and logging; the
// wire protocol treats temporary and permanent channel ids identically.
func (c ChannelID) IsTemporary() bool {
	return c == ChannelID{}
}
