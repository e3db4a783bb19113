package lnwire_test

import (
	"bytes"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/wire"
	"github.com/lightningnetwork/lnchannel/lnwire"
	"github.com/stretchr/testify/require"
)

func randPubKey(t *testing.T) *btcec.PublicKey {
	t.Helper()
	priv, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	return priv.PubKey()
}

// roundTrip encodes msg, decodes it back via ReadMessage, and returns the
// freshly decoded message.
func roundTrip(t *testing.T, msg lnwire.Message) lnwire.Message {
	t.Helper()

	var buf bytes.Buffer
	_, err := lnwire.WriteMessage(&buf, msg, 0)
	require.NoError(t, err)

	out, err := lnwire.ReadMessage(&buf, 0)
	require.NoError(t, err)
	return out
}

func TestFundingLockedRoundTrip(t *testing.T) {
	var cid lnwire.ChannelID
	cid[0] = 0xaa

	msg := lnwire.NewFundingLocked(cid, randPubKey(t))
	out := roundTrip(t, msg)

	got, ok := out.(*lnwire.FundingLocked)
	require.True(t, ok)
	require.Equal(t, msg.ChannelID, got.ChannelID)
	require.True(t, msg.NextPerCommitmentPoint.IsEqual(got.NextPerCommitmentPoint))
}

func TestUpdateFulfillHTLCRoundTrip(t *testing.T) {
	var cid lnwire.ChannelID
	var preimage [32]byte
	preimage[5] = 0x42

	msg := lnwire.NewUpdateFulfillHTLC(cid, 7, preimage)
	out := roundTrip(t, msg)

	got, ok := out.(*lnwire.UpdateFulfillHTLC)
	require.True(t, ok)
	require.Equal(t, uint64(7), got.ID)
	require.Equal(t, preimage, got.PaymentPreimage)
}

func TestErrorMessageRoundTrip(t *testing.T) {
	var cid lnwire.ChannelID
	msg := lnwire.NewError(cid, "dust limit too low")

	out := roundTrip(t, msg)
	got, ok := out.(*lnwire.Error)
	require.True(t, ok)
	require.Equal(t, "dust limit too low", got.Error())
}

func TestUnknownMessageType(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{0xff, 0xff})

	_, err := lnwire.ReadMessage(&buf, 0)
	require.Error(t, err)

	var unknown *lnwire.UnknownMessage
	require.ErrorAs(t, err, &unknown)
}

func TestChannelIDFromOutPoint(t *testing.T) {
	op := wire.OutPoint{Index: 1}
	cid := lnwire.NewChanIDFromOutPoint(&op)
	require.False(t, cid.IsTemporary())
}
