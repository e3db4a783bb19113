package peer

import (
	"crypto/sha256"
	"io/ioutil"
	"os"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/lightningnetwork/lnchannel/channeldb"
	"github.com/lightningnetwork/lnchannel/feature"
	"github.com/lightningnetwork/lnchannel/lnwallet"
	"github.com/lightningnetwork/lnchannel/lnwire"
	"github.com/stretchr/testify/require"
)

func makeTestStore(t *testing.T) *ChannelDBStore {
	tempDirName, err := ioutil.TempDir("", "peer-channeldb")
	require.NoError(t, err)

	cdb, err := channeldb.Open(tempDirName)
	require.NoError(t, err)

	t.Cleanup(func() {
		cdb.Close()
		os.RemoveAll(tempDirName)
	})

	return NewChannelDBStore(cdb)
}

// testPubKey derives a deterministic public key from label, so tests don't
// need a real wallet to exercise the key-bearing fields a channel state
// carries.
func testPubKey(label string) *btcec.PublicKey {
	h := sha256.Sum256([]byte(label))
	return btcec.PrivKeyFromBytes(h[:]).PubKey()
}

func TestChannelDBStoreStateRoundTrip(t *testing.T) {
	store := makeTestStore(t)

	var id lnwire.ChannelID
	id[0] = 0x42

	staticParams := &lnwallet.StaticChannelParams{
		NodeParams: lnwallet.NodeParams{
			MinDepth:     3,
			FeeratePerKw: 2500,
		},
		RemoteNodeID: testPubKey("remote-node"),
	}

	state := WaitForOpenChannel{
		Base: Base{StaticParams: staticParams},
		TemporaryChannelID: id,
		LocalParams: &lnwallet.LocalParams{
			ToSelfDelay: 144,
			Features:    feature.New(),
		},
		RemoteInit: &lnwire.Init{
			GlobalFeatures: lnwire.NewFeatureVector(feature.New()),
			Features:       lnwire.NewFeatureVector(feature.New()),
		},
	}

	require.NoError(t, store.PutState(id, state))

	got, err := store.LoadState(id)
	require.NoError(t, err)

	restored, ok := got.(WaitForOpenChannel)
	require.True(t, ok)
	require.Equal(t, id, restored.TemporaryChannelID)
	require.Equal(t, uint16(144), restored.LocalParams.ToSelfDelay)
	require.Equal(t, uint32(3), restored.Base.StaticParams.MinDepth)
	require.True(t, restored.Base.StaticParams.RemoteNodeID.IsEqual(staticParams.RemoteNodeID))
}

func TestChannelDBStoreHtlcInfosRoundTrip(t *testing.T) {
	store := makeTestStore(t)

	var id lnwire.ChannelID
	id[0] = 0x07

	htlcs := []lnwallet.DirectedHtlc{
		{
			InternalHTLC: lnwallet.InternalHTLC{
				ID:         1,
				Amount:     50_000_000,
				CltvExpiry: 500,
			},
			Direction: lnwallet.Outgoing,
		},
	}

	require.NoError(t, store.PutHtlcInfos(id, htlcs))

	got, err := store.LoadHtlcInfos(id)
	require.NoError(t, err)
	require.Equal(t, htlcs, got)
}

func TestChannelDBStoreForEachState(t *testing.T) {
	store := makeTestStore(t)

	var idA, idB lnwire.ChannelID
	idA[0] = 0x01
	idB[0] = 0x02

	staticParams := testStaticParams(3)

	require.NoError(t, store.PutState(idA, WaitForInit{Base: Base{StaticParams: staticParams}}))
	require.NoError(t, store.PutState(idB, WaitForInit{Base: Base{StaticParams: staticParams}}))

	seen := make(map[lnwire.ChannelID]bool)
	err := store.ForEachState(func(id lnwire.ChannelID, state State) error {
		_, ok := state.(WaitForInit)
		require.True(t, ok)
		seen[id] = true
		return nil
	})
	require.NoError(t, err)
	require.Len(t, seen, 2)
	require.True(t, seen[idA])
	require.True(t, seen[idB])
}
