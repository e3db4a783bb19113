package channeldb

import (
	"io/ioutil"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

// makeTestDB creates a new instance of the channeldb for testing purposes.
// Closing the database and removing its temporary directory are registered
// with t.Cleanup, so they run when the test completes.
func makeTestDB(t *testing.T) *DB {
	tempDirName, err := ioutil.TempDir("", "channeldb")
	require.NoError(t, err)

	cdb, err := Open(tempDirName)
	require.NoError(t, err)

	t.Cleanup(func() {
		cdb.Close()
		os.RemoveAll(tempDirName)
	})

	return cdb
}

func TestStoreAndLoadStateRoundTrip(t *testing.T) {
	db := makeTestDB(t)

	key := []byte("temp-chan-id-1")
	payload := []byte("serialized WaitForFundingConfirmed snapshot")

	err := db.StoreState(key, "WaitForFundingConfirmed", payload)
	require.NoError(t, err)

	tag, got, err := db.LoadState(key)
	require.NoError(t, err)
	require.Equal(t, "WaitForFundingConfirmed", tag)
	require.Equal(t, payload, got)
}

func TestStoreStateOverwritesPriorSnapshot(t *testing.T) {
	db := makeTestDB(t)

	key := []byte("chan-id-1")

	require.NoError(t, db.StoreState(key, "WaitForFundingLocked", []byte("v1")))
	require.NoError(t, db.StoreState(key, "Normal", []byte("v2")))

	tag, payload, err := db.LoadState(key)
	require.NoError(t, err)
	require.Equal(t, "Normal", tag)
	require.Equal(t, []byte("v2"), payload)
}

func TestLoadStateUnknownChannel(t *testing.T) {
	db := makeTestDB(t)

	_, _, err := db.LoadState([]byte("never-seen"))
	require.Equal(t, ErrChannelNoExist, err)
}

func TestDeleteState(t *testing.T) {
	db := makeTestDB(t)

	key := []byte("chan-id-2")
	require.NoError(t, db.StoreState(key, "Normal", []byte("snapshot")))
	require.NoError(t, db.StoreHtlcInfos(key, []byte("htlcs")))

	require.NoError(t, db.DeleteState(key))

	_, _, err := db.LoadState(key)
	require.Equal(t, ErrChannelNoExist, err)

	_, err = db.LoadHtlcInfos(key)
	require.Equal(t, ErrChannelNoExist, err)
}

func TestForEachStateVisitsEveryChannel(t *testing.T) {
	db := makeTestDB(t)

	channels := map[string]string{
		"chan-a": "WaitForFundingConfirmed",
		"chan-b": "Normal",
		"chan-c": "WaitForFundingLocked",
	}
	for key, tag := range channels {
		require.NoError(t, db.StoreState([]byte(key), tag, []byte(tag)))
	}

	seen := make(map[string]string)
	err := db.ForEachState(func(key []byte, stateTag string, payload []byte) error {
		seen[string(key)] = stateTag
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, channels, seen)
}

func TestStoreAndLoadHtlcInfosRoundTrip(t *testing.T) {
	db := makeTestDB(t)

	key := []byte("chan-id-4")
	payload := []byte("gob-encoded DirectedHtlc slice")

	require.NoError(t, db.StoreHtlcInfos(key, payload))

	got, err := db.LoadHtlcInfos(key)
	require.NoError(t, err)
	require.Equal(t, payload, got)
}

func TestLoadHtlcInfosUnknownChannel(t *testing.T) {
	db := makeTestDB(t)

	_, err := db.LoadHtlcInfos([]byte("never-seen"))
	require.Equal(t, ErrChannelNoExist, err)
}

func TestReopenPersistsAcrossRestarts(t *testing.T) {
	tempDirName, err := ioutil.TempDir("", "channeldb")
	require.NoError(t, err)
	defer os.RemoveAll(tempDirName)

	db, err := Open(tempDirName)
	require.NoError(t, err)

	key := []byte("chan-id-3")
	require.NoError(t, db.StoreState(key, "WaitForFundingConfirmed", []byte("waiting")))
	require.NoError(t, db.Close())

	reopened, err := Open(tempDirName)
	require.NoError(t, err)
	defer reopened.Close()

	tag, payload, err := reopened.LoadState(key)
	require.NoError(t, err)
	require.Equal(t, "WaitForFundingConfirmed", tag)
	require.Equal(t, []byte("waiting"), payload)
}
