package peer

import (
	"bytes"
	"encoding/gob"

	"github.com/lightningnetwork/lnchannel/channeldb"
	"github.com/lightningnetwork/lnchannel/lnwallet"
	"github.com/lightningnetwork/lnchannel/lnwire"
)

// ChannelDBStore implements StateStore against a channeldb.DB, making the
// StoreState/StoreHtlcInfos actions the Driver dispatches durable across
// restarts.
type ChannelDBStore struct {
	db *channeldb.DB
}

// NewChannelDBStore returns a StateStore backed by db.
func NewChannelDBStore(db *channeldb.DB) *ChannelDBStore {
	return &ChannelDBStore{db: db}
}

// PutState persists state under id, tagged with its concrete variant so
// LoadChannelStates can reconstruct the right type on restart.
func (s *ChannelDBStore) PutState(id lnwire.ChannelID, state State) error {
	tag, payload, err := EncodeState(state)
	if err != nil {
		return err
	}
	return s.db.StoreState(id[:], tag, payload)
}

// PutHtlcInfos persists the HTLC set riding on id's most recently signed
// commitment, gob-encoded directly since DirectedHtlc has no unexported
// fields for gob's default reflection to miss.
func (s *ChannelDBStore) PutHtlcInfos(id lnwire.ChannelID, htlcs []lnwallet.DirectedHtlc) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(htlcs); err != nil {
		return err
	}
	return s.db.StoreHtlcInfos(id[:], buf.Bytes())
}

// LoadState returns the persisted State for id, decoded back to its
// concrete variant.
func (s *ChannelDBStore) LoadState(id lnwire.ChannelID) (State, error) {
	tag, payload, err := s.db.LoadState(id[:])
	if err != nil {
		return nil, err
	}
	return DecodeState(tag, payload)
}

// LoadHtlcInfos returns the persisted HTLC set for id.
func (s *ChannelDBStore) LoadHtlcInfos(id lnwire.ChannelID) ([]lnwallet.DirectedHtlc, error) {
	payload, err := s.db.LoadHtlcInfos(id[:])
	if err != nil {
		return nil, err
	}

	var htlcs []lnwallet.DirectedHtlc
	if err := gob.NewDecoder(bytes.NewReader(payload)).Decode(&htlcs); err != nil {
		return nil, err
	}
	return htlcs, nil
}

// ForEachState invokes cb for every channel this store has a persisted
// state for, so a node can resume every in-flight or steady-state channel
// after a restart.
func (s *ChannelDBStore) ForEachState(cb func(id lnwire.ChannelID, state State) error) error {
	return s.db.ForEachState(func(key []byte, tag string, payload []byte) error {
		state, err := DecodeState(tag, payload)
		if err != nil {
			return err
		}

		var id lnwire.ChannelID
		copy(id[:], key)
		return cb(id, state)
	})
}

var _ StateStore = (*ChannelDBStore)(nil)
