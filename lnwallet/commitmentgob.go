package lnwallet

import (
	"bytes"
	"encoding/gob"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/lightningnetwork/lnchannel/elkrem"
	"github.com/lightningnetwork/lnchannel/lnwire"
)

// remoteCommitGob mirrors RemoteCommit with its per-commitment point
// carried as serialized bytes.
type remoteCommitGob struct {
	Index                    uint64
	Spec                     *CommitmentSpec
	Txid                     chainhash.Hash
	RemotePerCommitmentPoint []byte
}

// GobEncode implements gob.GobEncoder. It uses a value receiver so that
// RemoteCommit satisfies gob.GobEncoder whether it's carried as a field of
// type RemoteCommit (Commitments.RemoteCommit) or *RemoteCommit
// (waitingForRevocation.NextRemoteCommit).
func (c RemoteCommit) GobEncode() ([]byte, error) {
	mirror := remoteCommitGob{
		Index:                    c.Index,
		Spec:                     c.Spec,
		Txid:                     c.Txid,
		RemotePerCommitmentPoint: encodePubKey(c.RemotePerCommitmentPoint),
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(mirror); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GobDecode implements gob.GobDecoder.
func (c *RemoteCommit) GobDecode(data []byte) error {
	var mirror remoteCommitGob
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&mirror); err != nil {
		return err
	}

	point, err := decodePubKey(mirror.RemotePerCommitmentPoint)
	if err != nil {
		return err
	}

	*c = RemoteCommit{
		Index:                    mirror.Index,
		Spec:                     mirror.Spec,
		Txid:                     mirror.Txid,
		RemotePerCommitmentPoint: point,
	}
	return nil
}

// remoteCommitInfoGob mirrors remoteCommitInfo's Either(waiting, nextPoint)
// with nextPoint carried as serialized bytes.
type remoteCommitInfoGob struct {
	Waiting   *waitingForRevocation
	NextPoint []byte
}

// commitmentsGob mirrors Commitments, reaching directly into
// RemoteNextCommitInfo's unexported fields (same-package access) and
// carrying resolvedRemoteChanges, neither of which default gob reflection
// could otherwise see.
type commitmentsGob struct {
	ChannelVersion             ChannelVersion
	LocalParams                *LocalParams
	RemoteParams               *RemoteParams
	ChannelFlags               byte
	ChannelID                  lnwire.ChannelID
	LocalCommit                LocalCommit
	RemoteCommit               RemoteCommit
	LocalChanges               changeLog
	RemoteChanges              changeLog
	LocalNextHtlcID            uint64
	RemoteNextHtlcID           uint64
	RemoteNextCommitInfo       remoteCommitInfoGob
	CommitInput                CommitInput
	RemotePerCommitmentSecrets *elkrem.Store
	OriginChannels             map[uint64]struct{}
	ResolvedRemoteChanges      int
}

// GobEncode implements gob.GobEncoder.
func (c *Commitments) GobEncode() ([]byte, error) {
	var nextPoint []byte
	if c.RemoteNextCommitInfo.nextPoint != nil {
		nextPoint = encodePubKey(c.RemoteNextCommitInfo.nextPoint)
	}

	mirror := commitmentsGob{
		ChannelVersion: c.ChannelVersion,
		LocalParams:    c.LocalParams,
		RemoteParams:   c.RemoteParams,
		ChannelFlags:   c.ChannelFlags,
		ChannelID:      c.ChannelID,
		LocalCommit:    c.LocalCommit,
		RemoteCommit:   c.RemoteCommit,
		LocalChanges:   c.LocalChanges,
		RemoteChanges:  c.RemoteChanges,
		LocalNextHtlcID:  c.LocalNextHtlcID,
		RemoteNextHtlcID: c.RemoteNextHtlcID,
		RemoteNextCommitInfo: remoteCommitInfoGob{
			Waiting:   c.RemoteNextCommitInfo.waiting,
			NextPoint: nextPoint,
		},
		CommitInput:                c.CommitInput,
		RemotePerCommitmentSecrets: c.RemotePerCommitmentSecrets,
		OriginChannels:             c.OriginChannels,
		ResolvedRemoteChanges:      c.resolvedRemoteChanges,
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(mirror); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GobDecode implements gob.GobDecoder.
func (c *Commitments) GobDecode(data []byte) error {
	var mirror commitmentsGob
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&mirror); err != nil {
		return err
	}

	var nextPoint *btcec.PublicKey
	if len(mirror.RemoteNextCommitInfo.NextPoint) > 0 {
		var err error
		nextPoint, err = decodePubKey(mirror.RemoteNextCommitInfo.NextPoint)
		if err != nil {
			return err
		}
	}

	*c = Commitments{
		ChannelVersion: mirror.ChannelVersion,
		LocalParams:    mirror.LocalParams,
		RemoteParams:   mirror.RemoteParams,
		ChannelFlags:   mirror.ChannelFlags,
		ChannelID:      mirror.ChannelID,
		LocalCommit:    mirror.LocalCommit,
		RemoteCommit:   mirror.RemoteCommit,
		LocalChanges:   mirror.LocalChanges,
		RemoteChanges:  mirror.RemoteChanges,
		LocalNextHtlcID:  mirror.LocalNextHtlcID,
		RemoteNextHtlcID: mirror.RemoteNextHtlcID,
		RemoteNextCommitInfo: remoteCommitInfo{
			waiting:   mirror.RemoteNextCommitInfo.Waiting,
			nextPoint: nextPoint,
		},
		CommitInput:                mirror.CommitInput,
		RemotePerCommitmentSecrets: mirror.RemotePerCommitmentSecrets,
		OriginChannels:             mirror.OriginChannels,
		resolvedRemoteChanges:      mirror.ResolvedRemoteChanges,
	}
	return nil
}
