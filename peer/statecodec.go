package peer

import (
	"bytes"
	"encoding/gob"

	"github.com/lightningnetwork/lnchannel/lnwire"
)

// lastSentConfirmPendingGob mirrors LastSentConfirmPending's Either with an
// explicit tag, since gob can't dispatch on which of two unexported pointer
// fields is set.
type lastSentConfirmPendingGob struct {
	IsFunder       bool
	FundingCreated *lnwire.FundingCreated
	FundingSigned  *lnwire.FundingSigned
}

// GobEncode implements gob.GobEncoder. It uses a value receiver so
// LastSentConfirmPending round-trips as the plain (non-pointer) field
// WaitForFundingConfirmed.LastSent is declared as.
func (p LastSentConfirmPending) GobEncode() ([]byte, error) {
	mirror := lastSentConfirmPendingGob{
		IsFunder:       p.IsFunder(),
		FundingCreated: p.fundingCreated,
		FundingSigned:  p.fundingSigned,
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(mirror); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GobDecode implements gob.GobDecoder.
func (p *LastSentConfirmPending) GobDecode(data []byte) error {
	var mirror lastSentConfirmPendingGob
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&mirror); err != nil {
		return err
	}

	*p = LastSentConfirmPending{
		fundingCreated: mirror.FundingCreated,
		fundingSigned:  mirror.FundingSigned,
	}
	return nil
}
