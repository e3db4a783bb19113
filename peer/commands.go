package peer

import "github.com/lightningnetwork/lnchannel/lnwallet"

// Command is the tagged sum of locally originated instructions the driver's
// caller can inject into Normal via ExecuteCommand.
type Command interface {
	isCommand()
}

type commandBase struct{}

func (commandBase) isCommand() {}

// CmdAddHTLC proposes a new outgoing HTLC. Commit requests that an
// immediate CMD_SIGN be chained after the add succeeds.
type CmdAddHTLC struct {
	commandBase

	lnwallet.AddHTLCCommand
	Commit bool
}

// CmdFulfillHTLC fulfills a remotely-added HTLC the caller holds the
// preimage for.
type CmdFulfillHTLC struct {
	commandBase

	ID              uint64
	PaymentPreimage [32]byte
	Commit          bool
}

// CmdFailHTLC fails a remotely-added HTLC.
type CmdFailHTLC struct {
	commandBase

	ID     uint64
	Reason []byte
	Commit bool
}

// CmdFailMalformedHTLC fails a remotely-added HTLC whose onion blob could
// not be decoded.
type CmdFailMalformedHTLC struct {
	commandBase

	ID           uint64
	FailCode     uint16
	ShaOnionBlob [32]byte
	Commit       bool
}

// CmdSign requests that every unsigned local change be committed in a new
// CommitSig, if the commitment window allows it right now.
type CmdSign struct {
	commandBase
}
