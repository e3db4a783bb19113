package channeldb

import "fmt"

var (
	ErrNoChanDBExists      = fmt.Errorf("channel db has not yet been created")
	ErrChannelNoExist      = fmt.Errorf("this channel does not exist")
	ErrNoActiveChannels    = fmt.Errorf("no active channels exist")
	ErrMetaNotFound        = fmt.Errorf("unable to locate meta information")
	ErrUnknownChannelState = fmt.Errorf("unrecognized channel state tag")
)
