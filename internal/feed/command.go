package feed

import "github.com/fredo994/coinbase-feed/internal/protocol"

// commandQueueSize is the capacity of the worker's command queue.
const commandQueueSize = 10

type commandKind int

const (
	cmdSubscribe commandKind = iota
	cmdUnsubscribe
	cmdStop
)

func (k commandKind) String() string {
	switch k {
	case cmdSubscribe:
		return "subscribe"
	case cmdUnsubscribe:
		return "unsubscribe"
	case cmdStop:
		return "stop"
	}
	return "unknown"
}

// command is a request from a Controller or the Client to the worker.
type command struct {
	kind       commandKind
	productIDs []string
	channels   []protocol.ChannelSpec
}
