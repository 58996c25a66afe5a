package sink

import (
	"errors"
	"fmt"

	"github.com/fredo994/coinbase-feed/internal/protocol"
)

// ErrUnsupportedEvent is returned for event types a sink cannot forward.
var ErrUnsupportedEvent = errors.New("unsupported event type")

// Forwardable lists the event types sinks can forward.
var Forwardable = []protocol.MessageType{
	protocol.TypeTicker,
	protocol.TypeSnapshot,
	protocol.TypeL2Update,
	protocol.TypeMatch,
	protocol.TypeLastMatch,
	protocol.TypeHeartbeat,
	protocol.TypeDone,
}

// DefaultEvents are the event types forwarded when none are configured.
var DefaultEvents = []protocol.MessageType{
	protocol.TypeTicker,
	protocol.TypeL2Update,
	protocol.TypeMatch,
}

// eventSet builds a lookup of enabled types. An empty list selects
// DefaultEvents.
func eventSet(types []protocol.MessageType) (map[protocol.MessageType]bool, error) {
	if len(types) == 0 {
		types = DefaultEvents
	}

	set := make(map[protocol.MessageType]bool, len(types))
	for _, t := range types {
		if !isForwardable(t) {
			return nil, fmt.Errorf("%w: %q", ErrUnsupportedEvent, t)
		}
		set[t] = true
	}
	return set, nil
}

func isForwardable(t protocol.MessageType) bool {
	for _, f := range Forwardable {
		if f == t {
			return true
		}
	}
	return false
}

// ParseEvents converts names such as "ticker" into message types.
func ParseEvents(names []string) ([]protocol.MessageType, error) {
	out := make([]protocol.MessageType, 0, len(names))
	for _, n := range names {
		t := protocol.MessageType(n)
		if !isForwardable(t) {
			return nil, fmt.Errorf("%w: %q", ErrUnsupportedEvent, n)
		}
		out = append(out, t)
	}
	return out, nil
}
