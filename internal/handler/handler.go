package handler

import (
	"errors"
	"fmt"

	"github.com/fredo994/coinbase-feed/internal/protocol"
)

// ErrTerminate can be returned by a callback to end the stream without a
// more specific cause.
var ErrTerminate = errors.New("handler requested termination")

// Handler receives decoded feed events. Any non-nil error terminates the
// worker.
type Handler interface {
	Initialize() error
	OnSubscriptions(ev *protocol.SubscriptionsEvent) error
	OnHeartbeat(ev *protocol.HeartbeatEvent) error
	OnStatus(ev *protocol.StatusEvent) error
	OnTicker(ev *protocol.TickerEvent) error
	OnSnapshot(ev *protocol.SnapshotEvent) error
	OnL2Update(ev *protocol.L2UpdateEvent) error
	OnMatch(ev *protocol.MatchEvent) error
	OnReceived(ev *protocol.ReceivedEvent) error
	OnOpen(ev *protocol.OpenEvent) error
	OnChange(ev *protocol.ChangeEvent) error
	OnDone(ev *protocol.DoneEvent) error
	OnActive(ev *protocol.ActiveEvent) error
	OnLastMatch(ev *protocol.LastMatchEvent) error
	OnError(ev *protocol.ErrorEvent) error
	Close() error
}

// Nop implements every Handler method as a no-op. Embed it and override only
// the callbacks you need.
type Nop struct{}

func (Nop) Initialize() error                                  { return nil }
func (Nop) OnSubscriptions(*protocol.SubscriptionsEvent) error { return nil }
func (Nop) OnHeartbeat(*protocol.HeartbeatEvent) error         { return nil }
func (Nop) OnStatus(*protocol.StatusEvent) error               { return nil }
func (Nop) OnTicker(*protocol.TickerEvent) error               { return nil }
func (Nop) OnSnapshot(*protocol.SnapshotEvent) error           { return nil }
func (Nop) OnL2Update(*protocol.L2UpdateEvent) error           { return nil }
func (Nop) OnMatch(*protocol.MatchEvent) error                 { return nil }
func (Nop) OnReceived(*protocol.ReceivedEvent) error           { return nil }
func (Nop) OnOpen(*protocol.OpenEvent) error                   { return nil }
func (Nop) OnChange(*protocol.ChangeEvent) error               { return nil }
func (Nop) OnDone(*protocol.DoneEvent) error                   { return nil }
func (Nop) OnActive(*protocol.ActiveEvent) error               { return nil }
func (Nop) OnLastMatch(*protocol.LastMatchEvent) error         { return nil }
func (Nop) OnError(*protocol.ErrorEvent) error                 { return nil }
func (Nop) Close() error                                       { return nil }

// Dispatch routes a decoded event to the matching callback.
func Dispatch(h Handler, ev protocol.Event) error {
	switch e := ev.(type) {
	case *protocol.SubscriptionsEvent:
		return h.OnSubscriptions(e)
	case *protocol.HeartbeatEvent:
		return h.OnHeartbeat(e)
	case *protocol.StatusEvent:
		return h.OnStatus(e)
	case *protocol.TickerEvent:
		return h.OnTicker(e)
	case *protocol.SnapshotEvent:
		return h.OnSnapshot(e)
	case *protocol.L2UpdateEvent:
		return h.OnL2Update(e)
	case *protocol.MatchEvent:
		return h.OnMatch(e)
	case *protocol.ReceivedEvent:
		return h.OnReceived(e)
	case *protocol.OpenEvent:
		return h.OnOpen(e)
	case *protocol.ChangeEvent:
		return h.OnChange(e)
	case *protocol.DoneEvent:
		return h.OnDone(e)
	case *protocol.ActiveEvent:
		return h.OnActive(e)
	case *protocol.LastMatchEvent:
		return h.OnLastMatch(e)
	case *protocol.ErrorEvent:
		return h.OnError(e)
	}
	return fmt.Errorf("%w: %T", protocol.ErrUnknownMessage, ev)
}
