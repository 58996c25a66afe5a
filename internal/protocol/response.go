package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// MessageType is the "type" tag of an inbound envelope.
type MessageType string

const (
	TypeSubscriptions MessageType = "subscriptions"
	TypeHeartbeat     MessageType = "heartbeat"
	TypeStatus        MessageType = "status"
	TypeTicker        MessageType = "ticker"
	TypeSnapshot      MessageType = "snapshot"
	TypeL2Update      MessageType = "l2update"
	TypeMatch         MessageType = "match"
	TypeReceived      MessageType = "received"
	TypeOpen          MessageType = "open"
	TypeChange        MessageType = "change"
	TypeDone          MessageType = "done"
	TypeActive        MessageType = "active"
	TypeLastMatch     MessageType = "last_match"
	TypeError         MessageType = "error"
)

// ErrUnknownMessage is returned for envelopes with an unrecognized type tag.
var ErrUnknownMessage = errors.New("unknown message type")

// Event is a decoded inbound message.
type Event interface {
	Type() MessageType
}

func (*SubscriptionsEvent) Type() MessageType { return TypeSubscriptions }
func (*HeartbeatEvent) Type() MessageType     { return TypeHeartbeat }
func (*StatusEvent) Type() MessageType        { return TypeStatus }
func (*TickerEvent) Type() MessageType        { return TypeTicker }
func (*SnapshotEvent) Type() MessageType      { return TypeSnapshot }
func (*L2UpdateEvent) Type() MessageType      { return TypeL2Update }
func (*MatchEvent) Type() MessageType         { return TypeMatch }
func (*ReceivedEvent) Type() MessageType      { return TypeReceived }
func (*OpenEvent) Type() MessageType          { return TypeOpen }
func (*ChangeEvent) Type() MessageType        { return TypeChange }
func (*DoneEvent) Type() MessageType          { return TypeDone }
func (*ActiveEvent) Type() MessageType        { return TypeActive }
func (*LastMatchEvent) Type() MessageType     { return TypeLastMatch }
func (*ErrorEvent) Type() MessageType         { return TypeError }

// envelope is used for fast type extraction.
type envelope struct {
	Type string `json:"type"`
}

// newEvent returns an empty event for a type tag, or nil if unknown.
func newEvent(t MessageType) Event {
	switch t {
	case TypeSubscriptions:
		return &SubscriptionsEvent{}
	case TypeHeartbeat:
		return &HeartbeatEvent{}
	case TypeStatus:
		return &StatusEvent{}
	case TypeTicker:
		return &TickerEvent{}
	case TypeSnapshot:
		return &SnapshotEvent{}
	case TypeL2Update:
		return &L2UpdateEvent{}
	case TypeMatch:
		return &MatchEvent{}
	case TypeReceived:
		return &ReceivedEvent{}
	case TypeOpen:
		return &OpenEvent{}
	case TypeChange:
		return &ChangeEvent{}
	case TypeDone:
		return &DoneEvent{}
	case TypeActive:
		return &ActiveEvent{}
	case TypeLastMatch:
		return &LastMatchEvent{}
	case TypeError:
		return &ErrorEvent{}
	}
	return nil
}

// Decode parses an inbound envelope into its typed event.
func Decode(data []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}

	ev := newEvent(MessageType(env.Type))
	if ev == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMessage, env.Type)
	}

	if err := json.Unmarshal(data, ev); err != nil {
		return nil, fmt.Errorf("decode %s: %w", env.Type, err)
	}
	return ev, nil
}

// Encode serializes an event back into its tagged envelope.
func Encode(ev Event) ([]byte, error) {
	body, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", ev.Type(), err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("encode %s: %w", ev.Type(), err)
	}
	tag, _ := json.Marshal(ev.Type())
	fields["type"] = tag

	return json.Marshal(fields)
}
