package protocol

import (
	"encoding/json"
	"fmt"
)

// RequestType is the "type" tag of an outbound envelope.
type RequestType string

const (
	RequestSubscribe   RequestType = "subscribe"
	RequestUnsubscribe RequestType = "unsubscribe"
)

// Request is an outbound envelope.
type Request interface {
	RequestType() RequestType
}

// SubscribeRequest replaces the session's subscriptions with the given
// products and channels.
type SubscribeRequest struct {
	ProductIDs []string      `json:"product_ids"`
	Channels   []ChannelSpec `json:"channels"`
}

// NewSubscribeRequest builds a subscribe envelope. Nil slices encode as [].
func NewSubscribeRequest(productIDs []string, channels []ChannelSpec) SubscribeRequest {
	if productIDs == nil {
		productIDs = []string{}
	}
	if channels == nil {
		channels = []ChannelSpec{}
	}
	return SubscribeRequest{ProductIDs: productIDs, Channels: channels}
}

func (SubscribeRequest) RequestType() RequestType { return RequestSubscribe }

// UnsubscribeRequest removes products and channels from the session. An empty
// ProductIDs omits the field, which unsubscribes all products for Channels.
type UnsubscribeRequest struct {
	ProductIDs []string      `json:"product_ids,omitempty"`
	Channels   []ChannelSpec `json:"channels"`
}

// NewUnsubscribeRequest builds an unsubscribe envelope.
func NewUnsubscribeRequest(productIDs []string, channels []ChannelSpec) UnsubscribeRequest {
	if channels == nil {
		channels = []ChannelSpec{}
	}
	return UnsubscribeRequest{ProductIDs: productIDs, Channels: channels}
}

// UnsubscribeChannels unsubscribes every product from the given channels.
func UnsubscribeChannels(channels []ChannelSpec) UnsubscribeRequest {
	return NewUnsubscribeRequest(nil, channels)
}

func (UnsubscribeRequest) RequestType() RequestType { return RequestUnsubscribe }

// EncodeRequest serializes an envelope with its "type" tag first.
func EncodeRequest(req Request) ([]byte, error) {
	var body any
	switch r := req.(type) {
	case SubscribeRequest:
		body = struct {
			Type RequestType `json:"type"`
			SubscribeRequest
		}{RequestSubscribe, r}
	case UnsubscribeRequest:
		body = struct {
			Type RequestType `json:"type"`
			UnsubscribeRequest
		}{RequestUnsubscribe, r}
	default:
		return nil, fmt.Errorf("encode request: unsupported type %T", req)
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode %s request: %w", req.RequestType(), err)
	}
	return data, nil
}

// DecodeRequest parses an outbound envelope. Used by test servers and tooling.
func DecodeRequest(data []byte) (Request, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode request envelope: %w", err)
	}

	switch RequestType(env.Type) {
	case RequestSubscribe:
		var r SubscribeRequest
		if err := json.Unmarshal(data, &r); err != nil {
			return nil, fmt.Errorf("decode subscribe: %w", err)
		}
		return r, nil
	case RequestUnsubscribe:
		var r UnsubscribeRequest
		if err := json.Unmarshal(data, &r); err != nil {
			return nil, fmt.Errorf("decode unsubscribe: %w", err)
		}
		return r, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownMessage, env.Type)
}
