// Package protocol implements the Coinbase Pro WebSocket feed wire format.
//
// Outbound:
//   - subscribe / unsubscribe envelopes tagged by "type"
//   - channels encoded as a bare name or as {name, product_ids}
//
// Inbound:
//   - 14 event kinds selected by the "type" field
//   - everything except "type" decodes into the event struct
//
// Unknown message types are reported as ErrUnknownMessage.
package protocol
