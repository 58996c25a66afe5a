// Package handler defines the callbacks the feed worker invokes for each
// decoded event.
//
// A Handler receives:
//   - Initialize once, after the first successful subscription
//   - one call per inbound event, routed by its type tag
//   - Close once, when the worker exits
//
// Returning a non-nil error from any callback ends the stream.
package handler
