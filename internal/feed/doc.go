// Package feed implements the streaming client for the exchange's
// WebSocket market-data feed.
//
// A Client owns one background worker goroutine. The worker:
//   - waits for the first subscription before connecting
//   - keeps the cumulative set of subscribed products and channels
//   - reconnects and resubscribes after a close frame or I/O failure
//   - decodes inbound frames and dispatches them to a handler.Handler
//
// Commands reach the worker through a bounded queue shared by all
// Controllers. Failures are only reported through logs; the stream either
// keeps running or ends, which Wait, Stop and Done observe.
package feed
