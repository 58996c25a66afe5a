// Package sink provides handler.Handler implementations that forward feed
// events outside the process.
//
// Sinks:
//   - FileWriter appends events as JSON lines to one file per event type
//     and product (e.g. ticker_BTC-USD)
//   - RedisSink publishes events on Redis pub/sub channels named
//     <prefix>.<type>.<product_id>
//
// Both sinks only handle the event types they are configured for and ignore
// the rest.
package sink
