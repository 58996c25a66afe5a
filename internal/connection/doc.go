// Package connection provides the WebSocket transport used by the feed
// worker.
//
// The transport exposes three operations:
//   - Dialer.Connect opens a socket and reports the handshake response
//   - Socket.Send writes one text frame
//   - Socket.Receive blocks until the next frame arrives
//
// Transport failures are reported as ErrConnectionClosed (the socket was
// closed deliberately), ErrAlreadyClosed (a failed socket was reused) or
// *IOError (network-level failure). Anything else is returned unchanged.
package connection
