package connection

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// Errors
var (
	ErrConnectionClosed = errors.New("connection closed")
	ErrAlreadyClosed    = errors.New("already closed")
)

// IOError wraps a network-level failure (timeout, reset, EOF).
type IOError struct {
	Err error
}

func (e *IOError) Error() string {
	return "websocket io: " + e.Err.Error()
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// FrameKind identifies a received WebSocket frame.
type FrameKind int

const (
	FrameText FrameKind = iota
	FrameBinary
	FrameClose
	FramePing
	FramePong
)

func (k FrameKind) String() string {
	switch k {
	case FrameText:
		return "text"
	case FrameBinary:
		return "binary"
	case FrameClose:
		return "close"
	case FramePing:
		return "ping"
	case FramePong:
		return "pong"
	}
	return "unknown"
}

// Frame is a single frame read from a Socket.
type Frame struct {
	Kind        FrameKind
	Text        string // FrameText
	Data        []byte // FrameBinary, FramePing, FramePong
	CloseCode   int    // FrameClose; 0 if the peer sent no code
	CloseReason string // FrameClose
}

// HandshakeInfo is the HTTP response to the upgrade request.
type HandshakeInfo struct {
	StatusCode int
	Header     http.Header
}

// Dialer opens sockets.
type Dialer interface {
	Connect(ctx context.Context, url string) (Socket, HandshakeInfo, error)
}

// Socket is an open WebSocket connection. Send and Receive may be called
// from different goroutines; Receive must not be called concurrently with
// itself.
type Socket interface {
	// Send writes a single text frame.
	Send(text string) error

	// Receive blocks until the next frame.
	Receive() (Frame, error)

	// Close sends a close frame and releases the connection. Safe to call
	// more than once.
	Close() error
}

// ClientConfig configures the WebSocket dialer.
type ClientConfig struct {
	HandshakeTimeout time.Duration // Max time for the upgrade handshake
	WriteTimeout     time.Duration // Write deadline for sends
	Header           http.Header   // Extra request headers
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     5 * time.Second,
	}
}
