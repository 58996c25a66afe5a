package connection

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/fredo994/coinbase-feed/internal/version"
)

// WSDialer dials sockets using gorilla/websocket.
type WSDialer struct {
	cfg    ClientConfig
	logger *slog.Logger
}

// NewDialer creates a new WebSocket dialer.
func NewDialer(cfg ClientConfig, logger *slog.Logger) *WSDialer {
	if logger == nil {
		logger = slog.Default()
	}
	return &WSDialer{cfg: cfg, logger: logger}
}

// Connect establishes the WebSocket connection.
func (d *WSDialer) Connect(ctx context.Context, url string) (Socket, HandshakeInfo, error) {
	header := http.Header{}
	for k, v := range d.cfg.Header {
		header[k] = v
	}
	header.Set("User-Agent", version.UserAgent())

	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: d.cfg.HandshakeTimeout,
	}

	conn, resp, err := dialer.DialContext(ctx, url, header)

	var info HandshakeInfo
	if resp != nil {
		info.StatusCode = resp.StatusCode
		info.Header = resp.Header
	}
	if err != nil {
		return nil, info, classify(err)
	}

	s := &socket{
		conn:   conn,
		cfg:    d.cfg,
		logger: d.logger.With("url", url),
	}

	// Server sends ping, we respond with pong and surface the frame.
	conn.SetPingHandler(func(data string) error {
		s.mu.Lock()
		s.pending = append(s.pending, Frame{Kind: FramePing, Data: []byte(data)})
		s.mu.Unlock()

		err := conn.WriteControl(
			websocket.PongMessage,
			[]byte(data),
			time.Now().Add(time.Second),
		)
		if errors.Is(err, websocket.ErrCloseSent) {
			return nil
		}
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil
		}
		return err
	})

	conn.SetPongHandler(func(data string) error {
		s.mu.Lock()
		s.pending = append(s.pending, Frame{Kind: FramePong, Data: []byte(data)})
		s.mu.Unlock()
		return nil
	})

	d.logger.Debug("websocket connected", "url", url, "status", info.StatusCode)

	return s, info, nil
}

// socket implements the Socket interface.
type socket struct {
	conn   *websocket.Conn
	cfg    ClientConfig
	logger *slog.Logger

	// Write serialization
	writeMu sync.Mutex

	// State
	mu         sync.Mutex
	closed     bool    // Close was called
	peerClosed bool    // close frame received
	failed     bool    // read or write failed
	pending    []Frame // control frames seen while reading
}

// Send writes a text frame to the connection.
func (s *socket) Send(text string) error {
	if err := s.checkState(); err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if s.cfg.WriteTimeout > 0 {
		s.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
	}
	if err := s.conn.WriteMessage(websocket.TextMessage, []byte(text)); err != nil {
		return s.fail(err)
	}
	return nil
}

// Receive reads the next frame from the connection.
func (s *socket) Receive() (Frame, error) {
	if f, ok := s.popPending(); ok {
		return f, nil
	}
	if err := s.checkState(); err != nil {
		return Frame{}, err
	}

	msgType, data, err := s.conn.ReadMessage()
	if err != nil {
		var closeErr *websocket.CloseError
		if errors.As(err, &closeErr) && closeErr.Code != websocket.CloseAbnormalClosure {
			s.mu.Lock()
			s.peerClosed = true
			s.mu.Unlock()
			return Frame{
				Kind:        FrameClose,
				CloseCode:   closeCode(closeErr.Code),
				CloseReason: closeErr.Text,
			}, nil
		}
		return Frame{}, s.fail(err)
	}

	var frame Frame
	switch msgType {
	case websocket.TextMessage:
		frame = Frame{Kind: FrameText, Text: string(data)}
	default:
		frame = Frame{Kind: FrameBinary, Data: data}
	}

	// Control frames handled during this read arrived before the data frame.
	s.mu.Lock()
	if len(s.pending) > 0 {
		s.pending = append(s.pending, frame)
		frame, s.pending = s.pending[0], s.pending[1:]
	}
	s.mu.Unlock()

	return frame, nil
}

// Close gracefully closes the connection.
func (s *socket) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.writeMu.Lock()
	s.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	s.writeMu.Unlock()

	return s.conn.Close()
}

func (s *socket) checkState() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.closed, s.peerClosed:
		return ErrConnectionClosed
	case s.failed:
		return ErrAlreadyClosed
	}
	return nil
}

func (s *socket) popPending() (Frame, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.pending) == 0 {
		return Frame{}, false
	}
	f := s.pending[0]
	s.pending = s.pending[1:]
	return f, true
}

// fail marks the socket unusable and classifies the error. A gorilla
// connection must not be read again after an error.
func (s *socket) fail(err error) error {
	s.mu.Lock()
	closed := s.closed
	s.failed = true
	s.mu.Unlock()

	if closed {
		return ErrConnectionClosed
	}
	s.logger.Debug("websocket failed", "error", err)
	return classify(err)
}

// classify maps gorilla and net errors onto the transport taxonomy.
func classify(err error) error {
	var closeErr *websocket.CloseError
	var netErr net.Error

	switch {
	case errors.Is(err, websocket.ErrCloseSent):
		return ErrConnectionClosed
	case errors.Is(err, net.ErrClosed):
		return ErrAlreadyClosed
	case errors.As(err, &closeErr) && closeErr.Code == websocket.CloseAbnormalClosure:
		// gorilla reports a dropped TCP stream as an abnormal closure.
		return &IOError{Err: err}
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return &IOError{Err: err}
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return &IOError{Err: err}
	case errors.As(err, &netErr):
		return &IOError{Err: err}
	}
	return err
}

func closeCode(code int) int {
	if code == websocket.CloseNoStatusReceived {
		return 0
	}
	return code
}
