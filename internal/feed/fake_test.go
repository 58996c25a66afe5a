package feed

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fredo994/coinbase-feed/internal/connection"
	"github.com/fredo994/coinbase-feed/internal/handler"
	"github.com/fredo994/coinbase-feed/internal/protocol"
)

const testTimeout = 2 * time.Second

func testTiming() timing {
	return timing{
		idlePoll:           5 * time.Millisecond,
		idleWarnAfter:      20 * time.Millisecond,
		minConnectInterval: 20 * time.Millisecond,
		connectRetrySleep:  5 * time.Millisecond,
	}
}

type result struct {
	frame connection.Frame
	err   error
}

// fakeSocket is an in-memory Socket. With no queued frames, Receive returns
// a pong every few milliseconds so the worker keeps polling its queue.
type fakeSocket struct {
	sent     chan string
	frames   chan result
	sendErrs chan error

	closeOnce sync.Once
	closed    chan struct{}
}

func newFakeSocket() *fakeSocket {
	return &fakeSocket{
		sent:     make(chan string, 100),
		frames:   make(chan result, 100),
		sendErrs: make(chan error, 10),
		closed:   make(chan struct{}),
	}
}

func (s *fakeSocket) Send(text string) error {
	select {
	case err := <-s.sendErrs:
		return err
	default:
	}
	select {
	case <-s.closed:
		return connection.ErrConnectionClosed
	default:
	}
	s.sent <- text
	return nil
}

func (s *fakeSocket) Receive() (connection.Frame, error) {
	select {
	case r := <-s.frames:
		return r.frame, r.err
	case <-s.closed:
		return connection.Frame{}, connection.ErrConnectionClosed
	case <-time.After(2 * time.Millisecond):
		return connection.Frame{Kind: connection.FramePong}, nil
	}
}

func (s *fakeSocket) Close() error {
	s.closeOnce.Do(func() { close(s.closed) })
	return nil
}

func (s *fakeSocket) isClosed() bool {
	select {
	case <-s.closed:
		return true
	default:
		return false
	}
}

func (s *fakeSocket) pushText(text string) {
	s.frames <- result{frame: connection.Frame{Kind: connection.FrameText, Text: text}}
}

func (s *fakeSocket) pushFrame(f connection.Frame) {
	s.frames <- result{frame: f}
}

func (s *fakeSocket) pushErr(err error) {
	s.frames <- result{err: err}
}

// fakeDialer hands out fakeSockets, failing with queued errors first.
type fakeDialer struct {
	mu       sync.Mutex
	errs     []error
	attempts []time.Time

	sockets chan *fakeSocket
}

func newFakeDialer(errs ...error) *fakeDialer {
	return &fakeDialer{
		errs:    errs,
		sockets: make(chan *fakeSocket, 10),
	}
}

func (d *fakeDialer) Connect(ctx context.Context, url string) (connection.Socket, connection.HandshakeInfo, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.attempts = append(d.attempts, time.Now())
	if len(d.errs) > 0 {
		err := d.errs[0]
		d.errs = d.errs[1:]
		return nil, connection.HandshakeInfo{}, err
	}

	s := newFakeSocket()
	d.sockets <- s
	return s, connection.HandshakeInfo{StatusCode: 101}, nil
}

func (d *fakeDialer) attemptTimes() []time.Time {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]time.Time, len(d.attempts))
	copy(out, d.attempts)
	return out
}

func (d *fakeDialer) next(t *testing.T) *fakeSocket {
	t.Helper()
	select {
	case s := <-d.sockets:
		return s
	case <-time.After(testTimeout):
		t.Fatal("timeout waiting for connection")
		return nil
	}
}

// recordingHandler forwards tickers and counts lifecycle calls.
type recordingHandler struct {
	handler.Nop
	tickers   chan *protocol.TickerEvent
	failOn    string // ticker product id that triggers termination
	initErr   error
	initCalls atomic.Int32
	closeCall atomic.Int32
}

func newRecordingHandler() *recordingHandler {
	return &recordingHandler{tickers: make(chan *protocol.TickerEvent, 100)}
}

func (h *recordingHandler) Initialize() error {
	h.initCalls.Add(1)
	return h.initErr
}

func (h *recordingHandler) OnTicker(ev *protocol.TickerEvent) error {
	if h.failOn != "" && ev.ProductID == h.failOn {
		return handler.ErrTerminate
	}
	h.tickers <- ev
	return nil
}

func (h *recordingHandler) Close() error {
	h.closeCall.Add(1)
	return nil
}

func (h *recordingHandler) nextTicker(t *testing.T) *protocol.TickerEvent {
	t.Helper()
	select {
	case ev := <-h.tickers:
		return ev
	case <-time.After(testTimeout):
		t.Fatal("timeout waiting for ticker")
		return nil
	}
}

// nextSent returns the next envelope sent on s.
func nextSent(t *testing.T, s *fakeSocket) protocol.Request {
	t.Helper()
	select {
	case text := <-s.sent:
		req, err := protocol.DecodeRequest([]byte(text))
		if err != nil {
			t.Fatalf("decode sent envelope %q: %v", text, err)
		}
		return req
	case <-time.After(testTimeout):
		t.Fatal("timeout waiting for sent envelope")
		return nil
	}
}

func expectSubscribe(t *testing.T, s *fakeSocket, products []string, channels []protocol.ChannelSpec) {
	t.Helper()
	req := nextSent(t, s)
	sub, ok := req.(protocol.SubscribeRequest)
	if !ok {
		t.Fatalf("sent %T, want SubscribeRequest", req)
	}
	assertProducts(t, sub.ProductIDs, products)
	assertChannels(t, sub.Channels, channels)
}

func assertProducts(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("product_ids = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("product_ids[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func assertChannels(t *testing.T, got, want []protocol.ChannelSpec) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("channels = %v, want %v", got, want)
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Errorf("channels[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func waitDone(t *testing.T, c *Client) {
	t.Helper()
	select {
	case <-c.Done():
	case <-time.After(testTimeout):
		t.Fatal("timeout waiting for worker to exit")
	}
}

func newTestClient(d connection.Dialer) *Client {
	return New("wss://feed.test", WithDialer(d), withTiming(testTiming()))
}
