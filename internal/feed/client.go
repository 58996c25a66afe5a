package feed

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fredo994/coinbase-feed/internal/connection"
	"github.com/fredo994/coinbase-feed/internal/handler"
)

// Feed endpoints.
const (
	ProductionURL = "wss://ws-feed.pro.coinbase.com"
	SandboxURL    = "wss://ws-feed-public.sandbox.pro.coinbase.com"
)

// State is the lifecycle state of a Client.
type State int

const (
	StateNotInitialized State = iota
	StateRunning
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateNotInitialized:
		return "not_initialized"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	}
	return "unknown"
}

// timing holds the worker's polling and reconnect intervals.
type timing struct {
	idlePoll           time.Duration // Sleep between empty queue polls before the first subscribe
	idleWarnAfter      time.Duration // Warn on every idle poll once this much time has passed
	minConnectInterval time.Duration // Minimum time between connect attempts
	connectRetrySleep  time.Duration // Sleep while waiting for minConnectInterval to elapse
}

func defaultTiming() timing {
	return timing{
		idlePoll:           1 * time.Second,
		idleWarnAfter:      15 * time.Second,
		minConnectInterval: 500 * time.Millisecond,
		connectRetrySleep:  250 * time.Millisecond,
	}
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithDialer sets the transport. Defaults to a gorilla/websocket dialer.
func WithDialer(d connection.Dialer) Option {
	return func(c *Client) {
		if d != nil {
			c.dialer = d
		}
	}
}

// WithMetrics sets the connection metrics sink.
func WithMetrics(m Metrics) Option {
	return func(c *Client) {
		if m != nil {
			c.metrics = m
		}
	}
}

func withTiming(t timing) Option {
	return func(c *Client) {
		c.timing = t
	}
}

// Client manages the lifecycle of one feed session.
type Client struct {
	url       string
	sessionID string
	logger    *slog.Logger
	dialer    connection.Dialer
	metrics   Metrics
	timing    timing

	commands chan command
	done     chan struct{}

	mu    sync.Mutex
	state State
}

// New creates a client for the given feed URL. The worker is not started
// until Start is called.
func New(url string, opts ...Option) *Client {
	c := &Client{
		url:       url,
		sessionID: uuid.NewString(),
		logger:    slog.Default(),
		metrics:   nopMetrics{},
		timing:    defaultTiming(),
		commands:  make(chan command, commandQueueSize),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.logger = c.logger.With("component", "feed", "session", c.sessionID)
	if c.dialer == nil {
		c.dialer = connection.NewDialer(connection.DefaultClientConfig(), c.logger)
	}
	return c
}

// Production creates a client for the production feed.
func Production(opts ...Option) *Client {
	return New(ProductionURL, opts...)
}

// Sandbox creates a client for the public sandbox feed.
func Sandbox(opts ...Option) *Client {
	return New(SandboxURL, opts...)
}

// URL returns the feed URL.
func (c *Client) URL() string {
	return c.url
}

// SessionID returns the identifier attached to this client's log records.
func (c *Client) SessionID() string {
	return c.sessionID
}

// Start spawns the worker. It panics if the client was already started or
// stopped.
func (c *Client) Start(h handler.Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateNotInitialized {
		panic(fmt.Sprintf("feed: Start called on %s client", c.state))
	}
	if h == nil {
		h = handler.Nop{}
	}

	w := &worker{
		url:      c.url,
		dialer:   c.dialer,
		handler:  h,
		logger:   c.logger,
		metrics:  c.metrics,
		timing:   c.timing,
		commands: c.commands,
		done:     c.done,
		subs:     newSubscriptionSet(),
	}
	go w.run()

	c.state = StateRunning
	c.logger.Info("feed client started", "url", c.url)
}

// Controller returns a handle for submitting subscription commands. It may
// be called any number of times, before or after Start.
func (c *Client) Controller() *Controller {
	return &Controller{
		commands: c.commands,
		done:     c.done,
		logger:   c.logger,
	}
}

// Stop asks the worker to exit and blocks until it has. The request is seen
// between frames, so a read already in progress finishes first. Calling Stop
// on a client that is not running logs and returns.
func (c *Client) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.checkRunning("stop") {
		return
	}

	select {
	case c.commands <- command{kind: cmdStop}:
	case <-c.done:
	}
	<-c.done

	c.state = StateStopped
	c.logger.Info("feed client stopped")
}

// Wait blocks until the worker exits on its own. It never asks the worker
// to stop. Calling Wait on a client that is not running logs and returns.
func (c *Client) Wait() {
	c.mu.Lock()
	if !c.checkRunning("wait") {
		c.mu.Unlock()
		return
	}
	c.state = StateStopped
	c.mu.Unlock()

	<-c.done
	c.logger.Info("feed worker exited")
}

// Done returns a channel closed when the worker exits. It is never closed
// if Start was not called.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// State returns the current lifecycle state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// checkRunning must be called with mu held.
func (c *Client) checkRunning(op string) bool {
	switch c.state {
	case StateNotInitialized:
		c.logger.Info("client was never started, nothing to do", "op", op)
		return false
	case StateStopped:
		c.logger.Info("client already stopped, nothing to do", "op", op)
		return false
	}
	return true
}
