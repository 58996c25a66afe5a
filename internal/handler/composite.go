package handler

import (
	"go.uber.org/multierr"

	"github.com/fredo994/coinbase-feed/internal/protocol"
)

// Composite fans every callback out to an ordered list of handlers. Every
// handler is invoked even when an earlier one fails; the failures are
// combined into a single error.
type Composite struct {
	handlers []Handler
}

// NewComposite returns a Composite over the given handlers. Nil entries are
// skipped.
func NewComposite(handlers ...Handler) *Composite {
	c := &Composite{handlers: make([]Handler, 0, len(handlers))}
	for _, h := range handlers {
		if h != nil {
			c.handlers = append(c.handlers, h)
		}
	}
	return c
}

// Add appends a handler.
func (c *Composite) Add(h Handler) {
	if h != nil {
		c.handlers = append(c.handlers, h)
	}
}

// Len returns the number of handlers.
func (c *Composite) Len() int {
	return len(c.handlers)
}

func (c *Composite) each(fn func(Handler) error) error {
	var err error
	for _, h := range c.handlers {
		err = multierr.Append(err, fn(h))
	}
	return err
}

// Initialize initializes every handler. If any fails, the handlers that
// succeeded are closed again before the combined error is returned.
func (c *Composite) Initialize() error {
	var err error
	ready := make([]Handler, 0, len(c.handlers))
	for _, h := range c.handlers {
		if initErr := h.Initialize(); initErr != nil {
			err = multierr.Append(err, initErr)
			continue
		}
		ready = append(ready, h)
	}
	if err == nil {
		return nil
	}
	for _, h := range ready {
		err = multierr.Append(err, h.Close())
	}
	return err
}

func (c *Composite) OnSubscriptions(ev *protocol.SubscriptionsEvent) error {
	return c.each(func(h Handler) error { return h.OnSubscriptions(ev) })
}

func (c *Composite) OnHeartbeat(ev *protocol.HeartbeatEvent) error {
	return c.each(func(h Handler) error { return h.OnHeartbeat(ev) })
}

func (c *Composite) OnStatus(ev *protocol.StatusEvent) error {
	return c.each(func(h Handler) error { return h.OnStatus(ev) })
}

func (c *Composite) OnTicker(ev *protocol.TickerEvent) error {
	return c.each(func(h Handler) error { return h.OnTicker(ev) })
}

func (c *Composite) OnSnapshot(ev *protocol.SnapshotEvent) error {
	return c.each(func(h Handler) error { return h.OnSnapshot(ev) })
}

func (c *Composite) OnL2Update(ev *protocol.L2UpdateEvent) error {
	return c.each(func(h Handler) error { return h.OnL2Update(ev) })
}

func (c *Composite) OnMatch(ev *protocol.MatchEvent) error {
	return c.each(func(h Handler) error { return h.OnMatch(ev) })
}

func (c *Composite) OnReceived(ev *protocol.ReceivedEvent) error {
	return c.each(func(h Handler) error { return h.OnReceived(ev) })
}

func (c *Composite) OnOpen(ev *protocol.OpenEvent) error {
	return c.each(func(h Handler) error { return h.OnOpen(ev) })
}

func (c *Composite) OnChange(ev *protocol.ChangeEvent) error {
	return c.each(func(h Handler) error { return h.OnChange(ev) })
}

func (c *Composite) OnDone(ev *protocol.DoneEvent) error {
	return c.each(func(h Handler) error { return h.OnDone(ev) })
}

func (c *Composite) OnActive(ev *protocol.ActiveEvent) error {
	return c.each(func(h Handler) error { return h.OnActive(ev) })
}

func (c *Composite) OnLastMatch(ev *protocol.LastMatchEvent) error {
	return c.each(func(h Handler) error { return h.OnLastMatch(ev) })
}

func (c *Composite) OnError(ev *protocol.ErrorEvent) error {
	return c.each(func(h Handler) error { return h.OnError(ev) })
}

func (c *Composite) Close() error {
	return c.each(func(h Handler) error { return h.Close() })
}
