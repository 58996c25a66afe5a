package feed

import (
	"log/slog"

	"github.com/fredo994/coinbase-feed/internal/protocol"
)

// Controller submits commands to a Client's worker. It is safe for
// concurrent use.
type Controller struct {
	commands chan<- command
	done     <-chan struct{}
	logger   *slog.Logger
}

// Subscribe adds products and channels to the session. It blocks while the
// command queue is full. If the worker has exited the command is dropped
// and logged.
func (c *Controller) Subscribe(productIDs []string, channels []protocol.ChannelSpec) {
	c.send(command{
		kind:       cmdSubscribe,
		productIDs: cloneStrings(productIDs),
		channels:   cloneChannels(channels),
	})
}

// Unsubscribe removes products and channels from the session. An empty
// productIDs unsubscribes every product from the given channels.
func (c *Controller) Unsubscribe(productIDs []string, channels []protocol.ChannelSpec) {
	c.send(command{
		kind:       cmdUnsubscribe,
		productIDs: cloneStrings(productIDs),
		channels:   cloneChannels(channels),
	})
}

func (c *Controller) send(cmd command) {
	select {
	case <-c.done:
		c.dropped(cmd)
		return
	default:
	}

	select {
	case c.commands <- cmd:
	case <-c.done:
		c.dropped(cmd)
	}
}

func (c *Controller) dropped(cmd command) {
	c.logger.Warn("feed worker has exited, dropping command",
		"command", cmd.kind.String(),
		"products", cmd.productIDs,
		"channels", len(cmd.channels),
	)
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func cloneChannels(in []protocol.ChannelSpec) []protocol.ChannelSpec {
	if in == nil {
		return nil
	}
	out := make([]protocol.ChannelSpec, len(in))
	for i, ch := range in {
		out[i] = protocol.ChannelSpec{Name: ch.Name, ProductIDs: cloneStrings(ch.ProductIDs)}
	}
	return out
}
