package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/fredo994/coinbase-feed/internal/handler"
	"github.com/fredo994/coinbase-feed/internal/protocol"
)

const namespace = "coinbase_feed"

// Collector holds the feed's Prometheus metrics. It implements both
// handler.Handler, counting dispatched events, and feed.Metrics.
type Collector struct {
	handler.Nop

	events         *prometheus.CounterVec
	connects       *prometheus.CounterVec
	reconnects     prometheus.Counter
	frames         *prometheus.CounterVec
	decodeFailures prometheus.Counter
	lastSequence   *prometheus.GaugeVec
}

// New creates a Collector and registers it with reg. A nil reg uses the
// default registerer.
func New(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	c := &Collector{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Decoded feed events by type.",
		}, []string{"type"}),
		connects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connect_attempts_total",
			Help:      "WebSocket connect attempts by result.",
		}, []string{"success"}),
		reconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconnects_total",
			Help:      "Reconnect cycles after a close frame or transport failure.",
		}),
		frames: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_total",
			Help:      "WebSocket frames received by kind.",
		}, []string{"kind"}),
		decodeFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decode_failures_total",
			Help:      "Text frames dropped because they could not be decoded.",
		}),
		lastSequence: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_sequence",
			Help:      "Last sequence number seen per product.",
		}, []string{"product_id"}),
	}

	collectors := []prometheus.Collector{
		c.events, c.connects, c.reconnects, c.frames, c.decodeFailures, c.lastSequence,
	}
	for _, col := range collectors {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// feed.Metrics

func (c *Collector) ConnectAttempt(success bool) {
	c.connects.WithLabelValues(strconv.FormatBool(success)).Inc()
}

func (c *Collector) Reconnect() {
	c.reconnects.Inc()
}

func (c *Collector) Frame(kind string) {
	c.frames.WithLabelValues(kind).Inc()
}

func (c *Collector) DecodeFailure() {
	c.decodeFailures.Inc()
}

// handler.Handler

func (c *Collector) count(ev protocol.Event) error {
	c.events.WithLabelValues(string(ev.Type())).Inc()
	return nil
}

func (c *Collector) sequence(productID string, seq int64) {
	if productID != "" && seq > 0 {
		c.lastSequence.WithLabelValues(productID).Set(float64(seq))
	}
}

func (c *Collector) OnSubscriptions(ev *protocol.SubscriptionsEvent) error { return c.count(ev) }
func (c *Collector) OnStatus(ev *protocol.StatusEvent) error               { return c.count(ev) }
func (c *Collector) OnSnapshot(ev *protocol.SnapshotEvent) error           { return c.count(ev) }
func (c *Collector) OnL2Update(ev *protocol.L2UpdateEvent) error           { return c.count(ev) }
func (c *Collector) OnActive(ev *protocol.ActiveEvent) error               { return c.count(ev) }
func (c *Collector) OnError(ev *protocol.ErrorEvent) error                 { return c.count(ev) }

func (c *Collector) OnHeartbeat(ev *protocol.HeartbeatEvent) error {
	c.sequence(ev.ProductID, ev.Sequence)
	return c.count(ev)
}

func (c *Collector) OnTicker(ev *protocol.TickerEvent) error {
	c.sequence(ev.ProductID, ev.Sequence)
	return c.count(ev)
}

func (c *Collector) OnMatch(ev *protocol.MatchEvent) error {
	c.sequence(ev.ProductID, ev.Sequence)
	return c.count(ev)
}

func (c *Collector) OnLastMatch(ev *protocol.LastMatchEvent) error {
	c.sequence(ev.ProductID, ev.Sequence)
	return c.count(ev)
}

func (c *Collector) OnReceived(ev *protocol.ReceivedEvent) error {
	c.sequence(ev.ProductID, ev.Sequence)
	return c.count(ev)
}

func (c *Collector) OnOpen(ev *protocol.OpenEvent) error {
	c.sequence(ev.ProductID, ev.Sequence)
	return c.count(ev)
}

func (c *Collector) OnChange(ev *protocol.ChangeEvent) error {
	c.sequence(ev.ProductID, ev.Sequence)
	return c.count(ev)
}

func (c *Collector) OnDone(ev *protocol.DoneEvent) error {
	c.sequence(ev.ProductID, ev.Sequence)
	return c.count(ev)
}
