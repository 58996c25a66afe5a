package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fredo994/coinbase-feed/internal/connection"
	"github.com/fredo994/coinbase-feed/internal/handler"
	"github.com/fredo994/coinbase-feed/internal/protocol"
)

// maxLoggedFrame bounds the payload included in decode-failure logs.
const maxLoggedFrame = 256

var errQueueClosed = errors.New("command queue closed")

// worker owns the socket and the subscription set. All of its state is
// confined to the goroutine running run.
type worker struct {
	url      string
	dialer   connection.Dialer
	handler  handler.Handler
	logger   *slog.Logger
	metrics  Metrics
	timing   timing
	commands <-chan command
	done     chan struct{}

	subs        *subscriptionSet
	sock        connection.Socket
	lastAttempt time.Time
	initialized bool
}

func (w *worker) run() {
	defer close(w.done)
	defer w.shutdown()

	if !w.awaitFirstConnection() {
		return
	}

	if err := w.handler.Initialize(); err != nil {
		w.logger.Error("handler initialize failed", "error", err)
		return
	}
	w.initialized = true

	for {
		switch w.step() {
		case outcomeContinue:
		case outcomeReconnect:
			w.metrics.Reconnect()
			if err := w.connectAndSubscribe(); err != nil {
				w.logger.Error("reconnect failed, stopping", "error", err)
				return
			}
			w.logger.Info("reconnected and resubscribed")
		case outcomeTerminal:
			return
		}
	}
}

// awaitFirstConnection polls the queue until a subscribe command arrives
// and the first connection is established. It returns false if the worker
// should exit.
func (w *worker) awaitFirstConnection() bool {
	start := time.Now()

	for {
		select {
		case cmd, ok := <-w.commands:
			if !ok {
				w.logger.Error("illegal state", "error", errQueueClosed)
				return false
			}

			switch cmd.kind {
			case cmdSubscribe:
				w.subs.add(cmd.productIDs, cmd.channels)
				if err := w.connectAndSubscribe(); err != nil {
					w.logger.Error("initial subscription failed", "error", err)
					return false
				}
				return true
			case cmdUnsubscribe:
				w.logger.Info("no connection yet, ignoring unsubscribe",
					"products", cmd.productIDs,
					"channels", cmd.channels,
				)
			case cmdStop:
				w.logger.Info("stop requested before first subscription")
				return false
			}

		default:
			if waited := time.Since(start); waited >= w.timing.idleWarnAfter {
				w.logger.Warn("still waiting for first subscription", "waited", waited.Round(time.Millisecond))
			}
			time.Sleep(w.timing.idlePoll)
		}
	}
}

// step handles one pending command, or reads and dispatches one frame.
func (w *worker) step() outcome {
	select {
	case cmd, ok := <-w.commands:
		if !ok {
			w.logger.Error("illegal state", "error", errQueueClosed)
			return outcomeTerminal
		}
		return w.handleCommand(cmd)
	default:
	}

	frame, err := w.sock.Receive()
	if err != nil {
		return w.transportError("receive", err)
	}
	return w.dispatch(frame)
}

func (w *worker) handleCommand(cmd command) outcome {
	switch cmd.kind {
	case cmdSubscribe:
		w.subs.add(cmd.productIDs, cmd.channels)
		if err := w.subscribe(); err != nil {
			return w.transportError("subscribe", err)
		}

	case cmdUnsubscribe:
		w.subs.remove(cmd.productIDs, cmd.channels)
		req := unsubscribeRequest(cmd.productIDs, cmd.channels)
		if err := w.send(req); err != nil {
			return w.transportError("unsubscribe", err)
		}
		products, channels := w.subs.len()
		w.logger.Debug("unsubscribed", "remaining_products", products, "remaining_channels", channels)

	case cmdStop:
		w.logger.Info("stop requested")
		return outcomeTerminal
	}
	return outcomeContinue
}

func (w *worker) dispatch(frame connection.Frame) outcome {
	w.metrics.Frame(frame.Kind.String())

	switch frame.Kind {
	case connection.FrameText:
		ev, err := protocol.Decode([]byte(frame.Text))
		if err != nil {
			w.metrics.DecodeFailure()
			w.logger.Warn("dropping undecodable message", "error", err, "payload", truncate(frame.Text))
			return outcomeContinue
		}
		if err := handler.Dispatch(w.handler, ev); err != nil {
			w.logger.Error("handler requested termination", "type", ev.Type(), "error", err)
			return outcomeTerminal
		}

	case connection.FrameClose:
		w.logger.Warn("server sent close frame",
			"code", frame.CloseCode,
			"reason", frame.CloseReason,
		)
		return outcomeReconnect

	case connection.FramePing, connection.FramePong:
		w.logger.Debug("control frame", "kind", frame.Kind.String())

	case connection.FrameBinary:
		w.logger.Warn("unexpected binary frame", "bytes", len(frame.Data))
	}
	return outcomeContinue
}

// transportError logs err and classifies it.
func (w *worker) transportError(op string, err error) outcome {
	o := classify(err)
	switch o {
	case outcomeTerminal:
		w.logger.Error("connection closed", "op", op, "error", err)
	case outcomeReconnect:
		w.logger.Warn("connection lost, reconnecting", "op", op, "error", err)
	default:
		w.logger.Warn("transport error ignored", "op", op, "error", err)
	}
	return o
}

func (w *worker) connectAndSubscribe() error {
	if err := w.connect(); err != nil {
		return err
	}
	return w.subscribe()
}

// connect dials until it succeeds or the transport reports the connection
// as deliberately closed. Attempts are at least minConnectInterval apart.
func (w *worker) connect() error {
	for {
		if time.Since(w.lastAttempt) < w.timing.minConnectInterval {
			time.Sleep(w.timing.connectRetrySleep)
			continue
		}
		w.lastAttempt = time.Now()

		sock, info, err := w.dialer.Connect(context.Background(), w.url)
		if err != nil {
			w.metrics.ConnectAttempt(false)
			if errors.Is(err, connection.ErrConnectionClosed) {
				return fmt.Errorf("connect: %w", err)
			}
			w.logger.Warn("connect failed, retrying", "url", w.url, "error", err)
			continue
		}
		w.metrics.ConnectAttempt(true)

		if w.sock != nil {
			w.sock.Close()
		}
		w.sock = sock

		w.logger.Info("connected",
			"url", w.url,
			"status", info.StatusCode,
			"headers", info.Header,
		)
		return nil
	}
}

// subscribe sends the entire subscription set.
func (w *worker) subscribe() error {
	req := w.subs.subscribeRequest()
	if err := w.send(req); err != nil {
		return err
	}
	w.logger.Info("subscribed",
		"products", req.ProductIDs,
		"channels", len(req.Channels),
	)
	return nil
}

func (w *worker) send(req protocol.Request) error {
	if w.sock == nil {
		return connection.ErrAlreadyClosed
	}
	data, err := protocol.EncodeRequest(req)
	if err != nil {
		return err
	}
	if err := w.sock.Send(string(data)); err != nil {
		return fmt.Errorf("send %s: %w", req.RequestType(), err)
	}
	return nil
}

func (w *worker) shutdown() {
	if w.sock != nil {
		w.sock.Close()
		w.sock = nil
	}
	if w.initialized {
		if err := w.handler.Close(); err != nil {
			w.logger.Error("handler close failed", "error", err)
		}
	}
	w.logger.Info("feed worker exiting")
}

func truncate(s string) string {
	if len(s) <= maxLoggedFrame {
		return s
	}
	return s[:maxLoggedFrame] + "..."
}
