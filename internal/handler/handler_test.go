package handler

import (
	"errors"
	"testing"

	"github.com/fredo994/coinbase-feed/internal/protocol"
	"go.uber.org/multierr"
)

// recorder counts callbacks and optionally fails them.
type recorder struct {
	Nop
	name  string
	fail  error
	calls []string
}

func (r *recorder) Initialize() error {
	r.calls = append(r.calls, "initialize")
	return r.fail
}

func (r *recorder) OnTicker(ev *protocol.TickerEvent) error {
	r.calls = append(r.calls, "ticker:"+ev.ProductID)
	return r.fail
}

func (r *recorder) OnHeartbeat(ev *protocol.HeartbeatEvent) error {
	r.calls = append(r.calls, "heartbeat:"+ev.ProductID)
	return r.fail
}

func (r *recorder) Close() error {
	r.calls = append(r.calls, "close")
	return r.fail
}

func TestNop_ImplementsHandler(t *testing.T) {
	var h Handler = Nop{}
	if err := h.Initialize(); err != nil {
		t.Errorf("Initialize() = %v", err)
	}
	if err := h.OnStatus(&protocol.StatusEvent{}); err != nil {
		t.Errorf("OnStatus() = %v", err)
	}
	if err := h.Close(); err != nil {
		t.Errorf("Close() = %v", err)
	}
}

func TestDispatch_RoutesByType(t *testing.T) {
	r := &recorder{}

	if err := Dispatch(r, &protocol.TickerEvent{ProductID: "BTC-USD"}); err != nil {
		t.Fatalf("Dispatch ticker: %v", err)
	}
	if err := Dispatch(r, &protocol.HeartbeatEvent{ProductID: "ETH-USD"}); err != nil {
		t.Fatalf("Dispatch heartbeat: %v", err)
	}
	// Falls through to the embedded Nop.
	if err := Dispatch(r, &protocol.MatchEvent{}); err != nil {
		t.Fatalf("Dispatch match: %v", err)
	}

	want := []string{"ticker:BTC-USD", "heartbeat:ETH-USD"}
	if len(r.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", r.calls, want)
	}
	for i := range want {
		if r.calls[i] != want[i] {
			t.Errorf("calls[%d] = %q, want %q", i, r.calls[i], want[i])
		}
	}
}

func TestDispatch_AllEventTypes(t *testing.T) {
	events := []protocol.Event{
		&protocol.SubscriptionsEvent{},
		&protocol.HeartbeatEvent{},
		&protocol.StatusEvent{},
		&protocol.TickerEvent{},
		&protocol.SnapshotEvent{},
		&protocol.L2UpdateEvent{},
		&protocol.MatchEvent{},
		&protocol.ReceivedEvent{},
		&protocol.OpenEvent{},
		&protocol.ChangeEvent{},
		&protocol.DoneEvent{},
		&protocol.ActiveEvent{},
		&protocol.LastMatchEvent{},
		&protocol.ErrorEvent{},
	}

	for _, ev := range events {
		t.Run(string(ev.Type()), func(t *testing.T) {
			if err := Dispatch(Nop{}, ev); err != nil {
				t.Errorf("Dispatch(%T) = %v", ev, err)
			}
		})
	}
}

func TestDispatch_PropagatesError(t *testing.T) {
	r := &recorder{fail: ErrTerminate}
	err := Dispatch(r, &protocol.TickerEvent{})
	if !errors.Is(err, ErrTerminate) {
		t.Errorf("Dispatch() = %v, want ErrTerminate", err)
	}
}

func TestComposite_NoShortCircuit(t *testing.T) {
	errB := errors.New("b failed")
	a := &recorder{name: "a"}
	b := &recorder{name: "b", fail: errB}
	c := &recorder{name: "c"}

	comp := NewComposite(a, b, c)

	for i := 0; i < 3; i++ {
		err := Dispatch(comp, &protocol.TickerEvent{ProductID: "BTC-USD"})
		if !errors.Is(err, errB) {
			t.Fatalf("event %d: error = %v, want %v", i, err, errB)
		}
	}

	for _, r := range []*recorder{a, b, c} {
		if len(r.calls) != 3 {
			t.Errorf("sink %s called %d times, want 3", r.name, len(r.calls))
		}
	}
}

func TestComposite_CollectsAllFailures(t *testing.T) {
	errA := errors.New("a failed")
	errC := errors.New("c failed")
	comp := NewComposite(
		&recorder{fail: errA},
		&recorder{},
		&recorder{fail: errC},
	)

	err := comp.Close()
	if err == nil {
		t.Fatal("expected error")
	}
	errs := multierr.Errors(err)
	if len(errs) != 2 {
		t.Fatalf("got %d errors, want 2: %v", len(errs), err)
	}
	if !errors.Is(err, errA) || !errors.Is(err, errC) {
		t.Errorf("combined error %v missing a sink failure", err)
	}
}

func TestComposite_AllOK(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	comp := NewComposite(a, nil, b)

	if comp.Len() != 2 {
		t.Errorf("Len() = %d, want 2", comp.Len())
	}
	if err := comp.Initialize(); err != nil {
		t.Errorf("Initialize() = %v", err)
	}
	if err := comp.OnDone(&protocol.DoneEvent{}); err != nil {
		t.Errorf("OnDone() = %v", err)
	}
	if len(a.calls) != 1 || a.calls[0] != "initialize" {
		t.Errorf("a.calls = %v", a.calls)
	}
}

func TestComposite_Empty(t *testing.T) {
	comp := NewComposite()
	if err := Dispatch(comp, &protocol.StatusEvent{}); err != nil {
		t.Errorf("Dispatch() = %v", err)
	}
}

func TestComposite_InitializeFailureClosesReadySinks(t *testing.T) {
	errB := errors.New("b failed")
	a := &recorder{name: "a"}
	b := &recorder{name: "b", fail: errB}
	c := &recorder{name: "c"}

	err := NewComposite(a, b, c).Initialize()
	if !errors.Is(err, errB) {
		t.Fatalf("Initialize() = %v, want %v", err, errB)
	}

	for _, r := range []*recorder{a, c} {
		want := []string{"initialize", "close"}
		if len(r.calls) != 2 || r.calls[0] != want[0] || r.calls[1] != want[1] {
			t.Errorf("sink %s calls = %v, want %v", r.name, r.calls, want)
		}
	}
	if len(b.calls) != 1 {
		t.Errorf("failed sink b calls = %v, want only initialize", b.calls)
	}
}
