package protocol

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestDecode_Heartbeat(t *testing.T) {
	data := `{
		"type": "heartbeat",
		"sequence": 90,
		"last_trade_id": 20,
		"product_id": "BTC-USD",
		"time": "2014-11-07T08:19:28.464459Z"
	}`

	ev, err := Decode([]byte(data))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	hb, ok := ev.(*HeartbeatEvent)
	if !ok {
		t.Fatalf("event = %T, want *HeartbeatEvent", ev)
	}
	if hb.Sequence != 90 {
		t.Errorf("Sequence = %d, want 90", hb.Sequence)
	}
	if hb.LastTradeID != 20 {
		t.Errorf("LastTradeID = %d, want 20", hb.LastTradeID)
	}
	want := time.Date(2014, 11, 7, 8, 19, 28, 464459000, time.UTC)
	if !hb.Time.Equal(want) {
		t.Errorf("Time = %v, want %v", hb.Time, want)
	}
}

func TestDecode_Ticker(t *testing.T) {
	data := `{
		"type":"ticker",
		"product_id":"ETH-USD",
		"sequence":10182181199,
		"price":"432.39",
		"trade_id":62994234,
		"side":"sell",
		"time":"2020-08-31T14:37:46.082020Z",
		"last_size":"16.18415683",
		"best_bid":"432.39",
		"best_ask":"432.47"
	}`

	ev, err := Decode([]byte(data))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	tick, ok := ev.(*TickerEvent)
	if !ok {
		t.Fatalf("event = %T, want *TickerEvent", ev)
	}
	if tick.ProductID != "ETH-USD" {
		t.Errorf("ProductID = %q, want ETH-USD", tick.ProductID)
	}
	if !tick.Price.Equal(decimal.RequireFromString("432.39")) {
		t.Errorf("Price = %s, want 432.39", tick.Price)
	}
	if tick.Side != SideSell {
		t.Errorf("Side = %q, want sell", tick.Side)
	}
	if !tick.LastSize.Equal(decimal.RequireFromString("16.18415683")) {
		t.Errorf("LastSize = %s, want 16.18415683", tick.LastSize)
	}
}

func TestDecode_Done(t *testing.T) {
	data := `{
		"type":"done",
		"side":"buy",
		"product_id":"ETH-USD",
		"time":"2020-08-31T14:55:23.850342Z",
		"sequence":10182302147,
		"order_id":"478e4673-4ad5-4138-b943-c168081f7e4a",
		"reason":"canceled",
		"price":"434.1",
		"remaining_size":"0.63324286"
	}`

	ev, err := Decode([]byte(data))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	done, ok := ev.(*DoneEvent)
	if !ok {
		t.Fatalf("event = %T, want *DoneEvent", ev)
	}
	if done.Reason != ReasonCanceled {
		t.Errorf("Reason = %q, want canceled", done.Reason)
	}
	if !done.Price.Valid || !done.Price.Decimal.Equal(decimal.RequireFromString("434.1")) {
		t.Errorf("Price = %+v, want 434.1", done.Price)
	}
}

func TestDecode_SnapshotAndL2Update(t *testing.T) {
	snap := `{"type":"snapshot","product_id":"BTC-USD","bids":[["10101.10","0.45054140"]],"asks":[["10102.55","0.57753524"]]}`

	ev, err := Decode([]byte(snap))
	if err != nil {
		t.Fatalf("Decode snapshot failed: %v", err)
	}
	s, ok := ev.(*SnapshotEvent)
	if !ok {
		t.Fatalf("event = %T, want *SnapshotEvent", ev)
	}
	if len(s.Bids) != 1 || len(s.Asks) != 1 {
		t.Fatalf("levels = %d bids, %d asks, want 1 and 1", len(s.Bids), len(s.Asks))
	}
	if !s.Bids[0].Price.Equal(decimal.RequireFromString("10101.10")) {
		t.Errorf("bid price = %s, want 10101.10", s.Bids[0].Price)
	}

	upd := `{"type":"l2update","product_id":"BTC-USD","time":"2019-08-14T20:42:27.265Z","changes":[["buy","10101.80000000","0.162567"],["sell","10102.00","0"]]}`

	ev, err = Decode([]byte(upd))
	if err != nil {
		t.Fatalf("Decode l2update failed: %v", err)
	}
	u, ok := ev.(*L2UpdateEvent)
	if !ok {
		t.Fatalf("event = %T, want *L2UpdateEvent", ev)
	}
	if len(u.Changes) != 2 {
		t.Fatalf("changes = %d, want 2", len(u.Changes))
	}
	if u.Changes[0].Side != SideBuy {
		t.Errorf("change[0].Side = %q, want buy", u.Changes[0].Side)
	}
	if !u.Changes[1].Size.IsZero() {
		t.Errorf("change[1].Size = %s, want 0", u.Changes[1].Size)
	}
}

func TestDecode_SubscriptionsAck(t *testing.T) {
	data := `{"type":"subscriptions","channels":[{"name":"level2","product_ids":["ETH-USD","ETH-EUR"]},"heartbeat"]}`

	ev, err := Decode([]byte(data))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	sub, ok := ev.(*SubscriptionsEvent)
	if !ok {
		t.Fatalf("event = %T, want *SubscriptionsEvent", ev)
	}
	if len(sub.Channels) != 2 {
		t.Fatalf("channels = %d, want 2", len(sub.Channels))
	}
	if !sub.Channels[0].Equal(ChannelFor(ChannelLevel2, "ETH-USD", "ETH-EUR")) {
		t.Errorf("channels[0] = %v", sub.Channels[0])
	}
	if !sub.Channels[1].Equal(Channel(ChannelHeartbeat)) {
		t.Errorf("channels[1] = %v", sub.Channels[1])
	}
}

func TestDecode_Status(t *testing.T) {
	data := `{
		"type":"status",
		"currencies":[{"id":"ALGO","name":"Algorand","min_size":"1.00000000","status":"online","status_message":"","max_precision":"0.000001","convertible_to":[]}],
		"products":[{"id":"BTC-USD","base_currency":"BTC","quote_currency":"USD","base_min_size":"0.001","base_increment":"0.00000001","quote_increment":"0.01","display_name":"BTC/USD","status":"online","min_market_funds":"10","max_market_funds":"1000000","post_only":false,"limit_only":false,"cancel_only":false}]
	}`

	ev, err := Decode([]byte(data))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	st, ok := ev.(*StatusEvent)
	if !ok {
		t.Fatalf("event = %T, want *StatusEvent", ev)
	}
	if len(st.Products) != 1 || st.Products[0].ID != "BTC-USD" {
		t.Errorf("products = %+v", st.Products)
	}
	if st.Products[0].BaseMaxSize.Valid {
		t.Error("absent base_max_size should be invalid")
	}
	if len(st.Currencies) != 1 || st.Currencies[0].ID != "ALGO" {
		t.Errorf("currencies = %+v", st.Currencies)
	}
}

func TestDecode_AllTypes(t *testing.T) {
	tests := []struct {
		data string
		want MessageType
	}{
		{`{"type":"subscriptions","channels":[]}`, TypeSubscriptions},
		{`{"type":"heartbeat","product_id":"BTC-USD"}`, TypeHeartbeat},
		{`{"type":"status","products":[],"currencies":[]}`, TypeStatus},
		{`{"type":"ticker","product_id":"BTC-USD","price":"1"}`, TypeTicker},
		{`{"type":"snapshot","product_id":"BTC-USD","bids":[],"asks":[]}`, TypeSnapshot},
		{`{"type":"l2update","product_id":"BTC-USD","changes":[]}`, TypeL2Update},
		{`{"type":"match","product_id":"BTC-USD","size":"1","price":"2"}`, TypeMatch},
		{`{"type":"received","order_type":"market","funds":"3000.23"}`, TypeReceived},
		{`{"type":"open","remaining_size":"1.00"}`, TypeOpen},
		{`{"type":"change","new_size":"5","old_size":"12"}`, TypeChange},
		{`{"type":"done","reason":"filled"}`, TypeDone},
		{`{"type":"active","stop_type":"entry","private":true}`, TypeActive},
		{`{"type":"last_match","trade_id":1}`, TypeLastMatch},
		{`{"type":"error","message":"Failed to subscribe","reason":"product not found"}`, TypeError},
	}

	for _, tt := range tests {
		t.Run(string(tt.want), func(t *testing.T) {
			ev, err := Decode([]byte(tt.data))
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if ev.Type() != tt.want {
				t.Errorf("Type() = %q, want %q", ev.Type(), tt.want)
			}
		})
	}
}

func TestDecode_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr error
	}{
		{name: "unknown type", data: `{"type":"candles"}`, wantErr: ErrUnknownMessage},
		{name: "missing type", data: `{"product_id":"BTC-USD"}`, wantErr: ErrUnknownMessage},
		{name: "not json", data: `{"type":`},
		{name: "bad field type", data: `{"type":"ticker","trade_id":"abc"}`},
		{name: "bad change tuple", data: `{"type":"l2update","changes":[["buy","1"]]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.data))
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestEncode_TagsEvent(t *testing.T) {
	ev := &HeartbeatEvent{Sequence: 7, ProductID: "BTC-USD", Time: time.Unix(0, 0).UTC()}

	data, err := Encode(ev)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if fields["type"] != "heartbeat" {
		t.Errorf("type = %v, want heartbeat", fields["type"])
	}

	back, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if back.(*HeartbeatEvent).Sequence != 7 {
		t.Errorf("Sequence = %d, want 7", back.(*HeartbeatEvent).Sequence)
	}
}
