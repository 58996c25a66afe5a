package protocol

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Side is the order side.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// OrderType is the type of a received order.
type OrderType string

const (
	OrderLimit  OrderType = "limit"
	OrderMarket OrderType = "market"
	OrderStop   OrderType = "stop"
)

// DoneReason explains why an order left the book.
type DoneReason string

const (
	ReasonFilled   DoneReason = "filled"
	ReasonCanceled DoneReason = "canceled"
)

// -----------------------------------------------------------------------------
// Events
// -----------------------------------------------------------------------------

// SubscriptionsEvent acknowledges the session's current subscriptions.
type SubscriptionsEvent struct {
	Channels []ChannelSpec `json:"channels"`
}

// HeartbeatEvent is sent once a second per product on the heartbeat channel.
type HeartbeatEvent struct {
	Sequence    int64     `json:"sequence"`
	LastTradeID int64     `json:"last_trade_id"`
	ProductID   string    `json:"product_id"`
	Time        time.Time `json:"time"`
}

// StatusEvent lists all products and currencies.
type StatusEvent struct {
	Products   []Product  `json:"products"`
	Currencies []Currency `json:"currencies"`
}

// TickerEvent is a real-time price update after a match.
type TickerEvent struct {
	TradeID   int64           `json:"trade_id"`
	Sequence  int64           `json:"sequence"`
	Time      time.Time       `json:"time"`
	ProductID string          `json:"product_id"`
	Price     decimal.Decimal `json:"price"`
	Side      Side            `json:"side"`
	LastSize  decimal.Decimal `json:"last_size"`
	BestBid   decimal.Decimal `json:"best_bid"`
	BestAsk   decimal.Decimal `json:"best_ask"`
}

// SnapshotEvent is the initial level2 order book.
type SnapshotEvent struct {
	ProductID string       `json:"product_id"`
	Bids      []PriceLevel `json:"bids"`
	Asks      []PriceLevel `json:"asks"`
}

// L2UpdateEvent carries level2 order book changes.
type L2UpdateEvent struct {
	ProductID string     `json:"product_id"`
	Time      time.Time  `json:"time"`
	Changes   []L2Change `json:"changes"`
}

// MatchEvent is a trade between two orders.
type MatchEvent struct {
	Time         time.Time       `json:"time"`
	ProductID    string          `json:"product_id"`
	Sequence     int64           `json:"sequence"`
	TradeID      int64           `json:"trade_id"`
	MakerOrderID string          `json:"maker_order_id"`
	TakerOrderID string          `json:"taker_order_id"`
	Size         decimal.Decimal `json:"size"`
	Price        decimal.Decimal `json:"price"`
	Side         Side            `json:"side"`
}

// LastMatchEvent is the most recent match, sent on subscribing to matches.
type LastMatchEvent MatchEvent

// ReceivedEvent is a valid order accepted by the matching engine.
type ReceivedEvent struct {
	Time      time.Time           `json:"time"`
	ProductID string              `json:"product_id"`
	Sequence  int64               `json:"sequence"`
	OrderID   string              `json:"order_id"`
	Side      Side                `json:"side"`
	OrderType OrderType           `json:"order_type"`
	Size      decimal.NullDecimal `json:"size"`  // limit orders
	Price     decimal.NullDecimal `json:"price"` // limit orders
	Funds     decimal.NullDecimal `json:"funds"` // market orders
}

// OpenEvent is an order now resting on the book.
type OpenEvent struct {
	Time          time.Time       `json:"time"`
	ProductID     string          `json:"product_id"`
	Sequence      int64           `json:"sequence"`
	OrderID       string          `json:"order_id"`
	Price         decimal.Decimal `json:"price"`
	Side          Side            `json:"side"`
	RemainingSize decimal.Decimal `json:"remaining_size"`
}

// ChangeEvent is an order modified in place.
type ChangeEvent struct {
	Time      time.Time           `json:"time"`
	ProductID string              `json:"product_id"`
	Sequence  int64               `json:"sequence"`
	OrderID   string              `json:"order_id"`
	NewSize   decimal.Decimal     `json:"new_size"`
	OldSize   decimal.Decimal     `json:"old_size"`
	Price     decimal.NullDecimal `json:"price"`
	Side      Side                `json:"side"`
}

// DoneEvent is an order no longer on the book.
type DoneEvent struct {
	Time          time.Time           `json:"time"`
	ProductID     string              `json:"product_id"`
	Sequence      int64               `json:"sequence"`
	OrderID       string              `json:"order_id"`
	Reason        DoneReason          `json:"reason"`
	Side          Side                `json:"side"`
	Price         decimal.NullDecimal `json:"price"`
	RemainingSize decimal.NullDecimal `json:"remaining_size"`
}

// ActiveEvent is a stop order activated by the engine.
type ActiveEvent struct {
	Time      time.Time       `json:"time"`
	ProductID string          `json:"product_id"`
	OrderID   string          `json:"order_id"`
	UserID    string          `json:"user_id"`
	ProfileID string          `json:"profile_id"`
	Timestamp string          `json:"timestamp"`
	StopType  string          `json:"stop_type"`
	Side      Side            `json:"side"`
	StopPrice decimal.Decimal `json:"stop_price"`
	Size      decimal.Decimal `json:"size"`
	Funds     decimal.Decimal `json:"funds"`
	Private   bool            `json:"private"`
}

// ErrorEvent is an error reported by the feed.
type ErrorEvent struct {
	Message string `json:"message"`
	Reason  string `json:"reason,omitempty"`
}

// -----------------------------------------------------------------------------
// Nested types
// -----------------------------------------------------------------------------

// Product is a tradeable pair listed in a status event.
type Product struct {
	ID             string              `json:"id"`
	BaseCurrency   string              `json:"base_currency"`
	QuoteCurrency  string              `json:"quote_currency"`
	BaseMinSize    decimal.NullDecimal `json:"base_min_size"`
	BaseMaxSize    decimal.NullDecimal `json:"base_max_size"`
	BaseIncrement  decimal.NullDecimal `json:"base_increment"`
	QuoteIncrement decimal.NullDecimal `json:"quote_increment"`
	DisplayName    string              `json:"display_name"`
	Status         string              `json:"status,omitempty"`
	StatusMessage  string              `json:"status_message,omitempty"`
	MinMarketFunds decimal.NullDecimal `json:"min_market_funds"`
	MaxMarketFunds decimal.NullDecimal `json:"max_market_funds"`
	PostOnly       bool                `json:"post_only"`
	LimitOnly      bool                `json:"limit_only"`
	CancelOnly     bool                `json:"cancel_only"`
}

// Currency is a currency listed in a status event.
type Currency struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	MinSize       decimal.Decimal `json:"min_size"`
	Status        string          `json:"status"`
	StatusMessage string          `json:"status_message,omitempty"`
	MaxPrecision  decimal.Decimal `json:"max_precision"`
	ConvertibleTo []string        `json:"convertible_to"`
}

// PriceLevel is a [price, size] entry of a snapshot.
type PriceLevel struct {
	Price decimal.Decimal
	Size  decimal.Decimal
}

func (p PriceLevel) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]decimal.Decimal{p.Price, p.Size})
}

func (p *PriceLevel) UnmarshalJSON(data []byte) error {
	var raw []decimal.Decimal
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode price level: %w", err)
	}
	if len(raw) != 2 {
		return fmt.Errorf("decode price level: want 2 elements, got %d", len(raw))
	}
	p.Price, p.Size = raw[0], raw[1]
	return nil
}

// L2Change is a [side, price, size] entry of an l2update. A zero size
// removes the level.
type L2Change struct {
	Side  Side
	Price decimal.Decimal
	Size  decimal.Decimal
}

func (c L2Change) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{c.Side, c.Price, c.Size})
}

func (c *L2Change) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode l2 change: %w", err)
	}
	if len(raw) != 3 {
		return fmt.Errorf("decode l2 change: want 3 elements, got %d", len(raw))
	}
	if err := json.Unmarshal(raw[0], &c.Side); err != nil {
		return fmt.Errorf("decode l2 change side: %w", err)
	}
	if err := json.Unmarshal(raw[1], &c.Price); err != nil {
		return fmt.Errorf("decode l2 change price: %w", err)
	}
	if err := json.Unmarshal(raw[2], &c.Size); err != nil {
		return fmt.Errorf("decode l2 change size: %w", err)
	}
	return nil
}
