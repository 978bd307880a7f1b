package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// OrderSide is an order direction.
type OrderSide string

const (
	SideBuy  OrderSide = "buy"
	SideSell OrderSide = "sell"
)

// ParseSide normalizes a side string, rejecting anything but buy/sell.
func ParseSide(s string) (OrderSide, error) {
	switch OrderSide(strings.ToLower(strings.TrimSpace(s))) {
	case SideBuy:
		return SideBuy, nil
	case SideSell:
		return SideSell, nil
	}
	return "", NewValidationError(fmt.Sprintf("side must be %q or %q, got %q", SideBuy, SideSell, s))
}

// Opposite returns the other side.
func (s OrderSide) Opposite() OrderSide {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

// OrderType uses the exchange wire literals.
type OrderType string

const (
	OrderTypeMarket OrderType = "market_order"
	OrderTypeLimit  OrderType = "limit_order"
)

// ParseOrderType normalizes an order-type string.
func ParseOrderType(s string) (OrderType, error) {
	switch OrderType(strings.ToLower(strings.TrimSpace(s))) {
	case OrderTypeMarket:
		return OrderTypeMarket, nil
	case OrderTypeLimit:
		return OrderTypeLimit, nil
	}
	return "", NewValidationError(fmt.Sprintf("order_type must be %q or %q, got %q", OrderTypeMarket, OrderTypeLimit, s))
}

// TradeStatus is the scheduled-trade lifecycle state.
type TradeStatus string

const (
	TradeStatusPending   TradeStatus = "pending"
	TradeStatusExecuting TradeStatus = "executing"
	TradeStatusExecuted  TradeStatus = "executed"
	TradeStatusFailed    TradeStatus = "failed"
	TradeStatusCancelled TradeStatus = "cancelled"
)

// IsTerminal reports whether no further transition is possible.
func (s TradeStatus) IsTerminal() bool {
	return s == TradeStatusExecuted || s == TradeStatusFailed || s == TradeStatusCancelled
}

// OrderRequest carries the parameters of a single order placement.
type OrderRequest struct {
	Side      OrderSide `json:"side"`
	Quantity  float64   `json:"quantity"`
	OrderType OrderType `json:"order_type"`
	Price     *float64  `json:"price,omitempty"`
	Leverage  int       `json:"leverage"`
}

// Validate normalizes and checks the request. Leverage falls back to
// defaultLeverage when unset; limit orders must carry a positive price.
func (r *OrderRequest) Validate(defaultLeverage int) error {
	side, err := ParseSide(string(r.Side))
	if err != nil {
		return err
	}
	r.Side = side

	if r.OrderType == "" {
		r.OrderType = OrderTypeMarket
	}
	ot, err := ParseOrderType(string(r.OrderType))
	if err != nil {
		return err
	}
	r.OrderType = ot

	if r.Quantity <= 0 {
		return NewValidationError("quantity must be positive")
	}
	if r.Leverage == 0 {
		r.Leverage = defaultLeverage
	}
	if r.Leverage <= 0 {
		return NewValidationError("leverage must be a positive integer")
	}
	if r.OrderType == OrderTypeLimit {
		if r.Price == nil || *r.Price <= 0 {
			return NewValidationError("price is required for limit orders")
		}
	} else {
		// The exchange rejects market orders that carry a price.
		r.Price = nil
	}
	return nil
}

// ScheduledTrade is a trade intent queued for future execution.
//
// Status transitions are one-directional:
// pending -> executing -> executed|failed, or pending -> cancelled.
// ID and ExecuteAt never change after creation.
type ScheduledTrade struct {
	ID         string          `json:"id"`
	Side       OrderSide       `json:"side"`
	Quantity   float64         `json:"quantity"`
	OrderType  OrderType       `json:"order_type"`
	Price      *float64        `json:"price,omitempty"`
	Leverage   int             `json:"leverage"`
	ExecuteAt  time.Time       `json:"execute_at"`
	Status     TradeStatus     `json:"status"`
	CreatedAt  time.Time       `json:"created_at"`
	ExecutedAt *time.Time      `json:"executed_at,omitempty"`
	Result     json.RawMessage `json:"result,omitempty"`
	Error      string          `json:"error,omitempty"`
}

// OrderParams returns the order request this trade executes as.
func (t *ScheduledTrade) OrderParams() OrderRequest {
	return OrderRequest{
		Side:      t.Side,
		Quantity:  t.Quantity,
		OrderType: t.OrderType,
		Price:     t.Price,
		Leverage:  t.Leverage,
	}
}

// Clone returns a copy safe to hand out beyond the store's lock.
func (t *ScheduledTrade) Clone() *ScheduledTrade {
	c := *t
	return &c
}
