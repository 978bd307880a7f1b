package domain

import "math"

// Position is an open derivatives position as reported by the exchange.
// ActivePos is signed: positive = long, negative = short, zero = flat.
type Position struct {
	ID                string  `json:"id"`
	Pair              string  `json:"pair"`
	ActivePos         float64 `json:"active_pos"`
	AvgPrice          float64 `json:"avg_price"`
	LiquidationPrice  float64 `json:"liquidation_price"`
	Leverage          float64 `json:"leverage"`
	Locked            float64 `json:"locked_margin"`
	TakeProfitTrigger float64 `json:"take_profit_trigger"`
	StopLossTrigger   float64 `json:"stop_loss_trigger"`
	UpdatedAt         int64   `json:"updated_at"`
}

// IsFlat reports whether the position has no open size.
func (p *Position) IsFlat() bool {
	return p.ActivePos == 0
}

// Side maps the sign of the active size onto an order side.
// Undefined for flat positions; callers must check IsFlat first.
func (p *Position) Side() OrderSide {
	if p.ActivePos > 0 {
		return SideBuy
	}
	return SideSell
}

// Size is the unsigned open quantity.
func (p *Position) Size() float64 {
	return math.Abs(p.ActivePos)
}
