package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/biplawofficial/TradeAutomation/internal/domain"
	"github.com/biplawofficial/TradeAutomation/internal/exchange"
	"github.com/biplawofficial/TradeAutomation/internal/journal"
	"github.com/biplawofficial/TradeAutomation/pkg/logger"
)

// FlowClient is the slice of the exchange client the re-enter flow
// needs.
type FlowClient interface {
	OrderPlacer
	GetActivePosition(ctx context.Context) (*domain.Position, error)
	ExitAllPositions(ctx context.Context) ([]exchange.ExitResult, error)
}

// TradeFlow implements the exit-all-then-re-enter flow: snapshot the
// active position, exit everything, wait for the exchange to settle,
// then re-open the same side and size with a market order.
//
// The position snapshot taken at the start is the single owner of the
// "current side/quantity" state for the whole flow.
type TradeFlow struct {
	client      FlowClient
	journal     *journal.Journal
	settleDelay time.Duration
	leverage    int
}

// NewTradeFlow builds the flow. settleDelay is how long to wait between
// exit-all and re-entry; its exact value is a tunable, not a contract.
func NewTradeFlow(client FlowClient, jnl *journal.Journal, settleDelay time.Duration, leverage int) *TradeFlow {
	return &TradeFlow{
		client:      client,
		journal:     jnl,
		settleDelay: settleDelay,
		leverage:    leverage,
	}
}

// ReenterResult reports what the flow did.
type ReenterResult struct {
	Reentered bool                  `json:"reentered"`
	Side      domain.OrderSide      `json:"side,omitempty"`
	Quantity  float64               `json:"quantity,omitempty"`
	Exits     []exchange.ExitResult `json:"exits,omitempty"`
	Order     json.RawMessage       `json:"order,omitempty"`
	Message   string                `json:"message,omitempty"`
}

// Reenter runs the flow once. With no active position it is a no-op.
// Exit failures are carried in the result, not raised; the re-entry is
// still attempted so the account does not end up flat by accident.
func (f *TradeFlow) Reenter(ctx context.Context) (*ReenterResult, error) {
	pos, err := f.client.GetActivePosition(ctx)
	if err != nil {
		return nil, err
	}
	if pos == nil {
		logger.Info("reenter flow: no active position")
		return &ReenterResult{Reentered: false, Message: "no active position"}, nil
	}

	side := pos.Side()
	qty := pos.Size()

	exits, err := f.client.ExitAllPositions(ctx)
	if err != nil {
		return nil, err
	}

	logger.Infof("reenter flow: exited positions, settling for %s", f.settleDelay)
	if err := sleepCtx(ctx, f.settleDelay); err != nil {
		return nil, err
	}

	req := domain.OrderRequest{
		Side:      side,
		Quantity:  qty,
		OrderType: domain.OrderTypeMarket,
		Leverage:  f.leverage,
	}
	order, err := f.client.PlaceOrder(ctx, req)
	if err != nil {
		f.journal.Record(ctx, journal.SourceFlow, req, "failed", err.Error())
		return nil, err
	}
	f.journal.Record(ctx, journal.SourceFlow, req, "executed", string(order))

	return &ReenterResult{
		Reentered: true,
		Side:      side,
		Quantity:  qty,
		Exits:     exits,
		Order:     order,
	}, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
