package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/biplawofficial/TradeAutomation/internal/domain"
	"github.com/biplawofficial/TradeAutomation/internal/journal"
	"github.com/biplawofficial/TradeAutomation/internal/store"
	"github.com/biplawofficial/TradeAutomation/pkg/logger"
)

// OrderPlacer places one order per call. Satisfied by the CoinDCX
// client; narrowed to an interface so the scheduler is testable
// without a network.
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, req domain.OrderRequest) (json.RawMessage, error)
}

// Scheduler drains the scheduled-trade store: once per second it claims
// every due pending trade and executes it. It is the sole owner of the
// pending -> executing -> executed|failed transitions.
type Scheduler struct {
	store    *store.Store
	placer   OrderPlacer
	journal  *journal.Journal
	interval time.Duration
}

func NewScheduler(st *store.Store, placer OrderPlacer, jnl *journal.Journal) *Scheduler {
	return &Scheduler{
		store:    st,
		placer:   placer,
		journal:  jnl,
		interval: time.Second,
	}
}

// SetInterval overrides the tick cadence. Used by tests; production
// keeps the 1s default.
func (s *Scheduler) SetInterval(d time.Duration) {
	if d > 0 {
		s.interval = d
	}
}

// Start launches the loop. It runs until ctx is cancelled; an empty
// store just produces no-op ticks.
func (s *Scheduler) Start(ctx context.Context) {
	go s.loop(ctx)
	logger.Info("trade scheduler started")
}

func (s *Scheduler) loop(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("trade scheduler stopped")
			return
		case <-ticker.C:
			s.Tick(ctx, time.Now())
		}
	}
}

// Tick executes every trade due at now. A failing trade is recorded as
// failed and never stops the remaining trades in the same tick.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) {
	for _, trade := range s.store.Due(now) {
		s.execute(ctx, trade)
	}
}

func (s *Scheduler) execute(ctx context.Context, trade *domain.ScheduledTrade) {
	params := trade.OrderParams()

	result, err := s.placer.PlaceOrder(ctx, params)
	if err != nil {
		s.store.MarkFailed(trade.ID, err.Error(), time.Now())
		s.journal.Record(ctx, journal.SourceScheduler, params, string(domain.TradeStatusFailed), err.Error())
		logger.Errorf("scheduled trade %s failed: %v", trade.ID, err)
		return
	}

	s.store.MarkExecuted(trade.ID, result, time.Now())
	s.journal.Record(ctx, journal.SourceScheduler, params, string(domain.TradeStatusExecuted), string(result))
	logger.Infof("scheduled trade %s executed: side=%s qty=%v", trade.ID, trade.Side, trade.Quantity)
}
