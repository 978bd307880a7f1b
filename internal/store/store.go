package store

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/biplawofficial/TradeAutomation/internal/domain"
)

// Store holds scheduled trades in memory for the process lifetime.
// The sequence is append-only and insertion-ordered; entries are never
// removed, only status-mutated. Writer discipline: the API layer
// creates and cancels, the scheduler owns every other transition.
type Store struct {
	mu     sync.Mutex
	trades []*domain.ScheduledTrade
	byID   map[string]*domain.ScheduledTrade
}

func New() *Store {
	return &Store{
		byID: make(map[string]*domain.ScheduledTrade),
	}
}

// CreateRequest is the input for scheduling a trade; the order fields
// must already be validated.
type CreateRequest struct {
	Order     domain.OrderRequest
	ExecuteAt time.Time
}

// Create validates that ExecuteAt is strictly in the future, assigns a
// fresh id, and appends the trade as pending.
func (s *Store) Create(req CreateRequest, now time.Time) (*domain.ScheduledTrade, error) {
	if !req.ExecuteAt.After(now) {
		return nil, domain.NewValidationError("scheduled time must be in the future")
	}

	trade := &domain.ScheduledTrade{
		ID:        uuid.NewString(),
		Side:      req.Order.Side,
		Quantity:  req.Order.Quantity,
		OrderType: req.Order.OrderType,
		Price:     req.Order.Price,
		Leverage:  req.Order.Leverage,
		ExecuteAt: req.ExecuteAt,
		Status:    domain.TradeStatusPending,
		CreatedAt: now,
	}

	s.mu.Lock()
	s.trades = append(s.trades, trade)
	s.byID[trade.ID] = trade
	s.mu.Unlock()

	return trade.Clone(), nil
}

// List returns a snapshot of all trades in insertion order.
func (s *Store) List() []*domain.ScheduledTrade {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*domain.ScheduledTrade, 0, len(s.trades))
	for _, t := range s.trades {
		out = append(out, t.Clone())
	}
	return out
}

// Get returns the trade with the given id, or ErrNotFound.
func (s *Store) Get(id string) (*domain.ScheduledTrade, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return t.Clone(), nil
}

// Cancel moves a pending trade to cancelled. Unknown ids return
// ErrNotFound; trades past pending return InvalidStateError and keep
// their status.
func (s *Store) Cancel(id string) (*domain.ScheduledTrade, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if t.Status != domain.TradeStatusPending {
		return nil, &domain.InvalidStateError{Status: t.Status}
	}
	t.Status = domain.TradeStatusCancelled
	return t.Clone(), nil
}

// Due claims every pending trade whose ExecuteAt has passed: each is
// moved to executing under the lock, so a trade is claimed exactly
// once even if ticks overlap. The returned copies are what the
// scheduler executes.
func (s *Store) Due(now time.Time) []*domain.ScheduledTrade {
	s.mu.Lock()
	defer s.mu.Unlock()

	var due []*domain.ScheduledTrade
	for _, t := range s.trades {
		if t.Status != domain.TradeStatusPending {
			continue
		}
		if t.ExecuteAt.After(now) {
			continue
		}
		t.Status = domain.TradeStatusExecuting
		due = append(due, t.Clone())
	}
	return due
}

// MarkExecuted settles an executing trade with the exchange response.
func (s *Store) MarkExecuted(id string, result []byte, now time.Time) {
	s.settle(id, domain.TradeStatusExecuted, result, "", now)
}

// MarkFailed settles an executing trade with the failure text.
func (s *Store) MarkFailed(id string, errText string, now time.Time) {
	s.settle(id, domain.TradeStatusFailed, nil, errText, now)
}

func (s *Store) settle(id string, status domain.TradeStatus, result []byte, errText string, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.byID[id]
	if !ok || t.Status != domain.TradeStatusExecuting {
		return
	}
	t.Status = status
	t.Result = result
	t.Error = errText
	at := now
	t.ExecutedAt = &at
}
