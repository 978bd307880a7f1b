package store

import (
	"errors"
	"testing"
	"time"

	"github.com/biplawofficial/TradeAutomation/internal/domain"
)

var base = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func newTrade(t *testing.T, s *Store, at time.Time) *domain.ScheduledTrade {
	t.Helper()
	trade, err := s.Create(CreateRequest{
		Order: domain.OrderRequest{
			Side:      domain.SideBuy,
			Quantity:  2,
			OrderType: domain.OrderTypeMarket,
			Leverage:  15,
		},
		ExecuteAt: at,
	}, base)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return trade
}

func TestCreateAssignsUniqueIDs(t *testing.T) {
	s := New()
	a := newTrade(t, s, base.Add(time.Minute))
	b := newTrade(t, s, base.Add(time.Minute))

	if a.ID == "" || b.ID == "" {
		t.Fatalf("empty id: %q %q", a.ID, b.ID)
	}
	if a.ID == b.ID {
		t.Fatalf("identical submissions must get distinct ids, both got %s", a.ID)
	}
	if a.Status != domain.TradeStatusPending {
		t.Fatalf("new trade status = %s, want pending", a.Status)
	}
}

func TestCreateRejectsPastExecuteAt(t *testing.T) {
	s := New()
	for _, at := range []time.Time{base, base.Add(-time.Second)} {
		_, err := s.Create(CreateRequest{
			Order:     domain.OrderRequest{Side: domain.SideSell, Quantity: 1, OrderType: domain.OrderTypeMarket},
			ExecuteAt: at,
		}, base)
		if !domain.IsValidation(err) {
			t.Fatalf("Create at %v: err = %v, want validation error", at, err)
		}
	}
	if got := len(s.List()); got != 0 {
		t.Fatalf("rejected creates must not be stored, have %d", got)
	}
}

func TestListPreservesInsertionOrder(t *testing.T) {
	s := New()
	a := newTrade(t, s, base.Add(3*time.Hour))
	b := newTrade(t, s, base.Add(time.Hour))
	c := newTrade(t, s, base.Add(2*time.Hour))

	got := s.List()
	if len(got) != 3 {
		t.Fatalf("List len = %d, want 3", len(got))
	}
	for i, want := range []string{a.ID, b.ID, c.ID} {
		if got[i].ID != want {
			t.Fatalf("List[%d].ID = %s, want %s", i, got[i].ID, want)
		}
	}
}

func TestListReturnsCopies(t *testing.T) {
	s := New()
	a := newTrade(t, s, base.Add(time.Minute))

	s.List()[0].Status = domain.TradeStatusFailed

	got, err := s.Get(a.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != domain.TradeStatusPending {
		t.Fatalf("mutating a snapshot leaked into the store: status = %s", got.Status)
	}
}

func TestGetUnknownID(t *testing.T) {
	s := New()
	if _, err := s.Get("nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Get unknown: err = %v, want ErrNotFound", err)
	}
}

func TestCancelPending(t *testing.T) {
	s := New()
	a := newTrade(t, s, base.Add(time.Minute))

	got, err := s.Cancel(a.ID)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if got.Status != domain.TradeStatusCancelled {
		t.Fatalf("Cancel status = %s, want cancelled", got.Status)
	}
	if len(s.Due(base.Add(time.Hour))) != 0 {
		t.Fatalf("cancelled trade must never come due")
	}
}

func TestCancelUnknownID(t *testing.T) {
	s := New()
	if _, err := s.Cancel("nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Cancel unknown: err = %v, want ErrNotFound", err)
	}
}

func TestCancelNonPendingKeepsStatus(t *testing.T) {
	s := New()

	executed := newTrade(t, s, base.Add(time.Minute))
	failed := newTrade(t, s, base.Add(time.Minute))
	s.Due(base.Add(time.Minute))
	s.MarkExecuted(executed.ID, []byte(`{"ok":true}`), base.Add(time.Minute))
	s.MarkFailed(failed.ID, "rejected", base.Add(time.Minute))

	cancelled := newTrade(t, s, base.Add(2*time.Minute))
	if _, err := s.Cancel(cancelled.ID); err != nil {
		t.Fatalf("first cancel: %v", err)
	}

	for _, tc := range []struct {
		id   string
		want domain.TradeStatus
	}{
		{executed.ID, domain.TradeStatusExecuted},
		{failed.ID, domain.TradeStatusFailed},
		{cancelled.ID, domain.TradeStatusCancelled},
	} {
		_, err := s.Cancel(tc.id)
		var stateErr *domain.InvalidStateError
		if !errors.As(err, &stateErr) {
			t.Fatalf("Cancel %s trade: err = %v, want InvalidStateError", tc.want, err)
		}
		got, _ := s.Get(tc.id)
		if got.Status != tc.want {
			t.Fatalf("failed cancel changed status to %s, want %s", got.Status, tc.want)
		}
	}
}

func TestDueClaimsExactlyOnce(t *testing.T) {
	s := New()
	due := newTrade(t, s, base.Add(time.Minute))
	future := newTrade(t, s, base.Add(time.Hour))

	first := s.Due(base.Add(time.Minute))
	if len(first) != 1 || first[0].ID != due.ID {
		t.Fatalf("first Due = %v, want just %s", first, due.ID)
	}
	if first[0].Status != domain.TradeStatusExecuting {
		t.Fatalf("claimed trade status = %s, want executing", first[0].Status)
	}

	// Overlapping tick: the claimed trade must not be handed out again.
	if again := s.Due(base.Add(2 * time.Minute)); len(again) != 0 {
		t.Fatalf("second Due re-claimed %d trades", len(again))
	}

	later := s.Due(base.Add(2 * time.Hour))
	if len(later) != 1 || later[0].ID != future.ID {
		t.Fatalf("later Due = %v, want just %s", later, future.ID)
	}
}

func TestDueBoundaryIsInclusive(t *testing.T) {
	s := New()
	at := base.Add(time.Minute)
	newTrade(t, s, at)

	if got := s.Due(at.Add(-time.Millisecond)); len(got) != 0 {
		t.Fatalf("trade came due early")
	}
	if got := s.Due(at); len(got) != 1 {
		t.Fatalf("trade due exactly at ExecuteAt was skipped")
	}
}

func TestSettleOnlyFromExecuting(t *testing.T) {
	s := New()
	a := newTrade(t, s, base.Add(time.Minute))

	// Not yet claimed: settle calls are ignored.
	s.MarkExecuted(a.ID, []byte(`{}`), base)
	got, _ := s.Get(a.ID)
	if got.Status != domain.TradeStatusPending {
		t.Fatalf("settle on pending trade changed status to %s", got.Status)
	}

	s.Due(base.Add(time.Minute))
	s.MarkFailed(a.ID, "insufficient margin", base.Add(time.Minute))
	got, _ = s.Get(a.ID)
	if got.Status != domain.TradeStatusFailed || got.Error != "insufficient margin" {
		t.Fatalf("settle result: status=%s err=%q", got.Status, got.Error)
	}
	if got.ExecutedAt == nil {
		t.Fatalf("settled trade has no ExecutedAt")
	}

	// Terminal: a second settle must not overwrite the outcome.
	s.MarkExecuted(a.ID, []byte(`{}`), base.Add(2*time.Minute))
	got, _ = s.Get(a.ID)
	if got.Status != domain.TradeStatusFailed {
		t.Fatalf("terminal trade re-settled to %s", got.Status)
	}
}
