package observe

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/marcelohmariano/blade/internal/domain"
)

var discard = slog.New(slog.DiscardHandler)

func result(id string, outcome domain.Outcome, balance float64) domain.RoundResult {
	res := domain.RoundResult{ID: id, Color: domain.ColorRed, Outcome: outcome, Balance: balance}
	if outcome != domain.OutcomeNone {
		res.Bets = []domain.Bet{{Color: domain.ColorRed, Amount: 1}}
		res.Staked = 1
	}
	return res
}

func TestTrackerStatus(t *testing.T) {
	tr := NewTracker("simulate", "martingale", 100, 3)
	ctx := context.Background()

	tr.OnRound(ctx, result("a", domain.OutcomeWin, 101))
	tr.OnRound(ctx, result("b", domain.OutcomeNone, 101))
	tr.OnRound(ctx, result("c", domain.OutcomeLoss, 100))

	s := tr.Status()
	if s.Rounds != 3 || s.Wins != 1 || s.Losses != 1 || s.Bets != 2 {
		t.Errorf("counts = rounds %d wins %d losses %d bets %d, want 3 1 1 2",
			s.Rounds, s.Wins, s.Losses, s.Bets)
	}
	if s.Balance != 100 {
		t.Errorf("Balance = %v, want 100", s.Balance)
	}
	if s.Last == nil || s.Last.ID != "c" {
		t.Errorf("Last = %v, want round c", s.Last)
	}
	if !s.Running {
		t.Error("Running = false, want true")
	}

	tr.Stopped(domain.ErrInsufficientBalance)
	s = tr.Status()
	if s.Running || s.StopReason != domain.ErrInsufficientBalance.Error() {
		t.Errorf("after stop: Running = %v, StopReason = %q", s.Running, s.StopReason)
	}
}

func TestTrackerRecent(t *testing.T) {
	tr := NewTracker("replay", "", 0, 3)
	ctx := context.Background()

	if got := tr.Recent(10); len(got) != 0 {
		t.Fatalf("Recent() on empty tracker = %v, want none", got)
	}
	for _, id := range []string{"a", "b", "c", "d"} {
		tr.OnRound(ctx, result(id, domain.OutcomeNone, 0))
	}

	tests := []struct {
		limit int
		want  []string
	}{
		{0, []string{"d", "c", "b"}},
		{2, []string{"d", "c"}},
		{10, []string{"d", "c", "b"}},
	}
	for _, tt := range tests {
		got := tr.Recent(tt.limit)
		if len(got) != len(tt.want) {
			t.Fatalf("Recent(%d) len = %d, want %d", tt.limit, len(got), len(tt.want))
		}
		for i, res := range got {
			if res.ID != tt.want[i] {
				t.Errorf("Recent(%d)[%d] = %s, want %s", tt.limit, i, res.ID, tt.want[i])
			}
		}
	}
}

type memRounds struct {
	domain.RoundStore
	inserted []domain.Round
	err      error
}

func (s *memRounds) Insert(_ context.Context, r domain.Round) error {
	if s.err != nil {
		return s.err
	}
	s.inserted = append(s.inserted, r)
	return nil
}

func TestRecorder(t *testing.T) {
	store := &memRounds{}
	rec := NewRecorder(store, discard)
	at := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	rec.OnRound(context.Background(), domain.RoundResult{ID: "r1", Color: domain.ColorWhite, RolledAt: at})
	if len(store.inserted) != 1 {
		t.Fatalf("inserted = %d, want 1", len(store.inserted))
	}
	want := domain.Round{ID: "r1", Color: domain.ColorWhite, RolledAt: at}
	if store.inserted[0] != want {
		t.Errorf("inserted = %+v, want %+v", store.inserted[0], want)
	}

	store.err = errors.New("db down")
	rec.OnRound(context.Background(), domain.RoundResult{ID: "r2"})
}

type memBus struct {
	domain.SignalBus
	published map[string][][]byte
	streamed  map[string][][]byte
}

func newMemBus() *memBus {
	return &memBus{published: map[string][][]byte{}, streamed: map[string][][]byte{}}
}

func (b *memBus) Publish(_ context.Context, channel string, payload []byte) error {
	b.published[channel] = append(b.published[channel], payload)
	return nil
}

func (b *memBus) StreamAppend(_ context.Context, stream string, payload []byte) error {
	b.streamed[stream] = append(b.streamed[stream], payload)
	return nil
}

func TestBusPublisher(t *testing.T) {
	bus := newMemBus()
	tr := NewTracker("live", "dual_bet", 50, 0)
	ctx := context.Background()
	res := result("r1", domain.OutcomeLoss, 49)
	tr.OnRound(ctx, res)

	NewBusPublisher(bus, tr, discard).OnRound(ctx, res)

	if n := len(bus.published[domain.ChannelRound]); n != 1 {
		t.Errorf("round messages = %d, want 1", n)
	}
	if n := len(bus.streamed[domain.StreamRounds]); n != 1 {
		t.Errorf("stream entries = %d, want 1", n)
	}
	statuses := bus.published[domain.ChannelStatus]
	if len(statuses) != 1 {
		t.Fatalf("status messages = %d, want 1", len(statuses))
	}
	var s Status
	if err := json.Unmarshal(statuses[0], &s); err != nil {
		t.Fatalf("unmarshal status: %v", err)
	}
	if s.Balance != 49 || s.Losses != 1 {
		t.Errorf("status = %+v, want balance 49 with one loss", s)
	}
}

type memAudit struct {
	domain.AuditStore
	events []string
}

func (a *memAudit) Log(_ context.Context, event string, _ map[string]any) error {
	a.events = append(a.events, event)
	return nil
}

func TestAuditorSkipsUnscoredRounds(t *testing.T) {
	store := &memAudit{}
	a := NewAuditor(store, discard)
	ctx := context.Background()

	a.OnRound(ctx, result("a", domain.OutcomeNone, 0))
	a.OnRound(ctx, result("b", domain.OutcomeWin, 0))
	a.Log(ctx, EventBotStopped, nil)

	want := []string{EventRoundSettled, EventBotStopped}
	if len(store.events) != len(want) {
		t.Fatalf("events = %v, want %v", store.events, want)
	}
	for i := range want {
		if store.events[i] != want[i] {
			t.Errorf("events[%d] = %s, want %s", i, store.events[i], want[i])
		}
	}
}
