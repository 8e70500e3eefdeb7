package session

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestHistoryBounded(t *testing.T) {
	s := &Session{ID: "s1"}
	for i := 0; i < 25; i++ {
		s.AppendTurn(fmt.Sprintf("user %d", i), fmt.Sprintf("response %d", i))
	}
	if len(s.History) != HistoryLimit {
		t.Fatalf("history length = %d, want %d", len(s.History), HistoryLimit)
	}
	// Oldest evicted first: the window must hold turns 15..24.
	if s.History[0].UserText != "user 15" {
		t.Fatalf("oldest turn = %q, want %q", s.History[0].UserText, "user 15")
	}
	if s.LastResponse() != "response 24" {
		t.Fatalf("LastResponse = %q, want %q", s.LastResponse(), "response 24")
	}
}

func TestDoCreatesAndReuses(t *testing.T) {
	st := NewStore(time.Minute)
	err := st.Do("alice", func(s *Session) error {
		s.Context.LastCity = "bangalore"
		return nil
	})
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	err = st.Do("alice", func(s *Session) error {
		if s.Context.LastCity != "bangalore" {
			t.Fatalf("LastCity = %q, want %q", s.Context.LastCity, "bangalore")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if st.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", st.Len())
	}
}

func TestDoSerializesSameKey(t *testing.T) {
	st := NewStore(time.Minute)
	const turns = 200
	var wg sync.WaitGroup
	for i := 0; i < turns; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = st.Do("shared", func(s *Session) error {
				// Non-atomic read-modify-write; only per-key mutual
				// exclusion keeps the count correct.
				n := len(s.History)
				s.AppendTurn(fmt.Sprintf("u%d", n), "r")
				return nil
			})
		}()
	}
	wg.Wait()

	_ = st.Do("shared", func(s *Session) error {
		if len(s.History) != HistoryLimit {
			t.Errorf("history length = %d, want %d", len(s.History), HistoryLimit)
		}
		return nil
	})
}

func TestJanitorExpiresIdleSessions(t *testing.T) {
	st := NewStore(30 * time.Millisecond)
	expired := make(chan *Session, 1)
	st.SetExpireHook(func(s *Session) { expired <- s })

	_ = st.Do("idle", func(s *Session) error {
		s.Context.Pending = &PendingBooking{State: StateAwaitingConfirmation}
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	st.StartJanitor(ctx, 10*time.Millisecond)

	select {
	case s := <-expired:
		if s.ID != "idle" {
			t.Fatalf("expired session = %q, want %q", s.ID, "idle")
		}
	case <-time.After(time.Second):
		t.Fatal("janitor did not expire the idle session")
	}
	if st.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", st.Len())
	}
}

func TestPendingBookingStateFlags(t *testing.T) {
	p := &PendingBooking{State: StateCollecting}
	if p.AwaitingConfirmation() || p.AwaitingPaymentMethod() || p.AwaitingPaymentConfirmation() {
		t.Fatal("no flag should be set while collecting fields")
	}
	for _, tt := range []struct {
		state BookingState
		check func() bool
	}{
		{StateAwaitingConfirmation, p.AwaitingConfirmation},
		{StateAwaitingPaymentMethod, p.AwaitingPaymentMethod},
		{StateAwaitingPaymentConfirmation, p.AwaitingPaymentConfirmation},
	} {
		p.State = tt.state
		flags := 0
		for _, f := range []func() bool{p.AwaitingConfirmation, p.AwaitingPaymentMethod, p.AwaitingPaymentConfirmation} {
			if f() {
				flags++
			}
		}
		if !tt.check() || flags != 1 {
			t.Fatalf("state %s: exactly its own flag must be set (got %d flags)", tt.state, flags)
		}
	}
}
