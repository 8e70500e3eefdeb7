package memory

import (
	"context"
	"testing"
)

func TestInMemoryStoreTurns(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		err := s.SaveTurn(ctx, TurnRecord{SessionID: "s1", UserText: "hi", ResponseText: "hello", Intent: "greet"})
		if err != nil {
			t.Fatalf("SaveTurn() error = %v", err)
		}
	}

	turns, err := s.RecentTurns(ctx, "s1", 3)
	if err != nil {
		t.Fatalf("RecentTurns() error = %v", err)
	}
	if len(turns) != 3 {
		t.Fatalf("RecentTurns() len = %d, want 3", len(turns))
	}
	for _, turn := range turns {
		if turn.ID == "" || turn.CreatedAt.IsZero() {
			t.Fatalf("record not normalized: %+v", turn)
		}
	}

	turns, err = s.RecentTurns(ctx, "missing", 3)
	if err != nil || turns != nil {
		t.Fatalf("RecentTurns(missing) = %v, %v; want nil, nil", turns, err)
	}
}

func TestInMemoryStorePreferences(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	prefs, err := s.LoadPreferences(ctx, "s1")
	if err != nil {
		t.Fatalf("LoadPreferences() error = %v", err)
	}
	if prefs != (Preferences{}) {
		t.Fatalf("fresh preferences = %+v, want zero", prefs)
	}

	want := Preferences{City: "bangalore", VehicleType: "car"}
	if err := s.SavePreferences(ctx, "s1", want); err != nil {
		t.Fatalf("SavePreferences() error = %v", err)
	}
	prefs, err = s.LoadPreferences(ctx, "s1")
	if err != nil {
		t.Fatalf("LoadPreferences() error = %v", err)
	}
	if prefs != want {
		t.Fatalf("LoadPreferences() = %+v, want %+v", prefs, want)
	}
}
