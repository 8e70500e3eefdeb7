package nlu

import "testing"

func scoreText(t *testing.T, text string, ctx ContextSnapshot) Intent {
	t.Helper()
	return Score(text, Extract(text), ctx)
}

func TestScoreKeywordPhrases(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"hello there", IntentGreet},
		{"help me out", IntentHelp},
		{"I want to book a slot", IntentBookSlot},
		{"show my bookings", IntentViewBookings},
		{"cancel booking 42", IntentCancelBooking},
		{"show favorites", IntentViewFavorites},
		{"payment history", IntentViewPaymentHistory},
		{"open my profile", IntentNavigateProfile},
		{"go home", IntentNavigateHome},
		{"search stations nearby", IntentSearchStations},
		{"xyzzy plugh", IntentUnknown},
	}
	for _, tt := range tests {
		got := scoreText(t, tt.text, ContextSnapshot{})
		if got.Name != tt.want {
			t.Errorf("Score(%q) = %s, want %s", tt.text, got.Name, tt.want)
		}
	}
}

func TestScoreSlotsVersusStations(t *testing.T) {
	if got := scoreText(t, "show me stations", ContextSnapshot{}); got.Name != IntentDisplayStations {
		t.Fatalf("stations query = %s, want %s", got.Name, IntentDisplayStations)
	}
	if got := scoreText(t, "show me slots", ContextSnapshot{}); got.Name != IntentViewSlotsFiltered {
		t.Fatalf("slots query = %s, want %s", got.Name, IntentViewSlotsFiltered)
	}
}

func TestScoreAllBypassesAvailabilityFilter(t *testing.T) {
	got := scoreText(t, "show all slots", ContextSnapshot{})
	if got.Name != IntentViewSlots {
		t.Fatalf("Score(show all slots) = %s, want %s", got.Name, IntentViewSlots)
	}
	if got.Params["filter_available"] != false {
		t.Fatalf("filter_available = %v, want false", got.Params["filter_available"])
	}

	got = scoreText(t, "show slots", ContextSnapshot{})
	if got.Name != IntentViewSlotsFiltered {
		t.Fatalf("Score(show slots) = %s, want %s", got.Name, IntentViewSlotsFiltered)
	}
	if got.Params["filter_available"] != true {
		t.Fatalf("filter_available = %v, want true", got.Params["filter_available"])
	}
}

func TestScoreEntityFavorsFilteredSlots(t *testing.T) {
	got := scoreText(t, "show car slots in bangalore", ContextSnapshot{})
	if got.Name != IntentViewSlotsFiltered {
		t.Fatalf("Score = %s, want %s", got.Name, IntentViewSlotsFiltered)
	}
}

func TestScorePendingBookingShortcut(t *testing.T) {
	// Mid-flow field input has no keywords at all; the pending context must
	// still route it to the booking intent.
	got := scoreText(t, "tomorrow 2pm to 5pm", ContextSnapshot{HasPendingBooking: true})
	if got.Name != IntentBookSlot {
		t.Fatalf("Score = %s, want %s", got.Name, IntentBookSlot)
	}
}

func TestScoreLastSlotsBoostsBooking(t *testing.T) {
	got := scoreText(t, "book the first one", ContextSnapshot{HasLastSlots: true})
	if got.Name != IntentBookSlot {
		t.Fatalf("Score = %s, want %s", got.Name, IntentBookSlot)
	}
}

func TestScoreDeterministic(t *testing.T) {
	ctx := ContextSnapshot{HasLastSlots: true, LastResponse: "Here are the available slots:"}
	first := scoreText(t, "show available slots in banglore", ctx)
	for i := 0; i < 20; i++ {
		again := scoreText(t, "show available slots in banglore", ctx)
		if again.Name != first.Name {
			t.Fatalf("iteration %d: got %s, want %s", i, again.Name, first.Name)
		}
	}
}

func TestRespondPlaceholders(t *testing.T) {
	got := Respond(IntentViewSlotsFiltered, Entities{EntityCity: "bangalore", EntityVehicleType: "car"})
	want := "Here are the available slots for car in Bangalore:"
	if got != want {
		t.Fatalf("Respond = %q, want %q", got, want)
	}

	got = Respond(IntentDisplayStations, Entities{})
	want = "Here are the parking stations:"
	if got != want {
		t.Fatalf("Respond = %q, want %q", got, want)
	}

	if Respond("does_not_exist", nil) != responseTemplates[IntentUnknown] {
		t.Fatalf("unknown intent should use the unknown template")
	}
}
