package personality

import (
	"strings"
	"testing"

	"github.com/parkpro/assistant/internal/nlu"
)

func TestDisabledDecoratorIsDeterministic(t *testing.T) {
	d := New(false, 1)
	base := "Here are the parking stations:"
	for i := 0; i < 10; i++ {
		if got := d.Decorate(nlu.IntentDisplayStations, base); got != base {
			t.Fatalf("disabled decorator changed the response: %q", got)
		}
	}
	if got := d.Decorate(nlu.IntentGreet, "ignored"); got != greetings[0] {
		t.Fatalf("disabled greeting = %q, want canonical %q", got, greetings[0])
	}
}

func TestFollowUpOnlyOnDataIntents(t *testing.T) {
	d := New(true, 42)

	got := d.Decorate(nlu.IntentViewSlotsFiltered, "Here are the available slots:")
	if !strings.HasPrefix(got, "Here are the available slots:") || got == "Here are the available slots:" {
		t.Fatalf("data intent should gain a follow-up, got %q", got)
	}

	got = d.Decorate(nlu.IntentUnknown, "I'm sorry, I didn't understand that.")
	if got != "I'm sorry, I didn't understand that." {
		t.Fatalf("unknown intent should not gain a follow-up, got %q", got)
	}
}

func TestSeededDecoratorReproducible(t *testing.T) {
	a := New(true, 7)
	b := New(true, 7)
	for i := 0; i < 10; i++ {
		ra := a.Decorate(nlu.IntentViewBookings, "Here are your bookings:")
		rb := b.Decorate(nlu.IntentViewBookings, "Here are your bookings:")
		if ra != rb {
			t.Fatalf("iteration %d: %q != %q", i, ra, rb)
		}
	}
}
