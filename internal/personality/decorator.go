// Package personality applies cosmetic phrasing on top of the engine's
// decisions: greeting variants and follow-up questions. It runs after the
// core decision is made and carries no decision logic, so disabling it
// leaves the engine fully deterministic.
package personality

import (
	"math/rand"

	"github.com/parkpro/assistant/internal/nlu"
)

var greetings = []string{
	"Hello! I can help you find parking stations and book slots.",
	"Hi there! Looking for a parking slot?",
	"Hey! Where would you like to park today?",
}

var followUps = []string{
	" Was that helpful?",
	" Is there anything else I can help with?",
	" Let me know if you need anything else.",
}

// followUpIntents are the data-presenting intents that read naturally with a
// trailing follow-up question. Greetings, thanks and frustration do not.
var followUpIntents = map[string]struct{}{
	nlu.IntentDisplayStations:    {},
	nlu.IntentViewSlots:          {},
	nlu.IntentViewSlotsFiltered:  {},
	nlu.IntentViewBookings:       {},
	nlu.IntentAddFavorite:        {},
	nlu.IntentViewFavorites:      {},
	nlu.IntentViewPaymentHistory: {},
}

// Decorator flavors responses. With enabled=false it is a no-op pass-through
// except for the fixed canonical greeting.
type Decorator struct {
	enabled bool
	rng     *rand.Rand
}

// New builds a decorator; the seed keeps flavored runs reproducible.
func New(enabled bool, seed int64) *Decorator {
	return &Decorator{enabled: enabled, rng: rand.New(rand.NewSource(seed))}
}

// Decorate returns the final response text for an intent.
func (d *Decorator) Decorate(intent, response string) string {
	if intent == nlu.IntentGreet {
		if !d.enabled {
			return greetings[0]
		}
		return greetings[d.rng.Intn(len(greetings))]
	}
	if !d.enabled {
		return response
	}
	if _, ok := followUpIntents[intent]; ok {
		return response + followUps[d.rng.Intn(len(followUps))]
	}
	return response
}
