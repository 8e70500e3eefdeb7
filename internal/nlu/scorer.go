package nlu

import "strings"

// ContextSnapshot is the read-only slice of session state the scorer is
// allowed to see. The orchestrator builds it before scoring a turn.
type ContextSnapshot struct {
	HasLastSlots      bool
	HasLastStations   bool
	HasPendingBooking bool
	LastResponse      string
}

// Scoring adjustments. The exact constants are a tuning choice; what matters
// is the relative ordering they establish between competing intents.
const (
	filterEntityBonus    = 10 // rule 1: vehicle/city entity favors filtered slots
	stationKeywordBonus  = 2  // rule 2: generic station language
	allTokenBonus        = 25 // rule 3: literal "all" overrides availability filtering
	concreteStationBonus = 3  // rule 4: named station favors slots at that station
	slotsTokenBonus      = 4  // rule 5: "slots" favors the slot view...
	slotsStationsPenalty = -2 // ...and disfavors the station view
	recentListBonus      = 2  // rule 6: a just-displayed list keeps its topic warm
	pendingBookingBonus  = 15 // rule 6: mid-booking turns are almost always booking turns
	slotMentionBonus     = 1  // rule 6: previous response talked about slots
)

var slotIntents = map[string]struct{}{
	IntentBookSlot:          {},
	IntentViewSlots:         {},
	IntentViewSlotsFiltered: {},
}

// Score classifies one utterance. Base scores come from keyword-phrase
// matching over the preprocessed tokens; the fixed adjustment rules are then
// applied in order, each touching only intents that already scored above
// zero. The strictly highest score wins; ties resolve to the intent declared
// first in Table. When nothing scores, a small keyword-family fallback runs
// before giving up with the unknown intent.
func Score(text string, ents Entities, ctx ContextSnapshot) Intent {
	tokens := tokenSet(Preprocess(text))

	scores := make(map[string]int, len(Table))
	for _, in := range Table {
		total := 0
		for _, phrase := range in.Phrases {
			if phraseMatches(phrase, tokens) {
				total += len(phrase)
			}
		}
		if total > 0 {
			scores[in.Name] = total
		}
	}

	boost := func(name string, delta int) {
		if _, candidate := scores[name]; candidate {
			scores[name] += delta
		}
	}

	// Rule 1: an explicit vehicle or city means the user wants a narrowed
	// slot listing, not the generic one.
	if ents[EntityVehicleType] != "" || ents[EntityCity] != "" {
		boost(IntentViewSlotsFiltered, filterEntityBonus)
	}

	// Rule 2: generic station language.
	if _, ok := tokens["station"]; ok {
		boost(IntentDisplayStations, stationKeywordBonus)
	} else if _, ok := tokens["stations"]; ok {
		boost(IntentDisplayStations, stationKeywordBonus)
	}

	// Rule 3: the literal token "all" bypasses availability filtering.
	// "all" is a stop word, so this checks the raw text.
	if HasToken(text, "all") {
		boost(IntentViewSlots, allTokenBonus)
	}

	// Rule 4: a concrete station reference points at that station's slots.
	if st := ents[EntityStation]; st != "" && st != StationThis {
		boost(IntentViewSlotsFiltered, concreteStationBonus)
	}

	// Rule 5: "slots" disambiguates slot views from station views.
	if _, ok := tokens["slots"]; ok {
		boost(IntentViewSlotsFiltered, slotsTokenBonus)
		boost(IntentDisplayStations, slotsStationsPenalty)
	}

	// Rule 6: conversational context.
	if ctx.HasLastSlots {
		for name := range slotIntents {
			boost(name, recentListBonus)
		}
	}
	if ctx.HasLastStations {
		boost(IntentDisplayStations, recentListBonus)
	}
	if ctx.HasPendingBooking {
		boost(IntentBookSlot, pendingBookingBonus)
	}
	if strings.Contains(strings.ToLower(ctx.LastResponse), "slot") {
		for name := range slotIntents {
			boost(name, slotMentionBonus)
		}
	}

	best := Intent{Name: IntentUnknown}
	bestScore := 0
	for _, in := range Table {
		if s, ok := scores[in.Name]; ok && s > bestScore {
			best = in
			bestScore = s
		}
	}
	if bestScore > 0 {
		return best
	}
	return fallback(text, ctx)
}

// fallback is the secondary heuristic used when no keyword phrase matched.
func fallback(text string, ctx ContextSnapshot) Intent {
	if ctx.HasPendingBooking {
		if in, ok := Lookup(IntentBookSlot); ok {
			return in
		}
	}
	lower := strings.ToLower(text)
	switch {
	case containsAny(lower, "book", "reserve", "rent"):
		return mustLookup(IntentBookSlot)
	case strings.Contains(lower, "slot"):
		return mustLookup(IntentViewSlotsFiltered)
	case strings.Contains(lower, "station"):
		return mustLookup(IntentDisplayStations)
	case strings.Contains(lower, "reservation") || strings.Contains(lower, "booking"):
		return mustLookup(IntentViewBookings)
	}
	return Intent{Name: IntentUnknown}
}

func phraseMatches(phrase []string, tokens map[string]struct{}) bool {
	for _, word := range phrase {
		if _, ok := tokens[word]; !ok {
			return false
		}
	}
	return len(phrase) > 0
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func mustLookup(name string) Intent {
	in, ok := Lookup(name)
	if !ok {
		return Intent{Name: IntentUnknown}
	}
	return in
}
