package nlu

import (
	"regexp"
	"strings"
)

// EntityType names a category of value extracted from free text.
type EntityType string

const (
	EntityCity        EntityType = "city"
	EntityStation     EntityType = "station"
	EntityVehicleType EntityType = "vehicle_type"
	EntityDate        EntityType = "date"
	EntityStartTime   EntityType = "start_time"
	EntityEndTime     EntityType = "end_time"
	EntityDuration    EntityType = "duration"
	EntitySlotID      EntityType = "slot_id"
	EntityBookingID   EntityType = "booking_id"
	EntityAmount      EntityType = "amount"
)

// StationThis is the back-reference sentinel emitted for demonstrative
// station mentions ("this station"). The orchestrator resolves it against
// the session's remembered station.
const StationThis = "this"

// Entities maps entity types to their extracted string values.
type Entities map[EntityType]string

// Clone returns an independent copy of the entity map.
func (e Entities) Clone() Entities {
	out := make(Entities, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

// StringMap converts the entity map to plain string keys for API payloads.
func (e Entities) StringMap() map[string]string {
	out := make(map[string]string, len(e))
	for k, v := range e {
		out[string(k)] = v
	}
	return out
}

// cityCorrections canonicalizes common misspellings before a city value is
// stored.
var cityCorrections = map[string]string{
	"banglore":  "bangalore",
	"bengaluru": "bangalore",
	"mumbay":    "mumbai",
	"bombay":    "mumbai",
	"dehli":     "delhi",
	"hyderbad":  "hyderabad",
	"chenai":    "chennai",
}

var vehicleVocabulary = []string{"bike", "car", "motorcycle", "scooter", "truck", "van", "vehicle"}

const timePattern = `\d{1,2}(?::\d{2})?\s?(?:am|pm)`

var (
	reThis        = regexp.MustCompile(`(?i)\bthis\b`)
	reStation     = regexp.MustCompile(`(?i)\b([a-z][a-z0-9]*)\s+stations?\b`)
	reCity        = regexp.MustCompile(`(?i)\bin\s+([a-z][a-z0-9]*)\b`)
	reDateSlash   = regexp.MustCompile(`(?i)\bon\s+(\d{1,2}/\d{1,2}(?:/\d{2,4})?)\b`)
	reDateWord    = regexp.MustCompile(`(?i)\b(today|tomorrow)\b`)
	reStartRange  = regexp.MustCompile(`(?i)(` + timePattern + `)\s*(?:to|till|until|-)`)
	reStartAnchor = regexp.MustCompile(`(?i)\b(?:from|at)\s+(` + timePattern + `)`)
	reEndRange    = regexp.MustCompile(`(?i)(?:to|till|until|-)\s*(` + timePattern + `)`)
	reDuration    = regexp.MustCompile(`(?i)\bfor\s+(\d+)\s*hours?\b`)
	reSlotNumber  = regexp.MustCompile(`(?i)\bslot\s*(?:number\s*)?(\d+)\b`)
	reOrdinalNum  = regexp.MustCompile(`(?i)\b(\d+)(?:st|nd|rd|th)\b`)
	reBareNumber  = regexp.MustCompile(`^\s*(\d+)\s*$`)
	reBookingID   = regexp.MustCompile(`(?i)\bbooking\s+#?(\d+)\b`)
	reAmount      = regexp.MustCompile(`(?i)\bamount\s+(\d+)\b`)

	// Vehicle phrase patterns in priority order; the first one that matches
	// wins, and within it the first vocabulary word captured is used.
	reVehiclePatterns = buildVehiclePatterns()
)

// stationNoise are words that commonly precede "station(s)" without naming
// one ("show stations", "all stations", "parking station").
var stationNoise = map[string]struct{}{
	"parking": {}, "the": {}, "a": {}, "any": {}, "all": {}, "my": {},
	"me": {}, "show": {}, "display": {}, "find": {}, "search": {},
	"nearby": {}, "available": {}, "favorite": {}, "favourite": {},
	"which": {}, "what": {}, "some": {}, "more": {},
}

var ordinalWords = map[string]string{
	"first": "1", "second": "2", "third": "3", "fourth": "4", "fifth": "5",
	"sixth": "6", "seventh": "7", "eighth": "8", "ninth": "9", "tenth": "10",
}

var reOrdinalWord = regexp.MustCompile(`(?i)\b(first|second|third|fourth|fifth|sixth|seventh|eighth|ninth|tenth)\b`)

func buildVehiclePatterns() []*regexp.Regexp {
	vocab := strings.Join(vehicleVocabulary, "|")
	templates := []string{
		`(?i)\b(` + vocab + `)\b.*\b(?:slots?|parking)\b`,
		`(?i)\b(?:slots?|parking)\b.*\b(` + vocab + `)\b`,
		`(?i)\bfor\s+(?:a\s+|my\s+)?(` + vocab + `)\b`,
		`(?i)\bvehicle\s+(` + vocab + `)\b`,
	}
	out := make([]*regexp.Regexp, 0, len(templates))
	for _, t := range templates {
		out = append(out, regexp.MustCompile(t))
	}
	return out
}

// Extract runs the fixed, ordered entity rule list over the raw text.
// It is pure and idempotent and never fails on malformed input; a rule
// that does not match simply omits its entity key.
func Extract(text string) Entities {
	ents := make(Entities)

	if m := reStation.FindStringSubmatch(text); m != nil {
		captured := strings.ToLower(m[1])
		_, noise := stationNoise[captured]
		if !noise && captured != StationThis {
			ents[EntityStation] = captured
		}
	}
	if reThis.MatchString(text) {
		ents[EntityStation] = StationThis
	}

	if m := reCity.FindStringSubmatch(text); m != nil {
		city := strings.ToLower(m[1])
		if corrected, ok := cityCorrections[city]; ok {
			city = corrected
		}
		// Suppress when the same noun phrase already matched as a station,
		// and never treat the demonstrative as a city name.
		if city != ents[EntityStation] && city != StationThis {
			ents[EntityCity] = city
		}
	}

	for _, re := range reVehiclePatterns {
		if m := re.FindStringSubmatch(text); m != nil {
			ents[EntityVehicleType] = strings.ToLower(m[1])
			break
		}
	}

	if m := reDateSlash.FindStringSubmatch(text); m != nil {
		ents[EntityDate] = m[1]
	} else if m := reDateWord.FindStringSubmatch(text); m != nil {
		ents[EntityDate] = strings.ToLower(m[1])
	}

	if m := reStartRange.FindStringSubmatch(text); m != nil {
		ents[EntityStartTime] = normalizeTime(m[1])
	} else if m := reStartAnchor.FindStringSubmatch(text); m != nil {
		ents[EntityStartTime] = normalizeTime(m[1])
	}
	if m := reEndRange.FindStringSubmatch(text); m != nil {
		ents[EntityEndTime] = normalizeTime(m[1])
	}

	if m := reDuration.FindStringSubmatch(text); m != nil {
		ents[EntityDuration] = m[1]
	}

	if m := reSlotNumber.FindStringSubmatch(text); m != nil {
		ents[EntitySlotID] = m[1]
	} else if m := reOrdinalWord.FindStringSubmatch(text); m != nil {
		ents[EntitySlotID] = ordinalWords[strings.ToLower(m[1])]
	} else if m := reOrdinalNum.FindStringSubmatch(text); m != nil {
		ents[EntitySlotID] = m[1]
	} else if m := reBareNumber.FindStringSubmatch(text); m != nil {
		ents[EntitySlotID] = m[1]
	}

	if m := reBookingID.FindStringSubmatch(text); m != nil {
		ents[EntityBookingID] = m[1]
	}
	if m := reAmount.FindStringSubmatch(text); m != nil {
		ents[EntityAmount] = m[1]
	}

	return ents
}

func normalizeTime(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
