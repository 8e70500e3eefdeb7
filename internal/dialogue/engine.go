// Package dialogue hosts the turn orchestrator: it sequences interrupt
// handling, entity extraction, intent scoring, context enrichment, backend
// dispatch and history updates for every utterance.
package dialogue

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/parkpro/assistant/internal/booking"
	"github.com/parkpro/assistant/internal/gateway"
	"github.com/parkpro/assistant/internal/memory"
	"github.com/parkpro/assistant/internal/nlu"
	"github.com/parkpro/assistant/internal/observability"
	"github.com/parkpro/assistant/internal/personality"
	"github.com/parkpro/assistant/internal/session"
)

// Error taxonomy tags carried in Result.Params["error"] on failed turns.
const (
	TagParseAmbiguous   = "parse_ambiguous"
	TagResolutionFailed = booking.TagResolutionFailed
	TagGatewayError     = booking.TagGatewayError
	TagValidationError  = booking.TagValidationError
)

var ErrEmptySessionID = errors.New("session id must not be empty")

// Result is the structured outcome of one dialogue turn. Every failure path
// produces a Result; nothing raises past the turn boundary.
type Result struct {
	Intent   string            `json:"intent"`
	Response string            `json:"response"`
	Action   string            `json:"action,omitempty"`
	Screen   string            `json:"screen,omitempty"`
	Params   map[string]any    `json:"params"`
	Entities map[string]string `json:"entities"`
	Data     any               `json:"data,omitempty"`
}

// Engine coordinates one turn at a time per session. The session store is
// the only holder of mutable state; the engine receives exclusive access to
// a session for the duration of a turn via Store.Do.
type Engine struct {
	sessions *session.Store
	gw       gateway.Gateway
	machine  *booking.Machine
	archive  memory.Store
	persona  *personality.Decorator
	metrics  *observability.Metrics
	log      *zap.Logger
}

func New(
	sessions *session.Store,
	gw gateway.Gateway,
	machine *booking.Machine,
	archive memory.Store,
	persona *personality.Decorator,
	metrics *observability.Metrics,
	log *zap.Logger,
) *Engine {
	if persona == nil {
		persona = personality.New(false, 0)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		sessions: sessions,
		gw:       gw,
		machine:  machine,
		archive:  archive,
		persona:  persona,
		metrics:  metrics,
		log:      log,
	}
}

// HandleTurn processes one utterance for a session. Calls for the same
// session id are serialized; calls for different ids proceed independently.
func (e *Engine) HandleTurn(ctx context.Context, sessionID, text, token string) (Result, error) {
	if strings.TrimSpace(sessionID) == "" {
		return Result{}, ErrEmptySessionID
	}
	start := time.Now()

	var res Result
	err := e.sessions.Do(sessionID, func(sess *session.Session) error {
		res = e.turn(ctx, sess, text, token)
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	if e.metrics != nil {
		e.metrics.TurnsTotal.WithLabelValues(res.Intent).Inc()
		e.metrics.ObserveTurnLatency(time.Since(start))
	}
	return res, nil
}

// Parse classifies an utterance without touching any session: entity
// extraction plus intent scoring against an empty context.
func (e *Engine) Parse(text string) Result {
	ents := nlu.Extract(text)
	intent := nlu.Score(text, ents, nlu.ContextSnapshot{})
	res := newResult(intent, ents)
	res.Response = nlu.Respond(intent.Name, ents)
	return res
}

func (e *Engine) turn(ctx context.Context, sess *session.Session, text, token string) Result {
	e.seedPreferences(ctx, sess)

	// Interrupts against a pending booking short-circuit everything else:
	// a bare "yes" or "cancel" has no other sensible reading mid-flow.
	if p := sess.Context.Pending; p != nil {
		if class := booking.ClassifyInput(p.State, text); class != booking.InputNone {
			out := e.machine.HandleInterrupt(ctx, sess, class, token)
			e.observeBookingState(sess, out)
			res := bookingResult(nlu.Entities{}, out)
			return e.finish(ctx, sess, text, res)
		}
	}

	ents := nlu.Extract(text)
	snapshot := nlu.ContextSnapshot{
		HasLastSlots:      len(sess.Context.LastSlots) > 0,
		HasLastStations:   len(sess.Context.LastStations) > 0,
		HasPendingBooking: sess.Context.Pending != nil,
		LastResponse:      sess.LastResponse(),
	}
	intent := nlu.Score(text, ents, snapshot)

	// Resolve the demonstrative station back-reference.
	if ents[nlu.EntityStation] == nlu.StationThis {
		if sess.Context.LastStation == "" {
			res := newResult(intent, ents)
			res.Response = "Which station do you mean? I don't have one in mind yet."
			res.Params["error"] = TagResolutionFailed
			return e.finish(ctx, sess, text, res)
		}
		ents[nlu.EntityStation] = sess.Context.LastStation
	}

	e.learnPreferences(ctx, sess, ents)
	fillFromPreferences(sess, intent.Name, ents)

	// A slot query with no location at all cannot be dispatched; ask
	// instead of guessing.
	if isSlotQuery(intent.Name) && ents[nlu.EntityCity] == "" && ents[nlu.EntityStation] == "" {
		res := newResult(intent, ents)
		res.Response = "Which city or station should I look in?"
		res.Params["error"] = TagParseAmbiguous
		return e.finish(ctx, sess, text, res)
	}

	if intent.Name == nlu.IntentBookSlot {
		out := e.machine.Collect(sess, ents)
		e.observeBookingState(sess, out)
		return e.finish(ctx, sess, text, bookingResult(ents, out))
	}

	res := e.dispatch(ctx, sess, intent, ents, token)
	return e.finish(ctx, sess, text, res)
}

// dispatch performs the backend call for data intents and composes the
// response for the rest.
func (e *Engine) dispatch(ctx context.Context, sess *session.Session, intent nlu.Intent, ents nlu.Entities, token string) Result {
	res := newResult(intent, ents)
	res.Response = nlu.Respond(intent.Name, ents)

	switch intent.Name {
	case nlu.IntentViewSlots, nlu.IntentViewSlotsFiltered:
		availableOnly, _ := intent.Params["filter_available"].(bool)
		q := gateway.SlotQuery{
			City:          ents[nlu.EntityCity],
			VehicleType:   ents[nlu.EntityVehicleType],
			AvailableOnly: availableOnly,
		}
		if st := ents[nlu.EntityStation]; st != "" {
			if found, ok := findStation(sess.Context.LastStations, st); ok {
				q.StationID = found.ID
			}
			sess.Context.LastStation = st
		}
		slots, err := e.gw.ListSlots(ctx, token, q)
		if err != nil {
			return e.gatewayFailure(res, "list_slots", "Failed to fetch slots. Please try again.", err)
		}
		sess.Context.LastSlots = slots
		if city := ents[nlu.EntityCity]; city != "" {
			sess.Context.LastCity = city
		}
		res.Data = slots
		if len(slots) == 0 {
			res.Response = "No matching slots right now. Try another station or time."
		}

	case nlu.IntentDisplayStations, nlu.IntentSearchStations:
		stations, err := e.gw.ListStations(ctx, token, ents[nlu.EntityCity])
		if err != nil {
			return e.gatewayFailure(res, "list_stations", "Failed to fetch stations. Please try again.", err)
		}
		sess.Context.LastStations = stations
		if city := ents[nlu.EntityCity]; city != "" {
			sess.Context.LastCity = city
		}
		if len(stations) == 1 {
			sess.Context.LastStation = stations[0].Name
		}
		res.Data = stations
		if len(stations) == 0 {
			res.Response = "No stations found" + cityFragment(ents) + "."
		}

	case nlu.IntentViewBookings:
		bookings, err := e.gw.ListBookings(ctx, token)
		if err != nil {
			return e.gatewayFailure(res, "list_bookings", "Failed to fetch bookings. Please try again.", err)
		}
		res.Data = bookings
		if len(bookings) == 0 {
			res.Response = "You have no bookings yet."
		}

	case nlu.IntentCancelBooking:
		bid := ents[nlu.EntityBookingID]
		if bid == "" {
			res.Response = "Which booking should I cancel? Tell me the booking number."
			res.Params["error"] = TagParseAmbiguous
			return res
		}
		if err := e.gw.CancelBooking(ctx, token, bid); err != nil {
			if gateway.IsKind(err, gateway.KindNotFound) {
				return e.gatewayFailure(res, "cancel_booking", "I couldn't find booking "+bid+".", err)
			}
			return e.gatewayFailure(res, "cancel_booking", "Failed to cancel the booking. Please try again.", err)
		}
		res.Response = "Booking " + bid + " has been cancelled."

	case nlu.IntentAddFavorite:
		st := ents[nlu.EntityStation]
		if st == "" {
			st = sess.Context.LastStation
		}
		if st == "" {
			res.Response = "Which station should I add to your favorites?"
			res.Params["error"] = TagParseAmbiguous
			return res
		}
		ref := st
		if found, ok := findStation(sess.Context.LastStations, st); ok {
			ref = found.ID
		}
		if err := e.gw.AddFavorite(ctx, token, ref); err != nil {
			return e.gatewayFailure(res, "add_favorite", "Failed to add the favorite. Please try again.", err)
		}
		res.Response = "Added " + st + " station to your favorites."

	case nlu.IntentViewFavorites:
		favorites, err := e.gw.ListFavorites(ctx, token)
		if err != nil {
			return e.gatewayFailure(res, "list_favorites", "Failed to fetch favorites. Please try again.", err)
		}
		res.Data = favorites
		if len(favorites) == 0 {
			res.Response = "You don't have any favorite stations yet."
		}

	case nlu.IntentViewPaymentHistory:
		payments, err := e.gw.ListPayments(ctx, token)
		if err != nil {
			return e.gatewayFailure(res, "list_payments", "Failed to fetch payment history. Please try again.", err)
		}
		res.Data = payments
		if len(payments) == 0 {
			res.Response = "No payments on record yet."
		}

	case nlu.IntentUnknown:
		// Nudge users who just saw the help text.
		if strings.Contains(strings.ToLower(sess.LastResponse()), "help") {
			res.Response = "Still need help? I can assist with booking slots, viewing bookings and finding stations."
		}
	}

	return res
}

// finish decorates the response, records the turn and returns the result.
func (e *Engine) finish(ctx context.Context, sess *session.Session, text string, res Result) Result {
	res.Response = e.persona.Decorate(res.Intent, res.Response)
	sess.AppendTurn(text, res.Response)

	if e.archive != nil {
		record := memory.TurnRecord{
			SessionID:    sess.ID,
			UserText:     text,
			ResponseText: res.Response,
			Intent:       res.Intent,
		}
		if err := e.archive.SaveTurn(ctx, record); err != nil {
			e.log.Warn("turn archive write failed", zap.String("session_id", sess.ID), zap.Error(err))
		}
	}
	return res
}

func (e *Engine) gatewayFailure(res Result, op, message string, err error) Result {
	e.log.Warn("gateway dispatch failed", zap.String("op", op), zap.Error(err))
	if e.metrics != nil {
		var ge *gateway.Error
		kind := string(gateway.KindUpstream)
		if errors.As(err, &ge) {
			kind = string(ge.Kind)
		}
		e.metrics.GatewayErrors.WithLabelValues(op, kind).Inc()
	}
	res.Response = message
	res.Params["error"] = TagGatewayError
	return res
}

func (e *Engine) observeBookingState(sess *session.Session, out booking.Outcome) {
	if e.metrics == nil {
		return
	}
	switch {
	case out.Committed:
		e.metrics.BookingTransitions.WithLabelValues("committed").Inc()
	case out.Cancelled:
		e.metrics.BookingTransitions.WithLabelValues("cancelled").Inc()
	case sess.Context.Pending != nil:
		e.metrics.BookingTransitions.WithLabelValues(string(sess.Context.Pending.State)).Inc()
	}
}

// seedPreferences loads persisted defaults into a fresh session's context.
func (e *Engine) seedPreferences(ctx context.Context, sess *session.Session) {
	if sess.Context.PrefsLoaded || e.archive == nil {
		return
	}
	sess.Context.PrefsLoaded = true
	prefs, err := e.archive.LoadPreferences(ctx, sess.ID)
	if err != nil {
		e.log.Warn("preference load failed", zap.String("session_id", sess.ID), zap.Error(err))
		return
	}
	if sess.Context.PreferredCity == "" {
		sess.Context.PreferredCity = prefs.City
	}
	if sess.Context.PreferredVehicle == "" {
		sess.Context.PreferredVehicle = prefs.VehicleType
	}
}

// learnPreferences remembers explicitly stated city/vehicle as the user's
// defaults for later turns and sessions.
func (e *Engine) learnPreferences(ctx context.Context, sess *session.Session, ents nlu.Entities) {
	changed := false
	if city := ents[nlu.EntityCity]; city != "" && city != sess.Context.PreferredCity {
		sess.Context.PreferredCity = city
		changed = true
	}
	if vehicle := ents[nlu.EntityVehicleType]; vehicle != "" && vehicle != sess.Context.PreferredVehicle {
		sess.Context.PreferredVehicle = vehicle
		changed = true
	}
	if !changed || e.archive == nil {
		return
	}
	prefs := memory.Preferences{
		City:        sess.Context.PreferredCity,
		VehicleType: sess.Context.PreferredVehicle,
	}
	if err := e.archive.SavePreferences(ctx, sess.ID, prefs); err != nil {
		e.log.Warn("preference save failed", zap.String("session_id", sess.ID), zap.Error(err))
	}
}

// fillFromPreferences supplies remembered defaults only when the utterance
// itself carries no location/vehicle context; explicit entities are never
// overwritten.
func fillFromPreferences(sess *session.Session, intentName string, ents nlu.Entities) {
	if !isDataQuery(intentName) {
		return
	}
	if ents[nlu.EntityCity] == "" && ents[nlu.EntityStation] == "" && sess.Context.PreferredCity != "" {
		ents[nlu.EntityCity] = sess.Context.PreferredCity
	}
	if isSlotQuery(intentName) && ents[nlu.EntityVehicleType] == "" && sess.Context.PreferredVehicle != "" {
		ents[nlu.EntityVehicleType] = sess.Context.PreferredVehicle
	}
}

func isSlotQuery(intentName string) bool {
	return intentName == nlu.IntentViewSlots || intentName == nlu.IntentViewSlotsFiltered
}

func isDataQuery(intentName string) bool {
	switch intentName {
	case nlu.IntentViewSlots, nlu.IntentViewSlotsFiltered,
		nlu.IntentDisplayStations, nlu.IntentSearchStations:
		return true
	default:
		return false
	}
}

func newResult(intent nlu.Intent, ents nlu.Entities) Result {
	params := make(map[string]any, len(intent.Params)+1)
	for k, v := range intent.Params {
		params[k] = v
	}
	return Result{
		Intent:   intent.Name,
		Action:   intent.Action,
		Screen:   intent.Screen,
		Params:   params,
		Entities: ents.StringMap(),
	}
}

func bookingResult(ents nlu.Entities, out booking.Outcome) Result {
	intent, _ := nlu.Lookup(nlu.IntentBookSlot)
	res := newResult(intent, ents)
	res.Response = out.Response
	if out.ErrorTag != "" {
		res.Params["error"] = out.ErrorTag
	}
	if out.Booking != nil {
		res.Data = out.Booking
	}
	return res
}

func findStation(stations []gateway.Station, ref string) (gateway.Station, bool) {
	for _, st := range stations {
		if strings.EqualFold(st.Name, ref) || strings.EqualFold(st.ID, ref) {
			return st, true
		}
	}
	return gateway.Station{}, false
}

func cityFragment(ents nlu.Entities) string {
	if city := ents[nlu.EntityCity]; city != "" {
		return " in " + city
	}
	return ""
}
