package dialogue

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parkpro/assistant/internal/booking"
	"github.com/parkpro/assistant/internal/gateway"
	"github.com/parkpro/assistant/internal/memory"
	"github.com/parkpro/assistant/internal/personality"
	"github.com/parkpro/assistant/internal/session"
)

var fixedNow = time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

type harness struct {
	engine   *Engine
	gw       *gateway.Mock
	sessions *session.Store
	archive  *memory.InMemoryStore
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gw := gateway.NewMock()
	sessions := session.NewStore(time.Minute)
	machine := booking.New(gw, func() time.Time { return fixedNow }, nil)
	archive := memory.NewInMemoryStore()
	persona := personality.New(false, 0)
	eng := New(sessions, gw, machine, archive, persona, nil, nil)
	return &harness{engine: eng, gw: gw, sessions: sessions, archive: archive}
}

func (h *harness) turn(t *testing.T, sessionID, text string) Result {
	t.Helper()
	res, err := h.engine.HandleTurn(context.Background(), sessionID, text, "tok")
	require.NoError(t, err)
	return res
}

func (h *harness) inspect(t *testing.T, sessionID string, fn func(*session.Session)) {
	t.Helper()
	require.NoError(t, h.sessions.Do(sessionID, func(s *session.Session) error {
		fn(s)
		return nil
	}))
}

func TestFullBookingConversation(t *testing.T) {
	h := newHarness(t)
	const sid = "s-e2e"

	res := h.turn(t, sid, "show available car slots in bangalore")
	assert.Equal(t, "view_slots_filtered", res.Intent)
	assert.Equal(t, "bangalore", res.Entities["city"])
	slots, ok := res.Data.([]gateway.Slot)
	require.True(t, ok)
	require.Len(t, slots, 3)

	res = h.turn(t, sid, "book the second slot for tomorrow from 2pm to 5pm")
	assert.Equal(t, "book_slot", res.Intent)
	assert.Contains(t, res.Response, "slot 2 at central station")
	assert.Contains(t, res.Response, "2026-09-01")
	assert.Contains(t, res.Response, "total 120")

	res = h.turn(t, sid, "yes")
	assert.Contains(t, res.Response, "How would you like to pay?")

	res = h.turn(t, sid, "razorpay")
	assert.Contains(t, res.Response, "Paying 120 online")

	res = h.turn(t, sid, "yes")
	assert.Contains(t, res.Response, "Your booking is confirmed!")
	assert.Equal(t, 1, h.gw.CommitCalls)
	require.NotNil(t, res.Data)
	booked, ok := res.Data.(*gateway.Booking)
	require.True(t, ok)
	assert.Equal(t, "sl-102", booked.SlotID)

	h.inspect(t, sid, func(s *session.Session) {
		assert.Nil(t, s.Context.Pending)
	})

	res = h.turn(t, sid, "show my bookings")
	assert.Equal(t, "view_bookings", res.Intent)
	bookings, ok := res.Data.([]gateway.Booking)
	require.True(t, ok)
	require.Len(t, bookings, 1)
	assert.Equal(t, float64(120), bookings[0].Amount)

	records, err := h.archive.RecentTurns(context.Background(), sid, 20)
	require.NoError(t, err)
	assert.Len(t, records, 6)
}

func TestBookingFieldsCollectedAcrossTurns(t *testing.T) {
	h := newHarness(t)
	const sid = "s-collect"

	res := h.turn(t, sid, "show car slots in bangalore")
	assert.Equal(t, "view_slots_filtered", res.Intent)
	assert.Equal(t, "car", res.Entities["vehicle_type"])

	res = h.turn(t, sid, "book the first one")
	assert.Equal(t, "book_slot", res.Intent)
	assert.Contains(t, res.Response, "I still need")
	assert.Contains(t, res.Response, "the date")

	// A bare date/time utterance mid-collection still routes to the booking
	// flow even though it matches no keyword phrase.
	res = h.turn(t, sid, "tomorrow 2pm to 5pm")
	assert.Equal(t, "book_slot", res.Intent)
	assert.Contains(t, res.Response, "slot 1 at central station")
	assert.Contains(t, res.Response, "Shall I confirm?")

	h.turn(t, sid, "yes")
	h.turn(t, sid, "razorpay")
	res = h.turn(t, sid, "yes")
	assert.Contains(t, res.Response, "confirmed")
	assert.Equal(t, 1, h.gw.CommitCalls)
	h.inspect(t, sid, func(s *session.Session) {
		assert.Nil(t, s.Context.Pending)
	})
}

func TestDenyInterruptBeatsIntentScoring(t *testing.T) {
	h := newHarness(t)
	const sid = "s-deny"

	h.turn(t, sid, "show available car slots in bangalore")
	res := h.turn(t, sid, "book slot 1 today from 10am to 11am")
	assert.Contains(t, res.Response, "Shall I confirm?")

	// "no" mid-flow cancels even though the rest of the sentence looks like
	// a station query.
	res = h.turn(t, sid, "no, show me stations instead")
	assert.True(t, res.Response == "Okay, I've cancelled this booking.", "got %q", res.Response)
	h.inspect(t, sid, func(s *session.Session) {
		assert.Nil(t, s.Context.Pending)
	})
	assert.Equal(t, 0, h.gw.CommitCalls)
}

func TestSlotQueryWithoutLocationAsksForOne(t *testing.T) {
	h := newHarness(t)

	res := h.turn(t, "s-clarify", "show slots")
	assert.Equal(t, "view_slots_filtered", res.Intent)
	assert.Equal(t, TagParseAmbiguous, res.Params["error"])
	assert.Contains(t, res.Response, "Which city")
	assert.Nil(t, res.Data)
}

func TestPreferredCityFillsMissingLocation(t *testing.T) {
	h := newHarness(t)
	const sid = "s-pref"

	h.turn(t, sid, "show slots in chennai")

	res := h.turn(t, sid, "show slots")
	assert.Equal(t, "chennai", res.Entities["city"])
	assert.NotContains(t, res.Params, "error")
	slots, ok := res.Data.([]gateway.Slot)
	require.True(t, ok)
	require.Len(t, slots, 1)
	assert.Equal(t, "sl-301", slots[0].ID)
}

func TestPersistedPreferencesSeedFreshSessions(t *testing.T) {
	h := newHarness(t)
	const sid = "s-seed"
	ctx := context.Background()

	require.NoError(t, h.archive.SavePreferences(ctx, sid, memory.Preferences{City: "chennai"}))

	res := h.turn(t, sid, "show slots")
	assert.NotContains(t, res.Params, "error")
	assert.Equal(t, "chennai", res.Entities["city"])
}

func TestThisStationNeedsAnAntecedent(t *testing.T) {
	h := newHarness(t)

	res := h.turn(t, "s-this", "book a slot at this station")
	assert.Equal(t, TagResolutionFailed, res.Params["error"])
	assert.Contains(t, res.Response, "Which station")
}

func TestThisStationResolvesAgainstLastStation(t *testing.T) {
	h := newHarness(t)
	const sid = "s-this-ok"

	h.turn(t, sid, "show slots at central station")

	res := h.turn(t, sid, "book a slot at this station")
	assert.Equal(t, "book_slot", res.Intent)
	assert.Equal(t, "central", res.Entities["station"])
	assert.Contains(t, res.Response, "I still need")
}

func TestUnknownAfterHelpNudges(t *testing.T) {
	h := newHarness(t)
	const sid = "s-help"

	h.turn(t, sid, "help")
	res := h.turn(t, sid, "qwerty zzz")
	assert.Equal(t, "unknown", res.Intent)
	assert.Contains(t, res.Response, "Still need help?")
}

func TestHistoryStaysBounded(t *testing.T) {
	h := newHarness(t)
	const sid = "s-history"

	for i := 0; i < 25; i++ {
		h.turn(t, sid, fmt.Sprintf("hello %d", i))
	}
	h.inspect(t, sid, func(s *session.Session) {
		require.Len(t, s.History, session.HistoryLimit)
		assert.Equal(t, "hello 15", s.History[0].UserText)
	})
}

func TestGatewayFailureProducesErrorTag(t *testing.T) {
	h := newHarness(t)
	const sid = "s-fail"

	h.turn(t, sid, "show available car slots in bangalore")
	h.turn(t, sid, "book slot 1 today from 10am to 11am")
	h.turn(t, sid, "yes")
	h.turn(t, sid, "coupon")

	h.gw.FailCommits = true
	res := h.turn(t, sid, "yes")
	assert.Equal(t, TagGatewayError, res.Params["error"])
	assert.Contains(t, res.Response, "try again")

	// Pending survives the failure; a retry commits.
	h.gw.FailCommits = false
	res = h.turn(t, sid, "yes")
	assert.Contains(t, res.Response, "confirmed")
	assert.Equal(t, 2, h.gw.CommitCalls)
}

func TestCancelBookingNeedsAnID(t *testing.T) {
	h := newHarness(t)

	res := h.turn(t, "s-cancel", "cancel my booking")
	assert.Equal(t, "cancel_booking", res.Intent)
	assert.Equal(t, TagParseAmbiguous, res.Params["error"])
}

func TestParseIsStateless(t *testing.T) {
	h := newHarness(t)

	res := h.engine.Parse("show car slots in banglore")
	assert.Equal(t, "view_slots_filtered", res.Intent)
	assert.Equal(t, "bangalore", res.Entities["city"])
	assert.Equal(t, "car", res.Entities["vehicle_type"])
	assert.Equal(t, 0, h.sessions.Len())
}

func TestEmptySessionIDRejected(t *testing.T) {
	h := newHarness(t)

	_, err := h.engine.HandleTurn(context.Background(), "  ", "hello", "tok")
	assert.ErrorIs(t, err, ErrEmptySessionID)
}
