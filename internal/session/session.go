package session

import (
	"time"

	"github.com/parkpro/assistant/internal/gateway"
)

// HistoryLimit bounds the per-session turn history; the oldest turn is
// evicted first.
const HistoryLimit = 10

// Turn is one completed exchange.
type Turn struct {
	UserText     string `json:"user_text"`
	ResponseText string `json:"response_text"`
}

// BookingState is the explicit state of an in-progress booking.
type BookingState string

const (
	StateCollecting                  BookingState = "collecting_fields"
	StateAwaitingConfirmation        BookingState = "awaiting_confirmation"
	StateAwaitingPaymentMethod       BookingState = "awaiting_payment_method"
	StateAwaitingPaymentConfirmation BookingState = "awaiting_payment_confirmation"
)

// PendingBooking tracks a booking that has been started but not committed.
// At most one exists per session; it is destroyed on commit, cancellation or
// session expiry.
type PendingBooking struct {
	SlotRef       string  `json:"slot_ref"`
	Date          string  `json:"date"`
	StartTime     string  `json:"start_time"`
	EndTime       string  `json:"end_time"`
	PaymentMethod string  `json:"payment_method"`
	AmountPaid    float64 `json:"amount_paid"`

	State BookingState `json:"state"`
}

// The boolean views kept for payload compatibility: exactly one is true at a
// time, or none while fields are still being collected.

func (p *PendingBooking) AwaitingConfirmation() bool {
	return p.State == StateAwaitingConfirmation
}

func (p *PendingBooking) AwaitingPaymentMethod() bool {
	return p.State == StateAwaitingPaymentMethod
}

func (p *PendingBooking) AwaitingPaymentConfirmation() bool {
	return p.State == StateAwaitingPaymentConfirmation
}

// MissingFields names the required fields not yet collected, in prompt
// order.
func (p *PendingBooking) MissingFields() []string {
	var missing []string
	if p.SlotRef == "" {
		missing = append(missing, "a slot")
	}
	if p.Date == "" {
		missing = append(missing, "the date")
	}
	if p.StartTime == "" {
		missing = append(missing, "a start time")
	}
	if p.EndTime == "" {
		missing = append(missing, "an end time")
	}
	return missing
}

// Context is the session's named memory. The orchestrator reads and writes
// it while holding the session; other components see it only for the
// duration of one turn.
type Context struct {
	LastStation      string
	LastCity         string
	PreferredCity    string
	PreferredVehicle string
	LastSlots        []gateway.Slot
	LastStations     []gateway.Station
	Pending          *PendingBooking
	PrefsLoaded      bool
}

// Session is one user's ongoing conversation.
type Session struct {
	ID             string
	History        []Turn
	Context        Context
	StartedAt      time.Time
	LastActivityAt time.Time
}

// AppendTurn records a completed exchange, evicting the oldest turn beyond
// HistoryLimit.
func (s *Session) AppendTurn(userText, responseText string) {
	s.History = append(s.History, Turn{UserText: userText, ResponseText: responseText})
	if len(s.History) > HistoryLimit {
		s.History = s.History[len(s.History)-HistoryLimit:]
	}
}

// LastResponse returns the most recent response text, or "" for a fresh
// session.
func (s *Session) LastResponse() string {
	if len(s.History) == 0 {
		return ""
	}
	return s.History[len(s.History)-1].ResponseText
}
