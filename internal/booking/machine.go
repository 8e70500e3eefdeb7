// Package booking implements the multi-turn booking flow as an explicit
// state machine over the session's pending booking:
//
//	COLLECTING_FIELDS -> AWAITING_CONFIRMATION -> AWAITING_PAYMENT_METHOD
//	  -> AWAITING_PAYMENT_CONFIRMATION -> committed | cancelled
//
// Terminal transitions destroy the pending record; a failed commit keeps it
// intact so the user can retry.
package booking

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/parkpro/assistant/internal/gateway"
	"github.com/parkpro/assistant/internal/nlu"
	"github.com/parkpro/assistant/internal/session"
)

// InputClass is the interrupt classification of one utterance against the
// current booking state.
type InputClass int

const (
	InputNone InputClass = iota
	InputAffirm
	InputDeny
	InputRazorpay
	InputCoupon
)

// Error taxonomy tags surfaced on failed turns.
const (
	TagResolutionFailed = "resolution_failed"
	TagValidationError  = "validation_error"
	TagGatewayError     = "gateway_error"
)

const (
	// PaymentOnline is recorded for razorpay card/online payments.
	PaymentOnline = "online"
	// PaymentCoupon is recorded for coupon redemptions; the amount is zero.
	PaymentCoupon = "coupon"
)

var (
	affirmWords = map[string]struct{}{
		"yes": {}, "confirm": {}, "sure": {}, "ok": {}, "okay": {},
		"yeah": {}, "yep": {}, "proceed": {},
	}
	denyWords = map[string]struct{}{
		"no": {}, "cancel": {}, "nevermind": {}, "stop": {}, "abort": {},
	}
)

// ClassifyInput decides whether text is a recognized interrupt for the given
// booking state. It is pure; the orchestrator runs it before intent scoring
// whenever a pending booking exists, because a one-word "yes" has no other
// sensible interpretation mid-flow.
func ClassifyInput(state session.BookingState, text string) InputClass {
	lower := strings.ToLower(text)
	deny := strings.Contains(lower, "never mind")
	affirm := false
	for _, tok := range strings.FieldsFunc(lower, func(r rune) bool {
		return !(r >= 'a' && r <= 'z')
	}) {
		if _, ok := denyWords[tok]; ok {
			deny = true
		}
		if _, ok := affirmWords[tok]; ok {
			affirm = true
		}
	}

	// Cancellation wins at every state.
	if deny {
		return InputDeny
	}

	switch state {
	case session.StateAwaitingConfirmation, session.StateAwaitingPaymentConfirmation:
		if affirm {
			return InputAffirm
		}
	case session.StateAwaitingPaymentMethod:
		if strings.Contains(lower, "razorpay") || strings.Contains(lower, "online") {
			return InputRazorpay
		}
		if strings.Contains(lower, "coupon") {
			return InputCoupon
		}
	}
	return InputNone
}

// Outcome is the result of one booking-machine step.
type Outcome struct {
	Response  string
	Committed bool
	Cancelled bool
	Booking   *gateway.Booking
	ErrorTag  string
}

// Machine drives the booking flow. It mutates the session's pending booking
// in place; the orchestrator holds the session lock for the duration.
type Machine struct {
	gw  gateway.Gateway
	now func() time.Time
	log *zap.Logger
}

func New(gw gateway.Gateway, now func() time.Time, log *zap.Logger) *Machine {
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Machine{gw: gw, now: now, log: log}
}

// Collect merges newly extracted fields into the pending booking, creating
// it if needed, and advances to confirmation once slot, date, start and end
// time are all present. Extracted values never overwrite a field with
// emptiness.
func (m *Machine) Collect(sess *session.Session, ents nlu.Entities) Outcome {
	p := sess.Context.Pending
	if p == nil {
		p = &session.PendingBooking{State: session.StateCollecting}
		sess.Context.Pending = p
	}
	if v := ents[nlu.EntitySlotID]; v != "" {
		p.SlotRef = v
	}
	if v := ents[nlu.EntityDate]; v != "" {
		p.Date = v
	}
	if v := ents[nlu.EntityStartTime]; v != "" {
		p.StartTime = v
	}
	if v := ents[nlu.EntityEndTime]; v != "" {
		p.EndTime = v
	}
	// A bare duration fills the end time once a start time is known.
	if p.EndTime == "" && p.StartTime != "" {
		if hours, err := strconv.Atoi(ents[nlu.EntityDuration]); err == nil && hours > 0 {
			if start, err := parseClock(p.StartTime); err == nil {
				p.EndTime = fmt.Sprintf("%d:%02d", (start/60+hours)%24, start%60)
			}
		}
	}

	if missing := p.MissingFields(); len(missing) > 0 {
		return Outcome{Response: "To book your slot I still need: " + strings.Join(missing, ", ") + "."}
	}
	return m.toConfirmation(sess, p)
}

func (m *Machine) toConfirmation(sess *session.Session, p *session.PendingBooking) Outcome {
	slot, err := resolveSlot(p.SlotRef, sess.Context.LastSlots)
	if err != nil {
		// Let the user pick again instead of dead-ending the flow.
		p.SlotRef = ""
		p.State = session.StateCollecting
		return Outcome{Response: err.Error() + " Which slot would you like?", ErrorTag: TagResolutionFailed}
	}

	hours, err := durationHours(p.StartTime, p.EndTime)
	if err != nil {
		p.StartTime = ""
		p.EndTime = ""
		p.State = session.StateCollecting
		return Outcome{
			Response: "Those times don't work: " + err.Error() + ". What start and end time would you like?",
			ErrorTag: TagValidationError,
		}
	}

	p.AmountPaid = slot.UnitPrice * hours
	p.State = session.StateAwaitingConfirmation
	return Outcome{Response: fmt.Sprintf(
		"Booking slot %d at %s station on %s from %s to %s, total %.0f. Shall I confirm? (yes/no)",
		slot.Number, slot.StationName, resolveDate(p.Date, m.now()), p.StartTime, p.EndTime, p.AmountPaid,
	)}
}

// HandleInterrupt applies one classified input to the current state. Callers
// must only pass classes returned by ClassifyInput for the same state.
func (m *Machine) HandleInterrupt(ctx context.Context, sess *session.Session, class InputClass, token string) Outcome {
	p := sess.Context.Pending
	if p == nil {
		return Outcome{Response: "There is no booking in progress."}
	}

	if class == InputDeny {
		sess.Context.Pending = nil
		return Outcome{Cancelled: true, Response: "Okay, I've cancelled this booking."}
	}

	switch p.State {
	case session.StateAwaitingConfirmation:
		if class == InputAffirm {
			p.State = session.StateAwaitingPaymentMethod
			return Outcome{Response: "How would you like to pay? Say 'razorpay' to pay online, or 'coupon' to redeem a parking coupon."}
		}
	case session.StateAwaitingPaymentMethod:
		switch class {
		case InputRazorpay:
			p.PaymentMethod = PaymentOnline
			p.State = session.StateAwaitingPaymentConfirmation
			return Outcome{Response: fmt.Sprintf("Paying %.0f online via Razorpay. Confirm the payment? (yes/no)", p.AmountPaid)}
		case InputCoupon:
			p.PaymentMethod = PaymentCoupon
			p.AmountPaid = 0
			p.State = session.StateAwaitingPaymentConfirmation
			return Outcome{Response: "Redeeming your coupon, nothing to pay. Confirm the booking? (yes/no)"}
		}
	case session.StateAwaitingPaymentConfirmation:
		if class == InputAffirm {
			return m.commit(ctx, sess, token)
		}
	}
	return Outcome{Response: "Sorry, I didn't catch that."}
}

func (m *Machine) commit(ctx context.Context, sess *session.Session, token string) Outcome {
	p := sess.Context.Pending
	slot, err := resolveSlot(p.SlotRef, sess.Context.LastSlots)
	if err != nil {
		return Outcome{Response: err.Error(), ErrorTag: TagResolutionFailed}
	}

	req := gateway.CommitRequest{
		SlotID:        slot.ID,
		Date:          resolveDate(p.Date, m.now()),
		StartTime:     p.StartTime,
		EndTime:       p.EndTime,
		PaymentMethod: p.PaymentMethod,
		Amount:        p.AmountPaid,
	}
	booked, err := m.gw.CommitBooking(ctx, token, req)
	if err != nil {
		// Pending stays intact so the user can retry or cancel.
		m.log.Warn("booking commit failed", zap.String("session_id", sess.ID), zap.Error(err))
		return Outcome{
			Response: "The payment didn't go through. Say 'yes' to try again or 'cancel' to give up.",
			ErrorTag: TagGatewayError,
		}
	}

	sess.Context.Pending = nil
	return Outcome{
		Committed: true,
		Booking:   &booked,
		Response: fmt.Sprintf("Your booking is confirmed! Slot %d at %s station on %s from %s to %s. Booking ID %s.",
			slot.Number, slot.StationName, booked.Date, booked.StartTime, booked.EndTime, booked.ID),
	}
}

// resolveSlot maps a slot reference onto the most recently displayed slot
// list. A numeric reference is a 1-based ordinal into that list; anything
// else must match a listed slot ID.
func resolveSlot(ref string, last []gateway.Slot) (gateway.Slot, error) {
	if n, err := strconv.Atoi(ref); err == nil {
		if len(last) == 0 {
			return gateway.Slot{}, fmt.Errorf("I don't have a slot list to pick from; try showing slots first.")
		}
		if n < 1 || n > len(last) {
			return gateway.Slot{}, fmt.Errorf("slot %d is out of range; only %d slots were shown.", n, len(last))
		}
		return last[n-1], nil
	}
	for _, sl := range last {
		if strings.EqualFold(sl.ID, ref) {
			return sl, nil
		}
	}
	return gateway.Slot{}, fmt.Errorf("I couldn't find slot %q in the last list; try showing slots again.", ref)
}
