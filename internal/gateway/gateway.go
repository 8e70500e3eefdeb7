package gateway

import (
	"context"
	"errors"
	"fmt"
)

// ErrorKind classifies gateway failures for the dialogue engine. The engine
// never sees transport details, only these kinds.
type ErrorKind string

const (
	KindNotFound   ErrorKind = "not_found"
	KindUpstream   ErrorKind = "upstream_failure"
	KindValidation ErrorKind = "validation_error"
)

// Error is the typed failure returned by every gateway operation.
type Error struct {
	Kind    ErrorKind
	Op      string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("gateway %s: %s: %s", e.Op, e.Kind, e.Message)
}

// IsKind reports whether err is a gateway error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var ge *Error
	return errors.As(err, &ge) && ge.Kind == kind
}

// Station is a parking station as reported by the backend.
type Station struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	City           string `json:"city"`
	AvailableSlots int    `json:"available_slots"`
	TotalSlots     int    `json:"total_slots"`
}

// Slot is a single parking slot at a station.
type Slot struct {
	ID          string  `json:"id"`
	StationID   string  `json:"station_id"`
	StationName string  `json:"station_name"`
	Number      int     `json:"number"`
	VehicleType string  `json:"vehicle_type"`
	Available   bool    `json:"available"`
	UnitPrice   float64 `json:"unit_price"`
}

// Booking is a committed reservation held by the backend ledger.
type Booking struct {
	ID            string  `json:"id"`
	SlotID        string  `json:"slot_id"`
	StationName   string  `json:"station_name"`
	Date          string  `json:"date"`
	StartTime     string  `json:"start_time"`
	EndTime       string  `json:"end_time"`
	PaymentMethod string  `json:"payment_method"`
	Status        string  `json:"status"`
	Amount        float64 `json:"amount"`
}

// Payment is one entry of the user's payment history.
type Payment struct {
	ID        string  `json:"id"`
	BookingID string  `json:"booking_id"`
	Method    string  `json:"method"`
	Status    string  `json:"status"`
	Amount    float64 `json:"amount"`
}

// SlotQuery narrows a slot listing.
type SlotQuery struct {
	City          string
	StationID     string
	VehicleType   string
	AvailableOnly bool
}

// CommitRequest carries everything the backend needs to record a booking.
type CommitRequest struct {
	SlotID        string  `json:"slot_id"`
	Date          string  `json:"date"`
	StartTime     string  `json:"start_time"`
	EndTime       string  `json:"end_time"`
	PaymentMethod string  `json:"payment_method"`
	Amount        float64 `json:"amount"`
}

// Gateway is the capability boundary to the parking backend. Implementations
// own transport, timeouts and retries; the dialogue engine only speaks this
// logical contract.
type Gateway interface {
	ListStations(ctx context.Context, token, city string) ([]Station, error)
	ListSlots(ctx context.Context, token string, q SlotQuery) ([]Slot, error)
	ListBookings(ctx context.Context, token string) ([]Booking, error)
	CancelBooking(ctx context.Context, token, bookingID string) error
	CommitBooking(ctx context.Context, token string, req CommitRequest) (Booking, error)
	AddFavorite(ctx context.Context, token, stationID string) error
	ListFavorites(ctx context.Context, token string) ([]Station, error)
	ListPayments(ctx context.Context, token string) ([]Payment, error)
}
