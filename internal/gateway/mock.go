package gateway

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Mock is an in-memory gateway used by tests and by no-backend dev mode.
type Mock struct {
	mu        sync.Mutex
	stations  []Station
	slots     []Slot
	bookings  []Booking
	favorites []Station
	payments  []Payment

	// FailCommits makes CommitBooking return an upstream error while set.
	FailCommits bool
	// CommitCalls counts CommitBooking invocations, including failed ones.
	CommitCalls int
}

// NewMock returns a mock seeded with a small fixed set of stations and slots.
func NewMock() *Mock {
	stations := []Station{
		{ID: "st-1", Name: "central", City: "bangalore", AvailableSlots: 3, TotalSlots: 4},
		{ID: "st-2", Name: "airport", City: "bangalore", AvailableSlots: 2, TotalSlots: 2},
		{ID: "st-3", Name: "marina", City: "chennai", AvailableSlots: 1, TotalSlots: 2},
	}
	slots := []Slot{
		{ID: "sl-101", StationID: "st-1", StationName: "central", Number: 1, VehicleType: "car", Available: true, UnitPrice: 40},
		{ID: "sl-102", StationID: "st-1", StationName: "central", Number: 2, VehicleType: "car", Available: true, UnitPrice: 40},
		{ID: "sl-103", StationID: "st-1", StationName: "central", Number: 3, VehicleType: "bike", Available: true, UnitPrice: 15},
		{ID: "sl-104", StationID: "st-1", StationName: "central", Number: 4, VehicleType: "car", Available: false, UnitPrice: 40},
		{ID: "sl-201", StationID: "st-2", StationName: "airport", Number: 1, VehicleType: "car", Available: true, UnitPrice: 60},
		{ID: "sl-202", StationID: "st-2", StationName: "airport", Number: 2, VehicleType: "truck", Available: true, UnitPrice: 90},
		{ID: "sl-301", StationID: "st-3", StationName: "marina", Number: 1, VehicleType: "car", Available: true, UnitPrice: 35},
	}
	return &Mock{stations: stations, slots: slots}
}

func (m *Mock) ListStations(_ context.Context, _ string, city string) ([]Station, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Station, 0, len(m.stations))
	for _, st := range m.stations {
		if city != "" && !strings.EqualFold(st.City, city) {
			continue
		}
		out = append(out, st)
	}
	return out, nil
}

func (m *Mock) ListSlots(_ context.Context, _ string, q SlotQuery) ([]Slot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cityStations := make(map[string]bool)
	for _, st := range m.stations {
		if q.City == "" || strings.EqualFold(st.City, q.City) {
			cityStations[st.ID] = true
		}
	}
	out := make([]Slot, 0, len(m.slots))
	for _, sl := range m.slots {
		if !cityStations[sl.StationID] {
			continue
		}
		if q.StationID != "" && sl.StationID != q.StationID {
			continue
		}
		if q.VehicleType != "" && sl.VehicleType != q.VehicleType {
			continue
		}
		if q.AvailableOnly && !sl.Available {
			continue
		}
		out = append(out, sl)
	}
	return out, nil
}

func (m *Mock) ListBookings(_ context.Context, _ string) ([]Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Booking, len(m.bookings))
	copy(out, m.bookings)
	return out, nil
}

func (m *Mock) CancelBooking(_ context.Context, _ string, bookingID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, b := range m.bookings {
		if b.ID == bookingID || strconv.Itoa(i+1) == bookingID {
			m.bookings[i].Status = "cancelled"
			return nil
		}
	}
	return &Error{Kind: KindNotFound, Op: "cancel_booking", Message: "no such booking"}
}

func (m *Mock) CommitBooking(_ context.Context, _ string, req CommitRequest) (Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CommitCalls++
	if m.FailCommits {
		return Booking{}, &Error{Kind: KindUpstream, Op: "commit_booking", Message: "backend unavailable"}
	}
	stationName := ""
	for i, sl := range m.slots {
		if sl.ID == req.SlotID {
			m.slots[i].Available = false
			stationName = sl.StationName
			break
		}
	}
	b := Booking{
		ID:            uuid.NewString(),
		SlotID:        req.SlotID,
		StationName:   stationName,
		Date:          req.Date,
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
		PaymentMethod: req.PaymentMethod,
		Status:        "confirmed",
		Amount:        req.Amount,
	}
	m.bookings = append(m.bookings, b)
	m.payments = append(m.payments, Payment{
		ID:        uuid.NewString(),
		BookingID: b.ID,
		Method:    req.PaymentMethod,
		Status:    "paid",
		Amount:    req.Amount,
	})
	return b, nil
}

func (m *Mock) AddFavorite(_ context.Context, _ string, stationID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, st := range m.stations {
		if st.ID == stationID || strings.EqualFold(st.Name, stationID) {
			m.favorites = append(m.favorites, st)
			return nil
		}
	}
	return &Error{Kind: KindNotFound, Op: "add_favorite", Message: "no such station"}
}

func (m *Mock) ListFavorites(_ context.Context, _ string) ([]Station, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Station, len(m.favorites))
	copy(out, m.favorites)
	return out, nil
}

func (m *Mock) ListPayments(_ context.Context, _ string) ([]Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Payment, len(m.payments))
	copy(out, m.payments)
	return out, nil
}
