package gateway

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/parkpro/assistant/internal/reliability"
)

const (
	retryCount    = 2
	retryBaseWait = 100 * time.Millisecond
	retryMaxWait  = 2 * time.Second
)

// HTTPGateway talks to the parking backend's REST API. It owns transport
// policy (timeouts, retries on retryable statuses); callers only see the
// Gateway contract and typed errors.
type HTTPGateway struct {
	client *resty.Client
	log    *zap.Logger
}

// NewHTTP builds a gateway against baseURL.
func NewHTTP(baseURL string, timeout time.Duration, log *zap.Logger) *HTTPGateway {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(retryCount).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err == nil && reliability.IsRetryableHTTPStatus(r.StatusCode())
		}).
		SetRetryAfter(func(_ *resty.Client, r *resty.Response) (time.Duration, error) {
			return reliability.ExponentialBackoff(r.Request.Attempt, retryBaseWait, retryMaxWait), nil
		})
	return &HTTPGateway{client: client, log: log}
}

func (g *HTTPGateway) ListStations(ctx context.Context, token, city string) ([]Station, error) {
	var out []Station
	req := g.request(ctx, token).SetResult(&out)
	if city != "" {
		req.SetQueryParam("city", city)
	}
	resp, err := req.Get("/api/stations")
	if err := g.check("list_stations", resp, err); err != nil {
		return nil, err
	}
	return out, nil
}

func (g *HTTPGateway) ListSlots(ctx context.Context, token string, q SlotQuery) ([]Slot, error) {
	var out []Slot
	req := g.request(ctx, token).SetResult(&out)
	if q.City != "" {
		req.SetQueryParam("city", q.City)
	}
	if q.StationID != "" {
		req.SetQueryParam("station_id", q.StationID)
	}
	if q.VehicleType != "" {
		req.SetQueryParam("vehicle_type", q.VehicleType)
	}
	req.SetQueryParam("available_only", strconv.FormatBool(q.AvailableOnly))
	resp, err := req.Get("/api/slots")
	if err := g.check("list_slots", resp, err); err != nil {
		return nil, err
	}
	return out, nil
}

func (g *HTTPGateway) ListBookings(ctx context.Context, token string) ([]Booking, error) {
	var out []Booking
	resp, err := g.request(ctx, token).SetResult(&out).Get("/api/user/bookings")
	if err := g.check("list_bookings", resp, err); err != nil {
		return nil, err
	}
	return out, nil
}

func (g *HTTPGateway) CancelBooking(ctx context.Context, token, bookingID string) error {
	resp, err := g.request(ctx, token).Delete("/api/bookings/" + bookingID)
	return g.check("cancel_booking", resp, err)
}

func (g *HTTPGateway) CommitBooking(ctx context.Context, token string, req CommitRequest) (Booking, error) {
	var out Booking
	resp, err := g.request(ctx, token).SetBody(req).SetResult(&out).Post("/api/bookings")
	if err := g.check("commit_booking", resp, err); err != nil {
		return Booking{}, err
	}
	return out, nil
}

func (g *HTTPGateway) AddFavorite(ctx context.Context, token, stationID string) error {
	resp, err := g.request(ctx, token).
		SetBody(map[string]string{"station_id": stationID}).
		Post("/api/favorites")
	return g.check("add_favorite", resp, err)
}

func (g *HTTPGateway) ListFavorites(ctx context.Context, token string) ([]Station, error) {
	var out []Station
	resp, err := g.request(ctx, token).SetResult(&out).Get("/api/favorites")
	if err := g.check("list_favorites", resp, err); err != nil {
		return nil, err
	}
	return out, nil
}

func (g *HTTPGateway) ListPayments(ctx context.Context, token string) ([]Payment, error) {
	var out []Payment
	resp, err := g.request(ctx, token).SetResult(&out).Get("/api/payments/history")
	if err := g.check("list_payments", resp, err); err != nil {
		return nil, err
	}
	return out, nil
}

func (g *HTTPGateway) request(ctx context.Context, token string) *resty.Request {
	req := g.client.R().SetContext(ctx)
	if token != "" {
		req.SetAuthToken(token)
	}
	return req
}

// check maps transport failures and non-2xx statuses onto the typed error
// taxonomy.
func (g *HTTPGateway) check(op string, resp *resty.Response, err error) error {
	if err != nil {
		g.log.Warn("backend request failed", zap.String("op", op), zap.Error(err))
		return &Error{Kind: KindUpstream, Op: op, Message: err.Error()}
	}
	if resp.IsSuccess() {
		return nil
	}
	g.log.Warn("backend returned error status",
		zap.String("op", op),
		zap.Int("status", resp.StatusCode()),
	)
	msg := fmt.Sprintf("status %d", resp.StatusCode())
	switch resp.StatusCode() {
	case http.StatusNotFound:
		return &Error{Kind: KindNotFound, Op: op, Message: msg}
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return &Error{Kind: KindValidation, Op: op, Message: msg}
	default:
		return &Error{Kind: KindUpstream, Op: op, Message: msg}
	}
}
