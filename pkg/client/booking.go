package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	apperrors "testdrive/pkg/errors"
	"testdrive/pkg/model"
)

// BookingGateway is the request/response boundary to the booking store. The
// store is the final arbiter of the no-overlap invariant, so Create can fail
// with a conflict even when a prior availability check looked clear; callers
// must treat that as a normal outcome, refresh their snapshot and re-render.
type BookingGateway struct {
	httpClient *HttpClient
}

func NewBookingGateway(baseURL string) *BookingGateway {
	return &BookingGateway{
		httpClient: NewHttpClient(baseURL),
	}
}

// List fetches the full current booking snapshot. Transport or store
// failures come back as a transient AppError; the caller decides whether to
// degrade to an older snapshot.
func (g *BookingGateway) List(ctx context.Context) ([]model.Booking, error) {
	resp, err := g.httpClient.GET(ctx, "/api/v1/bookings")
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeUnavailable, "booking store is unreachable", http.StatusServiceUnavailable)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.New(apperrors.CodeUnavailable,
			fmt.Sprintf("booking store returned status %d: %s", resp.StatusCode, GetErrorMessage(resp)),
			http.StatusServiceUnavailable)
	}

	bookings, err := decodeBookings(resp)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeUnavailable, "booking store returned an unreadable snapshot", http.StatusServiceUnavailable)
	}
	return bookings, nil
}

// Create submits one booking and returns the persisted record, id assigned.
// A 409 from the store means the vehicle was taken for this window between
// snapshot and submit; everything else non-2xx is transient.
func (g *BookingGateway) Create(ctx context.Context, booking model.Booking) (*model.Booking, error) {
	resp, err := g.httpClient.POST(ctx, "/api/v1/bookings", booking)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeUnavailable, "booking store is unreachable", http.StatusServiceUnavailable)
	}

	switch {
	case resp.StatusCode == http.StatusCreated:
		created, err := decodeBooking(resp)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeUnavailable, "booking store returned an unreadable record", http.StatusServiceUnavailable)
		}
		return created, nil
	case resp.StatusCode == http.StatusConflict:
		return nil, apperrors.Conflict(GetErrorMessage(resp))
	case resp.StatusCode == http.StatusUnprocessableEntity || resp.StatusCode == http.StatusBadRequest:
		return nil, apperrors.New(apperrors.CodeValidation, GetErrorMessage(resp), resp.StatusCode)
	default:
		return nil, apperrors.New(apperrors.CodeUnavailable,
			fmt.Sprintf("booking store returned status %d: %s", resp.StatusCode, GetErrorMessage(resp)),
			http.StatusServiceUnavailable)
	}
}

// VehicleAvailability is the store's per-vehicle verdict for a candidate
// window, decoded from the availability endpoint.
type VehicleAvailability struct {
	Unavailable bool `json:"unavailable"`
}

// Availability asks the store for the per-vehicle verdict on a candidate
// window, for callers that prefer the server-side resolver over a local one.
func (g *BookingGateway) Availability(ctx context.Context, date, start, end string) (map[string]VehicleAvailability, error) {
	q := url.Values{}
	q.Set("date", date)
	q.Set("startTime", start)
	q.Set("endTime", end)

	resp, err := g.httpClient.GET(ctx, "/api/v1/bookings/availability?"+q.Encode())
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeUnavailable, "booking store is unreachable", http.StatusServiceUnavailable)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.New(apperrors.CodeUnavailable,
			fmt.Sprintf("booking store returned status %d: %s", resp.StatusCode, GetErrorMessage(resp)),
			http.StatusServiceUnavailable)
	}

	var wrapper struct {
		Data map[string]VehicleAvailability `json:"data"`
	}
	if err := resp.DecodeJSON(&wrapper); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeUnavailable, "booking store returned an unreadable verdict", http.StatusServiceUnavailable)
	}
	return wrapper.Data, nil
}

func decodeBooking(resp *Response) (*model.Booking, error) {
	var wrapper struct {
		Data json.RawMessage `json:"data"`
	}
	if err := resp.DecodeJSON(&wrapper); err != nil {
		return nil, fmt.Errorf("could not decode booking wrapper: %w", err)
	}

	var booking model.Booking
	if err := json.Unmarshal(wrapper.Data, &booking); err != nil {
		return nil, fmt.Errorf("could not decode booking json: %w", err)
	}
	return &booking, nil
}

func decodeBookings(resp *Response) ([]model.Booking, error) {
	var wrapper struct {
		Data json.RawMessage `json:"data"`
	}
	if err := resp.DecodeJSON(&wrapper); err != nil {
		return nil, fmt.Errorf("could not decode booking list wrapper: %w", err)
	}

	var bookings []model.Booking
	if err := json.Unmarshal(wrapper.Data, &bookings); err != nil {
		return nil, fmt.Errorf("could not decode booking list: %w", err)
	}
	return bookings, nil
}
