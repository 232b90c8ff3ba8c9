package client

import (
	"context"
	"sync"

	"testdrive/pkg/model"
)

// SnapshotRefresher serializes concurrent snapshot fetches from the booking
// store. Each Refresh call claims a generation number; when the user changes
// the candidate window again before the previous fetch lands, the superseded
// response is discarded instead of overwriting the newer snapshot.
type SnapshotRefresher struct {
	gateway *BookingGateway

	mu       sync.Mutex
	latestID uint64
	snapshot []model.Booking
}

func NewSnapshotRefresher(gateway *BookingGateway) *SnapshotRefresher {
	return &SnapshotRefresher{gateway: gateway}
}

// Refresh fetches a new snapshot and installs it unless a newer Refresh has
// started in the meantime. On a transient fetch failure the previous snapshot
// stays in place and the error is returned so the caller can warn the user;
// availability degrades to "everything looks free", which the store's own
// conflict check makes safe.
func (r *SnapshotRefresher) Refresh(ctx context.Context) ([]model.Booking, error) {
	r.mu.Lock()
	r.latestID++
	id := r.latestID
	r.mu.Unlock()

	bookings, err := r.gateway.List(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()

	if id != r.latestID {
		// A newer refresh superseded this one; its result wins.
		return r.snapshot, nil
	}
	if err != nil {
		return r.snapshot, err
	}

	r.snapshot = bookings
	return r.snapshot, nil
}

// Snapshot returns the most recently installed snapshot without fetching.
func (r *SnapshotRefresher) Snapshot() []model.Booking {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshot
}
