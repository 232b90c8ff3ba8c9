package schedule

import (
	"testdrive/pkg/model"
)

// VehicleAvailability is the advisory verdict for one catalog vehicle against
// a candidate window. Advisory only: the store re-checks at commit time, so a
// stale snapshot here can never corrupt the collection invariant.
type VehicleAvailability struct {
	Unavailable bool `json:"unavailable"`
}

// ResolveAvailability marks each catalog vehicle unavailable iff at least one
// existing booking for that vehicle on the candidate date overlaps the
// candidate [start, end) window.
//
// Pure function of its inputs; identical inputs always yield identical
// output, so callers recompute freely whenever the window or the snapshot
// changes. When the window is not yet fully specified (empty start or end)
// resolution is skipped and every vehicle reports available.
func ResolveAvailability(date, start, end string, bookings []model.Booking, catalog []string) map[string]VehicleAvailability {
	result := make(map[string]VehicleAvailability, len(catalog))
	for _, vehicle := range catalog {
		result[vehicle] = VehicleAvailability{}
	}

	if start == "" || end == "" {
		return result
	}

	for _, b := range bookings {
		if b.Date != date {
			continue
		}
		if _, inCatalog := result[b.VehicleModel]; !inCatalog {
			continue
		}
		if Overlaps(start, end, b.StartTime, b.EndTime) {
			result[b.VehicleModel] = VehicleAvailability{Unavailable: true}
		}
	}
	return result
}
