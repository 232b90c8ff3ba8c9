package model

import (
	"time"
)

// Booking is the sole persistent entity. Date is a local calendar day
// ("2006-01-02") and StartTime/EndTime are local wall-clock minutes of that
// day ("15:04", zero-padded). The collection invariant is that two bookings
// for the same vehicle model on the same date never overlap as half-open
// [start, end) windows; the store enforces it at create time.
type Booking struct {
	ID             string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Date           string    `json:"date" bson:"date" validate:"required,datetime=2006-01-02"`
	StartTime      string    `json:"startTime" bson:"start_time" validate:"required,datetime=15:04"`
	EndTime        string    `json:"endTime" bson:"end_time" validate:"required,datetime=15:04"`
	VehicleModel   string    `json:"vehicleModel" bson:"vehicle_model" validate:"required,min=2,max=40"`
	ConsultantName string    `json:"consultantName" bson:"consultant_name" validate:"required,min=2,max=100"`
	Location       string    `json:"location" bson:"location" validate:"omitempty,max=200"`
	CreatedAt      time.Time `json:"createdAt,omitempty" bson:"created_at" validate:"omitempty"`
}

// DashboardBar is one horizontal bar on the daily timeline view: where a
// booking starts as a minute-of-day offset and how long it runs.
type DashboardBar struct {
	VehicleModel    string `json:"vehicleModel"`
	ConsultantName  string `json:"consultantName"`
	StartMinutes    int    `json:"startMinutes"`
	DurationMinutes int    `json:"durationMinutes"`
	StartTime       string `json:"startTime"`
	EndTime         string `json:"endTime"`
}
