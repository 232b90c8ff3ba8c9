package model

import "time"

// BookingLock is an advisory lock keyed by vehicle model and date. Holding it
// makes the overlap check plus insert race-free across concurrent requests;
// the TTL index on expires_at clears locks left behind by crashed handlers.
type BookingLock struct {
	ID        string    `bson:"_id" json:"id"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
