package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "testdrive"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort = "8080"

	DefaultRateLimitRequests = 30
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout  = 30 * time.Second
	DefaultIdempotencyTTL  = 24 * time.Hour
	DefaultMaxRequestSize  = 1 * 1024 * 1024 // 1MB
	DefaultPaginationLimit = 100

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	// Showroom hours. The earlier deployment ran 01:00-24:00; production
	// settled on 09:00-19:00, so that is the default and both stay
	// expressible through DAY_START_HOUR / DAY_END_HOUR.
	DefaultDayStartHour = 9
	DefaultDayEndHour   = 19

	DefaultRequireLocation = true

	DefaultBookingEventsTopic = "testdrive.bookings"
)

var (
	// DefaultVehicleCatalog is the demo fleet. Deployments override it with
	// VEHICLE_CATALOG; the catalog is configuration, not data, and never
	// changes at runtime.
	DefaultVehicleCatalog = []string{
		"A200", "A200d", "C200", "C220d", "E200",
		"E220d", "E350d", "S350d", "S450",
	}

	DefaultConsultantRoster = []string{
		"Umang", "King", "Harsh", "Aditya", "Shefali Jain", "Amogh",
		"Nidhi", "Imaad", "Durgesh", "Vaibhav", "Sushil",
	}
)
