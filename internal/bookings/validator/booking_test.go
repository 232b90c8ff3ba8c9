package validator

import (
	"errors"
	"io"
	"testing"
	"time"

	"testdrive/pkg/logger"
	"testdrive/pkg/model"
)

var (
	testCatalog = []string{"A200", "C200", "C220d", "E200"}
	testRoster  = []string{"Umang", "Katrina", "Shefali Jain"}
)

func newTestValidator(t *testing.T, requireLocation bool) *BookingValidator {
	t.Helper()
	log := logger.New(logger.Config{Level: "error", Output: io.Discard, Service: "test"})
	return NewBookingValidator(log, testCatalog, testRoster, requireLocation).WithClock(func() time.Time {
		return time.Date(2024, 6, 1, 10, 0, 0, 0, time.Local)
	})
}

func validBooking() *model.Booking {
	return &model.Booking{
		Date:           "2024-06-02",
		StartTime:      "10:00",
		EndTime:        "11:00",
		VehicleModel:   "C200",
		ConsultantName: "Umang",
		Location:       "Mumbai",
	}
}

func TestValidateAcceptsWellFormedBooking(t *testing.T) {
	v := newTestValidator(t, true)
	if err := v.Validate(validBooking()); err != nil {
		t.Fatalf("Validate() error = %v, want nil", err)
	}
}

func TestValidateRuleKinds(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*model.Booking)
		wantKind Kind
	}{
		{
			name:     "missing date",
			mutate:   func(b *model.Booking) { b.Date = "" },
			wantKind: KindMissingField,
		},
		{
			name:     "missing vehicle",
			mutate:   func(b *model.Booking) { b.VehicleModel = "" },
			wantKind: KindMissingField,
		},
		{
			name:     "missing location when required",
			mutate:   func(b *model.Booking) { b.Location = "" },
			wantKind: KindMissingField,
		},
		{
			name:     "unpadded start time",
			mutate:   func(b *model.Booking) { b.StartTime = "9:00" },
			wantKind: KindInvalidFormat,
		},
		{
			name:     "malformed date",
			mutate:   func(b *model.Booking) { b.Date = "02-06-2024" },
			wantKind: KindInvalidFormat,
		},
		{
			name:     "vehicle outside catalog",
			mutate:   func(b *model.Booking) { b.VehicleModel = "Maybach" },
			wantKind: KindUnknownVehicle,
		},
		{
			name:     "consultant outside roster",
			mutate:   func(b *model.Booking) { b.ConsultantName = "Nobody Here" },
			wantKind: KindUnknownConsultant,
		},
		{
			name: "start in the past",
			mutate: func(b *model.Booking) {
				b.Date = "2024-05-31"
			},
			wantKind: KindPastDateTime,
		},
		{
			name: "start equal to now is rejected",
			mutate: func(b *model.Booking) {
				b.Date = "2024-06-01"
				b.StartTime = "10:00"
			},
			wantKind: KindPastDateTime,
		},
		{
			name: "end before start",
			mutate: func(b *model.Booking) {
				b.StartTime = "11:00"
				b.EndTime = "10:00"
			},
			wantKind: KindInvalidTimeRange,
		},
		{
			name: "zero length window",
			mutate: func(b *model.Booking) {
				b.StartTime = "11:00"
				b.EndTime = "11:00"
			},
			wantKind: KindInvalidTimeRange,
		},
	}

	v := newTestValidator(t, true)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			booking := validBooking()
			tt.mutate(booking)

			err := v.Validate(booking)
			if err == nil {
				t.Fatal("Validate() = nil, want rule error")
			}

			var ruleErr *RuleError
			if !errors.As(err, &ruleErr) {
				t.Fatalf("Validate() error = %v, want *RuleError", err)
			}
			if ruleErr.Kind != tt.wantKind {
				t.Errorf("kind = %s, want %s", ruleErr.Kind, tt.wantKind)
			}
		})
	}
}

func TestValidateMissingFieldWinsOverLaterRules(t *testing.T) {
	// A booking can violate several rules at once; the first rule in
	// submission order decides the reported kind.
	v := newTestValidator(t, true)
	booking := validBooking()
	booking.ConsultantName = ""
	booking.StartTime = "11:00"
	booking.EndTime = "10:00"

	err := v.Validate(booking)
	var ruleErr *RuleError
	if !errors.As(err, &ruleErr) {
		t.Fatalf("Validate() error = %v, want *RuleError", err)
	}
	if ruleErr.Kind != KindMissingField {
		t.Errorf("kind = %s, want %s", ruleErr.Kind, KindMissingField)
	}
}

func TestValidateOptionalLocation(t *testing.T) {
	v := newTestValidator(t, false)
	booking := validBooking()
	booking.Location = ""

	if err := v.Validate(booking); err != nil {
		t.Fatalf("Validate() error = %v, want nil when location is optional", err)
	}
}

func TestValidateFutureStartToday(t *testing.T) {
	v := newTestValidator(t, true)
	booking := validBooking()
	booking.Date = "2024-06-01"
	booking.StartTime = "10:30"
	booking.EndTime = "11:00"

	if err := v.Validate(booking); err != nil {
		t.Fatalf("Validate() error = %v, want nil for later-today start", err)
	}
}
