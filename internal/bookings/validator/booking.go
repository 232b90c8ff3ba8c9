package validator

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"testdrive/internal/schedule"
	"testdrive/pkg/logger"
	"testdrive/pkg/model"
)

// Kind identifies which submission rule a booking violated. Callers branch on
// it to render a precise message, so each rule gets its own value.
type Kind string

const (
	KindMissingField      Kind = "missing_field"
	KindInvalidFormat     Kind = "invalid_format"
	KindUnknownVehicle    Kind = "unknown_vehicle"
	KindUnknownConsultant Kind = "unknown_consultant"
	KindPastDateTime      Kind = "past_datetime"
	KindInvalidTimeRange  Kind = "invalid_time_range"
)

type RuleError struct {
	Kind    Kind   `json:"kind"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *RuleError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// BookingValidator enforces the submission-time invariants: all required
// fields present and well-formed, the vehicle and consultant drawn from the
// injected catalog/roster, the start moment strictly in the future and the
// end strictly after the start. Rules run in that order and the first
// violation wins. Availability is deliberately not checked here; the store
// re-verifies it at commit time anyway.
type BookingValidator struct {
	validate        *validator.Validate
	logger          *logger.Logger
	catalog         map[string]struct{}
	roster          map[string]struct{}
	requireLocation bool
	now             func() time.Time
}

func NewBookingValidator(log *logger.Logger, catalog, roster []string, requireLocation bool) *BookingValidator {
	catalogSet := make(map[string]struct{}, len(catalog))
	for _, vehicle := range catalog {
		catalogSet[vehicle] = struct{}{}
	}
	rosterSet := make(map[string]struct{}, len(roster))
	for _, consultant := range roster {
		rosterSet[consultant] = struct{}{}
	}

	log.Info("Booking validator initialized",
		"catalog_size", len(catalogSet),
		"roster_size", len(rosterSet),
		"require_location", requireLocation,
	)

	return &BookingValidator{
		validate:        validator.New(),
		logger:          log,
		catalog:         catalogSet,
		roster:          rosterSet,
		requireLocation: requireLocation,
		now:             time.Now,
	}
}

// WithClock replaces the time source consulted by the past-start rule.
// Tests pin it to a fixed moment so fixture dates stay stable.
func (v *BookingValidator) WithClock(now func() time.Time) *BookingValidator {
	v.now = now
	return v
}

func (v *BookingValidator) Validate(booking *model.Booking) error {
	if err := v.validate.Struct(booking); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return translateFirst(validationErrs)
		}
		return err
	}

	if v.requireLocation && booking.Location == "" {
		return &RuleError{
			Kind:    KindMissingField,
			Field:   "location",
			Message: "location is required",
		}
	}

	if _, ok := v.catalog[booking.VehicleModel]; !ok {
		return &RuleError{
			Kind:    KindUnknownVehicle,
			Field:   "vehicleModel",
			Message: fmt.Sprintf("%q is not in the vehicle catalog", booking.VehicleModel),
		}
	}

	if _, ok := v.roster[booking.ConsultantName]; !ok {
		return &RuleError{
			Kind:    KindUnknownConsultant,
			Field:   "consultantName",
			Message: fmt.Sprintf("%q is not on the consultant roster", booking.ConsultantName),
		}
	}

	if err := v.checkNotPast(booking); err != nil {
		return err
	}

	return v.checkTimeRange(booking)
}

// checkNotPast rejects bookings whose start moment is not strictly after now.
// Now is truncated to the minute so a submission within the current minute
// compares stably against minute-granular slot times.
func (v *BookingValidator) checkNotPast(booking *model.Booking) error {
	selected, err := time.ParseInLocation("2006-01-02 15:04", booking.Date+" "+booking.StartTime, time.Local)
	if err != nil {
		return &RuleError{
			Kind:    KindInvalidFormat,
			Field:   "startTime",
			Message: "date and startTime must form a valid local timestamp",
		}
	}

	if !selected.After(v.now().Truncate(time.Minute)) {
		return &RuleError{
			Kind:    KindPastDateTime,
			Field:   "startTime",
			Message: "bookings cannot start in the past",
		}
	}
	return nil
}

func (v *BookingValidator) checkTimeRange(booking *model.Booking) error {
	start, err1 := schedule.MinuteOfDay(booking.StartTime)
	end, err2 := schedule.MinuteOfDay(booking.EndTime)
	if err1 != nil || err2 != nil {
		return &RuleError{
			Kind:    KindInvalidFormat,
			Field:   "endTime",
			Message: "startTime and endTime must be zero-padded HH:MM values",
		}
	}

	if start >= end {
		return &RuleError{
			Kind:    KindInvalidTimeRange,
			Field:   "endTime",
			Message: "endTime must be later than startTime",
		}
	}
	return nil
}

// translateFirst maps the first struct-tag failure to a rule error. Required
// fields map to missing_field; everything else (date/time layout, length
// bounds, malformed id) is a format problem.
func translateFirst(errs validator.ValidationErrors) error {
	if len(errs) == 0 {
		return nil
	}
	first := errs[0]

	if first.Tag() == "required" {
		return &RuleError{
			Kind:    KindMissingField,
			Field:   first.Field(),
			Message: fmt.Sprintf("%s is required", first.Field()),
		}
	}

	message := first.Error()
	switch first.Tag() {
	case "datetime":
		message = fmt.Sprintf("%s must match layout %s", first.Field(), first.Param())
	case "min":
		message = fmt.Sprintf("%s must be at least %s characters", first.Field(), first.Param())
	case "max":
		message = fmt.Sprintf("%s must be at most %s characters", first.Field(), first.Param())
	case "mongodb":
		message = fmt.Sprintf("%s must be a valid MongoDB ObjectID", first.Field())
	}

	return &RuleError{
		Kind:    KindInvalidFormat,
		Field:   first.Field(),
		Message: message,
	}
}
