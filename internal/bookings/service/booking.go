package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	bookingserrors "testdrive/internal/bookings/errors"
	"testdrive/internal/bookings/events"
	"testdrive/internal/bookings/repository"
	"testdrive/internal/bookings/validator"
	"testdrive/internal/schedule"
	"testdrive/pkg/config"
	apperrors "testdrive/pkg/errors"
	"testdrive/pkg/model"
	"testdrive/pkg/sanitizer"
)

// ListFilter narrows a booking listing relative to the current moment.
type ListFilter string

const (
	FilterNone     ListFilter = ""
	FilterToday    ListFilter = "today"
	FilterOngoing  ListFilter = "ongoing"
	FilterUpcoming ListFilter = "upcoming"
)

// ListQuery carries the optional listing parameters. A zero Limit means no
// pagination.
type ListQuery struct {
	Limit  int
	Offset int64
	Filter ListFilter
	Search string
}

type BookingService interface {
	Create(ctx context.Context, booking *model.Booking) error
	GetByID(ctx context.Context, id string) (*model.Booking, error)
	GetAll(ctx context.Context, query ListQuery) ([]*model.Booking, int64, error)
	Slots(ctx context.Context, date string) ([]string, error)
	Availability(ctx context.Context, date, startTime, endTime string) (map[string]schedule.VehicleAvailability, error)
	DashboardToday(ctx context.Context) (string, []model.DashboardBar, error)
	Vehicles() []string
	Consultants() []string
}

type bookingService struct {
	repo      repository.BookingRepository
	lockRepo  repository.BookingLockRepository
	validator *validator.BookingValidator
	publisher events.Publisher
	cfg       *config.Config
	now       func() time.Time
}

func NewBookingService(
	repo repository.BookingRepository,
	lockRepo repository.BookingLockRepository,
	validator *validator.BookingValidator,
	publisher events.Publisher,
	cfg *config.Config,
) BookingService {
	return &bookingService{
		repo:      repo,
		lockRepo:  lockRepo,
		validator: validator,
		publisher: publisher,
		cfg:       cfg,
		now:       time.Now,
	}
}

func (s *bookingService) Create(ctx context.Context, booking *model.Booking) error {
	s.sanitize(booking)
	err := s.validate(booking)
	if err != nil {
		return err
	}

	// Acquire advisory lock to prevent race conditions
	lockID, err := s.acquireSlotLock(ctx, booking.VehicleModel, booking.Date)
	if err != nil {
		return err
	}
	defer func() {
		if releaseErr := s.releaseSlotLock(ctx, lockID); releaseErr != nil {
			s.cfg.Log.Warn("Failed to release booking lock", "lock_id", lockID, "error", releaseErr)
		}
	}()

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.verifyNoOverlap(sessCtx, booking); err != nil {
			return err
		}
		if err := s.repo.Create(sessCtx, booking); err != nil {
			return apperrors.Internal("Failed to create booking", err)
		}

		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to create booking", "error", err)
		return err
	}

	s.cfg.Log.Info("Booking created successfully",
		"id", booking.ID,
		"vehicle_model", booking.VehicleModel,
		"date", booking.Date,
		"start_time", booking.StartTime,
		"end_time", booking.EndTime,
	)

	// Best effort: the booking is already committed, a lost event never
	// fails the request.
	if publishErr := s.publisher.PublishBookingCreated(ctx, booking); publishErr != nil {
		s.cfg.Log.Warn("Booking created but event publish failed", "id", booking.ID, "error", publishErr)
	}
	return nil
}

func (s *bookingService) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Booking", id)
		}
		if errors.Is(err, bookingserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid booking ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve booking", err)
	}

	return booking, nil
}

func (s *bookingService) GetAll(ctx context.Context, query ListQuery) ([]*model.Booking, int64, error) {
	if err := validateFilter(query.Filter); err != nil {
		return nil, 0, err
	}

	// Relative filters and free-text search cannot be pushed down to the
	// store as-is, so those listings load the full set and narrow here.
	// A dealership's booking volume keeps that cheap.
	if query.Filter != FilterNone || query.Search != "" {
		return s.filteredList(ctx, query)
	}

	var count int64
	var bookings []*model.Booking
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count bookings", "error", errCount)
			errCount = apperrors.Internal("Failed to count bookings", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		bookings, errFind = s.repo.FindAll(ctx, query.Limit, query.Offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list bookings", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve bookings", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return bookings, count, nil
}

func (s *bookingService) filteredList(ctx context.Context, query ListQuery) ([]*model.Booking, int64, error) {
	all, err := s.repo.FindAll(ctx, 0, 0)
	if err != nil {
		s.cfg.Log.Error("Failed to list bookings", "error", err)
		return nil, 0, apperrors.Internal("Failed to retrieve bookings", err)
	}

	now := s.now()
	matched := make([]*model.Booking, 0, len(all))
	for _, b := range all {
		if !matchesFilter(b, query.Filter, now) {
			continue
		}
		if !matchesSearch(b, query.Search) {
			continue
		}
		matched = append(matched, b)
	}

	count := int64(len(matched))

	if query.Offset > 0 {
		if query.Offset >= count {
			return []*model.Booking{}, count, nil
		}
		matched = matched[query.Offset:]
	}
	if query.Limit > 0 && len(matched) > query.Limit {
		matched = matched[:query.Limit]
	}

	return matched, count, nil
}

func (s *bookingService) Slots(ctx context.Context, date string) ([]string, error) {
	if _, err := time.ParseInLocation(schedule.DateLayout, date, time.Local); err != nil {
		return nil, apperrors.InvalidInput("date must use layout " + schedule.DateLayout)
	}

	window := schedule.Window{
		StartHour: s.cfg.DayStartHour,
		EndHour:   s.cfg.DayEndHour,
	}
	return schedule.Slots(date, s.now(), window), nil
}

func (s *bookingService) Availability(ctx context.Context, date, startTime, endTime string) (map[string]schedule.VehicleAvailability, error) {
	if _, err := time.ParseInLocation(schedule.DateLayout, date, time.Local); err != nil {
		return nil, apperrors.InvalidInput("date must use layout " + schedule.DateLayout)
	}
	if (startTime == "") != (endTime == "") {
		return nil, apperrors.InvalidInput("startTime and endTime must be provided together")
	}
	if startTime != "" {
		start, err1 := schedule.MinuteOfDay(startTime)
		end, err2 := schedule.MinuteOfDay(endTime)
		if err1 != nil || err2 != nil {
			return nil, apperrors.InvalidInput("startTime and endTime must be zero-padded HH:MM values")
		}
		if start >= end {
			return nil, apperrors.InvalidInput("endTime must be later than startTime")
		}
	}

	stored, err := s.repo.FindByDate(ctx, date)
	if err != nil {
		s.cfg.Log.Error("Failed to load bookings for availability", "date", date, "error", err)
		return nil, apperrors.Internal("Failed to resolve availability", err)
	}

	bookings := make([]model.Booking, 0, len(stored))
	for _, b := range stored {
		bookings = append(bookings, *b)
	}

	return schedule.ResolveAvailability(date, startTime, endTime, bookings, s.cfg.VehicleCatalog), nil
}

// DashboardToday returns today's bookings as timeline bars, sorted by start
// time, along with the date they belong to.
func (s *bookingService) DashboardToday(ctx context.Context) (string, []model.DashboardBar, error) {
	date := s.now().Format(schedule.DateLayout)

	stored, err := s.repo.FindByDate(ctx, date)
	if err != nil {
		s.cfg.Log.Error("Failed to load bookings for dashboard", "date", date, "error", err)
		return "", nil, apperrors.Internal("Failed to build dashboard", err)
	}

	bars := make([]model.DashboardBar, 0, len(stored))
	for _, b := range stored {
		start, err1 := schedule.MinuteOfDay(b.StartTime)
		end, err2 := schedule.MinuteOfDay(b.EndTime)
		if err1 != nil || err2 != nil {
			s.cfg.Log.Warn("Skipping booking with malformed times on dashboard", "id", b.ID)
			continue
		}
		bars = append(bars, model.DashboardBar{
			VehicleModel:    b.VehicleModel,
			ConsultantName:  b.ConsultantName,
			StartMinutes:    start,
			DurationMinutes: end - start,
			StartTime:       b.StartTime,
			EndTime:         b.EndTime,
		})
	}

	return date, bars, nil
}

func (s *bookingService) Vehicles() []string {
	return s.cfg.VehicleCatalog
}

func (s *bookingService) Consultants() []string {
	return s.cfg.ConsultantRoster
}

// --- Helpers ---

func (s *bookingService) sanitize(b *model.Booking) {
	b.Date = sanitizer.TrimAndNormalize(b.Date)
	b.StartTime = sanitizer.TrimAndNormalize(b.StartTime)
	b.EndTime = sanitizer.TrimAndNormalize(b.EndTime)
	b.VehicleModel = sanitizer.TrimAndNormalize(b.VehicleModel)
	b.ConsultantName = sanitizer.NormalizeName(b.ConsultantName)
	b.Location = sanitizer.NormalizeLocation(b.Location)
}

func (s *bookingService) validate(booking *model.Booking) error {
	if err := s.validator.Validate(booking); err != nil {
		s.cfg.Log.Warn("Booking validation failed", "error", err)

		var ruleErr *validator.RuleError
		if errors.As(err, &ruleErr) {
			return apperrors.Validation(ruleErr.Message, map[string]any{
				"kind":  string(ruleErr.Kind),
				"field": ruleErr.Field,
			})
		}
		return apperrors.Validation("Booking validation failed", map[string]any{"error": err.Error()})
	}
	return nil
}

func validateFilter(filter ListFilter) error {
	switch filter {
	case FilterNone, FilterToday, FilterOngoing, FilterUpcoming:
		return nil
	}
	return apperrors.InvalidInput(fmt.Sprintf("unknown filter %q", filter))
}

func matchesFilter(b *model.Booking, filter ListFilter, now time.Time) bool {
	today := now.Format(schedule.DateLayout)
	nowHM := now.Format("15:04")

	switch filter {
	case FilterToday:
		return b.Date == today
	case FilterOngoing:
		return b.Date == today && b.StartTime <= nowHM && nowHM < b.EndTime
	case FilterUpcoming:
		return b.Date > today || (b.Date == today && b.StartTime > nowHM)
	}
	return true
}

func matchesSearch(b *model.Booking, search string) bool {
	if search == "" {
		return true
	}
	needle := strings.ToLower(search)
	return strings.Contains(strings.ToLower(b.VehicleModel), needle) ||
		strings.Contains(strings.ToLower(b.ConsultantName), needle)
}

// verifyNoOverlap re-checks the overlap invariant inside the transaction. The
// advisory lock keeps concurrent creates for the same vehicle and date out,
// but the authoritative answer is always the collection itself.
func (s *bookingService) verifyNoOverlap(ctx context.Context, booking *model.Booking) error {
	existing, err := s.repo.FindOverlapping(ctx, booking.VehicleModel, booking.Date, booking.StartTime, booking.EndTime)
	if err != nil {
		return apperrors.Internal("Failed to check existing bookings", err)
	}

	for _, b := range existing {
		if b.ID == booking.ID {
			continue
		}
		if schedule.Overlaps(b.StartTime, b.EndTime, booking.StartTime, booking.EndTime) {
			return apperrors.Conflict(fmt.Sprintf(
				"%s is already booked from %s to %s on %s",
				b.VehicleModel, b.StartTime, b.EndTime, b.Date,
			))
		}
	}
	return nil
}

// acquireSlotLock creates an advisory lock to prevent concurrent booking creation
// Returns the lock ID if successful, or conflict error if lock already exists
func (s *bookingService) acquireSlotLock(ctx context.Context, vehicleModel, date string) (string, error) {
	// Create lock ID from booking slot coordinates
	lockID := fmt.Sprintf("booking_lock_%s_%s", vehicleModel, date)

	lock := &model.BookingLock{
		ID:        lockID,
		ExpiresAt: time.Now().Add(10 * time.Second), // Auto-expire after 10 seconds
	}

	_, err := s.lockRepo.Create(ctx, lock)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", apperrors.Conflict("This vehicle and date are currently being booked by another request. Please try again.")
		}
		return "", apperrors.Internal("Failed to acquire booking lock", err)
	}

	return lockID, nil
}

// releaseSlotLock removes the advisory lock
func (s *bookingService) releaseSlotLock(ctx context.Context, lockID string) error {
	return s.lockRepo.Delete(ctx, lockID)
}
