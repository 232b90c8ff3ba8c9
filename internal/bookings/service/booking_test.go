package service

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	bookingserrors "testdrive/internal/bookings/errors"
	"testdrive/internal/bookings/repository"
	"testdrive/internal/bookings/validator"
	"testdrive/pkg/config"
	mongotx "testdrive/pkg/db/mongo"
	apperrors "testdrive/pkg/errors"
	"testdrive/pkg/logger"
	"testdrive/pkg/model"
)

type mockBookingRepo struct {
	createFn          func(ctx context.Context, booking *model.Booking) error
	findByIDFn        func(ctx context.Context, id string) (*model.Booking, error)
	findAllFn         func(ctx context.Context, limit int, offset int64) ([]*model.Booking, error)
	findByDateFn      func(ctx context.Context, date string) ([]*model.Booking, error)
	findOverlappingFn func(ctx context.Context, vehicleModel, date, startTime, endTime string) ([]*model.Booking, error)
	countFn           func(ctx context.Context) (int64, error)
}

func (m *mockBookingRepo) Create(ctx context.Context, booking *model.Booking) error {
	return m.createFn(ctx, booking)
}

func (m *mockBookingRepo) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	return m.findByIDFn(ctx, id)
}

func (m *mockBookingRepo) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, error) {
	return m.findAllFn(ctx, limit, offset)
}

func (m *mockBookingRepo) FindByDate(ctx context.Context, date string) ([]*model.Booking, error) {
	return m.findByDateFn(ctx, date)
}

func (m *mockBookingRepo) FindByVehicleAndDate(ctx context.Context, vehicleModel, date string) ([]*model.Booking, error) {
	return nil, nil
}

func (m *mockBookingRepo) FindOverlapping(ctx context.Context, vehicleModel, date, startTime, endTime string) ([]*model.Booking, error) {
	return m.findOverlappingFn(ctx, vehicleModel, date, startTime, endTime)
}

func (m *mockBookingRepo) Count(ctx context.Context) (int64, error) {
	return m.countFn(ctx)
}

func (m *mockBookingRepo) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(nil)
}

var _ repository.BookingRepository = (*mockBookingRepo)(nil)

type mockLockRepo struct {
	createFn func(ctx context.Context, lock *model.BookingLock) (*model.BookingLock, error)
	deleted  []string
}

func (m *mockLockRepo) Create(ctx context.Context, lock *model.BookingLock) (*model.BookingLock, error) {
	if m.createFn != nil {
		return m.createFn(ctx, lock)
	}
	return lock, nil
}

func (m *mockLockRepo) Delete(ctx context.Context, lockID string) error {
	m.deleted = append(m.deleted, lockID)
	return nil
}

type recordingPublisher struct {
	published []*model.Booking
}

func (p *recordingPublisher) PublishBookingCreated(ctx context.Context, booking *model.Booking) error {
	p.published = append(p.published, booking)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		DayStartHour:     9,
		DayEndHour:       19,
		RequireLocation:  false,
		VehicleCatalog:   []string{"A200", "C200", "E200"},
		ConsultantRoster: []string{"Umang", "Katrina"},
		Log:              logger.New(logger.Config{Level: "error", Output: io.Discard, Service: "test"}),
	}
}

func fixedNow() time.Time {
	return time.Date(2024, 6, 1, 10, 0, 0, 0, time.Local)
}

func newTestService(t *testing.T, repo *mockBookingRepo, locks *mockLockRepo, pub *recordingPublisher) *bookingService {
	t.Helper()
	cfg := testConfig(t)
	v := validator.NewBookingValidator(cfg.Log, cfg.VehicleCatalog, cfg.ConsultantRoster, cfg.RequireLocation).
		WithClock(fixedNow)

	svc := NewBookingService(repo, locks, v, pub, cfg).(*bookingService)
	svc.now = fixedNow
	return svc
}

func futureBooking() *model.Booking {
	return &model.Booking{
		Date:           "2024-06-02",
		StartTime:      "10:00",
		EndTime:        "11:00",
		VehicleModel:   "C200",
		ConsultantName: "Umang",
	}
}

func TestCreatePersistsAndPublishes(t *testing.T) {
	var created *model.Booking
	repo := &mockBookingRepo{
		createFn: func(ctx context.Context, booking *model.Booking) error {
			booking.ID = "663fa0"
			created = booking
			return nil
		},
		findOverlappingFn: func(ctx context.Context, vehicleModel, date, startTime, endTime string) ([]*model.Booking, error) {
			return nil, nil
		},
	}
	locks := &mockLockRepo{}
	pub := &recordingPublisher{}
	svc := newTestService(t, repo, locks, pub)

	booking := futureBooking()
	booking.ConsultantName = "  Umang  "

	if err := svc.Create(context.Background(), booking); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if created == nil {
		t.Fatal("booking was not persisted")
	}
	if created.ConsultantName != "Umang" {
		t.Errorf("consultant name not sanitized: %q", created.ConsultantName)
	}
	if len(pub.published) != 1 || pub.published[0].ID != "663fa0" {
		t.Errorf("expected one published event for the created booking, got %+v", pub.published)
	}
	if len(locks.deleted) != 1 || locks.deleted[0] != "booking_lock_C200_2024-06-02" {
		t.Errorf("advisory lock not released: %v", locks.deleted)
	}
}

func TestCreateRejectsOverlap(t *testing.T) {
	repo := &mockBookingRepo{
		createFn: func(ctx context.Context, booking *model.Booking) error {
			t.Fatal("Create must not be called when the window overlaps")
			return nil
		},
		findOverlappingFn: func(ctx context.Context, vehicleModel, date, startTime, endTime string) ([]*model.Booking, error) {
			return []*model.Booking{{
				ID: "other", Date: date, StartTime: "10:30", EndTime: "11:30",
				VehicleModel: vehicleModel, ConsultantName: "Katrina",
			}}, nil
		},
	}
	locks := &mockLockRepo{}
	pub := &recordingPublisher{}
	svc := newTestService(t, repo, locks, pub)

	err := svc.Create(context.Background(), futureBooking())
	if err == nil {
		t.Fatal("expected conflict error")
	}
	if !apperrors.IsConflict(err) {
		t.Errorf("expected conflict classification, got %v", err)
	}
	if len(pub.published) != 0 {
		t.Error("no event may be published for a rejected booking")
	}
	if len(locks.deleted) != 1 {
		t.Errorf("advisory lock must be released even on conflict, got %v", locks.deleted)
	}
}

func TestCreateAdjacentWindowsAllowed(t *testing.T) {
	// [10:00, 11:00) and [11:00, 12:00) share only the boundary instant.
	repo := &mockBookingRepo{
		createFn: func(ctx context.Context, booking *model.Booking) error {
			booking.ID = "663fa3"
			return nil
		},
		findOverlappingFn: func(ctx context.Context, vehicleModel, date, startTime, endTime string) ([]*model.Booking, error) {
			return nil, nil
		},
	}
	svc := newTestService(t, repo, &mockLockRepo{}, &recordingPublisher{})

	booking := futureBooking()
	booking.StartTime = "11:00"
	booking.EndTime = "12:00"

	if err := svc.Create(context.Background(), booking); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
}

func TestCreateLockHeldBySomeoneElse(t *testing.T) {
	repo := &mockBookingRepo{
		createFn: func(ctx context.Context, booking *model.Booking) error {
			t.Fatal("Create must not be called without the lock")
			return nil
		},
		findOverlappingFn: func(ctx context.Context, vehicleModel, date, startTime, endTime string) ([]*model.Booking, error) {
			t.Fatal("overlap check must not run without the lock")
			return nil, nil
		},
	}
	locks := &mockLockRepo{
		createFn: func(ctx context.Context, lock *model.BookingLock) (*model.BookingLock, error) {
			return nil, mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 11000}}}
		},
	}
	svc := newTestService(t, repo, locks, &recordingPublisher{})

	err := svc.Create(context.Background(), futureBooking())
	if !apperrors.IsConflict(err) {
		t.Errorf("expected conflict when lock is held, got %v", err)
	}
}

func TestCreateValidatesAgainstInjectedClock(t *testing.T) {
	// The fixture date sits one day after the pinned clock but far in the
	// real past. Create must judge "past" against the injected clock only,
	// in the validator as much as in the service itself.
	repo := &mockBookingRepo{
		createFn: func(ctx context.Context, booking *model.Booking) error {
			booking.ID = "663fa4"
			return nil
		},
		findOverlappingFn: func(ctx context.Context, vehicleModel, date, startTime, endTime string) ([]*model.Booking, error) {
			return nil, nil
		},
	}
	svc := newTestService(t, repo, &mockLockRepo{}, &recordingPublisher{})

	if err := svc.Create(context.Background(), futureBooking()); err != nil {
		t.Fatalf("Create() error = %v, want nil under the pinned clock", err)
	}
}

func TestCreateValidationFailureSkipsStore(t *testing.T) {
	repo := &mockBookingRepo{
		createFn: func(ctx context.Context, booking *model.Booking) error {
			t.Fatal("Create must not be called for invalid input")
			return nil
		},
	}
	locks := &mockLockRepo{
		createFn: func(ctx context.Context, lock *model.BookingLock) (*model.BookingLock, error) {
			t.Fatal("lock must not be acquired for invalid input")
			return nil, nil
		},
	}
	svc := newTestService(t, repo, locks, &recordingPublisher{})

	booking := futureBooking()
	booking.Date = "2024-05-01"

	err := svc.Create(context.Background(), booking)
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if appErr.Details["kind"] != "past_datetime" {
		t.Errorf("details kind = %v, want past_datetime", appErr.Details["kind"])
	}
}

func TestGetByIDNotFound(t *testing.T) {
	repo := &mockBookingRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Booking, error) {
			return nil, bookingserrors.ErrNotFound
		},
	}
	svc := newTestService(t, repo, &mockLockRepo{}, &recordingPublisher{})

	_, err := svc.GetByID(context.Background(), "663fa0aaaaaaaaaaaaaaaaaa")
	appErr := apperrors.AsAppError(err)
	if appErr.HTTPStatus != http.StatusNotFound {
		t.Errorf("expected 404 status, got %d (%v)", appErr.HTTPStatus, err)
	}
}

func listFixture() []*model.Booking {
	return []*model.Booking{
		{ID: "1", Date: "2024-05-31", StartTime: "12:00", EndTime: "13:00", VehicleModel: "A200", ConsultantName: "Umang"},
		{ID: "2", Date: "2024-06-01", StartTime: "09:30", EndTime: "10:30", VehicleModel: "C200", ConsultantName: "Katrina"},
		{ID: "3", Date: "2024-06-01", StartTime: "15:00", EndTime: "16:00", VehicleModel: "E200", ConsultantName: "Umang"},
		{ID: "4", Date: "2024-06-02", StartTime: "10:00", EndTime: "11:00", VehicleModel: "C200", ConsultantName: "Umang"},
	}
}

func TestGetAllFilters(t *testing.T) {
	// Fixed now is 2024-06-01 10:00 local.
	tests := []struct {
		name    string
		query   ListQuery
		wantIDs []string
	}{
		{
			name:    "today",
			query:   ListQuery{Filter: FilterToday},
			wantIDs: []string{"2", "3"},
		},
		{
			name:    "ongoing",
			query:   ListQuery{Filter: FilterOngoing},
			wantIDs: []string{"2"},
		},
		{
			name:    "upcoming",
			query:   ListQuery{Filter: FilterUpcoming},
			wantIDs: []string{"3", "4"},
		},
		{
			name:    "search by vehicle",
			query:   ListQuery{Search: "c200"},
			wantIDs: []string{"2", "4"},
		},
		{
			name:    "search by consultant",
			query:   ListQuery{Search: "katrina"},
			wantIDs: []string{"2"},
		},
		{
			name:    "filter and search combine",
			query:   ListQuery{Filter: FilterUpcoming, Search: "umang"},
			wantIDs: []string{"3", "4"},
		},
		{
			name:    "pagination applies after filtering",
			query:   ListQuery{Filter: FilterUpcoming, Limit: 1, Offset: 1},
			wantIDs: []string{"4"},
		},
	}

	repo := &mockBookingRepo{
		findAllFn: func(ctx context.Context, limit int, offset int64) ([]*model.Booking, error) {
			return listFixture(), nil
		},
	}
	svc := newTestService(t, repo, &mockLockRepo{}, &recordingPublisher{})

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bookings, _, err := svc.GetAll(context.Background(), tt.query)
			if err != nil {
				t.Fatalf("GetAll() error = %v", err)
			}

			var ids []string
			for _, b := range bookings {
				ids = append(ids, b.ID)
			}
			if len(ids) != len(tt.wantIDs) {
				t.Fatalf("GetAll() ids = %v, want %v", ids, tt.wantIDs)
			}
			for i := range ids {
				if ids[i] != tt.wantIDs[i] {
					t.Fatalf("GetAll() ids = %v, want %v", ids, tt.wantIDs)
				}
			}
		})
	}
}

func TestGetAllRejectsUnknownFilter(t *testing.T) {
	svc := newTestService(t, &mockBookingRepo{}, &mockLockRepo{}, &recordingPublisher{})

	_, _, err := svc.GetAll(context.Background(), ListQuery{Filter: "yesterday"})
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeInvalidInput {
		t.Errorf("expected invalid input error, got %v", err)
	}
}

func TestAvailabilityMarksBookedVehicle(t *testing.T) {
	repo := &mockBookingRepo{
		findByDateFn: func(ctx context.Context, date string) ([]*model.Booking, error) {
			return []*model.Booking{
				{Date: date, StartTime: "10:00", EndTime: "11:00", VehicleModel: "C200", ConsultantName: "Umang"},
			}, nil
		},
	}
	svc := newTestService(t, repo, &mockLockRepo{}, &recordingPublisher{})

	availability, err := svc.Availability(context.Background(), "2024-06-02", "10:30", "11:30")
	if err != nil {
		t.Fatalf("Availability() error = %v", err)
	}

	if !availability["C200"].Unavailable {
		t.Error("C200 should be unavailable for an overlapping window")
	}
	if availability["A200"].Unavailable {
		t.Error("A200 has no bookings and should be available")
	}
}

func TestAvailabilityRejectsHalfWindow(t *testing.T) {
	svc := newTestService(t, &mockBookingRepo{}, &mockLockRepo{}, &recordingPublisher{})

	_, err := svc.Availability(context.Background(), "2024-06-02", "10:30", "")
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeInvalidInput {
		t.Errorf("expected invalid input error, got %v", err)
	}
}

func TestSlotsRejectsMalformedDate(t *testing.T) {
	svc := newTestService(t, &mockBookingRepo{}, &mockLockRepo{}, &recordingPublisher{})

	_, err := svc.Slots(context.Background(), "01-06-2024")
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeInvalidInput {
		t.Errorf("expected invalid input error, got %v", err)
	}
}

func TestSlotsForFutureDateCoverFullWindow(t *testing.T) {
	svc := newTestService(t, &mockBookingRepo{}, &mockLockRepo{}, &recordingPublisher{})

	slots, err := svc.Slots(context.Background(), "2024-06-02")
	if err != nil {
		t.Fatalf("Slots() error = %v", err)
	}
	if len(slots) == 0 {
		t.Fatal("expected slots for a future date")
	}
	if slots[0] != "09:00" {
		t.Errorf("first slot = %s, want 09:00", slots[0])
	}
	if slots[len(slots)-1] != "19:00" {
		t.Errorf("last slot = %s, want 19:00", slots[len(slots)-1])
	}
}

func TestDashboardToday(t *testing.T) {
	repo := &mockBookingRepo{
		findByDateFn: func(ctx context.Context, date string) ([]*model.Booking, error) {
			if date != "2024-06-01" {
				t.Errorf("dashboard queried %s, want today", date)
			}
			return []*model.Booking{
				{ID: "2", Date: date, StartTime: "09:30", EndTime: "10:30", VehicleModel: "C200", ConsultantName: "Katrina"},
			}, nil
		},
	}
	svc := newTestService(t, repo, &mockLockRepo{}, &recordingPublisher{})

	date, bars, err := svc.DashboardToday(context.Background())
	if err != nil {
		t.Fatalf("DashboardToday() error = %v", err)
	}
	if date != "2024-06-01" {
		t.Errorf("date = %s, want 2024-06-01", date)
	}
	if len(bars) != 1 {
		t.Fatalf("bars = %+v, want exactly one", bars)
	}
	if bars[0].StartMinutes != 570 || bars[0].DurationMinutes != 60 {
		t.Errorf("bar geometry = %d+%d, want 570+60", bars[0].StartMinutes, bars[0].DurationMinutes)
	}
}
