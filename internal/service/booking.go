package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	domainauth "github.com/target/zenithflow/internal/domain/auth"
	"github.com/target/zenithflow/internal/domain/model"
	apperrors "github.com/target/zenithflow/internal/errors"
	"github.com/target/zenithflow/internal/observability/metrics"
	"github.com/target/zenithflow/internal/observability/statsd"
	"github.com/target/zenithflow/internal/ports"
)

// IdentitySource exposes the signed-in identity, or nil.
type IdentitySource interface {
	Identity() *domainauth.Identity
}

// BookingServiceOptions groups dependencies for BookingService.
type BookingServiceOptions struct {
	Bookings ports.BookingRepository
	Schedule ports.ScheduleRepository
	Identity IdentitySource
	Logger   *slog.Logger
	Metrics  statsd.Sink
}

// BookingService reserves class slots and loads the schedule.
// The existence check before insert is optimistic; the backend's unique index
// and capacity trigger are authoritative and their violations map to
// ErrAlreadyBooked and ErrCapacityExceeded.
type BookingService struct {
	bookings ports.BookingRepository
	schedule ports.ScheduleRepository
	identity IdentitySource
	logger   *slog.Logger
	metrics  statsd.Sink
}

// NewBookingService constructs a BookingService.
func NewBookingService(opts BookingServiceOptions) *BookingService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &BookingService{
		bookings: opts.Bookings,
		schedule: opts.Schedule,
		identity: opts.Identity,
		logger:   logger.With("component", "booking"),
		metrics:  opts.Metrics,
	}
}

// Reserve books scheduleID for userID.
func (s *BookingService) Reserve(ctx context.Context, scheduleID, userID string) (*model.Booking, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, s.reject(ctx, "unauthenticated", scheduleID, ErrUnauthenticated)
	}
	if strings.TrimSpace(scheduleID) == "" {
		return nil, apperrors.ValidationField("schedule_id", "schedule id is required")
	}

	existing, err := s.bookings.FindBooking(ctx, scheduleID, userID)
	switch {
	case err == nil && existing != nil:
		return nil, s.reject(ctx, "already_booked", scheduleID, ErrAlreadyBooked)
	case err != nil && !apperrors.IsNotFound(err):
		return nil, s.reject(ctx, "persistence", scheduleID, persistenceError("check existing booking", err))
	}

	req := model.CreateBookingRequest{
		ScheduleID: scheduleID,
		UserID:     userID,
		Status:     model.BookingStatusConfirmed,
	}
	began := time.Now()
	booking, err := s.bookings.InsertBooking(ctx, req)
	metrics.EmitBookingInsert(s.metrics, time.Since(began), err)
	if err != nil {
		switch {
		case apperrors.IsValidation(err):
			return nil, s.reject(ctx, "invalid", scheduleID, err)
		case apperrors.IsConflict(err):
			return nil, s.reject(ctx, "already_booked", scheduleID, ErrAlreadyBooked)
		case apperrors.IsCapacity(err):
			return nil, s.reject(ctx, "capacity", scheduleID, ErrCapacityExceeded)
		}
		return nil, s.reject(ctx, "persistence", scheduleID, persistenceError("create booking", err))
	}

	s.logger.InfoContext(ctx, "booking confirmed",
		"schedule_id", scheduleID,
		"user_id", userID,
		"booking_id", booking.ID,
	)
	metrics.EmitBookingOutcome(s.metrics, "", nil)
	return booking, nil
}

// ReserveForCurrentUser books scheduleID for the signed-in identity.
func (s *BookingService) ReserveForCurrentUser(ctx context.Context, scheduleID string) (*model.Booking, error) {
	userID := ""
	if s.identity != nil {
		if id := s.identity.Identity(); id != nil {
			userID = id.ID
		}
	}
	return s.Reserve(ctx, scheduleID, userID)
}

// LoadSchedule returns slots at locationID starting within [start, end], each with
// its instructor and full booking list.
func (s *BookingService) LoadSchedule(ctx context.Context, locationID string, start, end time.Time) ([]model.ScheduleSlot, error) {
	q := model.ScheduleQuery{LocationID: locationID, Start: start, End: end}
	if err := q.Validate(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeValidation, "invalid schedule query")
	}

	slots, err := s.schedule.ListSchedule(ctx, q)
	if err != nil {
		return nil, persistenceError("load schedule", err)
	}
	return slots, nil
}

// LoadMonth loads the week-aligned window covering the month of t.
func (s *BookingService) LoadMonth(ctx context.Context, locationID string, t time.Time) ([]model.ScheduleSlot, error) {
	start, end := model.MonthWindow(t)
	return s.LoadSchedule(ctx, locationID, start, end)
}

func (s *BookingService) reject(ctx context.Context, reason, scheduleID string, err error) error {
	level := slog.LevelInfo
	var pe *PersistenceError
	if errors.As(err, &pe) {
		level = slog.LevelError
	}
	s.logger.Log(ctx, level, "booking rejected",
		"schedule_id", scheduleID,
		"reason", reason,
		"error", err,
	)
	metrics.EmitBookingOutcome(s.metrics, reason, err)
	return err
}

func persistenceError(op string, err error) *PersistenceError {
	return &PersistenceError{Op: op, Message: apperrors.BackendMessage(err), Cause: err}
}
