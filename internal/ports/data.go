package ports

import (
	"context"

	domainauth "github.com/target/zenithflow/internal/domain/auth"
	"github.com/target/zenithflow/internal/domain/model"
)

// ProfileRepository reads and updates authorization profiles.
// GetProfile returns an error with code not_found when no row exists.
type ProfileRepository interface {
	GetProfile(ctx context.Context, id string) (*domainauth.Profile, error)
	UpdateProfile(ctx context.Context, id string, req model.UpdateProfileRequest) error
}

// BookingRepository looks up and inserts reservations.
// FindBooking returns an error with code not_found when no row exists.
type BookingRepository interface {
	FindBooking(ctx context.Context, scheduleID, userID string) (*model.Booking, error)
	InsertBooking(ctx context.Context, req model.CreateBookingRequest) (*model.Booking, error)
}

// ScheduleRepository runs the schedule range query.
type ScheduleRepository interface {
	ListSchedule(ctx context.Context, q model.ScheduleQuery) ([]model.ScheduleSlot, error)
}

// LocationRepository lists branches with their organization.
type LocationRepository interface {
	ListLocations(ctx context.Context) ([]model.Location, error)
	GetLocation(ctx context.Context, id string) (*model.Location, error)
}
