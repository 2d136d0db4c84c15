package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/target/zenithflow/internal/domain/model"
	apperrors "github.com/target/zenithflow/internal/errors"
	"github.com/target/zenithflow/internal/ports"
)

// ProfileRefresher reloads the signed-in profile after it changes.
type ProfileRefresher interface {
	RefreshProfile()
}

// SettingsServiceOptions groups dependencies for SettingsService.
type SettingsServiceOptions struct {
	Profiles  ports.ProfileRepository
	Locations ports.LocationRepository
	Refresher ProfileRefresher
	Logger    *slog.Logger
}

// SettingsService edits the signed-in user's profile.
type SettingsService struct {
	profiles  ports.ProfileRepository
	locations ports.LocationRepository
	refresher ProfileRefresher
	logger    *slog.Logger
}

// NewSettingsService constructs a SettingsService.
func NewSettingsService(opts SettingsServiceOptions) *SettingsService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &SettingsService{
		profiles:  opts.Profiles,
		locations: opts.Locations,
		refresher: opts.Refresher,
		logger:    logger.With("component", "settings"),
	}
}

// ListLocations returns every location labeled with its organization.
func (s *SettingsService) ListLocations(ctx context.Context) ([]model.Location, error) {
	locs, err := s.locations.ListLocations(ctx)
	if err != nil {
		return nil, persistenceError("list locations", err)
	}
	return locs, nil
}

// UpdateProfile sets the display name and home location of userID. The
// organization is derived from the chosen location.
func (s *SettingsService) UpdateProfile(ctx context.Context, userID, fullName, locationID string) error {
	if strings.TrimSpace(userID) == "" {
		return ErrUnauthenticated
	}

	req := model.UpdateProfileRequest{FullName: fullName, LocationID: locationID}
	if err := req.Validate(); err != nil {
		field := "full_name"
		if strings.Contains(err.Error(), "location_id") {
			field = "location_id"
		}
		return apperrors.ValidationField(field, err.Error())
	}

	loc, err := s.locations.GetLocation(ctx, req.LocationID)
	switch {
	case apperrors.IsNotFound(err):
		return apperrors.ValidationField("location_id", "unknown location")
	case err != nil:
		return persistenceError("load location", err)
	}
	req.OrganizationID = loc.OrganizationID

	if err := s.profiles.UpdateProfile(ctx, userID, req); err != nil {
		return persistenceError("update profile", err)
	}

	s.logger.InfoContext(ctx, "profile updated",
		"user_id", userID,
		"location_id", req.LocationID,
		"organization_id", req.OrganizationID,
	)
	if s.refresher != nil {
		s.refresher.RefreshProfile()
	}
	return nil
}
