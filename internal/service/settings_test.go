package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/target/zenithflow/internal/domain/model"
	apperrors "github.com/target/zenithflow/internal/errors"
	"github.com/target/zenithflow/internal/mocks"
)

type refreshCounter struct{ n int }

func (r *refreshCounter) RefreshProfile() { r.n++ }

func TestSettingsService_UpdateProfile_DerivesOrganization(t *testing.T) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	profiles := mocks.NewMockProfileRepository(ctrl)
	locations := mocks.NewMockLocationRepository(ctrl)
	refresher := &refreshCounter{}

	locations.EXPECT().GetLocation(gomock.Any(), "loc-1").
		Return(&model.Location{ID: "loc-1", Name: "Downtown", OrganizationID: "org-1"}, nil)
	profiles.EXPECT().UpdateProfile(gomock.Any(), "u1", model.UpdateProfileRequest{
		FullName:       "Ada Lovelace",
		LocationID:     "loc-1",
		OrganizationID: "org-1",
	}).Return(nil)

	svc := NewSettingsService(SettingsServiceOptions{Profiles: profiles, Locations: locations, Refresher: refresher})

	require.NoError(t, svc.UpdateProfile(context.Background(), "u1", " Ada Lovelace ", "loc-1"))
	assert.Equal(t, 1, refresher.n)
}

func TestSettingsService_UpdateProfile_Validation(t *testing.T) {
	tests := []struct {
		name       string
		fullName   string
		locationID string
		wantField  string
	}{
		{name: "empty name", fullName: "  ", locationID: "loc-1", wantField: "full_name"},
		{name: "long name", fullName: strings.Repeat("a", 201), locationID: "loc-1", wantField: "full_name"},
		{name: "no location", fullName: "Ada", locationID: "", wantField: "location_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			t.Cleanup(ctrl.Finish)

			svc := NewSettingsService(SettingsServiceOptions{
				Profiles:  mocks.NewMockProfileRepository(ctrl),
				Locations: mocks.NewMockLocationRepository(ctrl),
			})

			err := svc.UpdateProfile(context.Background(), "u1", tt.fullName, tt.locationID)
			require.Error(t, err)
			assert.True(t, apperrors.IsValidation(err))
			assert.Equal(t, tt.wantField, apperrors.GetField(err))
		})
	}
}

func TestSettingsService_UpdateProfile_UnknownLocation(t *testing.T) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	locations := mocks.NewMockLocationRepository(ctrl)
	locations.EXPECT().GetLocation(gomock.Any(), "ghost").Return(nil, apperrors.NotFound("location not found"))

	svc := NewSettingsService(SettingsServiceOptions{Profiles: mocks.NewMockProfileRepository(ctrl), Locations: locations})

	err := svc.UpdateProfile(context.Background(), "u1", "Ada", "ghost")
	assert.Equal(t, "location_id", apperrors.GetField(err))
}

func TestSettingsService_UpdateProfile_Unauthenticated(t *testing.T) {
	svc := NewSettingsService(SettingsServiceOptions{})
	assert.ErrorIs(t, svc.UpdateProfile(context.Background(), "", "Ada", "loc-1"), ErrUnauthenticated)
}

func TestSettingsService_UpdateProfile_PersistenceFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	profiles := mocks.NewMockProfileRepository(ctrl)
	locations := mocks.NewMockLocationRepository(ctrl)
	refresher := &refreshCounter{}
	locations.EXPECT().GetLocation(gomock.Any(), "loc-1").Return(&model.Location{ID: "loc-1", OrganizationID: "org-1"}, nil)
	profiles.EXPECT().UpdateProfile(gomock.Any(), "u1", gomock.Any()).Return(errors.New("permission denied"))

	svc := NewSettingsService(SettingsServiceOptions{Profiles: profiles, Locations: locations, Refresher: refresher})

	err := svc.UpdateProfile(context.Background(), "u1", "Ada", "loc-1")
	var pe *PersistenceError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "permission denied", pe.Message)
	assert.Zero(t, refresher.n)
}

func TestSettingsService_ListLocations(t *testing.T) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	locations := mocks.NewMockLocationRepository(ctrl)
	locations.EXPECT().ListLocations(gomock.Any()).Return([]model.Location{
		{ID: "loc-1", Name: "Downtown", OrganizationName: "Zenith"},
	}, nil)

	svc := NewSettingsService(SettingsServiceOptions{Locations: locations})
	locs, err := svc.ListLocations(context.Background())

	require.NoError(t, err)
	require.Len(t, locs, 1)
	assert.Equal(t, "Zenith - Downtown", locs[0].Label())
}
