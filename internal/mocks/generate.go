// Package mocks provides gomock implementations of the ports in internal/ports.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	t.Cleanup(ctrl.Finish)
//	bookings := mocks.NewMockBookingRepository(ctrl)
//	bookings.EXPECT().FindBooking(gomock.Any(), "class-7", "u1").Return(nil, apperrors.NotFound("booking not found"))
package mocks

// Gateway-facing ports: AuthGateway, SessionEventBus, SessionStore.
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=auth_mock.go github.com/target/zenithflow/internal/ports AuthGateway,SessionEventBus,SessionStore

// Repository ports: BookingRepository, LocationRepository, ProfileRepository, ScheduleRepository.
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=data_mock.go github.com/target/zenithflow/internal/ports BookingRepository,LocationRepository,ProfileRepository,ScheduleRepository
