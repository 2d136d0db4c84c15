//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"errors"
	"strings"
	"time"
)

// BookingStatus is the lifecycle state of a reservation.
type BookingStatus string

// BookingStatusConfirmed is the only status this client creates.
const BookingStatusConfirmed BookingStatus = "confirmed"

// Booking is a reservation linking a user to a schedule slot.
type Booking struct {
	ID         string        `json:"id"          db:"id"`
	ScheduleID string        `json:"schedule_id" db:"schedule_id"`
	UserID     string        `json:"user_id"     db:"user_id"`
	Status     BookingStatus `json:"status"      db:"status"`
	CreatedAt  time.Time     `json:"created_at"  db:"created_at"`
}

// CreateBookingRequest is the insert payload for a new booking.
type CreateBookingRequest struct {
	ScheduleID string
	UserID     string
	Status     BookingStatus
}

// Validate checks the request carries both keys and a known status.
func (r *CreateBookingRequest) Validate() error {
	if strings.TrimSpace(r.ScheduleID) == "" {
		return errors.New("schedule_id is required")
	}
	if strings.TrimSpace(r.UserID) == "" {
		return errors.New("user_id is required")
	}
	if r.Status != BookingStatusConfirmed {
		return errors.New("status must be confirmed")
	}
	return nil
}
