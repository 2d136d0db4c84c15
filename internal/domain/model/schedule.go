//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"errors"
	"strings"
	"time"
)

// Instructor is the display info joined onto a schedule slot.
type Instructor struct {
	FullName  string `json:"full_name"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// ScheduleSlot is a bookable class occurrence with fixed capacity.
type ScheduleSlot struct {
	ID           string      `json:"id"`
	LocationID   string      `json:"location_id"`
	ActivityType string      `json:"activity_type"`
	StartTime    time.Time   `json:"start_time"`
	Capacity     int         `json:"capacity"`
	InstructorID *string     `json:"instructor_id,omitempty"`
	Instructor   *Instructor `json:"instructor,omitempty"`
	Bookings     []Booking   `json:"bookings"`
}

// Availability is the derived booking state of a slot for one viewer.
type Availability string

const (
	AvailabilityBooked    Availability = "booked"
	AvailabilityFull      Availability = "full"
	AvailabilityAvailable Availability = "available"
)

// BookedCount returns the number of reservations on the slot.
func (s *ScheduleSlot) BookedCount() int { return len(s.Bookings) }

// IsFull reports whether the slot has no free places left.
func (s *ScheduleSlot) IsFull() bool { return len(s.Bookings) >= s.Capacity }

// IsBookedBy reports whether userID already holds a reservation. An empty id never matches.
func (s *ScheduleSlot) IsBookedBy(userID string) bool {
	if userID == "" {
		return false
	}
	for _, b := range s.Bookings {
		if b.UserID == userID {
			return true
		}
	}
	return false
}

// Availability returns booked before full before available.
func (s *ScheduleSlot) Availability(userID string) Availability {
	switch {
	case s.IsBookedBy(userID):
		return AvailabilityBooked
	case s.IsFull():
		return AvailabilityFull
	default:
		return AvailabilityAvailable
	}
}

// InstructorName returns the instructor display name or empty.
func (s *ScheduleSlot) InstructorName() string {
	if s.Instructor == nil {
		return ""
	}
	return s.Instructor.FullName
}

// ScheduleQuery selects the slots of one location whose start time lies in [Start, End].
type ScheduleQuery struct {
	LocationID string
	Start      time.Time
	End        time.Time
}

// Validate checks the location and the range.
func (q *ScheduleQuery) Validate() error {
	if strings.TrimSpace(q.LocationID) == "" {
		return errors.New("location_id is required")
	}
	if q.Start.IsZero() || q.End.IsZero() {
		return errors.New("start and end are required")
	}
	if q.End.Before(q.Start) {
		return errors.New("end must not be before start")
	}
	return nil
}

// MonthWindow returns the calendar range shown for the month containing t:
// from the Sunday on or before the first day to the last instant of the
// Saturday on or after the last day, in t's location.
func MonthWindow(t time.Time) (time.Time, time.Time) {
	loc := t.Location()
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, loc)
	last := first.AddDate(0, 1, -1)

	start := first.AddDate(0, 0, -int(first.Weekday()))
	endDay := last.AddDate(0, 0, int(time.Saturday-last.Weekday()))
	end := time.Date(endDay.Year(), endDay.Month(), endDay.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), loc)
	return start, end
}

// SlotsOn returns the slots starting on the same calendar day as day, in day's location.
func SlotsOn(slots []ScheduleSlot, day time.Time) []ScheduleSlot {
	y, m, d := day.Date()
	out := make([]ScheduleSlot, 0)
	for _, s := range slots {
		sy, sm, sd := s.StartTime.In(day.Location()).Date()
		if sy == y && sm == m && sd == d {
			out = append(out, s)
		}
	}
	return out
}
