package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/target/zenithflow/internal/data/pgxutil"
	"github.com/target/zenithflow/internal/domain/model"
	apperrors "github.com/target/zenithflow/internal/errors"
	"github.com/target/zenithflow/internal/ports"
)

var _ ports.ScheduleRepository = (*ScheduleRepo)(nil)

// scheduleListQuery returns each slot in range with instructor display info
// and the full booking list aggregated as JSON.
const scheduleListQuery = `
	SELECT s.id::text, s.location_id::text, s.activity_type, s.start_time, s.capacity,
	       s.instructor_id, i.full_name, i.avatar_url,
	       COALESCE((
	           SELECT json_agg(json_build_object(
	                      'id', b.id,
	                      'schedule_id', b.schedule_id,
	                      'user_id', b.user_id,
	                      'status', b.status,
	                      'created_at', b.created_at
	                  ) ORDER BY b.created_at)
	           FROM bookings b
	           WHERE b.schedule_id = s.id
	       ), '[]'::json) AS bookings
	FROM schedule s
	LEFT JOIN profiles i ON i.id = s.instructor_id
	WHERE s.location_id::text = $1
	  AND s.start_time >= $2
	  AND s.start_time <= $3
	ORDER BY s.start_time, s.id`

// ScheduleRepo runs the schedule range query.
type ScheduleRepo struct {
	DB *sql.DB
}

// NewScheduleRepo creates a ScheduleRepo.
func NewScheduleRepo(db *sql.DB) *ScheduleRepo {
	return &ScheduleRepo{DB: db}
}

// ListSchedule returns the slots of q.LocationID starting within [q.Start, q.End].
func (r *ScheduleRepo) ListSchedule(ctx context.Context, q model.ScheduleQuery) ([]model.ScheduleSlot, error) {
	if err := q.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	out := []model.ScheduleSlot{}
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, scheduleListQuery, q.LocationID, q.Start, q.End)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			slot, scanErr := scanSlot(rows)
			if scanErr != nil {
				return scanErr
			}
			out = append(out, slot)
		}
		return rows.Err()
	}); err != nil {
		return nil, fmt.Errorf("failed to list schedule: %w", apperrors.MapDBError(err))
	}
	return out, nil
}

func scanSlot(rows pgx.Rows) (model.ScheduleSlot, error) {
	var (
		slot       model.ScheduleSlot
		instrName  *string
		instrAvtr  *string
		rawBooking []byte
	)
	if err := rows.Scan(
		&slot.ID, &slot.LocationID, &slot.ActivityType, &slot.StartTime, &slot.Capacity,
		&slot.InstructorID, &instrName, &instrAvtr, &rawBooking,
	); err != nil {
		return slot, err
	}

	if instrName != nil {
		slot.Instructor = &model.Instructor{FullName: *instrName}
		if instrAvtr != nil {
			slot.Instructor.AvatarURL = *instrAvtr
		}
	}
	slot.Bookings = []model.Booking{}
	if len(rawBooking) > 0 {
		if err := json.Unmarshal(rawBooking, &slot.Bookings); err != nil {
			return slot, fmt.Errorf("decode bookings for slot %s: %w", slot.ID, err)
		}
	}
	return slot, nil
}
