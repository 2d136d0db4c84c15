package data

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/target/zenithflow/internal/data/pgxutil"
	"github.com/target/zenithflow/internal/domain/model"
	apperrors "github.com/target/zenithflow/internal/errors"
	"github.com/target/zenithflow/internal/ports"
)

var _ ports.BookingRepository = (*BookingRepo)(nil)

const bookingColumns = `id::text AS id, schedule_id::text AS schedule_id, user_id, status, created_at`

// BookingRepo reads and inserts reservations. Uniqueness per (slot, user) and
// slot capacity are enforced by the schema; violations surface as conflict and
// capacity AppErrors.
type BookingRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewBookingRepo creates a BookingRepo using the system clock.
func NewBookingRepo(db *sql.DB) *BookingRepo {
	return &BookingRepo{DB: db, timeProvider: RealTimeProvider{}}
}

// NewBookingRepoWithTimeProvider creates a BookingRepo with a custom clock (useful for tests).
func NewBookingRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *BookingRepo {
	return &BookingRepo{DB: db, timeProvider: tp}
}

// FindBooking returns the reservation of userID on scheduleID, or a not_found error.
func (r *BookingRepo) FindBooking(ctx context.Context, scheduleID, userID string) (*model.Booking, error) {
	if uuid.Validate(scheduleID) != nil {
		return nil, apperrors.NotFoundf("booking for schedule %s not found", scheduleID)
	}

	var out model.Booking
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx,
			`SELECT `+bookingColumns+` FROM bookings WHERE schedule_id = $1::uuid AND user_id = $2`,
			scheduleID, userID,
		)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Booking])
		return err
	}); err != nil {
		mapped := apperrors.MapDBError(err)
		if apperrors.IsNotFound(mapped) {
			return nil, apperrors.NotFoundf("booking for schedule %s not found", scheduleID)
		}
		return nil, fmt.Errorf("failed to find booking: %w", mapped)
	}
	return &out, nil
}

// InsertBooking creates a reservation and returns the stored row.
func (r *BookingRepo) InsertBooking(ctx context.Context, req model.CreateBookingRequest) (*model.Booking, error) {
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}
	if uuid.Validate(req.ScheduleID) != nil {
		return nil, apperrors.ValidationField("schedule_id", "schedule_id is not a valid id")
	}

	var out model.Booking
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			INSERT INTO bookings (schedule_id, user_id, status, created_at)
			VALUES ($1::uuid, $2, $3, $4)
			RETURNING `+bookingColumns,
			req.ScheduleID, req.UserID, string(req.Status), r.timeProvider.Now(),
		)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Booking])
		return err
	}); err != nil {
		return nil, fmt.Errorf("failed to insert booking: %w", apperrors.MapDBError(err))
	}
	return &out, nil
}
