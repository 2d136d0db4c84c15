package errors

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// CapacityConstraint is the constraint name raised by the booking capacity trigger.
const CapacityConstraint = "bookings_capacity"

// reKeyField extracts field names from unique violation detail: "Key (field)=(value) already exists.".
var reKeyField = regexp.MustCompile(`Key \(([^)]+)\)=`)

// reNotPresent detects missing parent: "... is not present in table ...".
var reNotPresent = regexp.MustCompile(`is not present in table "?([^"]+)"?`)

// MapDBError maps database errors to AppError instances.
// It handles common database error patterns including:
// - pgx.ErrNoRows → NotFound
// - Unique constraint violations → Conflict
// - The booking capacity trigger → Capacity
// - Foreign key violations → ForeignKey
// - Check and NOT NULL violations → Validation
// - Context timeouts/cancellations → Timeout/Canceled
//
// If the error is not a recognized database error, it returns the original error.
func MapDBError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &AppError{Code: ErrCodeTimeout, Message: "Request timed out. Please try again.", Cause: err}
	}
	if errors.Is(err, context.Canceled) {
		return &AppError{Code: ErrCodeCanceled, Message: "Request was canceled.", Cause: err}
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return &AppError{Code: ErrCodeNotFound, Message: "Resource not found", Cause: err}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return mapPgError(pgErr)
	}

	return err
}

func mapPgError(pgErr *pgconn.PgError) error {
	switch pgErr.Code {
	case pgerrcode.UniqueViolation:
		return &AppError{
			Code:    ErrCodeConflict,
			Message: "This value already exists.",
			Field:   uniqueField(pgErr),
			Cause:   pgErr,
		}
	case pgerrcode.CheckViolation:
		if pgErr.ConstraintName == CapacityConstraint {
			return &AppError{Code: ErrCodeCapacity, Message: "This class is full.", Cause: pgErr}
		}
		return &AppError{
			Code:    ErrCodeValidation,
			Message: "Invalid data. Please check your input.",
			Field:   pgErr.ColumnName,
			Cause:   pgErr,
		}
	case pgerrcode.NotNullViolation:
		return &AppError{
			Code:    ErrCodeValidation,
			Message: "Required field is missing.",
			Field:   pgErr.ColumnName,
			Cause:   pgErr,
		}
	case pgerrcode.ForeignKeyViolation:
		message := "Cannot complete operation because a referenced record does not exist."
		if m := reNotPresent.FindStringSubmatch(pgErr.Detail); len(m) == 2 {
			message = "Cannot complete operation because the referenced " + singular(m[1]) + " does not exist."
		}
		return &AppError{Code: ErrCodeForeignKey, Message: message, Cause: pgErr}
	default:
		return &AppError{
			Code:    ErrCodeInternal,
			Message: "A database error occurred. Please try again.",
			Cause:   pgErr,
		}
	}
}

// uniqueField prefers column metadata, then the Detail message, then the constraint name.
func uniqueField(pgErr *pgconn.PgError) string {
	if pgErr.ColumnName != "" {
		return pgErr.ColumnName
	}
	if m := reKeyField.FindStringSubmatch(pgErr.Detail); len(m) == 2 {
		return m[1]
	}
	parts := strings.Split(pgErr.ConstraintName, "_")
	if len(parts) == 3 {
		return parts[1]
	}
	return ""
}

func singular(table string) string {
	table = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(table)), "_", " ")
	switch table {
	case "schedule":
		return "class"
	case "profiles":
		return "profile"
	case "locations":
		return "location"
	case "organizations":
		return "organization"
	}
	return strings.TrimSuffix(table, "s")
}

// BackendMessage returns the message the backend produced for err, verbatim when
// a Postgres error is in the chain.
func BackendMessage(err error) string {
	if err == nil {
		return ""
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Message != "" {
		return pgErr.Message
	}
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Cause == nil {
		return appErr.Message
	}
	return err.Error()
}
