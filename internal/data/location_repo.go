package data

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/target/zenithflow/internal/data/pgxutil"
	"github.com/target/zenithflow/internal/domain/model"
	apperrors "github.com/target/zenithflow/internal/errors"
	"github.com/target/zenithflow/internal/ports"
)

var _ ports.LocationRepository = (*LocationRepo)(nil)

const locationSelect = `
	SELECT l.id::text AS id, l.name, l.organization_id::text AS organization_id, o.name AS organization_name
	FROM locations l
	JOIN organizations o ON o.id = l.organization_id`

// LocationRepo lists branches with their organization name.
type LocationRepo struct {
	DB *sql.DB
}

// NewLocationRepo creates a LocationRepo.
func NewLocationRepo(db *sql.DB) *LocationRepo {
	return &LocationRepo{DB: db}
}

// ListLocations returns every location ordered by organization then name.
func (r *LocationRepo) ListLocations(ctx context.Context) ([]model.Location, error) {
	var out []model.Location
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, locationSelect+` ORDER BY o.name, l.name`)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.Location])
		return err
	}); err != nil {
		return nil, fmt.Errorf("failed to list locations: %w", apperrors.MapDBError(err))
	}
	if out == nil {
		out = []model.Location{}
	}
	return out, nil
}

// GetLocation returns one location. Ids that are not UUIDs are reported as
// not found rather than as a cast error.
func (r *LocationRepo) GetLocation(ctx context.Context, id string) (*model.Location, error) {
	var out model.Location
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, locationSelect+` WHERE l.id::text = $1`, id)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Location])
		return err
	}); err != nil {
		mapped := apperrors.MapDBError(err)
		if apperrors.IsNotFound(mapped) {
			return nil, apperrors.NotFoundf("location %s not found", id)
		}
		return nil, fmt.Errorf("failed to get location: %w", mapped)
	}
	return &out, nil
}
