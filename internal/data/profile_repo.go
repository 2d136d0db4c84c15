package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/target/zenithflow/internal/data/pgxutil"
	domainauth "github.com/target/zenithflow/internal/domain/auth"
	"github.com/target/zenithflow/internal/domain/model"
	apperrors "github.com/target/zenithflow/internal/errors"
	"github.com/target/zenithflow/internal/ports"
)

var _ ports.ProfileRepository = (*ProfileRepo)(nil)

const profileGetQuery = `
	SELECT p.id, p.full_name, p.role, COALESCE(p.avatar_url, ''),
	       p.location_id::text, p.organization_id::text,
	       o.id::text, o.name
	FROM profiles p
	LEFT JOIN organizations o ON o.id = p.organization_id
	WHERE p.id = $1`

// ProfileRepo reads and writes authorization profiles.
type ProfileRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewProfileRepo creates a ProfileRepo using the system clock.
func NewProfileRepo(db *sql.DB) *ProfileRepo {
	return &ProfileRepo{DB: db, timeProvider: RealTimeProvider{}}
}

// NewProfileRepoWithTimeProvider creates a ProfileRepo with a custom clock (useful for tests).
func NewProfileRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *ProfileRepo {
	return &ProfileRepo{DB: db, timeProvider: tp}
}

// GetProfile loads a profile joined with its organization in one query.
func (r *ProfileRepo) GetProfile(ctx context.Context, id string) (*domainauth.Profile, error) {
	var (
		p       domainauth.Profile
		role    string
		orgID   *string
		orgName *string
	)
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		return conn.QueryRow(ctx, profileGetQuery, id).Scan(
			&p.ID, &p.FullName, &role, &p.AvatarURL,
			&p.LocationID, &p.OrganizationID,
			&orgID, &orgName,
		)
	})
	if err != nil {
		mapped := apperrors.MapDBError(err)
		if apperrors.IsNotFound(mapped) {
			return nil, apperrors.NotFoundf("profile %s not found", id)
		}
		return nil, fmt.Errorf("get profile: %w", mapped)
	}

	p.Role = domainauth.Role(role)
	if orgID != nil {
		p.Organization = &domainauth.Organization{ID: *orgID}
		if orgName != nil {
			p.Organization.Name = *orgName
		}
	}
	return &p, nil
}

// UpdateProfile writes the settings form. A missing row is created with the
// client role, since sign-up does not create profiles.
func (r *ProfileRepo) UpdateProfile(ctx context.Context, id string, req model.UpdateProfileRequest) error {
	if id == "" {
		return errors.New("profile id is required")
	}
	if err := req.Validate(); err != nil {
		return apperrors.Validation(err.Error())
	}

	now := r.timeProvider.Now()
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		_, execErr := conn.Exec(ctx, `
			INSERT INTO profiles (id, full_name, location_id, organization_id, created_at, updated_at)
			VALUES ($1, $2, $3::uuid, NULLIF($4, '')::uuid, $5, $5)
			ON CONFLICT (id) DO UPDATE SET
				full_name = EXCLUDED.full_name,
				location_id = EXCLUDED.location_id,
				organization_id = EXCLUDED.organization_id,
				updated_at = EXCLUDED.updated_at`,
			id, req.FullName, req.LocationID, req.OrganizationID, now,
		)
		return execErr
	})
	if err != nil {
		return fmt.Errorf("update profile: %w", apperrors.MapDBError(err))
	}
	return nil
}
