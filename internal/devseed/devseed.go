package devseed

// Package devseed fills a development database with a small tenant: one
// organization, its branches, an instructor and a rolling two weeks of classes.
// Every row has a deterministic id so seeding can be repeated safely.

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/target/zenithflow/internal/data/pgxutil"
	domainauth "github.com/target/zenithflow/internal/domain/auth"
)

// namespace roots every deterministic seed id.
var namespace = uuid.MustParse("6f1c7a52-3a54-4d8e-9b0e-2f1f4f8c9a10")

// InstructorID is the profile id of the seeded instructor.
const InstructorID = "seed-instructor"

// Options controls what Run seeds.
type Options struct {
	// Now anchors the schedule; classes are created from Now's day onward.
	Now time.Time
	// Days is how many days of classes to create. Defaults to 14.
	Days int
	// DevUserID, when set, gets a profile at the first branch with DevUserRole.
	DevUserID   string
	DevUserName string
	DevUserRole domainauth.Role
	Logger      *slog.Logger
}

// Result counts the rows Run inserted. Rows that already existed are not counted.
type Result struct {
	Organizations int64
	Locations     int64
	Profiles      int64
	Classes       int64
}

type branch struct {
	name string
}

type classTemplate struct {
	activity string
	hour     int
	minute   int
	capacity int
}

var (
	orgName  = "ZenithFlow Studios"
	branches = []branch{{name: "Downtown"}, {name: "Riverside"}}
	classes  = []classTemplate{
		{activity: "Yoga", hour: 7, minute: 0, capacity: 12},
		{activity: "Pilates", hour: 12, minute: 30, capacity: 8},
		{activity: "Spin", hour: 18, minute: 0, capacity: 15},
		{activity: "Boxing", hour: 19, minute: 30, capacity: 2},
	}
)

// SeedID derives the stable id used for a seeded row.
func SeedID(parts ...string) string {
	return uuid.NewSHA1(namespace, []byte(strings.Join(parts, "/"))).String()
}

// OrganizationID is the id of the seeded organization.
func OrganizationID() string { return SeedID("org", orgName) }

// LocationID is the id of the seeded branch with the given name.
func LocationID(name string) string { return SeedID("location", name) }

// Run seeds db in a single transaction.
func Run(ctx context.Context, db *sql.DB, opts Options) (Result, error) {
	if opts.DevUserRole != domainauth.RoleNone && !opts.DevUserRole.Valid() {
		return Result{}, fmt.Errorf("devseed: unknown role %q", opts.DevUserRole)
	}
	if db == nil {
		return Result{}, errors.New("devseed: db is required")
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	if opts.Days <= 0 {
		opts.Days = 14
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "devseed")

	var res Result
	err := pgxutil.WithPgxTx(ctx, db, pgxutil.TxConfig{Fn: func(tx pgx.Tx) error {
		var err error
		if res.Organizations, err = exec(ctx, tx,
			`INSERT INTO organizations (id, name) VALUES ($1, $2) ON CONFLICT (id) DO NOTHING`,
			OrganizationID(), orgName); err != nil {
			return fmt.Errorf("seed organization: %w", err)
		}

		for _, b := range branches {
			n, err := exec(ctx, tx,
				`INSERT INTO locations (id, organization_id, name) VALUES ($1, $2, $3) ON CONFLICT (id) DO NOTHING`,
				LocationID(b.name), OrganizationID(), b.name)
			if err != nil {
				return fmt.Errorf("seed location %s: %w", b.name, err)
			}
			res.Locations += n
		}

		if res.Profiles, err = seedProfiles(ctx, tx, opts); err != nil {
			return err
		}

		if res.Classes, err = seedClasses(ctx, tx, opts); err != nil {
			return err
		}
		return nil
	}})
	if err != nil {
		return Result{}, err
	}

	logger.InfoContext(ctx, "development data seeded",
		"organizations", res.Organizations,
		"locations", res.Locations,
		"profiles", res.Profiles,
		"classes", res.Classes,
	)
	return res, nil
}

func seedProfiles(ctx context.Context, tx pgx.Tx, opts Options) (int64, error) {
	home := LocationID(branches[0].name)
	const upsert = `
		INSERT INTO profiles (id, full_name, role, location_id, organization_id)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING`

	total, err := exec(ctx, tx, upsert, InstructorID, "Alex Rivera", string(domainauth.RoleInstructor), home, OrganizationID())
	if err != nil {
		return 0, fmt.Errorf("seed instructor: %w", err)
	}

	if opts.DevUserID == "" {
		return total, nil
	}
	role := opts.DevUserRole
	if role == domainauth.RoleNone {
		role = domainauth.RoleClient
	}
	name := opts.DevUserName
	if name == "" {
		name = "Dev User"
	}
	n, err := exec(ctx, tx, upsert, opts.DevUserID, name, string(role), home, OrganizationID())
	if err != nil {
		return 0, fmt.Errorf("seed dev user profile: %w", err)
	}
	return total + n, nil
}

func seedClasses(ctx context.Context, tx pgx.Tx, opts Options) (int64, error) {
	loc := opts.Now.Location()
	y, m, d := opts.Now.Date()
	first := time.Date(y, m, d, 0, 0, 0, 0, loc)

	batch := &pgx.Batch{}
	for _, b := range branches {
		locationID := LocationID(b.name)
		for day := 0; day < opts.Days; day++ {
			date := first.AddDate(0, 0, day)
			for _, c := range classes {
				start := time.Date(date.Year(), date.Month(), date.Day(), c.hour, c.minute, 0, 0, loc)
				batch.Queue(
					`INSERT INTO schedule (id, location_id, activity_type, start_time, capacity, instructor_id)
					 VALUES ($1, $2, $3, $4, $5, $6)
					 ON CONFLICT (id) DO NOTHING`,
					SeedID("class", b.name, start.UTC().Format(time.RFC3339), c.activity),
					locationID, c.activity, start, c.capacity, InstructorID,
				)
			}
		}
	}

	results := tx.SendBatch(ctx, batch)
	var inserted int64
	for i := 0; i < batch.Len(); i++ {
		tag, err := results.Exec()
		if err != nil {
			_ = results.Close()
			return 0, fmt.Errorf("seed classes: %w", err)
		}
		inserted += tag.RowsAffected()
	}
	if err := results.Close(); err != nil {
		return 0, fmt.Errorf("seed classes: %w", err)
	}
	return inserted, nil
}

func exec(ctx context.Context, tx pgx.Tx, query string, args ...any) (int64, error) {
	tag, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
