package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/target/zenithflow/internal/domain/auth"
	"github.com/target/zenithflow/internal/domain/model"
	apperrors "github.com/target/zenithflow/internal/errors"
	"github.com/target/zenithflow/internal/service"
)

func TestPrintUsageListsEveryCommand(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printUsage(&buf))

	out := buf.String()
	for name, cmd := range commands() {
		assert.Equal(t, name, cmd.name)
		assert.Contains(t, out, "  "+name)
	}
	assert.Less(t, strings.Index(out, "book"), strings.Index(out, "status"), "commands are sorted")
}

func TestParseFlagsRejectsExtraArgs(t *testing.T) {
	err := parseFlags(newFlagSet("status", io.Discard), []string{"extra"})
	require.ErrorIs(t, err, errUsage)

	err = parseFlags(newFlagSet("status", io.Discard), []string{"-nope"})
	require.ErrorIs(t, err, errUsage)
}

func TestParseScheduleFlags(t *testing.T) {
	now := time.Date(2026, 5, 14, 10, 0, 0, 0, time.UTC)

	opts, err := parseScheduleFlags(nil, io.Discard, now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 5, 14, 0, 0, 0, 0, time.UTC), opts.Day)
	assert.False(t, opts.Month)

	opts, err = parseScheduleFlags([]string{"-location", "loc-1", "-date", "2026-06-01", "-month"}, io.Discard, now)
	require.NoError(t, err)
	assert.Equal(t, "loc-1", opts.LocationID)
	assert.Equal(t, time.June, opts.Day.Month())
	assert.True(t, opts.Month)

	_, err = parseScheduleFlags([]string{"-date", "06/01/2026"}, io.Discard, now)
	require.ErrorIs(t, err, errUsage)
}

func TestScheduleLocation(t *testing.T) {
	home := "loc-home"
	id, err := scheduleLocation(" loc-x ", &domainauth.Profile{LocationID: &home})
	require.NoError(t, err)
	assert.Equal(t, "loc-x", id)

	id, err = scheduleLocation("", &domainauth.Profile{LocationID: &home})
	require.NoError(t, err)
	assert.Equal(t, home, id)

	_, err = scheduleLocation("", nil)
	require.Error(t, err)
}

func TestRenderSchedule(t *testing.T) {
	start := time.Date(2026, 5, 14, 18, 0, 0, 0, time.UTC)
	slots := []model.ScheduleSlot{
		{
			ID: "s1", ActivityType: "Spin", StartTime: start, Capacity: 2,
			Instructor: &model.Instructor{FullName: "Alex Rivera"},
			Bookings:   []model.Booking{{UserID: "u1"}},
		},
		{
			ID: "s2", ActivityType: "Boxing", StartTime: start.Add(90 * time.Minute), Capacity: 1,
			Bookings: []model.Booking{{UserID: "u2"}},
		},
		{ID: "s3", ActivityType: "Yoga", StartTime: start.Add(2 * time.Hour), Capacity: 5},
	}

	var buf bytes.Buffer
	require.NoError(t, renderSchedule(&buf, slots, "u1", time.UTC))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "STATUS")
	assert.Contains(t, lines[1], "Alex Rivera")
	assert.Contains(t, lines[1], "1/2")
	assert.True(t, strings.HasSuffix(lines[1], "booked"))
	assert.True(t, strings.HasSuffix(lines[2], "full"))
	assert.Contains(t, lines[2], " - ")
	assert.True(t, strings.HasSuffix(lines[3], "available"))

	buf.Reset()
	require.NoError(t, renderSchedule(&buf, nil, "u1", time.UTC))
	assert.Equal(t, "No classes scheduled.\n", buf.String())
}

func TestRenderSnapshot(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, renderSnapshot(&buf, domainauth.Snapshot{Status: domainauth.Ready()}))
	assert.Contains(t, buf.String(), "ready")
	assert.Contains(t, buf.String(), "Signed in:  no")

	buf.Reset()
	snap := domainauth.Snapshot{
		Status:   domainauth.Ready(),
		Identity: &domainauth.Identity{ID: "u1", Email: "ada@example.com"},
		Profile: &domainauth.Profile{
			FullName:     "Ada L",
			Role:         domainauth.RoleBranchManager,
			Organization: &domainauth.Organization{Name: "Zenith"},
		},
	}
	require.NoError(t, renderSnapshot(&buf, snap))
	out := buf.String()
	assert.Contains(t, out, "ada@example.com (u1)")
	assert.Contains(t, out, "Ada L")
	assert.Contains(t, out, "branch_manager")
	assert.Contains(t, out, "Zenith")

	buf.Reset()
	snap.Profile = nil
	require.NoError(t, renderSnapshot(&buf, snap))
	assert.Contains(t, buf.String(), "none (no profile)")
	assert.Contains(t, buf.String(), "ada\n")

	buf.Reset()
	require.NoError(t, renderSnapshot(&buf, domainauth.Snapshot{
		Status: domainauth.Degraded(domainauth.ReasonConfig, "GATEWAY_URL is empty"),
	}))
	assert.Contains(t, buf.String(), "degraded (config): GATEWAY_URL is empty")
}

func TestRenderMenu(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, renderMenu(&buf, domainauth.MenuFor(&domainauth.Profile{Role: domainauth.RoleClient})))
	out := buf.String()
	assert.Contains(t, out, "Calendar")
	assert.NotContains(t, out, "Clients")

	buf.Reset()
	require.NoError(t, renderMenu(&buf, domainauth.MenuFor(nil)))
	assert.Contains(t, buf.String(), "No menu entries")
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "persistence", err: &service.PersistenceError{Op: "create booking", Message: "permission denied"}, want: "permission denied"},
		{name: "gateway message", err: fmt.Errorf("sign in: %w: %w", service.ErrInvalidCredentials,
			apperrors.New(apperrors.ErrCodeInvalidCredentials, "Invalid login credentials")), want: "Invalid login credentials"},
		{name: "sentinel", err: service.ErrCapacityExceeded, want: "this class is full"},
		{name: "wrapped sentinel", err: fmt.Errorf("reserve: %w", service.ErrAlreadyBooked), want: "you have already booked this class"},
		{name: "plain", err: errors.New("boom"), want: "boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, userMessage(tt.err))
		})
	}
}

func TestBookingNotice(t *testing.T) {
	kind, text := bookingNotice(nil)
	assert.Equal(t, service.NoticeSuccess, kind)
	assert.Equal(t, "Class booked.", text)

	kind, text = bookingNotice(service.ErrUnauthenticated)
	assert.Equal(t, service.NoticeError, kind)
	assert.Equal(t, "sign in to book a class", text)
}

func TestParseSeedFlags(t *testing.T) {
	opts, err := parseSeedFlags(nil, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, 14, opts.Days)
	assert.Equal(t, string(domainauth.RoleSuperadmin), opts.DevRole)

	_, err = parseSeedFlags([]string{"-dev-role", "owner"}, io.Discard)
	require.ErrorIs(t, err, errUsage)

	_, err = parseSeedFlags([]string{"-days", "0"}, io.Discard)
	require.ErrorIs(t, err, errUsage)

	_, err = parseMigrateFlags([]string{"-timeout", "0s"}, io.Discard)
	require.ErrorIs(t, err, errUsage)
}

func TestGuardRemoteHost(t *testing.T) {
	for _, host := range []string{"localhost", "127.0.0.1", "::1", "postgres", "db.localhost"} {
		assert.NoError(t, guardRemoteHost(host, false), host)
	}
	require.ErrorIs(t, guardRemoteHost("db.prod.example.com", false), errRemoteHost)
	assert.NoError(t, guardRemoteHost("db.prod.example.com", true))
}

func TestNewWatchLine(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.FixedZone("X", 3600))
	line := newWatchLine(domainauth.Snapshot{
		Status:   domainauth.Ready(),
		Identity: &domainauth.Identity{ID: "u1", Email: "a@example.com"},
		Profile:  &domainauth.Profile{Role: domainauth.RoleInstructor},
	}, at)

	assert.Equal(t, at.UTC(), line.At)
	assert.Equal(t, "ready", line.Status)
	assert.Equal(t, "u1", line.Identity)
	assert.Equal(t, domainauth.RoleInstructor, line.Role)
}
