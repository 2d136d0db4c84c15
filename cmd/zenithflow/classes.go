package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	domainauth "github.com/target/zenithflow/internal/domain/auth"
	"github.com/target/zenithflow/internal/domain/model"
	"github.com/target/zenithflow/internal/service"
)

const dateLayout = "2006-01-02"

type scheduleOptions struct {
	LocationID string
	Day        time.Time
	Month      bool
}

func parseScheduleFlags(args []string, out io.Writer, now time.Time) (scheduleOptions, error) {
	fs := newFlagSet("schedule", out)
	opts := scheduleOptions{}
	var day string
	fs.StringVar(&opts.LocationID, "location", "", "Location id (defaults to the profile's location)")
	fs.StringVar(&day, "date", now.Format(dateLayout), "Day to list, YYYY-MM-DD")
	fs.BoolVar(&opts.Month, "month", false, "List the whole month containing -date")
	if err := parseFlags(fs, args); err != nil {
		return scheduleOptions{}, err
	}

	parsed, err := time.ParseInLocation(dateLayout, strings.TrimSpace(day), now.Location())
	if err != nil {
		return scheduleOptions{}, fmt.Errorf("%w: -date must be YYYY-MM-DD", errUsage)
	}
	opts.Day = parsed
	return opts, nil
}

// scheduleLocation picks the explicit location or falls back to the profile's.
func scheduleLocation(explicit string, p *domainauth.Profile) (string, error) {
	if id := strings.TrimSpace(explicit); id != "" {
		return id, nil
	}
	if p != nil && p.LocationID != nil && *p.LocationID != "" {
		return *p.LocationID, nil
	}
	return "", errors.New("no location: pass -location or choose one with settings")
}

func runSchedule(cmdCtx *commandContext, args []string) error {
	opts, err := parseScheduleFlags(args, cmdCtx.Out, time.Now())
	if err != nil {
		return err
	}
	rt, err := openRuntime(cmdCtx, runtimeOptions{WantDB: true})
	if err != nil {
		return err
	}
	defer rt.Close()

	snap, err := rt.ready()
	if err != nil {
		return err
	}
	locationID, err := scheduleLocation(opts.LocationID, snap.Profile)
	if err != nil {
		return err
	}

	slots, err := rt.app.Booking.LoadMonth(cmdCtx.Ctx, locationID, opts.Day)
	if err != nil {
		return err
	}
	if !opts.Month {
		slots = model.SlotsOn(slots, opts.Day)
	}
	return renderSchedule(cmdCtx.Out, slots, snap.IdentityID(), opts.Day.Location())
}

func renderSchedule(w io.Writer, slots []model.ScheduleSlot, viewerID string, loc *time.Location) error {
	if len(slots) == 0 {
		return writeln(w, "No classes scheduled.")
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if err := writeln(tw, "ID\tDAY\tTIME\tACTIVITY\tINSTRUCTOR\tBOOKED\tSTATUS"); err != nil {
		return fmt.Errorf("write schedule header row: %w", err)
	}
	for i := range slots {
		slot := &slots[i]
		start := slot.StartTime.In(loc)
		instructor := slot.InstructorName()
		if instructor == "" {
			instructor = "-"
		}
		if err := writef(
			tw,
			"%s\t%s\t%s\t%s\t%s\t%d/%d\t%s\n",
			slot.ID,
			start.Format("Mon Jan 2"),
			start.Format("15:04"),
			slot.ActivityType,
			instructor,
			slot.BookedCount(),
			slot.Capacity,
			slot.Availability(viewerID),
		); err != nil {
			return fmt.Errorf("write schedule row: %w", err)
		}
	}
	return tw.Flush()
}

func runBook(cmdCtx *commandContext, args []string) error {
	fs := newFlagSet("book", cmdCtx.Out)
	var slotID string
	fs.StringVar(&slotID, "slot", "", "Schedule slot id to reserve")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	rt, err := openRuntime(cmdCtx, runtimeOptions{WantDB: true})
	if err != nil {
		return err
	}
	defer rt.Close()

	if _, err := rt.ready(); err != nil {
		return err
	}
	_, bookErr := rt.app.Booking.ReserveForCurrentUser(cmdCtx.Ctx, strings.TrimSpace(slotID))
	kind, text := bookingNotice(bookErr)
	notice := rt.app.Notices.Post(kind, text)
	if err := writef(cmdCtx.Out, "[%s] %s\n", notice.Kind, notice.Text); err != nil {
		return err
	}
	return bookErr
}

// bookingNotice turns a reservation outcome into inline feedback.
func bookingNotice(err error) (service.NoticeKind, string) {
	if err == nil {
		return service.NoticeSuccess, "Class booked."
	}
	return service.NoticeError, userMessage(err)
}
