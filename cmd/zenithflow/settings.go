package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	domainauth "github.com/target/zenithflow/internal/domain/auth"
	"github.com/target/zenithflow/internal/domain/model"
)

type settingsOptions struct {
	FullName   string
	LocationID string
}

func (o settingsOptions) isUpdate() bool {
	return strings.TrimSpace(o.FullName) != "" || strings.TrimSpace(o.LocationID) != ""
}

func parseSettingsFlags(args []string, out io.Writer) (settingsOptions, error) {
	fs := newFlagSet("settings", out)
	var opts settingsOptions
	fs.StringVar(&opts.FullName, "name", "", "New full name")
	fs.StringVar(&opts.LocationID, "location", "", "New home location id")
	if err := parseFlags(fs, args); err != nil {
		return settingsOptions{}, err
	}
	return opts, nil
}

func runSettings(cmdCtx *commandContext, args []string) error {
	opts, err := parseSettingsFlags(args, cmdCtx.Out)
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

	if !opts.isUpdate() {
		locs, err := rt.app.Settings.ListLocations(cmdCtx.Ctx)
		if err != nil {
			return err
		}
		current := ""
		if snap.Profile != nil && snap.Profile.LocationID != nil {
			current = *snap.Profile.LocationID
		}
		return renderLocations(cmdCtx.Out, locs, current)
	}

	// Unset fields keep their current values.
	if opts.FullName == "" && snap.Profile != nil {
		opts.FullName = snap.Profile.FullName
	}
	if opts.LocationID == "" && snap.Profile != nil && snap.Profile.LocationID != nil {
		opts.LocationID = *snap.Profile.LocationID
	}
	before := rt.app.Sync.Snapshot().Generation
	if err := rt.app.Settings.UpdateProfile(cmdCtx.Ctx, snap.IdentityID(), opts.FullName, opts.LocationID); err != nil {
		return err
	}
	return renderSnapshot(cmdCtx.Out, rt.await(func(s domainauth.Snapshot) bool {
		return s.Generation > before && !s.ProfileLoading
	}))
}

func renderLocations(w io.Writer, locs []model.Location, current string) error {
	if len(locs) == 0 {
		return writeln(w, "No locations configured.")
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if err := writeln(tw, "ID\tLOCATION\t"); err != nil {
		return fmt.Errorf("write locations header row: %w", err)
	}
	for _, loc := range locs {
		marker := ""
		if loc.ID == current {
			marker = "*"
		}
		if err := writef(tw, "%s\t%s\t%s\n", loc.ID, loc.Label(), marker); err != nil {
			return fmt.Errorf("write location row: %w", err)
		}
	}
	return tw.Flush()
}
