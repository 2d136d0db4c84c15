package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	domainauth "github.com/target/zenithflow/internal/domain/auth"
)

type credentialOptions struct {
	Email    string
	Password string
	FullName string
}

func parseCredentialFlags(name string, args []string, out io.Writer, withName bool) (credentialOptions, error) {
	fs := newFlagSet(name, out)
	var opts credentialOptions
	fs.StringVar(&opts.Email, "email", "", "Account email")
	fs.StringVar(&opts.Password, "password", "", "Account password")
	if withName {
		fs.StringVar(&opts.FullName, "name", "", "Full name shown on the profile")
	}
	if err := parseFlags(fs, args); err != nil {
		return credentialOptions{}, err
	}
	return opts, nil
}

func runStatus(cmdCtx *commandContext, args []string) error {
	if err := parseFlags(newFlagSet("status", cmdCtx.Out), args); err != nil {
		return err
	}
	rt, err := openRuntime(cmdCtx, runtimeOptions{WantDB: true})
	if err != nil {
		return err
	}
	defer rt.Close()

	snap, err := rt.ready()
	if renderErr := renderSnapshot(cmdCtx.Out, snap); renderErr != nil {
		return renderErr
	}
	return err
}

func runLogin(cmdCtx *commandContext, args []string) error {
	opts, err := parseCredentialFlags("login", args, cmdCtx.Out, false)
	if err != nil {
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
	sess, err := rt.app.Auth.SignIn(cmdCtx.Ctx, opts.Email, opts.Password)
	if err != nil {
		return err
	}
	return renderSnapshot(cmdCtx.Out, rt.awaitIdentity(sess.IdentityID()))
}

func runSignUp(cmdCtx *commandContext, args []string) error {
	opts, err := parseCredentialFlags("signup", args, cmdCtx.Out, true)
	if err != nil {
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
	res, err := rt.app.Auth.SignUp(cmdCtx.Ctx, opts.Email, opts.Password, opts.FullName)
	if err != nil {
		return err
	}
	if res.PendingConfirmation || res.Session == nil {
		return writef(cmdCtx.Out, "Check %s for a confirmation link, then run login.\n", opts.Email)
	}
	return renderSnapshot(cmdCtx.Out, rt.awaitIdentity(res.Session.IdentityID()))
}

func runLogout(cmdCtx *commandContext, args []string) error {
	if err := parseFlags(newFlagSet("logout", cmdCtx.Out), args); err != nil {
		return err
	}
	rt, err := openRuntime(cmdCtx, runtimeOptions{})
	if err != nil {
		return err
	}
	defer rt.Close()

	if _, err := rt.ready(); err != nil {
		return err
	}
	if err := rt.app.Auth.SignOut(cmdCtx.Ctx); err != nil {
		return err
	}
	rt.awaitIdentity("")
	return writeln(cmdCtx.Out, "Signed out.")
}

func runMenu(cmdCtx *commandContext, args []string) error {
	if err := parseFlags(newFlagSet("menu", cmdCtx.Out), args); err != nil {
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
	return renderMenu(cmdCtx.Out, domainauth.MenuFor(snap.Profile))
}

func runWatch(cmdCtx *commandContext, args []string) error {
	if err := parseFlags(newFlagSet("watch", cmdCtx.Out), args); err != nil {
		return err
	}
	rt, err := openRuntime(cmdCtx, runtimeOptions{WantDB: true})
	if err != nil {
		return err
	}
	defer rt.Close()

	enc := json.NewEncoder(cmdCtx.Out)
	var encErr error
	err = rt.app.Watch(cmdCtx.Ctx, func(snap domainauth.Snapshot) {
		if encErr == nil {
			encErr = enc.Encode(newWatchLine(snap, time.Now()))
		}
	})
	return errors.Join(err, encErr)
}

type watchLine struct {
	At       time.Time       `json:"at"`
	Status   string          `json:"status"`
	Reason   string          `json:"reason,omitempty"`
	Identity string          `json:"identity,omitempty"`
	Email    string          `json:"email,omitempty"`
	Role     domainauth.Role `json:"role,omitempty"`
}

func newWatchLine(snap domainauth.Snapshot, at time.Time) watchLine {
	line := watchLine{
		At:     at.UTC(),
		Status: string(snap.Status.State),
		Reason: string(snap.Status.Reason),
		Role:   snap.Role(),
	}
	if snap.Identity != nil {
		line.Identity = snap.Identity.ID
		line.Email = snap.Identity.Email
	}
	return line
}

func renderSnapshot(w io.Writer, snap domainauth.Snapshot) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	status := string(snap.Status.State)
	if snap.Status.IsDegraded() {
		status = fmt.Sprintf("%s (%s): %s", status, snap.Status.Reason, snap.Status.Message)
	}
	if err := writef(tw, "Status:\t%s\n", status); err != nil {
		return err
	}

	if snap.Identity == nil {
		if err := writef(tw, "Signed in:\tno\n"); err != nil {
			return err
		}
		return tw.Flush()
	}

	rows := [][2]string{
		{"Signed in as:", fmt.Sprintf("%s (%s)", snap.Identity.Email, snap.Identity.ID)},
		{"Name:", domainauth.DisplayName(snap.Profile, snap.Identity)},
		{"Role:", roleLabel(snap.Role())},
	}
	if snap.Profile != nil && snap.Profile.Organization != nil {
		rows = append(rows, [2]string{"Organization:", snap.Profile.Organization.Name})
	}
	for _, row := range rows {
		if err := writef(tw, "%s\t%s\n", row[0], row[1]); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func roleLabel(r domainauth.Role) string {
	if r == domainauth.RoleNone {
		return "none (no profile)"
	}
	return string(r)
}

func renderMenu(w io.Writer, items []domainauth.MenuItem) error {
	if len(items) == 0 {
		return writeln(w, "No menu entries: sign in and set up a profile first.")
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, item := range items {
		if err := writef(tw, "%s\t%s\n", item.Name, item.Path); err != nil {
			return err
		}
	}
	return tw.Flush()
}
