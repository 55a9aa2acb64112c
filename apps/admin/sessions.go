package main

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/pkg/errors"

	"github.com/bainum/dashboard/core"
	"github.com/bainum/dashboard/core/session"
)

var errNotPersisted = errors.New("sessions are not persisted by the memory store")

func (cli *commandLine) listSessions(ctx context.Context, purge bool) error {
	if cli.sessions == nil {
		return errNotPersisted
	}
	recs, err := cli.sessions.ListSessions(ctx)
	if err != nil {
		return errors.Wrap(err, "listing sessions")
	}

	now := core.NowFunc()
	w := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tUSER\tROLE\tEXPIRES\t")

	var purged int
	for _, rec := range recs {
		expired := !rec.ExpiresAt.IsZero() && !now.Before(rec.ExpiresAt)
		if purge && expired {
			if err = cli.sessions.DeleteSession(ctx, rec.ID); err != nil {
				return errors.Wrapf(err, "deleting session %s", rec.ID)
			}
			purged++
			continue
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t\n", rec.ID, rec.Claims.Email, rec.Claims.Role, expiry(rec, now))
	}
	if err = w.Flush(); err != nil {
		return err
	}
	if purge {
		_, _ = fmt.Fprintf(cli.out, "%d expired session(s) deleted\n", purged)
	}
	return nil
}

func expiry(rec session.Record, now time.Time) string {
	switch {
	case rec.ExpiresAt.IsZero():
		return "never"
	case !now.Before(rec.ExpiresAt):
		return "expired"
	}
	return rec.ExpiresAt.UTC().Format(time.RFC3339)
}
