package main

import (
	"context"
	"fmt"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/bainum/dashboard/core"
	"github.com/bainum/dashboard/core/invitation"
	"github.com/bainum/dashboard/core/session"
	"github.com/bainum/dashboard/core/user"
)

var errNotAdmin = errors.New("only admins can invite teachers")

func checkFlags(as, id, email *string) error {
	return vala.BeginValidation().Validate(
		vala.StringNotEmpty(*as, "as"),
		vala.StringNotEmpty(*id, "id"),
		vala.StringNotEmpty(*email, "email"),
	).Check()
}

// login authenticates against the backend and returns a context carrying the token.
func (cli *commandLine) login(ctx context.Context, email, pwd string) (context.Context, user.Record, error) {
	res, err := cli.auth.Login(ctx, user.LoginRequest{Email: core.CleanString(email, true /* lower */), Password: pwd})
	if err != nil {
		return ctx, user.Record{}, errors.Wrap(err, "logging in")
	}
	if res.User == nil {
		return ctx, user.Record{}, errors.New("logging in: no user returned")
	}
	return session.NewContext(ctx, &session.Session{Token: res.Token, User: res.User}), *res.User, nil
}

func (cli *commandLine) inviteParent(ctx context.Context, as, pwd, childID, email string) error {
	form := invitation.InviteForm{Email: email}
	if err := form.Validate(cli.validate); err != nil {
		return err
	}
	ctx, usr, err := cli.login(ctx, as, pwd)
	if err != nil {
		return err
	}

	child, err := cli.roster.GetChild(ctx, childID)
	if err != nil {
		return errors.Wrap(err, "retrieving child")
	}
	res, err := cli.invitations.InviteParent(ctx, usr, child, form)
	if err != nil && !res.ManualShare {
		return err
	}
	cli.printInvitation(form.Email, res)
	return nil
}

func (cli *commandLine) inviteTeacher(ctx context.Context, as, pwd, teacherID, email string) error {
	form := invitation.InviteForm{Email: email}
	if err := form.Validate(cli.validate); err != nil {
		return err
	}
	ctx, usr, err := cli.login(ctx, as, pwd)
	if err != nil {
		return err
	}
	if !usr.IsAdmin() {
		return errNotAdmin
	}

	teacher, err := cli.roster.GetTeacher(ctx, teacherID)
	if err != nil {
		return errors.Wrap(err, "retrieving teacher")
	}
	res, err := cli.invitations.InviteTeacher(ctx, teacher, form)
	if err != nil && !res.ManualShare {
		return err
	}
	cli.printInvitation(form.Email, res)
	return nil
}

func (cli *commandLine) printInvitation(email string, res invitation.SendResult) {
	if !res.ManualShare {
		_, _ = fmt.Fprintf(cli.out, "Invitation sent to %s\n", email)
		return
	}
	if res.Warning != "" {
		_, _ = fmt.Fprintf(cli.out, "warning: %s\n", res.Warning)
	}
	if res.EmailedByUs {
		_, _ = fmt.Fprintf(cli.out, "Invitation e-mailed to %s by the dashboard\n", email)
	}
	if res.Link != "" {
		_, _ = fmt.Fprintf(cli.out, "Share this link: %s\n", res.Link)
	}
}
