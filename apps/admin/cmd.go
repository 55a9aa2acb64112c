package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"syscall"

	"github.com/go-playground/validator/v10"
	"golang.org/x/term"

	"github.com/bainum/dashboard/core/invitation"
	"github.com/bainum/dashboard/core/roster"
	"github.com/bainum/dashboard/core/session"
	"github.com/bainum/dashboard/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type (
	loginer interface {
		Login(ctx context.Context, req user.LoginRequest) (user.AuthResult, error)
	}

	rosterReader interface {
		GetChild(ctx context.Context, id string) (roster.Child, error)
		GetTeacher(ctx context.Context, id string) (roster.Teacher, error)
	}

	commandLine struct {
		db          *sql.DB            // nil unless sessions are stored in postgres
		sessions    session.Repository // nil when sessions are not persisted
		auth        loginer
		roster      rosterReader
		invitations *invitation.Service
		validate    *validator.Validate
		out         io.Writer
	}
)

func (cli *commandLine) printUsage() {
	_, _ = fmt.Fprintln(cli.out, "Usage:")
	_, _ = fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS] - run a goose command on the session tables")
	_, _ = fmt.Fprintln(cli.out, "  sessions [-purge] - list the persisted sessions, optionally deleting the expired ones")
	_, _ = fmt.Fprintln(cli.out, "  invite-parent -as EMAIL -child CHILD_ID -email PARENT_EMAIL - invite a parent to follow a child")
	_, _ = fmt.Fprintln(cli.out, "  invite-teacher -as EMAIL -teacher TEACHER_ID -email TEACHER_EMAIL - invite a teacher to create an account")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}
	ctx := context.Background()

	sessionsCmd := flag.NewFlagSet("sessions", flag.ExitOnError)
	sessionsPurge := sessionsCmd.Bool("purge", false, "Delete the expired sessions.")

	inviteParentCmd := flag.NewFlagSet("invite-parent", flag.ExitOnError)
	inviteParentAs := inviteParentCmd.String("as", "", "The e-mail of the inviting account. Its password will be prompted next.")
	inviteParentChild := inviteParentCmd.String("child", "", "The ID of the child to follow.")
	inviteParentEmail := inviteParentCmd.String("email", "", "The parent's e-mail.")

	inviteTeacherCmd := flag.NewFlagSet("invite-teacher", flag.ExitOnError)
	inviteTeacherAs := inviteTeacherCmd.String("as", "", "The e-mail of an admin account. Its password will be prompted next.")
	inviteTeacherID := inviteTeacherCmd.String("teacher", "", "The ID of the teacher record.")
	inviteTeacherEmail := inviteTeacherCmd.String("email", "", "The teacher's e-mail.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	case "sessions":
		if err := sessionsCmd.Parse(args[2:]); err != nil {
			return err
		}
		return cli.listSessions(ctx, *sessionsPurge)

	case "invite-parent":
		if err := inviteParentCmd.Parse(args[2:]); err != nil {
			return err
		}
		if err := checkFlags(inviteParentAs, inviteParentChild, inviteParentEmail); err != nil {
			_, _ = fmt.Fprintln(cli.out, err)
			inviteParentCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			inviteParentCmd.Usage()
			return errHelp
		}
		return cli.inviteParent(ctx, *inviteParentAs, pwd, *inviteParentChild, *inviteParentEmail)

	case "invite-teacher":
		if err := inviteTeacherCmd.Parse(args[2:]); err != nil {
			return err
		}
		if err := checkFlags(inviteTeacherAs, inviteTeacherID, inviteTeacherEmail); err != nil {
			_, _ = fmt.Fprintln(cli.out, err)
			inviteTeacherCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			inviteTeacherCmd.Usage()
			return errHelp
		}
		return cli.inviteTeacher(ctx, *inviteTeacherAs, pwd, *inviteTeacherID, *inviteTeacherEmail)

	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) promptPassword() (string, error) {
	_, _ = fmt.Fprint(cli.out, "Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	_, _ = fmt.Fprintln(cli.out)
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}
