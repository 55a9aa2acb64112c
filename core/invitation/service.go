package invitation

import (
	"context"
	"fmt"
	"net/mail"

	"github.com/pkg/errors"

	"github.com/bainum/dashboard/core"
	"github.com/bainum/dashboard/core/roster"
	"github.com/bainum/dashboard/core/user"
)

var (
	ErrNoToken           = errors.New("no invitation token provided")
	ErrInvalidInvitation = errors.New("invalid or expired invitation")
)

type (
	// Backend is the part of the REST API issuing and checking invitations.
	Backend interface {
		// SendParentInvitation may return a response along with an error: the invitation can exist even
		// though the request failed.
		SendParentInvitation(ctx context.Context, req ParentInvitationRequest) (SendResponse, error)
		VerifyParentInvitation(ctx context.Context, token string) (Verification, error)
		SendTeacherInvitation(ctx context.Context, req TeacherInvitationRequest) (SendResponse, error)
		VerifyTeacherInvitation(ctx context.Context, token string) (Verification, error)
	}

	Service struct {
		backend Backend
		mailer  core.EmailService
		conf    *core.Config
		logger  core.Logger
	}
)

func NewService(backend Backend, mailer core.EmailService, conf *core.Config, logger core.Logger) *Service {
	return &Service{
		backend: backend,
		mailer:  mailer,
		conf:    conf,
		logger:  logger,
	}
}

// InviteParent invites a parent to follow the child. When the backend could not e-mail the invitation,
// the dashboard sends it itself and the link is returned for manual sharing.
func (svc *Service) InviteParent(ctx context.Context, usr user.Record, child roster.Child, form InviteForm) (SendResult, error) {
	resp, err := svc.backend.SendParentInvitation(ctx, ParentInvitationRequest{
		Email:    form.Email,
		ChildID:  child.ID,
		UserID:   usr.ID,
		UserRole: usr.Role,
		UserName: usr.Name,
	})
	msg := &core.EmailMessage{
		To:           []mail.Address{{Address: form.Email}},
		Subject:      fmt.Sprintf("%s: follow %s's progress", svc.conf.AppName, child.Name),
		TemplateName: "parent_invitation",
	}
	res, fbErr := svc.deliver(resp, err, ParentRegisterPath, msg, map[string]string{"ChildName": child.Name})
	if fbErr != nil {
		return res, errors.Wrap(fbErr, "sending parent invitation")
	}
	return res, nil
}

// InviteTeacher invites an existing teacher record to create an account.
// A teacher without a date of birth is invited with today's date.
func (svc *Service) InviteTeacher(ctx context.Context, teacher roster.Teacher, form InviteForm) (SendResult, error) {
	first, last := teacher.Names()
	dob := teacher.DateOfBirth
	if dob == "" {
		dob = core.Today().Format(core.DateLayout)
	}
	resp, err := svc.backend.SendTeacherInvitation(ctx, TeacherInvitationRequest{
		Email:       form.Email,
		FirstName:   first,
		LastName:    last,
		Education:   teacher.Education,
		DateOfBirth: dob,
		Center:      teacher.Center,
	})
	msg := &core.EmailMessage{
		To:           []mail.Address{{Name: teacher.Name, Address: form.Email}},
		Subject:      fmt.Sprintf("%s: your teacher account", svc.conf.AppName),
		TemplateName: "teacher_invitation",
	}
	res, fbErr := svc.deliver(resp, err, TeacherRegisterPath, msg, map[string]string{"Name": teacher.Name})
	if fbErr != nil {
		return res, errors.Wrap(fbErr, "sending teacher invitation")
	}
	return res, nil
}

func (svc *Service) deliver(resp SendResponse, sendErr error, registerPath string, msg *core.EmailMessage, data map[string]string) (SendResult, error) {
	link := resp.Link(svc.conf.FrontendBaseURL, registerPath)
	if sendErr != nil && link == "" {
		return SendResult{}, sendErr
	}

	res := SendResult{Invitation: resp.Invitation}
	if sendErr == nil && !resp.Undelivered() {
		return res, nil
	}

	res.Warning = resp.Warning
	res.Link = link
	res.ManualShare = true
	if link != "" {
		data["Link"] = link
		msg.TemplateData = data
		svc.mailer.SendMessages(msg)
		res.EmailedByUs = true
		svc.logger.Info(fmt.Sprintf("invitation e-mailed by the dashboard to %s", msg.To[0].Address))
	}
	return res, sendErr
}

func (svc *Service) VerifyParent(ctx context.Context, token string) (Invitation, error) {
	return svc.verify(ctx, token, svc.backend.VerifyParentInvitation)
}

func (svc *Service) VerifyTeacher(ctx context.Context, token string) (Invitation, error) {
	return svc.verify(ctx, token, svc.backend.VerifyTeacherInvitation)
}

func (svc *Service) verify(ctx context.Context, token string, fn func(context.Context, string) (Verification, error)) (Invitation, error) {
	if token = core.CleanString(token); token == "" {
		return Invitation{}, ErrNoToken
	}
	v, err := fn(ctx, token)
	if err != nil {
		return Invitation{}, err
	}
	if !v.Valid {
		return Invitation{}, ErrInvalidInvitation
	}
	if v.Invitation.Token == "" {
		v.Invitation.Token = token
	}
	return v.Invitation, nil
}
