package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/bainum/dashboard/core"
	"github.com/bainum/dashboard/core/access"
	"github.com/bainum/dashboard/core/invitation"
	"github.com/bainum/dashboard/core/session"
	"github.com/bainum/dashboard/core/user"
)

type (
	authApi struct {
		svc          user.Authenticator
		sessions     *session.Manager
		invitations  *invitation.Service
		validate     *validator.Validate
		cookieName   string
		secureCookie bool
	}

	// sessionView is what the UI knows of its session.
	sessionView struct {
		Loading  bool         `json:"loading"`
		User     *user.Record `json:"user"`
		Redirect string       `json:"redirect,omitempty"`
	}

	invitationView struct {
		Valid      bool                  `json:"valid"`
		Invitation invitation.Invitation `json:"invitation"`
	}
)

func registerAuthAPI(
	g *echo.Group,
	svc user.Authenticator,
	sessions *session.Manager,
	invitations *invitation.Service,
	conf *core.Config,
	validate *validator.Validate,
) {
	api := authApi{
		svc:          svc,
		sessions:     sessions,
		invitations:  invitations,
		validate:     validate,
		cookieName:   conf.Session.CookieName,
		secureCookie: !(conf.Debug || conf.TestMode),
	}

	ag := g.Group("/auth")
	ag.GET("/session", api.current)
	ag.POST("/login", api.login)
	ag.POST("/signup", api.signup)
	ag.POST("/logout", api.logout)

	g.GET(invitation.ParentRegisterPath, api.verifyParentInvitation)
	g.POST(invitation.ParentRegisterPath, api.registerParent)
	g.GET(invitation.TeacherRegisterPath, api.verifyTeacherInvitation)
	g.POST(invitation.TeacherRegisterPath, api.registerTeacher)
}

// startSession logs the freshly authenticated user in and sends them to their landing page.
func (api *authApi) startSession(ctx echo.Context, code int, res user.AuthResult) error {
	sess, err := api.sessions.Login(ctx.Request().Context(), res.Token, res.User)
	if err != nil {
		return errors.Wrap(err, "starting session")
	}
	setSessionCookie(ctx, api.cookieName, sess, api.secureCookie)
	return ctx.JSON(code, sessionView{User: sess.User, Redirect: sess.User.LandingPath()})
}

// Handlers

func (api *authApi) current(ctx echo.Context) error {
	sess := getContextSession(ctx)
	if sess == nil {
		return ctx.JSON(http.StatusOK, sessionView{})
	}
	return ctx.JSON(http.StatusOK, sessionView{Loading: sess.Loading, User: sess.User})
}

func (api *authApi) login(ctx echo.Context) error {
	var data user.LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	res, err := api.svc.Login(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "logging in")
	}
	return api.startSession(ctx, http.StatusOK, res)
}

func (api *authApi) signup(ctx echo.Context) error {
	var data user.SignupRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SignupRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	res, err := api.svc.Signup(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "signing up")
	}
	return api.startSession(ctx, http.StatusCreated, res)
}

func (api *authApi) logout(ctx echo.Context) error {
	if sess := getContextSession(ctx); sess != nil {
		if err := api.sessions.Logout(ctx.Request().Context(), sess.ID); err != nil {
			return errors.Wrap(err, "logging out")
		}
	}
	clearSessionCookie(ctx, api.cookieName)
	return ctx.JSON(http.StatusOK, sessionView{Redirect: access.LoginPath})
}

func (api *authApi) verifyParentInvitation(ctx echo.Context) error {
	inv, err := api.invitations.VerifyParent(ctx.Request().Context(), ctx.QueryParam("token"))
	if err != nil {
		return errors.Wrap(err, "verifying parent invitation")
	}
	return ctx.JSON(http.StatusOK, invitationView{Valid: true, Invitation: inv})
}

func (api *authApi) verifyTeacherInvitation(ctx echo.Context) error {
	inv, err := api.invitations.VerifyTeacher(ctx.Request().Context(), ctx.QueryParam("token"))
	if err != nil {
		return errors.Wrap(err, "verifying teacher invitation")
	}
	return ctx.JSON(http.StatusOK, invitationView{Valid: true, Invitation: inv})
}

func (api *authApi) registerParent(ctx echo.Context) error {
	var data user.ParentRegistration
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ParentRegistration")
	}
	if data.InvitationToken == "" {
		data.InvitationToken = ctx.QueryParam("token")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	res, err := api.svc.RegisterParent(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "registering parent")
	}
	return api.startSession(ctx, http.StatusCreated, res)
}

func (api *authApi) registerTeacher(ctx echo.Context) error {
	var data user.TeacherRegistration
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to TeacherRegistration")
	}
	if data.InvitationToken == "" {
		data.InvitationToken = ctx.QueryParam("token")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	res, err := api.svc.RegisterTeacher(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "registering teacher")
	}
	return api.startSession(ctx, http.StatusCreated, res)
}
