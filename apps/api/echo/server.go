package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/bainum/dashboard/core"
	"github.com/bainum/dashboard/core/access"
	"github.com/bainum/dashboard/core/assessment"
	"github.com/bainum/dashboard/core/invitation"
	"github.com/bainum/dashboard/core/roster"
	"github.com/bainum/dashboard/core/session"
	"github.com/bainum/dashboard/core/user"
)

// maxUploadBody leaves room for the multipart envelope around a recording.
const maxUploadBody = "30M"

type (
	ServerDeps struct {
		Conf        *core.Config
		Logger      core.Logger
		Sessions    *session.Manager
		Auth        user.Authenticator
		Roster      *roster.Service
		Invitations *invitation.Service
		Assessments assessment.Backend
		Workflows   *assessment.Registry
		Validate    *validator.Validate
		Translator  ut.Translator
	}

	Server interface {
		http.Handler
		Start()
		Errors() <-chan error
		ShutdownSignal() <-chan os.Signal
		Shutdown(ctx context.Context) error
		Close() error
	}

	server struct {
		deps     ServerDeps
		app      *echo.Echo
		metrics  *metrics
		errors   chan error
		shutdown chan os.Signal
	}
)

var _ Server = (*server)(nil)

func NewServer(deps ServerDeps) Server {
	s := &server{
		deps:     deps,
		app:      echo.New(),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.metrics = newMetrics(deps.Sessions)
	s.setup()
	return s
}

func (s *server) setup() {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !conf.Server.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.signalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/health", s.health)
	s.app.GET("/metrics", echo.WrapHandler(s.metrics.handler()))

	g := s.app.Group("", sessionMiddleware(s.deps.Sessions, conf.Session.CookieName))
	gate := func(req access.Requirement) echo.MiddlewareFunc { return gateMiddleware(req, s.metrics) }

	registerAuthAPI(g, s.deps.Auth, s.deps.Sessions, s.deps.Invitations, conf, s.deps.Validate)
	registerHomeAPI(g, gate(access.Requirement{}))
	registerTeacherAPI(g, gate(access.Requirement{RequiredRole: user.RoleAdmin}), s.deps.Roster, s.deps.Invitations, s.deps.Logger, s.deps.Validate)
	registerCenterAPI(g, gate(access.Requirement{RequiredRole: user.RoleAdmin}), s.deps.Roster, s.deps.Validate)
	registerChildrenAPI(g, gate(access.Requirement{ExcludeRoles: []user.Role{user.RoleParent}}), s.deps.Roster, s.deps.Invitations, s.deps.Logger, s.deps.Validate)
	registerChildPageAPI(
		g,
		childGateMiddleware(s.metrics),
		childPageDeps{
			roster:      s.deps.Roster,
			assessments: s.deps.Assessments,
			workflows:   s.deps.Workflows,
			metrics:     s.metrics,
			logger:      s.deps.Logger,
			validate:    s.deps.Validate,
		},
	)
}

func (s *server) Start() {
	if err := s.app.Start(s.deps.Conf.Server.Addr); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *server) Errors() <-chan error {
	return s.errors
}

func (s *server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default: // already shutting down
	}
}

func (s *server) Shutdown(ctx context.Context) error {
	signal.Stop(s.shutdown)
	return s.app.Shutdown(ctx)
}

func (s *server) Close() error {
	signal.Stop(s.shutdown)
	return s.app.Close()
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *server) health(ctx echo.Context) error {
	status := "ok"
	if s.deps.Sessions.Loading() {
		status = "loading"
	}
	return ctx.JSON(http.StatusOK, echo.Map{
		"status":   status,
		"build":    s.deps.Conf.Build,
		"sessions": s.deps.Sessions.Len(),
	})
}
