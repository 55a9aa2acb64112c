package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	echoapi "github.com/bainum/dashboard/apps/api/echo"
	"github.com/bainum/dashboard/core"
	"github.com/bainum/dashboard/core/assessment"
	"github.com/bainum/dashboard/core/invitation"
	"github.com/bainum/dashboard/core/roster"
	"github.com/bainum/dashboard/core/session"
	"github.com/bainum/dashboard/core/user"
	appfs "github.com/bainum/dashboard/fs"
	backendsvc "github.com/bainum/dashboard/services/backend"
	emailsvc "github.com/bainum/dashboard/services/email"
	logsvc "github.com/bainum/dashboard/services/logger"
	"github.com/bainum/dashboard/storage"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	storeLogger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "STORE : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	storeLogger.Enable(!conf.Debug)

	if conf.SecretKey == "" {
		logger.Fatal("SECRETKEY is not set")
	}

	// set up the session store
	store, err := storage.OpenSessionStore(context.Background(), conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up %s session store: %v", conf.Session.Store, err), err)
	}
	defer func() {
		if err = store.Close(); err != nil {
			storeLogger.Error("Failed to close session store", err)
		}
	}()

	// set up services
	mailSvc := emailsvc.NewService(conf, logger)
	backend := backendsvc.NewClient(conf)

	sessions := session.NewManager(store.Sessions, conf, storeLogger)
	defer func() { _ = sessions.Close() }()

	sweepCtx, stopSweeper := context.WithCancel(context.Background())
	defer stopSweeper()

	workflows := assessment.NewRegistry(backend)
	// logout, expiry and failed restores release the session's upload workflows
	sessions.Subscribe(func(e session.Event) {
		if e.Type != session.LoggedIn {
			workflows.Drop(e.SessionID)
		}
	})

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	roster.InitValidators(validate, translator)

	core.ParseEmailTemplates(conf, appfs.FS, appfs.EmailTemplatesDir, logger)

	// requests arriving before the sessions are restored get a loading answer
	go func() {
		if err := sessions.Init(context.Background()); err != nil {
			storeLogger.Error(fmt.Sprintf("restoring sessions: %v", err), err)
		}
		sessions.RunSweeper(sweepCtx, conf.Session.SweepInterval)
	}()

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)
	expvar.NewString("sessionStore").Set(store.Kind)
	expvar.Publish("sessions", expvar.Func(func() interface{} { return sessions.Len() }))
	expvar.Publish("workflows", expvar.Func(func() interface{} { return workflows.Len() }))

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:        conf,
			Logger:      logger,
			Sessions:    sessions,
			Auth:        backend,
			Roster:      roster.NewService(backend, logger),
			Invitations: invitation.NewService(backend, mailSvc, conf, logger),
			Assessments: backend,
			Workflows:   workflows,
			Validate:    validate,
			Translator:  translator,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Error(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Error(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}
