package main

import (
	"context"
	"log"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/bainum/dashboard/core"
	"github.com/bainum/dashboard/core/invitation"
	"github.com/bainum/dashboard/core/roster"
	appfs "github.com/bainum/dashboard/fs"
	backendsvc "github.com/bainum/dashboard/services/backend"
	emailsvc "github.com/bainum/dashboard/services/email"
	logsvc "github.com/bainum/dashboard/services/logger"
	"github.com/bainum/dashboard/storage"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	conf := core.NewConfig()

	svcLogger := logsvc.NewRollbarLogger(logger, conf)
	svcLogger.Enable(!conf.Debug)

	// set up the session store
	store, err := storage.OpenSessionStore(context.Background(), conf)
	errAndDie(err)
	defer func() { _ = store.Close() }()

	validate := validator.New()
	_en := en.New()
	translator, _ := ut.New(_en, _en).GetTranslator("en")
	core.InitValidators(validate, translator)
	core.ParseEmailTemplates(conf, appfs.FS, appfs.EmailTemplatesDir, svcLogger)

	backend := backendsvc.NewClient(conf)

	// start CLI
	cli := commandLine{
		db:          store.DB,
		auth:        backend,
		roster:      roster.NewService(backend, svcLogger),
		invitations: invitation.NewService(backend, emailsvc.NewService(conf, svcLogger), conf, svcLogger),
		validate:    validate,
		out:         os.Stdout,
	}
	if store.Persistent() {
		cli.sessions = store.Sessions
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		_ = store.Close()
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
