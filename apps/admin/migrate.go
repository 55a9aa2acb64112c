package main

import (
	"github.com/pkg/errors"
	"github.com/trezcool/goose"

	appfs "github.com/bainum/dashboard/fs"
)

var gooseRunFunc = goose.RunFS // mockable

var errNoDatabase = errors.New("migrations need the postgres session store (SESSION_STORE=postgres)")

func (cli *commandLine) migrate(args []string) error {
	if cli.db == nil {
		return errNoDatabase
	}
	arguments := make([]string, 0)
	if len(args) > 1 {
		arguments = append(arguments, args[1:]...)
	}
	return gooseRunFunc(args[0], cli.db, appfs.FS, appfs.MigrationsDir, arguments...)
}
