package main

import (
	"github.com/kyalo/darasa/storage/database"
)

var migrateRunFunc = database.RunMigration // mockable

func (cli *commandLine) migrate(args []string) error {
	command := args[0]
	var arguments []string
	if len(args) > 1 {
		arguments = args[1:]
	}
	return migrateRunFunc(cli.db, command, arguments...)
}
