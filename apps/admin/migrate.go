package main

import (
	"github.com/trezcool/goose"

	appfs "github.com/shulehq/shule/fs"
)

var gooseRunFunc = goose.RunFS // mockable

// migrateDB migrates the DB to the most recent version available or runs the
// given goose command (up, down, status, ...).
func (cli *commandLine) migrateDB(args []string) error {
	command := "up"
	var arguments []string
	if len(args) > 0 {
		command = args[0]
		arguments = args[1:]
	}
	return gooseRunFunc(command, cli.db.DB, appfs.FS, "migrations", arguments...)
}
