package main

import (
	"log"
	"os"

	"github.com/shulehq/shule/core"
	postgresdb "github.com/shulehq/shule/storage/document/postgres"
	"github.com/shulehq/shule/storage/repos"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf := core.NewConfig()
	appLogger := core.NewConsoleLogger(logger)

	// set up DB
	errAndDie(postgresdb.CreateIfNotExist(conf))
	db, err := postgresdb.Open(conf)
	errAndDie(err)
	defer func() { _ = db.Close() }()
	errAndDie(db.Ping())

	store := postgresdb.NewStore(db)

	// start CLI
	cli := commandLine{
		db:      db,
		usrRepo: repos.NewUserRepository(store, appLogger),
		schRepo: repos.NewSchoolRepository(store, appLogger),
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
