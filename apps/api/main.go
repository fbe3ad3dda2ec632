package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

	echoapi "github.com/shulehq/shule/apps/api/echo"
	"github.com/shulehq/shule/core"
	"github.com/shulehq/shule/core/access"
	"github.com/shulehq/shule/core/admission"
	"github.com/shulehq/shule/core/dashboard"
	"github.com/shulehq/shule/core/message"
	"github.com/shulehq/shule/core/user"
	emailsvc "github.com/shulehq/shule/services/email"
	sendgridmail "github.com/shulehq/shule/services/email/sendgrid"
	logsvc "github.com/shulehq/shule/services/logger"
	postgresdb "github.com/shulehq/shule/storage/document/postgres"
	"github.com/shulehq/shule/storage/repos"
)

const shutdownTimeout = 20 * time.Second

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	std := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	var logger core.Logger
	if conf.Debug || conf.TestMode {
		logger = core.NewConsoleLogger(std)
	} else {
		logger = logsvc.NewRollbarLogger(std, conf)
	}

	db, err := setUpDB(conf)
	errAndDie(std, err)
	defer func() { _ = db.Close() }()
	store := postgresdb.NewStore(db)

	// repositories
	usrRepo := repos.NewUserRepository(store, logger)
	schRepo := repos.NewSchoolRepository(store, logger)
	stdRepo := repos.NewStudentRepository(store, logger)
	msgRepo := repos.NewMessageRepository(store, logger)
	tplRepo := repos.NewTemplateRepository(store, logger)
	inqRepo := repos.NewInquiryRepository(store, logger)
	appRepo := repos.NewApplicationRepository(store, logger)

	// services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = sendgridmail.NewService(conf.SendgridAPIKey, conf.AppName, conf.DefaultFromEmail, logger)
	}
	usrSvc := user.NewService(usrRepo)
	msgSvc := message.NewService(msgRepo, usrRepo, mailSvc, logger)
	admSvc := admission.NewService(inqRepo, appRepo, schRepo, mailSvc, logger)
	dashSvc := dashboard.NewService(stdRepo, msgRepo, logger)
	accEngine := access.NewEngine(usrRepo)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)

	// =========================================================================
	// Start API Service

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	server := echoapi.NewServer(&echoapi.Options{
		Address:        conf.Server.Address(),
		Conf:           conf,
		Logger:         logger,
		Validate:       validate,
		Translator:     translator,
		UserSvc:        usrSvc,
		Students:       stdRepo,
		Messages:       msgRepo,
		Templates:      tplRepo,
		Access:         accEngine,
		DashboardSvc:   dashSvc,
		MessageSvc:     msgSvc,
		AdmissionSvc:   admSvc,
		SignalShutdown: func() { shutdown <- syscall.SIGTERM },
	})

	go server.Start()

	// =========================================================================
	// Shutdown

	sig := <-shutdown
	logger.Info(fmt.Sprintf("%v: start shutdown...", sig))

	// give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err = server.Stop(ctx); err != nil {
		logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)
	}
}

func setUpDB(conf *core.Config) (*sqlx.DB, error) {
	if err := postgresdb.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err := postgresdb.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = postgresdb.Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func errAndDie(std *log.Logger, err error) {
	if err != nil {
		std.Fatal(err)
	}
}
