package echoapi

import (
	"context"
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/shulehq/shule/core"
	"github.com/shulehq/shule/core/access"
	"github.com/shulehq/shule/core/admission"
	"github.com/shulehq/shule/core/dashboard"
	"github.com/shulehq/shule/core/message"
	"github.com/shulehq/shule/core/student"
	"github.com/shulehq/shule/core/user"
)

type (
	Options struct {
		Address        string
		DisableReqLogs bool

		Conf       *core.Config
		Logger     core.Logger
		Validate   *validator.Validate
		Translator ut.Translator

		UserSvc      user.ServiceInterface
		Students     student.Repository
		Messages     message.Repository
		Templates    message.TemplateRepository
		Access       *access.Engine
		DashboardSvc *dashboard.Service
		MessageSvc   *message.Service
		AdmissionSvc *admission.Service

		SignalShutdown func()
	}

	Server interface {
		http.Handler
		Start()
		Stop(context.Context) error
	}

	server struct {
		opts *Options
		app  *echo.Echo
	}
)

var _ Server = (*server)(nil)

func NewServer(opts *Options) Server {
	s := &server{
		opts: opts,
		app:  echo.New(),
	}
	s.setup()
	return s
}

func (s *server) setup() {
	conf := s.opts.Conf

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger, s.opts.Translator, s.opts.SignalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", home)

	jwt := middleware.JWTWithConfig(newJWTConfig(conf))

	registerAuthAPI(s.app, jwt, conf, s.opts.UserSvc, s.opts.Validate, s.opts.Translator)

	api := s.app.Group("/api")
	registerAdmissionAPI(api, jwt, s.opts.AdmissionSvc, s.opts.UserSvc, s.opts.Validate, s.opts.Translator)

	authed := api.Group("", jwt)
	registerDashboardAPI(authed, s.opts.DashboardSvc, s.opts.UserSvc)
	registerStudentAPI(authed, s.opts.Students, s.opts.UserSvc, s.opts.Access, s.opts.Validate, s.opts.Translator)
	registerMessageAPI(authed, s.opts.Messages, s.opts.Templates, s.opts.MessageSvc, s.opts.UserSvc, s.opts.Access, s.opts.Validate, s.opts.Translator)
}

func (s *server) Start() {
	s.app.Logger.Fatal(s.app.Start(s.opts.Address))
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to Shule API!")
}
