package echoapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/shulehq/shule/core"
	"github.com/shulehq/shule/core/access"
	"github.com/shulehq/shule/core/admission"
	"github.com/shulehq/shule/core/dashboard"
	"github.com/shulehq/shule/core/message"
	"github.com/shulehq/shule/core/user"
	dummymail "github.com/shulehq/shule/services/email/dummy"
	inmemdb "github.com/shulehq/shule/storage/document/inmem"
	"github.com/shulehq/shule/storage/repos"
	testutil "github.com/shulehq/shule/tests"
)

type testApp struct {
	server Server
	conf   *core.Config

	users     *repos.UserRepository
	schools   *repos.SchoolRepository
	students  *repos.StudentRepository
	messages  *repos.MessageRepository
	templates *repos.TemplateRepository
	inquiries *repos.InquiryRepository
	mailSvc   *dummymail.Service
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	conf := testutil.NewConfig()
	conf.Server.JWTExpirationDelta = time.Hour

	log := testutil.NewLogger()
	store := inmemdb.Open()

	usrRepo := repos.NewUserRepository(store, log)
	schRepo := repos.NewSchoolRepository(store, log)
	stuRepo := repos.NewStudentRepository(store, log)
	msgRepo := repos.NewMessageRepository(store, log)
	tplRepo := repos.NewTemplateRepository(store, log)
	inqRepo := repos.NewInquiryRepository(store, log)
	appRepo := repos.NewApplicationRepository(store, log)

	mailSvc := dummymail.NewService(conf.AppName)

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)

	app := &testApp{
		conf:      conf,
		users:     usrRepo,
		schools:   schRepo,
		students:  stuRepo,
		messages:  msgRepo,
		templates: tplRepo,
		inquiries: inqRepo,
		mailSvc:   mailSvc,
	}
	app.server = NewServer(&Options{
		DisableReqLogs: true,
		Conf:           conf,
		Logger:         log,
		Validate:       validate,
		Translator:     translator,
		UserSvc:        user.NewService(usrRepo),
		Students:       stuRepo,
		Messages:       msgRepo,
		Templates:      tplRepo,
		Access:         access.NewEngine(usrRepo),
		DashboardSvc:   dashboard.NewService(stuRepo, msgRepo, log),
		MessageSvc:     message.NewService(msgRepo, usrRepo, mailSvc, log),
		AdmissionSvc:   admission.NewService(inqRepo, appRepo, schRepo, mailSvc, log),
	})
	return app
}

func (app *testApp) getToken(t *testing.T, usr user.User) string {
	t.Helper()
	token, err := GenerateToken(app.conf, GetUserClaims(app.conf, usr))
	if err != nil {
		t.Fatalf("getToken(): %v", err)
	}
	return token
}

func (app *testApp) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	app.server.ServeHTTP(rec, req)
	return rec
}

func newAuthRequest(method, path, token string, data ...[]byte) *http.Request {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func newRequest(method, path string, data ...[]byte) *http.Request {
	return newAuthRequest(method, path, "", data...)
}

func marshallObj(t *testing.T, obj interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshallObj(): %v", err)
	}
	return data
}

// envelope is the generic response wrapper: {success, data|error, pagination?}.
type envelope struct {
	Success    bool            `json:"success"`
	Data       json.RawMessage `json:"data"`
	Error      json.RawMessage `json:"error"`
	Pagination *Pagination     `json:"pagination"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decodeEnvelope(%s): %v", rec.Body.String(), err)
	}
	return env
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) envelope {
	t.Helper()
	env := decodeEnvelope(t, rec)
	if err := json.Unmarshal(env.Data, dst); err != nil {
		t.Fatalf("decodeData(%s): %v", rec.Body.String(), err)
	}
	return env
}

func errorString(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var msg string
	if err := json.Unmarshal(decodeEnvelope(t, rec).Error, &msg); err != nil {
		t.Fatalf("errorString(%s): %v", rec.Body.String(), err)
	}
	return msg
}

func errorFields(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	flds := make(map[string]string)
	if err := json.Unmarshal(decodeEnvelope(t, rec).Error, &flds); err != nil {
		t.Fatalf("errorFields(%s): %v", rec.Body.String(), err)
	}
	return flds
}
