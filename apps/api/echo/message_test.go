package echoapi

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/volatiletech/null/v8"

	"github.com/shulehq/shule/core/message"
	"github.com/shulehq/shule/core/user"
	testutil "github.com/shulehq/shule/tests"
)

func TestMessageApi_list(t *testing.T) {
	app := newTestApp(t)

	teacher := testutil.CreateUser(t, app.users, "Tina", "Teacher", "tina@test.cd", "", user.RoleTeacher, 5)
	parent := testutil.CreateUser(t, app.users, "Pam", "Parent", "pam@test.cd", "", user.RoleParent, 5)
	other := testutil.CreateUser(t, app.users, "Olu", "Other", "olu@test.cd", "", user.RoleParent, 5)

	testutil.CreateMessage(t, app.messages, "Field trip", teacher.ID, 5, parent.ID)
	testutil.CreateMessage(t, app.messages, "Report cards", teacher.ID, 5, parent.ID, other.ID)
	testutil.CreateMessage(t, app.messages, "Private", teacher.ID, 5, other.ID)

	list := func(t *testing.T, usr user.User) []message.Message {
		t.Helper()
		rec := app.do(newAuthRequest(http.MethodGet, "/api/messages", app.getToken(t, usr)))
		assert.Equal(t, http.StatusOK, rec.Code)
		var docs []message.Message
		decodeData(t, rec, &docs)
		return docs
	}

	t.Run("sender sees everything they sent", func(t *testing.T) {
		assert.Len(t, list(t, teacher), 3)
	})

	t.Run("recipients see only messages addressed to them", func(t *testing.T) {
		docs := list(t, parent)
		if assert.Len(t, docs, 2) {
			for _, msg := range docs {
				assert.Contains(t, msg.Recipients, parent.ID)
			}
		}
	})
}

func TestMessageApi_create(t *testing.T) {
	app := newTestApp(t)

	teacher := testutil.CreateUser(t, app.users, "Tina", "Teacher", "tina@test.cd", "", user.RoleTeacher, 5)
	parent := testutil.CreateUser(t, app.users, "Pam", "Parent", "pam@test.cd", "", user.RoleParent, 5)

	t.Run("sent message is delivered", func(t *testing.T) {
		body := marshallObj(t, message.NewMessage{
			Subject:         "Report cards",
			Content:         "They are out.",
			Recipients:      []int{parent.ID},
			MessageType:     message.TypeIndividual,
			Status:          message.StatusSent,
			DeliveryMethods: []string{message.DeliveryInApp, message.DeliveryEmail},
		})
		rec := app.do(newAuthRequest(http.MethodPost, "/api/messages", app.getToken(t, teacher), body))

		assert.Equal(t, http.StatusCreated, rec.Code)
		var msg message.Message
		decodeData(t, rec, &msg)
		assert.NotZero(t, msg.ID)
		assert.Equal(t, teacher.ID, msg.Sender)
		assert.Equal(t, 5, msg.School)
		assert.False(t, msg.SentAt.IsZero())

		sent := app.mailSvc.SentMessages()
		if assert.Len(t, sent, 1) {
			assert.Equal(t, "pam@test.cd", sent[0].To[0].Address)
		}
	})

	t.Run("missing fields", func(t *testing.T) {
		rec := app.do(newAuthRequest(http.MethodPost, "/api/messages", app.getToken(t, teacher), []byte(`{}`)))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		flds := errorFields(t, rec)
		assert.Equal(t, "this field is required", flds["subject"])
		assert.Equal(t, "this field is required", flds["recipients"])
	})
}

func TestMessageApi_markRead(t *testing.T) {
	app := newTestApp(t)

	teacher := testutil.CreateUser(t, app.users, "Tina", "Teacher", "tina@test.cd", "", user.RoleTeacher, 5)
	parent := testutil.CreateUser(t, app.users, "Pam", "Parent", "pam@test.cd", "", user.RoleParent, 5)
	other := testutil.CreateUser(t, app.users, "Olu", "Other", "olu@test.cd", "", user.RoleParent, 5)

	msg := testutil.CreateMessage(t, app.messages, "Field trip", teacher.ID, 5, parent.ID)
	path := fmt.Sprintf("/api/messages/%d/read", msg.ID)

	markRead := func(t *testing.T, usr user.User, path string) (*struct {
		Marked bool `json:"marked"`
	}, int) {
		t.Helper()
		rec := app.do(newAuthRequest(http.MethodPost, path, app.getToken(t, usr)))
		if rec.Code != http.StatusOK {
			return nil, rec.Code
		}
		res := new(struct {
			Marked bool `json:"marked"`
		})
		decodeData(t, rec, res)
		return res, rec.Code
	}

	t.Run("recipient marks once", func(t *testing.T) {
		res, code := markRead(t, parent, path)
		assert.Equal(t, http.StatusOK, code)
		assert.True(t, res.Marked)

		refreshed, err := app.messages.FindByID(context.Background(), msg.ID)
		assert.NoError(t, err)
		if assert.Len(t, refreshed.ReadReceipts, 1) {
			assert.Equal(t, parent.ID, refreshed.ReadReceipts[0].User)
		}
	})

	t.Run("marking again is a no-op", func(t *testing.T) {
		res, code := markRead(t, parent, path)
		assert.Equal(t, http.StatusOK, code)
		assert.False(t, res.Marked)
	})

	t.Run("non-recipients may not mark", func(t *testing.T) {
		_, code := markRead(t, other, path)
		assert.Equal(t, http.StatusForbidden, code)
	})

	t.Run("unknown message", func(t *testing.T) {
		_, code := markRead(t, parent, "/api/messages/999/read")
		assert.Equal(t, http.StatusNotFound, code)
	})
}

func TestMessageApi_listTemplates(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()

	teacher := testutil.CreateUser(t, app.users, "Tina", "Teacher", "tina@test.cd", "", user.RoleTeacher, 5)

	_, err := app.templates.Create(ctx, message.Template{Name: "Welcome", Subject: "Welcome!", Content: "Hi"})
	assert.NoError(t, err)
	_, err = app.templates.Create(ctx, message.Template{Name: "Trip consent", Subject: "Consent", Content: "...", School: null.IntFrom(5)})
	assert.NoError(t, err)
	_, err = app.templates.Create(ctx, message.Template{Name: "Other school", Subject: "x", Content: "x", School: null.IntFrom(6)})
	assert.NoError(t, err)

	rec := app.do(newAuthRequest(http.MethodGet, "/api/templates", app.getToken(t, teacher)))
	assert.Equal(t, http.StatusOK, rec.Code)

	// globals plus own-school templates, sorted by name
	var docs []message.Template
	decodeData(t, rec, &docs)
	if assert.Len(t, docs, 2) {
		assert.Equal(t, "Trip consent", docs[0].Name)
		assert.Equal(t, "Welcome", docs[1].Name)
	}
}
