package admission

import (
	"strings"

	"github.com/google/uuid"

	"github.com/shulehq/shule/core/user"
)

// InquiryCreateHooks run in order before an inquiry is persisted. The actor
// is nil for anonymous lead intake.
var InquiryCreateHooks = []func(actor *user.User, inq *Inquiry){
	inquiryDefaults,
}

// ApplicationCreateHooks run in order before an application is persisted.
var ApplicationCreateHooks = []func(actor *user.User, app *Application){
	fillApplicationSchool,
	applicationDefaults,
}

func ApplyInquiryCreateHooks(actor *user.User, inq *Inquiry) {
	for _, hook := range InquiryCreateHooks {
		hook(actor, inq)
	}
}

func ApplyApplicationCreateHooks(actor *user.User, app *Application) {
	for _, hook := range ApplicationCreateHooks {
		hook(actor, app)
	}
}

func inquiryDefaults(_ *user.User, inq *Inquiry) {
	if inq.Status == "" {
		inq.Status = InquiryNew
	}
	if inq.Reference == "" {
		inq.Reference = "INQ-" + shortCode()
	}
}

func fillApplicationSchool(actor *user.User, app *Application) {
	if app.School == 0 && actor != nil && actor.School.Valid {
		app.School = actor.School.Int
	}
}

func applicationDefaults(_ *user.User, app *Application) {
	if app.Status == "" {
		app.Status = ApplicationDraft
	}
	if app.ApplicationNumber == "" {
		app.ApplicationNumber = "APP-" + shortCode()
	}
}

func shortCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:8])
}
