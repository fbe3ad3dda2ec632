package testutil

import (
	"context"
	"io/ioutil"
	"log"
	"testing"

	"github.com/volatiletech/null/v8"

	"github.com/shulehq/shule/core"
	"github.com/shulehq/shule/core/message"
	"github.com/shulehq/shule/core/school"
	"github.com/shulehq/shule/core/student"
	"github.com/shulehq/shule/core/user"
)

// NewLogger returns a silent logger for tests.
func NewLogger() core.Logger {
	return core.NewConsoleLogger(log.New(ioutil.Discard, "", 0))
}

// NewConfig returns a minimal TEST configuration.
func NewConfig() *core.Config {
	return &core.Config{
		Env:       "TEST",
		TestMode:  true,
		AppName:   "Shule",
		SecretKey: "s3cr3t",
	}
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	first, last, email, pwd, role string,
	schoolID int,
) user.User {
	t.Helper()

	usr := user.User{
		FirstName: first,
		LastName:  last,
		Email:     core.CleanString(email, true),
		Role:      role,
	}
	if schoolID != 0 {
		usr.School = null.IntFrom(schoolID)
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser(): %v", err)
		}
	}
	usr, err := repo.Create(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser(): %v", err)
	}
	return usr
}

func CreateSchool(t *testing.T, repo school.Repository, name, slug string) school.School {
	t.Helper()

	sch, err := repo.Create(context.Background(), school.School{Name: name, Slug: slug})
	if err != nil {
		t.Fatalf("CreateSchool(): %v", err)
	}
	return sch
}

func CreateStudent(
	t *testing.T,
	repo student.Repository,
	first, last, grade, status string,
	schoolID int,
	parents ...int,
) student.Student {
	t.Helper()

	st, err := repo.Create(context.Background(), student.Student{
		FirstName:        first,
		LastName:         last,
		Grade:            grade,
		EnrollmentStatus: status,
		School:           schoolID,
		Parents:          parents,
	})
	if err != nil {
		t.Fatalf("CreateStudent(): %v", err)
	}
	return st
}

func CreateMessage(
	t *testing.T,
	repo message.Repository,
	subject string,
	sender, schoolID int,
	recipients ...int,
) message.Message {
	t.Helper()

	msg, err := repo.Create(context.Background(), message.Message{
		Subject:     subject,
		Content:     subject + " body",
		Sender:      sender,
		Recipients:  recipients,
		MessageType: message.TypeIndividual,
		Priority:    message.PriorityNormal,
		School:      schoolID,
		Status:      message.StatusSent,
	})
	if err != nil {
		t.Fatalf("CreateMessage(): %v", err)
	}
	return msg
}
