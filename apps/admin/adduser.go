package main

import (
	"context"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/shulehq/shule/core"
	"github.com/shulehq/shule/core/user"
)

// addUser updates or creates a user. The bootstrap admin is created this way
// before any HTTP signup path exists.
func (cli *commandLine) addUser(email, first, last, pwd string, schoolID int, isAdmin bool) error {
	ctx := context.Background()
	email = core.CleanString(email, true /* lower */)

	usr, err := cli.usrRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Cause(err) != user.ErrNotFound {
			return err
		}
		usr = user.User{Email: email}
	}

	if first != "" {
		usr.FirstName = first
	}
	if last != "" {
		usr.LastName = last
	}
	if schoolID != 0 {
		usr.School = null.IntFrom(schoolID)
	}
	if isAdmin {
		usr.Role = user.RoleAdmin
	}
	if err = usr.SetPassword(pwd); err != nil {
		return err
	}

	if usr.ID == 0 {
		_, err = cli.usrRepo.Create(ctx, usr)
		return err
	}
	_, err = cli.usrRepo.Update(ctx, usr.ID, core.Document{
		"firstName":    usr.FirstName,
		"lastName":     usr.LastName,
		"role":         usr.Role,
		"school":       schoolOrNil(usr),
		"passwordHash": usr.PasswordHash,
	})
	return err
}

func schoolOrNil(usr user.User) interface{} {
	if usr.School.Valid {
		return usr.School.Int
	}
	return nil
}
