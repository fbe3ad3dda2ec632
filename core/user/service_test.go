package user_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/shulehq/shule/core"
	"github.com/shulehq/shule/core/user"
	inmemdb "github.com/shulehq/shule/storage/document/inmem"
	"github.com/shulehq/shule/storage/repos"
	testutil "github.com/shulehq/shule/tests"
)

func newService() (*user.Service, user.Repository) {
	repo := repos.NewUserRepository(inmemdb.Open(), testutil.NewLogger())
	return user.NewService(repo), repo
}

func TestService_Authenticate(t *testing.T) {
	svc, repo := newService()
	ctx := context.Background()

	testutil.CreateUser(t, repo, "Amina", "Okoro", "amina@test.cd", "passw0rd!", user.RoleTeacher, 5)

	t.Run("valid credentials", func(t *testing.T) {
		usr, err := svc.Authenticate(ctx, "amina@test.cd", "passw0rd!")
		assert.NoError(t, err)
		assert.Equal(t, "amina@test.cd", usr.Email)
	})
	t.Run("email is normalized", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, "  AMINA@test.cd ", "passw0rd!")
		assert.NoError(t, err)
	})

	// a wrong password and an unknown account must be indistinguishable
	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, "amina@test.cd", "nope")
		assert.Equal(t, user.ErrInvalidCredentials, errors.Cause(err))
	})
	t.Run("unknown account", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, "ghost@test.cd", "passw0rd!")
		assert.Equal(t, user.ErrInvalidCredentials, errors.Cause(err))
	})
}

func TestService_CheckEmailUniqueness(t *testing.T) {
	svc, repo := newService()

	testutil.CreateUser(t, repo, "Amina", "Okoro", "amina@test.cd", "", user.RoleTeacher, 5)

	assert.NoError(t, svc.CheckEmailUniqueness("fresh@test.cd"))

	err := svc.CheckEmailUniqueness("amina@test.cd")
	var vErr *core.ValidationError
	if assert.True(t, errors.As(err, &vErr)) {
		assert.Equal(t, user.ErrEmailExists, vErr.Err)
		if assert.Len(t, vErr.Fields, 1) {
			assert.Equal(t, "email", vErr.Fields[0].Field)
		}
	}
}

func TestService_Create(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	school := 5
	usr, err := svc.Create(ctx, user.NewUser{
		FirstName:       "Amina",
		LastName:        "Okoro",
		Email:           "amina@test.cd",
		Password:        "passw0rd!",
		PasswordConfirm: "passw0rd!",
		Role:            user.RoleTeacher,
		School:          &school,
	})
	assert.NoError(t, err)
	assert.NotZero(t, usr.ID)
	assert.Equal(t, 5, usr.School.Int)
	assert.NoError(t, usr.CheckPassword("passw0rd!"))
}

func TestService_Update(t *testing.T) {
	svc, repo := newService()
	ctx := context.Background()

	usr := testutil.CreateUser(t, repo, "Amina", "Okoro", "amina@test.cd", "old-pwd!", user.RoleTeacher, 5)

	updated, err := svc.Update(ctx, usr.ID, user.UpdateUser{
		FirstName:       "Aminata",
		Password:        "new-pwd!!",
		PasswordConfirm: "new-pwd!!",
	})
	assert.NoError(t, err)
	assert.Equal(t, "Aminata", updated.FirstName)
	assert.Equal(t, "Okoro", updated.LastName)
	assert.NoError(t, updated.CheckPassword("new-pwd!!"))
	assert.Error(t, updated.CheckPassword("old-pwd!"))
}
