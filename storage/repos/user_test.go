package repos

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shulehq/shule/core"
	"github.com/shulehq/shule/core/query"
	"github.com/shulehq/shule/core/user"
	inmemdb "github.com/shulehq/shule/storage/document/inmem"
	testutil "github.com/shulehq/shule/tests"
)

func TestUserRepository_FindByEmail(t *testing.T) {
	repo := NewUserRepository(inmemdb.Open(), testutil.NewLogger())
	ctx := context.Background()

	created := testutil.CreateUser(t, repo, "Amina", "Okoro", "amina@test.cd", "", user.RoleTeacher, 5)

	usr, err := repo.FindByEmail(ctx, "amina@test.cd")
	assert.NoError(t, err)
	assert.Equal(t, created.ID, usr.ID)
	assert.Equal(t, user.RoleTeacher, usr.Role)
	assert.Equal(t, 5, usr.School.Int)

	_, err = repo.FindByEmail(ctx, "nobody@test.cd")
	assert.Equal(t, user.ErrNotFound, err)
}

func TestUserRepository_HasAny(t *testing.T) {
	repo := NewUserRepository(inmemdb.Open(), testutil.NewLogger())
	ctx := context.Background()

	ok, err := repo.HasAny(ctx)
	assert.NoError(t, err)
	assert.False(t, ok)

	testutil.CreateUser(t, repo, "Amina", "Okoro", "amina@test.cd", "", user.RoleTeacher, 5)

	ok, err = repo.HasAny(ctx)
	assert.NoError(t, err)
	assert.True(t, ok)
}

// HasAny backs the bootstrap access exception: store failures must propagate,
// never read as "no users yet".
func TestUserRepository_HasAny_storeFailurePropagates(t *testing.T) {
	repo := NewUserRepository(failingStore{}, testutil.NewLogger())

	ok, err := repo.HasAny(context.Background())
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestUserRepository_Count_degradesToZero(t *testing.T) {
	repo := NewUserRepository(failingStore{}, testutil.NewLogger())
	assert.Equal(t, 0, repo.Count(context.Background(), query.Expr{}))
}

func TestUserRepository_Create_appliesHooks(t *testing.T) {
	repo := NewUserRepository(inmemdb.Open(), testutil.NewLogger())

	usr := testutil.CreateUser(t, repo, "Brian", "Otieno", "brian@test.cd", "", "" /* role */, 0)
	assert.Equal(t, user.RoleStudent, usr.Role) // default role
	assert.False(t, usr.School.Valid)
	assert.False(t, usr.CreatedAt.IsZero())
}

func TestUserRepository_Stats(t *testing.T) {
	repo := NewUserRepository(inmemdb.Open(), testutil.NewLogger())
	ctx := context.Background()

	testutil.CreateUser(t, repo, "Ava", "Admin", "ava@test.cd", "", user.RoleAdmin, 0)
	testutil.CreateUser(t, repo, "Tina", "Teacher", "tina@test.cd", "", user.RoleTeacher, 5)
	testutil.CreateUser(t, repo, "Tom", "Teacher", "tom@test.cd", "", user.RoleTeacher, 6)
	testutil.CreateUser(t, repo, "Pam", "Parent", "pam@test.cd", "", user.RoleParent, 5)
	testutil.CreateUser(t, repo, "Sam", "Student", "sam@test.cd", "", user.RoleStudent, 5)

	t.Run("platform-wide", func(t *testing.T) {
		stats, err := repo.Stats(ctx, 0)
		assert.NoError(t, err)
		assert.Equal(t, user.Stats{Total: 5, Admins: 1, Teachers: 2, Parents: 1, Students: 1}, stats)
	})
	t.Run("scoped to one school", func(t *testing.T) {
		stats, err := repo.Stats(ctx, 5)
		assert.NoError(t, err)
		assert.Equal(t, user.Stats{Total: 3, Teachers: 1, Parents: 1, Students: 1}, stats)
	})
}

func TestUserRepository_FindByRole(t *testing.T) {
	repo := NewUserRepository(inmemdb.Open(), testutil.NewLogger())
	ctx := context.Background()

	testutil.CreateUser(t, repo, "Tina", "Zulu", "tina@test.cd", "", user.RoleTeacher, 5)
	testutil.CreateUser(t, repo, "Tom", "Abara", "tom@test.cd", "", user.RoleTeacher, 5)
	testutil.CreateUser(t, repo, "Ted", "Mo", "ted@test.cd", "", user.RoleTeacher, 6)
	testutil.CreateUser(t, repo, "Pam", "Parent", "pam@test.cd", "", user.RoleParent, 5)

	teachers, err := repo.FindByRole(ctx, user.RoleTeacher, 5)
	assert.NoError(t, err)
	if assert.Len(t, teachers, 2) {
		// sorted by last name
		assert.Equal(t, "Abara", teachers[0].LastName)
		assert.Equal(t, "Zulu", teachers[1].LastName)
	}

	all, err := repo.FindByRole(ctx, user.RoleTeacher, 0)
	assert.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestUserRepository_Update(t *testing.T) {
	repo := NewUserRepository(inmemdb.Open(), testutil.NewLogger())
	ctx := context.Background()

	usr := testutil.CreateUser(t, repo, "Amina", "Okoro", "amina@test.cd", "", user.RoleTeacher, 5)

	updated, err := repo.Update(ctx, usr.ID, core.Document{"firstName": "Aminata"})
	assert.NoError(t, err)
	assert.Equal(t, "Aminata", updated.FirstName)
	assert.Equal(t, "Okoro", updated.LastName)

	_, err = repo.Update(ctx, 99, core.Document{"firstName": "X"})
	assert.Equal(t, user.ErrNotFound, err)
}

func TestUserRepository_Delete(t *testing.T) {
	repo := NewUserRepository(inmemdb.Open(), testutil.NewLogger())
	ctx := context.Background()

	usr := testutil.CreateUser(t, repo, "Amina", "Okoro", "amina@test.cd", "", user.RoleTeacher, 5)

	assert.True(t, repo.Delete(ctx, usr.ID))
	assert.False(t, repo.Delete(ctx, usr.ID))
	_, err := repo.FindByID(ctx, usr.ID)
	assert.Equal(t, user.ErrNotFound, err)
}
