package repos

import (
	"context"

	"github.com/pkg/errors"

	"github.com/shulehq/shule/core"
	"github.com/shulehq/shule/core/query"
	"github.com/shulehq/shule/core/user"
)

type UserRepository struct {
	store core.Store
	log   core.Logger
}

var _ user.Repository = (*UserRepository)(nil)

func NewUserRepository(store core.Store, log core.Logger) *UserRepository {
	return &UserRepository{store: store, log: log}
}

func (repo *UserRepository) FindByID(ctx context.Context, id int) (user.User, error) {
	doc, err := repo.store.FindByID(ctx, core.CollectionUsers, id)
	if err != nil {
		if errors.Cause(err) == core.ErrNotFound {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}
	var usr user.User
	return usr, fromDoc(doc, &usr)
}

func (repo *UserRepository) FindByEmail(ctx context.Context, email string) (user.User, error) {
	res, err := repo.store.Find(ctx, core.CollectionUsers, core.FindOptions{
		Where: query.Eq("email", email),
		Limit: 1,
	})
	if err != nil {
		return user.User{}, err
	}
	if len(res.Docs) == 0 {
		return user.User{}, user.ErrNotFound
	}
	var usr user.User
	return usr, fromDoc(res.Docs[0], &usr)
}

func (repo *UserRepository) FindByRole(ctx context.Context, role string, schoolID int) ([]user.User, error) {
	where := query.Eq("role", role)
	if schoolID != 0 {
		where = query.And(where, query.Eq("school", schoolID))
	}
	res, err := repo.store.Find(ctx, core.CollectionUsers, core.FindOptions{
		Where: where,
		Limit: listCap,
		Sort:  "lastName",
	})
	if err != nil {
		return nil, err
	}
	return decodeUsers(res.Docs)
}

func (repo *UserRepository) FindBySchool(ctx context.Context, schoolID int) ([]user.User, error) {
	res, err := repo.store.Find(ctx, core.CollectionUsers, core.FindOptions{
		Where: query.Eq("school", schoolID),
		Limit: listCap,
		Sort:  "lastName",
	})
	if err != nil {
		return nil, err
	}
	return decodeUsers(res.Docs)
}

func (repo *UserRepository) FindMany(ctx context.Context, opts core.FindOptions) (user.Page, error) {
	res, err := repo.store.Find(ctx, core.CollectionUsers, opts)
	if err != nil {
		return user.Page{}, err
	}
	docs, err := decodeUsers(res.Docs)
	if err != nil {
		return user.Page{}, err
	}
	return user.Page{Docs: docs, TotalDocs: res.TotalDocs, TotalPages: res.TotalPages}, nil
}

func (repo *UserRepository) Count(ctx context.Context, where query.Expr) int {
	n, err := repo.store.Count(ctx, core.CollectionUsers, where)
	if err != nil {
		repo.log.Error("repo: counting users", err)
		return 0
	}
	return n
}

func (repo *UserRepository) HasAny(ctx context.Context) (bool, error) {
	n, err := repo.store.Count(ctx, core.CollectionUsers, query.Expr{})
	if err != nil {
		return false, errors.Wrap(err, "counting users")
	}
	return n > 0, nil
}

func (repo *UserRepository) Stats(ctx context.Context, schoolID int) (user.Stats, error) {
	scope := func(role string) query.Expr {
		where := query.Expr{}
		if role != "" {
			where = query.Eq("role", role)
		}
		if schoolID != 0 {
			where = query.And(where, query.Eq("school", schoolID))
		}
		return where
	}

	var stats user.Stats
	counts := []struct {
		dst  *int
		role string
	}{
		{&stats.Total, ""},
		{&stats.Admins, user.RoleAdmin},
		{&stats.Teachers, user.RoleTeacher},
		{&stats.Parents, user.RoleParent},
		{&stats.Students, user.RoleStudent},
	}
	for _, c := range counts {
		n, err := repo.store.Count(ctx, core.CollectionUsers, scope(c.role))
		if err != nil {
			return user.Stats{}, core.NewOperationError("getUserStats", err)
		}
		*c.dst = n
	}
	return stats, nil
}

func (repo *UserRepository) Create(ctx context.Context, usr user.User) (user.User, error) {
	user.ApplyCreateHooks(&usr)

	doc, err := toDoc(usr)
	if err != nil {
		return user.User{}, err
	}
	created, err := repo.store.Create(ctx, core.CollectionUsers, doc)
	if err != nil {
		return user.User{}, err
	}
	var out user.User
	return out, fromDoc(created, &out)
}

func (repo *UserRepository) Update(ctx context.Context, id int, patch core.Document) (user.User, error) {
	doc, err := repo.store.Update(ctx, core.CollectionUsers, id, patch)
	if err != nil {
		if errors.Cause(err) == core.ErrNotFound {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}
	var usr user.User
	return usr, fromDoc(doc, &usr)
}

func (repo *UserRepository) Delete(ctx context.Context, id int) bool {
	if err := repo.store.Delete(ctx, core.CollectionUsers, id); err != nil {
		if errors.Cause(err) != core.ErrNotFound {
			repo.log.Error("repo: deleting user", err)
		}
		return false
	}
	return true
}

func decodeUsers(docs []core.Document) ([]user.User, error) {
	users := make([]user.User, 0, len(docs))
	for _, doc := range docs {
		var usr user.User
		if err := fromDoc(doc, &usr); err != nil {
			return nil, err
		}
		users = append(users, usr)
	}
	return users, nil
}
