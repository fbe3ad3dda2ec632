package repos

import (
	"context"

	"github.com/pkg/errors"

	"github.com/shulehq/shule/core"
	"github.com/shulehq/shule/core/query"
	"github.com/shulehq/shule/core/school"
)

type SchoolRepository struct {
	store core.Store
	log   core.Logger
}

var _ school.Repository = (*SchoolRepository)(nil)

func NewSchoolRepository(store core.Store, log core.Logger) *SchoolRepository {
	return &SchoolRepository{store: store, log: log}
}

func (repo *SchoolRepository) FindByID(ctx context.Context, id int) (school.School, error) {
	doc, err := repo.store.FindByID(ctx, core.CollectionSchools, id)
	if err != nil {
		if errors.Cause(err) == core.ErrNotFound {
			return school.School{}, school.ErrNotFound
		}
		return school.School{}, err
	}
	var sch school.School
	return sch, fromDoc(doc, &sch)
}

func (repo *SchoolRepository) FindBySlug(ctx context.Context, slug string) (school.School, error) {
	res, err := repo.store.Find(ctx, core.CollectionSchools, core.FindOptions{
		Where: query.Eq("slug", slug),
		Limit: 1,
	})
	if err != nil {
		return school.School{}, err
	}
	if len(res.Docs) == 0 {
		return school.School{}, school.ErrNotFound
	}
	var sch school.School
	return sch, fromDoc(res.Docs[0], &sch)
}

func (repo *SchoolRepository) FindMany(ctx context.Context, opts core.FindOptions) (school.Page, error) {
	res, err := repo.store.Find(ctx, core.CollectionSchools, opts)
	if err != nil {
		return school.Page{}, err
	}
	schools := make([]school.School, 0, len(res.Docs))
	for _, doc := range res.Docs {
		var sch school.School
		if err = fromDoc(doc, &sch); err != nil {
			return school.Page{}, err
		}
		schools = append(schools, sch)
	}
	return school.Page{Docs: schools, TotalDocs: res.TotalDocs, TotalPages: res.TotalPages}, nil
}

func (repo *SchoolRepository) Count(ctx context.Context, where query.Expr) int {
	n, err := repo.store.Count(ctx, core.CollectionSchools, where)
	if err != nil {
		repo.log.Error("repo: counting schools", err)
		return 0
	}
	return n
}

func (repo *SchoolRepository) Create(ctx context.Context, sch school.School) (school.School, error) {
	if _, err := repo.FindBySlug(ctx, sch.Slug); err == nil {
		return school.School{}, school.ErrSlugExists
	} else if errors.Cause(err) != school.ErrNotFound {
		return school.School{}, err
	}

	doc, err := toDoc(sch)
	if err != nil {
		return school.School{}, err
	}
	created, err := repo.store.Create(ctx, core.CollectionSchools, doc)
	if err != nil {
		return school.School{}, err
	}
	var out school.School
	return out, fromDoc(created, &out)
}

func (repo *SchoolRepository) Update(ctx context.Context, id int, patch core.Document) (school.School, error) {
	doc, err := repo.store.Update(ctx, core.CollectionSchools, id, patch)
	if err != nil {
		if errors.Cause(err) == core.ErrNotFound {
			return school.School{}, school.ErrNotFound
		}
		return school.School{}, err
	}
	var sch school.School
	return sch, fromDoc(doc, &sch)
}

func (repo *SchoolRepository) Delete(ctx context.Context, id int) bool {
	if err := repo.store.Delete(ctx, core.CollectionSchools, id); err != nil {
		if errors.Cause(err) != core.ErrNotFound {
			repo.log.Error("repo: deleting school", err)
		}
		return false
	}
	return true
}
