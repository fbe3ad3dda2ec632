package repos

import (
	"context"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/shulehq/shule/core"
	"github.com/shulehq/shule/core/query"
	"github.com/shulehq/shule/core/student"
)

type StudentRepository struct {
	store core.Store
	log   core.Logger
}

var _ student.Repository = (*StudentRepository)(nil)

func NewStudentRepository(store core.Store, log core.Logger) *StudentRepository {
	return &StudentRepository{store: store, log: log}
}

func (repo *StudentRepository) FindByID(ctx context.Context, id int) (student.Student, error) {
	doc, err := repo.store.FindByID(ctx, core.CollectionStudents, id)
	if err != nil {
		if errors.Cause(err) == core.ErrNotFound {
			return student.Student{}, student.ErrNotFound
		}
		return student.Student{}, err
	}
	var st student.Student
	return st, fromDoc(doc, &st)
}

func (repo *StudentRepository) FindMany(ctx context.Context, opts core.FindOptions) (student.Page, error) {
	res, err := repo.store.Find(ctx, core.CollectionStudents, opts)
	if err != nil {
		return student.Page{}, err
	}
	docs, err := decodeStudents(res.Docs)
	if err != nil {
		return student.Page{}, err
	}
	return student.Page{Docs: docs, TotalDocs: res.TotalDocs, TotalPages: res.TotalPages}, nil
}

func (repo *StudentRepository) Count(ctx context.Context, where query.Expr) int {
	n, err := repo.store.Count(ctx, core.CollectionStudents, where)
	if err != nil {
		repo.log.Error("repo: counting students", err)
		return 0
	}
	return n
}

func (repo *StudentRepository) FindByParentID(ctx context.Context, parentID int) ([]student.Student, error) {
	res, err := repo.store.Find(ctx, core.CollectionStudents, core.FindOptions{
		Where: query.In("parents", parentID),
		Limit: listCap,
		Sort:  "lastName",
	})
	if err != nil {
		return nil, err
	}
	return decodeStudents(res.Docs)
}

func (repo *StudentRepository) FindByAccount(ctx context.Context, userID int) (student.Student, error) {
	res, err := repo.store.Find(ctx, core.CollectionStudents, core.FindOptions{
		Where: query.Eq("account", userID),
		Limit: 1,
	})
	if err != nil {
		return student.Student{}, err
	}
	if len(res.Docs) == 0 {
		return student.Student{}, student.ErrNotFound
	}
	var st student.Student
	return st, fromDoc(res.Docs[0], &st)
}

func (repo *StudentRepository) FindBySchool(ctx context.Context, schoolID int, opts student.ListOptions) (student.Page, error) {
	where := query.Eq("school", schoolID)
	if opts.Grade != "" {
		where = query.And(where, query.Eq("grade", opts.Grade))
	}
	if opts.Status != "" {
		where = query.And(where, query.Eq("enrollmentStatus", opts.Status))
	}
	return repo.FindMany(ctx, core.FindOptions{
		Where: where,
		Page:  opts.Page,
		Limit: opts.Limit,
		Sort:  "lastName",
	})
}

func (repo *StudentRepository) FindByGrade(ctx context.Context, schoolID int, grade string) ([]student.Student, error) {
	res, err := repo.store.Find(ctx, core.CollectionStudents, core.FindOptions{
		Where: query.And(query.Eq("school", schoolID), query.Eq("grade", grade)),
		Limit: listCap,
		Sort:  "lastName",
	})
	if err != nil {
		return nil, err
	}
	return decodeStudents(res.Docs)
}

func (repo *StudentRepository) Search(ctx context.Context, schoolID int, term string, limit int) ([]student.Student, error) {
	res, err := repo.store.Find(ctx, core.CollectionStudents, core.FindOptions{
		Where: query.And(
			query.Eq("school", schoolID),
			query.Or(
				query.Contains("firstName", term),
				query.Contains("lastName", term),
				query.Contains("studentId", term),
			),
		),
		Limit: limit,
		Sort:  "lastName",
	})
	if err != nil {
		return nil, err
	}
	return decodeStudents(res.Docs)
}

// Stats counts the roster by enrollment status and scans a bounded sample for
// the grade histogram; past the cap the distribution is an approximation.
func (repo *StudentRepository) Stats(ctx context.Context, schoolID int) (student.Stats, error) {
	scope := func(exprs ...query.Expr) query.Expr {
		return query.And(append([]query.Expr{query.Eq("school", schoolID)}, exprs...)...)
	}

	var stats student.Stats
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		stats.Total, err = repo.store.Count(gctx, core.CollectionStudents, scope())
		return err
	})
	g.Go(func() (err error) {
		stats.Enrolled, err = repo.store.Count(gctx, core.CollectionStudents, scope(query.Eq("enrollmentStatus", student.StatusEnrolled)))
		return err
	})
	g.Go(func() (err error) {
		stats.Pending, err = repo.store.Count(gctx, core.CollectionStudents, scope(query.Eq("enrollmentStatus", student.StatusPending)))
		return err
	})
	g.Go(func() (err error) {
		stats.Waitlisted, err = repo.store.Count(gctx, core.CollectionStudents, scope(query.Eq("enrollmentStatus", student.StatusWaitlisted)))
		return err
	})
	g.Go(func() error {
		res, err := repo.store.Find(gctx, core.CollectionStudents, core.FindOptions{
			Where: scope(),
			Limit: student.HistogramScanCap,
		})
		if err != nil {
			return err
		}
		byGrade := make(map[string]int)
		for _, doc := range res.Docs {
			grade, _ := doc["grade"].(string)
			if grade == "" {
				grade = "Unknown"
			}
			byGrade[grade]++
		}
		stats.ByGrade = byGrade
		return nil
	})
	if err := g.Wait(); err != nil {
		return student.Stats{}, core.NewOperationError("getStudentStats", err)
	}
	return stats, nil
}

func (repo *StudentRepository) Create(ctx context.Context, st student.Student) (student.Student, error) {
	doc, err := toDoc(st)
	if err != nil {
		return student.Student{}, err
	}
	created, err := repo.store.Create(ctx, core.CollectionStudents, doc)
	if err != nil {
		return student.Student{}, err
	}
	var out student.Student
	return out, fromDoc(created, &out)
}

func (repo *StudentRepository) Update(ctx context.Context, id int, patch core.Document) (student.Student, error) {
	doc, err := repo.store.Update(ctx, core.CollectionStudents, id, patch)
	if err != nil {
		if errors.Cause(err) == core.ErrNotFound {
			return student.Student{}, student.ErrNotFound
		}
		return student.Student{}, err
	}
	var st student.Student
	return st, fromDoc(doc, &st)
}

func (repo *StudentRepository) Delete(ctx context.Context, id int) bool {
	if err := repo.store.Delete(ctx, core.CollectionStudents, id); err != nil {
		if errors.Cause(err) != core.ErrNotFound {
			repo.log.Error("repo: deleting student", err)
		}
		return false
	}
	return true
}

func decodeStudents(docs []core.Document) ([]student.Student, error) {
	students := make([]student.Student, 0, len(docs))
	for _, doc := range docs {
		var st student.Student
		if err := fromDoc(doc, &st); err != nil {
			return nil, err
		}
		students = append(students, st)
	}
	return students, nil
}
