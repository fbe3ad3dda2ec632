package repos

import (
	"context"

	"github.com/pkg/errors"

	"github.com/shulehq/shule/core"
	"github.com/shulehq/shule/core/admission"
	"github.com/shulehq/shule/core/query"
)

type InquiryRepository struct {
	store core.Store
	log   core.Logger
}

var _ admission.InquiryRepository = (*InquiryRepository)(nil)

func NewInquiryRepository(store core.Store, log core.Logger) *InquiryRepository {
	return &InquiryRepository{store: store, log: log}
}

func (repo *InquiryRepository) FindByID(ctx context.Context, id int) (admission.Inquiry, error) {
	doc, err := repo.store.FindByID(ctx, core.CollectionInquiries, id)
	if err != nil {
		if errors.Cause(err) == core.ErrNotFound {
			return admission.Inquiry{}, admission.ErrInquiryNotFound
		}
		return admission.Inquiry{}, err
	}
	var inq admission.Inquiry
	return inq, fromDoc(doc, &inq)
}

func (repo *InquiryRepository) FindMany(ctx context.Context, opts core.FindOptions) (admission.InquiryPage, error) {
	res, err := repo.store.Find(ctx, core.CollectionInquiries, opts)
	if err != nil {
		return admission.InquiryPage{}, err
	}
	inquiries := make([]admission.Inquiry, 0, len(res.Docs))
	for _, doc := range res.Docs {
		var inq admission.Inquiry
		if err = fromDoc(doc, &inq); err != nil {
			return admission.InquiryPage{}, err
		}
		inquiries = append(inquiries, inq)
	}
	return admission.InquiryPage{Docs: inquiries, TotalDocs: res.TotalDocs, TotalPages: res.TotalPages}, nil
}

func (repo *InquiryRepository) Count(ctx context.Context, where query.Expr) int {
	n, err := repo.store.Count(ctx, core.CollectionInquiries, where)
	if err != nil {
		repo.log.Error("repo: counting inquiries", err)
		return 0
	}
	return n
}

func (repo *InquiryRepository) Create(ctx context.Context, inq admission.Inquiry) (admission.Inquiry, error) {
	doc, err := toDoc(inq)
	if err != nil {
		return admission.Inquiry{}, err
	}
	created, err := repo.store.Create(ctx, core.CollectionInquiries, doc)
	if err != nil {
		return admission.Inquiry{}, err
	}
	var out admission.Inquiry
	return out, fromDoc(created, &out)
}

func (repo *InquiryRepository) Update(ctx context.Context, id int, patch core.Document) (admission.Inquiry, error) {
	doc, err := repo.store.Update(ctx, core.CollectionInquiries, id, patch)
	if err != nil {
		if errors.Cause(err) == core.ErrNotFound {
			return admission.Inquiry{}, admission.ErrInquiryNotFound
		}
		return admission.Inquiry{}, err
	}
	var inq admission.Inquiry
	return inq, fromDoc(doc, &inq)
}

func (repo *InquiryRepository) Delete(ctx context.Context, id int) bool {
	if err := repo.store.Delete(ctx, core.CollectionInquiries, id); err != nil {
		if errors.Cause(err) != core.ErrNotFound {
			repo.log.Error("repo: deleting inquiry", err)
		}
		return false
	}
	return true
}

type ApplicationRepository struct {
	store core.Store
	log   core.Logger
}

var _ admission.ApplicationRepository = (*ApplicationRepository)(nil)

func NewApplicationRepository(store core.Store, log core.Logger) *ApplicationRepository {
	return &ApplicationRepository{store: store, log: log}
}

func (repo *ApplicationRepository) FindByID(ctx context.Context, id int) (admission.Application, error) {
	doc, err := repo.store.FindByID(ctx, core.CollectionApplications, id)
	if err != nil {
		if errors.Cause(err) == core.ErrNotFound {
			return admission.Application{}, admission.ErrApplicationNotFound
		}
		return admission.Application{}, err
	}
	var app admission.Application
	return app, fromDoc(doc, &app)
}

func (repo *ApplicationRepository) FindMany(ctx context.Context, opts core.FindOptions) (admission.ApplicationPage, error) {
	res, err := repo.store.Find(ctx, core.CollectionApplications, opts)
	if err != nil {
		return admission.ApplicationPage{}, err
	}
	apps := make([]admission.Application, 0, len(res.Docs))
	for _, doc := range res.Docs {
		var app admission.Application
		if err = fromDoc(doc, &app); err != nil {
			return admission.ApplicationPage{}, err
		}
		apps = append(apps, app)
	}
	return admission.ApplicationPage{Docs: apps, TotalDocs: res.TotalDocs, TotalPages: res.TotalPages}, nil
}

func (repo *ApplicationRepository) Count(ctx context.Context, where query.Expr) int {
	n, err := repo.store.Count(ctx, core.CollectionApplications, where)
	if err != nil {
		repo.log.Error("repo: counting applications", err)
		return 0
	}
	return n
}

func (repo *ApplicationRepository) Create(ctx context.Context, app admission.Application) (admission.Application, error) {
	doc, err := toDoc(app)
	if err != nil {
		return admission.Application{}, err
	}
	created, err := repo.store.Create(ctx, core.CollectionApplications, doc)
	if err != nil {
		return admission.Application{}, err
	}
	var out admission.Application
	return out, fromDoc(created, &out)
}

func (repo *ApplicationRepository) Update(ctx context.Context, id int, patch core.Document) (admission.Application, error) {
	doc, err := repo.store.Update(ctx, core.CollectionApplications, id, patch)
	if err != nil {
		if errors.Cause(err) == core.ErrNotFound {
			return admission.Application{}, admission.ErrApplicationNotFound
		}
		return admission.Application{}, err
	}
	var app admission.Application
	return app, fromDoc(doc, &app)
}

func (repo *ApplicationRepository) Delete(ctx context.Context, id int) bool {
	if err := repo.store.Delete(ctx, core.CollectionApplications, id); err != nil {
		if errors.Cause(err) != core.ErrNotFound {
			repo.log.Error("repo: deleting application", err)
		}
		return false
	}
	return true
}
