package repos

import (
	"context"

	"github.com/pkg/errors"

	"github.com/shulehq/shule/core"
	"github.com/shulehq/shule/core/message"
)

type TemplateRepository struct {
	store core.Store
	log   core.Logger
}

var _ message.TemplateRepository = (*TemplateRepository)(nil)

func NewTemplateRepository(store core.Store, log core.Logger) *TemplateRepository {
	return &TemplateRepository{store: store, log: log}
}

func (repo *TemplateRepository) FindByID(ctx context.Context, id int) (message.Template, error) {
	doc, err := repo.store.FindByID(ctx, core.CollectionTemplates, id)
	if err != nil {
		if errors.Cause(err) == core.ErrNotFound {
			return message.Template{}, message.ErrNotFound
		}
		return message.Template{}, err
	}
	var tpl message.Template
	return tpl, fromDoc(doc, &tpl)
}

func (repo *TemplateRepository) FindMany(ctx context.Context, opts core.FindOptions) (message.TemplatePage, error) {
	res, err := repo.store.Find(ctx, core.CollectionTemplates, opts)
	if err != nil {
		return message.TemplatePage{}, err
	}
	tpls := make([]message.Template, 0, len(res.Docs))
	for _, doc := range res.Docs {
		var tpl message.Template
		if err = fromDoc(doc, &tpl); err != nil {
			return message.TemplatePage{}, err
		}
		tpls = append(tpls, tpl)
	}
	return message.TemplatePage{Docs: tpls, TotalDocs: res.TotalDocs, TotalPages: res.TotalPages}, nil
}

func (repo *TemplateRepository) Create(ctx context.Context, tpl message.Template) (message.Template, error) {
	doc, err := toDoc(tpl)
	if err != nil {
		return message.Template{}, err
	}
	created, err := repo.store.Create(ctx, core.CollectionTemplates, doc)
	if err != nil {
		return message.Template{}, err
	}
	var out message.Template
	return out, fromDoc(created, &out)
}

func (repo *TemplateRepository) Delete(ctx context.Context, id int) bool {
	if err := repo.store.Delete(ctx, core.CollectionTemplates, id); err != nil {
		if errors.Cause(err) != core.ErrNotFound {
			repo.log.Error("repo: deleting message template", err)
		}
		return false
	}
	return true
}
