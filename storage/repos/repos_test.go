package repos

import (
	"context"

	"github.com/pkg/errors"

	"github.com/shulehq/shule/core"
	"github.com/shulehq/shule/core/query"
)

// failingStore errors on every call; used to verify degrade/propagate behavior.
type failingStore struct{}

var errStoreDown = errors.New("store down")

func (failingStore) FindByID(context.Context, string, int) (core.Document, error) {
	return nil, errStoreDown
}
func (failingStore) Find(context.Context, string, core.FindOptions) (core.FindResult, error) {
	return core.FindResult{}, errStoreDown
}
func (failingStore) Count(context.Context, string, query.Expr) (int, error) {
	return 0, errStoreDown
}
func (failingStore) Create(context.Context, string, core.Document) (core.Document, error) {
	return nil, errStoreDown
}
func (failingStore) Update(context.Context, string, int, core.Document) (core.Document, error) {
	return nil, errStoreDown
}
func (failingStore) UpdateWhere(context.Context, string, int, query.Expr, core.Document) (core.Document, error) {
	return nil, errStoreDown
}
func (failingStore) Delete(context.Context, string, int) error {
	return errStoreDown
}

var _ core.Store = failingStore{}
