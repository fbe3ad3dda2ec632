package core

import (
	"context"

	"github.com/pkg/errors"

	"github.com/shulehq/shule/core/query"
)

var (
	// ErrNotFound is returned when a document does not exist in its collection.
	ErrNotFound = errors.New("document not found")
	// ErrConflict is returned by UpdateWhere when the document exists but the
	// guard predicate no longer holds (lost a concurrent race).
	ErrConflict = errors.New("document modified concurrently")
)

const (
	DefaultPageLimit = 50
	DefaultPage      = 1
)

type (
	// Document is a decoded JSON document as stored in a collection.
	Document map[string]interface{}

	FindOptions struct {
		Where query.Expr
		Page  int
		Limit int
		Sort  string // field name, "-" prefix for descending
	}

	FindResult struct {
		Docs       []Document
		TotalDocs  int
		TotalPages int
		Page       int
		Limit      int
	}

	// Store is the persistence contract: generic CRUD over named collections
	// with filter pushdown. Handles are safe for concurrent reuse; individual
	// calls carry no cross-request ordering guarantee.
	Store interface {
		FindByID(ctx context.Context, collection string, id int) (Document, error)
		Find(ctx context.Context, collection string, opts FindOptions) (FindResult, error)
		Count(ctx context.Context, collection string, where query.Expr) (int, error)
		Create(ctx context.Context, collection string, doc Document) (Document, error)
		Update(ctx context.Context, collection string, id int, patch Document) (Document, error)
		// UpdateWhere applies patch only while `where` still matches the
		// document; ErrConflict signals a lost optimistic-concurrency race.
		UpdateWhere(ctx context.Context, collection string, id int, where query.Expr, patch Document) (Document, error)
		Delete(ctx context.Context, collection string, id int) error
	}
)

// ArrayFields names the top-level JSON-array fields per collection so store
// backends can treat membership conditions correctly.
var ArrayFields = map[string]map[string]bool{
	CollectionStudents: {"parents": true},
	CollectionMessages: {"recipients": true, "readReceipts": true, "attachments": true, "deliveryMethods": true},
}

// ID extracts the store-assigned identifier of a document.
func (d Document) ID() int {
	switch id := d["id"].(type) {
	case int:
		return id
	case int64:
		return int(id)
	case float64:
		return int(id)
	}
	return 0
}
