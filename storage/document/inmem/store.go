// Package inmemdb is the in-memory document store backend, used by tests and
// local development. It evaluates the same filter trees the Postgres backend
// compiles to SQL.
package inmemdb

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"

	"github.com/shulehq/shule/core"
	"github.com/shulehq/shule/core/query"
)

type (
	Store struct {
		mu     sync.RWMutex
		tables map[string]*table
	}

	table struct {
		docs map[int]core.Document
		pk   int
	}
)

var _ core.Store = (*Store)(nil)

func Open() *Store {
	return &Store{tables: make(map[string]*table)}
}

// table returns the collection's table, creating it on first use. Callers
// must hold the write lock: read paths use lookup instead so a never-written
// collection does not mutate the table map under a read lock.
func (s *Store) table(collection string) *table {
	t, ok := s.tables[collection]
	if !ok {
		t = &table{docs: make(map[int]core.Document)}
		s.tables[collection] = t
	}
	return t
}

// lookup returns the collection's table, or nil when nothing was ever
// written to it.
func (s *Store) lookup(collection string) *table {
	return s.tables[collection]
}

func (s *Store) FindByID(_ context.Context, collection string, id int) (core.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if t := s.lookup(collection); t != nil {
		if doc, ok := t.docs[id]; ok {
			return copyDoc(doc), nil
		}
	}
	return nil, core.ErrNotFound
}

func (s *Store) Find(_ context.Context, collection string, opts core.FindOptions) (core.FindResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	limit := opts.Limit
	if limit <= 0 {
		limit = core.DefaultPageLimit
	}
	page := opts.Page
	if page <= 0 {
		page = core.DefaultPage
	}

	matched := make([]core.Document, 0)
	if t := s.lookup(collection); t != nil {
		for _, doc := range t.docs {
			if query.Match(doc, opts.Where) {
				matched = append(matched, doc)
			}
		}
	}
	sortDocs(matched, opts.Sort)

	total := len(matched)
	totalPages := (total + limit - 1) / limit

	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	docs := make([]core.Document, 0, end-start)
	for _, doc := range matched[start:end] {
		docs = append(docs, copyDoc(doc))
	}
	return core.FindResult{
		Docs:       docs,
		TotalDocs:  total,
		TotalPages: totalPages,
		Page:       page,
		Limit:      limit,
	}, nil
}

func (s *Store) Count(_ context.Context, collection string, where query.Expr) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	if t := s.lookup(collection); t != nil {
		for _, doc := range t.docs {
			if query.Match(doc, where) {
				n++
			}
		}
	}
	return n, nil
}

func (s *Store) Create(_ context.Context, collection string, doc core.Document) (core.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.table(collection)
	t.pk++

	stored := copyDoc(doc)
	stored["id"] = float64(t.pk)
	now := core.FormatTime(core.Now().Time)
	stored["createdAt"] = now
	stored["updatedAt"] = now
	t.docs[t.pk] = stored
	return copyDoc(stored), nil
}

func (s *Store) Update(ctx context.Context, collection string, id int, patch core.Document) (core.Document, error) {
	return s.update(collection, id, query.Expr{}, patch)
}

func (s *Store) UpdateWhere(_ context.Context, collection string, id int, where query.Expr, patch core.Document) (core.Document, error) {
	return s.update(collection, id, where, patch)
}

func (s *Store) update(collection string, id int, where query.Expr, patch core.Document) (core.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.table(collection)
	doc, ok := t.docs[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	if !query.Match(doc, where) {
		return nil, core.ErrConflict
	}

	updated := copyDoc(doc)
	for k, v := range copyDoc(patch) {
		if v == nil {
			delete(updated, k)
			continue
		}
		updated[k] = v
	}
	updated["id"] = doc["id"]
	updated["createdAt"] = doc["createdAt"]
	updated["updatedAt"] = core.FormatTime(core.Now().Time)
	t.docs[id] = updated
	return copyDoc(updated), nil
}

func (s *Store) Delete(_ context.Context, collection string, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.table(collection)
	if _, ok := t.docs[id]; !ok {
		return core.ErrNotFound
	}
	delete(t.docs, id)
	return nil
}

// copyDoc deep-copies through JSON, which also normalizes values the way a
// real JSON store would (numbers become float64).
func copyDoc(doc core.Document) core.Document {
	raw, _ := json.Marshal(doc)
	var out core.Document
	_ = json.Unmarshal(raw, &out)
	if out == nil {
		out = core.Document{}
	}
	return out
}

func sortDocs(docs []core.Document, sortBy string) {
	field := strings.TrimPrefix(sortBy, "-")
	desc := strings.HasPrefix(sortBy, "-")
	if field == "" {
		field = "id"
	}
	sort.SliceStable(docs, func(i, j int) bool {
		less := docLess(docs[i], docs[j], field)
		if desc {
			return !less && !docEqual(docs[i], docs[j], field)
		}
		return less
	})
}

func docLess(a, b core.Document, field string) bool {
	av, bv := fieldValue(a, field), fieldValue(b, field)
	if af, aok := av.(float64); aok {
		if bf, bok := bv.(float64); bok {
			return af < bf
		}
	}
	as, _ := av.(string)
	bs, _ := bv.(string)
	if as != bs {
		return as < bs
	}
	return a.ID() < b.ID() // stable tiebreak
}

func docEqual(a, b core.Document, field string) bool {
	return !docLess(a, b, field) && !docLess(b, a, field)
}

func fieldValue(doc core.Document, field string) interface{} {
	var v interface{} = map[string]interface{}(doc)
	for _, seg := range strings.Split(field, ".") {
		m, ok := v.(map[string]interface{})
		if !ok {
			return nil
		}
		v = m[seg]
	}
	return v
}
