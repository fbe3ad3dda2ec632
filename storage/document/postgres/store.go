// Package postgresdb backs the document store with Postgres, one jsonb table
// per collection. Filters compile to SQL so scoping predicates run inside the
// database rather than in application memory.
package postgresdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/shulehq/shule/core"
	"github.com/shulehq/shule/core/query"
)

type Store struct {
	db *sqlx.DB
}

var _ core.Store = (*Store)(nil)

func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

func tableName(collection string) string {
	return pq.QuoteIdentifier(collection)
}

func arrayFields(collection string) map[string]bool {
	return core.ArrayFields[collection]
}

func (s *Store) FindByID(ctx context.Context, collection string, id int) (core.Document, error) {
	var raw []byte
	q := fmt.Sprintf("SELECT data FROM %s WHERE id = $1", tableName(collection))
	if err := s.db.QueryRowxContext(ctx, q, id).Scan(&raw); err != nil {
		if err == sql.ErrNoRows {
			return nil, core.ErrNotFound
		}
		return nil, errors.Wrap(err, "querying document")
	}
	return decodeDoc(raw)
}

func (s *Store) Find(ctx context.Context, collection string, opts core.FindOptions) (core.FindResult, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = core.DefaultPageLimit
	}
	page := opts.Page
	if page <= 0 {
		page = core.DefaultPage
	}

	clause, args := query.ToSQL(opts.Where, arrayFields(collection), 0)

	var total int
	countQ := fmt.Sprintf("SELECT count(*) FROM %s WHERE %s", tableName(collection), clause)
	if err := s.db.QueryRowxContext(ctx, countQ, args...).Scan(&total); err != nil {
		return core.FindResult{}, errors.Wrap(err, "counting documents")
	}

	n := len(args)
	q := fmt.Sprintf(
		"SELECT data FROM %s WHERE %s ORDER BY %s LIMIT $%d OFFSET $%d",
		tableName(collection), clause, sortClause(opts.Sort), n+1, n+2,
	)
	rows, err := s.db.QueryxContext(ctx, q, append(args, limit, (page-1)*limit)...)
	if err != nil {
		return core.FindResult{}, errors.Wrap(err, "querying documents")
	}
	defer func() { _ = rows.Close() }()

	docs := make([]core.Document, 0, limit)
	for rows.Next() {
		var raw []byte
		if err = rows.Scan(&raw); err != nil {
			return core.FindResult{}, errors.Wrap(err, "scanning document")
		}
		doc, err := decodeDoc(raw)
		if err != nil {
			return core.FindResult{}, err
		}
		docs = append(docs, doc)
	}
	if err = rows.Err(); err != nil {
		return core.FindResult{}, errors.Wrap(err, "querying documents")
	}

	return core.FindResult{
		Docs:       docs,
		TotalDocs:  total,
		TotalPages: (total + limit - 1) / limit,
		Page:       page,
		Limit:      limit,
	}, nil
}

func (s *Store) Count(ctx context.Context, collection string, where query.Expr) (int, error) {
	clause, args := query.ToSQL(where, arrayFields(collection), 0)
	var total int
	q := fmt.Sprintf("SELECT count(*) FROM %s WHERE %s", tableName(collection), clause)
	if err := s.db.QueryRowxContext(ctx, q, args...).Scan(&total); err != nil {
		return 0, errors.Wrap(err, "counting documents")
	}
	return total, nil
}

func (s *Store) Create(ctx context.Context, collection string, doc core.Document) (core.Document, error) {
	now := core.FormatTime(core.Now().Time)
	stored := core.Document{}
	for k, v := range doc {
		stored[k] = v
	}
	stored["createdAt"] = now
	stored["updatedAt"] = now

	raw, err := json.Marshal(stored)
	if err != nil {
		return nil, errors.Wrap(err, "encoding document")
	}

	// two statements so the generated id is mirrored into the document body
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	var id int
	insQ := fmt.Sprintf("INSERT INTO %s (data) VALUES ($1) RETURNING id", tableName(collection))
	if err = tx.QueryRowxContext(ctx, insQ, raw).Scan(&id); err != nil {
		return nil, errors.Wrap(err, "inserting document")
	}

	var out []byte
	updQ := fmt.Sprintf(
		"UPDATE %s SET data = jsonb_set(data, '{id}', to_jsonb(id)) WHERE id = $1 RETURNING data",
		tableName(collection),
	)
	if err = tx.QueryRowxContext(ctx, updQ, id).Scan(&out); err != nil {
		return nil, errors.Wrap(err, "stamping document id")
	}
	if err = tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "committing transaction")
	}
	return decodeDoc(out)
}

func (s *Store) Update(ctx context.Context, collection string, id int, patch core.Document) (core.Document, error) {
	return s.update(ctx, collection, id, query.Expr{}, patch)
}

func (s *Store) UpdateWhere(ctx context.Context, collection string, id int, where query.Expr, patch core.Document) (core.Document, error) {
	return s.update(ctx, collection, id, where, patch)
}

// update merges the patch under a row lock; the guard predicate is checked
// against the locked snapshot so a concurrent writer surfaces as ErrConflict.
func (s *Store) update(ctx context.Context, collection string, id int, where query.Expr, patch core.Document) (core.Document, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	var raw []byte
	selQ := fmt.Sprintf("SELECT data FROM %s WHERE id = $1 FOR UPDATE", tableName(collection))
	if err = tx.QueryRowxContext(ctx, selQ, id).Scan(&raw); err != nil {
		if err == sql.ErrNoRows {
			return nil, core.ErrNotFound
		}
		return nil, errors.Wrap(err, "locking document")
	}
	doc, err := decodeDoc(raw)
	if err != nil {
		return nil, err
	}
	if !query.Match(doc, where) {
		return nil, core.ErrConflict
	}

	for k, v := range patch {
		if v == nil {
			delete(doc, k)
			continue
		}
		doc[k] = v
	}
	doc["id"] = id
	doc["updatedAt"] = core.FormatTime(core.Now().Time)

	out, err := json.Marshal(doc)
	if err != nil {
		return nil, errors.Wrap(err, "encoding document")
	}
	updQ := fmt.Sprintf("UPDATE %s SET data = $2, updated_at = now() WHERE id = $1 RETURNING data", tableName(collection))
	if err = tx.QueryRowxContext(ctx, updQ, id, out).Scan(&raw); err != nil {
		return nil, errors.Wrap(err, "updating document")
	}
	if err = tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "committing transaction")
	}
	return decodeDoc(raw)
}

func (s *Store) Delete(ctx context.Context, collection string, id int) error {
	q := fmt.Sprintf("DELETE FROM %s WHERE id = $1", tableName(collection))
	res, err := s.db.ExecContext(ctx, q, id)
	if err != nil {
		return errors.Wrap(err, "deleting document")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// sortClause maps a "-field" sort spec onto the jsonb row. The timestamp
// layout is fixed-width UTC, so text ordering is chronological.
func sortClause(sortBy string) string {
	field := strings.TrimPrefix(sortBy, "-")
	dir := "ASC"
	if strings.HasPrefix(sortBy, "-") {
		dir = "DESC"
	}
	if field == "" || field == "id" {
		return "id " + dir
	}
	segs := strings.Split(field, ".")
	return fmt.Sprintf("data#>>'{%s}' %s, id %s", strings.Join(segs, ","), dir, dir)
}

func decodeDoc(raw []byte) (core.Document, error) {
	var doc core.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, errors.Wrap(err, "decoding document")
	}
	return doc, nil
}
