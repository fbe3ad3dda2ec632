package inmemdb

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shulehq/shule/core"
	"github.com/shulehq/shule/core/query"
)

func TestStore_Create(t *testing.T) {
	store := Open()
	ctx := context.Background()

	doc, err := store.Create(ctx, "students", core.Document{"firstName": "Amina", "school": 5})
	assert.NoError(t, err)

	assert.Equal(t, 1, doc.ID())
	assert.Equal(t, "Amina", doc["firstName"])
	assert.Equal(t, float64(5), doc["school"]) // normalized like a JSON store
	assert.NotEmpty(t, doc["createdAt"])
	assert.Equal(t, doc["createdAt"], doc["updatedAt"])

	doc2, err := store.Create(ctx, "students", core.Document{"firstName": "Brian"})
	assert.NoError(t, err)
	assert.Equal(t, 2, doc2.ID())
}

func TestStore_FindByID(t *testing.T) {
	store := Open()
	ctx := context.Background()

	created, _ := store.Create(ctx, "schools", core.Document{"name": "Hilltop"})

	doc, err := store.FindByID(ctx, "schools", created.ID())
	assert.NoError(t, err)
	assert.Equal(t, "Hilltop", doc["name"])

	_, err = store.FindByID(ctx, "schools", 99)
	assert.Equal(t, core.ErrNotFound, err)
}

func TestStore_Find(t *testing.T) {
	store := Open()
	ctx := context.Background()

	for i := 0; i < 7; i++ {
		_, err := store.Create(ctx, "students", core.Document{
			"lastName": fmt.Sprintf("Name%d", i),
			"school":   5,
		})
		assert.NoError(t, err)
	}
	_, err := store.Create(ctx, "students", core.Document{"lastName": "Other", "school": 6})
	assert.NoError(t, err)

	t.Run("filter and paginate", func(t *testing.T) {
		res, err := store.Find(ctx, "students", core.FindOptions{
			Where: query.Eq("school", 5),
			Page:  2,
			Limit: 3,
			Sort:  "lastName",
		})
		assert.NoError(t, err)
		assert.Equal(t, 7, res.TotalDocs)
		assert.Equal(t, 3, res.TotalPages) // ceil(7/3)
		assert.Len(t, res.Docs, 3)
		assert.Equal(t, "Name3", res.Docs[0]["lastName"])
	})
	t.Run("last page is partial", func(t *testing.T) {
		res, err := store.Find(ctx, "students", core.FindOptions{
			Where: query.Eq("school", 5),
			Page:  3,
			Limit: 3,
			Sort:  "lastName",
		})
		assert.NoError(t, err)
		assert.Len(t, res.Docs, 1)
	})
	t.Run("page past the end is empty", func(t *testing.T) {
		res, err := store.Find(ctx, "students", core.FindOptions{
			Where: query.Eq("school", 5),
			Page:  9,
			Limit: 3,
		})
		assert.NoError(t, err)
		assert.Len(t, res.Docs, 0)
		assert.Equal(t, 7, res.TotalDocs)
	})
	t.Run("descending sort", func(t *testing.T) {
		res, err := store.Find(ctx, "students", core.FindOptions{
			Where: query.Eq("school", 5),
			Sort:  "-lastName",
		})
		assert.NoError(t, err)
		assert.Equal(t, "Name6", res.Docs[0]["lastName"])
		assert.Equal(t, "Name0", res.Docs[len(res.Docs)-1]["lastName"])
	})
	t.Run("defaults apply", func(t *testing.T) {
		res, err := store.Find(ctx, "students", core.FindOptions{})
		assert.NoError(t, err)
		assert.Equal(t, core.DefaultPage, res.Page)
		assert.Equal(t, core.DefaultPageLimit, res.Limit)
		assert.Equal(t, 8, res.TotalDocs)
	})
}

func TestStore_Count(t *testing.T) {
	store := Open()
	ctx := context.Background()

	_, _ = store.Create(ctx, "messages", core.Document{"status": "SENT"})
	_, _ = store.Create(ctx, "messages", core.Document{"status": "DRAFT"})
	_, _ = store.Create(ctx, "messages", core.Document{"status": "SENT"})

	n, err := store.Count(ctx, "messages", query.Eq("status", "SENT"))
	assert.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = store.Count(ctx, "messages", query.Expr{})
	assert.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestStore_Update(t *testing.T) {
	store := Open()
	ctx := context.Background()

	created, _ := store.Create(ctx, "students", core.Document{"grade": "3", "studentId": "STU-1"})

	t.Run("merges patch and restamps updatedAt", func(t *testing.T) {
		doc, err := store.Update(ctx, "students", created.ID(), core.Document{"grade": "4"})
		assert.NoError(t, err)
		assert.Equal(t, "4", doc["grade"])
		assert.Equal(t, "STU-1", doc["studentId"]) // untouched fields survive
		assert.Equal(t, created["createdAt"], doc["createdAt"])
	})
	t.Run("nil value removes the key", func(t *testing.T) {
		doc, err := store.Update(ctx, "students", created.ID(), core.Document{"studentId": nil})
		assert.NoError(t, err)
		_, exists := doc["studentId"]
		assert.False(t, exists)
	})
	t.Run("unknown id", func(t *testing.T) {
		_, err := store.Update(ctx, "students", 99, core.Document{"grade": "5"})
		assert.Equal(t, core.ErrNotFound, err)
	})
}

func TestStore_UpdateWhere(t *testing.T) {
	store := Open()
	ctx := context.Background()

	created, _ := store.Create(ctx, "messages", core.Document{"subject": "hi"})

	t.Run("guard holds", func(t *testing.T) {
		doc, err := store.UpdateWhere(ctx, "messages", created.ID(),
			query.Eq("updatedAt", created["updatedAt"]),
			core.Document{"subject": "hello"},
		)
		assert.NoError(t, err)
		assert.Equal(t, "hello", doc["subject"])
	})
	t.Run("stale guard conflicts", func(t *testing.T) {
		_, err := store.UpdateWhere(ctx, "messages", created.ID(),
			query.Eq("subject", "hi"), // already changed above
			core.Document{"subject": "hey"},
		)
		assert.Equal(t, core.ErrConflict, err)
	})
}

func TestStore_Delete(t *testing.T) {
	store := Open()
	ctx := context.Background()

	created, _ := store.Create(ctx, "schools", core.Document{"name": "Hilltop"})

	assert.NoError(t, store.Delete(ctx, "schools", created.ID()))
	assert.Equal(t, core.ErrNotFound, store.Delete(ctx, "schools", created.ID()))
}

func TestStore_concurrentAccess(t *testing.T) {
	store := Open()
	ctx := context.Background()

	t.Run("reads on a never-written collection", func(t *testing.T) {
		var wg sync.WaitGroup
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()

				if n, err := store.Count(ctx, "students", query.Expr{}); err != nil || n != 0 {
					t.Errorf("Count() = %d, %v, want 0, nil", n, err)
				}
				if res, err := store.Find(ctx, "students", core.FindOptions{}); err != nil || res.TotalDocs != 0 {
					t.Errorf("Find() total = %d, %v, want 0, nil", res.TotalDocs, err)
				}
				if _, err := store.FindByID(ctx, "students", 1); err != core.ErrNotFound {
					t.Errorf("FindByID() error = %v, want ErrNotFound", err)
				}
			}()
		}
		wg.Wait()
	})

	t.Run("mixed readers and writers", func(t *testing.T) {
		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(2)
			go func(i int) {
				defer wg.Done()
				_, err := store.Create(ctx, "messages", core.Document{"subject": fmt.Sprintf("m%d", i)})
				if err != nil {
					t.Errorf("Create() error = %v", err)
				}
			}(i)
			go func() {
				defer wg.Done()
				if _, err := store.Count(ctx, "messages", query.Expr{}); err != nil {
					t.Errorf("Count() error = %v", err)
				}
			}()
		}
		wg.Wait()

		n, err := store.Count(ctx, "messages", query.Expr{})
		assert.NoError(t, err)
		assert.Equal(t, 8, n)
	})
}
