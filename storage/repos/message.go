package repos

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/shulehq/shule/core"
	"github.com/shulehq/shule/core/message"
	"github.com/shulehq/shule/core/query"
)

type MessageRepository struct {
	store core.Store
	log   core.Logger
}

var _ message.Repository = (*MessageRepository)(nil)

func NewMessageRepository(store core.Store, log core.Logger) *MessageRepository {
	return &MessageRepository{store: store, log: log}
}

func (repo *MessageRepository) FindByID(ctx context.Context, id int) (message.Message, error) {
	doc, err := repo.store.FindByID(ctx, core.CollectionMessages, id)
	if err != nil {
		if errors.Cause(err) == core.ErrNotFound {
			return message.Message{}, message.ErrNotFound
		}
		return message.Message{}, err
	}
	var msg message.Message
	return msg, fromDoc(doc, &msg)
}

func (repo *MessageRepository) FindMany(ctx context.Context, opts core.FindOptions) (message.Page, error) {
	res, err := repo.store.Find(ctx, core.CollectionMessages, opts)
	if err != nil {
		return message.Page{}, err
	}
	docs, err := decodeMessages(res.Docs)
	if err != nil {
		return message.Page{}, err
	}
	return message.Page{Docs: docs, TotalDocs: res.TotalDocs, TotalPages: res.TotalPages}, nil
}

func (repo *MessageRepository) Count(ctx context.Context, where query.Expr) int {
	n, err := repo.store.Count(ctx, core.CollectionMessages, where)
	if err != nil {
		repo.log.Error("repo: counting messages", err)
		return 0
	}
	return n
}

func (repo *MessageRepository) FindByRecipient(ctx context.Context, recipientID int, opts message.RecipientOptions) (message.RecipientPage, error) {
	where := query.In("recipients", recipientID)
	unread := query.NotIn("readReceipts.user", recipientID)
	if !opts.Start.IsZero() {
		where = query.And(where, query.Gt("createdAt", core.FormatTime(opts.Start)))
	}
	if !opts.End.IsZero() {
		where = query.And(where, query.Lt("createdAt", core.FormatTime(opts.End)))
	}

	listWhere := where
	if opts.UnreadOnly {
		listWhere = query.And(where, unread)
	}

	var (
		page        message.Page
		unreadCount int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		page, err = repo.FindMany(gctx, core.FindOptions{
			Where: listWhere,
			Page:  opts.Page,
			Limit: opts.Limit,
			Sort:  "-createdAt",
		})
		return err
	})
	g.Go(func() (err error) {
		unreadCount, err = repo.store.Count(gctx, core.CollectionMessages, query.And(where, unread))
		return err
	})
	if err := g.Wait(); err != nil {
		return message.RecipientPage{}, err
	}
	return message.RecipientPage{
		Docs:        page.Docs,
		TotalDocs:   page.TotalDocs,
		UnreadCount: unreadCount,
	}, nil
}

func (repo *MessageRepository) FindBySender(ctx context.Context, senderID, page, limit int) (message.Page, error) {
	return repo.FindMany(ctx, core.FindOptions{
		Where: query.Eq("sender", senderID),
		Page:  page,
		Limit: limit,
		Sort:  "-createdAt",
	})
}

func (repo *MessageRepository) FindBySchool(ctx context.Context, schoolID int, opts message.SchoolOptions) (message.Page, error) {
	where := query.Eq("school", schoolID)
	if opts.MessageType != "" {
		where = query.And(where, query.Eq("messageType", opts.MessageType))
	}
	if opts.Priority != "" {
		where = query.And(where, query.Eq("priority", opts.Priority))
	}
	if !opts.Start.IsZero() {
		where = query.And(where, query.Gt("createdAt", core.FormatTime(opts.Start)))
	}
	return repo.FindMany(ctx, core.FindOptions{
		Where: where,
		Page:  opts.Page,
		Limit: opts.Limit,
		Sort:  "-createdAt",
	})
}

// Stats aggregates a school's traffic over a trailing window. Status counts
// run in the store; type and priority breakdowns scan a bounded sample.
func (repo *MessageRepository) Stats(ctx context.Context, schoolID int, timeframe string) (message.Stats, error) {
	cutoff := core.FormatTime(message.TimeframeStart(timeframe, time.Now()))
	scope := func(exprs ...query.Expr) query.Expr {
		base := []query.Expr{query.Eq("school", schoolID), query.Gt("createdAt", cutoff)}
		return query.And(append(base, exprs...)...)
	}

	var stats message.Stats
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		stats.Total, err = repo.store.Count(gctx, core.CollectionMessages, scope())
		return err
	})
	g.Go(func() (err error) {
		stats.Sent, err = repo.store.Count(gctx, core.CollectionMessages, scope(query.Eq("status", message.StatusSent)))
		return err
	})
	g.Go(func() (err error) {
		stats.Draft, err = repo.store.Count(gctx, core.CollectionMessages, scope(query.Eq("status", message.StatusDraft)))
		return err
	})
	g.Go(func() (err error) {
		stats.Scheduled, err = repo.store.Count(gctx, core.CollectionMessages, scope(query.Eq("status", message.StatusScheduled)))
		return err
	})
	g.Go(func() error {
		res, err := repo.store.Find(gctx, core.CollectionMessages, core.FindOptions{
			Where: scope(),
			Limit: message.HistogramScanCap,
		})
		if err != nil {
			return err
		}
		byType, byPriority := make(map[string]int), make(map[string]int)
		for _, doc := range res.Docs {
			if t, _ := doc["messageType"].(string); t != "" {
				byType[t]++
			}
			if p, _ := doc["priority"].(string); p != "" {
				byPriority[p]++
			}
		}
		stats.ByType, stats.ByPriority = byType, byPriority
		return nil
	})
	if err := g.Wait(); err != nil {
		return message.Stats{}, core.NewOperationError("getMessageStats", err)
	}
	return stats, nil
}

// markAsReadAttempts bounds the optimistic-concurrency retry loop.
const markAsReadAttempts = 3

// MarkAsRead appends a read receipt for userID. Idempotent: an existing
// receipt short-circuits. Concurrent receipt writers are serialized by a
// compare-and-swap on updatedAt.
func (repo *MessageRepository) MarkAsRead(ctx context.Context, messageID, userID int) (bool, error) {
	for attempt := 0; attempt < markAsReadAttempts; attempt++ {
		doc, err := repo.store.FindByID(ctx, core.CollectionMessages, messageID)
		if err != nil {
			if errors.Cause(err) == core.ErrNotFound {
				return false, message.ErrNotFound
			}
			return false, err
		}
		var msg message.Message
		if err = fromDoc(doc, &msg); err != nil {
			return false, err
		}
		if msg.HasRead(userID) {
			return false, nil
		}

		receipts := append(msg.ReadReceipts, message.ReadReceipt{User: userID, ReadAt: core.Now()})
		_, err = repo.store.UpdateWhere(ctx, core.CollectionMessages, messageID,
			query.Eq("updatedAt", doc["updatedAt"]),
			core.Document{"readReceipts": receipts},
		)
		if err == nil {
			return true, nil
		}
		if errors.Cause(err) != core.ErrConflict {
			return false, err
		}
		// lost the race; reload and retry
	}
	return false, errors.Errorf("marking message %d as read: too many concurrent updates", messageID)
}

func (repo *MessageRepository) Create(ctx context.Context, msg message.Message) (message.Message, error) {
	doc, err := toDoc(msg)
	if err != nil {
		return message.Message{}, err
	}
	created, err := repo.store.Create(ctx, core.CollectionMessages, doc)
	if err != nil {
		return message.Message{}, err
	}
	var out message.Message
	return out, fromDoc(created, &out)
}

func (repo *MessageRepository) Update(ctx context.Context, id int, patch core.Document) (message.Message, error) {
	doc, err := repo.store.Update(ctx, core.CollectionMessages, id, patch)
	if err != nil {
		if errors.Cause(err) == core.ErrNotFound {
			return message.Message{}, message.ErrNotFound
		}
		return message.Message{}, err
	}
	var msg message.Message
	return msg, fromDoc(doc, &msg)
}

func (repo *MessageRepository) Delete(ctx context.Context, id int) bool {
	if err := repo.store.Delete(ctx, core.CollectionMessages, id); err != nil {
		if errors.Cause(err) != core.ErrNotFound {
			repo.log.Error("repo: deleting message", err)
		}
		return false
	}
	return true
}

func decodeMessages(docs []core.Document) ([]message.Message, error) {
	msgs := make([]message.Message, 0, len(docs))
	for _, doc := range docs {
		var msg message.Message
		if err := fromDoc(doc, &msg); err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}
