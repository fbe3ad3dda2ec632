// Package access maps (actor, collection, operation) to a Decision. It is the
// single place row-level authorization is defined; repositories and handlers
// never re-derive these rules.
package access

import (
	"context"

	"github.com/pkg/errors"

	"github.com/shulehq/shule/core"
	"github.com/shulehq/shule/core/query"
	"github.com/shulehq/shule/core/user"
)

type Operation string

const (
	OpRead   Operation = "read"
	OpCreate Operation = "create"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// UserCounter reports whether any user exists; the bootstrap-first-admin
// exception depends on it. Errors propagate so a broken query can never
// open the exception by accident.
type UserCounter interface {
	HasAny(ctx context.Context) (bool, error)
}

type Engine struct {
	users UserCounter
}

func NewEngine(users UserCounter) *Engine {
	return &Engine{users: users}
}

// Evaluate decides op on collection for actor (nil = anonymous).
func (e *Engine) Evaluate(ctx context.Context, actor *user.User, collection string, op Operation) (Decision, error) {
	switch collection {
	case core.CollectionUsers:
		return e.usersDecision(ctx, actor, op)
	case core.CollectionSchools:
		return schoolsDecision(actor, op), nil
	case core.CollectionStudents:
		return studentsDecision(actor, op), nil
	case core.CollectionMessages:
		return messagesDecision(actor, op), nil
	case core.CollectionInquiries:
		return inquiriesDecision(actor, op), nil
	case core.CollectionApplications:
		return applicationsDecision(actor, op), nil
	case core.CollectionTemplates:
		return templatesDecision(actor, op), nil
	case core.CollectionMedia:
		return mediaDecision(actor, op), nil
	}
	return Deny(), nil
}

func isAdmin(actor *user.User) bool {
	return actor != nil && actor.IsAdmin()
}

func isLoggedIn(actor *user.User) bool {
	return actor != nil
}

// sameSchool builds the same-school scoping filter on field. An actor without
// a school affiliation is DENIED outright: a filter containing `equals: null`
// would leak every row whose scoped field is also null.
func sameSchool(actor *user.User, field string) Decision {
	if actor == nil || !actor.School.Valid {
		return Deny()
	}
	return Filtered(query.Eq(field, actor.School.Int))
}

// adminOrSameSchool is the workhorse rule: admins see everything, everyone
// else is scoped to rows whose field matches their school.
func adminOrSameSchool(actor *user.User, field string) Decision {
	if !isLoggedIn(actor) {
		return Deny()
	}
	if isAdmin(actor) {
		return Allow()
	}
	return sameSchool(actor, field)
}

func adminOnly(actor *user.User) Decision {
	if isAdmin(actor) {
		return Allow()
	}
	return Deny()
}

func (e *Engine) usersDecision(ctx context.Context, actor *user.User, op Operation) (Decision, error) {
	switch op {
	case OpRead:
		if !isLoggedIn(actor) {
			return Deny(), nil
		}
		if isAdmin(actor) {
			return Allow(), nil
		}
		// own record is always readable, even absent a school match
		self := query.Eq("id", actor.ID)
		if actor.School.Valid {
			return Filtered(query.Or(query.Eq("school", actor.School.Int), self)), nil
		}
		return Filtered(self), nil
	case OpCreate:
		// bootstrap exception: while the collection is empty anyone may
		// create the first user; afterwards creation is admin-only
		hasAny, err := e.users.HasAny(ctx)
		if err != nil {
			return Deny(), errors.Wrap(err, "counting users")
		}
		if !hasAny {
			return Allow(), nil
		}
		return adminOnly(actor), nil
	case OpUpdate:
		if isAdmin(actor) {
			return Allow(), nil
		}
		if !isLoggedIn(actor) {
			return Deny(), nil
		}
		// self-service profile edit only
		return Filtered(query.Eq("id", actor.ID)), nil
	case OpDelete:
		return adminOnly(actor), nil
	}
	return Deny(), nil
}

func schoolsDecision(actor *user.User, op Operation) Decision {
	switch op {
	case OpRead:
		// an actor may read only their own school record
		return adminOrSameSchool(actor, "id")
	case OpCreate, OpUpdate, OpDelete:
		return adminOnly(actor)
	}
	return Deny()
}

func studentsDecision(actor *user.User, op Operation) Decision {
	switch op {
	case OpRead:
		if !isLoggedIn(actor) {
			return Deny()
		}
		switch actor.Role {
		case user.RoleAdmin:
			return Allow()
		case user.RoleTeacher:
			return sameSchool(actor, "school")
		case user.RoleParent:
			return Filtered(query.In("parents", actor.ID))
		}
		return Deny()
	case OpCreate, OpUpdate:
		if isAdmin(actor) || (actor != nil && actor.IsTeacher()) {
			return Allow()
		}
		return Deny()
	case OpDelete:
		return adminOnly(actor)
	}
	return Deny()
}

func messagesDecision(actor *user.User, op Operation) Decision {
	switch op {
	case OpRead:
		if !isLoggedIn(actor) {
			return Deny()
		}
		if isAdmin(actor) {
			return Allow()
		}
		if !actor.School.Valid {
			return Deny()
		}
		// own school AND (sender or named recipient), even if somehow
		// cross-referenced from elsewhere
		return Filtered(query.And(
			query.Eq("school", actor.School.Int),
			query.Or(
				query.Eq("sender", actor.ID),
				query.In("recipients", actor.ID),
			),
		))
	case OpCreate:
		// hooks force sender/school afterwards, preventing spoofing
		if isLoggedIn(actor) {
			return Allow()
		}
		return Deny()
	case OpUpdate:
		if isAdmin(actor) {
			return Allow()
		}
		if !isLoggedIn(actor) {
			return Deny()
		}
		// sender or recipient may update (e.g. add a read receipt);
		// no school restriction re-applied here
		return Filtered(query.Or(
			query.Eq("sender", actor.ID),
			query.In("recipients", actor.ID),
		))
	case OpDelete:
		return adminOnly(actor)
	}
	return Deny()
}

func inquiriesDecision(actor *user.User, op Operation) Decision {
	switch op {
	case OpCreate:
		// public lead intake: open to anyone, including anonymous
		return Allow()
	case OpRead, OpUpdate:
		return adminOrSameSchool(actor, "school")
	case OpDelete:
		return adminOnly(actor)
	}
	return Deny()
}

func applicationsDecision(actor *user.User, op Operation) Decision {
	switch op {
	case OpCreate:
		// must be logged in to start an application; hooks fill the school
		if isLoggedIn(actor) {
			return Allow()
		}
		return Deny()
	case OpRead, OpUpdate:
		return adminOrSameSchool(actor, "school")
	case OpDelete:
		return adminOnly(actor)
	}
	return Deny()
}

func templatesDecision(actor *user.User, op Operation) Decision {
	switch op {
	case OpRead:
		if !isLoggedIn(actor) {
			return Deny()
		}
		if isAdmin(actor) {
			return Allow()
		}
		// global templates plus the actor's own school's templates
		global := query.Eq("school", nil)
		if actor.School.Valid {
			return Filtered(query.Or(global, query.Eq("school", actor.School.Int)))
		}
		return Filtered(global)
	case OpCreate, OpUpdate, OpDelete:
		return adminOnly(actor)
	}
	return Deny()
}

func mediaDecision(actor *user.User, op Operation) Decision {
	switch op {
	case OpRead, OpCreate:
		if isLoggedIn(actor) {
			return Allow()
		}
		return Deny()
	case OpUpdate, OpDelete:
		return adminOnly(actor)
	}
	return Deny()
}
