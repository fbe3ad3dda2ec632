package access

import (
	"github.com/pkg/errors"

	"github.com/shulehq/shule/core/query"
)

// ErrDenied is returned when a decision forbids the operation outright.
var ErrDenied = errors.New("permission denied")

type decisionKind int

const (
	kindDeny decisionKind = iota
	kindAllow
	kindFiltered
)

// Decision is the outcome of an access predicate: unrestricted, forbidden,
// or readable/mutable only through a scoping filter that the repository MUST
// AND onto its query before execution.
type Decision struct {
	kind  decisionKind
	where query.Expr
}

func Allow() Decision { return Decision{kind: kindAllow} }

func Deny() Decision { return Decision{kind: kindDeny} }

func Filtered(where query.Expr) Decision {
	if where.IsZero() {
		// an empty filter would be unbounded; never widen by accident
		return Decision{kind: kindDeny}
	}
	return Decision{kind: kindFiltered, where: where}
}

func (d Decision) Allowed() bool { return d.kind == kindAllow }
func (d Decision) Denied() bool  { return d.kind == kindDeny }

// Filter returns the scoping filter and whether one applies.
func (d Decision) Filter() (query.Expr, bool) {
	return d.where, d.kind == kindFiltered
}

// Scope folds the decision onto a base query: Allow passes base through,
// Filtered ANDs its clause on, Deny returns ErrDenied.
func (d Decision) Scope(base query.Expr) (query.Expr, error) {
	switch d.kind {
	case kindAllow:
		return base, nil
	case kindFiltered:
		return query.And(base, d.where), nil
	}
	return query.Expr{}, ErrDenied
}
