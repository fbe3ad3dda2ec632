// Package query defines the boolean filter trees the access engine emits and
// the repositories push down into the document store. The same tree can be
// matched against an in-memory document or compiled to a Postgres WHERE clause.
package query

type Op string

const (
	OpAnd      Op = "and"
	OpOr       Op = "or"
	OpEq       Op = "equals"
	OpIn       Op = "in"
	OpNotIn    Op = "not_in"
	OpContains Op = "contains"
	OpGt       Op = "greater_than"
	OpLt       Op = "less_than"
)

// Expr is a node in a filter tree. The zero Expr matches everything.
type Expr struct {
	Op     Op
	Field  string        // condition nodes; dotted paths descend into nested objects/arrays
	Value  interface{}   // Eq/Contains/Gt/Lt
	Values []interface{} // In/NotIn
	Exprs  []Expr        // And/Or
}

// IsZero reports whether e is the match-all filter.
func (e Expr) IsZero() bool { return e.Op == "" }

// And combines exprs; match-all operands are dropped and a single operand
// collapses to itself.
func And(exprs ...Expr) Expr {
	return combine(OpAnd, exprs)
}

// Or combines exprs; a match-all operand makes the whole disjunction
// match-all, and a single operand collapses to itself.
func Or(exprs ...Expr) Expr {
	for _, e := range exprs {
		if e.IsZero() {
			return Expr{}
		}
	}
	return combine(OpOr, exprs)
}

func combine(op Op, exprs []Expr) Expr {
	kept := make([]Expr, 0, len(exprs))
	for _, e := range exprs {
		if !e.IsZero() {
			kept = append(kept, e)
		}
	}
	switch len(kept) {
	case 0:
		return Expr{}
	case 1:
		return kept[0]
	}
	return Expr{Op: op, Exprs: kept}
}

// Eq matches documents whose field equals value. A nil value matches
// documents where the field is null or absent. On array fields, equality
// holds when any element equals value.
func Eq(field string, value interface{}) Expr {
	return Expr{Op: OpEq, Field: field, Value: value}
}

// In matches when the field value (or, for array fields, any element) is a
// member of values.
func In(field string, values ...interface{}) Expr {
	return Expr{Op: OpIn, Field: field, Values: values}
}

// NotIn matches when no field value is a member of values; documents missing
// the field match vacuously.
func NotIn(field string, values ...interface{}) Expr {
	return Expr{Op: OpNotIn, Field: field, Values: values}
}

// Contains matches a case-insensitive substring on string fields.
func Contains(field string, value string) Expr {
	return Expr{Op: OpContains, Field: field, Value: value}
}

// Gt matches field > value; numeric when both sides are numbers, else
// lexicographic (timestamps use a fixed-width layout so this is sound).
func Gt(field string, value interface{}) Expr {
	return Expr{Op: OpGt, Field: field, Value: value}
}

// Lt matches field < value.
func Lt(field string, value interface{}) Expr {
	return Expr{Op: OpLt, Field: field, Value: value}
}
