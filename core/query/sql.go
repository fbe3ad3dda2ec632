package query

import (
	"fmt"
	"strings"
)

// ToSQL compiles e into a Postgres WHERE fragment over a document row of
// shape (id serial, data jsonb). `arrays` names the top-level fields that
// hold JSON arrays (relationship lists, read receipts) so membership
// conditions unnest them instead of comparing the whole value.
//
// The fragment uses $N placeholders continuing from the given offset; the
// returned args line up with them.
func ToSQL(e Expr, arrays map[string]bool, offset int) (string, []interface{}) {
	b := &sqlBuilder{arrays: arrays, n: offset}
	clause := b.compile(e)
	if clause == "" {
		clause = "TRUE"
	}
	return clause, b.args
}

type sqlBuilder struct {
	arrays map[string]bool
	args   []interface{}
	n      int
}

func (b *sqlBuilder) param(v interface{}) string {
	b.args = append(b.args, v)
	b.n++
	return fmt.Sprintf("$%d", b.n)
}

func (b *sqlBuilder) compile(e Expr) string {
	if e.IsZero() {
		return ""
	}
	switch e.Op {
	case OpAnd, OpOr:
		join := " AND "
		if e.Op == OpOr {
			join = " OR "
		}
		parts := make([]string, 0, len(e.Exprs))
		for _, sub := range e.Exprs {
			if c := b.compile(sub); c != "" {
				parts = append(parts, c)
			}
		}
		if len(parts) == 0 {
			return ""
		}
		return "(" + strings.Join(parts, join) + ")"
	default:
		return b.condition(e)
	}
}

func (b *sqlBuilder) condition(e Expr) string {
	segs := strings.Split(e.Field, ".")
	if b.arrays[segs[0]] {
		return b.arrayCondition(e, segs[0], segs[1:])
	}
	return b.scalarCondition(e, segs)
}

// scalarExpr returns the text extraction expression for a dotted path.
// "id" maps to the primary-key column, everything else lives in the document.
func scalarExpr(segs []string) string {
	if len(segs) == 1 && segs[0] == "id" {
		return "id::text"
	}
	return fmt.Sprintf("data#>>'{%s}'", strings.Join(segs, ","))
}

func (b *sqlBuilder) scalarCondition(e Expr, segs []string) string {
	expr := scalarExpr(segs)
	switch e.Op {
	case OpEq:
		if e.Value == nil {
			return fmt.Sprintf("%s IS NULL", expr)
		}
		return fmt.Sprintf("%s = %s", expr, b.param(toString(e.Value)))
	case OpIn:
		return fmt.Sprintf("%s IN (%s)", expr, b.textParams(e.Values))
	case OpNotIn:
		return fmt.Sprintf("(%s IS NULL OR %s NOT IN (%s))", expr, expr, b.textParams(e.Values))
	case OpContains:
		return fmt.Sprintf("%s ILIKE %s", expr, b.param(likePattern(toString(e.Value))))
	case OpGt, OpLt:
		op := ">"
		if e.Op == OpLt {
			op = "<"
		}
		if _, numeric := toFloat(e.Value); numeric {
			return fmt.Sprintf("(%s)::numeric %s %s", expr, op, b.param(toString(e.Value)))
		}
		return fmt.Sprintf("%s %s %s", expr, op, b.param(toString(e.Value)))
	}
	return "FALSE"
}

// arrayCondition unnests an array field and applies the condition to its
// elements (or to a subfield of each element, e.g. readReceipts.user).
func (b *sqlBuilder) arrayCondition(e Expr, field string, rest []string) string {
	elem := "elem.value#>>'{}'"
	if len(rest) > 0 {
		elem = fmt.Sprintf("elem.value#>>'{%s}'", strings.Join(rest, ","))
	}
	from := fmt.Sprintf("jsonb_array_elements(coalesce(data->'%s', '[]'::jsonb)) AS elem(value)", field)

	exists := func(cond string) string {
		return fmt.Sprintf("EXISTS (SELECT 1 FROM %s WHERE %s)", from, cond)
	}

	switch e.Op {
	case OpEq:
		if e.Value == nil {
			return fmt.Sprintf("NOT %s", exists(fmt.Sprintf("%s IS NOT NULL", elem)))
		}
		return exists(fmt.Sprintf("%s = %s", elem, b.param(toString(e.Value))))
	case OpIn:
		return exists(fmt.Sprintf("%s IN (%s)", elem, b.textParams(e.Values)))
	case OpNotIn:
		return fmt.Sprintf("NOT %s", exists(fmt.Sprintf("%s IN (%s)", elem, b.textParams(e.Values))))
	case OpContains:
		return exists(fmt.Sprintf("%s ILIKE %s", elem, b.param(likePattern(toString(e.Value)))))
	case OpGt, OpLt:
		op := ">"
		if e.Op == OpLt {
			op = "<"
		}
		if _, numeric := toFloat(e.Value); numeric {
			return exists(fmt.Sprintf("(%s)::numeric %s %s", elem, op, b.param(toString(e.Value))))
		}
		return exists(fmt.Sprintf("%s %s %s", elem, op, b.param(toString(e.Value))))
	}
	return "FALSE"
}

func (b *sqlBuilder) textParams(values []interface{}) string {
	params := make([]string, 0, len(values))
	for _, v := range values {
		params = append(params, b.param(toString(v)))
	}
	if len(params) == 0 {
		// empty IN list: match nothing, keep the SQL valid
		return b.param("\x00")
	}
	return strings.Join(params, ", ")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likePattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}
