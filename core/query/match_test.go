package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testDoc() map[string]interface{} {
	return map[string]interface{}{
		"id":        float64(7),
		"firstName": "Amina",
		"lastName":  "Okoro",
		"school":    float64(5),
		"account":   nil,
		"parents":   []interface{}{float64(42), float64(43)},
		"readReceipts": []interface{}{
			map[string]interface{}{"user": float64(42), "readAt": "2026-01-10T08:30:00.000Z"},
		},
		"createdAt": "2026-01-10T08:30:00.000Z",
	}
}

func TestMatch(t *testing.T) {
	tests := []struct {
		name string
		expr Expr
		want bool
	}{
		{name: "zero expr matches all", expr: Expr{}, want: true},
		{name: "eq scalar", expr: Eq("firstName", "Amina"), want: true},
		{name: "eq scalar miss", expr: Eq("firstName", "Josh"), want: false},
		{name: "eq number vs float", expr: Eq("school", 5), want: true},
		{name: "eq on id", expr: Eq("id", 7), want: true},
		{name: "eq nil on null field", expr: Eq("account", nil), want: true},
		{name: "eq nil on missing field", expr: Eq("archivedAt", nil), want: true},
		{name: "eq nil on set field", expr: Eq("school", nil), want: false},
		{name: "eq array membership", expr: Eq("parents", 43), want: true},
		{name: "eq array membership miss", expr: Eq("parents", 99), want: false},
		{name: "in scalar", expr: In("school", 4, 5, 6), want: true},
		{name: "in array field", expr: In("parents", 42), want: true},
		{name: "in miss", expr: In("school", 1, 2), want: false},
		{name: "in dotted array path", expr: In("readReceipts.user", 42), want: true},
		{name: "in dotted array path miss", expr: In("readReceipts.user", 43), want: false},
		{name: "not_in excludes", expr: NotIn("readReceipts.user", 42), want: false},
		{name: "not_in vacuous on missing field", expr: NotIn("attachments.name", "x"), want: true},
		{name: "not_in passes", expr: NotIn("readReceipts.user", 99), want: true},
		{name: "contains case-insensitive", expr: Contains("lastName", "oko"), want: true},
		{name: "contains upper needle", expr: Contains("firstName", "AMI"), want: true},
		{name: "contains miss", expr: Contains("firstName", "xyz"), want: false},
		{name: "gt timestamp", expr: Gt("createdAt", "2026-01-09T00:00:00.000Z"), want: true},
		{name: "gt timestamp miss", expr: Gt("createdAt", "2026-01-11T00:00:00.000Z"), want: false},
		{name: "lt timestamp", expr: Lt("createdAt", "2026-01-11T00:00:00.000Z"), want: true},
		{name: "gt number", expr: Gt("school", 4), want: true},
		{name: "lt number miss", expr: Lt("school", 5), want: false},
		{
			name: "and all match",
			expr: And(Eq("school", 5), In("parents", 42)),
			want: true,
		},
		{
			name: "and one miss",
			expr: And(Eq("school", 5), Eq("firstName", "Josh")),
			want: false,
		},
		{
			name: "or one match",
			expr: Or(Eq("firstName", "Josh"), Eq("lastName", "Okoro")),
			want: true,
		},
		{
			name: "or none match",
			expr: Or(Eq("firstName", "Josh"), Eq("school", 1)),
			want: false,
		},
		{
			name: "nested combination",
			expr: And(
				Eq("school", 5),
				Or(Eq("sender", 7), In("parents", 42)),
			),
			want: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Match(testDoc(), tt.expr))
		})
	}
}

func TestCombine(t *testing.T) {
	t.Run("empty And is match-all", func(t *testing.T) {
		assert.True(t, And().IsZero())
	})
	t.Run("And drops match-all operands", func(t *testing.T) {
		assert.Equal(t, Eq("school", 5), And(Expr{}, Eq("school", 5)))
	})
	t.Run("Or with a match-all operand is match-all", func(t *testing.T) {
		assert.True(t, Or(Expr{}, Eq("school", 5)).IsZero())
	})
	t.Run("single operand collapses", func(t *testing.T) {
		assert.Equal(t, Eq("school", 5), Or(Eq("school", 5)))
	})
	t.Run("two operands nest", func(t *testing.T) {
		e := And(Eq("a", 1), Eq("b", 2))
		assert.Equal(t, OpAnd, e.Op)
		assert.Len(t, e.Exprs, 2)
	})
}
