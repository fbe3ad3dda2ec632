package query

import (
	"strconv"
	"strings"
	"time"
)

// Match evaluates e against a decoded JSON document. Used by the in-memory
// store backend; the Postgres backend compiles the same tree to SQL instead.
func Match(doc map[string]interface{}, e Expr) bool {
	if e.IsZero() {
		return true
	}
	switch e.Op {
	case OpAnd:
		for _, sub := range e.Exprs {
			if !Match(doc, sub) {
				return false
			}
		}
		return true
	case OpOr:
		for _, sub := range e.Exprs {
			if Match(doc, sub) {
				return true
			}
		}
		return false
	case OpEq:
		leaves := resolve(doc, e.Field)
		if e.Value == nil {
			if len(leaves) == 0 {
				return true
			}
			for _, v := range leaves {
				if v == nil {
					return true
				}
			}
			return false
		}
		for _, v := range leaves {
			if equal(v, e.Value) {
				return true
			}
		}
		return false
	case OpIn:
		for _, v := range resolve(doc, e.Field) {
			for _, want := range e.Values {
				if equal(v, want) {
					return true
				}
			}
		}
		return false
	case OpNotIn:
		for _, v := range resolve(doc, e.Field) {
			for _, want := range e.Values {
				if equal(v, want) {
					return false
				}
			}
		}
		return true
	case OpContains:
		want := strings.ToLower(toString(e.Value))
		for _, v := range resolve(doc, e.Field) {
			if s, ok := v.(string); ok && strings.Contains(strings.ToLower(s), want) {
				return true
			}
		}
		return false
	case OpGt, OpLt:
		for _, v := range resolve(doc, e.Field) {
			if c, ok := compare(v, e.Value); ok {
				if (e.Op == OpGt && c > 0) || (e.Op == OpLt && c < 0) {
					return true
				}
			}
		}
		return false
	}
	return false
}

// resolve walks a dotted path, fanning out over arrays the way the store's
// query layer does: "readReceipts.user" yields the user of every receipt.
func resolve(doc interface{}, path string) []interface{} {
	values := []interface{}{doc}
	for _, seg := range strings.Split(path, ".") {
		var next []interface{}
		for _, v := range values {
			switch vv := v.(type) {
			case map[string]interface{}:
				if child, ok := vv[seg]; ok {
					next = append(next, child)
				}
			case []interface{}:
				for _, elem := range vv {
					if m, ok := elem.(map[string]interface{}); ok {
						if child, ok := m[seg]; ok {
							next = append(next, child)
						}
					}
				}
			}
		}
		values = next
	}
	// flatten terminal arrays so membership ops see elements
	var flat []interface{}
	for _, v := range values {
		if arr, ok := v.([]interface{}); ok {
			flat = append(flat, arr...)
		} else {
			flat = append(flat, v)
		}
	}
	return flat
}

func equal(a, b interface{}) bool {
	if af, aok := toFloat(a); aok {
		if bf, bok := toFloat(b); bok {
			return af == bf
		}
	}
	return toString(a) == toString(b)
}

func compare(a, b interface{}) (int, bool) {
	if af, aok := toFloat(a); aok {
		if bf, bok := toFloat(b); bok {
			switch {
			case af < bf:
				return -1, true
			case af > bf:
				return 1, true
			}
			return 0, true
		}
	}
	as, bs := toString(a), toString(b)
	if as == "" || bs == "" {
		return 0, false
	}
	return strings.Compare(as, bs), true
}

func toFloat(v interface{}) (float64, bool) {
	switch vv := v.(type) {
	case int:
		return float64(vv), true
	case int64:
		return float64(vv), true
	case float64:
		return vv, true
	case float32:
		return float64(vv), true
	}
	return 0, false
}

func toString(v interface{}) string {
	switch vv := v.(type) {
	case string:
		return vv
	case time.Time:
		return vv.UTC().Format("2006-01-02T15:04:05.000Z")
	case bool:
		return strconv.FormatBool(vv)
	case float64:
		return strconv.FormatFloat(vv, 'f', -1, 64)
	case int:
		return strconv.Itoa(vv)
	case int64:
		return strconv.FormatInt(vv, 10)
	case nil:
		return ""
	}
	return ""
}
