package rules

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ndmokit/ndmokit/internal/model"
)

// Eval evaluates the compiled rule against a row. Comparisons against a
// missing or null field are false (SQL three-valued logic collapsed to
// boolean), not errors; a row can always be scored.
func (r *Rule) Eval(row model.Row) (bool, error) {
	return r.root.eval(row)
}

// node is one vertex of the compiled predicate tree.
type node interface {
	eval(row model.Row) (bool, error)
}

// operand produces a value from a row: a column lookup or a literal.
type operand interface {
	value(row model.Row) (any, bool)
}

type fieldRef struct{ name string }

func (f fieldRef) value(row model.Row) (any, bool) {
	v, ok := row[f.name]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

type literal struct{ val any }

func (l literal) value(model.Row) (any, bool) {
	if l.val == nil {
		return nil, false
	}
	return l.val, true
}

type binaryNode struct {
	op    string // AND or OR
	left  node
	right node
}

func (n *binaryNode) eval(row model.Row) (bool, error) {
	l, err := n.left.eval(row)
	if err != nil {
		return false, err
	}
	if n.op == "AND" && !l {
		return false, nil
	}
	if n.op == "OR" && l {
		return true, nil
	}
	return n.right.eval(row)
}

type notNode struct{ inner node }

func (n *notNode) eval(row model.Row) (bool, error) {
	v, err := n.inner.eval(row)
	return !v, err
}

type compareNode struct {
	op    string
	left  operand
	right operand
}

func (n *compareNode) eval(row model.Row) (bool, error) {
	lv, lok := n.left.value(row)
	rv, rok := n.right.value(row)
	if !lok || !rok {
		return false, nil
	}
	cmp, comparable := compareValues(lv, rv)
	if !comparable {
		return false, nil
	}
	switch n.op {
	case "=":
		return cmp == 0, nil
	case "!=", "<>":
		return cmp != 0, nil
	case ">":
		return cmp > 0, nil
	case ">=":
		return cmp >= 0, nil
	case "<":
		return cmp < 0, nil
	case "<=":
		return cmp <= 0, nil
	}
	return false, fmt.Errorf("unsupported operator %q", n.op)
}

type nullNode struct {
	operand  operand
	wantNull bool
}

func (n *nullNode) eval(row model.Row) (bool, error) {
	_, ok := n.operand.value(row)
	return !ok == n.wantNull, nil
}

type inNode struct {
	operand operand
	values  []any
	negated bool
}

func (n *inNode) eval(row model.Row) (bool, error) {
	v, ok := n.operand.value(row)
	if !ok {
		return false, nil
	}
	found := false
	for _, candidate := range n.values {
		if cmp, comparable := compareValues(v, candidate); comparable && cmp == 0 {
			found = true
			break
		}
	}
	return found != n.negated, nil
}

type betweenNode struct {
	operand operand
	low     any
	high    any
}

func (n *betweenNode) eval(row model.Row) (bool, error) {
	v, ok := n.operand.value(row)
	if !ok {
		return false, nil
	}
	lo, loOK := compareValues(v, n.low)
	hi, hiOK := compareValues(v, n.high)
	if !loOK || !hiOK {
		return false, nil
	}
	return lo >= 0 && hi <= 0, nil
}

type likeNode struct {
	operand operand
	pattern string
	negated bool
}

func (n *likeNode) eval(row model.Row) (bool, error) {
	v, ok := n.operand.value(row)
	if !ok {
		return false, nil
	}
	matched := likeMatch(stringify(v), n.pattern)
	return matched != n.negated, nil
}

type matchMode int

const (
	matchContains matchMode = iota
	matchPrefix
	matchSuffix
)

type substringNode struct {
	operand operand
	needle  string
	mode    matchMode
	negated bool
}

func (n *substringNode) eval(row model.Row) (bool, error) {
	v, ok := n.operand.value(row)
	if !ok {
		return false, nil
	}
	s := stringify(v)
	var matched bool
	switch n.mode {
	case matchContains:
		matched = strings.Contains(s, n.needle)
	case matchPrefix:
		matched = strings.HasPrefix(s, n.needle)
	case matchSuffix:
		matched = strings.HasSuffix(s, n.needle)
	}
	return matched != n.negated, nil
}

// ---------------------------------------------------------------------------
// Value comparison
// ---------------------------------------------------------------------------

// compareValues compares two cell values, coercing both to float64 when both
// sides are numeric (or numeric strings), to time when both sides are times,
// and falling back to string comparison otherwise. The second return is
// false when the values cannot be brought to a common type.
func compareValues(a, b any) (int, bool) {
	if at, aok := a.(time.Time); aok {
		if bt, bok := toTime(b); bok {
			switch {
			case at.Before(bt):
				return -1, true
			case at.After(bt):
				return 1, true
			}
			return 0, true
		}
		return 0, false
	}
	if bt, bok := b.(time.Time); bok {
		if at, aok := toTime(a); aok {
			switch {
			case at.Before(bt):
				return -1, true
			case at.After(bt):
				return 1, true
			}
			return 0, true
		}
		return 0, false
	}

	af, aNum := toFloat(a)
	bf, bNum := toFloat(b)
	if aNum && bNum {
		switch {
		case af < bf:
			return -1, true
		case af > bf:
			return 1, true
		}
		return 0, true
	}

	return strings.Compare(stringify(a), stringify(b)), true
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	}
	return 0, false
}

func toTime(v any) (time.Time, bool) {
	switch x := v.(type) {
	case time.Time:
		return x, true
	case string:
		for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
			if t, err := time.Parse(layout, strings.TrimSpace(x)); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

func stringify(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", x)
	}
}

// likeMatch implements SQL LIKE semantics: % matches any run of characters,
// _ matches exactly one.
func likeMatch(s, pattern string) bool {
	return likeMatchRunes([]rune(s), []rune(pattern))
}

func likeMatchRunes(s, p []rune) bool {
	if len(p) == 0 {
		return len(s) == 0
	}
	switch p[0] {
	case '%':
		for i := 0; i <= len(s); i++ {
			if likeMatchRunes(s[i:], p[1:]) {
				return true
			}
		}
		return false
	case '_':
		return len(s) > 0 && likeMatchRunes(s[1:], p[1:])
	default:
		return len(s) > 0 && s[0] == p[0] && likeMatchRunes(s[1:], p[1:])
	}
}
