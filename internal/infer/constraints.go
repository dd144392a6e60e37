package infer

import (
	"sort"
	"strconv"
	"strings"

	"github.com/ndmokit/ndmokit/internal/model"
)

// inferConstraints attaches candidate constraints derived from the observed
// values: length bounds for text-like columns, value ranges for numeric
// ones, allowed-value sets for low-cardinality columns, and format patterns
// keyed on column-name hints.
func (inf *Inferrer) inferConstraints(col *model.Column, values []string) {
	if len(values) == 0 {
		return
	}

	switch {
	case col.Type.Numeric():
		lo, hi, ok := valueRange(values)
		if ok {
			col.Constraints.MinValue = &lo
			col.Constraints.MaxValue = &hi
		}
	case col.Type == model.TypeText || col.Type == model.TypeCategorical:
		minLen, maxLen := lengthRange(values)
		col.Constraints.MinLength = &minLen
		col.Constraints.MaxLength = &maxLen
	}

	if distinct := distinctValues(values); len(distinct) <= inf.cfg.AllowedValuesMax &&
		(col.Type == model.TypeCategorical || col.Type == model.TypeBoolean) {
		col.Constraints.AllowedValues = distinct
	}

	applyFormatHints(col)
}

// applyFormatHints sets pattern/format constraints from the column name and
// type, matching the conventions remediation later enforces.
func applyFormatHints(col *model.Column) {
	name := strings.ToLower(col.Name)
	switch {
	case col.Type == model.TypeEmail || strings.Contains(name, "email"):
		col.Constraints.Pattern = emailPattern.String()
		col.Constraints.Format = "email"
	case col.Type == model.TypePhone || strings.Contains(name, "phone") || strings.Contains(name, "mobile"):
		col.Constraints.Pattern = phonePattern.String()
		col.Constraints.Format = "phone"
	case col.Type == model.TypeDatetime || strings.Contains(name, "date") || strings.Contains(name, "time"):
		col.Constraints.Format = "datetime"
	}
}

func valueRange(values []string) (lo, hi float64, ok bool) {
	first := true
	for _, v := range values {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			continue
		}
		if first {
			lo, hi = f, f
			first = false
			continue
		}
		if f < lo {
			lo = f
		}
		if f > hi {
			hi = f
		}
	}
	return lo, hi, !first
}

func lengthRange(values []string) (minLen, maxLen int) {
	for i, v := range values {
		n := len(v)
		if i == 0 {
			minLen, maxLen = n, n
			continue
		}
		if n < minLen {
			minLen = n
		}
		if n > maxLen {
			maxLen = n
		}
	}
	return minLen, maxLen
}

func distinctValues(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	var out []string
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
