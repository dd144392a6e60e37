package process

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ndmokit/ndmokit/internal/model"
)

// improvement summarizes what the quality improvement stage did to the
// working dataset.
type improvement struct {
	CellsFilled     int `json:"cells_filled"`
	CellsNormalized int `json:"cells_normalized"`
	RowsDeduped     int `json:"rows_deduped"`
}

// Touched is the total number of cells the stage rewrote, feeding the
// accuracy heuristic.
func (im improvement) Touched() int {
	return im.CellsFilled + im.CellsNormalized
}

// improveDataset applies the deterministic quality fixes: default/statistic
// fills for required-but-null cells, exact-duplicate removal when the schema
// declares uniqueness, and text normalization for the string-family columns.
func improveDataset(s *model.Schema, ds *model.Dataset) improvement {
	var im improvement
	im.CellsNormalized = normalizeText(s, ds)
	im.CellsFilled = fillNulls(s, ds)
	im.RowsDeduped = dedupRows(s, ds)
	return im
}

// normalizeText trims whitespace on every string cell, lowercases emails, and
// canonicalizes categorical values to lower case. Only changed cells count.
func normalizeText(s *model.Schema, ds *model.Dataset) int {
	normalized := 0
	for _, col := range s.Columns {
		if !ds.HasColumn(col.Name) {
			continue
		}
		switch col.Type {
		case model.TypeText, model.TypeEmail, model.TypePhone, model.TypeCategorical:
		default:
			continue
		}
		for _, row := range ds.Rows {
			v, ok := row[col.Name].(string)
			if !ok {
				continue
			}
			fixed := strings.TrimSpace(v)
			switch col.Type {
			case model.TypeEmail:
				fixed = strings.ToLower(fixed)
			case model.TypeCategorical:
				fixed = strings.ToLower(fixed)
			}
			if fixed != v {
				row[col.Name] = fixed
				normalized++
			}
		}
	}
	return normalized
}

// fillNulls replaces nulls in required columns: the declared default when one
// exists, otherwise the column's mode (text family) or median (numeric).
func fillNulls(s *model.Schema, ds *model.Dataset) int {
	filled := 0
	for _, col := range s.Columns {
		if col.Nullable || !ds.HasColumn(col.Name) {
			continue
		}

		fill, ok := fillValue(col, ds)
		if !ok {
			continue
		}
		for _, row := range ds.Rows {
			if row[col.Name] == nil {
				row[col.Name] = fill
				filled++
			}
		}
	}
	return filled
}

// fillValue picks the replacement for a required column's nulls.
func fillValue(col model.Column, ds *model.Dataset) (any, bool) {
	if col.Default != nil {
		if v, ok := convertValue(col.Type, *col.Default); ok {
			return v, true
		}
	}
	if col.Type.Numeric() {
		return medianValue(col, ds)
	}
	return modeValue(col, ds)
}

func medianValue(col model.Column, ds *model.Dataset) (any, bool) {
	var vals []float64
	for _, row := range ds.Rows {
		switch x := row[col.Name].(type) {
		case int64:
			vals = append(vals, float64(x))
		case float64:
			vals = append(vals, x)
		}
	}
	if len(vals) == 0 {
		return nil, false
	}
	sort.Float64s(vals)
	med := vals[len(vals)/2]
	if col.Type == model.TypeInteger {
		return int64(med), true
	}
	return med, true
}

func modeValue(col model.Column, ds *model.Dataset) (any, bool) {
	counts := make(map[string]int)
	for _, row := range ds.Rows {
		if v, ok := row[col.Name].(string); ok {
			counts[v]++
		}
	}
	best, bestCount := "", 0
	for v, n := range counts {
		if n > bestCount || (n == bestCount && v < best) {
			best, bestCount = v, n
		}
	}
	if bestCount == 0 {
		return nil, false
	}
	return best, true
}

// dedupRows removes exact duplicates when the schema declares uniqueness,
// keyed on the primary key when one exists and on all columns otherwise.
// Row order is preserved; the first occurrence wins.
func dedupRows(s *model.Schema, ds *model.Dataset) int {
	declared := false
	for _, c := range s.Columns {
		if c.PrimaryKey || c.Unique {
			declared = true
			break
		}
	}
	if !declared || len(ds.Rows) == 0 {
		return 0
	}

	keys := s.PrimaryKey()
	if len(keys) == 0 {
		keys = ds.Columns
	}

	seen := make(map[string]struct{}, len(ds.Rows))
	kept := ds.Rows[:0]
	removed := 0
	for _, row := range ds.Rows {
		var sb strings.Builder
		for _, k := range keys {
			fmt.Fprintf(&sb, "%v\x1f", row[k])
		}
		key := sb.String()
		if _, dup := seen[key]; dup {
			removed++
			continue
		}
		seen[key] = struct{}{}
		kept = append(kept, row)
	}
	ds.Rows = kept
	return removed
}
