// Package infer builds schema column definitions from raw column data. It
// runs a prioritized chain of type detectors, flags primary/foreign key
// candidates by name and uniqueness heuristics, and extracts candidate
// constraints from the observed values. Inference never fails a schema: a
// column with no usable values degrades to nullable text marked
// low-confidence.
package infer

import (
	"strings"

	"github.com/ndmokit/ndmokit/internal/config"
	"github.com/ndmokit/ndmokit/internal/model"
)

// RawColumn is one column of already-loaded input data: a name and the full
// (or sampled) sequence of raw values, nils included.
type RawColumn struct {
	Name   string
	Values []any
}

// Inferrer derives column definitions using the configured detection
// cutoffs.
type Inferrer struct {
	cfg config.Inference
}

// New returns an Inferrer with the given inference settings.
func New(cfg config.Inference) *Inferrer {
	return &Inferrer{cfg: cfg}
}

// Schema infers a full schema for a table from its raw columns. Column order
// is preserved.
func (inf *Inferrer) Schema(tableName string, cols []RawColumn) *model.Schema {
	s := &model.Schema{
		TableName: tableName,
		Version:   1,
		Columns:   make([]model.Column, 0, len(cols)),
	}
	for _, rc := range cols {
		s.Columns = append(s.Columns, inf.Column(tableName, rc))
	}
	return s
}

// Dataset infers a schema directly from a dataset's columns.
func (inf *Inferrer) Dataset(tableName string, ds *model.Dataset) *model.Schema {
	cols := make([]RawColumn, 0, len(ds.Columns))
	for _, name := range ds.Columns {
		rc := RawColumn{Name: name, Values: make([]any, 0, len(ds.Rows))}
		for _, row := range ds.Rows {
			rc.Values = append(rc.Values, row[name])
		}
		cols = append(cols, rc)
	}
	return inf.Schema(tableName, cols)
}

// Column infers a single column definition.
func (inf *Inferrer) Column(tableName string, rc RawColumn) model.Column {
	col := model.Column{
		Name:     rc.Name,
		Type:     model.TypeText,
		Nullable: true,
	}

	nonNull := nonNullStrings(rc.Values)
	col.SampleValues = sample(nonNull, inf.cfg.SampleSize)

	if len(nonNull) == 0 {
		// Nothing to look at: text, nullable, low confidence.
		col.LowConfidence = true
		return col
	}

	col.Type = inf.detectType(nonNull)
	col.Nullable = len(nonNull) < len(rc.Values)

	unique := allUnique(nonNull)
	col.Unique = unique && !col.Nullable && len(nonNull) == len(rc.Values)

	if col.Unique && isKeyName(rc.Name, tableName) {
		col.PrimaryKeyEligible = true
	}

	if ref, ok := foreignKeyTarget(rc.Name); ok && !col.PrimaryKeyEligible {
		col.ForeignKey = true
		col.References = ref
	}

	inf.inferConstraints(&col, nonNull)
	return col
}

// Retype re-runs the detector chain at the looser retype cutoff. The
// remediation pipeline uses it to tighten text columns whose sampled values
// mostly parse as something more specific.
func (inf *Inferrer) Retype(values []string) model.ColumnType {
	if len(values) == 0 {
		return model.TypeText
	}
	return inf.detect(values, inf.cfg.RetypeRatio)
}

// detectType runs the detector chain in priority order: numeric, datetime,
// boolean, email, phone, categorical, text. The first detector whose match
// ratio meets the acceptance threshold wins.
func (inf *Inferrer) detectType(values []string) model.ColumnType {
	return inf.detect(values, inf.cfg.AcceptRatio)
}

func (inf *Inferrer) detect(values []string, accept float64) model.ColumnType {

	if ratio, isInt := numericRatio(values); ratio >= accept {
		if isInt {
			return model.TypeInteger
		}
		return model.TypeFloat
	}
	if datetimeRatio(values) >= accept {
		return model.TypeDatetime
	}
	if booleanRatio(values) >= accept {
		return model.TypeBoolean
	}
	if emailRatio(values) >= accept {
		return model.TypeEmail
	}
	if phoneRatio(values) >= accept {
		return model.TypePhone
	}
	if distinctRatio(values) < inf.cfg.CategoricalMaxRatio {
		return model.TypeCategorical
	}
	return model.TypeText
}

// isKeyName reports whether a column name looks like an identifier: "id",
// "<table>_id", or any name ending in "id"/"key".
func isKeyName(name, tableName string) bool {
	lower := strings.ToLower(strings.TrimSpace(name))
	if lower == "id" || lower == strings.ToLower(tableName)+"_id" {
		return true
	}
	return strings.HasSuffix(lower, "id") || strings.HasSuffix(lower, "_key")
}

// foreignKeyTarget derives a referenced table name from foreign-key naming
// patterns like customer_id or ref_order.
func foreignKeyTarget(name string) (string, bool) {
	lower := strings.ToLower(strings.TrimSpace(name))
	switch {
	case lower == "id":
		return "", false
	case strings.HasSuffix(lower, "_id"):
		return strings.TrimSuffix(lower, "_id"), true
	case strings.HasSuffix(lower, "_key"):
		return strings.TrimSuffix(lower, "_key"), true
	case strings.HasPrefix(lower, "ref_"):
		return strings.TrimPrefix(lower, "ref_"), true
	}
	return "", false
}

func nonNullStrings(values []any) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == nil {
			continue
		}
		s := strings.TrimSpace(stringValue(v))
		if s == "" {
			continue
		}
		out = append(out, s)
	}
	return out
}

func allUnique(values []string) bool {
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		if _, dup := seen[v]; dup {
			return false
		}
		seen[v] = struct{}{}
	}
	return true
}

func distinctRatio(values []string) float64 {
	if len(values) == 0 {
		return 1
	}
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		seen[v] = struct{}{}
	}
	return float64(len(seen)) / float64(len(values))
}

func sample(values []string, n int) []string {
	if n <= 0 || len(values) <= n {
		return append([]string(nil), values...)
	}
	return append([]string(nil), values[:n]...)
}
