package standards

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ndmokit/ndmokit/internal/infer"
	"github.com/ndmokit/ndmokit/internal/model"
	"github.com/ndmokit/ndmokit/internal/rules"
)

// Column names the remediation pipeline adds and several evaluators look
// for. Kept here so evaluators and pipeline agree on spelling.
var (
	AuditColumns     = []string{"created_at", "updated_at", "created_by"}
	LineageColumns   = []string{"source_system", "extraction_date"}
	OwnershipColumns = []string{"data_owner", "data_steward"}
	AccessColumns    = []string{"data_classification", "access_level"}
)

// sensitiveNames flags columns whose contents call for masking and
// encryption annotations.
var sensitiveNames = []string{
	"ssn", "salary", "password", "secret", "token",
	"iban", "credit", "card", "national_id", "passport", "birth",
}

// IsSensitiveName reports whether a column name matches the sensitive-data
// heuristics.
func IsSensitiveName(name string) bool {
	lower := strings.ToLower(name)
	for _, marker := range sensitiveNames {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

var snakeCase = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// ---------------------------------------------------------------------------
// Governance
// ---------------------------------------------------------------------------

// evalUniqueIdentifiers (DG001): a declared primary key scores 1.0; a
// key-eligible or unique column scores 0.5; with data, declared keys are
// verified against actual value uniqueness.
func evalUniqueIdentifiers(s *model.Schema, ds *model.Dataset) (float64, string, []string) {
	keys := s.PrimaryKey()
	if len(keys) == 0 {
		for _, c := range s.Columns {
			if c.PrimaryKeyEligible || c.Unique {
				return 0.5, fmt.Sprintf("column %q is key-eligible but not promoted to primary key", c.Name), []string{c.Name}
			}
		}
		return 0, "schema has no primary key or unique identifier column", nil
	}

	if ds == nil || len(ds.Rows) == 0 {
		return 1, fmt.Sprintf("primary key declared on %s", strings.Join(keys, ", ")), keys
	}

	seen := make(map[string]struct{}, len(ds.Rows))
	dups := 0
	for _, row := range ds.Rows {
		var sb strings.Builder
		for _, k := range keys {
			fmt.Fprintf(&sb, "%v\x1f", row[k])
		}
		key := sb.String()
		if _, ok := seen[key]; ok {
			dups++
			continue
		}
		seen[key] = struct{}{}
	}
	score := 1 - float64(dups)/float64(len(ds.Rows))
	msg := fmt.Sprintf("primary key %s: %d duplicate key values in %d rows", strings.Join(keys, ", "), dups, len(ds.Rows))
	return score, msg, keys
}

// evalDataLineage (DG002): fraction of lineage columns present.
func evalDataLineage(s *model.Schema, _ *model.Dataset) (float64, string, []string) {
	return columnPresence(s, LineageColumns, "lineage")
}

// evalDataOwnership (DG003): fraction of ownership columns present.
func evalDataOwnership(s *model.Schema, _ *model.Dataset) (float64, string, []string) {
	return columnPresence(s, OwnershipColumns, "ownership")
}

// ---------------------------------------------------------------------------
// Quality
// ---------------------------------------------------------------------------

// evalCompleteness (DQ001): with data, the non-null cell ratio over required
// columns; schema-only, the share of columns declared required against a 30%
// baseline.
func evalCompleteness(s *model.Schema, ds *model.Dataset) (float64, string, []string) {
	required := s.RequiredColumns()

	if ds != nil && len(ds.Rows) > 0 {
		if len(required) == 0 {
			return 1, "no required columns declared", nil
		}
		total, nonNull := 0, 0
		var affected []string
		for _, name := range required {
			if !ds.HasColumn(name) {
				continue
			}
			colNull := 0
			for _, row := range ds.Rows {
				total++
				if row[name] != nil {
					nonNull++
				} else {
					colNull++
				}
			}
			if colNull > 0 {
				affected = append(affected, name)
			}
		}
		if total == 0 {
			return 1, "required columns absent from dataset", required
		}
		score := float64(nonNull) / float64(total)
		return score, fmt.Sprintf("%d of %d required cells populated", nonNull, total), affected
	}

	if len(s.Columns) == 0 {
		return 0, "schema has no columns", nil
	}
	baseline := float64(len(s.Columns)) * 0.3
	if baseline < 1 {
		baseline = 1
	}
	score := float64(len(required)) / baseline
	if score > 1 {
		score = 1
	}
	return score, fmt.Sprintf("%d of %d columns declared required", len(required), len(s.Columns)), nil
}

// evalAccuracy (DQ002): with data, the fraction of non-null cells matching
// the declared column type; schema-only, the share of columns carrying a
// specific (non-generic-text) type or constraints.
func evalAccuracy(s *model.Schema, ds *model.Dataset) (float64, string, []string) {
	if ds != nil && len(ds.Rows) > 0 {
		total, ok := 0, 0
		affectedSet := map[string]struct{}{}
		for _, col := range s.Columns {
			if !ds.HasColumn(col.Name) {
				continue
			}
			for _, row := range ds.Rows {
				v := row[col.Name]
				if v == nil {
					continue
				}
				total++
				if infer.ConformsType(col.Type, v) {
					ok++
				} else {
					affectedSet[col.Name] = struct{}{}
				}
			}
		}
		if total == 0 {
			return 1, "no non-null cells to verify", nil
		}
		return float64(ok) / float64(total),
			fmt.Sprintf("%d of %d cells match declared types", ok, total),
			setToSlice(affectedSet)
	}

	if len(s.Columns) == 0 {
		return 0, "schema has no columns", nil
	}
	specific := 0
	for _, c := range s.Columns {
		if c.Type != model.TypeText || !c.Constraints.Empty() {
			specific++
		}
	}
	return float64(specific) / float64(len(s.Columns)),
		fmt.Sprintf("%d of %d columns carry a specific type or constraints", specific, len(s.Columns)), nil
}

// evalConsistency (DQ003): with data, the fraction of rows passing every
// business rule; schema-only, 1.0 when rules are declared and 0.5 when none
// are (undocumented consistency intent).
func evalConsistency(s *model.Schema, ds *model.Dataset) (float64, string, []string) {
	compiled, ruleCols := compileRules(s)
	if len(compiled) == 0 {
		return 0.5, "no business rules declared", nil
	}
	if ds == nil || len(ds.Rows) == 0 {
		return 1, fmt.Sprintf("%d business rules declared", len(compiled)), ruleCols
	}

	passing := 0
	for _, row := range ds.Rows {
		if rowPassesAll(compiled, row) {
			passing++
		}
	}
	score := float64(passing) / float64(len(ds.Rows))
	return score, fmt.Sprintf("%d of %d rows satisfy all business rules", passing, len(ds.Rows)), ruleCols
}

// evalUniqueness (DQ004): with data, one minus the duplicate-row ratio
// (keyed on the declared primary key when one exists); schema-only, presence
// of any uniqueness declaration.
func evalUniqueness(s *model.Schema, ds *model.Dataset) (float64, string, []string) {
	if ds != nil && len(ds.Rows) > 0 {
		dups := DuplicateRows(s, ds)
		score := 1 - float64(dups)/float64(len(ds.Rows))
		return score, fmt.Sprintf("%d duplicate rows in %d", dups, len(ds.Rows)), nil
	}

	for _, c := range s.Columns {
		if c.PrimaryKey || c.Unique {
			return 1, fmt.Sprintf("uniqueness declared on %q", c.Name), []string{c.Name}
		}
	}
	return 0.5, "no uniqueness constraints declared", nil
}

// evalValidity (DQ005): with data, the fraction of cells passing type and
// constraint checks; schema-only, the share of columns that have both a type
// and at least one constraint.
func evalValidity(s *model.Schema, ds *model.Dataset) (float64, string, []string) {
	if ds != nil && len(ds.Rows) > 0 {
		total, ok := 0, 0
		affectedSet := map[string]struct{}{}
		for _, col := range s.Columns {
			if !ds.HasColumn(col.Name) {
				continue
			}
			for _, row := range ds.Rows {
				total++
				if infer.Conforms(col, row[col.Name]) {
					ok++
				} else {
					affectedSet[col.Name] = struct{}{}
				}
			}
		}
		if total == 0 {
			return 1, "no cells to verify", nil
		}
		return float64(ok) / float64(total),
			fmt.Sprintf("%d of %d cells pass validation", ok, total),
			setToSlice(affectedSet)
	}

	if len(s.Columns) == 0 {
		return 0, "schema has no columns", nil
	}
	valid := 0
	for _, c := range s.Columns {
		if !c.Constraints.Empty() {
			valid++
		}
	}
	return float64(valid) / float64(len(s.Columns)),
		fmt.Sprintf("%d of %d columns carry constraints", valid, len(s.Columns)), nil
}

// evalTimeliness (DQ006): presence of creation/update timestamps, the only
// timeliness signal available without an external clock of record.
func evalTimeliness(s *model.Schema, _ *model.Dataset) (float64, string, []string) {
	return columnPresence(s, []string{"created_at", "updated_at"}, "timestamp")
}

// ---------------------------------------------------------------------------
// Security
// ---------------------------------------------------------------------------

// evalEncryption (DS001): every sensitive-named column must carry the
// encryption annotation.
func evalEncryption(s *model.Schema, _ *model.Dataset) (float64, string, []string) {
	return sensitiveAnnotation(s, func(c model.Column) bool { return c.Encrypted }, "encryption")
}

// evalAccessControl (DS002): an access-control column (classification or
// access level) must exist.
func evalAccessControl(s *model.Schema, _ *model.Dataset) (float64, string, []string) {
	for _, name := range AccessColumns {
		if s.HasColumn(name) {
			return 1, fmt.Sprintf("access control column %q present", name), []string{name}
		}
	}
	return 0, "no access control or classification column", nil
}

// evalMasking (DS003): every sensitive-named column must carry the masking
// annotation.
func evalMasking(s *model.Schema, _ *model.Dataset) (float64, string, []string) {
	return sensitiveAnnotation(s, func(c model.Column) bool { return c.Masked }, "masking")
}

// evalAuditTrail (DS004): fraction of audit columns present.
func evalAuditTrail(s *model.Schema, _ *model.Dataset) (float64, string, []string) {
	return columnPresence(s, AuditColumns, "audit")
}

// ---------------------------------------------------------------------------
// Architecture
// ---------------------------------------------------------------------------

// evalModeling (DA001): fraction of snake_case column names.
func evalModeling(s *model.Schema, _ *model.Dataset) (float64, string, []string) {
	if len(s.Columns) == 0 {
		return 0, "schema has no columns", nil
	}
	ok := 0
	var affected []string
	for _, c := range s.Columns {
		if snakeCase.MatchString(c.Name) {
			ok++
		} else {
			affected = append(affected, c.Name)
		}
	}
	return float64(ok) / float64(len(s.Columns)),
		fmt.Sprintf("%d of %d columns follow naming conventions", ok, len(s.Columns)), affected
}

// evalIntegration (DA002): half the score for a documented source, half for
// lineage columns.
func evalIntegration(s *model.Schema, _ *model.Dataset) (float64, string, []string) {
	score := 0.0
	if s.SourceFile != "" {
		score += 0.5
	}
	lineage, _, affected := columnPresence(s, LineageColumns, "lineage")
	score += 0.5 * lineage
	return score, "source documentation and lineage columns", affected
}

// evalStorage (DA003): a creation timestamp anchors any retention policy.
func evalStorage(s *model.Schema, _ *model.Dataset) (float64, string, []string) {
	if c := s.Column("created_at"); c != nil && c.Type == model.TypeDatetime {
		return 1, "retention anchor created_at present", []string{"created_at"}
	}
	return 0, "no datetime created_at column for retention tracking", nil
}

// ---------------------------------------------------------------------------
// Business rules
// ---------------------------------------------------------------------------

// evalRuleValidation (BR001): fraction of declared rules that compile; 0.5
// when none are declared, matching the partial credit of the source rubric.
func evalRuleValidation(s *model.Schema, _ *model.Dataset) (float64, string, []string) {
	if len(s.Rules) == 0 {
		return 0.5, "no business rules declared", nil
	}
	ok := 0
	var affected []string
	for _, r := range s.Rules {
		if _, err := rules.Compile(r.Expression); err == nil {
			ok++
		} else {
			affected = append(affected, r.ID)
		}
	}
	return float64(ok) / float64(len(s.Rules)),
		fmt.Sprintf("%d of %d rules are well-formed", ok, len(s.Rules)), affected
}

// evalRelationships (BR002): every foreign-key column must name its
// referenced table. Schemas without foreign keys pass.
func evalRelationships(s *model.Schema, _ *model.Dataset) (float64, string, []string) {
	fks, resolved := 0, 0
	var affected []string
	for _, c := range s.Columns {
		if !c.ForeignKey {
			continue
		}
		fks++
		if c.References != "" {
			resolved++
		} else {
			affected = append(affected, c.Name)
		}
	}
	if fks == 0 {
		return 1, "no foreign key columns", nil
	}
	return float64(resolved) / float64(fks),
		fmt.Sprintf("%d of %d foreign keys name their target", resolved, fks), affected
}

// evalCalculatedFields (BR003): cross-field rules (those naming two or more
// columns) checked against data when available.
func evalCalculatedFields(s *model.Schema, ds *model.Dataset) (float64, string, []string) {
	var crossField []*rules.Rule
	var affected []string
	for _, r := range s.Rules {
		if len(r.Columns) < 2 {
			continue
		}
		compiled, err := rules.Compile(r.Expression)
		if err != nil {
			continue
		}
		crossField = append(crossField, compiled)
		affected = append(affected, r.Columns...)
	}
	if len(crossField) == 0 {
		return 0.5, "no cross-field rules declared", nil
	}
	if ds == nil || len(ds.Rows) == 0 {
		return 1, fmt.Sprintf("%d cross-field rules declared", len(crossField)), affected
	}
	passing := 0
	for _, row := range ds.Rows {
		if rowPassesAll(crossField, row) {
			passing++
		}
	}
	return float64(passing) / float64(len(ds.Rows)),
		fmt.Sprintf("%d of %d rows satisfy cross-field rules", passing, len(ds.Rows)), affected
}

// ---------------------------------------------------------------------------
// Shared helpers
// ---------------------------------------------------------------------------

// DuplicateRows counts duplicate rows in a dataset, keyed on the schema's
// primary key when declared, otherwise on all columns.
func DuplicateRows(s *model.Schema, ds *model.Dataset) int {
	keys := s.PrimaryKey()
	if len(keys) == 0 {
		keys = ds.Columns
	}
	seen := make(map[string]struct{}, len(ds.Rows))
	dups := 0
	for _, row := range ds.Rows {
		var sb strings.Builder
		for _, k := range keys {
			fmt.Fprintf(&sb, "%v\x1f", row[k])
		}
		key := sb.String()
		if _, ok := seen[key]; ok {
			dups++
			continue
		}
		seen[key] = struct{}{}
	}
	return dups
}

func columnPresence(s *model.Schema, wanted []string, kind string) (float64, string, []string) {
	present := 0
	var missing []string
	for _, name := range wanted {
		if s.HasColumn(name) {
			present++
		} else {
			missing = append(missing, name)
		}
	}
	score := float64(present) / float64(len(wanted))
	msg := fmt.Sprintf("%d of %d %s columns present", present, len(wanted), kind)
	if len(missing) > 0 {
		msg += " (missing " + strings.Join(missing, ", ") + ")"
	}
	return score, msg, missing
}

func sensitiveAnnotation(s *model.Schema, annotated func(model.Column) bool, kind string) (float64, string, []string) {
	sensitive, ok := 0, 0
	var affected []string
	for _, c := range s.Columns {
		if !IsSensitiveName(c.Name) {
			continue
		}
		sensitive++
		if annotated(c) {
			ok++
		} else {
			affected = append(affected, c.Name)
		}
	}
	if sensitive == 0 {
		return 1, "no sensitive columns detected", nil
	}
	return float64(ok) / float64(sensitive),
		fmt.Sprintf("%d of %d sensitive columns carry %s", ok, sensitive, kind), affected
}

func compileRules(s *model.Schema) ([]*rules.Rule, []string) {
	var compiled []*rules.Rule
	colSet := map[string]struct{}{}
	add := func(expr string, cols []string) {
		r, err := rules.Compile(expr)
		if err != nil {
			return
		}
		compiled = append(compiled, r)
		for _, c := range cols {
			colSet[c] = struct{}{}
		}
	}
	for _, r := range s.Rules {
		add(r.Expression, r.Columns)
	}
	for _, c := range s.Columns {
		if c.BusinessRule != "" {
			add(c.BusinessRule, []string{c.Name})
		}
	}
	return compiled, setToSlice(colSet)
}

func rowPassesAll(compiled []*rules.Rule, row model.Row) bool {
	for _, r := range compiled {
		ok, err := r.Eval(row)
		if err != nil || !ok {
			return false
		}
	}
	return true
}

func setToSlice(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	// Deterministic order for stable messages and tests.
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j] < out[j-1]; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}
