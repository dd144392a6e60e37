package remediate

import (
	"sort"
	"strconv"

	"github.com/ndmokit/ndmokit/internal/model"
	"github.com/ndmokit/ndmokit/internal/standards"
)

// Stage names, in execution order.
const (
	StageBackup      = "backup"
	StageAnalyze     = "analyze"
	StagePrimaryKey  = "primary_key"
	StageAuditFields = "audit_fields"
	StageTypes       = "type_optimization"
	StageSecurity    = "security_constraints"
	StageValidate    = "validate"
)

// stage is one remediation step. Stages mutate the working schema in place;
// the pipeline snapshots around each call and converts mutations into a
// change list.
type stage struct {
	name string
	run  func(p *Pipeline, st *runState) error
}

// runState is the mutable state threaded through a single pipeline run.
type runState struct {
	schema   *model.Schema
	ds       *model.Dataset
	backup   *model.Schema
	baseline *model.Assessment
	final    *model.Assessment
}

func pipelineStages() []stage {
	return []stage{
		{StageBackup, (*Pipeline).stageBackup},
		{StageAnalyze, (*Pipeline).stageAnalyze},
		{StagePrimaryKey, (*Pipeline).stagePrimaryKey},
		{StageAuditFields, (*Pipeline).stageAuditFields},
		{StageTypes, (*Pipeline).stageTypes},
		{StageSecurity, (*Pipeline).stageSecurity},
		{StageValidate, (*Pipeline).stageValidate},
	}
}

// stageBackup snapshots the incoming schema before anything touches it. The
// backup is what the final report compares against.
func (p *Pipeline) stageBackup(st *runState) error {
	st.backup = st.schema.Clone()
	return nil
}

// stageAnalyze runs the baseline assessment. It mutates nothing.
func (p *Pipeline) stageAnalyze(st *runState) error {
	a := p.assess(st.schema, st.ds)
	st.baseline = &a
	return nil
}

// stagePrimaryKey ensures the schema has a primary key: a key-eligible column
// is promoted, otherwise a surrogate integer key is prepended.
func (p *Pipeline) stagePrimaryKey(st *runState) error {
	if len(st.schema.PrimaryKey()) > 0 {
		return nil
	}

	for i := range st.schema.Columns {
		col := &st.schema.Columns[i]
		if col.PrimaryKeyEligible {
			col.PrimaryKey = true
			col.Nullable = false
			return nil
		}
	}

	surrogate := st.schema.TableName + "_id"
	if st.schema.HasColumn(surrogate) {
		// Name collision with a non-key column; leave the schema alone
		// rather than shadow it.
		return nil
	}
	st.schema.Columns = append([]model.Column{{
		Name:        surrogate,
		Type:        model.TypeInteger,
		Nullable:    false,
		PrimaryKey:  true,
		Unique:      true,
		Description: "surrogate key",
	}}, st.schema.Columns...)
	return nil
}

// stageAuditFields appends the audit, lineage, and ownership columns the
// governance standards look for. Existing columns are left untouched.
func (p *Pipeline) stageAuditFields(st *runState) error {
	now := "CURRENT_TIMESTAMP"
	system := "system"
	unassigned := "unassigned"
	source := st.schema.SourceFile
	if source == "" {
		source = "unknown"
	}

	appendMissing(st.schema, model.Column{Name: "created_at", Type: model.TypeDatetime, Default: &now})
	appendMissing(st.schema, model.Column{Name: "updated_at", Type: model.TypeDatetime, Default: &now})
	appendMissing(st.schema, model.Column{Name: "created_by", Type: model.TypeText, Default: &system})
	appendMissing(st.schema, model.Column{Name: "source_system", Type: model.TypeText, Default: &source})
	appendMissing(st.schema, model.Column{Name: "extraction_date", Type: model.TypeDatetime, Default: &now})
	appendMissing(st.schema, model.Column{Name: "data_owner", Type: model.TypeText, Default: &unassigned})
	appendMissing(st.schema, model.Column{Name: "data_steward", Type: model.TypeText, Default: &unassigned})
	return nil
}

// stageTypes tightens text columns whose sampled values mostly parse as a
// more specific type. Keys and foreign keys keep their declared types.
func (p *Pipeline) stageTypes(st *runState) error {
	for i := range st.schema.Columns {
		col := &st.schema.Columns[i]
		if col.Type != model.TypeText || col.PrimaryKey || col.ForeignKey {
			continue
		}
		if len(col.SampleValues) == 0 {
			continue
		}
		if t := p.inf.Retype(col.SampleValues); t != model.TypeText && t != model.TypeCategorical {
			col.Type = t
		}
	}
	return nil
}

// stageSecurity marks sensitive columns for masking and encryption, adds a
// classification column, and attaches value constraints where samples allow.
func (p *Pipeline) stageSecurity(st *runState) error {
	for i := range st.schema.Columns {
		col := &st.schema.Columns[i]
		if standards.IsSensitiveName(col.Name) {
			col.Masked = true
			col.Encrypted = true
		}
		if col.Constraints.Empty() {
			attachConstraints(col)
		}
	}

	internal := "internal"
	appendMissing(st.schema, model.Column{
		Name:    "data_classification",
		Type:    model.TypeCategorical,
		Default: &internal,
		Constraints: model.Constraints{
			AllowedValues: []string{"confidential", "internal", "public", "restricted"},
		},
	})
	return nil
}

// stageValidate runs the closing assessment over the remediated schema.
func (p *Pipeline) stageValidate(st *runState) error {
	a := p.assess(st.schema, st.ds)
	st.final = &a
	return nil
}

// appendMissing appends col to the schema unless a column of that name
// already exists. Added columns are nullable only when they lack a default.
func appendMissing(s *model.Schema, col model.Column) {
	if s.HasColumn(col.Name) {
		return
	}
	col.Nullable = col.Default == nil
	s.Columns = append(s.Columns, col)
}

// attachConstraints derives length or range constraints from a column's
// sampled values.
func attachConstraints(col *model.Column) {
	if len(col.SampleValues) == 0 {
		return
	}
	switch {
	case col.Type.Numeric():
		lo, hi, ok := sampleRange(col.SampleValues)
		if ok {
			col.Constraints.MinValue = &lo
			col.Constraints.MaxValue = &hi
		}
	case col.Type == model.TypeText || col.Type == model.TypeCategorical:
		minLen, maxLen := sampleLengths(col.SampleValues)
		col.Constraints.MinLength = &minLen
		col.Constraints.MaxLength = &maxLen
	}
}

func sampleRange(values []string) (lo, hi float64, ok bool) {
	for _, v := range values {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			continue
		}
		if !ok {
			lo, hi, ok = f, f, true
			continue
		}
		if f < lo {
			lo = f
		}
		if f > hi {
			hi = f
		}
	}
	return lo, hi, ok
}

func sampleLengths(values []string) (minLen, maxLen int) {
	lengths := make([]int, 0, len(values))
	for _, v := range values {
		lengths = append(lengths, len(v))
	}
	sort.Ints(lengths)
	return lengths[0], lengths[len(lengths)-1]
}
