package process

import (
	"errors"
	"math"
	"testing"

	"github.com/ndmokit/ndmokit/internal/config"
	"github.com/ndmokit/ndmokit/internal/model"
	"github.com/ndmokit/ndmokit/internal/scorer"
	"github.com/ndmokit/ndmokit/internal/standards"
)

func testProcessPipeline() *Pipeline {
	cfg := config.Default()
	sc := scorer.New(standards.NewRegistry(), cfg, nil)
	return New(sc, cfg, nil)
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func stageReport(t *testing.T, res *Result, name string) StageReport {
	t.Helper()
	for _, sr := range res.Stages {
		if sr.Stage == name {
			return sr
		}
	}
	t.Fatalf("stage %q missing from result", name)
	return StageReport{}
}

// customersSchema declares a keyed table with one required text column, so
// the pipeline has something to fill, normalize, and dedupe against.
func customersSchema() *model.Schema {
	return &model.Schema{
		TableName: "customers",
		Columns: []model.Column{
			{Name: "id", Type: model.TypeInteger, PrimaryKey: true, Unique: true},
			{Name: "name", Type: model.TypeText},
			{Name: "email", Type: model.TypeEmail, Nullable: true},
		},
	}
}

// customersDataset is ten rows as a CSV loader would produce them: string
// cells and nils. Rows 9 and 10 repeat the keys of rows 1 and 2, one name
// carries stray whitespace, and one required name is null.
func customersDataset() *model.Dataset {
	mk := func(id, name, email any) model.Row {
		return model.Row{"id": id, "name": name, "email": email}
	}
	return &model.Dataset{
		Columns: []string{"id", "name", "email"},
		Rows: []model.Row{
			mk("1", " Alice ", "alice@example.com"),
			mk("2", "Bob", "bob@example.com"),
			mk("3", "Cara", nil),
			mk("4", nil, "dana@example.com"),
			mk("5", "Eve", "eve@example.com"),
			mk("6", "Frank", nil),
			mk("7", "Grace", "grace@example.com"),
			mk("8", "Heidi", "heidi@example.com"),
			mk("1", "Alice", "alice@example.com"),
			mk("2", "Bob", "bob@example.com"),
		},
	}
}

// ---------------------------------------------------------------------------
// Full run
// ---------------------------------------------------------------------------

func TestRun_ExecutesAllStagesInOrder(t *testing.T) {
	res, err := testProcessPipeline().Run(customersSchema(), customersDataset())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	wantStages := []string{
		StageStructure, StageSchema, StageConvert, StageAnalysis,
		StageImprovement, StageCompliance, StageFinalize,
	}
	if len(res.Stages) != len(wantStages) {
		t.Fatalf("stage count = %d, want %d", len(res.Stages), len(wantStages))
	}
	for i, want := range wantStages {
		if res.Stages[i].Stage != want {
			t.Errorf("stage %d = %q, want %q", i, res.Stages[i].Stage, want)
		}
	}
	if len(res.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", res.Warnings)
	}
}

func TestRun_DeduplicatesKeyedRows(t *testing.T) {
	res, err := testProcessPipeline().Run(customersSchema(), customersDataset())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if res.RowsIn != 10 || res.RowsOut != 8 {
		t.Errorf("rows in/out = %d/%d, want 10/8", res.RowsIn, res.RowsOut)
	}
	if res.DuplicatesRemoved != 2 {
		t.Errorf("duplicates removed = %d, want 2", res.DuplicatesRemoved)
	}
	if !almostEqual(res.Before.Uniqueness, 0.8) {
		t.Errorf("uniqueness before = %v, want 0.8", res.Before.Uniqueness)
	}
	if !almostEqual(res.After.Uniqueness, 1.0) {
		t.Errorf("uniqueness after = %v, want 1.0", res.After.Uniqueness)
	}
	if !almostEqual(res.Deltas.Uniqueness, 0.2) {
		t.Errorf("uniqueness delta = %v, want 0.2", res.Deltas.Uniqueness)
	}
	// First occurrence wins, so row order starts 1, 2, 3.
	if got := res.Dataset.Rows[0]["id"]; got != int64(1) {
		t.Errorf("first row id = %v (%T), want int64 1", got, got)
	}
}

func TestRun_FillsRequiredNulls(t *testing.T) {
	res, err := testProcessPipeline().Run(customersSchema(), customersDataset())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if res.CellsFilled != 1 {
		t.Errorf("cells filled = %d, want 1", res.CellsFilled)
	}
	if !almostEqual(res.Before.Completeness, 0.95) {
		t.Errorf("completeness before = %v, want 0.95 (19 of 20 required cells)", res.Before.Completeness)
	}
	if !almostEqual(res.After.Completeness, 1.0) {
		t.Errorf("completeness after = %v, want 1.0", res.After.Completeness)
	}
	// The null name is filled with the column's mode.
	for _, row := range res.Dataset.Rows {
		if row["name"] == nil {
			t.Error("required name still null after improvement")
		}
	}
}

func TestRun_NormalizesTextCells(t *testing.T) {
	res, err := testProcessPipeline().Run(customersSchema(), customersDataset())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if res.CellsNormalized != 1 {
		t.Errorf("cells normalized = %d, want 1 (whitespace trim)", res.CellsNormalized)
	}
	if got := res.Dataset.Rows[0]["name"]; got != "Alice" {
		t.Errorf("row 0 name = %q, want trimmed %q", got, "Alice")
	}
}

func TestRun_NormalizedCategoricalsStayValid(t *testing.T) {
	// The allowed-value set keeps its observed casing; lowercasing the cells
	// during improvement must not turn them into constraint violations.
	s := &model.Schema{
		TableName: "accounts",
		Columns: []model.Column{
			{
				Name:     "tier",
				Type:     model.TypeCategorical,
				Nullable: true,
				Constraints: model.Constraints{
					AllowedValues: []string{"Gold", "Silver"},
				},
			},
		},
	}
	ds := &model.Dataset{
		Columns: []string{"tier"},
		Rows: []model.Row{
			{"tier": "Gold"},
			{"tier": "Silver"},
			{"tier": "Gold"},
		},
	}

	res, err := testProcessPipeline().Run(s, ds)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if res.CellsNormalized != 3 {
		t.Errorf("cells normalized = %d, want 3", res.CellsNormalized)
	}
	if got := res.Dataset.Rows[0]["tier"]; got != "gold" {
		t.Errorf("row 0 tier = %q, want %q", got, "gold")
	}
	if !almostEqual(res.After.Validity, 1.0) {
		t.Errorf("validity after = %v, want 1.0", res.After.Validity)
	}
	if res.After.Validity < res.Before.Validity {
		t.Errorf("improvement lowered validity: before %v after %v", res.Before.Validity, res.After.Validity)
	}
}

func TestRun_AccuracyReflectsTouchedCells(t *testing.T) {
	res, err := testProcessPipeline().Run(customersSchema(), customersDataset())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	// Before any improvement nothing was corrected.
	if !almostEqual(res.Before.Accuracy, 1.0) {
		t.Errorf("accuracy before = %v, want 1.0", res.Before.Accuracy)
	}
	// One fill plus one normalization over the 24 remaining cells.
	want := 1 - 2.0/24.0
	if !almostEqual(res.After.Accuracy, want) {
		t.Errorf("accuracy after = %v, want %v", res.After.Accuracy, want)
	}
}

func TestRun_CountsSchemaViolations(t *testing.T) {
	res, err := testProcessPipeline().Run(customersSchema(), customersDataset())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if res.Violations["name"] != 1 {
		t.Errorf("name violations = %d, want 1 (null in required column)", res.Violations["name"])
	}
	if res.Violations["id"] != 0 {
		t.Errorf("id violations = %d, want 0", res.Violations["id"])
	}
}

func TestRun_AssessmentIsDataAware(t *testing.T) {
	res, err := testProcessPipeline().Run(customersSchema(), customersDataset())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if !res.Assessment.DataAware {
		t.Error("compliance check should run data-aware")
	}
	sr := stageReport(t, res, StageCompliance)
	if sr.Assessment == nil {
		t.Fatal("compliance stage carries no assessment")
	}
}

func TestRun_DoesNotMutateInput(t *testing.T) {
	ds := customersDataset()

	_, err := testProcessPipeline().Run(customersSchema(), ds)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(ds.Rows) != 10 {
		t.Fatalf("input dataset has %d rows, want 10", len(ds.Rows))
	}
	if got := ds.Rows[0]["id"]; got != "1" {
		t.Errorf("input cell converted in place: id = %v (%T), want string", got, got)
	}
	if got := ds.Rows[0]["name"]; got != " Alice " {
		t.Errorf("input cell normalized in place: name = %q", got)
	}
}

// ---------------------------------------------------------------------------
// Conversion
// ---------------------------------------------------------------------------

func TestRun_ConversionFailuresBecomeNulls(t *testing.T) {
	schema := &model.Schema{
		TableName: "readings",
		Columns: []model.Column{
			{Name: "id", Type: model.TypeInteger, PrimaryKey: true},
			{Name: "age", Type: model.TypeInteger, Nullable: true},
			{Name: "active", Type: model.TypeBoolean, Nullable: true},
		},
	}
	ds := &model.Dataset{
		Columns: []string{"id", "age", "active"},
		Rows: []model.Row{
			{"id": "1", "age": "30", "active": "true"},
			{"id": "2", "age": "abc", "active": "false"},
			{"id": "3", "age": 45.5, "active": "maybe"},
		},
	}

	res, err := testProcessPipeline().Run(schema, ds)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if res.ConversionFailures != 3 {
		t.Errorf("conversion failures = %d, want 3", res.ConversionFailures)
	}
	sr := stageReport(t, res, StageConvert)
	if sr.ConversionFailures["age"] != 2 {
		t.Errorf("age failures = %d, want 2", sr.ConversionFailures["age"])
	}
	if sr.ConversionFailures["active"] != 1 {
		t.Errorf("active failures = %d, want 1", sr.ConversionFailures["active"])
	}

	if got := res.Dataset.Rows[0]["age"]; got != int64(30) {
		t.Errorf("converted age = %v (%T), want int64 30", got, got)
	}
	if got := res.Dataset.Rows[0]["active"]; got != true {
		t.Errorf("converted active = %v, want true", got)
	}
	if res.Dataset.Rows[1]["age"] != nil {
		t.Errorf("unconvertible age = %v, want null", res.Dataset.Rows[1]["age"])
	}
	if res.Dataset.Rows[2]["active"] != nil {
		t.Errorf("unconvertible active = %v, want null", res.Dataset.Rows[2]["active"])
	}
}

// ---------------------------------------------------------------------------
// Structure validation
// ---------------------------------------------------------------------------

func TestRun_MissingRequiredColumnIsFatal(t *testing.T) {
	schema := &model.Schema{
		TableName: "orders",
		Columns: []model.Column{
			{Name: "id", Type: model.TypeInteger},
			{Name: "note", Type: model.TypeText, Nullable: true},
		},
	}
	ds := &model.Dataset{Columns: []string{"note"}, Rows: []model.Row{{"note": "x"}}}

	res, err := testProcessPipeline().Run(schema, ds)

	if res != nil {
		t.Error("expected no partial result on a structural failure")
	}
	var se *model.StructuralError
	if !errors.As(err, &se) {
		t.Fatalf("error = %v, want *model.StructuralError", err)
	}
	if len(se.MissingColumns) != 1 || se.MissingColumns[0] != "id" {
		t.Errorf("missing columns = %v, want [id]", se.MissingColumns)
	}
	if se.TableName != "orders" {
		t.Errorf("table name = %q, want orders", se.TableName)
	}
}

func TestRun_DefaultedColumnsAreNotStructurallyRequired(t *testing.T) {
	def := "system"
	schema := &model.Schema{
		TableName: "orders",
		Columns: []model.Column{
			{Name: "id", Type: model.TypeInteger},
			{Name: "created_by", Type: model.TypeText, Default: &def},
		},
	}
	ds := &model.Dataset{Columns: []string{"id"}, Rows: []model.Row{{"id": "1"}}}

	if _, err := testProcessPipeline().Run(schema, ds); err != nil {
		t.Fatalf("Run() error = %v, want defaulted column exempt from structure check", err)
	}
}

// ---------------------------------------------------------------------------
// Deduplication preconditions
// ---------------------------------------------------------------------------

func TestRun_NoDedupWithoutDeclaredUniqueness(t *testing.T) {
	schema := &model.Schema{
		TableName: "log",
		Columns: []model.Column{
			{Name: "event", Type: model.TypeText},
		},
	}
	ds := &model.Dataset{
		Columns: []string{"event"},
		Rows: []model.Row{
			{"event": "a"},
			{"event": "a"},
		},
	}

	res, err := testProcessPipeline().Run(schema, ds)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.RowsOut != 2 || res.DuplicatesRemoved != 0 {
		t.Errorf("rows out = %d, removed = %d; repeated rows must survive without a declared key",
			res.RowsOut, res.DuplicatesRemoved)
	}
}

// ---------------------------------------------------------------------------
// Metrics
// ---------------------------------------------------------------------------

func TestComputeMetrics_PerfectDataset(t *testing.T) {
	schema := customersSchema()
	ds := &model.Dataset{
		Columns: []string{"id", "name", "email"},
		Rows: []model.Row{
			{"id": int64(1), "name": "Alice", "email": "alice@example.com"},
			{"id": int64(2), "name": "Bob", "email": nil},
		},
	}

	m := ComputeMetrics(schema, ds, config.Default().MetricWeights, 0)

	for name, got := range map[string]float64{
		"completeness": m.Completeness,
		"accuracy":     m.Accuracy,
		"consistency":  m.Consistency,
		"uniqueness":   m.Uniqueness,
		"validity":     m.Validity,
		"overall":      m.OverallScore,
	} {
		if !almostEqual(got, 1.0) {
			t.Errorf("%s = %v, want 1.0", name, got)
		}
	}
}

func TestComputeMetrics_EmptyDataset(t *testing.T) {
	ds := &model.Dataset{Columns: []string{"id"}}

	m := ComputeMetrics(customersSchema(), ds, config.Default().MetricWeights, 0)

	if !almostEqual(m.OverallScore, 1.0) {
		t.Errorf("overall = %v, want 1.0 for an empty dataset", m.OverallScore)
	}
}

func TestComputeMetrics_ConsistencyAgainstRules(t *testing.T) {
	schema := &model.Schema{
		TableName: "employees",
		Columns: []model.Column{
			{Name: "salary", Type: model.TypeFloat},
		},
		Rules: []model.BusinessRule{
			{ID: "BR-1", Expression: "salary >= 0"},
		},
	}
	ds := &model.Dataset{
		Columns: []string{"salary"},
		Rows: []model.Row{
			{"salary": float64(100)},
			{"salary": float64(-5)},
			{"salary": float64(50)},
			{"salary": float64(70)},
		},
	}

	m := ComputeMetrics(schema, ds, config.Default().MetricWeights, 0)

	if !almostEqual(m.Consistency, 0.75) {
		t.Errorf("consistency = %v, want 0.75 (3 of 4 rows pass)", m.Consistency)
	}
}

func TestComputeMetrics_AccuracyClampsAtZero(t *testing.T) {
	ds := &model.Dataset{
		Columns: []string{"a"},
		Rows:    []model.Row{{"a": "x"}},
	}

	m := ComputeMetrics(&model.Schema{TableName: "t"}, ds, config.Default().MetricWeights, 5)

	if m.Accuracy != 0 {
		t.Errorf("accuracy = %v, want clamp to 0", m.Accuracy)
	}
}
