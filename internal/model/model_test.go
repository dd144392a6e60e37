package model

import (
	"encoding/json"
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// Schema
// ---------------------------------------------------------------------------

func TestSchemaClone_Independence(t *testing.T) {
	def := "x"
	maxLen := 10
	orig := &Schema{
		TableName: "t",
		Version:   2,
		Columns: []Column{
			{
				Name:         "a",
				Type:         TypeText,
				Default:      &def,
				SampleValues: []string{"one", "two"},
				Constraints: Constraints{
					MaxLength:     &maxLen,
					AllowedValues: []string{"one", "two"},
				},
			},
		},
		Rules: []BusinessRule{
			{ID: "BR-1", Expression: "a IS NOT NULL", Columns: []string{"a"}},
		},
	}

	clone := orig.Clone()

	clone.Columns[0].Name = "b"
	clone.Columns[0].SampleValues[0] = "changed"
	*clone.Columns[0].Default = "y"
	*clone.Columns[0].Constraints.MaxLength = 99
	clone.Columns[0].Constraints.AllowedValues[0] = "changed"
	clone.Rules[0].Columns[0] = "changed"

	if orig.Columns[0].Name != "a" {
		t.Error("clone shares column slice with original")
	}
	if orig.Columns[0].SampleValues[0] != "one" {
		t.Error("clone shares sample values with original")
	}
	if *orig.Columns[0].Default != "x" {
		t.Error("clone shares default pointer with original")
	}
	if *orig.Columns[0].Constraints.MaxLength != 10 {
		t.Error("clone shares constraint pointer with original")
	}
	if orig.Columns[0].Constraints.AllowedValues[0] != "one" {
		t.Error("clone shares allowed values with original")
	}
	if orig.Rules[0].Columns[0] != "a" {
		t.Error("clone shares rule columns with original")
	}
}

func TestSchemaClone_Nil(t *testing.T) {
	var s *Schema
	if s.Clone() != nil {
		t.Error("nil schema should clone to nil")
	}
}

func TestSchemaLookups(t *testing.T) {
	s := &Schema{
		TableName: "t",
		Columns: []Column{
			{Name: "id", Type: TypeInteger, PrimaryKey: true},
			{Name: "name", Type: TypeText},
			{Name: "note", Type: TypeText, Nullable: true},
		},
	}

	if !s.HasColumn("name") || s.HasColumn("ghost") {
		t.Error("HasColumn lookup wrong")
	}
	if col := s.Column("id"); col == nil || !col.PrimaryKey {
		t.Error("Column lookup wrong")
	}
	if got := s.PrimaryKey(); len(got) != 1 || got[0] != "id" {
		t.Errorf("PrimaryKey() = %v, want [id]", got)
	}
	if got := s.RequiredColumns(); len(got) != 2 {
		t.Errorf("RequiredColumns() = %v, want [id name]", got)
	}
}

func TestColumnJSON_OmitsEmptyConstraints(t *testing.T) {
	bare, err := json.Marshal(Column{Name: "a", Type: TypeText})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if strings.Contains(string(bare), `"constraints"`) {
		t.Errorf("empty constraints serialized: %s", bare)
	}

	maxLen := 10
	constrained, err := json.Marshal(Column{
		Name:        "a",
		Type:        TypeText,
		Constraints: Constraints{MaxLength: &maxLen},
	})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if !strings.Contains(string(constrained), `"constraints"`) {
		t.Errorf("non-empty constraints dropped: %s", constrained)
	}
}

func TestColumnMutationThroughPointer(t *testing.T) {
	s := &Schema{Columns: []Column{{Name: "a", Type: TypeText}}}

	s.Column("a").Masked = true

	if !s.Columns[0].Masked {
		t.Error("Column() should return a pointer into the schema")
	}
}

// ---------------------------------------------------------------------------
// Dataset
// ---------------------------------------------------------------------------

func TestDatasetClone_Independence(t *testing.T) {
	orig := &Dataset{
		Columns: []string{"a"},
		Rows:    []Row{{"a": "v"}},
	}

	clone := orig.Clone()
	clone.Rows[0]["a"] = "changed"
	clone.Columns[0] = "changed"

	if orig.Rows[0]["a"] != "v" {
		t.Error("clone shares row maps with original")
	}
	if orig.Columns[0] != "a" {
		t.Error("clone shares column slice with original")
	}
}

func TestDatasetCellCount(t *testing.T) {
	ds := &Dataset{
		Columns: []string{"a", "b", "c"},
		Rows:    []Row{{}, {}},
	}
	if got := ds.CellCount(); got != 6 {
		t.Errorf("CellCount() = %d, want 6", got)
	}
}

// ---------------------------------------------------------------------------
// Errors
// ---------------------------------------------------------------------------

func TestStructuralError_Message(t *testing.T) {
	err := &StructuralError{TableName: "orders", MissingColumns: []string{"id", "total"}}

	msg := err.Error()
	if !strings.Contains(msg, "orders") {
		t.Errorf("message %q should name the table", msg)
	}
	if !strings.Contains(msg, "id, total") {
		t.Errorf("message %q should list the missing columns", msg)
	}
}

func TestStageWarning_String(t *testing.T) {
	w := StageWarning{Stage: "type_conversion", Message: "boom"}
	if got := w.String(); got != "type_conversion: boom" {
		t.Errorf("String() = %q", got)
	}
}

// ---------------------------------------------------------------------------
// Metrics
// ---------------------------------------------------------------------------

func TestDelta(t *testing.T) {
	before := QualityMetrics{Completeness: 0.5, Uniqueness: 0.8, OverallScore: 0.6}
	after := QualityMetrics{Completeness: 1.0, Uniqueness: 1.0, OverallScore: 0.9}

	d := Delta(before, after)

	if d.Completeness != 0.5 {
		t.Errorf("completeness delta = %v, want 0.5", d.Completeness)
	}
	if d.Uniqueness < 0.19 || d.Uniqueness > 0.21 {
		t.Errorf("uniqueness delta = %v, want ~0.2", d.Uniqueness)
	}
	if d.OverallScore < 0.29 || d.OverallScore > 0.31 {
		t.Errorf("overall delta = %v, want ~0.3", d.OverallScore)
	}
}
