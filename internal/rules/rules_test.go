package rules

import (
	"testing"
	"time"

	"github.com/ndmokit/ndmokit/internal/model"
)

// ---------------------------------------------------------------------------
// Compile tests
// ---------------------------------------------------------------------------

func TestCompile(t *testing.T) {
	tests := []struct {
		name    string
		expr    string
		wantErr bool
	}{
		{"simple comparison", "age > 21", false},
		{"string equality", "status = 'active'", false},
		{"cross-field", "end_date >= start_date", false},
		{"and or", "age > 21 AND (status = 'active' OR status = 'pending')", false},
		{"is null", "email IS NULL", false},
		{"is not null", "email IS NOT NULL", false},
		{"in list", "status IN ('active', 'pending')", false},
		{"not in list", "status NOT IN ('deleted')", false},
		{"between", "salary BETWEEN 1000 AND 5000", false},
		{"like", "email LIKE '%@example.com'", false},
		{"contains", "name CONTAINS 'van'", false},
		{"starts with", "code STARTS WITH 'SA-'", false},
		{"ends with", "code ENDS WITH '-01'", false},
		{"not", "NOT (age < 18)", false},
		{"boolean literal", "is_active = TRUE", false},
		{"escaped quote", "name = 'O''Brien'", false},
		{"empty", "", true},
		{"dangling operator", "age >", true},
		{"unterminated string", "name = 'John", true},
		{"unterminated in list", "status IN ('a', 'b'", true},
		{"trailing garbage", "age > 21 age", true},
		{"bad character", "age > 21 # comment", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(tt.expr)
			if tt.wantErr && err == nil {
				t.Fatalf("Compile(%q): expected error, got nil", tt.expr)
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("Compile(%q): unexpected error: %v", tt.expr, err)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Eval tests
// ---------------------------------------------------------------------------

func TestEval(t *testing.T) {
	row := model.Row{
		"age":        int64(30),
		"salary":     2500.0,
		"status":     "active",
		"email":      "amal@example.com",
		"name":       "Amal",
		"is_active":  true,
		"created_at": time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		"updated_at": time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
		"notes":      nil,
	}

	tests := []struct {
		name string
		expr string
		want bool
	}{
		{"numeric gt", "age > 21", true},
		{"numeric gt false", "age > 40", false},
		{"numeric eq with float literal", "salary = 2500", true},
		{"string eq", "status = 'active'", true},
		{"string neq", "status != 'deleted'", true},
		{"string lt lexical", "name < 'Bilal'", true},
		{"cross-field datetime", "updated_at >= created_at", true},
		{"and short circuit", "age > 21 AND status = 'active'", true},
		{"or", "status = 'deleted' OR age > 21", true},
		{"not", "NOT (status = 'deleted')", true},
		{"is null on null", "notes IS NULL", true},
		{"is null on value", "email IS NULL", false},
		{"is not null", "email IS NOT NULL", true},
		{"is null on missing field", "missing IS NULL", true},
		{"in hit", "status IN ('active', 'pending')", true},
		{"in miss", "status IN ('deleted', 'archived')", false},
		{"not in", "status NOT IN ('deleted')", true},
		{"between inclusive", "salary BETWEEN 2500 AND 5000", true},
		{"between miss", "salary BETWEEN 3000 AND 5000", false},
		{"like suffix", "email LIKE '%@example.com'", true},
		{"like single char", "name LIKE 'Ama_'", true},
		{"like miss", "email LIKE '%@other.com'", false},
		{"not like", "email NOT LIKE '%@other.com'", true},
		{"contains", "email CONTAINS 'example'", true},
		{"starts with", "name STARTS WITH 'Am'", true},
		{"ends with", "email ENDS WITH '.com'", true},
		{"boolean field", "is_active = TRUE", true},
		{"missing field comparison is false", "missing > 5", false},
		{"null field comparison is false", "notes = 'x'", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := Compile(tt.expr)
			if err != nil {
				t.Fatalf("Compile(%q): %v", tt.expr, err)
			}
			got, err := r.Eval(row)
			if err != nil {
				t.Fatalf("Eval(%q): %v", tt.expr, err)
			}
			if got != tt.want {
				t.Errorf("Eval(%q) = %v, want %v", tt.expr, got, tt.want)
			}
		})
	}
}

func TestEval_NumericStringCoercion(t *testing.T) {
	// CSV-loaded rows carry numbers as strings; comparisons should still
	// work numerically.
	row := model.Row{"quantity": "15"}

	r, err := Compile("quantity > 9")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	got, err := r.Eval(row)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if !got {
		t.Errorf("expected string \"15\" to compare numerically against 9")
	}
}

func TestEval_ReusableAcrossRows(t *testing.T) {
	r, err := Compile("age >= 18")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	rows := []struct {
		age  any
		want bool
	}{
		{int64(18), true},
		{int64(17), false},
		{25.0, true},
		{nil, false},
	}
	for _, row := range rows {
		got, err := r.Eval(model.Row{"age": row.age})
		if err != nil {
			t.Fatalf("Eval(age=%v): %v", row.age, err)
		}
		if got != row.want {
			t.Errorf("Eval(age=%v) = %v, want %v", row.age, got, row.want)
		}
	}
}
