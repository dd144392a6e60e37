package server

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ndmokit/ndmokit/internal/config"
	"github.com/ndmokit/ndmokit/internal/history"
	"github.com/ndmokit/ndmokit/internal/model"
	"github.com/ndmokit/ndmokit/internal/standards"
)

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

// testEnv holds the shared state for HTTP integration tests.
type testEnv struct {
	server *Server
	store  *history.Store
}

// newTestEnv creates a fully wired server backed by an in-memory history
// store and the built-in standards catalogue.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store, err := history.NewStore("") // in-memory SQLite
	if err != nil {
		t.Fatalf("history.NewStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := New(DefaultConfig(), config.Default(), standards.NewRegistry(), store, logger)

	return &testEnv{server: srv, store: store}
}

// do executes an HTTP request against the test server and returns the
// recorder.
func (e *testEnv) do(t *testing.T, method, path string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	e.server.ServeHTTP(rr, req)
	return rr
}

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	if err := json.NewEncoder(buf).Encode(v); err != nil {
		t.Fatalf("jsonBody: %v", err)
	}
	return buf
}

func assertStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rr.Code != want {
		t.Errorf("status = %d, want %d; body = %s", rr.Code, want, rr.Body.String())
	}
}

func decodeJSON(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(v); err != nil {
		t.Fatalf("decodeJSON: %v; body = %s", err, rr.Body.String())
	}
}

// assessRequest is a keyed, partially governed schema so assessments land
// somewhere strictly between zero and perfect.
func assessRequest() map[string]any {
	return map[string]any{
		"table_name": "employees",
		"schema": map[string]any{
			"table_name": "employees",
			"columns": []map[string]any{
				{"name": "id", "type": "integer", "is_primary_key": true, "is_unique": true},
				{"name": "full_name", "type": "text"},
				{"name": "salary", "type": "float", "nullable": true},
			},
		},
	}
}

// ---------------------------------------------------------------------------
// Health and readiness
// ---------------------------------------------------------------------------

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, "GET", "/healthz", nil)
	assertStatus(t, rr, http.StatusOK)

	var resp map[string]string
	decodeJSON(t, rr, &resp)
	if resp["status"] != "ok" {
		t.Errorf("status = %q, want ok", resp["status"])
	}
}

func TestReadyz(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, "GET", "/readyz", nil)
	assertStatus(t, rr, http.StatusOK)

	var resp map[string]any
	decodeJSON(t, rr, &resp)
	if resp["standards"].(float64) != 19 {
		t.Errorf("standards = %v, want 19", resp["standards"])
	}
}

func TestReadyz_NoStandardsLoaded(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := New(DefaultConfig(), config.Default(), nil, nil, logger)

	req := httptest.NewRequest("GET", "/readyz", nil)
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, req)

	assertStatus(t, rr, http.StatusServiceUnavailable)
}

func TestOpenAPIDocument(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, "GET", "/openapi.json", nil)
	assertStatus(t, rr, http.StatusOK)

	var doc struct {
		OpenAPI string         `json:"openapi"`
		Paths   map[string]any `json:"paths"`
	}
	decodeJSON(t, rr, &doc)
	if doc.OpenAPI == "" {
		t.Error("missing openapi version")
	}
	for _, p := range []string{"/api/v1/assess", "/api/v1/remediate", "/api/v1/process"} {
		if _, ok := doc.Paths[p]; !ok {
			t.Errorf("document missing path %s", p)
		}
	}
}

// ---------------------------------------------------------------------------
// Assess
// ---------------------------------------------------------------------------

func TestAssess_SchemaOnly(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, "POST", "/api/v1/assess", jsonBody(t, assessRequest()))
	assertStatus(t, rr, http.StatusOK)

	var resp struct {
		RunID      string           `json:"run_id"`
		TableName  string           `json:"table_name"`
		Assessment model.Assessment `json:"assessment"`
	}
	decodeJSON(t, rr, &resp)

	if resp.RunID == "" {
		t.Error("expected a run_id")
	}
	if resp.TableName != "employees" {
		t.Errorf("table_name = %q, want employees", resp.TableName)
	}
	if resp.Assessment.OverallScore <= 0 || resp.Assessment.OverallScore > 1 {
		t.Errorf("overall score = %v, want in (0,1]", resp.Assessment.OverallScore)
	}
	if resp.Assessment.DataAware {
		t.Error("schema-only assessment must not be data-aware")
	}
	if len(resp.Assessment.Results) != 19 {
		t.Errorf("results = %d, want one per standard", len(resp.Assessment.Results))
	}
}

func TestAssess_InfersSchemaFromDataset(t *testing.T) {
	env := newTestEnv(t)

	body := jsonBody(t, map[string]any{
		"table_name": "people",
		"dataset": map[string]any{
			"columns": []string{"id", "name"},
			"rows": []map[string]any{
				{"id": "1", "name": "Alice"},
				{"id": "2", "name": "Bob"},
				{"id": "3", "name": "Cara"},
			},
		},
	})
	rr := env.do(t, "POST", "/api/v1/assess", body)
	assertStatus(t, rr, http.StatusOK)

	var resp struct {
		Schema     model.Schema     `json:"schema"`
		Assessment model.Assessment `json:"assessment"`
	}
	decodeJSON(t, rr, &resp)

	if len(resp.Schema.Columns) != 2 {
		t.Fatalf("inferred %d columns, want 2", len(resp.Schema.Columns))
	}
	if got := resp.Schema.Column("id").Type; got != model.TypeInteger {
		t.Errorf("inferred id type = %q, want integer", got)
	}
	if !resp.Assessment.DataAware {
		t.Error("assessment with a dataset must be data-aware")
	}
}

func TestAssess_EmptyRequest(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, "POST", "/api/v1/assess", jsonBody(t, map[string]any{}))
	assertStatus(t, rr, http.StatusBadRequest)

	var resp model.ErrorResponse
	decodeJSON(t, rr, &resp)
	if resp.Error.Message == "" {
		t.Error("expected an error message")
	}
}

func TestAssess_MalformedJSON(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, "POST", "/api/v1/assess", bytes.NewBufferString("{not json"))
	assertStatus(t, rr, http.StatusBadRequest)
}

// ---------------------------------------------------------------------------
// Remediate
// ---------------------------------------------------------------------------

func TestRemediate(t *testing.T) {
	env := newTestEnv(t)

	body := jsonBody(t, map[string]any{
		"schema": map[string]any{
			"table_name": "orders",
			"columns": []map[string]any{
				{"name": "note", "type": "text", "nullable": true},
			},
		},
	})
	rr := env.do(t, "POST", "/api/v1/remediate", body)
	assertStatus(t, rr, http.StatusOK)

	var resp struct {
		RunID       string `json:"run_id"`
		Stages      []any  `json:"stages"`
		FinalSchema struct {
			Columns []model.Column `json:"columns"`
		} `json:"final_schema"`
		Before struct {
			OverallScore float64 `json:"overall_score"`
		} `json:"before"`
		After struct {
			OverallScore float64 `json:"overall_score"`
		} `json:"after"`
	}
	decodeJSON(t, rr, &resp)

	if len(resp.Stages) != 7 {
		t.Errorf("stages = %d, want 7", len(resp.Stages))
	}
	if len(resp.FinalSchema.Columns) <= 1 {
		t.Error("remediation should add columns to a bare schema")
	}
	if resp.After.OverallScore <= resp.Before.OverallScore {
		t.Errorf("after %v <= before %v", resp.After.OverallScore, resp.Before.OverallScore)
	}
}

// ---------------------------------------------------------------------------
// Process
// ---------------------------------------------------------------------------

func TestProcess(t *testing.T) {
	env := newTestEnv(t)

	body := jsonBody(t, map[string]any{
		"schema": map[string]any{
			"table_name": "people",
			"columns": []map[string]any{
				{"name": "id", "type": "integer", "is_primary_key": true},
				{"name": "name", "type": "text"},
			},
		},
		"dataset": map[string]any{
			"columns": []string{"id", "name"},
			"rows": []map[string]any{
				{"id": "1", "name": "Alice"},
				{"id": "2", "name": "Bob"},
				{"id": "2", "name": "Bob"},
			},
		},
	})
	rr := env.do(t, "POST", "/api/v1/process", body)
	assertStatus(t, rr, http.StatusOK)

	var resp struct {
		RowsIn  int `json:"rows_in"`
		RowsOut int `json:"rows_out"`
	}
	decodeJSON(t, rr, &resp)
	if resp.RowsIn != 3 || resp.RowsOut != 2 {
		t.Errorf("rows in/out = %d/%d, want 3/2", resp.RowsIn, resp.RowsOut)
	}
}

func TestProcess_RequiresDataset(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, "POST", "/api/v1/process", jsonBody(t, assessRequest()))
	assertStatus(t, rr, http.StatusBadRequest)
}

func TestProcess_MissingRequiredColumn(t *testing.T) {
	env := newTestEnv(t)

	body := jsonBody(t, map[string]any{
		"schema": map[string]any{
			"table_name": "people",
			"columns": []map[string]any{
				{"name": "id", "type": "integer"},
			},
		},
		"dataset": map[string]any{
			"columns": []string{"name"},
			"rows":    []map[string]any{{"name": "Alice"}},
		},
	})
	rr := env.do(t, "POST", "/api/v1/process", body)
	assertStatus(t, rr, http.StatusUnprocessableEntity)

	var resp model.ErrorResponse
	decodeJSON(t, rr, &resp)
	missing, ok := resp.Error.Context["missing_columns"].([]any)
	if !ok || len(missing) != 1 || missing[0] != "id" {
		t.Errorf("missing_columns = %v, want [id]", resp.Error.Context["missing_columns"])
	}
}

// ---------------------------------------------------------------------------
// Standards catalogue
// ---------------------------------------------------------------------------

func TestStandards_List(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, "GET", "/api/v1/standards", nil)
	assertStatus(t, rr, http.StatusOK)

	var resp struct {
		Standards []standards.Standard `json:"standards"`
	}
	decodeJSON(t, rr, &resp)
	if len(resp.Standards) != 19 {
		t.Errorf("standards = %d, want 19", len(resp.Standards))
	}
}

func TestStandards_FilterByCategory(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, "GET", "/api/v1/standards?category=Quality", nil)
	assertStatus(t, rr, http.StatusOK)

	var resp struct {
		Standards []standards.Standard `json:"standards"`
	}
	decodeJSON(t, rr, &resp)
	if len(resp.Standards) != 6 {
		t.Errorf("quality standards = %d, want 6", len(resp.Standards))
	}
	for _, s := range resp.Standards {
		if s.Category != standards.Quality {
			t.Errorf("standard %s has category %s", s.ID, s.Category)
		}
	}
}

func TestStandards_UnknownCategory(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, "GET", "/api/v1/standards?category=Nonsense", nil)
	assertStatus(t, rr, http.StatusNotFound)
}

func TestStandards_Get(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, "GET", "/api/v1/standards/DS002", nil)
	assertStatus(t, rr, http.StatusOK)

	var std standards.Standard
	decodeJSON(t, rr, &std)
	if std.ID != "DS002" || !std.Critical {
		t.Errorf("got %+v, want critical DS002", std)
	}
}

func TestStandards_GetUnknown(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, "GET", "/api/v1/standards/ZZ999", nil)
	assertStatus(t, rr, http.StatusNotFound)
}

// ---------------------------------------------------------------------------
// Run history
// ---------------------------------------------------------------------------

func TestRuns_PersistedByAssess(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, "POST", "/api/v1/assess", jsonBody(t, assessRequest()))
	assertStatus(t, rr, http.StatusOK)
	var created struct {
		RunID string `json:"run_id"`
	}
	decodeJSON(t, rr, &created)

	rr = env.do(t, "GET", "/api/v1/runs?kind=assessment", nil)
	assertStatus(t, rr, http.StatusOK)

	var list struct {
		Runs []history.Run `json:"runs"`
	}
	decodeJSON(t, rr, &list)
	if len(list.Runs) != 1 {
		t.Fatalf("runs = %d, want 1", len(list.Runs))
	}
	if list.Runs[0].ID.String() != created.RunID {
		t.Errorf("listed run = %s, want %s", list.Runs[0].ID, created.RunID)
	}

	rr = env.do(t, "GET", "/api/v1/runs/"+created.RunID, nil)
	assertStatus(t, rr, http.StatusOK)
	var run history.Run
	decodeJSON(t, rr, &run)
	if len(run.Payload) == 0 {
		t.Error("fetched run should carry its payload")
	}
}

func TestRuns_InvalidID(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, "GET", "/api/v1/runs/not-a-uuid", nil)
	assertStatus(t, rr, http.StatusBadRequest)
}

func TestRuns_NotFound(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, "GET", "/api/v1/runs/0198d2f0-0000-7000-8000-000000000000", nil)
	assertStatus(t, rr, http.StatusNotFound)
}

func TestRuns_DisabledWithoutStore(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := New(DefaultConfig(), config.Default(), standards.NewRegistry(), nil, logger)

	req := httptest.NewRequest("GET", "/api/v1/runs", nil)
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, req)

	assertStatus(t, rr, http.StatusNotFound)
}
