// Package openapi generates the OpenAPI 3.1 document for the scoring engine
// facade.
package openapi

import (
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/ndmokit/ndmokit/internal/standards"
)

// Generate builds the API document. The standards registry contributes one
// documented enum value per standard ID.
func Generate(baseURL string, reg *standards.Registry) *openapi3.T {
	doc := &openapi3.T{
		OpenAPI: "3.1.0",
		Info: &openapi3.Info{
			Title:       "NDMO Compliance & Data Quality API",
			Description: "Schema compliance assessment, automated remediation, and data quality processing against the NDMO standards catalogue.",
			Version:     "1.0.0",
		},
		Servers: openapi3.Servers{
			{URL: baseURL},
		},
	}

	doc.Paths = openapi3.NewPaths()

	components := openapi3.NewComponents()
	components.Schemas = openapi3.Schemas{
		"EngineRequest":  engineRequestSchema(),
		"Assessment":     assessmentSchema(),
		"Standard":       standardSchema(reg),
		"QualityMetrics": metricsSchema(),
		"Error":          errorSchema(),
	}
	doc.Components = &components

	addPath(doc, "/api/v1/assess", "post", "Assess compliance",
		"Runs the standards catalogue against a schema, inferring one from the dataset when absent. Data-aware when a dataset is supplied.",
		"EngineRequest", "Assessment")
	addPath(doc, "/api/v1/remediate", "post", "Remediate schema",
		"Runs the seven-stage remediation pipeline and returns per-stage snapshots, changes, and before/after assessments.",
		"EngineRequest", "")
	addPath(doc, "/api/v1/process", "post", "Process dataset",
		"Runs the seven-stage data processing pipeline: validation, conversion, quality improvement, and before/after metrics. Missing required columns yield a 422.",
		"EngineRequest", "")

	doc.Paths.Set("/api/v1/standards", &openapi3.PathItem{
		Get: &openapi3.Operation{
			OperationID: "listStandards",
			Summary:     "List the standards catalogue",
			Responses:   jsonResponse("Standard list", "Standard"),
		},
	})
	doc.Paths.Set("/api/v1/standards/{standardID}", &openapi3.PathItem{
		Get: &openapi3.Operation{
			OperationID: "getStandard",
			Summary:     "Get one standard by ID",
			Parameters: openapi3.Parameters{
				{Value: &openapi3.Parameter{
					Name:     "standardID",
					In:       "path",
					Required: true,
					Schema:   openapi3.NewSchemaRef("", openapi3.NewStringSchema()),
				}},
			},
			Responses: jsonResponse("The standard", "Standard"),
		},
	})
	doc.Paths.Set("/api/v1/runs", &openapi3.PathItem{
		Get: &openapi3.Operation{
			OperationID: "listRuns",
			Summary:     "List persisted runs",
			Responses:   jsonResponse("Run list", ""),
		},
	})

	return doc
}

func addPath(doc *openapi3.T, path, method, summary, description, reqSchema, respSchema string) {
	op := &openapi3.Operation{
		OperationID: operationID(path),
		Summary:     summary,
		Description: description,
		RequestBody: &openapi3.RequestBodyRef{
			Value: openapi3.NewRequestBody().
				WithRequired(true).
				WithJSONSchemaRef(componentRef(reqSchema)),
		},
		Responses: jsonResponse("Result", respSchema),
	}

	item := &openapi3.PathItem{}
	if method == "post" {
		item.Post = op
	} else {
		item.Get = op
	}
	doc.Paths.Set(path, item)
}

func operationID(path string) string {
	switch path {
	case "/api/v1/assess":
		return "assess"
	case "/api/v1/remediate":
		return "remediate"
	case "/api/v1/process":
		return "processData"
	}
	return path
}

func jsonResponse(description, schemaName string) *openapi3.Responses {
	resp := openapi3.NewResponse().WithDescription(description)
	if schemaName != "" {
		resp = resp.WithJSONSchemaRef(componentRef(schemaName))
	}
	responses := openapi3.NewResponses()
	responses.Set("200", &openapi3.ResponseRef{Value: resp})
	responses.Set("400", &openapi3.ResponseRef{
		Value: openapi3.NewResponse().
			WithDescription("Invalid request").
			WithJSONSchemaRef(componentRef("Error")),
	})
	return responses
}

func componentRef(name string) *openapi3.SchemaRef {
	return openapi3.NewSchemaRef(fmt.Sprintf("#/components/schemas/%s", name), nil)
}

func engineRequestSchema() *openapi3.SchemaRef {
	s := openapi3.NewObjectSchema().
		WithProperty("table_name", openapi3.NewStringSchema()).
		WithProperty("schema", openapi3.NewObjectSchema()).
		WithProperty("dataset", openapi3.NewObjectSchema().
			WithProperty("columns", openapi3.NewArraySchema().WithItems(openapi3.NewStringSchema())).
			WithProperty("rows", openapi3.NewArraySchema().WithItems(openapi3.NewObjectSchema())))
	return openapi3.NewSchemaRef("", s)
}

func assessmentSchema() *openapi3.SchemaRef {
	s := openapi3.NewObjectSchema().
		WithProperty("overall_score", openapi3.NewFloat64Schema().WithMin(0).WithMax(1)).
		WithProperty("status", openapi3.NewStringSchema().WithEnum("compliant", "partially_compliant", "non_compliant")).
		WithProperty("category_scores", openapi3.NewObjectSchema()).
		WithProperty("results", openapi3.NewObjectSchema()).
		WithProperty("critical_failures", openapi3.NewArraySchema().WithItems(openapi3.NewStringSchema())).
		WithProperty("data_aware", openapi3.NewBoolSchema())
	return openapi3.NewSchemaRef("", s)
}

func standardSchema(reg *standards.Registry) *openapi3.SchemaRef {
	ids := make([]any, 0, reg.Len())
	for _, std := range reg.All() {
		ids = append(ids, std.ID)
	}
	s := openapi3.NewObjectSchema().
		WithProperty("id", openapi3.NewStringSchema().WithEnum(ids...)).
		WithProperty("name", openapi3.NewStringSchema()).
		WithProperty("category", openapi3.NewStringSchema()).
		WithProperty("threshold", openapi3.NewFloat64Schema()).
		WithProperty("weight", openapi3.NewFloat64Schema()).
		WithProperty("critical", openapi3.NewBoolSchema())
	return openapi3.NewSchemaRef("", s)
}

func metricsSchema() *openapi3.SchemaRef {
	s := openapi3.NewObjectSchema()
	for _, dim := range []string{"completeness", "accuracy", "consistency", "uniqueness", "validity", "overall_score"} {
		s = s.WithProperty(dim, openapi3.NewFloat64Schema().WithMin(0).WithMax(1))
	}
	return openapi3.NewSchemaRef("", s)
}

func errorSchema() *openapi3.SchemaRef {
	s := openapi3.NewObjectSchema().
		WithProperty("error", openapi3.NewObjectSchema().
			WithProperty("code", openapi3.NewIntegerSchema()).
			WithProperty("message", openapi3.NewStringSchema()))
	return openapi3.NewSchemaRef("", s)
}
