package model

// ColumnType is the semantic type assigned to a column, either inferred from
// raw data or declared by an incoming schema definition.
type ColumnType string

const (
	TypeInteger     ColumnType = "integer"
	TypeFloat       ColumnType = "float"
	TypeText        ColumnType = "text"
	TypeDatetime    ColumnType = "datetime"
	TypeBoolean     ColumnType = "boolean"
	TypeEmail       ColumnType = "email"
	TypePhone       ColumnType = "phone"
	TypeCategorical ColumnType = "categorical"
)

// Numeric reports whether the type carries numeric values.
func (t ColumnType) Numeric() bool {
	return t == TypeInteger || t == TypeFloat
}

// Constraints holds the named rules attached to a column. Nil pointer fields
// mean the constraint is absent.
type Constraints struct {
	MaxLength     *int      `json:"max_length,omitempty" yaml:"max_length,omitempty"`
	MinLength     *int      `json:"min_length,omitempty" yaml:"min_length,omitempty"`
	MinValue      *float64  `json:"min_value,omitempty" yaml:"min_value,omitempty"`
	MaxValue      *float64  `json:"max_value,omitempty" yaml:"max_value,omitempty"`
	Pattern       string    `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	Format        string    `json:"format,omitempty" yaml:"format,omitempty"`
	AllowedValues []string  `json:"allowed_values,omitempty" yaml:"allowed_values,omitempty"`
}

// Empty reports whether no constraint is set.
func (c Constraints) Empty() bool {
	return c.MaxLength == nil && c.MinLength == nil && c.MinValue == nil &&
		c.MaxValue == nil && c.Pattern == "" && c.Format == "" && len(c.AllowedValues) == 0
}

// IsZero mirrors Empty so encoding/json and yaml omit empty constraints.
func (c Constraints) IsZero() bool { return c.Empty() }

// Column describes a single column of a schema: its semantic type, key role,
// constraints, and security annotations.
type Column struct {
	Name     string     `json:"name" yaml:"name"`
	Type     ColumnType `json:"type" yaml:"type"`
	Nullable bool       `json:"nullable" yaml:"nullable"`

	PrimaryKey         bool   `json:"is_primary_key" yaml:"is_primary_key"`
	PrimaryKeyEligible bool   `json:"primary_key_eligible,omitempty" yaml:"primary_key_eligible,omitempty"`
	ForeignKey         bool   `json:"is_foreign_key,omitempty" yaml:"is_foreign_key,omitempty"`
	References         string `json:"references,omitempty" yaml:"references,omitempty"`
	Unique             bool   `json:"is_unique,omitempty" yaml:"is_unique,omitempty"`

	Default     *string     `json:"default,omitempty" yaml:"default,omitempty"`
	Constraints Constraints `json:"constraints,omitzero" yaml:"constraints,omitempty"`

	// BusinessRule is an optional predicate expression evaluated per row,
	// e.g. "salary >= 0".
	BusinessRule string `json:"business_rule,omitempty" yaml:"business_rule,omitempty"`

	// Security annotations attached by the remediation pipeline for columns
	// matching sensitive-name heuristics.
	Masked    bool `json:"masked,omitempty" yaml:"masked,omitempty"`
	Encrypted bool `json:"encrypted,omitempty" yaml:"encrypted,omitempty"`

	// LowConfidence marks a column whose type could not be inferred from any
	// non-null value.
	LowConfidence bool `json:"low_confidence,omitempty" yaml:"low_confidence,omitempty"`

	// SampleValues keeps a small window of observed raw values so later
	// pipeline stages can re-examine the data shape without the dataset.
	SampleValues []string `json:"sample_values,omitempty" yaml:"sample_values,omitempty"`

	// StandardID names the NDMO standard that motivated the column when it
	// was added by remediation (e.g. "DS004" for audit fields).
	StandardID  string `json:"ndmo_standard,omitempty" yaml:"ndmo_standard,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// BusinessRule is a named cross-field predicate evaluated per row.
type BusinessRule struct {
	ID          string   `json:"rule_id" yaml:"rule_id"`
	Name        string   `json:"rule_name" yaml:"rule_name"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Expression  string   `json:"expression" yaml:"expression"`
	Columns     []string `json:"columns,omitempty" yaml:"columns,omitempty"`
	Severity    string   `json:"severity,omitempty" yaml:"severity,omitempty"`
}

// Schema is an ordered sequence of column definitions plus table metadata.
// Pipelines never mutate a schema they were handed; they work on Clone()d
// snapshots so every before/after state stays recoverable.
type Schema struct {
	TableName  string         `json:"table_name" yaml:"table_name"`
	SourceFile string         `json:"source_file,omitempty" yaml:"source_file,omitempty"`
	Version    int            `json:"version" yaml:"version"`
	Columns    []Column       `json:"columns" yaml:"columns"`
	Rules      []BusinessRule `json:"business_rules,omitempty" yaml:"business_rules,omitempty"`
}

// Clone returns a deep copy of the schema.
func (s *Schema) Clone() *Schema {
	if s == nil {
		return nil
	}
	out := &Schema{
		TableName:  s.TableName,
		SourceFile: s.SourceFile,
		Version:    s.Version,
	}
	out.Columns = make([]Column, len(s.Columns))
	for i, c := range s.Columns {
		out.Columns[i] = c.clone()
	}
	if len(s.Rules) > 0 {
		out.Rules = make([]BusinessRule, len(s.Rules))
		for i, r := range s.Rules {
			out.Rules[i] = r
			out.Rules[i].Columns = append([]string(nil), r.Columns...)
		}
	}
	return out
}

func (c Column) clone() Column {
	out := c
	out.SampleValues = append([]string(nil), c.SampleValues...)
	out.Constraints.AllowedValues = append([]string(nil), c.Constraints.AllowedValues...)
	if c.Default != nil {
		v := *c.Default
		out.Default = &v
	}
	out.Constraints.MaxLength = cloneInt(c.Constraints.MaxLength)
	out.Constraints.MinLength = cloneInt(c.Constraints.MinLength)
	out.Constraints.MinValue = cloneFloat(c.Constraints.MinValue)
	out.Constraints.MaxValue = cloneFloat(c.Constraints.MaxValue)
	return out
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Column returns a pointer to the named column, or nil if absent.
func (s *Schema) Column(name string) *Column {
	for i := range s.Columns {
		if s.Columns[i].Name == name {
			return &s.Columns[i]
		}
	}
	return nil
}

// HasColumn reports whether the named column exists.
func (s *Schema) HasColumn(name string) bool {
	return s.Column(name) != nil
}

// PrimaryKey returns the names of the primary key columns in schema order.
func (s *Schema) PrimaryKey() []string {
	var keys []string
	for _, c := range s.Columns {
		if c.PrimaryKey {
			keys = append(keys, c.Name)
		}
	}
	return keys
}

// RequiredColumns returns the names of all non-nullable columns.
func (s *Schema) RequiredColumns() []string {
	var req []string
	for _, c := range s.Columns {
		if !c.Nullable {
			req = append(req, c.Name)
		}
	}
	return req
}
