package process

import (
	"github.com/ndmokit/ndmokit/internal/config"
	"github.com/ndmokit/ndmokit/internal/infer"
	"github.com/ndmokit/ndmokit/internal/model"
	"github.com/ndmokit/ndmokit/internal/rules"
	"github.com/ndmokit/ndmokit/internal/standards"
)

// ComputeMetrics scores a dataset against a schema on the five quality
// dimensions. correctedCells is the running count of cells the pipeline has
// nulled or rewritten so far; accuracy is the fraction of cells left
// untouched, a stated heuristic proxy rather than ground truth.
func ComputeMetrics(s *model.Schema, ds *model.Dataset, weights config.MetricWeights, correctedCells int) model.QualityMetrics {
	m := model.QualityMetrics{
		Completeness: completeness(s, ds),
		Accuracy:     accuracy(ds, correctedCells),
		Consistency:  consistency(s, ds),
		Uniqueness:   uniqueness(s, ds),
		Validity:     validity(s, ds),
	}

	total := weights.Sum()
	if total > 0 {
		m.OverallScore = (m.Completeness*weights.Completeness +
			m.Accuracy*weights.Accuracy +
			m.Consistency*weights.Consistency +
			m.Uniqueness*weights.Uniqueness +
			m.Validity*weights.Validity) / total
	}
	return m
}

// completeness is the non-null cell ratio over required columns. A schema
// with no required columns is trivially complete.
func completeness(s *model.Schema, ds *model.Dataset) float64 {
	required := s.RequiredColumns()
	if len(required) == 0 || len(ds.Rows) == 0 {
		return 1
	}
	total, nonNull := 0, 0
	for _, name := range required {
		if !ds.HasColumn(name) {
			continue
		}
		for _, row := range ds.Rows {
			total++
			if row[name] != nil {
				nonNull++
			}
		}
	}
	if total == 0 {
		return 1
	}
	return float64(nonNull) / float64(total)
}

func accuracy(ds *model.Dataset, correctedCells int) float64 {
	total := ds.CellCount()
	if total == 0 {
		return 1
	}
	a := 1 - float64(correctedCells)/float64(total)
	if a < 0 {
		a = 0
	}
	return a
}

// consistency is the fraction of rows violating no business rule. Rules that
// fail to compile are skipped rather than counted against the data.
func consistency(s *model.Schema, ds *model.Dataset) float64 {
	if len(ds.Rows) == 0 {
		return 1
	}
	var compiled []*rules.Rule
	for _, r := range s.Rules {
		if c, err := rules.Compile(r.Expression); err == nil {
			compiled = append(compiled, c)
		}
	}
	for _, col := range s.Columns {
		if col.BusinessRule == "" {
			continue
		}
		if c, err := rules.Compile(col.BusinessRule); err == nil {
			compiled = append(compiled, c)
		}
	}
	if len(compiled) == 0 {
		return 1
	}

	passing := 0
	for _, row := range ds.Rows {
		ok := true
		for _, r := range compiled {
			pass, err := r.Eval(row)
			if err != nil || !pass {
				ok = false
				break
			}
		}
		if ok {
			passing++
		}
	}
	return float64(passing) / float64(len(ds.Rows))
}

func uniqueness(s *model.Schema, ds *model.Dataset) float64 {
	if len(ds.Rows) == 0 {
		return 1
	}
	dups := standards.DuplicateRows(s, ds)
	return 1 - float64(dups)/float64(len(ds.Rows))
}

// validity is the fraction of cells passing their column's type and
// constraint checks.
func validity(s *model.Schema, ds *model.Dataset) float64 {
	total, ok := 0, 0
	for _, col := range s.Columns {
		if !ds.HasColumn(col.Name) {
			continue
		}
		for _, row := range ds.Rows {
			total++
			if infer.Conforms(col, row[col.Name]) {
				ok++
			}
		}
	}
	if total == 0 {
		return 1
	}
	return float64(ok) / float64(total)
}
