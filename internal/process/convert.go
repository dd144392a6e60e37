package process

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ndmokit/ndmokit/internal/infer"
	"github.com/ndmokit/ndmokit/internal/model"
)

// convertDataset coerces every cell to its column's declared type in place.
// Cells that cannot be converted are set to null and counted per column; a
// failed conversion never aborts the run.
func convertDataset(s *model.Schema, ds *model.Dataset) map[string]int {
	failures := make(map[string]int)
	for _, col := range s.Columns {
		if !ds.HasColumn(col.Name) {
			continue
		}
		for _, row := range ds.Rows {
			v := row[col.Name]
			if v == nil {
				continue
			}
			converted, ok := convertValue(col.Type, v)
			if !ok {
				row[col.Name] = nil
				failures[col.Name]++
				continue
			}
			row[col.Name] = converted
		}
	}
	return failures
}

// convertValue coerces a single value to the target type. It returns false
// when no deterministic conversion exists.
func convertValue(t model.ColumnType, v any) (any, bool) {
	switch t {
	case model.TypeInteger:
		return toInteger(v)
	case model.TypeFloat:
		return toFloat(v)
	case model.TypeBoolean:
		return toBoolean(v)
	case model.TypeDatetime:
		return toDatetime(v)
	default:
		// Text-family types stay strings.
		return toText(v)
	}
}

func toInteger(v any) (any, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case int:
		return int64(x), true
	case float64:
		if x == float64(int64(x)) {
			return int64(x), true
		}
		return nil, false
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		if err != nil {
			return nil, false
		}
		return n, true
	}
	return nil, false
}

func toFloat(v any) (any, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int64:
		return float64(x), true
	case int:
		return float64(x), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return nil, false
		}
		return f, true
	}
	return nil, false
}

func toBoolean(v any) (any, bool) {
	switch x := v.(type) {
	case bool:
		return x, true
	case string:
		b, ok := infer.ParseBoolean(strings.TrimSpace(x))
		if !ok {
			return nil, false
		}
		return b, true
	}
	return nil, false
}

func toDatetime(v any) (any, bool) {
	switch x := v.(type) {
	case time.Time:
		return x, true
	case string:
		if t := infer.ParseDatetime(strings.TrimSpace(x)); t != nil {
			return *t, true
		}
		return nil, false
	}
	return nil, false
}

func toText(v any) (any, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case time.Time:
		return x.Format(time.RFC3339), true
	case bool:
		return strconv.FormatBool(x), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case int:
		return strconv.Itoa(x), true
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64), true
	case fmt.Stringer:
		return x.String(), true
	}
	return nil, false
}
