package infer

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ndmokit/ndmokit/internal/model"
)

// Conforms reports whether a cell value satisfies the column's declared type
// and constraints. Nil values conform when the column is nullable.
func Conforms(col model.Column, v any) bool {
	if v == nil {
		return col.Nullable
	}
	return ConformsType(col.Type, v) && ConformsConstraints(col.Constraints, v)
}

// ConformsType reports whether a non-nil value is representable in the given
// column type, either natively or via string parsing.
func ConformsType(t model.ColumnType, v any) bool {
	switch t {
	case model.TypeInteger:
		switch x := v.(type) {
		case int, int64:
			return true
		case float64:
			return x == float64(int64(x))
		case string:
			_, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
			return err == nil
		}
		return false
	case model.TypeFloat:
		switch x := v.(type) {
		case int, int64, float64, float32:
			return true
		case string:
			_, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
			return err == nil
		}
		return false
	case model.TypeDatetime:
		switch x := v.(type) {
		case time.Time:
			return true
		case string:
			return ParseDatetime(x) != nil
		}
		return false
	case model.TypeBoolean:
		switch x := v.(type) {
		case bool:
			return true
		case string:
			_, ok := ParseBoolean(x)
			return ok
		}
		return false
	case model.TypeEmail:
		s, ok := v.(string)
		return ok && IsEmail(s)
	case model.TypePhone:
		s, ok := v.(string)
		return ok && IsPhone(s)
	case model.TypeCategorical, model.TypeText:
		return true
	}
	return true
}

// ConformsConstraints checks a non-nil value against length, range, pattern,
// and allowed-value constraints. Constraints that do not apply to the
// value's type are skipped.
func ConformsConstraints(c model.Constraints, v any) bool {
	if c.Empty() {
		return true
	}

	if s, ok := v.(string); ok {
		if c.MaxLength != nil && len(s) > *c.MaxLength {
			return false
		}
		if c.MinLength != nil && len(s) < *c.MinLength {
			return false
		}
		if c.Pattern != "" {
			re, err := regexp.Compile(c.Pattern)
			if err == nil && !re.MatchString(s) {
				return false
			}
		}
	}

	if f, ok := numericValue(v); ok {
		if c.MinValue != nil && f < *c.MinValue {
			return false
		}
		if c.MaxValue != nil && f > *c.MaxValue {
			return false
		}
	}

	if len(c.AllowedValues) > 0 {
		// Case-insensitive: improvement canonicalizes categorical cells to
		// lower case while the recorded set keeps its observed casing.
		s := strings.TrimSpace(stringValue(v))
		found := false
		for _, allowed := range c.AllowedValues {
			if strings.EqualFold(s, allowed) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	return true
}

func numericValue(v any) (float64, bool) {
	switch x := v.(type) {
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case float32:
		return float64(x), true
	case float64:
		return x, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	}
	return 0, false
}
