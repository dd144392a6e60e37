package infer

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	phonePattern = regexp.MustCompile(`^\+?[1-9]\d{4,14}$`)
	phoneStrip   = regexp.MustCompile(`[\s\-().]`)
)

// datetimeLayouts are tried in order when probing string values for dates.
var datetimeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"02/01/2006",
	"01/02/2006",
	"2006/01/02",
	"02-01-2006",
	"Jan 2, 2006",
}

// numericRatio returns the fraction of values that parse as numbers and
// whether every parsed value is integral.
func numericRatio(values []string) (ratio float64, isInt bool) {
	if len(values) == 0 {
		return 0, false
	}
	matched := 0
	isInt = true
	for _, v := range values {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			continue
		}
		matched++
		if f != float64(int64(f)) || strings.Contains(v, ".") {
			isInt = false
		}
	}
	return float64(matched) / float64(len(values)), isInt
}

func datetimeRatio(values []string) float64 {
	if len(values) == 0 {
		return 0
	}
	matched := 0
	for _, v := range values {
		if ParseDatetime(v) != nil {
			matched++
		}
	}
	return float64(matched) / float64(len(values))
}

// ParseDatetime probes the known layouts and returns the parsed time, or nil
// when no layout matches.
func ParseDatetime(v string) *time.Time {
	v = strings.TrimSpace(v)
	// Bare numbers are never dates, even though some layouts would accept
	// strings like "2006".
	if _, err := strconv.ParseFloat(v, 64); err == nil {
		return nil
	}
	for _, layout := range datetimeLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return &t
		}
	}
	return nil
}

var booleanWords = map[string]bool{
	"true": true, "false": false,
	"yes": true, "no": false,
	"y": true, "n": false,
	"1": true, "0": false,
}

func booleanRatio(values []string) float64 {
	if len(values) == 0 {
		return 0
	}
	matched := 0
	for _, v := range values {
		if _, ok := booleanWords[strings.ToLower(v)]; ok {
			matched++
		}
	}
	return float64(matched) / float64(len(values))
}

// ParseBoolean maps the accepted boolean words to a bool.
func ParseBoolean(v string) (bool, bool) {
	b, ok := booleanWords[strings.ToLower(strings.TrimSpace(v))]
	return b, ok
}

func emailRatio(values []string) float64 {
	if len(values) == 0 {
		return 0
	}
	matched := 0
	for _, v := range values {
		if emailPattern.MatchString(v) {
			matched++
		}
	}
	return float64(matched) / float64(len(values))
}

func phoneRatio(values []string) float64 {
	if len(values) == 0 {
		return 0
	}
	matched := 0
	for _, v := range values {
		if IsPhone(v) {
			matched++
		}
	}
	return float64(matched) / float64(len(values))
}

// IsEmail reports whether v has a valid email shape.
func IsEmail(v string) bool {
	return emailPattern.MatchString(strings.TrimSpace(v))
}

// IsPhone reports whether v looks like a phone number after stripping
// formatting characters.
func IsPhone(v string) bool {
	return phonePattern.MatchString(phoneStrip.ReplaceAllString(strings.TrimSpace(v), ""))
}

func stringValue(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case time.Time:
		return x.Format(time.RFC3339)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprintf("%v", x)
	}
}
