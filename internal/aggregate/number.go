package aggregate

import (
	"math"
	"strconv"
	"strings"
)

// ParseNumber converts a cell value to a number. It never fails: anything
// that is not a finite decimal number (nil, "", "abc", booleans, NaN) is
// reported as missing with ok == false. Thousands separators are ignored,
// so "1,234" parses as 1234.
func ParseNumber(v any) (n float64, ok bool) {
	switch x := v.(type) {
	case nil:
		return 0, false
	case float64:
		return finite(x)
	case float32:
		return finite(float64(x))
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case string:
		return parseString(x)
	default:
		return 0, false
	}
}

func parseString(s string) (float64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0, false
	}
	// Hex floats are accepted by strconv but are never what a cell means.
	lower := strings.ToLower(strings.TrimLeft(s, "+-"))
	if strings.HasPrefix(lower, "0x") {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return finite(f)
}

func finite(f float64) (float64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
