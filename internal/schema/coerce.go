package schema

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// CoerceNumber converts an untrusted value to a float64. The upstream
// generator sometimes produces numeric fields as strings ("2" instead of 2),
// and the product tolerates that drift for numbers specifically:
// non-coercible values become 0 rather than validation failures.
func CoerceNumber(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0
		}
		return f
	case string:
		s := strings.TrimSpace(n)
		// Tolerate "1 234,56" style figures from French-locale generators.
		s = strings.ReplaceAll(s, " ", "")
		s = strings.ReplaceAll(s, " ", "")
		s = strings.ReplaceAll(s, ",", ".")
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

// CoerceString converts a scalar value to its string form; non-scalar
// values become the empty string.
func CoerceString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int:
		return strconv.Itoa(s)
	case bool:
		return strconv.FormatBool(s)
	default:
		return ""
	}
}

// FormatAmount renders a number the way line item totals are displayed:
// two decimals, plain dot separator.
func FormatAmount(n float64) string {
	return fmt.Sprintf("%.2f", n)
}
