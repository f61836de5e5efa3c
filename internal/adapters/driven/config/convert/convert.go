// Package convert coerces loosely typed configuration values.
// TOML decodes integers as int64 and arrays as []any, while values set from
// the command line or the environment arrive as strings.
package convert

import (
	"fmt"
	"strconv"
	"strings"
)

// String returns v as a string, or "" for nil and non-scalar values.
func String(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case nil:
		return ""
	case int, int64, float64, bool:
		return fmt.Sprint(val)
	default:
		return ""
	}
}

// Int returns v as an int, or 0 if it cannot be converted.
func Int(v any) int {
	switch val := v.(type) {
	case int:
		return val
	case int64:
		return int(val)
	case float64:
		return int(val)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

// Float returns v as a float64, or 0 if it cannot be converted.
func Float(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case float32:
		return float64(val)
	case int:
		return float64(val)
	case int64:
		return float64(val)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

// Bool returns v as a bool, or false if it cannot be converted.
func Bool(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(val))
		return err == nil && b
	default:
		return false
	}
}

// StringSlice returns v as a []string. A comma-separated string is split.
func StringSlice(v any) []string {
	switch val := v.(type) {
	case []string:
		return val
	case []any:
		result := make([]string, 0, len(val))
		for _, item := range val {
			if str, ok := item.(string); ok {
				result = append(result, str)
			}
		}
		return result
	case string:
		if strings.TrimSpace(val) == "" {
			return nil
		}
		parts := strings.Split(val, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				result = append(result, p)
			}
		}
		return result
	default:
		return nil
	}
}
