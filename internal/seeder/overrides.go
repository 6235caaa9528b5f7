package seeder

import (
	"fmt"
	"math"
	"slices"

	"github.com/Rana718/botseed/internal/schema"
)

// overrideProblem explains why value cannot be used for column of e.
// An empty result means the override is acceptable.
func overrideProblem(e *schema.Entity, column string, value any) string {
	if _, ok := e.Relation(column); ok {
		if value == nil {
			return ""
		}
		if _, ok := toID(value); !ok {
			return fmt.Sprintf("relation expects an integer id, got %T", value)
		}
		return ""
	}

	field, ok := e.Field(column)
	if !ok {
		return "unknown column"
	}
	if d, derived := e.Derivation(column); derived {
		return fmt.Sprintf("derived from %s and cannot be overridden", d.From)
	}
	if field.Kind == schema.KindEnum && value != nil {
		s, isString := value.(string)
		if !isString || !slices.Contains(field.Values, s) {
			return fmt.Sprintf("value %v is outside %v", value, field.Values)
		}
	}
	return ""
}

// normalizeOverrides validates overrides against e and returns a copy with
// relation ids converted to int64.
func normalizeOverrides(e *schema.Entity, overrides schema.Values) (schema.Values, error) {
	out := make(schema.Values, len(overrides))
	for col, v := range overrides {
		if reason := overrideProblem(e, col, v); reason != "" {
			return nil, &OverrideError{Entity: e.Name, Column: col, Reason: reason}
		}
		if _, isRel := e.Relation(col); isRel && v != nil {
			v, _ = toID(v)
		}
		out[col] = v
	}
	return out, nil
}

// toID converts any integer value to an int64 id.
func toID(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int16:
		return int64(n), true
	case int8:
		return int64(n), true
	case uint:
		return int64(n), uint64(n) <= math.MaxInt64
	case uint64:
		return int64(n), n <= math.MaxInt64
	case uint32:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint8:
		return int64(n), true
	case float64:
		return int64(n), n == math.Trunc(n) && math.Abs(n) < 1<<53
	}
	return 0, false
}

// intsToInt64 rewrites integer values decoded from YAML as int64 so they
// compare equal to ids handed out by storage.
func intsToInt64(v schema.Values) {
	for k, val := range v {
		switch val.(type) {
		case int, int8, int16, int32, uint, uint8, uint16, uint32, uint64:
			if id, ok := toID(val); ok {
				v[k] = id
			}
		}
	}
}

// pinEqual compares a stored value with a pin. Drivers may hand back text
// columns as bytes.
func pinEqual(stored, pin any) bool {
	if b, ok := stored.([]byte); ok {
		stored = string(b)
	}
	if stored == pin {
		return true
	}
	return stored != nil && fmt.Sprint(stored) == fmt.Sprint(pin)
}
