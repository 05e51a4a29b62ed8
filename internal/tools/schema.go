package tools

import (
	"fmt"
	"math"

	gwerrors "github.com/agentgate/agentgate/internal/errors"
)

// ValidateParams checks params against the schema: required fields must be
// present, declared primitive types must match, defaults fill absent
// optional fields. Only declared properties are passed through; properties
// with unknown type names are accepted unchecked.
func ValidateParams(params map[string]any, schema Schema) (map[string]any, error) {
	if schema.Properties == nil {
		return params, nil
	}

	required := make(map[string]bool, len(schema.Required))
	for _, name := range schema.Required {
		required[name] = true
	}

	validated := make(map[string]any, len(schema.Properties))
	for name, prop := range schema.Properties {
		value, present := params[name]

		if !present {
			if required[name] {
				return nil, gwerrors.New(gwerrors.CodeMissingParameter,
					fmt.Sprintf("required parameter %s is missing", name))
			}
			if prop.Default != nil {
				validated[name] = prop.Default
			}
			continue
		}

		if !typeMatches(value, prop.Type) {
			return nil, gwerrors.New(gwerrors.CodeInvalidType,
				fmt.Sprintf("parameter %s must be of type %s", name, typeName(prop.Type)))
		}

		validated[name] = value
	}

	return validated, nil
}

// typeMatches checks a value against a declared type, which may be a single
// name or a list of acceptable names. An empty or unknown declaration passes.
func typeMatches(value, declared any) bool {
	switch t := declared.(type) {
	case nil:
		return true
	case string:
		return primitiveMatches(value, t)
	case []any:
		for _, alt := range t {
			if name, ok := alt.(string); ok && primitiveMatches(value, name) {
				return true
			}
		}
		return len(t) == 0
	case []string:
		for _, name := range t {
			if primitiveMatches(value, name) {
				return true
			}
		}
		return len(t) == 0
	default:
		return true
	}
}

func primitiveMatches(value any, typ string) bool {
	switch typ {
	case "string":
		_, ok := value.(string)
		return ok
	case "integer":
		switch v := value.(type) {
		case int, int32, int64:
			return true
		case float64:
			// JSON numbers decode as float64
			return v == math.Trunc(v)
		case string:
			return isDigits(v)
		default:
			return false
		}
	case "number":
		switch value.(type) {
		case int, int32, int64, float32, float64:
			return true
		default:
			return false
		}
	case "boolean":
		_, ok := value.(bool)
		return ok
	case "array":
		_, ok := value.([]any)
		return ok
	case "object":
		_, ok := value.(map[string]any)
		return ok
	default:
		// Unknown types pass through unchecked
		return true
	}
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func typeName(declared any) string {
	if name, ok := declared.(string); ok {
		return name
	}
	return fmt.Sprintf("%v", declared)
}
