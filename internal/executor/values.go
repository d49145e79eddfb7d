package executor

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hanpama/domainql/internal/language"
	"github.com/hanpama/domainql/internal/schema"
)

// coerceVariableValues validates and coerces operation variables.
func coerceVariableValues(s *schema.Schema, operation *language.OperationDefinition, variableValues map[string]any) (map[string]any, error) {
	if variableValues == nil {
		variableValues = make(map[string]any)
	}
	coerced := make(map[string]any)
	for _, varDef := range operation.VariableDefinitions {
		name := varDef.Variable
		t := varDef.Type
		val, ok := variableValues[name]
		if !ok {
			if v, ok2 := variableValues[strings.TrimPrefix(name, "$")]; ok2 {
				val = v
				ok = true
			}
		}
		if !ok {
			if varDef.DefaultValue != nil {
				val = astValueToGo(varDef.DefaultValue)
			} else if t.NonNull {
				return nil, fmt.Errorf("variable $%s of required type %s was not provided", name, t.String())
			} else {
				continue
			}
		}
		if val == nil && t.NonNull {
			return nil, fmt.Errorf("variable $%s of type %s cannot be null", name, t.String())
		}
		cv, err := coerceValue(val, typeRefFromAST(t))
		if err != nil {
			return nil, fmt.Errorf("variable $%s of type %s cannot be coerced: %v", name, t.String(), err)
		}
		coerced[name] = cv
	}
	return coerced, nil
}

// coerceArgumentValues coerces one field's arguments, applying defaults and
// recording coercion failures as execution errors.
func coerceArgumentValues(fieldDef *schema.Field, arguments language.ArgumentList, variableValues map[string]any, state *executionState, path Path) map[string]any {
	coerced := make(map[string]any)
	for _, arg := range arguments {
		var argDef *schema.InputValue
		for _, a := range fieldDef.Arguments {
			if a.Name == arg.Name {
				argDef = a
				break
			}
		}
		if argDef == nil {
			continue
		}
		val := valueFromASTWithVars(arg.Value, variableValues)
		cv, err := coerceValue(val, argDef.Type)
		if err != nil {
			state.addError(fmt.Sprintf("argument '%s' cannot be coerced: %v", arg.Name, err), path)
			continue
		}
		coerced[arg.Name] = cv
	}
	for _, argDef := range fieldDef.Arguments {
		if _, ok := coerced[argDef.Name]; ok {
			continue
		}
		if argDef.DefaultValue != nil {
			coerced[argDef.Name] = argDef.DefaultValue
		} else if schema.IsNonNull(argDef.Type) {
			state.addError(fmt.Sprintf("argument '%s' of required type was not provided", argDef.Name), path)
		}
	}
	return coerced
}

func valueFromASTWithVars(value *language.Value, variableValues map[string]any) any {
	if value == nil {
		return nil
	}
	if value.Kind == language.Variable {
		if v, ok := variableValues[value.Raw]; ok {
			return v
		}
		if v, ok := variableValues[strings.TrimPrefix(value.Raw, "$")]; ok {
			return v
		}
		return nil
	}
	return astValueToGo(value)
}

func typeRefFromAST(t *language.Type) *schema.TypeRef {
	if t == nil {
		return nil
	}
	if t.NonNull {
		return schema.NonNullType(typeRefFromAST(&language.Type{NamedType: t.NamedType, Elem: t.Elem}))
	}
	if t.NamedType != "" {
		return schema.NamedType(t.NamedType)
	}
	if t.Elem != nil {
		return schema.ListType(typeRefFromAST(t.Elem))
	}
	return nil
}

// coerceValue coerces an input value to the target type.
func coerceValue(value any, targetType *schema.TypeRef) (any, error) {
	if schema.IsNonNull(targetType) {
		if value == nil {
			return nil, fmt.Errorf("cannot provide null for non-null type")
		}
		return coerceValue(value, schema.Unwrap(targetType))
	}
	if value == nil {
		return nil, nil
	}
	if schema.IsList(targetType) {
		return coerceListValue(value, targetType)
	}

	switch schema.GetNamedType(targetType) {
	case schema.ScalarInt:
		return coerceToInt(value)
	case schema.ScalarFloat:
		return coerceToFloat(value)
	case schema.ScalarString:
		return coerceToString(value)
	case schema.ScalarBoolean:
		return coerceToBoolean(value)
	case schema.ScalarID:
		return coerceToID(value)
	default:
		// Custom scalars, enums and input objects pass through; input
		// object field coercion happens against the resolved value.
		return value, nil
	}
}

func coerceListValue(value any, listType *schema.TypeRef) (any, error) {
	inner := schema.Unwrap(listType)
	if slice, ok := value.([]any); ok {
		out := make([]any, len(slice))
		for i, item := range slice {
			cv, err := coerceValue(item, inner)
			if err != nil {
				return nil, err
			}
			out[i] = cv
		}
		return out, nil
	}
	// A single value coerces to a one-element list.
	cv, err := coerceValue(value, inner)
	if err != nil {
		return nil, err
	}
	return []any{cv}, nil
}

func coerceToInt(value any) (any, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int32:
		return int(v), nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	case float32:
		return int(v), nil
	case string:
		if iv, err := strconv.Atoi(v); err == nil {
			return iv, nil
		}
	}
	return nil, fmt.Errorf("cannot coerce %v (%T) to Int", value, value)
}

func coerceToFloat(value any) (any, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string:
		if fv, err := strconv.ParseFloat(v, 64); err == nil {
			return fv, nil
		}
	}
	return nil, fmt.Errorf("cannot coerce %v (%T) to Float", value, value)
}

func coerceToString(value any) (any, error) {
	if v, ok := value.(string); ok {
		return v, nil
	}
	return fmt.Sprintf("%v", value), nil
}

func coerceToBoolean(value any) (any, error) {
	if v, ok := value.(bool); ok {
		return v, nil
	}
	return nil, fmt.Errorf("cannot coerce %v (%T) to Boolean", value, value)
}

func coerceToID(value any) (any, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	default:
		return fmt.Sprintf("%v", value), nil
	}
}
