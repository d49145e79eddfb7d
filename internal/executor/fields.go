package executor

import (
	"strconv"

	"github.com/hanpama/domainql/internal/language"
	"github.com/hanpama/domainql/internal/schema"
)

// collectedFieldMap preserves field order from the original query.
type collectedFieldMap struct {
	fields []collectedField
	index  map[string]int
}

type collectedField struct {
	ResponseName string
	Fields       []*language.Field
}

func newCollectedFieldMap() *collectedFieldMap {
	return &collectedFieldMap{index: make(map[string]int)}
}

func (cfm *collectedFieldMap) add(responseName string, field *language.Field) {
	if idx, exists := cfm.index[responseName]; exists {
		cfm.fields[idx].Fields = append(cfm.fields[idx].Fields, field)
		return
	}
	cfm.index[responseName] = len(cfm.fields)
	cfm.fields = append(cfm.fields, collectedField{
		ResponseName: responseName,
		Fields:       []*language.Field{field},
	})
}

func (cfm *collectedFieldMap) orderedFields() []collectedField { return cfm.fields }

// collectFields flattens a selection set into response-name groups, expanding
// fragments and honoring @skip and @include.
func collectFields(state *executionState, objectType *schema.Type, selectionSet language.SelectionSet) *collectedFieldMap {
	grouped := newCollectedFieldMap()
	visited := make(map[string]bool)
	collectFieldsImpl(state, objectType, selectionSet, grouped, visited)
	return grouped
}

func collectFieldsImpl(state *executionState, objectType *schema.Type, selectionSet language.SelectionSet, grouped *collectedFieldMap, visited map[string]bool) {
	for _, selection := range selectionSet {
		switch sel := selection.(type) {
		case *language.Field:
			if !shouldIncludeNode(state, sel.Directives) {
				continue
			}
			responseName := sel.Alias
			if responseName == "" {
				responseName = sel.Name
			}
			grouped.add(responseName, sel)

		case *language.InlineFragment:
			if !shouldIncludeNode(state, sel.Directives) {
				continue
			}
			// Generated schemas have no abstract types: a type condition
			// either names the concrete type or excludes the fragment.
			if sel.TypeCondition != "" && sel.TypeCondition != objectType.Name {
				continue
			}
			collectFieldsImpl(state, objectType, sel.SelectionSet, grouped, visited)

		case *language.FragmentSpread:
			if !shouldIncludeNode(state, sel.Directives) {
				continue
			}
			if visited[sel.Name] {
				continue
			}
			visited[sel.Name] = true
			def := state.document.Fragments.ForName(sel.Name)
			if def == nil {
				continue
			}
			if def.TypeCondition != "" && def.TypeCondition != objectType.Name {
				continue
			}
			if !shouldIncludeNode(state, def.Directives) {
				continue
			}
			collectFieldsImpl(state, objectType, def.SelectionSet, grouped, visited)
		}
	}
}

func shouldIncludeNode(state *executionState, directives language.DirectiveList) bool {
	if skip := directives.ForName("skip"); skip != nil {
		if v, ok := directiveArgument(state, skip, "if").(bool); ok && v {
			return false
		}
	}
	if include := directives.ForName("include"); include != nil {
		if v, ok := directiveArgument(state, include, "if").(bool); ok && !v {
			return false
		}
	}
	return true
}

func directiveArgument(state *executionState, directive *language.Directive, name string) any {
	for _, arg := range directive.Arguments {
		if arg.Name == name {
			return valueFromAST(state, arg.Value)
		}
	}
	return nil
}

func valueFromAST(state *executionState, value *language.Value) any {
	if value == nil {
		return nil
	}
	if value.Kind == language.Variable {
		return state.variableValues[value.Raw]
	}
	return astValueToGo(value)
}

// astValueToGo converts an AST literal to its Go representation.
func astValueToGo(value *language.Value) any {
	if value == nil {
		return nil
	}
	switch value.Kind {
	case language.IntValue:
		iv, _ := strconv.Atoi(value.Raw)
		return iv
	case language.FloatValue:
		fv, _ := strconv.ParseFloat(value.Raw, 64)
		return fv
	case language.StringValue, language.BlockValue, language.EnumValue:
		return value.Raw
	case language.BooleanValue:
		return value.Raw == "true"
	case language.NullValue:
		return nil
	case language.ListValue:
		out := make([]any, len(value.Children))
		for i, c := range value.Children {
			out[i] = astValueToGo(c.Value)
		}
		return out
	case language.ObjectValue:
		m := make(map[string]any)
		for _, f := range value.Children {
			m[f.Name] = astValueToGo(f.Value)
		}
		return m
	default:
		return nil
	}
}
