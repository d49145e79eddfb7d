// Package executor evaluates GraphQL operations against a schema and a
// resolver map. Execution is synchronous: fields resolve depth-first in
// query order, mutations run serially, subscriptions hand back an event
// stream whose payloads are projected through the operation's selection set.
package executor

import (
	"context"
	"fmt"
	"reflect"

	"github.com/hanpama/domainql/internal/language"
	"github.com/hanpama/domainql/internal/resolve"
	"github.com/hanpama/domainql/internal/schema"
)

type Executor struct {
	schema    *schema.Schema
	resolvers resolve.Map
}

func New(s *schema.Schema, resolvers resolve.Map) *Executor {
	return &Executor{schema: s, resolvers: resolvers}
}

// executionState holds the per-request execution bookkeeping.
type executionState struct {
	executor       *Executor
	document       *language.QueryDocument
	variableValues map[string]any
	context        context.Context
	errors         []Error
}

func (s *executionState) addError(message string, path Path) {
	s.errors = append(s.errors, Error{Message: message, Path: path})
}

func (s *executionState) hasErrorAtPath(path Path) bool {
	for _, err := range s.errors {
		if reflect.DeepEqual(err.Path, path) {
			return true
		}
	}
	return false
}

// Execute runs one query or mutation operation.
func (e *Executor) Execute(ctx context.Context, document *language.QueryDocument, operationName string, variableValues map[string]any) *Result {
	operation := getOperation(document, operationName)
	if operation == nil {
		return &Result{Errors: []Error{{Message: "operation not found"}}}
	}
	if operation.Operation == language.Subscription {
		return &Result{Errors: []Error{{Message: "subscriptions must be started with Subscribe"}}}
	}

	coerced, err := coerceVariableValues(e.schema, operation, variableValues)
	if err != nil {
		return &Result{Errors: []Error{{Message: err.Error()}}}
	}

	var rootType *schema.Type
	switch operation.Operation {
	case language.Query:
		rootType = e.schema.GetQueryType()
	case language.Mutation:
		rootType = e.schema.GetMutationType()
	}
	if rootType == nil {
		return &Result{Errors: []Error{{Message: fmt.Sprintf("root type not found for %s operation", operation.Operation)}}}
	}

	state := &executionState{
		executor:       e,
		document:       document,
		variableValues: coerced,
		context:        ctx,
	}
	data := executeSelectionSet(state, rootType, operation.SelectionSet, nil, Path{})
	return &Result{Data: data, Errors: state.errors}
}

// Stream is a live subscription: each pulled event is projected through the
// operation's selection set into a full Result.
type Stream struct {
	stop    func()
	nextFn  func(ctx context.Context) (*Result, bool, error)
	rootKey string
}

// Next blocks for the next projected event. ok is false once the stream has
// been stopped.
func (s *Stream) Next(ctx context.Context) (*Result, bool, error) { return s.nextFn(ctx) }

// Stop releases the underlying subscription.
func (s *Stream) Stop() { s.stop() }

// Field reports the response name of the subscribed root field.
func (s *Stream) Field() string { return s.rootKey }

// Subscribe starts a subscription operation. Exactly one root field is
// allowed, per the GraphQL spec.
func (e *Executor) Subscribe(ctx context.Context, document *language.QueryDocument, operationName string, variableValues map[string]any) (*Stream, error) {
	operation := getOperation(document, operationName)
	if operation == nil {
		return nil, fmt.Errorf("operation not found")
	}
	if operation.Operation != language.Subscription {
		return nil, fmt.Errorf("operation %q is not a subscription", operationName)
	}
	rootType := e.schema.GetSubscriptionType()
	if rootType == nil {
		return nil, fmt.Errorf("schema has no subscription root")
	}

	coerced, err := coerceVariableValues(e.schema, operation, variableValues)
	if err != nil {
		return nil, err
	}

	state := &executionState{
		executor:       e,
		document:       document,
		variableValues: coerced,
		context:        ctx,
	}
	grouped := collectFields(state, rootType, operation.SelectionSet).orderedFields()
	if len(grouped) != 1 {
		return nil, fmt.Errorf("subscription operations must select exactly one root field, got %d", len(grouped))
	}
	collected := grouped[0]
	field := collected.Fields[0]
	fieldDef := rootType.GetField(field.Name)
	if fieldDef == nil {
		return nil, fmt.Errorf("cannot subscribe to unknown field %q", field.Name)
	}
	subscribeFn, ok := e.resolvers.Subscription[field.Name]
	if !ok {
		return nil, fmt.Errorf("no subscription resolver for field %q", field.Name)
	}

	args := coerceArgumentValues(fieldDef, field.Arguments, coerced, state, Path{collected.ResponseName})
	it, err := subscribeFn(ctx, args)
	if err != nil {
		return nil, err
	}

	next := func(ctx context.Context) (*Result, bool, error) {
		payload, ok, err := it.Next(ctx)
		if err != nil || !ok {
			return nil, ok, err
		}
		eventState := &executionState{
			executor:       e,
			document:       document,
			variableValues: coerced,
			context:        ctx,
		}
		path := Path{collected.ResponseName}
		completed := completeValue(eventState, fieldDef.Type, collected.Fields, payload, path)
		data := map[string]any{collected.ResponseName: completed}
		return &Result{Data: data, Errors: eventState.errors}, true, nil
	}
	return &Stream{stop: it.Stop, nextFn: next, rootKey: collected.ResponseName}, nil
}

func executeSelectionSet(state *executionState, objectType *schema.Type, selectionSet language.SelectionSet, objectValue any, path Path) map[string]any {
	grouped := collectFields(state, objectType, selectionSet)
	result := make(map[string]any)

	for _, collected := range grouped.orderedFields() {
		responseName := collected.ResponseName
		fields := collected.Fields
		fieldPath := appendPath(path, responseName)

		if fields[0].Name == "__typename" {
			result[responseName] = objectType.Name
			continue
		}

		fieldDef := objectType.GetField(fields[0].Name)
		if fieldDef == nil {
			state.addError(fmt.Sprintf("Cannot query field '%s' on type '%s'", fields[0].Name, objectType.Name), fieldPath)
			continue
		}

		args := coerceArgumentValues(fieldDef, fields[0].Arguments, state.variableValues, state, fieldPath)
		resolved := resolveField(state, objectType, fields[0].Name, objectValue, args, path, fieldPath)
		completed := completeValue(state, fieldDef.Type, fields, resolved, fieldPath)

		// Null propagation: a nullish non-null child nulls this object.
		if schema.IsNonNull(fieldDef.Type) && isNullish(completed) {
			if len(path) > 0 {
				return nil
			}
			result[responseName] = nil
			continue
		}
		if isNullish(completed) {
			result[responseName] = nil
		} else {
			result[responseName] = completed
		}
	}
	return result
}

// resolveField looks up the resolver: an operation root uses the Query or
// Mutation map, other types consult the per-type field map, and everything
// else falls back to a key lookup on the parent map.
func resolveField(state *executionState, objectType *schema.Type, fieldName string, source any, args map[string]any, parentPath, fieldPath Path) any {
	e := state.executor

	var fn resolve.Func
	if len(parentPath) == 0 {
		switch objectType.Name {
		case e.schema.QueryType:
			fn = e.resolvers.Query[fieldName]
		case e.schema.MutationType:
			fn = e.resolvers.Mutation[fieldName]
		}
	}
	if fn == nil {
		if typeFields, ok := e.resolvers.Fields[objectType.Name]; ok {
			fn = typeFields[fieldName]
		}
	}
	if fn == nil {
		return defaultResolve(source, fieldName)
	}

	value, err := fn(state.context, source, args)
	if err != nil {
		state.addError(err.Error(), fieldPath)
		return nil
	}
	return value
}

func defaultResolve(source any, fieldName string) any {
	if m, ok := source.(map[string]any); ok {
		return m[fieldName]
	}
	return nil
}

func completeValue(state *executionState, fieldType *schema.TypeRef, fields []*language.Field, result any, path Path) any {
	if schema.IsNonNull(fieldType) {
		if isNullish(result) {
			if !state.hasErrorAtPath(path) {
				state.addError(fmt.Sprintf("Cannot return null for non-nullable field %s", pathToString(path)), path)
			}
			return nil
		}
		return completeValue(state, schema.Unwrap(fieldType), fields, result, path)
	}

	if isNullish(result) {
		return nil
	}

	if schema.IsList(fieldType) {
		return completeListValue(state, fieldType, fields, result, path)
	}

	namedType := schema.GetNamedType(fieldType)
	typeObj := state.executor.schema.Types[namedType]
	if typeObj == nil {
		state.addError(fmt.Sprintf("Unknown type: %s", namedType), path)
		return nil
	}

	switch typeObj.Kind {
	case schema.TypeKindScalar, schema.TypeKindEnum:
		serialized, err := schema.SerializeLeaf(namedType, result)
		if err != nil {
			state.addError(err.Error(), path)
			return nil
		}
		return serialized
	case schema.TypeKindObject:
		sub := mergeSelectionSets(fields)
		return executeSelectionSet(state, typeObj, sub, result, path)
	default:
		state.addError(fmt.Sprintf("Cannot complete value of unexpected type kind: %s", typeObj.Kind), path)
		return nil
	}
}

func completeListValue(state *executionState, listType *schema.TypeRef, fields []*language.Field, result any, path Path) any {
	var items []any
	if direct, ok := result.([]any); ok {
		items = direct
	} else {
		rv := reflect.ValueOf(result)
		if rv.Kind() != reflect.Slice {
			state.addError(fmt.Sprintf("Expected list value, got %T", result), path)
			return nil
		}
		items = make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			items[i] = rv.Index(i).Interface()
		}
	}

	inner := schema.Unwrap(listType)
	completed := make([]any, len(items))
	for i, item := range items {
		p := appendPath(path, i)
		v := completeValue(state, inner, fields, item, p)
		if schema.IsNonNull(inner) && isNullish(v) {
			// Inner completion already recorded the error; null the list.
			return nil
		}
		completed[i] = v
	}
	return completed
}

func mergeSelectionSets(fields []*language.Field) language.SelectionSet {
	var merged language.SelectionSet
	for _, f := range fields {
		merged = append(merged, f.SelectionSet...)
	}
	return merged
}

func getOperation(document *language.QueryDocument, operationName string) *language.OperationDefinition {
	if operationName == "" && len(document.Operations) == 1 {
		for _, op := range document.Operations {
			return op
		}
	}
	for _, op := range document.Operations {
		if op.Name == operationName {
			return op
		}
	}
	return nil
}

func pathToString(path Path) string {
	out := ""
	for i, elem := range path {
		switch v := elem.(type) {
		case string:
			if i > 0 {
				out += "."
			}
			out += v
		case int:
			out += fmt.Sprintf("[%d]", v)
		}
	}
	return out
}

func appendPath(path Path, elem PathElement) Path {
	next := make(Path, len(path)+1)
	copy(next, path)
	next[len(path)] = elem
	return next
}

// isNullish reports nil interfaces and typed nils.
func isNullish(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Interface, reflect.Ptr, reflect.Slice, reflect.Map, reflect.Func, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}
