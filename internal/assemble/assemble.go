// Package assemble builds a complete GraphQL schema from one domain
// descriptor: the domain object type, the three operation roots, the shared
// response-type library and the metadata directives.
package assemble

import (
	"context"
	"fmt"
	"time"

	"github.com/hanpama/domainql/internal/descriptor"
	"github.com/hanpama/domainql/internal/eventbus"
	"github.com/hanpama/domainql/internal/events"
	"github.com/hanpama/domainql/internal/schema"
	"github.com/hanpama/domainql/internal/typemap"
)

// Config controls optional parts of the generated schema.
type Config struct {
	// EnableSubscriptions adds the Subscription root with change-event
	// fields.
	EnableSubscriptions bool
}

// Result is everything one assembly produced.
type Result struct {
	Schema *schema.Schema
	Names  Names
	// Types holds every named type generated in this pass, for composition
	// into a larger schema.
	Types map[string]*schema.Type
}

// Build assembles the schema for one descriptor. It is the only place in
// the system allowed to fail on bad input: generation happens once at
// startup. The type-mapping session is created fresh here and discarded
// with the call, so unrelated descriptors can never collide on type names.
func Build(d *descriptor.Descriptor, cfg Config) (*Result, error) {
	start := time.Now()
	if err := d.Validate(); err != nil {
		return nil, err
	}

	session := typemap.NewSession()
	names := NamesFor(d)
	s := schema.NewSchema(d.Description)

	domainType, err := buildDomainType(d, names, session)
	if err != nil {
		return nil, err
	}
	s.AddType(domainType)

	for _, t := range buildSharedTypes() {
		s.AddType(t)
	}
	for _, dir := range buildDirectives() {
		s.AddDirective(dir)
	}

	s.AddType(buildQueryRoot(d, names))
	s.SetQueryType("Query")

	mutation, err := buildMutationRoot(d, names, session)
	if err != nil {
		return nil, err
	}
	s.AddType(mutation)
	s.SetMutationType("Mutation")

	if cfg.EnableSubscriptions {
		s.AddType(buildSubscriptionRoot(names))
		s.SetSubscriptionType("Subscription")
	}

	// Session types (nested objects, enums, inputs) join the schema after
	// all roots are built so lazy field thunks have run for every shell.
	types := session.NamedTypes()
	for _, t := range types {
		s.AddType(t)
	}
	for name, t := range s.Types {
		t.Resolve()
		types[name] = t
	}

	eventbus.Publish(context.Background(), events.SchemaGenerated{
		DomainID:  d.ID,
		TypeCount: len(types),
		Duration:  time.Since(start),
		At:        time.Now(),
	})
	return &Result{Schema: s, Names: names, Types: types}, nil
}

// buildDomainType merges the data-schema and state-schema fields into one
// object type, with one JSON- or declared-typed field per derived and async
// path. A state field colliding with a data field is a generation error
// unless the descriptor opts into the legacy silent override.
func buildDomainType(d *descriptor.Descriptor, names Names, session *typemap.Session) (*schema.Type, error) {
	t := schema.NewType(names.DomainType, schema.TypeKindObject, d.Description)

	dataNode := d.Data.Unwrap()
	if dataNode.Kind != descriptor.KindObject {
		return nil, fmt.Errorf("assemble: descriptor %q: data schema must be an object node, got %s", d.ID, dataNode.Kind)
	}

	type pending struct {
		field *schema.Field
		path  string
	}
	index := make(map[string]int)
	var fields []pending

	addField := func(raw string, f *schema.Field) error {
		name := f.Name
		if at, dup := index[name]; dup {
			if !d.AllowFieldOverride {
				return fmt.Errorf("assemble: descriptor %q: state field %q collides with data field %q", d.ID, raw, name)
			}
			fields[at] = pending{field: f, path: raw}
			return nil
		}
		index[name] = len(fields)
		fields = append(fields, pending{field: f, path: raw})
		return nil
	}

	for _, fn := range dataNode.OrderedFields() {
		ref := session.MapOutput(fn.Node, names.DomainType+typemap.Capitalize(fn.Name))
		field := schema.NewField(typemap.FieldName(fn.Name), fn.Description, ref)
		annotate(field, fn.Node, fn.Description)
		if err := addField(fn.Name, field); err != nil {
			return nil, err
		}
	}

	if d.State != nil {
		stateNode := d.State.Unwrap()
		if stateNode.Kind != descriptor.KindObject {
			return nil, fmt.Errorf("assemble: descriptor %q: state schema must be an object node, got %s", d.ID, stateNode.Kind)
		}
		for _, fn := range stateNode.OrderedFields() {
			ref := session.MapOutput(fn.Node, names.DomainType+typemap.Capitalize(fn.Name))
			field := schema.NewField(typemap.FieldName(fn.Name), fn.Description, ref)
			annotate(field, fn.Node, fn.Description)
			if err := addField(fn.Name, field); err != nil {
				return nil, err
			}
		}
	}

	for _, df := range d.OrderedDerived() {
		var ref *schema.TypeRef
		if df.Node != nil {
			mapped := session.MapOutput(df.Node, names.DomainType+typemap.Capitalize(names.DerivedFields[df.Path]))
			// Derived values degrade to null on computation failure.
			ref = nullable(mapped)
		} else {
			ref = schema.NamedType(schema.ScalarJSON)
		}
		field := schema.NewField(names.DerivedFields[df.Path], df.Description, ref)
		if df.Description != "" {
			field.AddDirective(&schema.AppliedDirective{
				Name: "meta",
				Args: []schema.DirectiveArg{{Name: "kind", Value: "derived"}, {Name: "description", Value: df.Description}},
			})
		}
		if err := addField(df.Path, field); err != nil {
			return nil, err
		}
	}

	for _, af := range d.OrderedAsync() {
		field := schema.NewField(names.AsyncFields[af.Path], af.Description, schema.NamedType(schema.ScalarJSON))
		if err := addField(af.Path, field); err != nil {
			return nil, err
		}
	}

	paths := names.FieldPaths
	for _, p := range fields {
		t.AddField(p.field)
		paths[p.field.Name] = p.path
	}
	return t, nil
}

// annotate attaches the declarative @meta directive when the node carries a
// description.
func annotate(f *schema.Field, node *descriptor.Node, description string) {
	if description == "" && (node == nil || node.Description == "") {
		return
	}
	desc := description
	if desc == "" {
		desc = node.Description
	}
	f.AddDirective(&schema.AppliedDirective{
		Name: "meta",
		Args: []schema.DirectiveArg{{Name: "description", Value: desc}},
	})
}

func buildQueryRoot(d *descriptor.Descriptor, names Names) *schema.Type {
	q := schema.NewType("Query", schema.TypeKindObject, "")
	q.AddField(schema.NewField(names.DomainQuery,
		fmt.Sprintf("Current snapshot of the %s domain, including derived fields.", names.Domain),
		schema.NamedType(names.DomainType)))
	q.AddField(schema.NewField(names.FieldQuery,
		"One field's value with metadata, validity and policy. Null when the path cannot be resolved.",
		schema.NamedType("FieldValue")).
		AddArgument(schema.NewInputValue("path", "", schema.NonNullType(schema.NamedType(schema.ScalarString)))))
	q.AddField(schema.NewField(names.PoliciesQuery,
		"Resolved policy for every declared path.",
		schema.NonNullType(schema.ListType(schema.NonNullType(schema.NamedType("FieldPolicy"))))))
	q.AddField(schema.NewField(names.ActionsQuery,
		"Every declared action and whether it may currently be invoked.",
		schema.NonNullType(schema.ListType(schema.NonNullType(schema.NamedType("ActionInfo"))))))
	return q
}

func buildMutationRoot(d *descriptor.Descriptor, names Names, session *typemap.Session) (*schema.Type, error) {
	m := schema.NewType("Mutation", schema.TypeKindObject, "")
	m.AddField(schema.NewField(names.SetFieldMutation,
		"Writes one field and reports the prior and new value.",
		schema.NonNullType(schema.NamedType("SetFieldResult"))).
		AddArgument(schema.NewInputValue("path", "", schema.NonNullType(schema.NamedType(schema.ScalarString)))).
		AddArgument(schema.NewInputValue("value", "", schema.NamedType(schema.ScalarJSON))))

	for _, a := range d.OrderedActions() {
		field := schema.NewField(names.ActionMutations[a.ID], a.Description,
			schema.NonNullType(schema.NamedType("ActionResult")))
		if a.Input != nil {
			inputName := names.DomainType + typemap.Capitalize(typemap.FieldName(a.ID))
			ref := session.MapInput(a.Input, inputName)
			field.AddArgument(schema.NewInputValue("input", "", ref))
		}
		m.AddField(field)
	}
	return m, nil
}

func buildSubscriptionRoot(names Names) *schema.Type {
	s := schema.NewType("Subscription", schema.TypeKindObject, "")
	s.AddField(schema.NewField(names.ChangedSubscription,
		"Emits on every change to the domain.",
		schema.NonNullType(schema.NamedType("ChangeEvent"))))
	s.AddField(schema.NewField(names.FieldChangedSubscription,
		"Emits on every change to one field path.",
		schema.NonNullType(schema.NamedType("FieldChangeEvent"))).
		AddArgument(schema.NewInputValue("path", "", schema.NonNullType(schema.NamedType(schema.ScalarString)))))
	return s
}

// nullable strips an outermost non-null wrapper.
func nullable(ref *schema.TypeRef) *schema.TypeRef {
	if schema.IsNonNull(ref) {
		return ref.OfType
	}
	return ref
}
