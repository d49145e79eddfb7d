// Package resolve produces the resolver maps backing a generated schema.
// Resolvers read the per-request bundle from the context, so one factory
// output serves every request against the same descriptor.
package resolve

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/hanpama/domainql/internal/assemble"
	"github.com/hanpama/domainql/internal/descriptor"
	"github.com/hanpama/domainql/internal/domain"
	"github.com/hanpama/domainql/internal/effects"
	"github.com/hanpama/domainql/internal/eventbus"
	"github.com/hanpama/domainql/internal/events"
	"github.com/hanpama/domainql/internal/fault"
	"github.com/hanpama/domainql/internal/pubsub"
	"github.com/hanpama/domainql/internal/reqctx"
)

// Func resolves one field. parent is the parent field's resolved value, nil
// at an operation root.
type Func func(ctx context.Context, parent any, args map[string]any) (any, error)

// SubscribeFunc opens the event stream backing one subscription field.
type SubscribeFunc func(ctx context.Context, args map[string]any) (*pubsub.Iterator, error)

// Map is a complete resolver set for one schema.
type Map struct {
	Query        map[string]Func
	Mutation     map[string]Func
	Subscription map[string]SubscribeFunc
	// Fields holds per-type field resolvers, keyed by type name then field
	// name. Fields without an entry resolve from the parent map.
	Fields map[string]map[string]Func
}

// Factory builds resolver maps for one descriptor.
type Factory struct {
	desc        *descriptor.Descriptor
	names       assemble.Names
	interpreter *effects.Interpreter
	log         zerolog.Logger
}

// NewFactory creates a factory. The interpreter may carry registered custom
// effect handlers; nil is replaced with an empty interpreter.
func NewFactory(d *descriptor.Descriptor, names assemble.Names, interp *effects.Interpreter, logger zerolog.Logger) *Factory {
	if interp == nil {
		interp = effects.New(logger)
	}
	return &Factory{desc: d, names: names, interpreter: interp, log: logger}
}

// Build produces the full resolver map. Every resolver is wrapped with
// WithRecover so a panic degrades to a typed internal error.
func (f *Factory) Build() Map {
	m := Map{
		Query:        make(map[string]Func),
		Mutation:     make(map[string]Func),
		Subscription: make(map[string]SubscribeFunc),
		Fields:       map[string]map[string]Func{f.names.DomainType: make(map[string]Func)},
	}

	m.Query[f.names.DomainQuery] = WithRecover(f.resolveDomain)
	m.Query[f.names.FieldQuery] = WithRecover(f.resolveField)
	m.Query[f.names.PoliciesQuery] = WithRecover(f.resolvePolicies)
	m.Query[f.names.ActionsQuery] = WithRecover(f.resolveActions)

	m.Mutation[f.names.SetFieldMutation] = WithRecover(f.resolveSetField)
	for _, a := range f.desc.OrderedActions() {
		m.Mutation[f.names.ActionMutations[a.ID]] = WithRecover(f.actionResolver(a))
	}

	m.Subscription[f.names.ChangedSubscription] = f.subscribeChanged
	m.Subscription[f.names.FieldChangedSubscription] = f.subscribeFieldChanged

	domainFields := m.Fields[f.names.DomainType]
	for path, field := range f.names.DerivedFields {
		domainFields[field] = WithRecover(f.derivedResolver(path))
	}
	for path, field := range f.names.AsyncFields {
		domainFields[field] = WithRecover(f.asyncResolver(path))
	}
	return m
}

func (f *Factory) bundle(ctx context.Context) (*reqctx.Bundle, error) {
	b, ok := reqctx.FromContext(ctx)
	if !ok || b.Runtime == nil {
		return nil, fault.New(fault.CodeInternal, "", "no domain runtime bound to request")
	}
	return b, nil
}

// resolveDomain returns the snapshot merged with every derived value. A
// derived computation failing degrades that one field to nil; the rest of
// the snapshot still resolves.
func (f *Factory) resolveDomain(ctx context.Context, _ any, _ map[string]any) (any, error) {
	b, err := f.bundle(ctx)
	if err != nil {
		return nil, err
	}
	snap, err := b.Runtime.Snapshot(ctx)
	if err != nil {
		f.log.Error().Err(err).Str("domain", f.desc.ID).Msg("snapshot failed")
		return nil, nil
	}

	out := make(map[string]any, len(f.names.FieldPaths))
	for field, path := range f.names.FieldPaths {
		if _, isDerived := f.names.DerivedFields[path]; isDerived {
			continue
		}
		if _, isAsync := f.names.AsyncFields[path]; isAsync {
			continue
		}
		if v, ok := snap.State[path]; ok {
			out[field] = v
		} else if v, ok := snap.Data[path]; ok {
			out[field] = v
		}
	}
	for path, field := range f.names.DerivedFields {
		v, err := b.Runtime.Get(ctx, path)
		if err != nil {
			f.log.Warn().Err(err).Str("path", path).Msg("derived field degraded to null")
			continue
		}
		out[field] = v
	}
	return out, nil
}

// resolveField returns the FieldValue envelope for one raw path, or nil when
// the path is not declared.
func (f *Factory) resolveField(ctx context.Context, _ any, args map[string]any) (any, error) {
	b, err := f.bundle(ctx)
	if err != nil {
		return nil, err
	}
	path, _ := args["path"].(string)
	node := f.fieldNode(path)
	if node == nil {
		if _, ok := f.names.DerivedFields[path]; !ok {
			if _, ok := f.names.AsyncFields[path]; !ok {
				return nil, nil
			}
		}
	}

	value, err := b.Runtime.Get(ctx, path)
	if err != nil {
		f.log.Warn().Err(err).Str("path", path).Msg("field read degraded to null value")
		value = nil
	}
	return map[string]any{
		"path":       path,
		"value":      value,
		"meta":       f.fieldMeta(path, node),
		"validation": map[string]any{"valid": true, "errors": []any{}},
		"policy":     f.fieldPolicy(path),
	}, nil
}

func (f *Factory) resolvePolicies(ctx context.Context, _ any, _ map[string]any) (any, error) {
	if _, err := f.bundle(ctx); err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(f.names.FieldPaths))
	for _, path := range f.names.FieldPaths {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	out := make([]any, 0, len(paths))
	for _, path := range paths {
		out = append(out, f.fieldPolicy(path))
	}
	return out, nil
}

func (f *Factory) resolveActions(ctx context.Context, _ any, _ map[string]any) (any, error) {
	b, err := f.bundle(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]any, 0, len(f.desc.Actions))
	for _, a := range f.desc.OrderedActions() {
		allowed := true
		reasons := []any{}
		pres, err := b.Runtime.Preconditions(ctx, a.ID)
		if err != nil {
			allowed = false
			reasons = append(reasons, err.Error())
		} else {
			for _, p := range pres {
				if !p.Satisfied {
					allowed = false
					reasons = append(reasons, p.Reason)
				}
			}
		}
		out = append(out, map[string]any{
			"id":          a.ID,
			"verb":        a.Verb,
			"description": a.Description,
			"allowed":     allowed,
			"reasons":     reasons,
		})
	}
	return out, nil
}

// resolveSetField reads the prior value, writes the new one, and publishes
// the change events. A failed write is returned as a typed envelope, never
// as a GraphQL error.
func (f *Factory) resolveSetField(ctx context.Context, _ any, args map[string]any) (any, error) {
	b, err := f.bundle(ctx)
	if err != nil {
		return nil, err
	}
	path, _ := args["path"].(string)
	value := args["value"]

	if f.fieldNode(path) == nil {
		fe := fault.New(fault.CodeFieldNotFound, path, "field %q is not declared", path)
		return setFieldEnvelope(false, path, nil, nil, fe), nil
	}

	prior, err := b.Runtime.Get(ctx, path)
	if err != nil {
		prior = nil
	}
	if err := b.Runtime.Set(ctx, path, value); err != nil {
		return setFieldEnvelope(false, path, prior, nil, fault.From(fault.CodeValidation, path, err)), nil
	}

	now := time.Now().UTC()
	eventbus.Publish(ctx, events.FieldWrite{
		RequestID: b.RequestID, DomainID: f.desc.ID, Path: path, At: now,
	})
	if b.Broker != nil {
		b.Broker.Publish(pubsub.ChangedTrigger(f.desc.ID), map[string]any{
			"domainId": f.desc.ID, "kind": "field", "path": path, "at": now,
		})
		b.Broker.Publish(pubsub.FieldTrigger(f.desc.ID, path), map[string]any{
			"domainId": f.desc.ID, "path": path,
			"previousValue": prior, "newValue": value, "at": now,
		})
	}
	return setFieldEnvelope(true, path, prior, value, nil), nil
}

// actionResolver checks the runtime's preconditions before touching the
// interpreter. Any violation fails the mutation with one typed error per
// unsatisfied condition and no effect is applied.
func (f *Factory) actionResolver(a *descriptor.Action) Func {
	return func(ctx context.Context, _ any, args map[string]any) (any, error) {
		b, err := f.bundle(ctx)
		if err != nil {
			return nil, err
		}
		now := time.Now().UTC()
		eventbus.Publish(ctx, events.ActionDispatch{
			RequestID: b.RequestID, DomainID: f.desc.ID, ActionID: a.ID, At: now,
		})

		pres, err := b.Runtime.Preconditions(ctx, a.ID)
		if err != nil {
			return actionEnvelope(effects.Result{Errors: []*fault.Error{
				fault.From(fault.CodePrecondition, "", err),
			}}), nil
		}
		var violations []*fault.Error
		for _, p := range pres {
			if !p.Satisfied {
				violations = append(violations, fault.New(fault.CodePrecondition, p.Path, "%s", p.Reason))
			}
		}
		if len(violations) > 0 {
			res := effects.Result{Errors: violations}
			f.publishActionResult(ctx, b, a, res)
			return actionEnvelope(res), nil
		}

		input, _ := args["input"].(map[string]any)
		res := f.interpreter.Interpret(ctx, a.Effect, b.Runtime, input)
		f.publishActionResult(ctx, b, a, res)
		if res.OK() && b.Broker != nil {
			b.Broker.Publish(pubsub.ChangedTrigger(f.desc.ID), map[string]any{
				"domainId": f.desc.ID, "kind": "action", "action": a.ID, "at": time.Now().UTC(),
			})
			b.Broker.Publish(pubsub.ActionTrigger(f.desc.ID, a.ID), map[string]any{
				"domainId": f.desc.ID, "action": a.ID, "at": time.Now().UTC(),
			})
		}
		return actionEnvelope(res), nil
	}
}

func (f *Factory) publishActionResult(ctx context.Context, b *reqctx.Bundle, a *descriptor.Action, res effects.Result) {
	eventbus.Publish(ctx, events.ActionResult{
		RequestID:   b.RequestID,
		DomainID:    f.desc.ID,
		ActionID:    a.ID,
		Success:     res.OK(),
		EffectCount: len(res.Effects),
		ErrorCount:  len(res.Errors),
		At:          time.Now().UTC(),
	})
}

func (f *Factory) subscribeChanged(ctx context.Context, _ map[string]any) (*pubsub.Iterator, error) {
	b, err := f.bundle(ctx)
	if err != nil {
		return nil, err
	}
	if b.Broker == nil {
		return nil, fault.New(fault.CodeInternal, "", "no broker bound to request")
	}
	return b.Broker.Iterator(pubsub.ChangedTrigger(f.desc.ID)), nil
}

func (f *Factory) subscribeFieldChanged(ctx context.Context, args map[string]any) (*pubsub.Iterator, error) {
	b, err := f.bundle(ctx)
	if err != nil {
		return nil, err
	}
	if b.Broker == nil {
		return nil, fault.New(fault.CodeInternal, "", "no broker bound to request")
	}
	path, _ := args["path"].(string)
	return b.Broker.Iterator(pubsub.FieldTrigger(f.desc.ID, path)), nil
}

// derivedResolver reads the derived value live from the runtime. Errors are
// logged and degrade to null.
func (f *Factory) derivedResolver(path string) Func {
	return func(ctx context.Context, parent any, _ map[string]any) (any, error) {
		if m, ok := parent.(map[string]any); ok {
			if v, ok := m[f.names.DerivedFields[path]]; ok {
				return v, nil
			}
		}
		b, err := f.bundle(ctx)
		if err != nil {
			return nil, err
		}
		v, err := b.Runtime.Get(ctx, path)
		if err != nil {
			f.log.Warn().Err(err).Str("path", path).Msg("derived field degraded to null")
			return nil, nil
		}
		return v, nil
	}
}

// asyncResolver serves a cached value when the snapshot already carries one,
// falls back to the runtime's async loader, and degrades to null otherwise.
func (f *Factory) asyncResolver(path string) Func {
	return func(ctx context.Context, parent any, _ map[string]any) (any, error) {
		if m, ok := parent.(map[string]any); ok {
			if v, ok := m[f.names.AsyncFields[path]]; ok && v != nil {
				return v, nil
			}
		}
		b, err := f.bundle(ctx)
		if err != nil {
			return nil, err
		}
		loader, ok := b.Runtime.(domain.AsyncLoader)
		if !ok {
			return nil, nil
		}
		v, err := loader.LoadAsync(ctx, path)
		if err != nil {
			f.log.Warn().Err(err).Str("path", path).Msg("async load degraded to null")
			return nil, nil
		}
		return v, nil
	}
}

// fieldNode finds the declared node for a raw data or state path.
func (f *Factory) fieldNode(path string) *descriptor.Node {
	if n := findField(f.desc.State, path); n != nil {
		return n
	}
	return findField(f.desc.Data, path)
}

func findField(root *descriptor.Node, name string) *descriptor.Node {
	if root == nil {
		return nil
	}
	obj := root.Unwrap()
	if obj == nil || obj.Kind != descriptor.KindObject {
		return nil
	}
	for _, fn := range obj.Fields {
		if fn.Name == name {
			return fn.Node
		}
	}
	return nil
}

func (f *Factory) fieldMeta(path string, node *descriptor.Node) map[string]any {
	kind := "data"
	desc := ""
	if node != nil {
		desc = node.Description
	}
	if _, ok := f.names.DerivedFields[path]; ok {
		kind = "derived"
		if d := f.desc.Derived[path]; d != nil {
			desc = d.Description
		}
	} else if _, ok := f.names.AsyncFields[path]; ok {
		kind = "async"
		if a := f.desc.Async[path]; a != nil {
			desc = a.Description
		}
	}
	return map[string]any{"kind": kind, "description": desc, "importance": nil}
}

// fieldPolicy returns the open default policy. Policy sources beyond the
// descriptor are out of scope here; the envelope shape is what clients bind
// to.
func (f *Factory) fieldPolicy(path string) map[string]any {
	return map[string]any{
		"path":     path,
		"editable": true,
		"required": !f.pathOptional(path),
		"visible":  true,
	}
}

func (f *Factory) pathOptional(path string) bool {
	node := f.fieldNode(path)
	if node == nil {
		return true
	}
	return node.IsOptional()
}

func setFieldEnvelope(success bool, path string, prior, next any, fe *fault.Error) map[string]any {
	env := map[string]any{
		"success":       success,
		"path":          path,
		"previousValue": prior,
		"newValue":      next,
		"errors":        []any{},
	}
	if fe != nil {
		env["errors"] = []any{faultMap(fe)}
	}
	return env
}

func actionEnvelope(res effects.Result) map[string]any {
	errs := make([]any, 0, len(res.Errors))
	for _, e := range res.Errors {
		errs = append(errs, faultMap(e))
	}
	applied := make([]any, 0, len(res.Effects))
	for _, a := range res.Effects {
		applied = append(applied, map[string]any{
			"kind":        a.Kind,
			"path":        a.Path,
			"value":       a.Value,
			"description": a.Description,
		})
	}
	return map[string]any{"success": res.OK(), "errors": errs, "effects": applied}
}

func faultMap(e *fault.Error) map[string]any {
	m := map[string]any{"code": string(e.Code), "message": e.Message}
	if e.Path != "" {
		m["path"] = e.Path
	} else {
		m["path"] = nil
	}
	return m
}
