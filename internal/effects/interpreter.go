// Package effects executes an action's effect tree against the domain
// runtime. Interpretation never panics and never returns a Go error at the
// top level: the caller always receives applied-effect and error lists.
package effects

import (
	"context"
	"fmt"
	"reflect"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/hanpama/domainql/internal/descriptor"
	"github.com/hanpama/domainql/internal/domain"
	"github.com/hanpama/domainql/internal/fault"
)

// Handler is a caller-registered implementation for a Custom effect node.
type Handler func(ctx context.Context, rt domain.Runtime, input map[string]any) (any, error)

// Applied describes one effect that was actually carried out.
type Applied struct {
	Kind        string `json:"kind"`
	Path        string `json:"path,omitempty"`
	Value       any    `json:"value,omitempty"`
	Description string `json:"description,omitempty"`
}

// Result aggregates everything one interpretation pass did and everything
// that went wrong. Effects applied before a failure are not rolled back;
// partial application is the documented contract.
type Result struct {
	Effects []Applied      `json:"effects"`
	Errors  []*fault.Error `json:"errors,omitempty"`
}

// OK reports whether the pass completed without errors.
func (r Result) OK() bool { return len(r.Errors) == 0 }

func (r *Result) merge(other Result) {
	r.Effects = append(r.Effects, other.Effects...)
	r.Errors = append(r.Errors, other.Errors...)
}

// Interpreter walks effect trees. One instance may serve many actions;
// Register is not safe to call concurrently with Interpret.
type Interpreter struct {
	handlers map[string]Handler
	log      zerolog.Logger
}

// New creates an interpreter with no custom handlers.
func New(logger zerolog.Logger) *Interpreter {
	return &Interpreter{handlers: make(map[string]Handler), log: logger}
}

// Register installs the handler for Custom nodes naming name.
func (i *Interpreter) Register(name string, h Handler) *Interpreter {
	i.handlers[name] = h
	return i
}

// Interpret executes node against rt with the caller's input. Exceptions at
// any node boundary are caught and converted to typed errors.
func (i *Interpreter) Interpret(ctx context.Context, node *descriptor.Effect, rt domain.Runtime, input map[string]any) Result {
	if node == nil {
		return Result{}
	}
	return i.interpretNode(ctx, node, rt, input)
}

func (i *Interpreter) interpretNode(ctx context.Context, node *descriptor.Effect, rt domain.Runtime, input map[string]any) (res Result) {
	defer func() {
		if rec := recover(); rec != nil {
			i.log.Error().Str("effect", string(node.Kind)).Interface("panic", rec).Msg("effect node panicked")
			res.Errors = append(res.Errors, fault.New(fault.CodeEffect, node.Path, "effect %s panicked: %v", node.Kind, rec))
		}
	}()

	switch node.Kind {
	case descriptor.EffectSet:
		return i.interpretSet(ctx, node, rt, input)
	case descriptor.EffectSequence:
		return i.interpretSequence(ctx, node, rt, input)
	case descriptor.EffectParallel:
		return i.interpretParallel(ctx, node, rt, input)
	case descriptor.EffectConditional:
		return i.interpretConditional(ctx, node, rt, input)
	case descriptor.EffectCustom:
		return i.interpretCustom(ctx, node, rt, input)
	default:
		return i.runFallback(ctx, node, rt, input)
	}
}

func (i *Interpreter) interpretSet(ctx context.Context, node *descriptor.Effect, rt domain.Runtime, input map[string]any) Result {
	value := setValue(node, input)
	if err := rt.Set(ctx, node.Path, value); err != nil {
		return Result{Errors: []*fault.Error{fault.From(fault.CodeEffect, node.Path, err)}}
	}
	desc := node.Description
	if desc == "" {
		desc = fmt.Sprintf("set %s to %v", node.Path, value)
	}
	return Result{Effects: []Applied{{Kind: "set", Path: node.Path, Value: value, Description: desc}}}
}

func setValue(node *descriptor.Effect, input map[string]any) any {
	if node.ValueFunc != nil {
		return node.ValueFunc(input)
	}
	if node.FromInput != "" {
		return input[node.FromInput]
	}
	return node.Value
}

// interpretSequence runs children strictly in order, stopping at the first
// child reporting an error. Effects already applied stay applied.
func (i *Interpreter) interpretSequence(ctx context.Context, node *descriptor.Effect, rt domain.Runtime, input map[string]any) Result {
	var res Result
	for _, child := range node.Children {
		sub := i.interpretNode(ctx, child, rt, input)
		res.merge(sub)
		if !sub.OK() {
			break
		}
	}
	return res
}

// interpretParallel runs every child regardless of individual failure and
// aggregates all contributions, ordered by child index.
func (i *Interpreter) interpretParallel(ctx context.Context, node *descriptor.Effect, rt domain.Runtime, input map[string]any) Result {
	subs := make([]Result, len(node.Children))
	var g errgroup.Group
	for idx, child := range node.Children {
		g.Go(func() error {
			subs[idx] = i.interpretNode(ctx, child, rt, input)
			return nil
		})
	}
	_ = g.Wait()

	var res Result
	for _, sub := range subs {
		res.merge(sub)
	}
	return res
}

// interpretConditional evaluates the condition against the runtime and
// executes exactly one branch. A false condition with no else branch
// executes nothing.
func (i *Interpreter) interpretConditional(ctx context.Context, node *descriptor.Effect, rt domain.Runtime, input map[string]any) Result {
	ok, err := evaluateCondition(ctx, rt, *node.Condition)
	if err != nil {
		return Result{Errors: []*fault.Error{fault.From(fault.CodeEffect, node.Condition.Path, err)}}
	}
	if ok {
		return i.interpretNode(ctx, node.Then, rt, input)
	}
	if node.Else != nil {
		return i.interpretNode(ctx, node.Else, rt, input)
	}
	return Result{}
}

func evaluateCondition(ctx context.Context, rt domain.Runtime, ref descriptor.ConditionRef) (bool, error) {
	if ev, ok := rt.(domain.ConditionEvaluator); ok {
		return ev.EvaluateCondition(ctx, ref)
	}
	current, err := rt.Get(ctx, ref.Path)
	if err != nil {
		return false, err
	}
	if ref.Expect == nil {
		return current != nil && current != false && current != "", nil
	}
	return reflect.DeepEqual(current, ref.Expect), nil
}

func (i *Interpreter) interpretCustom(ctx context.Context, node *descriptor.Effect, rt domain.Runtime, input map[string]any) Result {
	handler, ok := i.handlers[node.Handler]
	if !ok {
		return i.runFallback(ctx, node, rt, input)
	}
	value, err := handler(ctx, rt, input)
	if err != nil {
		return Result{Errors: []*fault.Error{fault.From(fault.CodeEffect, "", err)}}
	}
	desc := node.Description
	if desc == "" {
		desc = fmt.Sprintf("custom effect %s", node.Handler)
	}
	return Result{Effects: []Applied{{Kind: "custom", Value: value, Description: desc}}}
}

// runFallback hands an unrecognized node to the runtime's generic execution
// hook when one exists; otherwise the node is a no-op.
func (i *Interpreter) runFallback(ctx context.Context, node *descriptor.Effect, rt domain.Runtime, input map[string]any) Result {
	runner, ok := rt.(domain.EffectRunner)
	if !ok {
		i.log.Debug().Str("effect", string(node.Kind)).Str("handler", node.Handler).Msg("effect has no handler; skipping")
		return Result{}
	}
	value, err := runner.RunEffect(ctx, node, input)
	if err != nil {
		return Result{Errors: []*fault.Error{fault.From(fault.CodeEffect, node.Path, err)}}
	}
	desc := node.Description
	if desc == "" {
		desc = fmt.Sprintf("runtime effect %s", node.Kind)
	}
	return Result{Effects: []Applied{{Kind: string(node.Kind), Path: node.Path, Value: value, Description: desc}}}
}
