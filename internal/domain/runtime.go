package domain

import (
	"context"

	"github.com/hanpama/domainql/internal/descriptor"
)

// Snapshot is one consistent view of a domain's data and state.
type Snapshot struct {
	Data  map[string]any `json:"data"`
	State map[string]any `json:"state"`
}

// Precondition reports whether one declared condition of an action currently
// holds, with a human-readable reason when it does not.
type Precondition struct {
	Path      string `json:"path"`
	Satisfied bool   `json:"satisfied"`
	Reason    string `json:"reason,omitempty"`
}

// Runtime is the read/write surface of the external domain runtime. Every
// call is fallible; callers must degrade gracefully (nil, empty list, typed
// error) rather than propagate a raw failure.
type Runtime interface {
	// Get reads the value at a dotted path.
	Get(ctx context.Context, path string) (any, error)
	// Set writes the value at a dotted path.
	Set(ctx context.Context, path string, value any) error
	// Snapshot returns the current data and state.
	Snapshot(ctx context.Context) (Snapshot, error)
	// Preconditions reports the current standing of an action's declared
	// preconditions.
	Preconditions(ctx context.Context, actionID string) ([]Precondition, error)
}

// ConditionEvaluator is an optional runtime capability for evaluating
// conditional-effect references.
type ConditionEvaluator interface {
	EvaluateCondition(ctx context.Context, ref descriptor.ConditionRef) (bool, error)
}

// AsyncLoader is an optional runtime capability for loading async field
// values on demand.
type AsyncLoader interface {
	LoadAsync(ctx context.Context, path string) (any, error)
}

// EffectRunner is an optional runtime capability: a generic execution hook
// for effect nodes the interpreter does not recognize.
type EffectRunner interface {
	RunEffect(ctx context.Context, node *descriptor.Effect, input map[string]any) (any, error)
}
