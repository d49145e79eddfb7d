package domain

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/hanpama/domainql/internal/descriptor"
)

// Memory is an in-process Runtime backed by plain maps. It evaluates action
// preconditions from the descriptor's declared condition refs against live
// values. Intended for tests, demos and embedding; a production runtime
// lives outside this module.
type Memory struct {
	mu      sync.RWMutex
	desc    *descriptor.Descriptor
	data    map[string]any
	state   map[string]any
	loaders map[string]func(ctx context.Context) (any, error)
}

// NewMemory creates a memory runtime seeded with the given data and state.
// Either map may be nil.
func NewMemory(desc *descriptor.Descriptor, data, state map[string]any) *Memory {
	if data == nil {
		data = make(map[string]any)
	}
	if state == nil {
		state = make(map[string]any)
	}
	return &Memory{
		desc:    desc,
		data:    data,
		state:   state,
		loaders: make(map[string]func(ctx context.Context) (any, error)),
	}
}

// RegisterLoader installs an async loader for path, exposed through the
// AsyncLoader capability.
func (m *Memory) RegisterLoader(path string, fn func(ctx context.Context) (any, error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loaders[path] = fn
}

func (m *Memory) Get(ctx context.Context, path string) (any, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	// State shadows data on lookup, matching the merged domain type.
	if v, ok := lookupPath(m.state, path); ok {
		return v, nil
	}
	if v, ok := lookupPath(m.data, path); ok {
		return v, nil
	}
	return nil, fmt.Errorf("domain: path %q not found", path)
}

func (m *Memory) Set(ctx context.Context, path string, value any) error {
	if path == "" {
		return fmt.Errorf("domain: empty path")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := lookupPath(m.state, path); ok {
		return writePath(m.state, path, value)
	}
	return writePath(m.data, path, value)
}

func (m *Memory) Snapshot(ctx context.Context) (Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Snapshot{Data: copyMap(m.data), State: copyMap(m.state)}, nil
}

func (m *Memory) Preconditions(ctx context.Context, actionID string) ([]Precondition, error) {
	if m.desc == nil {
		return nil, nil
	}
	action, ok := m.desc.Actions[actionID]
	if !ok {
		return nil, fmt.Errorf("domain: unknown action %q", actionID)
	}
	out := make([]Precondition, 0, len(action.Preconditions))
	for _, ref := range action.Preconditions {
		satisfied, err := m.EvaluateCondition(ctx, ref)
		p := Precondition{Path: ref.Path, Satisfied: satisfied && err == nil}
		if !p.Satisfied {
			p.Reason = conditionReason(ref, err)
		}
		out = append(out, p)
	}
	return out, nil
}

// EvaluateCondition checks one condition ref against live values. With no
// expected value the condition holds when the path resolves to a truthy
// value.
func (m *Memory) EvaluateCondition(ctx context.Context, ref descriptor.ConditionRef) (bool, error) {
	current, err := m.Get(ctx, ref.Path)
	if err != nil {
		return false, err
	}
	if ref.Expect == nil {
		return isTruthy(current), nil
	}
	return reflect.DeepEqual(current, ref.Expect), nil
}

// LoadAsync runs the registered loader for path, if any.
func (m *Memory) LoadAsync(ctx context.Context, path string) (any, error) {
	m.mu.RLock()
	fn := m.loaders[path]
	m.mu.RUnlock()
	if fn == nil {
		return nil, fmt.Errorf("domain: no loader for path %q", path)
	}
	return fn(ctx)
}

func conditionReason(ref descriptor.ConditionRef, err error) string {
	if ref.Description != "" {
		return ref.Description
	}
	if err != nil {
		return fmt.Sprintf("condition on %q could not be evaluated: %v", ref.Path, err)
	}
	if ref.Expect != nil {
		return fmt.Sprintf("%s must be %v", ref.Path, ref.Expect)
	}
	return fmt.Sprintf("%s must be set", ref.Path)
}

func isTruthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case int:
		return t != 0
	case int64:
		return t != 0
	case float64:
		return t != 0
	default:
		return true
	}
}

// lookupPath walks a dotted path through nested string-keyed maps.
func lookupPath(root map[string]any, path string) (any, bool) {
	parts := strings.Split(path, ".")
	var cur any = root
	for _, part := range parts {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// writePath writes a value at a dotted path, creating intermediate maps.
func writePath(root map[string]any, path string, value any) error {
	parts := strings.Split(path, ".")
	cur := root
	for _, part := range parts[:len(parts)-1] {
		next, ok := cur[part]
		if !ok {
			child := make(map[string]any)
			cur[part] = child
			cur = child
			continue
		}
		child, ok := next.(map[string]any)
		if !ok {
			return fmt.Errorf("domain: path %q crosses a non-object value", path)
		}
		cur = child
	}
	cur[parts[len(parts)-1]] = value
	return nil
}

func copyMap(src map[string]any) map[string]any {
	dst := make(map[string]any, len(src))
	for k, v := range src {
		if nested, ok := v.(map[string]any); ok {
			dst[k] = copyMap(nested)
			continue
		}
		dst[k] = v
	}
	return dst
}
