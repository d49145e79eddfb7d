package descriptor

import "fmt"

// Validate checks the descriptor for structural problems that would make
// schema generation meaningless. It is the one place in the system where a
// malformed input is allowed to surface as an error instead of degrading:
// generation happens once at startup, not per request.
func (d *Descriptor) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("descriptor: id is required")
	}
	if d.Data == nil {
		return fmt.Errorf("descriptor %q: data schema is required", d.ID)
	}
	if err := validateNode(d.Data, "data"); err != nil {
		return fmt.Errorf("descriptor %q: %w", d.ID, err)
	}
	if d.State != nil {
		if err := validateNode(d.State, "state"); err != nil {
			return fmt.Errorf("descriptor %q: %w", d.ID, err)
		}
	}
	for path, f := range d.Derived {
		if f.Node != nil {
			if err := validateNode(f.Node, "derived."+path); err != nil {
				return fmt.Errorf("descriptor %q: %w", d.ID, err)
			}
		}
	}
	for id, a := range d.Actions {
		if a.ID == "" {
			a.ID = id
		}
		if a.Input != nil {
			if err := validateNode(a.Input, "actions."+id+".input"); err != nil {
				return fmt.Errorf("descriptor %q: %w", d.ID, err)
			}
		}
		if a.Effect != nil {
			if err := validateEffect(a.Effect, "actions."+id+".effect"); err != nil {
				return fmt.Errorf("descriptor %q: %w", d.ID, err)
			}
		}
	}
	return nil
}

func validateNode(n *Node, at string) error {
	if n == nil {
		return fmt.Errorf("%s: nil node", at)
	}
	switch n.Kind {
	case KindString, KindNumber, KindBoolean, KindDate, KindLiteral, KindAny:
		return nil
	case KindEnum:
		if len(n.Values) == 0 {
			return fmt.Errorf("%s: enum requires at least one value", at)
		}
		return nil
	case KindNativeEnum:
		if len(n.Pairs) == 0 {
			return fmt.Errorf("%s: native enum requires at least one pair", at)
		}
		return nil
	case KindArray, KindRecord:
		if n.Elem == nil {
			return fmt.Errorf("%s: %s requires an element node", at, n.Kind)
		}
		return validateNode(n.Elem, at+".elem")
	case KindOptional, KindNullable, KindDefault:
		// Wrapper variants carry exactly one inner node.
		if n.Elem == nil {
			return fmt.Errorf("%s: %s wrapper requires an inner node", at, n.Kind)
		}
		return validateNode(n.Elem, at+".elem")
	case KindObject:
		seen := make(map[string]struct{}, len(n.Fields))
		for _, f := range n.Fields {
			if f.Name == "" {
				return fmt.Errorf("%s: object field requires a name", at)
			}
			if _, dup := seen[f.Name]; dup {
				return fmt.Errorf("%s: duplicate field %q", at, f.Name)
			}
			seen[f.Name] = struct{}{}
			if err := validateNode(f.Node, at+"."+f.Name); err != nil {
				return err
			}
		}
		return nil
	case KindUnion:
		if len(n.Options) == 0 {
			return fmt.Errorf("%s: union requires at least one option", at)
		}
		for i, opt := range n.Options {
			if err := validateNode(opt, fmt.Sprintf("%s.options[%d]", at, i)); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("%s: unknown node kind %q", at, n.Kind)
	}
}

func validateEffect(e *Effect, at string) error {
	switch e.Kind {
	case EffectSet:
		if e.Path == "" {
			return fmt.Errorf("%s: set effect requires a path", at)
		}
		return nil
	case EffectSequence, EffectParallel:
		for i, c := range e.Children {
			if c == nil {
				return fmt.Errorf("%s.children[%d]: nil effect", at, i)
			}
			if err := validateEffect(c, fmt.Sprintf("%s.children[%d]", at, i)); err != nil {
				return err
			}
		}
		return nil
	case EffectConditional:
		if e.Condition == nil {
			return fmt.Errorf("%s: conditional effect requires a condition", at)
		}
		if e.Then == nil {
			return fmt.Errorf("%s: conditional effect requires a then branch", at)
		}
		if err := validateEffect(e.Then, at+".then"); err != nil {
			return err
		}
		if e.Else != nil {
			return validateEffect(e.Else, at+".else")
		}
		return nil
	case EffectCustom:
		if e.Handler == "" {
			return fmt.Errorf("%s: custom effect requires a handler name", at)
		}
		return nil
	default:
		return fmt.Errorf("%s: unknown effect kind %q", at, e.Kind)
	}
}
