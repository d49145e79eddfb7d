package descriptor

import "sort"

// Descriptor is the declarative definition of one business domain: its data
// and state shapes, derived and async fields, and the actions that may be
// invoked against it. A Descriptor is immutable for the life of one schema
// generation call.
type Descriptor struct {
	ID          string                   `json:"id"`
	Name        string                   `json:"name"`
	Description string                   `json:"description,omitempty"`
	Data        *Node                    `json:"data"`
	State       *Node                    `json:"state,omitempty"`
	Derived     map[string]*DerivedField `json:"derived,omitempty"`
	Async       map[string]*AsyncField   `json:"async,omitempty"`
	Actions     map[string]*Action       `json:"actions,omitempty"`

	// AllowFieldOverride restores the legacy behavior where a state field
	// silently replaces a same-named data field in the merged domain type.
	// When false, the collision is a generation error.
	AllowFieldOverride bool `json:"allowFieldOverride,omitempty"`
}

// DerivedField is a read-only field computed from live domain values.
type DerivedField struct {
	Path        string `json:"path"`
	Node        *Node  `json:"node,omitempty"`
	Description string `json:"description,omitempty"`
	Index       int    `json:"index"`
}

// AsyncField is a field populated by the runtime's async loader.
type AsyncField struct {
	Path        string `json:"path"`
	Loader      string `json:"loader"`
	Description string `json:"description,omitempty"`
	Index       int    `json:"index"`
}

// Action declares one invocable operation: its preconditions and the effect
// tree applied when they hold.
type Action struct {
	ID            string         `json:"id"`
	Verb          string         `json:"verb,omitempty"`
	Description   string         `json:"description,omitempty"`
	Index         int            `json:"index"`
	Preconditions []ConditionRef `json:"preconditions,omitempty"`
	Effect        *Effect        `json:"effect,omitempty"`
	Input         *Node          `json:"input,omitempty"`
}

// ConditionRef names a condition the runtime can evaluate, typically a path
// with an expected value.
type ConditionRef struct {
	Path        string `json:"path"`
	Expect      any    `json:"expect,omitempty"`
	Description string `json:"description,omitempty"`
}

// NodeKind identifies one variant of the value-shape description.
type NodeKind string

const (
	KindString     NodeKind = "STRING"
	KindNumber     NodeKind = "NUMBER"
	KindBoolean    NodeKind = "BOOLEAN"
	KindDate       NodeKind = "DATE"
	KindEnum       NodeKind = "ENUM"
	KindNativeEnum NodeKind = "NATIVE_ENUM"
	KindArray      NodeKind = "ARRAY"
	KindObject     NodeKind = "OBJECT"
	KindUnion      NodeKind = "UNION"
	KindLiteral    NodeKind = "LITERAL"
	KindOptional   NodeKind = "OPTIONAL"
	KindNullable   NodeKind = "NULLABLE"
	KindDefault    NodeKind = "DEFAULT"
	KindRecord     NodeKind = "RECORD"
	KindAny        NodeKind = "ANY"
)

// Node is one node of the value-shape description. Kind selects the variant;
// the other fields are meaningful only for the kinds noted. Wrapper kinds
// (Optional, Nullable, Default) carry exactly one inner node in Elem.
type Node struct {
	Kind        NodeKind     `json:"kind"`
	Integer     bool         `json:"integer,omitempty"`      // NUMBER
	Values      []string     `json:"values,omitempty"`       // ENUM
	Pairs       []EnumPair   `json:"pairs,omitempty"`        // NATIVE_ENUM
	Elem        *Node        `json:"elem,omitempty"`         // ARRAY, RECORD, OPTIONAL, NULLABLE, DEFAULT
	Fields      []*FieldNode `json:"fields,omitempty"`       // OBJECT, insertion ordered
	Options     []*Node      `json:"options,omitempty"`      // UNION
	Value       any          `json:"value,omitempty"`        // LITERAL
	Default     any          `json:"default,omitempty"`      // DEFAULT
	Description string       `json:"description,omitempty"`
}

// FieldNode is one named field of an object node.
type FieldNode struct {
	Name        string `json:"name"`
	Node        *Node  `json:"node"`
	Description string `json:"description,omitempty"`
	Index       int    `json:"index"`
}

// EnumPair is one name/value pair of a native enum.
type EnumPair struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// Unwrap strips Optional, Nullable and Default wrappers and returns the
// innermost node.
func (n *Node) Unwrap() *Node {
	cur := n
	for cur != nil {
		switch cur.Kind {
		case KindOptional, KindNullable, KindDefault:
			cur = cur.Elem
		default:
			return cur
		}
	}
	return nil
}

// IsOptional reports whether the node, after unwrapping Default, is Optional
// or Nullable at the outermost level.
func (n *Node) IsOptional() bool {
	cur := n
	for cur != nil && cur.Kind == KindDefault {
		cur = cur.Elem
	}
	if cur == nil {
		return false
	}
	return cur.Kind == KindOptional || cur.Kind == KindNullable
}

// OrderedFields returns an object node's fields sorted by declaration index.
func (n *Node) OrderedFields() []*FieldNode {
	fields := make([]*FieldNode, 0, len(n.Fields))
	fields = append(fields, n.Fields...)
	sort.Slice(fields, func(i, j int) bool { return fields[i].Index < fields[j].Index })
	return fields
}

// OrderedDerived returns the derived fields sorted by declaration index,
// then path.
func (d *Descriptor) OrderedDerived() []*DerivedField {
	out := make([]*DerivedField, 0, len(d.Derived))
	for _, f := range d.Derived {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Index != out[j].Index {
			return out[i].Index < out[j].Index
		}
		return out[i].Path < out[j].Path
	})
	return out
}

// OrderedAsync returns the async fields sorted by declaration index, then path.
func (d *Descriptor) OrderedAsync() []*AsyncField {
	out := make([]*AsyncField, 0, len(d.Async))
	for _, f := range d.Async {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Index != out[j].Index {
			return out[i].Index < out[j].Index
		}
		return out[i].Path < out[j].Path
	})
	return out
}

// OrderedActions returns the actions sorted by declaration index, then id.
func (d *Descriptor) OrderedActions() []*Action {
	out := make([]*Action, 0, len(d.Actions))
	for _, a := range d.Actions {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Index != out[j].Index {
			return out[i].Index < out[j].Index
		}
		return out[i].ID < out[j].ID
	})
	return out
}
