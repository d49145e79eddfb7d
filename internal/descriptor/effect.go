package descriptor

// EffectKind identifies one variant of the action side-effect algebra.
type EffectKind string

const (
	EffectSet         EffectKind = "SET"
	EffectSequence    EffectKind = "SEQUENCE"
	EffectParallel    EffectKind = "PARALLEL"
	EffectConditional EffectKind = "CONDITIONAL"
	EffectCustom      EffectKind = "CUSTOM"
)

// Effect is one node of an action's side-effect tree. The tree is finite and
// acyclic; Kind selects the variant.
type Effect struct {
	Kind EffectKind `json:"kind"`

	// SET
	Path      string `json:"path,omitempty"`
	Value     any    `json:"value,omitempty"`
	FromInput string `json:"fromInput,omitempty"` // read the value from this input key instead
	// ValueFunc computes the value from the caller's input. Takes precedence
	// over Value and FromInput. Not representable in YAML.
	ValueFunc func(input map[string]any) any `json:"-"`

	// SEQUENCE, PARALLEL
	Children []*Effect `json:"children,omitempty"`

	// CONDITIONAL
	Condition *ConditionRef `json:"condition,omitempty"`
	Then      *Effect       `json:"then,omitempty"`
	Else      *Effect       `json:"else,omitempty"`

	// CUSTOM
	Handler string `json:"handler,omitempty"`

	Description string `json:"description,omitempty"`
}

// SetEffect builds a SET node writing a literal value.
func SetEffect(path string, value any) *Effect {
	return &Effect{Kind: EffectSet, Path: path, Value: value}
}

// SetFromInput builds a SET node writing the named input value.
func SetFromInput(path, inputKey string) *Effect {
	return &Effect{Kind: EffectSet, Path: path, FromInput: inputKey}
}

// SequenceEffect builds a SEQUENCE node.
func SequenceEffect(children ...*Effect) *Effect {
	return &Effect{Kind: EffectSequence, Children: children}
}

// ParallelEffect builds a PARALLEL node.
func ParallelEffect(children ...*Effect) *Effect {
	return &Effect{Kind: EffectParallel, Children: children}
}

// ConditionalEffect builds a CONDITIONAL node. elseEffect may be nil.
func ConditionalEffect(cond ConditionRef, then, elseEffect *Effect) *Effect {
	return &Effect{Kind: EffectConditional, Condition: &cond, Then: then, Else: elseEffect}
}

// CustomEffect builds a CUSTOM node invoking the named registered handler.
func CustomEffect(handler, description string) *Effect {
	return &Effect{Kind: EffectCustom, Handler: handler, Description: description}
}
