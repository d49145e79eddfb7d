package typemap

import (
	"github.com/hanpama/domainql/internal/descriptor"
	"github.com/hanpama/domainql/internal/schema"
)

// MapOutput maps a schema-description node to the output (read-shape) type
// reference named by name. It never fails: unsupported node kinds degrade to
// the JSON scalar. Every mapping is non-null unless the node, after
// unwrapping Default, is Optional or Nullable at the outermost level.
func (s *Session) MapOutput(node *descriptor.Node, name string) *schema.TypeRef {
	return s.mapNode(node, name, false)
}

// MapInput maps a schema-description node to the input (write-shape) type
// reference named by name. Object nodes generate input-object types suffixed
// "Input"; all other rules match MapOutput.
func (s *Session) MapInput(node *descriptor.Node, name string) *schema.TypeRef {
	return s.mapNode(node, name, true)
}

func (s *Session) mapNode(node *descriptor.Node, name string, input bool) *schema.TypeRef {
	if node == nil {
		return schema.NamedType(schema.ScalarJSON)
	}
	base := node.Unwrap()
	ref := s.mapBase(base, name, input)
	if node.IsOptional() {
		return ref
	}
	return schema.NonNullType(ref)
}

func (s *Session) mapBase(node *descriptor.Node, name string, input bool) *schema.TypeRef {
	if node == nil {
		return schema.NamedType(schema.ScalarJSON)
	}
	switch node.Kind {
	case descriptor.KindString:
		return schema.NamedType(schema.ScalarString)
	case descriptor.KindNumber:
		if node.Integer {
			return schema.NamedType(schema.ScalarInt)
		}
		return schema.NamedType(schema.ScalarFloat)
	case descriptor.KindBoolean:
		return schema.NamedType(schema.ScalarBoolean)
	case descriptor.KindDate:
		return schema.NamedType(schema.ScalarDateTime)
	case descriptor.KindEnum:
		return schema.NamedType(s.mapEnum(node, name).Name)
	case descriptor.KindNativeEnum:
		return schema.NamedType(s.mapNativeEnum(node, name).Name)
	case descriptor.KindArray:
		elem := s.mapNode(node.Elem, name+"Item", input)
		return schema.ListType(elem)
	case descriptor.KindObject:
		return schema.NamedType(s.mapObject(node, name, input).Name)
	case descriptor.KindUnion:
		return s.mapUnion(node)
	case descriptor.KindLiteral:
		return schema.NamedType(literalScalar(node.Value))
	case descriptor.KindRecord, descriptor.KindAny:
		return schema.NamedType(schema.ScalarJSON)
	default:
		return schema.NamedType(schema.ScalarJSON)
	}
}

func (s *Session) mapEnum(node *descriptor.Node, name string) *schema.Type {
	typeName := TypeName(name)
	if t, ok := s.lookup(typeName); ok {
		return t
	}
	t := schema.NewType(typeName, schema.TypeKindEnum, node.Description)
	seen := make(map[string]struct{}, len(node.Values))
	for _, raw := range node.Values {
		id := EnumValueName(raw)
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		t.AddEnumValue(schema.NewEnumValue(id, ""))
	}
	return s.register(typeName, t)
}

func (s *Session) mapNativeEnum(node *descriptor.Node, name string) *schema.Type {
	typeName := TypeName(name)
	if t, ok := s.lookup(typeName); ok {
		return t
	}
	t := schema.NewType(typeName, schema.TypeKindEnum, node.Description)
	seen := make(map[string]struct{}, len(node.Pairs))
	for _, pair := range node.Pairs {
		id := EnumValueName(pair.Name)
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		t.AddEnumValue(schema.NewEnumValue(id, ""))
	}
	return s.register(typeName, t)
}

func (s *Session) mapObject(node *descriptor.Node, name string, input bool) *schema.Type {
	if t, ok := s.lookupNode(node, input); ok {
		return t
	}
	typeName := TypeName(name)
	if input {
		typeName += "Input"
	}
	if t, ok := s.lookup(typeName); ok {
		return t
	}

	kind := schema.TypeKindObject
	if input {
		kind = schema.TypeKindInputObject
	}
	t := schema.NewType(typeName, kind, node.Description)
	s.register(typeName, t)
	s.registerNode(node, input, t)

	// Fields populate on first access; the shell is already cached, so a
	// field node referencing this object (directly or mutually) resolves to
	// the same instance instead of recursing forever.
	fields := node.OrderedFields()
	baseName := TypeName(name)
	t.SetFieldsFn(func(t *schema.Type) {
		for _, f := range fields {
			ref := s.mapNode(f.Node, baseName+Capitalize(f.Name), input)
			if input {
				iv := schema.NewInputValue(FieldName(f.Name), f.Description, ref)
				if def := defaultValueOf(f.Node); def != nil {
					iv.SetDefault(def)
				}
				t.AddInputField(iv)
			} else {
				t.AddField(schema.NewField(FieldName(f.Name), f.Description, ref))
			}
		}
	})
	return t
}

// mapUnion reduces a union to the shared primitive type when every option
// reduces to the same scalar kind, and falls back to the JSON scalar
// otherwise.
func (s *Session) mapUnion(node *descriptor.Node) *schema.TypeRef {
	shared := ""
	for _, opt := range node.Options {
		scalar := primitiveScalar(opt.Unwrap())
		if scalar == "" || (shared != "" && scalar != shared) {
			return schema.NamedType(schema.ScalarJSON)
		}
		shared = scalar
	}
	if shared == "" {
		return schema.NamedType(schema.ScalarJSON)
	}
	return schema.NamedType(shared)
}

// primitiveScalar returns the builtin scalar a primitive node reduces to,
// or "" when the node is not primitive.
func primitiveScalar(node *descriptor.Node) string {
	if node == nil {
		return ""
	}
	switch node.Kind {
	case descriptor.KindString:
		return schema.ScalarString
	case descriptor.KindNumber:
		if node.Integer {
			return schema.ScalarInt
		}
		return schema.ScalarFloat
	case descriptor.KindBoolean:
		return schema.ScalarBoolean
	case descriptor.KindDate:
		return schema.ScalarDateTime
	case descriptor.KindLiteral:
		return literalScalar(node.Value)
	default:
		return ""
	}
}

// literalScalar maps a literal's runtime kind to the matching scalar.
func literalScalar(v any) string {
	switch v.(type) {
	case string:
		return schema.ScalarString
	case bool:
		return schema.ScalarBoolean
	case int, int32, int64:
		return schema.ScalarInt
	case float32, float64:
		return schema.ScalarFloat
	default:
		return schema.ScalarJSON
	}
}

// defaultValueOf surfaces a Default wrapper's value for input declarations.
func defaultValueOf(node *descriptor.Node) any {
	for cur := node; cur != nil; {
		switch cur.Kind {
		case descriptor.KindDefault:
			return cur.Default
		case descriptor.KindOptional, descriptor.KindNullable:
			cur = cur.Elem
		default:
			return nil
		}
	}
	return nil
}
