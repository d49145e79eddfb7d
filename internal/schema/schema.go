package schema

// Schema represents one generated GraphQL schema: the root operation types
// plus every named type and directive declaration, keyed by name.
type Schema struct {
	QueryType        string
	MutationType     string
	SubscriptionType string
	Types            map[string]*Type
	Directives       map[string]*Directive
	Description      string
}

// NewSchema creates an empty schema with the builtin scalars and directives
// registered.
func NewSchema(description string) *Schema {
	s := &Schema{
		Types:       make(map[string]*Type),
		Directives:  make(map[string]*Directive),
		Description: description,
	}
	for _, t := range builtinScalars {
		s.AddType(t)
	}
	s.AddDirective(includeDirective).AddDirective(skipDirective)
	return s
}

func (s *Schema) SetQueryType(name string) *Schema        { s.QueryType = name; return s }
func (s *Schema) SetMutationType(name string) *Schema     { s.MutationType = name; return s }
func (s *Schema) SetSubscriptionType(name string) *Schema { s.SubscriptionType = name; return s }

// AddType registers t by name. Registering the same name twice keeps the
// first registration; the generation session guarantees identical names map
// to identical instances, so a second registration is always a no-op.
func (s *Schema) AddType(t *Type) *Schema {
	if _, ok := s.Types[t.Name]; !ok {
		s.Types[t.Name] = t
	}
	return s
}

func (s *Schema) AddDirective(d *Directive) *Schema {
	if _, ok := s.Directives[d.Name]; !ok {
		s.Directives[d.Name] = d
	}
	return s
}

// GetQueryType returns the root query type (nil if absent).
func (s *Schema) GetQueryType() *Type { return s.Types[s.QueryType] }

// GetMutationType returns the root mutation type (nil if absent).
func (s *Schema) GetMutationType() *Type { return s.Types[s.MutationType] }

// GetSubscriptionType returns the root subscription type (nil if absent).
func (s *Schema) GetSubscriptionType() *Type { return s.Types[s.SubscriptionType] }

// TypeKind represents the kind of a named GraphQL type. Generated schemas
// only ever produce scalars, objects, enums and input objects.
type TypeKind string

const (
	TypeKindScalar      TypeKind = "SCALAR"
	TypeKindObject      TypeKind = "OBJECT"
	TypeKindEnum        TypeKind = "ENUM"
	TypeKindInputObject TypeKind = "INPUT_OBJECT"
)

// Type is a named GraphQL type.
type Type struct {
	Name        string
	Kind        TypeKind
	Description string
	Fields      []*Field      // OBJECT
	EnumValues  []*EnumValue  // ENUM
	InputFields []*InputValue // INPUT_OBJECT

	// fieldsFn, when set, supplies Fields/InputFields lazily on first access.
	// Two mutually referencing object types can each hold a thunk that names
	// the other; resolution happens after both shells exist.
	fieldsFn func(*Type)
}

func NewType(name string, kind TypeKind, description string) *Type {
	return &Type{Name: name, Kind: kind, Description: description}
}

func (t *Type) AddField(f *Field) *Type         { t.Fields = append(t.Fields, f); return t }
func (t *Type) AddEnumValue(v *EnumValue) *Type { t.EnumValues = append(t.EnumValues, v); return t }
func (t *Type) AddInputField(v *InputValue) *Type {
	t.InputFields = append(t.InputFields, v)
	return t
}

// SetFieldsFn installs a deferred field populator; see Resolve.
func (t *Type) SetFieldsFn(fn func(*Type)) *Type { t.fieldsFn = fn; return t }

// Resolve runs the deferred field populator if one is pending. Safe to call
// repeatedly; the thunk runs at most once.
func (t *Type) Resolve() *Type {
	if t.fieldsFn != nil {
		fn := t.fieldsFn
		t.fieldsFn = nil
		fn(t)
	}
	return t
}

// GetField returns the named field of an object type, nil if absent.
func (t *Type) GetField(name string) *Field {
	t.Resolve()
	for _, f := range t.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// Field represents a field on an object type.
type Field struct {
	Name        string
	Description string
	Type        *TypeRef
	Arguments   []*InputValue
	Directives  []*AppliedDirective
}

func NewField(name, description string, typ *TypeRef) *Field {
	return &Field{Name: name, Description: description, Type: typ}
}

func (f *Field) AddArgument(v *InputValue) *Field { f.Arguments = append(f.Arguments, v); return f }

func (f *Field) AddDirective(d *AppliedDirective) *Field {
	f.Directives = append(f.Directives, d)
	return f
}

// AppliedDirective is one directive use site on a field, with literal
// argument values. Declarative only; nothing here enforces it.
type AppliedDirective struct {
	Name string
	Args []DirectiveArg
}

type DirectiveArg struct {
	Name  string
	Value any
}

// EnumValue is one declared value of an enum type.
type EnumValue struct {
	Name        string
	Description string
}

func NewEnumValue(name, description string) *EnumValue {
	return &EnumValue{Name: name, Description: description}
}

// InputValue is an argument or input-object field declaration.
type InputValue struct {
	Name         string
	Description  string
	Type         *TypeRef
	DefaultValue any
}

func NewInputValue(name, description string, typ *TypeRef) *InputValue {
	return &InputValue{Name: name, Description: description, Type: typ}
}

func (v *InputValue) SetDefault(d any) *InputValue { v.DefaultValue = d; return v }

// Directive is a directive declaration.
type Directive struct {
	Name         string
	Description  string
	Locations    []string
	Arguments    []*InputValue
	IsRepeatable bool
}

func NewDirective(name, description string) *Directive {
	return &Directive{Name: name, Description: description}
}

func (d *Directive) AddArgument(v *InputValue) *Directive {
	d.Arguments = append(d.Arguments, v)
	return d
}

func (d *Directive) AddLocations(locs ...string) *Directive {
	d.Locations = append(d.Locations, locs...)
	return d
}

func (d *Directive) SetRepeatable(r bool) *Directive { d.IsRepeatable = r; return d }

// TypeRef references a type, possibly wrapped with List or NonNull.
type TypeRef struct {
	Kind   TypeRefKind
	OfType *TypeRef // LIST and NON_NULL
	Named  string   // NAMED
}

type TypeRefKind string

const (
	TypeRefKindNamed   TypeRefKind = "NAMED"
	TypeRefKindList    TypeRefKind = "LIST"
	TypeRefKindNonNull TypeRefKind = "NON_NULL"
)

func NonNullType(t *TypeRef) *TypeRef { return &TypeRef{Kind: TypeRefKindNonNull, OfType: t} }
func ListType(t *TypeRef) *TypeRef    { return &TypeRef{Kind: TypeRefKindList, OfType: t} }
func NamedType(name string) *TypeRef  { return &TypeRef{Kind: TypeRefKindNamed, Named: name} }

// IsNonNull reports whether the type is wrapped with Non-Null.
func IsNonNull(t *TypeRef) bool { return t != nil && t.Kind == TypeRefKindNonNull }

// IsList reports whether the type is (or is wrapped by) a list type.
func IsList(t *TypeRef) bool {
	if t == nil {
		return false
	}
	if t.Kind == TypeRefKindList {
		return true
	}
	return t.Kind == TypeRefKindNonNull && t.OfType != nil && t.OfType.Kind == TypeRefKindList
}

// Unwrap removes one layer of Non-Null or List wrapping.
func Unwrap(t *TypeRef) *TypeRef {
	if t == nil {
		return nil
	}
	if t.Kind == TypeRefKindNonNull || t.Kind == TypeRefKindList {
		return t.OfType
	}
	return t
}

// GetNamedType returns the innermost named type of the reference.
func GetNamedType(t *TypeRef) string {
	for cur := t; cur != nil; cur = cur.OfType {
		if cur.Named != "" {
			return cur.Named
		}
	}
	return ""
}
