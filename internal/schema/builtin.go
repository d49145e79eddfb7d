package schema

// Builtin scalar names.
const (
	ScalarString   = "String"
	ScalarInt      = "Int"
	ScalarFloat    = "Float"
	ScalarBoolean  = "Boolean"
	ScalarID       = "ID"
	ScalarDateTime = "DateTime"
	ScalarJSON     = "JSON"
)

var stringType = &Type{
	Name:        ScalarString,
	Kind:        TypeKindScalar,
	Description: "The `String` scalar type represents textual data, represented as UTF-8 character sequences.",
}

var intType = &Type{
	Name:        ScalarInt,
	Kind:        TypeKindScalar,
	Description: "The `Int` scalar type represents non-fractional signed whole numeric values.",
}

var floatType = &Type{
	Name:        ScalarFloat,
	Kind:        TypeKindScalar,
	Description: "The `Float` scalar type represents signed double-precision fractional values.",
}

var booleanType = &Type{
	Name:        ScalarBoolean,
	Kind:        TypeKindScalar,
	Description: "The `Boolean` scalar type represents `true` or `false`.",
}

var idType = &Type{
	Name:        ScalarID,
	Kind:        TypeKindScalar,
	Description: "The `ID` scalar type represents a unique identifier, often used to refetch an object or as a key for caching.",
}

var dateTimeType = &Type{
	Name:        ScalarDateTime,
	Kind:        TypeKindScalar,
	Description: "The `DateTime` scalar type represents a point in time, serialized as an ISO-8601 string. Unparseable input coerces to null.",
}

var jsonType = &Type{
	Name:        ScalarJSON,
	Kind:        TypeKindScalar,
	Description: "The `JSON` scalar type represents arbitrary JSON values passed through unchanged.",
}

var builtinScalars = []*Type{stringType, intType, floatType, booleanType, idType, dateTimeType, jsonType}

// coreScalars are the five scalars defined by the GraphQL specification
// itself; they are never rendered into SDL.
var coreScalars = map[*Type]struct{}{
	stringType:  {},
	intType:     {},
	floatType:   {},
	booleanType: {},
	idType:      {},
}

var includeDirective = &Directive{
	Name:        "include",
	Description: "Directs the executor to include this field or fragment only when the `if` argument is true.",
	Arguments: []*InputValue{
		{
			Name:        "if",
			Description: "Included when true.",
			Type:        NonNullType(NamedType(ScalarBoolean)),
		},
	},
	Locations: []string{"FIELD", "FRAGMENT_SPREAD", "INLINE_FRAGMENT"},
}

var skipDirective = &Directive{
	Name:        "skip",
	Description: "Directs the executor to skip this field or fragment when the `if` argument is true.",
	Arguments: []*InputValue{
		{
			Name:        "if",
			Description: "Skipped when true.",
			Type:        NonNullType(NamedType(ScalarBoolean)),
		},
	},
	Locations: []string{"FIELD", "FRAGMENT_SPREAD", "INLINE_FRAGMENT"},
}
